package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/parleyhq/parley/internal/contacts"
	"github.com/parleyhq/parley/internal/messages"
)

// ContactsHandler serves the contact list, single contacts, and per-contact
// message threads.
type ContactsHandler struct {
	contacts *contacts.Service
	messages *messages.Service
	logger   *slog.Logger
}

// SendMessageRequest is the body for POST /contacts/:id/messages.
type SendMessageRequest struct {
	Content string `json:"content"`
}

func NewContactsHandler(log *slog.Logger, contactService *contacts.Service, messageService *messages.Service) *ContactsHandler {
	return &ContactsHandler{
		contacts: contactService,
		messages: messageService,
		logger:   log.With(slog.String("handler", "contacts")),
	}
}

// Register mounts the contact and thread routes on the Echo instance.
func (h *ContactsHandler) Register(e *echo.Echo) {
	e.GET("/contacts", h.List)
	e.GET("/contacts/:id", h.Get)
	e.GET("/contacts/:id/messages", h.ListMessages)
	e.POST("/contacts/:id/messages", h.SendMessage)
}

func (h *ContactsHandler) List(c echo.Context) error {
	items, err := h.contacts.List(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		h.logger.Error("list contacts failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ContactsHandler) Get(c echo.Context) error {
	contact, err := h.contacts.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, contacts.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "Contact not found"})
		}
		h.logger.Error("get contact failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
	return c.JSON(http.StatusOK, contact)
}

func (h *ContactsHandler) ListMessages(c echo.Context) error {
	ctx := c.Request().Context()
	contactID := c.Param("id")
	if _, err := h.contacts.GetByID(ctx, contactID); err != nil {
		if errors.Is(err, contacts.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "Contact not found"})
		}
		h.logger.Error("get contact failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
	thread, err := h.messages.ListByContact(ctx, contactID)
	if err != nil {
		h.logger.Error("list messages failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
	return c.JSON(http.StatusOK, thread)
}

func (h *ContactsHandler) SendMessage(c echo.Context) error {
	ctx := c.Request().Context()
	contactID := c.Param("id")

	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	if strings.TrimSpace(req.Content) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Content is required"})
	}

	if _, err := h.contacts.GetByID(ctx, contactID); err != nil {
		if errors.Is(err, contacts.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "Contact not found"})
		}
		h.logger.Error("get contact failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}

	now := time.Now().UTC()
	msg, err := h.messages.InsertOutgoing(ctx, contactID, req.Content, now)
	if err != nil {
		h.logger.Error("insert message failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
	if err := h.contacts.TouchLastContact(ctx, contactID, now); err != nil {
		h.logger.Warn("last contact refresh failed",
			slog.String("contact_id", contactID),
			slog.String("error", err.Error()))
	}
	return c.JSON(http.StatusCreated, msg)
}
