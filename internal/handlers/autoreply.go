package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parleyhq/parley/internal/autoreply"
	"github.com/parleyhq/parley/internal/contacts"
	"github.com/parleyhq/parley/internal/messages"
)

// AutoReplyHandler drafts a suggested reply to a contact's latest customer
// message. The draft is returned to the operator, never sent directly.
type AutoReplyHandler struct {
	autoreply *autoreply.Service
	contacts  *contacts.Service
	messages  *messages.Service
	logger    *slog.Logger
}

func NewAutoReplyHandler(log *slog.Logger, replyService *autoreply.Service, contactService *contacts.Service, messageService *messages.Service) *AutoReplyHandler {
	return &AutoReplyHandler{
		autoreply: replyService,
		contacts:  contactService,
		messages:  messageService,
		logger:    log.With(slog.String("handler", "autoreply")),
	}
}

// Register mounts POST /contacts/:id/auto-reply on the Echo instance.
func (h *AutoReplyHandler) Register(e *echo.Echo) {
	e.POST("/contacts/:id/auto-reply", h.Draft)
}

func (h *AutoReplyHandler) Draft(c echo.Context) error {
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

	// The draft answers the most recent customer message; everything before
	// it is conversation history.
	last := -1
	for i := len(thread) - 1; i >= 0; i-- {
		if thread[i].IsFromCustomer {
			last = i
			break
		}
	}
	if last < 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No customer message to reply to"})
	}
	history := make([]string, 0, last)
	for _, msg := range thread[:last] {
		history = append(history, msg.Content)
	}

	reply := h.autoreply.Generate(ctx, thread[last].Content, history)
	return c.JSON(http.StatusOK, reply)
}
