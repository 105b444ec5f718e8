package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parleyhq/parley/internal/auth"
	"github.com/parleyhq/parley/internal/contacts"
	"github.com/parleyhq/parley/internal/dispatch"
)

// actionExecutor performs a confirmed pending action. *dispatch.Executor
// satisfies it.
type actionExecutor interface {
	Execute(ctx context.Context, pending dispatch.PendingAction) (dispatch.ActionResult, error)
}

// ActionHandler serves POST /execute-action, the confirmation half of the
// query flow. It is the only natural-language path that writes.
type ActionHandler struct {
	executor actionExecutor
	logger   *slog.Logger
}

// ExecuteActionRequest is the body for POST /execute-action. Recipients is a
// pointer so a missing field is distinguishable from an empty list.
type ExecuteActionRequest struct {
	Action     string              `json:"action"`
	Message    string              `json:"message"`
	Recipients *[]contacts.Summary `json:"recipients"`
}

func NewActionHandler(log *slog.Logger, executor actionExecutor) *ActionHandler {
	return &ActionHandler{
		executor: executor,
		logger:   log.With(slog.String("handler", "action")),
	}
}

// Register mounts POST /execute-action on the Echo instance.
func (h *ActionHandler) Register(e *echo.Echo) {
	e.POST("/execute-action", h.Execute)
}

func (h *ActionHandler) Execute(c echo.Context) error {
	var req ExecuteActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	if req.Action == "" || req.Message == "" || req.Recipients == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Action, message, and recipients are required"})
	}

	result, err := h.executor.Execute(c.Request().Context(), dispatch.PendingAction{
		Action:     req.Action,
		Message:    req.Message,
		Recipients: *req.Recipients,
	})
	if err != nil {
		if errors.Is(err, dispatch.ErrUnsupported) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unsupported action"})
		}
		h.logger.Error("action execution failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}

	operator, _ := auth.SubjectFromContext(c)
	h.logger.Info("action executed",
		slog.String("operator", operator),
		slog.String("action", req.Action),
		slog.Int("recipients", len(*req.Recipients)),
		slog.String("status", result.Status),
	)
	return c.JSON(http.StatusOK, result)
}
