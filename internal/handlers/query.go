package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/parleyhq/parley/internal/contacts"
	"github.com/parleyhq/parley/internal/dispatch"
	"github.com/parleyhq/parley/internal/nlquery"
)

// promptParser classifies an operator utterance. *nlquery.Parser satisfies it.
type promptParser interface {
	Parse(ctx context.Context, utterance string) nlquery.Payload
}

// outcomeDispatcher resolves a payload against the store. *dispatch.Dispatcher
// satisfies it.
type outcomeDispatcher interface {
	Dispatch(ctx context.Context, payload nlquery.Payload) (dispatch.Outcome, error)
}

// QueryHandler serves POST /query: natural language in, a query result or a
// pending action out. Nothing on this path writes to the store.
type QueryHandler struct {
	parser     promptParser
	dispatcher outcomeDispatcher
	ratePerSec float64
	logger     *slog.Logger
}

// QueryRequest is the body for POST /query.
type QueryRequest struct {
	Prompt string `json:"prompt"`
}

// QueryResultResponse is the read-path success body.
type QueryResultResponse struct {
	Type string             `json:"type"`
	Data []contacts.Summary `json:"data"`
}

// PendingActionResponse proposes a bulk send for operator confirmation.
type PendingActionResponse struct {
	Type       string             `json:"type"`
	Action     string             `json:"action"`
	Message    string             `json:"message"`
	Recipients []contacts.Summary `json:"recipients"`
}

func NewQueryHandler(log *slog.Logger, parser promptParser, dispatcher outcomeDispatcher, ratePerSec float64) *QueryHandler {
	return &QueryHandler{
		parser:     parser,
		dispatcher: dispatcher,
		ratePerSec: ratePerSec,
		logger:     log.With(slog.String("handler", "query")),
	}
}

// Register mounts POST /query with a per-IP rate limit. Each request costs
// one LLM call, so the limit is much tighter than the rest of the API.
func (h *QueryHandler) Register(e *echo.Echo) {
	limiter := middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(h.ratePerSec)))
	e.POST("/query", h.Query, limiter)
}

func (h *QueryHandler) Query(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Prompt is required"})
	}

	ctx := c.Request().Context()
	payload := h.parser.Parse(ctx, req.Prompt)
	outcome, err := h.dispatcher.Dispatch(ctx, payload)
	if err != nil {
		var payloadErr *dispatch.PayloadError
		switch {
		case errors.As(err, &payloadErr):
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: payloadErr.Msg})
		case errors.Is(err, dispatch.ErrUnsupported):
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unsupported query or action"})
		case errors.Is(err, dispatch.ErrInvalidParameters):
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters"})
		default:
			h.logger.Error("query dispatch failed", slog.String("error", err.Error()))
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		}
	}

	switch result := outcome.(type) {
	case dispatch.QueryResult:
		return c.JSON(http.StatusOK, QueryResultResponse{
			Type: "query_result",
			Data: result.Contacts,
		})
	case dispatch.PendingAction:
		return c.JSON(http.StatusOK, PendingActionResponse{
			Type:       "pending_action",
			Action:     result.Action,
			Message:    result.Message,
			Recipients: result.Recipients,
		})
	default:
		h.logger.Error("unexpected dispatch outcome")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}
