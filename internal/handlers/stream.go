package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/parleyhq/parley/internal/realtime"
)

// StreamHandler serves GET /stream: a server-sent event feed of store
// changes. ?contact_id= narrows to one contact's thread, ?collection= to
// contacts or messages; otherwise both collections are streamed.
type StreamHandler struct {
	hub    *realtime.Hub
	logger *slog.Logger
}

func NewStreamHandler(log *slog.Logger, hub *realtime.Hub) *StreamHandler {
	return &StreamHandler{
		hub:    hub,
		logger: log.With(slog.String("handler", "stream")),
	}
}

// Register mounts GET /stream on the Echo instance.
func (h *StreamHandler) Register(e *echo.Echo) {
	e.GET("/stream", h.Stream)
}

func (h *StreamHandler) Stream(c echo.Context) error {
	if h.hub == nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "stream hub not configured"})
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming not supported")
	}
	writer := bufio.NewWriter(c.Response().Writer)

	var topics []string
	contactID := strings.TrimSpace(c.QueryParam("contact_id"))
	collection := strings.TrimSpace(c.QueryParam("collection"))
	switch {
	case contactID != "":
		topics = []string{realtime.TopicMessagesFor(contactID)}
	case collection == realtime.TopicContacts || collection == realtime.TopicMessages:
		topics = []string{collection}
	default:
		topics = []string{realtime.TopicContacts, realtime.TopicMessages}
	}

	var streams []<-chan realtime.Event
	for _, topic := range topics {
		_, stream, cancel := h.hub.Subscribe(topic)
		defer cancel()
		streams = append(streams, stream)
	}

	merged := make(chan realtime.Event)
	done := c.Request().Context().Done()
	for _, stream := range streams {
		go func(stream <-chan realtime.Event) {
			for event := range stream {
				select {
				case merged <- event:
				case <-done:
					return
				}
			}
		}(stream)
	}

	for {
		select {
		case <-done:
			return nil
		case event := <-merged:
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			_, _ = writer.WriteString(fmt.Sprintf("data: %s\n\n", string(data)))
			writer.Flush()
			flusher.Flush()
		}
	}
}
