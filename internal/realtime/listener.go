package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Notification channels declared by the notify triggers (db/migrations).
const (
	channelContacts = "contacts_changed"
	channelMessages = "messages_changed"
)

// Listener holds one dedicated connection on LISTEN and republishes store
// changes into the hub.
type Listener struct {
	pool   *pgxpool.Pool
	hub    *Hub
	logger *slog.Logger
}

func NewListener(log *slog.Logger, pool *pgxpool.Pool, hub *Hub) *Listener {
	if log == nil {
		log = slog.Default()
	}
	return &Listener{
		pool:   pool,
		hub:    hub,
		logger: log.With(slog.String("component", "realtime")),
	}
}

// Run listens until ctx is cancelled, re-acquiring the connection after
// transient failures.
func (l *Listener) Run(ctx context.Context) error {
	for {
		if err := l.listen(ctx); err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			l.logger.Warn("listener connection lost", slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(5 * time.Second):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	for _, channel := range []string{channelContacts, channelMessages} {
		if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
			return err
		}
	}
	l.logger.Info("listening for store changes")

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		var event Event
		if err := json.Unmarshal([]byte(notification.Payload), &event); err != nil {
			l.logger.Warn("bad notification payload", slog.String("payload", notification.Payload))
			continue
		}
		l.dispatch(event)
	}
}

func (l *Listener) dispatch(event Event) {
	switch event.Collection {
	case TopicContacts:
		l.hub.Publish(TopicContacts, event)
	case TopicMessages:
		l.hub.Publish(TopicMessages, event)
		if event.ContactID != "" {
			l.hub.Publish(TopicMessagesFor(event.ContactID), event)
		}
	default:
		l.logger.Warn("unknown collection in notification", slog.String("collection", event.Collection))
	}
}
