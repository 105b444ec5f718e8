// Package messages provides thread reads and outgoing message writes.
package messages

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parleyhq/parley/internal/db"
)

type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// ListByContact returns a contact's thread in ascending timestamp order.
func (s *Service) ListByContact(ctx context.Context, contactID string) ([]Message, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("messages pool not configured")
	}
	pgID, err := db.ParseUUID(contactID)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, contact_id, content, direction, is_from_customer, is_ai_response, is_sent, timestamp
		FROM messages
		WHERE contact_id = $1
		ORDER BY timestamp ASC`, pgID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	items := make([]Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// InsertOutgoing records an operator- or executor-authored outgoing message.
// The row is written with is_sent=false for the delivery worker.
func (s *Service) InsertOutgoing(ctx context.Context, contactID, content string, at time.Time) (Message, error) {
	if s.pool == nil {
		return Message{}, fmt.Errorf("messages pool not configured")
	}
	pgID, err := db.ParseUUID(contactID)
	if err != nil {
		return Message{}, err
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO messages (contact_id, content, direction, is_from_customer, is_ai_response, is_sent, timestamp)
		VALUES ($1, $2, 'outgoing', false, false, false, $3)
		RETURNING id, contact_id, content, direction, is_from_customer, is_ai_response, is_sent, timestamp`,
		pgID, content, at)
	msg, err := scanMessage(row)
	if err != nil {
		return Message{}, fmt.Errorf("insert outgoing message: %w", err)
	}
	return msg, nil
}

// CountUnsentOlderThan returns how many outgoing messages older than cutoff
// are still waiting for delivery.
func (s *Service) CountUnsentOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.pool == nil {
		return 0, fmt.Errorf("messages pool not configured")
	}
	var count int64
	err := s.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM messages
		WHERE direction = 'outgoing' AND is_sent = false AND timestamp < $1`, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unsent: %w", err)
	}
	return count, nil
}

func scanMessage(row pgx.Row) (Message, error) {
	var (
		id             pgtype.UUID
		contactID      pgtype.UUID
		content        string
		direction      string
		isFromCustomer bool
		isAIResponse   bool
		isSent         bool
		timestamp      pgtype.Timestamptz
	)
	if err := row.Scan(&id, &contactID, &content, &direction, &isFromCustomer, &isAIResponse, &isSent, &timestamp); err != nil {
		return Message{}, err
	}
	return Message{
		ID:             db.UUIDToString(id),
		ContactID:      db.UUIDToString(contactID),
		Content:        content,
		Direction:      direction,
		IsFromCustomer: isFromCustomer,
		IsAIResponse:   isAIResponse,
		IsSent:         isSent,
		Timestamp:      db.TimeFromPg(timestamp),
	}, nil
}
