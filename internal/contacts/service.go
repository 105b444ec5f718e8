// Package contacts provides contact reads and the keyword lookup functions
// exposed to the natural-language query vocabulary.
package contacts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parleyhq/parley/internal/db"
)

// ErrNotFound is returned when a contact does not exist.
var ErrNotFound = errors.New("contact not found")

type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// List returns all contacts ordered by most recent contact first, optionally
// filtered by a case-insensitive substring match on name or contact info.
func (s *Service) List(ctx context.Context, filter string) ([]Contact, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("contacts pool not configured")
	}
	query := `
		SELECT id, name, contact_info, last_contact, created_at
		FROM contacts
		ORDER BY last_contact DESC NULLS LAST, name ASC`
	args := []any{}
	if trimmed := strings.TrimSpace(filter); trimmed != "" {
		query = `
			SELECT id, name, contact_info, last_contact, created_at
			FROM contacts
			WHERE name ILIKE $1 OR contact_info ILIKE $1
			ORDER BY last_contact DESC NULLS LAST, name ASC`
		args = append(args, "%"+trimmed+"%")
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()
	return scanContacts(rows)
}

// GetByID returns a single contact.
func (s *Service) GetByID(ctx context.Context, contactID string) (Contact, error) {
	if s.pool == nil {
		return Contact{}, fmt.Errorf("contacts pool not configured")
	}
	pgID, err := db.ParseUUID(contactID)
	if err != nil {
		return Contact{}, err
	}
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, contact_info, last_contact, created_at
		FROM contacts
		WHERE id = $1`, pgID)
	contact, err := scanContact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, ErrNotFound
		}
		return Contact{}, fmt.Errorf("get contact: %w", err)
	}
	return contact, nil
}

// ByMessageKeyword returns the distinct contacts with at least one message
// whose content contains keyword (case-insensitive). Results are ordered by
// name for determinism.
func (s *Service) ByMessageKeyword(ctx context.Context, keyword string) ([]Summary, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("contacts pool not configured")
	}
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT c.id, c.name, c.contact_info
		FROM contacts c
		JOIN messages m ON m.contact_id = c.id
		WHERE m.content ILIKE $1
		ORDER BY c.name ASC`, "%"+keyword+"%")
	if err != nil {
		return nil, fmt.Errorf("contacts by keyword: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// ByMessageKeywordInRange is ByMessageKeyword additionally bounded by an
// inclusive timestamp range on the matching messages.
func (s *Service) ByMessageKeywordInRange(ctx context.Context, keyword string, start, end time.Time) ([]Summary, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("contacts pool not configured")
	}
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT c.id, c.name, c.contact_info
		FROM contacts c
		JOIN messages m ON m.contact_id = c.id
		WHERE m.content ILIKE $1
		  AND m.timestamp >= $2
		  AND m.timestamp <= $3
		ORDER BY c.name ASC`, "%"+keyword+"%", start, end)
	if err != nil {
		return nil, fmt.Errorf("contacts by keyword in range: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// TouchLastContact sets the contact's last_contact timestamp.
func (s *Service) TouchLastContact(ctx context.Context, contactID string, at time.Time) error {
	if s.pool == nil {
		return fmt.Errorf("contacts pool not configured")
	}
	pgID, err := db.ParseUUID(contactID)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `UPDATE contacts SET last_contact = $2 WHERE id = $1`, pgID, at)
	if err != nil {
		return fmt.Errorf("touch last contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanContacts(rows pgx.Rows) ([]Contact, error) {
	items := make([]Contact, 0)
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanContact(row pgx.Row) (Contact, error) {
	var (
		id          pgtype.UUID
		name        string
		contactInfo string
		lastContact pgtype.Timestamptz
		createdAt   pgtype.Timestamptz
	)
	if err := row.Scan(&id, &name, &contactInfo, &lastContact, &createdAt); err != nil {
		return Contact{}, err
	}
	contact := Contact{
		ID:          db.UUIDToString(id),
		Name:        name,
		ContactInfo: contactInfo,
		CreatedAt:   db.TimeFromPg(createdAt),
	}
	if lastContact.Valid {
		t := lastContact.Time
		contact.LastContact = &t
	}
	return contact, nil
}

func scanSummaries(rows pgx.Rows) ([]Summary, error) {
	items := make([]Summary, 0)
	for rows.Next() {
		var (
			id          pgtype.UUID
			name        string
			contactInfo string
		)
		if err := rows.Scan(&id, &name, &contactInfo); err != nil {
			return nil, err
		}
		items = append(items, Summary{
			ID:          db.UUIDToString(id),
			Name:        name,
			ContactInfo: contactInfo,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
