package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/parleyhq/parley/internal/db"
	"github.com/parleyhq/parley/internal/messages"
	"github.com/parleyhq/parley/internal/nlquery"
)

// Executor statuses. A batch where every recipient fails still reports
// partial_success; downstream readers key off the errors list.
const (
	StatusSuccess        = "success"
	StatusPartialSuccess = "partial_success"
)

// OutgoingWriter persists an outgoing message. *messages.Service satisfies it.
type OutgoingWriter interface {
	InsertOutgoing(ctx context.Context, contactID, content string, at time.Time) (messages.Message, error)
}

// ContactToucher refreshes a contact's last-contact timestamp.
// *contacts.Service satisfies it.
type ContactToucher interface {
	TouchLastContact(ctx context.Context, contactID string, at time.Time) error
}

// RecipientResult is a per-recipient success entry.
type RecipientResult struct {
	Recipient string `json:"recipient"`
	Status    string `json:"status"`
}

// RecipientError is a per-recipient failure entry.
type RecipientError struct {
	Recipient string `json:"recipient"`
	Error     string `json:"error"`
}

// ActionResult aggregates per-recipient outcomes of an executed action.
type ActionResult struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Results []RecipientResult `json:"results"`
	Errors  []RecipientError  `json:"errors,omitempty"`
}

// Executor performs confirmed pending actions. The caller owns the
// confirmation gate; Execute does no further authorization.
type Executor struct {
	messages OutgoingWriter
	contacts ContactToucher
	logger   *slog.Logger
	now      func() time.Time
}

func NewExecutor(log *slog.Logger, writer OutgoingWriter, toucher ContactToucher) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{
		messages: writer,
		contacts: toucher,
		logger:   log.With(slog.String("component", "executor")),
		now:      time.Now,
	}
}

// Execute sends the pending message to every recipient independently: one
// recipient's failure never aborts the rest, and no transaction spans the
// batch. The message rows and the last-contact refresh share one timestamp.
func (e *Executor) Execute(ctx context.Context, pending PendingAction) (ActionResult, error) {
	if pending.Action != nlquery.ActionSendMessage {
		return ActionResult{}, fmt.Errorf("%w: action %q", ErrUnsupported, pending.Action)
	}

	now := e.now().UTC()
	results := make([]RecipientResult, 0, len(pending.Recipients))
	errs := make([]RecipientError, 0)

	for _, recipient := range pending.Recipients {
		if _, err := e.messages.InsertOutgoing(ctx, recipient.ID, pending.Message, now); err != nil {
			e.logger.Warn("send failed",
				slog.String("contact_id", recipient.ID),
				slog.String("error", err.Error()),
			)
			detail := err.Error()
			if db.IsForeignKeyViolation(err) {
				detail = "contact not found"
			}
			errs = append(errs, RecipientError{Recipient: recipient.Name, Error: detail})
			continue
		}
		results = append(results, RecipientResult{Recipient: recipient.Name, Status: "sent"})

		// Last-contact refresh is best effort: the message is already
		// recorded, so a failed touch only costs list ordering.
		if err := e.contacts.TouchLastContact(ctx, recipient.ID, now); err != nil {
			e.logger.Warn("last contact refresh failed",
				slog.String("contact_id", recipient.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if len(errs) > 0 {
		return ActionResult{
			Status:  StatusPartialSuccess,
			Message: "Some messages could not be sent",
			Results: results,
			Errors:  errs,
		}, nil
	}
	return ActionResult{
		Status:  StatusSuccess,
		Message: "Messages sent successfully",
		Results: results,
	}, nil
}
