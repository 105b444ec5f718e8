package dispatch

import (
	"errors"

	"github.com/parleyhq/parley/internal/contacts"
)

// ErrUnsupported marks an unknown function or action name. It is surfaced
// as a 400, never silently ignored.
var ErrUnsupported = errors.New("unsupported query or action")

// ErrInvalidParameters marks a payload whose parameter mapping does not
// match the named function's declared parameters.
var ErrInvalidParameters = errors.New("invalid query parameters")

// PayloadError carries the parser's user-facing error variant through the
// dispatcher unchanged.
type PayloadError struct {
	Msg string
}

func (e *PayloadError) Error() string {
	return e.Msg
}

// Outcome is the dispatcher's closed result union: either a query result or
// a pending action awaiting operator confirmation.
type Outcome interface {
	isOutcome()
}

// QueryResult is the resolved row set of a read-only query.
type QueryResult struct {
	Contacts []contacts.Summary
}

// PendingAction is a proposed side effect. It holds everything the executor
// needs, but nothing has been written yet: the confirmation gate is
// mandatory for any effect derived from natural language.
type PendingAction struct {
	Action     string             `json:"action"`
	Message    string             `json:"message"`
	Recipients []contacts.Summary `json:"recipients"`
}

func (QueryResult) isOutcome()   {}
func (PendingAction) isOutcome() {}
