// Package dispatch routes parsed payloads to lookup functions and gates
// side effects behind operator confirmation.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/parleyhq/parley/internal/contacts"
	"github.com/parleyhq/parley/internal/nlquery"
)

// Dispatcher resolves parsed payloads against the store. It performs reads
// only; the action path stops at a PendingAction.
type Dispatcher struct {
	store  Resolver
	logger *slog.Logger
}

func NewDispatcher(log *slog.Logger, store Resolver) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		store:  store,
		logger: log.With(slog.String("component", "dispatch")),
	}
}

// Dispatch turns a payload into an Outcome. Error variants pass through as
// *PayloadError, unknown names fail with ErrUnsupported, bad parameters
// with ErrInvalidParameters.
func (d *Dispatcher) Dispatch(ctx context.Context, payload nlquery.Payload) (Outcome, error) {
	switch payload.Kind {
	case nlquery.KindError:
		return nil, &PayloadError{Msg: payload.Err}

	case nlquery.KindQuery:
		results, err := d.resolve(ctx, *payload.Query)
		if err != nil {
			return nil, err
		}
		return QueryResult{Contacts: results}, nil

	case nlquery.KindAction:
		if payload.Action.Name != nlquery.ActionSendMessage {
			return nil, fmt.Errorf("%w: action %q", ErrUnsupported, payload.Action.Name)
		}
		recipients, err := d.resolve(ctx, payload.Action.Query)
		if err != nil {
			return nil, err
		}
		d.logger.Info("pending action proposed",
			slog.String("action", payload.Action.Name),
			slog.Int("recipients", len(recipients)),
		)
		return PendingAction{
			Action:     payload.Action.Name,
			Message:    payload.Action.Message,
			Recipients: recipients,
		}, nil

	default:
		return nil, ErrUnsupported
	}
}

func (d *Dispatcher) resolve(ctx context.Context, query nlquery.QueryDescriptor) ([]contacts.Summary, error) {
	resolver, ok := registry[query.FunctionName]
	if !ok {
		return nil, fmt.Errorf("%w: function %q", ErrUnsupported, query.FunctionName)
	}
	results, err := resolver(ctx, d.store, query.Parameters)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []contacts.Summary{}
	}
	return results, nil
}
