package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/parleyhq/parley/internal/contacts"
	"github.com/parleyhq/parley/internal/dispatch"
	"github.com/parleyhq/parley/internal/nlquery"
)

type fakeParser struct {
	payload nlquery.Payload
	lastIn  string
}

func (f *fakeParser) Parse(_ context.Context, utterance string) nlquery.Payload {
	f.lastIn = utterance
	return f.payload
}

type fakeDispatcher struct {
	outcome dispatch.Outcome
	err     error
	calls   int
}

func (f *fakeDispatcher) Dispatch(_ context.Context, _ nlquery.Payload) (dispatch.Outcome, error) {
	f.calls++
	return f.outcome, f.err
}

func postJSON(t *testing.T, handler echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func TestQueryRequiresPrompt(t *testing.T) {
	t.Parallel()

	parser := &fakeParser{}
	dispatcher := &fakeDispatcher{}
	h := NewQueryHandler(testLogger(), parser, dispatcher, 2)

	rec := postJSON(t, h.Query, `{"prompt":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Error != "Prompt is required" {
		t.Errorf("error = %q", resp.Error)
	}
	if dispatcher.calls != 0 {
		t.Errorf("dispatcher calls = %d, want 0", dispatcher.calls)
	}
}

func TestQueryReturnsQueryResult(t *testing.T) {
	t.Parallel()

	rows := []contacts.Summary{
		{ID: "c1", Name: "Ada", ContactInfo: "ada@example.com"},
	}
	h := NewQueryHandler(testLogger(), &fakeParser{}, &fakeDispatcher{outcome: dispatch.QueryResult{Contacts: rows}}, 2)

	rec := postJSON(t, h.Query, `{"prompt":"who asked about pricing?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp QueryResultResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Type != "query_result" {
		t.Errorf("type = %q", resp.Type)
	}
	if len(resp.Data) != 1 || resp.Data[0].Name != "Ada" {
		t.Errorf("data = %+v", resp.Data)
	}
}

func TestQueryReturnsPendingAction(t *testing.T) {
	t.Parallel()

	pending := dispatch.PendingAction{
		Action:  "send_message",
		Message: "We are closed Friday",
		Recipients: []contacts.Summary{
			{ID: "c1", Name: "Ada", ContactInfo: "ada@example.com"},
			{ID: "c2", Name: "Grace", ContactInfo: "grace@example.com"},
		},
	}
	h := NewQueryHandler(testLogger(), &fakeParser{}, &fakeDispatcher{outcome: pending}, 2)

	rec := postJSON(t, h.Query, `{"prompt":"send We are closed Friday to everyone who asked about hours"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp PendingActionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Type != "pending_action" {
		t.Errorf("type = %q", resp.Type)
	}
	if resp.Action != "send_message" || len(resp.Recipients) != 2 {
		t.Errorf("action = %q recipients = %d", resp.Action, len(resp.Recipients))
	}
}

func TestQueryErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "payload error passes through",
			err:        &dispatch.PayloadError{Msg: nlquery.FallbackErrorMessage},
			wantStatus: http.StatusBadRequest,
			wantError:  nlquery.FallbackErrorMessage,
		},
		{
			name:       "unsupported function",
			err:        dispatch.ErrUnsupported,
			wantStatus: http.StatusBadRequest,
			wantError:  "Unsupported query or action",
		},
		{
			name:       "invalid parameters",
			err:        dispatch.ErrInvalidParameters,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid query parameters",
		},
		{
			name:       "store failure",
			err:        errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Internal server error",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewQueryHandler(testLogger(), &fakeParser{}, &fakeDispatcher{err: tt.err}, 2)
			rec := postJSON(t, h.Query, `{"prompt":"anything"}`)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if resp.Error != tt.wantError {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantError)
			}
		})
	}
}
