package nlquery

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/llm"
)

type fakeCompleter struct {
	response string
	err      error
	lastReq  llm.CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	f.lastReq = req
	return f.response, f.err
}

func TestParseQueryPayload(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{response: `{"type":"query","query":{"functionName":"get_customers_by_message_keyword","parameters":{"keyword":"hello"}}}`}
	parser := NewParser(nil, completer, "claude-3-opus-20240229")

	payload := parser.Parse(context.Background(), "show me contacts who said hello")
	if payload.Kind != KindQuery {
		t.Fatalf("kind = %q, want query", payload.Kind)
	}
	if payload.Query.FunctionName != FnCustomersByKeyword {
		t.Errorf("function = %q, want %q", payload.Query.FunctionName, FnCustomersByKeyword)
	}
	if got := payload.Query.Parameters.String("keyword"); got != "hello" {
		t.Errorf("keyword = %q, want hello", got)
	}
}

func TestParseActionPayloadFenced(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{response: "Here is the parsed request:\n```json\n{\"type\":\"action\",\"action\":\"send_message\",\"message\":\"We're closing early\",\"query\":{\"functionName\":\"get_customers_by_message_keyword_and_date_range\",\"parameters\":{\"keyword\":\"refund\",\"start_date\":\"2024-01-01\",\"end_date\":\"2024-01-31\"}}}\n```\n"}
	parser := NewParser(nil, completer, "claude-3-opus-20240229")

	payload := parser.Parse(context.Background(), "send 'We're closing early' to everyone who mentioned refund")
	if payload.Kind != KindAction {
		t.Fatalf("kind = %q, want action", payload.Kind)
	}
	if payload.Action.Name != ActionSendMessage {
		t.Errorf("action = %q, want send_message", payload.Action.Name)
	}
	if payload.Action.Message != "We're closing early" {
		t.Errorf("message = %q", payload.Action.Message)
	}
	if got := payload.Action.Query.Parameters.String("start_date"); got != "2024-01-01" {
		t.Errorf("start_date = %q, want 2024-01-01", got)
	}
}

func TestParseBareJSONInProse(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{response: `Sure! {"type":"query","query":{"functionName":"get_customers_by_message_keyword","parameters":{"keyword":"refund"}}} Let me know if that helps.`}
	parser := NewParser(nil, completer, "claude-3-opus-20240229")

	payload := parser.Parse(context.Background(), "who mentioned refund")
	if payload.Kind != KindQuery {
		t.Fatalf("kind = %q, want query", payload.Kind)
	}
}

func TestParseFailuresReturnFixedMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		completer *fakeCompleter
	}{
		{"llm error", &fakeCompleter{err: errors.New("connection refused")}},
		{"no json", &fakeCompleter{response: "I cannot help with that."}},
		{"invalid json", &fakeCompleter{response: "{not valid json]"}},
		{"query missing function", &fakeCompleter{response: `{"type":"query","query":{"parameters":{}}}`}},
		{"action missing message", &fakeCompleter{response: `{"type":"action","action":"send_message","query":{"functionName":"get_customers_by_message_keyword","parameters":{}}}`}},
		{"unknown type", &fakeCompleter{response: `{"type":"mutation"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewParser(nil, tt.completer, "claude-3-opus-20240229")
			payload := parser.Parse(context.Background(), "anything")
			if payload.Kind != KindError {
				t.Fatalf("kind = %q, want error", payload.Kind)
			}
			if payload.Err != FallbackErrorMessage {
				t.Errorf("err = %q, want fixed fallback message", payload.Err)
			}
		})
	}
}

func TestParsePromptCarriesCurrentDate(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{response: `{"type":"query","query":{"functionName":"get_customers_by_message_keyword","parameters":{"keyword":"x"}}}`}
	parser := NewParser(nil, completer, "claude-3-opus-20240229")
	parser.now = func() time.Time {
		return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	}

	parser.Parse(context.Background(), "anything")
	if !strings.Contains(completer.lastReq.System, "Current Date: 2024-03-15") {
		t.Errorf("system prompt missing current date:\n%s", completer.lastReq.System)
	}
	if !strings.Contains(completer.lastReq.System, FnCustomersByKeywordAndDateRange) {
		t.Error("system prompt missing date-range function name")
	}
	if completer.lastReq.MaxTokens != parserMaxTokens {
		t.Errorf("max tokens = %d, want %d", completer.lastReq.MaxTokens, parserMaxTokens)
	}
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
		ok      bool
	}{
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"fenced with prose", "sure:\n```json\n{\"a\":1}\n```\ndone", `{"a":1}`, true},
		{"bare braces", `prefix {"a":{"b":2}} suffix`, `{"a":{"b":2}}`, true},
		{"no json", "nothing here", "", false},
		{"lone open brace", "oops {", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSON(tt.content)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("extracted = %q, want %q", got, tt.want)
			}
		})
	}
}
