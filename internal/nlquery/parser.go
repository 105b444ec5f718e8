// Package nlquery translates operator utterances into structured query or
// action payloads via the LLM, without ever leaking model internals to the
// caller.
package nlquery

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/parleyhq/parley/internal/llm"
)

// FallbackErrorMessage is the fixed user-facing message for every parse
// failure. Raw model or transport errors never reach the operator.
const FallbackErrorMessage = "Sorry, I didn't understand that. Try 'send <message> to <query>'."

const parserMaxTokens = 1000

// Completer is the single LLM operation the parser needs.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
}

// Parser turns a raw utterance into a Payload.
type Parser struct {
	llm    Completer
	model  string
	logger *slog.Logger
	now    func() time.Time
}

func NewParser(log *slog.Logger, completer Completer, model string) *Parser {
	if log == nil {
		log = slog.Default()
	}
	return &Parser{
		llm:    completer,
		model:  model,
		logger: log.With(slog.String("component", "nlquery")),
		now:    time.Now,
	}
}

// Parse classifies the utterance. It never returns an error: every failure
// collapses into the error variant with the fixed fallback message.
func (p *Parser) Parse(ctx context.Context, utterance string) Payload {
	content, err := p.llm.Complete(ctx, llm.CompletionRequest{
		Model:     p.model,
		System:    systemPrompt(p.now().UTC().Format("2006-01-02")),
		MaxTokens: parserMaxTokens,
		Messages:  []llm.Message{{Role: "user", Content: utterance}},
	})
	if err != nil {
		p.logger.Warn("llm call failed", slog.String("error", err.Error()))
		return ErrorPayload(FallbackErrorMessage)
	}

	raw, ok := extractJSON(content)
	if !ok {
		p.logger.Warn("no JSON found in llm response")
		return ErrorPayload(FallbackErrorMessage)
	}

	payload, err := decodePayload(raw)
	if err != nil {
		p.logger.Warn("failed to decode llm payload", slog.String("error", err.Error()))
		return ErrorPayload(FallbackErrorMessage)
	}
	return payload
}

var fencedJSON = regexp.MustCompile("```json\\s*([\\s\\S]*?)```")

// extractJSON pulls the JSON body out of a model response: a fenced
// ```json block first, otherwise the first top-level brace-delimited
// substring. Models wrap JSON in prose or fences inconsistently, so both
// tiers are required.
func extractJSON(content string) (string, bool) {
	if match := fencedJSON.FindStringSubmatch(content); match != nil {
		return strings.TrimSpace(match[1]), true
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return content[start : end+1], true
}

func decodePayload(raw string) (Payload, error) {
	var decoded struct {
		Type    string           `json:"type"`
		Query   *QueryDescriptor `json:"query"`
		Action  string           `json:"action"`
		Message string           `json:"message"`
		Error   string           `json:"error"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return Payload{}, err
	}

	if decoded.Error != "" {
		return ErrorPayload(decoded.Error), nil
	}

	switch decoded.Type {
	case string(KindQuery):
		if decoded.Query == nil || decoded.Query.FunctionName == "" {
			return ErrorPayload(FallbackErrorMessage), nil
		}
		if decoded.Query.Parameters == nil {
			decoded.Query.Parameters = Parameters{}
		}
		return Payload{Kind: KindQuery, Query: decoded.Query}, nil
	case string(KindAction):
		if decoded.Action == "" || decoded.Message == "" || decoded.Query == nil || decoded.Query.FunctionName == "" {
			return ErrorPayload(FallbackErrorMessage), nil
		}
		if decoded.Query.Parameters == nil {
			decoded.Query.Parameters = Parameters{}
		}
		return Payload{
			Kind: KindAction,
			Action: &ActionRequest{
				Name:    decoded.Action,
				Message: decoded.Message,
				Query:   *decoded.Query,
			},
		}, nil
	default:
		return ErrorPayload(FallbackErrorMessage), nil
	}
}
