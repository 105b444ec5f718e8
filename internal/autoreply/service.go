// Package autoreply drafts customer-service replies on the smaller model tier.
package autoreply

import (
	"context"
	"log/slog"

	"github.com/parleyhq/parley/internal/llm"
	"github.com/parleyhq/parley/internal/nlquery"
)

const replyMaxTokens = 400

const replySystemPrompt = `You are an AI customer service assistant. Provide helpful, concise, and friendly responses.
Keep your answers brief and to the point. If you're not confident about an answer,
indicate that a human representative will follow up.`

// FallbackReply is returned whenever the model call fails.
const FallbackReply = "I'll have a human representative get back to you soon."

// Reply is a drafted response with a confidence score. Confidence is a
// placeholder value until the model exposes one.
type Reply struct {
	Reply      string  `json:"reply"`
	Confidence float64 `json:"confidence"`
}

type Service struct {
	llm    nlquery.Completer
	model  string
	logger *slog.Logger
}

func NewService(log *slog.Logger, completer nlquery.Completer, model string) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		llm:    completer,
		model:  model,
		logger: log.With(slog.String("service", "autoreply")),
	}
}

// Generate drafts a reply to customerMessage given the prior thread contents.
// History alternates customer/operator starting with the customer. Failures
// degrade to the fixed fallback with confidence 0; nothing is persisted.
func (s *Service) Generate(ctx context.Context, customerMessage string, history []string) Reply {
	turns := make([]llm.Message, 0, len(history)+1)
	for i, content := range history {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		turns = append(turns, llm.Message{Role: role, Content: content})
	}
	turns = append(turns, llm.Message{Role: "user", Content: customerMessage})

	content, err := s.llm.Complete(ctx, llm.CompletionRequest{
		Model:     s.model,
		System:    replySystemPrompt,
		MaxTokens: replyMaxTokens,
		Messages:  turns,
	})
	if err != nil {
		s.logger.Warn("auto-reply generation failed", slog.String("error", err.Error()))
		return Reply{Reply: FallbackReply, Confidence: 0}
	}
	return Reply{Reply: content, Confidence: 0.9}
}
