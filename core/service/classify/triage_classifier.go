// Package classify assigns one closed-set business category to an
// inbound email with a single chat completion.
package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"mailtriage/core/domain"
	"mailtriage/core/port/out"
)

type Classifier struct {
	chat out.ChatModel
	log  zerolog.Logger
}

func NewClassifier(chat out.ChatModel, log zerolog.Logger) *Classifier {
	return &Classifier{
		chat: chat,
		log:  log.With().Str("component", "classifier").Logger(),
	}
}

func systemPrompt() string {
	names := make([]string, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		names = append(names, c.String())
	}
	return fmt.Sprintf(`You are an email categorization assistant.
Categorize the email into one of these categories: %s.
Return only the category name without any explanation.`, strings.Join(names, ", "))
}

// Classify sends the message body to the model and maps the reply to a
// category. An unrecognized label falls back to GENERAL with a warning
// and never surfaces as an error; only a failed model call does.
func (c *Classifier) Classify(ctx context.Context, content string) (domain.Category, error) {
	reply, err := c.chat.CompleteWithSystem(ctx, systemPrompt(), content)
	if err != nil {
		return "", fmt.Errorf("classification call: %w", err)
	}

	category, ok := domain.ParseCategory(reply)
	if !ok {
		c.log.Warn().
			Str("reply", strings.TrimSpace(reply)).
			Msg("model returned invalid category, defaulting to GENERAL")
	}
	return category, nil
}
