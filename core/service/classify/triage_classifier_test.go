package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"mailtriage/core/domain"
)

type stubChat struct {
	reply string
	err   error

	lastSystem string
	lastUser   string
}

func (s *stubChat) CompleteWithSystem(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	s.lastSystem = systemPrompt
	s.lastUser = userPrompt
	return s.reply, s.err
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  domain.Category
	}{
		{"clean label", "CLAIM", domain.CategoryClaim},
		{"lowercase label", "billing", domain.CategoryBilling},
		{"label with whitespace", "\n ENQUIRY \n", domain.CategoryEnquiry},
		{"unknown label falls back", "I think this is spam", domain.CategoryGeneral},
		{"empty reply falls back", "", domain.CategoryGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &stubChat{reply: tt.reply}
			c := NewClassifier(chat, zerolog.Nop())

			got, err := c.Classify(context.Background(), "some email content")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestClassifyPromptCarriesVocabulary(t *testing.T) {
	chat := &stubChat{reply: "CLAIM"}
	c := NewClassifier(chat, zerolog.Nop())

	if _, err := c.Classify(context.Background(), "claim status please"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, cat := range domain.Categories() {
		if !strings.Contains(chat.lastSystem, cat.String()) {
			t.Errorf("system prompt missing category %q", cat)
		}
	}
	if strings.Contains(chat.lastSystem, domain.CategoryGeneral.String()) {
		t.Error("system prompt must not offer the fallback category")
	}
	if chat.lastUser != "claim status please" {
		t.Errorf("user prompt should be the message content, got %q", chat.lastUser)
	}
}

func TestClassifyModelError(t *testing.T) {
	chat := &stubChat{err: errors.New("rate limited")}
	c := NewClassifier(chat, zerolog.Nop())

	if _, err := c.Classify(context.Background(), "content"); err == nil {
		t.Fatal("expected error when the model call fails")
	}
}
