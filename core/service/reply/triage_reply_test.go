package reply

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"mailtriage/core/domain"
)

type stubRetriever struct {
	chunks []*domain.RetrievedChunk
	err    error

	lastQuery string
	lastK     int
}

func (s *stubRetriever) TopK(_ context.Context, query string, k int) ([]*domain.RetrievedChunk, error) {
	s.lastQuery = query
	s.lastK = k
	return s.chunks, s.err
}

type stubChat struct {
	response string
	err      error

	lastSystem string
	lastUser   string
}

func (s *stubChat) CompleteWithSystem(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	s.lastSystem = systemPrompt
	s.lastUser = userPrompt
	return s.response, s.err
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		wantSubject string
		wantBody    string
	}{
		{
			name:        "well formed",
			response:    "Subject: AB12CD34 - Claim status update\nBody:\n<p>Dear Alice,</p>",
			wantSubject: "AB12CD34 - Claim status update",
			wantBody:    "<p>Dear Alice,</p>",
		},
		{
			name:        "marker on the same line",
			response:    "Subject: X\nBody: <p>hello</p>",
			wantSubject: "X",
			wantBody:    "<p>hello</p>",
		},
		{
			name:        "missing marker yields empty subject and raw body",
			response:    "<p>just a body with no structure</p>",
			wantSubject: "",
			wantBody:    "<p>just a body with no structure</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body := parseResponse(tt.response)
			if subject != tt.wantSubject {
				t.Errorf("subject = %q, want %q", subject, tt.wantSubject)
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestSubstituteTicketID(t *testing.T) {
	in := "Subject: {ticketId} - Update\nBody:\n<p>Your ticket {ticketId} is open.</p>"
	got := substituteTicketID(in, "AB12CD34")

	if strings.Contains(got, "{ticketId}") {
		t.Error("placeholder left unsubstituted")
	}
	if strings.Count(got, "AB12CD34") != 2 {
		t.Errorf("expected 2 substitutions, got %d", strings.Count(got, "AB12CD34"))
	}
}

func TestNormalizeBody(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single break", "line one\nline two", "line one<br>line two"},
		{"paragraph break", "para one\n\npara two", "para one<p>para two"},
		{"many breaks collapse", "a\n\n\n\nb", "a<p>b"},
		{"crlf normalized", "a\r\nb", "a<br>b"},
		{"already html untouched", "<p>done</p>", "<p>done</p>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeBody(tt.in); got != tt.want {
				t.Errorf("normalizeBody(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDraft(t *testing.T) {
	retriever := &stubRetriever{
		chunks: []*domain.RetrievedChunk{
			{Content: "Claims are settled within 14 days.", Score: 0.92},
			{Content: "Premium payments are due monthly.", Score: 0.80},
		},
	}
	chat := &stubChat{
		response: "Subject: {ticketId} - Claim status update\nBody:\n<p>Dear alice@example.com,</p>\n<p>Your claim {ticketId} is in progress.</p>",
	}
	g := NewGenerator(chat, retriever, 2, zerolog.Nop())

	msg := domain.CategorizedMessage{
		InboundMessage: domain.InboundMessage{
			Sender:  "alice@example.com",
			Subject: "Where is my claim?",
			Content: "I filed a claim two weeks ago and heard nothing.",
		},
		Category: domain.CategoryClaim,
	}

	draft, err := g.Draft(context.Background(), msg, "AB12CD34")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if draft.Subject != "AB12CD34 - Claim status update" {
		t.Errorf("subject = %q", draft.Subject)
	}
	if !strings.Contains(draft.Body, "AB12CD34") {
		t.Error("body missing substituted ticket id")
	}
	if strings.Contains(draft.Subject, "{ticketId}") || strings.Contains(draft.Body, "{ticketId}") {
		t.Error("placeholder survived substitution")
	}

	if retriever.lastQuery != msg.Content {
		t.Errorf("retrieval query = %q, want message content", retriever.lastQuery)
	}
	if retriever.lastK != 2 {
		t.Errorf("retrieval k = %d, want 2", retriever.lastK)
	}

	if !strings.Contains(chat.lastUser, msg.Content) {
		t.Error("user prompt missing message content")
	}
	if !strings.Contains(chat.lastUser, "Claims are settled within 14 days.") {
		t.Error("user prompt missing grounding chunk")
	}
	if !strings.Contains(chat.lastSystem, "alice@example.com") {
		t.Error("system prompt missing sender")
	}
	if !strings.Contains(chat.lastSystem, "CLAIM") {
		t.Error("system prompt missing category")
	}
}

func TestDraftFallbackSubject(t *testing.T) {
	retriever := &stubRetriever{}
	chat := &stubChat{response: "<p>Unstructured reply without a marker.</p>"}
	g := NewGenerator(chat, retriever, 5, zerolog.Nop())

	msg := domain.CategorizedMessage{
		InboundMessage: domain.InboundMessage{
			Sender:  "bob@example.com",
			Subject: "Billing question",
			Content: "Why did my premium go up?",
		},
		Category: domain.CategoryBilling,
	}

	draft, err := g.Draft(context.Background(), msg, "ZZ99XX11")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.Subject != "Re: Billing question" {
		t.Errorf("fallback subject = %q, want %q", draft.Subject, "Re: Billing question")
	}
	if draft.Body != "<p>Unstructured reply without a marker.</p>" {
		t.Errorf("body = %q", draft.Body)
	}
}

func TestDraftRetrievalError(t *testing.T) {
	retriever := &stubRetriever{err: errors.New("index unavailable")}
	chat := &stubChat{response: "irrelevant"}
	g := NewGenerator(chat, retriever, 5, zerolog.Nop())

	msg := domain.CategorizedMessage{
		InboundMessage: domain.InboundMessage{Sender: "x@example.com", Content: "hello"},
		Category:       domain.CategoryEnquiry,
	}
	if _, err := g.Draft(context.Background(), msg, "AA11BB22"); err == nil {
		t.Fatal("expected error when retrieval fails")
	}
}

func TestDraftModelError(t *testing.T) {
	retriever := &stubRetriever{}
	chat := &stubChat{err: errors.New("model down")}
	g := NewGenerator(chat, retriever, 5, zerolog.Nop())

	msg := domain.CategorizedMessage{
		InboundMessage: domain.InboundMessage{Sender: "x@example.com", Content: "hello"},
		Category:       domain.CategoryEnquiry,
	}
	if _, err := g.Draft(context.Background(), msg, "AA11BB22"); err == nil {
		t.Fatal("expected error when the model call fails")
	}
}
