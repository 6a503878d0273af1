// Package reply generates the customer-facing response email for a
// classified message: one retrieval-grounded chat completion, ticket-id
// substitution, and a Subject/Body split into simple HTML.
package reply

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"mailtriage/core/domain"
)

// ChunkRetriever supplies the grounding context for a draft.
type ChunkRetriever interface {
	TopK(ctx context.Context, query string, k int) ([]*domain.RetrievedChunk, error)
}

// ChatModel matches out.ChatModel; declared locally so the generator can
// be exercised without the port package.
type ChatModel interface {
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type Generator struct {
	chat      ChatModel
	retriever ChunkRetriever
	topK      int
	log       zerolog.Logger
}

const (
	// DefaultTopK is the number of corpus chunks appended as grounding.
	DefaultTopK = 5

	ticketPlaceholder = "{ticketId}"
	bodyMarker        = "Body:"
)

func NewGenerator(chat ChatModel, retriever ChunkRetriever, topK int, log zerolog.Logger) *Generator {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Generator{
		chat:      chat,
		retriever: retriever,
		topK:      topK,
		log:       log.With().Str("component", "reply_generator").Logger(),
	}
}

func systemPrompt(sender string, category domain.Category) string {
	return fmt.Sprintf(`You are a professional email assistant working on behalf of an insurance company, responding to customer emails.

The sender's name is: %s.
The email concerns: %s.

The "Subject" should be concise and descriptive of the response, starting with a placeholder for the ticketId. The structure should be `+"`{ticketId} - [Subject of the response]`"+`. ticketId is not policyNumber.

The "Body" should include:
1. A formal greeting addressing the sender.
2. A concise response in two paragraphs, each clearly separated by line breaks. Include a list if necessary, using proper list formatting.
3. A formal closing signature, followed by an automated message disclaimer.

Generate the response in HTML format for better readability in emails, using <p> for paragraphs and <br> for line breaks. Format your response as follows:
Subject: {ticketId} - [Subject Line]
Body:
<p>Dear [Sender's Name],</p>
<p>[Paragraph 1 content with line breaks and lists, if any].</p>
<p>[Paragraph 2 content mentioning {ticketId}].</p>
<p>Sincerely,<br>DataNinjas Insurance corp</p>
<p><i>This is an automated message; please do not reply directly to this email.</i></p>`, sender, category)
}

// Draft builds the reply for a classified message. The top-K most
// similar corpus chunks are appended to the user turn as grounding
// context before the model call, then the real ticket identifier is
// substituted for every placeholder occurrence and the raw response is
// split into subject and HTML body.
func (g *Generator) Draft(ctx context.Context, msg domain.CategorizedMessage, ticketID string) (domain.ReplyDraft, error) {
	chunks, err := g.retriever.TopK(ctx, msg.Content, g.topK)
	if err != nil {
		return domain.ReplyDraft{}, fmt.Errorf("retrieve grounding context: %w", err)
	}

	userPrompt := groundedPrompt(msg.Content, chunks)
	response, err := g.chat.CompleteWithSystem(ctx, systemPrompt(msg.Sender, msg.Category), userPrompt)
	if err != nil {
		return domain.ReplyDraft{}, fmt.Errorf("reply call: %w", err)
	}

	response = substituteTicketID(response, ticketID)
	subject, body := parseResponse(response)
	if subject == "" {
		// Degraded output without the Body: marker; reuse the original
		// subject so the customer still gets a threaded reply.
		g.log.Warn().
			Str("sender", msg.Sender).
			Msg("response missing Body: marker, falling back to original subject")
		subject = "Re: " + msg.Subject
	}

	return domain.ReplyDraft{Subject: subject, Body: body}, nil
}

func groundedPrompt(content string, chunks []*domain.RetrievedChunk) string {
	if len(chunks) == 0 {
		return content
	}
	var sb strings.Builder
	sb.WriteString(content)
	sb.WriteString("\n\nUse the following context to ground your answer:\n")
	for _, chunk := range chunks {
		sb.WriteString("---\n")
		sb.WriteString(chunk.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

// substituteTicketID replaces every literal placeholder occurrence with
// the real identifier and touches nothing else.
func substituteTicketID(response, ticketID string) string {
	return strings.ReplaceAll(response, ticketPlaceholder, ticketID)
}

var (
	bodyMarkerRe     = regexp.MustCompile(bodyMarker + `\s*`)
	crlfRe           = regexp.MustCompile(`\r\n|\r`)
	paragraphBreakRe = regexp.MustCompile(`\n{2,}`)
)

// parseResponse splits the raw model output at the first "Body:" marker.
// Text before it, with the leading "Subject:" label stripped, becomes
// the subject; text after becomes the normalized HTML body. Without the
// marker the whole response is the body and the subject is empty.
func parseResponse(response string) (subject, body string) {
	parts := bodyMarkerRe.Split(response, 2)
	if len(parts) != 2 {
		return "", response
	}

	subject = strings.TrimSpace(strings.ReplaceAll(parts[0], "Subject:", ""))
	body = normalizeBody(strings.TrimSpace(parts[1]))
	return subject, body
}

// normalizeBody converts two-or-more consecutive line breaks into a
// paragraph break and single breaks into <br>, yielding valid simple
// HTML regardless of the model's line discipline.
func normalizeBody(body string) string {
	body = crlfRe.ReplaceAllString(body, "\n")
	body = paragraphBreakRe.ReplaceAllString(body, "<p>")
	return strings.ReplaceAll(body, "\n", "<br>")
}
