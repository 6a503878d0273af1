// Package triage runs the per-message pipeline and the scheduled poller
// that feeds it: extract -> classify -> ticket -> reply -> send -> seen.
package triage

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"mailtriage/core/domain"
	"mailtriage/core/port/out"
	"mailtriage/pkg/apperr"
)

// Categorizer assigns the closed-set category.
type Categorizer interface {
	Classify(ctx context.Context, content string) (domain.Category, error)
}

// TicketCreator drives the ticket workflow and returns the minted id.
type TicketCreator interface {
	CreateTicket(ctx context.Context, category domain.Category, content, sender string) (string, error)
}

// ReplyDrafter produces the outbound reply for a classified message.
type ReplyDrafter interface {
	Draft(ctx context.Context, msg domain.CategorizedMessage, ticketID string) (domain.ReplyDraft, error)
}

// Pipeline processes one message end to end. Any returned error means
// the message must stay unseen so the next scheduled run retries it.
type Pipeline struct {
	classifier Categorizer
	tickets    TicketCreator
	replies    ReplyDrafter
	sender     out.MailSender

	// Best-effort sinks; failures here are logged, never fatal.
	triageLog out.TriageLogRepository
	archive   out.ArchiveStore

	log zerolog.Logger
}

func NewPipeline(
	classifier Categorizer,
	tickets TicketCreator,
	replies ReplyDrafter,
	sender out.MailSender,
	triageLog out.TriageLogRepository,
	archive out.ArchiveStore,
	log zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		tickets:    tickets,
		replies:    replies,
		sender:     sender,
		triageLog:  triageLog,
		archive:    archive,
		log:        log.With().Str("component", "pipeline").Logger(),
	}
}

// Process classifies the message, mints a ticket, drafts the grounded
// reply and sends it. The caller marks the message seen only after a
// nil return.
func (p *Pipeline) Process(ctx context.Context, msg *domain.InboundMessage) error {
	category, err := p.classifier.Classify(ctx, msg.Content)
	if err != nil {
		return apperr.ClassifyFailed(err)
	}

	categorized := domain.CategorizedMessage{
		InboundMessage: *msg,
		Category:       category,
	}

	ticketID, err := p.tickets.CreateTicket(ctx, category, msg.Content, msg.Sender)
	if err != nil {
		return apperr.WorkflowFailed(err)
	}

	draft, err := p.replies.Draft(ctx, categorized, ticketID)
	if err != nil {
		return apperr.ReplyFailed(err)
	}

	if err := p.sender.Send(ctx, msg.Sender, draft.Subject, draft.Body); err != nil {
		return apperr.SendFailed(err)
	}

	p.record(ctx, &categorized, ticketID, &draft)

	p.log.Info().
		Str("sender", msg.Sender).
		Str("subject", msg.Subject).
		Str("category", category.String()).
		Str("ticket_id", ticketID).
		Msg("processed email")
	return nil
}

func (p *Pipeline) record(ctx context.Context, msg *domain.CategorizedMessage, ticketID string, draft *domain.ReplyDraft) {
	if p.triageLog != nil {
		err := p.triageLog.Insert(ctx, &domain.TriageRecord{
			Sender:      msg.Sender,
			Subject:     msg.Subject,
			Category:    msg.Category,
			TicketID:    ticketID,
			Status:      domain.TriageStatusReplied,
			Attachments: msg.Attachments,
			ProcessedAt: time.Now().UTC(),
		})
		if err != nil {
			p.log.Error().Err(err).Str("ticket_id", ticketID).Msg("failed to write triage record")
		}
	}

	if p.archive != nil {
		err := p.archive.SaveMessage(ctx, &out.ArchivedMessage{
			Sender:       msg.Sender,
			Subject:      msg.Subject,
			Content:      msg.Content,
			Category:     msg.Category.String(),
			TicketID:     ticketID,
			ReplySubject: draft.Subject,
			ReplyBody:    draft.Body,
		})
		if err != nil {
			p.log.Error().Err(err).Str("ticket_id", ticketID).Msg("failed to archive message")
		}
	}
}
