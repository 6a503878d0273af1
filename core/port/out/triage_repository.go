package out

import (
	"context"
	"errors"

	"mailtriage/core/domain"
)

// ErrVariableNotFound is returned by VariableHistoryRepository.Get when a
// completed instance never recorded the variable.
var ErrVariableNotFound = errors.New("workflow variable not found")

// TicketRepository persists ticket rows. The pipeline only creates and
// reads; status transitions are the downstream workflow's concern.
type TicketRepository interface {
	Insert(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, ticketID string) (*domain.Ticket, error)
}

// TriageLogRepository records one audit row per fully processed message.
type TriageLogRepository interface {
	Insert(ctx context.Context, rec *domain.TriageRecord) error
	Recent(ctx context.Context, limit int) ([]*domain.TriageRecord, error)
}

// VariableHistoryRepository stores workflow variables of completed
// instances, read when an instance finished before the driver checked its
// live scope.
type VariableHistoryRepository interface {
	Save(ctx context.Context, instanceID, name, value string) error
	Get(ctx context.Context, instanceID, name string) (string, error)
}

// VectorStore is the similarity index over embedded corpus chunks:
// written once at startup, read by every reply generation.
type VectorStore interface {
	Add(ctx context.Context, chunks []*domain.DocumentChunk) error
	Search(ctx context.Context, embedding []float32, topK int) ([]*domain.RetrievedChunk, error)
}

// ArchivedMessage is the raw inbound content plus the reply that went out,
// kept in the document archive.
type ArchivedMessage struct {
	Sender       string `bson:"sender"`
	Subject      string `bson:"subject"`
	Content      string `bson:"content"`
	Category     string `bson:"category"`
	TicketID     string `bson:"ticket_id"`
	ReplySubject string `bson:"reply_subject"`
	ReplyBody    string `bson:"reply_body"`
}

// ArchiveStore keeps full message bodies out of the relational store.
type ArchiveStore interface {
	SaveMessage(ctx context.Context, msg *ArchivedMessage) error
}
