package domain

import "time"

// Ticket statuses. The triage pipeline only ever creates tickets; status
// transitions belong to the workflow that owns the ticket afterwards.
const (
	TicketStatusInProgress = "In Progress"
)

// Ticket is the persistent record minted by the ticket workflow.
type Ticket struct {
	ID        int64     `db:"id" json:"id"`
	TicketID  string    `db:"ticket_id" json:"ticket_id"` // external 8-char identifier
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TriageRecord is the audit row written after a message has been fully
// processed: classified, ticketed, answered and marked seen.
type TriageRecord struct {
	ID          int64     `db:"id" json:"id"`
	Sender      string    `db:"sender" json:"sender"`
	Subject     string    `db:"subject" json:"subject"`
	Category    Category  `db:"category" json:"category"`
	TicketID    string    `db:"ticket_id" json:"ticket_id"`
	Status      string    `db:"status" json:"status"`
	Attachments []string  `db:"-" json:"attachments,omitempty"`
	ProcessedAt time.Time `db:"processed_at" json:"processed_at"`
}

// Triage record statuses.
const (
	TriageStatusReplied = "replied"
)
