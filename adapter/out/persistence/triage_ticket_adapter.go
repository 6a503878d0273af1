// Package persistence provides database adapters implementing outbound ports.
package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"mailtriage/core/domain"
	"mailtriage/core/port/out"
	"mailtriage/pkg/apperr"
)

// TicketAdapter implements out.TicketRepository using PostgreSQL.
type TicketAdapter struct {
	db *sqlx.DB
}

func NewTicketAdapter(db *sqlx.DB) *TicketAdapter {
	return &TicketAdapter{db: db}
}

// Insert persists a ticket row and fills in its generated id and
// created_at.
func (a *TicketAdapter) Insert(ctx context.Context, ticket *domain.Ticket) error {
	query := `
		INSERT INTO tickets (ticket_id, status)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := a.db.QueryRowxContext(ctx, query, ticket.TicketID, ticket.Status).
		Scan(&ticket.ID, &ticket.CreatedAt)
	if err != nil {
		return apperr.DatabaseError(err)
	}
	return nil
}

// GetByID looks up a ticket by its public workflow-minted identifier.
func (a *TicketAdapter) GetByID(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	query := `
		SELECT id, ticket_id, status, created_at
		FROM tickets
		WHERE ticket_id = $1`

	var ticket domain.Ticket
	if err := a.db.QueryRowxContext(ctx, query, ticketID).StructScan(&ticket); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("ticket")
		}
		return nil, apperr.DatabaseError(err)
	}
	return &ticket, nil
}

var _ out.TicketRepository = (*TicketAdapter)(nil)
