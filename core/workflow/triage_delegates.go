package workflow

import (
	"context"
	"crypto/rand"
	"fmt"

	"mailtriage/core/domain"
	"mailtriage/core/port/out"
)

// Process and variable names of the ticket workflow.
const (
	ProcessKeyTicket = "ticketProcess"

	VarTicketID      = "ticketId"
	VarEmailCategory = "emailCategory"
	VarEmailContent  = "emailContent"
	VarEmailFrom     = "emailFrom"
)

const (
	ticketIDLength  = 8
	ticketIDCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateTicketDelegate mints the externally visible ticket identifier:
// 8 upper-case alphanumeric characters.
type GenerateTicketDelegate struct{}

func (GenerateTicketDelegate) Execute(_ context.Context, ex *Execution) error {
	id, err := randomTicketID()
	if err != nil {
		return fmt.Errorf("generate ticket id: %w", err)
	}
	ex.SetVariable(VarTicketID, id)
	return nil
}

func randomTicketID() (string, error) {
	buf := make([]byte, ticketIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = ticketIDCharset[int(b)%len(ticketIDCharset)]
	}
	return string(buf), nil
}

// InsertTicketDelegate persists the ticket row for the identifier minted
// by the previous step.
type InsertTicketDelegate struct {
	tickets out.TicketRepository
}

func NewInsertTicketDelegate(tickets out.TicketRepository) *InsertTicketDelegate {
	return &InsertTicketDelegate{tickets: tickets}
}

func (d *InsertTicketDelegate) Execute(ctx context.Context, ex *Execution) error {
	ticketID, ok := ex.Variable(VarTicketID)
	if !ok {
		return fmt.Errorf("instance %s has no %s variable", ex.InstanceID(), VarTicketID)
	}
	return d.tickets.Insert(ctx, &domain.Ticket{
		TicketID: ticketID,
		Status:   domain.TicketStatusInProgress,
	})
}

// RegisterTicketProcess wires the ticket delegate chain into the engine.
func RegisterTicketProcess(engine *Engine, tickets out.TicketRepository) {
	engine.RegisterProcess(ProcessKeyTicket,
		GenerateTicketDelegate{},
		NewInsertTicketDelegate(tickets),
	)
}
