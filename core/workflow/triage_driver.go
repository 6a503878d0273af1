package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"mailtriage/core/domain"
	"mailtriage/core/port/out"
)

// ErrTicketIDUnavailable is returned when neither the live scope nor the
// history store yields a ticket identifier for a started instance. The
// caller treats it as a per-message failure, never a process crash.
var ErrTicketIDUnavailable = errors.New("ticket id not available from live or historical state")

// TicketDriver starts the ticket workflow for a classified message and
// waits for the minted identifier. Fast instances may complete before
// the first check, so the driver reads the live variable scope while the
// instance runs and falls back to the historical record once it is gone.
type TicketDriver struct {
	engine       *Engine
	waitTimeout  time.Duration
	pollInterval time.Duration
	log          zerolog.Logger
}

const (
	defaultWaitTimeout  = 15 * time.Second
	defaultPollInterval = 50 * time.Millisecond
)

func NewTicketDriver(engine *Engine, waitTimeout time.Duration, log zerolog.Logger) *TicketDriver {
	if waitTimeout <= 0 {
		waitTimeout = defaultWaitTimeout
	}
	return &TicketDriver{
		engine:       engine,
		waitTimeout:  waitTimeout,
		pollInterval: defaultPollInterval,
		log:          log.With().Str("component", "ticket_driver").Logger(),
	}
}

// CreateTicket starts one ticket workflow instance carrying the message
// fields as variables and returns the minted ticket identifier.
func (d *TicketDriver) CreateTicket(ctx context.Context, category domain.Category, content, sender string) (string, error) {
	instanceID, err := d.engine.StartInstanceByKey(ctx, ProcessKeyTicket, map[string]string{
		VarEmailCategory: category.String(),
		VarEmailContent:  content,
		VarEmailFrom:     sender,
	})
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, d.waitTimeout)
	defer cancel()

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		if d.engine.IsLive(instanceID) {
			if v, ok := d.engine.LiveVariable(instanceID, VarTicketID); ok && v != "" {
				return v, nil
			}
		} else {
			// Instance completed; history is authoritative now.
			v, err := d.engine.HistoricalVariable(ctx, instanceID, VarTicketID)
			switch {
			case err == nil && v != "":
				return v, nil
			case err == nil || errors.Is(err, out.ErrVariableNotFound):
				d.log.Error().
					Str("instance_id", instanceID).
					Msg("completed instance has no ticket id")
				return "", ErrTicketIDUnavailable
			default:
				return "", err
			}
		}

		select {
		case <-ctx.Done():
			d.log.Error().
				Str("instance_id", instanceID).
				Dur("waited", d.waitTimeout).
				Msg("timed out waiting for ticket id")
			return "", ErrTicketIDUnavailable
		case <-ticker.C:
		}
	}
}
