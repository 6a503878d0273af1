package triage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"mailtriage/core/port/out"
	"mailtriage/pkg/lock"
)

// Poller wakes on a cron schedule, drains unseen messages from the
// mailbox and feeds each one through the pipeline. A run that is still
// going when the next tick fires is never overlapped: ticks are skipped
// both in-process (mutex) and across replicas (redis lease).
type Poller struct {
	source   out.MailboxSource
	pipeline *Pipeline

	schedule   string
	runTimeout time.Duration
	runLock    *lock.RunLock // nil disables the cross-process lease

	mu   sync.Mutex
	cron *cron.Cron
	log  zerolog.Logger
}

func NewPoller(source out.MailboxSource, pipeline *Pipeline, schedule string, runTimeout time.Duration, runLock *lock.RunLock, log zerolog.Logger) *Poller {
	return &Poller{
		source:     source,
		pipeline:   pipeline,
		schedule:   schedule,
		runTimeout: runTimeout,
		runLock:    runLock,
		log:        log.With().Str("component", "poller").Logger(),
	}
}

// Start registers the schedule and begins ticking in the background.
func (p *Poller) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(p.schedule, p.tick); err != nil {
		return err
	}
	c.Start()
	p.cron = c
	p.log.Info().Str("schedule", p.schedule).Msg("poller started")
	return nil
}

// Stop halts the schedule and waits for an in-flight run to finish.
func (p *Poller) Stop() {
	if p.cron == nil {
		return
	}
	<-p.cron.Stop().Done()
	p.mu.Lock()
	p.mu.Unlock()
	p.log.Info().Msg("poller stopped")
}

func (p *Poller) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), p.runTimeout)
	defer cancel()
	p.RunOnce(ctx)
}

// RunOnce performs a single poll cycle. Messages whose processing fails
// are left unseen so the next cycle retries them.
func (p *Poller) RunOnce(ctx context.Context) {
	if !p.mu.TryLock() {
		p.log.Warn().Msg("previous run still in progress, skipping tick")
		return
	}
	defer p.mu.Unlock()

	if p.runLock != nil {
		token := uuid.NewString()
		ok, err := p.runLock.Acquire(ctx, token)
		if err != nil {
			p.log.Error().Err(err).Msg("failed to acquire run lease")
			return
		}
		if !ok {
			p.log.Warn().Msg("run lease held elsewhere, skipping tick")
			return
		}
		defer func() {
			if err := p.runLock.Release(context.WithoutCancel(ctx)); err != nil {
				p.log.Warn().Err(err).Msg("failed to release run lease")
			}
		}()
	}

	session, err := p.source.Connect(ctx)
	if err != nil {
		p.log.Error().Err(err).Msg("failed to connect to mailbox")
		return
	}
	defer func() {
		if err := session.Close(); err != nil {
			p.log.Warn().Err(err).Msg("failed to close mailbox session")
		}
	}()

	results, err := session.FetchUnseen(ctx)
	if err != nil {
		p.log.Error().Err(err).Msg("failed to fetch unseen messages")
		return
	}
	if len(results) == 0 {
		return
	}

	var processed, failed int
	for _, r := range results {
		if r.Err != nil {
			p.log.Error().Err(r.Err).Uint32("uid", r.UID).Msg("failed to extract message, leaving unseen")
			failed++
			continue
		}
		if err := p.pipeline.Process(ctx, r.Message); err != nil {
			p.log.Error().Err(err).Uint32("uid", r.UID).Str("sender", r.Message.Sender).Msg("failed to process message, leaving unseen")
			failed++
			continue
		}
		if err := session.MarkSeen(ctx, r.UID); err != nil {
			// Reply already went out; a retry next cycle would duplicate it.
			p.log.Error().Err(err).Uint32("uid", r.UID).Msg("failed to mark message seen")
		}
		processed++
	}

	p.log.Info().Int("processed", processed).Int("failed", failed).Msg("poll cycle complete")
}
