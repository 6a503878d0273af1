package bootstrap

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Worker runs the corpus ingestion once and then the scheduled mailbox
// poller.
type Worker struct {
	deps *Dependencies
	log  zerolog.Logger
}

func NewWorker(deps *Dependencies, log zerolog.Logger) *Worker {
	return &Worker{deps: deps, log: log.With().Str("component", "worker").Logger()}
}

// Start ingests the corpus and begins polling. Reply generation depends
// on the vector index, so ingestion must finish before the first cycle.
func (w *Worker) Start() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := w.deps.Ingestor.Run(ctx); err != nil {
		return err
	}
	return w.deps.Poller.Start()
}

// Stop halts the poll schedule and waits for in-flight work to finish.
func (w *Worker) Stop() {
	w.deps.Poller.Stop()
	w.deps.Engine.Drain()
	w.log.Info().Msg("worker stopped")
}
