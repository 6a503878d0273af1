package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"mailtriage/config"
	"mailtriage/internal/bootstrap"
	"mailtriage/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load .env if present, otherwise plain environment variables.
	_ = godotenv.Load()

	mode := flag.String("mode", "all", "Run mode: api, poller, all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:       os.Getenv("LOG_LEVEL"),
		Service:     "mailtriage",
		Environment: cfg.Environment,
	})

	deps, cleanup, err := bootstrap.NewDependencies(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dependencies")
	}
	defer cleanup()

	switch *mode {
	case "api":
		runAPI(cfg, deps, log)
	case "poller":
		runPoller(deps, log)
	case "all":
		go runPoller(deps, log)
		runAPI(cfg, deps, log)
	default:
		log.Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}

func runAPI(cfg *config.Config, deps *bootstrap.Dependencies, log zerolog.Logger) {
	app := bootstrap.NewAPI(cfg, deps, log)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Dur("timeout", shutdownTimeout).Msg("shutting down API server")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- app.Shutdown()
		}()

		select {
		case err := <-done:
			if err != nil {
				log.Error().Err(err).Msg("error shutting down")
			} else {
				log.Info().Msg("API server shut down gracefully")
			}
		case <-ctx.Done():
			log.Warn().Msg("API shutdown timed out, forcing exit")
		}
	}()

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Msg("starting API server")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

func runPoller(deps *bootstrap.Dependencies, log zerolog.Logger) {
	worker := bootstrap.NewWorker(deps, log)

	log.Info().Msg("starting poller")
	if err := worker.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start poller")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Dur("timeout", shutdownTimeout).Msg("shutting down poller")

	done := make(chan struct{})
	go func() {
		worker.Stop()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("poller shut down gracefully")
	case <-time.After(shutdownTimeout):
		log.Warn().Msg("poller shutdown timed out, forcing exit")
		os.Exit(1)
	}
}
