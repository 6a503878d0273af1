// Package bootstrap wires configuration, stores, model clients and
// services into runnable API and poller processes.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"mailtriage/adapter/out/mailbox"
	"mailtriage/adapter/out/mongodb"
	"mailtriage/adapter/out/persistence"
	"mailtriage/config"
	"mailtriage/core/agent/llm"
	"mailtriage/core/agent/rag"
	"mailtriage/core/port/out"
	"mailtriage/core/service/classify"
	"mailtriage/core/service/ingest"
	"mailtriage/core/service/reply"
	"mailtriage/core/service/triage"
	"mailtriage/core/workflow"
	"mailtriage/infra/database"
	"mailtriage/pkg/lock"
)

const runLockKey = "poll-cycle"

// Dependencies holds every shared component of the process.
type Dependencies struct {
	Config *config.Config
	Log    zerolog.Logger

	DB    *pgxpool.Pool
	SQLX  *sqlx.DB
	Redis *redis.Client
	Mongo *mongo.Client

	Tickets   out.TicketRepository
	TriageLog out.TriageLogRepository
	Archive   out.ArchiveStore

	Engine   *workflow.Engine
	Driver   *workflow.TicketDriver
	Ingestor *ingest.Ingestor
	Pipeline *triage.Pipeline
	Poller   *triage.Poller
}

// NewDependencies builds the full dependency graph. The returned cleanup
// closes every connection it opened.
func NewDependencies(cfg *config.Config, log zerolog.Logger) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg, Log: log}

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// Stores
	pool, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return fail(fmt.Errorf("postgres: %w", err))
	}
	deps.DB = pool
	cleanups = append(cleanups, pool.Close)

	db, err := database.NewSQLX(cfg.DatabaseURL)
	if err != nil {
		return fail(fmt.Errorf("postgres (sqlx): %w", err))
	}
	deps.SQLX = db
	cleanups = append(cleanups, func() { _ = db.Close() })

	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			return fail(fmt.Errorf("redis: %w", err))
		}
		deps.Redis = redisClient
		cleanups = append(cleanups, func() { _ = redisClient.Close() })
	}

	if cfg.MongoDBURL != "" {
		mongoClient, err := mongodb.NewClient(cfg.MongoDBURL)
		if err != nil {
			return fail(fmt.Errorf("mongodb: %w", err))
		}
		deps.Mongo = mongoClient
		cleanups = append(cleanups, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = mongoClient.Disconnect(ctx)
		})

		archive := mongodb.NewArchiveAdapter(mongoClient.Database(cfg.MongoDBName))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := archive.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to ensure archive indexes")
		}
		cancel()
		deps.Archive = archive
	}

	// Repositories
	deps.Tickets = persistence.NewTicketAdapter(db)
	deps.TriageLog = persistence.NewTriageLogAdapter(db)
	history := persistence.NewHistoryAdapter(db)

	// Model client
	llmClient := llm.NewClient(llm.ClientConfig{
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.LLMModel,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
		Timeout:     cfg.LLMTimeout,
	})

	// RAG
	codec, err := rag.NewTiktokenCodec()
	if err != nil {
		return fail(fmt.Errorf("token codec: %w", err))
	}
	splitter := rag.NewTokenSplitter(codec, cfg.ChunkTokenLimit)
	vectorStore := rag.NewVectorStore(pool)
	retriever := rag.NewRetriever(llmClient, vectorStore)
	deps.Ingestor = ingest.NewIngestor(splitter, llmClient, vectorStore, cfg.CorpusPath, cfg.ContactEmail, log)

	// Workflow
	deps.Engine = workflow.NewEngine(history, log)
	workflow.RegisterTicketProcess(deps.Engine, deps.Tickets)
	deps.Driver = workflow.NewTicketDriver(deps.Engine, cfg.TicketWaitTimeout, log)

	// Pipeline
	classifier := classify.NewClassifier(llmClient, log)
	generator := reply.NewGenerator(llmClient, retriever, cfg.RetrievalTopK, log)
	sender := mailbox.NewSMTPSender(mailbox.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.MailUsername,
		Password: cfg.MailPassword,
		From:     cfg.FromAddr,
		Timeout:  cfg.MailTimeout,
	}, log)
	deps.Pipeline = triage.NewPipeline(classifier, deps.Driver, generator, sender, deps.TriageLog, deps.Archive, log)

	// Poller
	source := mailbox.NewIMAPSource(mailbox.IMAPConfig{
		Host:     cfg.IMAPHost,
		Port:     cfg.IMAPPort,
		Username: cfg.MailUsername,
		Password: cfg.MailPassword,
		Mailbox:  cfg.IMAPMailbox,
	}, log)
	var runLock *lock.RunLock
	if deps.Redis != nil {
		runLock = lock.NewRunLock(deps.Redis, runLockKey, cfg.RunTimeout)
	}
	deps.Poller = triage.NewPoller(source, deps.Pipeline, cfg.PollSchedule, cfg.RunTimeout, runLock, log)

	return deps, cleanup, nil
}
