package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string

	// Database
	DatabaseURL string
	RedisURL    string
	MongoDBURL  string
	MongoDBName string

	// IMAP (inbound)
	IMAPHost     string
	IMAPPort     int
	IMAPMailbox  string
	MailUsername string
	MailPassword string

	// SMTP (outbound)
	SMTPHost string
	SMTPPort int
	FromAddr string

	// OpenAI
	OpenAIAPIKey   string
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float64
	LLMTimeout     time.Duration

	// Corpus ingestion
	CorpusPath      string
	ContactEmail    string
	ChunkTokenLimit int
	RetrievalTopK   int

	// Poller
	PollSchedule string
	RunTimeout   time.Duration
	MailTimeout  time.Duration

	// Workflow
	TicketWaitTimeout time.Duration

	// API
	JWTSecret string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "mailtriage"),

		IMAPHost:     getEnv("IMAP_HOST", "imap.gmail.com"),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPMailbox:  getEnv("IMAP_MAILBOX", "INBOX"),
		MailUsername: getEnv("MAIL_USERNAME", ""),
		MailPassword: getEnv("MAIL_PASSWORD", ""),

		SMTPHost: getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort: getEnvInt("SMTP_PORT", 587),
		FromAddr: getEnv("MAIL_FROM", getEnv("MAIL_USERNAME", "")),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 2048),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
		LLMTimeout:     time.Duration(getEnvInt("LLM_TIMEOUT_SEC", 60)) * time.Second,

		CorpusPath:      getEnv("CORPUS_PATH", "documents/insurance.txt"),
		ContactEmail:    getEnv("CORPUS_CONTACT_EMAIL", ""),
		ChunkTokenLimit: getEnvInt("CHUNK_TOKEN_LIMIT", 800),
		RetrievalTopK:   getEnvInt("RETRIEVAL_TOP_K", 5),

		PollSchedule: getEnv("POLL_SCHEDULE", "@every 2m"),
		RunTimeout:   time.Duration(getEnvInt("RUN_TIMEOUT_SEC", 110)) * time.Second,
		MailTimeout:  time.Duration(getEnvInt("MAIL_TIMEOUT_SEC", 30)) * time.Second,

		TicketWaitTimeout: time.Duration(getEnvInt("TICKET_WAIT_TIMEOUT_SEC", 15)) * time.Second,

		JWTSecret: getEnv("JWT_SECRET", ""),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
