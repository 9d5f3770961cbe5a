package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

type Config struct {
	Port string

	// Auth
	JobfmtAPIKey string

	// Notion job database
	NotionURL        string
	NotionToken      string
	NotionDatabaseID string

	// LLM extraction
	LLMProvider     string
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Polling of unprocessed rows. Zero disables the poller.
	PollInterval  time.Duration
	PollBatchSize int

	// Fetching
	FetchTimeout     time.Duration
	FetchMaxAttempts int
	FetchUserAgent   string

	// Upload limits
	MaxUploadBytes int64

	// Formatting
	VocabularyFile string
	MaxBullets     int

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		JobfmtAPIKey: os.Getenv("JOBFMT_API_KEY"),

		NotionURL:        envOr("NOTION_URL", "https://api.notion.com/v1"),
		NotionToken:      os.Getenv("NOTION_TOKEN"),
		NotionDatabaseID: os.Getenv("NOTION_DATABASE_ID"),

		LLMProvider:     strings.ToLower(envOr("LLM_PROVIDER", ProviderAnthropic)),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     envOr("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		PollInterval:  envDuration("POLL_INTERVAL", 0),
		PollBatchSize: envInt("POLL_BATCH_SIZE", 10),

		FetchTimeout:     envDuration("FETCH_TIMEOUT", 15*time.Second),
		FetchMaxAttempts: envInt("FETCH_MAX_ATTEMPTS", 3),
		FetchUserAgent:   os.Getenv("FETCH_USER_AGENT"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB

		VocabularyFile: os.Getenv("VOCABULARY_FILE"),
		MaxBullets:     envInt("MAX_BULLETS", 0),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.PollInterval < 0 {
		cfg.PollInterval = 0
	}
	if cfg.PollBatchSize <= 0 {
		cfg.PollBatchSize = 10
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if cfg.FetchMaxAttempts <= 0 {
		cfg.FetchMaxAttempts = 3
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10485760
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.JobfmtAPIKey == "" {
		return fmt.Errorf("JOBFMT_API_KEY is required")
	}
	if c.NotionToken == "" {
		return fmt.Errorf("NOTION_TOKEN is required")
	}
	if c.NotionDatabaseID == "" {
		return fmt.Errorf("NOTION_DATABASE_ID is required")
	}
	switch c.LLMProvider {
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
	default:
		return fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderAnthropic, ProviderOpenAI, c.LLMProvider)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
