package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/jobfmt/internal/api"
	"github.com/dgallion1/jobfmt/internal/config"
	"github.com/dgallion1/jobfmt/internal/extract"
	"github.com/dgallion1/jobfmt/internal/fetch"
	"github.com/dgallion1/jobfmt/internal/formatter"
	"github.com/dgallion1/jobfmt/internal/notion"
	"github.com/dgallion1/jobfmt/internal/pipeline"
	"github.com/dgallion1/jobfmt/internal/vocab"
	"github.com/joho/godotenv"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// A missing .env is fine; the environment may be set directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("load .env failed", "error", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	v := vocab.Default()
	if cfg.VocabularyFile != "" {
		loaded, err := vocab.Load(cfg.VocabularyFile)
		if err != nil {
			log.Error("invalid vocabulary", "path", cfg.VocabularyFile, "error", err)
			os.Exit(1)
		}
		v = loaded
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	store := notion.NewClient(cfg.NotionURL, cfg.NotionToken, cfg.NotionDatabaseID)
	extractor, closeExtractor := newExtractor(cfg)
	fetcher := fetch.NewClient(cfg.FetchUserAgent, cfg.FetchTimeout, cfg.FetchMaxAttempts)
	f := formatter.New(v, cfg.MaxBullets)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, pipeline.Deps{
		Fetcher:   fetcher,
		Extractor: extractor,
		Store:     store,
		Formatter: f,
	}, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, extractor, f, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		// Stop accepting requests before the queue closes.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()

		closeExtractor()
		store.Close()
	}()

	log.Info("starting jobfmt",
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
		"model", extractor.Model(),
		"poll_interval", cfg.PollInterval.String(),
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newExtractor builds the configured LLM client with latency stats enabled.
func newExtractor(cfg config.Config) (extract.Extractor, func()) {
	stats := extract.NewLLMStats(1 * time.Hour)
	if cfg.LLMProvider == config.ProviderOpenAI {
		c := extract.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		c.Stats = stats
		return c, func() {}
	}
	c := extract.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	c.Stats = stats
	return c, c.Close
}
