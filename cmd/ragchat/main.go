package main

import (
	"context"
	"flag"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"ragchat/internal/bootstrap"
	"ragchat/internal/config"
	filestore "ragchat/internal/docstore/file"
	qdrantstore "ragchat/internal/docstore/qdrant"
	"ragchat/internal/domain"
	openaiembed "ragchat/internal/embedding/openai"
	openaichat "ragchat/internal/llm/openai"
	"ragchat/internal/service"
	"ragchat/internal/tui"
)

func main() {
	_ = godotenv.Load()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/ragchat/config.yaml if not provided)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		logger.Fatal("failed to load config", "err", err)
	}

	ctx := context.Background()

	// Assemble components
	var emb domain.Embedder
	var embErr error
	switch cfg.Embedder.Type {
	case "openai", "":
		emb, embErr = openaiembed.NewClient(openaiembed.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
			BatchSize: cfg.Embedder.OpenAI.BatchSize,
		})
	default:
		logger.Fatal("unknown embedder", "type", cfg.Embedder.Type)
	}

	// A missing embedding provider disables retrieval for this process;
	// it never stops the chat itself. A corrupt snapshot is fatal: an
	// empty store would silently mask data loss.
	var store domain.DocumentStore
	state := bootstrap.StateUnavailable
	if embErr != nil {
		logger.Warn("embedding provider unavailable, retrieval disabled", "err", embErr)
	} else {
		switch cfg.Store.Type {
		case "file", "":
			st, err := filestore.NewStore(cfg.Store.Path, emb, logger)
			if err != nil {
				logger.Fatal("failed to open document store", "err", err)
			}
			store = st
		case "qdrant":
			if cfg.Store.Qdrant == nil {
				logger.Fatal("qdrant store config missing")
			}
			store = qdrantstore.NewStore(qdrantstore.Config{
				URL:        cfg.Store.Qdrant.URL,
				APIKey:     cfg.Store.Qdrant.APIKey,
				Collection: cfg.Store.Qdrant.Collection,
				Timeout:    time.Duration(cfg.Store.Qdrant.TimeoutSecs) * time.Second,
			}, emb, logger)
		default:
			logger.Fatal("unknown store", "type", cfg.Store.Type)
		}

		if cfg.Seed.Disabled {
			state = bootstrap.StateAvailable
		} else {
			seeder := bootstrap.NewSeeder(store, seedCorpus(cfg), logger)
			state, err = seeder.Run(ctx)
			if err != nil {
				logger.Warn("seeding failed, retrieval disabled", "err", err)
			}
		}
	}

	chat, err := openaichat.NewClient(openaichat.Config{
		BaseURL:     cfg.Chat.BaseURL,
		APIKeyEnv:   cfg.Chat.APIKeyEnv,
		Model:       cfg.Chat.Model,
		Temperature: cfg.Chat.Temperature,
		Timeout:     time.Duration(cfg.Chat.TimeoutSecs) * time.Second,
	})
	if err != nil {
		logger.Fatal("chat model init failed", "err", err)
	}

	svc := service.New(chat, store, state, logger)
	m := tui.New(svc)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		logger.Fatal("tui exited", "err", err)
	}
}

// seedCorpus returns the configured seed documents, falling back to the
// built-in corpus.
func seedCorpus(cfg *config.AppConfig) []bootstrap.SeedDocument {
	if len(cfg.Seed.Documents) == 0 {
		return bootstrap.DefaultCorpus
	}
	corpus := make([]bootstrap.SeedDocument, len(cfg.Seed.Documents))
	for i, text := range cfg.Seed.Documents {
		corpus[i] = bootstrap.SeedDocument{Text: text, Metadata: domain.Metadata{"source": "config"}}
	}
	return corpus
}
