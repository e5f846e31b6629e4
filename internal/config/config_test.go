package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Embedder.Type)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Embedder.OpenAI.BaseURL)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, 32, cfg.Embedder.OpenAI.BatchSize)
	assert.Equal(t, "file", cfg.Store.Type)
	assert.NotEmpty(t, cfg.Store.Path)
	assert.Equal(t, "gpt-4o-mini", cfg.Chat.Model)
	assert.False(t, cfg.Seed.Disabled)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := &AppConfig{
		Embedder: EmbedderConfig{Type: "openai", OpenAI: &OpenAIEmbedderConfig{
			BaseURL: "http://localhost:11434/v1",
			Model:   "nomic-embed-text",
		}},
		Store: StoreConfig{Type: "qdrant", Qdrant: &QdrantConfig{
			URL:        "http://localhost:6333",
			Collection: "docs",
		}},
		Seed: SeedConfig{Disabled: true, Documents: []string{"a seed fact"}},
	}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434/v1", loaded.Embedder.OpenAI.BaseURL)
	assert.Equal(t, "nomic-embed-text", loaded.Embedder.OpenAI.Model)
	assert.Equal(t, "qdrant", loaded.Store.Type)
	assert.Equal(t, "docs", loaded.Store.Qdrant.Collection)
	assert.True(t, loaded.Seed.Disabled)
	assert.Equal(t, []string{"a seed fact"}, loaded.Seed.Documents)
}

func TestLoadAppliesDefaultsToPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := &AppConfig{Embedder: EmbedderConfig{Type: "openai", OpenAI: &OpenAIEmbedderConfig{Model: "custom"}}}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", loaded.Embedder.OpenAI.Model)
	assert.Equal(t, "https://api.openai.com/v1", loaded.Embedder.OpenAI.BaseURL)
	assert.Equal(t, 30, loaded.Embedder.OpenAI.TimeoutSecs)
	assert.Equal(t, "file", loaded.Store.Type)
	assert.Equal(t, 60, loaded.Chat.TimeoutSecs)
}
