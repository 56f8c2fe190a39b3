package memstream_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warmroom/memstream-go/pkg/memstream"
)

func TestDefaultConfig(t *testing.T) {
	cfg := memstream.DefaultConfig()

	assert.Equal(t, 1000, cfg.CacheCapacity)
	assert.Equal(t, memstream.DefaultDecayFactor, cfg.DecayFactor)
	assert.Equal(t, memstream.DefaultScoreThreshold, cfg.ScoreThreshold)
	assert.Equal(t, memstream.DefaultReflectionThreshold, cfg.ReflectionThreshold)
	assert.Equal(t, memstream.DefaultWindowSize, cfg.WindowSize)
	assert.Equal(t, "flat", cfg.IndexBackend)
}

func TestValidate(t *testing.T) {
	valid := func() *memstream.Config {
		cfg := memstream.DefaultConfig()
		cfg.Embedding.Provider = "openai"
		cfg.Embedding.APIKey = "sk-test"
		return cfg
	}

	assert.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*memstream.Config)
	}{
		{"missing embedding provider", func(c *memstream.Config) { c.Embedding.Provider = "" }},
		{"unknown embedding provider", func(c *memstream.Config) { c.Embedding.Provider = "cohere" }},
		{"missing embedding key", func(c *memstream.Config) { c.Embedding.APIKey = "" }},
		{"unknown llm provider", func(c *memstream.Config) { c.LLM.Provider = "anthropic" }},
		{"llm provider without key", func(c *memstream.Config) { c.LLM.Provider = "deepseek" }},
		{"decay factor too high", func(c *memstream.Config) { c.DecayFactor = 1.0 }},
		{"negative decay factor", func(c *memstream.Config) { c.DecayFactor = -0.5 }},
		{"negative score threshold", func(c *memstream.Config) { c.ScoreThreshold = -1 }},
		{"score threshold above one", func(c *memstream.Config) { c.ScoreThreshold = 1.2 }},
		{"unknown index backend", func(c *memstream.Config) { c.IndexBackend = "hnsw" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), memstream.ErrInvalidConfig)
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "zhipu")
	t.Setenv("EMBEDDING_API_KEY", "zp-test")
	t.Setenv("EMBEDDING_MODEL", "embedding-3")
	t.Setenv("EMBEDDING_BASE_URL", "")
	t.Setenv("EMBEDDING_DIMENSIONS", "2048")
	t.Setenv("LLM_PROVIDER", "deepseek")
	t.Setenv("LLM_API_KEY", "ds-test")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("LLM_BASE_URL", "")
	t.Setenv("MEMSTREAM_CACHE_CAPACITY", "500")
	t.Setenv("MEMSTREAM_DECAY_FACTOR", "0.99")
	t.Setenv("MEMSTREAM_SCORE_THRESHOLD", "0.5")
	t.Setenv("MEMSTREAM_REFLECTION_THRESHOLD", "7")
	t.Setenv("MEMSTREAM_WINDOW_SIZE", "30")
	t.Setenv("MEMSTREAM_INDEX_BACKEND", "chromem")

	cfg, err := memstream.LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "zhipu", cfg.Embedding.Provider)
	assert.Equal(t, "zp-test", cfg.Embedding.APIKey)
	assert.Equal(t, 2048, cfg.Embedding.Dimensions)
	assert.Equal(t, "deepseek", cfg.LLM.Provider)
	assert.Equal(t, 500, cfg.CacheCapacity)
	assert.Equal(t, 0.99, cfg.DecayFactor)
	assert.Equal(t, 0.5, cfg.ScoreThreshold)
	assert.Equal(t, 7, cfg.ReflectionThreshold)
	assert.Equal(t, 30, cfg.WindowSize)
	assert.Equal(t, "chromem", cfg.IndexBackend)
}

func TestLoadConfigFromEnvBadNumbersFallBack(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "openai")
	t.Setenv("EMBEDDING_API_KEY", "sk-test")
	t.Setenv("MEMSTREAM_CACHE_CAPACITY", "not-a-number")
	t.Setenv("MEMSTREAM_DECAY_FACTOR", "also-not")

	cfg, err := memstream.LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.CacheCapacity)
	assert.Equal(t, memstream.DefaultDecayFactor, cfg.DecayFactor)
}

func TestLoadConfigFromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"embedding": {"provider": "openai", "api_key": "sk-test", "dimensions": 256},
		"llm": {"provider": "openai", "api_key": "sk-test"},
		"score_threshold": 0.4
	}`), 0o644))

	cfg, err := memstream.LoadConfigFromJSON(path)
	require.NoError(t, err)

	assert.Equal(t, 256, cfg.Embedding.Dimensions)
	assert.Equal(t, 0.4, cfg.ScoreThreshold)
	// Unset tunables keep their defaults.
	assert.Equal(t, memstream.DefaultReflectionThreshold, cfg.ReflectionThreshold)
}

func TestLoadConfigFromJSONInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"embedding": {"provider": "nope"}}`), 0o644))

	_, err := memstream.LoadConfigFromJSON(path)
	assert.ErrorIs(t, err, memstream.ErrInvalidConfig)
}
