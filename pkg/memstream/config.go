package memstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/warmroom/memstream-go/pkg/embedcache"
	"github.com/warmroom/memstream-go/pkg/embedder"
	embopenai "github.com/warmroom/memstream-go/pkg/embedder/openai"
	"github.com/warmroom/memstream-go/pkg/embedder/zhipu"
	"github.com/warmroom/memstream-go/pkg/llm"
	"github.com/warmroom/memstream-go/pkg/llm/deepseek"
	llmopenai "github.com/warmroom/memstream-go/pkg/llm/openai"
	"github.com/warmroom/memstream-go/pkg/vectorindex"
)

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is "openai" or "zhipu".
	Provider string `json:"provider"`

	// APIKey is the provider API key.
	APIKey string `json:"api_key"`

	// Model is the embedding model name (provider default if empty).
	Model string `json:"model"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url"`

	// Dimensions is the embedding vector dimension (provider default if 0).
	Dimensions int `json:"dimensions"`
}

// LLMConfig selects and configures the chat-completion provider used for
// importance scoring and reflection.
type LLMConfig struct {
	// Provider is "deepseek" or "openai". Empty disables LLM features.
	Provider string `json:"provider"`

	// APIKey is the provider API key.
	APIKey string `json:"api_key"`

	// Model is the chat model name (provider default if empty).
	Model string `json:"model"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url"`
}

// Config is the complete engine configuration.
type Config struct {
	Embedding EmbeddingConfig `json:"embedding"`
	LLM       LLMConfig       `json:"llm"`

	// CacheCapacity is the embedding cache size (default 1000).
	CacheCapacity int `json:"cache_capacity"`

	// DecayFactor is the hourly recency decay factor (default 0.995).
	DecayFactor float64 `json:"decay_factor"`

	// ScoreThreshold is the minimum composite retrieval score, in [0, 1]
	// (default 0.6).
	ScoreThreshold float64 `json:"score_threshold"`

	// ReflectionThreshold is the dialogue count that triggers reflection
	// (default 5).
	ReflectionThreshold int `json:"reflection_threshold"`

	// WindowSize is the dialogue window capacity (default 20).
	WindowSize int `json:"window_size"`

	// IndexBackend selects the vector index: "flat" (default) or "chromem".
	IndexBackend string `json:"index_backend"`
}

// DefaultConfig returns a config with all tunables at their defaults and no
// providers selected.
func DefaultConfig() *Config {
	return &Config{
		CacheCapacity:       embedcache.DefaultCapacity,
		DecayFactor:         DefaultDecayFactor,
		ScoreThreshold:      DefaultScoreThreshold,
		ReflectionThreshold: DefaultReflectionThreshold,
		WindowSize:          DefaultWindowSize,
		IndexBackend:        string(vectorindex.BackendFlat),
	}
}

// LoadConfigFromEnv builds a Config from environment variables, loading a
// .env file first if one is found in the current directory or any parent.
//
// Recognized variables:
//
//	EMBEDDING_PROVIDER, EMBEDDING_API_KEY, EMBEDDING_MODEL,
//	EMBEDDING_BASE_URL, EMBEDDING_DIMENSIONS,
//	LLM_PROVIDER, LLM_API_KEY, LLM_MODEL, LLM_BASE_URL,
//	MEMSTREAM_CACHE_CAPACITY, MEMSTREAM_DECAY_FACTOR,
//	MEMSTREAM_SCORE_THRESHOLD, MEMSTREAM_REFLECTION_THRESHOLD,
//	MEMSTREAM_WINDOW_SIZE, MEMSTREAM_INDEX_BACKEND
func LoadConfigFromEnv() (*Config, error) {
	if envFile := findEnvFile(); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	cfg := DefaultConfig()
	cfg.Embedding = EmbeddingConfig{
		Provider:   getEnv("EMBEDDING_PROVIDER", "openai"),
		APIKey:     os.Getenv("EMBEDDING_API_KEY"),
		Model:      os.Getenv("EMBEDDING_MODEL"),
		BaseURL:    os.Getenv("EMBEDDING_BASE_URL"),
		Dimensions: getEnvInt("EMBEDDING_DIMENSIONS", 0),
	}
	cfg.LLM = LLMConfig{
		Provider: os.Getenv("LLM_PROVIDER"),
		APIKey:   os.Getenv("LLM_API_KEY"),
		Model:    os.Getenv("LLM_MODEL"),
		BaseURL:  os.Getenv("LLM_BASE_URL"),
	}

	cfg.CacheCapacity = getEnvInt("MEMSTREAM_CACHE_CAPACITY", cfg.CacheCapacity)
	cfg.DecayFactor = getEnvFloat("MEMSTREAM_DECAY_FACTOR", cfg.DecayFactor)
	cfg.ScoreThreshold = getEnvFloat("MEMSTREAM_SCORE_THRESHOLD", cfg.ScoreThreshold)
	cfg.ReflectionThreshold = getEnvInt("MEMSTREAM_REFLECTION_THRESHOLD", cfg.ReflectionThreshold)
	cfg.WindowSize = getEnvInt("MEMSTREAM_WINDOW_SIZE", cfg.WindowSize)
	cfg.IndexBackend = getEnv("MEMSTREAM_INDEX_BACKEND", cfg.IndexBackend)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFromJSON builds a Config from a JSON file. Zero-valued tunables
// take their defaults.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case "openai", "zhipu":
		if c.Embedding.APIKey == "" {
			return NewStreamError("Validate",
				fmt.Errorf("%w: embedding API key is required for provider %q",
					ErrInvalidConfig, c.Embedding.Provider))
		}
	case "":
		return NewStreamError("Validate",
			fmt.Errorf("%w: embedding provider is required", ErrInvalidConfig))
	default:
		return NewStreamError("Validate",
			fmt.Errorf("%w: unknown embedding provider %q",
				ErrInvalidConfig, c.Embedding.Provider))
	}

	switch c.LLM.Provider {
	case "", "deepseek", "openai":
	default:
		return NewStreamError("Validate",
			fmt.Errorf("%w: unknown LLM provider %q", ErrInvalidConfig, c.LLM.Provider))
	}
	if c.LLM.Provider != "" && c.LLM.APIKey == "" {
		return NewStreamError("Validate",
			fmt.Errorf("%w: LLM API key is required for provider %q",
				ErrInvalidConfig, c.LLM.Provider))
	}

	if c.DecayFactor != 0 && (c.DecayFactor <= 0 || c.DecayFactor >= 1) {
		return NewStreamError("Validate",
			fmt.Errorf("%w: decay factor must be in (0, 1)", ErrInvalidConfig))
	}
	// Sub-scores top out at 1, so does their weighted mean; a threshold
	// above 1 would silently disable retrieval.
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 1 {
		return NewStreamError("Validate",
			fmt.Errorf("%w: score threshold must be in [0, 1]", ErrInvalidConfig))
	}
	switch vectorindex.Backend(c.IndexBackend) {
	case "", vectorindex.BackendFlat, vectorindex.BackendChromem:
	default:
		return NewStreamError("Validate",
			fmt.Errorf("%w: unknown index backend %q", ErrInvalidConfig, c.IndexBackend))
	}

	return nil
}

// NewEngineFromConfig builds the embedding and LLM providers described by
// the config and assembles an engine around them.
func NewEngineFromConfig(cfg *Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		return nil, NewStreamError("NewEngineFromConfig", errors.New("nil config"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	provider, err := newEmbeddingProvider(&cfg.Embedding)
	if err != nil {
		return nil, NewStreamError("NewEngineFromConfig", err)
	}

	service, err := embedder.NewService(provider, cfg.CacheCapacity, nil)
	if err != nil {
		provider.Close()
		return nil, NewStreamError("NewEngineFromConfig", err)
	}

	llmProvider, err := newLLMProvider(&cfg.LLM)
	if err != nil {
		service.Close()
		return nil, NewStreamError("NewEngineFromConfig", err)
	}

	streamOpts := []StreamOption{
		WithIndexBackend(vectorindex.Backend(cfg.IndexBackend)),
	}
	if cfg.DecayFactor != 0 {
		streamOpts = append(streamOpts, WithDecayFactor(cfg.DecayFactor))
	}
	streamOpts = append(streamOpts, WithScoreThreshold(cfg.ScoreThreshold))

	engineOpts := []EngineOption{
		WithReflectionThreshold(cfg.ReflectionThreshold),
		WithWindowSize(cfg.WindowSize),
		WithStreamOptions(streamOpts...),
	}
	engineOpts = append(engineOpts, opts...)

	return NewEngine(service, llmProvider, engineOpts...)
}

func newEmbeddingProvider(cfg *EmbeddingConfig) (embedder.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return embopenai.NewClient(&embopenai.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
	case "zhipu":
		return zhipu.NewClient(&zhipu.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

func newLLMProvider(cfg *LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "deepseek":
		return deepseek.NewClient(&deepseek.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "openai":
		return llmopenai.NewClient(&llmopenai.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// findEnvFile searches for a .env file starting in the working directory
// and walking up toward the filesystem root.
func findEnvFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ".env")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return f
}
