package embedder

import (
	"context"

	"go.uber.org/zap"

	"github.com/warmroom/memstream-go/pkg/embedcache"
)

// Service wraps a Provider with an embedding cache and the conversational
// failure contract: embedding calls never fail from the caller's point of
// view. On provider error or a wrong-dimension response, GetEmbedding logs
// and returns a zero vector of the expected dimension, so the conversation
// flow is never blocked by an embedding outage. A memory carrying a zero
// vector is simply unsearchable by relevance.
type Service struct {
	provider Provider
	cache    *embedcache.Cache
	dims     int
	logger   *zap.Logger
}

// NewService creates an embedding service around the given provider.
//
// cacheCapacity bounds the embedding cache (0 or less uses the cache's
// default). logger may be nil, in which case logging is disabled.
func NewService(provider Provider, cacheCapacity int, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cache, err := embedcache.New(cacheCapacity)
	if err != nil {
		return nil, err
	}

	return &Service{
		provider: provider,
		cache:    cache,
		dims:     provider.Dimensions(),
		logger:   logger,
	}, nil
}

// GetEmbedding returns the embedding for text, served from the cache when
// possible. Only successful, correctly-sized embeddings enter the cache;
// zero-vector fallbacks are never cached, so a later call can still succeed.
func (s *Service) GetEmbedding(ctx context.Context, text string) []float32 {
	if cached, ok := s.cache.Get(text); ok {
		return cached
	}

	embedding, err := s.provider.Embed(ctx, text)
	if err != nil {
		s.logger.Warn("embedding call failed, substituting zero vector",
			zap.Error(err))
		return make([]float32, s.dims)
	}
	if len(embedding) != s.dims {
		s.logger.Warn("embedding has unexpected dimension, substituting zero vector",
			zap.Int("expected", s.dims),
			zap.Int("actual", len(embedding)))
		return make([]float32, s.dims)
	}

	s.cache.Set(text, embedding)
	return embedding
}

// Dimensions returns the engine-wide embedding dimension.
func (s *Service) Dimensions() int {
	return s.dims
}

// CacheLen returns the number of cached embeddings.
func (s *Service) CacheLen() int {
	return s.cache.Len()
}

// Close closes the underlying provider.
func (s *Service) Close() error {
	return s.provider.Close()
}
