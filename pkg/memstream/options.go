package memstream

import (
	"go.uber.org/zap"

	"github.com/warmroom/memstream-go/pkg/vectorindex"
)

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithDecayFactor sets the hourly recency decay factor, in (0, 1).
func WithDecayFactor(factor float64) StreamOption {
	return func(s *Stream) {
		s.decayFactor = factor
	}
}

// WithScoreThreshold sets the minimum composite score a memory must reach to
// be retrievable.
func WithScoreThreshold(threshold float64) StreamOption {
	return func(s *Stream) {
		s.scoreThreshold = threshold
	}
}

// WithIndexBackend selects the vector index implementation.
func WithIndexBackend(backend vectorindex.Backend) StreamOption {
	return func(s *Stream) {
		s.backend = backend
	}
}

// WithAccessTouch controls whether retrieval updates LastAccessedAt on the
// memories it returns. Enabled by default.
func WithAccessTouch(touch bool) StreamOption {
	return func(s *Stream) {
		s.touchOnRetrieve = touch
	}
}

// WithStreamLogger sets the stream's logger.
func WithStreamLogger(logger *zap.Logger) StreamOption {
	return func(s *Stream) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine's logger. The same logger is passed down to
// the stream unless WithStreamOptions overrides it.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithScheduler replaces the background job scheduler. Tests use
// SyncScheduler to make reflection and importance revision deterministic.
func WithScheduler(scheduler Scheduler) EngineOption {
	return func(e *Engine) {
		if scheduler != nil {
			e.scheduler = scheduler
		}
	}
}

// WithImportanceScorer replaces the LLM-backed importance scorer.
func WithImportanceScorer(scorer ImportanceScorer) EngineOption {
	return func(e *Engine) {
		e.scorer = scorer
	}
}

// WithInsightGenerator replaces the LLM-backed reflection step.
func WithInsightGenerator(generator InsightGenerator) EngineOption {
	return func(e *Engine) {
		e.reflector = generator
	}
}

// WithReflectionThreshold sets how many dialogue memories accumulate before
// a reflection job fires.
func WithReflectionThreshold(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.reflectionThreshold = n
		}
	}
}

// WithWindowSize sets the dialogue window capacity.
func WithWindowSize(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.windowSize = n
		}
	}
}

// WithStreamOptions passes additional options through to the engine's
// underlying stream.
func WithStreamOptions(opts ...StreamOption) EngineOption {
	return func(e *Engine) {
		e.streamOpts = append(e.streamOpts, opts...)
	}
}

// RetrieveOption configures a single Retrieve call.
type RetrieveOption func(*retrieveParams)

type retrieveParams struct {
	topK    int
	weights Weights
}

// WithTopK sets the maximum number of memories to return.
func WithTopK(k int) RetrieveOption {
	return func(p *retrieveParams) {
		if k > 0 {
			p.topK = k
		}
	}
}

// WithWeights overrides the scoring weights for this call.
func WithWeights(weights Weights) RetrieveOption {
	return func(p *retrieveParams) {
		p.weights = weights
	}
}
