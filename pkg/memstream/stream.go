package memstream

import (
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warmroom/memstream-go/pkg/vectorindex"
)

// Stream owns the list of Memory records and the vector index built over
// their embeddings, and implements the composite retrieval ranking.
//
// All mutations of the index+list pair happen under a single mutex, so the
// two are never observed in a torn state. The lock is deliberately coarse:
// conversational turns arrive seconds apart, so retrieval and insertion do
// not need to run concurrently with high throughput.
type Stream struct {
	mu sync.Mutex

	logger          *zap.Logger
	dims            int
	decayFactor     float64
	scoreThreshold  float64
	touchOnRetrieve bool
	backend         vectorindex.Backend

	index    vectorindex.Index
	memories []*Memory          // every tracked memory, indexed or not
	byID     map[uint64]*Memory // indexed memories by index id
	nextID   uint64
}

// NewStream creates an empty memory stream for embeddings of the given
// dimension.
func NewStream(dims int, opts ...StreamOption) (*Stream, error) {
	if dims <= 0 {
		return nil, NewStreamError("NewStream", ErrInvalidConfig)
	}

	s := &Stream{
		logger:          zap.NewNop(),
		dims:            dims,
		decayFactor:     DefaultDecayFactor,
		scoreThreshold:  DefaultScoreThreshold,
		touchOnRetrieve: true,
		backend:         vectorindex.BackendFlat,
		byID:            make(map[uint64]*Memory),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.decayFactor <= 0 || s.decayFactor >= 1 {
		return nil, NewStreamError("NewStream", ErrInvalidConfig)
	}

	index, err := vectorindex.New(s.backend, dims)
	if err != nil {
		return nil, NewStreamError("NewStream", err)
	}
	s.index = index

	return s, nil
}

// Add tracks a memory and indexes its embedding.
//
// A memory without an embedding, or with an embedding of the wrong
// dimension, is logged and kept in the display list but never indexed, so it
// cannot be found by retrieval. Add never fails from the caller's point of
// view.
func (s *Stream) Add(memory *Memory) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if memory.CreatedAt.IsZero() {
		memory.CreatedAt = now
	}
	if memory.LastAccessedAt.IsZero() {
		memory.LastAccessedAt = memory.CreatedAt
	}
	if memory.Importance == 0 {
		memory.Importance = NeutralImportance
	}

	if memory.Embedding == nil {
		s.logger.Warn("memory has no embedding, skipping index",
			zap.Int64("memory_id", memory.ID))
		s.memories = append(s.memories, memory)
		return
	}
	if len(memory.Embedding) != s.dims {
		s.logger.Error("embedding dimension mismatch, skipping index",
			zap.Int("expected", s.dims),
			zap.Int("actual", len(memory.Embedding)),
			zap.Int64("memory_id", memory.ID))
		s.memories = append(s.memories, memory)
		return
	}

	id := s.nextID
	if err := s.index.Insert(id, memory.Embedding); err != nil {
		s.logger.Error("vector index insert failed",
			zap.Uint64("index_id", id),
			zap.Error(err))
		s.memories = append(s.memories, memory)
		return
	}

	s.nextID++
	s.byID[id] = memory
	s.memories = append(s.memories, memory)
}

// scored pairs a candidate with its composite score.
type scored struct {
	score  float64
	memory *Memory
}

// Retrieve returns up to topK memories ranked by the weighted blend of
// recency, importance, and relevance to the query embedding.
//
// Degenerate inputs degrade to an empty result rather than an error: an
// empty store, a query vector of the wrong dimension, or a non-positive
// topK all return an empty slice. Retrieval runs on every conversational
// turn and must never abort its caller.
func (s *Stream) Retrieve(queryEmbedding []float32, topK int, weights Weights) []*Memory {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.byID) == 0 || topK <= 0 {
		return []*Memory{}
	}
	if len(queryEmbedding) != s.dims {
		s.logger.Error("query dimension mismatch",
			zap.Int("expected", s.dims),
			zap.Int("actual", len(queryEmbedding)))
		return []*Memory{}
	}
	if weights.sum() <= 0 {
		s.logger.Warn("non-positive weight sum, nothing to rank")
		return []*Memory{}
	}

	// Over-fetch by 2x: the composite score reorders candidates relative
	// to pure vector distance.
	fetch := 2 * topK
	if fetch > s.index.Len() {
		fetch = s.index.Len()
	}

	results, err := s.index.Query(queryEmbedding, fetch)
	if err != nil {
		s.logger.Error("vector index query failed", zap.Error(err))
		return []*Memory{}
	}

	now := time.Now()
	candidates := make([]scored, 0, len(results))
	for _, r := range results {
		memory, ok := s.byID[r.ID]
		if !ok {
			continue
		}

		recency := s.recencyScore(memory.LastAccessedAt, now)
		importance := memory.Importance / 10.0
		relevance := 1 - float64(r.Distance)

		score := (weights.Recency*recency +
			weights.Importance*importance +
			weights.Relevance*relevance) / weights.sum()

		if score >= s.scoreThreshold {
			candidates = append(candidates, scored{score: score, memory: memory})
		}
	}

	// Composite score descending; equal scores break toward the more
	// recently accessed memory. Stable for deterministic ordering.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].memory.LastAccessedAt.After(candidates[j].memory.LastAccessedAt)
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	retrieved := make([]*Memory, len(candidates))
	for i, c := range candidates {
		retrieved[i] = c.memory
	}

	// Touch after scoring so the update cannot affect this call's own
	// ranking.
	if s.touchOnRetrieve {
		for _, memory := range retrieved {
			memory.LastAccessedAt = now
		}
	}

	return retrieved
}

// recencyScore computes exp(-ln(1/decayFactor) * hoursSinceLastAccess), an
// exponential decay from 1.0 toward 0 where a smaller decay factor forgets
// faster. It is a function of "now" and is never cached.
func (s *Stream) recencyScore(lastAccess, now time.Time) float64 {
	hours := now.Sub(lastAccess).Hours()
	if hours < 0 {
		hours = 0
	}
	return math.Exp(-math.Log(1/s.decayFactor) * hours)
}

// ReviseImportance updates a memory's importance under the stream lock,
// clamped to [1, 10]. Used by the asynchronous importance revision path.
func (s *Stream) ReviseImportance(memory *Memory, importance float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	memory.Importance = math.Min(math.Max(importance, 1), 10)
}

// Clear discards all memories and rebuilds an empty vector index. It is
// idempotent.
func (s *Stream) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Stream) clearLocked() {
	index, err := vectorindex.New(s.backend, s.dims)
	if err != nil {
		// The configured backend could not be rebuilt; fall back to
		// the exact index rather than losing the store.
		s.logger.Error("index rebuild failed, falling back to flat index",
			zap.Error(err))
		index = vectorindex.NewFlat(s.dims)
	}

	s.index = index
	s.memories = nil
	s.byID = make(map[uint64]*Memory)
	s.nextID = 0
}

// Len returns the number of tracked memories, indexed or not.
func (s *Stream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.memories)
}

// IndexedLen returns the number of searchable memories.
func (s *Stream) IndexedLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// Dims returns the engine-wide embedding dimension.
func (s *Stream) Dims() int {
	return s.dims
}

// Snapshot returns a copy of all tracked memories in insertion order.
// The copies are detached: mutating them does not affect the stream.
func (s *Stream) Snapshot() []*Memory {
	s.mu.Lock()
	defer s.mu.Unlock()

	copies := make([]*Memory, len(s.memories))
	for i, memory := range s.memories {
		c := *memory
		if memory.Embedding != nil {
			c.Embedding = make([]float32, len(memory.Embedding))
			copy(c.Embedding, memory.Embedding)
		}
		copies[i] = &c
	}
	return copies
}

// Restore replaces the stream contents with the given memories, rebuilding
// the index from scratch. Timestamps and importances are preserved.
func (s *Stream) Restore(memories []*Memory) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearLocked()
	for _, memory := range memories {
		s.addLocked(memory)
	}
}

// addLocked indexes a memory without touching its timestamps. Callers must
// hold s.mu.
func (s *Stream) addLocked(memory *Memory) {
	if memory.Embedding == nil || len(memory.Embedding) != s.dims {
		s.memories = append(s.memories, memory)
		return
	}

	id := s.nextID
	if err := s.index.Insert(id, memory.Embedding); err != nil {
		s.logger.Error("vector index insert failed during restore",
			zap.Uint64("index_id", id),
			zap.Error(err))
		s.memories = append(s.memories, memory)
		return
	}

	s.nextID++
	s.byID[id] = memory
	s.memories = append(s.memories, memory)
}
