// Package memstream provides the conversational memory retrieval engine: a
// memory stream that indexes embedding vectors, ranks candidates by a
// weighted blend of recency, importance, and semantic relevance, and grows
// itself through periodic reflection over recent turns.
package memstream

import "time"

// MemoryKind tags the provenance of a memory. It only affects how the
// surrounding prompt formatting presents a memory, never how it is scored.
type MemoryKind string

const (
	// KindDialogue marks a memory recorded from a conversational turn.
	KindDialogue MemoryKind = "dialogue"

	// KindReflection marks an insight synthesized by the reflection
	// trigger.
	KindReflection MemoryKind = "reflection"
)

// Memory is the atomic unit of recall.
//
// Content and CreatedAt are immutable after creation. Importance may be
// revised asynchronously once a more accurate judgment is available, and
// LastAccessedAt is touched whenever the memory is returned by a retrieval;
// both mutations happen under the owning stream's lock.
type Memory struct {
	// ID is the unique identifier of the memory.
	ID int64 `json:"id"`

	// Content is the text content of the memory.
	Content string `json:"content"`

	// Embedding is the vector embedding for similarity search. It may be
	// nil if the originating embedding call failed; such a memory is
	// tracked but never indexed.
	// Omitted from JSON to reduce payload size.
	Embedding []float32 `json:"embedding,omitempty"`

	// Importance is the importance score in [1, 10].
	Importance float64 `json:"importance"`

	// Kind is the provenance tag (dialogue or reflection).
	Kind MemoryKind `json:"kind"`

	// CreatedAt is when the memory was created.
	CreatedAt time.Time `json:"created_at"`

	// LastAccessedAt is when the memory was last returned by a
	// retrieval. Initialized to CreatedAt.
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

// Weights are the caller-supplied weights of the three retrieval sub-scores.
// The composite score is the weighted mean of the sub-scores.
type Weights struct {
	// Recency weights the exponential time-decay score.
	Recency float64

	// Importance weights the normalized importance score.
	Importance float64

	// Relevance weights the cosine similarity to the query.
	Relevance float64
}

// DefaultWeights are the retrieval weights used on routine conversational
// turns.
var DefaultWeights = Weights{Recency: 0.6, Importance: 0.8, Relevance: 1.0}

// EqualWeights weights the three sub-scores equally, suited to ad hoc
// lookups.
var EqualWeights = Weights{Recency: 1.0, Importance: 1.0, Relevance: 1.0}

func (w Weights) sum() float64 {
	return w.Recency + w.Importance + w.Relevance
}

// Reference defaults for the engine tunables.
const (
	// DefaultDecayFactor is the hourly recency decay factor.
	DefaultDecayFactor = 0.995

	// DefaultScoreThreshold is the hard composite-score cutoff below
	// which candidates are discarded.
	DefaultScoreThreshold = 0.6

	// DefaultTopK is the number of memories returned by a retrieval.
	DefaultTopK = 3

	// DefaultReflectionThreshold is the number of unprocessed dialogue
	// turns that triggers a reflection job.
	DefaultReflectionThreshold = 5

	// DefaultWindowSize is the capacity of the sliding dialogue window.
	DefaultWindowSize = 20

	// NeutralImportance is the importance assigned before the scoring
	// call returns, and substituted when it fails.
	NeutralImportance = 5.0
)
