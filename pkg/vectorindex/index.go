// Package vectorindex provides insert-only vector indexes for cosine
// similarity search over fixed-dimension float32 vectors.
//
// Two backends are available:
//   - Flat: exact brute-force scan, recommended for stores below ~5,000
//     entries where exactness is cheap to verify.
//   - Chromem: an embedded vector database (chromem-go), suited to larger
//     stores.
//
// Both backends share the Index interface: points are appended under a
// caller-assigned id and never overwritten or removed. A store that needs to
// drop its contents discards the whole index and allocates a fresh one.
package vectorindex

import "errors"

// ErrDimensionMismatch indicates a vector whose length does not match the
// index dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Result is a single nearest-neighbor match.
type Result struct {
	// ID is the id the vector was inserted under.
	ID uint64

	// Distance is the cosine distance to the query, in [0, 2].
	// 0 means identical direction, 2 means opposite.
	Distance float32
}

// Index is an insert-only nearest-neighbor index over fixed-dimension
// vectors.
//
// Implementations are not required to be safe for concurrent use; the owning
// store serializes access.
type Index interface {
	// Insert appends a vector under the given id. It returns
	// ErrDimensionMismatch if the vector length differs from Dims().
	// Ids are caller-assigned and must not repeat; an existing id is
	// never overwritten.
	Insert(id uint64, vector []float32) error

	// Query returns the k nearest neighbors of the query vector sorted by
	// ascending cosine distance. k is clamped to the number of stored
	// points; querying an empty index returns an empty slice.
	Query(vector []float32, k int) ([]Result, error)

	// Len returns the number of stored points.
	Len() int

	// Dims returns the vector dimension the index was created with.
	Dims() int
}

// Backend selects the index implementation.
type Backend string

const (
	// BackendFlat is the exact brute-force index.
	BackendFlat Backend = "flat"

	// BackendChromem is the chromem-go embedded vector database.
	BackendChromem Backend = "chromem"
)

// New creates an index of the given backend and dimension.
func New(backend Backend, dims int) (Index, error) {
	switch backend {
	case BackendFlat, "":
		return NewFlat(dims), nil
	case BackendChromem:
		return NewChromem(dims)
	default:
		return nil, errors.New("unknown index backend: " + string(backend))
	}
}
