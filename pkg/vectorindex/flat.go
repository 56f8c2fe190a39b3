package vectorindex

import (
	"math"
	"sort"
)

// Flat is an exact nearest-neighbor index backed by a plain slice.
//
// Every query scans all stored vectors, so results are exact rather than
// approximate. Vector norms are precomputed at insert time.
type Flat struct {
	dims    int
	ids     []uint64
	vectors [][]float32
	norms   []float32
}

// NewFlat creates an empty exact index for vectors of the given dimension.
func NewFlat(dims int) *Flat {
	return &Flat{dims: dims}
}

// Insert appends a vector under the given id.
func (f *Flat) Insert(id uint64, vector []float32) error {
	if len(vector) != f.dims {
		return ErrDimensionMismatch
	}

	stored := make([]float32, len(vector))
	copy(stored, vector)

	f.ids = append(f.ids, id)
	f.vectors = append(f.vectors, stored)
	f.norms = append(f.norms, norm(stored))
	return nil
}

// Query returns the k nearest stored vectors by ascending cosine distance.
func (f *Flat) Query(vector []float32, k int) ([]Result, error) {
	if len(vector) != f.dims {
		return nil, ErrDimensionMismatch
	}
	if k <= 0 || len(f.ids) == 0 {
		return []Result{}, nil
	}
	if k > len(f.ids) {
		k = len(f.ids)
	}

	queryNorm := norm(vector)
	results := make([]Result, 0, len(f.ids))
	for i, stored := range f.vectors {
		results = append(results, Result{
			ID:       f.ids[i],
			Distance: cosineDistance(vector, stored, queryNorm, f.norms[i]),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	return results[:k], nil
}

// Len returns the number of stored points.
func (f *Flat) Len() int {
	return len(f.ids)
}

// Dims returns the vector dimension.
func (f *Flat) Dims() int {
	return f.dims
}

// cosineDistance computes 1 - cosine similarity, clamped to [0, 2].
// A zero vector has no direction; its distance to anything is 1 (neutral).
func cosineDistance(a, b []float32, normA, normB float32) float32 {
	if normA == 0 || normB == 0 {
		return 1
	}

	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}

	dist := 1 - dot/(normA*normB)
	if dist < 0 {
		return 0
	}
	if dist > 2 {
		return 2
	}
	return dist
}

func norm(v []float32) float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return float32(math.Sqrt(sum))
}
