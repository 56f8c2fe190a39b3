package vectorindex_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warmroom/memstream-go/pkg/vectorindex"
)

func TestNewBackends(t *testing.T) {
	tests := []struct {
		name    string
		backend vectorindex.Backend
		wantErr bool
	}{
		{name: "flat", backend: vectorindex.BackendFlat},
		{name: "default is flat", backend: ""},
		{name: "chromem", backend: vectorindex.BackendChromem},
		{name: "unknown", backend: "annoy", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := vectorindex.New(tt.backend, 4)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 4, idx.Dims())
			assert.Equal(t, 0, idx.Len())
		})
	}
}

func TestInsertDimensionMismatch(t *testing.T) {
	for _, backend := range []vectorindex.Backend{vectorindex.BackendFlat, vectorindex.BackendChromem} {
		t.Run(string(backend), func(t *testing.T) {
			idx, err := vectorindex.New(backend, 3)
			require.NoError(t, err)

			err = idx.Insert(0, []float32{1, 0})
			assert.ErrorIs(t, err, vectorindex.ErrDimensionMismatch)
			assert.Equal(t, 0, idx.Len())
		})
	}
}

func TestQueryOrdering(t *testing.T) {
	for _, backend := range []vectorindex.Backend{vectorindex.BackendFlat, vectorindex.BackendChromem} {
		t.Run(string(backend), func(t *testing.T) {
			idx, err := vectorindex.New(backend, 3)
			require.NoError(t, err)

			require.NoError(t, idx.Insert(0, []float32{1, 0, 0}))
			require.NoError(t, idx.Insert(1, []float32{0, 1, 0}))
			require.NoError(t, idx.Insert(2, []float32{0.9, 0.1, 0}))

			results, err := idx.Query([]float32{1, 0, 0}, 3)
			require.NoError(t, err)
			require.Len(t, results, 3)

			// Identical vector first, orthogonal one last.
			assert.Equal(t, uint64(0), results[0].ID)
			assert.InDelta(t, 0.0, float64(results[0].Distance), 1e-5)
			assert.Equal(t, uint64(2), results[1].ID)
			assert.Equal(t, uint64(1), results[2].ID)
			assert.InDelta(t, 1.0, float64(results[2].Distance), 1e-5)

			// Ascending distance throughout.
			for i := 1; i < len(results); i++ {
				assert.LessOrEqual(t, results[i-1].Distance, results[i].Distance)
			}
		})
	}
}

func TestQueryClampsK(t *testing.T) {
	for _, backend := range []vectorindex.Backend{vectorindex.BackendFlat, vectorindex.BackendChromem} {
		t.Run(string(backend), func(t *testing.T) {
			idx, err := vectorindex.New(backend, 2)
			require.NoError(t, err)

			require.NoError(t, idx.Insert(0, []float32{1, 0}))
			require.NoError(t, idx.Insert(1, []float32{0, 1}))

			results, err := idx.Query([]float32{1, 0}, 10)
			require.NoError(t, err)
			assert.Len(t, results, 2)
		})
	}
}

func TestQueryEmptyIndex(t *testing.T) {
	for _, backend := range []vectorindex.Backend{vectorindex.BackendFlat, vectorindex.BackendChromem} {
		t.Run(string(backend), func(t *testing.T) {
			idx, err := vectorindex.New(backend, 2)
			require.NoError(t, err)

			results, err := idx.Query([]float32{1, 0}, 5)
			require.NoError(t, err)
			assert.Empty(t, results)
		})
	}
}

func TestQueryDimensionMismatch(t *testing.T) {
	idx := vectorindex.NewFlat(3)
	require.NoError(t, idx.Insert(0, []float32{1, 0, 0}))

	_, err := idx.Query([]float32{1, 0}, 1)
	assert.ErrorIs(t, err, vectorindex.ErrDimensionMismatch)
}

func TestDistanceRange(t *testing.T) {
	idx := vectorindex.NewFlat(2)
	require.NoError(t, idx.Insert(0, []float32{1, 0}))
	require.NoError(t, idx.Insert(1, []float32{-1, 0}))

	results, err := idx.Query([]float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Opposite vector sits at the far end of the cosine distance range.
	assert.InDelta(t, 0.0, float64(results[0].Distance), 1e-5)
	assert.InDelta(t, 2.0, float64(results[1].Distance), 1e-5)
}

func TestZeroVectorIsNeutral(t *testing.T) {
	// A zero vector is what the embedding fallback substitutes on provider
	// failure; both backends must score it at the neutral distance 1
	// instead of leaking NaN out of normalization.
	for _, backend := range []vectorindex.Backend{vectorindex.BackendFlat, vectorindex.BackendChromem} {
		t.Run(string(backend), func(t *testing.T) {
			idx, err := vectorindex.New(backend, 3)
			require.NoError(t, err)

			require.NoError(t, idx.Insert(0, []float32{0, 0, 0}))
			require.NoError(t, idx.Insert(1, []float32{1, 0, 0}))
			assert.Equal(t, 2, idx.Len())

			results, err := idx.Query([]float32{1, 0, 0}, 2)
			require.NoError(t, err)
			require.Len(t, results, 2)

			assert.Equal(t, uint64(1), results[0].ID)
			assert.InDelta(t, 0.0, float64(results[0].Distance), 1e-5)
			assert.Equal(t, uint64(0), results[1].ID)
			assert.InDelta(t, 1.0, float64(results[1].Distance), 1e-5)

			for _, r := range results {
				assert.False(t, math.IsNaN(float64(r.Distance)))
				assert.GreaterOrEqual(t, r.Distance, float32(0))
				assert.LessOrEqual(t, r.Distance, float32(2))
			}
		})
	}
}

func TestZeroQueryVectorIsNeutral(t *testing.T) {
	for _, backend := range []vectorindex.Backend{vectorindex.BackendFlat, vectorindex.BackendChromem} {
		t.Run(string(backend), func(t *testing.T) {
			idx, err := vectorindex.New(backend, 3)
			require.NoError(t, err)

			require.NoError(t, idx.Insert(0, []float32{1, 0, 0}))
			require.NoError(t, idx.Insert(1, []float32{0, 1, 0}))

			// A directionless query scores every point at distance 1
			// rather than emptying the result set.
			results, err := idx.Query([]float32{0, 0, 0}, 2)
			require.NoError(t, err)
			require.Len(t, results, 2)
			for _, r := range results {
				assert.InDelta(t, 1.0, float64(r.Distance), 1e-5)
			}
		})
	}
}

func TestFlatCopiesInput(t *testing.T) {
	idx := vectorindex.NewFlat(2)
	vec := []float32{1, 0}
	require.NoError(t, idx.Insert(0, vec))

	// Mutating the caller's slice must not affect stored vectors.
	vec[0] = 0
	vec[1] = 1

	results, err := idx.Query([]float32{1, 0}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, float64(results[0].Distance), 1e-5)
}
