package vectorindex

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	chromem "github.com/philippgille/chromem-go"
)

// Chromem is a nearest-neighbor index backed by chromem-go, a pure-Go
// embedded vector database. It trades a little per-query overhead for
// concurrent scanning, which pays off on larger stores.
//
// Zero-norm vectors are handled at this boundary: chromem normalizes every
// embedding it stores, which turns a zero vector into NaN components. Such
// vectors are kept out of the collection and scored at the neutral distance
// 1, matching Flat.
type Chromem struct {
	dims       int
	collection *chromem.Collection

	// ids holds every inserted id in insertion order; zeroIDs the subset
	// whose vectors had no direction and were never handed to chromem.
	ids     []uint64
	zeroIDs []uint64
}

// NewChromem creates an empty chromem-backed index for vectors of the given
// dimension.
func NewChromem(dims int) (*Chromem, error) {
	db := chromem.NewDB()

	// Embeddings are always supplied by the caller, so no embedding
	// function is configured. The default distance is cosine.
	col, err := db.CreateCollection("memories", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &Chromem{
		dims:       dims,
		collection: col,
	}, nil
}

// Insert appends a vector under the given id.
func (c *Chromem) Insert(id uint64, vector []float32) error {
	if len(vector) != c.dims {
		return ErrDimensionMismatch
	}

	if norm(vector) == 0 {
		c.ids = append(c.ids, id)
		c.zeroIDs = append(c.zeroIDs, id)
		return nil
	}

	// chromem normalizes embeddings it stores; hand it a copy so the
	// caller's slice is never mutated.
	stored := make([]float32, len(vector))
	copy(stored, vector)

	doc := chromem.Document{
		ID:        strconv.FormatUint(id, 10),
		Content:   strconv.FormatUint(id, 10),
		Embedding: stored,
	}
	if err := c.collection.AddDocument(context.Background(), doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}

	c.ids = append(c.ids, id)
	return nil
}

// Query returns the k nearest stored vectors by ascending cosine distance.
func (c *Chromem) Query(vector []float32, k int) ([]Result, error) {
	if len(vector) != c.dims {
		return nil, ErrDimensionMismatch
	}
	if k <= 0 || len(c.ids) == 0 {
		return []Result{}, nil
	}
	if k > len(c.ids) {
		k = len(c.ids)
	}

	// A query with no direction scores every stored point at the neutral
	// distance, in insertion order.
	if norm(vector) == 0 {
		results := make([]Result, k)
		for i := range results {
			results[i] = Result{ID: c.ids[i], Distance: 1}
		}
		return results, nil
	}

	results := make([]Result, 0, k+len(c.zeroIDs))

	indexed := len(c.ids) - len(c.zeroIDs)
	if indexed > 0 {
		fetch := k
		if fetch > indexed {
			// chromem rejects nResults larger than the collection
			// size.
			fetch = indexed
		}

		matches, err := c.collection.QueryEmbedding(context.Background(), vector, fetch, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("query embedding: %w", err)
		}

		for _, m := range matches {
			id, err := strconv.ParseUint(m.ID, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parse document id %q: %w", m.ID, err)
			}

			dist := 1 - m.Similarity
			if dist < 0 {
				dist = 0
			}
			if dist > 2 {
				dist = 2
			}
			results = append(results, Result{ID: id, Distance: dist})
		}
	}

	for _, id := range c.zeroIDs {
		results = append(results, Result{ID: id, Distance: 1})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Len returns the number of stored points.
func (c *Chromem) Len() int {
	return len(c.ids)
}

// Dims returns the vector dimension.
func (c *Chromem) Dims() int {
	return c.dims
}
