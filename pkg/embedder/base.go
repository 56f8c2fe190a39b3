// Package embedder provides interfaces for text embedding providers.
//
// It defines the Provider interface that all embedding implementations must
// satisfy, and the Service wrapper that layers caching and the engine's
// zero-vector failure fallback on top of any provider.
package embedder

import "context"

// Provider defines the interface for embedding providers.
//
// All embedding implementations (OpenAI, Zhipu, the test mock) must
// implement this interface.
type Provider interface {
	// Embed converts a text string into a vector embedding.
	//
	// On success the returned vector has exactly Dimensions() elements.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts multiple text strings into vector embeddings.
	//
	// This method is more efficient than calling Embed multiple times,
	// as providers can batch requests. The returned slice matches the
	// order of the input texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimension of embedding vectors produced by
	// this provider.
	Dimensions() int

	// Close closes the provider and releases resources.
	Close() error
}
