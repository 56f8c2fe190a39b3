package memstream

import (
	"errors"
	"fmt"
)

// Predefined errors for common failure scenarios.
var (
	// ErrDimensionMismatch indicates an embedding or query vector of the
	// wrong length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidConfig indicates that the provided configuration is
	// invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingFailed indicates that embedding generation failed.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrLLMOperation indicates that an LLM operation failed.
	ErrLLMOperation = errors.New("llm operation failed")

	// ErrSnapshotOperation indicates that a snapshot save or load failed.
	ErrSnapshotOperation = errors.New("snapshot operation failed")
)

// StreamError wraps errors with operation context.
//
// It records which engine operation failed, making error messages more
// informative for debugging.
type StreamError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message in the form
// "memstream: <Op>: <Err>".
func (e *StreamError) Error() string {
	return fmt.Sprintf("memstream: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is / errors.As.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// NewStreamError creates a new StreamError wrapping the given error.
// If err is nil, returns nil, which allows unconditional wrapping at return
// sites.
func NewStreamError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StreamError{
		Op:  op,
		Err: err,
	}
}
