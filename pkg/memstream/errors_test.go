package memstream_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warmroom/memstream-go/pkg/memstream"
)

func TestStreamErrorFormat(t *testing.T) {
	err := memstream.NewStreamError("Retrieve", errors.New("index unavailable"))
	assert.Equal(t, "memstream: Retrieve: index unavailable", err.Error())
}

func TestStreamErrorUnwrap(t *testing.T) {
	wrapped := memstream.NewStreamError("Validate",
		fmt.Errorf("%w: decay factor must be in (0, 1)", memstream.ErrInvalidConfig))

	assert.ErrorIs(t, wrapped, memstream.ErrInvalidConfig)

	var streamErr *memstream.StreamError
	require.ErrorAs(t, wrapped, &streamErr)
	assert.Equal(t, "Validate", streamErr.Op)
}

func TestNewStreamErrorNil(t *testing.T) {
	assert.NoError(t, memstream.NewStreamError("Op", nil))
}
