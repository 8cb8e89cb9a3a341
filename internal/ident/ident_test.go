package ident

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator_ProducesValidSortableTokens(t *testing.T) {
	gen := UUIDv7Generator{}

	a := gen.Generate()
	b := gen.Generate()

	require.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	require.NoError(t, err)

	// UUIDv7 tokens sort by creation time.
	assert.Less(t, a, b)
}

func TestFixedGenerator_ReturnsTokensInOrder(t *testing.T) {
	gen := NewFixedGenerator("u-1", "u-2")

	assert.Equal(t, "u-1", gen.Generate())
	assert.Equal(t, "u-2", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}
