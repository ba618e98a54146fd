package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedIDGenerator(t *testing.T) {
	gen := NewFixedIDGenerator("req-1")
	assert.Equal(t, "req-1", gen.Generate())
	assert.Equal(t, "req-1", gen.Generate())
}

func TestFixedIDGenerator_Default(t *testing.T) {
	assert.Equal(t, "test-request", NewFixedIDGenerator("").Generate())
}
