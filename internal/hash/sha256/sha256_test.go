package sha256

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHash pins the digest format against a known vector.
func TestHash(t *testing.T) {
	t.Parallel()

	h := New()
	got, err := h.Hash([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", got)

	assert.Equal(t, got, h.HashString("abc"))
}

// TestHashEmpty the empty input digest stays stable; cache keys depend on it.
func TestHashEmpty(t *testing.T) {
	t.Parallel()

	h := New()
	got, err := h.Hash(nil)
	require.NoError(t, err)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", got)
}
