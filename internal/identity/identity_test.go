package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewFingerprint every pick comes from the known pools.
func TestNewFingerprint(t *testing.T) {
	t.Parallel()

	for i := 0; i < 50; i++ {
		fp := NewFingerprint()
		assert.Contains(t, userAgents, fp.UserAgent)
		assert.Contains(t, referers, fp.Referer)
		assert.Contains(t, viewports, fp.Viewport)
	}
}

// TestHeaders renders the identity into request headers.
func TestHeaders(t *testing.T) {
	t.Parallel()

	fp := NewFingerprint()
	h := fp.Headers()
	assert.Equal(t, fp.UserAgent, h.Get("User-Agent"))
	assert.Equal(t, fp.Referer, h.Get("Referer"))
	assert.NotEmpty(t, h.Get("Accept"))
	assert.NotEmpty(t, h.Get("Accept-Language"))
}

// TestJitterBounds results stay inside [min, max].
func TestJitterBounds(t *testing.T) {
	t.Parallel()

	min, max := 250*time.Millisecond, 1250*time.Millisecond
	for i := 0; i < 100; i++ {
		d := Jitter(min, max)
		assert.GreaterOrEqual(t, d, min)
		assert.LessOrEqual(t, d, max)
	}

	assert.Equal(t, min, Jitter(min, min))
	assert.Equal(t, max, Jitter(max, min))
}

// TestRandIntBounds results stay inside [min, max], negatives included.
func TestRandIntBounds(t *testing.T) {
	t.Parallel()

	for i := 0; i < 100; i++ {
		n := RandInt(-80, 80)
		assert.GreaterOrEqual(t, n, -80)
		assert.LessOrEqual(t, n, 80)
	}
	assert.Equal(t, 5, RandInt(5, 5))
}

// TestUUIDGenerator ids are unique and well-formed.
func TestUUIDGenerator(t *testing.T) {
	t.Parallel()

	gen := UUIDGenerator{}
	a, err := gen.NewID()
	require.NoError(t, err)
	b, err := gen.NewID()
	require.NoError(t, err)

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
