package vmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeRound(t *testing.T) {
	s := newSize(4096)
	assert.Equal(t, uintptr(0), s.Round(0))
	assert.Equal(t, uintptr(4096), s.Round(1))
	assert.Equal(t, uintptr(4096), s.Round(4095))
	assert.Equal(t, uintptr(4096), s.Round(4096))
	assert.Equal(t, uintptr(8192), s.Round(4097))
}

func TestSizeTruncateAndOffset(t *testing.T) {
	s := newSize(4096)
	assert.Equal(t, uintptr(4096), s.Truncate(5000))
	assert.Equal(t, uintptr(904), s.Offset(5000))
	assert.Equal(t, s.Truncate(5000), s.Round(s.Truncate(5000)))
}

func TestSizeRoundInvariant(t *testing.T) {
	s := newSize(4096)
	for _, n := range []uintptr{0, 1, 4095, 4096, 4097, 100000} {
		truncated := s.Truncate(n)
		require.Equal(t, truncated, s.Round(truncated))
		require.GreaterOrEqual(t, s.Round(n), n)
		if n > 0 {
			require.Greater(t, n, s.Round(n)-4096)
		}
	}
}

func TestSizeBytesAndPages(t *testing.T) {
	s := newSize(4096)
	assert.Equal(t, uintptr(3*4096), s.Bytes(3))
	assert.Equal(t, uintptr(2), s.Pages(4097))
	assert.Equal(t, uintptr(1), s.Pages(1))
	assert.Equal(t, uintptr(0), s.Pages(0))
}

func TestSizeBounds(t *testing.T) {
	s := newSize(4096)
	ptr, length := s.Bounds(4200, 100)
	assert.Equal(t, uintptr(4096), ptr)
	assert.Equal(t, uintptr(4096), length)

	ptr, length = s.Bounds(4096, 4096)
	assert.Equal(t, uintptr(4096), ptr)
	assert.Equal(t, uintptr(4096), length)
}

func TestPageSizeAndAllocationSizeArePowersOfTwo(t *testing.T) {
	page := PageSize()
	alloc := AllocationSize()
	require.Equal(t, uintptr(0), page.Round(0))
	require.GreaterOrEqual(t, alloc.Round(1), page.Round(1))
	for _, unit := range []uintptr{page.Round(1), alloc.Round(1)} {
		require.NotZero(t, unit)
		require.Zero(t, unit&(unit-1))
	}
}
