package vmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptionsFileWindow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "window")
	content := "A cross-platform library for fast and safe memory-mapped IO in Rust"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := NewOptions().Offset(29).Len(ExtentExact(30)).Map(path)
	require.NoError(t, err)
	defer m.Close()

	require.Equal(t, "fast and safe memory-mapped IO", string(m.Bytes()))
}

func TestOptionsCopyOnWriteIsolation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cow")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0o644))

	m1, err := NewOptions().Copy().MapMut(path)
	require.NoError(t, err)
	defer m1.Close()

	m2, err := NewOptions().Copy().MapMut(path)
	require.NoError(t, err)
	defer m2.Close()

	m1.Bytes()[0] = 'X'
	require.Equal(t, byte('X'), m1.Bytes()[0])
	require.Equal(t, byte('o'), m2.Bytes()[0])

	on, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "original", string(on))
}

func TestOptionsAllocAnonymous(t *testing.T) {
	m, err := NewOptions().Len(ExtentMin(100)).Alloc()
	require.NoError(t, err)
	defer m.Close()

	require.Equal(t, int(AllocationSize().Round(100)), m.Len())

	copy(m.Bytes(), "hello")
	require.Equal(t, "hello", string(m.Bytes()[:5]))
	for _, b := range m.Bytes()[5:] {
		require.Equal(t, byte(0), b)
	}
}

func TestOptionsOffsetOutOfRangeIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "short")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	m, ok, err := NewOptions().Offset(1000).MapIf(path)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, m)
}
