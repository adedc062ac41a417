package vmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapMutFlushRangeValidatesBounds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flush")
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0o644))

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	defer f.Close()

	m, err := NewOptions().Write().MapMut(path)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.FlushRange(0, uintptr(m.Len()), f, Sync))

	err = m.FlushRange(0, uintptr(m.Len())+1, f, Sync)
	require.Error(t, err)
	var verr *Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, KindInvalidInput, verr.Kind())
}

func TestMapMutLockUnlockRangeValidatesBounds(t *testing.T) {
	m, err := NewOptions().Len(ExtentExact(4096)).Alloc()
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.LockRange(0, 100))
	require.NoError(t, m.UnlockRange(0, 100))

	require.Error(t, m.LockRange(0, uintptr(m.Len())+1))
	require.Error(t, m.UnlockRange(0, uintptr(m.Len())+1))
}

func TestConversionRoundTripSucceedsWithWritePermission(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rw")
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0o644))

	mm, err := NewOptions().Write().MapMut(path)
	require.NoError(t, err)

	view, orig, err := mm.IntoMap()
	require.NoError(t, err)
	require.Nil(t, orig)

	back, origView, err := view.IntoMapMut()
	require.NoError(t, err)
	require.Nil(t, origView)
	require.NoError(t, back.Close())
}

func TestConversionRoundTripFailsWithoutWritePermission(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ro")
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0o644))

	view, err := NewOptions().Map(path)
	require.NoError(t, err)
	defer view.Close()

	back, origView, err := view.IntoMapMut()
	require.Error(t, err)
	require.Nil(t, back)
	require.Same(t, view, origView)
}
