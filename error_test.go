package vmap

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorDisplayWithOperation(t *testing.T) {
	err := NewInputError(OpMapFile, InvalidRange)
	assert.Equal(t, "failed to map file, invalid range", err.Error())
	assert.Equal(t, KindInvalidInput, err.Kind())
}

func TestErrorDisplayWithoutOperation(t *testing.T) {
	err := NewIOError(OpNone, errors.New("boom"))
	assert.Equal(t, "boom", err.Error())
	assert.Equal(t, KindIO, err.Kind())
}

func TestErrorKernel(t *testing.T) {
	err := NewKernelError(OpRingEntry, -42)
	assert.Equal(t, "failed to make ring memory entry, kernel error -42", err.Error())
	assert.Equal(t, KindKernel, err.Kind())
}

type fakeErrno int

func (e fakeErrno) Error() string  { return fmt.Sprintf("errno %d", int(e)) }
func (e fakeErrno) Errno() uintptr { return uintptr(e) }

func TestErrorRawOSError(t *testing.T) {
	err := NewIOError(OpUnmap, fakeErrno(5))
	code, ok := err.RawOSError()
	require.True(t, ok)
	assert.Equal(t, 5, code)

	_, ok = NewInputError(OpUnmap, NullPtr).RawOSError()
	assert.False(t, ok)
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := NewIOError(OpFlush, inner)
	assert.ErrorIs(t, err, inner)
}
