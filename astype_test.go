package vmap

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

type header struct {
	Magic   uint32
	Version uint32
}

func TestAsTypeReinterpretsPrefix(t *testing.T) {
	m, err := NewOptions().Len(ExtentExact(4096)).Alloc()
	require.NoError(t, err)
	defer m.Close()

	binary.LittleEndian.PutUint32(m.Bytes()[0:4], 0xdeadbeef)
	binary.LittleEndian.PutUint32(m.Bytes()[4:8], 1)

	view, orig, err := NewAsType[header, *MapMut](m)
	require.NoError(t, err)
	require.Zero(t, orig)

	require.Equal(t, uint32(0xdeadbeef), view.Type().Magic)
	require.Equal(t, uint32(1), view.Type().Version)
	require.Len(t, view.TypeBytes(), int(unsafe.Sizeof(header{})))
	require.Len(t, view.TailBytes(), 4096-int(unsafe.Sizeof(header{})))
}

func TestAsTypeRejectsShortSpan(t *testing.T) {
	short := rawSpan(make([]byte, 4))

	view, orig, err := NewAsType[header, rawSpan](short)
	require.Error(t, err)
	require.Nil(t, view)
	require.Equal(t, short, orig)
}

func TestTailTypeChains(t *testing.T) {
	m, err := NewOptions().Len(ExtentExact(4096)).Alloc()
	require.NoError(t, err)
	defer m.Close()

	view, _, err := NewAsType[header, *MapMut](m)
	require.NoError(t, err)

	tail, err := TailType[header](view)
	require.NoError(t, err)
	require.NotNil(t, tail.Type())
}
