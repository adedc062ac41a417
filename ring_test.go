package vmap

import (
	"fmt"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestRingDoubleMappingAliases(t *testing.T) {
	r, err := NewRing(4096)
	require.NoError(t, err)
	defer r.Close()

	n := r.Cap()
	whole := unsafe.Slice((*byte)(unsafe.Pointer(r.ptr)), int(2*n))
	for i := uintptr(0); i < n; i += 512 {
		whole[i] = byte(i)
	}
	for i := uintptr(0); i < n; i += 512 {
		require.Equal(t, whole[i], whole[i+n])
	}
}

func TestRingFillsAndDrains(t *testing.T) {
	r, err := NewRing(4000)
	require.NoError(t, err)
	defer r.Close()

	w := NewWriter(r)
	rd := NewReader(r)

	cap := r.Cap()
	written := 0
	line := 1
	for {
		buf := []byte(fmt.Sprintf("this is line %06d\n", line))
		require.Len(t, buf, 20)
		n, err := w.Write(buf)
		require.NoError(t, err)
		if n == 0 {
			break
		}
		written += n
		line++
	}
	require.Less(t, r.WriteLen(), uintptr(20))
	require.Equal(t, cap, r.ReadLen()+r.WriteLen())

	out := make([]byte, 20)
	n, err := rd.Read(out)
	require.NoError(t, err)
	require.Equal(t, 20, n)
	require.Equal(t, "this is line 000001\n", string(out))

	buf := []byte(fmt.Sprintf("this is line %06d\n", line))
	n, err = w.Write(buf)
	require.NoError(t, err)
	require.Equal(t, 20, n)
}

func TestRingReset(t *testing.T) {
	r, err := NewRing(4096)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Write(make([]byte, 100))
	require.NoError(t, err)
	require.Equal(t, uintptr(100), r.ReadLen())

	r.Reset()
	require.Equal(t, uintptr(0), r.ReadLen())
	require.Equal(t, r.Cap(), r.WriteLen())
}

func TestInfiniteRingEviction(t *testing.T) {
	r, err := NewInfiniteRing(4000)
	require.NoError(t, err)
	defer r.Close()

	cap := r.Cap()
	const lineLen = 20
	total := 0
	line := 1
	for uintptr(total) < cap*2+uintptr(lineLen) {
		buf := []byte(fmt.Sprintf("this is line %06d\n", line))
		n, err := r.Write(buf)
		require.NoError(t, err)
		require.Equal(t, lineLen, n)
		total += n
		line++
	}

	// The read cursor sits at absolute stream position (total-cap); since
	// cap need not be a multiple of lineLen, that position may fall
	// mid-line. Consume that partial-line prefix before reading a full,
	// aligned line.
	readCursorAbs := total - int(cap)
	prefix := 0
	if rem := readCursorAbs % lineLen; rem != 0 {
		prefix = lineLen - rem
	}
	if prefix > 0 {
		_, err := readAll(r, prefix)
		require.NoError(t, err)
	}

	out, err := readAll(r, lineLen)
	require.NoError(t, err)

	expectedLine := (readCursorAbs+prefix)/lineLen + 1
	expected := fmt.Sprintf("this is line %06d\n", expectedLine)
	require.Equal(t, expected, string(out))
}

func readAll(r *InfiniteRing, n int) ([]byte, error) {
	out := make([]byte, n)
	read := 0
	for read < n {
		m, err := r.Read(out[read:])
		if err != nil {
			return nil, err
		}
		if m == 0 {
			break
		}
		read += m
	}
	return out[:read], nil
}
