package vmap

import (
	"os"
	"runtime"
	"unsafe"
)

// MapMut is an owning handle over a read-write (or copy-on-write)
// mapped byte range. The zero value is not usable; construct one with
// Options.MapMut, Options.Alloc, or FromPtr.
type MapMut struct {
	ptr    uintptr
	len    uintptr
	closed bool
}

// FromPtr wraps an existing mapping in a MapMut. The caller must
// guarantee ptr came from a matching map call and len does not exceed
// the mapped range; misuse here is memory corruption, not an error
// value.
func FromPtr(ptr uintptr, length uintptr) *MapMut {
	m := &MapMut{ptr: ptr, len: length}
	runtime.SetFinalizer(m, (*MapMut).finalize)
	return m
}

func (m *MapMut) finalize() {
	if !m.closed && m.len > 0 {
		_ = unmap(AllocationSize().Bounds(m.ptr, m.len))
	}
}

// Len returns the number of user-visible bytes in the mapping.
func (m *MapMut) Len() int { return int(m.len) }

// Bytes returns the mapped range as a byte slice. The slice is valid
// only as long as the MapMut has not been closed.
func (m *MapMut) Bytes() []byte {
	if m.len == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(m.ptr)), int(m.len))
}

// Close unmaps the handle. It is safe to call more than once; a failed
// unmap is returned once and swallowed on subsequent calls, matching
// the "drop is best-effort" semantics of the underlying system calls.
func (m *MapMut) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	runtime.SetFinalizer(m, nil)
	if m.len == 0 {
		return nil
	}
	ptr, length := AllocationSize().Bounds(m.ptr, m.len)
	return unmap(ptr, length)
}

// Flush writes dirty pages of the whole mapping back to f.
func (m *MapMut) Flush(f *os.File, mode Flush) error {
	ptr, length := PageSize().Bounds(m.ptr, m.len)
	return flushMem(ptr, f, length, mode)
}

// FlushRange writes dirty pages of [offset, offset+length) back to f.
func (m *MapMut) FlushRange(offset, length uintptr, f *os.File, mode Flush) error {
	if offset+length > m.len {
		return NewInputError(OpFlush, InvalidRange)
	}
	ptr, rlen := PageSize().Bounds(m.ptr+offset, length)
	return flushMem(ptr, f, rlen, mode)
}

// Advise applies an access-pattern hint to the whole mapping.
func (m *MapMut) Advise(advise Advise) error {
	ptr, length := PageSize().Bounds(m.ptr, m.len)
	return adviseMem(ptr, length, advise)
}

// AdviseRange applies an access-pattern hint to [offset, offset+length).
func (m *MapMut) AdviseRange(offset, length uintptr, advise Advise) error {
	if offset+length > m.len {
		return NewInputError(OpAdvise, InvalidRange)
	}
	ptr, rlen := PageSize().Bounds(m.ptr+offset, length)
	return adviseMem(ptr, rlen, advise)
}

// Lock wires the whole mapping into physical memory.
func (m *MapMut) Lock() error {
	ptr, length := PageSize().Bounds(m.ptr, m.len)
	return lockMem(ptr, length)
}

// LockRange wires [offset, offset+length) into physical memory.
func (m *MapMut) LockRange(offset, length uintptr) error {
	if offset+length > m.len {
		return NewInputError(OpLock, InvalidRange)
	}
	ptr, rlen := PageSize().Bounds(m.ptr+offset, length)
	return lockMem(ptr, rlen)
}

// Unlock releases pages wired by Lock.
func (m *MapMut) Unlock() error {
	ptr, length := PageSize().Bounds(m.ptr, m.len)
	return unlockMem(ptr, length)
}

// UnlockRange releases pages wired by LockRange.
func (m *MapMut) UnlockRange(offset, length uintptr) error {
	if offset+length > m.len {
		return NewInputError(OpUnlock, InvalidRange)
	}
	ptr, rlen := PageSize().Bounds(m.ptr+offset, length)
	return unlockMem(ptr, rlen)
}

// IntoMap narrows the mapping to read-only, returning a Map on success.
// On failure the original MapMut is returned unharmed so the caller does
// not lose the handle.
func (m *MapMut) IntoMap() (*Map, *MapMut, error) {
	ptr, length := PageSize().Bounds(m.ptr, m.len)
	if err := setProtect(ptr, length, ReadOnly); err != nil {
		return nil, m, err
	}
	return &Map{base: m}, nil, nil
}

// Map is a read-only view over a mapped byte range. It is exclusively a
// MapMut whose protection has been narrowed to ReadOnly; the two share
// representation and lifecycle.
type Map struct {
	base *MapMut
}

// Len returns the number of user-visible bytes in the mapping.
func (m *Map) Len() int { return m.base.Len() }

// Bytes returns the mapped range as a byte slice.
func (m *Map) Bytes() []byte { return m.base.Bytes() }

// Close unmaps the handle.
func (m *Map) Close() error { return m.base.Close() }

// Advise applies an access-pattern hint to the whole mapping.
func (m *Map) Advise(advise Advise) error { return m.base.Advise(advise) }

// AdviseRange applies an access-pattern hint to [offset, offset+length).
func (m *Map) AdviseRange(offset, length uintptr, advise Advise) error {
	return m.base.AdviseRange(offset, length, advise)
}

// Lock wires the whole mapping into physical memory.
func (m *Map) Lock() error { return m.base.Lock() }

// LockRange wires [offset, offset+length) into physical memory.
func (m *Map) LockRange(offset, length uintptr) error { return m.base.LockRange(offset, length) }

// Unlock releases pages wired by Lock.
func (m *Map) Unlock() error { return m.base.Unlock() }

// UnlockRange releases pages wired by LockRange.
func (m *Map) UnlockRange(offset, length uintptr) error { return m.base.UnlockRange(offset, length) }

// IntoMapMut widens the mapping back to read-write. On failure the
// original Map is returned unharmed so the caller does not lose the
// handle.
func (m *Map) IntoMapMut() (*MapMut, *Map, error) {
	ptr, length := PageSize().Bounds(m.base.ptr, m.base.len)
	if err := setProtect(ptr, length, ReadWrite); err != nil {
		return nil, m, err
	}
	return m.base, nil, nil
}
