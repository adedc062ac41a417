// {{{ Copyright (c) Paul R. Tagliamonte <paultag@gmail.com> 2020-2021
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE. }}}

package vmap

import (
	"errors"
	"runtime"
	"sync"
	"unsafe"

	"pault.ag/go/vmap/internal/vmapos"
)

// Ring is a bounded circular buffer backed by a double mapping: a
// 2*capacity virtual range in which byte i and byte i+capacity alias the
// same physical page for 0 <= i < capacity, so any capacity-byte window
// starting anywhere in [0, capacity) is a single contiguous slice.
//
// Ring tracks monotonically increasing read and write counters rather
// than wrapped head/tail indices; the invariant wpos-rpos <= len means
// the buffer is never overwritten out from under a reader.
type Ring struct {
	ptr    uintptr
	len    uintptr
	rpos   uint64
	wpos   uint64
	closed bool

	ioOnce   sync.Once
	ioMutex  sync.Mutex
	ioWakeup chan struct{}
}

// initIO lazily allocates the coordination state used by Reader/Writer.
// Rings used only through the non-blocking AsReadSlice/AsWriteSlice
// contract never pay for it.
func (r *Ring) initIO() {
	r.ioOnce.Do(func() { r.ioWakeup = make(chan struct{}) })
}

func (r *Ring) ioLock() *sync.Mutex       { return &r.ioMutex }
func (r *Ring) wakeupChan() chan struct{} { return r.ioWakeup }

// NewRing creates a bounded ring of at least capacity bytes, rounded up
// to a multiple of the page size.
func NewRing(capacity uintptr) (*Ring, error) {
	length := PageSize().Round(capacity)
	ptr, err := vmapos.MapRing(length)
	if err != nil {
		return nil, wrapRingError(err)
	}
	r := &Ring{ptr: ptr, len: length}
	runtime.SetFinalizer(r, (*Ring).finalize)
	return r, nil
}

func (r *Ring) finalize() {
	if !r.closed {
		_ = vmapos.UnmapRing(r.ptr, r.len)
	}
}

// Close unmaps the double-mapped region. Safe to call more than once.
func (r *Ring) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	runtime.SetFinalizer(r, nil)
	if err := vmapos.UnmapRing(r.ptr, r.len); err != nil {
		return wrapRingError(err)
	}
	return nil
}

// Cap returns the ring's capacity in bytes.
func (r *Ring) Cap() uintptr { return r.len }

// ReadOffset returns the current read position, modulo the capacity.
func (r *Ring) ReadOffset() uintptr { return uintptr(r.rpos % uint64(r.len)) }

// ReadLen returns the number of bytes currently available to read.
func (r *Ring) ReadLen() uintptr { return uintptr(r.wpos - r.rpos) }

// AsReadSlice returns a contiguous slice of min(ReadLen(), max) bytes
// starting at ReadOffset. The slice remains valid across the wrap point
// because of the double mapping.
func (r *Ring) AsReadSlice(max uintptr) []byte {
	n := r.ReadLen()
	if max < n {
		n = max
	}
	off := r.ReadOffset()
	return unsafe.Slice((*byte)(unsafe.Pointer(r.ptr+off)), int(n))
}

// Consume advances the read cursor by min(k, ReadLen()) and returns the
// amount actually consumed.
func (r *Ring) Consume(k uintptr) uintptr {
	n := r.ReadLen()
	if k > n {
		k = n
	}
	r.rpos += uint64(k)
	return k
}

// WriteOffset returns the current write position, modulo the capacity.
func (r *Ring) WriteOffset() uintptr { return uintptr(r.wpos % uint64(r.len)) }

// WriteLen returns the number of bytes that can currently be written
// without overtaking the read cursor.
func (r *Ring) WriteLen() uintptr { return r.len - r.ReadLen() }

// AsWriteSlice returns a mutable contiguous slice of min(WriteLen(), max)
// bytes starting at WriteOffset.
func (r *Ring) AsWriteSlice(max uintptr) []byte {
	n := r.WriteLen()
	if max < n {
		n = max
	}
	off := r.WriteOffset()
	return unsafe.Slice((*byte)(unsafe.Pointer(r.ptr+off)), int(n))
}

// Feed advances the write cursor by min(k, WriteLen()) and returns the
// amount actually fed. Once the ring is full, Feed(k) for k>0 returns 0:
// no readable data is ever overwritten.
func (r *Ring) Feed(k uintptr) uintptr {
	n := r.WriteLen()
	if k > n {
		k = n
	}
	r.wpos += uint64(k)
	return k
}

// Write copies as much of p as currently fits without overtaking the
// read cursor, returning 0 with a nil error once the ring is full.
func (r *Ring) Write(p []byte) (int, error) {
	dst := r.AsWriteSlice(uintptr(len(p)))
	n := copy(dst, p)
	r.Feed(uintptr(n))
	return n, nil
}

// Read copies as much readable data into p as is available.
func (r *Ring) Read(p []byte) (int, error) {
	src := r.AsReadSlice(uintptr(len(p)))
	n := copy(p, src)
	r.Consume(uintptr(n))
	return n, nil
}

// Reset clears the ring to empty without touching memory contents.
func (r *Ring) Reset() {
	r.rpos = 0
	r.wpos = 0
}

// InfiniteRing is an overwriting circular buffer: once full, a write
// silently evicts the oldest unread bytes rather than failing. It shares
// the same double-mapped representation as Ring.
type InfiniteRing struct {
	ptr    uintptr
	len    uintptr
	rlen   uint64
	wpos   uint64
	closed bool

	ioOnce   sync.Once
	ioMutex  sync.Mutex
	ioWakeup chan struct{}
}

// initIO lazily allocates the coordination state used by Reader/Writer.
func (r *InfiniteRing) initIO() {
	r.ioOnce.Do(func() { r.ioWakeup = make(chan struct{}) })
}

func (r *InfiniteRing) ioLock() *sync.Mutex       { return &r.ioMutex }
func (r *InfiniteRing) wakeupChan() chan struct{} { return r.ioWakeup }

// NewInfiniteRing creates an overwriting ring of at least capacity
// bytes, rounded up to a multiple of the page size.
func NewInfiniteRing(capacity uintptr) (*InfiniteRing, error) {
	length := PageSize().Round(capacity)
	ptr, err := vmapos.MapRing(length)
	if err != nil {
		return nil, wrapRingError(err)
	}
	r := &InfiniteRing{ptr: ptr, len: length}
	runtime.SetFinalizer(r, (*InfiniteRing).finalize)
	return r, nil
}

func (r *InfiniteRing) finalize() {
	if !r.closed {
		_ = vmapos.UnmapRing(r.ptr, r.len)
	}
}

// Close unmaps the double-mapped region. Safe to call more than once.
func (r *InfiniteRing) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	runtime.SetFinalizer(r, nil)
	if err := vmapos.UnmapRing(r.ptr, r.len); err != nil {
		return wrapRingError(err)
	}
	return nil
}

// Cap returns the ring's capacity in bytes.
func (r *InfiniteRing) Cap() uintptr { return r.len }

// ReadOffset returns (wpos-rlen) mod len: the logical read cursor.
func (r *InfiniteRing) ReadOffset() uintptr { return uintptr((r.wpos - r.rlen) % uint64(r.len)) }

// ReadLen returns the number of unread bytes still retained.
func (r *InfiniteRing) ReadLen() uintptr { return uintptr(r.rlen) }

// AsReadSlice returns a contiguous slice of min(ReadLen(), max) bytes
// starting at ReadOffset.
func (r *InfiniteRing) AsReadSlice(max uintptr) []byte {
	n := r.ReadLen()
	if max < n {
		n = max
	}
	off := r.ReadOffset()
	return unsafe.Slice((*byte)(unsafe.Pointer(r.ptr+off)), int(n))
}

// Consume advances the read cursor, discarding min(k, ReadLen()) bytes.
func (r *InfiniteRing) Consume(k uintptr) uintptr {
	n := r.ReadLen()
	if k > n {
		k = n
	}
	r.rlen -= uint64(k)
	return k
}

// WriteOffset returns the current write position, modulo the capacity.
func (r *InfiniteRing) WriteOffset() uintptr { return uintptr(r.wpos % uint64(r.len)) }

// WriteLen is always the full capacity: an overwriting ring never
// refuses a write, it evicts instead.
func (r *InfiniteRing) WriteLen() uintptr { return r.len }

// AsWriteSlice returns a mutable contiguous slice of min(len, max) bytes
// starting at WriteOffset.
func (r *InfiniteRing) AsWriteSlice(max uintptr) []byte {
	n := r.len
	if max < n {
		n = max
	}
	off := r.WriteOffset()
	return unsafe.Slice((*byte)(unsafe.Pointer(r.ptr+off)), int(n))
}

// Feed advances the write cursor by min(k, len), clamping rlen to len so
// that a saturated ring evicts the oldest readable bytes.
func (r *InfiniteRing) Feed(k uintptr) uintptr {
	if k > r.len {
		k = r.len
	}
	r.wpos += uint64(k)
	r.rlen += uint64(k)
	if r.rlen > uint64(r.len) {
		r.rlen = uint64(r.len)
	}
	return k
}

// Write copies min(len(p), capacity) bytes starting at the write cursor,
// evicting older bytes as needed. Unlike Ring.Write this never returns 0
// for a non-empty p unless capacity itself is 0.
func (r *InfiniteRing) Write(p []byte) (int, error) {
	dst := r.AsWriteSlice(uintptr(len(p)))
	n := copy(dst, p)
	r.Feed(uintptr(n))
	return n, nil
}

// Read copies as much readable data into p as is available.
func (r *InfiniteRing) Read(p []byte) (int, error) {
	src := r.AsReadSlice(uintptr(len(p)))
	n := copy(p, src)
	r.Consume(uintptr(n))
	return n, nil
}

// WriteAll writes the whole of p, keeping only the trailing Cap() bytes
// if p is larger than capacity: the earlier bytes would be evicted
// immediately anyway, so they are never written at all.
func (r *InfiniteRing) WriteAll(p []byte) (int, error) {
	total := 0
	if uintptr(len(p)) > r.len {
		skipped := uintptr(len(p)) - r.len
		total += int(skipped)
		p = p[skipped:]
	}
	for len(p) > 0 {
		n, err := r.Write(p)
		if err != nil {
			return total, err
		}
		total += n
		p = p[n:]
	}
	return total, nil
}

// ringOperationFor maps a vmapos ring-construction failure step to the
// Operation tag used to report it.
func ringOperationFor(step string) Operation {
	switch step {
	case "fd":
		return OpMemoryFd
	case "alloc", "reserve":
		return OpRingAllocate
	case "primary":
		return OpRingPrimary
	case "secondary":
		return OpRingSecondary
	case "entry":
		return OpRingEntry
	case "dealloc":
		return OpRingDeallocate
	default:
		return OpNone
	}
}

// wrapRingError tags a vmapos ring-construction error with the Operation
// that failed, preferring a kernel-specific code (Mach kern_return_t)
// over a plain host I/O error when the underlying failure carries one.
func wrapRingError(err error) error {
	op := ringOperationFor(vmapos.RingStep(err))
	var coder interface{ Code() int32 }
	if errors.As(err, &coder) {
		return NewKernelError(op, coder.Code())
	}
	return NewIOError(op, err)
}

// vim: foldmethod=marker
