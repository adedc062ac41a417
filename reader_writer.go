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
	"io"
	"runtime"
	"sync"
)

// blockingRing is the subset of Ring/InfiniteRing that Reader and Writer
// need; it lets the same adapter wrap either ring type.
type blockingRing interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	ReadLen() uintptr
	WriteLen() uintptr
	initIO()
	ioLock() *sync.Mutex
	wakeupChan() chan struct{}
}

// Reader is an io.Reader over a Ring or InfiniteRing that blocks until at
// least one byte is available, rather than returning (0, nil) for an
// empty ring.
type Reader struct {
	ring blockingRing
}

// NewReader wraps ring in a blocking io.Reader. Multiple readers and
// writers built from the same ring share its wakeup coordination.
func NewReader(ring blockingRing) *Reader {
	ring.initIO()
	return &Reader{ring: ring}
}

// Read blocks while the ring is empty, then copies as much readable data
// into p as is available.
func (rd *Reader) Read(p []byte) (int, error) {
	r := rd.ring
	lock := r.ioLock()
	lock.Lock()
	if r.ReadLen() == 0 {
		lock.Unlock()
		<-r.wakeupChan()
		lock.Lock()
	}
	n, err := r.Read(p)
	lock.Unlock()
	return n, err
}

// Writer is an io.Writer and io.ReaderFrom over a Ring or InfiniteRing.
// Write never blocks: when the ring cannot take p whole, it writes
// nothing and returns 0, unlike Ring.Write, which writes a prefix.
type Writer struct {
	ring blockingRing
}

// NewWriter wraps ring in an io.Writer that wakes any blocked Reader
// sharing the same ring after a successful write.
func NewWriter(ring blockingRing) *Writer {
	ring.initIO()
	return &Writer{ring: ring}
}

// Write requires all of p to fit without overtaking the read cursor: if
// the ring does not currently have len(p) bytes free, it writes nothing
// and returns (0, nil) rather than splitting a record across two reads.
// On success it wakes a blocked Reader, if any.
func (w *Writer) Write(p []byte) (int, error) {
	r := w.ring
	lock := r.ioLock()
	lock.Lock()
	defer lock.Unlock()
	if r.WriteLen() < uintptr(len(p)) {
		return 0, nil
	}
	n, err := r.Write(p)
	if err == nil && n > 0 {
		select {
		case r.wakeupChan() <- struct{}{}:
		default:
		}
	}
	return n, err
}

// ReadFrom implements io.ReaderFrom: it reads src to EOF, writing each
// chunk into the ring. A chunk that doesn't currently fit is retried
// after yielding to let a reader drain the ring, since Writer.Write never
// splits a chunk across two writes.
func (w *Writer) ReadFrom(src io.Reader) (int64, error) {
	var total int64
	buf := make([]byte, 32*1024)
	for {
		nr, rerr := src.Read(buf)
		if nr > 0 {
			p := buf[:nr]
			for len(p) > 0 {
				n, err := w.Write(p)
				if err != nil {
					return total, err
				}
				if n == 0 {
					runtime.Gosched()
					continue
				}
				total += int64(n)
				p = p[n:]
			}
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, rerr
		}
	}
}

// vim: foldmethod=marker
