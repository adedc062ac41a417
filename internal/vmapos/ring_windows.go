//go:build windows

package vmapos

import (
	"golang.org/x/sys/windows"
)

// ringMapAttempts bounds the retry loop in MapRing: Windows has no atomic
// double-mmap primitive, so a reserved region is released and immediately
// re-claimed by two MapViewOfFileEx calls, racing any other thread in the
// process that might allocate into the gap between VirtualFree and the
// first MapViewOfFileEx.
const ringMapAttempts = 5

// MapRing builds a 2*length double mapping on Windows. A file mapping
// object of size length backs both views: a speculative VirtualAlloc
// reservation finds a free region of the right size, the reservation is
// released, and two MapViewOfFileEx calls attempt to claim the first and
// second half at that address before anything else can. A collision is
// retried from scratch up to ringMapAttempts times.
func MapRing(length uintptr) (uintptr, error) {
	maxSize := uint64(length)
	mh, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE,
		uint32(maxSize>>32), uint32(maxSize&0xffffffff), nil)
	if mh == 0 {
		return 0, ringError{op: "alloc", err: err}
	}
	defer windows.CloseHandle(mh)

	access := uint32(windows.FILE_MAP_READ | windows.FILE_MAP_WRITE)

	var lastErr error
	for attempt := 0; attempt < ringMapAttempts; attempt++ {
		base, rerr := windows.VirtualAlloc(0, 2*length, windows.MEM_RESERVE, windows.PAGE_NOACCESS)
		if rerr != nil {
			return 0, ringError{op: "reserve", err: rerr}
		}
		if err := windows.VirtualFree(base, 0, windows.MEM_RELEASE); err != nil {
			return 0, ringError{op: "reserve", err: err}
		}

		primary, perr := windows.MapViewOfFileEx(mh, access, 0, 0, length, base)
		if primary == 0 {
			lastErr = perr
			continue
		}
		if primary != base {
			windows.UnmapViewOfFile(primary)
			lastErr = perr
			continue
		}

		secondary, serr := windows.MapViewOfFileEx(mh, access, 0, 0, length, base+length)
		if secondary == 0 || secondary != base+length {
			if secondary != 0 {
				windows.UnmapViewOfFile(secondary)
			}
			windows.UnmapViewOfFile(primary)
			lastErr = serr
			continue
		}

		return base, nil
	}

	return 0, ringError{op: "secondary", err: lastErr}
}

// UnmapRing releases a ring mapping created by MapRing.
func UnmapRing(ptr uintptr, length uintptr) error {
	if err := windows.UnmapViewOfFile(ptr); err != nil {
		return err
	}
	return windows.UnmapViewOfFile(ptr + length)
}

// ringError classifies which step of ring construction failed, so the
// caller (vmap.Ring's constructor) can attach the right Operation tag
// without this package depending on vmap's Error type.
type ringError struct {
	op  string
	err error
}

func (e ringError) Error() string { return e.err.Error() }
func (e ringError) Unwrap() error { return e.err }

// RingStep reports which stage a ring-construction error occurred in:
// "alloc", "reserve", "secondary" (also reported when every retry failed
// on the first view), or "" if err is not a ring-construction error.
func RingStep(err error) string {
	if re, ok := err.(ringError); ok {
		return re.op
	}
	return ""
}
