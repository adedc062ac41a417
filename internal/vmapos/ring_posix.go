//go:build unix && !darwin

package vmapos

import (
	"golang.org/x/sys/unix"
)

// MapRing builds a 2*length double mapping backed by a temporary,
// unlinked shared-memory descriptor: the descriptor is mapped twice, at
// adjacent addresses, so byte i and byte i+length alias the same physical
// page for 0 <= i < length.
func MapRing(length uintptr) (uintptr, error) {
	fd, err := tmpDescriptor(length)
	if err != nil {
		return 0, ringError{op: "fd", err: err}
	}
	defer unix.Close(fd)

	base, err := mmap(0, length*2, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON, -1, 0)
	if err != nil {
		return 0, ringError{op: "alloc", err: err}
	}

	if _, err := mmap(base, length, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED|unix.MAP_FIXED, fd, 0); err != nil {
		_ = Unmap(base, length*2)
		return 0, ringError{op: "primary", err: err}
	}

	if _, err := mmap(base+length, length, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED|unix.MAP_FIXED, fd, 0); err != nil {
		_ = Unmap(base, length*2)
		return 0, ringError{op: "secondary", err: err}
	}

	return base, nil
}

// UnmapRing releases a ring mapping created by MapRing.
func UnmapRing(ptr uintptr, length uintptr) error {
	return Unmap(ptr, length*2)
}

func tmpDescriptor(length uintptr) (int, error) {
	fd, err := memfdOpen()
	if err != nil {
		return 0, err
	}
	if err := unix.Ftruncate(fd, int64(length)); err != nil {
		unix.Close(fd)
		return 0, err
	}
	return fd, nil
}
