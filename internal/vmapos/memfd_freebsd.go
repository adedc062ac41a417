//go:build freebsd

package vmapos

import "golang.org/x/sys/unix"

// memfdOpen returns an anonymous, already-unlinked file descriptor
// suitable for backing a ring's double mapping. FreeBSD exposes this
// directly via shm_open(SHM_ANON, ...).
func memfdOpen() (int, error) {
	return unix.ShmOpen(unix.SHM_ANON, unix.O_RDWR, 0o600)
}
