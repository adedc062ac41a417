//go:build unix && !linux && !freebsd && !darwin

package vmapos

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/sys/unix"
)

// memfdOpen returns an anonymous, already-unlinked file descriptor
// suitable for backing a ring's double mapping. Targets without
// memfd_create or shm_open(SHM_ANON) fall back to a randomly named shared
// memory object, opened exclusively and unlinked immediately; a name
// collision (EEXIST) is retried with a fresh name.
func memfdOpen() (int, error) {
	for {
		name, err := randomName()
		if err != nil {
			return 0, err
		}
		fd, err := unix.ShmOpen(name, unix.O_RDWR|unix.O_CREAT|unix.O_EXCL|unix.O_CLOEXEC, 0o600)
		if err == nil {
			_ = unix.ShmUnlink(name)
			return fd, nil
		}
		if err != unix.EEXIST {
			return 0, err
		}
	}
}

func randomName() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return fmt.Sprintf("/vmap-%s", hex.EncodeToString(buf[:])), nil
}
