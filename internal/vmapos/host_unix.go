//go:build unix

package vmapos

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// SystemInfo reports the host page size and allocation granularity. On
// every POSIX target these are equal.
func SystemInfo() (uintptr, uintptr) {
	size := uintptr(unix.Getpagesize())
	return size, size
}

func protFlags(prot Protect) (int, int) {
	switch prot {
	case ProtectReadWrite:
		return unix.PROT_READ | unix.PROT_WRITE, unix.MAP_SHARED
	case ProtectReadCopy:
		return unix.PROT_READ | unix.PROT_WRITE, unix.MAP_PRIVATE
	case ProtectReadExec:
		return unix.PROT_READ | unix.PROT_EXEC, unix.MAP_PRIVATE
	default:
		return unix.PROT_READ, unix.MAP_SHARED
	}
}

func mmap(addr, length uintptr, prot, flags, fd int, off int64) (uintptr, error) {
	r0, _, errno := unix.Syscall6(unix.SYS_MMAP, addr, length,
		uintptr(prot), uintptr(flags), uintptr(fd), uintptr(off))
	if errno != 0 {
		return 0, errno
	}
	return r0, nil
}

// MapFile memory-maps a range of an already-open file descriptor.
func MapFile(fd uintptr, off uintptr, length uintptr, prot Protect) (uintptr, error) {
	p, f := protFlags(prot)
	return mmap(0, length, p, f, int(fd), int64(off))
}

// MapAnon creates an anonymous mapping not backed by any file.
func MapAnon(length uintptr, prot Protect) (uintptr, error) {
	p, f := protFlags(prot)
	return mmap(0, length, p, f|unix.MAP_ANON, -1, 0)
}

// Unmap releases a previously mapped range.
func Unmap(ptr uintptr, length uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_MUNMAP, ptr, length, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

// SetProtect changes the protection of a mapped range.
func SetProtect(ptr uintptr, length uintptr, prot Protect) error {
	var p int
	switch prot {
	case ProtectReadWrite, ProtectReadCopy:
		p = unix.PROT_READ | unix.PROT_WRITE
	case ProtectReadExec:
		p = unix.PROT_READ | unix.PROT_EXEC
	default:
		p = unix.PROT_READ
	}
	return unix.Mprotect(unsafe.Slice((*byte)(unsafe.Pointer(ptr)), int(length)), p)
}

// FlushMem writes dirty pages in a mapped range back to the filesystem.
// The fd parameter is unused on POSIX; msync operates purely on the
// address range.
func FlushMem(ptr uintptr, _ uintptr, length uintptr, mode Flush) error {
	flags := unix.MS_SYNC
	if mode == FlushAsync {
		flags = unix.MS_ASYNC
	}
	_, _, errno := unix.Syscall(unix.SYS_MSYNC, ptr, length, uintptr(flags))
	if errno != 0 {
		return errno
	}
	return nil
}

// AdviseMem applies a non-correctness-affecting access hint.
func AdviseMem(ptr uintptr, length uintptr, advise Advise) error {
	var adv int
	switch advise {
	case AdviseSequential:
		adv = unix.MADV_SEQUENTIAL
	case AdviseRandom:
		adv = unix.MADV_RANDOM
	case AdviseWillNeed:
		adv = unix.MADV_WILLNEED
	case AdviseWillNotNeed:
		adv = unix.MADV_DONTNEED
	default:
		adv = unix.MADV_NORMAL
	}
	return unix.Madvise(unsafe.Slice((*byte)(unsafe.Pointer(ptr)), int(length)), adv)
}

// Lock wires pages into physical memory.
func Lock(ptr uintptr, length uintptr) error {
	return unix.Mlock(unsafe.Slice((*byte)(unsafe.Pointer(ptr)), int(length)))
}

// Unlock releases pages wired by Lock.
func Unlock(ptr uintptr, length uintptr) error {
	return unix.Munlock(unsafe.Slice((*byte)(unsafe.Pointer(ptr)), int(length)))
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

// RingStep reports which stage a ring-construction error occurred in, or
// "" if err is not a ring-construction error.
func RingStep(err error) string {
	if re, ok := err.(ringError); ok {
		return re.op
	}
	return ""
}
