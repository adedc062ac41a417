package vmap

import (
	"os"

	"pault.ag/go/vmap/internal/vmapos"
)

// toOSProtect translates the public Protect enum to the internal,
// vmap-independent enum consumed by vmapos so that package does not need
// to import this one.
func toOSProtect(prot Protect) vmapos.Protect {
	switch prot {
	case ReadWrite:
		return vmapos.ProtectReadWrite
	case ReadCopy:
		return vmapos.ProtectReadCopy
	case ReadExec:
		return vmapos.ProtectReadExec
	default:
		return vmapos.ProtectReadOnly
	}
}

func toOSFlush(mode Flush) vmapos.Flush {
	if mode == Async {
		return vmapos.FlushAsync
	}
	return vmapos.FlushSync
}

func toOSAdvise(advise Advise) vmapos.Advise {
	switch advise {
	case AdviseSequential:
		return vmapos.AdviseSequential
	case AdviseRandom:
		return vmapos.AdviseRandom
	case AdviseWillNeed:
		return vmapos.AdviseWillNeed
	case AdviseWillNotNeed:
		return vmapos.AdviseWillNotNeed
	default:
		return vmapos.AdviseNormal
	}
}

// mapFile maps a page-aligned range of an open file, tagging any failure
// with OpMapFile.
func mapFile(f *os.File, offset, length uintptr, prot Protect) (uintptr, error) {
	ptr, err := vmapos.MapFile(f.Fd(), offset, length, toOSProtect(prot))
	if err != nil {
		return 0, NewIOError(OpMapFile, err)
	}
	return ptr, nil
}

// mapAnon allocates an anonymous range not backed by any file, tagging
// any failure with OpMapAnonymous.
func mapAnon(length uintptr, prot Protect) (uintptr, error) {
	ptr, err := vmapos.MapAnon(length, toOSProtect(prot))
	if err != nil {
		return 0, NewIOError(OpMapAnonymous, err)
	}
	return ptr, nil
}

// unmap releases a mapped range, tagging any failure with OpUnmap.
func unmap(ptr, length uintptr) error {
	if err := vmapos.Unmap(ptr, length); err != nil {
		return NewIOError(OpUnmap, err)
	}
	return nil
}

// setProtect changes the protection of a mapped range, tagging any
// failure with OpProtect.
func setProtect(ptr, length uintptr, prot Protect) error {
	if err := vmapos.SetProtect(ptr, length, toOSProtect(prot)); err != nil {
		return NewIOError(OpProtect, err)
	}
	return nil
}

// flushMem writes dirty pages in a mapped range back to the file,
// tagging any failure with OpFlush. fd may be the zero value for
// anonymous mappings, which POSIX ignores and Windows treats as
// "no file to flush buffers for".
func flushMem(ptr uintptr, f *os.File, length uintptr, mode Flush) error {
	var fd uintptr
	if f != nil {
		fd = f.Fd()
	}
	if err := vmapos.FlushMem(ptr, fd, length, toOSFlush(mode)); err != nil {
		return NewIOError(OpFlush, err)
	}
	return nil
}

// adviseMem applies an access-pattern hint, tagging any failure with
// OpAdvise.
func adviseMem(ptr, length uintptr, advise Advise) error {
	if err := vmapos.AdviseMem(ptr, length, toOSAdvise(advise)); err != nil {
		return NewIOError(OpAdvise, err)
	}
	return nil
}

// lockMem wires pages into physical memory, tagging any failure with
// OpLock.
func lockMem(ptr, length uintptr) error {
	if err := vmapos.Lock(ptr, length); err != nil {
		return NewIOError(OpLock, err)
	}
	return nil
}

// unlockMem releases pages wired by lockMem, tagging any failure with
// OpUnlock.
func unlockMem(ptr, length uintptr) error {
	if err := vmapos.Unlock(ptr, length); err != nil {
		return NewIOError(OpUnlock, err)
	}
	return nil
}
