//go:build windows

package vmapos

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// SystemInfo reports the host page size and allocation granularity. On
// Windows the allocation granularity (typically 64 KiB) is larger than
// the page size (typically 4 KiB).
func SystemInfo() (uintptr, uintptr) {
	var info windows.SystemInfo
	windows.GetSystemInfo(&info)
	return uintptr(info.PageSize), uintptr(info.AllocationGranularity)
}

// pageProtect maps a Protect value to the PAGE_* constant used by
// CreateFileMapping/VirtualAlloc/VirtualProtect.
func pageProtect(prot Protect) uint32 {
	switch prot {
	case ProtectReadWrite:
		return windows.PAGE_READWRITE
	case ProtectReadCopy:
		return windows.PAGE_WRITECOPY
	case ProtectReadExec:
		return windows.PAGE_EXECUTE_READ
	default:
		return windows.PAGE_READONLY
	}
}

// viewAccess maps a Protect value to the FILE_MAP_* bitmask used by
// MapViewOfFileEx.
func viewAccess(prot Protect) uint32 {
	switch prot {
	case ProtectReadWrite:
		return windows.FILE_MAP_READ | windows.FILE_MAP_WRITE
	case ProtectReadCopy:
		return windows.FILE_MAP_COPY
	case ProtectReadExec:
		return windows.FILE_MAP_READ | windows.FILE_MAP_EXECUTE
	default:
		return windows.FILE_MAP_READ
	}
}

func createView(h windows.Handle, off, length uintptr, access uint32, base uintptr) (uintptr, error) {
	offHigh := uint32(uint64(off) >> 32)
	offLow := uint32(uint64(off) & 0xffffffff)
	addr, err := windows.MapViewOfFileEx(h, access, offHigh, offLow, length, base)
	if addr == 0 {
		return 0, err
	}
	return addr, nil
}

// MapFile memory-maps a range of an already-open file handle.
func MapFile(fd uintptr, off uintptr, length uintptr, prot Protect) (uintptr, error) {
	h := windows.Handle(fd)
	maxSize := uint64(off) + uint64(length)
	mh, err := windows.CreateFileMapping(h, nil, pageProtect(prot),
		uint32(maxSize>>32), uint32(maxSize&0xffffffff), nil)
	if mh == 0 {
		return 0, err
	}
	defer windows.CloseHandle(mh)

	return createView(mh, off, length, viewAccess(prot), 0)
}

// MapAnon creates an anonymous mapping not backed by any file.
func MapAnon(length uintptr, prot Protect) (uintptr, error) {
	mh, err := windows.CreateFileMapping(windows.InvalidHandle, nil, pageProtect(prot),
		uint32(uint64(length)>>32), uint32(uint64(length)&0xffffffff), nil)
	if mh == 0 {
		return 0, err
	}
	defer windows.CloseHandle(mh)

	return createView(mh, 0, length, viewAccess(prot), 0)
}

// Unmap releases a previously mapped view.
func Unmap(ptr uintptr, _ uintptr) error {
	return windows.UnmapViewOfFile(ptr)
}

// SetProtect changes the protection of a mapped range.
func SetProtect(ptr uintptr, length uintptr, prot Protect) error {
	var old uint32
	return windows.VirtualProtect(ptr, length, pageProtect(prot), &old)
}

// FlushMem writes dirty pages in a mapped range back to the filesystem.
// On Windows, a Sync flush additionally calls FlushFileBuffers once the
// view has been flushed to the page cache.
func FlushMem(ptr uintptr, fd uintptr, length uintptr, mode Flush) error {
	if err := windows.FlushViewOfFile(ptr, length); err != nil {
		return err
	}
	if mode != FlushSync {
		return nil
	}
	h := windows.Handle(fd)
	if h == 0 || h == windows.InvalidHandle {
		return nil
	}
	return windows.FlushFileBuffers(h)
}

// AdviseMem is a best-effort hint on Windows; only WillNeed has a direct
// analogue (PrefetchVirtualMemory), the rest are accepted and ignored.
func AdviseMem(ptr uintptr, length uintptr, advise Advise) error {
	if advise != AdviseWillNeed {
		return nil
	}
	entry := windows.WinMemoryRangeEntry{
		VirtualAddress: unsafe.Pointer(ptr),
		NumberOfBytes:  uint64(length),
	}
	return windows.PrefetchVirtualMemory(windows.CurrentProcess(), 1, &entry, 0)
}

// Lock wires pages into physical memory.
func Lock(ptr uintptr, length uintptr) error {
	return windows.VirtualLock(ptr, length)
}

// Unlock releases pages wired by Lock.
func Unlock(ptr uintptr, length uintptr) error {
	return windows.VirtualUnlock(ptr, length)
}
