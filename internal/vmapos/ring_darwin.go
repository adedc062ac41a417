//go:build darwin

package vmapos

/*
#include <mach/mach.h>
#include <mach/mach_vm.h>
#include <mach/vm_map.h>

static kern_return_t vmap_vm_allocate(vm_map_t task, vm_address_t *addr, vm_size_t size, int flags) {
	return vm_allocate(task, addr, size, flags);
}

static kern_return_t vmap_vm_deallocate(vm_map_t task, vm_address_t addr, vm_size_t size) {
	return vm_deallocate(task, addr, size);
}

static kern_return_t vmap_make_memory_entry(vm_map_t task, vm_size_t *size, vm_address_t addr,
	vm_prot_t perm, mem_entry_name_port_t *entry) {
	return mach_make_memory_entry(task, size, addr, perm, entry, MACH_PORT_NULL);
}

static kern_return_t vmap_vm_map(vm_map_t task, vm_address_t *addr, vm_size_t size,
	mem_entry_name_port_t entry, vm_prot_t prot) {
	return vm_map(task, addr, size, 0, VM_FLAGS_FIXED | VM_FLAGS_OVERWRITE, entry, 0, 0,
		prot, prot, VM_INHERIT_NONE);
}
*/
import "C"

import "fmt"

const (
	vmFlagsAnywhere = C.VM_FLAGS_ANYWHERE
	vmProtDefault   = C.VM_PROT_READ | C.VM_PROT_WRITE
)

// MapRing creates an anonymous double mapping using the Mach virtual
// memory interface: a 2*length region is reserved, the first half is
// backed by a fresh allocation, a memory entry is taken out on that
// allocation, and the entry is mapped again into the second half.
func MapRing(length uintptr) (uintptr, error) {
	task := C.mach_task_self_
	var addr C.vm_address_t
	size := C.vm_size_t(length)

	if ret := C.vmap_vm_allocate(task, &addr, 2*size, vmFlagsAnywhere); ret != C.KERN_SUCCESS {
		return 0, ringError{op: "alloc", err: machError(ret)}
	}

	if ret := C.vmap_vm_allocate(task, &addr, size, C.VM_FLAGS_FIXED|C.VM_FLAGS_OVERWRITE); ret != C.KERN_SUCCESS {
		C.vmap_vm_deallocate(task, addr, 2*size)
		return 0, ringError{op: "primary", err: machError(ret)}
	}

	var entrySize C.vm_size_t = size
	var entry C.mem_entry_name_port_t
	if ret := C.vmap_make_memory_entry(task, &entrySize, addr, C.vm_prot_t(vmProtDefault), &entry); ret != C.KERN_SUCCESS {
		C.vmap_vm_deallocate(task, addr, 2*size)
		return 0, ringError{op: "entry", err: machError(ret)}
	}

	half := addr + C.vm_address_t(size)
	if ret := C.vmap_vm_map(task, &half, size, entry, C.vm_prot_t(vmProtDefault)); ret != C.KERN_SUCCESS {
		C.vmap_vm_deallocate(task, addr, 2*size)
		return 0, ringError{op: "secondary", err: machError(ret)}
	}

	return uintptr(addr), nil
}

// UnmapRing releases a ring mapping created by MapRing.
func UnmapRing(ptr uintptr, length uintptr) error {
	task := C.mach_task_self_
	ret := C.vmap_vm_deallocate(task, C.vm_address_t(ptr), 2*C.vm_size_t(length))
	if ret != C.KERN_SUCCESS {
		return ringError{op: "dealloc", err: machError(ret)}
	}
	return nil
}

// machError wraps a Mach kern_return_t as an error carrying the raw code,
// for RawOSError to surface without depending on cgo types outside this
// file.
type machError C.kern_return_t

func (e machError) Error() string   { return fmt.Sprintf("mach kern_return_t %d", int32(e)) }
func (e machError) ErrorCode() int  { return int(e) }
func (e machError) Code() int32     { return int32(e) }
