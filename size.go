package vmap

import (
	"math/bits"
	"sync"
	"sync/atomic"

	"pault.ag/go/vmap/internal/vmapos"
)

// Size is a power-of-two byte size used for rounding, truncating, and
// extracting the in-page offset of an arbitrary byte count. The two
// well-known instantiations are PageSize (the TLB unit) and
// AllocationSize (the host's minimum mapping-start alignment).
type Size struct {
	mask  uintptr
	shift uint
}

// newSize builds a Size from a power-of-two byte count.
func newSize(n uintptr) Size {
	return Size{mask: n - 1, shift: uint(bits.TrailingZeros(uint(n)))}
}

var (
	pageSizeOnce sync.Once
	pageSizeBits uint64

	allocSizeOnce sync.Once
	allocSizeBits uint64
)

// PageSize returns the cached system page size, querying the host exactly
// once and caching the result in a process-wide atomic thereafter.
func PageSize() Size {
	pageSizeOnce.Do(func() {
		page, _ := vmapos.SystemInfo()
		atomic.StoreUint64(&pageSizeBits, uint64(page))
	})
	return newSize(uintptr(atomic.LoadUint64(&pageSizeBits)))
}

// AllocationSize returns the cached host allocation granularity. On
// Windows this is typically 64 KiB and larger than the page size;
// elsewhere it is equal to the page size.
func AllocationSize() Size {
	allocSizeOnce.Do(func() {
		_, alloc := vmapos.SystemInfo()
		atomic.StoreUint64(&allocSizeBits, uint64(alloc))
	})
	return newSize(uintptr(atomic.LoadUint64(&allocSizeBits)))
}

// Round rounds n up to the next multiple of the size, e.g. with S=4096:
// Round(0)=0, Round(1)=4096, Round(4096)=4096, Round(4097)=8192.
func (s Size) Round(n uintptr) uintptr {
	return s.Truncate(n + s.mask)
}

// Truncate rounds n down to the previous multiple of the size.
func (s Size) Truncate(n uintptr) uintptr {
	return n &^ s.mask
}

// Offset returns the in-page (or in-allocation-unit) offset of n.
func (s Size) Offset(n uintptr) uintptr {
	return n & s.mask
}

// Bytes converts a count of size units into a byte count.
func (s Size) Bytes(count uintptr) uintptr {
	return count << s.shift
}

// Pages returns the number of whole size units necessary to hold n bytes.
func (s Size) Pages(n uintptr) uintptr {
	return s.Round(n) >> s.shift
}

// Bounds converts a possibly misaligned (ptr, len) sub-range back into a
// whole-unit range suitable for passing to unmap/protect/flush/advise/
// lock/unlock: the returned pointer is rounded down to the unit boundary
// and the returned length is grown to cover the residual.
func (s Size) Bounds(ptr uintptr, length uintptr) (uintptr, uintptr) {
	off := s.Offset(ptr)
	return ptr - off, s.Round(length + off)
}
