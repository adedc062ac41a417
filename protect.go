package vmap

// Protect describes the access permissions of a mapped region.
type Protect int

const (
	// ReadOnly allows reads only.
	ReadOnly Protect = iota
	// ReadWrite allows reads and writes that are shared with other
	// mappings of the same file.
	ReadWrite
	// ReadCopy allows reads and writes, but writes are private to this
	// process (copy-on-write).
	ReadCopy
	// ReadExec allows reads and code execution; writes are rejected.
	ReadExec
)

// Flush describes how pending writes should be committed to the backing
// file.
type Flush int

const (
	// Sync blocks until the dirty pages reach durable storage.
	Sync Flush = iota
	// Async schedules writeback and returns immediately.
	Async
)

// Advise is a non-correctness-affecting hint about how a region will be
// accessed.
type Advise int

const (
	// AdviseNormal requests the default access pattern.
	AdviseNormal Advise = iota
	// AdviseSequential hints that the region will be read sequentially.
	AdviseSequential
	// AdviseRandom hints that the region will be accessed in no
	// particular order.
	AdviseRandom
	// AdviseWillNeed hints that the region will be needed soon.
	AdviseWillNeed
	// AdviseWillNotNeed hints that the region will not be needed soon.
	AdviseWillNotNeed
)
