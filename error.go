package vmap

import (
	"errors"
	"fmt"
	"syscall"
)

// Operation names which internal step raised an Error, used for display
// and diagnostic classification.
type Operation int

const (
	// OpMapFile is raised while mapping a range of a file.
	OpMapFile Operation = iota
	// OpMapFileHandle is raised when a map-file handle fails to open.
	OpMapFileHandle
	// OpMapFileView is raised when the view for a map-file handle could
	// not be created.
	OpMapFileView
	// OpMapAnonymous is raised while allocating an anonymous mapping.
	OpMapAnonymous
	// OpUnmap is raised when a pointer could not be unmapped.
	OpUnmap
	// OpProtect is raised when a Protect change could not be applied.
	OpProtect
	// OpAdvise is raised when an Advise hint could not be applied.
	OpAdvise
	// OpLock is raised when physical pages could not be locked.
	OpLock
	// OpUnlock is raised when physical pages could not be unlocked.
	OpUnlock
	// OpFlush is raised when a flush could not be performed.
	OpFlush
	// OpRingAllocate is raised when the full 2N address space for a ring
	// could not be reserved.
	OpRingAllocate
	// OpRingPrimary is raised when the first half of a ring mapping
	// failed.
	OpRingPrimary
	// OpRingSecondary is raised when the second half of a ring mapping
	// failed.
	OpRingSecondary
	// OpRingEntry is raised when a ring's virtual mapping entry (Mach)
	// could not be created.
	OpRingEntry
	// OpRingDeallocate is raised when the full ring address space could
	// not be released.
	OpRingDeallocate
	// OpMemoryFd is raised when a temporary anonymous memory descriptor
	// failed to open.
	OpMemoryFd
	// OpNone tags a plain I/O error with no associated operation.
	OpNone
)

// String returns the display fragment used to build an Error's message,
// or "" for OpNone.
func (op Operation) String() string {
	switch op {
	case OpMapFile:
		return "map file"
	case OpMapFileHandle:
		return "map file handle"
	case OpMapFileView:
		return "map file view"
	case OpMapAnonymous:
		return "map anonymous"
	case OpUnmap:
		return "unmap"
	case OpProtect:
		return "protect mapped memory"
	case OpAdvise:
		return "advise mapped memory"
	case OpLock:
		return "lock mapped memory"
	case OpUnlock:
		return "unlock mapped memory"
	case OpFlush:
		return "flush mapped memory"
	case OpRingAllocate:
		return "allocate full ring"
	case OpRingPrimary:
		return "map ring first half"
	case OpRingSecondary:
		return "map ring second half"
	case OpRingEntry:
		return "make ring memory entry"
	case OpRingDeallocate:
		return "deallocate full ring"
	case OpMemoryFd:
		return "open memory fd"
	default:
		return ""
	}
}

// Input tags an input-validation failure: caller bugs or intentional
// bounds checks rather than host I/O failures.
type Input int

const (
	// InvalidRange means the requested offset/length falls outside the
	// resource (a file or an existing span).
	InvalidRange Input = iota
	// NullPtr means a required pointer was nil.
	NullPtr
)

func (in Input) String() string {
	switch in {
	case InvalidRange:
		return "invalid range"
	case NullPtr:
		return "null pointer"
	default:
		return "invalid input"
	}
}

// Kind is a coarse category for an Error, analogous to io/fs error
// classification.
type Kind int

const (
	// KindIO means the error wraps a host I/O failure; see RawOSError.
	KindIO Kind = iota
	// KindInvalidInput means the error wraps an Input validation tag.
	KindInvalidInput
	// KindKernel means the error wraps a kernel-specific code that does
	// not fit the errno model (e.g. a Mach kern_return_t).
	KindKernel
)

type errRepr int

const (
	reprIO errRepr = iota
	reprInput
	reprKernel
)

// Error is the single error type returned by every fallible operation in
// this package. It carries the Operation that failed and one of three
// representations: a wrapped host I/O error, an Input validation tag, or
// a raw kernel-specific code.
type Error struct {
	op    Operation
	repr  errRepr
	ioErr error
	input Input
	code  int32
}

// NewIOError wraps a host I/O error (or any Go error) along with the
// Operation that produced it.
func NewIOError(op Operation, err error) *Error {
	return &Error{op: op, repr: reprIO, ioErr: err}
}

// NewInputError wraps an Input validation tag along with the Operation
// that detected it.
func NewInputError(op Operation, in Input) *Error {
	return &Error{op: op, repr: reprInput, input: in}
}

// NewKernelError wraps a raw kernel-specific code (e.g. a Mach
// kern_return_t) along with the Operation that produced it.
func NewKernelError(op Operation, code int32) *Error {
	return &Error{op: op, repr: reprKernel, code: code}
}

// Operation returns the Operation that caused the error.
func (e *Error) Operation() Operation { return e.op }

// Kind returns the coarse category of the error.
func (e *Error) Kind() Kind {
	switch e.repr {
	case reprInput:
		return KindInvalidInput
	case reprKernel:
		return KindKernel
	default:
		return KindIO
	}
}

// RawOSError returns the platform errno or last-error code, if this Error
// wraps a host I/O failure that carries one.
func (e *Error) RawOSError() (int, bool) {
	if e.repr != reprIO || e.ioErr == nil {
		return 0, false
	}
	var coder interface{ ErrorCode() int }
	if errors.As(e.ioErr, &coder) {
		return coder.ErrorCode(), true
	}
	var errnoer interface{ Errno() uintptr }
	if errors.As(e.ioErr, &errnoer) {
		return int(errnoer.Errno()), true
	}
	var errno syscall.Errno
	if errors.As(e.ioErr, &errno) {
		return int(errno), true
	}
	return 0, false
}

// Unwrap exposes the wrapped host I/O error, if any, for use with
// errors.Is/errors.As.
func (e *Error) Unwrap() error {
	if e.repr == reprIO {
		return e.ioErr
	}
	return nil
}

func (e *Error) detail() string {
	switch e.repr {
	case reprInput:
		return e.input.String()
	case reprKernel:
		return fmt.Sprintf("kernel error %d", e.code)
	default:
		return e.ioErr.Error()
	}
}

// Error implements the error interface, formatting as "failed to
// {operation}, {detail}" when the operation is known, or "{detail}" alone
// for OpNone.
func (e *Error) Error() string {
	if s := e.op.String(); s != "" {
		return fmt.Sprintf("failed to %s, %s", s, e.detail())
	}
	return e.detail()
}
