package vmap

import "os"

// Options captures user intent for a file-backed or anonymous mapping:
// open flags, a resize target, a length window, an offset, and the
// requested protection. It is built incrementally and consumed by one of
// the terminal methods (Open, Map, MapMut, Alloc and their *If variants).
type Options struct {
	write         bool
	create        bool
	createNew     bool
	truncateFirst bool
	copy          bool
	resize        Extent
	length        Extent
	offset        uintptr
}

// NewOptions returns a builder with the defaults: read-only, no create
// flags, Len(ExtentEnd()), Resize(ExtentEnd()), offset 0.
func NewOptions() *Options {
	return &Options{resize: ExtentEnd(), length: ExtentEnd()}
}

// Write requests the file be opened for reading and writing.
func (o *Options) Write() *Options { o.write = true; return o }

// Copy requests a copy-on-write mapping: writes are private to this
// process and never reach the backing file.
func (o *Options) Copy() *Options { o.copy = true; return o }

// Create requests the file be created if it does not already exist.
func (o *Options) Create() *Options { o.create = true; o.write = true; return o }

// CreateNew requests the file be created, failing if it already exists.
func (o *Options) CreateNew() *Options { o.createNew = true; o.write = true; return o }

// Truncate requests the file be truncated to zero length before any
// resize extent is applied, if it is currently non-empty.
func (o *Options) Truncate() *Options { o.truncateFirst = true; o.write = true; return o }

// Offset sets the byte offset, relative to the (possibly resized) file,
// at which the mapping window begins.
func (o *Options) Offset(offset uintptr) *Options { o.offset = offset; return o }

// Len sets the length window of the mapping, resolved against the bytes
// available after offset.
func (o *Options) Len(length Extent) *Options { o.length = length; return o }

// Resize sets a target to which the file is resized before the length
// extent is resolved.
func (o *Options) Resize(extent Extent) *Options { o.resize = extent; return o }

func (o *Options) openFlags(forWrite bool) int {
	switch {
	case o.createNew:
		return os.O_RDWR | os.O_CREATE | os.O_EXCL
	case o.create:
		return os.O_RDWR | os.O_CREATE
	case forWrite || o.write:
		return os.O_RDWR
	default:
		return os.O_RDONLY
	}
}

// Open opens the file with the captured flags, applies the truncate and
// resize steps, and returns the open handle without mapping it. This is
// the handle Map/MapMut callers can reuse for later Flush calls.
func (o *Options) Open(path string) (*os.File, error) {
	f, ok, err := o.openAndResize(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewInputError(OpMapFileHandle, InvalidRange)
	}
	return f, nil
}

// OpenIf behaves like Open but returns (nil, false, nil) instead of an
// error when offset falls validly outside the resized file. Unlike Open,
// it also seeks the returned file to offset.
func (o *Options) OpenIf(path string) (*os.File, bool, error) {
	f, ok, err := o.openAndResize(path)
	if err != nil || !ok {
		return nil, ok, err
	}
	if o.offset > 0 {
		if _, err := f.Seek(int64(o.offset), 0); err != nil {
			f.Close()
			return nil, false, NewIOError(OpMapFileHandle, err)
		}
	}
	return f, true, nil
}

// openAndResize performs builder steps 1-4: open, stat, optional
// zero-truncate, and resize-extent application. It reports whether
// offset remains in range after resizing (step 5).
func (o *Options) openAndResize(path string) (*os.File, bool, error) {
	f, err := os.OpenFile(path, o.openFlags(false), 0o644)
	if err != nil {
		return nil, false, NewIOError(OpMapFileHandle, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, false, NewIOError(OpMapFileHandle, err)
	}
	length := uintptr(info.Size())

	if o.truncateFirst && length > 0 {
		if err := f.Truncate(0); err != nil {
			f.Close()
			return nil, false, NewIOError(OpMapFileHandle, err)
		}
		length = 0
	}

	newLength := o.resize.resolveResize(length)
	if newLength != length {
		if err := f.Truncate(int64(newLength)); err != nil {
			f.Close()
			return nil, false, NewIOError(OpMapFileHandle, err)
		}
		length = newLength
	}

	if o.offset > length {
		f.Close()
		return nil, false, nil
	}
	return f, true, nil
}

// resolveMapWindow runs builder steps 5-7 against an already-opened,
// already-resized file: it returns the rounded map offset/length ready
// for mapFile, the residual (offset - roundedOffset), and the
// user-visible window length.
func (o *Options) resolveMapWindow(f *os.File) (roundedOffset, mapLength, residual, userLength uintptr, ok bool, err error) {
	info, statErr := f.Stat()
	if statErr != nil {
		return 0, 0, 0, 0, false, NewIOError(OpMapFile, statErr)
	}
	fileLength := uintptr(info.Size())
	if o.offset > fileLength {
		return 0, 0, 0, 0, false, nil
	}
	max := fileLength - o.offset
	userLength, ok = o.length.resolveLen(max)
	if !ok {
		return 0, 0, 0, 0, false, nil
	}

	roundedOffset = AllocationSize().Truncate(o.offset)
	residual = o.offset - roundedOffset
	mapLength = PageSize().Round(userLength + residual)
	return roundedOffset, mapLength, residual, userLength, true, nil
}

func (o *Options) protect(mut bool) Protect {
	switch {
	case o.copy:
		return ReadCopy
	case mut:
		return ReadWrite
	default:
		return ReadOnly
	}
}

// Map resolves the builder against path and returns a read-only (or
// copy-on-write) mapping.
func (o *Options) Map(path string) (*Map, error) {
	mm, err := o.mapFileWindow(path, false)
	if err != nil {
		return nil, err
	}
	if mm == nil {
		return nil, NewInputError(OpMapFile, InvalidRange)
	}
	if o.protect(false) == ReadOnly {
		view, _, err := mm.IntoMap()
		if err != nil {
			return nil, err
		}
		return view, nil
	}
	return &Map{base: mm}, nil
}

// MapIf behaves like Map but returns (nil, false, nil) instead of an
// error when offset/len fall validly outside the file.
func (o *Options) MapIf(path string) (*Map, bool, error) {
	m, err := o.Map(path)
	if err != nil {
		if ierr, ok := err.(*Error); ok && ierr.Kind() == KindInvalidInput {
			return nil, false, nil
		}
		return nil, false, err
	}
	return m, true, nil
}

// MapMut resolves the builder against path and returns a read-write (or
// copy-on-write) mapping.
func (o *Options) MapMut(path string) (*MapMut, error) {
	mm, err := o.mapFileWindow(path, true)
	if err != nil {
		return nil, err
	}
	if mm == nil {
		return nil, NewInputError(OpMapFile, InvalidRange)
	}
	return mm, nil
}

// MapMutIf behaves like MapMut but returns (nil, false, nil) instead of
// an error when offset/len fall validly outside the file.
func (o *Options) MapMutIf(path string) (*MapMut, bool, error) {
	mm, err := o.MapMut(path)
	if err != nil {
		if ierr, ok := err.(*Error); ok && ierr.Kind() == KindInvalidInput {
			return nil, false, nil
		}
		return nil, false, err
	}
	return mm, true, nil
}

func (o *Options) mapFileWindow(path string, mut bool) (*MapMut, error) {
	f, ok, err := o.openAndResize(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	defer f.Close()

	roundedOffset, mapLength, residual, userLength, ok, err := o.resolveMapWindow(f)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	prot := o.protect(mut)
	ptr, err := mapFile(f, roundedOffset, mapLength, prot)
	if err != nil {
		return nil, err
	}
	return FromPtr(ptr+residual, userLength), nil
}

// Alloc resolves the builder against no backing file, returning an
// anonymous mapping. The length extent is resolved against an
// unbounded resource: End means one allocation unit, Exact/Min/Max are
// taken as the literal byte count. The final mapping length is rounded
// up to the allocation granularity.
func (o *Options) Alloc() (*MapMut, error) {
	var requested uintptr
	switch {
	case o.length.kind == extentEnd:
		requested = AllocationSize().Bytes(1)
	default:
		requested = o.length.n
	}

	pageOffset := PageSize().Offset(o.offset)
	length := AllocationSize().Round(requested + pageOffset)

	prot := o.protect(true)
	ptr, err := mapAnon(length, prot)
	if err != nil {
		return nil, err
	}
	return FromPtr(ptr+pageOffset, length-pageOffset), nil
}
