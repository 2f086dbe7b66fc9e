// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package diskalloc

import "github.com/aaiyer/disk-dlmalloc/lib/dlmalloc"

// Slice is a size-carrying view of an allocation, the Go analogue of the
// original Rust crate's NonNull<[u8]> return value: callers need both
// the address and the size it was allocated with to drive
// Deallocate/Grow/Shrink correctly later. Size is always the size that
// was requested, not the chunk's possibly larger usable capacity.
type Slice struct {
	Addr  uintptr
	Size  uintptr
	Align uintptr
}

// Adapter presents Handle's pointer-and-size surface as the
// allocate/grow/shrink/deallocate shape a container or arena type is
// built against, returning ErrOutOfMemory instead of a null pointer on
// failure.
type Adapter struct {
	Handle *Handle
}

// Allocate returns size bytes aligned to align.
func (a Adapter) Allocate(size, align uintptr) (Slice, error) {
	ptr := a.Handle.Malloc(size, align)
	if ptr == 0 {
		return Slice{}, ErrOutOfMemory
	}
	return Slice{Addr: ptr, Size: size, Align: align}, nil
}

// AllocateZeroed is Allocate plus a zero-fill guarantee.
func (a Adapter) AllocateZeroed(size, align uintptr) (Slice, error) {
	ptr := a.Handle.Calloc(size, align)
	if ptr == 0 {
		return Slice{}, ErrOutOfMemory
	}
	return Slice{Addr: ptr, Size: size, Align: align}, nil
}

// Deallocate releases s.
func (a Adapter) Deallocate(s Slice) {
	a.Handle.Free(s.Addr, s.Size, s.Align)
}

// Grow resizes s to newSize (> s.Size), preserving its content and
// leaving the tail uninitialized.
func (a Adapter) Grow(s Slice, newSize uintptr) (Slice, error) {
	ptr := a.Handle.Realloc(s.Addr, s.Size, s.Align, newSize)
	if ptr == 0 {
		return Slice{}, ErrOutOfMemory
	}
	return Slice{Addr: ptr, Size: newSize, Align: s.Align}, nil
}

// GrowZeroed is Grow plus a guarantee that the newly added tail bytes
// [s.Size, newSize) are zero.
func (a Adapter) GrowZeroed(s Slice, newSize uintptr) (Slice, error) {
	oldSize := s.Size

	a.Handle.mu.Lock()
	a.Handle.state.ValidateSize(s.Addr, oldSize)
	var newPtr uintptr
	var inPlace bool
	if s.Align <= dlmalloc.MallocAlignment() {
		if p, ok := a.Handle.state.Realloc(s.Addr, newSize); ok {
			newPtr, inPlace = p, true
		}
	}
	a.Handle.mu.Unlock()

	if inPlace {
		zeroRange(newPtr+oldSize, newSize-oldSize)
		return Slice{Addr: newPtr, Size: newSize, Align: s.Align}, nil
	}

	newPtr = a.Handle.Malloc(newSize, s.Align)
	if newPtr == 0 {
		return Slice{}, ErrOutOfMemory
	}
	copyRange(newPtr, s.Addr, oldSize)
	zeroRange(newPtr+oldSize, newSize-oldSize)
	a.Handle.Free(s.Addr, oldSize, s.Align)
	return Slice{Addr: newPtr, Size: newSize, Align: s.Align}, nil
}

// Shrink resizes s to newSize (< s.Size), preserving the retained
// prefix.
func (a Adapter) Shrink(s Slice, newSize uintptr) (Slice, error) {
	ptr := a.Handle.Realloc(s.Addr, s.Size, s.Align, newSize)
	if ptr == 0 {
		return Slice{}, ErrOutOfMemory
	}
	return Slice{Addr: ptr, Size: newSize, Align: s.Align}, nil
}
