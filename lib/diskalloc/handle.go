// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

// Package diskalloc wraps lib/dlmalloc's single-threaded core behind a
// mutex-guarded Handle and a standard-allocator-shaped Adapter, the way
// the original Rust crate wraps its core in an Arc<Mutex<...>>.
package diskalloc

import (
	"fmt"
	"sync"

	"github.com/datawire/dlib/derror"

	"github.com/aaiyer/disk-dlmalloc/lib/dlmalloc"
	"github.com/aaiyer/disk-dlmalloc/lib/segment"
)

// Handle is a shared, cloneable reference to one boundary-tag heap. Go
// has no Arc; every copy of a *Handle value already refers to the same
// underlying state, so sharing a Handle across goroutines is simply
// sharing the pointer, with mu serializing access the way the Rust
// crate's Mutex<Dlmalloc<...>> does.
type Handle struct {
	mu       sync.Mutex
	state    *dlmalloc.State
	provider *segment.FileProvider
}

// New opens (creating if necessary) the file at path, reserves totalSize
// bytes of backing address space, and returns a Handle ready to service
// allocations. advice, if non-nil, is applied to the whole mapping up
// front.
func New(path string, totalSize uintptr, advice *segment.Advice) (*Handle, error) {
	p, err := segment.NewFileProvider(path, totalSize)
	if err != nil {
		return nil, fmt.Errorf("diskalloc: %w", err)
	}
	if advice != nil {
		if err := p.Advise(0, totalSize, *advice); err != nil {
			p.Close()
			return nil, fmt.Errorf("diskalloc: advise: %w", err)
		}
	}
	return &Handle{state: dlmalloc.New(p), provider: p}, nil
}

// Close releases the backing file. The Handle must not be used
// afterward.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	var errs derror.MultiError
	if err := h.provider.Close(); err != nil {
		errs = append(errs, err)
	}
	if errs != nil {
		return errs
	}
	return nil
}

// Malloc returns a pointer to size bytes aligned to align, or 0 on
// failure. align must be a power of two; alignments no larger than
// dlmalloc.MallocAlignment() are satisfied by every allocation anyway,
// so only larger requests pay Memalign's overhead.
func (h *Handle) Malloc(size, align uintptr) uintptr {
	h.mu.Lock()
	defer h.mu.Unlock()
	if align <= dlmalloc.MallocAlignment() {
		return h.state.Malloc(size)
	}
	return h.state.Memalign(align, size)
}

// Calloc is Malloc plus a guarantee that the returned size bytes are
// zero.
func (h *Handle) Calloc(size, align uintptr) uintptr {
	h.mu.Lock()
	defer h.mu.Unlock()
	if align <= dlmalloc.MallocAlignment() {
		return h.state.Calloc(size)
	}
	ptr := h.state.Memalign(align, size)
	if ptr != 0 {
		zeroRange(ptr, size)
	}
	return ptr
}

// Free releases ptr, previously returned by Malloc/Calloc/Realloc with
// the given size and align.
func (h *Handle) Free(ptr, size, align uintptr) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.ValidateSize(ptr, size)
	h.state.Free(ptr)
}

// Realloc resizes ptr (a prior allocation of oldSize bytes at oldAlign)
// to hold newSize bytes, preserving min(oldSize, newSize) bytes of
// content, and returns the (possibly moved) new pointer, or 0 if the
// request could not be satisfied — in which case ptr remains valid and
// untouched.
//
// When the core can resize in place it never releases mu. When it
// can't, the fallback allocate-copy-free sequence releases mu before
// calling back into Malloc/Free so that the copy itself, and any nested
// heap growth it triggers, don't hold the lock for longer than their own
// operations need — mirroring the original crate's drop(me) before its
// allocate-copy-free fallback.
func (h *Handle) Realloc(ptr, oldSize, oldAlign, newSize uintptr) uintptr {
	h.mu.Lock()
	h.state.ValidateSize(ptr, oldSize)

	if oldAlign <= dlmalloc.MallocAlignment() {
		newPtr, ok := h.state.Realloc(ptr, newSize)
		h.mu.Unlock()
		if ok {
			return newPtr
		}
	} else {
		h.mu.Unlock()
	}

	newPtr := h.Malloc(newSize, oldAlign)
	if newPtr == 0 {
		return 0
	}
	copyRange(newPtr, ptr, minUintptr(oldSize, newSize))
	h.Free(ptr, oldSize, oldAlign)
	return newPtr
}

// Trim asks the provider to release unused address space at the high
// end of the heap, keeping at least pad bytes of slack. Reports whether
// anything was actually released.
func (h *Handle) Trim(pad uintptr) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Trim(pad)
}

// DebugChunks returns a snapshot of every chunk currently in the heap, in
// address order, for the CLI's dump subcommand and for tests.
func (h *Handle) DebugChunks() []dlmalloc.ChunkInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.DebugChunks()
}

func minUintptr(a, b uintptr) uintptr {
	if a < b {
		return a
	}
	return b
}
