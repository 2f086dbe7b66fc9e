// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package segment

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// FileProvider is the reference Provider: a single file, truncated to a
// fixed total size up front and mapped once with mmap(2). Regions are
// handed out by bumping a monotonic offset; nothing is unmapped before
// Close, and nothing is returned to the OS except through advice hints,
// matching the intentionally conservative reference design (see
// DESIGN.md's Open Question resolutions).
type FileProvider struct {
	file *os.File
	data []byte

	mu   sync.Mutex
	next uintptr

	pageSize uintptr
}

var _ Provider = (*FileProvider)(nil)

// NewFileProvider opens (creating if necessary) the file at path,
// truncates it to totalSize bytes, and maps the whole thing
// read/write/shared. The returned Provider owns the file descriptor and
// mapping until Close is called.
func NewFileProvider(path string, totalSize uintptr) (*FileProvider, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("segment: open %q: %w", path, err)
	}
	if err := f.Truncate(int64(totalSize)); err != nil {
		f.Close()
		return nil, fmt.Errorf("segment: truncate %q to %d: %w", path, totalSize, err)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(totalSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("segment: mmap %q: %w", path, err)
	}
	return &FileProvider{
		file:     f,
		data:     data,
		pageSize: uintptr(unix.Getpagesize()),
	}, nil
}

// Close unmaps the file and closes its descriptor. The Provider must not
// be used afterward.
func (p *FileProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	if p.data != nil {
		if err := unix.Munmap(p.data); err != nil {
			errs = append(errs, err)
		}
		p.data = nil
	}
	if err := p.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("segment: close: %v", errs)
	}
	return nil
}

// baseAddr returns the address of byte zero of the mapping, used to turn
// offsets into the absolute addresses a dlmalloc.chunkPtr deals in.
func (p *FileProvider) baseAddr() uintptr {
	if len(p.data) == 0 {
		return 0
	}
	return uintptr(unsafeSliceData(p.data))
}

func (p *FileProvider) Alloc(size uintptr) Region {
	p.mu.Lock()
	defer p.mu.Unlock()

	size = roundUp(size, p.pageSize)
	if p.next+size > uintptr(len(p.data)) {
		return Region{}
	}
	base := p.baseAddr() + p.next
	p.next += size
	return Region{Base: base, Size: size}
}

// Remap, FreePart, and Free are intentionally left unsupported: a
// bump-allocated mapping over a fixed-size file has no way to relocate
// or shrink a live region without invalidating addresses the core has
// already handed to callers. See DESIGN.md for why this is a deliberate
// design choice rather than a missing feature.
func (p *FileProvider) Remap(base, oldSize, newSize uintptr, canMove bool) Region { return Region{} }
func (p *FileProvider) FreePart(base, oldSize, newSize uintptr) bool              { return false }
func (p *FileProvider) Free(base, size uintptr) bool                             { return false }

func (p *FileProvider) CanReleasePart(flags uint32) bool { return false }

// AllocatesZeros is true: os.File.Truncate extends a file with zero
// bytes per POSIX semantics, and the mapping is taken once up front, so
// every byte this Provider ever hands out started life as zero.
func (p *FileProvider) AllocatesZeros() bool { return true }

func (p *FileProvider) PageSize() uintptr { return p.pageSize }

// Advise applies a madvise(2) hint to [base, base+size).
func (p *FileProvider) Advise(base, size uintptr, advice Advice) error {
	off := int64(base) - int64(p.baseAddr())
	if off < 0 || uintptr(off)+size > uintptr(len(p.data)) {
		return fmt.Errorf("segment: advise range out of bounds")
	}
	return unix.Madvise(p.data[off:uintptr(off)+size], adviceToUnix(advice))
}

func adviceToUnix(a Advice) int {
	switch a {
	case AdviceRandom:
		return unix.MADV_RANDOM
	case AdviceSequential:
		return unix.MADV_SEQUENTIAL
	case AdviceWillNeed:
		return unix.MADV_WILLNEED
	case AdviceDontNeed:
		return unix.MADV_DONTNEED
	default:
		return unix.MADV_NORMAL
	}
}

func roundUp(n, mult uintptr) uintptr {
	if mult == 0 {
		return n
	}
	return (n + mult - 1) &^ (mult - 1)
}
