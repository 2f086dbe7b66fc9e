// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package dlmalloc

import "unsafe"

// chunkPtr is the address of a chunk header, as an absolute address into
// one of the State's segments. Segments are obtained from a
// segment.Provider and are never moved or scanned by the Go garbage
// collector (they live in memory mapped in from a file, not in the Go
// heap), so storing bare addresses as uintptr here is safe: nothing will
// relocate the bytes they point at out from under us. See DESIGN.md's
// chunk.go entry for the rationale, grounded on the same
// unsafe.Pointer-over-mmap technique used by the retrieval pack's
// cznic/memory allocator.
//
// A zero chunkPtr is the nil sentinel and is never a valid chunk address,
// since every segment's base lies strictly above address zero.
type chunkPtr uintptr

func (c chunkPtr) valid() bool { return c != 0 }

func (c chunkPtr) ptr(off uintptr) unsafe.Pointer {
	return unsafe.Pointer(uintptr(c) + off) //nolint:govet
}

func (c chunkPtr) word(off uintptr) *uintptr {
	return (*uintptr)(c.ptr(off))
}

// Field offsets within a chunk. See const.go for the layout rationale.
const (
	offPrevFoot = 0 * wordSize
	offHead     = 1 * wordSize
	offFd       = 2 * wordSize
	offBk       = 3 * wordSize
	offChild0   = 4 * wordSize
	offChild1   = 5 * wordSize
)

func (c chunkPtr) prevFoot() uintptr     { return *c.word(offPrevFoot) }
func (c chunkPtr) setPrevFoot(v uintptr) { *c.word(offPrevFoot) = v }

func (c chunkPtr) headWord() uintptr     { return *c.word(offHead) }
func (c chunkPtr) setHeadWord(v uintptr) { *c.word(offHead) = v }

// size returns the chunk's size in bytes, with the flag bits masked off.
func (c chunkPtr) size() uintptr { return c.headWord() &^ flagsMask }

func (c chunkPtr) pinuse() bool { return c.headWord()&pinuseBit != 0 }
func (c chunkPtr) cinuse() bool { return c.headWord()&cinuseBit != 0 }
func (c chunkPtr) flag4() bool  { return c.headWord()&flag4Bit != 0 }

// setHead writes size|flags into the head word wholesale. Callers that
// want to preserve existing flags must read them first.
func (c chunkPtr) setHead(size uintptr, flags uintptr) {
	c.setHeadWord(size | (flags & flagsMask))
}

// setSizeKeepFlags rewrites the size portion of head without disturbing
// whatever flag bits are already set.
func (c chunkPtr) setSizeKeepFlags(size uintptr) {
	c.setHeadWord(size | (c.headWord() & flagsMask))
}

func (c chunkPtr) fd() chunkPtr     { return chunkPtr(*c.word(offFd)) }
func (c chunkPtr) setFd(v chunkPtr) { *c.word(offFd) = uintptr(v) }

func (c chunkPtr) bk() chunkPtr     { return chunkPtr(*c.word(offBk)) }
func (c chunkPtr) setBk(v chunkPtr) { *c.word(offBk) = uintptr(v) }

func (c chunkPtr) child0() chunkPtr     { return chunkPtr(*c.word(offChild0)) }
func (c chunkPtr) setChild0(v chunkPtr) { *c.word(offChild0) = uintptr(v) }

func (c chunkPtr) child1() chunkPtr     { return chunkPtr(*c.word(offChild1)) }
func (c chunkPtr) setChild1(v chunkPtr) { *c.word(offChild1) = uintptr(v) }

// payloadOf returns the address handed to the client for an in-use chunk
// starting at c: two words past the chunk base.
func (c chunkPtr) payloadOf() uintptr { return uintptr(c) + chunkOverhead }

// chunkFromPayload is payloadOf's inverse.
func chunkFromPayload(p uintptr) chunkPtr { return chunkPtr(p - chunkOverhead) }

// nextChunk returns the chunk immediately following c.
func (c chunkPtr) nextChunk() chunkPtr { return chunkPtr(uintptr(c) + c.size()) }

// prevChunk returns the chunk immediately preceding c. Only valid when
// c.pinuse() is false, i.e. the previous chunk is free and wrote its size
// into c's prevFoot field.
func (c chunkPtr) prevChunk() chunkPtr { return chunkPtr(uintptr(c) - c.prevFoot()) }

// setFoot writes size into the word that doubles as this chunk's trailing
// footer and the following chunk's prevFoot: they are the same storage
// location, so there is nothing to write except through nextChunk.
func (c chunkPtr) setFoot() { c.nextChunk().setPrevFoot(c.size()) }

// setInuse marks c in-use: sets CINUSE in c's own head and PINUSE in the
// following chunk's head, without disturbing any other flag bits.
func (c chunkPtr) setInuse() {
	c.setHeadWord(c.headWord() | cinuseBit)
	n := c.nextChunk()
	n.setHeadWord(n.headWord() | pinuseBit)
}

// clearInuse marks c free: clears CINUSE in c's own head, clears PINUSE in
// the following chunk's head, and writes the footer so the following
// chunk can step backward over c.
func (c chunkPtr) clearInuse() {
	c.setHeadWord(c.headWord() &^ cinuseBit)
	n := c.nextChunk()
	n.setHeadWord(n.headWord() &^ pinuseBit)
	c.setFoot()
}

// isFencepost reports whether c looks like one of the two minimum-size,
// always-in-use sentinel chunks placed at the end of every segment.
func (c chunkPtr) isFencepost() bool {
	return c.size() == minChunkSize && c.cinuse()
}
