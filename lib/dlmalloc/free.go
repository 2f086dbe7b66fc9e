// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package dlmalloc

// Free releases the chunk whose payload is at ptr. ptr must be an
// address previously returned by Malloc/Calloc/Realloc/Memalign on this
// same State and not already freed. Free panics with a contract
// violation when ptr's chunk lies below every segment or is not marked
// in use; other misuse is not detected.
func (s *State) Free(ptr uintptr) {
	c := chunkFromPayload(ptr)
	if uintptr(c) < s.leastAddr || !c.cinuse() {
		violate("dlmalloc: Free of an invalid or already-freed pointer")
	}
	s.freeChunk(c)
}

// freeChunk is the shared coalescing implementation behind Free and
// segment retirement in addSegment: mark c free, merge it with any free
// neighbor (including folding into dv or top when adjacent to either),
// and file the result away as the new top, the new dv, or a plain bin
// entry.
func (s *State) freeChunk(c chunkPtr) {
	size := c.size()
	abutsDV := false

	if !c.pinuse() {
		prev := c.prevChunk()
		switch prev {
		case s.dv:
			size += s.dvSize
			s.dv, s.dvSize = 0, 0
			abutsDV = true
		case s.top:
			size += s.topSize
			s.top, s.topSize = 0, 0
		default:
			size += prev.size()
			s.unlinkFreeChunk(prev, prev.size())
		}
		c = prev
	}

	next := chunkPtr(uintptr(c) + size)
	switch next {
	case s.top:
		size += s.topSize
		s.top = c
		s.topSize = size
		s.top.setHead(size, pinuseBit|cinuseBit)
		s.maybeTrim()
		return
	case s.dv:
		size += s.dvSize
		s.dv, s.dvSize = 0, 0
		abutsDV = true
	default:
		if !next.cinuse() {
			size += next.size()
			s.unlinkFreeChunk(next, next.size())
		}
	}

	c.setHead(size, pinuseBit)
	c.setFoot()
	n := c.nextChunk()
	n.setHeadWord(n.headWord() &^ pinuseBit)

	// Only a chunk that actually abuts the existing dv extends it;
	// every other coalesced chunk files into its small- or tree-bin,
	// leaving whatever dv already holds untouched.
	if abutsDV {
		s.dv = c
		s.dvSize = size
	} else {
		s.insertFreeChunk(c, size)
	}

	s.maybeTrim()
}

// maybeTrim implements the opportunistic-trim heuristic: whenever top is
// larger than trimThreshold bytes, count the hit and try to hand the
// tail back to the provider.
func (s *State) maybeTrim() {
	if s.topSize <= s.trimThreshold {
		return
	}
	s.trimThresholdHits++
	s.trim(0)
}
