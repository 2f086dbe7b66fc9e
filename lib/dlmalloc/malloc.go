// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package dlmalloc

// Malloc returns the payload address of a freshly allocated chunk of at
// least size bytes, or 0 on failure. Implements the small-bin / tree-bin
// / designated-victim / top / growth cascade.
func (s *State) Malloc(size uintptr) uintptr {
	ptr, _ := s.mallocTracked(size)
	return ptr
}

// mallocTracked is Malloc plus a fresh flag: true only when the bytes
// returned were carved from the front of a segment that this very call
// obtained from the provider as a new (not merged) segment, so they have
// never been handed out before; the condition callocMustClear uses to
// decide whether zeroing is redundant. Bytes carved from an older top
// may have been handed out and freed back into it, so they are never
// reported fresh.
func (s *State) mallocTracked(size uintptr) (uintptr, bool) {
	if !validateSize(size) {
		violate("dlmalloc: Malloc with an invalid size")
	}
	need := padRequest(size)

	if need < maxSmallSize {
		if ptr, ok := s.mallocSmall(need); ok {
			return ptr, false
		}
	}
	if ptr, ok := s.mallocTree(need); ok {
		return ptr, false
	}

	if s.dv.valid() && s.dvSize >= need {
		return s.splitOff(s.dv, s.dvSize, need, true), false
	}

	grown := false
	for {
		if s.top.valid() && s.topSize >= need {
			return s.allocFromTop(need), grown
		}
		nsegs := len(s.segs)
		if !s.addSegment(need) {
			return 0, false
		}
		grown = len(s.segs) > nsegs
	}
}

// mallocSmall implements step 2 of Malloc: the exact-size and
// next-larger-small-bin fast paths.
func (s *State) mallocSmall(need uintptr) (uintptr, bool) {
	i := smallBinIndex(need)
	switch {
	case s.smallMap&(uint32(1)<<uint(i)) != 0:
		c := s.unlinkSmallHead(i)
		return s.takeWhole(c, need), true
	case i+1 < numSmallBins && s.smallMap&(uint32(1)<<uint(i+1)) != 0:
		c := s.unlinkSmallHead(i + 1)
		return s.splitOff(c, smallBinSize(i+1), need, false), true
	}

	j := s.firstFreeSmallBinAtOrAfter(i + 2)
	if j < 0 {
		return 0, false
	}
	c := s.unlinkSmallHead(j)
	return s.splitOff(c, smallBinSize(j), need, false), true
}

// mallocTree implements step 3 of Malloc: best-fit search within the
// size's own tree-bin, falling back to the next non-empty tree-bin.
func (s *State) mallocTree(need uintptr) (uintptr, bool) {
	idx := treeIndexFor(need)
	if s.treeMap&(uint32(1)<<uint(idx)) != 0 {
		if c := s.findBestFitInBin(idx, need); c.valid() {
			size := c.size()
			s.unlinkLarge(c, size)
			return s.splitOff(c, size, need, false), true
		}
	}
	if j := s.nextNonemptyTreeBin(idx); j >= 0 {
		c := s.minNodeInBin(j)
		size := c.size()
		s.unlinkLarge(c, size)
		return s.splitOff(c, size, need, false), true
	}
	return 0, false
}

// takeWhole marks the entirety of an exactly-sized chunk in-use and
// returns its payload, with no remainder to dispose of.
func (s *State) takeWhole(c chunkPtr, size uintptr) uintptr {
	flags := uintptr(cinuseBit)
	if c.pinuse() {
		flags |= pinuseBit
	}
	c.setHead(size, flags)
	n := c.nextChunk()
	n.setHeadWord(n.headWord() | pinuseBit)
	return c.payloadOf()
}

// splitOff carves a need-byte chunk from the front of a free chunk c of
// the given avail size, installing any leftover remainder as the new dv
// (evicting the previous dv into its bin) when the remainder is large
// enough to stand alone, or folding the slack into the allocation
// otherwise. fromDV should be true when c is already the dv, so its slot
// is cleared instead of double-counted.
func (s *State) splitOff(c chunkPtr, avail, need uintptr, fromDV bool) uintptr {
	if fromDV {
		s.dv, s.dvSize = 0, 0
	}

	remainder := avail - need
	predPinuse := c.pinuse()

	if remainder < minChunkSize {
		flags := uintptr(cinuseBit)
		if predPinuse {
			flags |= pinuseBit
		}
		c.setHead(avail, flags)
		n := c.nextChunk()
		n.setHeadWord(n.headWord() | pinuseBit)
		return c.payloadOf()
	}

	flags := uintptr(cinuseBit)
	if predPinuse {
		flags |= pinuseBit
	}
	c.setHead(need, flags)

	rem := chunkPtr(uintptr(c) + need)
	rem.setHead(remainder, pinuseBit)
	rem.setFoot()

	if s.dv.valid() {
		s.insertFreeChunk(s.dv, s.dvSize)
	}
	s.dv = rem
	s.dvSize = remainder

	return c.payloadOf()
}

// allocFromTop implements step 5 of Malloc: carve need bytes from the
// front of top, leaving the shrunken remainder as the new top.
func (s *State) allocFromTop(need uintptr) uintptr {
	c := s.top
	predPinuse := c.pinuse()
	remainder := s.topSize - need

	flags := uintptr(cinuseBit)
	if predPinuse {
		flags |= pinuseBit
	}
	c.setHead(need, flags)

	newTop := chunkPtr(uintptr(c) + need)
	newTop.setHead(remainder, pinuseBit|cinuseBit)
	s.top = newTop
	s.topSize = remainder

	return c.payloadOf()
}
