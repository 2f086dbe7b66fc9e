// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package dlmalloc

// addSegment asks the provider for at least need bytes of fresh address
// space, reserves room for a trailing two-chunk fencepost, and installs
// the result either by extending the existing top (if the provider
// happened to hand back memory contiguous with the previous segment) or
// by retiring the old top as an ordinary free chunk and adopting the new
// region as the new top. Reports whether a usable segment was obtained.
func (s *State) addSegment(need uintptr) bool {
	req := need + 2*minChunkSize
	region := s.provider.Alloc(req)
	if !region.Valid() || region.Size < 2*minChunkSize {
		return false
	}

	s.footprint += region.Size
	if s.footprint > s.maxFootprint {
		s.maxFootprint = s.footprint
	}
	if s.leastAddr == 0 || region.Base < s.leastAddr {
		s.leastAddr = region.Base
	}

	contiguous := len(s.segs) > 0 && s.top.valid() &&
		s.segs[len(s.segs)-1].fenceTop+2*minChunkSize == region.Base

	if contiguous {
		last := &s.segs[len(s.segs)-1]
		last.region.Size += region.Size
		newFenceTop := last.fenceTop + region.Size
		flags := s.top.headWord() & flagsMask
		newTopSize := newFenceTop - uintptr(s.top)
		s.top.setHead(newTopSize, flags)
		s.topSize = newTopSize
		last.fenceTop = newFenceTop
		s.placeFencepost(newFenceTop)
		return true
	}

	if s.top.valid() {
		oldTop := s.top
		s.top, s.topSize = 0, 0
		s.freeChunk(oldTop)
	}

	fenceTop := region.Base + region.Size - 2*minChunkSize
	top := chunkPtr(region.Base)
	top.setHead(fenceTop-region.Base, pinuseBit|cinuseBit)
	s.top = top
	s.topSize = fenceTop - region.Base
	s.segs = append(s.segs, segInfo{region: region, fenceTop: fenceTop})
	s.placeFencepost(fenceTop)
	return true
}

// placeFencepost writes the two minimum-size, permanently in-use chunks
// that terminate a segment at address fenceTop, so that nextChunk/
// prevChunk walks started from any real chunk in the segment always
// land on well-formed headers instead of running off the mapping.
func (s *State) placeFencepost(fenceTop uintptr) {
	f0 := chunkPtr(fenceTop)
	f1 := chunkPtr(fenceTop + minChunkSize)
	f0.setHead(minChunkSize, pinuseBit|cinuseBit)
	f1.setHead(minChunkSize, pinuseBit|cinuseBit)
}
