// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package dlmalloc

// Trim asks the provider to release whole pages from the tail of top's
// segment, keeping at least pad bytes (rounded up to a page) of top
// intact. Reports whether any bytes were actually released; a false
// return means either there was nothing releasable or the provider
// declined (FileProvider always declines, per its documented design).
func (s *State) trim(pad uintptr) bool {
	if !s.top.valid() || len(s.segs) == 0 {
		return false
	}
	seg := &s.segs[len(s.segs)-1]
	if !s.provider.CanReleasePart(seg.region.Flags) {
		return false
	}

	pageSize := s.provider.PageSize()
	if pageSize == 0 {
		pageSize = 1
	}
	keep := roundUpTo(pad, pageSize)
	if s.topSize <= keep {
		return false
	}

	releasable := ((s.topSize - keep) / pageSize) * pageSize
	if releasable == 0 {
		return false
	}

	oldSize := seg.region.Size
	newSize := oldSize - releasable
	if !s.provider.FreePart(seg.region.Base, oldSize, newSize) {
		return false
	}

	seg.region.Size = newSize
	seg.fenceTop -= releasable
	s.footprint -= releasable

	flags := s.top.headWord() & flagsMask
	newTopSize := s.topSize - releasable
	s.top.setHead(newTopSize, flags)
	s.topSize = newTopSize
	s.placeFencepost(seg.fenceTop)
	return true
}

// Trim is the public entry point for the same operation, usable
// directly by callers (the CLI's trim subcommand, tests) in addition to
// free's internal heuristic call.
func (s *State) Trim(pad uintptr) bool { return s.trim(pad) }
