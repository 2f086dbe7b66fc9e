// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package dlmalloc

import "github.com/aaiyer/disk-dlmalloc/lib/segment"

// segInfo tracks one mapped segment obtained from a Provider, so Trim and
// the invariant checker can walk the whole address range a State manages.
type segInfo struct {
	region segment.Region
	// fenceTop is the address of the trailing fencepost chunk, i.e. one
	// past the last byte this segment's free space may use.
	fenceTop uintptr
}

// State is the complete mutable state of one boundary-tag heap: the
// small-bin and tree-bin free lists, the designated victim, the top
// chunk, and the list of segments obtained from a Provider. It holds no
// lock of its own; callers (lib/diskalloc.Handle) serialize all access.
type State struct {
	provider segment.Provider

	smallBins [numSmallBins]chunkPtr
	smallMap  uint32

	treeBins [numTreeBins]chunkPtr
	treeMap  uint32

	// dv is the "designated victim": the most recently split remainder
	// chunk, kept outside the bins proper because it is the preferred
	// source for small requests that don't exactly match a small-bin.
	dv     chunkPtr
	dvSize uintptr

	// top is the chunk at the high end of the most recently obtained
	// segment, serviced last (after bins and dv) but grown via the
	// Provider rather than failing outright when requests don't fit.
	top     chunkPtr
	topSize uintptr

	// leastAddr is the lowest address any segment has ever used, for
	// plausibility-checking addresses passed to Free/Realloc/ValidateSize.
	leastAddr uintptr

	segs []segInfo

	// trimThreshold is the topSize above which free's maybeTrim
	// heuristic attempts a Trim(0).
	trimThreshold uintptr

	// trimThresholdHits counts how many times maybeTrim has fired
	// (topSize exceeded trimThreshold), regardless of whether the
	// provider actually released anything.
	trimThresholdHits uint64

	// footprint is the sum of every segment's length, and maxFootprint
	// the high-water mark; both are purely informational, surfaced via
	// lib/diskalloc's Stats.
	footprint    uintptr
	maxFootprint uintptr
}

// New creates a State backed by p, with no segments yet obtained; the
// first allocation request will pull the initial segment.
func New(p segment.Provider) *State {
	return &State{
		provider:      p,
		trimThreshold: defaultTrimThreshold,
	}
}

// Footprint returns the total number of bytes currently held across all
// of this State's segments.
func (s *State) Footprint() uintptr { return s.footprint }

// MaxFootprint returns the high-water mark of Footprint.
func (s *State) MaxFootprint() uintptr { return s.maxFootprint }
