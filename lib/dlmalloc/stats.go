// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package dlmalloc

import "math/bits"

// Stats is a point-in-time snapshot of one State's bookkeeping, with no
// pointer into the allocator's own memory: safe to copy, log, or encode
// after the lock guarding the State has been released.
type Stats struct {
	Segments          int
	Footprint         uintptr
	MaxFootprint      uintptr
	BytesFree         uintptr
	BytesInUse        uintptr
	TrimThresholdHits uint64
}

// Stats computes a Stats snapshot. It walks every small-bin and tree-bin
// list to total up free bytes, so it is O(number of free chunks); callers
// doing this often (a live progress display) should rate-limit rather
// than call it on every operation.
func (s *State) Stats() Stats {
	free := s.topSize + s.dvSize
	free += s.freeBytesInSmallBins()
	free += s.freeBytesInTreeBins()

	return Stats{
		Segments:          len(s.segs),
		Footprint:         s.footprint,
		MaxFootprint:      s.maxFootprint,
		BytesFree:         free,
		BytesInUse:        s.footprint - free,
		TrimThresholdHits: s.trimThresholdHits,
	}
}

func (s *State) freeBytesInSmallBins() uintptr {
	var total uintptr
	mask := s.smallMap
	for mask != 0 {
		i := bits.TrailingZeros32(mask)
		mask &^= uint32(1) << uint(i)

		head := s.smallBins[i]
		size := smallBinSize(i)
		for c := head; ; {
			total += size
			c = c.fd()
			if c == head {
				break
			}
		}
	}
	return total
}

func (s *State) freeBytesInTreeBins() uintptr {
	var total uintptr
	mask := s.treeMap
	for mask != 0 {
		i := bits.TrailingZeros32(mask)
		mask &^= uint32(1) << uint(i)
		total += sumTreeNode(s.treeBins[i])
	}
	return total
}

// sumTreeNode totals node's own duplicates ring plus both subtrees.
func sumTreeNode(node chunkPtr) uintptr {
	if !node.valid() {
		return 0
	}
	var total uintptr
	for c := node; ; {
		total += c.size()
		c = c.fd()
		if c == node {
			break
		}
	}
	total += sumTreeNode(node.child0())
	total += sumTreeNode(node.child1())
	return total
}
