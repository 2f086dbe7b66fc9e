// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package dlmalloc

import (
	"testing"
)

// checkInvariants walks every chunk and every bin in s and fails t if it
// finds a violation of P1, P2, P3, P4 (dv/top never in a bin), P6 or P9
// from the allocator's testable-properties list. This package's tests
// call it between operations.
func checkInvariants(t *testing.T, s *State) {
	t.Helper()

	binned := make(map[chunkPtr]bool)

	// P3/P4/P6: walk every small-bin and tree-bin, checking size class,
	// bitmap consistency, and that dv/top never appear in a bin.
	for i := 0; i < numSmallBins; i++ {
		head := s.smallBins[i]
		bitSet := s.smallMap&(uint32(1)<<uint(i)) != 0
		if head.valid() != bitSet {
			t.Errorf("P6: smallMap bit %d = %v but bin head valid = %v", i, bitSet, head.valid())
		}
		if !head.valid() {
			continue
		}
		for c := head; ; {
			if c.size() != smallBinSize(i) {
				t.Errorf("P3: chunk %#x in small-bin %d has size %d, want %d", uintptr(c), i, c.size(), smallBinSize(i))
			}
			if c == s.dv || c == s.top {
				t.Errorf("P4: dv/top chunk %#x found in small-bin %d", uintptr(c), i)
			}
			if binned[c] {
				t.Errorf("P3: chunk %#x appears in more than one bin", uintptr(c))
			}
			binned[c] = true
			c = c.fd()
			if c == head {
				break
			}
		}
	}
	for i := 0; i < numTreeBins; i++ {
		root := s.treeBins[i]
		bitSet := s.treeMap&(uint32(1)<<uint(i)) != 0
		if root.valid() != bitSet {
			t.Errorf("P6: treeMap bit %d = %v but bin root valid = %v", i, bitSet, root.valid())
		}
		if !root.valid() {
			continue
		}
		walkTreeNode(t, s, root, i, binned)
	}

	// P1/P2/P9: walk every segment chunk by chunk.
	var live [][2]uintptr
	for _, seg := range s.segs {
		c := chunkPtr(seg.region.Base)
		for uintptr(c) < seg.fenceTop {
			next := c.nextChunk()
			if !c.cinuse() {
				if next.prevFoot() != c.size() {
					t.Errorf("P1: free chunk %#x size %d but next.prevFoot = %d", uintptr(c), c.size(), next.prevFoot())
				}
			}
			if next.pinuse() != c.cinuse() {
				t.Errorf("P2: chunk %#x cinuse=%v but next.pinuse=%v", uintptr(c), c.cinuse(), next.pinuse())
			}
			if c.cinuse() && c != s.top && !c.isFencepost() {
				live = append(live, [2]uintptr{c.payloadOf(), c.payloadOf() + c.size() - chunkOverhead})
			}
			c = next
		}
	}
	for i := 0; i < len(live); i++ {
		for j := i + 1; j < len(live); j++ {
			if live[i][0] < live[j][1] && live[j][0] < live[i][1] {
				t.Errorf("P9: live payloads [%#x,%#x) and [%#x,%#x) overlap", live[i][0], live[i][1], live[j][0], live[j][1])
			}
		}
	}
}

func walkTreeNode(t *testing.T, s *State, node chunkPtr, idx int, binned map[chunkPtr]bool) {
	t.Helper()
	if !node.valid() {
		return
	}
	for c := node; ; {
		if treeIndexFor(c.size()) != idx {
			t.Errorf("P3: chunk %#x in tree-bin %d has size %d mapping to bin %d", uintptr(c), idx, c.size(), treeIndexFor(c.size()))
		}
		if c == s.dv || c == s.top {
			t.Errorf("P4: dv/top chunk %#x found in tree-bin %d", uintptr(c), idx)
		}
		if binned[c] {
			t.Errorf("P3: chunk %#x appears in more than one bin", uintptr(c))
		}
		binned[c] = true
		c = c.fd()
		if c == node {
			break
		}
	}
	walkTreeNode(t, s, node.child0(), idx, binned)
	walkTreeNode(t, s, node.child1(), idx, binned)
}

func TestInvariantsAfterMixedOps(t *testing.T) {
	t.Parallel()
	s := newTestState(t, 1<<20)
	checkInvariants(t, s)

	var live []uintptr
	sizes := []uintptr{8, 24, 200, 1024, 4096, 65536}
	for _, sz := range sizes {
		p := s.Malloc(sz)
		if p == 0 {
			t.Fatalf("Malloc(%d) failed", sz)
		}
		live = append(live, p)
		checkInvariants(t, s)
	}
	for i := len(live) - 1; i >= 0; i-- {
		s.Free(live[i])
		checkInvariants(t, s)
	}

	for _, sz := range sizes {
		p := s.Malloc(sz)
		if p == 0 {
			t.Fatalf("re-Malloc(%d) failed", sz)
		}
		s.Free(p)
		checkInvariants(t, s)
	}
}
