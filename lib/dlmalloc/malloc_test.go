// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package dlmalloc

import "testing"

// TestBinCrossover covers scenario 2: allocate a spread of sizes that
// land in the small-bins and the tree-bins, free them in reverse order,
// then allocate the same sizes again and expect every one of them to be
// satisfied without the segment list growing (the freed chunks should
// be fully reused).
func TestBinCrossover(t *testing.T) {
	t.Parallel()
	s := newTestState(t, 1<<20)
	sizes := []uintptr{8, 24, 200, 1024, 65536}

	var live []uintptr
	for _, sz := range sizes {
		p := s.Malloc(sz)
		if p == 0 {
			t.Fatalf("Malloc(%d) failed", sz)
		}
		live = append(live, p)
	}
	checkInvariants(t, s)
	segCount := len(s.segs)

	for i := len(live) - 1; i >= 0; i-- {
		s.Free(live[i])
	}
	checkInvariants(t, s)

	for _, sz := range sizes {
		p := s.Malloc(sz)
		if p == 0 {
			t.Fatalf("re-Malloc(%d) failed", sz)
		}
	}
	checkInvariants(t, s)

	if len(s.segs) != segCount {
		t.Errorf("segment count changed from %d to %d reallocating the same sizes after freeing all of them", segCount, len(s.segs))
	}
}

// TestMemalign covers scenario 3: a memalign'd payload must land on the
// requested alignment boundary, and freeing and reallocating the same
// aligned size must not regress the heap's usable capacity.
func TestMemalign(t *testing.T) {
	t.Parallel()
	s := newTestState(t, 1<<20)

	p := s.Memalign(4096, 100)
	if p == 0 {
		t.Fatal("Memalign(4096, 100) failed")
	}
	if p%4096 != 0 {
		t.Errorf("Memalign(4096, 100) = %#x, not aligned to 4096", p)
	}
	checkInvariants(t, s)

	footprintBefore := s.Stats().Footprint
	s.Free(p)
	checkInvariants(t, s)

	p2 := s.Memalign(4096, 100)
	if p2 == 0 {
		t.Fatal("re-Memalign(4096, 100) failed")
	}
	if p2%4096 != 0 {
		t.Errorf("re-Memalign(4096, 100) = %#x, not aligned to 4096", p2)
	}
	if s.Stats().Footprint > footprintBefore {
		t.Errorf("footprint grew from %d to %d reallocating the same aligned size", footprintBefore, s.Stats().Footprint)
	}
	checkInvariants(t, s)
}

// TestMemalignVariousAlignments covers P5: for a handful of power-of-two
// alignments, the returned payload address must be a multiple of the
// requested alignment.
func TestMemalignVariousAlignments(t *testing.T) {
	t.Parallel()
	s := newTestState(t, 1<<20)
	for _, a := range []uintptr{align, 32, 64, 256, 4096} {
		p := s.Memalign(a, 48)
		if p == 0 {
			t.Fatalf("Memalign(%d, 48) failed", a)
		}
		if p%a != 0 {
			t.Errorf("Memalign(%d, 48) = %#x, not aligned to %d", a, p, a)
		}
	}
	checkInvariants(t, s)
}

// TestReallocShrinkInPlace covers scenario 4: shrinking a chunk with
// Realloc must return the same pointer, and the bytes released to the
// tail must become a usable free chunk (or be absorbed into a
// following free neighbor) rather than vanishing.
func TestReallocShrinkInPlace(t *testing.T) {
	t.Parallel()
	s := newTestState(t, 1<<20)

	p := s.Malloc(1024)
	if p == 0 {
		t.Fatal("Malloc(1024) failed")
	}
	freeBefore := s.Stats().BytesFree

	p2, ok := s.Realloc(p, 100)
	if !ok {
		t.Fatal("Realloc shrink 1024->100 reported ok=false")
	}
	if p2 != p {
		t.Errorf("Realloc shrink returned %#x, want same pointer %#x", p2, p)
	}
	checkInvariants(t, s)

	if s.Stats().BytesFree <= freeBefore {
		t.Errorf("BytesFree did not increase after shrinking in place: before=%d after=%d", freeBefore, s.Stats().BytesFree)
	}

	c := chunkFromPayload(p)
	if c.size() < padRequest(100) {
		t.Errorf("chunk size %d smaller than padded request for 100", c.size())
	}
}

// TestReallocGrowInPlace exercises the symmetric growth path: growing
// into a free next-neighbor (including the top chunk) must not move the
// pointer.
func TestReallocGrowInPlace(t *testing.T) {
	t.Parallel()
	s := newTestState(t, 1<<20)

	p := s.Malloc(64)
	if p == 0 {
		t.Fatal("Malloc(64) failed")
	}
	// p's next chunk is top, which is always "free" for growth purposes.
	p2, ok := s.Realloc(p, 1024)
	if !ok {
		t.Fatal("Realloc grow into top reported ok=false")
	}
	if p2 != p {
		t.Errorf("Realloc grow into top returned %#x, want same pointer %#x", p2, p)
	}
	checkInvariants(t, s)

	c := chunkFromPayload(p)
	if c.size() < padRequest(1024) {
		t.Errorf("chunk size %d smaller than padded request for 1024", c.size())
	}
}

// TestExhaustion covers scenario 5: repeatedly allocating fixed-size
// chunks out of a bounded heap must eventually fail cleanly (return 0,
// never panic or corrupt state), and freeing everything must restore
// enough capacity to repeat the same sequence of successes.
func TestExhaustion(t *testing.T) {
	t.Parallel()
	const totalSize = 1 << 20 // 1,048,576
	s := newTestState(t, totalSize)

	var live []uintptr
	for {
		p := s.Malloc(1024)
		if p == 0 {
			break
		}
		live = append(live, p)
	}
	checkInvariants(t, s)

	if len(live) < 900 {
		t.Errorf("only %d allocations of 1024 bytes succeeded in a %d-byte heap, want at least 900", len(live), totalSize)
	}

	firstRoundCount := len(live)
	for _, p := range live {
		s.Free(p)
	}
	checkInvariants(t, s)

	var secondRound []uintptr
	for {
		p := s.Malloc(1024)
		if p == 0 {
			break
		}
		secondRound = append(secondRound, p)
	}
	checkInvariants(t, s)

	if len(secondRound) != firstRoundCount {
		t.Errorf("second exhaustion round succeeded %d times, want %d (same as first round after freeing everything)", len(secondRound), firstRoundCount)
	}
}
