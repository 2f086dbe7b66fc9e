// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package dlmalloc

import "testing"

func TestPadRequest(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want uintptr
	}{
		{0, minChunkSize},
		{1, minChunkSize},
		{minChunkSize - chunkOverhead, minChunkSize},
		{minChunkSize - chunkOverhead + 1, minChunkSize + align},
		{100, roundUpToAlign(100 + chunkOverhead)},
	}
	for _, tt := range tests {
		if got := padRequest(tt.in); got != tt.want {
			t.Errorf("padRequest(%d) = %d, want %d", tt.in, got, tt.want)
		}
		if got := padRequest(tt.in); got%align != 0 {
			t.Errorf("padRequest(%d) = %d, not aligned to %d", tt.in, got, align)
		}
	}
}

func TestChunkHeaderRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestState(t, 1<<20)
	ptr := s.Malloc(64)
	if ptr == 0 {
		t.Fatal("Malloc(64) returned 0")
	}
	c := chunkFromPayload(ptr)

	if !c.cinuse() {
		t.Error("freshly allocated chunk should be cinuse")
	}
	if c.payloadOf() != ptr {
		t.Errorf("payloadOf(chunkFromPayload(ptr)) = %#x, want %#x", c.payloadOf(), ptr)
	}

	gotSize := c.size()
	if gotSize < padRequest(64) {
		t.Errorf("chunk size %d smaller than padded request %d", gotSize, padRequest(64))
	}

	next := c.nextChunk()
	if !next.pinuse() {
		t.Error("chunk following an in-use chunk should have PINUSE set")
	}
}

func TestSetHeadPreservesOnlyRequestedFlags(t *testing.T) {
	t.Parallel()
	s := newTestState(t, 1<<20)
	ptr := s.Malloc(64)
	c := chunkFromPayload(ptr)

	c.setHead(128, pinuseBit|cinuseBit)
	if c.size() != 128 {
		t.Errorf("size = %d, want 128", c.size())
	}
	if !c.pinuse() || !c.cinuse() || c.flag4() {
		t.Errorf("flags after setHead(128, PINUSE|CINUSE): pinuse=%v cinuse=%v flag4=%v", c.pinuse(), c.cinuse(), c.flag4())
	}

	c.setSizeKeepFlags(256)
	if c.size() != 256 {
		t.Errorf("size after setSizeKeepFlags = %d, want 256", c.size())
	}
	if !c.pinuse() || !c.cinuse() {
		t.Error("setSizeKeepFlags must not disturb existing flags")
	}
}
