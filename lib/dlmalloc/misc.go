// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package dlmalloc

// validateSize reports whether size is small enough that padding it to a
// chunk size cannot overflow a uintptr.
func validateSize(size uintptr) bool {
	const maxRequest = ^uintptr(0) - align - chunkOverhead
	return size <= maxRequest
}

// MallocAlignment is the alignment every payload pointer satisfies
// absent a caller-requested larger alignment via Memalign.
func MallocAlignment() uintptr { return align }

// ValidateSize cross-checks that the chunk at ptr has room for at least
// claimedSize bytes of payload, a contract check for adapters that carry
// a size alongside a pointer instead of re-deriving it from the chunk
// header. A mismatch means the adapter's bookkeeping has drifted from
// the heap's own, which is always a bug in the caller.
func (s *State) ValidateSize(ptr uintptr, claimedSize uintptr) {
	c := chunkFromPayload(ptr)
	if uintptr(c) < s.leastAddr || !c.cinuse() {
		violate("dlmalloc: ValidateSize on an invalid pointer")
	}
	if c.size()-chunkOverhead < claimedSize {
		violate("dlmalloc: ValidateSize: claimed size exceeds chunk capacity")
	}
}

// Calloc returns the payload address of a freshly allocated, zero-filled
// chunk of at least size bytes, or 0 on failure. Elides the zeroing
// memset when the bytes are provably already zero.
func (s *State) Calloc(size uintptr) uintptr {
	ptr, fresh := s.mallocTracked(size)
	if ptr == 0 {
		return 0
	}
	if s.callocMustClear(ptr, fresh) {
		zeroPayload(ptr, chunkFromPayload(ptr).size()-chunkOverhead)
	}
	return ptr
}

// callocMustClear reports whether Calloc must still zero the chunk at
// ptr: false only when fresh (the bytes came from the front of a segment
// newly obtained for this allocation) and the provider guarantees fresh
// regions are zero-filled.
func (s *State) callocMustClear(ptr uintptr, fresh bool) bool {
	if !fresh {
		return true
	}
	return !s.provider.AllocatesZeros()
}

// zeroPayload writes n bytes of zero starting at ptr, a word at a time;
// n is always a multiple of align since it comes from a chunk's padded
// size.
func zeroPayload(ptr uintptr, n uintptr) {
	c := chunkPtr(ptr - chunkOverhead)
	for off := uintptr(0); off+wordSize <= n; off += wordSize {
		*c.word(chunkOverhead + off) = 0
	}
}
