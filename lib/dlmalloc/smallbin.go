// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package dlmalloc

// smallBinIndex maps a chunk size to its small-bin index. Only even
// indices are ever actually populated, since every real chunk size is a
// multiple of align (16 bytes) while the index divides by 8: this is
// intentional (see malloc.go's small-request path, which exploits it by
// checking bin i and i+1 together).
func smallBinIndex(size uintptr) int {
	return int(size >> 3)
}

// smallBinSize is smallBinIndex's inverse.
func smallBinSize(i int) uintptr {
	return uintptr(i) << 3
}

// insertSmall links c, a free chunk of the given size, at the head of its
// small-bin's circular doubly-linked list.
func (s *State) insertSmall(c chunkPtr, size uintptr) {
	i := smallBinIndex(size)
	head := s.smallBins[i]
	if !head.valid() {
		c.setFd(c)
		c.setBk(c)
		s.smallBins[i] = c
		s.smallMap |= uint32(1) << uint(i)
		return
	}
	tail := head.bk()
	c.setFd(head)
	c.setBk(tail)
	tail.setFd(c)
	head.setBk(c)
	s.smallBins[i] = c
}

// unlinkSmall splices c out of its small-bin's list.
func (s *State) unlinkSmall(c chunkPtr, size uintptr) {
	i := smallBinIndex(size)
	f := c.fd()
	b := c.bk()
	if f == c {
		s.smallBins[i] = 0
		s.smallMap &^= uint32(1) << uint(i)
		return
	}
	b.setFd(f)
	f.setBk(b)
	if s.smallBins[i] == c {
		s.smallBins[i] = f
	}
}

// unlinkSmallHead unlinks and returns the head chunk of small-bin i,
// which must be non-empty.
func (s *State) unlinkSmallHead(i int) chunkPtr {
	c := s.smallBins[i]
	s.unlinkSmall(c, smallBinSize(i))
	return c
}
