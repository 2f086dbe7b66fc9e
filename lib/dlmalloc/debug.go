// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package dlmalloc

import "github.com/aaiyer/disk-dlmalloc/lib/fmtutil"

// ChunkInfo describes one chunk as laid out on disk, for the CLI's dump
// subcommand and for debugging; it carries no pointer back into the
// allocator, so it stays valid after the chunk it describes is
// reused.
type ChunkInfo struct {
	Addr  uintptr
	Size  uintptr
	Flags string
	Role  string // "top", "dv", "free", or "inuse"
}

var chunkFlagNames = []string{"PINUSE", "CINUSE", "FLAG4"}

// DebugChunks walks every segment from its first chunk to its trailing
// fencepost, in address order, describing each chunk it finds. Segments
// are walked independently; nothing here assumes segments are
// contiguous with each other.
func (s *State) DebugChunks() []ChunkInfo {
	var out []ChunkInfo
	for _, seg := range s.segs {
		c := chunkPtr(seg.region.Base)
		for uintptr(c) < seg.fenceTop {
			out = append(out, ChunkInfo{
				Addr:  uintptr(c),
				Size:  c.size(),
				Flags: fmtutil.BitfieldString(uint8(c.headWord()&flagsMask), chunkFlagNames, fmtutil.HexLower),
				Role:  s.roleOf(c),
			})
			c = c.nextChunk()
		}
	}
	return out
}

func (s *State) roleOf(c chunkPtr) string {
	switch c {
	case s.top:
		return "top"
	case s.dv:
		return "dv"
	}
	if c.cinuse() {
		return "inuse"
	}
	return "free"
}
