// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package diskalloc

import (
	"io"
	"sync"
	"time"

	"git.lukeshu.com/go/lowmemjson"

	"github.com/aaiyer/disk-dlmalloc/lib/textui"
)

// Stats is a point-in-time snapshot of a Handle's heap, safe to encode or
// print after the Handle's lock has been released.
type Stats struct {
	Segments          int     `json:"segments"`
	FootprintBytes    uintptr `json:"footprint_bytes"`
	MaxFootprintBytes uintptr `json:"max_footprint_bytes"`
	FreeBytes         uintptr `json:"free_bytes"`
	InUseBytes        uintptr `json:"in_use_bytes"`
	TrimThresholdHits uint64  `json:"trim_threshold_hits"`
}

// Stats snapshots the current heap state.
func (h *Handle) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := h.state.Stats()
	return Stats{
		Segments:          st.Segments,
		FootprintBytes:    st.Footprint,
		MaxFootprintBytes: st.MaxFootprint,
		FreeBytes:         st.BytesFree,
		InUseBytes:        st.BytesInUse,
		TrimThresholdHits: st.TrimThresholdHits,
	}
}

// WriteJSON encodes s to w the same low-allocation way the rest of this
// module's tooling writes large JSON values: a re-encoder rather than
// building an intermediate string, at the cost of being line-buffered
// rather than emitting in one Write call.
func (s Stats) WriteJSON(w io.Writer) error {
	return lowmemjson.Encode(&lowmemjson.ReEncoder{
		Out:    w,
		Indent: "\t",
	}, s)
}

// String renders s with human-friendly byte counts, the way textui's
// IEC helper renders any other byte-count-shaped value.
func (s Stats) String() string {
	return textui.Sprintf(
		"segments=%d footprint=%v max_footprint=%v free=%v in_use=%v trim_threshold_hits=%d",
		s.Segments,
		textui.IEC(s.FootprintBytes, "B"),
		textui.IEC(s.MaxFootprintBytes, "B"),
		textui.IEC(s.FreeBytes, "B"),
		textui.IEC(s.InUseBytes, "B"),
		s.TrimThresholdHits,
	)
}

// LiveStats is a mutex-guarded, rate-limited fmt.Stringer over a Handle's
// Stats, for use with textui.Progress during long-running bench/smoke
// runs: recomputing Stats walks every free chunk, so callers printing it
// on every operation would rather pay that cost at most once per
// UpdateInterval. This plays the same role for the on-disk heap that the
// teacher's runtime.MemStats-based live Stringer played for the Go heap.
type LiveStats struct {
	handle *Handle

	mu   sync.Mutex
	last time.Time
	cur  Stats
}

// UpdateInterval bounds how often LiveStats.String recomputes Stats.
var UpdateInterval = textui.Tunable(1 * time.Second)

// NewLiveStats returns a LiveStats over h.
func NewLiveStats(h *Handle) *LiveStats {
	return &LiveStats{handle: h}
}

// String implements fmt.Stringer.
func (l *LiveStats) String() string {
	l.mu.Lock()
	if now := time.Now(); now.Sub(l.last) > UpdateInterval {
		l.cur = l.handle.Stats()
		l.last = now
	}
	cur := l.cur
	l.mu.Unlock()
	return cur.String()
}
