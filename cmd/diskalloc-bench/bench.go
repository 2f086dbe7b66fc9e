// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"
	"unsafe"

	"github.com/datawire/dlib/dlog"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"github.com/aaiyer/disk-dlmalloc/lib/diskalloc"
	"github.com/aaiyer/disk-dlmalloc/lib/textui"
)

func init() {
	var seed int64
	var iters int
	var maxSize int
	var maxLive int

	cmd := subcommand{
		Command: cobra.Command{
			Use:   "bench",
			Short: "Hammer the heap with a seeded pseudo-random workload",
			Args:  cliutil.WrapPositionalArgs(cobra.NoArgs),
		},
		RunE: func(ctx context.Context, h *diskalloc.Handle, cmd *cobra.Command, _ []string) error {
			return runBench(ctx, h, seed, iters, maxSize, maxLive)
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "PRNG seed, for reproducing a run")
	cmd.Flags().IntVar(&iters, "iters", 20000, "number of malloc/free/realloc operations to perform")
	cmd.Flags().IntVar(&maxSize, "max-size", 8192, "largest single allocation, in `bytes`")
	cmd.Flags().IntVar(&maxLive, "max-live", 512, "largest number of simultaneously live allocations")
	subcommands = append(subcommands, cmd)
}

type liveAlloc struct {
	ptr   uintptr
	size  uintptr
	align uintptr
	fill  byte
}

// runBench is the Go analogue of the original crate's seeded SmallRng
// stress test (`_examples/original_source/tests/smoke.rs`'s `stress`
// test): a single reproducible PRNG stream drives a mix of malloc, free,
// and realloc operations against live allocations, each one filled with
// and checked against a byte pattern so silent corruption fails loudly
// instead of only showing up as a later crash.
func runBench(ctx context.Context, h *diskalloc.Handle, seed int64, iters, maxSize, maxLive int) error {
	rng := rand.New(rand.NewSource(seed))
	live := make([]liveAlloc, 0, maxLive)

	progress := textui.NewProgress[textui.Portion[int]](ctx, dlog.LogLevelInfo, textui.Tunable(1*time.Second))
	defer progress.Done()

	for i := 0; i < iters; i++ {
		progress.Set(textui.Portion[int]{N: i, D: iters})

		switch {
		case len(live) == 0 || (len(live) < maxLive && rng.Intn(2) == 0):
			size := uintptr(1 + rng.Intn(maxSize))
			align := uintptr(1) << uint(rng.Intn(5))
			fill := byte(rng.Intn(256))

			ptr := h.Malloc(size, align)
			if ptr == 0 {
				continue
			}
			if ptr%align != 0 {
				return fmt.Errorf("bench[%d]: malloc(size=%d,align=%d) returned misaligned pointer %#x", i, size, align, ptr)
			}
			fillBytes(ptr, size, fill)
			live = append(live, liveAlloc{ptr: ptr, size: size, align: align, fill: fill})

		case rng.Intn(4) == 0:
			idx := rng.Intn(len(live))
			a := live[idx]
			if err := checkBytes(a.ptr, a.size, a.fill); err != nil {
				return fmt.Errorf("bench[%d]: %w", i, err)
			}
			newSize := uintptr(1 + rng.Intn(maxSize))
			newPtr := h.Realloc(a.ptr, a.size, a.align, newSize)
			if newPtr == 0 {
				continue
			}
			if newPtr%a.align != 0 {
				return fmt.Errorf("bench[%d]: realloc returned misaligned pointer %#x", i, newPtr)
			}
			kept := a.size
			if newSize < kept {
				kept = newSize
			}
			if err := checkBytes(newPtr, kept, a.fill); err != nil {
				return fmt.Errorf("bench[%d]: realloc lost content: %w", i, err)
			}
			fillBytes(newPtr, newSize, a.fill)
			live[idx] = liveAlloc{ptr: newPtr, size: newSize, align: a.align, fill: a.fill}

		default:
			idx := rng.Intn(len(live))
			a := live[idx]
			if err := checkBytes(a.ptr, a.size, a.fill); err != nil {
				return fmt.Errorf("bench[%d]: %w", i, err)
			}
			h.Free(a.ptr, a.size, a.align)
			live[idx] = live[len(live)-1]
			live = live[:len(live)-1]
		}
	}

	for _, a := range live {
		if err := checkBytes(a.ptr, a.size, a.fill); err != nil {
			return fmt.Errorf("bench: final check: %w", err)
		}
		h.Free(a.ptr, a.size, a.align)
	}

	dlog.Infof(ctx, "bench: %d iterations OK; final stats: %v", iters, h.Stats())
	return nil
}

func fillBytes(ptr, size uintptr, fill byte) {
	b := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), int(size))
	for i := range b {
		b[i] = fill ^ byte(i)
	}
}

func checkBytes(ptr, size uintptr, fill byte) error {
	b := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), int(size))
	for i, got := range b {
		if want := fill ^ byte(i); got != want {
			return fmt.Errorf("corrupted byte %d: got %d, want %d", i, got, want)
		}
	}
	return nil
}
