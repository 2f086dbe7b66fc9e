// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package main

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/datawire/dlib/dlog"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"github.com/aaiyer/disk-dlmalloc/lib/diskalloc"
)

func init() {
	subcommands = append(subcommands, subcommand{
		Command: cobra.Command{
			Use:   "smoke",
			Short: "Run a minimal malloc/free/realloc sanity check",
			Args:  cliutil.WrapPositionalArgs(cobra.NoArgs),
		},
		RunE: func(ctx context.Context, h *diskalloc.Handle, cmd *cobra.Command, _ []string) error {
			return runSmoke(ctx, h)
		},
	})
}

// runSmoke is the Go analogue of the original crate's `smoke` test: a
// couple of malloc/write/read/free round-trips, followed by a grow and a
// shrink, each checked against the bytes actually on disk.
func runSmoke(ctx context.Context, h *diskalloc.Handle) error {
	for i, want := range []byte{9, 10} {
		ptr := h.Malloc(1, 1)
		if ptr == 0 {
			return fmt.Errorf("smoke[%d]: malloc(1) returned 0", i)
		}
		b := (*byte)(unsafe.Pointer(ptr))
		*b = want
		if *b != want {
			return fmt.Errorf("smoke[%d]: wrote %d, read back %d", i, want, *b)
		}
		h.Free(ptr, 1, 1)
		dlog.Infof(ctx, "smoke[%d]: malloc/write/read/free of 1 byte OK", i)
	}

	ptr := h.Calloc(64, 8)
	if ptr == 0 {
		return fmt.Errorf("smoke: calloc(64) returned 0")
	}
	view := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), 64)
	for i, b := range view {
		if b != 0 {
			return fmt.Errorf("smoke: calloc(64)[%d] = %d, want 0", i, b)
		}
	}
	for i := range view {
		view[i] = byte(i)
	}

	grown := h.Realloc(ptr, 64, 8, 256)
	if grown == 0 {
		return fmt.Errorf("smoke: realloc grow 64->256 returned 0")
	}
	grownView := unsafe.Slice((*byte)(unsafe.Pointer(grown)), 256)
	for i := 0; i < 64; i++ {
		if grownView[i] != byte(i) {
			return fmt.Errorf("smoke: realloc grow lost byte %d: got %d", i, grownView[i])
		}
	}
	dlog.Info(ctx, "smoke: calloc/realloc-grow preserved content and zeroed fill OK")

	shrunk := h.Realloc(grown, 256, 8, 32)
	if shrunk == 0 {
		return fmt.Errorf("smoke: realloc shrink 256->32 returned 0")
	}
	shrunkView := unsafe.Slice((*byte)(unsafe.Pointer(shrunk)), 32)
	for i := 0; i < 32; i++ {
		if shrunkView[i] != byte(i) {
			return fmt.Errorf("smoke: realloc shrink lost byte %d: got %d", i, shrunkView[i])
		}
	}
	h.Free(shrunk, 32, 8)
	dlog.Info(ctx, "smoke: realloc-shrink preserved content OK")

	h.Trim(0)
	dlog.Infof(ctx, "smoke: final stats: %v", h.Stats())
	return nil
}
