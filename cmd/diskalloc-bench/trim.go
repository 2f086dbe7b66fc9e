// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package main

import (
	"context"

	"github.com/datawire/dlib/dlog"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"github.com/aaiyer/disk-dlmalloc/lib/diskalloc"
)

func init() {
	var pad uint64
	cmd := subcommand{
		Command: cobra.Command{
			Use:   "trim",
			Short: "Release unused trailing pages back to the backing file",
			Args:  cliutil.WrapPositionalArgs(cobra.NoArgs),
		},
		RunE: func(ctx context.Context, h *diskalloc.Handle, cmd *cobra.Command, _ []string) error {
			released := h.Trim(uintptr(pad))
			dlog.Infof(ctx, "trim: released=%v stats=%v", released, h.Stats())
			return nil
		},
	}
	cmd.Flags().Uint64Var(&pad, "pad", 0, "bytes of top slack to keep, in `bytes`")
	subcommands = append(subcommands, cmd)
}
