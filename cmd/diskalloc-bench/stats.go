// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package main

import (
	"bufio"
	"context"
	"os"

	"github.com/datawire/dlib/dlog"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"github.com/aaiyer/disk-dlmalloc/lib/diskalloc"
)

func init() {
	var asJSON bool
	cmd := subcommand{
		Command: cobra.Command{
			Use:   "stats",
			Short: "Report heap statistics",
			Args:  cliutil.WrapPositionalArgs(cobra.NoArgs),
		},
		RunE: func(ctx context.Context, h *diskalloc.Handle, cmd *cobra.Command, _ []string) error {
			stats := h.Stats()
			if !asJSON {
				dlog.Info(ctx, stats.String())
				return nil
			}
			out := bufio.NewWriter(os.Stdout)
			defer out.Flush()
			return stats.WriteJSON(out)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit machine-readable JSON instead of a log line")
	subcommands = append(subcommands, cmd)
}
