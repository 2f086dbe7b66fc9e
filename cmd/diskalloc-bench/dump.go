// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package main

import (
	"context"

	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/aaiyer/disk-dlmalloc/lib/diskalloc"
)

func init() {
	subcommands = append(subcommands, subcommand{
		Command: cobra.Command{
			Use:   "dump",
			Short: "Dump every chunk in the heap, in address order",
			Args:  cliutil.WrapPositionalArgs(cobra.NoArgs),
		},
		RunE: func(_ context.Context, h *diskalloc.Handle, cmd *cobra.Command, _ []string) error {
			dumper := spew.NewDefaultConfig()
			dumper.DisablePointerAddresses = true
			for _, chunk := range h.DebugChunks() {
				dumper.Dump(chunk)
			}
			return nil
		},
	})
}
