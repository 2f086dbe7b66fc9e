// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

// Command diskalloc-bench exercises a file-backed dlmalloc heap from the
// command line: smoke-testing its invariants, hammering it with a
// pseudo-random workload, dumping its structure, and reporting its
// statistics.
package main

import (
	"context"
	"os"

	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"github.com/aaiyer/disk-dlmalloc/lib/diskalloc"
	"github.com/aaiyer/disk-dlmalloc/lib/profile"
	"github.com/aaiyer/disk-dlmalloc/lib/textui"
)

// subcommand bundles a cobra.Command with a handler that already has an
// open *diskalloc.Handle and a logging context, the way the teacher's
// subcommand type bundles a handler that already has an open *btrfs.FS.
type subcommand struct {
	cobra.Command
	RunE func(ctx context.Context, h *diskalloc.Handle, cmd *cobra.Command, args []string) error
}

var subcommands []subcommand

func main() {
	logLevel := textui.LogLevelFlag{Level: dlog.LogLevelInfo}
	var heapPath string
	var heapSize uint64

	argparser := &cobra.Command{
		Use:   "diskalloc-bench {[flags]|SUBCOMMAND}",
		Short: "Exercise a file-backed dlmalloc heap",

		Args: cliutil.WrapPositionalArgs(cliutil.OnlySubcommands),
		RunE: cliutil.RunSubcommands,

		SilenceErrors: true,
		SilenceUsage:  true,

		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	argparser.SetFlagErrorFunc(cliutil.FlagErrorFunc)
	argparser.SetHelpTemplate(cliutil.HelpTemplate)
	argparser.PersistentFlags().Var(&logLevel, "verbosity", "set the verbosity")
	argparser.PersistentFlags().StringVar(&heapPath, "heap", "diskalloc-bench.heap", "backing `file` for the heap")
	argparser.PersistentFlags().Uint64Var(&heapSize, "heap-size", 64<<20, "reserved address space, in `bytes`")
	if err := argparser.MarkPersistentFlagFilename("heap"); err != nil {
		panic(err)
	}
	stopProfiling := profile.AddProfileFlags(argparser.PersistentFlags(), "prof-")

	for _, child := range subcommands {
		cmd := child.Command
		runE := child.RunE
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = dlog.WithLogger(ctx, textui.NewLogger(os.Stderr, logLevel.Level))

			grp := dgroup.NewGroup(ctx, dgroup.GroupConfig{
				EnableSignalHandling: true,
			})
			grp.Go("main", func(ctx context.Context) (err error) {
				h, err := diskalloc.New(heapPath, uintptr(heapSize), nil)
				if err != nil {
					return err
				}
				defer func() {
					if cerr := h.Close(); err == nil {
						err = cerr
					}
				}()
				cmd.SetContext(ctx)
				return runE(ctx, h, cmd, args)
			})
			return grp.Wait()
		}
		argparser.AddCommand(&cmd)
	}

	runErr := argparser.ExecuteContext(context.Background())
	if err := stopProfiling(); err != nil {
		textui.Fprintf(os.Stderr, "%v: error stopping profiler: %v\n", argparser.CommandPath(), err)
	}
	if runErr != nil {
		textui.Fprintf(os.Stderr, "%v: error: %v\n", argparser.CommandPath(), runErr)
		os.Exit(1)
	}
}
