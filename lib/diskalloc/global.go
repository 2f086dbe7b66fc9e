// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package diskalloc

import (
	"fmt"
	"sync"

	"github.com/aaiyer/disk-dlmalloc/lib/segment"
)

var (
	globalOnce sync.Once
	globalErr  error
	global     *Handle
)

// EnableGlobal opens path as the process-wide allocator and must be
// called at most once, before Global is ever used. There is no implicit
// global heap: a program that never calls EnableGlobal never touches a
// file, matching the core's own lazy-segment-acquisition discipline.
func EnableGlobal(path string, totalSize uintptr, advice *segment.Advice) error {
	var err error
	globalOnce.Do(func() {
		global, err = New(path, totalSize, advice)
		globalErr = err
	})
	if global == nil {
		return fmt.Errorf("diskalloc: EnableGlobal: %w", globalErr)
	}
	if err != nil {
		return err
	}
	return nil
}

// Global returns the process-wide Handle installed by EnableGlobal. It
// panics if EnableGlobal was never called successfully: callers that
// want to opt into global-allocator mode are expected to call
// EnableGlobal during program startup, once, before any use of Global.
func Global() *Handle {
	if global == nil {
		violateGlobal()
	}
	return global
}

func violateGlobal() {
	panic("diskalloc: Global used before a successful EnableGlobal call")
}
