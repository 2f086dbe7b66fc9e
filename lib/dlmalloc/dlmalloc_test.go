// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package dlmalloc

import (
	"path/filepath"
	"testing"

	"github.com/aaiyer/disk-dlmalloc/lib/segment"
)

// newTestState returns a State backed by a fresh file-mapped Provider,
// cleaned up automatically at the end of the test.
func newTestState(t *testing.T, totalSize uintptr) *State {
	t.Helper()
	p, err := segment.NewFileProvider(filepath.Join(t.TempDir(), "heap"), totalSize)
	if err != nil {
		t.Fatalf("NewFileProvider: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return New(p)
}
