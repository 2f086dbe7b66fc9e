// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package segment

import "unsafe"

// unsafeSliceData returns the address of b's first byte. Equivalent to
// the unsafe.SliceData builtin (Go 1.20+), spelled out by hand since
// this module targets Go 1.19.
func unsafeSliceData(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}
