// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package diskalloc

import "unsafe"

// asSlice views the n bytes at addr as a Go byte slice, for use with the
// standard library's copy/clear built-ins. addr always points into a
// Provider's mapped region, never Go-heap memory, so this does not run
// afoul of the usual unsafe.Pointer rules about pointing into
// GC-managed objects.
func asSlice(addr, n uintptr) []byte {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(n))
}

func zeroRange(addr, n uintptr) {
	b := asSlice(addr, n)
	for i := range b {
		b[i] = 0
	}
}

func copyRange(dst, src, n uintptr) {
	copy(asSlice(dst, n), asSlice(src, n))
}
