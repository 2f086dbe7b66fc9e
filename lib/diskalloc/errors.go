// Copyright (c) 2026 The disk-dlmalloc Authors
//
// SPDX-License-Identifier: BSD-2-Clause

package diskalloc

import "errors"

// ErrOutOfMemory is returned by every Adapter method in place of a null
// pointer when the underlying heap cannot satisfy a request: no fit, no
// growth, and no successful allocate-copy-free fallback.
var ErrOutOfMemory = errors.New("diskalloc: out of memory")
