// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package textui_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aaiyer/disk-dlmalloc/lib/textui"
)

func TestFprintf(t *testing.T) {
	t.Parallel()
	var out strings.Builder
	textui.Fprintf(&out, "%d", 12345)
	assert.Equal(t, "12,345", out.String())
}

func TestHumanized(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "12,345", fmt.Sprint(textui.Humanized(12345)))
	assert.Equal(t, "12,345  ", fmt.Sprintf("%-8d", textui.Humanized(12345)))

	type addr uintptr
	a := addr(345243543)
	assert.Equal(t, "345,243,543", fmt.Sprintf("%d", textui.Humanized(uint64(a))))
}

func TestPortion(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "100% (0/0)", fmt.Sprint(textui.Portion[int]{}))
	assert.Equal(t, "0% (1/12,345)", fmt.Sprint(textui.Portion[int]{N: 1, D: 12345}))
	assert.Equal(t, "100% (0/0)", fmt.Sprint(textui.Portion[uint]{}))
	assert.Equal(t, "0% (1/12,345)", fmt.Sprint(textui.Portion[uint]{N: 1, D: 12345}))
}

func TestIEC(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "0B", fmt.Sprint(textui.IEC(0, "B")))
	assert.Equal(t, "1KiB", fmt.Sprint(textui.IEC(1024, "B")))
	assert.Equal(t, "1.5KiB", fmt.Sprint(textui.IEC(1536, "B")))
}
