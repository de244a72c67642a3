// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package dsais

import (
	"path/filepath"
	"testing"

	"github.com/dsnet/extsa/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	text := []uint8{2, 1, 1, 2, 1, 3}
	var vectors = []struct {
		sa []int64
		ok bool
	}{
		{[]int64{1, 2, 4, 0, 3, 5}, true},
		{[]int64{2, 1, 4, 0, 3, 5}, false},
		{[]int64{1, 2, 4, 0, 3, 3}, false},
		{[]int64{1, 2, 4, 0, 3, 6}, false},
		{[]int64{1, 2, 4, 0, 3}, false},
		{[]int64{5, 3, 0, 4, 2, 1}, false},
	}
	for _, v := range vectors {
		res := Check(text, v.sa)
		assert.Equal(t, v.ok, res.OK, "Check(%v): %v", v.sa, res)
		if !v.ok {
			assert.NotEmpty(t, res.Reason)
		}
	}
	assert.True(t, Check([]uint8{}, []int64{}).OK)
}

func TestCheckFile(t *testing.T) {
	r := testutil.NewRand(11)
	vals := r.Symbols(1500, 3)
	sa := testutil.NaiveSA(vals)
	dir := t.TempDir()
	in := filepath.Join(dir, "text")
	testutil.MustWriteFile(in, 1, vals)

	write := func(name string, sa []int64) string {
		v := make([]uint64, len(sa))
		for i, p := range sa {
			v[i] = uint64(p)
		}
		p := filepath.Join(dir, name)
		testutil.MustWriteFile(p, DefaultOffsetWidth, v)
		return p
	}

	swapped := append([]int64(nil), sa...)
	swapped[100], swapped[101] = swapped[101], swapped[100]
	dup := append([]int64(nil), sa...)
	dup[7] = dup[8]
	huge := append([]int64(nil), sa...)
	huge[0] = 1 << 33

	var vectors = []struct {
		path string
		ok   bool
	}{
		{write("good", sa), true},
		{write("swapped", swapped), false},
		{write("dup", dup), false},
		{write("huge", huge), false},
		{write("short", sa[1:]), false},
	}
	for _, v := range vectors {
		res, err := CheckFile(in, v.path, smallConfig(t))
		require.NoError(t, err)
		assert.Equal(t, v.ok, res.OK, "%s: %v", filepath.Base(v.path), res)
	}
}
