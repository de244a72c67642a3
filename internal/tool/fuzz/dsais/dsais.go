// Copyright 2016, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

//go:build gofuzz

package dsais

import (
	"bytes"
	"os"

	"github.com/dsnet/extsa/bwt"
	"github.com/dsnet/extsa/dsais"
	"github.com/dsnet/extsa/internal/sais"
)

func Fuzz(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	want := testMemory(data)
	for _, capacity := range []int64{0, 1, 2, 7} {
		testExternal(data, capacity, want)
	}
	testTransform(data)
	return 1
}

// testMemory computes the suffix array with the in-memory algorithm.
func testMemory(data []byte) []int64 {
	sa := make([]int, len(data))
	sais.ComputeSA(data, sa, 256)
	want := make([]int64, len(sa))
	for i, p := range sa {
		want[i] = int64(p)
	}
	if res := dsais.Check(data, want); !res.OK {
		panic(res.Reason)
	}
	return want
}

// testExternal checks that the external builder agrees with the in-memory
// algorithm under a budget that forces spills and recursion.
func testExternal(data []byte, capacity int64, want []int64) {
	dir, err := os.MkdirTemp("", "fuzz-")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	got, _, err := dsais.Build(data, &dsais.Config{
		MemoryLimit:   1 << 10,
		FrameSize:     64,
		SegmentSize:   256,
		TempDir:       dir,
		Shift:         true,
		BlockCapacity: capacity,
	})
	if err == dsais.ErrSentinel {
		return // A 0xff symbol cannot be shifted
	}
	if err != nil {
		panic(err)
	}
	if len(got) != len(want) {
		panic("mismatching lengths")
	}
	for i := range got {
		if got[i] != want[i] {
			panic("mismatching suffix arrays")
		}
	}
}

// testTransform checks that the transform round trips.
func testTransform(data []byte) {
	b := append([]byte(nil), data...)
	ptr := bwt.Encode(b)
	bwt.Decode(b, ptr)
	if !bytes.Equal(b, data) {
		panic("mismatching bytes")
	}
}
