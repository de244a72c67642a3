// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package sais

import (
	"bytes"
	"fmt"
	"sort"
	"testing"

	"github.com/dsnet/extsa/internal/testutil"
	"github.com/google/go-cmp/cmp"
)

func naiveSA[T uint8 | uint32](t []T) []int {
	sa := make([]int, len(t))
	for i := range sa {
		sa[i] = i
	}
	sort.Slice(sa, func(i, j int) bool {
		a, b := t[sa[i]:], t[sa[j]:]
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})
	return sa
}

func TestComputeSA(t *testing.T) {
	var vectors = []struct {
		input  string
		output []int
	}{
		{"", []int{}},
		{"a", []int{0}},
		{"banana", []int{5, 3, 1, 0, 4, 2}},
		{"mississippi", []int{10, 7, 4, 1, 0, 9, 8, 6, 3, 5, 2}},
		{"aaaa", []int{3, 2, 1, 0}},
		{"abcd", []int{0, 1, 2, 3}},
		{"dcba", []int{3, 2, 1, 0}},
	}

	for i, v := range vectors {
		sa := make([]int, len(v.input))
		ComputeSA([]byte(v.input), sa, 256)
		if diff := cmp.Diff(v.output, sa); diff != "" {
			t.Errorf("test %d (%q), output mismatch (-want +got):\n%s", i, v.input, diff)
		}
	}
}

func TestComputeSARandom(t *testing.T) {
	r := testutil.NewRand(0)
	for _, k := range []int{2, 3, 4, 26, 256} {
		for _, n := range []int{1, 2, 7, 64, 500, 4096} {
			t.Run(fmt.Sprintf("K:%d/N:%d", k, n), func(t *testing.T) {
				text := make([]uint8, n)
				for i := range text {
					text[i] = uint8(r.Intn(k))
				}
				sa := make([]int, n)
				ComputeSA(text, sa, 256)
				if diff := cmp.Diff(naiveSA(text), sa); diff != "" {
					t.Errorf("output mismatch (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestComputeSAWide(t *testing.T) {
	r := testutil.NewRand(1)
	text := make([]uint32, 2000)
	for i := range text {
		text[i] = uint32(r.Intn(3000))
	}
	sa := make([]int, len(text))
	ComputeSA(text, sa, 3000)
	if diff := cmp.Diff(naiveSA(text), sa); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeSAPeriodic(t *testing.T) {
	text := bytes.Repeat([]byte("abaab"), 600)
	sa := make([]int, len(text))
	ComputeSA(text, sa, 256)
	if diff := cmp.Diff(naiveSA(text), sa); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}
