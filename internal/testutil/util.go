// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package testutil is a collection of testing helper methods.
package testutil

import (
	"encoding/binary"
	"os"
	"sort"
)

// NaiveSA returns the suffix array of t by comparing suffixes directly.
// A suffix that is a prefix of another sorts first.
func NaiveSA[T ~uint8 | ~uint16 | ~uint32 | ~uint64](t []T) []int64 {
	sa := make([]int64, len(t))
	for i := range sa {
		sa[i] = int64(i)
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

// Repeats generates n bytes in which most of the data is a copy of some
// earlier stretch of the output. Symbols are drawn from [1, k].
func Repeats(r *Rand, n, k int) []byte {
	b := make([]byte, 0, n)
	for len(b) < n {
		cnt := 4 << uint(r.Intn(7)) // 4..256
		cnt += r.Intn(cnt)
		if len(b) < 16 || r.Intn(4) == 0 {
			for i := 0; i < cnt && len(b) < n; i++ {
				b = append(b, byte(1+r.Intn(k)))
			}
			continue
		}
		dist := 1 + r.Intn(min(len(b), 1<<uint(1+r.Intn(15))))
		for i := 0; i < cnt && len(b) < n; i++ {
			b = append(b, b[len(b)-dist])
		}
	}
	return b
}

// MustWriteFile writes vals as little-endian records of width bytes to path
// or else panics.
func MustWriteFile(path string, width int, vals []uint64) {
	var buf [8]byte
	b := make([]byte, 0, width*len(vals))
	for _, v := range vals {
		binary.LittleEndian.PutUint64(buf[:], v)
		b = append(b, buf[:width]...)
	}
	if err := os.WriteFile(path, b, 0664); err != nil {
		panic(err)
	}
}

// MustReadFile reads little-endian records of width bytes from path or
// else panics.
func MustReadFile(path string, width int) []uint64 {
	b, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	if len(b)%width != 0 {
		panic("file size is not a multiple of the record width")
	}
	var buf [8]byte
	vals := make([]uint64, 0, len(b)/width)
	for ; len(b) > 0; b = b[width:] {
		copy(buf[:], b[:width])
		vals = append(vals, binary.LittleEndian.Uint64(buf[:]))
	}
	return vals
}
