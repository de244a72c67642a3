// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package bwt computes the Burrows-Wheeler Transform of a text from its
// suffix array.
//
// The transform used here is the suffix form: the i-th output symbol is
// the symbol preceding the suffix of rank i. The suffix starting at 0 has no
// predecessor and is assigned the last symbol of the text instead; its rank
// is reported as the primary index. This is equivalent to the rotation form
// of the transform on the text followed by a unique smallest terminator,
// with the terminator row removed.
package bwt

import "github.com/dsnet/extsa/internal/sais"

// Encode replaces buf with its transform and returns the primary index.
// It returns -1 if buf is empty.
func Encode(buf []byte) (ptr int) {
	if len(buf) == 0 {
		return -1
	}

	t := append([]byte(nil), buf...)
	sa := make([]int, len(buf))
	sais.ComputeSA(t, sa, 256)
	for i, p := range sa {
		if p == 0 {
			ptr = i
			p = len(t)
		}
		buf[i] = t[p-1]
	}
	return ptr
}

// Decode inverts Encode in place.
func Decode(buf []byte, ptr int) {
	if len(buf) == 0 {
		return
	}
	if ptr < 0 || ptr >= len(buf) {
		panic("bwt: invalid primary index")
	}

	// Row 0 is the terminator row, whose last symbol is buf[ptr]. Row i+1
	// ends with buf[i], except that row ptr+1 ends with the terminator.
	var c [256]int
	for _, v := range buf {
		c[v]++
	}
	sum := 1
	for i, v := range c {
		c[i] = sum
		sum += v
	}

	lf := make([]int, len(buf)+1)
	lf[0] = c[buf[ptr]]
	c[buf[ptr]]++
	for i, v := range buf {
		if i == ptr {
			continue
		}
		lf[i+1] = c[v]
		c[v]++
	}

	buf2 := make([]byte, len(buf))
	row := 0
	for i := len(buf) - 1; i >= 0; i-- {
		if row == 0 {
			buf2[i] = buf[ptr]
		} else {
			buf2[i] = buf[row-1]
		}
		row = lf[row]
	}
	copy(buf, buf2)
}
