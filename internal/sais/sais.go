// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package sais implements a linear time suffix array algorithm that works
// entirely in memory. It serves as the base case of the external builders
// once a reduced string fits in the memory budget.
package sais

import "golang.org/x/exp/constraints"

// References:
//	https://sites.google.com/site/yuta256/sais
//	https://ge-nong.googlecode.com/files/Two%20Efficient%20Algorithms%20for%20Linear%20Time%20Suffix%20Array%20Construction.pdf

// BytesPerSymbol approximates the memory used per input symbol by ComputeSA,
// including the recursion on the reduced string.
const BytesPerSymbol = 48

// ComputeSA computes the suffix array of T and places the result in SA.
// Both T and SA must be the same length and every symbol of T must be less
// than k.
func ComputeSA[T constraints.Integer](t []T, sa []int, k int) {
	if len(sa) != len(t) {
		panic("mismatching sizes")
	}
	if len(t) == 0 {
		return
	}

	// Append a virtual sentinel smaller than every symbol.
	s := make([]int, len(t)+1)
	for i, c := range t {
		s[i] = int(c) + 1
	}
	tmp := make([]int, len(s))
	induce(s, tmp, k+1)
	copy(sa, tmp[1:])
}

// induce computes the suffix array of s, whose last symbol must be a unique
// zero. All other symbols are in [1, k).
func induce(s, sa []int, k int) {
	n := len(s)
	if n == 1 {
		sa[0] = 0
		return
	}

	stype := make([]bool, n)
	stype[n-1] = true
	for i := n - 2; i >= 0; i-- {
		stype[i] = s[i] < s[i+1] || (s[i] == s[i+1] && stype[i+1])
	}
	isLMS := func(i int) bool { return i > 0 && stype[i] && !stype[i-1] }

	bkt := make([]int, k)
	cnt := make([]int, k)
	for _, c := range s {
		cnt[c]++
	}
	heads := func() {
		sum := 0
		for c := range bkt {
			bkt[c] = sum
			sum += cnt[c]
		}
	}
	tails := func() {
		sum := 0
		for c := range bkt {
			sum += cnt[c]
			bkt[c] = sum
		}
	}
	induceL := func() {
		heads()
		for i := 0; i < n; i++ {
			if j := sa[i] - 1; j >= 0 && !stype[j] {
				sa[bkt[s[j]]] = j
				bkt[s[j]]++
			}
		}
	}
	induceS := func() {
		tails()
		for i := n - 1; i >= 0; i-- {
			if j := sa[i] - 1; j >= 0 && stype[j] {
				bkt[s[j]]--
				sa[bkt[s[j]]] = j
			}
		}
	}

	// Sort the LMS substrings.
	for i := range sa {
		sa[i] = -1
	}
	tails()
	for i := n - 1; i > 0; i-- {
		if isLMS(i) {
			bkt[s[i]]--
			sa[bkt[s[i]]] = i
		}
	}
	induceL()
	induceS()

	// Compact the sorted LMS positions into the front of sa and name them.
	m := 0
	for i := 0; i < n; i++ {
		if isLMS(sa[i]) {
			sa[m] = sa[i]
			m++
		}
	}
	for i := m; i < n; i++ {
		sa[i] = -1
	}
	equal := func(a, b int) bool {
		for i := 0; ; i++ {
			if a+i == n || b+i == n || s[a+i] != s[b+i] || stype[a+i] != stype[b+i] {
				return false
			}
			if i > 0 {
				la, lb := isLMS(a+i), isLMS(b+i)
				if la && lb {
					return true
				}
				if la != lb {
					return false
				}
			}
		}
	}
	name, prev := 0, -1
	for i := 0; i < m; i++ {
		pos := sa[i]
		if prev < 0 || !equal(prev, pos) {
			name++
			prev = pos
		}
		sa[m+pos/2] = name - 1
	}
	s1 := make([]int, 0, m)
	for i := m; i < n; i++ {
		if sa[i] >= 0 {
			s1 = append(s1, sa[i])
		}
	}

	// Sort the reduced string, recursing only if names are not unique.
	sa1 := make([]int, m)
	if name < m {
		induce(s1, sa1, name)
	} else {
		for i, c := range s1 {
			sa1[c] = i
		}
	}

	// Induce the final order from the sorted LMS suffixes.
	lms := s1[:0]
	for i := 1; i < n; i++ {
		if isLMS(i) {
			lms = append(lms, i)
		}
	}
	for i := range sa {
		sa[i] = -1
	}
	tails()
	for i := m - 1; i >= 0; i-- {
		j := lms[sa1[i]]
		bkt[s[j]]--
		sa[bkt[s[j]]] = j
	}
	induceL()
	induceS()
}
