// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package dsais

import (
	"sort"

	"github.com/dsnet/extsa/internal"
	"github.com/dsnet/extsa/internal/emvec"
)

// localBytesPerSymbol is the memory used by localSorter per block symbol,
// beyond the symbol itself.
const localBytesPerSymbol = 17

// revReader reads a text right to left one block at a time.
// Adjacent blocks share their boundary symbol, which is replayed from the
// previous read.
type revReader[A internal.Unsigned] struct {
	cur  *emvec.Cursor[A]
	pos  int64 // Position of the next symbol in cur
	prev A     // Symbol at pos+1
}

func newRevReader[A internal.Unsigned](text *emvec.Sequence[A], consume bool) *revReader[A] {
	return &revReader[A]{cur: text.Cursor(emvec.Reverse, consume), pos: text.Len() - 1}
}

// scan calls fn for the symbols at end, end-1, ..., start.
func (r *revReader[A]) scan(start, end int64, fn func(i int64, c A)) {
	i := end
	switch end {
	case r.pos + 1:
		fn(end, r.prev)
		i--
	case r.pos:
	default:
		panic("dsais: blocks read out of order")
	}
	for ; i >= start; i-- {
		c := r.cur.Pop()
		r.pos--
		r.prev = c
		fn(i, c)
	}
}

// bwtPair holds the preceding symbols of a block in the order the global
// L-type and S-type passes will ask for them.
type bwtPair[A internal.Unsigned] struct {
	l, s   *emvec.Sequence[A]
	lc, sc *emvec.Cursor[A]
}

func (p *bwtPair[A]) finish() {
	p.l.Finish()
	p.s.Finish()
	p.lc = p.l.Cursor(emvec.Forward, true)
	p.sc = p.s.Cursor(emvec.Forward, true)
}

func (p *bwtPair[A]) readL() A {
	if p.lc.EOF() {
		panic("dsais: L-type preceding symbols exhausted")
	}
	return p.lc.Pop()
}

func (p *bwtPair[A]) readS() A {
	if p.sc.EOF() {
		panic("dsais: S-type preceding symbols exhausted")
	}
	return p.sc.Pop()
}

func (p *bwtPair[A]) close() {
	if p.l == nil {
		return
	}
	if !p.lc.EOF() || !p.sc.EOF() {
		panic("dsais: preceding symbols left unread")
	}
	p.l.Close()
	p.s.Close()
}

// scanDirect produces the preceding symbols of a block holding at most one
// LMS substring without sorting it. Such a block is a run of S-type symbols
// followed by a run of L-type symbols, so the global passes visit its
// positions in text order and one right to left scan suffices.
// The leftmost L-type position is recorded in bl.lstar.
func scanDirect[A internal.Unsigned](r *revReader[A], bl *block, l, s *emvec.Sequence[A]) {
	var next A
	inL := true
	bl.lstar = -1
	r.scan(bl.start, bl.end, func(i int64, c A) {
		if i == bl.end {
			next = c
			return
		}
		if inL {
			l.Push(c)
			if c < next {
				inL = false
				bl.lstar = i + 1
				s.Push(c)
			}
		} else {
			s.Push(c)
		}
		next = c
	})
}

// localSorter performs induced sorting of a whole block in memory.
type localSorter[A internal.Unsigned] struct {
	text  []A
	lab   []int32 // Dense relabeling of text
	sa    []int32
	stype []bool
	cnt   []int32
	bkt   []int32
	lms   []int32 // Local LMS positions, right to left
	vals  []A
}

// load reads block bl into memory and classifies its symbols.
// The block end is an LMS position so it is always S-type.
func (ls *localSorter[A]) load(r *revReader[A], bl *block) {
	m := int(bl.end - bl.start + 1)
	if cap(ls.text) < m {
		ls.text = make([]A, m)
		ls.lab = make([]int32, m)
		ls.sa = make([]int32, m)
		ls.stype = make([]bool, m)
	}
	ls.text, ls.lab, ls.sa, ls.stype = ls.text[:m], ls.lab[:m], ls.sa[:m], ls.stype[:m]
	r.scan(bl.start, bl.end, func(i int64, c A) { ls.text[i-bl.start] = c })

	text := ls.text
	mn, mx := text[0], text[0]
	for _, c := range text {
		if c < mn {
			mn = c
		}
		if c > mx {
			mx = c
		}
	}
	k := 0
	if uint64(mx-mn) < uint64(m) {
		for i, c := range text {
			ls.lab[i] = int32(c - mn)
		}
		k = int(mx-mn) + 1
	} else {
		ls.vals = append(ls.vals[:0], text...)
		sort.Slice(ls.vals, func(i, j int) bool { return ls.vals[i] < ls.vals[j] })
		u := ls.vals[:1]
		for _, c := range ls.vals[1:] {
			if c != u[len(u)-1] {
				u = append(u, c)
			}
		}
		for i, c := range text {
			ls.lab[i] = int32(sort.Search(len(u), func(j int) bool { return u[j] >= c }))
		}
		k = len(u)
	}
	if cap(ls.cnt) < k {
		ls.cnt = make([]int32, k)
		ls.bkt = make([]int32, k)
	}
	ls.cnt, ls.bkt = ls.cnt[:k], ls.bkt[:k]
	for i := range ls.cnt {
		ls.cnt[i] = 0
	}
	for _, c := range ls.lab {
		ls.cnt[c]++
	}

	ls.stype[m-1] = true
	ls.lms = ls.lms[:0]
	for i := m - 2; i >= 0; i-- {
		ls.stype[i] = text[i] < text[i+1] || (text[i] == text[i+1] && ls.stype[i+1])
		if !ls.stype[i] && ls.stype[i+1] {
			ls.lms = append(ls.lms, int32(i+1))
		}
	}
	if len(ls.lms) != bl.lmsCount || ls.lms[0] != int32(m-1) {
		panic("dsais: block boundaries do not match LMS positions")
	}
}

func (ls *localSorter[A]) heads() {
	var sum int32
	for c, n := range ls.cnt {
		ls.bkt[c] = sum
		sum += n
	}
}

func (ls *localSorter[A]) tails() {
	var sum int32
	for c, n := range ls.cnt {
		sum += n
		ls.bkt[c] = sum
	}
}

func (ls *localSorter[A]) clear() {
	for i := range ls.sa {
		ls.sa[i] = -1
	}
}

// induceL scans sa left to right, recording the symbol preceding every item
// in l and placing L-type predecessors at their bucket heads. Afterwards an
// item is cleared unless keep reports true for it.
func (ls *localSorter[A]) induceL(l *emvec.Sequence[A], keep func(j int32) bool) {
	sa, lab, stype := ls.sa, ls.lab, ls.stype
	ls.heads()
	for k := range sa {
		j := sa[k]
		if j < 0 {
			continue
		}
		l.Push(ls.text[j-1])
		if !stype[j-1] {
			c := lab[j-1]
			sa[ls.bkt[c]] = j - 1
			ls.bkt[c]++
		}
		if !keep(j) {
			sa[k] = -1
		}
	}
}

// induceS scans sa right to left, recording the symbol preceding every item
// in s and placing S-type predecessors at their bucket tails.
func (ls *localSorter[A]) induceS(s *emvec.Sequence[A]) {
	sa, lab, stype := ls.sa, ls.lab, ls.stype
	ls.tails()
	for k := len(sa) - 1; k >= 0; k-- {
		j := sa[k]
		if j <= 0 {
			continue
		}
		s.Push(ls.text[j-1])
		if stype[j-1] {
			c := lab[j-1]
			ls.bkt[c]--
			sa[ls.bkt[c]] = j - 1
		}
	}
}

// substrings sorts the LMS substrings of the loaded block.
// Only L-type items whose predecessor is S-type survive the L pass, since
// those alone seed the S pass.
func (ls *localSorter[A]) substrings(l, s *emvec.Sequence[A]) {
	ls.clear()
	ls.tails()
	for _, i := range ls.lms {
		c := ls.lab[i]
		ls.bkt[c]--
		ls.sa[ls.bkt[c]] = i
	}
	stype := ls.stype
	ls.induceL(l, func(j int32) bool { return !stype[j] && stype[j-1] })
	ls.induceS(s)
}

// suffixes sorts the suffixes of the loaded block, seeded by the global rank
// of each LMS suffix. Ranks are given in the order of ls.lms.
func (ls *localSorter[A]) suffixes(ranks []uint64, l, s *emvec.Sequence[A]) {
	order := make([]int, len(ls.lms))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return ranks[order[i]] < ranks[order[j]] })

	ls.clear()
	ls.tails()
	for r := len(order) - 1; r >= 0; r-- {
		i := ls.lms[order[r]]
		c := ls.lab[i]
		ls.bkt[c]--
		ls.sa[ls.bkt[c]] = i
	}
	stype := ls.stype
	ls.induceL(l, func(j int32) bool { return !stype[j] })
	ls.induceS(s)
}
