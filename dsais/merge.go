// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package dsais

import (
	"github.com/dsnet/extsa/internal"
	"github.com/dsnet/extsa/internal/emsort"
	"github.com/dsnet/extsa/internal/emvec"
	"github.com/dsnet/extsa/internal/mergeq"
)

// seedSource replays a sequence of items backwards as queue seeds.
// Names are mirrored below top so that seeds order after induced items.
type seedSource[A, O internal.Unsigned] struct {
	c   *emvec.Cursor[item[A, O]]
	top O
}

func (s *seedSource[A, O]) Empty() bool { return s.c.EOF() }
func (s *seedSource[A, O]) Next()       { s.c.Next() }
func (s *seedSource[A, O]) Close()      { s.c.Close() }
func (s *seedSource[A, O]) Value() item[A, O] {
	it := s.c.Get()
	it.Name = s.top - it.Name
	return it
}

func closePairs[A internal.Unsigned](bw []bwtPair[A]) {
	for i := range bw {
		bw[i].close()
	}
}

// mergeSubstrings induces the global order of the LMS substrings from the
// per-block results and names them. It returns the reduced string, one name
// per LMS position from left to right followed by the sentinel's zero, and
// the largest name used.
func (b *builder[A, O]) mergeSubstrings(lms *emvec.Sequence[item[A, O]], bw []bwtPair[A]) (*emvec.Sequence[O], O) {
	blocks := b.pt.blocks
	p1 := O(blocks[0].end)

	// L-type pass, seeded by every LMS position except the leftmost, which
	// does not start a complete substring.
	seeds := emsort.New[item[A, O]](b.st, b.codec, mergeq.LessLSub[A, O], b.sorterLimit())
	for c := lms.Cursor(emvec.Forward, false); !c.EOF(); c.Next() {
		if it := c.Get(); it.Pos != p1 {
			it.Name = b.top
			seeds.Push(it)
		}
	}
	seeds.Sort()

	lstar := b.newItems()
	defer lstar.Close()
	ql := mergeq.NewLSub[A, O](b.st, b.codec, b.queueLimit())
	ql.Attach(seeds)
	var cnt O
	for {
		if ql.AtBoundary() {
			ql.Flush()
		}
		if ql.Empty() {
			break
		}
		it := ql.Pop()
		if ql.Diff() {
			cnt++
		}
		pre := bw[b.pt.lookup(int64(it.Pos))].readL()
		if pre >= it.Ch {
			ql.Push(item[A, O]{Ch: pre, Name: cnt, Pos: it.Pos - 1})
		} else {
			lstar.Push(item[A, O]{Ch: it.Ch, Name: cnt, Pos: it.Pos})
		}
	}
	ql.Close()
	lstar.Finish()

	// S-type pass, seeded by the L-type positions preceded by S-type ones.
	// Every S-type position that is not preceded by another is an LMS
	// position and leaves the queue.
	found := b.newItems()
	defer found.Close()
	qs := mergeq.NewSSub[A, O](b.st, b.codec, b.queueLimit())
	qs.Attach(&seedSource[A, O]{c: lstar.Cursor(emvec.Reverse, true), top: b.top})
	cnt = 0
	for {
		if qs.AtBoundary() {
			qs.Flush()
		}
		if qs.Empty() {
			break
		}
		it := qs.Pop()
		if qs.Diff() {
			cnt++
		}
		j := b.pt.lookup(int64(it.Pos))
		if it.Name > b.mid {
			pre := bw[j].readS()
			qs.Push(item[A, O]{Ch: pre, Name: cnt, Pos: it.Pos - 1})
			continue
		}
		if int64(it.Pos) == blocks[j].end {
			found.Push(it)
			continue
		}
		if pre := bw[j].readS(); pre <= it.Ch {
			qs.Push(item[A, O]{Ch: pre, Name: cnt, Pos: it.Pos - 1})
		} else {
			found.Push(it)
		}
	}
	qs.Close()
	found.Finish()
	closePairs(bw)

	// Equal substrings leave the S-type pass with equal (Ch, Name), so names
	// are assigned by a scan in ascending order.
	byPos := emsort.New[item[A, O]](b.st, b.codec,
		func(x, y item[A, O]) bool { return x.Pos < y.Pos }, b.sorterLimit())
	defer byPos.Close()
	var name O
	var prev item[A, O]
	for c := found.Cursor(emvec.Reverse, true); !c.EOF(); c.Next() {
		it := c.Get()
		if name == 0 || it.Ch != prev.Ch || it.Name != prev.Name {
			name++
		}
		prev = it
		byPos.Push(item[A, O]{Name: name, Pos: it.Pos})
	}
	found.Close()
	byPos.Sort()

	if byPos.Len() != b.pt.lmsCount-1 {
		panic("dsais: LMS substrings lost while merging")
	}
	s1 := b.newOffsets()
	for ; !byPos.Empty(); byPos.Next() {
		s1.Push(byPos.Value().Name)
	}
	s1.Push(0)
	s1.Finish()
	return s1, name
}

// mergeSuffixes induces the global suffix order from the sorted LMS seeds
// and the per-block results. It returns the suffix array in reverse order.
func (b *builder[A, O]) mergeSuffixes(seeds *emsort.Sorter[item[A, O]], bw []bwtPair[A]) *emvec.Sequence[O] {
	blocks := b.pt.blocks
	base := b.top - O(b.pt.lmsCount)

	// L-type pass. Every L-type suffix is recorded in pop order.
	lsufs := b.newItems()
	defer lsufs.Close()
	ql := mergeq.NewLSuf[A, O](b.st, b.codec, b.queueLimit())
	ql.Attach(seeds)
	var seq O
	for !ql.Empty() {
		it := ql.Pop()
		seq++
		if it.Pos != 0 {
			if pre := bw[b.pt.lookup(int64(it.Pos))].readL(); pre >= it.Ch {
				ql.Push(item[A, O]{Ch: pre, Name: seq, Pos: it.Pos - 1})
			}
		}
		if it.Name < base {
			lsufs.Push(item[A, O]{Ch: it.Ch, Name: seq, Pos: it.Pos})
		}
	}
	ql.Close()
	lsufs.Finish()

	// S-type pass, seeded by the L-type suffixes in reverse order.
	// Every suffix popped here is emitted, largest first.
	out := b.newOffsets()
	qs := mergeq.NewSSuf[A, O](b.st, b.codec, b.queueLimit())
	qs.Attach(&seedSource[A, O]{c: lsufs.Cursor(emvec.Reverse, true), top: b.top})
	seq = 0
	for !qs.Empty() {
		it := qs.Pop()
		seq++
		out.Push(it.Pos)
		if it.Pos == 0 {
			continue
		}
		j := b.pt.lookup(int64(it.Pos))
		bl := &blocks[j]
		if it.Name > b.mid {
			if bl.multi() || int64(it.Pos) == bl.lstar {
				if pre := bw[j].readS(); pre < it.Ch {
					qs.Push(item[A, O]{Ch: pre, Name: seq, Pos: it.Pos - 1})
				}
			}
			continue
		}
		if int64(it.Pos) == bl.end {
			continue
		}
		if pre := bw[j].readS(); pre <= it.Ch {
			qs.Push(item[A, O]{Ch: pre, Name: seq, Pos: it.Pos - 1})
		}
	}
	qs.Close()
	closePairs(bw)

	out.Push(O(b.n - 1))
	out.Finish()
	if out.Len() != b.n {
		panic("dsais: suffixes lost while merging")
	}
	return out
}
