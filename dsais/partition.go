// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package dsais

import (
	"github.com/dsnet/extsa/internal/emvec"
	"github.com/dsnet/extsa/internal/mergeq"
)

// block is a run of the text [start, end] where both ends are LMS positions,
// except for the leftmost block which starts at 0. A block owns the positions
// (start, end], while the leftmost block owns [0, end].
type block struct {
	start, end int64
	lmsCount   int   // LMS positions in (start, end]
	lstar      int64 // Leftmost L-type position of a direct scan, or -1
}

// multi reports whether the block is sorted in memory.
func (bl *block) multi() bool { return bl.lmsCount > 1 }

// partition is the result of splitting a text into blocks.
type partition struct {
	blocks   []block
	sample   []int32 // sample[k] is the owner of position k*interval
	interval int64
	lmsCount int64
}

// lookup returns the index of the block owning pos.
func (p *partition) lookup(pos int64) int {
	id := int(p.sample[pos/p.interval])
	for p.blocks[id].end < pos {
		id++
	}
	return id
}

// partition scans the text right to left and groups consecutive LMS
// substrings into blocks of at most capacity symbols. A substring longer than
// the capacity gets a block of its own. The LMS positions are written to lms
// as (ch, pos) items, right to left.
func (b *builder[A, O]) partition(text *emvec.Sequence[A], lms *emvec.Sequence[mergeq.Item[A, O]]) *partition {
	n := text.Len()
	capacity := b.capacity

	var (
		blocks []block // Right to left
		last   int64   = -1
		end    int64   = -1
		size   int64
		count  int
		k      int64
	)
	addLMS := func(p int64, c A) {
		lms.Push(mergeq.Item[A, O]{Ch: c, Pos: O(p)})
		k++
		if last < 0 {
			last, end = p, p
			return
		}
		ln := last - p + 1
		switch {
		case count == 0:
			size, count = ln, 1
		case size+ln-1 <= capacity:
			size += ln - 1
			count++
		default:
			blocks = append(blocks, block{start: last, end: end, lmsCount: count, lstar: -1})
			end = last
			size, count = ln, 1
		}
		last = p
	}

	cur := text.Cursor(emvec.Reverse, false)
	nextC, nextS := cur.Pop(), true
	if nextC != 0 {
		panic("dsais: text does not end with the sentinel")
	}
	for i := n - 2; i >= 0; i-- {
		c := cur.Pop()
		if c == 0 {
			panic("dsais: sentinel found inside the text")
		}
		s := c < nextC || (c == nextC && nextS)
		if !s && nextS {
			addLMS(i+1, nextC)
		}
		nextC, nextS = c, s
	}
	if count > 0 {
		blocks = append(blocks, block{start: last, end: end, lmsCount: count, lstar: -1})
	}
	blocks = append(blocks, block{start: 0, end: last, lstar: -1})
	lms.Finish()

	for i, j := 0, len(blocks)-1; i < j; i, j = i+1, j-1 {
		blocks[i], blocks[j] = blocks[j], blocks[i]
	}

	pt := &partition{blocks: blocks, interval: capacity, lmsCount: k}
	var id int32
	for pos := int64(0); pos < n; pos += capacity {
		for blocks[id].end < pos {
			id++
		}
		pt.sample = append(pt.sample, id)
	}
	return pt
}
