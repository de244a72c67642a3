// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package dsais

import (
	"github.com/dsnet/extsa/internal"
	"github.com/dsnet/extsa/internal/emsort"
	"github.com/dsnet/extsa/internal/emvec"
	"github.com/dsnet/extsa/internal/mergeq"
	"github.com/dsnet/extsa/internal/sais"
	"go.uber.org/zap"
)

// builder constructs the suffix array of a text of symbols A whose positions
// fit in O. The text must end with a unique zero sentinel.
//
// Offsets are staged in ow bytes. Item names share that space: induced names
// count up from 1 while seed names count down from top, and both stay on
// their side of mid.
type builder[A, O internal.Unsigned] struct {
	c     *Config
	st    *emvec.Stage
	log   *zap.Logger
	stats *Stats
	level int

	cw, ow   int // Staged widths of symbols and offsets
	top, mid O
	capacity int64

	n     int64
	pt    *partition
	codec mergeq.ItemCodec[A, O]
}

type item[A, O internal.Unsigned] = mergeq.Item[A, O]

func newBuilder[A, O internal.Unsigned](c *Config, st *emvec.Stage, stats *Stats, level, cw int, n int64) *builder[A, O] {
	ow := offsetWidth[O](n)
	top := internal.MaxValue[O](ow)
	b := &builder[A, O]{
		c:        c,
		st:       st,
		log:      c.Logger.With(zap.Int("level", level)),
		stats:    stats,
		level:    level,
		cw:       cw,
		ow:       ow,
		top:      top,
		mid:      top / 2,
		capacity: c.blockCapacity(cw),
		n:        n,
	}
	b.codec = mergeq.NewItemCodec[A, O](cw, ow)
	return b
}

// offsetWidth reports the staged width of offsets for a text of n symbols.
// Names and positions together must stay below half the representable range.
func offsetWidth[O internal.Unsigned](n int64) int {
	switch {
	case internal.Width[O]() == 4:
		return 4
	case n < 1<<37:
		return 5
	default:
		return 8
	}
}

// fitsUint32 reports whether a text of n symbols may use uint32 offsets.
func fitsUint32(n int64) bool { return n < 1<<30 }

func (b *builder[A, O]) newOffsets() *emvec.Sequence[O] {
	return emvec.New[O](b.st, emvec.Uint[O]{W: b.ow})
}

func (b *builder[A, O]) newItems() *emvec.Sequence[item[A, O]] {
	return emvec.New[item[A, O]](b.st, b.codec)
}

func (b *builder[A, O]) newSymbols() *emvec.Sequence[A] {
	return emvec.New[A](b.st, emvec.Uint[A]{W: b.cw})
}

func (b *builder[A, O]) sorterLimit() int {
	return emsort.Limit(b.c.MemoryLimit/4, b.codec.Size())
}

func (b *builder[A, O]) queueLimit() int {
	return emsort.Limit(b.c.MemoryLimit/4, b.codec.Size())
}

// run consumes text and returns its suffix array in reverse order.
func (b *builder[A, O]) run(text *emvec.Sequence[A]) *emvec.Sequence[O] {
	defer text.Close()
	if b.level >= len(b.stats.Levels) {
		b.stats.Levels = append(b.stats.Levels, LevelStats{})
	}
	b.levelStats().Symbols = b.n

	if b.n == 1 {
		out := b.newOffsets()
		out.Push(0)
		out.Finish()
		return out
	}

	b.log.Debug("partition", zap.Int64("symbols", b.n), zap.Int64("capacity", b.capacity))
	lms := b.newItems()
	defer lms.Close()
	b.pt = b.partition(text, lms)
	b.levelStats().Blocks = len(b.pt.blocks)
	b.levelStats().LMS = b.pt.lmsCount
	b.log.Debug("partitioned",
		zap.Int("blocks", len(b.pt.blocks)),
		zap.Int64("lms", b.pt.lmsCount))

	var ranks *emvec.Sequence[O]
	if b.pt.lmsCount == 1 {
		ranks = b.newOffsets()
		ranks.Push(0)
		ranks.Finish()
	} else {
		b.log.Debug("sort substrings")
		bw := b.sortSubstringBlocks(text)
		b.log.Debug("merge substrings")
		s1, names := b.mergeSubstrings(lms, bw)
		b.levelStats().Names = int64(names)
		ranks = b.reduce(s1, names)
	}
	defer ranks.Close()

	b.log.Debug("sort suffixes")
	seeds := b.sortSeeds(lms, ranks)
	bw := b.sortSuffixBlocks(text, ranks)
	ranks.Close()
	text.Close()
	b.log.Debug("merge suffixes")
	out := b.mergeSuffixes(seeds, bw)
	b.log.Info("level done",
		zap.Int64("symbols", b.n),
		zap.Int("blocks", len(b.pt.blocks)),
		zap.Int64("peakDiskUsage", b.st.Stats().PeakDiskUsage))
	return out
}

func (b *builder[A, O]) levelStats() *LevelStats { return &b.stats.Levels[b.level] }

// reduce converts the reduced string s1 into the rank of every LMS suffix,
// in left to right order. It consumes s1.
func (b *builder[A, O]) reduce(s1 *emvec.Sequence[O], names O) *emvec.Sequence[O] {
	k := s1.Len()
	if int64(names) == k-1 {
		b.log.Debug("names are unique")
		return s1
	}

	if k*sais.BytesPerSymbol <= b.c.MemoryLimit {
		b.log.Debug("sort reduced string in memory", zap.Int64("symbols", k))
		t := make([]O, 0, k)
		for c := s1.Cursor(emvec.Forward, true); !c.EOF(); c.Next() {
			t = append(t, c.Get())
		}
		s1.Close()
		sa1 := make([]int, k)
		sais.ComputeSA(t, sa1, int(names)+1)
		for r, p := range sa1 {
			t[p] = O(r)
		}
		ranks := b.newOffsets()
		for _, r := range t {
			ranks.Push(r)
		}
		ranks.Finish()
		return ranks
	}

	b.log.Info("recurse", zap.Int64("symbols", k), zap.Int64("names", int64(names)))
	child := newBuilder[O, O](b.c, b.st, b.stats, b.level+1, b.ow, k)
	saRev := child.run(s1)
	defer saRev.Close()

	isa := emsort.New[item[O, O]](b.st, mergeq.NewItemCodec[O, O](0, b.ow),
		func(x, y item[O, O]) bool { return x.Pos < y.Pos }, b.sorterLimit())
	defer isa.Close()
	var r O
	for c := saRev.Cursor(emvec.Reverse, true); !c.EOF(); c.Next() {
		isa.Push(item[O, O]{Name: r, Pos: c.Get()})
		r++
	}
	saRev.Close()
	isa.Sort()
	ranks := b.newOffsets()
	for ; !isa.Empty(); isa.Next() {
		ranks.Push(isa.Value().Name)
	}
	ranks.Finish()
	return ranks
}

// sortSeeds sorts every LMS position by the rank of its suffix.
// It consumes lms and reads ranks without consuming it.
func (b *builder[A, O]) sortSeeds(lms *emvec.Sequence[item[A, O]], ranks *emvec.Sequence[O]) *emsort.Sorter[item[A, O]] {
	base := b.top - O(b.pt.lmsCount)
	seeds := emsort.New[item[A, O]](b.st, b.codec, mergeq.LessLSuf[A, O], b.sorterLimit())
	rk := ranks.Cursor(emvec.Reverse, false)
	for c := lms.Cursor(emvec.Forward, true); !c.EOF(); c.Next() {
		it := c.Get()
		it.Name = base + rk.Pop()
		seeds.Push(it)
	}
	lms.Close()
	seeds.Sort()
	return seeds
}

// sortSubstringBlocks sorts the LMS substrings of every block but the
// leftmost, right to left.
func (b *builder[A, O]) sortSubstringBlocks(text *emvec.Sequence[A]) []bwtPair[A] {
	blocks := b.pt.blocks
	bw := make([]bwtPair[A], len(blocks))
	r := newRevReader(text, false)
	var ls localSorter[A]
	for j := len(blocks) - 1; j >= 1; j-- {
		bl := &blocks[j]
		bw[j] = bwtPair[A]{l: b.newSymbols(), s: b.newSymbols()}
		if bl.multi() {
			ls.load(r, bl)
			ls.substrings(bw[j].l, bw[j].s)
		} else {
			scanDirect(r, bl, bw[j].l, bw[j].s)
		}
		bw[j].finish()
	}
	return bw
}

// sortSuffixBlocks sorts the suffixes of every block right to left.
// It consumes both text and ranks.
func (b *builder[A, O]) sortSuffixBlocks(text *emvec.Sequence[A], ranks *emvec.Sequence[O]) []bwtPair[A] {
	blocks := b.pt.blocks
	bw := make([]bwtPair[A], len(blocks))
	r := newRevReader(text, true)
	rk := ranks.Cursor(emvec.Reverse, true)
	var ls localSorter[A]
	var rs []uint64
	for j := len(blocks) - 1; j >= 0; j-- {
		bl := &blocks[j]
		bw[j] = bwtPair[A]{l: b.newSymbols(), s: b.newSymbols()}
		if bl.multi() {
			rs = rs[:0]
			for i := 0; i < bl.lmsCount; i++ {
				rs = append(rs, uint64(rk.Pop()))
			}
			ls.load(r, bl)
			ls.suffixes(rs, bw[j].l, bw[j].s)
		} else {
			for i := 0; i < bl.lmsCount; i++ {
				rk.Next()
			}
			scanDirect(r, bl, bw[j].l, bw[j].s)
		}
		bw[j].finish()
	}
	rk.Next() // Rank of the leftmost LMS position
	if !rk.EOF() {
		panic("dsais: ranks left unread")
	}
	return bw
}
