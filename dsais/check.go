// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package dsais

import (
	"fmt"

	"github.com/dsnet/extsa/internal"
	"github.com/dsnet/extsa/internal/emsort"
	"github.com/dsnet/extsa/internal/emvec"
	"github.com/dsnet/extsa/internal/mergeq"
	"github.com/dsnet/extsa/internal/symio"
	"go.uber.org/zap"
)

// CheckResult reports the outcome of verifying a suffix array.
// A failed verification is not an error.
type CheckResult struct {
	OK     bool
	Reason string // Why verification failed
}

func (r CheckResult) String() string {
	if r.OK {
		return "ok"
	}
	return "invalid: " + r.Reason
}

func fail(format string, args ...any) CheckResult {
	return CheckResult{Reason: fmt.Sprintf(format, args...)}
}

// Check verifies in memory that sa is the suffix array of text.
//
// The suffix array is valid if it is a permutation of [0, n) and, for every
// pair of adjacent entries, the first symbol of the earlier suffix is smaller,
// or the symbols are equal and the earlier suffix is followed by a suffix of
// lower rank.
func Check[A internal.Unsigned](text []A, sa []int64) CheckResult {
	n := int64(len(text))
	if int64(len(sa)) != n {
		return fail("text has %d symbols but suffix array has %d entries", n, len(sa))
	}
	isa := make([]int64, n+1)
	for i := range isa {
		isa[i] = -1
	}
	for r, p := range sa {
		if p < 0 || p >= n || isa[p] >= 0 {
			return fail("entry %d is not a permutation of [0, %d)", r, n)
		}
		isa[p] = int64(r)
	}
	for r := int64(1); r < n; r++ {
		a, b := sa[r-1], sa[r]
		if text[a] > text[b] || (text[a] == text[b] && isa[a+1] > isa[b+1]) {
			return fail("suffixes at ranks %d and %d are out of order", r-1, r)
		}
	}
	return CheckResult{OK: true}
}

type tuple = mergeq.Item[uint64, uint64]

// CheckFile verifies that the file at saPath, in c.OffsetWidth offsets, is
// the suffix array of the text at textPath, using the same bounded memory
// and staging as BuildFile.
//
// The returned error reports an I/O or configuration problem; an invalid
// suffix array is reported through CheckResult.
func CheckFile(textPath, saPath string, c *Config) (res CheckResult, err error) {
	cfg, err := c.Normalize()
	if err != nil {
		return res, err
	}
	text, err := symio.Open(textPath, cfg.Format)
	if err != nil {
		return res, err
	}
	defer text.Close()
	sa, err := symio.Open(saPath, symio.Format(cfg.OffsetWidth))
	if err != nil {
		return res, err
	}
	defer sa.Close()
	if sa.Size()%int64(cfg.OffsetWidth) != 0 {
		return fail("suffix array size %d is not a multiple of %d", sa.Size(), cfg.OffsetWidth), nil
	}

	st, err := emvec.NewStage(cfg.stageConfig())
	if err != nil {
		return res, err
	}
	defer st.Close()
	defer internal.Recover(&err)

	res = checkFile(&cfg, st, text, sa)
	cfg.Logger.Info("suffix array checked",
		zap.Bool("ok", res.OK), zap.String("reason", res.Reason),
		zap.Int64("peakDiskUsage", st.Stats().PeakDiskUsage))
	return res, nil
}

func checkFile(c *Config, st *emvec.Stage, text, sa *symio.File) CheckResult {
	n := text.Len()
	if sa.Len() != n {
		return fail("text has %d symbols but suffix array has %d entries", n, sa.Len())
	}
	codec := mergeq.NewItemCodec[uint64, uint64](8, 8)
	limit := emsort.Limit(c.MemoryLimit/2, codec.Size())

	// Invert the suffix array by sorting (rank, position) pairs by position.
	inv := emsort.New[tuple](st, codec, func(a, b tuple) bool { return a.Pos < b.Pos }, limit)
	defer inv.Close()
	var r uint64
	internal.Panic(sa.Each(func(_ int64, p uint64) error {
		inv.Push(tuple{Name: r, Pos: p})
		r++
		return nil
	}))
	inv.Sort()

	// Pair each position with its symbol and the rank of the next suffix,
	// then sort by rank. Ranks of following suffixes are stored plus one so
	// that the empty suffix ranks lowest.
	ord := emsort.New[tuple](st, codec, func(a, b tuple) bool { return a.Name < b.Name }, limit)
	defer ord.Close()
	var prev tuple
	for j := int64(0); j < n; j++ {
		if inv.Empty() || inv.Value().Pos != uint64(j) {
			return fail("position %d does not appear exactly once", j)
		}
		cur := tuple{Ch: text.At(j), Name: inv.Value().Name}
		inv.Next()
		if j > 0 {
			prev.Pos = cur.Name + 1
			ord.Push(prev)
		}
		prev = cur
	}
	if n > 0 {
		ord.Push(prev)
	}
	ord.Sort()

	for i := int64(0); !ord.Empty(); i++ {
		cur := ord.Value()
		ord.Next()
		if i > 0 && (prev.Ch > cur.Ch || (prev.Ch == cur.Ch && prev.Pos > cur.Pos)) {
			return fail("suffixes at ranks %d and %d are out of order", i-1, i)
		}
		prev = cur
	}
	return CheckResult{OK: true}
}
