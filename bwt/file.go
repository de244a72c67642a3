// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package bwt

import (
	"os"

	"github.com/dsnet/extsa/dsais"
	"github.com/dsnet/extsa/internal"
	"github.com/dsnet/extsa/internal/emsort"
	"github.com/dsnet/extsa/internal/emvec"
	"github.com/dsnet/extsa/internal/mergeq"
	"github.com/dsnet/extsa/internal/symio"
	"github.com/pingcap/errors"
	"go.uber.org/zap"
)

type pair = mergeq.Item[uint64, uint64]

// BuildFile writes the transform of the text at textPath to outPath and
// returns the primary index. The suffix array at saPath must have been
// built with the same configuration.
//
// The output holds one symbol per text symbol in the width of the input
// format; bit-packed input produces one byte per bit.
func BuildFile(textPath, saPath, outPath string, c *dsais.Config) (ptr int64, err error) {
	cfg, err := c.Normalize()
	if err != nil {
		return -1, err
	}
	text, err := symio.Open(textPath, cfg.Format)
	if err != nil {
		return -1, err
	}
	defer text.Close()
	sa, err := symio.Open(saPath, symio.Format(cfg.OffsetWidth))
	if err != nil {
		return -1, err
	}
	defer sa.Close()
	if sa.Len() != text.Len() {
		return -1, errors.Annotatef(dsais.ErrFormat,
			"text has %d symbols but suffix array has %d entries", text.Len(), sa.Len())
	}

	width := cfg.Format.Width()
	if cfg.Format == dsais.Bits {
		width = 1
	}
	out, err := symio.Create(outPath, width)
	if err != nil {
		return -1, err
	}
	defer func() {
		out.Close()
		if err != nil {
			os.Remove(outPath)
		}
	}()

	st, err := emvec.NewStage(emvec.Config{
		Dir:         cfg.TempDir,
		FrameSize:   cfg.FrameSize,
		SegmentSize: cfg.SegmentSize,
		Compression: cfg.Compression,
		Logger:      cfg.Logger,
	})
	if err != nil {
		return -1, err
	}
	defer st.Close()
	defer internal.Recover(&err)

	ptr = build(&cfg, st, text, sa, out)
	internal.Panic(out.Close())
	cfg.Logger.Info("bwt built",
		zap.Int64("symbols", text.Len()),
		zap.Int64("primary", ptr),
		zap.Int64("peakDiskUsage", st.Stats().PeakDiskUsage))
	return ptr, nil
}

// build pairs every rank with the symbol preceding its suffix. Sorting the
// suffix array by position lets the text be read sequentially; a second sort
// restores rank order.
func build(c *dsais.Config, st *emvec.Stage, text, sa *symio.File, out *symio.Writer) (ptr int64) {
	n := text.Len()
	if n == 0 {
		return -1
	}
	codec := mergeq.NewItemCodec[uint64, uint64](8, 8)
	limit := emsort.Limit(c.MemoryLimit/2, codec.Size())

	byPos := emsort.New[pair](st, codec, func(a, b pair) bool { return a.Pos < b.Pos }, limit)
	defer byPos.Close()
	var r uint64
	internal.Panic(sa.Each(func(_ int64, p uint64) error {
		byPos.Push(pair{Name: r, Pos: p})
		r++
		return nil
	}))
	byPos.Sort()

	byRank := emsort.New[pair](st, codec, func(a, b pair) bool { return a.Name < b.Name }, limit)
	defer byRank.Close()
	prev := text.At(n - 1)
	internal.Panic(text.Each(func(j int64, v uint64) error {
		if byPos.Empty() || byPos.Value().Pos != uint64(j) {
			return errors.Annotatef(dsais.ErrCorrupt, "suffix array does not contain position %d", j)
		}
		rank := byPos.Value().Name
		if j == 0 {
			ptr = int64(rank)
		}
		byRank.Push(pair{Ch: prev, Name: rank})
		byPos.Next()
		prev = v
		return nil
	}))
	byRank.Sort()

	for ; !byRank.Empty(); byRank.Next() {
		internal.Panic(out.Write(byRank.Value().Ch))
	}
	return ptr
}
