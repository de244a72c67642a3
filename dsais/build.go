// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package dsais

import (
	"math"
	"os"
	"time"

	"github.com/dsnet/extsa/internal"
	"github.com/dsnet/extsa/internal/emvec"
	"github.com/dsnet/extsa/internal/symio"
	"github.com/pingcap/errors"
)

// Build returns the suffix array of text.
//
// Every symbol must be non-zero. With c.Shift set, one is added to every
// symbol instead, and the maximum value of A is rejected.
func Build[A internal.Unsigned](text []A, c *Config) (sa []int64, stats *Stats, err error) {
	cfg, err := c.Normalize()
	if err != nil {
		return nil, nil, err
	}
	var max A = ^A(0)
	for _, v := range text {
		if (!cfg.Shift && v == 0) || (cfg.Shift && v == max) {
			return nil, nil, ErrSentinel
		}
	}
	var shift A
	if cfg.Shift {
		shift = 1
	}

	sa = make([]int64, 0, len(text))
	fill := func(push func(A)) {
		for _, v := range text {
			push(v + shift)
		}
	}
	emit := func(p uint64) { sa = append(sa, int64(p)) }
	stats, err = construct(&cfg, internal.Width[A](), int64(len(text)), fill, emit)
	if err != nil {
		return nil, nil, err
	}
	return sa, stats, nil
}

// BuildFile writes the suffix array of the text in the file at inPath to
// outPath, as offsets of c.OffsetWidth bytes.
// On failure, any partially written output is removed.
func BuildFile(inPath, outPath string, c *Config) (stats *Stats, err error) {
	cfg, err := c.Normalize()
	if err != nil {
		return nil, err
	}
	in, err := symio.Open(inPath, cfg.Format)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	if err := validate(in, &cfg); err != nil {
		return nil, err
	}

	out, err := symio.Create(outPath, cfg.OffsetWidth)
	if err != nil {
		return nil, err
	}
	defer func() {
		out.Close()
		if err != nil {
			os.Remove(outPath)
		}
	}()

	var shift uint64
	if cfg.Shift || cfg.Format == Bits {
		shift = 1
	}
	each := func(fn func(v uint64)) {
		internal.Panic(in.Each(func(_ int64, v uint64) error {
			fn(v + shift)
			return nil
		}))
	}
	emit := func(p uint64) { internal.Panic(out.Write(p)) }

	switch n := in.Len(); cfg.symbolWidth() {
	case 1:
		stats, err = construct(&cfg, 1, n, func(push func(uint8)) {
			each(func(v uint64) { push(uint8(v)) })
		}, emit)
	case 2:
		stats, err = construct(&cfg, 2, n, func(push func(uint16)) {
			each(func(v uint64) { push(uint16(v)) })
		}, emit)
	case 4:
		stats, err = construct(&cfg, 4, n, func(push func(uint32)) {
			each(func(v uint64) { push(uint32(v)) })
		}, emit)
	default:
		stats, err = construct(&cfg, 8, n, func(push func(uint64)) {
			each(func(v uint64) { push(v) })
		}, emit)
	}
	if err != nil {
		return nil, err
	}
	if err := out.Close(); err != nil {
		return nil, err
	}
	stats.Checksum = out.Checksum()
	logStats(cfg.Logger, stats)
	return stats, nil
}

// validate checks the input layout and symbols before any staging I/O.
func validate(in *symio.File, c *Config) error {
	if c.Format == Bits {
		if in.Size()%int64(c.Alignment) != 0 {
			return ErrAlignment
		}
		return nil
	}
	if in.Size()%int64(c.Format.Width()) != 0 {
		return errors.Annotatef(ErrFormat, "size %d is not a multiple of %d", in.Size(), c.Format.Width())
	}
	if c.OffsetWidth == 4 && in.Len() > math.MaxUint32 {
		return errors.Annotate(ErrFormat, "text too long for 4-byte offsets")
	}
	max := uint64(1)<<uint(8*c.Format.Width()) - 1
	return in.Each(func(i int64, v uint64) error {
		switch {
		case !c.Shift && v == 0:
			return errors.Annotatef(ErrSentinel, "symbol %d", i)
		case c.Shift && c.Format == Uint64 && v == max:
			return errors.Annotatef(ErrSentinel, "symbol %d overflows when shifted", i)
		}
		return nil
	})
}

// construct stages the n symbols produced by fill, builds the suffix array
// and passes every entry to emit in order.
func construct[A internal.Unsigned](c *Config, cw int, n int64, fill func(push func(A)), emit func(uint64)) (stats *Stats, err error) {
	start := time.Now()
	st, err := emvec.NewStage(c.stageConfig())
	if err != nil {
		return nil, err
	}
	defer st.Close()
	defer internal.Recover(&err)

	stats = &Stats{Symbols: n}
	if fitsUint32(n + 1) {
		constructWith[A, uint32](c, st, stats, cw, n+1, fill, emit)
	} else {
		constructWith[A, uint64](c, st, stats, cw, n+1, fill, emit)
	}
	stats.Disk = st.Stats()
	stats.Elapsed = time.Since(start)
	return stats, nil
}

func constructWith[A, O internal.Unsigned](c *Config, st *emvec.Stage, stats *Stats, cw int, n int64, fill func(push func(A)), emit func(uint64)) {
	text := emvec.New[A](st, emvec.Uint[A]{W: cw})
	fill(text.Push)
	text.Push(0)
	text.Finish()
	if text.Len() != n {
		panic("dsais: text length changed while staging")
	}

	b := newBuilder[A, O](c, st, stats, 0, cw, n)
	sa := b.run(text)
	defer sa.Close()
	cur := sa.Cursor(emvec.Reverse, true)
	cur.Next() // The sentinel suffix
	for ; !cur.EOF(); cur.Next() {
		emit(uint64(cur.Get()))
	}
}
