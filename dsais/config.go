// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package dsais

import (
	"math"

	"github.com/dsnet/extsa/internal/emvec"
	"github.com/dsnet/extsa/internal/symio"
	"go.uber.org/zap"
)

// Format describes the record layout of an input or output file.
type Format = symio.Format

const (
	Bits   = symio.Bits
	Uint8  = symio.Uint8
	Uint16 = symio.Uint16
	Uint32 = symio.Uint32
	Uint40 = symio.Uint40
	Uint64 = symio.Uint64
)

// Compression selects the codec applied to staging frames.
type Compression = emvec.Compression

const (
	CompressNone  = emvec.None
	CompressFlate = emvec.Flate
	CompressXZ    = emvec.XZ
)

const (
	DefaultMemoryLimit = 1 << 28
	DefaultOffsetWidth = 5

	// MinFrames is the minimum number of staging frames the memory limit
	// must be able to hold.
	MinFrames = 16
)

// Config configures suffix array construction.
// The zero value is valid and uses the defaults.
type Config struct {
	// MemoryLimit is the RAM budget in bytes.
	MemoryLimit int64

	// TempDir is the parent directory for staging files.
	// If empty, os.TempDir is used.
	TempDir string

	// Format is the layout of the input file (default Uint8).
	Format Format

	// OffsetWidth is the width in bytes of offsets in the output file.
	// It must be 4, 5 or 8 (default 5).
	OffsetWidth int

	// Shift adds one to every input symbol so that a zero symbol is not
	// mistaken for the sentinel. Symbols widen to the next format.
	Shift bool

	// Alignment requires the byte length of a Bits input to be a multiple
	// of it (default 1).
	Alignment int

	// Compression is the staging frame codec.
	Compression Compression

	// FrameSize and SegmentSize control the staging layout.
	FrameSize   int
	SegmentSize int64

	// BlockCapacity overrides the number of symbols per block, which is
	// otherwise derived from MemoryLimit.
	BlockCapacity int64

	Logger *zap.Logger
}

// Normalize returns a copy of c with defaults applied, or an error if the
// configuration cannot work.
func (c *Config) Normalize() (Config, error) {
	var n Config
	if c != nil {
		n = *c
	}
	if n.MemoryLimit == 0 {
		n.MemoryLimit = DefaultMemoryLimit
	}
	if n.FrameSize <= 0 {
		n.FrameSize = emvec.DefaultFrameSize
		if lim := n.MemoryLimit / MinFrames; lim < int64(n.FrameSize) {
			n.FrameSize = int(lim)
		}
	}
	if n.SegmentSize <= 0 {
		n.SegmentSize = emvec.DefaultSegmentSize
	}
	if n.Format == 0 {
		n.Format = Uint8
	}
	if n.OffsetWidth == 0 {
		n.OffsetWidth = DefaultOffsetWidth
	}
	if n.Alignment == 0 {
		n.Alignment = 1
	}
	if n.Logger == nil {
		n.Logger = zap.NewNop()
	}

	switch {
	case n.MemoryLimit < 0 || n.MemoryLimit < MinFrames*int64(n.FrameSize) || n.FrameSize < 64:
		return n, ErrBudget
	case !n.Format.Valid() || n.Format == Uint40:
		return n, ErrFormat
	case n.OffsetWidth != 4 && n.OffsetWidth != 5 && n.OffsetWidth != 8:
		return n, ErrFormat
	case n.Alignment < 0:
		return n, ErrAlignment
	case n.Compression < CompressNone || n.Compression > CompressXZ:
		return n, ErrFormat
	}
	return n, nil
}

// symbolWidth reports the width of staged symbols, accounting for Shift.
func (c *Config) symbolWidth() int {
	w := c.Format.Width()
	if c.Format == Bits {
		return 1
	}
	if c.Shift {
		if w == 8 {
			return 8
		}
		return 2 * w
	}
	return w
}

// blockCapacity reports the number of symbols a block may hold, given the
// width of symbols at the current level.
func (c *Config) blockCapacity(symWidth int) int64 {
	if c.BlockCapacity > 0 {
		return c.BlockCapacity
	}
	n := c.MemoryLimit / int64(symWidth+localBytesPerSymbol)
	if n > math.MaxInt32 {
		n = math.MaxInt32
	}
	if n < 2 {
		n = 2
	}
	return n
}

func (c *Config) stageConfig() emvec.Config {
	return emvec.Config{
		Dir:         c.TempDir,
		FrameSize:   c.FrameSize,
		SegmentSize: c.SegmentSize,
		Compression: c.Compression,
		Logger:      c.Logger,
	}
}
