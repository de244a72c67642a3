// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package dsais

import (
	"time"

	"github.com/dsnet/extsa/internal/emvec"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LevelStats describes one recursion level.
type LevelStats struct {
	Symbols int64 // Length of the text at this level, including the sentinel
	LMS     int64 // Number of LMS positions
	Names   int64 // Number of distinct LMS substrings
	Blocks  int
}

// Stats reports on a construction.
type Stats struct {
	Symbols  int64 // Input symbols, excluding the sentinel
	Levels   []LevelStats
	Disk     emvec.Stats
	Checksum uint32 // CRC-32 of the output file
	Elapsed  time.Duration
}

// Depth reports the number of recursion levels used.
func (s *Stats) Depth() int { return len(s.Levels) }

// PDUPerSymbol reports the peak disk usage in bytes per input symbol.
func (s *Stats) PDUPerSymbol() float64 {
	if s.Symbols == 0 {
		return 0
	}
	return float64(s.Disk.PeakDiskUsage) / float64(s.Symbols)
}

// IOPerSymbol reports the staging bytes read and written per input symbol.
func (s *Stats) IOPerSymbol() float64 {
	if s.Symbols == 0 {
		return 0
	}
	return float64(s.Disk.BytesRead+s.Disk.BytesWritten) / float64(s.Symbols)
}

// MarshalLogObject allows Stats to be logged as a structured field.
func (s *Stats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt64("symbols", s.Symbols)
	enc.AddInt("depth", s.Depth())
	enc.AddInt64("peakDiskUsage", s.Disk.PeakDiskUsage)
	enc.AddInt64("bytesRead", s.Disk.BytesRead)
	enc.AddInt64("bytesWritten", s.Disk.BytesWritten)
	enc.AddFloat64("pduPerSymbol", s.PDUPerSymbol())
	enc.AddFloat64("ioPerSymbol", s.IOPerSymbol())
	enc.AddDuration("elapsed", s.Elapsed)
	return nil
}

var _ zapcore.ObjectMarshaler = (*Stats)(nil)

func logStats(log *zap.Logger, s *Stats) {
	log.Info("suffix array built", zap.Object("stats", s))
}
