// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package emvec implements append-only sequences of fixed-size records that
// live mostly on disk.
//
// A Sequence buffers one frame of records in memory. Full frames are
// checksummed, optionally compressed and appended to segment files owned by
// a Stage. Sequences are read back frame by frame through a Cursor in either
// direction; a consuming cursor deletes each segment once every frame in it
// has been read.
//
// Errors are raised by panicking with an error value. Callers are expected
// to recover them at their API boundary with internal.Recover.
package emvec

import (
	"os"

	"github.com/pingcap/errors"
	"go.uber.org/zap"
)

const (
	DefaultFrameSize   = 1 << 16
	DefaultSegmentSize = 1 << 26

	minFrameSize = 64
)

// Stats counts the disk activity of a Stage.
type Stats struct {
	DiskUsage       int64 // Bytes currently held in segment files
	PeakDiskUsage   int64 // Largest value DiskUsage has reached
	BytesWritten    int64 // Bytes written to segment files
	BytesRead       int64 // Bytes read from segment files
	FramesWritten   int64
	FramesRead      int64
	SegmentsCreated int
	SegmentsDeleted int
}

// Config configures a Stage.
type Config struct {
	// Dir is the parent of the private staging directory.
	// If empty, os.TempDir is used.
	Dir string

	// FrameSize is the uncompressed size of a frame in bytes.
	FrameSize int

	// SegmentSize is the size at which a segment file is rolled over.
	SegmentSize int64

	Compression Compression
	Logger      *zap.Logger
}

// Stage owns a private directory holding the segment files of all sequences
// created from it. A Stage is not safe for concurrent use.
type Stage struct {
	dir       string
	frameSize int
	segSize   int64
	log       *zap.Logger
	stats     Stats
	codec     codec
}

// NewStage creates a staging directory under c.Dir.
func NewStage(c Config) (*Stage, error) {
	if c.FrameSize <= 0 {
		c.FrameSize = DefaultFrameSize
	}
	if c.FrameSize < minFrameSize {
		c.FrameSize = minFrameSize
	}
	if c.SegmentSize <= 0 {
		c.SegmentSize = DefaultSegmentSize
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	switch c.Compression {
	case None, Flate, XZ:
	default:
		return nil, errors.Errorf("invalid compression mode %d", c.Compression)
	}
	dir, err := os.MkdirTemp(c.Dir, "extsa-")
	if err != nil {
		return nil, errors.Trace(err)
	}
	st := &Stage{
		dir:       dir,
		frameSize: c.FrameSize,
		segSize:   c.SegmentSize,
		log:       c.Logger,
		codec:     codec{mode: c.Compression},
	}
	st.log.Debug("staging directory created",
		zap.String("dir", dir),
		zap.Int("frameSize", c.FrameSize),
		zap.Int64("segmentSize", c.SegmentSize),
		zap.Stringer("compression", c.Compression))
	return st, nil
}

// Dir reports the staging directory.
func (st *Stage) Dir() string { return st.dir }

// FrameSize reports the uncompressed size of a frame in bytes.
func (st *Stage) FrameSize() int { return st.frameSize }

// Stats reports the disk activity so far.
func (st *Stage) Stats() Stats { return st.stats }

// Close removes the staging directory and every file left in it.
func (st *Stage) Close() error {
	st.log.Debug("staging directory removed",
		zap.String("dir", st.dir),
		zap.Int64("peakDiskUsage", st.stats.PeakDiskUsage),
		zap.Int64("bytesWritten", st.stats.BytesWritten),
		zap.Int64("bytesRead", st.stats.BytesRead))
	return errors.Trace(os.RemoveAll(st.dir))
}

// segment is a single file holding consecutive frames of one sequence.
type segment struct {
	path string
	file *os.File // Non-nil while the segment is being appended to
	size int64
	live int // Number of frames not yet consumed
}

func (st *Stage) createSegment() *segment {
	f, err := os.CreateTemp(st.dir, "seg-*.bin")
	if err != nil {
		panic(errors.Trace(err))
	}
	st.stats.SegmentsCreated++
	return &segment{path: f.Name(), file: f}
}

func (st *Stage) appendSegment(sg *segment, data []byte) int64 {
	off := sg.size
	if _, err := sg.file.Write(data); err != nil {
		panic(errors.Trace(err))
	}
	sg.size += int64(len(data))
	st.stats.BytesWritten += int64(len(data))
	st.stats.FramesWritten++
	st.stats.DiskUsage += int64(len(data))
	if st.stats.DiskUsage > st.stats.PeakDiskUsage {
		st.stats.PeakDiskUsage = st.stats.DiskUsage
	}
	return off
}

func (st *Stage) sealSegment(sg *segment) {
	if sg.file == nil {
		return
	}
	err := sg.file.Close()
	sg.file = nil
	if err != nil {
		panic(errors.Trace(err))
	}
}

func (st *Stage) readSegment(sg *segment, buf []byte, off int64) {
	f, err := os.Open(sg.path)
	if err != nil {
		panic(errors.Trace(err))
	}
	defer f.Close()
	if _, err := f.ReadAt(buf, off); err != nil {
		panic(errors.Trace(err))
	}
	st.stats.BytesRead += int64(len(buf))
	st.stats.FramesRead++
}

func (st *Stage) removeSegment(sg *segment) {
	if sg.path == "" {
		return
	}
	if sg.file != nil {
		sg.file.Close()
		sg.file = nil
	}
	err := os.Remove(sg.path)
	st.stats.DiskUsage -= sg.size
	st.stats.SegmentsDeleted++
	sg.path = ""
	if err != nil && !os.IsNotExist(err) {
		panic(errors.Trace(err))
	}
}
