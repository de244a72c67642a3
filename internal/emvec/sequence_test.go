// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package emvec

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/dsnet/extsa/internal"
	"github.com/dsnet/extsa/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pingcap/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStage(t *testing.T, comp Compression, frameSize int) *Stage {
	st, err := NewStage(Config{
		Dir:         t.TempDir(),
		FrameSize:   frameSize,
		SegmentSize: 256,
		Compression: comp,
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func readAll[T any](s *Sequence[T], dir Direction, consume bool) []T {
	var got []T
	for c := s.Cursor(dir, consume); !c.EOF(); c.Next() {
		got = append(got, c.Get())
	}
	return got
}

func reversed[T any](v []T) []T {
	r := make([]T, len(v))
	for i := range v {
		r[len(v)-1-i] = v[i]
	}
	return r
}

func TestSequence(t *testing.T) {
	var vectors = []struct {
		comp  Compression
		frame int
		cnt   int
	}{
		{None, 64, 0},
		{None, 64, 1},
		{None, 64, 16},
		{None, 64, 1000},
		{Flate, 64, 17},
		{Flate, 1024, 1000},
		{XZ, 1024, 300},
		{XZ, 4096, 5000},
	}

	for i, v := range vectors {
		t.Run(fmt.Sprintf("%v:%d", v.comp, v.cnt), func(t *testing.T) {
			st := newTestStage(t, v.comp, v.frame)
			r := testutil.NewRand(i)
			want := make([]uint32, v.cnt)
			s := New[uint32](st, NewUint[uint32]())
			for j := range want {
				want[j] = uint32(r.Intn(64)) // Compressible
				s.Push(want[j])
			}
			s.Finish()
			assert.Equal(t, int64(v.cnt), s.Len())

			if diff := cmp.Diff(want, readAll(s, Forward, false), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("test %d, forward mismatch (-want +got):\n%s", i, diff)
			}
			if diff := cmp.Diff(reversed(want), readAll(s, Reverse, true), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("test %d, reverse mismatch (-want +got):\n%s", i, diff)
			}
			s.Close()

			stats := st.Stats()
			assert.Equal(t, int64(0), stats.DiskUsage)
			assert.Equal(t, stats.SegmentsCreated, stats.SegmentsDeleted)
			if v.cnt*4 > st.FrameSize() {
				assert.NotZero(t, stats.BytesWritten)
			}
			if v.comp != None && v.frame >= 1024 {
				assert.True(t, stats.BytesWritten < int64(4*v.cnt), "frames were not compressed")
			}
		})
	}
}

func TestConsumeDeletes(t *testing.T) {
	st := newTestStage(t, None, 64)
	s := New[uint64](st, NewUint[uint64]())
	for i := 0; i < 400; i++ {
		s.Push(uint64(i))
	}
	s.Finish()
	segs := st.Stats().SegmentsCreated
	assert.True(t, segs > 1, "expected several segments, got %d", segs)

	c := s.Cursor(Forward, true)
	for i := 0; i < 200; i++ {
		c.Next()
	}
	mid := st.Stats()
	assert.True(t, mid.SegmentsDeleted > 0 && mid.SegmentsDeleted < segs)
	assert.True(t, mid.DiskUsage < mid.PeakDiskUsage)
	for !c.EOF() {
		c.Next()
	}
	end := st.Stats()
	assert.Equal(t, segs, end.SegmentsDeleted)
	assert.Equal(t, int64(0), end.DiskUsage)

	ents, err := os.ReadDir(st.Dir())
	require.NoError(t, err)
	assert.Empty(t, ents)
}

func TestChecksum(t *testing.T) {
	r := testutil.NewRand(0)
	data := make([]uint16, 777)
	for i := range data {
		data[i] = uint16(r.Intn(1 << 16))
	}
	raw := make([]byte, 2*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint16(raw[2*i:], v)
	}
	want := crc32.ChecksumIEEE(raw)

	for _, comp := range []Compression{None, Flate, XZ} {
		st := newTestStage(t, comp, 256)
		s := New[uint16](st, NewUint[uint16]())
		for _, v := range data {
			s.Push(v)
		}
		s.Finish()
		if got := s.Checksum(); got != want {
			t.Errorf("compression %v, checksum mismatch: got %08x, want %08x", comp, got, want)
		}
		s.Close()
	}
}

func TestCorrupt(t *testing.T) {
	st := newTestStage(t, None, 64)
	s := New[uint32](st, NewUint[uint32]())
	for i := 0; i < 100; i++ {
		s.Push(uint32(i))
	}
	s.Finish()

	path := s.segs[0].path
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	b[3] ^= 0x40
	require.NoError(t, os.WriteFile(path, b, 0600))

	err = func() (err error) {
		defer internal.Recover(&err)
		readAll(s, Forward, false)
		return nil
	}()
	assert.Equal(t, internal.ErrCorrupt, errors.Cause(err))
	assert.Contains(t, err.Error(), filepath.Base(path))
}

func TestUint(t *testing.T) {
	var vectors = []struct {
		w    int
		in   uint64
		want uint64
	}{
		{1, 0xff, 0xff},
		{4, 0xdeadbeef, 0xdeadbeef},
		{5, 1<<40 - 1, 1<<40 - 1},
		{5, 1 << 40, 0},
		{8, ^uint64(0), ^uint64(0)},
	}

	for i, v := range vectors {
		c := Uint[uint64]{W: v.w}
		b := make([]byte, 8)
		c.Put(b, v.in)
		if got := c.Get(b); got != v.want {
			t.Errorf("test %d, value mismatch: got %#x, want %#x", i, got, v.want)
		}
	}
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{None, Flate, XZ} {
		got, err := ParseCompression(c.String())
		assert.Nil(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCompression("lz4")
	assert.NotNil(t, err)
}
