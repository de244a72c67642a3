// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package dsais

import (
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/dsnet/extsa/internal"
	"github.com/dsnet/extsa/internal/emvec"
	"github.com/dsnet/extsa/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pingcap/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallConfig forces spills, many blocks and recursion on short texts.
func smallConfig(t *testing.T) *Config {
	return &Config{
		MemoryLimit: 1 << 12,
		FrameSize:   64,
		SegmentSize: 512,
		TempDir:     t.TempDir(),
	}
}

func mustBuild[A internal.Unsigned](t *testing.T, text []A, c *Config) *Stats {
	t.Helper()
	got, stats, err := Build(text, c)
	require.NoError(t, err)
	want := testutil.NaiveSA(text)
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("suffix array mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, Check(text, got).OK)
	return stats
}

func TestBuildScenario(t *testing.T) {
	text := []uint8{2, 1, 1, 2, 1, 3}
	want := []int64{1, 2, 4, 0, 3, 5}
	for _, capacity := range []int64{0, 1, 2, 3, 4, 5, 7} {
		t.Run(fmt.Sprintf("Capacity%d", capacity), func(t *testing.T) {
			got, stats, err := Build(text, &Config{BlockCapacity: capacity, TempDir: t.TempDir()})
			require.NoError(t, err)
			assert.Equal(t, want, got)
			require.Equal(t, 1, stats.Depth())
			assert.Equal(t, int64(7), stats.Levels[0].Symbols)
			assert.Equal(t, int64(3), stats.Levels[0].LMS)
			assert.Equal(t, int64(6), stats.Symbols)
			if capacity == 1 {
				assert.Equal(t, 3, stats.Levels[0].Blocks)
			}
		})
	}
}

func TestBuilderSentinelOnly(t *testing.T) {
	c, err := (&Config{TempDir: t.TempDir()}).Normalize()
	require.NoError(t, err)
	st, err := emvec.NewStage(c.stageConfig())
	require.NoError(t, err)
	defer st.Close()

	text := emvec.New[uint8](st, emvec.NewUint[uint8]())
	text.Push(0)
	text.Finish()
	stats := new(Stats)
	sa := newBuilder[uint8, uint32](&c, st, stats, 0, 1, 1).run(text)
	defer sa.Close()

	var got []uint32
	for cur := sa.Cursor(emvec.Forward, true); !cur.EOF(); cur.Next() {
		got = append(got, cur.Get())
	}
	assert.Equal(t, []uint32{0}, got)
	assert.Equal(t, 1, stats.Depth())

	out, _, err := Build([]uint8{}, &Config{TempDir: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestBuildMonotone(t *testing.T) {
	inc := make([]uint16, 500)
	dec := make([]uint16, 500)
	for i := range inc {
		inc[i] = uint16(i + 1)
		dec[i] = uint16(len(dec) - i)
	}
	stats := mustBuild(t, inc, smallConfig(t))
	assert.Equal(t, int64(1), stats.Levels[0].LMS)
	stats = mustBuild(t, dec, smallConfig(t))
	assert.Equal(t, int64(1), stats.Levels[0].LMS)

	same := make([]uint8, 300)
	for i := range same {
		same[i] = 'a'
	}
	mustBuild(t, same, smallConfig(t))
}

func TestBuildRandom(t *testing.T) {
	var vectors = []struct {
		size, alpha int
		comp        Compression
		capacity    int64
		deep        bool // Expect recursion
	}{
		{size: 1, alpha: 1},
		{size: 2, alpha: 2},
		{size: 10, alpha: 2},
		{size: 100, alpha: 4},
		{size: 100, alpha: 4, capacity: 1},
		{size: 1000, alpha: 2, capacity: 3},
		{size: 4000, alpha: 4, deep: true},
		{size: 4000, alpha: 255},
		{size: 3000, alpha: 3, comp: CompressFlate, deep: true},
		{size: 3000, alpha: 3, comp: CompressXZ, deep: true},
	}

	for i, v := range vectors {
		t.Run(fmt.Sprintf("Vector%d", i), func(t *testing.T) {
			r := testutil.NewRand(i)
			text := make([]uint8, v.size)
			for j := range text {
				text[j] = uint8(1 + r.Intn(v.alpha))
			}
			c := smallConfig(t)
			c.Compression = v.comp
			c.BlockCapacity = v.capacity
			stats := mustBuild(t, text, c)
			if v.deep {
				assert.Greater(t, stats.Depth(), 1)
				assert.Greater(t, stats.Disk.BytesWritten, int64(0))
			}
		})
	}
}

func TestBuildRepeats(t *testing.T) {
	for i, alpha := range []int{1, 2, 16} {
		t.Run(fmt.Sprintf("Alpha%d", alpha), func(t *testing.T) {
			text := testutil.Repeats(testutil.NewRand(i), 3000, alpha)
			mustBuild(t, text, smallConfig(t))
		})
	}
}

func TestBuildWide(t *testing.T) {
	r := testutil.NewRand(7)
	t32 := make([]uint32, 2000)
	t64 := make([]uint64, 2000)
	for i := range t32 {
		t32[i] = uint32(1 + r.Intn(1<<31))
		t64[i] = uint64(1+r.Intn(5))<<40 | uint64(1+r.Intn(3))
	}
	mustBuild(t, t32, smallConfig(t))
	mustBuild(t, t64, smallConfig(t))
}

func TestBuildShift(t *testing.T) {
	text := []uint8{0, 1, 0, 0, 1, 0}
	_, _, err := Build(text, nil)
	assert.Equal(t, ErrSentinel, err)

	c := smallConfig(t)
	c.Shift = true
	got, _, err := Build(text, c)
	require.NoError(t, err)
	assert.Equal(t, testutil.NaiveSA(text), got)

	_, _, err = Build([]uint8{1, 255}, c)
	assert.Equal(t, ErrSentinel, err)
}

func TestBuildFile(t *testing.T) {
	r := testutil.NewRand(3)
	var vectors = []struct {
		format Format
		shift  bool
		width  int // Output offset width
		vals   []uint64
	}{
		{format: Uint8, width: 5, vals: r.Symbols(2500, 4)},
		{format: Uint8, width: 4, vals: r.Symbols(100, 255)},
		{format: Uint8, width: 8, shift: true, vals: append(r.Symbols(50, 3), 0, 0, 0)},
		{format: Uint16, width: 5, vals: r.Symbols(2000, 1000)},
		{format: Uint16, width: 5, shift: true, vals: append(r.Symbols(50, 65535), 65535, 0)},
		{format: Uint32, width: 4, vals: r.Symbols(1000, 1<<30)},
		{format: Uint64, width: 8, vals: r.Symbols(1000, 3)},
		{format: Uint8, width: 5, vals: nil},
	}

	for i, v := range vectors {
		t.Run(fmt.Sprintf("Vector%d", i), func(t *testing.T) {
			dir := t.TempDir()
			in, out := filepath.Join(dir, "text"), filepath.Join(dir, "sa")
			testutil.MustWriteFile(in, v.format.Width(), v.vals)

			c := smallConfig(t)
			c.Format, c.Shift, c.OffsetWidth = v.format, v.shift, v.width
			stats, err := BuildFile(in, out, c)
			require.NoError(t, err)

			got := testutil.MustReadFile(out, v.width)
			want := testutil.NaiveSA(v.vals)
			require.Len(t, got, len(want))
			for j := range want {
				require.Equal(t, uint64(want[j]), got[j], "rank %d", j)
			}

			b, err := os.ReadFile(out)
			require.NoError(t, err)
			assert.Equal(t, crc32.ChecksumIEEE(b), stats.Checksum)
			assert.Equal(t, int64(len(v.vals)), stats.Symbols)

			res, err := CheckFile(in, out, c)
			require.NoError(t, err)
			assert.True(t, res.OK, res.Reason)
		})
	}
}

func TestBuildFileBits(t *testing.T) {
	data := testutil.NewRand(5).Bytes(256)
	dir := t.TempDir()
	in, out := filepath.Join(dir, "text"), filepath.Join(dir, "sa")
	require.NoError(t, os.WriteFile(in, data, 0664))

	c := smallConfig(t)
	c.Format, c.Alignment = Bits, 4
	_, err := BuildFile(in, out, c)
	require.NoError(t, err)

	var bits []uint8
	for _, b := range data {
		for k := 7; k >= 0; k-- {
			bits = append(bits, b>>uint(k)&1)
		}
	}
	want := testutil.NaiveSA(bits)
	got := testutil.MustReadFile(out, DefaultOffsetWidth)
	require.Len(t, got, len(want))
	for j := range want {
		require.Equal(t, uint64(want[j]), got[j], "rank %d", j)
	}

	res, err := CheckFile(in, out, c)
	require.NoError(t, err)
	assert.True(t, res.OK, res.Reason)
}

func TestBuildFileErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, b []byte) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, b, 0664))
		return p
	}
	good := write("good", []byte{1, 2, 3, 4})
	odd := write("odd", []byte{1, 2, 3})
	zero := write("zero", []byte{1, 0, 3})
	max64 := write("max64", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})

	var vectors = []struct {
		in  string
		cfg Config
		err error
	}{
		{in: good, cfg: Config{MemoryLimit: 100}, err: ErrBudget},
		{in: good, cfg: Config{MemoryLimit: 1 << 12, FrameSize: 1 << 10}, err: ErrBudget},
		{in: good, cfg: Config{Format: Uint40}, err: ErrFormat},
		{in: good, cfg: Config{OffsetWidth: 3}, err: ErrFormat},
		{in: odd, cfg: Config{Format: Uint16}, err: ErrFormat},
		{in: zero, cfg: Config{}, err: ErrSentinel},
		{in: max64, cfg: Config{Format: Uint64, Shift: true}, err: ErrSentinel},
		{in: odd, cfg: Config{Format: Bits, Alignment: 2}, err: ErrAlignment},
	}

	for i, v := range vectors {
		t.Run(fmt.Sprintf("Vector%d", i), func(t *testing.T) {
			out := filepath.Join(dir, fmt.Sprintf("sa%d", i))
			v.cfg.TempDir = dir
			_, err := BuildFile(v.in, out, &v.cfg)
			assert.Equal(t, v.err, errors.Cause(err))
			_, err = os.Stat(out)
			assert.True(t, os.IsNotExist(err), "output should not exist")
		})
	}

	_, err := BuildFile(filepath.Join(dir, "missing"), filepath.Join(dir, "sa"), nil)
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}

func FuzzBuild(f *testing.F) {
	f.Add([]byte{2, 1, 1, 2, 1, 3}, int64(1))
	f.Add([]byte("mississippi"), int64(0))
	f.Add([]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaab"), int64(3))
	f.Fuzz(func(t *testing.T, text []byte, capacity int64) {
		if capacity < 0 || capacity > 64 {
			t.Skip()
		}
		c := smallConfig(t)
		c.Shift, c.BlockCapacity = true, capacity
		got, _, err := Build(text, c)
		if err == ErrSentinel {
			t.Skip()
		}
		require.NoError(t, err)
		assert.Equal(t, testutil.NaiveSA(text), got)
	})
}
