// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package symio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pingcap/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	var vectors = []struct {
		format Format
		vals   []uint64
	}{
		{Uint8, []uint64{0, 1, 255}},
		{Uint16, []uint64{0x1234, 0xffff}},
		{Uint32, []uint64{0xdeadbeef, 7}},
		{Uint40, []uint64{1<<40 - 1, 1 << 32, 0}},
		{Uint64, []uint64{^uint64(0), 42}},
	}

	for i, v := range vectors {
		path := filepath.Join(t.TempDir(), "recs")
		w, err := Create(path, v.format.Width())
		require.NoError(t, err)
		for _, x := range v.vals {
			require.NoError(t, w.Write(x))
		}
		assert.Equal(t, int64(len(v.vals)), w.Count())
		require.NoError(t, w.Close())

		f, err := Open(path, v.format)
		require.NoError(t, err)
		assert.Equal(t, int64(len(v.vals)), f.Len())
		var got []uint64
		require.NoError(t, f.Each(func(j int64, x uint64) error {
			assert.Equal(t, x, f.At(j))
			got = append(got, x)
			return nil
		}))
		require.NoError(t, f.Close())
		if diff := cmp.Diff(v.vals, got); diff != "" {
			t.Errorf("test %d (%v), records mismatch (-want +got):\n%s", i, v.format, diff)
		}
	}
}

func TestBits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bits")
	require.NoError(t, os.WriteFile(path, []byte{0xa5, 0x01}, 0600))

	f, err := Open(path, Bits)
	require.NoError(t, err)
	defer f.Close()

	want := []uint64{1, 0, 1, 0, 0, 1, 0, 1, 0, 0, 0, 0, 0, 0, 0, 1}
	var got []uint64
	require.NoError(t, f.Each(func(_ int64, x uint64) error {
		got = append(got, x)
		return nil
	}))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bits mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, uint64(1), f.At(15))
}

func TestEachStops(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recs")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3, 4}, 0600))
	f, err := Open(path, Uint8)
	require.NoError(t, err)
	defer f.Close()

	stop := errors.New("stop")
	var cnt int
	err = f.Each(func(_ int64, x uint64) error {
		cnt++
		if x == 2 {
			return stop
		}
		return nil
	})
	assert.Equal(t, stop, err)
	assert.Equal(t, 2, cnt)
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"), Uint8)
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}

func TestParseFormat(t *testing.T) {
	for _, f := range []Format{Bits, Uint8, Uint16, Uint32, Uint40, Uint64} {
		got, err := ParseFormat(f.String())
		assert.Nil(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseFormat("u12")
	assert.NotNil(t, err)
}
