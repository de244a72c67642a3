// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package mergeq

import (
	"fmt"
	"sort"
	"testing"

	"github.com/dsnet/extsa/internal/emvec"
	"github.com/dsnet/extsa/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item = Item[uint8, uint32]

var testCodec = NewItemCodec[uint8, uint32](1, 4)

type sliceSource struct {
	items  []item
	closed bool
}

func (s *sliceSource) Empty() bool { return len(s.items) == 0 }
func (s *sliceSource) Value() item { return s.items[0] }
func (s *sliceSource) Next()       { s.items = s.items[1:] }
func (s *sliceSource) Close()      { s.closed = true }

func newTestStage(t *testing.T) *emvec.Stage {
	st, err := emvec.NewStage(emvec.Config{Dir: t.TempDir(), FrameSize: 64})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

type variant struct {
	name string
	make func(*emvec.Stage, ItemCodec[uint8, uint32], int) *Queue[uint8, uint32]
	less func(a, b item) bool
}

var variants = []variant{
	{"LSub", NewLSub[uint8, uint32], LessLSub[uint8, uint32]},
	{"SSub", NewSSub[uint8, uint32], LessSSub[uint8, uint32]},
	{"LSuf", NewLSuf[uint8, uint32], LessLSuf[uint8, uint32]},
	{"SSuf", NewSSuf[uint8, uint32], LessSSuf[uint8, uint32]},
}

func TestQueueOrder(t *testing.T) {
	for _, v := range variants {
		for _, limit := range []int{4, 1000} {
			t.Run(fmt.Sprintf("%s/Limit:%d", v.name, limit), func(t *testing.T) {
				st := newTestStage(t)
				q := v.make(st, testCodec, limit)
				defer q.Close()

				r := testutil.NewRand(limit)
				var want []item
				for i, p := range r.Perm(300) {
					it := item{Ch: uint8(r.Intn(8)), Name: uint32(i), Pos: uint32(p)}
					want = append(want, it)
					q.Push(it)
				}
				q.Flush()
				sort.Slice(want, func(i, j int) bool { return v.less(want[i], want[j]) })

				var got []item
				for !q.Empty() {
					q.Top()
					got = append(got, q.Pop())
				}
				if diff := cmp.Diff(want, got); diff != "" {
					t.Errorf("pop order mismatch (-want +got):\n%s", diff)
				}
				if limit < 300 {
					assert.NotZero(t, q.Spills())
				} else {
					assert.Zero(t, q.Spills())
				}
			})
		}
	}
}

func TestQueueInflight(t *testing.T) {
	st := newTestStage(t)
	q := NewLSub[uint8, uint32](st, testCodec, 100)
	defer q.Close()

	q.Attach(&sliceSource{items: []item{{1, 7, 10}, {1, 7, 20}, {3, 7, 5}}})
	assert.False(t, q.AtBoundary())

	assert.Equal(t, item{1, 7, 10}, q.Pop())
	assert.True(t, q.Diff())
	q.Push(item{2, 1, 9}) // Hidden until the class ends
	assert.False(t, q.AtBoundary())
	assert.Equal(t, item{1, 7, 20}, q.Pop())
	assert.False(t, q.Diff())
	q.Push(item{2, 1, 19})

	assert.True(t, q.AtBoundary())
	q.Flush()
	assert.Equal(t, item{2, 1, 9}, q.Pop())
	assert.True(t, q.Diff())
	assert.Equal(t, item{2, 1, 19}, q.Pop())
	assert.False(t, q.Diff())
	assert.Equal(t, item{3, 7, 5}, q.Pop())
	assert.True(t, q.Diff())
	assert.True(t, q.AtBoundary())
	assert.True(t, q.Empty())
}

// TestQueueInduce simulates an induce pass where every popped item may
// produce a successor in a later bucket.
func TestQueueInduce(t *testing.T) {
	for _, v := range variants[2:] {
		t.Run(v.name, func(t *testing.T) {
			st := newTestStage(t)
			q := v.make(st, testCodec, 8)
			defer q.Close()

			asc := v.name == "LSuf"
			r := testutil.NewRand(1)
			var seeds []item
			for i := 0; i < 200; i++ {
				seeds = append(seeds, item{Ch: uint8(100 + r.Intn(50)), Name: uint32(1<<31 + i), Pos: uint32(i)})
			}
			sort.Slice(seeds, func(i, j int) bool { return v.less(seeds[i], seeds[j]) })
			src := &sliceSource{items: seeds}
			q.Attach(src)

			var seq uint32
			var prev item
			var cnt int
			for !q.Empty() {
				it := q.Pop()
				seq++
				cnt++
				if cnt > 1 && v.less(it, prev) {
					t.Fatalf("pop %d out of order: %v after %v", cnt, it, prev)
				}
				prev = it
				if it.Pos%3 != 0 {
					ch := it.Ch - 1
					if asc {
						ch = it.Ch + 1
					}
					q.Push(item{Ch: ch, Name: seq, Pos: it.Pos - 1})
				}
			}
			assert.True(t, cnt > len(seeds))
			q.Close()
			assert.True(t, src.closed)
		})
	}
}
