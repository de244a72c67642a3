// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package mergeq implements the bounded priority queues that drive the
// external induce passes.
//
// A queue pops items in the order of its variant while holding at most a
// fixed number of items in memory. Items beyond that limit are spilled to
// sorted runs on disk and merged back in with any sorted sources attached
// by the caller. Callers must only push items that order after the last
// item popped.
package mergeq

import (
	"container/heap"
	"sort"

	"github.com/dsnet/extsa/internal"
	"github.com/dsnet/extsa/internal/emvec"
)

// Queue is a bounded external priority queue of Items.
type Queue[A, O internal.Unsigned] struct {
	st    *emvec.Stage
	codec ItemCodec[A, O]
	less  func(a, b Item[A, O]) bool
	limit int
	sub   bool // Whether pushes are held in flight until Flush

	steady   itemHeap[A, O]
	inflight []Item[A, O]
	runs     runHeap[A, O]
	srcs     []emvec.Source[Item[A, O]]
	seqs     []*emvec.Sequence[Item[A, O]]

	top     int // Source of the current top; -1 is the steady heap
	hasTop  bool
	last    Item[A, O]
	popped  bool
	diff    bool
	spilled int
}

func newQueue[A, O internal.Unsigned](st *emvec.Stage, codec ItemCodec[A, O], less func(a, b Item[A, O]) bool, limit int, sub bool) *Queue[A, O] {
	if limit < 2 {
		limit = 2
	}
	q := &Queue[A, O]{st: st, codec: codec, less: less, limit: limit, sub: sub}
	q.steady.less = less
	q.runs.less = less
	return q
}

// NewLSub returns a queue for the L-type substring pass.
func NewLSub[A, O internal.Unsigned](st *emvec.Stage, codec ItemCodec[A, O], limit int) *Queue[A, O] {
	return newQueue(st, codec, LessLSub[A, O], limit, true)
}

// NewSSub returns a queue for the S-type substring pass.
func NewSSub[A, O internal.Unsigned](st *emvec.Stage, codec ItemCodec[A, O], limit int) *Queue[A, O] {
	return newQueue(st, codec, LessSSub[A, O], limit, true)
}

// NewLSuf returns a queue for the L-type suffix pass.
func NewLSuf[A, O internal.Unsigned](st *emvec.Stage, codec ItemCodec[A, O], limit int) *Queue[A, O] {
	return newQueue(st, codec, LessLSuf[A, O], limit, false)
}

// NewSSuf returns a queue for the S-type suffix pass.
func NewSSuf[A, O internal.Unsigned](st *emvec.Stage, codec ItemCodec[A, O], limit int) *Queue[A, O] {
	return newQueue(st, codec, LessSSuf[A, O], limit, false)
}

// Attach merges a source already sorted in the queue's order.
// The queue takes ownership of src and closes it.
func (q *Queue[A, O]) Attach(src emvec.Source[Item[A, O]]) {
	q.hasTop = false
	i := len(q.srcs)
	q.srcs = append(q.srcs, src)
	if !src.Empty() {
		heap.Push(&q.runs, runItem[A, O]{src.Value(), i})
	}
}

// Len reports the number of items held in memory, counting one head per run.
func (q *Queue[A, O]) Len() int {
	return len(q.steady.items) + len(q.inflight) + len(q.runs.items)
}

// Spills reports the number of runs written to disk.
func (q *Queue[A, O]) Spills() int { return q.spilled }

// Empty reports whether no items remain, including those in flight.
func (q *Queue[A, O]) Empty() bool {
	return len(q.steady.items) == 0 && len(q.runs.items) == 0 && len(q.inflight) == 0
}

// visible reports whether an item can be popped without a Flush.
func (q *Queue[A, O]) visible() bool {
	return len(q.steady.items) > 0 || len(q.runs.items) > 0
}

// Top returns the smallest visible item.
func (q *Queue[A, O]) Top() Item[A, O] {
	if !q.visible() {
		panic("mergeq: top of empty queue")
	}
	switch {
	case len(q.runs.items) == 0:
		q.top = -1
	case len(q.steady.items) == 0:
		q.top = q.runs.items[0].src
	case q.less(q.steady.items[0], q.runs.items[0].v):
		q.top = -1
	default:
		q.top = q.runs.items[0].src
	}
	q.hasTop = true
	if q.top < 0 {
		return q.steady.items[0]
	}
	return q.runs.items[0].v
}

// Pop removes the item returned by Top.
func (q *Queue[A, O]) Pop() Item[A, O] {
	if !q.hasTop {
		q.Top()
	}
	q.hasTop = false

	var it Item[A, O]
	if q.top < 0 {
		it = heap.Pop(&q.steady).(Item[A, O])
	} else {
		it = q.runs.items[0].v
		src := q.srcs[q.top]
		src.Next()
		if src.Empty() {
			heap.Pop(&q.runs)
		} else {
			q.runs.items[0].v = src.Value()
			heap.Fix(&q.runs, 0)
		}
	}
	q.diff = !q.popped || it.Ch != q.last.Ch || it.Name != q.last.Name
	q.last, q.popped = it, true
	return it
}

// Diff reports whether the last popped item starts a new class, meaning its
// (Ch, Name) differs from the item popped before it.
func (q *Queue[A, O]) Diff() bool { return q.diff }

// AtBoundary reports whether the current class has been fully popped.
// Substring passes call Flush at every boundary.
func (q *Queue[A, O]) AtBoundary() bool {
	if !q.visible() {
		return true
	}
	if !q.popped {
		return false
	}
	next := q.Top()
	return next.Ch != q.last.Ch || next.Name != q.last.Name
}

// Push inserts an item, which must order after the last popped item.
func (q *Queue[A, O]) Push(it Item[A, O]) {
	q.hasTop = false
	if q.sub {
		q.inflight = append(q.inflight, it)
		if len(q.steady.items)+len(q.inflight) >= q.limit {
			q.spill()
		}
		return
	}
	heap.Push(&q.steady, it)
	if len(q.steady.items) >= q.limit {
		q.spill()
	}
}

// Flush makes every in-flight item visible.
func (q *Queue[A, O]) Flush() {
	if len(q.inflight) == 0 {
		return
	}
	q.hasTop = false
	if len(q.steady.items)+len(q.inflight) >= q.limit {
		q.spill()
		return
	}
	for _, it := range q.inflight {
		heap.Push(&q.steady, it)
	}
	q.inflight = q.inflight[:0]
}

// spill writes the steady heap and the in-flight items as one sorted run.
func (q *Queue[A, O]) spill() {
	items := append(q.steady.items, q.inflight...)
	sort.Slice(items, func(i, j int) bool { return q.less(items[i], items[j]) })
	seq := emvec.New[Item[A, O]](q.st, q.codec)
	for _, it := range items {
		seq.Push(it)
	}
	seq.Finish()
	q.seqs = append(q.seqs, seq)
	q.steady.items = items[:0]
	q.inflight = nil
	q.spilled++
	q.Attach(seq.Cursor(emvec.Forward, true))
}

// Close releases every run and attached source.
func (q *Queue[A, O]) Close() {
	for _, src := range q.srcs {
		src.Close()
	}
	for _, seq := range q.seqs {
		seq.Close()
	}
	q.srcs, q.seqs = nil, nil
	q.steady.items, q.runs.items, q.inflight = nil, nil, nil
}

type itemHeap[A, O internal.Unsigned] struct {
	items []Item[A, O]
	less  func(a, b Item[A, O]) bool
}

func (h *itemHeap[A, O]) Len() int           { return len(h.items) }
func (h *itemHeap[A, O]) Less(i, j int) bool { return h.less(h.items[i], h.items[j]) }
func (h *itemHeap[A, O]) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *itemHeap[A, O]) Push(x any)         { h.items = append(h.items, x.(Item[A, O])) }
func (h *itemHeap[A, O]) Pop() any {
	n := len(h.items) - 1
	x := h.items[n]
	h.items = h.items[:n]
	return x
}

type runItem[A, O internal.Unsigned] struct {
	v   Item[A, O]
	src int
}

type runHeap[A, O internal.Unsigned] struct {
	items []runItem[A, O]
	less  func(a, b Item[A, O]) bool
}

func (h *runHeap[A, O]) Len() int { return len(h.items) }
func (h *runHeap[A, O]) Less(i, j int) bool {
	a, b := &h.items[i], &h.items[j]
	if h.less(a.v, b.v) {
		return true
	}
	if h.less(b.v, a.v) {
		return false
	}
	return a.src < b.src
}
func (h *runHeap[A, O]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *runHeap[A, O]) Push(x any)    { h.items = append(h.items, x.(runItem[A, O])) }
func (h *runHeap[A, O]) Pop() any {
	n := len(h.items) - 1
	x := h.items[n]
	h.items = h.items[:n]
	return x
}
