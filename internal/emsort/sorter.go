// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package emsort implements a stable external merge sort over emvec
// sequences.
//
// Records are collected in memory until a limit is reached, at which point
// they are sorted and spilled as a run. Sort merges all runs with a heap
// keyed on the record and its run index, so records that compare equal come
// out in the order they were pushed.
package emsort

import (
	"container/heap"
	"sort"

	"github.com/dsnet/extsa/internal"
	"github.com/dsnet/extsa/internal/emvec"
)

// minLimit is the smallest number of records held in memory.
const minLimit = 16

// Limit converts a memory budget in bytes into a record count.
func Limit(budget int64, recSize int) int {
	n := budget / int64(recSize)
	if n < minLimit {
		return minLimit
	}
	if n > 1<<30 {
		return 1 << 30
	}
	return int(n)
}

// Sorter sorts records of type T by less.
type Sorter[T any] struct {
	st    *emvec.Stage
	codec emvec.Codec[T]
	less  func(a, b T) bool
	limit int

	buf  []T
	runs []*emvec.Sequence[T]
	n    int64

	sorted bool
	mi     int // Index into buf when every record fit in memory
	curs   []*emvec.Cursor[T]
	h      runHeap[T]
}

// New creates a sorter holding at most limit records in memory.
func New[T any](st *emvec.Stage, codec emvec.Codec[T], less func(a, b T) bool, limit int) *Sorter[T] {
	if limit < minLimit {
		limit = minLimit
	}
	return &Sorter[T]{st: st, codec: codec, less: less, limit: limit}
}

// Len reports the number of records pushed.
func (s *Sorter[T]) Len() int64 { return s.n }

// Runs reports the number of runs spilled to disk.
func (s *Sorter[T]) Runs() int { return len(s.runs) }

// Push adds v to the sorter.
func (s *Sorter[T]) Push(v T) {
	if s.sorted {
		panic("emsort: push after sort")
	}
	s.buf = append(s.buf, v)
	s.n++
	if len(s.buf) >= s.limit {
		s.spill()
	}
}

func (s *Sorter[T]) spill() {
	sort.SliceStable(s.buf, func(i, j int) bool { return s.less(s.buf[i], s.buf[j]) })
	run := emvec.New[T](s.st, s.codec)
	for _, v := range s.buf {
		run.Push(v)
	}
	run.Finish()
	s.runs = append(s.runs, run)
	s.buf = s.buf[:0]
}

// Sort ends the input phase. Afterwards the records are read in order with
// Empty, Value and Next.
func (s *Sorter[T]) Sort() {
	if s.sorted {
		return
	}
	s.sorted = true
	if len(s.runs) == 0 {
		sort.SliceStable(s.buf, func(i, j int) bool { return s.less(s.buf[i], s.buf[j]) })
		return
	}
	if len(s.buf) > 0 {
		s.spill()
	}
	s.buf = nil
	s.h.less = s.less
	for i, run := range s.runs {
		c := run.Cursor(emvec.Forward, true)
		s.curs = append(s.curs, c)
		if !c.EOF() {
			s.h.items = append(s.h.items, runItem[T]{c.Get(), i})
		}
	}
	heap.Init(&s.h)
}

// Empty reports whether every sorted record has been visited.
func (s *Sorter[T]) Empty() bool {
	s.check()
	if s.curs == nil {
		return s.mi >= len(s.buf)
	}
	return len(s.h.items) == 0
}

// Value returns the smallest record not yet visited.
func (s *Sorter[T]) Value() T {
	s.check()
	if s.curs == nil {
		return s.buf[s.mi]
	}
	return s.h.items[0].v
}

// Next advances past the smallest record.
func (s *Sorter[T]) Next() {
	s.check()
	if s.curs == nil {
		s.mi++
		return
	}
	top := &s.h.items[0]
	run, prev := top.run, top.v
	c := s.curs[run]
	c.Next()
	if c.EOF() {
		heap.Pop(&s.h)
		s.runs[run].Close()
	} else {
		top.v = c.Get()
		heap.Fix(&s.h, 0)
	}
	if internal.Debug && len(s.h.items) > 0 && s.less(s.h.items[0].v, prev) {
		panic("emsort: merged output out of order")
	}
}

// Close releases all memory and disk held by the sorter.
func (s *Sorter[T]) Close() {
	for _, run := range s.runs {
		run.Close()
	}
	s.runs, s.curs, s.buf, s.h.items = nil, nil, nil, nil
}

func (s *Sorter[T]) check() {
	if !s.sorted {
		panic("emsort: read before sort")
	}
}

type runItem[T any] struct {
	v   T
	run int
}

type runHeap[T any] struct {
	items []runItem[T]
	less  func(a, b T) bool
}

func (h *runHeap[T]) Len() int { return len(h.items) }
func (h *runHeap[T]) Less(i, j int) bool {
	a, b := &h.items[i], &h.items[j]
	if h.less(a.v, b.v) {
		return true
	}
	if h.less(b.v, a.v) {
		return false
	}
	return a.run < b.run
}
func (h *runHeap[T]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *runHeap[T]) Push(x any)    { h.items = append(h.items, x.(runItem[T])) }
func (h *runHeap[T]) Pop() any {
	n := len(h.items) - 1
	x := h.items[n]
	h.items = h.items[:n]
	return x
}
