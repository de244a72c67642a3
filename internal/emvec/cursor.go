// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package emvec

import (
	"path/filepath"

	"github.com/dsnet/extsa/internal"
	"github.com/pingcap/errors"
)

// Direction is the order in which a Cursor visits records.
type Direction bool

const (
	Forward Direction = false
	Reverse Direction = true
)

// Cursor reads the records of a finished Sequence one at a time.
type Cursor[T any] struct {
	s       *Sequence[T]
	rev     bool
	consume bool

	fk   int // Index of the loaded frame
	buf  []T // Records of the loaded frame
	raw  []byte
	i    int   // Index of the current record within buf
	left int64 // Records not yet passed by Next
}

// Cursor returns a cursor over s. A consuming cursor releases each frame as
// soon as it has been passed; no other cursor may be used on s afterwards.
func (s *Sequence[T]) Cursor(dir Direction, consume bool) *Cursor[T] {
	if !s.done {
		panic("emvec: cursor on unfinished sequence")
	}
	c := &Cursor[T]{s: s, rev: bool(dir), consume: consume, left: s.n}
	if s.n == 0 {
		return c
	}
	if c.rev {
		c.load(s.numFrames() - 1)
		c.i = len(c.buf) - 1
	} else {
		c.load(0)
		c.i = 0
	}
	return c
}

// EOF reports whether every record has been visited.
func (c *Cursor[T]) EOF() bool { return c.left == 0 }

// Remaining reports the number of records not yet visited.
func (c *Cursor[T]) Remaining() int64 { return c.left }

// Get returns the current record.
func (c *Cursor[T]) Get() T {
	if c.left == 0 {
		panic("emvec: read past end of sequence")
	}
	return c.buf[c.i]
}

// Next advances to the next record.
func (c *Cursor[T]) Next() {
	if c.left == 0 {
		panic("emvec: advance past end of sequence")
	}
	c.left--
	if c.rev {
		c.i--
		if c.i < 0 {
			c.leave()
			if c.left > 0 {
				c.load(c.fk - 1)
				c.i = len(c.buf) - 1
			}
		}
	} else {
		c.i++
		if c.i == len(c.buf) {
			c.leave()
			if c.left > 0 {
				c.load(c.fk + 1)
				c.i = 0
			}
		}
	}
}

// Pop returns the current record and advances past it.
func (c *Cursor[T]) Pop() T {
	v := c.Get()
	c.Next()
	return v
}

// Empty, Value and Close allow a Cursor to be used as a Source.
func (c *Cursor[T]) Empty() bool { return c.EOF() }
func (c *Cursor[T]) Value() T    { return c.Get() }
func (c *Cursor[T]) Close()      { c.buf, c.raw = nil, nil }

func (c *Cursor[T]) load(k int) {
	c.fk = k
	c.buf, c.raw = c.s.loadFrame(k, c.buf, c.raw)
}

func (c *Cursor[T]) leave() {
	if c.consume {
		c.s.releaseFrame(c.fk)
	}
}

// Source is an ordered stream of records.
type Source[T any] interface {
	Empty() bool
	Value() T
	Next()
	Close()
}

func corruptFrame(path string, k int) error {
	return errors.Annotatef(internal.ErrCorrupt, "frame %d of %s", k, filepath.Base(path))
}
