// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package mergeq

import (
	"github.com/dsnet/extsa/internal"
	"github.com/dsnet/extsa/internal/emvec"
)

// Item is an induced suffix or substring waiting in a queue.
// Ch is the first symbol of the suffix starting at Pos and Name identifies
// the class of the item that induced it.
type Item[A, O internal.Unsigned] struct {
	Ch   A
	Name O
	Pos  O
}

// ItemCodec lays out an Item as Ch in CW bytes followed by Name and Pos in
// OW bytes each.
type ItemCodec[A, O internal.Unsigned] struct {
	CW, OW int
}

// NewItemCodec returns a codec storing Ch in cw bytes and offsets in ow bytes.
func NewItemCodec[A, O internal.Unsigned](cw, ow int) ItemCodec[A, O] {
	return ItemCodec[A, O]{CW: cw, OW: ow}
}

func (c ItemCodec[A, O]) Size() int { return c.CW + 2*c.OW }

func (c ItemCodec[A, O]) Put(b []byte, v Item[A, O]) {
	emvec.Uint[A]{W: c.CW}.Put(b, v.Ch)
	emvec.Uint[O]{W: c.OW}.Put(b[c.CW:], v.Name)
	emvec.Uint[O]{W: c.OW}.Put(b[c.CW+c.OW:], v.Pos)
}

func (c ItemCodec[A, O]) Get(b []byte) Item[A, O] {
	return Item[A, O]{
		Ch:   emvec.Uint[A]{W: c.CW}.Get(b),
		Name: emvec.Uint[O]{W: c.OW}.Get(b[c.CW:]),
		Pos:  emvec.Uint[O]{W: c.OW}.Get(b[c.CW+c.OW:]),
	}
}

// LessLSub orders the L-type substring queue: ch asc, name asc, pos asc.
func LessLSub[A, O internal.Unsigned](a, b Item[A, O]) bool {
	if a.Ch != b.Ch {
		return a.Ch < b.Ch
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Pos < b.Pos
}

// LessSSub orders the S-type substring queue: ch desc, name asc, pos desc.
func LessSSub[A, O internal.Unsigned](a, b Item[A, O]) bool {
	if a.Ch != b.Ch {
		return a.Ch > b.Ch
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Pos > b.Pos
}

// LessLSuf orders the L-type suffix queue: ch asc, name asc.
func LessLSuf[A, O internal.Unsigned](a, b Item[A, O]) bool {
	if a.Ch != b.Ch {
		return a.Ch < b.Ch
	}
	return a.Name < b.Name
}

// LessSSuf orders the S-type suffix queue: ch desc, name asc.
func LessSSuf[A, O internal.Unsigned](a, b Item[A, O]) bool {
	if a.Ch != b.Ch {
		return a.Ch > b.Ch
	}
	return a.Name < b.Name
}
