// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package emvec

import "github.com/dsnet/extsa/internal"

// Codec describes the fixed-size binary layout of a record of type T.
type Codec[T any] interface {
	Size() int          // Number of bytes per record
	Put(b []byte, v T)  // Encode v into b[:Size()]
	Get(b []byte) (v T) // Decode v from b[:Size()]
}

// Uint is a little-endian codec that stores an unsigned integer in W bytes.
// Values that do not fit in W bytes are silently truncated.
type Uint[T internal.Unsigned] struct{ W int }

func (c Uint[T]) Size() int { return c.W }

func (c Uint[T]) Put(b []byte, v T) {
	x := uint64(v)
	for i := 0; i < c.W; i++ {
		b[i] = byte(x >> uint(8*i))
	}
}

func (c Uint[T]) Get(b []byte) T {
	var x uint64
	for i := 0; i < c.W; i++ {
		x |= uint64(b[i]) << uint(8*i)
	}
	return T(x)
}

// NewUint returns a codec storing T in its natural width.
func NewUint[T internal.Unsigned]() Uint[T] {
	return Uint[T]{W: internal.Width[T]()}
}
