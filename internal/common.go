// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package internal is a collection of helpers shared by the external memory
// containers and the suffix array builders.
//
// For performance reasons, these packages lack strong error checking and
// require that the caller to ensure that strict invariants are kept.
package internal

import (
	"runtime"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Error is the wrapper type for errors specific to this library.
type Error string

func (e Error) Error() string { return "extsa: " + string(e) }

// ErrCorrupt reports that data read back from a staging file did not match
// the checksum recorded when it was written.
var ErrCorrupt error = Error("staging data is corrupted")

// Recover converts a panicked error into a returned error.
// Runtime errors and non-error values are contract violations and continue
// to unwind the stack.
func Recover(err *error) {
	switch ex := recover().(type) {
	case nil:
		// Do nothing.
	case runtime.Error:
		panic(ex)
	case error:
		*err = ex
	default:
		panic(ex)
	}
}

// Panic panics with err if it is non-nil.
func Panic(err error) {
	if err != nil {
		panic(err)
	}
}

// Unsigned is the set of integer types used for symbols and offsets.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Width reports the size of T in bytes.
func Width[T constraints.Integer]() int {
	var v T
	return int(unsafe.Sizeof(v))
}

// MaxValue reports the largest value representable in w bytes of T.
func MaxValue[T Unsigned](w int) T {
	if w >= Width[T]() {
		return ^T(0)
	}
	return T(1)<<uint(8*w) - 1
}
