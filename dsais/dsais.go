// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package dsais builds suffix arrays of texts larger than memory.
//
// Construction follows the induced sorting of SA-IS. The text is cut into
// blocks aligned to LMS substrings, each block is sorted in memory, and the
// per-block results are merged by bounded external priority queues. When
// the LMS substrings are not all distinct, the reduced string is sorted
// recursively, in memory once it fits the budget.
//
// Every symbol of the text must be non-zero; the builder appends a zero
// sentinel which is dropped from the output. Config.Shift makes any text
// admissible by adding one to every symbol.
package dsais

import (
	"github.com/dsnet/extsa/internal"
)

// Error is the wrapper type for errors specific to this package.
type Error string

func (e Error) Error() string { return "dsais: " + string(e) }

var (
	// ErrBudget reports a memory limit too small to stage any data.
	ErrBudget error = Error("memory limit too small")

	// ErrFormat reports an unsupported input or output layout, or an input
	// whose size is not a whole number of records.
	ErrFormat error = Error("invalid format")

	// ErrSentinel reports a zero symbol in an unshifted input, or a symbol
	// that overflows when shifted.
	ErrSentinel error = Error("input contains the reserved zero symbol")

	// ErrAlignment reports a binary input whose length is not a multiple of
	// the configured alignment.
	ErrAlignment error = Error("input length is not aligned")

	// ErrCorrupt reports staging data that failed its checksum.
	ErrCorrupt = internal.ErrCorrupt
)
