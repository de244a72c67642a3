// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

//go:build debug && !gofuzz

package internal

// Debug enables self-checks that cost time linear in the data processed.
const (
	Debug  = true
	GoFuzz = false
)
