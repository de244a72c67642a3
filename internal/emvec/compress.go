// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package emvec

import (
	"bytes"
	"io"

	"github.com/dsnet/extsa/internal"
	"github.com/klauspost/compress/flate"
	"github.com/pingcap/errors"
	"github.com/ulikunitz/xz"
)

// Compression selects how frames are encoded before they reach disk.
type Compression int

const (
	None  Compression = iota // Frames are stored raw
	Flate                    // Frames are DEFLATE compressed
	XZ                       // Frames are XZ compressed
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Flate:
		return "flate"
	case XZ:
		return "xz"
	default:
		return "unknown"
	}
}

// ParseCompression converts a codec name into a Compression.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none", "raw":
		return None, nil
	case "flate", "deflate":
		return Flate, nil
	case "xz":
		return XZ, nil
	}
	return None, errors.Errorf("unknown compression %q", s)
}

// xzDictCap is the dictionary size used for XZ frames.
// Frames are small so the default 8MiB window only wastes memory.
const xzDictCap = 1 << 16

type codec struct {
	mode Compression
	buf  bytes.Buffer

	// These fields are lazily allocated and reused for efficiency.
	fw *flate.Writer
	fr io.ReadCloser
}

// encode compresses raw into an internal buffer and returns the frame payload.
// The reported flag is false when compression did not shrink the data, in
// which case the returned payload is raw itself.
func (c *codec) encode(raw []byte) ([]byte, bool) {
	if c.mode == None {
		return raw, false
	}
	c.buf.Reset()
	switch c.mode {
	case Flate:
		if c.fw == nil {
			fw, err := flate.NewWriter(&c.buf, flate.BestSpeed)
			if err != nil {
				panic(errors.Trace(err))
			}
			c.fw = fw
		} else {
			c.fw.Reset(&c.buf)
		}
		if _, err := c.fw.Write(raw); err != nil {
			panic(errors.Trace(err))
		}
		if err := c.fw.Close(); err != nil {
			panic(errors.Trace(err))
		}
	case XZ:
		xw, err := xz.WriterConfig{DictCap: xzDictCap}.NewWriter(&c.buf)
		if err != nil {
			panic(errors.Trace(err))
		}
		if _, err := xw.Write(raw); err != nil {
			panic(errors.Trace(err))
		}
		if err := xw.Close(); err != nil {
			panic(errors.Trace(err))
		}
	}
	if c.buf.Len() >= len(raw) {
		return raw, false
	}
	return c.buf.Bytes(), true
}

// decode expands a compressed payload into raw, which must have exactly the
// length of the original frame.
func (c *codec) decode(raw, data []byte) {
	br := bytes.NewReader(data)
	var rd io.Reader
	switch c.mode {
	case Flate:
		if c.fr == nil {
			c.fr = flate.NewReader(br)
		} else if err := c.fr.(flate.Resetter).Reset(br, nil); err != nil {
			panic(errors.Trace(err))
		}
		rd = c.fr
	case XZ:
		xr, err := xz.NewReader(br)
		if err != nil {
			panic(errors.Annotate(internal.ErrCorrupt, err.Error()))
		}
		rd = xr
	default:
		panic("emvec: decoding frame without compression")
	}
	if _, err := io.ReadFull(rd, raw); err != nil {
		panic(errors.Annotate(internal.ErrCorrupt, err.Error()))
	}
}
