// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package symio reads and writes the flat files of fixed-width records used
// for texts and suffix arrays.
package symio

import (
	"bufio"
	"hash"
	"hash/crc32"
	"os"
	"strconv"
	"strings"

	"github.com/pingcap/errors"
	"golang.org/x/exp/mmap"
)

// Format describes the record layout of a file.
// Positive values are the little-endian width in bytes.
type Format int

const (
	Bits   Format = -1 // 8 binary symbols per byte, MSB first
	Uint8  Format = 1
	Uint16 Format = 2
	Uint32 Format = 4
	Uint40 Format = 5
	Uint64 Format = 8
)

// Width reports the record width in bytes, or 0 for Bits.
func (f Format) Width() int {
	if f == Bits {
		return 0
	}
	return int(f)
}

// Valid reports whether f is a supported layout.
func (f Format) Valid() bool {
	switch f {
	case Bits, Uint8, Uint16, Uint32, Uint40, Uint64:
		return true
	}
	return false
}

func (f Format) String() string {
	switch f {
	case Bits:
		return "bits"
	case Uint8, Uint16, Uint32, Uint40, Uint64:
		return "u" + strconv.Itoa(8*int(f))
	}
	return "invalid"
}

// ParseFormat parses the names produced by Format.String.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "bits", "bit", "binary":
		return Bits, nil
	case "u8", "uint8", "byte":
		return Uint8, nil
	case "u16", "uint16":
		return Uint16, nil
	case "u32", "uint32":
		return Uint32, nil
	case "u40", "uint40":
		return Uint40, nil
	case "u64", "uint64":
		return Uint64, nil
	}
	return 0, errors.Errorf("unknown format %q", s)
}

// chunkSize is the number of bytes copied out of the mapping at a time.
const chunkSize = 1 << 16

// File is a read-only memory mapped file of records.
type File struct {
	r   *mmap.ReaderAt
	fmt Format
}

// Open maps the file at path.
func Open(path string, f Format) (*File, error) {
	if !f.Valid() {
		return nil, errors.Errorf("invalid format %d", f)
	}
	r, err := mmap.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &File{r: r, fmt: f}, nil
}

// Size reports the file size in bytes.
func (f *File) Size() int64 { return int64(f.r.Len()) }

// Format reports the record layout.
func (f *File) Format() Format { return f.fmt }

// Len reports the number of whole records in the file.
func (f *File) Len() int64 {
	if f.fmt == Bits {
		return 8 * f.Size()
	}
	return f.Size() / int64(f.fmt)
}

// At returns record i. Binary symbols are returned as 0 or 1.
func (f *File) At(i int64) uint64 {
	if f.fmt == Bits {
		return uint64(f.r.At(int(i/8))>>(7-uint(i%8))) & 1
	}
	w := f.fmt.Width()
	var x uint64
	for k := 0; k < w; k++ {
		x |= uint64(f.r.At(int(i*int64(w))+k)) << uint(8*k)
	}
	return x
}

// Each calls fn for every record in order. Binary symbols are passed as 0
// or 1. Iteration stops at the first error returned by fn.
func (f *File) Each(fn func(i int64, v uint64) error) error {
	buf := make([]byte, chunkSize)
	w := f.fmt.Width()
	if w > 0 {
		buf = buf[:chunkSize/w*w]
	}
	var i int64
	end := f.Size()
	if w > 0 {
		end -= end % int64(w)
	}
	for off := int64(0); off < end; {
		n := int64(len(buf))
		if end-off < n {
			n = end - off
		}
		if _, err := f.r.ReadAt(buf[:n], off); err != nil {
			return errors.Trace(err)
		}
		off += n
		if w == 0 {
			for _, b := range buf[:n] {
				for k := 7; k >= 0; k-- {
					if err := fn(i, uint64(b>>uint(k))&1); err != nil {
						return err
					}
					i++
				}
			}
			continue
		}
		for p := 0; p < int(n); p += w {
			var x uint64
			for k := 0; k < w; k++ {
				x |= uint64(buf[p+k]) << uint(8*k)
			}
			if err := fn(i, x); err != nil {
				return err
			}
			i++
		}
	}
	return nil
}

// Close unmaps the file.
func (f *File) Close() error { return errors.Trace(f.r.Close()) }

// Writer appends fixed-width little-endian records to a file.
type Writer struct {
	f   *os.File
	bw  *bufio.Writer
	w   int
	buf [8]byte
	crc hash.Hash32
	n   int64
}

// Create truncates the file at path and writes records of the given width.
func Create(path string, width int) (*Writer, error) {
	if width < 1 || width > 8 {
		return nil, errors.Errorf("invalid record width %d", width)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	crc := crc32.NewIEEE()
	return &Writer{f: f, bw: bufio.NewWriterSize(f, chunkSize), w: width, crc: crc}, nil
}

// Write appends v, truncated to the record width.
func (w *Writer) Write(v uint64) error {
	for k := 0; k < w.w; k++ {
		w.buf[k] = byte(v >> uint(8*k))
	}
	w.crc.Write(w.buf[:w.w])
	w.n++
	if _, err := w.bw.Write(w.buf[:w.w]); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// Count reports the number of records written.
func (w *Writer) Count() int64 { return w.n }

// Checksum reports the CRC-32 of all bytes written.
func (w *Writer) Checksum() uint32 { return w.crc.Sum32() }

// Close flushes buffered records and closes the file.
// Closing an already closed Writer is a no-op.
func (w *Writer) Close() error {
	if w.f == nil {
		return nil
	}
	err := w.bw.Flush()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	w.f = nil
	return errors.Trace(err)
}
