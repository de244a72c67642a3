// Copyright 2017, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package emvec

import (
	"hash/crc32"

	hashutil "github.com/dsnet/golib/hashmerge"
)

type frame struct {
	seg  int    // Index into Sequence.segs
	off  int64  // Offset of the payload within the segment
	clen int    // Length of the payload on disk
	cnt  int    // Number of records in the frame
	crc  uint32 // CRC-32 of the raw frame
	comp bool   // Whether the payload is compressed
}

// Sequence is an append-only vector of records of type T.
//
// Records are pushed until Finish is called, after which the sequence may be
// read any number of times by non-consuming cursors and at most once by a
// consuming cursor.
type Sequence[T any] struct {
	st       *Stage
	codec    Codec[T]
	size     int // Bytes per record
	perFrame int // Records per frame

	n      int64
	frames []frame
	segs   []*segment
	cur    *segment // Segment being appended to
	tail   []byte   // Raw records of the last partial frame
	crc    uint32
	done   bool
	closed bool
}

// New creates an empty sequence whose records are laid out by codec.
func New[T any](st *Stage, codec Codec[T]) *Sequence[T] {
	size := codec.Size()
	per := st.frameSize / size
	if per < 1 {
		per = 1
	}
	return &Sequence[T]{st: st, codec: codec, size: size, perFrame: per}
}

// Len reports the number of records pushed.
func (s *Sequence[T]) Len() int64 { return s.n }

// Checksum reports the CRC-32 of the encoded records in push order.
// It is only valid after Finish.
func (s *Sequence[T]) Checksum() uint32 { return s.crc }

// Push appends v to the sequence.
func (s *Sequence[T]) Push(v T) {
	if s.done {
		panic("emvec: push after finish")
	}
	if s.tail == nil {
		s.tail = make([]byte, 0, s.perFrame*s.size)
	}
	i := len(s.tail)
	s.tail = s.tail[:i+s.size]
	s.codec.Put(s.tail[i:], v)
	s.n++
	if len(s.tail) == cap(s.tail) {
		s.writeFrame()
	}
}

// Finish seals the sequence. The last partial frame stays in memory.
func (s *Sequence[T]) Finish() {
	if s.done {
		return
	}
	s.done = true
	if s.cur != nil {
		s.st.sealSegment(s.cur)
		s.cur = nil
	}
	if len(s.tail) > 0 {
		s.crc = hashutil.CombineCRC32(crc32.IEEE, s.crc, crc32.ChecksumIEEE(s.tail), int64(len(s.tail)))
	}
}

// Close deletes every segment still held by the sequence.
func (s *Sequence[T]) Close() {
	if s.closed {
		return
	}
	s.closed, s.done = true, true
	for _, sg := range s.segs {
		s.st.removeSegment(sg)
	}
	s.segs, s.frames, s.tail, s.cur = nil, nil, nil, nil
}

func (s *Sequence[T]) writeFrame() {
	raw := s.tail
	crc := crc32.ChecksumIEEE(raw)
	data, comp := s.st.codec.encode(raw)
	if s.cur == nil || s.cur.size+int64(len(data)) > s.st.segSize {
		if s.cur != nil {
			s.st.sealSegment(s.cur)
		}
		s.cur = s.st.createSegment()
		s.segs = append(s.segs, s.cur)
	}
	off := s.st.appendSegment(s.cur, data)
	s.cur.live++
	s.frames = append(s.frames, frame{
		seg:  len(s.segs) - 1,
		off:  off,
		clen: len(data),
		cnt:  len(raw) / s.size,
		crc:  crc,
		comp: comp,
	})
	s.crc = hashutil.CombineCRC32(crc32.IEEE, s.crc, crc, int64(len(raw)))
	s.tail = s.tail[:0]
}

// numFrames reports the number of frames including the in-memory tail.
func (s *Sequence[T]) numFrames() int {
	if len(s.tail) > 0 {
		return len(s.frames) + 1
	}
	return len(s.frames)
}

// loadFrame decodes frame k into buf, which is resized as needed.
func (s *Sequence[T]) loadFrame(k int, buf []T, raw []byte) ([]T, []byte) {
	if k == len(s.frames) {
		buf = buf[:0]
		for i := 0; i < len(s.tail); i += s.size {
			buf = append(buf, s.codec.Get(s.tail[i:]))
		}
		return buf, raw
	}
	f := &s.frames[k]
	sg := s.segs[f.seg]
	if sg.path == "" {
		panic("emvec: frame read after it was consumed")
	}
	rawLen := f.cnt * s.size
	if cap(raw) < rawLen {
		raw = make([]byte, rawLen)
	}
	raw = raw[:rawLen]
	if f.comp {
		data := make([]byte, f.clen)
		s.st.readSegment(sg, data, f.off)
		s.st.codec.decode(raw, data)
	} else {
		s.st.readSegment(sg, raw, f.off)
	}
	if crc32.ChecksumIEEE(raw) != f.crc {
		panic(corruptFrame(sg.path, k))
	}
	buf = buf[:0]
	for i := 0; i < rawLen; i += s.size {
		buf = append(buf, s.codec.Get(raw[i:]))
	}
	return buf, raw
}

// releaseFrame marks frame k as consumed, deleting its segment once no
// live frames remain in it.
func (s *Sequence[T]) releaseFrame(k int) {
	if k == len(s.frames) {
		s.tail = nil
		return
	}
	sg := s.segs[s.frames[k].seg]
	sg.live--
	if sg.live == 0 {
		s.st.removeSegment(sg)
	}
}
