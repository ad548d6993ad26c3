// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package binprot

import (
	"encoding/binary"
	"io"
	"math"
)

// Reader wraps an io.Reader with the fixed-width and position-tracking
// primitives bin_prot needs on top of a generic byte source (§4.1, C1).
// A Reader is used for exactly one decode call and is not safe for
// concurrent use.
type Reader struct {
	r   io.Reader
	pos int
}

// NewReader returns a Reader that reads from r, starting position 0.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Pos returns the number of bytes consumed so far.
func (r *Reader) Pos() int { return r.pos }

// ReadExact reads exactly n bytes, failing with KindEOF if the source is
// short (§4.1).
func (r *Reader) ReadExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	nn, err := io.ReadFull(r.r, buf)
	r.pos += nn
	if err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, decodeErr(KindEOF, r.pos, err)
		}
		return nil, decodeErr(KindIO, r.pos, err)
	}
	return buf, nil
}

// ReadByte implements io.ByteReader, reading a single byte and advancing
// the position counter.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.ReadExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU8 reads one unsigned byte.
func (r *Reader) ReadU8() (uint8, error) {
	return r.ReadByte()
}

// ReadI8 reads one signed byte.
func (r *Reader) ReadI8() (int8, error) {
	b, err := r.ReadByte()
	return int8(b), err
}

// ReadU16LE reads a little-endian uint16.
func (r *Reader) ReadU16LE() (uint16, error) {
	b, err := r.ReadExact(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadI16LE reads a little-endian int16.
func (r *Reader) ReadI16LE() (int16, error) {
	u, err := r.ReadU16LE()
	return int16(u), err
}

// ReadU32LE reads a little-endian uint32.
func (r *Reader) ReadU32LE() (uint32, error) {
	b, err := r.ReadExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadI32LE reads a little-endian int32.
func (r *Reader) ReadI32LE() (int32, error) {
	u, err := r.ReadU32LE()
	return int32(u), err
}

// ReadU64LE reads a little-endian uint64.
func (r *Reader) ReadU64LE() (uint64, error) {
	b, err := r.ReadExact(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadI64LE reads a little-endian int64.
func (r *Reader) ReadI64LE() (int64, error) {
	u, err := r.ReadU64LE()
	return int64(u), err
}

// ReadF32LE reads a little-endian IEEE-754 binary32.
func (r *Reader) ReadF32LE() (float32, error) {
	u, err := r.ReadU32LE()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(u), nil
}

// ReadF64LE reads a little-endian IEEE-754 binary64. NaN bit patterns are
// preserved verbatim (§4.2).
func (r *Reader) ReadF64LE() (float64, error) {
	u, err := r.ReadU64LE()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(u), nil
}

// Buffer is an in-memory, growable byte sink used to assemble an encoded
// value before it is flushed to its final destination. It mirrors the
// teacher's ion.Buffer: callers build up bytes with the Write* methods and
// retrieve them with Bytes(), or stream them out with WriteTo.
//
// Unlike ion's Buffer, bin_prot needs no backpatching: records, tuples,
// and sum payloads carry no length prefix (§4.4), so every Write* method
// simply appends.
type Buffer struct {
	buf []byte
}

// Bytes returns the buffer's current contents. The slice is invalidated
// by the next Write* call.
func (b *Buffer) Bytes() []byte { return b.buf }

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int { return len(b.buf) }

// Reset empties the buffer for reuse.
func (b *Buffer) Reset() { b.buf = b.buf[:0] }

// WriteTo implements io.WriterTo.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.buf)
	return int64(n), err
}

// Write implements io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// WriteByte implements io.ByteWriter.
func (b *Buffer) WriteByte(c byte) error {
	b.buf = append(b.buf, c)
	return nil
}

func (b *Buffer) writeU16LE(v uint16) {
	b.buf = append(b.buf, byte(v), byte(v>>8))
}

func (b *Buffer) writeU32LE(v uint32) {
	b.buf = append(b.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func (b *Buffer) writeU64LE(v uint64) {
	b.buf = append(b.buf,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}
