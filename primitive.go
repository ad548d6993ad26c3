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
	"math"
	"unicode/utf8"
)

// This file implements §4.2, the fixed-width primitives: unit, bool, char,
// float, double. Integers live in varint.go; strings, options and the
// other structural forms live in container.go.

// WriteUnit writes bin_prot's unit value, a single zero byte.
func (b *Buffer) WriteUnit() {
	b.buf = append(b.buf, 0x00)
}

// ReadUnit reads a unit value, failing with KindInvalidUnit if the byte is
// not 0x00.
func (r *Reader) ReadUnit() error {
	pos := r.pos
	v, err := r.ReadByte()
	if err != nil {
		return err
	}
	if v != 0x00 {
		return decodeErr(KindInvalidUnit, pos, nil)
	}
	return nil
}

// WriteBool writes a bool as 0x00 or 0x01.
func (b *Buffer) WriteBool(v bool) {
	if v {
		b.buf = append(b.buf, 0x01)
	} else {
		b.buf = append(b.buf, 0x00)
	}
}

// ReadBool reads a bool, failing with KindInvalidBool if the byte is
// neither 0x00 nor 0x01 (§4.2: bin_prot readers MUST reject any other
// byte value rather than truthy-coerce it).
func (r *Reader) ReadBool() (bool, error) {
	pos := r.pos
	v, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	switch v {
	case 0x00:
		return false, nil
	case 0x01:
		return true, nil
	default:
		return false, decodeErr(KindInvalidBool, pos, nil)
	}
}

// WriteChar writes a char as 1-4 raw UTF-8 bytes of the scalar (§4.2).
// OCaml's own char is a single byte, but this codec treats Char as a full
// Unicode scalar value so multibyte scalars survive a round trip;
// producers that must stay byte-exact with OCaml should restrict
// themselves to scalars below U+0080.
func (b *Buffer) WriteChar(c rune) {
	var tmp [utf8.UTFMax]byte
	n := utf8.EncodeRune(tmp[:], c)
	b.buf = append(b.buf, tmp[:n]...)
}

// ReadChar reads a char by trying successively longer UTF-8 prefixes: it
// reads one byte at a time into a 4-byte buffer and attempts validation
// after each byte, returning the scalar on the first successful prefix
// (§4.2). It fails with KindInvalidUTF8Char if no prefix of length 1-4
// decodes to valid UTF-8.
func (r *Reader) ReadChar() (rune, error) {
	pos := r.pos
	var buf [utf8.UTFMax]byte
	for n := 1; n <= utf8.UTFMax; n++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		buf[n-1] = b
		// DecodeRune reports an invalid byte as RuneError of width 1, so a
		// wider RuneError is a genuinely encoded U+FFFD.
		if c, size := utf8.DecodeRune(buf[:n]); size == n && (c != utf8.RuneError || size > 1) {
			return c, nil
		}
	}
	return 0, decodeErr(KindInvalidUTF8Char, pos, nil)
}

// WriteF32 writes a binary32 float in little-endian byte order.
func (b *Buffer) WriteF32(v float32) {
	b.writeU32LE(math.Float32bits(v))
}

// ReadF32 reads a binary32 float.
func (r *Reader) ReadF32() (float32, error) {
	return r.ReadF32LE()
}

// WriteF64 writes a binary64 float in little-endian byte order. NaN bit
// patterns are preserved verbatim on the round trip (§4.2).
func (b *Buffer) WriteF64(v float64) {
	b.writeU64LE(math.Float64bits(v))
}

// ReadF64 reads a binary64 float.
func (r *Reader) ReadF64() (float64, error) {
	return r.ReadF64LE()
}
