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

// This file implements §4.3: the variable-length integer codec. It is the
// most subtle part of the format, so encode and decode each live in one
// place rather than being spread across the reflect-driven structural
// driver (marshal.go/unmarshal.go), which only ever calls WriteInt/ReadIntAs
// here and reaches WriteNat0/ReadNat0 through the length-prefix helpers in
// container.go.

// WriteInt encodes a signed integer using the shortest of the five wire
// forms in §4.3. Encoders MUST choose the shortest form; this is the only
// place that decision is made.
func (b *Buffer) WriteInt(v int64) {
	if v >= 0 {
		switch {
		case v < 0x80:
			b.buf = append(b.buf, byte(v))
		case v < int16Max:
			b.buf = append(b.buf, CodeInt16)
			b.writeU16LE(uint16(v))
		case v < int32Max:
			b.buf = append(b.buf, CodeInt32)
			b.writeU32LE(uint32(v))
		default:
			b.buf = append(b.buf, CodeInt64)
			b.writeU64LE(uint64(v))
		}
		return
	}
	switch {
	case v >= int8Min:
		b.buf = append(b.buf, CodeNegInt8, byte(int8(v)))
	case v >= int16Min:
		b.buf = append(b.buf, CodeInt16)
		b.writeU16LE(uint16(int16(v)))
	case v >= int32Min:
		b.buf = append(b.buf, CodeInt32)
		b.writeU32LE(uint32(int32(v)))
	default:
		b.buf = append(b.buf, CodeInt64)
		b.writeU64LE(uint64(v))
	}
}

// WriteNat0 encodes an unsigned integer using the shortest of the four
// Nat0 wire forms in §4.3. Nat0 never emits CodeNegInt8.
func (b *Buffer) WriteNat0(v uint64) {
	switch {
	case v < 0x80:
		b.buf = append(b.buf, byte(v))
	case v < nat0Int16Max:
		b.buf = append(b.buf, CodeInt16)
		b.writeU16LE(uint16(v))
	case v < nat0Int32Max:
		b.buf = append(b.buf, CodeInt32)
		b.writeU32LE(uint32(v))
	default:
		b.buf = append(b.buf, CodeInt64)
		b.writeU64LE(v)
	}
}

// ReadInt decodes a signed integer per §4.3. The prefix byte, if it is one
// of the CODE_* constants, determines a fixed-width signed field to follow;
// otherwise the byte itself is the unsigned 7-bit value and must be < 0x80.
func (r *Reader) ReadInt() (int64, error) {
	pos := r.pos
	b0, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch b0 {
	case CodeNegInt8:
		v, err := r.ReadI8()
		return int64(v), err
	case CodeInt16:
		v, err := r.ReadI16LE()
		return int64(v), err
	case CodeInt32:
		v, err := r.ReadI32LE()
		return int64(v), err
	case CodeInt64:
		return r.ReadI64LE()
	default:
		if b0 >= 0x80 {
			return 0, decodeErr(KindIntegerSizeMismatch, pos,
				errInvalidIntPrefix(b0))
		}
		return int64(b0), nil
	}
}

// ReadNat0 decodes an unsigned integer per §4.3. CodeNegInt8 is invalid
// for Nat0.
func (r *Reader) ReadNat0() (uint64, error) {
	pos := r.pos
	b0, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch b0 {
	case CodeInt16:
		v, err := r.ReadU16LE()
		return uint64(v), err
	case CodeInt32:
		v, err := r.ReadU32LE()
		return uint64(v), err
	case CodeInt64:
		return r.ReadU64LE()
	case CodeNegInt8:
		return 0, decodeErr(KindIntegerSizeMismatch, pos, errNat0Negative)
	default:
		if b0 >= 0x80 {
			return 0, decodeErr(KindIntegerSizeMismatch, pos,
				errInvalidIntPrefix(b0))
		}
		return uint64(b0), nil
	}
}

// ReadIntAs decodes a signed integer and narrows it to the requested bit
// width, failing with a *SizeMismatchError on overflow or wrong sign (§4.3: "The
// decoded value is reinterpreted into the caller's requested integer
// width; overflow or wrong sign yields IntegerSizeMismatch").
func (r *Reader) ReadIntAs(bits int, signed bool) (int64, error) {
	v, err := r.ReadInt()
	if err != nil {
		return 0, err
	}
	if !fitsWidth(v, bits, signed) {
		return 0, sizeMismatch("ReadIntAs", v, widthName(bits, signed))
	}
	return v, nil
}

func fitsWidth(v int64, bits int, signed bool) bool {
	if signed {
		switch bits {
		case 8:
			return v >= -0x80 && v <= 0x7f
		case 16:
			return v >= -0x8000 && v <= 0x7fff
		case 32:
			return v >= -0x8000_0000 && v <= 0x7fff_ffff
		default:
			return true // 64-bit signed always fits an int64
		}
	}
	if v < 0 {
		return false
	}
	switch bits {
	case 8:
		return v <= 0xff
	case 16:
		return v <= 0xffff
	case 32:
		return v <= 0xffff_ffff
	default:
		return true
	}
}

func widthName(bits int, signed bool) string {
	if signed {
		switch bits {
		case 8:
			return "int8"
		case 16:
			return "int16"
		case 32:
			return "int32"
		default:
			return "int64"
		}
	}
	switch bits {
	case 8:
		return "uint8"
	case 16:
		return "uint16"
	case 32:
		return "uint32"
	default:
		return "uint64"
	}
}
