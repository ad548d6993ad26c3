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

import "fmt"

// This file implements §4.4-§4.6: the structural forms that have a fixed
// shape known from the layout rather than a type tag on the wire -
// strings, bytes, sequence headers, option tags, and sum and polyvar
// selectors. Fixed-size arrays and tuples carry no prefix at all and are
// encoded by plain concatenation in marshal.go/unmarshal.go.
// String/Bytes/Sequence are prefixed with a single Nat0 element count (§4.5).

// WriteString writes a bin_prot string: a Nat0 length followed by the raw
// bytes, with no trailing NUL (§4.5).
func (b *Buffer) WriteString(s string) {
	b.WriteNat0(uint64(len(s)))
	b.buf = append(b.buf, s...)
}

// WriteBytes writes bin_prot's bytes form, which is wire-identical to
// string (§4.5).
func (b *Buffer) WriteBytes(p []byte) {
	b.WriteNat0(uint64(len(p)))
	b.buf = append(b.buf, p...)
}

// ReadString reads a length-prefixed string.
func (r *Reader) ReadString() (string, error) {
	p, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(p), nil
}

// ReadBytes reads a length-prefixed byte string.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadNat0()
	if err != nil {
		return nil, err
	}
	return r.ReadExact(int(n))
}

// WriteSeqHeader writes the Nat0 element count that precedes every
// variable-length sequence (list, hashtbl, set). Callers then write each
// element with the element codec, with no trailing terminator (§4.5).
func (b *Buffer) WriteSeqHeader(n int) {
	b.WriteNat0(uint64(n))
}

// ReadSeqHeader reads a sequence's element count.
func (r *Reader) ReadSeqHeader() (int, error) {
	n, err := r.ReadNat0()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// WriteOptionTag writes the presence tag that precedes an option's payload:
// 0x00 for None, 0x01 for Some (§4.6). The payload itself, if present, is
// written separately by the caller using the wrapped type's codec.
func (b *Buffer) WriteOptionTag(present bool) {
	if present {
		b.buf = append(b.buf, 0x01)
	} else {
		b.buf = append(b.buf, 0x00)
	}
}

// ReadOptionTag reads an option's presence tag.
func (r *Reader) ReadOptionTag() (bool, error) {
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
		return false, decodeErr(KindInvalidBool, pos, errBadOptionTag(v))
	}
}

// WriteVariantIndex writes a sum type's selector. Per §9's resolution of
// the sum-selector width question, layouts with more than variantIndexMax
// summands use a 16-bit little-endian selector; everything else uses one
// byte, matching the reference encoder's behavior.
func (b *Buffer) WriteVariantIndex(idx, numVariants int) {
	if numVariants > variantIndexMax {
		b.writeU16LE(uint16(idx))
	} else {
		b.buf = append(b.buf, byte(idx))
	}
}

// ReadVariantIndex reads a sum type's selector and validates it against
// numVariants, failing with KindInvalidVariantIndex if it is out of range.
func (r *Reader) ReadVariantIndex(numVariants int) (int, error) {
	pos := r.pos
	var idx int
	if numVariants > variantIndexMax {
		v, err := r.ReadU16LE()
		if err != nil {
			return 0, err
		}
		idx = int(v)
	} else {
		v, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		idx = int(v)
	}
	if idx < 0 || idx >= numVariants {
		return 0, decodeErr(KindInvalidVariantIndex, pos, errVariantRange(idx, numVariants))
	}
	return idx, nil
}

// WritePolyvarTag writes a polymorphic variant's 32-bit hashed selector
// (§9 OQ-1), little-endian like every other multi-byte field on the wire.
func (b *Buffer) WritePolyvarTag(hash uint32) {
	b.writeU32LE(hash)
}

// ReadPolyvarTag reads a polymorphic variant's hashed selector.
func (r *Reader) ReadPolyvarTag() (uint32, error) {
	return r.ReadU32LE()
}

func errBadOptionTag(v byte) error {
	return fmt.Errorf("option tag byte must be 0x00 or 0x01, got 0x%02x", v)
}

func errVariantRange(idx, n int) error {
	return fmt.Errorf("variant index %d out of range [0,%d)", idx, n)
}
