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

// Prefix codes used by the variable-length integer codec (§4.3).
// These byte values are fixed by the wire format and must never change.
const (
	CodeNegInt8 byte = 0xff
	CodeInt16   byte = 0xfe
	CodeInt32   byte = 0xfd
	CodeInt64   byte = 0xfc
)

// Size class boundaries for the signed integer codec.
const (
	int8Min  = -0x80
	int16Min = -0x8000
	int32Min = -0x8000_0000
	int16Max = 0x8000
	int32Max = 0x8000_0000
)

// Size class boundaries for Nat0.
const (
	nat0Int16Max = 0x1_0000
	nat0Int32Max = 0x1_0000_0000
)

// variantIndexMax is the largest sum-type variant count that still fits a
// one-byte selector. Layouts with more variants use a 16-bit LE selector
// (§9, "Sum-variant wire selector width").
const variantIndexMax = 256
