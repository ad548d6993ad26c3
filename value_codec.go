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

// SumSelector reports how to encode a Sum constructor's selector, since
// neither the constructor count nor whether the selector is an OCaml
// polyvar hash rather than a declaration index is recoverable from a
// Value alone (§9 OQ-1). numVariants is ignored when polyvar is true.
type SumSelector func(ctor string) (numVariants int, polyvar bool)

// EncodeValue writes v to dst using the on-wire form its Kind implies
// (§3, C5). Unlike DecodeDynamic, this needs no layout: a Value already
// carries every length, presence tag, and element count the encoding
// requires, since it was either produced by a previous decode or built
// directly by a caller. selector may be nil, in which case every Sum is
// written as a plain (non-polyvar) selector sized for 2 variants.
func EncodeValue(dst *Buffer, v Value, selector SumSelector) error {
	switch v.Kind() {
	case KindUnit:
		dst.WriteUnit()
		return nil
	case KindBool:
		b, _ := v.AsBool()
		dst.WriteBool(b)
		return nil
	case KindInt:
		i, _ := v.AsInt()
		dst.WriteInt(i)
		return nil
	case KindNat0:
		u, _ := v.AsNat0()
		dst.WriteNat0(u)
		return nil
	case KindChar:
		c, _ := v.AsChar()
		dst.WriteChar(c)
		return nil
	case KindFloat:
		f, _ := v.AsFloat()
		dst.WriteF64(f)
		return nil
	case KindString:
		s, _ := v.AsString()
		dst.WriteBytes(s)
		return nil
	case KindOption:
		some, _ := v.AsOption()
		dst.WriteOptionTag(some != nil)
		if some != nil {
			return EncodeValue(dst, *some, selector)
		}
		return nil
	case KindTuple:
		items, _ := v.AsTuple()
		for _, it := range items {
			if err := EncodeValue(dst, it, selector); err != nil {
				return err
			}
		}
		return nil
	case KindRecord:
		fields, _ := v.AsRecord()
		for _, f := range fields {
			if err := EncodeValue(dst, f.Value, selector); err != nil {
				return err
			}
		}
		return nil
	case KindList:
		items, _ := v.AsList()
		dst.WriteSeqHeader(len(items))
		for _, it := range items {
			if err := EncodeValue(dst, it, selector); err != nil {
				return err
			}
		}
		return nil
	case KindSum:
		ctor, index, payload, _ := v.AsSum()
		n, polyvar := 2, false
		if selector != nil {
			n, polyvar = selector(ctor)
		}
		if polyvar {
			dst.WritePolyvarTag(uint32(int32(index)))
		} else {
			if n <= 0 {
				n = 2
			}
			dst.WriteVariantIndex(index, n)
		}
		if payload.Kind() == KindUnit {
			return nil
		}
		return EncodeValue(dst, payload, selector)
	default:
		return fmt.Errorf("binprot: value kind %s is not encodable", v.Kind())
	}
}
