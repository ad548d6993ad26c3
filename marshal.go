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
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
)

// Variant is implemented by the concrete payload type of a sum (OCaml
// variant) constructor so that Marshal/Unmarshal can write and read the
// wire selector without a separate schema (§4.4's "unit/tuple/newtype
// variant" rules). BinProtVariant reports the constructor's declared
// name, its zero-based index, and the declared variant count of the sum
// it belongs to; all three MUST be stable for a given Go type.
type Variant interface {
	BinProtVariant() (name string, index, numVariants int)
}

// encodefn writes one Go value's bin_prot encoding to dst. It mirrors the
// teacher's ion encodefn, minus the symbol table: bin_prot has nothing
// equivalent to Ion's interned field names.
type encodefn func(dst *Buffer, v reflect.Value)

var structEncoders sync.Map // reflect.Type -> encodefn

// compileEncoder builds (and caches) the field-concatenation encoder for
// a struct type, which doubles as a sum constructor's payload encoder
// (§4.4: a tuple/record and a variant's ctor_args are both just
// concatenated field encodings).
func compileEncoder(t reflect.Type) (encodefn, bool) {
	// Force concurrent lookups of a type still being compiled to delay
	// until eval time, breaking cycles through self-referential types.
	slow := func(dst *Buffer, v reflect.Value) {
		fn, ok := encoderFunc(v.Type())
		if !ok {
			panic("binprot: failed to compile struct encoder for " + v.Type().String())
		}
		fn(dst, v)
	}
	f, loaded := structEncoders.LoadOrStore(t, encodefn(nil))
	if loaded {
		if fn := f.(encodefn); fn != nil {
			return fn, true
		}
		return slow, true
	}

	type fieldEnc struct {
		index int
		fn    encodefn
	}
	var encs []fieldEnc
	fields := reflect.VisibleFields(t)
	for i := range fields {
		if fields[i].PkgPath != "" || len(fields[i].Index) != 1 {
			continue // unexported or promoted embedded field
		}
		if tag, ok := fields[i].Tag.Lookup("binprot"); ok {
			name, _, _ := strings.Cut(tag, ",")
			if name == "-" {
				continue
			}
		}
		efn, ok := encoderFunc(fields[i].Type)
		if !ok {
			continue
		}
		encs = append(encs, fieldEnc{index: fields[i].Index[0], fn: efn})
	}
	self := func(dst *Buffer, src reflect.Value) {
		for i := range encs {
			encs[i].fn(dst, src.Field(encs[i].index))
		}
	}
	structEncoders.Store(t, encodefn(self))
	return self, true
}

func encodeSeq(dst *Buffer, inner encodefn, src reflect.Value) {
	n := src.Len()
	dst.WriteSeqHeader(n)
	for i := 0; i < n; i++ {
		inner(dst, src.Index(i))
	}
}

var variantIfaceType = reflect.TypeOf((*Variant)(nil)).Elem()

func encoderFunc(t reflect.Type) (encodefn, bool) {
	if t.Implements(variantIfaceType) || reflect.PointerTo(t).Implements(variantIfaceType) {
		return encodeVariant(t)
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(dst *Buffer, src reflect.Value) {
			dst.WriteInt(src.Int())
		}, true
	case reflect.Uint, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		// §4.4: unsigned host integers are widened to a signed 64-bit
		// intermediate and passed through the signed integer codec (§4.3),
		// the same as signed integers; Nat0 is reserved for the explicit
		// layout.KindNat0 leaf.
		return func(dst *Buffer, src reflect.Value) {
			dst.WriteInt(int64(src.Uint()))
		}, true
	case reflect.Uint8:
		return func(dst *Buffer, src reflect.Value) {
			dst.WriteChar(rune(src.Uint()))
		}, true
	case reflect.Float32:
		return func(dst *Buffer, src reflect.Value) {
			dst.WriteF32(float32(src.Float()))
		}, true
	case reflect.Float64:
		return func(dst *Buffer, src reflect.Value) {
			dst.WriteF64(src.Float())
		}, true
	case reflect.Bool:
		return func(dst *Buffer, src reflect.Value) {
			dst.WriteBool(src.Bool())
		}, true
	case reflect.String:
		return func(dst *Buffer, src reflect.Value) {
			dst.WriteString(src.String())
		}, true
	case reflect.Slice:
		elem := t.Elem()
		if elem.Kind() == reflect.Uint8 && !elem.Implements(variantIfaceType) {
			return func(dst *Buffer, src reflect.Value) {
				dst.WriteBytes(src.Bytes())
			}, true
		}
		inner, ok := encoderFunc(elem)
		if !ok {
			return nil, false
		}
		return func(dst *Buffer, src reflect.Value) {
			encodeSeq(dst, inner, src)
		}, true
	case reflect.Array:
		inner, ok := encoderFunc(t.Elem())
		if !ok {
			return nil, false
		}
		n := t.Len()
		return func(dst *Buffer, src reflect.Value) {
			for i := 0; i < n; i++ {
				inner(dst, src.Index(i))
			}
		}, true
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, false
		}
		kv, ok := encoderFunc(t.Key())
		if !ok {
			return nil, false
		}
		vv, ok := encoderFunc(t.Elem())
		if !ok {
			return nil, false
		}
		return func(dst *Buffer, src reflect.Value) {
			dst.WriteSeqHeader(src.Len())
			iter := src.MapRange()
			for iter.Next() {
				kv(dst, iter.Key())
				vv(dst, iter.Value())
			}
		}, true
	case reflect.Struct:
		return compileEncoder(t)
	case reflect.Pointer:
		body, ok := encoderFunc(t.Elem())
		if !ok {
			return nil, false
		}
		return func(dst *Buffer, src reflect.Value) {
			dst.WriteOptionTag(!src.IsNil())
			if !src.IsNil() {
				body(dst, src.Elem())
			}
		}, true
	default:
		return nil, false
	}
}

// encodeVariant builds the selector-then-payload encoder for a type
// implementing Variant (§4.4's sum-variant rules).
func encodeVariant(t reflect.Type) (encodefn, bool) {
	payload, ok := compileEncoder(t)
	if !ok {
		return nil, false
	}
	return func(dst *Buffer, src reflect.Value) {
		vv, ok := src.Interface().(Variant)
		if !ok {
			addr := reflect.New(t)
			addr.Elem().Set(src)
			vv = addr.Interface().(Variant)
		}
		_, index, numVariants := vv.BinProtVariant()
		dst.WriteVariantIndex(index, numVariants)
		payload(dst, src)
	}, true
}

// Marshal encodes src using reflection over its static Go type (§4.4,
// §6's encode(value, writer)) and writes the result to w. Unlike
// layout-driven decode, Marshal never consults an external BinProtRule:
// the shape is read straight off the Go type, matching how the host
// language's own derive(Serialize) would drive encoding.
func Marshal(w io.Writer, src any) error {
	var buf Buffer
	if err := marshalToBuffer(&buf, src); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// marshalToBuffer is Marshal's encoder with the intermediate Buffer
// exposed; Marshal wraps it to flush the Buffer to an io.Writer.
func marshalToBuffer(dst *Buffer, src any) error {
	v := reflect.ValueOf(src)
	enc, ok := encoderFunc(v.Type())
	if !ok {
		return fmt.Errorf("binprot: cannot marshal type %s", v.Type())
	}
	enc(dst, v)
	return nil
}
