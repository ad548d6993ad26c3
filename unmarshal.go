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

// decodefn reads one Go value's bin_prot encoding from r into dst, the
// addressable reflect.Value of the destination.
type decodefn func(r *Reader, dst reflect.Value) error

var structDecoders sync.Map // reflect.Type -> decodefn

func compileDecoder(t reflect.Type) (decodefn, bool) {
	slow := func(r *Reader, dst reflect.Value) error {
		fn, ok := decoderFunc(dst.Type())
		if !ok {
			panic("binprot: failed to compile struct decoder for " + dst.Type().String())
		}
		return fn(r, dst)
	}
	f, loaded := structDecoders.LoadOrStore(t, decodefn(nil))
	if loaded {
		if fn := f.(decodefn); fn != nil {
			return fn, true
		}
		return slow, true
	}

	type fieldDec struct {
		index int
		fn    decodefn
	}
	var decs []fieldDec
	fields := reflect.VisibleFields(t)
	for i := range fields {
		if fields[i].PkgPath != "" || len(fields[i].Index) != 1 {
			continue
		}
		if tag, ok := fields[i].Tag.Lookup("binprot"); ok {
			name, _, _ := strings.Cut(tag, ",")
			if name == "-" {
				continue
			}
		}
		dfn, ok := decoderFunc(fields[i].Type)
		if !ok {
			continue
		}
		decs = append(decs, fieldDec{index: fields[i].Index[0], fn: dfn})
	}
	self := func(r *Reader, dst reflect.Value) error {
		for i := range decs {
			if err := decs[i].fn(r, dst.Field(decs[i].index)); err != nil {
				return err
			}
		}
		return nil
	}
	structDecoders.Store(t, decodefn(self))
	return self, true
}

func decodeSeqInto(r *Reader, inner decodefn, t reflect.Type, dst reflect.Value) error {
	n, err := r.ReadSeqHeader()
	if err != nil {
		return err
	}
	out := reflect.MakeSlice(t, n, n)
	for i := 0; i < n; i++ {
		if err := inner(r, out.Index(i)); err != nil {
			return err
		}
	}
	dst.Set(out)
	return nil
}

func decoderFunc(t reflect.Type) (decodefn, bool) {
	if reflect.PointerTo(t).Implements(variantIfaceType) {
		return decodeVariant(t)
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		bits := t.Bits()
		return func(r *Reader, dst reflect.Value) error {
			v, err := r.ReadIntAs(bits, true)
			if err != nil {
				return err
			}
			dst.SetInt(v)
			return nil
		}, true
	case reflect.Uint, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		// §4.4: unsigned host integers are decoded through the signed
		// integer codec (§4.3) and narrowed with a sign/width check, the
		// same as signed integers; Nat0 is reserved for layout.KindNat0.
		bits := t.Bits()
		return func(r *Reader, dst reflect.Value) error {
			v, err := r.ReadIntAs(bits, false)
			if err != nil {
				return err
			}
			dst.SetUint(uint64(v))
			return nil
		}, true
	case reflect.Uint8:
		return func(r *Reader, dst reflect.Value) error {
			c, err := r.ReadChar()
			if err != nil {
				return err
			}
			if c > 0xff {
				return sizeMismatch("Unmarshal", int64(c), "uint8")
			}
			dst.SetUint(uint64(c))
			return nil
		}, true
	case reflect.Float32:
		return func(r *Reader, dst reflect.Value) error {
			f, err := r.ReadF32()
			if err != nil {
				return err
			}
			dst.SetFloat(float64(f))
			return nil
		}, true
	case reflect.Float64:
		return func(r *Reader, dst reflect.Value) error {
			f, err := r.ReadF64()
			if err != nil {
				return err
			}
			dst.SetFloat(f)
			return nil
		}, true
	case reflect.Bool:
		return func(r *Reader, dst reflect.Value) error {
			v, err := r.ReadBool()
			if err != nil {
				return err
			}
			dst.SetBool(v)
			return nil
		}, true
	case reflect.String:
		return func(r *Reader, dst reflect.Value) error {
			s, err := r.ReadString()
			if err != nil {
				return err
			}
			dst.SetString(s)
			return nil
		}, true
	case reflect.Slice:
		elem := t.Elem()
		if elem.Kind() == reflect.Uint8 {
			return func(r *Reader, dst reflect.Value) error {
				p, err := r.ReadBytes()
				if err != nil {
					return err
				}
				dst.SetBytes(p)
				return nil
			}, true
		}
		inner, ok := decoderFunc(elem)
		if !ok {
			return nil, false
		}
		return func(r *Reader, dst reflect.Value) error {
			return decodeSeqInto(r, inner, t, dst)
		}, true
	case reflect.Array:
		inner, ok := decoderFunc(t.Elem())
		if !ok {
			return nil, false
		}
		n := t.Len()
		return func(r *Reader, dst reflect.Value) error {
			for i := 0; i < n; i++ {
				if err := inner(r, dst.Index(i)); err != nil {
					return err
				}
			}
			return nil
		}, true
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, false
		}
		kd, ok := decoderFunc(t.Key())
		if !ok {
			return nil, false
		}
		vd, ok := decoderFunc(t.Elem())
		if !ok {
			return nil, false
		}
		return func(r *Reader, dst reflect.Value) error {
			n, err := r.ReadSeqHeader()
			if err != nil {
				return err
			}
			m := reflect.MakeMapWithSize(t, n)
			kv := reflect.New(t.Key()).Elem()
			vv := reflect.New(t.Elem()).Elem()
			for i := 0; i < n; i++ {
				if err := kd(r, kv); err != nil {
					return err
				}
				if err := vd(r, vv); err != nil {
					return err
				}
				m.SetMapIndex(kv, vv)
			}
			dst.Set(m)
			return nil
		}, true
	case reflect.Struct:
		return compileDecoder(t)
	case reflect.Pointer:
		elemT := t.Elem()
		body, ok := decoderFunc(elemT)
		if !ok {
			return nil, false
		}
		return func(r *Reader, dst reflect.Value) error {
			present, err := r.ReadOptionTag()
			if err != nil {
				return err
			}
			if !present {
				dst.Set(reflect.Zero(t))
				return nil
			}
			v := reflect.New(elemT)
			if err := body(r, v.Elem()); err != nil {
				return err
			}
			dst.Set(v)
			return nil
		}, true
	default:
		return nil, false
	}
}

// decodeVariant builds the selector-then-payload decoder for a type t
// whose pointer type *t implements Variant. It relies on a zero value of t to report
// numVariants, since that count must be known before the selector can be
// validated.
func decodeVariant(t reflect.Type) (decodefn, bool) {
	payload, ok := compileDecoder(t)
	if !ok {
		return nil, false
	}
	zero := reflect.New(t).Interface().(Variant)
	_, _, numVariants := zero.BinProtVariant()
	return func(r *Reader, dst reflect.Value) error {
		_, err := r.ReadVariantIndex(numVariants)
		if err != nil {
			return err
		}
		return payload(r, dst)
	}, true
}

// Unmarshal decodes one value from r into dst, which must be a non-nil
// pointer (§4.4, §6's decode_typed<T>). The shape is read off dst's
// static Go type exactly as Marshal reads it off src's, so a type
// round-trips through Marshal/Unmarshal without any external layout.
// By default trailing bytes after the value are ignored; pass
// WithStrict() to reject them.
func Unmarshal(r io.Reader, dst any, opts ...Option) error {
	o := buildOptions(opts)
	rd := NewReader(r)
	if err := unmarshalFrom(rd, dst); err != nil {
		return err
	}
	return checkTrailing(rd, o.strict)
}

// unmarshalFrom is Unmarshal's decoder with the *Reader exposed; Unmarshal
// wraps it with the io.Reader adapter and the strict-mode check.
func unmarshalFrom(r *Reader, dst any) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("binprot: Unmarshal destination must be a non-nil pointer, got %T", dst)
	}
	fn, ok := decoderFunc(v.Elem().Type())
	if !ok {
		return fmt.Errorf("binprot: cannot unmarshal into type %s", v.Elem().Type())
	}
	return fn(r, v.Elem())
}
