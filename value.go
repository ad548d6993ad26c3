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
	"math"

	"golang.org/x/exp/slices"
)

// Kind identifies which alternative of Value is populated (§3).
type Kind int

const (
	KindUnit Kind = iota
	KindBool
	KindInt
	KindNat0
	KindChar
	KindFloat
	KindString
	KindOption
	KindTuple
	KindRecord
	KindSum
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindNat0:
		return "nat0"
	case KindChar:
		return "char"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindOption:
		return "option"
	case KindTuple:
		return "tuple"
	case KindRecord:
		return "record"
	case KindSum:
		return "sum"
	case KindList:
		return "list"
	default:
		return "invalid"
	}
}

// Field is one (name, value) pair of a Record, in declared wire order.
type Field struct {
	Name  string
	Value Value
}

// Value is the loosely-typed tree produced by layout-driven decoding and
// consumed by layout-free encoding (§3, C5). Every Value is built once by
// its constructor function and never mutated afterward; composites
// exclusively own their children, so a Value tree can be freely shared as
// long as callers treat it as immutable.
type Value struct {
	kind Kind

	b       bool
	i       int64
	f       float64
	r       rune
	s       []byte
	some    *Value  // Option payload, nil means None
	items   []Value // Tuple / List elements
	fields  []Field // Record fields
	ctor    string  // Sum constructor name
	index   int     // Sum constructor index
	payload *Value  // Sum payload
}

// Kind reports which alternative v holds.
func (v Value) Kind() Kind { return v.kind }

// Unit is the single unit value.
var Unit = Value{kind: KindUnit}

// Bool constructs a Bool value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int constructs an Int value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Nat0 constructs a Nat0 value. The magnitude is stored in the same field
// as Int; Kind distinguishes the two so callers cannot mistake a Nat0 for
// a signed Int of the same bit pattern.
func Nat0(u uint64) Value { return Value{kind: KindNat0, i: int64(u)} }

// Char constructs a Char value from a Unicode scalar.
func Char(c rune) Value { return Value{kind: KindChar, r: c} }

// Float constructs a Float value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String constructs a String value from a raw byte sequence. Bin_Prot
// strings are not guaranteed to be valid UTF-8 (§3), so String takes and
// returns []byte rather than a Go string.
func String(b []byte) Value { return Value{kind: KindString, s: b} }

// None is the absent alternative of Option.
var None = Value{kind: KindOption}

// Some constructs a present Option wrapping inner.
func Some(inner Value) Value {
	cp := inner
	return Value{kind: KindOption, some: &cp}
}

// Tuple constructs an ordered Tuple of elems.
func Tuple(elems ...Value) Value {
	return Value{kind: KindTuple, items: elems}
}

// Record constructs a Record from fields in declared wire order.
func Record(fields ...Field) Value {
	return Value{kind: KindRecord, fields: fields}
}

// Sum constructs a Sum value. payload is typically a Tuple of the
// constructor's arguments; a nullary constructor carries Unit (§3).
func Sum(ctor string, index int, payload Value) Value {
	cp := payload
	return Value{kind: KindSum, ctor: ctor, index: index, payload: &cp}
}

// List constructs an ordered List of elems.
func List(elems ...Value) Value {
	return Value{kind: KindList, items: elems}
}

// AsBool returns v's bool and whether v is a Bool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsInt returns v's signed magnitude and whether v is an Int or Nat0.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt && v.kind != KindNat0 {
		return 0, false
	}
	return v.i, true
}

// AsNat0 returns v's unsigned magnitude and whether v is a Nat0.
func (v Value) AsNat0() (uint64, bool) {
	if v.kind != KindNat0 {
		return 0, false
	}
	return uint64(v.i), true
}

// AsChar returns v's scalar and whether v is a Char.
func (v Value) AsChar() (rune, bool) {
	if v.kind != KindChar {
		return 0, false
	}
	return v.r, true
}

// AsFloat returns v's value and whether v is a Float.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

// AsString returns v's bytes and whether v is a String.
func (v Value) AsString() ([]byte, bool) {
	if v.kind != KindString {
		return nil, false
	}
	return v.s, true
}

// AsOption returns the Option's payload (nil if None), and whether v is
// an Option at all.
func (v Value) AsOption() (*Value, bool) {
	if v.kind != KindOption {
		return nil, false
	}
	return v.some, true
}

// AsTuple returns a Tuple's elements and whether v is a Tuple.
func (v Value) AsTuple() ([]Value, bool) {
	if v.kind != KindTuple {
		return nil, false
	}
	return v.items, true
}

// AsRecord returns a Record's fields and whether v is a Record.
func (v Value) AsRecord() ([]Field, bool) {
	if v.kind != KindRecord {
		return nil, false
	}
	return v.fields, true
}

// AsList returns a List's elements and whether v is a List.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.items, true
}

// AsSum returns a Sum's constructor name, index, and payload, and whether
// v is a Sum.
func (v Value) AsSum() (ctor string, index int, payload Value, ok bool) {
	if v.kind != KindSum {
		return "", 0, Value{}, false
	}
	return v.ctor, v.index, *v.payload, true
}

// indexable returns the slice an integer index should apply to: v itself
// if v is a Tuple or List, or v's payload if v is a Sum wrapping one
// (§4.5's sum-type transparency).
func (v Value) indexable() ([]Value, bool) {
	switch v.kind {
	case KindTuple, KindList:
		return v.items, true
	case KindSum:
		return v.payload.indexable()
	default:
		return nil, false
	}
}

// fieldsOf returns the fields a name index should apply to: v's own
// fields if v is a Record, or its payload's if v is a Sum wrapping one.
func (v Value) fieldsOf() ([]Field, bool) {
	switch v.kind {
	case KindRecord:
		return v.fields, true
	case KindSum:
		return v.payload.fieldsOf()
	default:
		return nil, false
	}
}

// Index looks up the i-th element of a Tuple or List, transparently
// unwrapping a Sum's payload first (§4.5). The second return is false if
// v is not indexable this way or i is out of range.
func (v Value) Index(i int) (Value, bool) {
	items, ok := v.indexable()
	if !ok || i < 0 || i >= len(items) {
		return Value{}, false
	}
	return items[i], true
}

// Field looks up a Record field by name, transparently unwrapping a
// Sum's payload first (§4.5).
func (v Value) Field(name string) (Value, bool) {
	fields, ok := v.fieldsOf()
	if !ok {
		return Value{}, false
	}
	for _, f := range fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// At indexes v by position and panics on a miss, mirroring the panic
// semantics of ordinary array indexing (§4.5).
func (v Value) At(i int) Value {
	r, ok := v.Index(i)
	if !ok {
		panic(fmt.Sprintf("binprot: index %d out of range for %s value", i, v.kind))
	}
	return r
}

// Get indexes v by field name and panics on a miss (§4.5).
func (v Value) Get(name string) Value {
	r, ok := v.Field(name)
	if !ok {
		panic(fmt.Sprintf("binprot: no field %q in %s value", name, v.kind))
	}
	return r
}

// Clone returns a deep copy of v. Slices of bytes, elements, and fields
// are all copied; scalar Values need no copy since Value is a plain
// struct with no shared mutable state once built.
func (v Value) Clone() Value {
	out := v
	if v.s != nil {
		out.s = slices.Clone(v.s)
	}
	if v.some != nil {
		cp := v.some.Clone()
		out.some = &cp
	}
	if v.items != nil {
		out.items = make([]Value, len(v.items))
		for i, it := range v.items {
			out.items[i] = it.Clone()
		}
	}
	if v.fields != nil {
		out.fields = make([]Field, len(v.fields))
		for i, f := range v.fields {
			out.fields[i] = Field{Name: f.Name, Value: f.Value.Clone()}
		}
	}
	if v.payload != nil {
		cp := v.payload.Clone()
		out.payload = &cp
	}
	return out
}

// Equal reports whether v and x represent the same value. Int and Nat0
// compare equal across kinds when their magnitudes match, matching how
// the teacher's Datum.Equal treats Int/Uint/Float cross-comparisons.
func (v Value) Equal(x Value) bool {
	switch v.kind {
	case KindUnit:
		return x.kind == KindUnit
	case KindBool:
		b, ok := x.AsBool()
		return ok && b == v.b
	case KindInt, KindNat0:
		i, ok := x.AsInt()
		if !ok || i != v.i {
			return false
		}
		// A negative Int and a Nat0 above math.MaxInt64 share a bit
		// pattern but not a magnitude.
		return x.kind == v.kind || v.i >= 0
	case KindChar:
		c, ok := x.AsChar()
		return ok && c == v.r
	case KindFloat:
		f, ok := x.AsFloat()
		if !ok {
			return false
		}
		return f == v.f || (math.IsNaN(f) && math.IsNaN(v.f))
	case KindString:
		s, ok := x.AsString()
		return ok && slices.Equal(s, v.s)
	case KindOption:
		some, ok := x.AsOption()
		if !ok {
			return false
		}
		if v.some == nil || some == nil {
			return v.some == nil && some == nil
		}
		return v.some.Equal(*some)
	case KindTuple:
		items, ok := x.AsTuple()
		return ok && valuesEqual(v.items, items)
	case KindList:
		items, ok := x.AsList()
		return ok && valuesEqual(v.items, items)
	case KindRecord:
		fields, ok := x.AsRecord()
		if !ok || len(fields) != len(v.fields) {
			return false
		}
		for i, f := range v.fields {
			if f.Name != fields[i].Name || !f.Value.Equal(fields[i].Value) {
				return false
			}
		}
		return true
	case KindSum:
		ctor, index, payload, ok := x.AsSum()
		return ok && ctor == v.ctor && index == v.index && v.payload.Equal(payload)
	default:
		return false
	}
}

func valuesEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
