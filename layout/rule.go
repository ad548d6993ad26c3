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

// Package layout implements BinProtRule (§3, §4.6, C6): a recursive,
// externally-supplied description of a bin_prot value's shape, detailed
// enough to drive decoding without a compiled Go type. A Rule tree is
// read-only once loaded; nothing in this package or binprot/traverse
// mutates it during a decode.
package layout

import "fmt"

// Kind identifies which alternative of Rule is populated.
type Kind int

const (
	KindUnit Kind = iota
	KindBool
	KindChar
	KindString
	KindFloat
	KindInt
	KindInt32
	KindInt64
	KindNativeInt
	KindNat0
	KindOption
	KindList
	KindTuple
	KindRecord
	KindSum
	KindPolyvar
	KindReference
	KindCustom
	KindCustomForPath
)

func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindNativeInt:
		return "native_int"
	case KindNat0:
		return "nat0"
	case KindOption:
		return "option"
	case KindList:
		return "list"
	case KindTuple:
		return "tuple"
	case KindRecord:
		return "record"
	case KindSum:
		return "sum"
	case KindPolyvar:
		return "polyvar"
	case KindReference:
		return "reference"
	case KindCustom:
		return "custom"
	case KindCustomForPath:
		return "custom_for_path"
	default:
		return "invalid"
	}
}

// RecordField is one declared field of a Record rule, in on-wire order
// (§3: "field order in the rule equals the on-wire order; field names
// are metadata only").
type RecordField struct {
	Name string
	Rule Rule
}

// Summand is one constructor of a Sum rule (§3).
type Summand struct {
	CtorName string
	Index    int
	CtorArgs []Rule
}

// PolyvarTag is one constructor of a Polyvar rule. Polyvar constructors
// are selected on the wire by a 32-bit hash of CtorName rather than by
// declaration order (see DESIGN.md OQ-1); Hash is precomputed by the
// loader so the iterator never has to recompute it.
type PolyvarTag struct {
	CtorName string
	Hash     uint32
	CtorArgs []Rule
}

// RefState distinguishes a Reference that still needs resolving from one
// the loader has already bound to a concrete Rule.
type RefState int

const (
	RefUnresolved RefState = iota
	RefResolved
)

// RuleRef is the payload of a Reference rule (§3).
type RuleRef struct {
	State RefState

	// Path identifies the unresolved target, e.g. a layout-file-relative
	// module path. Only meaningful when State == RefUnresolved.
	Path string

	// SourceModulePath names the module the resolved rule came from; it
	// becomes the traversal's "current module path" so a later Custom
	// leaf can be reported as CustomForPath(SourceModulePath) (§4.6).
	// Only meaningful when State == RefResolved.
	SourceModulePath string

	// RefRule is the resolved target. Only meaningful when
	// State == RefResolved.
	RefRule *Rule
}

// Rule is one node of a BinProtRule tree (§3). Like Value, it is built
// once by a constructor function and never mutated afterward.
type Rule struct {
	kind Kind

	inner   *Rule         // Option / List element rule
	elems   []Rule        // Tuple member rules
	fields  []RecordField // Record fields
	sum     []Summand     // Sum constructors
	polyvar []PolyvarTag  // Polyvar constructors
	ref     *RuleRef      // Reference payload
	path    string        // CustomForPath target
}

func (r Rule) Kind() Kind { return r.kind }

var (
	Unit       = Rule{kind: KindUnit}
	Bool       = Rule{kind: KindBool}
	Char       = Rule{kind: KindChar}
	String     = Rule{kind: KindString}
	Float      = Rule{kind: KindFloat}
	Int        = Rule{kind: KindInt}
	Int32      = Rule{kind: KindInt32}
	Int64      = Rule{kind: KindInt64}
	NativeInt  = Rule{kind: KindNativeInt}
	Nat0       = Rule{kind: KindNat0}
	Custom     = Rule{kind: KindCustom}
)

// Option constructs an Option rule wrapping inner.
func Option(inner Rule) Rule { return Rule{kind: KindOption, inner: &inner} }

// List constructs a List rule with the given element rule.
func List(elem Rule) Rule { return Rule{kind: KindList, inner: &elem} }

// Tuple constructs a Tuple rule from member rules in wire order.
func Tuple(elems ...Rule) Rule { return Rule{kind: KindTuple, elems: elems} }

// Record constructs a Record rule from fields in wire order.
func Record(fields ...RecordField) Rule { return Rule{kind: KindRecord, fields: fields} }

// Sum constructs a Sum rule from its constructors in declaration order.
func Sum(summands ...Summand) Rule { return Rule{kind: KindSum, sum: summands} }

// Polyvar constructs a Polyvar rule from its constructors.
func Polyvar(tags ...PolyvarTag) Rule { return Rule{kind: KindPolyvar, polyvar: tags} }

// Reference constructs a Reference rule.
func Reference(ref RuleRef) Rule { return Rule{kind: KindReference, ref: &ref} }

// CustomForPath constructs a rule naming the out-of-band decoder
// registered for path.
func CustomForPath(path string) Rule { return Rule{kind: KindCustomForPath, path: path} }

// Elem returns the wrapped rule of an Option or List rule.
func (r Rule) Elem() (Rule, bool) {
	if r.inner == nil {
		return Rule{}, false
	}
	return *r.inner, true
}

// Elems returns a Tuple rule's member rules.
func (r Rule) Elems() ([]Rule, bool) {
	if r.kind != KindTuple {
		return nil, false
	}
	return r.elems, true
}

// Fields returns a Record rule's fields.
func (r Rule) Fields() ([]RecordField, bool) {
	if r.kind != KindRecord {
		return nil, false
	}
	return r.fields, true
}

// Summands returns a Sum rule's constructors.
func (r Rule) Summands() ([]Summand, bool) {
	if r.kind != KindSum {
		return nil, false
	}
	return r.sum, true
}

// PolyvarTags returns a Polyvar rule's constructors.
func (r Rule) PolyvarTags() ([]PolyvarTag, bool) {
	if r.kind != KindPolyvar {
		return nil, false
	}
	return r.polyvar, true
}

// Ref returns a Reference rule's payload.
func (r Rule) Ref() (RuleRef, bool) {
	if r.ref == nil {
		return RuleRef{}, false
	}
	return *r.ref, true
}

// Path returns a CustomForPath rule's target path.
func (r Rule) Path() (string, bool) {
	if r.kind != KindCustomForPath {
		return "", false
	}
	return r.path, true
}

func (r Rule) String() string {
	return fmt.Sprintf("Rule(%s)", r.kind)
}
