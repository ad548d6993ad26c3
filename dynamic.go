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

	"github.com/chainsafe-labs/binprot/layout"
	"github.com/chainsafe-labs/binprot/traverse"
)

// LayoutError, LayoutErrorKind, and the Kind{Must,Cannot,Invalid}Branch /
// KindUnresolvedReference constants are defined in binprot/traverse,
// which is what actually raises them while walking a layout.Rule;
// aliasing them here lets a caller of DecodeDynamic catch them with
// errors.As(&binprot.LayoutError{}) without importing traverse directly.
type LayoutError = traverse.LayoutError
type LayoutErrorKind = traverse.LayoutErrorKind

const (
	KindMustBranch          = traverse.KindMustBranch
	KindCannotBranch        = traverse.KindCannotBranch
	KindInvalidBranch       = traverse.KindInvalidBranch
	KindUnresolvedReference = traverse.KindUnresolvedReference
)

// CustomDecoder reads one opaque, out-of-band value directly from r. It
// is registered under the module path named by a layout's Custom or
// CustomForPath rule (§4.6) so DecodeDynamic can substitute application
// logic for a type the layout format itself cannot describe.
type CustomDecoder func(r *Reader) (Value, error)

// frameKind says which composite a valueFrame is assembling.
type frameKind int

const (
	frameTuple frameKind = iota
	frameRecord
	frameSumPayload
	frameOption
	frameList
)

// valueFrame collects the children of one still-open composite, pushed
// on traverse.StepEnter* and popped on the matching traverse.StepExit.
type valueFrame struct {
	kind     frameKind
	children []Value

	fields []string // frameRecord: field names, parallel to children
	ctor   string    // frameSumPayload
	index  int       // frameSumPayload
}

func (f *valueFrame) finish() Value {
	switch f.kind {
	case frameTuple:
		return Tuple(f.children...)
	case frameRecord:
		fields := make([]Field, len(f.children))
		for i, c := range f.children {
			fields[i] = Field{Name: f.fields[i], Value: c}
		}
		return Record(fields...)
	case frameSumPayload:
		switch len(f.children) {
		case 0:
			return Sum(f.ctor, f.index, Unit)
		case 1:
			return Sum(f.ctor, f.index, f.children[0])
		default:
			return Sum(f.ctor, f.index, Tuple(f.children...))
		}
	case frameOption:
		return Some(f.children[0])
	case frameList:
		return List(f.children...)
	default:
		panic("binprot: unreachable valueFrame kind")
	}
}

// decodeLeaf reads the primitive rule names directly from r using the
// same codecs Unmarshal uses for statically-typed fields (C1/C3).
func decodeLeaf(r *Reader, rule layout.Rule) (Value, error) {
	switch rule.Kind() {
	case layout.KindUnit:
		if err := r.ReadUnit(); err != nil {
			return Value{}, err
		}
		return Unit, nil
	case layout.KindBool:
		b, err := r.ReadBool()
		if err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	case layout.KindChar:
		c, err := r.ReadChar()
		if err != nil {
			return Value{}, err
		}
		return Char(c), nil
	case layout.KindString:
		s, err := r.ReadString()
		if err != nil {
			return Value{}, err
		}
		return String([]byte(s)), nil
	case layout.KindFloat:
		f, err := r.ReadF64()
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil
	case layout.KindInt:
		i, err := r.ReadInt()
		if err != nil {
			return Value{}, err
		}
		return Int(i), nil
	case layout.KindInt32:
		i, err := r.ReadIntAs(32, true)
		if err != nil {
			return Value{}, err
		}
		return Int(i), nil
	case layout.KindInt64, layout.KindNativeInt:
		// nativeint is written with the same variable-length codec as a
		// 64-bit OCaml int (§4.3); there is no narrower wire form for it.
		i, err := r.ReadIntAs(64, true)
		if err != nil {
			return Value{}, err
		}
		return Int(i), nil
	case layout.KindNat0:
		u, err := r.ReadNat0()
		if err != nil {
			return Value{}, err
		}
		return Nat0(u), nil
	default:
		return Value{}, fmt.Errorf("binprot: layout rule %s is not a decodable leaf", rule.Kind())
	}
}

// DecodeDynamic reads one bin_prot value from r, shaped by rule, into a
// Value tree (§6 decode_dynamic). WithCustomDecoder options supply a
// decoder for every Custom or CustomForPath module path the layout may
// reach; a path with no registered decoder fails the decode. WithStrict
// rejects trailing bytes after the value the same way Unmarshal does.
//
// The decode loop drives a traverse.Iterator step by step, maintaining
// its own explicit stack of in-progress composites (valueFrame) rather
// than recursing — the layout iterator already replaces the call stack
// with its own heap-allocated stack for exactly this reason (§5), and a
// recursive driver on top of it would throw that away.
func DecodeDynamic(r io.Reader, rule *layout.Rule, opts ...Option) (Value, error) {
	o := buildOptions(opts)
	rd := NewReader(r)
	v, err := decodeDynamic(rd, *rule, o.customs)
	if err != nil {
		return Value{}, err
	}
	if err := checkTrailing(rd, o.strict); err != nil {
		return Value{}, err
	}
	return v, nil
}

// decodeDynamic is DecodeDynamic's driver with the *Reader and a
// concrete layout.Rule exposed, for internal reuse without the
// io.Reader wrapping or strict-mode check.
func decodeDynamic(r *Reader, rule layout.Rule, customs map[string]CustomDecoder) (Value, error) {
	it := traverse.New(rule)
	var frames []*valueFrame
	var root Value
	haveRoot := false

	appendValue := func(v Value) {
		if len(frames) == 0 {
			root = v
			haveRoot = true
			return
		}
		top := frames[len(frames)-1]
		top.children = append(top.children, v)
	}

	step, err := it.Next()
	for {
		if err != nil {
			return Value{}, err
		}
		switch step.Kind {
		case traverse.StepDone:
			if !haveRoot {
				return Value{}, fmt.Errorf("binprot: layout produced no value")
			}
			return root, nil

		case traverse.StepLeaf:
			v, derr := decodeLeaf(r, step.Rule)
			if derr != nil {
				return Value{}, derr
			}
			appendValue(v)
			step, err = it.Next()

		case traverse.StepCustom:
			dec, ok := customs[step.Path]
			if !ok {
				return Value{}, fmt.Errorf("binprot: no custom decoder registered for %q", step.Path)
			}
			v, derr := dec(r)
			if derr != nil {
				return Value{}, derr
			}
			appendValue(v)
			step, err = it.Next()

		case traverse.StepNone:
			appendValue(None)
			step, err = it.Next()

		case traverse.StepEnterTuple:
			frames = append(frames, &valueFrame{kind: frameTuple})
			step, err = it.Next()

		case traverse.StepEnterRecord:
			frames = append(frames, &valueFrame{kind: frameRecord, fields: step.Fields})
			step, err = it.Next()

		case traverse.StepEnterSumPayload:
			frames = append(frames, &valueFrame{kind: frameSumPayload, ctor: step.SumCtor, index: step.SumIndex})
			step, err = it.Next()

		case traverse.StepEnterOption:
			frames = append(frames, &valueFrame{kind: frameOption})
			step, err = it.Next()

		case traverse.StepEnterList:
			frames = append(frames, &valueFrame{kind: frameList})
			step, err = it.Next()

		case traverse.StepExit:
			n := len(frames)
			top := frames[n-1]
			frames = frames[:n-1]
			appendValue(top.finish())
			step, err = it.Next()

		case traverse.StepBranch:
			idx, rerr := r.ReadVariantIndex(len(step.Summands))
			if rerr != nil {
				return Value{}, rerr
			}
			step, err = it.Branch(idx)

		case traverse.StepPolyvarBranch:
			hash, rerr := r.ReadPolyvarTag()
			if rerr != nil {
				return Value{}, rerr
			}
			step, err = it.BranchPolyvar(hash)

		case traverse.StepOption:
			present, rerr := r.ReadOptionTag()
			if rerr != nil {
				return Value{}, rerr
			}
			step, err = it.ResolveOption(present)

		case traverse.StepList:
			count, rerr := r.ReadSeqHeader()
			if rerr != nil {
				return Value{}, rerr
			}
			step, err = it.Repeat(count)
		}
	}
}
