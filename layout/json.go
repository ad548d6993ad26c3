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

package layout

import (
	"encoding/json"
	"fmt"
	"io"
)

// FromJSON parses the canonical JSON encoding of a BinProtRule (§4.6), the
// tagged-tuple form produced by upstream bin_prot layout tooling: each
// node is a JSON array whose first element names the variant, e.g.
// ["Option", ["Tuple", [["Int"], ["List", ["String"]]]]]. A document may
// also be the tool's full layout record, in which case the rule lives
// under its "bin_prot_rule" key; FromJSON accepts either shape.
//
// Layouts routinely nest hundreds of levels deep through
// Reference(Resolved(...)) chains, so this reader never recurses through
// the JSON tokenizer: the outer pass builds a plain interface{} tree with
// an explicit, heap-allocated frame stack instead of letting
// encoding/json's own recursive decoder walk it, and the Reference chain
// itself is unwound with an explicit loop (see ruleFromReferenceChain)
// rather than by calling ruleFromAny recursively hop by hop.
func FromJSON(r io.Reader) (*Rule, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := parseIterative(dec)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	if m, ok := v.(map[string]interface{}); ok {
		v, ok = m["bin_prot_rule"]
		if !ok {
			return nil, fmt.Errorf(`layout: object document missing "bin_prot_rule"`)
		}
	}
	rule, err := ruleFromAny(v)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	return &rule, nil
}

type frame struct {
	isObj   bool
	obj     map[string]interface{}
	arr     []interface{}
	pendKey string
	wantKey bool
}

// parseIterative tokenizes a JSON document into a tree of
// map[string]interface{} / []interface{} / scalar values using an
// explicit stack of frames, so the tokenizer's call depth never grows
// with the document's nesting depth.
func parseIterative(dec *json.Decoder) (interface{}, error) {
	var stack []*frame
	var root interface{}
	rootSet := false

	emit := func(v interface{}) {
		if len(stack) == 0 {
			root = v
			rootSet = true
			return
		}
		top := stack[len(stack)-1]
		if top.isObj {
			top.obj[top.pendKey] = v
			top.wantKey = true
		} else {
			top.arr = append(top.arr, v)
		}
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{':
				stack = append(stack, &frame{isObj: true, obj: map[string]interface{}{}, wantKey: true})
			case '[':
				stack = append(stack, &frame{})
			case '}', ']':
				n := len(stack)
				top := stack[n-1]
				stack = stack[:n-1]
				if top.isObj {
					emit(top.obj)
				} else {
					emit(top.arr)
				}
			}
			continue
		}
		if len(stack) > 0 && stack[len(stack)-1].isObj && stack[len(stack)-1].wantKey {
			s, ok := tok.(string)
			if !ok {
				return nil, fmt.Errorf("expected object key, got %v", tok)
			}
			top := stack[len(stack)-1]
			top.pendKey = s
			top.wantKey = false
			continue
		}
		emit(tok)
		if rootSet && len(stack) == 0 {
			break
		}
	}
	if !rootSet {
		return nil, fmt.Errorf("empty layout document")
	}
	return root, nil
}

func asObject(v interface{}) (map[string]interface{}, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("rule node must be a JSON object, got %T", v)
	}
	return m, nil
}

func asArray(v interface{}) ([]interface{}, error) {
	if v == nil {
		return nil, nil
	}
	a, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a JSON array, got %T", v)
	}
	return a, nil
}

func asString(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected a JSON string, got %T", v)
	}
	return s, nil
}

func asInt(v interface{}) (int, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("expected a JSON number, got %T", v)
	}
	i, err := n.Int64()
	if err != nil {
		return 0, err
	}
	return int(i), nil
}

// ruleFromAny converts one generic JSON node into a Rule. Every node is
// a tagged tuple: a one-element array naming a leaf ["Int"], or a
// two-element array ["Tag", payload] for anything with a child. Composite
// kinds (tuple/record/sum/polyvar/option/list) recurse into their
// children through the Go call stack, which is acceptable here: only
// Reference(Resolved) chains are documented to nest arbitrarily deep,
// and those are unwound iteratively below.
func ruleFromAny(v interface{}) (Rule, error) {
	arr, err := asArray(v)
	if err != nil {
		return Rule{}, err
	}
	if len(arr) == 0 {
		return Rule{}, fmt.Errorf("empty rule tuple")
	}
	tag, err := asString(arr[0])
	if err != nil {
		return Rule{}, fmt.Errorf("rule tuple's first element must name the variant: %w", err)
	}
	var payload interface{}
	if len(arr) > 1 {
		payload = arr[1]
	}
	switch tag {
	case "Unit":
		return Unit, nil
	case "Bool":
		return Bool, nil
	case "Char":
		return Char, nil
	case "String":
		return String, nil
	case "Float":
		return Float, nil
	case "Int":
		return Int, nil
	case "Int32":
		return Int32, nil
	case "Int64":
		return Int64, nil
	case "NativeInt":
		return NativeInt, nil
	case "Nat0":
		return Nat0, nil
	case "Custom":
		return Custom, nil
	case "CustomForPath":
		path, err := asString(payload)
		if err != nil {
			return Rule{}, err
		}
		return CustomForPath(path), nil
	case "Option":
		inner, err := ruleFromAny(payload)
		if err != nil {
			return Rule{}, err
		}
		return Option(inner), nil
	case "List":
		elem, err := ruleFromAny(payload)
		if err != nil {
			return Rule{}, err
		}
		return List(elem), nil
	case "Tuple":
		members, err := asArray(payload)
		if err != nil {
			return Rule{}, err
		}
		elems := make([]Rule, len(members))
		for i, e := range members {
			elems[i], err = ruleFromAny(e)
			if err != nil {
				return Rule{}, err
			}
		}
		return Tuple(elems...), nil
	case "Record":
		members, err := asArray(payload)
		if err != nil {
			return Rule{}, err
		}
		fields := make([]RecordField, len(members))
		for i, e := range members {
			fm, err := asObject(e)
			if err != nil {
				return Rule{}, err
			}
			name, err := asString(fm["field_name"])
			if err != nil {
				return Rule{}, err
			}
			fr, err := ruleFromAny(fm["field_rule"])
			if err != nil {
				return Rule{}, err
			}
			fields[i] = RecordField{Name: name, Rule: fr}
		}
		return Record(fields...), nil
	case "Sum":
		members, err := asArray(payload)
		if err != nil {
			return Rule{}, err
		}
		summands := make([]Summand, len(members))
		for i, e := range members {
			sm, err := asObject(e)
			if err != nil {
				return Rule{}, err
			}
			summands[i], err = summandFromAny(sm, i)
			if err != nil {
				return Rule{}, err
			}
		}
		return Sum(summands...), nil
	case "Polyvar":
		members, err := asArray(payload)
		if err != nil {
			return Rule{}, err
		}
		tags := make([]PolyvarTag, len(members))
		for i, e := range members {
			tm, err := asObject(e)
			if err != nil {
				return Rule{}, err
			}
			tags[i], err = polyvarTagFromAny(tm)
			if err != nil {
				return Rule{}, err
			}
		}
		return Polyvar(tags...), nil
	case "Reference":
		sub, err := asArray(payload)
		if err != nil {
			return Rule{}, err
		}
		return ruleFromReferenceChain(sub)
	default:
		return Rule{}, fmt.Errorf("unknown rule tag %q", tag)
	}
}

func summandFromAny(sm map[string]interface{}, fallbackIndex int) (Summand, error) {
	name, err := asString(sm["ctor_name"])
	if err != nil {
		return Summand{}, err
	}
	index := fallbackIndex
	if raw, ok := sm["index"]; ok {
		index, err = asInt(raw)
		if err != nil {
			return Summand{}, err
		}
	}
	args, err := argsFromAny(sm["ctor_args"])
	if err != nil {
		return Summand{}, err
	}
	return Summand{CtorName: name, Index: index, CtorArgs: args}, nil
}

func polyvarTagFromAny(tm map[string]interface{}) (PolyvarTag, error) {
	name, err := asString(tm["ctor_name"])
	if err != nil {
		return PolyvarTag{}, err
	}
	hash := HashVariant(name)
	if raw, ok := tm["hash"]; ok {
		h, err := asInt(raw)
		if err != nil {
			return PolyvarTag{}, err
		}
		hash = uint32(h)
	}
	args, err := argsFromAny(tm["ctor_args"])
	if err != nil {
		return PolyvarTag{}, err
	}
	return PolyvarTag{CtorName: name, Hash: hash, CtorArgs: args}, nil
}

func argsFromAny(v interface{}) ([]Rule, error) {
	arr, err := asArray(v)
	if err != nil {
		return nil, err
	}
	args := make([]Rule, len(arr))
	for i, a := range arr {
		args[i], err = ruleFromAny(a)
		if err != nil {
			return nil, err
		}
	}
	return args, nil
}

// refLink is one hop of a Reference chain collected by
// ruleFromReferenceChain before wrapReferenceChain rebuilds it.
type refLink struct {
	state            RefState
	path             string
	sourceModulePath string
}

// ruleFromReferenceChain unwinds a run of nested
// ["Reference", ["Resolved", {"source_type_decl":..., "ref_rule":...}]]
// tuples with an explicit loop instead of recursion, since this is the
// one place the upstream format is documented to nest hundreds of levels
// deep (§4.6). Only once it reaches a non-reference leaf does it fall
// back to ruleFromAny, and only for that single bounded subtree.
// sub is the ["Unresolved", path] or ["Resolved", payload] tuple itself.
func ruleFromReferenceChain(sub []interface{}) (Rule, error) {
	var chain []refLink
	cur := sub
	for {
		if len(cur) == 0 {
			return Rule{}, fmt.Errorf("empty Reference tuple")
		}
		state, err := asString(cur[0])
		if err != nil {
			return Rule{}, err
		}
		if state != "Resolved" {
			path, err := asString(cur[1])
			if err != nil {
				return Rule{}, fmt.Errorf("Unresolved reference missing path: %w", err)
			}
			chain = append(chain, refLink{state: RefUnresolved, path: path})
			return wrapReferenceChain(chain, Rule{}), nil
		}
		payload, err := asObject(cur[1])
		if err != nil {
			return Rule{}, fmt.Errorf("Resolved reference payload: %w", err)
		}
		smp, _ := payload["source_type_decl"].(string)
		chain = append(chain, refLink{state: RefResolved, sourceModulePath: smp})

		refRule, err := asArray(payload["ref_rule"])
		if err != nil {
			return Rule{}, fmt.Errorf(`Resolved reference missing "ref_rule": %w`, err)
		}
		if tag, _ := refRule[0].(string); tag == "Reference" {
			next, err := asArray(refRule[1])
			if err != nil {
				return Rule{}, err
			}
			cur = next
			continue
		}
		leaf, err := ruleFromAny(refRule)
		if err != nil {
			return Rule{}, err
		}
		return wrapReferenceChain(chain, leaf), nil
	}
}

func wrapReferenceChain(chain []refLink, leaf Rule) Rule {
	cur := leaf
	for i := len(chain) - 1; i >= 0; i-- {
		l := chain[i]
		if l.state == RefUnresolved {
			cur = Reference(RuleRef{State: RefUnresolved, Path: l.path})
			continue
		}
		refRule := cur
		cur = Reference(RuleRef{
			State:            RefResolved,
			SourceModulePath: l.sourceModulePath,
			RefRule:          &refRule,
		})
	}
	return cur
}
