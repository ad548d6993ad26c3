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

// Package traverse implements the branching DFS iterator over a
// layout.Rule (C7): the mechanism that lets a dynamic decoder walk a
// layout supplied at runtime instead of one fixed at compile time,
// without the layout and the byte stream having to be consumed by the
// same recursive routine. See Iterator.
//
// Next reports composite boundaries as well as leaves (StepEnter*/
// StepExit, bracketing a Tuple/Record/branch payload/Option/List the way
// a hand-written recursive walk would with call-stack frames), so a
// driver can reassemble a tree purely by reacting to a flat sequence of
// steps, with no recursion of its own and no dependence on the Go call
// stack scaling with layout depth. Only Sum, Polyvar, Option, and List
// require a decision from outside — reading from the byte stream — before
// the walk can continue past them.
package traverse

import "github.com/chainsafe-labs/binprot/layout"

// StepKind classifies the value an Iterator's Next, Branch, BranchPolyvar,
// ResolveOption, or Repeat returns.
type StepKind int

const (
	// StepLeaf is a primitive the caller should decode directly from the
	// stream: Unit, Bool, Char, String, Float, Int, Int32, Int64,
	// NativeInt, or Nat0.
	StepLeaf StepKind = iota
	// StepCustom means the traversal reached a Custom or CustomForPath
	// leaf; Path names the out-of-band decoder to substitute. For
	// CustomForPath it is the rule's own path; for bare Custom it is the
	// SourceModulePath of the most recently walked Reference(Resolved),
	// whether or not that reference encloses the leaf, or empty if none
	// has been walked yet.
	StepCustom
	// StepBranch means the top of the stack was a Sum: the caller must
	// read a variant-index byte sized to len(Summands) and call Branch.
	StepBranch
	// StepPolyvarBranch means the top of the stack was a Polyvar: the
	// caller must read a 32-bit hash and call BranchPolyvar.
	StepPolyvarBranch
	// StepOption means the top of the stack was an Option: the caller
	// must read a presence tag and call ResolveOption.
	StepOption
	// StepList means the top of the stack was a List: the caller must
	// read a Nat0 element count and call Repeat.
	StepList
	// StepNone is returned by ResolveOption(false): the Option is absent
	// and contributes no further steps, so there is no matching
	// StepExit.
	StepNone
	// StepEnterTuple opens a Tuple of N members; a matching StepExit
	// follows once all N have been produced.
	StepEnterTuple
	// StepEnterRecord opens a Record whose fields are named, in order,
	// by Fields; a matching StepExit follows once all have been
	// produced.
	StepEnterRecord
	// StepEnterSumPayload opens the chosen constructor's arguments,
	// named by SumCtor/SumIndex, as returned by Branch or BranchPolyvar;
	// a matching StepExit follows once all have been produced, even when
	// N is 0 (a nullary constructor).
	StepEnterSumPayload
	// StepEnterOption opens a present Option's single wrapped value, as
	// returned by ResolveOption(true); a matching StepExit follows.
	StepEnterOption
	// StepEnterList opens a List's N elements, as returned by Repeat; a
	// matching StepExit follows once all N have been produced.
	StepEnterList
	// StepExit closes the innermost still-open Enter step. Which one it
	// matches is implicit in nesting order: the caller's own builder
	// stack, pushed one frame per Enter, already knows what kind it is
	// closing and needs no further information from the iterator.
	StepExit
	// StepDone means the stack is empty: the traversal is complete.
	StepDone
)

// Step is one unit of progress reported by Next or by the branch-
// resolving calls. Only the fields relevant to Kind are populated.
type Step struct {
	Kind StepKind

	Rule layout.Rule // StepLeaf
	Path string       // StepCustom

	Summands    []layout.Summand    // StepBranch
	PolyvarTags []layout.PolyvarTag // StepPolyvarBranch
	Elem        layout.Rule         // StepOption / StepList: the wrapped rule

	N      int    // StepEnterTuple / StepEnterList / StepEnterSumPayload: member count
	Fields []string // StepEnterRecord: field names in wire order

	SumCtor  string // StepEnterSumPayload
	SumIndex int    // StepEnterSumPayload: declaration index (Sum), or the
	// hash reinterpreted as a signed 32-bit int (Polyvar, since a
	// polymorphic variant has no declaration index — see layout.HashVariant).
	IsPolyvar bool // StepEnterSumPayload: true if reached via BranchPolyvar
}

// pendingKind tracks which of Branch, BranchPolyvar, ResolveOption, or
// Repeat the caller owes the iterator before Next may run again.
type pendingKind int

const (
	pendingNone pendingKind = iota
	pendingSum
	pendingPolyvar
	pendingOption
	pendingList
)

// entry is one item of the iterator's internal DFS stack: either a Rule
// still to be walked, or a bare close marker emitted once all of a
// composite's children have been pushed, so Next can detect the
// composite's end without recursion.
type entry struct {
	isClose bool
	rule    layout.Rule
}

// Iterator is a branching DFS over a layout.Rule tree (§4.7). It owns a
// stack and transient branch state scoped to one decode call; it never
// mutates the Rule tree it walks. The zero value is not usable — create
// one with New.
type Iterator struct {
	stack   []entry
	pending pendingKind

	pendingSummands []layout.Summand
	pendingPolyvar  []layout.PolyvarTag
	pendingElem     layout.Rule

	modulePath string
}

// New returns an Iterator positioned at the root of rule.
func New(rule layout.Rule) *Iterator {
	return &Iterator{stack: []entry{{rule: rule}}}
}

// Next advances the traversal by one step. It fails with MustBranch if a
// previous StepBranch, StepPolyvarBranch, StepOption, or StepList has not
// yet been resolved by the matching call.
func (it *Iterator) Next() (Step, error) {
	if it.pending != pendingNone {
		return Step{}, &LayoutError{Kind: KindMustBranch}
	}
	for {
		n := len(it.stack)
		if n == 0 {
			return Step{Kind: StepDone}, nil
		}
		top := it.stack[n-1]
		it.stack = it.stack[:n-1]

		if top.isClose {
			return Step{Kind: StepExit}, nil
		}

		switch top.rule.Kind() {
		case layout.KindTuple:
			elems, _ := top.rule.Elems()
			it.pushClose()
			it.pushRules(elems)
			return Step{Kind: StepEnterTuple, N: len(elems)}, nil
		case layout.KindRecord:
			fields, _ := top.rule.Fields()
			names := make([]string, len(fields))
			rules := make([]layout.Rule, len(fields))
			for i, f := range fields {
				names[i] = f.Name
				rules[i] = f.Rule
			}
			it.pushClose()
			it.pushRules(rules)
			return Step{Kind: StepEnterRecord, Fields: names}, nil
		case layout.KindSum:
			summands, _ := top.rule.Summands()
			it.pending = pendingSum
			it.pendingSummands = summands
			return Step{Kind: StepBranch, Summands: summands}, nil
		case layout.KindPolyvar:
			tags, _ := top.rule.PolyvarTags()
			it.pending = pendingPolyvar
			it.pendingPolyvar = tags
			return Step{Kind: StepPolyvarBranch, PolyvarTags: tags}, nil
		case layout.KindOption:
			inner, _ := top.rule.Elem()
			it.pending = pendingOption
			it.pendingElem = inner
			return Step{Kind: StepOption, Elem: inner}, nil
		case layout.KindList:
			inner, _ := top.rule.Elem()
			it.pending = pendingList
			it.pendingElem = inner
			return Step{Kind: StepList, Elem: inner}, nil
		case layout.KindReference:
			ref, _ := top.rule.Ref()
			if ref.State != layout.RefResolved {
				return Step{}, &LayoutError{Kind: KindUnresolvedReference, Path: ref.Path}
			}
			it.modulePath = ref.SourceModulePath
			it.stack = append(it.stack, entry{rule: *ref.RefRule})
		case layout.KindCustomForPath:
			path, _ := top.rule.Path()
			return Step{Kind: StepCustom, Path: path}, nil
		case layout.KindCustom:
			return Step{Kind: StepCustom, Path: it.modulePath}, nil
		default:
			// Unit, Bool, Char, String, Float, Int, Int32, Int64, NativeInt, Nat0.
			return Step{Kind: StepLeaf, Rule: top.rule}, nil
		}
	}
}

func (it *Iterator) pushClose() {
	it.stack = append(it.stack, entry{isClose: true})
}

// pushRules pushes rules onto the stack in reverse so Next pops them
// back out in their original, declared order.
func (it *Iterator) pushRules(rules []layout.Rule) {
	for i := len(rules) - 1; i >= 0; i-- {
		it.stack = append(it.stack, entry{rule: rules[i]})
	}
}

// Branch selects the k-th constructor of a pending Sum and opens its
// ctor_args as a StepEnterSumPayload, reversed onto the stack so they pop
// out in declaration order, exactly as Tuple and Record children do. It
// fails with CannotBranch if no Sum branch is pending, or InvalidBranch
// if k is out of range.
func (it *Iterator) Branch(k int) (Step, error) {
	if it.pending != pendingSum {
		return Step{}, &LayoutError{Kind: KindCannotBranch}
	}
	if k < 0 || k >= len(it.pendingSummands) {
		return Step{}, &LayoutError{Kind: KindInvalidBranch}
	}
	s := it.pendingSummands[k]
	it.pendingSummands = nil
	it.pending = pendingNone
	it.pushClose()
	it.pushRules(s.CtorArgs)
	return Step{Kind: StepEnterSumPayload, N: len(s.CtorArgs), SumCtor: s.CtorName, SumIndex: s.Index}, nil
}

// BranchPolyvar selects the pending Polyvar constructor whose Hash
// matches hash and opens its ctor_args the same way Branch does. It
// fails with CannotBranch if no Polyvar branch is pending, or
// InvalidBranch if no constructor has a matching hash.
func (it *Iterator) BranchPolyvar(hash uint32) (Step, error) {
	if it.pending != pendingPolyvar {
		return Step{}, &LayoutError{Kind: KindCannotBranch}
	}
	for _, tag := range it.pendingPolyvar {
		if tag.Hash != hash {
			continue
		}
		it.pendingPolyvar = nil
		it.pending = pendingNone
		it.pushClose()
		it.pushRules(tag.CtorArgs)
		return Step{
			Kind:      StepEnterSumPayload,
			N:         len(tag.CtorArgs),
			SumCtor:   tag.CtorName,
			SumIndex:  int(int32(hash)),
			IsPolyvar: true,
		}, nil
	}
	return Step{}, &LayoutError{Kind: KindInvalidBranch}
}

// ResolveOption tells the iterator whether the stream's presence tag for
// a pending Option was set. If present, it opens the wrapped rule as a
// StepEnterOption; otherwise it returns StepNone, with no matching
// StepExit since there is nothing further to walk. It fails with
// CannotBranch if no Option is pending.
func (it *Iterator) ResolveOption(present bool) (Step, error) {
	if it.pending != pendingOption {
		return Step{}, &LayoutError{Kind: KindCannotBranch}
	}
	elem := it.pendingElem
	it.pendingElem = layout.Rule{}
	it.pending = pendingNone
	if !present {
		return Step{Kind: StepNone}, nil
	}
	it.pushClose()
	it.stack = append(it.stack, entry{rule: elem})
	return Step{Kind: StepEnterOption, Elem: elem}, nil
}

// Repeat tells the iterator how many elements a pending List's Nat0
// length prefix named, and opens that many copies of its wrapped rule as
// a StepEnterList. It fails with CannotBranch if no List is pending, or
// InvalidBranch if n is negative.
func (it *Iterator) Repeat(n int) (Step, error) {
	if it.pending != pendingList {
		return Step{}, &LayoutError{Kind: KindCannotBranch}
	}
	elem := it.pendingElem
	it.pendingElem = layout.Rule{}
	it.pending = pendingNone
	if n < 0 {
		return Step{}, &LayoutError{Kind: KindInvalidBranch}
	}
	it.pushClose()
	for i := 0; i < n; i++ {
		it.stack = append(it.stack, entry{rule: elem})
	}
	return Step{Kind: StepEnterList, N: n, Elem: elem}, nil
}
