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

package traverse

import (
	"testing"

	"github.com/chainsafe-labs/binprot/layout"
)

func TestIteratorLeaf(t *testing.T) {
	it := New(layout.Int)
	step, err := it.Next()
	if err != nil || step.Kind != StepLeaf {
		t.Fatalf("Next() = %+v, %v, want StepLeaf", step, err)
	}
	step, err = it.Next()
	if err != nil || step.Kind != StepDone {
		t.Fatalf("Next() = %+v, %v, want StepDone", step, err)
	}
}

func TestIteratorTupleEnterExit(t *testing.T) {
	rule := layout.Tuple(layout.Int, layout.Bool)
	it := New(rule)

	step, err := it.Next()
	if err != nil || step.Kind != StepEnterTuple || step.N != 2 {
		t.Fatalf("Next() = %+v, %v, want StepEnterTuple N=2", step, err)
	}
	step, _ = it.Next()
	if step.Kind != StepLeaf || step.Rule.Kind() != layout.KindInt {
		t.Fatalf("expected int leaf first, got %+v", step)
	}
	step, _ = it.Next()
	if step.Kind != StepLeaf || step.Rule.Kind() != layout.KindBool {
		t.Fatalf("expected bool leaf second, got %+v", step)
	}
	step, _ = it.Next()
	if step.Kind != StepExit {
		t.Fatalf("expected StepExit closing the tuple, got %+v", step)
	}
	step, _ = it.Next()
	if step.Kind != StepDone {
		t.Fatalf("expected StepDone, got %+v", step)
	}
}

func TestIteratorRecordFieldOrder(t *testing.T) {
	rule := layout.Record(
		layout.RecordField{Name: "x", Rule: layout.Int},
		layout.RecordField{Name: "y", Rule: layout.Float},
	)
	it := New(rule)
	step, _ := it.Next()
	if step.Kind != StepEnterRecord || len(step.Fields) != 2 || step.Fields[0] != "x" || step.Fields[1] != "y" {
		t.Fatalf("Next() = %+v, want StepEnterRecord[x,y]", step)
	}
}

func TestIteratorSumBranch(t *testing.T) {
	rule := layout.Sum(
		layout.Summand{CtorName: "one", Index: 0, CtorArgs: []layout.Rule{layout.Int}},
		layout.Summand{CtorName: "two", Index: 1, CtorArgs: []layout.Rule{layout.Bool}},
	)
	it := New(rule)
	step, err := it.Next()
	if err != nil || step.Kind != StepBranch || len(step.Summands) != 2 {
		t.Fatalf("Next() = %+v, %v, want StepBranch", step, err)
	}
	step, err = it.Branch(1)
	if err != nil || step.Kind != StepEnterSumPayload || step.SumCtor != "two" || step.SumIndex != 1 || step.N != 1 {
		t.Fatalf("Branch(1) = %+v, %v", step, err)
	}
	step, _ = it.Next()
	if step.Kind != StepLeaf || step.Rule.Kind() != layout.KindBool {
		t.Fatalf("expected bool leaf in payload, got %+v", step)
	}
	step, _ = it.Next()
	if step.Kind != StepExit {
		t.Fatalf("expected StepExit closing the payload, got %+v", step)
	}
}

func TestIteratorBranchOutOfRange(t *testing.T) {
	rule := layout.Sum(layout.Summand{CtorName: "one", Index: 0})
	it := New(rule)
	it.Next()
	if _, err := it.Branch(5); err == nil {
		t.Fatal("expected InvalidBranch for out-of-range constructor index")
	}
}

func TestIteratorPolyvarBranchByHash(t *testing.T) {
	rule := layout.Polyvar(
		layout.PolyvarTag{CtorName: "Foo", Hash: layout.HashVariant("Foo")},
		layout.PolyvarTag{CtorName: "Bar", Hash: layout.HashVariant("Bar"), CtorArgs: []layout.Rule{layout.Int}},
	)
	it := New(rule)
	step, _ := it.Next()
	if step.Kind != StepPolyvarBranch {
		t.Fatalf("Next() = %+v, want StepPolyvarBranch", step)
	}
	step, err := it.BranchPolyvar(layout.HashVariant("Bar"))
	if err != nil || step.Kind != StepEnterSumPayload || step.SumCtor != "Bar" || !step.IsPolyvar {
		t.Fatalf("BranchPolyvar = %+v, %v", step, err)
	}
}

func TestIteratorBranchPolyvarUnknownHash(t *testing.T) {
	rule := layout.Polyvar(layout.PolyvarTag{CtorName: "Foo", Hash: layout.HashVariant("Foo")})
	it := New(rule)
	it.Next()
	if _, err := it.BranchPolyvar(0xdeadbeef); err == nil {
		t.Fatal("expected InvalidBranch for unknown polyvar hash")
	}
}

func TestIteratorOptionPresentAndAbsent(t *testing.T) {
	rule := layout.Option(layout.Int)

	present := New(rule)
	step, _ := present.Next()
	if step.Kind != StepOption {
		t.Fatalf("Next() = %+v, want StepOption", step)
	}
	step, err := present.ResolveOption(true)
	if err != nil || step.Kind != StepEnterOption {
		t.Fatalf("ResolveOption(true) = %+v, %v", step, err)
	}
	step, _ = present.Next()
	if step.Kind != StepLeaf {
		t.Fatalf("expected leaf inside option, got %+v", step)
	}
	step, _ = present.Next()
	if step.Kind != StepExit {
		t.Fatalf("expected StepExit closing the option, got %+v", step)
	}

	absent := New(rule)
	absent.Next()
	step, err = absent.ResolveOption(false)
	if err != nil || step.Kind != StepNone {
		t.Fatalf("ResolveOption(false) = %+v, %v, want StepNone", step, err)
	}
	step, _ = absent.Next()
	if step.Kind != StepDone {
		t.Fatalf("expected StepDone with no matching exit, got %+v", step)
	}
}

func TestIteratorListRepeat(t *testing.T) {
	rule := layout.List(layout.Int)
	it := New(rule)
	step, _ := it.Next()
	if step.Kind != StepList {
		t.Fatalf("Next() = %+v, want StepList", step)
	}
	step, err := it.Repeat(3)
	if err != nil || step.Kind != StepEnterList || step.N != 3 {
		t.Fatalf("Repeat(3) = %+v, %v", step, err)
	}
	count := 0
	for {
		s, _ := it.Next()
		if s.Kind == StepExit {
			break
		}
		if s.Kind != StepLeaf {
			t.Fatalf("expected StepLeaf element %d, got %+v", count, s)
		}
		count++
	}
	if count != 3 {
		t.Fatalf("got %d list elements, want 3", count)
	}
}

func TestIteratorRepeatRejectsNegative(t *testing.T) {
	it := New(layout.List(layout.Int))
	it.Next()
	if _, err := it.Repeat(-1); err == nil {
		t.Fatal("expected InvalidBranch for negative count")
	}
}

func TestIteratorNextFailsWhenBranchPending(t *testing.T) {
	it := New(layout.Option(layout.Int))
	it.Next()
	if _, err := it.Next(); err == nil {
		t.Fatal("expected MustBranch calling Next before resolving a pending Option")
	}
}

func TestIteratorUnresolvedReferenceFails(t *testing.T) {
	rule := layout.Reference(layout.RuleRef{State: layout.RefUnresolved, Path: "x"})
	it := New(rule)
	_, err := it.Next()
	if err == nil {
		t.Fatal("expected error walking an unresolved reference")
	}
	lerr, ok := err.(*LayoutError)
	if !ok || lerr.Kind != KindUnresolvedReference {
		t.Fatalf("err = %v, want *LayoutError{KindUnresolvedReference}", err)
	}
}

func TestIteratorResolvedReferenceIsTransparent(t *testing.T) {
	target := layout.Bool
	rule := layout.Reference(layout.RuleRef{State: layout.RefResolved, SourceModulePath: "m", RefRule: &target})
	it := New(rule)
	step, err := it.Next()
	if err != nil || step.Kind != StepLeaf || step.Rule.Kind() != layout.KindBool {
		t.Fatalf("Next() = %+v, %v, want bool leaf through the reference", step, err)
	}
}

func TestIteratorCustomForPath(t *testing.T) {
	it := New(layout.CustomForPath("Mina_base.Account.t"))
	step, err := it.Next()
	if err != nil || step.Kind != StepCustom || step.Path != "Mina_base.Account.t" {
		t.Fatalf("Next() = %+v, %v", step, err)
	}
}
