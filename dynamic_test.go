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
	"bytes"
	"testing"

	"github.com/chainsafe-labs/binprot/layout"
)

// TestDecodeDynamicSumScenario checks spec scenario S7 end to end through
// the layout-driven dynamic decoder.
func TestDecodeDynamicSumScenario(t *testing.T) {
	rule := layout.Sum(
		layout.Summand{CtorName: "one", Index: 0, CtorArgs: []layout.Rule{layout.Int}},
		layout.Summand{CtorName: "two", Index: 1, CtorArgs: []layout.Rule{layout.Bool}},
	)
	r := bytes.NewReader([]byte{0x01, 0x00})
	v, err := DecodeDynamic(r, &rule)
	if err != nil {
		t.Fatal(err)
	}
	ctor, index, payload, ok := v.AsSum()
	if !ok || ctor != "two" || index != 1 {
		t.Fatalf("AsSum() = %q, %d, %v, %v", ctor, index, payload, ok)
	}
	b, ok := payload.AsBool()
	if !ok || b != false {
		t.Fatalf("payload = %v, %v, want false", b, ok)
	}
}

func TestDecodeDynamicRecordAndOptionAndList(t *testing.T) {
	rule := layout.Record(
		layout.RecordField{Name: "count", Rule: layout.Nat0},
		layout.RecordField{Name: "label", Rule: layout.Option(layout.String)},
		layout.RecordField{Name: "items", Rule: layout.List(layout.Int)},
	)

	var buf Buffer
	buf.WriteNat0(2)
	buf.WriteOptionTag(true)
	buf.WriteString("hi")
	buf.WriteSeqHeader(2)
	buf.WriteInt(10)
	buf.WriteInt(-10)

	v, err := DecodeDynamic(bytes.NewReader(buf.Bytes()), &rule)
	if err != nil {
		t.Fatal(err)
	}
	count, ok := v.Field("count")
	if !ok {
		t.Fatal("missing count field")
	}
	if u, _ := count.AsNat0(); u != 2 {
		t.Fatalf("count = %d, want 2", u)
	}
	label, _ := v.Field("label")
	some, ok := label.AsOption()
	if !ok || some == nil {
		t.Fatal("expected Some label")
	}
	if s, _ := some.AsString(); string(s) != "hi" {
		t.Fatalf("label = %q, want hi", s)
	}
	items, _ := v.Field("items")
	list, _ := items.AsList()
	if len(list) != 2 {
		t.Fatalf("items list len = %d, want 2", len(list))
	}
}

func TestDecodeDynamicCustomForPath(t *testing.T) {
	rule := layout.CustomForPath("Mina_base.Account.t")
	var buf Buffer
	buf.WriteString("opaque payload")

	dec := func(r *Reader) (Value, error) {
		s, err := r.ReadString()
		if err != nil {
			return Value{}, err
		}
		return String([]byte(s)), nil
	}

	v, err := DecodeDynamic(bytes.NewReader(buf.Bytes()), &rule,
		WithCustomDecoder("Mina_base.Account.t", dec))
	if err != nil {
		t.Fatal(err)
	}
	s, ok := v.AsString()
	if !ok || string(s) != "opaque payload" {
		t.Fatalf("AsString() = %q, %v", s, ok)
	}
}

func TestDecodeDynamicMissingCustomDecoderFails(t *testing.T) {
	rule := layout.CustomForPath("unregistered")
	var buf Buffer
	buf.WriteUnit()
	if _, err := DecodeDynamic(bytes.NewReader(buf.Bytes()), &rule); err == nil {
		t.Fatal("expected error for unregistered custom decoder path")
	}
}

func TestDecodeDynamicStrictRejectsTrailingBytes(t *testing.T) {
	rule := layout.Bool
	raw := []byte{0x01, 0x00}
	if _, err := DecodeDynamic(bytes.NewReader(raw), &rule); err != nil {
		t.Fatalf("lenient decode: %v", err)
	}
	if _, err := DecodeDynamic(bytes.NewReader(raw), &rule, WithStrict()); err == nil {
		t.Fatal("expected WithStrict to reject trailing bytes")
	}
}

// TestDynamicValueRoundTripsThroughEncodeValue decodes a layout-driven
// value and re-encodes it with EncodeValue, checking the bytes match.
func TestDynamicValueRoundTripsThroughEncodeValue(t *testing.T) {
	rule := layout.Tuple(layout.Int, layout.Option(layout.Bool), layout.List(layout.Nat0))

	var buf Buffer
	buf.WriteInt(-5)
	buf.WriteOptionTag(true)
	buf.WriteBool(true)
	buf.WriteSeqHeader(3)
	buf.WriteNat0(1)
	buf.WriteNat0(2)
	buf.WriteNat0(3)
	orig := append([]byte(nil), buf.Bytes()...)

	v, err := DecodeDynamic(bytes.NewReader(orig), &rule)
	if err != nil {
		t.Fatal(err)
	}

	var out Buffer
	if err := EncodeValue(&out, v, nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), orig) {
		t.Fatalf("re-encoded = % x, want % x", out.Bytes(), orig)
	}
}

func TestEncodeValuePolyvarSelector(t *testing.T) {
	selector := func(ctor string) (int, bool) {
		return 0, true
	}
	hash := uint32(0xabcd1234)
	v := Sum("Foo", int(int32(hash)), Unit)

	var out Buffer
	if err := EncodeValue(&out, v, selector); err != nil {
		t.Fatal(err)
	}
	r := NewReader(bytes.NewReader(out.Bytes()))
	got, err := r.ReadPolyvarTag()
	if err != nil || got != hash {
		t.Fatalf("ReadPolyvarTag() = %x, %v, want %x", got, err, hash)
	}
}
