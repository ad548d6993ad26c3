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
	"math"
	"testing"
)

func TestUnitScenario(t *testing.T) {
	var b Buffer
	b.WriteUnit()
	if !bytes.Equal(b.Bytes(), []byte{0x00}) {
		t.Fatalf("WriteUnit = %x, want 00", b.Bytes())
	}
	r := NewReader(bytes.NewReader(b.Bytes()))
	if err := r.ReadUnit(); err != nil {
		t.Fatal(err)
	}
}

func TestReadUnitRejectsNonzero(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x01}))
	if err := r.ReadUnit(); err == nil {
		t.Fatal("expected error for non-zero unit byte")
	}
}

func TestBoolScenario(t *testing.T) {
	cases := []struct {
		v    bool
		want byte
	}{{false, 0x00}, {true, 0x01}}
	for _, c := range cases {
		var b Buffer
		b.WriteBool(c.v)
		if b.Bytes()[0] != c.want {
			t.Errorf("WriteBool(%v) = %x, want %x", c.v, b.Bytes()[0], c.want)
		}
		r := NewReader(bytes.NewReader(b.Bytes()))
		got, err := r.ReadBool()
		if err != nil || got != c.v {
			t.Errorf("ReadBool round trip %v -> %v, %v", c.v, got, err)
		}
	}
}

func TestReadBoolRejectsInvalidByte(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x02}))
	if _, err := r.ReadBool(); err == nil {
		t.Fatal("expected error for bool byte 0x02")
	}
}

func TestCharRoundTrip(t *testing.T) {
	for _, c := range []rune{'a', '0', 'λ', '漢', '🎉'} {
		var b Buffer
		b.WriteChar(c)
		r := NewReader(bytes.NewReader(b.Bytes()))
		got, err := r.ReadChar()
		if err != nil {
			t.Fatalf("ReadChar(%q): %v", c, err)
		}
		if got != c {
			t.Errorf("round trip %q -> %q", c, got)
		}
	}
}

func TestFloatScenarios(t *testing.T) {
	for _, f := range []float64{0, 1, -1, math.Inf(1), math.Inf(-1), math.NaN(), -0.0} {
		var b Buffer
		b.WriteF64(f)
		r := NewReader(bytes.NewReader(b.Bytes()))
		got, err := r.ReadF64()
		if err != nil {
			t.Fatalf("ReadF64(%v): %v", f, err)
		}
		if math.IsNaN(f) {
			if !math.IsNaN(got) {
				t.Errorf("NaN not preserved: got %v", got)
			}
			continue
		}
		if got != f {
			t.Errorf("round trip %v -> %v", f, got)
		}
	}
}

// TestRecordScenario checks spec scenario S6's literal byte form for
// {x: i64, y: f64} with x=2147483647, y=+inf.
func TestRecordScenario(t *testing.T) {
	var b Buffer
	b.WriteInt(2147483647)
	b.WriteF64(math.Inf(1))
	want := []byte{0xfd, 0xff, 0xff, 0xff, 0x7f, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xf0, 0x7f}
	if !bytes.Equal(b.Bytes(), want) {
		t.Fatalf("record encoding = % x, want % x", b.Bytes(), want)
	}
}
