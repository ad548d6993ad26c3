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
	"encoding/hex"
	"testing"
)

// TestWriteIntScenarios checks spec scenario S3's literal byte forms.
func TestWriteIntScenarios(t *testing.T) {
	cases := []struct {
		v    int64
		want string
	}{
		{0, "00"},
		{1, "01"},
		{-1, "ffff"},
		{127, "7f"},
		{128, "fe8000"},
		{2147483647, "fdffffff7f"},
		{-2147483648, "fd00000080"},
	}
	for _, c := range cases {
		var b Buffer
		b.WriteInt(c.v)
		if got := hex.EncodeToString(b.Bytes()); got != c.want {
			t.Errorf("WriteInt(%d) = %s, want %s", c.v, got, c.want)
		}
	}
}

func TestReadIntRoundTrip(t *testing.T) {
	vals := []int64{0, 1, -1, 127, -128, 128, -129, 32767, -32768, 32768,
		2147483647, -2147483648, 2147483648, -2147483649,
		1<<62 - 1, -(1 << 62)}
	for _, v := range vals {
		var b Buffer
		b.WriteInt(v)
		r := NewReader(bytes.NewReader(b.Bytes()))
		got, err := r.ReadInt()
		if err != nil {
			t.Fatalf("ReadInt(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d -> %d", v, got)
		}
		if r.Pos() != b.Len() {
			t.Errorf("ReadInt(%d) consumed %d of %d bytes", v, r.Pos(), b.Len())
		}
	}
}

func TestWriteIntShortestForm(t *testing.T) {
	// Every value that fits a smaller class must never emit a larger
	// class's prefix code (§4.3's "encoders MUST choose the shortest
	// wire form").
	cases := []struct {
		v    int64
		want int
	}{
		{0x7f, 1}, {0x80, 3}, {int16Max - 1, 3}, {int16Max, 5}, {int32Max - 1, 5}, {int32Max, 9},
		{-0x80, 2}, {-0x81, 3}, {-0x8000, 3}, {-0x8001, 5}, {-0x8000_0000, 5}, {-0x8000_0001, 9},
	}
	for _, c := range cases {
		var b Buffer
		b.WriteInt(c.v)
		if b.Len() != c.want {
			t.Errorf("WriteInt(%d) = %d bytes, want %d", c.v, b.Len(), c.want)
		}
		var again Buffer
		again.WriteInt(c.v)
		if !bytes.Equal(b.Bytes(), again.Bytes()) {
			t.Fatalf("WriteInt(%d) not deterministic", c.v)
		}
	}
}

func TestNat0RoundTrip(t *testing.T) {
	vals := []uint64{0, 1, 127, 128, 0xffff, 0x10000, 0xffffffff, 0x100000000, 1<<64 - 1}
	for _, v := range vals {
		var b Buffer
		b.WriteNat0(v)
		r := NewReader(bytes.NewReader(b.Bytes()))
		got, err := r.ReadNat0()
		if err != nil {
			t.Fatalf("ReadNat0(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d -> %d", v, got)
		}
	}
}

func TestReadNat0RejectsNegInt8(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{CodeNegInt8, 0xff}))
	if _, err := r.ReadNat0(); err == nil {
		t.Fatal("expected error decoding CodeNegInt8 as Nat0")
	}
}

func TestReadIntAsOverflow(t *testing.T) {
	var b Buffer
	b.WriteInt(300)
	r := NewReader(bytes.NewReader(b.Bytes()))
	if _, err := r.ReadIntAs(8, true); err == nil {
		t.Fatal("expected size mismatch narrowing 300 into int8")
	}
}
