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

package stream

import (
	"bytes"
	"testing"

	"github.com/chainsafe-labs/binprot"
)

func TestWriterFlushReadBatchRoundTrip(t *testing.T) {
	records := [][]byte{
		{0x00},             // unit
		{0x01, 0x01},       // option Some(true)
		bytes.Repeat([]byte{0xab}, 200), // something big enough to compress
	}

	var w Writer
	for _, rec := range records {
		w.Append(rec)
	}
	if w.Len() != len(records) {
		t.Fatalf("Len() = %d, want %d", w.Len(), len(records))
	}

	var framed bytes.Buffer
	if _, err := w.Flush(&framed); err != nil {
		t.Fatal(err)
	}
	if w.Len() != 0 {
		t.Fatal("Flush should reset the writer's pending count")
	}
	if !IsMagic(framed.Bytes()) {
		t.Fatal("flushed batch should start with the package magic")
	}

	got, err := ReadBatch(binprot.NewReader(bytes.NewReader(framed.Bytes())))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(records) {
		t.Fatalf("ReadBatch returned %d records, want %d", len(got), len(records))
	}
	for i := range records {
		if !bytes.Equal(got[i], records[i]) {
			t.Errorf("record %d = % x, want % x", i, got[i], records[i])
		}
	}
}

func TestIsMagicRejectsUnframedData(t *testing.T) {
	if IsMagic([]byte{0x00, 0x01, 0x02, 0x03}) {
		t.Fatal("IsMagic should reject data without the batch prefix")
	}
	if IsMagic(nil) {
		t.Fatal("IsMagic should reject a nil/short slice")
	}
}

func TestReadBatchRejectsBadMagic(t *testing.T) {
	bad := []byte{0x00, 0x00, 0x00, 0x00}
	if _, err := ReadBatch(binprot.NewReader(bytes.NewReader(bad))); err == nil {
		t.Fatal("expected error reading a batch with bad magic")
	}
}

func TestEmptyBatchRoundTrip(t *testing.T) {
	var w Writer
	var framed bytes.Buffer
	if _, err := w.Flush(&framed); err != nil {
		t.Fatal(err)
	}
	got, err := ReadBatch(binprot.NewReader(bytes.NewReader(framed.Bytes())))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d records from an empty batch, want 0", len(got))
	}
}
