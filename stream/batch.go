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

// Package stream frames a sequence of independently bin_prot-encoded
// records into one zstd-compressed batch, the way the teacher's
// ion/zion package frames compressed chunks of ion data with a
// package-level encoder/decoder pair and a magic-number prefix. Wire
// messages built from bin_prot are routinely batched and compressed
// before transport, which this package is a natural supplement for
// rather than something the base codec needs to know about.
package stream

import (
	"bytes"
	"fmt"
	"io"
	"runtime"

	"github.com/chainsafe-labs/binprot"
	"github.com/klauspost/compress/zstd"
)

// magic is the 4-byte prefix that begins every batch this package
// writes, chosen the way the teacher's zion magic is: a non-ASCII lead
// byte that no bin_prot integer, Nat0 length, bool, unit or option tag
// can start with. IsMagic compares only these four bytes, so an unframed
// record that happens to begin with them (one led by a float, say) is
// still reported as a batch.
var magic = []byte{0xa1, 'b', 'p', '1'}

var enc *zstd.Encoder
var dec *zstd.Decoder

func init() {
	enc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	dec, _ = zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(runtime.GOMAXPROCS(0)),
		zstd.IgnoreChecksum(true))
}

// IsMagic reports whether x begins with this package's batch magic
// number.
func IsMagic(x []byte) bool {
	return len(x) >= len(magic) && bytes.Equal(x[:len(magic)], magic)
}

// Writer accumulates already bin_prot-encoded records and flushes them
// as one zstd-compressed batch. A Writer is not safe for concurrent use.
type Writer struct {
	buf   binprot.Buffer
	count int
}

// Append adds one encoded record to the pending batch, length-prefixing
// it so ReadBatch can split the decompressed payload back into records
// without re-parsing their bin_prot contents.
func (w *Writer) Append(record []byte) {
	w.buf.WriteBytes(record)
	w.count++
}

// Len reports how many records Append has queued since the last Flush.
func (w *Writer) Len() int { return w.count }

// Flush compresses the queued records and writes one framed batch to
// dst: the magic number, a Nat0 record count, a Nat0 compressed-payload
// length, then the compressed payload itself. It resets w for reuse
// regardless of whether the write succeeds partway through.
func (w *Writer) Flush(dst io.Writer) (int, error) {
	defer func() {
		w.buf.Reset()
		w.count = 0
	}()

	compressed := enc.EncodeAll(w.buf.Bytes(), nil)

	var hdr binprot.Buffer
	hdr.WriteNat0(uint64(w.count))
	hdr.WriteNat0(uint64(len(compressed)))

	total := 0
	for _, chunk := range [][]byte{magic, hdr.Bytes(), compressed} {
		n, err := dst.Write(chunk)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ReadBatch reads one framed batch from r and returns its records in
// their original order.
func ReadBatch(r *binprot.Reader) ([][]byte, error) {
	got, err := r.ReadExact(len(magic))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(got, magic) {
		return nil, fmt.Errorf("binprot/stream: bad magic %x", got)
	}
	count, err := r.ReadNat0()
	if err != nil {
		return nil, err
	}
	clen, err := r.ReadNat0()
	if err != nil {
		return nil, err
	}
	compressed, err := r.ReadExact(int(clen))
	if err != nil {
		return nil, err
	}
	raw, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("binprot/stream: zstd decode: %w", err)
	}

	br := binprot.NewReader(bytes.NewReader(raw))
	records := make([][]byte, 0, count)
	for i := uint64(0); i < count; i++ {
		rec, err := br.ReadBytes()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
