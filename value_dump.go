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
	"fmt"
	"io"
	"strconv"
)

// Dump writes a human-readable rendering of v to w, the way the
// teacher's ion.ToJSON exists purely so a developer can eyeball decoded
// data — this is not a wire format and nothing in this module parses it
// back. Values built by DecodeDynamic are shallow enough (bounded by
// layout depth, §5) that a recursive writer is fine here even though
// the decoder driving DecodeDynamic itself never recurses.
func (v Value) Dump(w io.Writer) error {
	bw := &bufWriter{w: w}
	v.dump(bw)
	return bw.err
}

// GoString implements fmt.GoStringer so %#v on a Value (or a %v inside a
// struct containing one) prints the same rendering Dump produces,
// without requiring callers to allocate a buffer themselves.
func (v Value) GoString() string {
	var buf bytes.Buffer
	bw := &bufWriter{w: &buf}
	v.dump(bw)
	return buf.String()
}

// String implements fmt.Stringer identically to GoString; bin_prot
// Values have no separate "pretty" vs "debug" rendering.
func (v Value) String() string { return v.GoString() }

// bufWriter collects the first write error so dump's recursive calls
// don't need to thread error returns through every branch.
type bufWriter struct {
	w   io.Writer
	err error
}

func (b *bufWriter) write(s string) {
	if b.err != nil {
		return
	}
	_, b.err = io.WriteString(b.w, s)
}

func (v Value) dump(b *bufWriter) {
	switch v.kind {
	case KindUnit:
		b.write("()")
	case KindBool:
		b.write(strconv.FormatBool(v.b))
	case KindInt:
		b.write(strconv.FormatInt(v.i, 10))
	case KindNat0:
		b.write(strconv.FormatUint(uint64(v.i), 10))
	case KindChar:
		b.write(strconv.QuoteRune(v.r))
	case KindFloat:
		b.write(strconv.FormatFloat(v.f, 'g', -1, 64))
	case KindString:
		b.write(strconv.Quote(string(v.s)))
	case KindOption:
		if v.some == nil {
			b.write("None")
			return
		}
		b.write("Some(")
		v.some.dump(b)
		b.write(")")
	case KindTuple:
		b.write("(")
		for i, it := range v.items {
			if i > 0 {
				b.write(", ")
			}
			it.dump(b)
		}
		b.write(")")
	case KindList:
		b.write("[")
		for i, it := range v.items {
			if i > 0 {
				b.write(", ")
			}
			it.dump(b)
		}
		b.write("]")
	case KindRecord:
		b.write("{")
		for i, f := range v.fields {
			if i > 0 {
				b.write("; ")
			}
			b.write(f.Name)
			b.write(" = ")
			f.Value.dump(b)
		}
		b.write("}")
	case KindSum:
		b.write(v.ctor)
		if v.payload != nil && v.payload.kind != KindUnit {
			b.write(" ")
			v.payload.dump(b)
		}
	default:
		b.write(fmt.Sprintf("<invalid Value kind %d>", v.kind))
	}
}
