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

// Option configures Unmarshal or DecodeDynamic. The zero value of the
// options they build from is always the permissive default: lenient
// trailing-bytes handling, no registered custom decoders.
type Option func(*decodeOptions)

type decodeOptions struct {
	strict  bool
	customs map[string]CustomDecoder
}

func buildOptions(opts []Option) *decodeOptions {
	o := &decodeOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithStrict makes Unmarshal and DecodeDynamic fail with a
// *DecodeError{Kind: KindTrailingBytes} if the source has bytes left
// after the top-level value, rather than silently ignoring them (§7).
func WithStrict() Option {
	return func(o *decodeOptions) { o.strict = true }
}

// WithCustomDecoder registers dec under path so DecodeDynamic can
// resolve a layout's Custom or CustomForPath rule naming that same
// module path (§4.6). Later options registering the same path win.
func WithCustomDecoder(path string, dec CustomDecoder) Option {
	return func(o *decodeOptions) {
		if o.customs == nil {
			o.customs = make(map[string]CustomDecoder)
		}
		o.customs[path] = dec
	}
}

// checkTrailing reports a KindTrailingBytes error if r has any byte left
// to read, and strict asked for the check. It is the one extra read
// Unmarshal/DecodeDynamic perform beyond what the value itself required.
func checkTrailing(r *Reader, strict bool) error {
	if !strict {
		return nil
	}
	if _, err := r.ReadByte(); err == nil {
		return decodeErr(KindTrailingBytes, r.Pos()-1, nil)
	}
	return nil
}
