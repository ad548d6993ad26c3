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

// Package binprot implements the Bin_Prot wire format: a compact,
// non-self-describing binary encoding originating in the OCaml ecosystem
// and used by systems such as Mina.
//
// The package provides three ways to move bytes:
//
//   - Marshal/Unmarshal drive a reflect-based structural codec over Go
//     struct values, the moral equivalent of the host language's
//     derive(Serialize, Deserialize) in the source ecosystem.
//   - Value is a loosely-typed tree that can hold any bin_prot value
//     without a matching Go type.
//   - DecodeDynamic reads a stream into a Value, guided by a
//     layout.Rule supplied out of band (see the binprot/layout and
//     binprot/traverse subpackages) rather than by a compiled Go type.
//
// Bin_Prot has no self-describing framing: a decoder can only make sense
// of a stream if it already knows the shape it is reading, either because
// the Go compiler baked that shape into a struct, or because a Rule was
// loaded alongside the bytes.
package binprot
