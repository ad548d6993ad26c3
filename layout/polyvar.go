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

package layout

// HashVariant computes the 32-bit tag OCaml's bin_prot uses to select a
// polymorphic variant constructor on the wire (upstream
// Bin_prot.Common.hash_variant / the compiler's own hash_variant):
// accumulate accu = 223*accu + byte over the constructor name, mask to
// 31 bits, then reinterpret the top half of that range as negative.
// Layouts that supply an explicit "hash" win over this computation; it
// exists so a loader can still decode a Polyvar whose JSON only names
// each constructor (see DESIGN.md OQ-1).
func HashVariant(name string) uint32 {
	var accu uint32
	for i := 0; i < len(name); i++ {
		accu = 223*accu + uint32(name[i])
	}
	accu &= 1<<31 - 1
	if accu > 0x3fff_ffff {
		accu -= 1 << 31
	}
	return accu
}
