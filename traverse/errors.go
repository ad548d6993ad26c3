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

import "fmt"

// LayoutErrorKind classifies a traversal failure (§7). Unlike
// binprot.DecodeError, these are pure Syntax-kind errors: iterator
// misuse or layout shape problems, never a stream byte position.
type LayoutErrorKind int

const (
	// KindMustBranch means Next was called while a Branch, BranchPolyvar,
	// ResolveOption, or Repeat call was still owed.
	KindMustBranch LayoutErrorKind = iota
	// KindCannotBranch means Branch, BranchPolyvar, ResolveOption, or
	// Repeat was called with nothing pending, or the wrong one of the
	// four was called for what's actually pending.
	KindCannotBranch
	// KindInvalidBranch means a branch selector was out of range: a Sum
	// index outside 0..len(Summands), a Polyvar hash matching no tag, or
	// a negative List repeat count.
	KindInvalidBranch
	// KindUnresolvedReference means the traversal reached a
	// Reference(Unresolved) and refused to descend.
	KindUnresolvedReference
)

func (k LayoutErrorKind) String() string {
	switch k {
	case KindMustBranch:
		return "must branch"
	case KindCannotBranch:
		return "cannot branch"
	case KindInvalidBranch:
		return "invalid branch"
	case KindUnresolvedReference:
		return "unresolved reference"
	default:
		return "unknown"
	}
}

// LayoutError is returned for any iterator-misuse or layout-shape
// failure. Path is populated only for KindUnresolvedReference, naming
// the Reference's unresolved target path.
type LayoutError struct {
	Kind LayoutErrorKind
	Path string
}

func (e *LayoutError) Error() string {
	if e.Kind == KindUnresolvedReference && e.Path != "" {
		return fmt.Sprintf("binprot/traverse: %s: %q", e.Kind, e.Path)
	}
	return fmt.Sprintf("binprot/traverse: %s", e.Kind)
}
