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

import (
	"bytes"
	"fmt"
	"io"

	"sigs.k8s.io/yaml"
)

// FromYAML parses a layout written in YAML by converting it to the
// canonical JSON form and delegating to FromJSON, rather than hand-rolling
// a second tree walker for an equivalent document (layouts are checked
// into source trees by hand often enough that YAML is worth supporting
// as an authoring convenience).
func FromYAML(r io.Reader) (*Rule, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	j, err := yaml.YAMLToJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("layout: invalid YAML: %w", err)
	}
	return FromJSON(bytes.NewReader(j))
}
