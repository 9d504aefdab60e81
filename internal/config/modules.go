// SPDX-License-Identifier: AGPL-3.0-or-later
// m17reflector - a UDP voice-stream reflector for the M17 digital voice protocol
//
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
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package config

import "fmt"

// ModuleList is a set of single-letter module names, read from YAML as a
// list of one-character strings ("A", "B", ...) and stored as runes so the
// rest of the codebase never re-parses them.
type ModuleList []rune

// UnmarshalYAML decodes a YAML sequence of single-character strings into
// runes, rejecting anything longer than one character.
func (m *ModuleList) UnmarshalYAML(unmarshal func(any) error) error {
	var raw []string
	if err := unmarshal(&raw); err != nil {
		return err
	}

	out := make(ModuleList, 0, len(raw))
	for _, s := range raw {
		r := []rune(s)
		if len(r) != 1 {
			return fmt.Errorf("config: module name %q is not a single character", s)
		}
		out = append(out, r[0])
	}
	*m = out
	return nil
}

// MarshalYAML re-encodes the module set as single-character strings.
func (m ModuleList) MarshalYAML() (any, error) {
	out := make([]string, len(m))
	for i, r := range m {
		out[i] = string(r)
	}
	return out, nil
}

// Contains reports whether r is one of the configured modules.
func (m ModuleList) Contains(r rune) bool {
	for _, mod := range m {
		if mod == r {
			return true
		}
	}
	return false
}

func (m ModuleList) String() string {
	return string(m)
}
