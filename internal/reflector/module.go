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

package reflector

// Module is a single-letter logical channel. Peers attached to it share
// forwarding; stats are aggregated per module for telemetry.
type Module struct {
	Name  rune
	Peers map[string]*Peer // keyed by UDP address string

	TotalStreams uint64
	TotalFrames  uint64
}

func newModule(name rune) *Module {
	return &Module{
		Name:  name,
		Peers: make(map[string]*Peer),
	}
}
