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

import (
	"fmt"
	"net"

	"github.com/m17-reflector/m17reflector/internal/config"
	"github.com/m17-reflector/m17reflector/internal/protocol"
)

// Bootstrap attaches outbound to every configured interlink: for each
// module letter it inserts a link-role peer (idempotent on repeat) and
// sends an outbound CONN so the far end attaches us back.
func (r *Reflector) Bootstrap(interlinks []config.Interlink) error {
	for _, link := range interlinks {
		addr, err := net.ResolveUDPAddr("udp", link.Address)
		if err != nil {
			return fmt.Errorf("reflector: resolve interlink %q: %w", link.Name, err)
		}

		for _, module := range link.Modules {
			r.mu.Lock()
			err := r.addPeerLocked(module, link.Name, addr, RoleLink)
			r.mu.Unlock()
			if err != nil {
				return fmt.Errorf("reflector: attach interlink %q to module %c: %w", link.Name, module, err)
			}

			r.log.Info("bootstrapping interlink", "name", link.Name, "address", link.Address, "module", string(module))
			r.send(connFrame(r.name, module), addr)
		}
	}
	return nil
}

func connFrame(callsign string, module rune) []byte {
	enc := protocol.EncodeCallsign(callsign)
	out := make([]byte, 0, protocol.ConnLen)
	out = append(out, protocol.MagicConn...)
	out = append(out, enc[:]...)
	out = append(out, byte(module))
	return out
}
