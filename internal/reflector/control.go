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
	"net"

	"github.com/m17-reflector/m17reflector/internal/protocol"
)

// HandleControl reacts to an inbound control-plane packet and writes any
// required reply datagram(s) to addr. Only CONN/LSTN/PING/PONG/DISC carry
// meaningful behavior; ACKN/NACK are log-only from a peer's perspective.
func (r *Reflector) HandleControl(pkt protocol.Packet, addr *net.UDPAddr) {
	r.recordControl(pkt.Kind.String())

	switch pkt.Kind {
	case protocol.KindConn:
		r.handleConn(pkt, addr, RoleClient)
	case protocol.KindLstn:
		r.handleConn(pkt, addr, RoleListen)
	case protocol.KindPing:
		r.handlePing(pkt, addr)
	case protocol.KindPong:
		r.handlePong(pkt, addr)
	case protocol.KindDisc:
		r.handleDisc(pkt, addr)
	case protocol.KindAckn, protocol.KindNack:
		r.log.Debug("received control marker", "kind", pkt.Kind.String(), "addr", addr.String())
	}
}

func (r *Reflector) handleConn(pkt protocol.Packet, addr *net.UDPAddr, role Role) {
	r.mu.Lock()
	err := r.addPeerLocked(pkt.Module, pkt.From, addr, role)
	r.mu.Unlock()

	if err != nil {
		r.log.Warn("rejecting attach to invalid module", "from", pkt.From, "module", string(pkt.Module), "addr", addr.String())
		r.send(acknNackFrame(protocol.MagicNack), addr)
		return
	}

	r.log.Info("peer attached", "from", pkt.From, "module", string(pkt.Module), "addr", addr.String(), "listen_only", role == RoleListen)
	r.send(acknNackFrame(protocol.MagicAckn), addr)
}

func (r *Reflector) handlePing(pkt protocol.Packet, addr *net.UDPAddr) {
	r.mu.Lock()
	if p, _, ok := r.findPeerLocked(addr); ok {
		p.LastSeen = nowFunc()
	}
	r.mu.Unlock()

	r.send(fromFrame(protocol.MagicPong, r.name), addr)
}

func (r *Reflector) handlePong(pkt protocol.Packet, addr *net.UDPAddr) {
	r.mu.Lock()
	if p, _, ok := r.findPeerLocked(addr); ok {
		p.LastSeen = nowFunc()
	}
	r.mu.Unlock()
}

func (r *Reflector) handleDisc(pkt protocol.Packet, addr *net.UDPAddr) {
	r.mu.Lock()
	r.removePeerLocked(addr)
	r.mu.Unlock()

	r.log.Info("peer detached", "from", pkt.From, "addr", addr.String())
	r.send(fromFrame(protocol.MagicDisc, r.name), addr)
}

func acknNackFrame(magic string) []byte {
	return []byte(magic)
}

func fromFrame(magic, callsign string) []byte {
	enc := protocol.EncodeCallsign(callsign)
	out := make([]byte, 0, 10)
	out = append(out, magic...)
	out = append(out, enc[:]...)
	return out
}
