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
	"time"
)

// Role distinguishes how a peer attached.
type Role int

const (
	// RoleClient is an ordinary end-client attachment (CONN).
	RoleClient Role = iota
	// RoleListen is a listen-only attachment (LSTN); it may never source frames.
	RoleListen
	// RoleLink is a reflector-to-reflector interlink attachment.
	RoleLink
)

// Peer is a remote endpoint attached to one module.
type Peer struct {
	Callsign string
	Addr     *net.UDPAddr

	ConnectedAt time.Time
	LastSeen    time.Time

	PacketsIn  uint64
	PacketsOut uint64
	BytesIn    uint64
	BytesOut   uint64

	IsLink     bool
	ListenOnly bool

	// ReceivingUnicast is the stream ID currently being delivered to this
	// peer as a unicast target, if any.
	ReceivingUnicast    uint16
	HasReceivingUnicast bool
}

func newPeer(callsign string, addr *net.UDPAddr, role Role) *Peer {
	now := nowFunc()
	return &Peer{
		Callsign:    callsign,
		Addr:        addr,
		ConnectedAt: now,
		LastSeen:    now,
		IsLink:      role == RoleLink,
		ListenOnly:  role == RoleListen,
	}
}

func (p *Peer) clearUnicastLatch(streamID uint16) {
	if p.HasReceivingUnicast && p.ReceivingUnicast == streamID {
		p.HasReceivingUnicast = false
	}
}
