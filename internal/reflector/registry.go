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
	"errors"
	"net"

	"github.com/m17-reflector/m17reflector/internal/protocol"
)

// ErrInvalidModule is returned by AddPeer for a module letter the reflector
// wasn't configured to serve.
var ErrInvalidModule = errors.New("reflector: invalid module")

// AddPeer attaches addr to module as callsign with the given role,
// overwriting any existing entry at that address in that module.
func (r *Reflector) AddPeer(module rune, callsign string, addr *net.UDPAddr, role Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addPeerLocked(module, callsign, addr, role)
}

func (r *Reflector) addPeerLocked(module rune, callsign string, addr *net.UDPAddr, role Role) error {
	mod, ok := r.modules[module]
	if !ok {
		return ErrInvalidModule
	}

	// An address is unique process-wide (invariant: a peer address appears
	// in at most one module at a time); re-attaching to a different module
	// moves it rather than leaving a stale entry behind.
	key := addr.String()
	for _, other := range r.modules {
		if other != mod {
			delete(other.Peers, key)
		}
	}

	mod.Peers[key] = newPeer(callsign, addr, role)
	r.refreshGaugesLocked()
	return nil
}

// RemovePeer detaches addr from whichever module holds it and purges it
// from every user_map entry, pruning empty sets.
func (r *Reflector) RemovePeer(addr *net.UDPAddr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removePeerLocked(addr)
}

func (r *Reflector) removePeerLocked(addr *net.UDPAddr) {
	key := addr.String()
	for _, mod := range r.modules {
		delete(mod.Peers, key)
	}
	for base, addrs := range r.userMap {
		delete(addrs, key)
		if len(addrs) == 0 {
			delete(r.userMap, base)
		}
	}
	r.refreshGaugesLocked()
}

// FindPeer searches every module for addr, returning the peer, the module
// letter it belongs to, and whether it was found.
func (r *Reflector) FindPeer(addr *net.UDPAddr) (*Peer, rune, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findPeerLocked(addr)
}

func (r *Reflector) findPeerLocked(addr *net.UDPAddr) (*Peer, rune, bool) {
	key := addr.String()
	for letter, mod := range r.modules {
		if p, ok := mod.Peers[key]; ok {
			return p, letter, true
		}
	}
	return nil, 0, false
}

// RecordUser indexes addr under callsign's base form.
func (r *Reflector) RecordUser(callsign string, addr *net.UDPAddr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordUserLocked(callsign, addr)
}

func (r *Reflector) recordUserLocked(callsign string, addr *net.UDPAddr) {
	base := protocol.BaseCallsign(callsign)
	set, ok := r.userMap[base]
	if !ok {
		set = make(map[string]struct{})
		r.userMap[base] = set
	}
	set[addr.String()] = struct{}{}
}

// FindUserPeers returns the addresses previously recorded under callsign's
// base form, resolved back to the live *Peer for each module they're in.
func (r *Reflector) FindUserPeers(callsign string) []*net.UDPAddr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findUserPeersLocked(callsign)
}

func (r *Reflector) findUserPeersLocked(callsign string) []*net.UDPAddr {
	base := protocol.BaseCallsign(callsign)
	set, ok := r.userMap[base]
	if !ok {
		return nil
	}

	addrs := make([]*net.UDPAddr, 0, len(set))
	for key := range set {
		for _, mod := range r.modules {
			if p, ok := mod.Peers[key]; ok {
				addrs = append(addrs, p.Addr)
				break
			}
		}
	}
	return addrs
}
