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
	"strings"

	"github.com/m17-reflector/m17reflector/internal/protocol"
)

// RouteStream runs the full stream-router decision sequence for one inbound
// voice frame: CRC policy, address sanity, sender/listen-only checks,
// broadcast classification, stream admission, fan-out, and per-recipient
// filtering. raw is forwarded to recipients verbatim.
func (r *Reflector) RouteStream(pkt protocol.Packet, raw []byte, origin *net.UDPAddr) {
	frame := pkt.Stream

	if r.strictCRC && !frame.CRCOK {
		r.log.Warn("dropping stream frame: CRC check failed under strict policy", "stream_id", frame.StreamID, "addr", origin.String())
		r.recordDrop("crc")
		return
	}
	if !frame.CRCOK {
		r.log.Debug("stream frame failed CRC check, forwarding anyway", "stream_id", frame.StreamID, "addr", origin.String())
	}

	if isInvalidOrReserved(frame.Src) || isInvalidOrReserved(frame.Dst) {
		r.log.Warn("dropping stream frame: invalid or reserved callsign", "src", frame.Src, "dst", frame.Dst)
		r.recordDrop("bad_address")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	originPeer, senderModule, ok := r.findPeerLocked(origin)
	if !ok {
		r.log.Warn("dropping stream frame: sender not attached to any module", "addr", origin.String())
		r.recordDrop("unknown_sender")
		return
	}
	if originPeer.ListenOnly {
		r.log.Warn("dropping stream frame: sender is listen-only", "addr", origin.String(), "callsign", originPeer.Callsign)
		r.recordDrop("listen_only_sender")
		return
	}

	isBroadcast := r.isBroadcastDestination(frame.Dst, senderModule)

	originPeer.PacketsIn++
	originPeer.BytesIn += uint64(len(raw))
	originPeer.LastSeen = nowFunc()
	r.recordUserLocked(frame.Src, origin)

	mod := r.modules[senderModule]

	mod.TotalFrames++
	r.recordFrame(senderModule)

	stream, exists := r.activeStreams[frame.StreamID]
	isNew := !exists
	if isNew {
		if isBroadcast && r.hasBroadcastStreamLocked(senderModule) {
			r.log.Warn("dropping stream frame: broadcast collision on module", "module", string(senderModule), "stream_id", frame.StreamID)
			r.recordDrop("broadcast_collision")
			return
		}
		stream = &StreamInfo{
			StreamID:            frame.StreamID,
			SourceCallsign:      frame.Src,
			DestinationCallsign: frame.Dst,
			Module:              senderModule,
			OriginAddr:          origin.String(),
			OriginCallsign:      originPeer.Callsign,
			IsBroadcast:         isBroadcast,
			Frames:              1,
			StartTime:           nowFunc(),
			LastFrameTime:       nowFunc(),
		}
		r.activeStreams[frame.StreamID] = stream
		mod.TotalStreams++
		r.recordStream(senderModule, isBroadcast)
		r.refreshGaugesLocked()
	} else {
		stream.Frames++
		stream.LastFrameTime = nowFunc()
	}
	r.publishUpdate()

	recipients := r.fanOutSet(isBroadcast, frame.Dst, mod)
	if !isBroadcast && len(recipients) == 0 {
		r.log.Debug("unicast destination unknown", "dst", frame.Dst)
	}

	for _, addr := range recipients {
		key := addr.String()
		if key == origin.String() {
			continue
		}
		peer, _, ok := r.findPeerLocked(addr)
		if !ok {
			continue
		}
		if originPeer.IsLink && peer.IsLink {
			continue
		}
		if isBroadcast && peer.HasReceivingUnicast {
			continue
		}

		r.send(raw, addr)
		peer.PacketsOut++
		peer.BytesOut += uint64(len(raw))

		if !isBroadcast && isNew {
			peer.ReceivingUnicast = frame.StreamID
			peer.HasReceivingUnicast = true
		}
		if !isBroadcast && frame.LastFrame {
			peer.clearUnicastLatch(frame.StreamID)
		}
	}

	if frame.LastFrame {
		r.terminateStreamLocked(stream)
	}
}

func isInvalidOrReserved(callsign string) bool {
	return callsign == protocol.CallsignInvalid || strings.HasPrefix(callsign, "RESERVED-")
}

// isBroadcastDestination reports whether dst names the module-wide
// broadcast literal: "BROADCAST", "ALL", or "<reflector_name> <module>".
func (r *Reflector) isBroadcastDestination(dst string, module rune) bool {
	reflectorCall := strings.TrimRight(r.name, " ") + " " + string(module)
	trimmedDst := strings.TrimRight(dst, " ")
	return trimmedDst == "BROADCAST" || trimmedDst == "ALL" || trimmedDst == reflectorCall
}

func (r *Reflector) hasBroadcastStreamLocked(module rune) bool {
	for _, s := range r.activeStreams {
		if s.Module == module && s.IsBroadcast {
			return true
		}
	}
	return false
}

func (r *Reflector) fanOutSet(isBroadcast bool, dst string, mod *Module) []*net.UDPAddr {
	if isBroadcast {
		addrs := make([]*net.UDPAddr, 0, len(mod.Peers))
		for _, p := range mod.Peers {
			addrs = append(addrs, p.Addr)
		}
		return addrs
	}
	return r.findUserPeersLocked(dst)
}

func (r *Reflector) terminateStreamLocked(s *StreamInfo) {
	delete(r.activeStreams, s.StreamID)
	s.EndTime = nowFunc()
	s.Ended = true
	r.appendRecent(s)
	r.refreshGaugesLocked()
	r.publishUpdate()
}
