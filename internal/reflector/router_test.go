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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m17-reflector/m17reflector/internal/protocol"
)

func streamFrame(t *testing.T, streamID uint16, dst, src string, frameNum uint16, last bool) (protocol.Packet, []byte) {
	t.Helper()
	dstEnc := protocol.EncodeCallsign(dst)
	srcEnc := protocol.EncodeCallsign(src)
	var payload [16]byte
	raw := protocol.EncodeStream(streamID, dstEnc, srcEnc, frameNum, last, payload)
	pkt, err := protocol.Parse(raw[:])
	require.NoError(t, err)
	return pkt, raw[:]
}

func TestRouteStreamBroadcastFanOut(t *testing.T) {
	// S4: broadcast fan-out.
	t.Parallel()
	r, conn := testReflector("A", false)

	p1, p2, p3 := udpAddr("10.0.0.1:1"), udpAddr("10.0.0.2:2"), udpAddr("10.0.0.3:3")
	require.NoError(t, r.AddPeer('A', "P1CALL", p1, RoleClient))
	require.NoError(t, r.AddPeer('A', "P2CALL", p2, RoleClient))
	require.NoError(t, r.AddPeer('A', "P3CALL", p3, RoleClient))

	pkt, raw := streamFrame(t, 0x1234, "ALL      ", "P1CALL", 0, false)
	r.RouteStream(pkt, raw, p1)

	assert.Len(t, conn.sentTo(p2.String()), 1)
	assert.Len(t, conn.sentTo(p3.String()), 1)
	assert.Empty(t, conn.sentTo(p1.String()), "origin must not receive its own frame")

	active, ok := r.activeStreams[0x1234]
	require.True(t, ok)
	assert.True(t, active.IsBroadcast)

	// A second broadcast on the same module with a different stream ID is
	// rejected: only one broadcaster per module.
	pkt2, raw2 := streamFrame(t, 0x5678, "BROADCAST", "P2CALL", 0, false)
	r.RouteStream(pkt2, raw2, p2)

	_, exists := r.activeStreams[0x5678]
	assert.False(t, exists)
}

func TestRouteStreamUnicastRoutingAndShield(t *testing.T) {
	// S5: unicast routing + unicast shield against concurrent broadcast.
	t.Parallel()
	r, conn := testReflector("A", false)

	p1, p2 := udpAddr("10.0.0.1:1"), udpAddr("10.0.0.2:2")
	require.NoError(t, r.AddPeer('A', "P1CALL", p1, RoleClient))
	require.NoError(t, r.AddPeer('A', "W1AW", p2, RoleClient))
	r.RecordUser("W1AW", p2)

	pkt, raw := streamFrame(t, 0x10, "W1AW     ", "P1CALL", 0, false)
	r.RouteStream(pkt, raw, p1)

	require.Len(t, conn.sentTo(p2.String()), 1)

	p2Peer, _, found := r.FindPeer(p2)
	require.True(t, found)
	assert.True(t, p2Peer.HasReceivingUnicast)
	assert.Equal(t, uint16(0x10), p2Peer.ReceivingUnicast)

	bpkt, braw := streamFrame(t, 0x20, "ALL      ", "P1CALL", 0, false)
	r.RouteStream(bpkt, braw, p1)

	assert.Len(t, conn.sentTo(p2.String()), 1, "broadcast must not reach a peer mid-unicast")
}

func TestRouteStreamUnicastCrossModuleDelivery(t *testing.T) {
	// A unicast destination attached to a different module than the sender
	// must still be resolved and receive the frame (userMap is global).
	t.Parallel()
	r, conn := testReflector("AB", false)

	sender, recipient := udpAddr("10.0.0.1:1"), udpAddr("10.0.0.2:2")
	require.NoError(t, r.AddPeer('A', "P1CALL", sender, RoleClient))
	require.NoError(t, r.AddPeer('B', "W1AW", recipient, RoleClient))
	r.RecordUser("W1AW", recipient)

	pkt, raw := streamFrame(t, 0x30, "W1AW     ", "P1CALL", 0, false)
	r.RouteStream(pkt, raw, sender)

	require.Len(t, conn.sentTo(recipient.String()), 1)

	recipientPeer, module, found := r.FindPeer(recipient)
	require.True(t, found)
	assert.Equal(t, 'B', module)
	assert.True(t, recipientPeer.HasReceivingUnicast)
	assert.Equal(t, uint16(0x30), recipientPeer.ReceivingUnicast)
	assert.Equal(t, uint64(1), recipientPeer.PacketsOut)
}

func TestRouteStreamLastFrameTerminatesAndArchives(t *testing.T) {
	// S6: last-frame termination.
	t.Parallel()
	r, _ := testReflector("A", false)

	p1, p2 := udpAddr("10.0.0.1:1"), udpAddr("10.0.0.2:2")
	require.NoError(t, r.AddPeer('A', "P1CALL", p1, RoleClient))
	require.NoError(t, r.AddPeer('A', "P2CALL", p2, RoleClient))

	pkt1, raw1 := streamFrame(t, 0x1234, "ALL      ", "P1CALL", 0, false)
	r.RouteStream(pkt1, raw1, p1)

	pkt2, raw2 := streamFrame(t, 0x1234, "ALL      ", "P1CALL", 1, true)
	r.RouteStream(pkt2, raw2, p1)

	_, exists := r.activeStreams[0x1234]
	assert.False(t, exists)

	require.NotEmpty(t, r.recentStreams)
	last := r.recentStreams[len(r.recentStreams)-1]
	assert.Equal(t, uint16(0x1234), last.StreamID)
	assert.Equal(t, 2, last.Frames)
	assert.True(t, last.Ended)
}

func TestRouteStreamLinkToLinkNotForwarded(t *testing.T) {
	t.Parallel()
	r, conn := testReflector("A", false)

	link1, link2, client := udpAddr("10.0.0.1:1"), udpAddr("10.0.0.2:2"), udpAddr("10.0.0.3:3")
	require.NoError(t, r.AddPeer('A', "RPT1", link1, RoleLink))
	require.NoError(t, r.AddPeer('A', "RPT2", link2, RoleLink))
	require.NoError(t, r.AddPeer('A', "P1CALL", client, RoleClient))

	pkt, raw := streamFrame(t, 0x1, "ALL      ", "RPT1", 0, false)
	r.RouteStream(pkt, raw, link1)

	assert.Empty(t, conn.sentTo(link2.String()), "link-to-link forwarding must be suppressed")
	assert.Len(t, conn.sentTo(client.String()), 1)
}

func TestRouteStreamDropsListenOnlySource(t *testing.T) {
	t.Parallel()
	r, conn := testReflector("A", false)

	listener, client := udpAddr("10.0.0.1:1"), udpAddr("10.0.0.2:2")
	require.NoError(t, r.AddPeer('A', "LISTENER", listener, RoleListen))
	require.NoError(t, r.AddPeer('A', "P1CALL", client, RoleClient))

	pkt, raw := streamFrame(t, 0x1, "ALL      ", "LISTENER", 0, false)
	r.RouteStream(pkt, raw, listener)

	assert.Empty(t, conn.sentTo(client.String()))
	_, exists := r.activeStreams[0x1]
	assert.False(t, exists)
}

func TestRouteStreamStrictCRCDropsBadFrame(t *testing.T) {
	t.Parallel()
	r, conn := testReflector("A", true)

	p1, p2 := udpAddr("10.0.0.1:1"), udpAddr("10.0.0.2:2")
	require.NoError(t, r.AddPeer('A', "P1CALL", p1, RoleClient))
	require.NoError(t, r.AddPeer('A', "P2CALL", p2, RoleClient))

	dst := protocol.EncodeCallsign("ALL      ")
	src := protocol.EncodeCallsign("P1CALL")
	var payload [16]byte
	raw := protocol.EncodeStream(0x1, dst, src, 0, false, payload)
	raw[52] ^= 0xFF // corrupt the CRC field after encoding so CRCOK parses false

	pkt, err := protocol.Parse(raw[:])
	require.NoError(t, err)
	require.False(t, pkt.Stream.CRCOK)

	r.RouteStream(pkt, raw[:], p1)

	assert.Empty(t, conn.sentTo(p2.String()))
}
