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

package protocol

// Wire magics. Control frames carry a 4-byte ASCII magic; stream frames use
// "M17 " (note the trailing space) for voice frames and "M17P" for the
// not-yet-supported packet mode.
const (
	MagicConn   = "CONN"
	MagicLstn   = "LSTN"
	MagicAckn   = "ACKN"
	MagicNack   = "NACK"
	MagicPing   = "PING"
	MagicPong   = "PONG"
	MagicDisc   = "DISC"
	MagicStream = "M17 "
	MagicPacket = "M17P"
)

// Frame sizes, in bytes.
const (
	ConnLen   = 11
	LstnLen   = 11
	PingLen   = 10
	PongLen   = 10
	DiscLen   = 10
	AcknLen   = 4
	NackLen   = 4
	StreamLen = 54
)

// Stream frame field offsets within a 54-byte M17 frame.
const (
	streamIDOffset   = 4
	dstOffset        = 6
	srcOffset        = 12
	lsfMetaOffset    = 18
	frameNumOffset   = 34
	payloadOffset    = 36
	crcOffset        = 52
	crcCoveredLength = 52

	lastFrameBit = 0x8000
	frameNumMask = 0x7FFF
)
