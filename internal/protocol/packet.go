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

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Errors returned by Parse.
var (
	ErrInvalidLength = errors.New("protocol: invalid frame length")
	ErrInvalidMagic  = errors.New("protocol: invalid or unsupported frame magic")
)

// Kind identifies which frame a Packet carries.
type Kind int

const (
	// KindUnknown is the zero value and never produced by Parse.
	KindUnknown Kind = iota
	KindConn
	KindLstn
	KindAckn
	KindNack
	KindPing
	KindPong
	KindDisc
	KindStream
)

// Packet is a parsed control or stream frame. Only the fields relevant to
// Kind are populated.
type Packet struct {
	Kind Kind

	// Control fields (CONN/LSTN/PING/PONG/DISC).
	From   string
	Module rune

	// Stream fields (M17 voice frames).
	Stream StreamFrame
}

// StreamFrame is a parsed 54-byte M17 voice stream frame.
type StreamFrame struct {
	StreamID  uint16
	Dst       string
	Src       string
	FrameNum  uint16
	LastFrame bool
	Payload   [16]byte
	CRCOK     bool
}

// Parse decodes a raw UDP datagram into a Packet. CRC failures on stream
// frames are reported via StreamFrame.CRCOK rather than failing the parse;
// callers decide whether to honor strict CRC policy.
func Parse(data []byte) (Packet, error) {
	if len(data) < 4 {
		return Packet{}, ErrInvalidLength
	}

	switch string(data[0:4]) {
	case MagicConn:
		return parseModuleControl(data, ConnLen, KindConn)
	case MagicLstn:
		return parseModuleControl(data, LstnLen, KindLstn)
	case MagicAckn:
		if len(data) < AcknLen {
			return Packet{}, ErrInvalidLength
		}
		return Packet{Kind: KindAckn}, nil
	case MagicNack:
		if len(data) < NackLen {
			return Packet{}, ErrInvalidLength
		}
		return Packet{Kind: KindNack}, nil
	case MagicPing:
		return parseFromOnly(data, PingLen, KindPing)
	case MagicPong:
		return parseFromOnly(data, PongLen, KindPong)
	case MagicDisc:
		return parseFromOnly(data, DiscLen, KindDisc)
	case MagicStream:
		return parseStream(data)
	case MagicPacket:
		return Packet{}, ErrInvalidMagic
	default:
		return Packet{}, ErrInvalidMagic
	}
}

func parseModuleControl(data []byte, wantLen int, kind Kind) (Packet, error) {
	if len(data) < wantLen {
		return Packet{}, ErrInvalidLength
	}
	from := DecodeCallsign([6]byte(data[4:10]))
	return Packet{Kind: kind, From: from, Module: rune(data[10])}, nil
}

func parseFromOnly(data []byte, wantLen int, kind Kind) (Packet, error) {
	if len(data) < wantLen {
		return Packet{}, ErrInvalidLength
	}
	from := DecodeCallsign([6]byte(data[4:10]))
	return Packet{Kind: kind, From: from}, nil
}

func parseStream(data []byte) (Packet, error) {
	if len(data) != StreamLen {
		return Packet{}, ErrInvalidLength
	}

	crcCalc := CRC16M17(data[:crcCoveredLength])
	crcField := binary.BigEndian.Uint16(data[crcOffset:StreamLen])
	crcOK := crcCalc == crcField

	streamID := binary.BigEndian.Uint16(data[streamIDOffset:dstOffset])
	dst := DecodeCallsign([6]byte(data[dstOffset:srcOffset]))
	src := DecodeCallsign([6]byte(data[srcOffset:lsfMetaOffset]))

	frameNumRaw := binary.BigEndian.Uint16(data[frameNumOffset:payloadOffset])
	lastFrame := frameNumRaw&lastFrameBit != 0
	frameNum := frameNumRaw & frameNumMask

	var payload [16]byte
	copy(payload[:], data[payloadOffset:crcOffset])

	return Packet{
		Kind: KindStream,
		Stream: StreamFrame{
			StreamID:  streamID,
			Dst:       dst,
			Src:       src,
			FrameNum:  frameNum,
			LastFrame: lastFrame,
			Payload:   payload,
			CRCOK:     crcOK,
		},
	}, nil
}

// EncodeStream serializes a stream frame (other than the CRC, which it
// computes) back to its 54-byte wire form.
func EncodeStream(streamID uint16, dst, src [6]byte, frameNum uint16, lastFrame bool, payload [16]byte) [54]byte {
	var out [54]byte
	copy(out[0:4], MagicStream)
	binary.BigEndian.PutUint16(out[streamIDOffset:dstOffset], streamID)
	copy(out[dstOffset:srcOffset], dst[:])
	copy(out[srcOffset:lsfMetaOffset], src[:])

	frameNumRaw := frameNum & frameNumMask
	if lastFrame {
		frameNumRaw |= lastFrameBit
	}
	binary.BigEndian.PutUint16(out[frameNumOffset:payloadOffset], frameNumRaw)
	copy(out[payloadOffset:crcOffset], payload[:])

	crc := CRC16M17(out[:crcCoveredLength])
	binary.BigEndian.PutUint16(out[crcOffset:StreamLen], crc)
	return out
}

func (k Kind) String() string {
	switch k {
	case KindConn:
		return "CONN"
	case KindLstn:
		return "LSTN"
	case KindAckn:
		return "ACKN"
	case KindNack:
		return "NACK"
	case KindPing:
		return "PING"
	case KindPong:
		return "PONG"
	case KindDisc:
		return "DISC"
	case KindStream:
		return "STREAM"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(k))
	}
}
