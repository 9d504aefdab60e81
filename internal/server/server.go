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

// Package server runs the reflector's UDP receive loop: it owns the socket,
// parses each datagram, and dispatches to the control handler or the stream
// router. Nothing here holds the registry lock — that's the reflector's job.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/m17-reflector/m17reflector/internal/protocol"
)

// router is the subset of *reflector.Reflector the server depends on.
type router interface {
	HandleControl(pkt protocol.Packet, addr *net.UDPAddr)
	RouteStream(pkt protocol.Packet, raw []byte, origin *net.UDPAddr)
}

// Server owns the UDP socket and the receive loop.
type Server struct {
	conn *net.UDPConn
	r    router
	log  *slog.Logger
}

// New binds bindAddress and returns a Server ready to Run. r may be nil at
// construction time and supplied later via SetRouter — this breaks the
// construction cycle between the socket and a router that itself needs the
// bound socket to send replies.
func New(bindAddress string, r router, log *slog.Logger) (*Server, error) {
	addr, err := net.ResolveUDPAddr("udp", bindAddress)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{conn: conn, r: r, log: log}, nil
}

// Conn exposes the bound socket so callers can pass it to components that
// need to send datagrams (e.g. the reflector itself).
func (s *Server) Conn() *net.UDPConn { return s.conn }

// SetRouter installs the router dispatched to by Run. Call before Run.
func (s *Server) SetRouter(r router) { s.r = r }

// Run drains datagrams until ctx is canceled. Parse errors are logged and
// the datagram is dropped; the loop never exits on bad input.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()

	buf := make([]byte, 2048)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn("udp read error", "error", err)
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		s.handle(data, addr)
	}
}

func (s *Server) handle(data []byte, addr *net.UDPAddr) {
	pkt, err := protocol.Parse(data)
	if err != nil {
		s.log.Warn("dropping malformed datagram", "addr", addr.String(), "error", err)
		return
	}

	if pkt.Kind == protocol.KindStream {
		s.r.RouteStream(pkt, data, addr)
		return
	}
	s.r.HandleControl(pkt, addr)
}
