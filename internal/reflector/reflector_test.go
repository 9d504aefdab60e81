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
	"io"
	"log/slog"
	"net"

	"github.com/m17-reflector/m17reflector/internal/config"
	"github.com/m17-reflector/m17reflector/internal/notify"
)

// sentDatagram records one outbound send for assertions.
type sentDatagram struct {
	data []byte
	addr string
}

// fakeConn is a packetConn that records every send instead of touching the
// network.
type fakeConn struct {
	sent []sentDatagram
}

func (f *fakeConn) WriteTo(p []byte, addr net.Addr) (int, error) {
	cp := make([]byte, len(p))
	copy(cp, p)
	f.sent = append(f.sent, sentDatagram{data: cp, addr: addr.String()})
	return len(p), nil
}

func (f *fakeConn) sentTo(addr string) [][]byte {
	var out [][]byte
	for _, s := range f.sent {
		if s.addr == addr {
			out = append(out, s.data)
		}
	}
	return out
}

func testReflector(modules string, strictCRC bool) (*Reflector, *fakeConn) {
	cfg := &config.Config{
		ReflectorName: "M17-TEST",
		Modules:       config.ModuleList([]rune(modules)),
		StrictCRC:     strictCRC,
	}
	conn := &fakeConn{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, conn, notify.NewBus(), log, nil), conn
}

func udpAddr(s string) *net.UDPAddr {
	addr, err := net.ResolveUDPAddr("udp", s)
	if err != nil {
		panic(err)
	}
	return addr
}
