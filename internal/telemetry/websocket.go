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

package telemetry

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/m17-reflector/m17reflector/internal/notify"
)

const wsBufferSize = 4096

// WebSocketHandler pushes a fresh Snapshot every time bus ticks, for as
// long as the client connection stays open.
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	source   snapshotSource
	bus      *notify.Bus
	log      *slog.Logger
}

// NewWebSocketHandler builds a handler that reads r.Snapshot() on every
// bus tick and pushes it to connected clients as JSON.
func NewWebSocketHandler(r snapshotSource, bus *notify.Bus, log *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		source: r,
		bus:    bus,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  wsBufferSize,
			WriteBufferSize: wsBufferSize,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Serve upgrades the connection and streams snapshots until the client
// disconnects or a write to it fails.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ticks, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()

	if err := conn.WriteJSON(h.source.Snapshot()); err != nil {
		return
	}

	readFailed := make(chan struct{})
	go func() {
		defer close(readFailed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-readFailed:
			return
		case <-ticks:
			if err := conn.WriteJSON(h.source.Snapshot()); err != nil {
				return
			}
		}
	}
}
