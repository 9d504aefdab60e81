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

// Package reflector implements the M17 reflector core: the peer/module
// registry, the control-plane state machine, and the stream router. All of
// it is single-process and guarded by one registry lock spanning each whole
// logical operation, per the reflector's concurrency model.
package reflector

import (
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/m17-reflector/m17reflector/internal/config"
	"github.com/m17-reflector/m17reflector/internal/metrics"
	"github.com/m17-reflector/m17reflector/internal/notify"
)

// maxRecentStreams bounds the FIFO of completed streams kept for telemetry.
const maxRecentStreams = 50

// nowFunc is indirected so tests can control the clock without sleeping.
var nowFunc = time.Now

// silenceTimeout is how long a stream may go without a frame before the
// silence sweep force-terminates it.
const silenceTimeout = time.Second

// packetConn is the subset of net.PacketConn the reflector needs to send
// datagrams; it's an interface so tests can substitute a recording fake.
type packetConn interface {
	WriteTo(p []byte, addr net.Addr) (int, error)
}

// Reflector is the singleton aggregate owning every module, peer, and
// in-flight stream. Every read or change of that state happens with mu
// held, one acquisition per logical operation; the only I/O done while
// holding it is the UDP send, which completes promptly.
type Reflector struct {
	mu sync.Mutex

	name      string
	strictCRC bool
	startTime time.Time

	modules       map[rune]*Module
	activeStreams map[uint16]*StreamInfo
	recentStreams []*StreamInfo
	userMap       map[string]map[string]struct{}

	conn     packetConn
	notifier *notify.Bus
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// New builds a Reflector with one empty Module per configured letter. conn
// need only support WriteTo — any net.PacketConn satisfies that. m may be
// nil, in which case metrics recording is skipped.
func New(cfg *config.Config, conn packetConn, notifier *notify.Bus, log *slog.Logger, m *metrics.Metrics) *Reflector {
	modules := make(map[rune]*Module, len(cfg.Modules))
	for _, letter := range cfg.Modules {
		modules[letter] = newModule(letter)
	}

	return &Reflector{
		name:          cfg.ReflectorName,
		strictCRC:     cfg.StrictCRC,
		startTime:     nowFunc(),
		modules:       modules,
		activeStreams: make(map[uint16]*StreamInfo),
		userMap:       make(map[string]map[string]struct{}),
		conn:          conn,
		notifier:      notifier,
		log:           log,
		metrics:       m,
	}
}

// Name returns the reflector's own callsign.
func (r *Reflector) Name() string { return r.name }

func (r *Reflector) send(data []byte, addr *net.UDPAddr) {
	if _, err := r.conn.WriteTo(data, addr); err != nil {
		r.log.Warn("udp send failed", "addr", addr.String(), "error", err)
	}
}

func (r *Reflector) publishUpdate() {
	r.notifier.Publish()
}

func (r *Reflector) recordDrop(reason string) {
	if r.metrics != nil {
		r.metrics.RecordDrop(reason)
	}
}

func (r *Reflector) recordFrame(module rune) {
	if r.metrics != nil {
		r.metrics.RecordFrame(string(module))
	}
}

func (r *Reflector) recordStream(module rune, isBroadcast bool) {
	if r.metrics == nil {
		return
	}
	kind := "unicast"
	if isBroadcast {
		kind = "broadcast"
	}
	r.metrics.RecordStream(string(module), kind)
}

func (r *Reflector) recordControl(magic string) {
	if r.metrics != nil {
		r.metrics.RecordControl(magic)
	}
}

// refreshGaugesLocked recomputes the per-module attachment and active-stream
// gauges from current registry state. Call after any peer-membership or
// stream-admission change.
func (r *Reflector) refreshGaugesLocked() {
	if r.metrics == nil {
		return
	}
	for letter, mod := range r.modules {
		r.metrics.SetPeersConnected(string(letter), float64(len(mod.Peers)))

		var active int
		for _, s := range r.activeStreams {
			if s.Module == letter {
				active++
			}
		}
		r.metrics.SetActiveStreams(string(letter), float64(active))
	}
}
