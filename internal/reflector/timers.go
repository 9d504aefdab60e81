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
	"fmt"
	"net"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/m17-reflector/m17reflector/internal/protocol"
)

const (
	keepaliveInterval  = 5 * time.Second
	staleTimeout       = 30 * time.Second
	silenceSweepPeriod = 200 * time.Millisecond
)

// ScheduleJobs registers the keepalive and stream-silence sweeps on
// scheduler. The scheduler itself is started and stopped by the caller.
func (r *Reflector) ScheduleJobs(scheduler gocron.Scheduler) error {
	if _, err := scheduler.NewJob(
		gocron.DurationJob(keepaliveInterval),
		gocron.NewTask(r.keepaliveSweep),
	); err != nil {
		return fmt.Errorf("reflector: schedule keepalive job: %w", err)
	}

	if _, err := scheduler.NewJob(
		gocron.DurationJob(silenceSweepPeriod),
		gocron.NewTask(r.silenceSweep),
	); err != nil {
		return fmt.Errorf("reflector: schedule silence-timeout job: %w", err)
	}

	return nil
}

// keepaliveSweep pings every peer and evicts anyone stale for more than
// staleTimeout.
func (r *Reflector) keepaliveSweep() {
	r.mu.Lock()
	type staleEntry struct {
		addr     *net.UDPAddr
		callsign string
	}
	var stale []staleEntry
	now := nowFunc()

	for _, mod := range r.modules {
		for _, p := range mod.Peers {
			if now.Sub(p.LastSeen) > staleTimeout {
				stale = append(stale, staleEntry{addr: p.Addr, callsign: p.Callsign})
				continue
			}
			r.send(fromFrame(protocol.MagicPing, r.name), p.Addr)
		}
	}
	for _, s := range stale {
		r.removePeerLocked(s.addr)
	}
	r.mu.Unlock()

	for _, s := range stale {
		r.log.Info("evicting stale peer", "callsign", s.callsign, "addr", s.addr.String())
		r.send(fromFrame(protocol.MagicDisc, r.name), s.addr)
	}
}

// silenceSweep force-terminates any stream idle for more than
// silenceTimeout, clearing the matching unicast latch on every peer.
func (r *Reflector) silenceSweep() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := nowFunc()
	var idle []*StreamInfo
	for _, s := range r.activeStreams {
		if now.Sub(s.LastFrameTime) > silenceTimeout {
			idle = append(idle, s)
		}
	}

	for _, s := range idle {
		for _, mod := range r.modules {
			for _, p := range mod.Peers {
				p.clearUnicastLatch(s.StreamID)
			}
		}
		r.terminateStreamLocked(s)
		r.log.Debug("stream silence timeout", "stream_id", s.StreamID, "module", string(s.Module))
	}
}
