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

import "time"

// ClientSnapshot describes one attached peer for telemetry.
type ClientSnapshot struct {
	Address     string    `json:"address"`
	Callsign    string    `json:"callsign"`
	Module      string    `json:"module"`
	ConnectedAt time.Time `json:"connected_at"`
	LastSeen    time.Time `json:"last_seen"`
	PacketsIn   uint64    `json:"packets_in"`
	BytesIn     uint64    `json:"bytes_in"`
	ListenOnly  bool      `json:"listen_only"`
	IsLink      bool      `json:"is_link"`
}

// ModuleSnapshot aggregates one module's stats for telemetry.
type ModuleSnapshot struct {
	Name          string `json:"name"`
	Clients       int    `json:"clients"`
	ActiveStreams int    `json:"active_streams"`
	TotalPackets  uint64 `json:"total_packets"`
	TotalBytes    uint64 `json:"total_bytes"`
}

// StreamSnapshot describes one active or recently completed stream.
type StreamSnapshot struct {
	StreamID      uint16     `json:"stream_id"`
	Source        string     `json:"source"`
	Destination   string     `json:"destination"`
	Module        string     `json:"module"`
	OriginAddress string     `json:"origin_address"`
	OriginCall    string     `json:"origin_callsign"`
	IsBroadcast   bool       `json:"is_broadcast"`
	Frames        int        `json:"frames"`
	StartTime     time.Time  `json:"start_time"`
	LastFrameTime time.Time  `json:"last_frame_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
}

// Snapshot is the read-only view exported to the telemetry subsystem.
type Snapshot struct {
	ReflectorName string           `json:"reflector_name"`
	UptimeSeconds float64          `json:"uptime_seconds"`
	Clients       []ClientSnapshot `json:"clients"`
	Modules       []ModuleSnapshot `json:"modules"`
	ActiveStreams []StreamSnapshot `json:"active_streams"`
	RecentStreams []StreamSnapshot `json:"recent_streams"`
}

// Snapshot derives a point-in-time read-only view of the whole registry.
func (r *Reflector) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := nowFunc()
	snap := Snapshot{
		ReflectorName: r.name,
		UptimeSeconds: now.Sub(r.startTime).Seconds(),
	}

	for letter, mod := range r.modules {
		modSnap := ModuleSnapshot{
			Name:         string(letter),
			Clients:      len(mod.Peers),
			TotalPackets: mod.TotalFrames,
		}

		for addr, p := range mod.Peers {
			snap.Clients = append(snap.Clients, ClientSnapshot{
				Address:     addr,
				Callsign:    p.Callsign,
				Module:      string(letter),
				ConnectedAt: p.ConnectedAt,
				LastSeen:    p.LastSeen,
				PacketsIn:   p.PacketsIn,
				BytesIn:     p.BytesIn,
				ListenOnly:  p.ListenOnly,
				IsLink:      p.IsLink,
			})
			modSnap.TotalBytes += p.BytesIn
		}

		for _, s := range r.activeStreams {
			if s.Module == letter {
				modSnap.ActiveStreams++
			}
		}

		snap.Modules = append(snap.Modules, modSnap)
	}

	for _, s := range r.activeStreams {
		snap.ActiveStreams = append(snap.ActiveStreams, toStreamSnapshot(s))
	}
	for _, s := range r.recentStreams {
		snap.RecentStreams = append(snap.RecentStreams, toStreamSnapshot(s))
	}

	return snap
}

func toStreamSnapshot(s *StreamInfo) StreamSnapshot {
	out := StreamSnapshot{
		StreamID:      s.StreamID,
		Source:        s.SourceCallsign,
		Destination:   s.DestinationCallsign,
		Module:        string(s.Module),
		OriginAddress: s.OriginAddr,
		OriginCall:    s.OriginCallsign,
		IsBroadcast:   s.IsBroadcast,
		Frames:        s.Frames,
		StartTime:     s.StartTime,
		LastFrameTime: s.LastFrameTime,
	}
	if s.Ended {
		end := s.EndTime
		out.EndTime = &end
	}
	return out
}
