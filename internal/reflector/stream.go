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

// StreamInfo tracks one in-flight or completed voice stream.
type StreamInfo struct {
	StreamID            uint16
	SourceCallsign      string
	DestinationCallsign string
	Module              rune
	OriginAddr          string
	OriginCallsign      string
	IsBroadcast         bool
	Frames              int
	StartTime           time.Time
	LastFrameTime       time.Time
	EndTime             time.Time
	Ended               bool
}

// appendRecent pushes s onto the recent-streams FIFO, evicting the oldest
// entry once the list exceeds maxRecentStreams.
func (r *Reflector) appendRecent(s *StreamInfo) {
	r.recentStreams = append(r.recentStreams, s)
	if len(r.recentStreams) > maxRecentStreams {
		r.recentStreams = r.recentStreams[len(r.recentStreams)-maxRecentStreams:]
	}
}
