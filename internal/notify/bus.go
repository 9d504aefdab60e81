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

// Package notify implements the reflector's "something changed" broadcast
// bus: a lossy, multi-producer multi-consumer tick used to wake telemetry
// subscribers. Subscribers always re-read the full snapshot on a tick and
// must tolerate coalesced notifications.
package notify

import "sync"

// Bus is a lossy broadcast notifier. Publish never blocks: a subscriber
// that hasn't drained its previous tick simply misses the new one.
type Bus struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[chan struct{}]struct{})}
}

// Subscribe registers a new listener and returns its tick channel along
// with an Unsubscribe function to call when the listener is done.
func (b *Bus) Subscribe() (ch <-chan struct{}, unsubscribe func()) {
	c := make(chan struct{}, 1)

	b.mu.Lock()
	b.subs[c] = struct{}{}
	b.mu.Unlock()

	return c, func() {
		b.mu.Lock()
		delete(b.subs, c)
		b.mu.Unlock()
		close(c)
	}
}

// Publish wakes every subscriber. A subscriber whose buffered channel is
// already full (it hasn't drained the last tick) is skipped rather than
// blocked on.
func (b *Bus) Publish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for c := range b.subs {
		select {
		case c <- struct{}{}:
		default:
		}
	}
}
