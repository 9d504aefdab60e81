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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPeerRejectsInvalidModule(t *testing.T) {
	t.Parallel()
	r, _ := testReflector("AB", false)

	err := r.AddPeer('Z', "N0CALL", udpAddr("1.2.3.4:5000"), RoleClient)
	require.ErrorIs(t, err, ErrInvalidModule)

	_, _, found := r.FindPeer(udpAddr("1.2.3.4:5000"))
	assert.False(t, found)
}

func TestRemovePeerPurgesEverything(t *testing.T) {
	t.Parallel()
	r, _ := testReflector("A", false)
	addr := udpAddr("1.2.3.4:5000")

	require.NoError(t, r.AddPeer('A', "N0CALL", addr, RoleClient))
	r.RecordUser("N0CALL", addr)

	r.RemovePeer(addr)

	_, _, found := r.FindPeer(addr)
	assert.False(t, found)
	assert.Empty(t, r.FindUserPeers("N0CALL"))
}

func TestFindUserPeersUsesBaseCallsign(t *testing.T) {
	t.Parallel()
	r, _ := testReflector("A", false)
	addr := udpAddr("1.2.3.4:5000")
	require.NoError(t, r.AddPeer('A', "W1ABC", addr, RoleClient))

	r.RecordUser("W1ABC-A", addr)

	peers := r.FindUserPeers("W1ABC B")
	require.Len(t, peers, 1)
	assert.Equal(t, addr.String(), peers[0].String())
}

func TestAddPeerOverwritesSameAddress(t *testing.T) {
	t.Parallel()
	r, _ := testReflector("AB", false)
	addr := udpAddr("1.2.3.4:5000")

	require.NoError(t, r.AddPeer('A', "N0CALL", addr, RoleClient))
	require.NoError(t, r.AddPeer('B', "N0CALL", addr, RoleListen))

	_, mod, found := r.FindPeer(addr)
	require.True(t, found)
	assert.Equal(t, 'B', mod)
}
