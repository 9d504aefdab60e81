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

package metrics_test

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m17-reflector/m17reflector/internal/config"
	"github.com/m17-reflector/m17reflector/internal/metrics"
)

func TestRunServerDisabledReturnsImmediately(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{Metrics: config.Metrics{Enabled: false}}

	err := metrics.RunServer(context.Background(), cfg)
	require.NoError(t, err)
}

func TestRunServerPortInUseReturnsError(t *testing.T) {
	t.Parallel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	port := listener.Addr().(*net.TCPAddr).Port
	cfg := &config.Config{
		Metrics: config.Metrics{Enabled: true, Bind: "127.0.0.1", Port: port},
	}

	err = metrics.RunServer(context.Background(), cfg)
	require.Error(t, err)
}

func TestRunServerServesMetricsUntilCanceled(t *testing.T) {
	t.Parallel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	cfg := &config.Config{
		Metrics: config.Metrics{Enabled: true, Bind: "127.0.0.1", Port: port},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- metrics.RunServer(ctx, cfg) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://127.0.0.1:" + strconv.Itoa(port) + "/metrics")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	if resp != nil {
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	cancel()
	require.NoError(t, <-done)
}
