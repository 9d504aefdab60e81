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

// Package telemetry serves the reflector's read-only observability surface:
// a small gin REST API and a gorilla websocket feed, both driven from
// Reflector.Snapshot() and a notify.Bus of state-change ticks. Telemetry
// never influences routing or control-plane decisions.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/m17-reflector/m17reflector/internal/config"
	"github.com/m17-reflector/m17reflector/internal/notify"
	"github.com/m17-reflector/m17reflector/internal/reflector"
)

const readTimeout = 3 * time.Second

// snapshotSource is the subset of *reflector.Reflector telemetry depends on.
type snapshotSource interface {
	Snapshot() reflector.Snapshot
}

// NewRouter builds the gin engine serving the stats/clients/modules/streams
// endpoints plus the live websocket feed.
func NewRouter(r snapshotSource, bus *notify.Bus, log *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/api/v1/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, r.Snapshot())
	})
	engine.GET("/api/v1/clients", func(c *gin.Context) {
		c.JSON(http.StatusOK, r.Snapshot().Clients)
	})
	engine.GET("/api/v1/modules", func(c *gin.Context) {
		c.JSON(http.StatusOK, r.Snapshot().Modules)
	})
	engine.GET("/api/v1/streams/active", func(c *gin.Context) {
		c.JSON(http.StatusOK, r.Snapshot().ActiveStreams)
	})
	engine.GET("/api/v1/streams/recent", func(c *gin.Context) {
		c.JSON(http.StatusOK, r.Snapshot().RecentStreams)
	})

	handler := NewWebSocketHandler(r, bus, log)
	engine.GET("/ws/stats", func(c *gin.Context) {
		handler.Serve(c.Writer, c.Request)
	})

	return engine
}

// RunServer serves the telemetry engine until ctx is canceled. It is a
// no-op if telemetry is disabled in cfg.
func RunServer(ctx context.Context, cfg *config.Config, r snapshotSource, bus *notify.Bus, log *slog.Logger) error {
	if !cfg.Telemetry.Enabled {
		return nil
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Telemetry.Bind, cfg.Telemetry.Port),
		Handler:           NewRouter(r, bus, log),
		ReadHeaderTimeout: readTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
