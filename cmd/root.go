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

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/USA-RedDragon/configulator"
	"github.com/go-co-op/gocron/v2"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/ztrue/shutdown"
	"golang.org/x/sync/errgroup"

	"github.com/m17-reflector/m17reflector/internal/config"
	"github.com/m17-reflector/m17reflector/internal/metrics"
	"github.com/m17-reflector/m17reflector/internal/notify"
	"github.com/m17-reflector/m17reflector/internal/reflector"
	"github.com/m17-reflector/m17reflector/internal/server"
	"github.com/m17-reflector/m17reflector/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

// NewCommand builds the reflector's root cobra command.
func NewCommand(version, commit string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "m17reflector",
		Version: fmt.Sprintf("%s - %s", version, commit),
		Annotations: map[string]string{
			"version": version,
			"commit":  commit,
		},
		RunE:              runRoot,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	return cmd
}

func runRoot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	fmt.Printf("m17reflector - %s (%s)\n", cmd.Annotations["version"], cmd.Annotations["commit"])

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	log := setupLogger(cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	m := metrics.NewMetrics()
	bus := notify.NewBus()

	srv, err := server.New(cfg.BindAddress, nil, log)
	if err != nil {
		return fmt.Errorf("failed to bind UDP socket: %w", err)
	}

	r := reflector.New(cfg, srv.Conn(), bus, log, m)
	srv.SetRouter(r)

	if err := r.ScheduleJobs(scheduler); err != nil {
		return fmt.Errorf("failed to schedule reflector jobs: %w", err)
	}
	scheduler.Start()

	if err := r.Bootstrap(cfg.Interlinks); err != nil {
		log.Warn("failed to bootstrap one or more interlinks", "error", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	g, gCtx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		return srv.Run(gCtx)
	})
	g.Go(func() error {
		return metrics.RunServer(gCtx, cfg)
	})
	g.Go(func() error {
		return telemetry.RunServer(gCtx, cfg, r, bus, log)
	})

	log.Info("reflector started", "name", cfg.ReflectorName, "bind", cfg.BindAddress, "modules", cfg.Modules.String())

	stop := func(sig os.Signal) {
		log.Warn("shutting down due to signal", "signal", sig)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := scheduler.StopJobs(); err != nil {
				log.Error("failed to stop scheduler jobs", "error", err)
			}
			if err := scheduler.Shutdown(); err != nil {
				log.Error("failed to shut down scheduler", "error", err)
			}
		}()

		cancel()

		c := make(chan struct{})
		go func() {
			defer close(c)
			wg.Wait()
			_ = g.Wait()
		}()

		select {
		case <-c:
			log.Info("shutdown complete")
			os.Exit(0)
		case <-time.After(shutdownTimeout):
			log.Error("shutdown timed out, forcing exit")
			os.Exit(1)
		}
	}
	defer stop(syscall.SIGINT)

	shutdown.AddWithParam(stop)
	shutdown.Listen(syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)

	return nil
}

// loadConfig loads the configulator instance stashed in ctx and resolves
// the final layered configuration.
func loadConfig(ctx context.Context) (*config.Config, error) {
	c, err := configulator.FromContext[config.Config](ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get config from context: %w", err)
	}

	cfg, err := c.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// setupLogger builds and installs the default slog logger for cfg's level.
func setupLogger(cfg *config.Config) *slog.Logger {
	var logger *slog.Logger
	switch cfg.LogLevel {
	case config.LogLevelDebug:
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelDebug}))
	case config.LogLevelWarn:
		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelWarn}))
	case config.LogLevelError:
		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelError}))
	default:
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelInfo}))
	}
	slog.SetDefault(logger)
	return logger
}
