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

package config_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m17-reflector/m17reflector/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		ReflectorName: "M17-TEST",
		BindAddress:   "0.0.0.0:17000",
		Modules:       config.ModuleList{'A', 'B', 'C'},
		LogLevel:      config.LogLevelInfo,
		Telemetry:     config.Telemetry{Enabled: true, Bind: "0.0.0.0", Port: 8080},
		Metrics:       config.Metrics{Enabled: true, Bind: "0.0.0.0", Port: 9090},
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr error
	}{
		{
			name:   "valid config",
			mutate: func(c *config.Config) {},
		},
		{
			name:    "empty reflector name",
			mutate:  func(c *config.Config) { c.ReflectorName = "" },
			wantErr: config.ErrReflectorNameEmpty,
		},
		{
			name:    "reflector name too long",
			mutate:  func(c *config.Config) { c.ReflectorName = "WAYTOOLONGCALL" },
			wantErr: config.ErrReflectorNameTooLong,
		},
		{
			name:    "invalid bind address",
			mutate:  func(c *config.Config) { c.BindAddress = "not-an-address" },
			wantErr: config.ErrBindAddressInvalid,
		},
		{
			name:    "no modules configured",
			mutate:  func(c *config.Config) { c.Modules = nil },
			wantErr: config.ErrNoModules,
		},
		{
			name:    "duplicate module letter",
			mutate:  func(c *config.Config) { c.Modules = config.ModuleList{'A', 'A'} },
			wantErr: config.ErrDuplicateModule,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *config.Config) { c.LogLevel = config.LogLevel("verbose") },
			wantErr: config.ErrInvalidLogLevel,
		},
		{
			name:    "telemetry port out of range when enabled",
			mutate:  func(c *config.Config) { c.Telemetry.Port = 70000 },
			wantErr: config.ErrInvalidPort,
		},
		{
			name: "telemetry port ignored when disabled",
			mutate: func(c *config.Config) {
				c.Telemetry.Enabled = false
				c.Telemetry.Port = 0
			},
		},
		{
			name: "interlink missing name",
			mutate: func(c *config.Config) {
				c.Interlinks = []config.Interlink{{Address: "relay.example.net:17000", Modules: config.ModuleList{'A'}}}
			},
			wantErr: config.ErrInterlinkNameEmpty,
		},
		{
			name: "interlink invalid address",
			mutate: func(c *config.Config) {
				c.Interlinks = []config.Interlink{{Name: "W1ABC", Address: "nope", Modules: config.ModuleList{'A'}}}
			},
			wantErr: config.ErrInterlinkAddressInvalid,
		},
		{
			name: "interlink module not served by reflector",
			mutate: func(c *config.Config) {
				c.Interlinks = []config.Interlink{{Name: "W1ABC", Address: "relay.example.net:17000", Modules: config.ModuleList{'Z'}}}
			},
			wantErr: config.ErrInterlinkModuleUnconfigured,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := validConfig()
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "expected error wrapping %v, got %v", tt.wantErr, err)
		})
	}
}

func TestModuleListContains(t *testing.T) {
	t.Parallel()

	m := config.ModuleList{'A', 'B', 'C'}
	assert.True(t, m.Contains('B'))
	assert.False(t, m.Contains('Z'))
}
