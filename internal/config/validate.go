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

package config

import (
	"errors"
	"fmt"
	"net"
)

var (
	// ErrReflectorNameEmpty is returned when no reflector name is configured.
	ErrReflectorNameEmpty = errors.New("config: reflector_name must not be empty")
	// ErrReflectorNameTooLong is returned when the reflector name exceeds the
	// 9-character callsign field width.
	ErrReflectorNameTooLong = errors.New("config: reflector_name must be 9 characters or fewer")
	// ErrBindAddressInvalid is returned when bind_address isn't a host:port pair.
	ErrBindAddressInvalid = errors.New("config: bind_address must be a valid host:port")
	// ErrNoModules is returned when no modules are configured.
	ErrNoModules = errors.New("config: at least one module must be configured")
	// ErrDuplicateModule is returned when the same module letter appears twice.
	ErrDuplicateModule = errors.New("config: duplicate module letter")
	// ErrInterlinkNameEmpty is returned when an interlink has no name.
	ErrInterlinkNameEmpty = errors.New("config: interlink name must not be empty")
	// ErrInterlinkAddressInvalid is returned when an interlink address isn't a
	// valid host:port pair.
	ErrInterlinkAddressInvalid = errors.New("config: interlink address must be a valid host:port")
	// ErrInterlinkModuleUnconfigured is returned when an interlink names a
	// module the reflector itself doesn't serve.
	ErrInterlinkModuleUnconfigured = errors.New("config: interlink module not in reflector's configured modules")
	// ErrInvalidLogLevel is returned for an unrecognized log level.
	ErrInvalidLogLevel = errors.New("config: invalid log_level")
	// ErrInvalidPort is returned when a telemetry/metrics port is out of range.
	ErrInvalidPort = errors.New("config: port must be between 1 and 65535")
)

// Validate checks the whole configuration tree, mirroring the per-section
// Validate methods below.
func (c *Config) Validate() error {
	if c.ReflectorName == "" {
		return ErrReflectorNameEmpty
	}
	if len(c.ReflectorName) > 9 {
		return ErrReflectorNameTooLong
	}
	if _, _, err := net.SplitHostPort(c.BindAddress); err != nil {
		return fmt.Errorf("%w: %s", ErrBindAddressInvalid, c.BindAddress)
	}

	if len(c.Modules) == 0 {
		return ErrNoModules
	}
	seen := make(map[rune]struct{}, len(c.Modules))
	for _, m := range c.Modules {
		if _, ok := seen[m]; ok {
			return fmt.Errorf("%w: %c", ErrDuplicateModule, m)
		}
		seen[m] = struct{}{}
	}

	for i := range c.Interlinks {
		if err := c.Interlinks[i].Validate(); err != nil {
			return err
		}
		for _, m := range c.Interlinks[i].Modules {
			if !c.Modules.Contains(m) {
				return fmt.Errorf("%w: %s: %c", ErrInterlinkModuleUnconfigured, c.Interlinks[i].Name, m)
			}
		}
	}

	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidLogLevel, c.LogLevel)
	}

	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate checks a single interlink entry.
func (i *Interlink) Validate() error {
	if i.Name == "" {
		return ErrInterlinkNameEmpty
	}
	if _, _, err := net.SplitHostPort(i.Address); err != nil {
		return fmt.Errorf("%w: %s", ErrInterlinkAddressInvalid, i.Address)
	}
	return nil
}

// Validate checks the telemetry section, skipping the port check when the
// surface is disabled.
func (t *Telemetry) Validate() error {
	if !t.Enabled {
		return nil
	}
	if t.Port < 1 || t.Port > 65535 {
		return fmt.Errorf("%w: telemetry.port=%d", ErrInvalidPort, t.Port)
	}
	return nil
}

// Validate checks the metrics section, skipping the port check when the
// surface is disabled.
func (m *Metrics) Validate() error {
	if !m.Enabled {
		return nil
	}
	if m.Port < 1 || m.Port > 65535 {
		return fmt.Errorf("%w: metrics.port=%d", ErrInvalidPort, m.Port)
	}
	return nil
}
