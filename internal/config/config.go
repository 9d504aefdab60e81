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

// Package config defines the reflector's configuration shape and loads it
// via configulator (layered defaults + YAML file + environment overrides).
package config

// Config stores the reflector's full runtime configuration.
type Config struct {
	// ReflectorName is this reflector's own callsign, used as the "from"
	// field on outbound PONG/DISC/CONN frames and as the left half of the
	// reflector-plus-module broadcast literal. Max 9 characters.
	ReflectorName string `yaml:"reflector_name" default:"MYCALL"`

	// BindAddress is the UDP listen address for the M17 protocol socket.
	BindAddress string `yaml:"bind_address" default:"0.0.0.0:17000"`

	// Modules is the fixed set of single-letter module names this
	// reflector serves. Populated once at startup; never changes at runtime.
	Modules ModuleList `yaml:"modules" default:"[\"A\"]"`

	// StrictCRC drops stream frames whose CRC-16/M17 doesn't match instead
	// of forwarding them with a debug-level note.
	StrictCRC bool `yaml:"strict_crc" default:"false"`

	// Interlinks lists other reflectors to bootstrap outbound attachments to
	// at startup.
	Interlinks []Interlink `yaml:"interlinks"`

	LogLevel  LogLevel  `yaml:"log_level" default:"info"`
	Telemetry Telemetry `yaml:"telemetry"`
	Metrics   Metrics   `yaml:"metrics"`
}

// Interlink describes one outbound reflector-to-reflector link to establish
// on startup.
type Interlink struct {
	Name    string     `yaml:"name"`
	Address string     `yaml:"address"`
	Modules ModuleList `yaml:"modules"`
}

// Telemetry configures the read-only HTTP/WebSocket snapshot surface.
type Telemetry struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Bind    string `yaml:"bind" default:"0.0.0.0"`
	Port    int    `yaml:"port" default:"8080"`
}

// Metrics configures the Prometheus scrape endpoint.
type Metrics struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Bind    string `yaml:"bind" default:"0.0.0.0"`
	Port    int    `yaml:"port" default:"9090"`
}
