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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/USA-RedDragon/configulator"

	"github.com/m17-reflector/m17reflector/cmd"
	"github.com/m17-reflector/m17reflector/internal/config"
	"github.com/m17-reflector/m17reflector/internal/sdk"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := cmd.NewCommand(sdk.Version, sdk.GitCommit)

	c := configulator.New[config.Config]()
	ctx := configulator.NewContext(context.Background(), c)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return 0
}
