// Copyright 2026 Datum Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datumtc/mio/internal/errors"
	"github.com/datumtc/mio/internal/ui"
)

var installFlags struct {
	global   bool
	username string
	password string
}

var installCmd = &cobra.Command{
	Use:   "install IP",
	Short: "Install all IP dependencies from IP Marketplace",
	Long: `Installs an IP and any IPs that it depends on from the Moore.io IP
Marketplace. IPs can be installed either locally (PROJECT_ROOT/.mio/vendors)
or globally (~/.mio/vendors).`,
	Example: `  mio install uvmt_my_ip
  mio install uvmt_my_ip -g`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, _, cancel, err := newApp()
		if err != nil {
			fatalStartup(err)
		}
		defer cancel()
		defer a.close()

		target, err := a.resolveTarget(args[0])
		if err != nil {
			a.fatal(err)
		}
		missing := a.cache.MissingDeps(target)
		if len(missing) == 0 {
			ui.Success(fmt.Sprintf("All dependencies of IP '%s' are installed", target.Ident()))
			return
		}
		// Fetching from the marketplace requires the remote service; the
		// engine only verifies local presence.
		a.fatal(errors.MissingDependencies(
			fmt.Sprintf("%d dependencies of IP '%s' are not installed", len(missing), target.Ident()),
			strings.Join(missing, ", "),
			"Fetch the missing IP archives into .mio/vendors (or ~/.mio/vendors with -g)"))
	},
}

func init() {
	installCmd.Flags().BoolVarP(&installFlags.global, "global", "g", false, "Install IP dependencies for all user projects")
	installCmd.Flags().StringVarP(&installFlags.username, "username", "u", "", "Moore.io username (must be combined with -p)")
	installCmd.Flags().StringVarP(&installFlags.password, "password", "p", "", "Moore.io password (must be combined with -u)")
	rootCmd.AddCommand(installCmd)
}
