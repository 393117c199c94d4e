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

// Collaborator commands whose substance lives outside the simulation
// engine: marketplace session management, packaging/publishing, project
// scaffolding, documentation generation and the repeat shorthand. Their
// CLI surface is stable; operations needing the remote marketplace or the
// template library report that and exit non-zero.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/ui"
)

// notAvailable exits over a collaborator that needs an external service.
func notAvailable(what, detail string) {
	ui.Error(what + " is not available: " + detail)
	os.Exit(1)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Start session with IP Marketplace",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		notAvailable("login", "requires a connection to the Moore.io IP Marketplace")
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish IP",
	Short: "Publish IP to IP Marketplace (must have mio admin account)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		notAvailable("publish", "requires a connection to the Moore.io IP Marketplace")
	},
}

var packageCmd = &cobra.Command{
	Use:   "package IP DEST",
	Short: "Create a compressed (and potentially encrypted) archive of an IP",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		notAvailable("package", "IP archive creation is handled by the packaging collaborator")
	},
}

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Creates new source code via the mio template engine",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		notAvailable("new", "the UVM code template library is not installed")
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Starts project creation dialog",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		wd, err := os.Getwd()
		if err != nil {
			ui.Error("cannot determine working directory")
			os.Exit(1)
		}
		path := filepath.Join(wd, "mio.yml")
		if _, err := os.Stat(path); err == nil {
			ui.Warning("a mio.yml already exists here")
			return
		}
		skeleton := "project:\n  name: " + filepath.Base(wd) + "\nsimulation:\n  root-path: dv\n  default-simulator: viv\n"
		if err := os.WriteFile(path, []byte(skeleton), 0o644); err != nil {
			ui.Error("cannot write mio.yml: " + err.Error())
			os.Exit(1)
		}
		ui.Success("Created " + path)
	},
}

var doxCmd = &cobra.Command{
	Use:   "dox IP",
	Short: "HDL source code documentation generation via Doxygen",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		notAvailable("dox", "Doxygen generation is handled by the documentation collaborator")
	},
}

var repeatCmd = &cobra.Command{
	Use:   "!",
	Short: "Repeat last command",
	Long:  `Repeats the last command ran by mio. Currently only supports the sim command.`,
	Args:  cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		wd, err := os.Getwd()
		if err != nil {
			ui.Error("cannot determine working directory")
			os.Exit(1)
		}
		path, err := lastCommandPath(wd)
		if err != nil {
			ui.Error("not inside a mio project: " + err.Error())
			os.Exit(1)
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			ui.Error("no previous command recorded")
			os.Exit(1)
		}
		previous := strings.Split(strings.TrimSpace(string(raw)), "\n")
		if len(previous) == 0 || previous[0] != "sim" {
			ui.Error("only the sim command can be repeated")
			os.Exit(1)
		}
		fmt.Println("mio " + strings.Join(previous, " "))
		rootCmd.SetArgs(previous)
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
	},
}

// lastCommandPath resolves the repeat record through the project root: the
// record lives under the root's .mio, which may be an ancestor of wd.
func lastCommandPath(wd string) (string, error) {
	c, err := cfg.Load(wd)
	if err != nil {
		return "", err
	}
	return filepath.Join(c.OutputDir, "last_command"), nil
}

func init() {
	rootCmd.AddCommand(loginCmd, publishCmd, packageCmd, newCmd, initCmd, doxCmd, repeatCmd)
}
