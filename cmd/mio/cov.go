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
	"github.com/spf13/cobra"

	"github.com/datumtc/mio/internal/ui"
	"github.com/datumtc/mio/pkg/cov"
)

var covCmd = &cobra.Command{
	Use:   "cov IP",
	Short: "Manages coverage data from EDA tools",
	Long: `Merges code and functional coverage data into a single database from
which report(s) are generated. Currently only supports Vivado.`,
	Example: `  mio cov my_ip`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, ctx, cancel, err := newApp()
		if err != nil {
			fatalStartup(err)
		}
		defer cancel()
		defer a.close()

		target, err := a.resolveTarget(args[0])
		if err != nil {
			a.fatal(err)
		}
		reportPath, err := cov.GenReport(ctx, a.cfg, a.store, a.orch.Launcher(), target, "", "")
		if err != nil {
			a.fatal(err)
		}
		ui.Success("Coverage report: " + reportPath)
	},
}

func init() {
	rootCmd.AddCommand(covCmd)
}
