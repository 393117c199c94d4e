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

	"github.com/spf13/cobra"

	"github.com/datumtc/mio/internal/ui"
	"github.com/datumtc/mio/pkg/results"
)

var resultsCmd = &cobra.Command{
	Use:   "results IP NAME",
	Short: "Manages results from EDA tools",
	Long: `Parses simulation results for a target IP and generates both HTML and
CI-compatible XML reports under the simulation results directory.`,
	Example: `  mio results my_ip sim_results`,
	Args:    cobra.ExactArgs(2),
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
		report, err := results.Generate(a.cfg, a.store, target.Ident(), args[1], "", "")
		if err != nil {
			a.fatal(err)
		}

		if report.Passed() {
			ui.Successf("%d/%d tests passed", report.NumPassed, len(report.Outcomes))
		} else {
			ui.Errorf("%d/%d tests failed", report.NumFailed, len(report.Outcomes))
		}
		fmt.Println("  HTML report: " + report.HTMLPath)
		fmt.Println("  XML report : " + report.XMLPath)
	},
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}
