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
	"os"

	"github.com/spf13/cobra"

	"github.com/datumtc/mio/internal/ui"
	"github.com/datumtc/mio/pkg/doctor"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Runs a set of checks to ensure mio installation has what it needs to operate properly",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a, _, cancel, err := newApp()
		if err != nil {
			fatalStartup(err)
		}
		defer cancel()
		defer a.close()

		failed := 0
		for _, result := range doctor.RunAll(a.cfg) {
			if result.Err != nil {
				ui.Error(result.Name + ": " + result.Err.Error())
				failed++
			} else {
				ui.Success(result.Name)
			}
		}
		if failed > 0 {
			ui.Errorf("%d check(s) failed", failed)
			os.Exit(1)
		}
		ui.Success("All checks passed")
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
