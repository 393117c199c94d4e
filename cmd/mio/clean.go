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
	"github.com/datumtc/mio/pkg/clean"
)

var cleanDeep bool

var cleanCmd = &cobra.Command{
	Use:   "clean IP",
	Short: "Manages outputs from tools (other than job results)",
	Long:  `Deletes the compiled libraries and the compilation and elaboration logs of an IP. Simulation results are kept.`,
	Example: `  mio clean uvmt_my_ip
  mio clean uvmt_my_ip -d`,
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
		if err := clean.Clean(a.cfg, a.cache, target, cleanDeep); err != nil {
			a.fatal(err)
		}
		ui.Success(fmt.Sprintf("Cleaned tool outputs for IP '%s'", target.Ident()))
	},
}

func init() {
	cleanCmd.Flags().BoolVarP(&cleanDeep, "deep", "d", false, "Also clean compiled IP dependencies")
	rootCmd.AddCommand(cleanCmd)
}
