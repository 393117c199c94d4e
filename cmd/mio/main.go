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

// Package main implements the Moore.io (mio) command line interface: EDA
// automation for HDL IP — compilation, elaboration, simulation and
// regressions over six supported simulators.
//
// Usage:
//
//	mio sim IP [options]       Run the simulation pipeline for an IP
//	mio regr IP [SUITE.]REGR   Run a regression
//	mio clean IP               Remove tool outputs
//	mio cov IP                 Merge coverage and generate a report
//	mio results IP NAME        Generate result reports
//	mio doctor                 Check the installation
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/datumtc/mio/internal/ui"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	flagWD      string
	flagDbg     bool
	flagNoColor bool
)

var rootCmd = &cobra.Command{
	Use:   "mio",
	Short: "Moore.io CLI - EDA automation for HDL IP",
	Long: `Moore.io (mio) Command Line Interface

Compiles, elaborates and simulates HDL IP against any of the supported
simulators, runs parameterized regressions with bounded parallelism, and
manages the resulting logs, reports and coverage data.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if flagDbg {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		if flagNoColor {
			ui.InitColors(true)
		}

		if flagWD != "" {
			if err := os.Chdir(flagWD); err != nil {
				return fmt.Errorf("cannot change working directory to %s: %w", flagWD, err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagWD, "wd", "", "Run as if mio was started in this directory")
	rootCmd.PersistentFlags().BoolVar(&flagDbg, "dbg", false, "Enable debugging output")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		// --debug is accepted as an alias for --dbg.
		if name == "debug" {
			name = "dbg"
		}
		return pflag.NormalizedName(name)
	})
	rootCmd.Version = version
	rootCmd.SetVersionTemplate("Moore.io CLI Client v{{ .Version }}\n")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Moore.io CLI Client v%s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
