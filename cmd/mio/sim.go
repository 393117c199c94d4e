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
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/pkg/eda"
	"github.com/datumtc/mio/pkg/ip"
)

var simFlags struct {
	test      string
	seed      int64
	verbosity string
	maxErrors int
	app       string
	waves     bool
	cov       bool
	gui       bool
	simulate  bool
	elaborate bool
	compile   bool
	fsoc      bool
	dryRun    bool
	args      []string
}

var simCmd = &cobra.Command{
	Use:   "sim IP",
	Short: "Performs necessary steps to simulate an IP with any simulator",
	Long: `Performs the necessary steps to run a simulation of an IP: FuseSoC
processing, compilation, elaboration and simulation. Individual steps can
be selected with -C, -E, -S and -F; without any, the full pipeline runs.

Two types of arguments (--args) can be passed: compilation
(+define+NAME[=VALUE]) and simulation (+NAME[=VALUE]).

For running multiple tests in parallel, see 'mio regr'.`,
	Example: `  mio sim uvmt_my_ip -t smoke -s 1 -w -c
  mio sim uvmt_my_ip -t smoke -s 1 --args +NPKTS=10
  mio sim uvmt_my_ip -C`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runSim(args[0])
	},
}

func init() {
	f := simCmd.Flags()
	f.StringVarP(&simFlags.test, "test", "t", "", "Specify the UVM test to be run")
	f.Int64VarP(&simFlags.seed, "seed", "s", 0, "Positive integer randomization seed (random if omitted)")
	f.StringVarP(&simFlags.verbosity, "verbosity", "v", "medium", "UVM logging verbosity: none, low, medium, high, debug")
	f.IntVarP(&simFlags.maxErrors, "errors", "e", 10, "Error count at which the pipeline is terminated")
	f.StringVarP(&simFlags.app, "app", "a", "", "Simulator application: viv, mdc, vcs, xcl, qst, riv")
	f.BoolVarP(&simFlags.waves, "waves", "w", false, "Enable wave capture to disk")
	f.BoolVarP(&simFlags.cov, "cov", "c", false, "Enable code & functional coverage capture")
	f.BoolVarP(&simFlags.gui, "gui", "g", false, "Invoke the simulator in GUI mode")
	f.BoolVarP(&simFlags.simulate, "simulate", "S", false, "Simulate target IP")
	f.BoolVarP(&simFlags.elaborate, "elaborate", "E", false, "Elaborate target IP")
	f.BoolVarP(&simFlags.compile, "compile", "C", false, "Compile target IP")
	f.BoolVarP(&simFlags.fsoc, "fsoc", "F", false, "Invoke FuseSoC to prepare core(s) for compilation")
	f.BoolVarP(&simFlags.dryRun, "bwrap", "b", false, "Do not run tools; record the command lines instead")
	f.StringArrayVar(&simFlags.args, "args", nil, "Compilation/simulation arguments")
	rootCmd.AddCommand(simCmd)
}

func runSim(ipIdent string) {
	a, ctx, cancel, err := newApp()
	if err != nil {
		fatalStartup(err)
	}
	defer cancel()
	defer a.close()

	job, err := buildSimJob(a.cfg, ipIdent)
	if err != nil {
		a.fatal(err)
	}

	if _, err := a.orch.Run(ctx, job); err != nil {
		a.fatal(err)
	}
	if job.DryRun {
		if err := writeBwrapScript(a.cfg, job); err != nil {
			a.fatal(err)
		}
	}
	saveLastCommand(a.cfg, os.Args[1:])
}

// buildSimJob translates the sim command flags into a Job.
func buildSimJob(c *cfg.Config, ipIdent string) (*eda.Job, error) {
	vendor, name, err := ip.SplitIdent(ipIdent)
	if err != nil {
		return nil, fmt.Errorf("invalid IP identifier %q: %w", ipIdent, err)
	}

	simulator := c.DefaultSimulator
	if simFlags.app != "" {
		simulator, err = cfg.ParseSimulator(simFlags.app)
		if err != nil {
			return nil, err
		}
	}
	verbosity, err := eda.ParseVerbosity(simFlags.verbosity)
	if err != nil {
		return nil, err
	}

	seed := simFlags.seed
	if seed == 0 {
		seed = rand.Int63n(eda.MaxSeed) + 1
	}
	if seed < eda.MinSeed || seed > eda.MaxSeed {
		return nil, fmt.Errorf("seed %d is out of range [%d, %d]", seed, eda.MinSeed, int64(eda.MaxSeed))
	}

	job := &eda.Job{
		Vendor:    vendor,
		IPName:    name,
		Simulator: simulator,
		Test:      simFlags.test,
		Seed:      seed,
		Verbosity: verbosity,
		MaxErrors: simFlags.maxErrors,
		Waves:     simFlags.waves,
		Cov:       simFlags.cov,
		GUI:       simFlags.gui,
		Fsoc:      simFlags.fsoc,
		DryRun:    simFlags.dryRun,
		RawArgs:   simFlags.args,
	}

	// Without explicit stage letters the whole pipeline runs.
	if !simFlags.compile && !simFlags.elaborate && !simFlags.simulate && !simFlags.fsoc {
		job.Compile = true
		job.Elaborate = true
		job.Simulate = true
	} else {
		job.Compile = simFlags.compile
		job.Elaborate = simFlags.elaborate
		job.Simulate = simFlags.simulate
	}
	return job, nil
}

// writeBwrapScript materializes the recorded command lines as a
// self-contained shell script under the project temp directory.
func writeBwrapScript(c *cfg.Config, job *eda.Job) error {
	path := filepath.Join(c.TempDir, fmt.Sprintf("%s.%s.sh", strings.ReplaceAll(job.Ident(), "/", "__"), job.Simulator.Short()))
	var out strings.Builder
	out.WriteString("#!/bin/bash\nset -e\n")
	fmt.Fprintf(&out, "export %s=%s\n", "MIO_PROJECT_DIR", c.ProjectDir)
	for _, command := range job.Commands {
		out.WriteString(command)
		out.WriteString("\n")
	}
	if err := os.MkdirAll(c.TempDir, 0o755); err != nil {
		return err
	}
	fmt.Printf("Command script written to %s\n", path)
	return os.WriteFile(path, []byte(out.String()), 0o755)
}

// saveLastCommand records the invocation for the '!' repeat command.
func saveLastCommand(c *cfg.Config, args []string) {
	path := filepath.Join(c.OutputDir, "last_command")
	_ = os.WriteFile(path, []byte(strings.Join(args, "\n")+"\n"), 0o644)
}
