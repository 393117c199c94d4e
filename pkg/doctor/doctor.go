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

// Package doctor probes the local installation: configured tool homes,
// simulator executables and the UVM home.
package doctor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/errors"
)

// executables lists the binaries each simulator flow invokes.
var executables = map[cfg.Simulator][]string{
	cfg.Vivado:  {"xvlog", "xvhdl", "xelab", "xsim", "xcrg"},
	cfg.Metrics: {"mdc"},
	cfg.VCS:     {"vcs"},
	cfg.Xcelium: {"xrun"},
	cfg.Questa:  {"vlog", "vopt", "vsim"},
	cfg.Riviera: {"vlog", "vsim"},
}

// CheckSimulator verifies that sim's executables exist under its
// configured home. A failed probe is a SimulatorNotInstalled error.
func CheckSimulator(c *cfg.Config, sim cfg.Simulator) error {
	home := c.ToolHomes[sim]
	if home == "" {
		return errors.SimulatorNotInstalled(
			fmt.Sprintf("simulator '%s' is not configured", sim),
			fmt.Sprintf("no tool home is set for '%s'", sim))
	}
	for _, tool := range executables[sim] {
		path := filepath.Join(home, tool)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return errors.SimulatorNotInstalled(
				fmt.Sprintf("simulator '%s' is not installed properly", sim),
				fmt.Sprintf("executable %s is missing", path))
		}
	}
	return nil
}

// CheckResult is one probe outcome for the doctor report.
type CheckResult struct {
	Name string
	Err  error
}

// RunAll probes every configured simulator plus the UVM home, for
// `mio doctor`. Unconfigured simulators are skipped (reported with a nil
// error and "not configured" in the name).
func RunAll(c *cfg.Config) []CheckResult {
	var results []CheckResult
	for _, sim := range cfg.AllSimulators {
		name := fmt.Sprintf("simulator %s", sim)
		if c.ToolHomes[sim] == "" {
			results = append(results, CheckResult{Name: name + " (not configured)"})
			continue
		}
		results = append(results, CheckResult{Name: name, Err: CheckSimulator(c, sim)})
	}

	uvmCheck := CheckResult{Name: "uvm home"}
	if c.UVMHome != "" {
		if _, err := os.Stat(c.UVMHome); err != nil {
			uvmCheck.Err = errors.SimulatorNotInstalled(
				"UVM home is not accessible",
				fmt.Sprintf("cannot stat %s", c.UVMHome))
		}
	} else {
		uvmCheck.Name += " (not configured)"
	}
	results = append(results, uvmCheck)
	return results
}
