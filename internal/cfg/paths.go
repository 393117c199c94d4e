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

package cfg

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Timestamp layouts. History records and regression directory names use
// distinct formats, both preserved exactly across serialize/parse.
const (
	// HistoryTimestampLayout formats history record timestamps.
	HistoryTimestampLayout = "2006/01/02-15:04:05"

	// RegrTimestampLayout formats regression directory names.
	RegrTimestampLayout = "2006_01_02_15_04_05"
)

// HistoryTimestamp formats t for a job-history record.
func HistoryTimestamp(t time.Time) string {
	return t.Format(HistoryTimestampLayout)
}

// ParseHistoryTimestamp parses a job-history record timestamp.
func ParseHistoryTimestamp(s string) (time.Time, error) {
	return time.Parse(HistoryTimestampLayout, s)
}

// RegrTimestamp formats t for a regression directory name.
func RegrTimestamp(t time.Time) string {
	return t.Format(RegrTimestampLayout)
}

// IPDirName flattens an IP identity into a filesystem-safe directory name.
func IPDirName(vendor, name string) string {
	return vendor + "__" + name
}

// CmpLogPath returns the compilation log path for one IP and simulator:
// .mio/sim/cmp/<vendor>__<name>.<sim>.cmp.log
func (c *Config) CmpLogPath(vendor, name string, sim Simulator) string {
	return filepath.Join(c.SimDir, "cmp", fmt.Sprintf("%s.%s.cmp.log", IPDirName(vendor, name), sim.Short()))
}

// ElabLogPath returns the elaboration log path for one IP and simulator:
// .mio/sim/elab/<vendor>__<name>.<sim>.elab.log
func (c *Config) ElabLogPath(vendor, name string, sim Simulator) string {
	return filepath.Join(c.SimDir, "elab", fmt.Sprintf("%s.%s.elab.log", IPDirName(vendor, name), sim.Short()))
}

// CmpOutRoot returns the library output root for one simulator:
// .mio/sim/out/<sim>/cmp_out
func (c *Config) CmpOutRoot(sim Simulator) string {
	return filepath.Join(c.SimOutputDir, sim.Short(), "cmp_out")
}

// CmpOutDir returns the compiled-library output directory for one IP:
// .mio/sim/out/<sim>/cmp_out/<vendor>__<name>
func (c *Config) CmpOutDir(sim Simulator, vendor, name string) string {
	return filepath.Join(c.CmpOutRoot(sim), IPDirName(vendor, name))
}

// SimWD returns the single-simulation working directory for one simulator:
// .mio/sim/out/<sim>/sim_wd
func (c *Config) SimWD(sim Simulator) string {
	return filepath.Join(c.SimOutputDir, sim.Short(), "sim_wd")
}

// RegrWDRoot returns the regression working directory for one IP and
// regression, without the timestamp component:
// .mio/sim/out/<sim>/regr_wd/<vendor>__<name>__<regr>
func (c *Config) RegrWDRoot(sim Simulator, vendor, name, regression string) string {
	return filepath.Join(c.SimOutputDir, sim.Short(), "regr_wd", IPDirName(vendor, name)+"__"+regression)
}

// RegrWD returns the timestamped regression working directory:
// .mio/sim/out/<sim>/regr_wd/<vendor>__<name>__<regr>/<timestamp>
func (c *Config) RegrWD(sim Simulator, vendor, name, regression, timestamp string) string {
	return filepath.Join(c.RegrWDRoot(sim, vendor, name, regression), timestamp)
}

// CovWD returns the coverage-merge working directory for one simulator.
func (c *Config) CovWD(sim Simulator) string {
	return filepath.Join(c.SimOutputDir, sim.Short(), "cov_wd")
}

// TestResultsDir returns the single-simulation results directory for a
// rendered test-result directory name.
func (c *Config) TestResultsDir(resultDirName string) string {
	return filepath.Join(c.SimResultsDir, resultDirName)
}

// RegrResultsRoot returns the results root for one regression run:
// .mio/sim/regression_results/<ip>_<regr>/<timestamp>
func (c *Config) RegrResultsRoot(ipName, regression, timestamp string) string {
	return filepath.Join(c.RegrResultsDir, ipName+"_"+regression, timestamp)
}

// HistoryFilePath returns the project-local job-history file.
func (c *Config) HistoryFilePath() string {
	return filepath.Join(c.OutputDir, "job_history.yml")
}

// CreateSimDirs creates the fixed simulation output layout. Idempotent.
func (c *Config) CreateSimDirs() error {
	dirs := []string{
		c.SimDir,
		filepath.Join(c.SimDir, "cmp"),
		filepath.Join(c.SimDir, "elab"),
		c.SimOutputDir,
		c.SimResultsDir,
		c.RegrResultsDir,
		c.TempDir,
	}
	for _, sim := range AllSimulators {
		dirs = append(dirs,
			c.CmpOutRoot(sim),
			c.SimWD(sim),
			filepath.Join(c.SimOutputDir, sim.Short(), "regr_wd"),
			c.CovWD(sim),
		)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
