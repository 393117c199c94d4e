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

// Package results parses simulation outcomes and renders reports.
//
// The inputs are the job-history simulation records for one IP (optionally
// filtered to a single regression run) and the sim.log each one points at.
// The outputs are pass/fail counts, an HTML summary and a JUnit-style XML
// file consumable by CI.
package results

import (
	"bufio"
	"fmt"
	"os"
	"regexp"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/errors"
	"github.com/datumtc/mio/pkg/history"
)

// failurePatterns mark a simulation log as failed when any line matches.
var failurePatterns = []*regexp.Regexp{
	regexp.MustCompile(`UVM_ERROR @`),
	regexp.MustCompile(`UVM_FATAL @`),
	regexp.MustCompile(`^Error:`),
	regexp.MustCompile(`FAILED`),
}

// maxFailureLines bounds how many failing lines are kept per test.
const maxFailureLines = 25

// TestOutcome is the verdict for one simulation.
type TestOutcome struct {
	TestName    string
	Seed        int64
	Args        string
	Passed      bool
	Failures    []string
	LogPath     string
	ResultsPath string
	Simulator   string
}

// Report aggregates the outcomes for one IP and report name.
type Report struct {
	IPIdent string
	Name    string

	Outcomes  []TestOutcome
	NumPassed int
	NumFailed int

	HTMLPath string
	XMLPath  string
}

// Passed reports whether every test passed.
func (r *Report) Passed() bool {
	return r.NumFailed == 0 && len(r.Outcomes) > 0
}

// PctPassed returns the passing rate in percent.
func (r *Report) PctPassed() float64 {
	if len(r.Outcomes) == 0 {
		return 0
	}
	return float64(r.NumPassed) * 100 / float64(len(r.Outcomes))
}

// Generate parses the simulation results for one IP and writes the HTML
// and XML reports under <sim_results>/<name>.{html,xml}. Regression name
// and timestamp, when non-empty, filter the history records to one run.
func Generate(c *cfg.Config, store *history.Store, ipIdent, name, regressionName, regressionTimestamp string) (*Report, error) {
	records := store.SimEndRecords(ipIdent, regressionName, regressionTimestamp)
	if len(records) == 0 {
		return nil, errors.NotFound(
			fmt.Sprintf("no record of simulations for IP '%s'", ipIdent),
			"the job history holds no matching simulation end records",
			"Run 'mio sim' or 'mio regr' first")
	}

	report := &Report{IPIdent: ipIdent, Name: name}
	for _, rec := range records {
		outcome := TestOutcome{
			TestName:    rec.TestName,
			Seed:        rec.Seed,
			Args:        rec.Args,
			LogPath:     rec.LogPath,
			ResultsPath: rec.ResultsPath,
			Simulator:   rec.Simulator,
		}
		failures, err := scanSimLog(rec.LogPath)
		if err != nil {
			outcome.Failures = []string{fmt.Sprintf("missing simulation log: %v", err)}
		} else {
			outcome.Failures = failures
		}
		outcome.Passed = err == nil && len(outcome.Failures) == 0
		if outcome.Passed {
			report.NumPassed++
		} else {
			report.NumFailed++
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	if err := os.MkdirAll(c.SimResultsDir, 0o755); err != nil {
		return nil, errors.IOFailure("cannot create results directory", err)
	}
	var err error
	if report.HTMLPath, err = writeHTML(c, report); err != nil {
		return nil, err
	}
	if report.XMLPath, err = writeJUnit(c, report); err != nil {
		return nil, err
	}
	return report, nil
}

// scanSimLog returns the failing lines of one simulation log.
func scanSimLog(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var failures []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		for _, pattern := range failurePatterns {
			if pattern.MatchString(line) {
				if len(failures) < maxFailureLines {
					failures = append(failures, line)
				}
				break
			}
		}
	}
	return failures, scanner.Err()
}
