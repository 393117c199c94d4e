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

package eda

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/datumtc/mio/internal/cfg"
)

// Verbosity is the UVM logging verbosity of one simulation.
type Verbosity string

// UVM verbosity levels.
const (
	VerbosityNone   Verbosity = "none"
	VerbosityLow    Verbosity = "low"
	VerbosityMedium Verbosity = "medium"
	VerbosityHigh   Verbosity = "high"
	VerbosityDebug  Verbosity = "debug"
)

// ParseVerbosity validates a verbosity string.
func ParseVerbosity(s string) (Verbosity, error) {
	switch Verbosity(s) {
	case VerbosityNone, VerbosityLow, VerbosityMedium, VerbosityHigh, VerbosityDebug:
		return Verbosity(s), nil
	default:
		return "", fmt.Errorf("invalid verbosity %q (choices: none, low, medium, high, debug)", s)
	}
}

// UVM returns the UVM_VERBOSITY plusarg value (e.g. "UVM_MEDIUM").
func (v Verbosity) UVM() string {
	return "UVM_" + strings.ToUpper(string(v))
}

// Seed bounds. Seeds are positive 31-bit integers.
const (
	MinSeed = 1
	MaxSeed = 1<<31 - 2
)

// Job describes one invocation of the simulation pipeline: which stages to
// run against which IP, under which simulator, with which arguments.
// Outcome fields are populated by the pipeline as stages complete.
type Job struct {
	// Vendor and IPName identify the target IP as requested on the CLI;
	// Vendor may be empty for an anonymous lookup.
	Vendor string
	IPName string

	Simulator cfg.Simulator

	Compile   bool
	Elaborate bool
	Simulate  bool
	Fsoc      bool

	Test      string
	Seed      int64
	Verbosity Verbosity
	MaxErrors int

	Waves  bool
	Cov    bool
	GUI    bool
	DryRun bool

	// RawArgs holds the unparsed --args tokens from the CLI or the suite.
	RawArgs []string

	// Parsed argument maps (name -> value; value may be empty).
	CmpArgs  map[string]string
	ElabArgs map[string]string
	SimArgs  map[string]string

	IsRegression        bool
	RegressionName      string
	RegressionTimestamp string

	// Outcomes.
	CmpLogPath     string
	ElabLogPath    string
	SimLogPath     string
	ResultsPath    string
	ResultsDirName string

	// Commands accumulates the command lines the pipeline ran (or, under
	// dry-run, would have run), in order.
	Commands []string
}

// Ident returns the target identifier as requested ("vendor/name" or bare
// name).
func (j *Job) Ident() string {
	if j.Vendor == "" {
		return j.IPName
	}
	return j.Vendor + "/" + j.IPName
}

var (
	defineTokenRe  = regexp.MustCompile(`^\+define\+(\w+)(?:=(\w+))?$`)
	plusargTokenRe = regexp.MustCompile(`^\+(\w+)(?:=(\w+))?$`)
)

// ParseRawArgs classifies the raw CLI tokens: +define+NAME[=VAL] feeds the
// compile defines, any other +NAME[=VAL] feeds the simulation plusargs.
// Malformed tokens are dropped after a debug log line.
func (j *Job) ParseRawArgs() {
	if j.CmpArgs == nil {
		j.CmpArgs = make(map[string]string)
	}
	if j.ElabArgs == nil {
		j.ElabArgs = make(map[string]string)
	}
	if j.SimArgs == nil {
		j.SimArgs = make(map[string]string)
	}
	for _, token := range j.RawArgs {
		token = strings.TrimSpace(strings.ReplaceAll(token, `"`, ""))
		if token == "" {
			continue
		}
		if m := defineTokenRe.FindStringSubmatch(token); m != nil {
			j.CmpArgs[m[1]] = m[2]
			slog.Debug("job.args.define", "name", m[1], "value", m[2])
			continue
		}
		if m := plusargTokenRe.FindStringSubmatch(token); m != nil {
			j.SimArgs[m[1]] = m[2]
			slog.Debug("job.args.plusarg", "name", m[1], "value", m[2])
			continue
		}
		slog.Debug("job.args.dropped", "token", token)
	}
}

// PlusArgsAsFlags renders the simulation plusargs in plain +NAME[=VAL]
// syntax, sorted by name.
func (j *Job) PlusArgsAsFlags() []string {
	names := make([]string, 0, len(j.SimArgs))
	for name := range j.SimArgs {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		if value := j.SimArgs[name]; value != "" {
			out = append(out, "+"+name+"="+value)
		} else {
			out = append(out, "+"+name)
		}
	}
	return out
}

// PlusArgsString flattens the plusargs into one space-separated string for
// history records.
func (j *Job) PlusArgsString() string {
	return strings.Join(j.PlusArgsAsFlags(), " ")
}
