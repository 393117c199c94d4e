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

// Package regr models test suites and runs regressions.
//
// A suite descriptor ([<name>.]ts.yml) declares a three-level tree of test
// sets, groups and tests; each test maps regression names to seed
// specifications. Parsing expands that tree into concrete RegressionTest
// values and validates the per-regression settings; Regression.Reduce
// removes duplicate tests.
// The scheduler compiles and elaborates the target once, then fans the
// tests out under a concurrency cap and a wall-clock deadline.
package regr

import (
	"fmt"
	"slices"
	"sort"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/ui"
	"github.com/datumtc/mio/pkg/eda"
	"github.com/datumtc/mio/pkg/ip"
)

// Suite limits. A regression above WarnTests tests warns; above MaxTests
// it is rejected.
const (
	MaxTests  = 1000
	WarnTests = 100
)

// TestSuite is one parsed suite descriptor.
type TestSuite struct {
	// Name is the suite name from the descriptor's info block.
	Name string

	// FileName-derived suite qualifier ("" for the default ts.yml).
	FileQualifier string

	// IPName is the target IP declared by the suite.
	IPName string

	// IP is the owning IP.
	IP *ip.IP

	// Timestamp stamps this run's regression directories.
	Timestamp string

	Simulator cfg.Simulator

	// Target-level argument lists applied to the shared compile,
	// elaborate and every simulation.
	CmpArgs  []string
	ElabArgs []string
	SimArgs  []string

	// Per-regression settings: membership in Waves/Cov enables the
	// feature, Verbosity overrides the default level.
	Waves     []string
	Cov       []string
	Verbosity map[string]eda.Verbosity

	// MaxDurations (hours) and MaxJobs per regression name.
	MaxDurations map[string]float64
	MaxJobs      map[string]int

	// Sets in document order.
	Sets []*TestSet

	// Regressions keyed by name, plus their declaration order.
	Regressions     map[string]*Regression
	regressionOrder []string
}

// TestSet is one top-level grouping of test groups.
type TestSet struct {
	Name   string
	Groups []*TestGroup
}

// TestGroup is one grouping of tests inside a set.
type TestGroup struct {
	Name string
	Set  *TestSet
}

// Regression is one named, expanded set of tests.
type Regression struct {
	Name  string
	Suite *TestSuite

	// Tests in expansion order (set → group → test → spec, seed-first).
	Tests []*RegressionTest

	// MaxDuration is the wall-clock budget in hours.
	MaxDuration float64

	// MaxJobs caps concurrently-executing simulations.
	MaxJobs int
}

// RegressionTest is one expanded test invocation.
type RegressionTest struct {
	Name  string
	Set   string
	Group string
	Seed  int64
	Args  []string
}

// equal implements the deduplication identity: name, grouping, seed and
// the sorted argument set.
func (t *RegressionTest) equal(other *RegressionTest) bool {
	if t.Name != other.Name || t.Set != other.Set || t.Group != other.Group || t.Seed != other.Seed {
		return false
	}
	a := slices.Clone(t.Args)
	b := slices.Clone(other.Args)
	sort.Strings(a)
	sort.Strings(b)
	return slices.Equal(a, b)
}

// Regression lookup. Unknown names are a NotFound-style error at the call
// site; the suite reports the declared names for the message.
func (s *TestSuite) Regression(name string) (*Regression, error) {
	if found, ok := s.Regressions[name]; ok {
		return found, nil
	}
	return nil, fmt.Errorf("could not find regression '%s' (declared: %v)", name, s.regressionOrder)
}

// Reduce removes duplicate tests, keeping the first of each identity.
// A non-zero removal count is reported as a warning.
func (r *Regression) Reduce() {
	var kept []*RegressionTest
	removed := 0
	for _, candidate := range r.Tests {
		duplicate := false
		for _, existing := range kept {
			if candidate.equal(existing) {
				duplicate = true
				break
			}
		}
		if duplicate {
			removed++
			continue
		}
		kept = append(kept, candidate)
	}
	if removed > 0 {
		ui.Warningf("Found %d redundancies in regression '%s'", removed, r.Name)
	}
	r.Tests = kept
}

// EffectiveName derives the regression identifier used in directory and
// history names: "<suite>_<regr>" when the suite was file-qualified.
func (r *Regression) EffectiveName() string {
	if r.Suite.FileQualifier != "" {
		return r.Suite.FileQualifier + "_" + r.Name
	}
	return r.Name
}

// CmpJob builds the shared compile-only job for the regression target.
func (r *Regression) CmpJob() *eda.Job {
	job := r.baseJob()
	job.Compile = true
	job.RawArgs = slices.Clone(r.Suite.CmpArgs)
	return job
}

// ElabJob builds the shared elaborate-only job.
func (r *Regression) ElabJob() *eda.Job {
	job := r.baseJob()
	job.Elaborate = true
	job.RawArgs = slices.Clone(r.Suite.ElabArgs)
	return job
}

// TestJob builds the simulate-only job for one expanded test.
func (r *Regression) TestJob(test *RegressionTest) *eda.Job {
	job := r.baseJob()
	job.Simulate = true
	job.Test = test.Name
	job.Seed = test.Seed
	job.RawArgs = append(slices.Clone(r.Suite.SimArgs), test.Args...)
	if verbosity, ok := r.Suite.Verbosity[r.Name]; ok {
		job.Verbosity = verbosity
	} else {
		job.Verbosity = eda.VerbosityMedium
	}
	return job
}

func (r *Regression) baseJob() *eda.Job {
	return &eda.Job{
		Vendor:              r.Suite.IP.Vendor,
		IPName:              r.Suite.IP.Name,
		Simulator:           r.Suite.Simulator,
		IsRegression:        true,
		RegressionName:      r.EffectiveName(),
		RegressionTimestamp: r.Suite.Timestamp,
		Waves:               slices.Contains(r.Suite.Waves, r.Name),
		Cov:                 slices.Contains(r.Suite.Cov, r.Name),
	}
}
