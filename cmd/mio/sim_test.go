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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/pkg/eda"
)

func resetSimFlags() {
	simFlags.test = ""
	simFlags.seed = 0
	simFlags.verbosity = "medium"
	simFlags.maxErrors = 10
	simFlags.app = ""
	simFlags.waves = false
	simFlags.cov = false
	simFlags.gui = false
	simFlags.simulate = false
	simFlags.elaborate = false
	simFlags.compile = false
	simFlags.fsoc = false
	simFlags.dryRun = false
	simFlags.args = nil
}

func testConfig() *cfg.Config {
	return &cfg.Config{DefaultSimulator: cfg.Vivado}
}

func TestBuildSimJobDefaultsToFullPipeline(t *testing.T) {
	resetSimFlags()
	job, err := buildSimJob(testConfig(), "acme/uart")
	require.NoError(t, err)

	assert.Equal(t, "acme", job.Vendor)
	assert.Equal(t, "uart", job.IPName)
	assert.Equal(t, cfg.Vivado, job.Simulator)
	assert.True(t, job.Compile)
	assert.True(t, job.Elaborate)
	assert.True(t, job.Simulate)
	assert.GreaterOrEqual(t, job.Seed, int64(eda.MinSeed))
	assert.LessOrEqual(t, job.Seed, int64(eda.MaxSeed))
	assert.Equal(t, eda.VerbosityMedium, job.Verbosity)
}

func TestBuildSimJobStageLetters(t *testing.T) {
	resetSimFlags()
	simFlags.compile = true

	job, err := buildSimJob(testConfig(), "uart")
	require.NoError(t, err)
	assert.True(t, job.Compile)
	assert.False(t, job.Elaborate)
	assert.False(t, job.Simulate)
	assert.Empty(t, job.Vendor)
}

func TestBuildSimJobSimulatorOverride(t *testing.T) {
	resetSimFlags()
	simFlags.app = "qst"

	job, err := buildSimJob(testConfig(), "uart")
	require.NoError(t, err)
	assert.Equal(t, cfg.Questa, job.Simulator)

	simFlags.app = "bogus"
	_, err = buildSimJob(testConfig(), "uart")
	assert.Error(t, err)
}

func TestBuildSimJobSeedValidation(t *testing.T) {
	resetSimFlags()
	simFlags.seed = -5
	_, err := buildSimJob(testConfig(), "uart")
	assert.Error(t, err)

	resetSimFlags()
	simFlags.seed = eda.MaxSeed + 1
	_, err = buildSimJob(testConfig(), "uart")
	assert.Error(t, err)

	resetSimFlags()
	simFlags.seed = 42
	job, err := buildSimJob(testConfig(), "uart")
	require.NoError(t, err)
	assert.Equal(t, int64(42), job.Seed)
}

func TestBuildSimJobBadVerbosity(t *testing.T) {
	resetSimFlags()
	simFlags.verbosity = "loud"
	_, err := buildSimJob(testConfig(), "uart")
	assert.Error(t, err)
}
