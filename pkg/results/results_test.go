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

package results

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/errors"
	"github.com/datumtc/mio/pkg/history"
)

func testConfig(t *testing.T) *cfg.Config {
	t.Helper()
	return &cfg.Config{SimResultsDir: t.TempDir()}
}

func writeSimLog(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sim.log")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	return path
}

func seedHistory(t *testing.T, passLog, failLog string) *history.Store {
	t.Helper()
	store, err := history.Load(filepath.Join(t.TempDir(), "job_history.yml"))
	require.NoError(t, err)
	store.AppendSimEnd("acme/tb", history.Record{
		Simulator: "viv", TestName: "smoke", Seed: 1, LogPath: passLog,
		RegressionName: "sanity", RegressionTimestamp: "ts1",
	})
	store.AppendSimEnd("acme/tb", history.Record{
		Simulator: "viv", TestName: "burst", Seed: 2, LogPath: failLog,
		RegressionName: "sanity", RegressionTimestamp: "ts1",
	})
	return store
}

func TestGenerateReports(t *testing.T) {
	c := testConfig(t)
	passLog := writeSimLog(t, "UVM_INFO @ 0: starting\nUVM_ERROR :    0\n--- UVM Report Summary ---\n")
	failLog := writeSimLog(t, "UVM_INFO @ 0: starting\nUVM_ERROR @ 120ns: checker mismatch\n")
	store := seedHistory(t, passLog, failLog)

	report, err := Generate(c, store, "acme/tb", "sim_results", "", "")
	require.NoError(t, err)

	assert.Equal(t, 1, report.NumPassed)
	assert.Equal(t, 1, report.NumFailed)
	assert.False(t, report.Passed())
	assert.InDelta(t, 50.0, report.PctPassed(), 0.01)

	html, err := os.ReadFile(report.HTMLPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "PASSED")
	assert.Contains(t, string(html), "FAILED")
	assert.Equal(t, filepath.Join(c.SimResultsDir, "sim_results.html"), report.HTMLPath)

	xmlBody, err := os.ReadFile(report.XMLPath)
	require.NoError(t, err)
	assert.Contains(t, string(xmlBody), `tests="2"`)
	assert.Contains(t, string(xmlBody), `failures="1"`)
	assert.Contains(t, string(xmlBody), "checker mismatch")
	assert.Contains(t, string(xmlBody), `name="smoke_1"`)
}

func TestGenerateMissingLogCountsAsFailure(t *testing.T) {
	c := testConfig(t)
	store, err := history.Load(filepath.Join(t.TempDir(), "job_history.yml"))
	require.NoError(t, err)
	store.AppendSimEnd("acme/tb", history.Record{
		Simulator: "viv", TestName: "smoke", Seed: 1, LogPath: "/nonexistent/sim.log",
	})

	report, err := Generate(c, store, "acme/tb", "r", "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, report.NumFailed)
}

func TestGenerateNoRecords(t *testing.T) {
	c := testConfig(t)
	store, err := history.Load(filepath.Join(t.TempDir(), "job_history.yml"))
	require.NoError(t, err)

	_, err = Generate(c, store, "acme/tb", "r", "", "")
	assert.True(t, errors.Is(err, errors.KindNotFound))
}

func TestGenerateRegressionFilter(t *testing.T) {
	c := testConfig(t)
	passLog := writeSimLog(t, "clean run\n")
	store := seedHistory(t, passLog, passLog)
	store.AppendSimEnd("acme/tb", history.Record{
		Simulator: "viv", TestName: "other", Seed: 9, LogPath: passLog,
		RegressionName: "nightly", RegressionTimestamp: "ts2",
	})

	report, err := Generate(c, store, "acme/tb", "r", "sanity", "ts1")
	require.NoError(t, err)
	assert.Len(t, report.Outcomes, 2)
}

func TestUVMFatalFails(t *testing.T) {
	c := testConfig(t)
	fatalLog := writeSimLog(t, "UVM_FATAL @ 10ns: cannot continue\n")
	store, err := history.Load(filepath.Join(t.TempDir(), "job_history.yml"))
	require.NoError(t, err)
	store.AppendSimEnd("acme/tb", history.Record{Simulator: "viv", TestName: "t", Seed: 1, LogPath: fatalLog})

	report, err := Generate(c, store, "acme/tb", "r", "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, report.NumFailed)
}
