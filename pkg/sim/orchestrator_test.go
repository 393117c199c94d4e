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

package sim

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/errors"
	"github.com/datumtc/mio/pkg/eda"
	"github.com/datumtc/mio/pkg/flist"
	"github.com/datumtc/mio/pkg/history"
	"github.com/datumtc/mio/pkg/ip"
)

// fakeToolScript behaves like a simulator binary for tests: it creates the
// file following a --log/-l flag and appends its --work/-s value to the
// file named by MIO_TEST_CAPTURE, giving tests an invocation trace.
const fakeToolScript = `#!/bin/sh
prev=""
for a in "$@"; do
  case "$prev" in
    --log|-l) echo "INFO: ok" > "$a" ;;
    --work|-s)
      if [ -n "$MIO_TEST_CAPTURE" ]; then echo "$a" >> "$MIO_TEST_CAPTURE"; fi ;;
  esac
  prev="$a"
done
exit 0
`

// newTestHarness builds a full orchestrator over a temp project with a
// fake Vivado installation.
func newTestHarness(t *testing.T) (*cfg.Config, *ip.Cache, *Orchestrator) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell test")
	}

	projectDir := t.TempDir()
	toolHome := filepath.Join(projectDir, "tools")
	require.NoError(t, os.MkdirAll(toolHome, 0o755))
	for _, tool := range []string{"xvlog", "xvhdl", "xelab", "xsim", "xcrg"} {
		require.NoError(t, os.WriteFile(filepath.Join(toolHome, tool), []byte(fakeToolScript), 0o755))
	}

	body := "project:\n  name: chip\ntools:\n  vivado-home: " + toolHome + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, cfg.ProjectFileName), []byte(body), 0o644))

	c, err := cfg.Load(projectDir)
	require.NoError(t, err)
	require.NoError(t, c.CreateSimDirs())

	cache := ip.NewCache(c)
	store, err := history.Load(c.HistoryFilePath())
	require.NoError(t, err)
	fl, err := flist.New(c)
	require.NoError(t, err)

	return c, cache, New(c, cache, store, fl, eda.NewLauncher())
}

// writeIP writes a minimal descriptor into the project source tree.
func writeIP(t *testing.T, c *cfg.Config, vendor, name string, deps ...string) {
	t.Helper()
	dir := filepath.Join(c.ProjectDir, c.SourceRootDir, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	body := "ip:\n  vendor: " + vendor + "\n  name: " + name +
		"\nhdl-src:\n  directories: [\".\"]\n  top-files: [\"" + name + "_pkg.sv\"]\n  top-constructs: [\"" + name + "_tb\"]\n"
	if len(deps) > 0 {
		body += "dependencies:\n"
		for _, dep := range deps {
			body += "  \"" + dep + "\": \"1.0\"\n"
		}
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ip.yml"), []byte(body), 0o644))
}

func compileJob(ipName string) *eda.Job {
	return &eda.Job{
		IPName:    ipName,
		Simulator: cfg.Vivado,
		Compile:   true,
		Verbosity: eda.VerbosityMedium,
	}
}

// Single compile: one log, state flag set, one history record.
func TestRunSingleCompile(t *testing.T) {
	c, cache, o := newTestHarness(t)
	writeIP(t, c, "acme", "uart")
	require.NoError(t, cache.Scan())
	require.NoError(t, cache.Resolve())

	target, err := o.Run(context.Background(), compileJob("uart"))
	require.NoError(t, err)

	logPath := filepath.Join(c.SimDir, "cmp", "acme__uart.viv.cmp.log")
	_, statErr := os.Stat(logPath)
	assert.NoError(t, statErr)
	assert.True(t, target.Compiled[cfg.Vivado])
	assert.False(t, target.Elaborated[cfg.Vivado])

	records := o.History().Records("acme/uart", history.StageCompile)
	require.Len(t, records, 1)
	assert.Equal(t, "viv", records[0].Simulator)
	assert.Equal(t, logPath, records[0].LogPath)
}

// Dependencies compile leaves-first: bus, dma, then tb.
func TestRunDependencyOrdering(t *testing.T) {
	c, cache, o := newTestHarness(t)
	writeIP(t, c, "acme", "bus")
	writeIP(t, c, "acme", "dma", "acme/bus")
	writeIP(t, c, "acme", "tb", "acme/dma")
	require.NoError(t, cache.Scan())
	require.NoError(t, cache.Resolve())

	capture := filepath.Join(t.TempDir(), "capture.txt")
	t.Setenv("MIO_TEST_CAPTURE", capture)

	_, err := o.Run(context.Background(), compileJob("tb"))
	require.NoError(t, err)

	content, err := os.ReadFile(capture)
	require.NoError(t, err)
	assert.Equal(t,
		"bus="+c.CmpOutDir(cfg.Vivado, "acme", "bus")+"\n"+
			"dma="+c.CmpOutDir(cfg.Vivado, "acme", "dma")+"\n"+
			"tb="+c.CmpOutDir(cfg.Vivado, "acme", "tb")+"\n",
		string(content))

	for _, name := range []string{"bus", "dma", "tb"} {
		assert.Len(t, o.History().Records("acme/"+name, history.StageCompile), 1, name)
	}
}

// Second compile run is a no-op: the state derived from disk marks the IP
// current.
func TestRunCompileTwiceCompilesOnce(t *testing.T) {
	c, cache, o := newTestHarness(t)
	writeIP(t, c, "acme", "uart")
	require.NoError(t, cache.Scan())
	require.NoError(t, cache.Resolve())

	capture := filepath.Join(t.TempDir(), "capture.txt")
	t.Setenv("MIO_TEST_CAPTURE", capture)

	_, err := o.Run(context.Background(), compileJob("uart"))
	require.NoError(t, err)
	_, err = o.Run(context.Background(), compileJob("uart"))
	require.NoError(t, err)

	content, err := os.ReadFile(capture)
	require.NoError(t, err)
	assert.Equal(t, "uart="+c.CmpOutDir(cfg.Vivado, "acme", "uart")+"\n", string(content))
	assert.Len(t, o.History().Records("acme/uart", history.StageCompile), 1)
}

func TestRunCompileElaborateSimulate(t *testing.T) {
	c, cache, o := newTestHarness(t)
	writeIP(t, c, "acme", "uart")
	require.NoError(t, cache.Scan())
	require.NoError(t, cache.Resolve())

	job := compileJob("uart")
	job.Elaborate = true
	job.Simulate = true
	job.Test = "smoke"
	job.Seed = 7
	job.RawArgs = []string{"+NPKTS=10"}

	target, err := o.Run(context.Background(), job)
	require.NoError(t, err)

	assert.True(t, target.Compiled[cfg.Vivado])
	assert.True(t, target.Elaborated[cfg.Vivado])
	assert.Equal(t, "smoke_7_NPKTS_10", job.ResultsDirName)
	assert.DirExists(t, filepath.Join(job.ResultsPath, "trn_log"))

	// Injected UVM plusargs.
	assert.Equal(t, "smoke", job.SimArgs["UVM_TESTNAME"])
	assert.Equal(t, "UVM_MEDIUM", job.SimArgs["UVM_VERBOSITY"])
	assert.Equal(t, "10", job.SimArgs["UVM_MAX_QUIT_COUNT"])
	assert.Equal(t, "10", job.SimArgs["NPKTS"])

	simRecords := o.History().Records("acme/uart", history.StageSim)
	require.Len(t, simRecords, 2)
	assert.Equal(t, history.TypeStart, simRecords[0].Type)
	assert.Equal(t, history.TypeEnd, simRecords[1].Type)
	assert.Equal(t, int64(7), simRecords[1].Seed)

	elabRecords := o.History().Records("acme/uart", history.StageElab)
	require.Len(t, elabRecords, 1)
}

func TestRunCompileErrorAborts(t *testing.T) {
	c, cache, o := newTestHarness(t)
	writeIP(t, c, "acme", "uart")
	require.NoError(t, cache.Scan())
	require.NoError(t, cache.Resolve())

	// A tool that emits an error line into its log.
	badTool := `#!/bin/sh
prev=""
for a in "$@"; do
  if [ "$prev" = "--log" ]; then echo "ERROR: syntax" > "$a"; fi
  prev="$a"
done
`
	require.NoError(t, os.WriteFile(filepath.Join(c.ToolHomes[cfg.Vivado], "xvlog"), []byte(badTool), 0o755))

	target, errRun := o.Run(context.Background(), compileJob("uart"))
	require.Error(t, errRun)
	assert.True(t, errors.Is(errRun, errors.KindToolFailure))
	assert.Contains(t, errRun.(*errors.UserError).Cause, "ERROR: syntax")
	assert.Nil(t, target)

	// No history record for the failed stage.
	assert.Empty(t, o.History().Records("acme/uart", history.StageCompile))
}

func TestRunMissingDependenciesNonInteractive(t *testing.T) {
	c, cache, o := newTestHarness(t)
	writeIP(t, c, "acme", "tb", "acme/ghost")
	require.NoError(t, cache.Scan())
	// Resolve would fail; orchestrator reports the missing set instead.
	o.Stdin = nil

	_, err := o.Run(context.Background(), compileJob("tb"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindMissingDependencies))
	assert.Contains(t, err.(*errors.UserError).Cause, "acme/ghost")
}

func TestRunUnknownSimulatorNotInstalled(t *testing.T) {
	c, cache, o := newTestHarness(t)
	writeIP(t, c, "acme", "uart")
	require.NoError(t, cache.Scan())
	require.NoError(t, cache.Resolve())

	job := compileJob("uart")
	job.Simulator = cfg.Questa // no questa home configured
	_, err := o.Run(context.Background(), job)
	assert.True(t, errors.Is(err, errors.KindSimulatorNotInstalled))
}

func TestRunAmbiguousIPIsFatal(t *testing.T) {
	c, cache, o := newTestHarness(t)
	writeIP(t, c, "acme", "uart")
	dir := filepath.Join(c.ProjectDir, c.SourceRootDir, "uart2")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ip.yml"),
		[]byte("ip:\n  vendor: globex\n  name: uart\n"), 0o644))
	require.NoError(t, cache.Scan())
	require.NoError(t, cache.Resolve())

	_, err := o.Run(context.Background(), compileJob("uart"))
	assert.True(t, errors.Is(err, errors.KindAmbiguous))
}

func TestRunDryRunLeavesNoHistory(t *testing.T) {
	c, cache, o := newTestHarness(t)
	writeIP(t, c, "acme", "uart")
	require.NoError(t, cache.Scan())
	require.NoError(t, cache.Resolve())

	job := compileJob("uart")
	job.Elaborate = true
	job.Simulate = true
	job.Test = "smoke"
	job.Seed = 1
	job.DryRun = true

	_, err := o.Run(context.Background(), job)
	require.NoError(t, err)
	assert.Empty(t, o.History().Records("acme/uart", history.StageCompile))
	assert.Empty(t, o.History().Records("acme/uart", history.StageSim))

	_, statErr := os.Stat(c.CmpLogPath("acme", "uart", cfg.Vivado))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFsocPseudoIP(t *testing.T) {
	core := &ip.FsocCore{Name: "acme:ip:core:1.0", SName: "core", Dir: "/work/core"}
	pseudo := FsocPseudoIP(core, cfg.Vivado, "/tmp/core.flist")
	assert.Equal(t, "@fsoc/core", pseudo.Ident())
	assert.Equal(t, "@fsoc__core", pseudo.DirName())
	assert.Equal(t, "/tmp/core.flist", pseudo.HDL.Flists[cfg.Vivado])
}
