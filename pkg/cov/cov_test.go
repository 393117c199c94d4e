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

package cov

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/errors"
	"github.com/datumtc/mio/pkg/eda"
	"github.com/datumtc/mio/pkg/history"
	"github.com/datumtc/mio/pkg/ip"
)

// setup builds a project config with a fake xcrg that records its args.
func setup(t *testing.T) (*cfg.Config, *history.Store, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell test")
	}
	projectDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, cfg.ProjectFileName), []byte("project:\n  name: p\n"), 0o644))

	toolHome := filepath.Join(projectDir, "tools")
	require.NoError(t, os.MkdirAll(toolHome, 0o755))
	capture := filepath.Join(projectDir, "xcrg_args.txt")
	script := "#!/bin/sh\necho \"$@\" > " + capture + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(toolHome, "xcrg"), []byte(script), 0o755))

	t.Setenv("MIO_VIVADO_HOME", toolHome)
	c, err := cfg.Load(projectDir)
	require.NoError(t, err)
	require.NoError(t, c.CreateSimDirs())

	store, err := history.Load(c.HistoryFilePath())
	require.NoError(t, err)
	return c, store, capture
}

func targetIP() *ip.IP {
	return &ip.IP{
		Vendor: "acme", Name: "tb",
		Compiled:   make(map[cfg.Simulator]bool),
		Elaborated: make(map[cfg.Simulator]bool),
	}
}

func TestGenReportMergesCoverageRecords(t *testing.T) {
	c, store, capture := setup(t)
	store.AppendSimEnd("acme/tb", history.Record{
		Simulator: "viv", TestName: "smoke", Seed: 1, Cov: true,
		ResultsPath: "/results/smoke_1",
	})
	store.AppendSimEnd("acme/tb", history.Record{
		Simulator: "viv", TestName: "burst", Seed: 2, Cov: false,
		ResultsPath: "/results/burst_2",
	})

	reportPath, err := GenReport(context.Background(), c, store, eda.NewLauncher(), targetIP(), "", "")
	require.NoError(t, err)
	assert.Contains(t, reportPath, filepath.Join("cov", "reports", "tb"))

	args, err := os.ReadFile(capture)
	require.NoError(t, err)
	text := string(args)
	assert.Contains(t, text, "-dir /results/smoke_1/cov")
	assert.Contains(t, text, "-db_name smoke_1")
	assert.NotContains(t, text, "burst_2", "records without coverage are excluded")
	assert.Contains(t, text, "-report_format html")
	assert.True(t, strings.Contains(text, "-merge_db_name acme/tb"))
}

func TestGenReportNoCoverageRecords(t *testing.T) {
	c, store, _ := setup(t)
	_, err := GenReport(context.Background(), c, store, eda.NewLauncher(), targetIP(), "", "")
	assert.True(t, errors.Is(err, errors.KindNotFound))
}
