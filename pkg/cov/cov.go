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

// Package cov merges coverage databases and generates reports.
//
// Merging walks the job history for simulation records that captured
// coverage and hands their databases to the simulator's merge tool (xcrg;
// only the Vivado flow is implemented, matching the simulate-side support).
package cov

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/errors"
	"github.com/datumtc/mio/pkg/eda"
	"github.com/datumtc/mio/pkg/history"
	"github.com/datumtc/mio/pkg/ip"
)

// GenReport merges every coverage database recorded for target and
// renders an HTML report. For a regression, pass the regression's
// effective name and timestamp; the report then lands inside the
// regression results tree.
func GenReport(ctx context.Context, c *cfg.Config, store *history.Store, launcher *eda.Launcher, target *ip.IP, regressionName, regressionTimestamp string) (string, error) {
	ident := target.Ident()

	var mergePath, reportPath string
	if regressionName != "" {
		root := c.RegrResultsRoot(target.Name, regressionName, regressionTimestamp)
		mergePath = filepath.Join(root, "cov", "merge")
		reportPath = filepath.Join(root, "cov", "report")
	} else {
		mergePath = filepath.Join(c.SimDir, "cov", "merge", target.Name)
		reportPath = filepath.Join(c.SimDir, "cov", "reports", target.Name)
	}
	for _, dir := range []string{mergePath, reportPath} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", errors.IOFailure(fmt.Sprintf("cannot create coverage directory %s", dir), err)
		}
	}

	records := store.SimEndRecords(ident, regressionName, regressionTimestamp)
	args := []string{}
	found := 0
	for _, rec := range records {
		if rec.Simulator != cfg.Vivado.Short() || !rec.Cov {
			continue
		}
		args = append(args, "-dir", filepath.Join(rec.ResultsPath, "cov"))
		args = append(args, "-db_name", fmt.Sprintf("%s_%d", rec.TestName, rec.Seed))
		found++
	}
	if found == 0 {
		return "", errors.NotFound(
			fmt.Sprintf("no record of coverage-enabled simulations for IP '%s'", ident),
			"the job history holds no simulation end records with coverage capture",
			"Run 'mio sim -c' or enable 'cov' for the regression")
	}

	args = append(args, "-merge_dir", mergePath, "-merge_db_name", ident)
	args = append(args, "-report_format", "html", "-report_dir", reportPath)

	if _, err := launcher.Launch(ctx, eda.LaunchSpec{
		Path: filepath.Join(c.ToolHomes[cfg.Vivado], "xcrg"),
		Args: args,
		WD:   c.CovWD(cfg.Vivado),
	}); err != nil {
		return "", err
	}
	return reportPath, nil
}
