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
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/errors"
	"github.com/datumtc/mio/internal/ui"
	"github.com/datumtc/mio/pkg/cov"
	"github.com/datumtc/mio/pkg/regr"
	"github.com/datumtc/mio/pkg/results"
)

var regrFlags struct {
	dryRun      bool
	app         string
	metricsAddr string
}

var regrCmd = &cobra.Command{
	Use:   "regr IP [SUITE.]REGR",
	Short: "Runs regression against an IP",
	Long: `Runs a set of tests against a specific IP. Regressions are described in
Test Suite files ([<name>.]ts.yml) under the IP's tests path.`,
	Example: `  mio regr uvmt_my_ip sanity
  mio regr uvmt_my_ip apb_xc.sanity
  mio regr uvmt_my_ip axi_xc.sanity -d`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runRegr(args[0], args[1])
	},
}

func init() {
	regrCmd.Flags().BoolVarP(&regrFlags.dryRun, "dry-run", "d", false, "Compile and elaborate nothing; only print the tests that would run")
	regrCmd.Flags().StringVarP(&regrFlags.app, "app", "a", "", "Simulator application: viv, mdc, vcs, xcl, qst, riv")
	regrCmd.Flags().StringVar(&regrFlags.metricsAddr, "metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	rootCmd.AddCommand(regrCmd)
}

func runRegr(ipIdent, regrIdent string) {
	a, ctx, cancel, err := newApp()
	if err != nil {
		fatalStartup(err)
	}
	defer cancel()
	defer a.close()

	target, err := a.resolveTarget(ipIdent)
	if err != nil {
		a.fatal(err)
	}
	if missing := a.cache.MissingDeps(target); len(missing) > 0 {
		a.fatal(errors.MissingDependencies(
			fmt.Sprintf("you must first install this IP's dependencies (%d)", len(missing)),
			strings.Join(missing, ", "),
			fmt.Sprintf("Run 'mio install %s'", target.Name)))
	}

	simulator := a.cfg.DefaultSimulator
	if regrFlags.app != "" {
		if simulator, err = cfg.ParseSimulator(regrFlags.app); err != nil {
			a.fatal(err)
		}
	}

	// "[SUITE.]REGR": a dotted identifier selects a qualified suite file.
	suiteQualifier := ""
	regrName := regrIdent
	if idx := strings.Index(regrIdent, "."); idx >= 0 {
		suiteQualifier = regrIdent[:idx]
		regrName = regrIdent[idx+1:]
	}
	regrName = strings.ToLower(strings.TrimSpace(regrName))

	suitePath, err := regr.FindSuiteFile(target, simulator, suiteQualifier)
	if err != nil {
		a.fatal(err)
	}
	suite, err := regr.ParseSuiteFile(target, simulator, suitePath, suiteQualifier, time.Now())
	if err != nil {
		a.fatal(err)
	}
	regression, err := suite.Regression(regrName)
	if err != nil {
		a.fatal(errors.NotFound(err.Error(), "", "Check the regression name against the suite descriptor"))
	}
	regression.Reduce()

	if regrFlags.metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			slog.Info("metrics.http.start", "addr", regrFlags.metricsAddr, "path", "/metrics")
			server := &http.Server{Addr: regrFlags.metricsAddr, Handler: mux}
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	scheduler := regr.NewScheduler(a.orch)
	summary, err := scheduler.Run(ctx, regression, regrFlags.dryRun)
	if err != nil {
		a.fatal(err)
	}
	if regrFlags.dryRun {
		return
	}

	report, err := results.Generate(a.cfg, a.store, target.Ident(),
		fmt.Sprintf("%s_%s_%s", target.Name, summary.RegressionName, summary.Timestamp),
		summary.RegressionName, summary.Timestamp)
	if err != nil {
		a.fatal(err)
	}
	covReportPath, covErr := cov.GenReport(ctx, a.cfg, a.store, a.orch.Launcher(), target,
		summary.RegressionName, summary.Timestamp)
	if covErr != nil {
		// Coverage is optional: regressions without coverage capture
		// simply have no report.
		slog.Debug("regr.cov.skipped", "err", covErr)
		covReportPath = "(no coverage captured)"
	}

	printRegrSummary(summary, report, covReportPath)
}

// printRegrSummary renders the end-of-regression banner.
func printRegrSummary(summary *regr.Summary, report *results.Report, covReportPath string) {
	hours := int(summary.Duration.Hours())
	minutes := int(summary.Duration.Minutes()) % 60
	seconds := int(math.Ceil(summary.Duration.Seconds())) % 60
	durationStr := fmt.Sprintf("%d hour(s), %d minute(s), %d second(s)", hours, minutes, seconds)

	if report.Passed() {
		ui.Banner(fmt.Sprintf("'%s' regression PASSED", summary.RegressionName))
		ui.Info("  Duration: " + durationStr)
	} else {
		ui.Banner(fmt.Sprintf("'%s' regression FAILED: %d failure(s)", summary.RegressionName, report.NumFailed))
		ui.Info("  Duration      : " + durationStr)
		ui.Info(fmt.Sprintf("  # tests passed: %d", report.NumPassed))
		ui.Info(fmt.Sprintf("  Passing rate  : %.1f %%", report.PctPassed()))
	}
	fmt.Println()
	ui.Info("  HTML report      : firefox " + report.HTMLPath + " &")
	ui.Info("  Coverage report  : pushd   " + covReportPath)
	ui.Info("  Results directory: pushd   " + summary.ResultsDir)
}
