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

package regr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/errors"
	"github.com/datumtc/mio/internal/ui"
	"github.com/datumtc/mio/pkg/eda"
	"github.com/datumtc/mio/pkg/ip"
	"github.com/datumtc/mio/pkg/sim"
)

// spawnDelay staggers worker starts so simultaneously-starting workers do
// not race on directory creation.
const spawnDelay = 50 * time.Millisecond

// timeoutPoll is the granularity of the wall-clock watcher.
const timeoutPoll = time.Minute

// TestResult is the outcome of one regression test.
type TestResult struct {
	Test *RegressionTest
	Job  *eda.Job
	Err  error
}

// Summary reports one finished regression run.
type Summary struct {
	RegressionName string
	Timestamp      string
	ResultsDir     string
	Duration       time.Duration
	Launched       int
	Failed         int
	Results        []TestResult
}

// JobRunner is the slice of the simulation orchestrator the scheduler
// needs; *sim.Orchestrator satisfies it.
type JobRunner interface {
	Run(ctx context.Context, job *eda.Job) (*ip.IP, error)
	Config() *cfg.Config
	Launcher() *eda.Launcher
}

var _ JobRunner = (*sim.Orchestrator)(nil)

// Scheduler runs regressions through the simulation orchestrator.
type Scheduler struct {
	orch JobRunner
}

// NewScheduler wraps a job runner.
func NewScheduler(orch JobRunner) *Scheduler {
	return &Scheduler{orch: orch}
}

// Run executes one regression: the shared compile and elaborate first,
// then every expanded test under the concurrency cap and the wall-clock
// deadline. Per-test tool failures are recorded, not fatal; a preparation
// failure or a timeout aborts the whole regression.
//
// In dry-run mode no tool runs and no history is written; each test prints
// one dry-run line instead.
func (s *Scheduler) Run(ctx context.Context, regression *Regression, dryRun bool) (*Summary, error) {
	regrMetrics.init()
	suite := regression.Suite
	tests := regression.Tests

	if len(tests) == 0 {
		return nil, errors.InvalidSuite(
			fmt.Sprintf("regression '%s' describes no tests", regression.Name),
			"", nil)
	}
	if regression.MaxDuration <= 0 {
		return nil, errors.InvalidSuite(
			fmt.Sprintf("regression '%s' has no positive 'max-duration'", regression.Name), "", nil)
	}

	name := regression.EffectiveName()
	if suite.FileQualifier == "" {
		ui.Banner(fmt.Sprintf("Running regression '%s': %d test(s) with %v hour(s) timeout",
			regression.Name, len(tests), regression.MaxDuration))
	} else {
		ui.Banner(fmt.Sprintf("Running regression '%s' from test suite '%s': %d test(s) with %v hour(s) timeout",
			regression.Name, suite.FileQualifier, len(tests), regression.MaxDuration))
	}

	startedAt := time.Now()

	// Shared target preparation. A failure here aborts before any test
	// starts.
	prepStart := time.Now()
	cmpJob := regression.CmpJob()
	cmpJob.DryRun = dryRun
	if _, err := s.orch.Run(ctx, cmpJob); err != nil {
		return nil, err
	}
	elabJob := regression.ElabJob()
	elabJob.DryRun = dryRun
	if _, err := s.orch.Run(ctx, elabJob); err != nil {
		return nil, err
	}
	regrMetrics.prepDuration.Observe(time.Since(prepStart).Seconds())

	resultsDir := s.orch.Config().RegrResultsRoot(suite.IP.Name, name, suite.Timestamp)
	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return nil, errors.IOFailure(fmt.Sprintf("cannot create regression results directory %s", resultsDir), err)
	}

	// Wall-clock watcher: polling in coarse intervals keeps cancellation
	// prompt without busy-waiting.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	budget := time.Duration(regression.MaxDuration * float64(time.Hour))
	timedOut := make(chan struct{})
	var watcher sync.WaitGroup
	watcher.Add(1)
	go func() {
		defer watcher.Done()
		deadline := time.NewTimer(budget)
		defer deadline.Stop()
		ticker := time.NewTicker(timeoutPoll)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-deadline.C:
				slog.Debug("regr.timeout", "budget", budget.String())
				close(timedOut)
				cancel()
				return
			case <-ticker.C:
			}
		}
	}()

	// Fan out: one worker per test, gated by the counting semaphore so at
	// most MaxJobs simulations execute a tool at once. Workers observe
	// cancellation before acquiring and before launching.
	sem := semaphore.NewWeighted(int64(regression.MaxJobs))
	group, groupCtx := errgroup.WithContext(runCtx)
	results := make([]TestResult, len(tests))
	bar := newProgressBar(int64(len(tests)), "regression "+name, dryRun)
	launched := 0

	for index, test := range tests {
		job := regression.TestJob(test)
		job.DryRun = dryRun
		results[index] = TestResult{Test: test, Job: job}
		launched++

		group.Go(func() error {
			if err := sem.Acquire(groupCtx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			if groupCtx.Err() != nil {
				return groupCtx.Err()
			}

			if dryRun {
				ui.Info(fmt.Sprintf("  dry-run: test='%s' seed='%d' args='%v' waves='%t' cov='%t'",
					test.Name, test.Seed, test.Args, job.Waves, job.Cov))
				bar.tick()
				return nil
			}

			regrMetrics.testsLaunched.Inc()
			testStart := time.Now()
			_, err := s.orch.Run(groupCtx, job)
			regrMetrics.testDuration.Observe(time.Since(testStart).Seconds())
			if err != nil {
				if errors.Is(err, errors.KindToolFailure) {
					// A failing test does not abort its siblings.
					results[index].Err = err
					regrMetrics.testsFailed.Inc()
					bar.tick()
					return nil
				}
				return err
			}
			regrMetrics.testsPassed.Inc()
			bar.tick()
			return nil
		})

		// Stagger starts; bail out early once cancelled.
		select {
		case <-runCtx.Done():
		case <-time.After(spawnDelay):
		}
		if runCtx.Err() != nil {
			break
		}
	}

	waitErr := group.Wait()
	cancel()
	watcher.Wait()
	bar.finish()

	select {
	case <-timedOut:
		regrMetrics.timeouts.Inc()
		s.orch.Launcher().KillAll()
		return nil, errors.RegressionTimeout(
			fmt.Sprintf("regression '%s' timed out after %v hour(s)", name, regression.MaxDuration))
	default:
	}
	if waitErr != nil {
		s.orch.Launcher().KillAll()
		return nil, waitErr
	}

	summary := &Summary{
		RegressionName: name,
		Timestamp:      suite.Timestamp,
		ResultsDir:     resultsDir,
		Duration:       time.Since(startedAt),
		Launched:       launched,
	}
	for _, result := range results {
		summary.Results = append(summary.Results, result)
		if result.Err != nil {
			summary.Failed++
		}
	}
	return summary, nil
}

// progressBar is a nil-safe wrapper over the counted bar.
type progressBar struct {
	mu  sync.Mutex
	bar interface {
		Add(int) error
		Finish() error
	}
}

func newProgressBar(total int64, description string, dryRun bool) *progressBar {
	p := &progressBar{}
	if !dryRun {
		if b := newSchedulerBar(total, description); b != nil {
			p.bar = b
		}
	}
	return p
}

func (p *progressBar) tick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *progressBar) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
