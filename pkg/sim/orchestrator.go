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

// Package sim drives one simulation job through its stages.
//
// The orchestrator resolves the target IP, verifies the simulator
// installation, and runs exactly the stages the job requests: dependencies
// compile in topological order, the DUT and target follow, elaboration and
// simulation close the pipeline. Already-current stages are skipped based
// on the per-simulator state flags. The job-history store supplies runtime
// estimates that drive a progress bar while a tool runs.
package sim

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/errors"
	"github.com/datumtc/mio/internal/ui"
	"github.com/datumtc/mio/pkg/doctor"
	"github.com/datumtc/mio/pkg/eda"
	"github.com/datumtc/mio/pkg/flist"
	"github.com/datumtc/mio/pkg/history"
	"github.com/datumtc/mio/pkg/ip"
)

// Installer fetches missing dependency IPs (the marketplace collaborator).
type Installer func(target *ip.IP, missing []string, global bool) error

// Orchestrator drives simulation jobs for one project.
type Orchestrator struct {
	cfg      *cfg.Config
	cache    *ip.Cache
	store    *history.Store
	fl       *flist.Synthesizer
	launcher *eda.Launcher

	// Install handles missing dependencies when stdin is interactive.
	// When nil, missing dependencies are fatal.
	Install Installer

	// Stdin is consulted for interactive prompts; defaults to os.Stdin.
	Stdin *os.File
}

// New creates an orchestrator over the project's collaborators.
func New(c *cfg.Config, cache *ip.Cache, store *history.Store, fl *flist.Synthesizer, launcher *eda.Launcher) *Orchestrator {
	return &Orchestrator{
		cfg:      c,
		cache:    cache,
		store:    store,
		fl:       fl,
		launcher: launcher,
		Stdin:    os.Stdin,
	}
}

// Launcher exposes the process launcher (for exit hooks).
func (o *Orchestrator) Launcher() *eda.Launcher { return o.launcher }

// Config exposes the project configuration.
func (o *Orchestrator) Config() *cfg.Config { return o.cfg }

// History exposes the job-history store.
func (o *Orchestrator) History() *history.Store { return o.store }

// workspaceIniter is implemented by drivers needing a one-time workspace
// side effect (Metrics).
type workspaceIniter interface {
	InitWorkspace(ctx context.Context) error
}

// Run drives one job and returns the resolved target IP.
func (o *Orchestrator) Run(ctx context.Context, job *eda.Job) (*ip.IP, error) {
	slog.Debug("sim.run", "ip", job.Ident(), "simulator", job.Simulator.Short(),
		"compile", job.Compile, "elaborate", job.Elaborate, "simulate", job.Simulate)

	target, err := o.cache.Find(job.Ident(), true)
	if err != nil {
		return nil, err
	}

	if err := doctor.CheckSimulator(o.cfg, job.Simulator); err != nil {
		return nil, err
	}

	driver := eda.NewDriver(job.Simulator, o.cfg, o.fl, o.launcher)
	if initer, ok := driver.(workspaceIniter); ok && !job.DryRun {
		if err := initer.InitWorkspace(ctx); err != nil {
			return nil, err
		}
	}

	job.ParseRawArgs()
	if err := o.cfg.CreateSimDirs(); err != nil {
		return nil, errors.IOFailure("cannot create simulation directories", err)
	}
	// Simulate-only jobs run concurrently inside a regression; they must
	// not touch the shared per-IP state.
	if job.Compile || job.Elaborate {
		target.RefreshState(o.cfg)
	}

	compiledCount := 0
	if job.Compile {
		compiledCount, err = o.compileAll(ctx, driver, target, job)
		if err != nil {
			return nil, err
		}
	}

	needsElab := !target.Elaborated[job.Simulator] || compiledCount > 0
	switch {
	case job.Elaborate && needsElab:
		if job.IsRegression {
			ui.Info(fmt.Sprintf("Elaborating IP '%s'", target.Ident()))
		} else {
			ui.Banner(fmt.Sprintf("Elaborating IP '%s'", target.Ident()))
		}
		if err := o.elaborate(ctx, driver, target, job); err != nil {
			return nil, err
		}
	case !job.Simulate && !job.IsRegression && job.Compile:
		printEndOfCompilation(o.cfg, target, job)
	}

	if job.Simulate {
		if job.GUI && job.Simulator == cfg.Metrics {
			ui.Warning("The Metrics Cloud Simulator does not support GUI mode")
		}
		if !job.IsRegression {
			ui.Banner(fmt.Sprintf("Simulating IP '%s'", target.Ident()))
		}
		if err := o.simulate(ctx, driver, target, job); err != nil {
			return nil, err
		}
		if !job.IsRegression {
			if job.Compile {
				printEndOfCompilation(o.cfg, target, job)
			}
			if job.Elaborate {
				printEndOfElaboration(o.cfg, target, job)
			}
			printEndOfSimulation(o.cfg, target, job)
		}
	} else if job.Elaborate && !job.IsRegression {
		if job.Compile {
			printEndOfCompilation(o.cfg, target, job)
		}
		printEndOfElaboration(o.cfg, target, job)
	}

	return target, nil
}

// compileAll compiles the target's whole cone: missing-dependency check,
// dependencies in topological order, the DUT, then the target itself.
// Returns the number of IPs actually compiled.
func (o *Orchestrator) compileAll(ctx context.Context, driver eda.Driver, target *ip.IP, job *eda.Job) (int, error) {
	if missing := o.cache.MissingDeps(target); len(missing) > 0 {
		if err := o.installMissing(target, missing); err != nil {
			return 0, err
		}
	}

	deps, err := o.cache.OrderedDeps(target)
	if err != nil {
		return 0, err
	}

	count := 0
	var toCompile []*ip.IP
	for _, dep := range deps {
		if !dep.Compiled[job.Simulator] {
			toCompile = append(toCompile, dep)
		}
	}
	if len(toCompile) > 0 {
		if !job.IsRegression {
			if len(toCompile) == 1 {
				ui.Banner("Compiling 1 dependency")
			} else {
				ui.Banner(fmt.Sprintf("Compiling %d dependencies", len(toCompile)))
			}
		}
		bar := newCountBar(int64(len(toCompile)), "compiling dependencies")
		for _, dep := range toCompile {
			if bar != nil {
				bar.Describe(dep.Ident())
			}
			if err := o.compileOne(ctx, driver, dep, job, false); err != nil {
				return count, err
			}
			count++
			if bar != nil {
				_ = bar.Add(1)
			}
		}
		if bar != nil {
			_ = bar.Finish()
		}
	}

	if target.HasDUT() {
		compiled, err := o.compileDUT(ctx, driver, target, job)
		if err != nil {
			return count, err
		}
		if compiled {
			count++
		}
	}

	if !target.Compiled[job.Simulator] {
		if !job.IsRegression {
			ui.Banner(fmt.Sprintf("Compiling IP '%s'", target.Ident()))
		}
		if err := o.compileOne(ctx, driver, target, job, true); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// compileOne compiles a single IP, scanning its log and recording history.
// showEstimate drives the history-estimated progress bar.
func (o *Orchestrator) compileOne(ctx context.Context, driver eda.Driver, target *ip.IP, job *eda.Job, showEstimate bool) error {
	ident := target.Ident()
	slog.Debug("sim.compile", "ip", ident)

	stop := func() {}
	if showEstimate && !job.DryRun {
		stop = timedBar(o.store.EstimateDuration(ident, history.StageCompile), "compiling "+ident)
	}
	defer stop()

	deps, err := o.depsForArgs(target)
	if err != nil {
		return err
	}

	start := nowHistory()
	outcome, err := driver.Compile(ctx, target, deps, job)
	if err != nil {
		return err
	}
	end := nowHistory()
	stop()

	job.CmpLogPath = outcome.LogPath
	job.Commands = append(job.Commands, outcome.Commands...)
	if job.DryRun {
		return nil
	}
	if err := eda.CheckLog("compilation", ident, outcome.LogPath, driver.CmpLogPatterns()); err != nil {
		return err
	}
	o.store.Append(ident, history.StageCompile, history.Record{
		Simulator:      job.Simulator.Short(),
		TimestampStart: start,
		TimestampEnd:   end,
		LogPath:        outcome.LogPath,
	})
	target.MarkCompiled(job.Simulator)
	return nil
}

// compileDUT compiles the DUT binding when it is stale: a FuseSoC core is
// converted then compiled, a local DUT IP always recompiles, an external
// one only when missing.
func (o *Orchestrator) compileDUT(ctx context.Context, driver eda.Driver, target *ip.IP, job *eda.Job) (bool, error) {
	dut := target.DUT
	if dut.Kind == ip.DUTFsoc {
		return o.compileFsocDUT(ctx, driver, target, job)
	}

	dutIP := dut.Target
	if dutIP == nil {
		return false, errors.NotFound(
			fmt.Sprintf("did not resolve DUT dependency '%s/%s' of IP '%s'", dut.Vendor, dut.Name, target.Ident()),
			"", "")
	}
	needsCompile := dutIP.IsLocal || !dutIP.Compiled[job.Simulator]
	if !needsCompile {
		ui.Info(fmt.Sprintf("Skipping compilation of DUT IP '%s'", dutIP.Ident()))
		return false, nil
	}

	ui.Info(fmt.Sprintf("Compiling DUT IP '%s'", dutIP.Ident()))
	stop := func() {}
	if !job.DryRun {
		stop = timedBar(o.store.EstimateDuration(dutIP.Ident(), history.StageCompile), "compiling "+dutIP.Ident())
	}
	defer stop()
	if err := o.compileOne(ctx, driver, dutIP, job, false); err != nil {
		return false, err
	}
	return true, nil
}

// compileFsocDUT runs FuseSoC setup for the DUT core and compiles its
// converted filelist into the @fsoc library namespace.
func (o *Orchestrator) compileFsocDUT(ctx context.Context, driver eda.Driver, target *ip.IP, job *eda.Job) (bool, error) {
	core := o.cache.GetCore(target.DUT.FsocFullName)
	if core == nil {
		return false, errors.NotFound(
			fmt.Sprintf("could not find DUT FuseSoC core '%s'", target.DUT.FsocFullName),
			"the core is not registered in the project",
			"Check 'dut.full-name' in the IP descriptor")
	}
	if core.Installed && !job.Fsoc {
		ui.Info(fmt.Sprintf("Skipping installation of DUT FuseSoC core '%s'", core.Name))
		return false, nil
	}

	flistPath, err := eda.InvokeFsoc(ctx, o.cfg, o.launcher, o.fl, target, core, job)
	if err != nil {
		return false, err
	}
	core.Installed = true

	pseudo := FsocPseudoIP(core, job.Simulator, flistPath)
	start := nowHistory()
	outcome, err := driver.Compile(ctx, pseudo, nil, job)
	if err != nil {
		return false, err
	}
	end := nowHistory()
	if job.DryRun {
		return true, nil
	}
	if err := eda.CheckLog("compilation", core.Name, outcome.LogPath, driver.CmpLogPatterns()); err != nil {
		return false, err
	}
	o.store.Append(core.Name, history.StageCompile, history.Record{
		Simulator:      job.Simulator.Short(),
		TimestampStart: start,
		TimestampEnd:   end,
		LogPath:        outcome.LogPath,
	})
	return true, nil
}

// FsocPseudoIP wraps a FuseSoC core as an IP handle in the @fsoc vendor
// namespace so the driver layer can compile and bind it like any library.
func FsocPseudoIP(core *ip.FsocCore, sim cfg.Simulator, flistPath string) *ip.IP {
	return &ip.IP{
		Vendor:  ip.VendorFsoc,
		Name:    core.SName,
		Path:    core.Dir,
		SrcPath: ".",
		HDL: ip.HDLSource{
			Flists: map[cfg.Simulator]string{sim: flistPath},
		},
		Compiled:   make(map[cfg.Simulator]bool),
		Elaborated: make(map[cfg.Simulator]bool),
	}
}

// elaborate runs the elaboration (or fused gen-image) stage.
func (o *Orchestrator) elaborate(ctx context.Context, driver eda.Driver, target *ip.IP, job *eda.Job) error {
	ident := target.Ident()
	stage := history.StageElab
	if driver.FusedGenImage() {
		stage = history.StageGenImage
	}

	stop := func() {}
	if !job.DryRun {
		stop = timedBar(o.store.EstimateDuration(ident, stage), "elaborating "+ident)
	}
	defer stop()

	wd := o.elabWD(target, job)
	if err := os.MkdirAll(wd, 0o755); err != nil {
		return errors.IOFailure(fmt.Sprintf("cannot create elaboration directory %s", wd), err)
	}

	deps, err := o.depsForArgs(target)
	if err != nil {
		return err
	}

	start := nowHistory()
	var outcome *eda.StageOutcome
	if driver.FusedGenImage() {
		outcome, err = driver.GenImage(ctx, target, deps, job, wd)
	} else {
		outcome, err = driver.Elaborate(ctx, target, deps, job, wd)
	}
	if err != nil {
		return err
	}
	end := nowHistory()
	stop()

	job.ElabLogPath = outcome.LogPath
	job.Commands = append(job.Commands, outcome.Commands...)
	if job.DryRun {
		return nil
	}
	if err := eda.CheckLog("elaboration", ident, outcome.LogPath, driver.ElabLogPatterns()); err != nil {
		return err
	}
	o.store.Append(ident, stage, history.Record{
		Simulator:           job.Simulator.Short(),
		TimestampStart:      start,
		TimestampEnd:        end,
		LogPath:             outcome.LogPath,
		IsRegression:        job.IsRegression,
		RegressionName:      job.RegressionName,
		RegressionTimestamp: job.RegressionTimestamp,
	})
	target.MarkElaborated(job.Simulator)
	return nil
}

// simulate prepares the results directory, injects the standard UVM
// plusargs and runs the test, bracketing it with history records.
func (o *Orchestrator) simulate(ctx context.Context, driver eda.Driver, target *ip.IP, job *eda.Job) error {
	ident := target.Ident()

	testName, err := renderTemplate("test-name", target.HDL.TestNameTemplate, testNameData{Name: job.Test})
	if err != nil {
		return err
	}

	// The result directory renders from the plusargs as given, before the
	// standard UVM arguments are injected.
	args := job.PlusArgsAsFlags()
	resultDir, err := renderTemplate("test-results-path", o.cfg.TestResultsPathTemplate, resultDirData{
		IPVendor:    target.Vendor,
		IPName:      target.Name,
		TestName:    job.Test,
		Seed:        job.Seed,
		Args:        args,
		ArgsPresent: len(args) > 0,
	})
	if err != nil {
		return err
	}
	resultDir = sanitizeDirName(resultDir)

	var resultsPath string
	if job.IsRegression {
		resultsPath = filepath.Join(
			o.cfg.RegrResultsRoot(target.Name, job.RegressionName, job.RegressionTimestamp), resultDir)
	} else {
		resultsPath = o.cfg.TestResultsDir(resultDir)
	}
	if err := os.MkdirAll(filepath.Join(resultsPath, "trn_log"), 0o755); err != nil {
		return errors.IOFailure(fmt.Sprintf("cannot create results directory %s", resultsPath), err)
	}
	job.ResultsPath = resultsPath
	job.ResultsDirName = resultDir

	maxErrors := job.MaxErrors
	if maxErrors <= 0 {
		maxErrors = o.cfg.MaxErrors
	}
	verbosity := job.Verbosity
	if verbosity == "" {
		verbosity = eda.VerbosityMedium
	}
	job.SimArgs["UVM_TESTNAME"] = testName
	job.SimArgs["UVM_NO_RELNOTES"] = ""
	job.SimArgs["UVM_VERBOSITY"] = verbosity.UVM()
	job.SimArgs["UVM_MAX_QUIT_COUNT"] = fmt.Sprintf("%d", maxErrors)
	job.SimArgs["UVMX_FILE_BASE_DIR_SIM"] = o.cfg.SimDir
	job.SimArgs["UVMX_FILE_BASE_DIR_TB"] = target.SrcDir(job.Simulator)
	job.SimArgs["UVMX_FILE_BASE_DIR_TESTS"] = filepath.Join(target.SrcDir(job.Simulator), target.HDL.TestsPath)
	job.SimArgs["UVMX_FILE_BASE_DIR_TEST_RESULTS"] = resultsPath

	if !job.DryRun {
		o.store.AppendSimStart(ident, history.Record{
			Simulator:           job.Simulator.Short(),
			Timestamp:           nowHistory(),
			TestName:            job.Test,
			Seed:                job.Seed,
			Args:                job.PlusArgsString(),
			Waves:               job.Waves,
			Cov:                 job.Cov,
			GUI:                 job.GUI,
			IsRegression:        job.IsRegression,
			RegressionName:      job.RegressionName,
			RegressionTimestamp: job.RegressionTimestamp,
		})
	}

	start := nowHistory()
	outcome, err := driver.Simulate(ctx, target, job, o.elabWD(target, job))
	if err != nil {
		return err
	}
	job.SimLogPath = outcome.LogPath
	job.Commands = append(job.Commands, outcome.Commands...)

	if !job.DryRun {
		o.store.AppendSimEnd(ident, history.Record{
			Simulator:           job.Simulator.Short(),
			TimestampStart:      start,
			TimestampEnd:        nowHistory(),
			LogPath:             outcome.LogPath,
			TestName:            job.Test,
			Seed:                job.Seed,
			Args:                job.PlusArgsString(),
			Waves:               job.Waves,
			Cov:                 job.Cov,
			GUI:                 job.GUI,
			ResultsPath:         resultsPath,
			IsRegression:        job.IsRegression,
			RegressionName:      job.RegressionName,
			RegressionTimestamp: job.RegressionTimestamp,
		})
	}
	return nil
}

// elabWD returns the elaboration/simulation working directory for the job.
func (o *Orchestrator) elabWD(target *ip.IP, job *eda.Job) string {
	if job.IsRegression {
		return o.cfg.RegrWD(job.Simulator, target.Vendor, target.Name, job.RegressionName, job.RegressionTimestamp)
	}
	return o.cfg.SimWD(job.Simulator)
}

// depsForArgs builds the dependency list handed to drivers: the DUT first
// (when bound), then the transitive dependencies in compile order.
func (o *Orchestrator) depsForArgs(target *ip.IP) ([]*ip.IP, error) {
	var out []*ip.IP
	if target.HasDUT() && target.DUT.Kind == ip.DUTIP && target.DUT.Target != nil {
		out = append(out, target.DUT.Target)
	}
	deps, err := o.cache.OrderedDeps(target)
	if err != nil {
		return nil, err
	}
	return append(out, deps...), nil
}

// installMissing resolves uninstalled dependencies: interactively when
// stdin is a terminal and an installer is wired, fatally otherwise.
func (o *Orchestrator) installMissing(target *ip.IP, missing []string) error {
	fatal := errors.MissingDependencies(
		fmt.Sprintf("%d dependencies of IP '%s' must first be installed", len(missing), target.Ident()),
		strings.Join(missing, ", "),
		fmt.Sprintf("Run 'mio install %s'", target.Name))

	if o.Install == nil || o.Stdin == nil || !isatty.IsTerminal(o.Stdin.Fd()) {
		return fatal
	}

	reader := bufio.NewReader(o.Stdin)
	if !promptYesNo(reader, fmt.Sprintf("%d dependencies must first be installed. Would you like to do so now? [y/n]", len(missing))) {
		return fatal
	}
	global := !promptYesNo(reader, "Local install (vs. global)? [y/n]")

	ui.Info(fmt.Sprintf("Installing %d dependencies ...", len(missing)))
	if err := o.Install(target, missing, global); err != nil {
		return errors.MissingDependencies(
			fmt.Sprintf("error during installation of '%s' dependencies", target.Ident()),
			err.Error(), "")
	}
	if err := o.cache.Scan(); err != nil {
		return err
	}
	return o.cache.Resolve()
}

// promptYesNo asks until it reads y or n.
func promptYesNo(reader *bufio.Reader, question string) bool {
	for {
		fmt.Print(question + " ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y":
			return true
		case "n":
			return false
		}
	}
}
