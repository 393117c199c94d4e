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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/errors"
	"github.com/datumtc/mio/pkg/flist"
	"github.com/datumtc/mio/pkg/ip"
)

// Metrics cloud simulator (dsim) static defaults and log regex sets. The
// cloud front end wraps every real invocation in `mdc <tool> -a '<args>'`
// and log files must be downloaded into the local tree afterwards.
var (
	metricsDefaultCompileArgs = []string{"-suppress", "MultiBlockWrite"}
	metricsDefaultElabArgs    = []string{"+acc+b", "-suppress", "DupModuleDefn"}
	metricsDefaultSimArgs     = []string{}

	metricsCmpLogErrorPatterns  = compilePatterns([]string{`=E:`, `=F:`})
	metricsElabLogErrorPatterns = compilePatterns([]string{`=E:`, `=F:`})
)

type metricsDriver struct {
	toolchain
}

func (d *metricsDriver) Simulator() cfg.Simulator { return cfg.Metrics }
func (d *metricsDriver) FusedGenImage() bool { return true }
func (d *metricsDriver) CmpLogPatterns() []*regexp.Regexp { return metricsCmpLogErrorPatterns }
func (d *metricsDriver) ElabLogPatterns() []*regexp.Regexp { return metricsElabLogErrorPatterns }

// InitWorkspace performs the one-time Metrics workspace initialization for
// the project. Idempotent: a present .mdc directory is left untouched.
func (d *metricsDriver) InitWorkspace(ctx context.Context) error {
	mdcPath := filepath.Join(d.cfg.ProjectDir, ".mdc")
	if _, err := os.Stat(mdcPath); err == nil {
		return nil
	}

	spec := LaunchSpec{Path: d.bin(cfg.Metrics, "mdc"), WD: d.cfg.ProjectDir}
	spec.Args = []string{"initialize"}
	if _, err := d.launcher.Launch(ctx, spec); err != nil {
		return err
	}
	spec.Args, spec.EchoStdout = []string{"status"}, true
	if _, err := d.launcher.Launch(ctx, spec); err != nil {
		return err
	}

	syncIgnore := filepath.Join(mdcPath, "sync_ignore")
	file, err := os.OpenFile(syncIgnore, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.SimulatorNotInstalled(
			"failed to initialize Metrics Cloud Simulator workspace",
			fmt.Sprintf("no sync_ignore file at %s after 'mdc initialize'", syncIgnore))
	}
	defer file.Close()
	ignored := []string{".mio/sim", d.cfg.SourceRootDir, "tools", "syn", "dft", "lint", "docs"}
	for _, entry := range ignored {
		fmt.Fprintln(file, entry)
	}
	return nil
}

// wrap flattens inner tool args into the single outer mdc invocation.
func (d *metricsDriver) wrap(tool string, args []string) LaunchSpec {
	return LaunchSpec{
		Path: d.bin(cfg.Metrics, "mdc"),
		Args: []string{tool, "-a", strings.Join(args, " ")},
		WD:   d.cfg.ProjectDir,
	}
}

// download fetches a remote log into the project directory and moves it to
// localPath.
func (d *metricsDriver) download(ctx context.Context, remoteName, localPath string, dryRun bool) ([]string, error) {
	spec := LaunchSpec{
		Path:   d.bin(cfg.Metrics, "mdc"),
		Args:   []string{"download", remoteName},
		WD:     d.cfg.ProjectDir,
		DryRun: dryRun,
	}
	commands, err := d.launcher.Launch(ctx, spec)
	if err != nil {
		return commands, err
	}
	if dryRun {
		return commands, nil
	}
	downloaded := filepath.Join(d.cfg.ProjectDir, "_downloaded_"+remoteName)
	if err := moveFile(downloaded, localPath); err != nil {
		return commands, errors.IOFailure(fmt.Sprintf("cannot move downloaded log %s", downloaded), err)
	}
	return commands, nil
}

func (d *metricsDriver) Compile(ctx context.Context, target *ip.IP, deps []*ip.IP, job *Job) (*StageOutcome, error) {
	flistPath, err := d.fl.FilelistPath(target, cfg.Metrics, job.CmpArgs)
	if err != nil {
		return nil, err
	}
	logPath := d.cfg.CmpLogPath(target.Vendor, target.Name, cfg.Metrics)
	remoteLog := fmt.Sprintf("%s.mdc.cmp.log", target.DirName())

	args := append([]string{}, metricsDefaultCompileArgs...)
	args = append(args, d.depIncdirArgs(cfg.Metrics, deps)...)
	args = append(args, "-lib", target.DirName())
	args = append(args, "-F", flistPath)
	args = append(args, "-l", remoteLog)

	spec := d.wrap("dvlcom", args)
	spec.DryRun = job.DryRun
	commands, err := d.launcher.Launch(ctx, spec)
	if err != nil {
		return nil, err
	}
	more, err := d.download(ctx, remoteLog, logPath, job.DryRun)
	commands = append(commands, more...)
	if err != nil {
		return nil, err
	}

	// The library output directory marks the compile as current even
	// though the compiled library itself lives in the cloud workspace.
	if !job.DryRun {
		if err := os.MkdirAll(d.cfg.CmpOutDir(cfg.Metrics, target.Vendor, target.Name), 0o755); err != nil {
			return nil, errors.IOFailure("cannot create library output directory", err)
		}
	}
	return &StageOutcome{LogPath: logPath, Commands: commands}, nil
}

// Elaborate is the fused gen-image operation under Metrics.
func (d *metricsDriver) Elaborate(ctx context.Context, target *ip.IP, deps []*ip.IP, job *Job, wd string) (*StageOutcome, error) {
	return d.GenImage(ctx, target, deps, job, wd)
}

func (d *metricsDriver) GenImage(ctx context.Context, target *ip.IP, deps []*ip.IP, job *Job, wd string) (*StageOutcome, error) {
	logPath := d.cfg.ElabLogPath(target.Vendor, target.Name, cfg.Metrics)
	remoteLog := fmt.Sprintf("%s.mdc.elab.log", target.DirName())

	args := append([]string{}, metricsDefaultElabArgs...)
	args = append(args, "-genimage", target.DirName())
	args = append(args, "-l", remoteLog)
	args = append(args, flist.FormatDefines(cfg.Metrics, job.CmpArgs)...)
	args = append(args, d.depLibArgs(cfg.Metrics, deps)...)
	args = append(args, "-L", target.DirName())
	for _, construct := range target.HDL.TopConstructs {
		name := construct
		if idx := strings.LastIndex(construct, "."); idx >= 0 {
			name = construct[idx+1:]
		}
		args = append(args, "-top", name)
	}

	spec := d.wrap("dsim", args)
	spec.DryRun = job.DryRun
	commands, err := d.launcher.Launch(ctx, spec)
	if err != nil {
		return nil, err
	}
	more, err := d.download(ctx, remoteLog, logPath, job.DryRun)
	commands = append(commands, more...)
	if err != nil {
		return nil, err
	}
	return &StageOutcome{LogPath: logPath, Commands: commands}, nil
}

func (d *metricsDriver) Simulate(ctx context.Context, target *ip.IP, job *Job, wd string) (*StageOutcome, error) {
	logPath := filepath.Join(job.ResultsPath, "sim.log")
	remoteLog := job.ResultsDirName + ".log"

	args := append([]string{}, metricsDefaultSimArgs...)
	args = append(args, plusargFlags(cfg.Metrics, job)...)
	args = append(args, "-l", remoteLog)
	args = append(args, "-sv_seed", strconv.FormatInt(job.Seed, 10))
	args = append(args, "-image", target.DirName())
	args = append(args, "-sv_lib", "$UVM_HOME/src/dpi/libuvm_dpi.so")
	if job.Waves {
		args = append(args, "-waves", job.ResultsDirName+".vcd")
	}
	if job.Cov {
		args = append(args, "-code-cov", "a", "-cov-db", job.ResultsDirName)
	}

	spec := d.wrap("dsim", args)
	spec.DryRun = job.DryRun
	spec.EchoStdout = !job.IsRegression
	commands, err := d.launcher.Launch(ctx, spec)
	if err != nil {
		return nil, err
	}
	more, err := d.download(ctx, remoteLog, logPath, job.DryRun)
	commands = append(commands, more...)
	if err != nil {
		return nil, err
	}
	if job.Waves {
		more, err = d.download(ctx, job.ResultsDirName+".vcd", filepath.Join(job.ResultsPath, "waves.vcd"), job.DryRun)
		commands = append(commands, more...)
		if err != nil {
			return nil, err
		}
	}
	return &StageOutcome{LogPath: logPath, Commands: commands}, nil
}

// moveFile renames src onto dst, falling back to copy+remove across
// filesystems.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}
