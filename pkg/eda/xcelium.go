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
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/errors"
	"github.com/datumtc/mio/pkg/ip"
)

// Cadence Xcelium static defaults and log regex sets. xrun has no log-file
// flag in this flow; the launcher redirects its output into the canonical
// log path. Waves and coverage flag sets are intentionally absent until
// defined.
var (
	xceliumDefaultCompileArgs = []string{}
	xceliumDefaultElabArgs    = []string{}
	xceliumDefaultSimArgs     = []string{}

	xceliumCmpLogErrorPatterns  = compilePatterns([]string{`\*E `})
	xceliumElabLogErrorPatterns = compilePatterns([]string{`\*E `})
)

type xceliumDriver struct {
	toolchain
}

func (d *xceliumDriver) Simulator() cfg.Simulator { return cfg.Xcelium }
func (d *xceliumDriver) FusedGenImage() bool { return false }
func (d *xceliumDriver) CmpLogPatterns() []*regexp.Regexp { return xceliumCmpLogErrorPatterns }
func (d *xceliumDriver) ElabLogPatterns() []*regexp.Regexp { return xceliumElabLogErrorPatterns }

func (d *xceliumDriver) Compile(ctx context.Context, target *ip.IP, deps []*ip.IP, job *Job) (*StageOutcome, error) {
	flistPath, err := d.fl.FilelistPath(target, cfg.Xcelium, job.CmpArgs)
	if err != nil {
		return nil, err
	}
	logPath := d.cfg.CmpLogPath(target.Vendor, target.Name, cfg.Xcelium)
	if err := ensureCmpOut(d.cfg, cfg.Xcelium, target, job); err != nil {
		return nil, err
	}

	args := append([]string{}, xceliumDefaultCompileArgs...)
	args = append(args, "-compile")
	args = append(args, "-f", flistPath)
	args = append(args, d.depLibArgs(cfg.Xcelium, deps)...)

	commands, err := d.launcher.Launch(ctx, LaunchSpec{
		Path:       d.bin(cfg.Xcelium, "xrun"),
		Args:       args,
		WD:         d.cfg.SimWD(cfg.Xcelium),
		Env:        d.srcPathEnv(cfg.Xcelium, target, deps),
		StdoutFile: dryRunStdout(job, logPath),
		DryRun:     job.DryRun,
	})
	if err != nil {
		return nil, err
	}
	return &StageOutcome{LogPath: logPath, Commands: commands}, nil
}

func (d *xceliumDriver) Elaborate(ctx context.Context, target *ip.IP, deps []*ip.IP, job *Job, wd string) (*StageOutcome, error) {
	logPath := d.cfg.ElabLogPath(target.Vendor, target.Name, cfg.Xcelium)

	args := append([]string{}, xceliumDefaultElabArgs...)
	args = append(args, "-elaborate")
	args = append(args, d.depLibArgs(cfg.Xcelium, deps)...)
	args = append(args, qualifiedTops(target)...)

	commands, err := d.launcher.Launch(ctx, LaunchSpec{
		Path:       d.bin(cfg.Xcelium, "xrun"),
		Args:       args,
		WD:         wd,
		Env:        d.srcPathEnv(cfg.Xcelium, target, deps),
		StdoutFile: dryRunStdout(job, logPath),
		DryRun:     job.DryRun,
	})
	if err != nil {
		return nil, err
	}
	return &StageOutcome{LogPath: logPath, Commands: commands}, nil
}

func (d *xceliumDriver) GenImage(ctx context.Context, target *ip.IP, deps []*ip.IP, job *Job, wd string) (*StageOutcome, error) {
	return nil, errors.Internal("xcelium has no fused gen-image operation", nil)
}

func (d *xceliumDriver) Simulate(ctx context.Context, target *ip.IP, job *Job, wd string) (*StageOutcome, error) {
	logPath := filepath.Join(job.ResultsPath, "sim.log")

	args := append([]string{}, xceliumDefaultSimArgs...)
	args = append(args, plusargFlags(cfg.Xcelium, job)...)
	args = append(args, "-svseed", strconv.FormatInt(job.Seed, 10))
	args = append(args, "-R")

	commands, err := d.launcher.Launch(ctx, LaunchSpec{
		Path:       d.bin(cfg.Xcelium, "xrun"),
		Args:       args,
		WD:         wd,
		Env:        d.srcPathEnv(cfg.Xcelium, target, nil),
		StdoutFile: dryRunStdout(job, logPath),
		DryRun:     job.DryRun,
	})
	if err != nil {
		return nil, err
	}
	return &StageOutcome{LogPath: logPath, Commands: commands}, nil
}

// dryRunStdout suppresses the stdout redirect during dry runs, where no
// child process exists to write it.
func dryRunStdout(job *Job, logPath string) string {
	if job.DryRun {
		return ""
	}
	return logPath
}
