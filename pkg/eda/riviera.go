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

// Aldec Riviera-PRO static defaults and log regex sets. Like Xcelium, the
// tools here have no log-file flag in this flow, so output is redirected.
// Waves and coverage flag sets are intentionally absent until defined.
var (
	rivieraDefaultCompileArgs = []string{}
	rivieraDefaultElabArgs    = []string{}
	rivieraDefaultSimArgs     = []string{}

	rivieraCmpLogErrorPatterns  = compilePatterns([]string{`Error:`})
	rivieraElabLogErrorPatterns = compilePatterns([]string{`Error:`})
)

type rivieraDriver struct {
	toolchain
}

func (d *rivieraDriver) Simulator() cfg.Simulator { return cfg.Riviera }
func (d *rivieraDriver) FusedGenImage() bool { return false }
func (d *rivieraDriver) CmpLogPatterns() []*regexp.Regexp { return rivieraCmpLogErrorPatterns }
func (d *rivieraDriver) ElabLogPatterns() []*regexp.Regexp { return rivieraElabLogErrorPatterns }

func (d *rivieraDriver) Compile(ctx context.Context, target *ip.IP, deps []*ip.IP, job *Job) (*StageOutcome, error) {
	flistPath, err := d.fl.FilelistPath(target, cfg.Riviera, job.CmpArgs)
	if err != nil {
		return nil, err
	}
	logPath := d.cfg.CmpLogPath(target.Vendor, target.Name, cfg.Riviera)
	if err := ensureCmpOut(d.cfg, cfg.Riviera, target, job); err != nil {
		return nil, err
	}

	args := append([]string{}, rivieraDefaultCompileArgs...)
	args = append(args, "-f", flistPath)
	args = append(args, d.depLibArgs(cfg.Riviera, deps)...)

	commands, err := d.launcher.Launch(ctx, LaunchSpec{
		Path:       d.bin(cfg.Riviera, "vlog"),
		Args:       args,
		WD:         d.cfg.SimWD(cfg.Riviera),
		Env:        d.srcPathEnv(cfg.Riviera, target, deps),
		StdoutFile: dryRunStdout(job, logPath),
		DryRun:     job.DryRun,
	})
	if err != nil {
		return nil, err
	}
	return &StageOutcome{LogPath: logPath, Commands: commands}, nil
}

func (d *rivieraDriver) Elaborate(ctx context.Context, target *ip.IP, deps []*ip.IP, job *Job, wd string) (*StageOutcome, error) {
	logPath := d.cfg.ElabLogPath(target.Vendor, target.Name, cfg.Riviera)

	args := append([]string{}, rivieraDefaultElabArgs...)
	args = append(args, d.depLibArgs(cfg.Riviera, deps)...)
	args = append(args, qualifiedTops(target)...)

	commands, err := d.launcher.Launch(ctx, LaunchSpec{
		Path:       d.bin(cfg.Riviera, "vlog"),
		Args:       args,
		WD:         wd,
		Env:        d.srcPathEnv(cfg.Riviera, target, deps),
		StdoutFile: dryRunStdout(job, logPath),
		DryRun:     job.DryRun,
	})
	if err != nil {
		return nil, err
	}
	return &StageOutcome{LogPath: logPath, Commands: commands}, nil
}

func (d *rivieraDriver) GenImage(ctx context.Context, target *ip.IP, deps []*ip.IP, job *Job, wd string) (*StageOutcome, error) {
	return nil, errors.Internal("riviera has no fused gen-image operation", nil)
}

func (d *rivieraDriver) Simulate(ctx context.Context, target *ip.IP, job *Job, wd string) (*StageOutcome, error) {
	logPath := filepath.Join(job.ResultsPath, "sim.log")

	args := append([]string{}, rivieraDefaultSimArgs...)
	args = append(args, plusargFlags(cfg.Riviera, job)...)
	args = append(args, "-sv_seed", strconv.FormatInt(job.Seed, 10))
	args = append(args, target.Name)

	commands, err := d.launcher.Launch(ctx, LaunchSpec{
		Path:       d.bin(cfg.Riviera, "vsim"),
		Args:       args,
		WD:         wd,
		Env:        d.srcPathEnv(cfg.Riviera, target, nil),
		StdoutFile: dryRunStdout(job, logPath),
		DryRun:     job.DryRun,
	})
	if err != nil {
		return nil, err
	}
	return &StageOutcome{LogPath: logPath, Commands: commands}, nil
}
