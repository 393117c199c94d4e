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

// Synopsys VCS static defaults and log regex sets. Waves and coverage flag
// sets are intentionally absent until defined.
var (
	vcsDefaultCompileArgs = []string{"-lca", "-sverilog"}
	vcsDefaultElabArgs    = []string{}
	vcsDefaultSimArgs     = []string{}

	vcsCmpLogErrorPatterns  = compilePatterns([]string{`Error-`})
	vcsElabLogErrorPatterns = compilePatterns([]string{`Error-`})
)

type vcsDriver struct {
	toolchain
}

func (d *vcsDriver) Simulator() cfg.Simulator { return cfg.VCS }
func (d *vcsDriver) FusedGenImage() bool { return false }
func (d *vcsDriver) CmpLogPatterns() []*regexp.Regexp { return vcsCmpLogErrorPatterns }
func (d *vcsDriver) ElabLogPatterns() []*regexp.Regexp { return vcsElabLogErrorPatterns }

func (d *vcsDriver) Compile(ctx context.Context, target *ip.IP, deps []*ip.IP, job *Job) (*StageOutcome, error) {
	flistPath, err := d.fl.FilelistPath(target, cfg.VCS, job.CmpArgs)
	if err != nil {
		return nil, err
	}
	logPath := d.cfg.CmpLogPath(target.Vendor, target.Name, cfg.VCS)
	if err := ensureCmpOut(d.cfg, cfg.VCS, target, job); err != nil {
		return nil, err
	}

	args := append([]string{}, vcsDefaultCompileArgs...)
	args = append(args, "-f", flistPath)
	args = append(args, d.depLibArgs(cfg.VCS, deps)...)
	args = append(args, "-l", logPath)

	commands, err := d.launcher.Launch(ctx, LaunchSpec{
		Path:   d.bin(cfg.VCS, "vcs"),
		Args:   args,
		WD:     d.cfg.SimWD(cfg.VCS),
		Env:    d.srcPathEnv(cfg.VCS, target, deps),
		DryRun: job.DryRun,
	})
	if err != nil {
		return nil, err
	}
	return &StageOutcome{LogPath: logPath, Commands: commands}, nil
}

func (d *vcsDriver) Elaborate(ctx context.Context, target *ip.IP, deps []*ip.IP, job *Job, wd string) (*StageOutcome, error) {
	logPath := d.cfg.ElabLogPath(target.Vendor, target.Name, cfg.VCS)

	args := append([]string{}, vcsDefaultElabArgs...)
	args = append(args, d.depLibArgs(cfg.VCS, deps)...)
	args = append(args, qualifiedTops(target)...)
	args = append(args, "-l", logPath)

	commands, err := d.launcher.Launch(ctx, LaunchSpec{
		Path:   d.bin(cfg.VCS, "vcs"),
		Args:   args,
		WD:     wd,
		Env:    d.srcPathEnv(cfg.VCS, target, deps),
		DryRun: job.DryRun,
	})
	if err != nil {
		return nil, err
	}
	return &StageOutcome{LogPath: logPath, Commands: commands}, nil
}

func (d *vcsDriver) GenImage(ctx context.Context, target *ip.IP, deps []*ip.IP, job *Job, wd string) (*StageOutcome, error) {
	return nil, errors.Internal("vcs has no fused gen-image operation", nil)
}

func (d *vcsDriver) Simulate(ctx context.Context, target *ip.IP, job *Job, wd string) (*StageOutcome, error) {
	logPath := filepath.Join(job.ResultsPath, "sim.log")

	args := append([]string{}, vcsDefaultSimArgs...)
	args = append(args, plusargFlags(cfg.VCS, job)...)
	args = append(args, "+ntb_random_seed="+strconv.FormatInt(job.Seed, 10))
	args = append(args, "-l", logPath)

	commands, err := d.launcher.Launch(ctx, LaunchSpec{
		Path:       filepath.Join(wd, "simv"),
		Args:       args,
		WD:         wd,
		Env:        d.srcPathEnv(cfg.VCS, target, nil),
		EchoStdout: !job.IsRegression,
		DryRun:     job.DryRun,
	})
	if err != nil {
		return nil, err
	}
	return &StageOutcome{LogPath: logPath, Commands: commands}, nil
}
