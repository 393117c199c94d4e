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
	"github.com/datumtc/mio/pkg/flist"
	"github.com/datumtc/mio/pkg/ip"
)

// Siemens Questa static defaults and log regex sets.
var (
	questaDefaultCompileArgs = []string{"-64", "-incrcomp"}
	questaDefaultElabArgs    = []string{"-64"}
	questaDefaultSimArgs     = []string{"-64", "-c"}

	questaCmpLogErrorPatterns  = compilePatterns([]string{`\*\* Error:`})
	questaElabLogErrorPatterns = compilePatterns([]string{`\*\* Error:`})
)

type questaDriver struct {
	toolchain
}

func (d *questaDriver) Simulator() cfg.Simulator { return cfg.Questa }
func (d *questaDriver) FusedGenImage() bool { return false }
func (d *questaDriver) CmpLogPatterns() []*regexp.Regexp { return questaCmpLogErrorPatterns }
func (d *questaDriver) ElabLogPatterns() []*regexp.Regexp { return questaElabLogErrorPatterns }

// env injects the UVM source tree; Questa does not bundle UVM.
func (d *questaDriver) env(target *ip.IP, deps []*ip.IP) []string {
	env := d.srcPathEnv(cfg.Questa, target, deps)
	if d.cfg.UVMHome != "" {
		env = append(env, "UVM_HOME="+d.cfg.UVMHome)
	}
	return env
}

func (d *questaDriver) Compile(ctx context.Context, target *ip.IP, deps []*ip.IP, job *Job) (*StageOutcome, error) {
	flistPath, err := d.fl.FilelistPath(target, cfg.Questa, job.CmpArgs)
	if err != nil {
		return nil, err
	}
	logPath := d.cfg.CmpLogPath(target.Vendor, target.Name, cfg.Questa)
	if err := ensureCmpOut(d.cfg, cfg.Questa, target, job); err != nil {
		return nil, err
	}

	args := append([]string{}, questaDefaultCompileArgs...)
	args = append(args, "-f", flistPath)
	args = append(args, d.depLibArgs(cfg.Questa, deps)...)
	args = append(args, "-Ldir", d.cfg.CmpOutRoot(cfg.Questa))
	args = append(args, "-l", logPath)
	args = append(args, "-work", target.Name)

	commands, err := d.launcher.Launch(ctx, LaunchSpec{
		Path:   d.bin(cfg.Questa, "vlog"),
		Args:   args,
		WD:     d.cfg.SimWD(cfg.Questa),
		Env:    d.env(target, deps),
		DryRun: job.DryRun,
	})
	if err != nil {
		return nil, err
	}
	return &StageOutcome{LogPath: logPath, Commands: commands}, nil
}

func (d *questaDriver) Elaborate(ctx context.Context, target *ip.IP, deps []*ip.IP, job *Job, wd string) (*StageOutcome, error) {
	logPath := d.cfg.ElabLogPath(target.Vendor, target.Name, cfg.Questa)

	args := qualifiedTops(target)
	args = append(args, questaDefaultElabArgs...)
	args = append(args, flist.FormatDefinesArgv(cfg.Questa, job.CmpArgs)...)
	args = append(args, d.depLibArgs(cfg.Questa, deps)...)
	args = append(args, "-o", target.Name)
	args = append(args, "-l", logPath)
	args = append(args, "-Ldir", d.cfg.CmpOutRoot(cfg.Questa))

	commands, err := d.launcher.Launch(ctx, LaunchSpec{
		Path:   d.bin(cfg.Questa, "vopt"),
		Args:   args,
		WD:     wd,
		Env:    d.env(target, deps),
		DryRun: job.DryRun,
	})
	if err != nil {
		return nil, err
	}
	return &StageOutcome{LogPath: logPath, Commands: commands}, nil
}

func (d *questaDriver) GenImage(ctx context.Context, target *ip.IP, deps []*ip.IP, job *Job, wd string) (*StageOutcome, error) {
	return nil, errors.Internal("questa has no fused gen-image operation", nil)
}

func (d *questaDriver) Simulate(ctx context.Context, target *ip.IP, job *Job, wd string) (*StageOutcome, error) {
	logPath := filepath.Join(job.ResultsPath, "sim.log")

	args := append([]string{}, questaDefaultSimArgs...)
	args = append(args, plusargFlags(cfg.Questa, job)...)
	args = append(args, "-l", logPath)
	args = append(args, "-sv_seed", strconv.FormatInt(job.Seed, 10))
	args = append(args, target.Name)

	commands, err := d.launcher.Launch(ctx, LaunchSpec{
		Path:       d.bin(cfg.Questa, "vsim"),
		Args:       args,
		WD:         wd,
		Env:        d.env(target, nil),
		EchoStdout: !job.IsRegression,
		DryRun:     job.DryRun,
	})
	if err != nil {
		return nil, err
	}
	return &StageOutcome{LogPath: logPath, Commands: commands}, nil
}
