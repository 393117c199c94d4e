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

// Package eda drives the external EDA tools.
//
// The Driver interface abstracts the four pipeline operations — compile,
// elaborate, gen-image and simulate — over six simulators with divergent
// invocation conventions. One concrete driver exists per simulator; its
// static default-argument tables and log-scan regex sets live next to it.
// Correctness of a stage is decided by scanning its log against the
// driver's error patterns, not by tool exit codes.
//
// The Launcher executes the tools with per-child working directories and
// environments and keeps a registry of live children so a fatal exit can
// terminate them all.
package eda

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/errors"
	"github.com/datumtc/mio/pkg/flist"
	"github.com/datumtc/mio/pkg/ip"
)

// StageOutcome reports one driver operation.
type StageOutcome struct {
	// LogPath is the canonical location of the stage log.
	LogPath string

	// Commands lists the command lines that ran (or would run under
	// dry-run), in order.
	Commands []string
}

// Driver translates abstract pipeline operations into concrete command
// lines for one simulator.
type Driver interface {
	// Simulator identifies the backend.
	Simulator() cfg.Simulator

	// FusedGenImage reports whether the simulator fuses compile and
	// elaborate into a single gen-image operation (Metrics).
	FusedGenImage() bool

	// Compile builds target's library. deps must be in compile order and
	// already compiled; they contribute include directories and library
	// bindings.
	Compile(ctx context.Context, target *ip.IP, deps []*ip.IP, job *Job) (*StageOutcome, error)

	// Elaborate links target's compiled libraries into a simulatable
	// snapshot inside wd.
	Elaborate(ctx context.Context, target *ip.IP, deps []*ip.IP, job *Job, wd string) (*StageOutcome, error)

	// GenImage runs the fused compile+elaborate operation where the
	// simulator supports one.
	GenImage(ctx context.Context, target *ip.IP, deps []*ip.IP, job *Job, wd string) (*StageOutcome, error)

	// Simulate runs one test. job.ResultsPath and job.ResultsDirName must
	// be prepared by the caller; the simulation log lands at
	// <ResultsPath>/sim.log.
	Simulate(ctx context.Context, target *ip.IP, job *Job, wd string) (*StageOutcome, error)

	// CmpLogPatterns and ElabLogPatterns are the error regex sets used to
	// scan stage logs.
	CmpLogPatterns() []*regexp.Regexp
	ElabLogPatterns() []*regexp.Regexp
}

// NewDriver returns the driver variant for sim.
func NewDriver(sim cfg.Simulator, c *cfg.Config, fl *flist.Synthesizer, launcher *Launcher) Driver {
	tc := toolchain{cfg: c, fl: fl, launcher: launcher}
	switch sim {
	case cfg.Vivado:
		return &vivadoDriver{toolchain: tc}
	case cfg.Metrics:
		return &metricsDriver{toolchain: tc}
	case cfg.VCS:
		return &vcsDriver{toolchain: tc}
	case cfg.Xcelium:
		return &xceliumDriver{toolchain: tc}
	case cfg.Questa:
		return &questaDriver{toolchain: tc}
	case cfg.Riviera:
		return &rivieraDriver{toolchain: tc}
	default:
		panic(fmt.Sprintf("no driver for simulator %v", sim))
	}
}

// toolchain carries the collaborators every driver needs.
type toolchain struct {
	cfg      *cfg.Config
	fl       *flist.Synthesizer
	launcher *Launcher
}

// bin returns the path of one tool under a simulator home.
func (t *toolchain) bin(sim cfg.Simulator, tool string) string {
	return t.cfg.ToolHomes[sim] + "/" + tool
}

// depLibArgs renders the -L library bindings for a dependency list.
// Metrics and Questa bind by flattened library name; the others bind
// name=path into the compile output directory.
func (t *toolchain) depLibArgs(sim cfg.Simulator, deps []*ip.IP) []string {
	var args []string
	for _, dep := range deps {
		if dep.Name == ip.UVMName {
			continue
		}
		switch sim {
		case cfg.Metrics, cfg.Questa:
			args = append(args, "-L", dep.DirName())
		default:
			args = append(args, "-L", dep.Name+"="+t.cfg.CmpOutDir(sim, dep.Vendor, dep.Name))
		}
	}
	return args
}

// depIncdirArgs renders the include-directory flags contributed by a
// dependency list.
func (t *toolchain) depIncdirArgs(sim cfg.Simulator, deps []*ip.IP) []string {
	var args []string
	for _, dep := range deps {
		for _, dir := range dep.HDL.Directories {
			path := dep.SrcDir(sim)
			if dir != "." {
				path += "/" + dir
			}
			switch sim {
			case cfg.Vivado:
				args = append(args, "-i", path)
			case cfg.Metrics:
				if rel, err := filepath.Rel(t.cfg.ProjectDir, path); err == nil {
					path = rel
				}
				args = append(args, "+incdir+"+path)
			default:
				args = append(args, "+incdir+"+path)
			}
		}
	}
	return args
}

// srcPathEnv computes the per-IP source path environment entries for one
// invocation: MIO_<NAME>_SRC_PATH for the target and every dependency.
func (t *toolchain) srcPathEnv(sim cfg.Simulator, target *ip.IP, deps []*ip.IP) []string {
	env := []string{cfg.EnvVarForIP(target.Name) + "=" + target.SrcDir(sim)}
	for _, dep := range deps {
		env = append(env, cfg.EnvVarForIP(dep.Name)+"="+dep.SrcDir(sim))
	}
	return env
}

// plusargFlags renders the job's simulation plusargs in the simulator's
// syntax: -testplusarg "N[=V]" for Vivado, +N[=V] everywhere else.
func plusargFlags(sim cfg.Simulator, job *Job) []string {
	flags := job.PlusArgsAsFlags()
	if sim != cfg.Vivado {
		return flags
	}
	out := make([]string, 0, 2*len(flags))
	for _, flag := range flags {
		out = append(out, "-testplusarg", fmt.Sprintf("%q", flag[1:]))
	}
	return out
}

// ensureCmpOut creates the library output directory marking a compile as
// current. Skipped under dry-run.
func ensureCmpOut(c *cfg.Config, sim cfg.Simulator, target *ip.IP, job *Job) error {
	if job.DryRun {
		return nil
	}
	dir := c.CmpOutDir(sim, target.Vendor, target.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.IOFailure(fmt.Sprintf("cannot create library output %s", dir), err)
	}
	return nil
}
