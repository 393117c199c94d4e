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

// Vivado (xsim) static defaults and log regex sets.
var (
	vivadoDefaultCompileArgs = []string{"--incr", "-sv"}
	vivadoDefaultElabArgs    = []string{"--incr", "-relax", "--O0", "-v", "0", "-dup_entity_as_module"}
	vivadoDefaultSimArgs     = []string{"--stats"}

	vivadoProjectVlogArgs = []string{"--relax"}
	vivadoProjectVhdlArgs = []string{"--relax"}

	vivadoCmpLogErrorPatterns  = compilePatterns([]string{`ERROR:`})
	vivadoElabLogErrorPatterns = compilePatterns([]string{`ERROR:`, `Invalid path for DPI library:`})
)

type vivadoDriver struct {
	toolchain
}

func (d *vivadoDriver) Simulator() cfg.Simulator { return cfg.Vivado }
func (d *vivadoDriver) FusedGenImage() bool { return false }
func (d *vivadoDriver) CmpLogPatterns() []*regexp.Regexp { return vivadoCmpLogErrorPatterns }
func (d *vivadoDriver) ElabLogPatterns() []*regexp.Regexp { return vivadoElabLogErrorPatterns }

func (d *vivadoDriver) Compile(ctx context.Context, target *ip.IP, deps []*ip.IP, job *Job) (*StageOutcome, error) {
	if target.SubType == ip.SubTypeVivadoProject {
		return d.compileProject(ctx, target, deps, job)
	}

	flistPath, err := d.fl.FilelistPath(target, cfg.Vivado, job.CmpArgs)
	if err != nil {
		return nil, err
	}
	logPath := d.cfg.CmpLogPath(target.Vendor, target.Name, cfg.Vivado)
	cmpOut := d.cfg.CmpOutDir(cfg.Vivado, target.Vendor, target.Name)
	if !job.DryRun {
		if err := os.MkdirAll(cmpOut, 0o755); err != nil {
			return nil, errors.IOFailure(fmt.Sprintf("cannot create library output %s", cmpOut), err)
		}
	}

	args := append([]string{}, vivadoDefaultCompileArgs...)
	args = append(args, d.depIncdirArgs(cfg.Vivado, deps)...)
	args = append(args, "-f", flistPath)
	args = append(args, "-L", "uvm")
	args = append(args, d.depLibArgs(cfg.Vivado, deps)...)
	args = append(args, "--work", target.Name+"="+cmpOut)
	args = append(args, "--log", logPath)

	commands, err := d.launcher.Launch(ctx, LaunchSpec{
		Path:       d.bin(cfg.Vivado, "xvlog"),
		Args:       args,
		WD:         d.cfg.SimWD(cfg.Vivado),
		Env:        d.srcPathEnv(cfg.Vivado, target, deps),
		EchoStdout: false,
		DryRun:     job.DryRun,
	})
	if err != nil {
		return nil, err
	}
	return &StageOutcome{LogPath: logPath, Commands: commands}, nil
}

// compileProject compiles a Vivado-project IP: one xvlog pass over the
// Verilog project file, one xvhdl pass over the VHDL side.
func (d *vivadoDriver) compileProject(ctx context.Context, target *ip.IP, deps []*ip.IP, job *Job) (*StageOutcome, error) {
	prj, err := d.fl.Master(target, nil, cfg.Vivado, job.CmpArgs)
	if err != nil {
		return nil, err
	}
	cmpOut := d.cfg.CmpOutDir(cfg.Vivado, target.Vendor, target.Name)
	if !job.DryRun {
		if err := os.MkdirAll(cmpOut, 0o755); err != nil {
			return nil, errors.IOFailure(fmt.Sprintf("cannot create library output %s", cmpOut), err)
		}
	}
	logPath := d.cfg.CmpLogPath(target.Vendor, target.Name, cfg.Vivado)

	vlogArgs := []string{"-prj", prj, "--work", target.Name + "=" + cmpOut}
	vlogArgs = append(vlogArgs, vivadoProjectVlogArgs...)
	vlogArgs = append(vlogArgs, flist.FormatDefinesArgv(cfg.Vivado, job.CmpArgs)...)
	vlogArgs = append(vlogArgs, d.depLibArgs(cfg.Vivado, deps)...)
	vlogArgs = append(vlogArgs, "--log", logPath)

	vhdlLog := strings.TrimSuffix(logPath, ".cmp.log") + ".vhdl.cmp.log"
	vhdlArgs := []string{"-prj", prj, "--work", target.Name + "=" + cmpOut}
	vhdlArgs = append(vhdlArgs, vivadoProjectVhdlArgs...)
	vhdlArgs = append(vhdlArgs, "--log", vhdlLog)

	spec := LaunchSpec{
		WD:     d.cfg.SimWD(cfg.Vivado),
		Env:    d.srcPathEnv(cfg.Vivado, target, deps),
		DryRun: job.DryRun,
	}
	spec.Path, spec.Args = d.bin(cfg.Vivado, "xvlog"), vlogArgs
	commands, err := d.launcher.Launch(ctx, spec)
	if err != nil {
		return nil, err
	}
	spec.Path, spec.Args = d.bin(cfg.Vivado, "xvhdl"), vhdlArgs
	more, err := d.launcher.Launch(ctx, spec)
	if err != nil {
		return nil, err
	}
	return &StageOutcome{LogPath: logPath, Commands: append(commands, more...)}, nil
}

func (d *vivadoDriver) Elaborate(ctx context.Context, target *ip.IP, deps []*ip.IP, job *Job, wd string) (*StageOutcome, error) {
	logPath := d.cfg.ElabLogPath(target.Vendor, target.Name, cfg.Vivado)
	if err := os.MkdirAll(wd, 0o755); err != nil {
		return nil, errors.IOFailure(fmt.Sprintf("cannot create elaboration directory %s", wd), err)
	}

	args := flist.FormatDefinesArgv(cfg.Vivado, job.CmpArgs)
	if job.Waves || job.Cov || job.GUI {
		args = append(args, "--debug", "all")
	}
	args = append(args, d.depLibArgs(cfg.Vivado, deps)...)
	args = append(args, vivadoDefaultElabArgs...)
	args = append(args, "-timescale", d.cfg.Timescale)
	args = append(args, "--log", logPath)
	args = append(args, "-s", target.Name)
	args = append(args, "-L", target.Name+"="+d.cfg.CmpOutDir(cfg.Vivado, target.Vendor, target.Name))
	args = append(args, qualifiedTops(target)...)
	args = append(args, "-sv_root", wd)

	soArgs, err := d.stageSharedObjects(target, deps, wd, job.DryRun)
	if err != nil {
		return nil, err
	}
	args = append(args, soArgs...)

	commands, err := d.launcher.Launch(ctx, LaunchSpec{
		Path:   d.bin(cfg.Vivado, "xelab"),
		Args:   args,
		WD:     wd,
		Env:    d.srcPathEnv(cfg.Vivado, target, deps),
		DryRun: job.DryRun,
	})
	if err != nil {
		return nil, err
	}
	return &StageOutcome{LogPath: logPath, Commands: commands}, nil
}

func (d *vivadoDriver) GenImage(ctx context.Context, target *ip.IP, deps []*ip.IP, job *Job, wd string) (*StageOutcome, error) {
	return nil, errors.Internal("vivado has no fused gen-image operation", nil)
}

func (d *vivadoDriver) Simulate(ctx context.Context, target *ip.IP, job *Job, wd string) (*StageOutcome, error) {
	logPath := filepath.Join(job.ResultsPath, "sim.log")

	args := plusargFlags(cfg.Vivado, job)
	args = append(args, vivadoDefaultSimArgs...)
	args = append(args, "--log", logPath)

	if job.Waves {
		wavesPath := filepath.Join(job.ResultsPath, "waves.wdb")
		scriptPath := filepath.Join(job.ResultsPath, "waves.viv.tcl")
		if err := writeWaveScript(scriptPath); err != nil {
			return nil, err
		}
		args = append(args, "--wdb", wavesPath, "--tclbatch", scriptPath)
	}
	if job.GUI {
		args = append(args, "--gui")
	} else if !job.Waves {
		args = append(args, "--runall", "--onerror", "quit")
	}
	if job.Cov {
		covPath := filepath.Join(job.ResultsPath, "cov")
		if err := os.MkdirAll(covPath, 0o755); err != nil {
			return nil, errors.IOFailure(fmt.Sprintf("cannot create coverage directory %s", covPath), err)
		}
		args = append(args, "-cov_db_name", job.Test, "-cov_db_dir", covPath)
	} else {
		args = append(args, "-ignore_coverage")
	}
	args = append(args, target.Name)
	args = append(args, "-sv_seed", strconv.FormatInt(job.Seed, 10))

	commands, err := d.launcher.Launch(ctx, LaunchSpec{
		Path:       d.bin(cfg.Vivado, "xsim"),
		Args:       args,
		WD:         wd,
		Env:        d.srcPathEnv(cfg.Vivado, target, nil),
		EchoStdout: !job.IsRegression,
		DryRun:     job.DryRun,
	})
	if err != nil {
		return nil, err
	}
	return &StageOutcome{LogPath: logPath, Commands: commands}, nil
}

// stageSharedObjects copies every DPI shared object declared by target or
// its dependencies next to the elaboration snapshot and returns the
// matching -sv_lib flags.
func (d *vivadoDriver) stageSharedObjects(target *ip.IP, deps []*ip.IP, wd string, dryRun bool) ([]string, error) {
	var args []string
	stage := func(owner *ip.IP, lib string) error {
		src := filepath.Join(owner.Path, owner.ScriptsPath, lib+".viv.so")
		flat := fmt.Sprintf("%s__%s.viv.so", owner.DirName(), lib)
		if !dryRun {
			if err := copyFile(src, filepath.Join(wd, flat)); err != nil {
				return errors.IOFailure(fmt.Sprintf("cannot stage shared object %s", src), err)
			}
		}
		args = append(args, "-sv_lib", flat)
		return nil
	}
	for _, dep := range deps {
		for _, lib := range dep.HDL.SOLibs {
			if err := stage(dep, lib); err != nil {
				return nil, err
			}
		}
	}
	for _, lib := range target.HDL.SOLibs {
		if err := stage(target, lib); err != nil {
			return nil, err
		}
	}
	return args, nil
}

// qualifiedTops renders top constructs, qualifying bare names with the
// target's library.
func qualifiedTops(target *ip.IP) []string {
	var out []string
	for _, construct := range target.HDL.TopConstructs {
		if strings.Contains(construct, ".") {
			out = append(out, construct)
		} else {
			out = append(out, target.Name+"."+construct)
		}
	}
	return out
}

// writeWaveScript materializes the xsim batch script that records all
// waves, runs to completion and quits.
func writeWaveScript(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	script := "log_wave -recursive * \nrun -all \nquit \n"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.IOFailure(fmt.Sprintf("cannot create wave script directory for %s", path), err)
	}
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		return errors.IOFailure(fmt.Sprintf("cannot create wave capture script %s", path), err)
	}
	return nil
}

// copyFile copies src to dst, creating dst's directory.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
