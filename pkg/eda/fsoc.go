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
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/errors"
	"github.com/datumtc/mio/pkg/flist"
	"github.com/datumtc/mio/pkg/ip"
)

// edaYML mirrors the subset of FuseSoC's .eda.yml output this flow
// consumes: source files, bool parameters and xelab options.
type edaYML struct {
	Files []struct {
		Name          string `yaml:"name"`
		FileType      string `yaml:"file_type"`
		IsIncludeFile bool   `yaml:"is_include_file"`
		IncludePath   string `yaml:"include_path"`
	} `yaml:"files"`
	Parameters map[string]struct {
		Datatype string `yaml:"datatype"`
		Default  any    `yaml:"default"`
	} `yaml:"parameters"`
	ToolOptions struct {
		Xsim struct {
			XelabOptions []string `yaml:"xelab_options"`
		} `yaml:"xsim"`
	} `yaml:"tool_options"`
}

var xelabDefineRe = regexp.MustCompile(`^--define\s+(\w+)\s*(?:=\s*(\S+))?$`)

// InvokeFsoc runs FuseSoC setup for a DUT core and converts its .eda.yml
// output into a Vivado filelist. It returns the generated filelist path.
//
// Only the Vivado flow is supported; other simulators reject FuseSoC DUTs.
func InvokeFsoc(ctx context.Context, c *cfg.Config, launcher *Launcher, fl *flist.Synthesizer, target *ip.IP, core *ip.FsocCore, job *Job) (string, error) {
	if job.Simulator != cfg.Vivado {
		return "", errors.InvalidDescriptor(
			fmt.Sprintf("FuseSoC cores are not yet supported for simulator '%s'", job.Simulator.Short()), "", nil)
	}

	buildRoot := filepath.Join(c.FsocDir, core.SName)
	args := []string{
		"run", "--setup", "--no-export",
		"--build-root", buildRoot,
		"--target", target.DUT.FsocTarget,
		"--tool", "xsim",
		target.DUT.FsocFullName,
	}
	if _, err := launcher.Launch(ctx, LaunchSpec{
		Path:   "fusesoc",
		Args:   args,
		WD:     core.Dir,
		DryRun: job.DryRun,
	}); err != nil {
		return "", err
	}

	partial := strings.ReplaceAll(core.Name, ":", "_")
	edaDir := filepath.Join(buildRoot, "sim-xsim")
	edaPath := filepath.Join(edaDir, partial+"_0.eda.yml")
	flistPath := filepath.Join(edaDir, partial+"_0.flist")
	if job.DryRun {
		return flistPath, nil
	}
	if err := ConvertEdaYML(c, fl, core, edaPath, flistPath); err != nil {
		return "", err
	}
	return flistPath, nil
}

// ConvertEdaYML reads a FuseSoC .eda.yml and renders the equivalent Vivado
// filelist at flistPath. Source references into the core tree are rewritten
// to the core's ${MIO_<SNAME>_SRC_PATH} placeholder.
func ConvertEdaYML(c *cfg.Config, fl *flist.Synthesizer, core *ip.FsocCore, edaPath, flistPath string) error {
	raw, err := os.ReadFile(edaPath)
	if err != nil {
		return errors.IOFailure(fmt.Sprintf("cannot read FuseSoC output %s", edaPath), err)
	}
	var doc edaYML
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return errors.IOFailure(fmt.Sprintf("cannot parse FuseSoC output %s", edaPath), err)
	}

	var dirs, files []string
	for _, file := range doc.Files {
		if file.FileType != "systemVerilogSource" {
			continue
		}
		if file.IsIncludeFile {
			if file.IncludePath != "" {
				dirs = append(dirs, rebaseCorePath(file.IncludePath, core))
			}
			continue
		}
		files = append(files, rebaseCorePath(file.Name, core))
	}

	defines := make(map[string]string)
	for name, param := range doc.Parameters {
		if param.Datatype != "bool" {
			return errors.InvalidDescriptor(
				fmt.Sprintf("FuseSoC parameter '%s' has unsupported datatype '%s'", name, param.Datatype),
				"only bool parameters are implemented", nil)
		}
		if value, _ := param.Default.(bool); value {
			defines[name] = "1"
		} else {
			defines[name] = "0"
		}
	}
	for _, option := range doc.ToolOptions.Xsim.XelabOptions {
		if m := xelabDefineRe.FindStringSubmatch(option); m != nil {
			defines[m[1]] = m[2]
		}
	}

	return fl.RenderRaw(cfg.Vivado, flistPath, core.Name,
		flist.FormatDefines(cfg.Vivado, defines), nil, dirs, files)
}

// rebaseCorePath rewrites a path that reaches into the core tree so it goes
// through the core's source-path environment variable instead.
func rebaseCorePath(path string, core *ip.FsocCore) string {
	placeholder := "${" + cfg.EnvVarForIP(core.SName) + "}"
	marker := core.SName + "/"
	if idx := strings.Index(path, marker); idx >= 0 {
		return placeholder + "/" + path[idx+len(marker):]
	}
	if strings.HasPrefix(path, core.Dir) {
		return placeholder + strings.TrimPrefix(path, core.Dir)
	}
	return path
}
