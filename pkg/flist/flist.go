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

// Package flist synthesizes simulator filelists.
//
// A filelist tells a simulator front end which sources, include
// directories, defines and nested filelists make up one compile unit. Each
// simulator has its own syntax, captured in an embedded template keyed by
// the simulator short code. Source locations are referenced through
// ${MIO_<IPNAME>_SRC_PATH} environment placeholders, except under the
// Metrics cloud simulator whose workspace sync requires project-relative
// paths.
package flist

import (
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/errors"
	"github.com/datumtc/mio/pkg/ip"
)

//go:embed templates/*.j2
var templateFS embed.FS

// templateData is handed to every filelist template.
type templateData struct {
	Target    string
	Defines   []string
	Dirs      []string
	Filelists []string
	Files     []string
}

// Synthesizer produces filelists under the project temp directory.
type Synthesizer struct {
	cfg       *cfg.Config
	templates *template.Template
}

// New creates a Synthesizer with the embedded template set parsed.
func New(c *cfg.Config) (*Synthesizer, error) {
	parsed, err := template.New("flist").ParseFS(templateFS, "templates/*.j2")
	if err != nil {
		return nil, errors.TemplateFailure("cannot parse embedded filelist templates", err)
	}
	return &Synthesizer{cfg: c, templates: parsed}, nil
}

// FormatDefines renders a define map in the target simulator's syntax:
// "--define NAME[=VAL]" for Vivado, "+define+NAME[=VAL]" everywhere else.
// Output is sorted by name so that repeated synthesis is byte-identical.
func FormatDefines(sim cfg.Simulator, defines map[string]string) []string {
	names := make([]string, 0, len(defines))
	for name := range defines {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		value := defines[name]
		switch {
		case sim == cfg.Vivado && value != "":
			out = append(out, "--define "+name+"="+value)
		case sim == cfg.Vivado:
			out = append(out, "--define "+name)
		case value != "":
			out = append(out, "+define+"+name+"="+value)
		default:
			out = append(out, "+define+"+name)
		}
	}
	return out
}

// FormatDefinesArgv renders a define map as argv tokens for direct
// (no-shell) tool invocation. Vivado's flag form is two tokens per define
// ("--define", "NAME[=VAL]"); the +define+ form is already a single token,
// so other simulators reuse FormatDefines. FormatDefines itself stays the
// filelist form: inside a filelist the tool's -f/-F reader tokenizes the
// line, but exec passes each slice element through as one atomic argument.
func FormatDefinesArgv(sim cfg.Simulator, defines map[string]string) []string {
	if sim != cfg.Vivado {
		return FormatDefines(sim, defines)
	}
	names := make([]string, 0, len(defines))
	for name := range defines {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]string, 0, 2*len(names))
	for _, name := range names {
		token := name
		if value := defines[name]; value != "" {
			token = name + "=" + value
		}
		out = append(out, "--define", token)
	}
	return out
}

// FilelistPath returns the filelist for one IP: the descriptor's prebuilt
// filelist when one is declared for sim, otherwise a freshly generated one.
func (s *Synthesizer) FilelistPath(target *ip.IP, sim cfg.Simulator, defines map[string]string) (string, error) {
	if prebuilt, ok := target.HDL.Flists[sim]; ok && prebuilt != "" {
		path := prebuilt
		if !filepath.IsAbs(path) {
			path = filepath.Join(target.SrcDir(sim), prebuilt)
		}
		if sim == cfg.Metrics {
			rel, err := filepath.Rel(s.cfg.ProjectDir, path)
			if err != nil {
				return "", errors.IOFailure(fmt.Sprintf("cannot relativize filelist %s", path), err)
			}
			path = rel
		}
		slog.Debug("flist.prebuilt", "ip", target.Ident(), "path", path)
		return path, nil
	}
	return s.Generate(target, sim, defines)
}

// Generate renders the per-IP filelist from the simulator template and
// writes it to <temp>/<vendor>__<name>.<sim>.flist.
//
// A descriptor without top-files or directories is an InvalidDescriptor
// error; a rendering problem is a TemplateFailure.
func (s *Synthesizer) Generate(target *ip.IP, sim cfg.Simulator, defines map[string]string) (string, error) {
	if len(target.HDL.TopFiles) == 0 {
		return "", errors.InvalidDescriptor(
			fmt.Sprintf("no 'top-files' defined under 'hdl-src' in descriptor for IP '%s'", target.Ident()), "", nil)
	}
	if len(target.HDL.Directories) == 0 {
		return "", errors.InvalidDescriptor(
			fmt.Sprintf("no 'directories' entry under 'hdl-src' in descriptor for IP '%s'", target.Ident()), "", nil)
	}

	dirs, files, err := s.sourceRefs(target, sim)
	if err != nil {
		return "", err
	}

	// DV IPs pull in the UVM library sources for simulators that do not
	// bundle them.
	if target.SubType == ip.SubTypeDV {
		switch sim {
		case cfg.Metrics:
			dirs = append([]string{"$UVM_HOME/src"}, dirs...)
			files = append([]string{"$UVM_HOME/src/uvm_pkg.sv"}, files...)
		case cfg.Questa:
			dirs = append([]string{"$(UVM_HOME)/src"}, dirs...)
			files = append([]string{"$(UVM_HOME)/src/uvm_pkg.sv"}, files...)
		}
	}

	path := filepath.Join(s.cfg.TempDir, fmt.Sprintf("%s.%s.flist", target.DirName(), sim.Short()))
	data := templateData{
		Target:  target.Ident(),
		Defines: FormatDefines(sim, defines),
		Dirs:    dirs,
		Files:   files,
	}
	if err := s.render(sim, path, data); err != nil {
		return "", err
	}
	slog.Debug("flist.generate", "ip", target.Ident(), "simulator", sim.Short(), "path", path)
	return path, nil
}

// Master combines the filelists of deps (in compile order) and target into
// one top-level filelist at <temp>/<vendor>__<name>.top.<sim>.flist. For
// Vivado-project IPs it emits a project file instead.
func (s *Synthesizer) Master(target *ip.IP, deps []*ip.IP, sim cfg.Simulator, defines map[string]string) (string, error) {
	if target.SubType == ip.SubTypeVivadoProject {
		return s.projectFile(target, sim)
	}

	var nested []string
	for _, dep := range deps {
		depFlist, err := s.FilelistPath(dep, sim, nil)
		if err != nil {
			return "", err
		}
		nested = append(nested, depFlist)
	}
	own, err := s.FilelistPath(target, sim, defines)
	if err != nil {
		return "", err
	}
	nested = append(nested, own)

	path := filepath.Join(s.cfg.TempDir, fmt.Sprintf("%s.top.%s.flist", target.DirName(), sim.Short()))
	if sim == cfg.Metrics {
		rebased := make([]string, 0, len(nested))
		for _, entry := range nested {
			if filepath.IsAbs(entry) {
				rel, err := filepath.Rel(s.cfg.TempDir, entry)
				if err != nil {
					return "", errors.IOFailure(fmt.Sprintf("cannot relativize filelist %s", entry), err)
				}
				entry = rel
			}
			rebased = append(rebased, entry)
		}
		nested = rebased
	}

	data := templateData{Target: target.Ident(), Filelists: nested}
	if err := s.render(sim, path, data); err != nil {
		return "", err
	}

	if sim == cfg.Metrics {
		rel, err := filepath.Rel(s.cfg.ProjectDir, path)
		if err != nil {
			return "", errors.IOFailure(fmt.Sprintf("cannot relativize master filelist %s", path), err)
		}
		return rel, nil
	}
	return path, nil
}

// projectFile writes the Vivado project file enumerating the IP's sources.
func (s *Synthesizer) projectFile(target *ip.IP, sim cfg.Simulator) (string, error) {
	if sim != cfg.Vivado {
		return "", errors.InvalidDescriptor(
			fmt.Sprintf("Vivado-project IP '%s' is only compatible with the Vivado simulator", target.Ident()), "", nil)
	}
	var out strings.Builder
	for _, file := range target.HDL.TopFiles {
		fmt.Fprintf(&out, "sv %s %s\n", target.Name, filepath.Join(target.SrcDir(sim), file))
	}
	path := filepath.Join(s.cfg.TempDir, fmt.Sprintf("%s.%s.prj", target.DirName(), sim.Short()))
	if err := os.WriteFile(path, []byte(out.String()), 0o644); err != nil {
		return "", errors.IOFailure(fmt.Sprintf("cannot write project file %s", path), err)
	}
	return path, nil
}

// sourceRefs builds the directory and file references for one IP. Local
// simulators see the environment-variable placeholder; Metrics sees
// project-relative paths.
func (s *Synthesizer) sourceRefs(target *ip.IP, sim cfg.Simulator) (dirs, files []string, err error) {
	srcDir := target.SrcDir(sim)
	envRef := "${" + cfg.EnvVarForIP(target.Name) + "}"

	relSrc := srcDir
	if sim == cfg.Metrics {
		relSrc, err = filepath.Rel(s.cfg.ProjectDir, srcDir)
		if err != nil {
			return nil, nil, errors.IOFailure(fmt.Sprintf("cannot relativize sources of IP '%s'", target.Ident()), err)
		}
	}

	for _, dir := range target.HDL.Directories {
		switch {
		case sim == cfg.Metrics && dir == ".":
			dirs = append(dirs, relSrc)
		case sim == cfg.Metrics:
			dirs = append(dirs, filepath.Join(relSrc, dir))
		case dir == ".":
			dirs = append(dirs, envRef)
		default:
			dirs = append(dirs, envRef+"/"+dir)
		}
	}
	for _, file := range target.HDL.TopFiles {
		if sim == cfg.Metrics {
			files = append(files, filepath.Join(relSrc, file))
		} else {
			files = append(files, envRef+"/"+file)
		}
	}
	return dirs, files, nil
}

// RenderRaw renders a filelist at path from explicit contents, bypassing
// descriptor-driven synthesis. Used for FuseSoC core output conversion.
func (s *Synthesizer) RenderRaw(sim cfg.Simulator, path, target string, defines, filelists, dirs, files []string) error {
	return s.render(sim, path, templateData{
		Target:    target,
		Defines:   defines,
		Filelists: filelists,
		Dirs:      dirs,
		Files:     files,
	})
}

// render executes the simulator's template into path.
func (s *Synthesizer) render(sim cfg.Simulator, path string, data templateData) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.IOFailure(fmt.Sprintf("cannot create filelist directory for %s", path), err)
	}
	out, err := os.Create(path)
	if err != nil {
		return errors.IOFailure(fmt.Sprintf("cannot create filelist %s", path), err)
	}
	defer out.Close()

	name := sim.Short() + ".flist.j2"
	if err := s.templates.ExecuteTemplate(out, name, data); err != nil {
		return errors.TemplateFailure(fmt.Sprintf("cannot render filelist template %s", name), err)
	}
	return nil
}
