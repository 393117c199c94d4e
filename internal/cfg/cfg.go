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

// Package cfg holds the process-wide immutable configuration for mio.
//
// Configuration is resolved once at startup from the project's mio.yml
// (found by walking upward from the working directory), overlaid with
// MIO_* environment variables. The resulting Config carries the project
// root, the full simulation output layout, tool home paths, and the
// simulation defaults every other package consumes.
package cfg

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ProjectFileName is the project descriptor marking the project root.
const ProjectFileName = "mio.yml"

// Config is the process-wide configuration. It is immutable after Load.
type Config struct {
	// ProjectDir is the absolute path of the project root (the directory
	// holding mio.yml).
	ProjectDir string

	// Project name, from the 'project.name' entry of mio.yml.
	ProjectName string

	// SourceRootDir is the project-relative directory holding HDL sources,
	// from 'simulation.root-path'. Defaults to "dv".
	SourceRootDir string

	// Output layout roots, all under <ProjectDir>/.mio.
	OutputDir      string // .mio
	SimDir         string // .mio/sim
	SimOutputDir   string // .mio/sim/out
	SimResultsDir  string // .mio/sim/results
	RegrResultsDir string // .mio/sim/regression_results
	TempDir        string // .mio/temp
	FsocDir        string // .mio/fsoc
	VendorsDir     string // .mio/vendors

	// GlobalVendorsDir is where globally-installed IPs live (~/.mio/vendors).
	GlobalVendorsDir string

	// ToolHomes maps each simulator to the directory holding its binaries.
	ToolHomes map[Simulator]string

	// UVMHome is the UVM source tree, required by simulators that do not
	// bundle UVM (Questa, Metrics).
	UVMHome string

	// DefaultSimulator is used when no -a/--app flag is given.
	DefaultSimulator Simulator

	// UVMVersion is the UVM library version string (e.g. "1.2").
	UVMVersion string

	// Timescale is the default simulation timescale (e.g. "1ns/1ps").
	Timescale string

	// MaxErrors is the default error count at which a stage is terminated.
	MaxErrors int

	// TestResultsPathTemplate renders the per-test results directory name.
	// It receives {IPVendor, IPName, TestName, Seed, Args, ArgsPresent}.
	TestResultsPathTemplate string
}

// DefaultTestResultsPathTemplate names a test's result directory from its
// test name and seed, with any plusargs appended.
const DefaultTestResultsPathTemplate = `{{ .TestName }}_{{ .Seed }}{{ if .ArgsPresent }}_{{ join .Args "_" }}{{ end }}`

// Load resolves the configuration for the project containing wd.
//
// The project root is the nearest ancestor of wd holding mio.yml. Values
// come from mio.yml, overridden by MIO_* environment variables
// (MIO_VIVADO_HOME, MIO_DEFAULT_SIMULATOR, ...), falling back to defaults.
func Load(wd string) (*Config, error) {
	root, err := findProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(root, ProjectFileName))
	v.SetConfigType("yaml")

	v.SetDefault("project.name", filepath.Base(root))
	v.SetDefault("simulation.root-path", "dv")
	v.SetDefault("simulation.default-simulator", "viv")
	v.SetDefault("simulation.uvm-version", "1.2")
	v.SetDefault("simulation.timescale", "1ns/1ps")
	v.SetDefault("simulation.max-errors", 10)
	v.SetDefault("simulation.test-results-path-template", DefaultTestResultsPathTemplate)

	// Tool homes come from mio.yml or the conventional environment variables.
	bindings := map[string]string{
		"tools.vivado-home":  "MIO_VIVADO_HOME",
		"tools.metrics-home": "MIO_METRICS_HOME",
		"tools.vcs-home":     "MIO_VCS_HOME",
		"tools.xcelium-home": "MIO_XCELIUM_HOME",
		"tools.questa-home":  "MIO_QUESTA_HOME",
		"tools.riviera-home": "MIO_RIVIERA_HOME",
		"tools.uvm-home":     "MIO_UVM_HOME",

		"simulation.default-simulator": "MIO_DEFAULT_SIMULATOR",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", ProjectFileName, err)
	}

	defaultSim, err := ParseSimulator(v.GetString("simulation.default-simulator"))
	if err != nil {
		return nil, fmt.Errorf("mio.yml simulation.default-simulator: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}

	outputDir := filepath.Join(root, ".mio")
	simDir := filepath.Join(outputDir, "sim")
	c := &Config{
		ProjectDir:       root,
		ProjectName:      v.GetString("project.name"),
		SourceRootDir:    v.GetString("simulation.root-path"),
		OutputDir:        outputDir,
		SimDir:           simDir,
		SimOutputDir:     filepath.Join(simDir, "out"),
		SimResultsDir:    filepath.Join(simDir, "results"),
		RegrResultsDir:   filepath.Join(simDir, "regression_results"),
		TempDir:          filepath.Join(outputDir, "temp"),
		FsocDir:          filepath.Join(outputDir, "fsoc"),
		VendorsDir:       filepath.Join(outputDir, "vendors"),
		GlobalVendorsDir: filepath.Join(home, ".mio", "vendors"),
		ToolHomes: map[Simulator]string{
			Vivado:  v.GetString("tools.vivado-home"),
			Metrics: v.GetString("tools.metrics-home"),
			VCS:     v.GetString("tools.vcs-home"),
			Xcelium: v.GetString("tools.xcelium-home"),
			Questa:  v.GetString("tools.questa-home"),
			Riviera: v.GetString("tools.riviera-home"),
		},
		UVMHome:                 v.GetString("tools.uvm-home"),
		DefaultSimulator:        defaultSim,
		UVMVersion:              v.GetString("simulation.uvm-version"),
		Timescale:               v.GetString("simulation.timescale"),
		MaxErrors:               v.GetInt("simulation.max-errors"),
		TestResultsPathTemplate: v.GetString("simulation.test-results-path-template"),
	}

	slog.Debug("cfg.load", "project_dir", c.ProjectDir, "default_simulator", c.DefaultSimulator.String())
	return c, nil
}

// findProjectRoot walks upward from wd looking for mio.yml.
func findProjectRoot(wd string) (string, error) {
	dir, err := filepath.Abs(wd)
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ProjectFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found in %q or any parent directory", ProjectFileName, wd)
		}
		dir = parent
	}
}

// EnvVarForIP returns the environment variable name that carries an IP's
// source root during tool invocations: MIO_<UPPER_NAME>_SRC_PATH.
func EnvVarForIP(ipName string) string {
	name := strings.ToUpper(strings.ReplaceAll(ipName, "-", "_"))
	return "MIO_" + name + "_SRC_PATH"
}
