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

package flist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/errors"
	"github.com/datumtc/mio/pkg/ip"
)

func newTestConfig(t *testing.T) *cfg.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, cfg.ProjectFileName), []byte("project:\n  name: test\n"), 0o644))
	c, err := cfg.Load(dir)
	require.NoError(t, err)
	require.NoError(t, c.CreateSimDirs())
	return c
}

func newUART(c *cfg.Config) *ip.IP {
	return &ip.IP{
		Vendor:  "acme",
		Name:    "uart",
		Path:    filepath.Join(c.ProjectDir, "dv", "uart"),
		SrcPath: "src",
		HDL: ip.HDLSource{
			Directories: []string{".", "include"},
			TopFiles:    []string{"uart_pkg.sv"},
			Flists:      map[cfg.Simulator]string{},
		},
		Compiled:   make(map[cfg.Simulator]bool),
		Elaborated: make(map[cfg.Simulator]bool),
	}
}

func TestFormatDefines(t *testing.T) {
	defines := map[string]string{"WIDTH": "8", "FAST": ""}

	assert.Equal(t,
		[]string{"--define FAST", "--define WIDTH=8"},
		FormatDefines(cfg.Vivado, defines))
	assert.Equal(t,
		[]string{"+define+FAST", "+define+WIDTH=8"},
		FormatDefines(cfg.VCS, defines))
}

// The argv form must keep flag and value as separate tokens: exec passes
// each slice element through as one atomic argument, so a combined
// "--define NAME=VAL" string would reach xvlog/xelab as a single
// malformed argument.
func TestFormatDefinesArgv(t *testing.T) {
	defines := map[string]string{"WIDTH": "8", "FAST": ""}

	assert.Equal(t,
		[]string{"--define", "FAST", "--define", "WIDTH=8"},
		FormatDefinesArgv(cfg.Vivado, defines))
	for _, token := range FormatDefinesArgv(cfg.Vivado, defines) {
		assert.NotContains(t, token, " ")
	}

	// Non-Vivado syntax is already one token per define.
	assert.Equal(t,
		[]string{"+define+FAST", "+define+WIDTH=8"},
		FormatDefinesArgv(cfg.Questa, defines))
}

func TestGenerateVivado(t *testing.T) {
	c := newTestConfig(t)
	s, err := New(c)
	require.NoError(t, err)
	uart := newUART(c)

	path, err := s.Generate(uart, cfg.Vivado, map[string]string{"WIDTH": "8"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(c.TempDir, "acme__uart.viv.flist"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "--define WIDTH=8")
	assert.Contains(t, text, "-i ${MIO_UART_SRC_PATH}")
	assert.Contains(t, text, "-i ${MIO_UART_SRC_PATH}/include")
	assert.Contains(t, text, "${MIO_UART_SRC_PATH}/uart_pkg.sv")
}

func TestGenerateMetricsUsesRelativePaths(t *testing.T) {
	c := newTestConfig(t)
	s, err := New(c)
	require.NoError(t, err)
	uart := newUART(c)

	path, err := s.Generate(uart, cfg.Metrics, nil)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "+incdir+dv/uart/src")
	assert.Contains(t, text, "dv/uart/src/uart_pkg.sv")
	assert.NotContains(t, text, "MIO_UART_SRC_PATH")
}

func TestGenerateDVPrependsUVM(t *testing.T) {
	c := newTestConfig(t)
	s, err := New(c)
	require.NoError(t, err)
	uart := newUART(c)
	uart.SubType = ip.SubTypeDV

	path, err := s.Generate(uart, cfg.Questa, nil)
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "+incdir+$(UVM_HOME)/src")
	assert.Contains(t, text, "$(UVM_HOME)/src/uvm_pkg.sv")

	// The UVM package must come before the IP's own sources.
	assert.Less(t,
		indexOf(t, text, "uvm_pkg.sv"),
		indexOf(t, text, "uart_pkg.sv"))
}

func indexOf(t *testing.T, haystack, needle string) int {
	t.Helper()
	idx := strings.Index(haystack, needle)
	if idx < 0 {
		t.Fatalf("%q not found", needle)
	}
	return idx
}

func TestGenerateMissingTopFiles(t *testing.T) {
	c := newTestConfig(t)
	s, err := New(c)
	require.NoError(t, err)
	uart := newUART(c)
	uart.HDL.TopFiles = nil

	_, err = s.Generate(uart, cfg.Vivado, nil)
	assert.True(t, errors.Is(err, errors.KindInvalidDescriptor))
}

func TestGenerateMissingDirectories(t *testing.T) {
	c := newTestConfig(t)
	s, err := New(c)
	require.NoError(t, err)
	uart := newUART(c)
	uart.HDL.Directories = nil

	_, err = s.Generate(uart, cfg.Vivado, nil)
	assert.True(t, errors.Is(err, errors.KindInvalidDescriptor))
}

func TestGenerateDeterministic(t *testing.T) {
	c := newTestConfig(t)
	s, err := New(c)
	require.NoError(t, err)
	uart := newUART(c)
	defines := map[string]string{"B": "2", "A": "1", "C": ""}

	path, err := s.Generate(uart, cfg.VCS, defines)
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	path, err = s.Generate(uart, cfg.VCS, defines)
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestPrebuiltFilelistPreferred(t *testing.T) {
	c := newTestConfig(t)
	s, err := New(c)
	require.NoError(t, err)
	uart := newUART(c)
	uart.HDL.Flists[cfg.Vivado] = "uart.viv.flist"

	path, err := s.FilelistPath(uart, cfg.Vivado, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(uart.Path, "src", "uart.viv.flist"), path)
}

func TestPrebuiltFilelistEncrypted(t *testing.T) {
	c := newTestConfig(t)
	s, err := New(c)
	require.NoError(t, err)
	uart := newUART(c)
	uart.IsEncrypted = true
	uart.HDL.Flists[cfg.Vivado] = "uart.viv.flist"

	path, err := s.FilelistPath(uart, cfg.Vivado, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(uart.Path, "src.viv", "uart.viv.flist"), path)
}

func TestPrebuiltFilelistMetricsRelative(t *testing.T) {
	c := newTestConfig(t)
	s, err := New(c)
	require.NoError(t, err)
	uart := newUART(c)
	uart.HDL.Flists[cfg.Metrics] = "uart.mdc.flist"

	path, err := s.FilelistPath(uart, cfg.Metrics, nil)
	require.NoError(t, err)
	assert.False(t, filepath.IsAbs(path))
	assert.Equal(t, filepath.Join("dv", "uart", "src", "uart.mdc.flist"), path)
}

func TestMasterCombinesDependencyFilelists(t *testing.T) {
	c := newTestConfig(t)
	s, err := New(c)
	require.NoError(t, err)

	bus := newUART(c)
	bus.Name = "bus"
	bus.Path = filepath.Join(c.ProjectDir, "dv", "bus")
	bus.HDL.TopFiles = []string{"bus_pkg.sv"}
	uart := newUART(c)

	path, err := s.Master(uart, []*ip.IP{bus}, cfg.Vivado, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(c.TempDir, "acme__uart.top.viv.flist"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	busIdx := indexOf(t, text, "acme__bus.viv.flist")
	uartIdx := indexOf(t, text, "acme__uart.viv.flist")
	assert.Less(t, busIdx, uartIdx, "dependency filelist must precede the target's")
	assert.Contains(t, text, "-f ")
}

func TestMasterVivadoProjectEmitsProjectFile(t *testing.T) {
	c := newTestConfig(t)
	s, err := New(c)
	require.NoError(t, err)
	proj := newUART(c)
	proj.SubType = ip.SubTypeVivadoProject

	path, err := s.Master(proj, nil, cfg.Vivado, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(c.TempDir, "acme__uart.viv.prj"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "sv uart ")
}
