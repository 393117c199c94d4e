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

package ip

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/errors"
)

// newTestConfig creates a project skeleton under a temp dir.
func newTestConfig(t *testing.T) *cfg.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, cfg.ProjectFileName), []byte("project:\n  name: test\n"), 0o644))
	c, err := cfg.Load(dir)
	require.NoError(t, err)
	return c
}

// writeIP writes a minimal ip.yml under the project source root and
// returns its directory.
func writeIP(t *testing.T, c *cfg.Config, vendor, name string, deps ...string) string {
	t.Helper()
	dir := filepath.Join(c.ProjectDir, c.SourceRootDir, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	body := "ip:\n  vendor: " + vendor + "\n  name: " + name + "\nhdl-src:\n  directories: [\".\"]\n  top-files: [\"" + name + "_pkg.sv\"]\n  top-constructs: [\"" + name + "_tb\"]\n"
	if len(deps) > 0 {
		body += "dependencies:\n"
		for _, dep := range deps {
			body += "  \"" + dep + "\": \"1.0\"\n"
		}
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, DescriptorFileName), []byte(body), 0o644))
	return dir
}

// loadCache scans and resolves a cache over the current project tree.
func loadCache(t *testing.T, c *cfg.Config) *Cache {
	t.Helper()
	cache := NewCache(c)
	require.NoError(t, cache.Scan())
	require.NoError(t, cache.Resolve())
	return cache
}

func TestLoadDescriptor(t *testing.T) {
	dir := t.TempDir()
	body := `
ip:
  vendor: acme
  name: uart
  sub-type: dv
structure:
  src-path: hdl
  scripts-path: scripts
hdl-src:
  directories: [".", "include"]
  top-files: ["uart_pkg.sv"]
  top-constructs: ["uart_tb"]
  tests-path: tests
  test-name-template: "uvmt_uart_{{ .Name }}_test_c"
  so-libs: ["uart_dpi"]
  flists:
    viv: "uart.viv.flist"
dut:
  vendor: acme
  name: uart_rtl
dependencies:
  "datum/uvml": "1.0"
  "acme/bus": "2.1"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DescriptorFileName), []byte(body), 0o644))

	loaded, err := LoadDescriptor(dir)
	require.NoError(t, err)

	assert.Equal(t, "acme", loaded.Vendor)
	assert.Equal(t, "uart", loaded.Name)
	assert.Equal(t, "acme/uart", loaded.Ident())
	assert.Equal(t, "acme__uart", loaded.DirName())
	assert.Equal(t, SubTypeDV, loaded.SubType)
	assert.Equal(t, "hdl", loaded.SrcPath)
	assert.Equal(t, []string{".", "include"}, loaded.HDL.Directories)
	assert.Equal(t, "uart.viv.flist", loaded.HDL.Flists[cfg.Vivado])
	require.Len(t, loaded.Deps, 2)
	assert.Equal(t, "datum", loaded.Deps[0].Vendor)
	assert.Equal(t, "uvml", loaded.Deps[0].Name)
	assert.Equal(t, "bus", loaded.Deps[1].Name)
	require.NotNil(t, loaded.DUT)
	assert.Equal(t, DUTIP, loaded.DUT.Kind)
	assert.Equal(t, "uart_rtl", loaded.DUT.Name)
	assert.True(t, loaded.HasDUT())
}

func TestLoadDescriptorFsocDUT(t *testing.T) {
	dir := t.TempDir()
	body := `
ip:
  vendor: acme
  name: uvmt_core
dut:
  type: fsoc
  name: mycore
  full-name: "acme:ip:mycore:1.0"
  target: sim
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DescriptorFileName), []byte(body), 0o644))

	loaded, err := LoadDescriptor(dir)
	require.NoError(t, err)
	require.NotNil(t, loaded.DUT)
	assert.Equal(t, DUTFsoc, loaded.DUT.Kind)
	assert.Equal(t, "acme:ip:mycore:1.0", loaded.DUT.FsocFullName)
	assert.Equal(t, "sim", loaded.DUT.FsocTarget)
}

func TestLoadDescriptorMissingName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DescriptorFileName), []byte("ip:\n  vendor: acme\n"), 0o644))

	_, err := LoadDescriptor(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindInvalidDescriptor))
}

func TestLoadDescriptorBadSubType(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DescriptorFileName),
		[]byte("ip:\n  vendor: acme\n  name: x\n  sub-type: quantum\n"), 0o644))

	_, err := LoadDescriptor(dir)
	assert.True(t, errors.Is(err, errors.KindInvalidDescriptor))
}

func TestSplitIdent(t *testing.T) {
	vendor, name, err := SplitIdent("acme/uart")
	require.NoError(t, err)
	assert.Equal(t, "acme", vendor)
	assert.Equal(t, "uart", name)

	vendor, name, err = SplitIdent("uart")
	require.NoError(t, err)
	assert.Empty(t, vendor)
	assert.Equal(t, "uart", name)

	_, _, err = SplitIdent("a/b/c")
	assert.Error(t, err)
	_, _, err = SplitIdent("")
	assert.Error(t, err)
}

func TestCacheGetAndGetAnon(t *testing.T) {
	c := newTestConfig(t)
	writeIP(t, c, "acme", "uart")
	writeIP(t, c, "acme", "bus")
	cache := loadCache(t, c)

	found, err := cache.Get("acme", "uart", true)
	require.NoError(t, err)
	assert.Equal(t, "acme/uart", found.Ident())

	found, err = cache.GetAnon("bus", true)
	require.NoError(t, err)
	assert.Equal(t, "acme/bus", found.Ident())

	_, err = cache.Get("acme", "nope", true)
	assert.True(t, errors.Is(err, errors.KindNotFound))

	missing, err := cache.Get("acme", "nope", false)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCacheGetAnonAmbiguous(t *testing.T) {
	c := newTestConfig(t)
	writeIP(t, c, "acme", "uart")
	writeIP(t, c, "globex", "uart2")
	// Second vendor shipping the same name.
	dir := filepath.Join(c.ProjectDir, c.SourceRootDir, "uart_globex")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DescriptorFileName),
		[]byte("ip:\n  vendor: globex\n  name: uart\n"), 0o644))
	cache := loadCache(t, c)

	_, err := cache.GetAnon("uart", true)
	assert.True(t, errors.Is(err, errors.KindAmbiguous))
}

func TestCacheResolveMissingDep(t *testing.T) {
	c := newTestConfig(t)
	writeIP(t, c, "acme", "tb", "acme/ghost")
	cache := NewCache(c)
	require.NoError(t, cache.Scan())

	err := cache.Resolve()
	assert.True(t, errors.Is(err, errors.KindNotFound))
}

func TestMissingDeps(t *testing.T) {
	c := newTestConfig(t)
	writeIP(t, c, "acme", "tb", "acme/dma", "acme/ghost")
	writeIP(t, c, "acme", "dma")
	cache := NewCache(c)
	require.NoError(t, cache.Scan())

	root, err := cache.Get("acme", "tb", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme/ghost"}, cache.MissingDeps(root))
}

func TestMarkElaboratedImpliesCompiled(t *testing.T) {
	i := &IP{
		Compiled:   make(map[cfg.Simulator]bool),
		Elaborated: make(map[cfg.Simulator]bool),
	}
	i.MarkElaborated(cfg.Metrics)
	assert.True(t, i.Compiled[cfg.Metrics])
	assert.True(t, i.Elaborated[cfg.Metrics])
}

func TestRefreshStateFromDisk(t *testing.T) {
	c := newTestConfig(t)
	writeIP(t, c, "acme", "uart")
	cache := loadCache(t, c)
	uart, err := cache.Get("acme", "uart", true)
	require.NoError(t, err)

	uart.RefreshState(c)
	assert.False(t, uart.Compiled[cfg.Vivado])

	require.NoError(t, os.MkdirAll(c.CmpOutDir(cfg.Vivado, "acme", "uart"), 0o755))
	uart.RefreshState(c)
	assert.True(t, uart.Compiled[cfg.Vivado])
	assert.False(t, uart.Elaborated[cfg.Vivado])

	require.NoError(t, os.MkdirAll(filepath.Dir(c.ElabLogPath("acme", "uart", cfg.Vivado)), 0o755))
	require.NoError(t, os.WriteFile(c.ElabLogPath("acme", "uart", cfg.Vivado), []byte("ok\n"), 0o644))
	uart.RefreshState(c)
	assert.True(t, uart.Elaborated[cfg.Vivado])
}
