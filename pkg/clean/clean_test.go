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

package clean

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/pkg/ip"
)

func setupProject(t *testing.T) (*cfg.Config, *ip.Cache) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, cfg.ProjectFileName), []byte("project:\n  name: p\n"), 0o644))
	c, err := cfg.Load(dir)
	require.NoError(t, err)
	require.NoError(t, c.CreateSimDirs())
	return c, ip.NewCache(c)
}

func addIP(t *testing.T, c *cfg.Config, cache *ip.Cache, name string, deps ...string) *ip.IP {
	t.Helper()
	dir := filepath.Join(c.ProjectDir, c.SourceRootDir, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	body := "ip:\n  vendor: acme\n  name: " + name + "\n"
	if len(deps) > 0 {
		body += "dependencies:\n"
		for _, dep := range deps {
			body += "  \"acme/" + dep + "\": \"1.0\"\n"
		}
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ip.yml"), []byte(body), 0o644))
	loaded, err := ip.LoadDescriptor(dir)
	require.NoError(t, err)
	require.NoError(t, cache.Add(loaded))
	return loaded
}

// fakeOutputs materializes compile artifacts for one IP.
func fakeOutputs(t *testing.T, c *cfg.Config, name string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(c.CmpOutDir(cfg.Vivado, "acme", name), 0o755))
	require.NoError(t, os.WriteFile(c.CmpLogPath("acme", name, cfg.Vivado), []byte("log"), 0o644))
}

func TestCleanRemovesTargetOutputs(t *testing.T) {
	c, cache := setupProject(t)
	uart := addIP(t, c, cache, "uart")
	require.NoError(t, cache.Resolve())
	fakeOutputs(t, c, "uart")
	uart.MarkCompiled(cfg.Vivado)

	require.NoError(t, Clean(c, cache, uart, false))

	_, err := os.Stat(c.CmpOutDir(cfg.Vivado, "acme", "uart"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(c.CmpLogPath("acme", "uart", cfg.Vivado))
	assert.True(t, os.IsNotExist(err))
	assert.False(t, uart.Compiled[cfg.Vivado])
}

func TestCleanShallowKeepsDependencies(t *testing.T) {
	c, cache := setupProject(t)
	addIP(t, c, cache, "bus")
	tb := addIP(t, c, cache, "tb", "bus")
	require.NoError(t, cache.Resolve())
	fakeOutputs(t, c, "bus")
	fakeOutputs(t, c, "tb")

	require.NoError(t, Clean(c, cache, tb, false))

	_, err := os.Stat(c.CmpOutDir(cfg.Vivado, "acme", "bus"))
	assert.NoError(t, err, "shallow clean must keep dependency outputs")
}

func TestCleanDeepRemovesDependencies(t *testing.T) {
	c, cache := setupProject(t)
	addIP(t, c, cache, "bus")
	tb := addIP(t, c, cache, "tb", "bus")
	require.NoError(t, cache.Resolve())
	fakeOutputs(t, c, "bus")
	fakeOutputs(t, c, "tb")

	require.NoError(t, Clean(c, cache, tb, true))

	_, err := os.Stat(c.CmpOutDir(cfg.Vivado, "acme", "bus"))
	assert.True(t, os.IsNotExist(err))
}
