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

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datumtc/mio/internal/cfg"
)

// The repeat record resolves through the project root, so writing it at
// the root and reading it from a subdirectory lands on the same file.
func TestLastCommandPathFromSubdirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, cfg.ProjectFileName), []byte("project:\n  name: p\n"), 0o644))
	sub := filepath.Join(root, "dv", "uvmt_uart")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	c, err := cfg.Load(root)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(c.OutputDir, 0o755))
	saveLastCommand(c, []string{"sim", "uart", "-C"})

	path, err := lastCommandPath(sub)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(c.OutputDir, "last_command"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sim\nuart\n-C\n", string(raw))
}

func TestLastCommandPathOutsideProject(t *testing.T) {
	_, err := lastCommandPath(t.TempDir())
	assert.Error(t, err)
}
