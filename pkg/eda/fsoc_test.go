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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datumtc/mio/pkg/ip"
)

func TestConvertEdaYML(t *testing.T) {
	c, fl, _ := newTestToolchain(t)
	core := &ip.FsocCore{
		Name:  "acme:ip:mycore:1.0",
		SName: "mycore",
		Dir:   filepath.Join(c.ProjectDir, "cores", "mycore"),
	}

	edaBody := `
files:
  - name: ../../cores/mycore/rtl/top.sv
    file_type: systemVerilogSource
  - name: ../../cores/mycore/rtl/defs.svh
    file_type: systemVerilogSource
    is_include_file: true
    include_path: ../../cores/mycore/rtl
  - name: ../../cores/mycore/tcl/setup.tcl
    file_type: tclSource
parameters:
  ENABLE_ECC:
    datatype: bool
    default: true
  FAST_SIM:
    datatype: bool
    default: false
tool_options:
  xsim:
    xelab_options:
      - "--define DEPTH=16"
      - "--timescale 1ns/1ps"
`
	edaDir := filepath.Join(c.TempDir, "fsoc")
	require.NoError(t, os.MkdirAll(edaDir, 0o755))
	edaPath := filepath.Join(edaDir, "acme_ip_mycore_1.0_0.eda.yml")
	require.NoError(t, os.WriteFile(edaPath, []byte(edaBody), 0o644))

	flistPath := filepath.Join(edaDir, "acme_ip_mycore_1.0_0.flist")
	require.NoError(t, ConvertEdaYML(c, fl, core, edaPath, flistPath))

	content, err := os.ReadFile(flistPath)
	require.NoError(t, err)
	text := string(content)

	assert.Contains(t, text, "${MIO_MYCORE_SRC_PATH}/rtl/top.sv")
	assert.Contains(t, text, "-i ${MIO_MYCORE_SRC_PATH}/rtl")
	assert.NotContains(t, text, "setup.tcl")
	assert.Contains(t, text, "--define ENABLE_ECC=1")
	assert.Contains(t, text, "--define FAST_SIM=0")
	assert.Contains(t, text, "--define DEPTH=16")
	assert.NotContains(t, text, "--timescale")
}

func TestRebaseCorePath(t *testing.T) {
	core := &ip.FsocCore{SName: "mycore", Dir: "/work/cores/mycore"}
	assert.Equal(t, "${MIO_MYCORE_SRC_PATH}/rtl/top.sv", rebaseCorePath("../../mycore/rtl/top.sv", core))
	assert.Equal(t, "${MIO_MYCORE_SRC_PATH}/rtl/a.sv", rebaseCorePath("/work/cores/mycore/rtl/a.sv", core))
	assert.Equal(t, "/elsewhere/b.sv", rebaseCorePath("/elsewhere/b.sv", core))
}
