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

// Package ip models HDL intellectual-property blocks and their registry.
//
// An IP is a self-contained unit of HDL source described by an ip.yml
// descriptor: sources, dependency edges, optional DUT binding, tests. The
// Cache owns every IP for the process lifetime; all other packages hold
// borrowed *IP handles. Dependency edges are resolved to handles after the
// whole registry is loaded, which is also where missing dependencies
// surface. Topological ordering and cycle detection live in resolver.go.
package ip

import (
	"fmt"
	"os"

	"github.com/datumtc/mio/internal/cfg"
)

// Special vendor sentinels.
const (
	// VendorGlobal marks IPs installed in the user-global vendor store.
	VendorGlobal = "@global"

	// VendorFsoc marks libraries produced from FuseSoC cores.
	VendorFsoc = "@fsoc"

	// UVMName is the dependency name of the universal verification
	// library. It is provided by the simulator and excluded from
	// dependency ordering and library binding.
	UVMName = "uvm"
)

// SubType distinguishes descriptor flavors that need special handling.
type SubType int

const (
	// SubTypeNormal is a plain HDL source IP.
	SubTypeNormal SubType = iota

	// SubTypeVivadoProject is an IP compiled from Vivado project files.
	SubTypeVivadoProject

	// SubTypeDV is a UVM verification IP; its filelists are prefixed
	// with the UVM sources.
	SubTypeDV
)

// DUTKind identifies what a verification IP's DUT binding points at.
type DUTKind int

const (
	// DUTNone means the IP has no DUT.
	DUTNone DUTKind = iota

	// DUTIP binds the DUT to another IP in the registry.
	DUTIP

	// DUTFsoc binds the DUT to an external FuseSoC core.
	DUTFsoc
)

// Dep is one dependency edge. Target is nil until Cache.Resolve runs.
type Dep struct {
	Vendor string
	Name   string
	Target *IP
}

// DUT is a verification IP's device-under-test binding.
type DUT struct {
	Kind DUTKind

	// For Kind == DUTIP.
	Vendor string
	Name   string
	Target *IP

	// For Kind == DUTFsoc.
	FsocName     string
	FsocFullName string
	FsocTarget   string
}

// HDLSource describes an IP's source layout, from the hdl-src descriptor
// section.
type HDLSource struct {
	// TopConstructs lists the top-level modules/configs, optionally
	// qualified as "library.construct".
	TopConstructs []string

	// TopFiles lists the files handed to the compiler.
	TopFiles []string

	// Directories lists include directories, relative to the source root.
	Directories []string

	// TestsPath is the directory holding tests and suite descriptors,
	// relative to the source root.
	TestsPath string

	// TestNameTemplate renders a bare test name into the simulator test
	// name (UVM_TESTNAME). It receives {Name}.
	TestNameTemplate string

	// SOLibs lists shared-object DPI libraries, by base name.
	SOLibs []string

	// Flists maps a simulator to a prebuilt filelist path relative to the
	// source root. When present it is preferred over template synthesis.
	Flists map[cfg.Simulator]string
}

// IP is one loaded intellectual-property block.
//
// The Cache owns all IP values; everything else borrows handles. The
// per-simulator Compiled/Elaborated maps are this process's view of which
// stages are current; they are derived from on-disk outputs at load time
// and advanced by the orchestrator after each successful stage.
type IP struct {
	Vendor string
	Name   string

	// Path is the absolute directory containing the descriptor.
	Path string

	// SrcPath and ScriptsPath are relative to Path.
	SrcPath     string
	ScriptsPath string

	Deps []*Dep
	DUT  *DUT
	HDL  HDLSource

	SubType     SubType
	IsGlobal    bool
	IsEncrypted bool
	IsLocal     bool

	// loadIndex is the registry load order, used as the deterministic
	// tie-break in dependency ordering.
	loadIndex int

	Compiled   map[cfg.Simulator]bool
	Elaborated map[cfg.Simulator]bool
}

// Ident returns the canonical "vendor/name" identifier.
func (i *IP) Ident() string {
	return i.Vendor + "/" + i.Name
}

// DirName returns the flattened "vendor__name" directory name.
func (i *IP) DirName() string {
	return cfg.IPDirName(i.Vendor, i.Name)
}

// HasDUT reports whether the IP carries a DUT binding.
func (i *IP) HasDUT() bool {
	return i.DUT != nil && i.DUT.Kind != DUTNone
}

// SrcDir returns the absolute source root, accounting for encrypted
// per-simulator source trees (<src>.<sim> directories).
func (i *IP) SrcDir(sim cfg.Simulator) string {
	if i.IsEncrypted {
		return i.Path + "/" + i.SrcPath + "." + sim.Short()
	}
	return i.Path + "/" + i.SrcPath
}

// MarkCompiled records a successful compile for sim.
func (i *IP) MarkCompiled(sim cfg.Simulator) {
	i.Compiled[sim] = true
}

// MarkElaborated records a successful elaboration for sim. Elaboration
// implies compilation for simulators with a fused gen-image stage, so the
// compile flag is set as well, preserving the elaborated ⇒ compiled
// invariant.
func (i *IP) MarkElaborated(sim cfg.Simulator) {
	i.Compiled[sim] = true
	i.Elaborated[sim] = true
}

// RefreshState derives the per-simulator stage flags from on-disk outputs:
// a compile is current when the IP's library output directory exists, an
// elaboration when its elaboration log exists.
func (i *IP) RefreshState(c *cfg.Config) {
	for _, sim := range cfg.AllSimulators {
		if info, err := os.Stat(c.CmpOutDir(sim, i.Vendor, i.Name)); err == nil && info.IsDir() {
			i.Compiled[sim] = true
		}
		if _, err := os.Stat(c.ElabLogPath(i.Vendor, i.Name, sim)); err == nil {
			if i.Compiled[sim] {
				i.Elaborated[sim] = true
			}
		}
	}
}

// FsocCore is an external FuseSoC core known to the registry.
type FsocCore struct {
	// Name is the full VLNV core name (with ':' separators).
	Name string

	// SName is the short (sanitized) core name.
	SName string

	// Dir is the core's root directory.
	Dir string

	Installed bool
}

func (c *FsocCore) String() string {
	return fmt.Sprintf("core %s (%s)", c.Name, c.Dir)
}
