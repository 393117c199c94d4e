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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/errors"
)

// DescriptorFileName is the per-IP descriptor file.
const DescriptorFileName = "ip.yml"

// descriptorFile mirrors the on-disk ip.yml schema.
type descriptorFile struct {
	IP struct {
		Vendor  string `yaml:"vendor"`
		Name    string `yaml:"name"`
		SubType string `yaml:"sub-type"`
	} `yaml:"ip"`

	Structure struct {
		SrcPath     string `yaml:"src-path"`
		ScriptsPath string `yaml:"scripts-path"`
	} `yaml:"structure"`

	HDLSrc struct {
		Directories      []string          `yaml:"directories"`
		TopFiles         []string          `yaml:"top-files"`
		TopConstructs    []string          `yaml:"top-constructs"`
		TestsPath        string            `yaml:"tests-path"`
		TestNameTemplate string            `yaml:"test-name-template"`
		SOLibs           []string          `yaml:"so-libs"`
		Flists           map[string]string `yaml:"flists"`
		Encrypted        bool              `yaml:"encrypted"`
	} `yaml:"hdl-src"`

	DUT struct {
		Type     string `yaml:"type"`
		Vendor   string `yaml:"vendor"`
		Name     string `yaml:"name"`
		FullName string `yaml:"full-name"`
		Target   string `yaml:"target"`
	} `yaml:"dut"`

	Dependencies depList `yaml:"dependencies"`
}

// depList preserves the document order of the dependencies mapping, which
// yaml.v3 would otherwise lose by decoding into a Go map.
type depList []depEntry

type depEntry struct {
	Vendor string
	Name   string
}

func (d *depList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("'dependencies' must be a mapping of \"vendor/name\" to version")
	}
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i].Value
		vendor, name, err := SplitIdent(key)
		if err != nil {
			return err
		}
		*d = append(*d, depEntry{Vendor: vendor, Name: name})
	}
	return nil
}

// SplitIdent splits a "vendor/name" identifier. A bare name yields an
// empty vendor, resolved later by the anonymous lookup.
func SplitIdent(ident string) (vendor, name string, err error) {
	ident = strings.TrimSpace(ident)
	if ident == "" {
		return "", "", fmt.Errorf("empty IP identifier")
	}
	parts := strings.Split(ident, "/")
	switch len(parts) {
	case 1:
		return "", parts[0], nil
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return "", "", fmt.Errorf("malformed IP identifier %q", ident)
		}
		return parts[0], parts[1], nil
	default:
		return "", "", fmt.Errorf("malformed IP identifier %q", ident)
	}
}

// LoadDescriptor parses the ip.yml inside dir into an IP.
//
// Structural problems return an InvalidDescriptor error. Dependency edges
// are left unresolved; Cache.Resolve links them once every IP is loaded.
func LoadDescriptor(dir string) (*IP, error) {
	path := filepath.Join(dir, DescriptorFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOFailure(fmt.Sprintf("cannot read IP descriptor %s", path), err)
	}

	var doc descriptorFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.InvalidDescriptor(fmt.Sprintf("cannot parse %s", path), err.Error(), err)
	}

	if doc.IP.Name == "" {
		return nil, errors.InvalidDescriptor(fmt.Sprintf("descriptor %s has no 'ip.name'", path), "", nil)
	}
	if doc.IP.Vendor == "" {
		return nil, errors.InvalidDescriptor(fmt.Sprintf("descriptor %s has no 'ip.vendor'", path), "", nil)
	}

	subType := SubTypeNormal
	switch doc.IP.SubType {
	case "", "normal":
	case "vivado":
		subType = SubTypeVivadoProject
	case "dv":
		subType = SubTypeDV
	default:
		return nil, errors.InvalidDescriptor(
			fmt.Sprintf("descriptor %s has unknown 'ip.sub-type' %q", path, doc.IP.SubType),
			"valid sub-types are: normal, vivado, dv", nil)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.IOFailure(fmt.Sprintf("cannot resolve IP path %s", dir), err)
	}

	flists := make(map[cfg.Simulator]string, len(doc.HDLSrc.Flists))
	for code, flist := range doc.HDLSrc.Flists {
		sim, err := cfg.ParseSimulator(code)
		if err != nil {
			return nil, errors.InvalidDescriptor(
				fmt.Sprintf("descriptor %s has unknown simulator %q under 'hdl-src.flists'", path, code), "", nil)
		}
		flists[sim] = flist
	}

	result := &IP{
		Vendor:      doc.IP.Vendor,
		Name:        doc.IP.Name,
		Path:        abs,
		SrcPath:     withDefault(doc.Structure.SrcPath, "src"),
		ScriptsPath: withDefault(doc.Structure.ScriptsPath, "bin"),
		SubType:     subType,
		IsEncrypted: doc.HDLSrc.Encrypted,
		IsGlobal:    doc.IP.Vendor == VendorGlobal,
		HDL: HDLSource{
			Directories:      doc.HDLSrc.Directories,
			TopFiles:         doc.HDLSrc.TopFiles,
			TopConstructs:    doc.HDLSrc.TopConstructs,
			TestsPath:        doc.HDLSrc.TestsPath,
			TestNameTemplate: withDefault(doc.HDLSrc.TestNameTemplate, "{{ .Name }}"),
			SOLibs:           doc.HDLSrc.SOLibs,
			Flists:           flists,
		},
		Compiled:   make(map[cfg.Simulator]bool),
		Elaborated: make(map[cfg.Simulator]bool),
	}

	for _, dep := range doc.Dependencies {
		result.Deps = append(result.Deps, &Dep{Vendor: dep.Vendor, Name: dep.Name})
	}

	if doc.DUT.Name != "" || doc.DUT.FullName != "" {
		switch doc.DUT.Type {
		case "fsoc":
			if doc.DUT.FullName == "" {
				return nil, errors.InvalidDescriptor(
					fmt.Sprintf("descriptor %s declares a FuseSoC DUT without 'dut.full-name'", path), "", nil)
			}
			result.DUT = &DUT{
				Kind:         DUTFsoc,
				FsocName:     doc.DUT.Name,
				FsocFullName: doc.DUT.FullName,
				FsocTarget:   doc.DUT.Target,
			}
		case "", "ip":
			result.DUT = &DUT{
				Kind:   DUTIP,
				Vendor: doc.DUT.Vendor,
				Name:   doc.DUT.Name,
			}
		default:
			return nil, errors.InvalidDescriptor(
				fmt.Sprintf("descriptor %s has unknown 'dut.type' %q", path, doc.DUT.Type),
				"valid DUT types are: ip, fsoc", nil)
		}
	}

	return result, nil
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
