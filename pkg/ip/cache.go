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
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/errors"
)

type cacheKey struct {
	vendor string
	name   string
}

// Cache is the in-memory IP registry. It owns every IP descriptor for the
// process lifetime; lookups hand out borrowed handles.
type Cache struct {
	cfg    *cfg.Config
	ips    []*IP // arena, in load order
	byKey  map[cacheKey]*IP
	byName map[string][]*IP
	cores  map[string]*FsocCore
}

// NewCache creates an empty registry for one project.
func NewCache(c *cfg.Config) *Cache {
	return &Cache{
		cfg:    c,
		byKey:  make(map[cacheKey]*IP),
		byName: make(map[string][]*IP),
		cores:  make(map[string]*FsocCore),
	}
}

// Scan loads every IP descriptor visible to the project: the project's own
// source tree, locally-installed vendors, and the user-global vendor store.
// Descriptors are loaded in deterministic (sorted path) order within each
// root; that order is the tie-break used by OrderedDeps.
func (c *Cache) Scan() error {
	roots := []struct {
		dir    string
		local  bool
		global bool
	}{
		{filepath.Join(c.cfg.ProjectDir, c.cfg.SourceRootDir), true, false},
		{c.cfg.VendorsDir, false, false},
		{c.cfg.GlobalVendorsDir, false, true},
	}
	for _, root := range roots {
		dirs, err := findDescriptorDirs(root.dir)
		if err != nil {
			return err
		}
		for _, dir := range dirs {
			loaded, err := LoadDescriptor(dir)
			if err != nil {
				return err
			}
			loaded.IsLocal = root.local
			if root.global {
				loaded.IsGlobal = true
			}
			if err := c.Add(loaded); err != nil {
				return err
			}
		}
	}
	slog.Debug("cache.scan", "ip_count", len(c.ips))
	return nil
}

// findDescriptorDirs returns every directory under root containing an
// ip.yml, sorted for determinism. A missing root is not an error.
func findDescriptorDirs(root string) ([]string, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == DescriptorFileName {
			dirs = append(dirs, filepath.Dir(path))
		}
		return nil
	})
	if err != nil {
		return nil, errors.IOFailure(fmt.Sprintf("cannot scan %s for IP descriptors", root), err)
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Add registers one IP, assigning its load index.
func (c *Cache) Add(i *IP) error {
	key := cacheKey{vendor: i.Vendor, name: i.Name}
	if _, exists := c.byKey[key]; exists {
		return errors.InvalidDescriptor(
			fmt.Sprintf("duplicate IP '%s'", i.Ident()),
			fmt.Sprintf("a second descriptor for '%s' was found at %s", i.Ident(), i.Path), nil)
	}
	i.loadIndex = len(c.ips)
	c.ips = append(c.ips, i)
	c.byKey[key] = i
	c.byName[i.Name] = append(c.byName[i.Name], i)
	return nil
}

// All returns every registered IP in load order.
func (c *Cache) All() []*IP {
	return c.ips
}

// Get returns the IP registered under (vendor, name). With required set, a
// missing IP yields a NotFound error; otherwise (nil, nil).
func (c *Cache) Get(vendor, name string, required bool) (*IP, error) {
	if found, ok := c.byKey[cacheKey{vendor: vendor, name: name}]; ok {
		return found, nil
	}
	if required {
		return nil, errors.NotFound(
			fmt.Sprintf("cannot find IP '%s/%s'", vendor, name),
			"no descriptor with that vendor and name is registered",
			"Run 'mio install' to fetch missing IPs, or check the name")
	}
	return nil, nil
}

// GetAnon resolves a name-only lookup. It succeeds only when exactly one
// IP carries the name; several candidates yield an Ambiguous error.
func (c *Cache) GetAnon(name string, required bool) (*IP, error) {
	candidates := c.byName[name]
	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		if required {
			return nil, errors.NotFound(
				fmt.Sprintf("cannot find IP '%s'", name),
				"no descriptor with that name is registered",
				"Run 'mio install' to fetch missing IPs, or check the name")
		}
		return nil, nil
	default:
		vendors := make([]string, 0, len(candidates))
		for _, candidate := range candidates {
			vendors = append(vendors, candidate.Ident())
		}
		return nil, errors.Ambiguous(
			fmt.Sprintf("IP name '%s' is ambiguous", name),
			fmt.Sprintf("candidates: %v", vendors))
	}
}

// Find resolves an IP from a "vendor/name" or bare-name identifier.
func (c *Cache) Find(ident string, required bool) (*IP, error) {
	vendor, name, err := SplitIdent(ident)
	if err != nil {
		return nil, errors.NotFound(fmt.Sprintf("invalid IP identifier %q", ident), err.Error(), "")
	}
	if vendor == "" {
		return c.GetAnon(name, required)
	}
	return c.Get(vendor, name, required)
}

// Resolve links every dependency edge and DUT binding to concrete IP
// handles. It must run after Scan and before any compile stage; an
// unresolvable edge is a NotFound error naming the dependent IP.
func (c *Cache) Resolve() error {
	for _, owner := range c.ips {
		for _, dep := range owner.Deps {
			if dep.Name == UVMName {
				continue // provided by the simulator
			}
			target, err := c.lookupEdge(dep.Vendor, dep.Name)
			if err != nil {
				return errors.NotFound(
					fmt.Sprintf("cannot resolve dependency '%s/%s' of IP '%s'", dep.Vendor, dep.Name, owner.Ident()),
					"the dependency is not installed",
					fmt.Sprintf("Run 'mio install %s'", owner.Name))
			}
			dep.Target = target
		}
		if owner.DUT != nil && owner.DUT.Kind == DUTIP {
			target, err := c.lookupEdge(owner.DUT.Vendor, owner.DUT.Name)
			if err != nil {
				return errors.NotFound(
					fmt.Sprintf("cannot resolve DUT '%s' of IP '%s'", owner.DUT.Name, owner.Ident()),
					"the DUT IP is not installed",
					fmt.Sprintf("Run 'mio install %s'", owner.Name))
			}
			owner.DUT.Target = target
		}
	}
	return nil
}

func (c *Cache) lookupEdge(vendor, name string) (*IP, error) {
	if vendor == "" {
		return c.GetAnon(name, true)
	}
	return c.Get(vendor, name, true)
}

// MissingDeps returns the identifiers of root's dependencies (direct and
// transitive through resolved edges) that are not present in the registry.
func (c *Cache) MissingDeps(root *IP) []string {
	var missing []string
	seen := make(map[string]bool)
	var walk func(i *IP)
	walk = func(i *IP) {
		for _, dep := range i.Deps {
			if dep.Name == UVMName {
				continue
			}
			ident := dep.Vendor + "/" + dep.Name
			if seen[ident] {
				continue
			}
			seen[ident] = true
			target := dep.Target
			if target == nil {
				var err error
				target, err = c.lookupEdge(dep.Vendor, dep.Name)
				if err != nil || target == nil {
					missing = append(missing, ident)
					continue
				}
			}
			walk(target)
		}
	}
	walk(root)
	return missing
}

// RefreshState re-derives every IP's per-simulator stage flags from disk.
func (c *Cache) RefreshState() {
	for _, i := range c.ips {
		i.RefreshState(c.cfg)
	}
}

// AddCore registers an external FuseSoC core.
func (c *Cache) AddCore(core *FsocCore) {
	c.cores[core.Name] = core
}

// GetCore returns the FuseSoC core registered under fullName, or nil.
func (c *Cache) GetCore(fullName string) *FsocCore {
	return c.cores[fullName]
}
