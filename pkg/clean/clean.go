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

// Package clean removes EDA tool outputs for an IP.
package clean

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/datumtc/mio/internal/cfg"
	"github.com/datumtc/mio/internal/errors"
	"github.com/datumtc/mio/pkg/ip"
)

// Clean deletes the library output directory and the compile and
// elaboration logs of target for every simulator, and clears its
// compiled/elaborated state. Simulation results are not removed. With deep
// set, compiled dependencies are removed as well.
func Clean(c *cfg.Config, cache *ip.Cache, target *ip.IP, deep bool) error {
	victims := []*ip.IP{target}
	if deep {
		deps, err := cache.OrderedDeps(target)
		if err != nil {
			return err
		}
		victims = append(victims, deps...)
	}

	for _, victim := range victims {
		for _, sim := range cfg.AllSimulators {
			paths := []string{
				c.CmpOutDir(sim, victim.Vendor, victim.Name),
				c.CmpLogPath(victim.Vendor, victim.Name, sim),
				c.ElabLogPath(victim.Vendor, victim.Name, sim),
			}
			for _, path := range paths {
				if err := os.RemoveAll(path); err != nil {
					return errors.IOFailure(fmt.Sprintf("cannot remove %s", path), err)
				}
			}
			victim.Compiled[sim] = false
			victim.Elaborated[sim] = false
		}
		slog.Debug("clean.ip", "ip", victim.Ident(), "deep", deep)
	}
	return nil
}
