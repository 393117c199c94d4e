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
	stderrors "errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/datumtc/mio/internal/errors"
)

// depNode adapts an IP to a graph node. The node ID is the registry load
// index, which makes topological ties resolve in load order.
type depNode struct {
	ip *IP
}

func (n depNode) ID() int64 { return int64(n.ip.loadIndex) }

// OrderedDeps returns root's transitive dependencies in a valid compile
// order: every dependency precedes its dependents, with ties broken by
// registry load order. The UVM library is excluded (it is provided by the
// simulator), as is root itself.
//
// A dependency cycle reachable from root yields a CyclicDependency error
// listing one offending cycle.
func (c *Cache) OrderedDeps(root *IP) ([]*IP, error) {
	g := simple.NewDirectedGraph()
	nodes := make(map[int64]depNode)

	add := func(i *IP) depNode {
		n, ok := nodes[int64(i.loadIndex)]
		if !ok {
			n = depNode{ip: i}
			nodes[n.ID()] = n
			g.AddNode(n)
		}
		return n
	}

	// Collect the sub-graph reachable from root. Edges run from a
	// dependency to its dependent so that the topological order reads
	// leaves-first.
	var visit func(i *IP) error
	visited := make(map[int64]bool)
	visit = func(i *IP) error {
		if visited[int64(i.loadIndex)] {
			return nil
		}
		visited[int64(i.loadIndex)] = true
		from := add(i)
		for _, dep := range i.Deps {
			if dep.Name == UVMName {
				continue
			}
			if dep.Target == nil {
				return errors.NotFound(
					fmt.Sprintf("dependency '%s/%s' of IP '%s' is unresolved", dep.Vendor, dep.Name, i.Ident()),
					"ordering was requested before the registry was resolved",
					"Run 'mio install' to fetch missing IPs")
			}
			to := add(dep.Target)
			if from.ID() != to.ID() {
				g.SetEdge(g.NewEdge(to, from))
			}
			if err := visit(dep.Target); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(root); err != nil {
		return nil, err
	}

	sorted, err := topo.SortStabilized(g, nil)
	if err != nil {
		var unorderable topo.Unorderable
		if stderrors.As(err, &unorderable) && len(unorderable) > 0 {
			return nil, errors.CyclicDependency(
				fmt.Sprintf("dependency cycle involving IP '%s'", root.Ident()),
				"cycle: "+formatCycle(unorderable[0]))
		}
		return nil, errors.Internal(fmt.Sprintf("dependency ordering failed for IP '%s'", root.Ident()), err)
	}

	deps := make([]*IP, 0, len(sorted))
	for _, n := range sorted {
		i := n.(depNode).ip
		if i == root {
			continue
		}
		deps = append(deps, i)
	}
	return deps, nil
}

// formatCycle renders one strongly-connected component as "a -> b -> a".
func formatCycle(component []graph.Node) string {
	names := make([]string, 0, len(component)+1)
	for _, n := range component {
		names = append(names, n.(depNode).ip.Ident())
	}
	if len(names) > 0 {
		names = append(names, names[0])
	}
	return strings.Join(names, " -> ")
}
