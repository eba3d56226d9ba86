// Copyright 2024 The Trilogy Authors.
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

package semantic

// ReferenceGraph is a bipartite undirected graph connecting each
// datasource node to each of its output concepts, by address (spec §2.6).
// Connected reports whether a datasource and a concept lie in one
// connected component. resolver.New builds one, but no resolution step
// reads it; the planner's connectivity check uses
// CountDisconnectedComponents instead.
//
// No graph library is wired in here: nothing in the retrieved pack
// imports one for this kind of small bipartite-connectivity check, and a
// union-find over this node count is well inside "derivable from first
// principles" (see DESIGN.md's standard-library justification).
type ReferenceGraph struct {
	parent map[string]string
}

// NewReferenceGraph builds a graph from every datasource in env, connecting
// each datasource identifier to the address of each concept it outputs.
func NewReferenceGraph(env *Environment) *ReferenceGraph {
	g := &ReferenceGraph{parent: map[string]string{}}
	for _, ds := range env.Datasources {
		dsNode := "ds:" + ds.Identifier
		g.find(dsNode)
		for _, c := range ds.Concepts() {
			cNode := "c:" + c.Address()
			g.union(dsNode, cNode)
		}
	}
	return g
}

func (g *ReferenceGraph) find(x string) string {
	if _, ok := g.parent[x]; !ok {
		g.parent[x] = x
		return x
	}
	if g.parent[x] != x {
		g.parent[x] = g.find(g.parent[x])
	}
	return g.parent[x]
}

func (g *ReferenceGraph) union(a, b string) {
	ra, rb := g.find(a), g.find(b)
	if ra != rb {
		g.parent[ra] = rb
	}
}

// Connected reports whether datasource identifier ds and concept address
// concept are in the same connected component.
func (g *ReferenceGraph) Connected(dsIdentifier, conceptAddress string) bool {
	a, aok := g.lookup("ds:" + dsIdentifier)
	b, bok := g.lookup("c:" + conceptAddress)
	if !aok || !bok {
		return false
	}
	return a == b
}

func (g *ReferenceGraph) lookup(x string) (string, bool) {
	if _, ok := g.parent[x]; !ok {
		return "", false
	}
	return g.find(x), true
}

// ConceptMap maps a datasource identifier to the concepts the builder
// resolved against it (spec §4.4 "concept_map: datasource_id -> [concepts]").
type ConceptMap map[string][]*Concept

// CountDisconnectedComponents finds if any of the datasources referenced in
// concepts are not linked (spec §4.4 step 3, §4.6 "get_disconnected_components").
// It builds its own small bipartite graph scoped to exactly the
// (datasource, concept) pairs in concepts, rather than reusing the full
// ReferenceGraph, since a query only cares about connectivity among the
// sources it actually resolved to.
func CountDisconnectedComponents(concepts ConceptMap) int {
	parent := map[string]string{}
	var find func(string) string
	find = func(x string) string {
		if _, ok := parent[x]; !ok {
			parent[x] = x
			return x
		}
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for ds, cs := range concepts {
		dsNode := "ds:" + ds
		find(dsNode)
		for _, c := range cs {
			union(dsNode, "c:"+c.Address())
		}
	}
	roots := map[string]bool{}
	for x := range parent {
		roots[find(x)] = true
	}
	return len(roots)
}
