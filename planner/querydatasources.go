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

// Package planner builds the query-datasource map, lowers it to a CTE DAG,
// and assembles the final ProcessedQuery for a Select (spec §4.4-§4.6).
package planner

import (
	"sort"

	"github.com/ngharrington/trilogy-go/resolver"
	"github.com/ngharrington/trilogy-go/semantic"
	"github.com/ngharrington/trilogy-go/semantic/planctx"
)

// GetQueryDatasources implements get_query_datasources (spec §4.4): for
// every concept in the select's output plus its effective grain, resolve a
// source, merging repeated resolutions to the same datasource id, then
// escalate to whole_grain resolution if the result is disconnected.
func GetQueryDatasources(pctx *planctx.Context, env *semantic.Environment, sel *semantic.Select, r *resolver.Resolver) (semantic.ConceptMap, map[string]semantic.DatasourceNode, error) {
	span, pctx := pctx.StartSpan("planner.get_query_datasources")
	defer span.Finish()

	grain := effectiveGrain(sel)
	targets := targetConcepts(sel, grain)

	conceptMap, datasourceMap, err := resolveAll(pctx, r, targets, grain, false)
	if err != nil {
		return nil, nil, err
	}

	if countComponents(conceptMap) > 1 {
		conceptMap, datasourceMap, err = resolveAll(pctx, r, targets, grain, true)
		if err != nil {
			return nil, nil, err
		}
		if countComponents(conceptMap) > 1 {
			return nil, nil, semantic.ErrDisconnectedQuery.New(sel.Grain().String())
		}
	}

	return conceptMap, datasourceMap, nil
}

// effectiveGrain is the select's grain extended with the where clause's
// input concepts, the predicate-pushdown hint of spec §4.4 step 1.
func effectiveGrain(sel *semantic.Select) *semantic.Grain {
	grain := sel.Grain()
	if sel.WhereClause != nil {
		grain = grain.Plus(sel.WhereClause.Grain())
	}
	return grain
}

// targetConcepts is select.output_components ∪ select.grain.components,
// de-duplicated by address.
func targetConcepts(sel *semantic.Select, grain *semantic.Grain) []*semantic.Concept {
	seen := map[string]bool{}
	var out []*semantic.Concept
	add := func(c *semantic.Concept) {
		if seen[c.Address()] {
			return
		}
		seen[c.Address()] = true
		out = append(out, c)
	}
	for _, c := range sel.OutputComponents() {
		add(c)
	}
	for _, c := range grain.Components {
		add(c)
	}
	return out
}

func resolveAll(pctx *planctx.Context, r *resolver.Resolver, targets []*semantic.Concept, grain *semantic.Grain, wholeGrain bool) (semantic.ConceptMap, map[string]semantic.DatasourceNode, error) {
	conceptMap := semantic.ConceptMap{}
	datasourceMap := map[string]semantic.DatasourceNode{}

	for _, concept := range targets {
		node, err := r.Resolve(pctx, concept, grain, wholeGrain)
		if err != nil {
			return nil, nil, err
		}
		id := node.Name()
		if existing, ok := datasourceMap[id]; ok {
			merged, err := mergeNodes(existing, node)
			if err != nil {
				return nil, nil, err
			}
			datasourceMap[id] = merged
		} else {
			datasourceMap[id] = node
		}
		conceptMap[id] = append(conceptMap[id], concept)
	}

	return conceptMap, datasourceMap, nil
}

// mergeNodes applies the `+` rule (spec §4.4 step 2): only QueryDatasources
// merge; a repeated resolution to the same physical Datasource id is
// already the identical node.
func mergeNodes(a, b semantic.DatasourceNode) (semantic.DatasourceNode, error) {
	aq, aIsQ := a.(*semantic.QueryDatasource)
	bq, bIsQ := b.(*semantic.QueryDatasource)
	if aIsQ && bIsQ {
		return aq.Add(bq)
	}
	return a, nil
}

// countComponents counts connected components of the (datasource, concept)
// bipartite graph restricted to conceptMap (spec §4.4 step 3).
func countComponents(conceptMap semantic.ConceptMap) int {
	return semantic.CountDisconnectedComponents(conceptMap)
}

// sortedIDs returns m's keys (datasource ids) in sorted order, used wherever
// planner output must not depend on Go's randomized map iteration.
func sortedIDs(m map[string]semantic.DatasourceNode) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
