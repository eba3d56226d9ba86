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

package planner

import (
	"sort"

	"github.com/ngharrington/trilogy-go/resolver"
	"github.com/ngharrington/trilogy-go/semantic"
	"github.com/ngharrington/trilogy-go/semantic/planctx"
)

// ProcessQuery implements process_query (spec §4.6): build the reference
// graph, resolve a query-datasource map, lower every top-level
// QueryDatasource to CTEs and merge them, choose a base CTE, and wire the
// remaining CTEs in by join.
func ProcessQuery(pctx *planctx.Context, env *semantic.Environment, sel *semantic.Select) (*semantic.ProcessedQuery, error) {
	span, pctx := pctx.StartSpan("planner.process_query")
	defer span.Finish()

	r := resolver.New(env)

	_, datasourceMap, err := GetQueryDatasources(pctx, env, sel, r)
	if err != nil {
		return nil, err
	}

	var allCTEs []*semantic.CTE
	for _, id := range sortedIDs(datasourceMap) {
		node := datasourceMap[id]
		qds, ok := node.(*semantic.QueryDatasource)
		if !ok {
			// a bare physical Datasource resolution is wrapped as a
			// single-source QueryDatasource so the same lowering path
			// handles it.
			qds = semantic.NewQueryDatasource(node.OutputConcepts(), node.OutputConcepts(), wrapSourceMap(node), []semantic.DatasourceNode{node}, node.NodeGrain(), nil, nil)
		}
		ctes, err := DatasourceToCTEs(qds)
		if err != nil {
			return nil, err
		}
		allCTEs = append(allCTEs, ctes...)
	}
	merged := semantic.MergeCTEs(allCTEs)

	grain := effectiveGrain(sel)
	base, err := chooseBase(merged, grain)
	if err != nil {
		return nil, err
	}

	joins := buildJoins(merged, base, grain, sel)

	return &semantic.ProcessedQuery{
		OutputColumns: sel.OutputComponents(),
		CTEs:          merged,
		Base:          base,
		Joins:         joins,
		Grain:         grain,
		Limit:         sel.Limit,
		WhereClause:   sel.WhereClause,
		OrderBy:       sel.OrderBy,
	}, nil
}

func wrapSourceMap(node semantic.DatasourceNode) map[string][]semantic.DatasourceNode {
	out := map[string][]semantic.DatasourceNode{}
	for _, c := range node.OutputConcepts() {
		out[c.Address()] = []semantic.DatasourceNode{node}
	}
	return out
}

// chooseBase implements spec §4.6 step 4: prefer a CTE whose grain exactly
// equals the select grain; else the CTE whose grain is a subset of the
// select grain that outputs the most of its components, breaking ties by
// CTE name.
func chooseBase(ctes []*semantic.CTE, grain *semantic.Grain) (*semantic.CTE, error) {
	for _, cte := range sortedByName(ctes) {
		if cte.Grain.Equal(grain) {
			return cte, nil
		}
	}

	var best *semantic.CTE
	bestCoverage := -1
	for _, cte := range sortedByName(ctes) {
		if !cte.Grain.IsSubset(grain) {
			continue
		}
		coverage := coverageOf(cte, grain)
		if coverage > bestCoverage {
			best = cte
			bestCoverage = coverage
		}
	}
	if best == nil {
		return nil, semantic.ErrUnresolvableGrain.New("no cte covers the select's grain " + grain.String())
	}
	return best, nil
}

func coverageOf(cte *semantic.CTE, grain *semantic.Grain) int {
	want := grain.Set()
	n := 0
	for _, c := range cte.OutputColumns {
		if want[c.Address()] {
			n++
		}
	}
	return n
}

func sortedByName(ctes []*semantic.CTE) []*semantic.CTE {
	out := append([]*semantic.CTE{}, ctes...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// buildJoins implements spec §4.6 step 5: for each remaining merged CTE,
// join keys are the select-grain components present in both the base and
// the candidate; upgrade LEFT OUTER to INNER when the candidate carries the
// where clause, and to FULL when the base's grain is a strict subset of
// the select grain.
func buildJoins(ctes []*semantic.CTE, base *semantic.CTE, grain *semantic.Grain, sel *semantic.Select) []*semantic.Join {
	var out []*semantic.Join
	grainSet := grain.Set()
	baseStrictSubset := len(base.Grain.Set()) < len(grainSet) && base.Grain.IsSubset(grain)

	for _, cte := range sortedByName(ctes) {
		if cte.Name == base.Name {
			continue
		}
		keys := sharedKeys(base, cte, grainSet)
		if len(keys) == 0 {
			continue
		}
		joinType := semantic.JoinLeftOuter
		if sel.WhereClause != nil && coversWhere(cte, sel.WhereClause) {
			joinType = semantic.JoinInner
		}
		if baseStrictSubset {
			joinType = semantic.JoinFull
		}
		out = append(out, &semantic.Join{
			LeftCTE:  base,
			RightCTE: cte,
			JoinType: joinType,
			JoinKeys: keys,
		})
	}
	return out
}

func sharedKeys(base, candidate *semantic.CTE, grainSet map[string]bool) []semantic.JoinKey {
	baseOut := map[string]*semantic.Concept{}
	for _, c := range base.OutputColumns {
		if grainSet[c.Address()] {
			baseOut[c.Address()] = c
		}
	}
	var keys []semantic.JoinKey
	for _, c := range candidate.OutputColumns {
		if !grainSet[c.Address()] {
			continue
		}
		if _, ok := baseOut[c.Address()]; ok {
			keys = append(keys, semantic.JoinKey{Concept: c})
		}
	}
	return keys
}

// coversWhere reports whether every where-clause input address is among
// cte's output columns, a coarse stand-in for the dialect renderer's own
// where-placement search (spec §4.8 step 2), used here only to decide the
// join-type upgrade.
func coversWhere(cte *semantic.CTE, where *semantic.WhereClause) bool {
	have := map[string]bool{}
	for _, c := range cte.OutputColumns {
		have[c.Address()] = true
	}
	for _, c := range where.Input() {
		if !have[c.Address()] {
			return false
		}
	}
	return true
}
