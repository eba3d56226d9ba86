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
	"github.com/ngharrington/trilogy-go/semantic"
)

// DatasourceToCTEs implements datasource_to_ctes (spec §4.5): a recursive
// lowering of a QueryDatasource into a CTE, plus every child CTE it
// required along the way.
func DatasourceToCTEs(qds *semantic.QueryDatasource) ([]*semantic.CTE, error) {
	if err := qds.Validate(); err != nil {
		return nil, err
	}
	cte, children, err := lower(qds)
	if err != nil {
		return nil, err
	}
	all := append(children, cte)
	return semantic.MergeCTEs(all), nil
}

// lower returns the CTE for qds plus every CTE its recursion produced
// (children first, parent last).
func lower(qds *semantic.QueryDatasource) (*semantic.CTE, []*semantic.CTE, error) {
	if isLeaf(qds) {
		return lowerLeaf(qds), nil, nil
	}
	return lowerComposite(qds)
}

// isLeaf reports whether qds wraps a single physical Datasource with no
// inner QueryDatasources (spec §4.5 "Leaf case").
func isLeaf(qds *semantic.QueryDatasource) bool {
	if len(qds.Datasources) != 1 {
		return false
	}
	_, ok := qds.Datasources[0].(*semantic.Datasource)
	return ok
}

func lowerLeaf(qds *semantic.QueryDatasource) *semantic.CTE {
	ds := qds.Datasources[0].(*semantic.Datasource)
	sourceMap := map[string]string{}
	for _, c := range qds.InputConcepts {
		sourceMap[c.Address()] = ds.Identifier
	}
	for _, c := range qds.OutputConcepts() {
		sourceMap[c.Address()] = ds.Identifier
	}

	innerSum := ds.Grain
	groupToGrain := !innerSum.Equal(qds.Grain)

	return &semantic.CTE{
		Name:          semantic.NameForQueryDatasource(qds),
		Source:        qds,
		OutputColumns: qds.OutputConcepts(),
		SourceMap:     sourceMap,
		Grain:         qds.Grain,
		GroupToGrain:  groupToGrain,
	}
}

func lowerComposite(qds *semantic.QueryDatasource) (*semantic.CTE, []*semantic.CTE, error) {
	var children []*semantic.CTE
	parentByConcept := map[string]string{}
	var parents []*semantic.CTE

	for _, inner := range qds.Datasources {
		var childCTE *semantic.CTE
		var grandchildren []*semantic.CTE
		var err error

		if innerQDS, ok := inner.(*semantic.QueryDatasource); ok {
			childCTE, grandchildren, err = lower(innerQDS)
		} else {
			projected := projectOnto(qds, inner.(*semantic.Datasource))
			childCTE, grandchildren, err = lower(projected)
		}
		if err != nil {
			return nil, nil, err
		}
		children = append(children, grandchildren...)
		children = append(children, childCTE)
		parents = append(parents, childCTE)
		for _, c := range childCTE.OutputColumns {
			parentByConcept[c.Address()] = childCTE.Name
		}
	}

	sourceMap := map[string]string{}
	for addr := range unionAddresses(qds.InputConcepts, qds.OutputConcepts()) {
		if name, ok := parentByConcept[addr]; ok {
			sourceMap[addr] = name
		}
	}

	joins, err := lowerJoins(qds.Joins, parentByConcept, parents)
	if err != nil {
		return nil, nil, err
	}

	innerSum := semantic.SumGrains(innerGrains(qds.Datasources))
	groupToGrain := !innerSum.Equal(qds.Grain)

	parent := &semantic.CTE{
		Name:          semantic.NameForQueryDatasource(qds),
		Source:        qds,
		OutputColumns: qds.OutputConcepts(),
		SourceMap:     sourceMap,
		Grain:         qds.Grain,
		GroupToGrain:  groupToGrain,
		ParentCTEs:    parents,
		Joins:         joins,
	}
	return parent, children, nil
}

// projectOnto builds a sub-QueryDatasource for a direct-Datasource member
// of qds, containing only the concepts of qds's source map attributed to
// it (spec §4.5 "build a projected sub-QueryDatasource").
func projectOnto(qds *semantic.QueryDatasource, ds *semantic.Datasource) *semantic.QueryDatasource {
	var output []*semantic.Concept
	for addr, nodes := range qds.SourceMap {
		for _, n := range nodes {
			if n.Name() == ds.Name() {
				for _, c := range ds.Concepts() {
					if c.Address() == addr {
						output = append(output, c)
					}
				}
			}
		}
	}
	sourceMap := map[string][]semantic.DatasourceNode{}
	for _, c := range output {
		sourceMap[c.Address()] = []semantic.DatasourceNode{ds}
	}
	return semantic.NewQueryDatasource(output, output, sourceMap, []semantic.DatasourceNode{ds}, ds.Grain, nil, nil)
}

func innerGrains(nodes []semantic.DatasourceNode) []*semantic.Grain {
	out := make([]*semantic.Grain, len(nodes))
	for i, n := range nodes {
		out[i] = n.NodeGrain()
	}
	return out
}

func unionAddresses(lists ...[]*semantic.Concept) map[string]bool {
	out := map[string]bool{}
	for _, list := range lists {
		for _, c := range list {
			out[c.Address()] = true
		}
	}
	return out
}

// lowerJoins implements base_join_to_join (spec §4.5 "joins =
// [base_join_to_join(j, all_emitted_ctes) | j ∈ qds.joins]"): a BaseJoin
// between two DatasourceNodes becomes a Join between the CTEs that now
// represent those nodes.
func lowerJoins(baseJoins []*semantic.BaseJoin, parentByConcept map[string]string, parents []*semantic.CTE) ([]*semantic.Join, error) {
	byName := map[string]*semantic.CTE{}
	for _, p := range parents {
		byName[p.Name] = p
	}

	var out []*semantic.Join
	for _, bj := range baseJoins {
		leftName, err := cteNameFor(bj.Left, parentByConcept, parents)
		if err != nil {
			return nil, err
		}
		rightName, err := cteNameFor(bj.Right, parentByConcept, parents)
		if err != nil {
			return nil, err
		}
		keys := make([]semantic.JoinKey, len(bj.Concepts))
		for i, c := range bj.Concepts {
			keys[i] = semantic.JoinKey{Concept: c}
		}
		out = append(out, &semantic.Join{
			LeftCTE:  byName[leftName],
			RightCTE: byName[rightName],
			JoinType: bj.JoinType,
			JoinKeys: keys,
		})
	}
	return out, nil
}

func cteNameFor(node semantic.DatasourceNode, parentByConcept map[string]string, parents []*semantic.CTE) (string, error) {
	for _, c := range node.OutputConcepts() {
		if name, ok := parentByConcept[c.Address()]; ok {
			return name, nil
		}
	}
	for _, p := range parents {
		if p.Source.Name() == node.Name() {
			return p.Name, nil
		}
	}
	return "", semantic.ErrUnresolvableGrain.New("no cte lowers join side " + node.Name())
}
