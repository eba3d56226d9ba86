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

import (
	"fmt"
	"strings"
)

// QueryDatasource is a derived relation produced by the resolver or the
// query-datasource builder: inputs, outputs, the map from concept address
// to the nodes that contribute it, inner datasources, a grain, joins, an
// optional limit, and filter concepts (spec §3 "QueryDatasource").
type QueryDatasource struct {
	InputConcepts  []*Concept
	OutputConcepts_ []*Concept
	SourceMap      map[string][]DatasourceNode
	Datasources    []DatasourceNode
	Grain          *Grain
	Joins          []*BaseJoin
	Limit          *int
	FilterConcepts []*Concept
}

// NewQueryDatasource de-duplicates InputConcepts/OutputConcepts_/FilterConcepts
// by address, matching QueryDatasource.__post_init__.
func NewQueryDatasource(input, output []*Concept, sourceMap map[string][]DatasourceNode, datasources []DatasourceNode, grain *Grain, joins []*BaseJoin, filterConcepts []*Concept) *QueryDatasource {
	return &QueryDatasource{
		InputConcepts:   uniqueConcepts(input),
		OutputConcepts_: uniqueConcepts(output),
		SourceMap:       sourceMap,
		Datasources:     datasources,
		Grain:           grain,
		Joins:           joins,
		FilterConcepts:  uniqueConcepts(filterConcepts),
	}
}

func uniqueConcepts(in []*Concept) []*Concept {
	seen := map[string]bool{}
	var out []*Concept
	for _, c := range in {
		if c == nil || seen[c.Address()] {
			continue
		}
		seen[c.Address()] = true
		out = append(out, c)
	}
	return out
}

func uniqueJoins(in []*BaseJoin) []*BaseJoin {
	seen := map[string]bool{}
	var out []*BaseJoin
	for _, j := range in {
		id := j.UniqueID()
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, j)
	}
	return out
}

// OutputConcepts implements DatasourceNode.
func (q *QueryDatasource) OutputConcepts() []*Concept { return q.OutputConcepts_ }

// NodeGrain implements DatasourceNode.
func (q *QueryDatasource) NodeGrain() *Grain { return q.Grain }

func (q *QueryDatasource) String() string {
	return fmt.Sprintf("%s@<%s>", q.Identifier(), q.Grain)
}

// Identifier is `join("_", [d.name]) + "_at_" + grain_str`, or
// `"_at_abstract"` for an abstract grain (spec §3 "identifier").
func (q *QueryDatasource) Identifier() string {
	names := make([]string, len(q.Datasources))
	for i, d := range q.Datasources {
		names[i] = d.Name()
	}
	grainParts := make([]string, len(q.Grain.Components))
	for i, c := range q.Grain.Components {
		grainParts[i] = strings.ReplaceAll(c.Address(), ".", "_")
	}
	grainStr := strings.Join(grainParts, "_")
	suffix := "_at_abstract"
	if grainStr != "" {
		suffix = "_at_" + grainStr
	}
	return strings.Join(names, "_") + suffix
}

// Name satisfies DatasourceNode.
func (q *QueryDatasource) Name() string { return q.Identifier() }

// Add merges two QueryDatasources at the same grain (spec §3 "add(other)").
// It requires identical grain and unions inputs, outputs, source maps,
// joins, and filters.
func (q *QueryDatasource) Add(other *QueryDatasource) (*QueryDatasource, error) {
	if !q.Grain.Equal(other.Grain) {
		return nil, ErrUnresolvableGrain.New(fmt.Sprintf("cannot merge datasources of different grains %s and %s", q.Grain, other.Grain))
	}
	merged := map[string][]DatasourceNode{}
	for k, v := range q.SourceMap {
		merged[k] = v
	}
	for k, v := range other.SourceMap {
		merged[k] = append(merged[k], v...)
	}
	return &QueryDatasource{
		InputConcepts:   uniqueConcepts(append(append([]*Concept{}, q.InputConcepts...), other.InputConcepts...)),
		OutputConcepts_: uniqueConcepts(append(append([]*Concept{}, q.OutputConcepts_...), other.OutputConcepts_...)),
		SourceMap:       merged,
		Datasources:     q.Datasources,
		Grain:           q.Grain,
		Joins:           uniqueJoins(append(append([]*BaseJoin{}, q.Joins...), other.Joins...)),
		FilterConcepts:  uniqueConcepts(append(append([]*Concept{}, q.FilterConcepts...), other.FilterConcepts...)),
	}, nil
}

// Validate confirms every output concept resolves to an alias, failing
// fast before this QueryDatasource is handed to the CTE lowering pass
// (SPEC_FULL.md §A.3, grounded on QueryDatasource.validate in the original
// model).
func (q *QueryDatasource) Validate() error {
	for _, c := range q.OutputConcepts_ {
		if _, err := q.GetAlias(c.WithGrain(q.Grain)); err != nil {
			return err
		}
	}
	return nil
}

// GetAlias tries each inner source in order, adjusting the lookup to that
// source's own grain, forcing aliasing whenever the inner source is
// itself a QueryDatasource (spec §3 "get_alias").
func (q *QueryDatasource) GetAlias(concept *Concept) (string, error) {
	useRawName := len(q.Datasources) == 1
	for _, node := range q.Datasources {
		adjusted := concept.WithGrain(node.NodeGrain())
		if ds, ok := node.(*Datasource); ok {
			alias, err := ds.GetAlias(adjusted)
			if err == nil {
				if useRawName {
					return alias, nil
				}
				return concept.SafeAddress(), nil
			}
			continue
		}
		// inner source is itself a QueryDatasource: always force aliasing
		// through the concept's safe address.
		if qds, ok := node.(*QueryDatasource); ok {
			if _, err := qds.GetAlias(adjusted); err == nil {
				return concept.SafeAddress(), nil
			}
		}
	}
	for _, c := range q.OutputConcepts_ {
		if c.WithGrain(q.Grain).Equal(concept) {
			return concept.Name, nil
		}
	}
	return "", ErrUndefinedConcept.New(fmt.Sprintf("%s not found on %s", concept, q.Identifier()))
}
