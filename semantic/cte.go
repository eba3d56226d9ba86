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

	"github.com/mitchellh/hashstructure"
)

// CTE is a named node in the final SQL WITH list (spec §3 "CTE").
type CTE struct {
	Name           string
	Source         *QueryDatasource
	OutputColumns  []*Concept
	SourceMap      map[string]string // concept address -> cte/datasource name
	RelatedColumns []*Concept
	FilterColumns  []*Concept
	Grain          *Grain
	Base           bool
	GroupToGrain   bool
	ParentCTEs     []*CTE
	Joins          []*Join
}

// HumanID strips angle brackets and replaces commas with underscores
// (spec §4.5 "human_id strips angle brackets and replaces commas with
// underscores").
func HumanID(identifier string) string {
	id := strings.ReplaceAll(identifier, "<", "")
	id = strings.ReplaceAll(id, ">", "")
	id = strings.ReplaceAll(id, ",", "_")
	return id
}

// NameForQueryDatasource computes the `cte_<human_id>_<hash>` name for a
// QueryDatasource (spec §4.5). The original model hashes the identifier
// with Python's builtin hash(); this module uses mitchellh/hashstructure
// over the identifier string for a stable, deterministic, cross-process
// hash (spec §8 round-trip/idempotence: the same select compiles to
// byte-identical SQL).
func NameForQueryDatasource(qds *QueryDatasource) string {
	id := qds.Identifier()
	h, err := hashstructure.Hash(id, nil)
	if err != nil {
		// hashstructure.Hash over a string cannot fail; this branch exists
		// only to satisfy the error return without a silent mishash.
		panic(fmt.Sprintf("hashing cte identifier %q: %v", id, err))
	}
	return fmt.Sprintf("cte_%s_%d", HumanID(id), h)
}

// Merge combines two CTEs of identical grain, unioning every list field
// de-duplicated by semantic id (spec §3 "Merging two CTEs requires
// identical grain and unions all list fields").
func (c *CTE) Merge(other *CTE) (*CTE, error) {
	if !c.Grain.Equal(other.Grain) {
		return nil, ErrUnresolvableGrain.New(fmt.Sprintf(
			"attempting to merge two ctes of different grains %s %s grains %s %s", c.Name, other.Name, c.Grain, other.Grain))
	}
	merged := *c
	merged.ParentCTEs = MergeCTEs(append(append([]*CTE{}, c.ParentCTEs...), other.ParentCTEs...))
	mergedSourceMap := map[string]string{}
	for k, v := range c.SourceMap {
		mergedSourceMap[k] = v
	}
	for k, v := range other.SourceMap {
		mergedSourceMap[k] = v
	}
	merged.SourceMap = mergedSourceMap
	merged.OutputColumns = uniqueConcepts(append(append([]*Concept{}, c.OutputColumns...), other.OutputColumns...))
	merged.Joins = mergeJoins(c.Joins, other.Joins)
	merged.RelatedColumns = uniqueConcepts(append(append([]*Concept{}, c.RelatedColumns...), other.RelatedColumns...))
	merged.FilterColumns = uniqueConcepts(append(append([]*Concept{}, c.FilterColumns...), other.FilterColumns...))
	return &merged, nil
}

func mergeJoins(a, b []*Join) []*Join {
	seen := map[string]bool{}
	var out []*Join
	for _, list := range [][]*Join{a, b} {
		for _, j := range list {
			id := j.UniqueID()
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, j)
		}
	}
	return out
}

// MergeCTEs folds any two CTEs with the same name by the CTE merge rule
// (spec §4.5 post-processing, spec §8 testable property 4: idempotent and
// commutative).
func MergeCTEs(ctes []*CTE) []*CTE {
	byName := map[string]*CTE{}
	var order []string
	for _, cte := range ctes {
		if existing, ok := byName[cte.Name]; ok {
			merged, err := existing.Merge(cte)
			if err != nil {
				// grains must already be consistent for CTEs sharing a name,
				// since the name is derived from the QueryDatasource's
				// identifier, which embeds the grain.
				panic(err)
			}
			byName[cte.Name] = merged
		} else {
			byName[cte.Name] = cte
			order = append(order, cte.Name)
		}
	}
	out := make([]*CTE, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out
}

// BaseName selects the physical alias target a FROM clause should render
// (spec §3 "base_name"): the sole inner Datasource's address; else the
// first join's left CTE; else the first parent CTE; else the
// QueryDatasource's own name.
func (c *CTE) BaseName() string {
	if len(c.Source.Datasources) == 1 {
		if ds, ok := c.Source.Datasources[0].(*Datasource); ok {
			return ds.SafeLocation()
		}
	}
	if len(c.Joins) > 0 {
		return c.Joins[0].LeftCTE.Name
	}
	if len(c.ParentCTEs) > 0 {
		return c.ParentCTEs[0].Name
	}
	return c.Source.Name()
}

// BaseAlias is the alias a sibling CTE's join should reference (spec §A.3,
// carried from the original's CTE.base_alias): when the sole inner source
// is itself a QueryDatasource, the parent CTE is the alias target, not the
// raw datasource.
func (c *CTE) BaseAlias() string {
	if len(c.Source.Datasources) == 1 {
		if _, ok := c.Source.Datasources[0].(*QueryDatasource); ok && len(c.ParentCTEs) > 0 {
			return c.ParentCTEs[0].Name
		}
		return c.Source.Datasources[0].Name()
	}
	if len(c.Joins) > 0 {
		return c.Joins[0].LeftCTE.Name
	}
	return c.Name
}

// GetAlias resolves concept through this CTE or its parent CTEs, matching
// CTE.get_alias's fallback-and-continue behavior.
func (c *CTE) GetAlias(concept *Concept) (string, error) {
	var firstErr error
	candidates := append([]*CTE{c}, c.ParentCTEs...)
	for _, cte := range candidates {
		alias, err := cte.Source.GetAlias(concept)
		if err == nil {
			return alias, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return "", firstErr
	}
	return "", ErrUndefinedConcept.New(fmt.Sprintf("alias not found for concept %s", concept))
}
