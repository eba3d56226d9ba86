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

// Package resolver implements the central placement function,
// get_datasource_by_concept_and_grain in the original model: given a
// concept and a required grain, pick a Datasource or QueryDatasource that
// can produce it.
package resolver

import (
	"fmt"
	"sort"

	"github.com/ngharrington/trilogy-go/semantic"
	"github.com/ngharrington/trilogy-go/semantic/planctx"
)

// Resolver resolves concepts against an Environment's registered
// datasources and reference graph.
type Resolver struct {
	env   *semantic.Environment
	graph *semantic.ReferenceGraph
}

// New builds a Resolver scoped to env, constructing its reference graph
// once up front.
func New(env *semantic.Environment) *Resolver {
	return &Resolver{env: env, graph: semantic.NewReferenceGraph(env)}
}

// candidate is an intermediate match produced by tier 3 (direct physical
// source), carried until the best one is chosen by the tie-break rule.
type candidate struct {
	ds      *semantic.Datasource
	grain   *semantic.Grain
	partial bool
}

// Resolve implements get_datasource_by_concept_and_grain (spec §4.3): it
// tries, in order, derivation at target grain, derivation at argument
// grain, a direct physical source, then a join of two sources.
func (r *Resolver) Resolve(pctx *planctx.Context, concept *semantic.Concept, targetGrain *semantic.Grain, wholeGrain bool) (semantic.DatasourceNode, error) {
	span, pctx := pctx.StartSpan("resolver.resolve")
	defer span.Finish()
	log := pctx.Logger().WithFields(map[string]interface{}{
		"concept":     concept.Address(),
		"target":      targetGrain.String(),
		"whole_grain": wholeGrain,
	})

	if concept.Lineage != nil {
		if concept.Derivation() == semantic.DerivationAggregate {
			if node, err := r.resolveDerivedAtGrain(pctx, concept, targetGrain); err == nil {
				log.Debug("resolved via derivation at target grain")
				return node, nil
			}
		} else {
			if node, err := r.resolveDerivedAtArgumentGrain(pctx, concept, targetGrain); err == nil {
				log.Debug("resolved via derivation at argument grain")
				return node, nil
			}
		}
	}

	if node, err := r.resolveDirect(concept, targetGrain, wholeGrain); err == nil {
		log.Debug("resolved via direct physical source")
		return node, nil
	} else if wholeGrain {
		// with whole_grain, a failed direct lookup still falls through to
		// joins below; only AmbiguousResolution should abort immediately.
		if semantic.ErrAmbiguousResolution.Is(err) {
			return nil, err
		}
	}

	if node, err := r.resolveJoin(pctx, concept, targetGrain); err == nil {
		log.Debug("resolved via join")
		return node, nil
	}

	return nil, semantic.ErrUnresolvableGrain.New(fmt.Sprintf(
		"no source produces %s at grain %s", concept.Address(), targetGrain))
}

// resolveDerivedAtGrain is tier 1: an AGGREGATE-derivation concept whose
// lineage arguments all resolve at targetGrain directly.
func (r *Resolver) resolveDerivedAtGrain(pctx *planctx.Context, concept *semantic.Concept, targetGrain *semantic.Grain) (semantic.DatasourceNode, error) {
	args := concept.Lineage.Arguments()
	sourceMap := map[string][]semantic.DatasourceNode{}
	var datasources []semantic.DatasourceNode
	var inputs []*semantic.Concept
	seenDs := map[string]bool{}

	for _, arg := range args {
		node, err := r.Resolve(pctx, arg, targetGrain, false)
		if err != nil {
			return nil, err
		}
		sourceMap[arg.Address()] = append(sourceMap[arg.Address()], node)
		inputs = append(inputs, arg)
		if !seenDs[node.Name()] {
			seenDs[node.Name()] = true
			datasources = append(datasources, node)
		}
	}

	output := concept.WithGrain(targetGrain)
	sourceMap[output.Address()] = datasources
	return semantic.NewQueryDatasource(inputs, []*semantic.Concept{output}, sourceMap, datasources, targetGrain, nil, nil), nil
}

// resolveDerivedAtArgumentGrain is tier 2: a BASIC-derivation concept whose
// arguments resolve individually (each at its own default grain), rather
// than being forced to targetGrain.
func (r *Resolver) resolveDerivedAtArgumentGrain(pctx *planctx.Context, concept *semantic.Concept, targetGrain *semantic.Grain) (semantic.DatasourceNode, error) {
	args := concept.Lineage.Arguments()
	sourceMap := map[string][]semantic.DatasourceNode{}
	var datasources []semantic.DatasourceNode
	var inputs []*semantic.Concept
	seenDs := map[string]bool{}

	for _, arg := range args {
		node, err := r.Resolve(pctx, arg, arg.Grain, false)
		if err != nil {
			return nil, err
		}
		sourceMap[arg.Address()] = append(sourceMap[arg.Address()], node)
		inputs = append(inputs, arg)
		if !seenDs[node.Name()] {
			seenDs[node.Name()] = true
			datasources = append(datasources, node)
		}
	}

	output := concept.WithGrain(targetGrain)
	sourceMap[output.Address()] = datasources
	return semantic.NewQueryDatasource(inputs, []*semantic.Concept{output}, sourceMap, datasources, targetGrain, nil, nil), nil
}

// resolveDirect is tier 3: find any Datasource whose output includes
// concept at a grain that is a subset of targetGrain, choosing among the
// candidates with pickBest (non-partial first, then the smaller grain).
func (r *Resolver) resolveDirect(concept *semantic.Concept, targetGrain *semantic.Grain, wholeGrain bool) (semantic.DatasourceNode, error) {
	var candidates []candidate
	for _, ds := range r.env.Datasources {
		matched, ok := r.matchInDatasource(ds, concept)
		if !ok {
			continue
		}
		if wholeGrain && !matched.Grain.Equal(targetGrain) {
			continue
		}
		if !matched.Grain.IsSubset(targetGrain) {
			continue
		}
		candidates = append(candidates, candidate{
			ds:      ds,
			grain:   matched.Grain,
			partial: ds.IsPartial(concept),
		})
	}
	if len(candidates) == 0 {
		return nil, semantic.ErrUnresolvableGrain.New(fmt.Sprintf(
			"no direct source for %s at grain %s", concept.Address(), targetGrain))
	}

	best := pickBest(candidates)
	return best.ds, nil
}

// matchInDatasource returns the concept as ds actually outputs it, adjusted
// to ds's own grain, when ds produces concept at all.
func (r *Resolver) matchInDatasource(ds *semantic.Datasource, concept *semantic.Concept) (*semantic.Concept, bool) {
	for _, c := range ds.Concepts() {
		if c.Address() == concept.Address() {
			return c.WithGrain(ds.Grain), true
		}
	}
	return nil, false
}

// pickBest applies the tie-break rule (spec §5 "Resolver determinism"):
// prefer non-partial, then smaller grain, then fewer partial columns, then
// lexicographically smaller identifier.
func pickBest(candidates []candidate) candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.partial != b.partial {
			return !a.partial
		}
		if len(a.grain.Components) != len(b.grain.Components) {
			return len(a.grain.Components) < len(b.grain.Components)
		}
		ap, bp := len(a.ds.PartialConcepts()), len(b.ds.PartialConcepts())
		if ap != bp {
			return ap < bp
		}
		return a.ds.Identifier < b.ds.Identifier
	})
	return candidates[0]
}

// resolveJoin is tier 4: enumerate pairs of sources whose combined output
// covers concept plus a shared key to bridge to targetGrain.
func (r *Resolver) resolveJoin(pctx *planctx.Context, concept *semantic.Concept, targetGrain *semantic.Grain) (semantic.DatasourceNode, error) {
	var producers []*semantic.Datasource
	for _, ds := range r.env.Datasources {
		if _, ok := r.matchInDatasource(ds, concept); ok {
			producers = append(producers, ds)
		}
	}
	var bridges []*semantic.Datasource
	for _, ds := range r.env.Datasources {
		bridges = append(bridges, ds)
	}
	sort.Slice(producers, func(i, j int) bool { return producers[i].Identifier < producers[j].Identifier })
	sort.Slice(bridges, func(i, j int) bool { return bridges[i].Identifier < bridges[j].Identifier })

	for _, left := range producers {
		for _, right := range bridges {
			if left.Identifier == right.Identifier {
				continue
			}
			sharedKeys := sharedKeyConcepts(left, right)
			if len(sharedKeys) == 0 {
				continue
			}
			combinedGrain := semantic.NewGrain(append(append([]*semantic.Concept{}, left.Grain.Components...), right.Grain.Components...)...)
			if !combinedGrain.IsSubset(targetGrain) && !targetGrain.IsSubset(combinedGrain) {
				continue
			}
			join, err := semantic.NewBaseJoin(left, right, sharedKeys, semantic.JoinInner)
			if err != nil {
				continue
			}
			output := concept.WithGrain(targetGrain)
			sourceMap := map[string][]semantic.DatasourceNode{
				output.Address(): {left, right},
			}
			for _, k := range sharedKeys {
				sourceMap[k.Address()] = []semantic.DatasourceNode{left, right}
			}
			datasources := []semantic.DatasourceNode{left, right}
			return semantic.NewQueryDatasource(sharedKeys, []*semantic.Concept{output}, sourceMap, datasources, targetGrain, []*semantic.BaseJoin{join}, nil), nil
		}
	}
	return nil, semantic.ErrUnresolvableGrain.New(fmt.Sprintf(
		"no join covers %s at grain %s", concept.Address(), targetGrain))
}

// sharedKeyConcepts is the intersection of two datasources' output key
// concepts, by address (spec §4.3 "the join keys are the intersection of
// the two sides' output key concepts").
func sharedKeyConcepts(left, right *semantic.Datasource) []*semantic.Concept {
	rightKeys := map[string]*semantic.Concept{}
	for _, c := range right.Concepts() {
		if c.Purpose == semantic.PurposeKey {
			rightKeys[c.Address()] = c
		}
	}
	var out []*semantic.Concept
	for _, c := range left.Concepts() {
		if c.Purpose != semantic.PurposeKey {
			continue
		}
		if _, ok := rightKeys[c.Address()]; ok {
			out = append(out, c)
		}
	}
	return out
}
