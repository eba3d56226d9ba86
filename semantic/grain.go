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

import "sort"

// Grain is an order-irrelevant set of concepts whose value-tuple uniquely
// identifies a row (spec §4 "Grain"). Components are stored as a slice
// sorted by address for stable hashing and reproducible SQL output (spec
// §9 "Grain as a set"), but equality and set algebra are always computed
// over the address set, never slice order.
type Grain struct {
	Components []*Concept
	// Nested suppresses default-grain re-expansion when constructing
	// transitively, breaking the recursion a key's own default grain
	// would otherwise cause (spec §4.1).
	Nested bool
}

// NewGrain builds a normalized, non-nested Grain: every component is
// replaced by its with_default_grain(), matching Grain.__init__ in the
// original model. It has no nested option; nested grains are built as
// Grain literals (see Concept.WithDefaultGrain, Plus, Intersection).
func NewGrain(components ...*Concept) *Grain {
	g := &Grain{}
	g.Components = make([]*Concept, len(components))
	for i, c := range components {
		g.Components[i] = c.WithDefaultGrain()
	}
	g.sortComponents()
	return g
}

// EmptyGrain is the abstract grain (no components).
func EmptyGrain() *Grain {
	return &Grain{}
}

func (g *Grain) sortComponents() {
	sort.SliceStable(g.Components, func(i, j int) bool {
		return g.Components[i].Address() < g.Components[j].Address()
	})
}

// Abstract reports whether g has no components.
func (g *Grain) Abstract() bool {
	return g == nil || len(g.Components) == 0
}

// Set returns the address set of g's components.
func (g *Grain) Set() map[string]bool {
	out := map[string]bool{}
	if g == nil {
		return out
	}
	for _, c := range g.Components {
		out[c.Address()] = true
	}
	return out
}

// Equal compares two grains by address-set equality (spec §4 "equality on
// set"), reflexive/symmetric/transitive per spec §8 testable property 5.
func (g *Grain) Equal(other *Grain) bool {
	a, b := g.Set(), other.Set()
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// IsSubset reports whether every component address of g is present in other.
func (g *Grain) IsSubset(other *Grain) bool {
	a, b := g.Set(), other.Set()
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// IsDisjoint reports whether g and other share no component address.
func (g *Grain) IsDisjoint(other *Grain) bool {
	a, b := g.Set(), other.Set()
	for k := range a {
		if b[k] {
			return false
		}
	}
	return true
}

// Intersection returns the grain of components present in both g and other.
func (g *Grain) Intersection(other *Grain) *Grain {
	b := other.Set()
	out := &Grain{Nested: true}
	for _, c := range g.Components {
		if b[c.Address()] {
			out.Components = append(out.Components, c)
		}
	}
	out.sortComponents()
	return out
}

// Plus unions g and other, de-duplicating by structural equality (spec §4
// "union a + b de-duplicates by structural equality"). Used instead of a
// Go operator since Go has none to overload.
func (g *Grain) Plus(other *Grain) *Grain {
	out := &Grain{Nested: true}
	add := func(components []*Concept) {
		for _, c := range components {
			dup := false
			for _, existing := range out.Components {
				if existing.Equal(c) {
					dup = true
					break
				}
			}
			if !dup {
				out.Components = append(out.Components, c)
			}
		}
	}
	if g != nil {
		add(g.Components)
	}
	if other != nil {
		add(other.Components)
	}
	out.sortComponents()
	return out
}

// SumGrains sums a list of grains, starting from the abstract grain (spec
// §4 "summation sum([g…]) starts from abstract grain").
func SumGrains(grains []*Grain) *Grain {
	out := EmptyGrain()
	for _, g := range grains {
		out = out.Plus(g)
	}
	return out
}

// WithNamespace returns a copy of g with every component re-namespaced.
func (g *Grain) WithNamespace(namespace string) *Grain {
	if g == nil {
		return nil
	}
	out := &Grain{Nested: g.Nested}
	for _, c := range g.Components {
		out.Components = append(out.Components, c.WithNamespace(namespace))
	}
	return out
}

func (g *Grain) String() string {
	if g.Abstract() {
		return "Grain<Abstract>"
	}
	out := "Grain<"
	for i, c := range g.Components {
		if i > 0 {
			out += ","
		}
		out += c.Address()
	}
	return out + ">"
}
