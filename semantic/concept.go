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

import "fmt"

// Lineage is the sum type `Function | WindowItem` describing how a derived
// Concept is computed.
type Lineage interface {
	// Arguments returns the concepts this lineage directly references.
	Arguments() []*Concept
	// Derivation classifies the lineage per spec §3.
	Derivation() Derivation
	withNamespace(namespace string) Lineage
}

// Metadata holds the annotations the parser may attach to a Concept (spec
// §3); it carries only a free-text Description, which the planner never
// reads.
type Metadata struct {
	Description string
}

// Concept is a named semantic column: a datatype, a purpose, optional
// lineage, and a grain. Concepts are created by the parser and registered
// in the Environment; they are immutable after registration (spec §3
// "Lifecycle") — every transform below returns a new value.
type Concept struct {
	Name      string
	Namespace string
	DataType  DataType
	Purpose   Purpose
	Metadata  *Metadata
	Lineage   Lineage
	Keys      []*Concept
	Grain     *Grain
}

// NewKey builds a key Concept whose default grain is itself (spec §3
// Invariants, §4.1). Namespace defaults to "default" if empty, matching
// preql's Concept.namespace_enforcement validator.
func NewKey(name string, dt DataType) *Concept {
	c := &Concept{Name: name, Namespace: "default", DataType: dt, Purpose: PurposeKey}
	return c.WithDefaultGrain()
}

// NewProperty builds a property Concept. keys is the declared parent-key
// list (spec §3); its default grain is computed by WithDefaultGrain.
func NewProperty(name string, dt DataType, keys ...*Concept) *Concept {
	c := &Concept{Name: name, Namespace: "default", DataType: dt, Purpose: PurposeProperty, Keys: keys}
	return c.WithDefaultGrain()
}

// NewMetric builds a metric Concept derived from lineage. Its grain is
// whatever grain it is requested at (spec §3), so it starts abstract.
func NewMetric(name string, dt DataType, lineage Lineage) *Concept {
	c := &Concept{Name: name, Namespace: "default", DataType: dt, Purpose: PurposeMetric, Lineage: lineage, Grain: EmptyGrain()}
	return c
}

func (c *Concept) namespaceOrDefault() string {
	if c.Namespace == "" {
		return "default"
	}
	return c.Namespace
}

// Address is `namespace.name`, the fully qualified identity of a Concept.
func (c *Concept) Address() string {
	return c.namespaceOrDefault() + "." + c.Name
}

// SafeAddress is `namespace_name`, usable directly as a SQL identifier
// fragment.
func (c *Concept) SafeAddress() string {
	return c.namespaceOrDefault() + "_" + c.Name
}

func (c *Concept) String() string {
	grainStr := ""
	if c.Grain != nil {
		comps := make([]string, 0, len(c.Grain.Components))
		for _, g := range c.Grain.Components {
			comps = append(comps, g.Address())
		}
		for i, s := range comps {
			if i > 0 {
				grainStr += ","
			}
			grainStr += s
		}
	}
	return fmt.Sprintf("%s<%s>", c.Address(), grainStr)
}

// Equal is structural equality over (name, datatype, purpose, namespace,
// grain), per spec §3.
func (c *Concept) Equal(other *Concept) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.Name == other.Name &&
		c.DataType == other.DataType &&
		c.Purpose == other.Purpose &&
		c.namespaceOrDefault() == other.namespaceOrDefault() &&
		c.Grain.Equal(other.Grain)
}

// WithNamespace returns a copy of c re-namespaced; lineage and grain are
// re-namespaced recursively.
func (c *Concept) WithNamespace(namespace string) *Concept {
	var lineage Lineage
	if c.Lineage != nil {
		lineage = c.Lineage.withNamespace(namespace)
	}
	out := &Concept{
		Name:      c.Name,
		Namespace: namespace,
		DataType:  c.DataType,
		Purpose:   c.Purpose,
		Metadata:  c.Metadata,
		Lineage:   lineage,
		Keys:      c.Keys,
	}
	if c.Grain != nil {
		out.Grain = c.Grain.WithNamespace(namespace)
	}
	return out
}

// WithGrain returns a copy of c with its grain replaced, leaving everything
// else unchanged.
func (c *Concept) WithGrain(grain *Grain) *Concept {
	out := *c
	out.Grain = grain
	return &out
}

// WithDefaultGrain is idempotent (spec §4.1 contract, tested as testable
// property 6) and implements:
//
//	key      -> grain is {self, nested, empty-grained}
//	property -> grain is keys ∪ ⋃ sources(lineage arguments)
//	metric   -> unchanged
func (c *Concept) WithDefaultGrain() *Concept {
	out := *c
	switch c.Purpose {
	case PurposeKey:
		selfCopy := *c
		selfCopy.Grain = EmptyGrain()
		out.Grain = &Grain{Components: []*Concept{&selfCopy}, Nested: true}
	case PurposeProperty:
		var components []*Concept
		components = append(components, c.Keys...)
		if c.Lineage != nil {
			for _, arg := range c.Lineage.Arguments() {
				components = append(components, arg.Sources()...)
			}
		}
		out.Grain = NewGrain(components...)
	default:
		if c.Grain == nil {
			out.Grain = EmptyGrain()
		} else {
			out.Grain = c.Grain
		}
	}
	return &out
}

// Sources returns the recursive closure of lineage arguments that are
// concepts (preql's Concept.sources).
func (c *Concept) Sources() []*Concept {
	if c.Lineage == nil {
		return nil
	}
	var out []*Concept
	for _, arg := range c.Lineage.Arguments() {
		out = append(out, arg)
		out = append(out, arg.Sources()...)
	}
	return out
}

// Input is c plus its recursive lineage sources (preql's Concept.input).
func (c *Concept) Input() []*Concept {
	return append([]*Concept{c}, c.Sources()...)
}

// Derivation classifies c's lineage per spec §3.
func (c *Concept) Derivation() Derivation {
	if c.Lineage == nil {
		return DerivationBasic
	}
	return c.Lineage.Derivation()
}
