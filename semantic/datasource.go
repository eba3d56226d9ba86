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

// ColumnAssignment binds one physical column (its alias) to a Concept,
// with optional modifiers (spec §3 "ColumnAssignment").
type ColumnAssignment struct {
	Alias     string
	Concept   *Concept
	Modifiers []Modifier
}

// IsComplete reports whether the assignment carries no ModifierPartial.
func (ca ColumnAssignment) IsComplete() bool {
	for _, m := range ca.Modifiers {
		if m == ModifierPartial {
			return false
		}
	}
	return true
}

// WithNamespace is a documented no-op: preql's own with_namespace on
// ColumnAssignment returns the receiver unchanged with a "this breaks
// assignments" comment (spec §9 open question 1). The correct semantics
// of namespacing an assignment is unresolved upstream, so this module
// carries the same behavior rather than guessing at a fix.
//
// TODO: figure out why renamespacing a ColumnAssignment's concept breaks
// datasource resolution before changing this.
func (ca ColumnAssignment) WithNamespace(namespace string) ColumnAssignment {
	return ca
}

// Address is a physical location string (possibly structured; spec §3
// Datasource "address is a location string").
type Address struct {
	Location string
}

// Datasource is a physical binding: an identifier, a column->concept
// mapping, a declared grain, and a namespace (spec §3 "Datasource").
type Datasource struct {
	Identifier string
	Columns    []ColumnAssignment
	Addr       Address
	Grain      *Grain
	Namespace  string
}

// NewDatasource builds a Datasource. If grain is nil, it is derived as the
// set of key concepts appearing in columns, each with empty grain (spec §3
// invariant).
func NewDatasource(identifier string, location string, columns []ColumnAssignment, grain *Grain) *Datasource {
	ds := &Datasource{Identifier: identifier, Addr: Address{Location: location}, Columns: columns, Grain: grain}
	if ds.Grain == nil || ds.Grain.Abstract() {
		var keyComponents []*Concept
		for _, c := range ds.Columns {
			if c.Concept.Purpose == PurposeKey {
				keyComponents = append(keyComponents, c.Concept.WithGrain(EmptyGrain()))
			}
		}
		ds.Grain = NewGrain(keyComponents...)
	}
	return ds
}

func (d *Datasource) String() string {
	return fmt.Sprintf("%s.%s@<%s>", d.Namespace, d.Identifier, d.Grain)
}

// Name is the identifier used in join/grain/CTE bookkeeping.
func (d *Datasource) Name() string { return d.Identifier }

// WithNamespace returns a re-namespaced copy of d.
func (d *Datasource) WithNamespace(namespace string) *Datasource {
	out := &Datasource{Identifier: d.Identifier, Namespace: namespace, Addr: d.Addr, Grain: d.Grain.WithNamespace(namespace)}
	out.Columns = make([]ColumnAssignment, len(d.Columns))
	for i, c := range d.Columns {
		out.Columns[i] = ColumnAssignment{Alias: c.Alias, Concept: c.Concept.WithNamespace(namespace), Modifiers: c.Modifiers}
	}
	return out
}

// Concepts returns every concept this datasource outputs.
func (d *Datasource) Concepts() []*Concept {
	out := make([]*Concept, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Concept
	}
	return out
}

// FullConcepts returns the concepts backed by a non-partial column.
func (d *Datasource) FullConcepts() []*Concept {
	var out []*Concept
	for _, c := range d.Columns {
		if c.IsComplete() {
			out = append(out, c.Concept)
		}
	}
	return out
}

// PartialConcepts returns the concepts backed by a ModifierPartial column.
func (d *Datasource) PartialConcepts() []*Concept {
	var out []*Concept
	for _, c := range d.Columns {
		if !c.IsComplete() {
			out = append(out, c.Concept)
		}
	}
	return out
}

// OutputConcepts is an alias for Concepts (spec §3 "output_concepts = concepts").
func (d *Datasource) OutputConcepts() []*Concept { return d.Concepts() }

// IsPartial reports whether concept is backed by a ModifierPartial column
// on d, by address (spec §4.3 "prefer a source whose partial_concepts does
// not contain concept").
func (d *Datasource) IsPartial(concept *Concept) bool {
	for _, c := range d.PartialConcepts() {
		if c.Address() == concept.Address() {
			return true
		}
	}
	return false
}

// GetAlias maps a concept (adjusted to d's grain) to d's column alias,
// returning ErrUndefinedConcept if absent (spec §3 "get_alias").
func (d *Datasource) GetAlias(concept *Concept) (string, error) {
	for _, c := range d.Columns {
		if c.Concept.WithGrain(concept.Grain).Equal(concept) {
			return c.Alias, nil
		}
	}
	return "", ErrUndefinedConcept.New(fmt.Sprintf("%s not found on datasource %s", concept, d.Identifier))
}

// SafeLocation is the physical address string.
func (d *Datasource) SafeLocation() string { return d.Addr.Location }

// NodeGrain implements DatasourceNode.
func (d *Datasource) NodeGrain() *Grain { return d.Grain }
