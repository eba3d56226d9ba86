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

// Environment is the mapping from qualified names to concepts and
// datasources that the parser builds up and the planner then treats as
// read-only (spec §2.5, §5 "the environment is mutated by the parser... by
// the time the planner receives it, it is treated as effectively
// immutable").
type Environment struct {
	Concepts    map[string]*Concept
	Datasources map[string]*Datasource
	Namespace   string
	WorkingPath string
}

// NewEnvironment builds an empty Environment with the default namespace.
func NewEnvironment() *Environment {
	return &Environment{
		Concepts:    map[string]*Concept{},
		Datasources: map[string]*Datasource{},
		Namespace:   "default",
	}
}

// AddConcept registers c under its address.
func (e *Environment) AddConcept(c *Concept) {
	e.Concepts[c.Address()] = c
}

// AddDatasource registers d under its identifier.
func (e *Environment) AddDatasource(d *Datasource) {
	e.Datasources[d.Identifier] = d
}

// Concept looks up a concept by address, raising ErrUndefinedConcept on a
// miss (spec §3 Environment "Name-lookup failure is a typed error").
func (e *Environment) Concept(address string) (*Concept, error) {
	c, ok := e.Concepts[address]
	if !ok {
		return nil, ErrUndefinedConcept.New(address)
	}
	return c, nil
}

// ConceptAt looks up a concept by address, carrying the parser-supplied
// line number into the error when absent (spec §7 "carries the line
// number if the parser supplied it").
func (e *Environment) ConceptAt(address string, line int) (*Concept, error) {
	c, ok := e.Concepts[address]
	if !ok {
		return nil, ErrUndefinedConcept.New(fmt.Sprintf("line %d: %s", line, address))
	}
	return c, nil
}

// DatasourcesForConcept returns every registered datasource whose columns
// include concept, by address.
func (e *Environment) DatasourcesForConcept(concept *Concept) []*Datasource {
	var out []*Datasource
	for _, ds := range e.Datasources {
		for _, c := range ds.Concepts() {
			if c.Address() == concept.Address() {
				out = append(out, ds)
				break
			}
		}
	}
	return out
}
