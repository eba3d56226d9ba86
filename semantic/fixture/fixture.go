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

// Package fixture loads table-driven concept/datasource environments from
// inline YAML, standing in for the parser this module excludes (spec's
// Non-goals). Tests build an Environment by describing keys, properties,
// and datasources declaratively instead of hand-wiring semantic.Concept
// graphs line by line.
package fixture

import (
	"fmt"

	"gopkg.in/yaml.v2"

	"github.com/ngharrington/trilogy-go/semantic"
)

// ConceptSpec describes one concept to register.
type ConceptSpec struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Purpose  string   `yaml:"purpose"`
	Keys     []string `yaml:"keys"`
}

// ColumnSpec binds one datasource column to a previously-declared concept.
type ColumnSpec struct {
	Alias   string `yaml:"alias"`
	Concept string `yaml:"concept"`
	Partial bool   `yaml:"partial"`
}

// DatasourceSpec describes one physical datasource to register.
type DatasourceSpec struct {
	Identifier string       `yaml:"identifier"`
	Location   string       `yaml:"location"`
	Columns    []ColumnSpec `yaml:"columns"`
}

// Spec is the root fixture document: a flat list of concepts followed by
// the datasources that bind them.
type Spec struct {
	Concepts    []ConceptSpec    `yaml:"concepts"`
	Datasources []DatasourceSpec `yaml:"datasources"`
}

var dataTypes = map[string]semantic.DataType{
	"string":    semantic.DataTypeString,
	"int":       semantic.DataTypeInteger,
	"float":     semantic.DataTypeFloat,
	"bool":      semantic.DataTypeBool,
	"date":      semantic.DataTypeDate,
	"datetime":  semantic.DataTypeDatetime,
	"timestamp": semantic.DataTypeTimestamp,
}

// Load parses doc and builds an Environment with every declared concept
// and datasource registered.
func Load(doc string) (*semantic.Environment, error) {
	var spec Spec
	if err := yaml.Unmarshal([]byte(doc), &spec); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}

	env := semantic.NewEnvironment()
	concepts := map[string]*semantic.Concept{}

	for _, cs := range spec.Concepts {
		dt, ok := dataTypes[cs.Type]
		if !ok {
			return nil, fmt.Errorf("concept %s: unknown type %q", cs.Name, cs.Type)
		}
		var keys []*semantic.Concept
		for _, k := range cs.Keys {
			key, ok := concepts[k]
			if !ok {
				return nil, fmt.Errorf("concept %s: unknown key %q (declare keys before dependents)", cs.Name, k)
			}
			keys = append(keys, key)
		}

		var c *semantic.Concept
		switch cs.Purpose {
		case "key":
			c = semantic.NewKey(cs.Name, dt)
		case "property":
			c = semantic.NewProperty(cs.Name, dt, keys...)
		default:
			return nil, fmt.Errorf("concept %s: unsupported fixture purpose %q (use explicit Go construction for metrics)", cs.Name, cs.Purpose)
		}
		concepts[cs.Name] = c
		env.AddConcept(c)
	}

	for _, ds := range spec.Datasources {
		var columns []semantic.ColumnAssignment
		for _, col := range ds.Columns {
			c, ok := concepts[col.Concept]
			if !ok {
				return nil, fmt.Errorf("datasource %s: unknown concept %q", ds.Identifier, col.Concept)
			}
			var modifiers []semantic.Modifier
			if col.Partial {
				modifiers = append(modifiers, semantic.ModifierPartial)
			}
			columns = append(columns, semantic.ColumnAssignment{Alias: col.Alias, Concept: c, Modifiers: modifiers})
		}
		env.AddDatasource(semantic.NewDatasource(ds.Identifier, ds.Location, columns, nil))
	}

	return env, nil
}

// MustLoad is Load, panicking on error; intended for test table setup
// where a malformed fixture is a programmer error, not a test case.
func MustLoad(doc string) *semantic.Environment {
	env, err := Load(doc)
	if err != nil {
		panic(err)
	}
	return env
}
