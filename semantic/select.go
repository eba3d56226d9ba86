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

// Expr is the sum type `Concept | Literal | Comparison | Conditional` that
// a WhereClause leaf or branch can be (spec §9 "Sum types"). Function has
// no Input method and is not an Expr.
type Expr interface {
	Input() []*Concept
}

// Comparison is a WhereClause leaf: `left op right` (spec §6).
type Comparison struct {
	Left, Right Expr
	Operator    ComparisonOperator
}

// Input returns every concept referenced by either side.
func (c *Comparison) Input() []*Concept {
	var out []*Concept
	out = append(out, exprInput(c.Left)...)
	out = append(out, exprInput(c.Right)...)
	return out
}

// Conditional joins two WhereClause branches with AND/OR (spec §6).
type Conditional struct {
	Left, Right Expr
	Operator    BooleanOperator
}

// Input returns every concept directly referenced in the conditional.
func (c *Conditional) Input() []*Concept {
	var out []*Concept
	out = append(out, exprInput(c.Left)...)
	out = append(out, exprInput(c.Right)...)
	return out
}

func exprInput(e Expr) []*Concept {
	if e == nil {
		return nil
	}
	if c, ok := e.(*Concept); ok {
		return []*Concept{c}
	}
	return e.Input()
}

// ConceptExpr adapts *Concept to Expr so it can sit directly in a
// Comparison/Conditional tree.
type ConceptExpr struct{ *Concept }

// Input implements Expr.
func (c ConceptExpr) Input() []*Concept { return []*Concept{c.Concept} }

// Literal is a constant leaf of a WhereClause expression tree.
type Literal struct{ Value interface{} }

// Input implements Expr: a literal references no concepts.
func (Literal) Input() []*Concept { return nil }

// WhereClause wraps the root Conditional of a select's WHERE (spec §6).
type WhereClause struct {
	Conditional *Conditional
}

// Input returns every concept referenced anywhere in the where clause.
func (w *WhereClause) Input() []*Concept {
	return w.Conditional.Input()
}

// Grain computes the where clause's own grain contribution: every key
// input directly, every property input's grain components (spec §9
// WhereClause.grain, used by resolver predicate-pushdown hints).
func (w *WhereClause) Grain() *Grain {
	var components []*Concept
	for _, c := range w.Input() {
		switch c.Purpose {
		case PurposeKey:
			components = append(components, c)
		case PurposeProperty:
			if c.Grain != nil {
				components = append(components, c.Grain.Components...)
			}
		}
	}
	return NewGrain(components...)
}

// OrderBy is the select's ordering clause.
type OrderBy struct {
	Items []OrderItem
}

// SelectItem is one projected output: either a bare Concept, a
// ConceptTransform, or a WindowItem (spec §6 "selection:
// [SelectItem|Concept|ConceptTransform]").
type SelectItem struct {
	Concept   *Concept
	Transform *ConceptTransform
	Window    *WindowItem
}

// Output is the concept this item ultimately projects.
func (s SelectItem) Output() *Concept {
	switch {
	case s.Transform != nil:
		return s.Transform.Output
	case s.Window != nil:
		return s.Window.Content
	default:
		return s.Concept
	}
}

// Input is every concept this item's content (not output) references.
func (s SelectItem) Input() []*Concept {
	switch {
	case s.Transform != nil:
		return s.Transform.Input()
	case s.Window != nil:
		return s.Window.Arguments()
	default:
		return s.Concept.Input()
	}
}

// Select is the core statement the planner consumes (spec §6): a
// projection, optional where/order/limit.
type Select struct {
	Selection   []SelectItem
	WhereClause *WhereClause
	OrderBy     *OrderBy
	Limit       *int
}

// NewSelectOfConcepts is a convenience constructor for selects whose
// projection is bare concepts, the common case in the scenarios of spec §8.
func NewSelectOfConcepts(concepts ...*Concept) *Select {
	items := make([]SelectItem, len(concepts))
	for i, c := range concepts {
		items[i] = SelectItem{Concept: c}
	}
	return &Select{Selection: items}
}

// OutputComponents is every concept this select projects, in order.
func (s *Select) OutputComponents() []*Concept {
	out := make([]*Concept, len(s.Selection))
	for i, item := range s.Selection {
		out[i] = item.Output()
	}
	return out
}

// InputComponents is every concept referenced by the selection or the
// where clause, de-duplicated by name, in first-seen order (spec §6).
func (s *Select) InputComponents() []*Concept {
	seen := map[string]bool{}
	var out []*Concept
	add := func(c *Concept) {
		if seen[c.Name] {
			return
		}
		seen[c.Name] = true
		out = append(out, c)
	}
	for _, item := range s.Selection {
		for _, c := range item.Input() {
			add(c)
		}
	}
	if s.WhereClause != nil {
		for _, c := range s.WhereClause.Input() {
			add(c)
		}
	}
	return out
}

// Grain computes the select's effective grain (spec §4.7): seed with every
// output key, extend with where-clause key inputs, then add back any
// output property whose own grain is not a subset of the running grain
// (it must drive grouping because its key is absent from the output).
func (s *Select) Grain() *Grain {
	var components []*Concept
	for _, c := range s.OutputComponents() {
		if c.Purpose == PurposeKey {
			components = append(components, c)
		}
	}
	if s.WhereClause != nil {
		for _, c := range s.WhereClause.Input() {
			if c.Purpose == PurposeKey {
				components = append(components, c)
			}
		}
	}
	running := NewGrain(components...)
	for _, c := range s.OutputComponents() {
		if c.Purpose == PurposeProperty && !c.Grain.IsSubset(running) {
			components = append(components, c)
			running = NewGrain(components...)
		}
	}
	return NewGrain(components...)
}

// ProcessedQuery is the planner's structured output (spec §6): the CTE
// DAG, the base CTE, cross-CTE joins, and the pass-through select clauses.
type ProcessedQuery struct {
	OutputColumns []*Concept
	CTEs          []*CTE
	Base          *CTE
	Joins         []*Join
	Grain         *Grain
	Limit         *int
	WhereClause   *WhereClause
	OrderBy       *OrderBy
}
