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

// OrderItem is one entry of an OrderBy or a WindowItem's sort list: an
// expression concept and a direction.
type OrderItem struct {
	Expr  *Concept
	Order Ordering
}

func (o OrderItem) withNamespace(namespace string) OrderItem {
	return OrderItem{Expr: o.Expr.WithNamespace(namespace), Order: o.Order}
}

// WindowItem is a lineage node wrapping a content concept with an ORDER BY
// (spec §3 "WindowItem"). Its output datatype/purpose equal content's.
type WindowItem struct {
	Content *Concept
	OrderBy []OrderItem
	Func    WindowFunctionType
}

// Arguments implements Lineage: the content concept plus every sort key.
func (w *WindowItem) Arguments() []*Concept {
	out := []*Concept{w.Content}
	for _, o := range w.OrderBy {
		out = append(out, o.Expr)
	}
	return out
}

// Derivation implements Lineage: a WindowItem is always DerivationWindow.
func (w *WindowItem) Derivation() Derivation {
	return DerivationWindow
}

func (w *WindowItem) withNamespace(namespace string) Lineage {
	out := &WindowItem{Content: w.Content.WithNamespace(namespace), Func: w.Func}
	out.OrderBy = make([]OrderItem, len(w.OrderBy))
	for i, o := range w.OrderBy {
		out.OrderBy[i] = o.withNamespace(namespace)
	}
	return out
}

// OutputDataType mirrors content's datatype (spec §3).
func (w *WindowItem) OutputDataType() DataType { return w.Content.DataType }

// OutputPurpose mirrors content's purpose (spec §3).
func (w *WindowItem) OutputPurpose() Purpose { return w.Content.Purpose }
