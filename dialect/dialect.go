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

// Package dialect defines the protocol a target SQL dialect implements to
// render a ProcessedQuery, and the small set of per-dialect hooks (spec
// §4.8): QUOTE_CHARACTER, FUNCTION_MAP, FUNCTION_GRAIN_MATCH_MAP,
// WINDOW_FUNCTION_MAP, DATATYPE_MAP, and the statement template.
package dialect

import "github.com/ngharrington/trilogy-go/semantic"

// FunctionRenderer renders one FunctionType call over already-rendered
// argument strings.
type FunctionRenderer func(args []string) string

// WindowRenderer renders one WindowFunctionType call given the rendered
// dimension expression, the rendered comma-joined sort expressions, and the
// sort direction.
type WindowRenderer func(dimension, sort, order string) string

// Dialect compiles a ProcessedQuery into dialect-specific SQL text.
type Dialect interface {
	// CompileStatement renders the full statement: CTEs, select list, base,
	// joins, where, group-by, order-by, and limit (spec §4.8).
	CompileStatement(query *semantic.ProcessedQuery) (string, error)
}
