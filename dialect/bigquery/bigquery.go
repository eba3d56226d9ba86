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

// Package bigquery implements the BigQuery dialect: trailing LIMIT instead
// of TOP, unquoted lowercase identifiers, and a narrower operator map
// (spec §4.8, grounded on preql/dialect/bigquery.py).
package bigquery

import (
	"fmt"

	"github.com/ngharrington/trilogy-go/dialect"
	"github.com/ngharrington/trilogy-go/dialect/base"
	"github.com/ngharrington/trilogy-go/semantic"
)

// Dialect is the BigQuery rendering target.
type Dialect struct {
	*base.BaseDialect
}

// New builds a BigQuery dialect: no identifier quoting (BigQuery accepts
// bare lower_snake_case identifiers the way this planner names them), and
// LIMIT instead of TOP (spec's BigqueryDialect overrides).
func New() *Dialect {
	b := base.New()
	b.QuoteCharacter = ""
	b.UseTopForLimit = false
	b.FunctionMap = map[semantic.FunctionType]dialect.FunctionRenderer{
		semantic.FunctionCount:  func(a []string) string { return fmt.Sprintf("count(%s)", a[0]) },
		semantic.FunctionSum:    func(a []string) string { return fmt.Sprintf("sum(%s)", a[0]) },
		semantic.FunctionLength: func(a []string) string { return fmt.Sprintf("length(%s)", a[0]) },
		semantic.FunctionAvg:    func(a []string) string { return fmt.Sprintf("avg(%s)", a[0]) },
	}
	b.FunctionGrainMatchMap = b.FunctionMap
	return &Dialect{BaseDialect: b}
}

var _ dialect.Dialect = (*Dialect)(nil)
