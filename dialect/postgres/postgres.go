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

// Package postgres implements an ANSI-leaning second dialect: double-quote
// identifiers and a trailing LIMIT (no OFFSET is rendered). original_source carries no second
// dialect beyond BigQuery; this is SPEC_FULL.md's proof that the Dialect
// protocol composes by embedding base.BaseDialect rather than requiring
// subclassing (spec §9).
package postgres

import (
	"fmt"
	"strings"

	"github.com/ngharrington/trilogy-go/dialect"
	"github.com/ngharrington/trilogy-go/dialect/base"
	"github.com/ngharrington/trilogy-go/semantic"
)

// Dialect is the Postgres rendering target.
type Dialect struct {
	*base.BaseDialect
}

// New builds a Postgres dialect: double-quoted identifiers, LIMIT instead
// of TOP, and a CONCAT override that joins its arguments with ", ".
func New() *Dialect {
	b := base.New()
	b.QuoteCharacter = `"`
	b.UseTopForLimit = false
	b.FunctionMap[semantic.FunctionConcat] = func(a []string) string {
		return fmt.Sprintf("concat(%s)", strings.Join(a, ", "))
	}
	b.FunctionGrainMatchMap[semantic.FunctionConcat] = b.FunctionMap[semantic.FunctionConcat]
	return &Dialect{BaseDialect: b}
}

var _ dialect.Dialect = (*Dialect)(nil)
