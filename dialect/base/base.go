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

// Package base implements the generic ANSI-leaning dialect that concrete
// dialects (bigquery, postgres) embed and override (spec §4.8). Rendering
// is done directly with strings.Builder rather than a text-templating
// library: nothing in the retrieved pack reaches for one to render SQL,
// and the teacher's own plan-to-string conventions favor direct
// Stringer-style construction.
package base

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/ngharrington/trilogy-go/dialect"
	"github.com/ngharrington/trilogy-go/semantic"
)

const invalidReference = "INVALID_REFERENCE_BUG"

// BaseDialect is the generic dialect: backtick quoting, TOP-style limit,
// and the function/window/datatype maps ported from the original's module
// globals (spec §4.8).
type BaseDialect struct {
	QuoteCharacter        string
	FunctionMap           map[semantic.FunctionType]dialect.FunctionRenderer
	FunctionGrainMatchMap map[semantic.FunctionType]dialect.FunctionRenderer
	WindowFunctionMap     map[semantic.WindowFunctionType]dialect.WindowRenderer
	DataTypeMap           map[semantic.DataType]string
	// UseTopForLimit selects `TOP n` in the SELECT clause over a trailing
	// `LIMIT n`, matching the original's generic template.
	UseTopForLimit bool
}

// New builds the generic dialect's default maps (spec §4.8 "FUNCTION_MAP").
func New() *BaseDialect {
	functionMap := map[semantic.FunctionType]dialect.FunctionRenderer{
		semantic.FunctionCast:          func(a []string) string { return fmt.Sprintf("cast(%s as %s)", a[0], a[1]) },
		semantic.FunctionCountDistinct: func(a []string) string { return fmt.Sprintf("count(distinct %s)", a[0]) },
		semantic.FunctionCount:         func(a []string) string { return fmt.Sprintf("count(%s)", a[0]) },
		semantic.FunctionSum:           func(a []string) string { return fmt.Sprintf("sum(%s)", a[0]) },
		semantic.FunctionLength:        func(a []string) string { return fmt.Sprintf("length(%s)", a[0]) },
		semantic.FunctionAvg:           func(a []string) string { return fmt.Sprintf("avg(%s)", a[0]) },
		semantic.FunctionMax:           func(a []string) string { return fmt.Sprintf("max(%s)", a[0]) },
		semantic.FunctionMin:           func(a []string) string { return fmt.Sprintf("min(%s)", a[0]) },
		semantic.FunctionLike:          func(a []string) string { return fmt.Sprintf(" CASE WHEN %s like %s THEN 1 ELSE 0 END", a[0], a[1]) },
		semantic.FunctionNotLike:       func(a []string) string { return fmt.Sprintf(" CASE WHEN %s like %s THEN 0 ELSE 1 END", a[0], a[1]) },
		semantic.FunctionDate:          func(a []string) string { return fmt.Sprintf("date(%s)", a[0]) },
		semantic.FunctionDatetime:      func(a []string) string { return fmt.Sprintf("datetime(%s)", a[0]) },
		semantic.FunctionTimestamp:     func(a []string) string { return fmt.Sprintf("timestamp(%s)", a[0]) },
		semantic.FunctionSecond:        func(a []string) string { return fmt.Sprintf("second(%s)", a[0]) },
		semantic.FunctionMinute:        func(a []string) string { return fmt.Sprintf("minute(%s)", a[0]) },
		semantic.FunctionHour:          func(a []string) string { return fmt.Sprintf("hour(%s)", a[0]) },
		semantic.FunctionDay:           func(a []string) string { return fmt.Sprintf("day(%s)", a[0]) },
		semantic.FunctionMonth:         func(a []string) string { return fmt.Sprintf("month(%s)", a[0]) },
		semantic.FunctionYear:          func(a []string) string { return fmt.Sprintf("year(%s)", a[0]) },
		semantic.FunctionConcat:        func(a []string) string { return fmt.Sprintf("concat(%s)", strings.Join(a, ",")) },
	}
	grainMatchMap := map[semantic.FunctionType]dialect.FunctionRenderer{}
	for k, v := range functionMap {
		grainMatchMap[k] = v
	}
	identity := func(a []string) string { return a[0] }
	grainMatchMap[semantic.FunctionCountDistinct] = identity
	grainMatchMap[semantic.FunctionCount] = identity
	grainMatchMap[semantic.FunctionSum] = identity
	grainMatchMap[semantic.FunctionAvg] = identity
	grainMatchMap[semantic.FunctionMax] = identity
	grainMatchMap[semantic.FunctionMin] = identity

	return &BaseDialect{
		QuoteCharacter:        "`",
		FunctionMap:           functionMap,
		FunctionGrainMatchMap: grainMatchMap,
		WindowFunctionMap: map[semantic.WindowFunctionType]dialect.WindowRenderer{
			semantic.WindowRowNumber: func(dimension, sort, order string) string {
				return fmt.Sprintf("row_number() over ( order by %s %s)", sort, order)
			},
		},
		DataTypeMap: map[semantic.DataType]string{
			semantic.DataTypeString:  "string",
			semantic.DataTypeInteger: "int",
			semantic.DataTypeFloat:   "float",
			semantic.DataTypeBool:    "bool",
		},
		UseTopForLimit: true,
	}
}

// SafeQuote wraps each dotted component of name in the dialect's quote
// character (spec §4.8, ported from safe_quote).
func (d *BaseDialect) SafeQuote(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.QuoteCharacter + p + d.QuoteCharacter
	}
	return strings.Join(parts, ".")
}

// RenderLiteral renders a WHERE/select literal value, using spf13/cast to
// coerce whatever concrete type the parser attached (spec §4.8
// render_literal).
func (d *BaseDialect) RenderLiteral(v interface{}) string {
	switch val := v.(type) {
	case semantic.DataType:
		if s, ok := d.DataTypeMap[val]; ok {
			return s
		}
		return "UNMAPPEDDTYPE"
	case bool:
		if val {
			return "1"
		}
		return "0"
	default:
		if s, err := cast.ToStringE(v); err == nil {
			if _, isNumeric := v.(int); isNumeric {
				return s
			}
			if _, isFloat := v.(float64); isFloat {
				return s
			}
			return "'" + s + "'"
		}
		return fmt.Sprintf("%v", v)
	}
}

// CheckLineage reports whether every concept-typed argument of c's lineage
// is already covered by cte's source map or is itself checkable
// recursively (spec §4.8 check_lineage): if so, c's derivation can be
// inlined in cte rather than requiring a reference to a nested CTE.
func (d *BaseDialect) CheckLineage(c *semantic.Concept, cte *semantic.CTE) bool {
	if c.Lineage == nil {
		return true
	}
	for _, sub := range c.Lineage.Arguments() {
		if _, ok := cte.SourceMap[sub.Address()]; ok {
			continue
		}
		if sub.Lineage != nil && d.CheckLineage(sub, cte) {
			continue
		}
		return false
	}
	return true
}

// RenderConceptSQL renders one output column of cte (spec §4.8 step 1):
// inline the lineage when it can be, else reference the source alias.
func (d *BaseDialect) RenderConceptSQL(c *semantic.Concept, cte *semantic.CTE, alias bool) (string, error) {
	source := cte.SourceMap[c.Address()]
	canInline := c.Lineage != nil && d.CheckLineage(c, cte) && !strings.HasPrefix(source, "cte")

	var rval string
	switch {
	case canInline:
		if window, ok := c.Lineage.(*semantic.WindowItem); ok {
			dimension, err := d.RenderConceptSQL(window.Content, cte, false)
			if err != nil {
				return "", err
			}
			var sortParts []string
			for _, o := range window.OrderBy {
				s, err := d.RenderConceptSQL(o.Expr, cte, false)
				if err != nil {
					return "", err
				}
				sortParts = append(sortParts, s)
			}
			renderer, ok := d.WindowFunctionMap[window.Func]
			if !ok {
				return "", semantic.ErrUnsupportedFilter.New("no window renderer for " + c.Address())
			}
			rval = renderer(dimension, strings.Join(sortParts, ","), "desc")
		} else if fn, ok := c.Lineage.(*semantic.Function); ok {
			args, err := d.renderFunctionArgs(fn, cte)
			if err != nil {
				return "", err
			}
			table := d.FunctionGrainMatchMap
			if cte.GroupToGrain {
				table = d.FunctionMap
			}
			renderer, ok := table[fn.Operator]
			if !ok {
				return "", semantic.ErrUnsupportedFilter.New("no function renderer for operator")
			}
			rval = renderer(args)
		}
	case c.Lineage != nil:
		rval = fmt.Sprintf("%s.%s", orInvalid(source), d.SafeQuote(c.SafeAddress()))
	default:
		sourceAlias, err := cte.GetAlias(c)
		if err != nil {
			return "", err
		}
		rval = fmt.Sprintf("%s.%s", orInvalid(source), d.SafeQuote(sourceAlias))
	}

	if alias {
		return fmt.Sprintf("%s as %s%s%s", rval, d.QuoteCharacter, c.SafeAddress(), d.QuoteCharacter), nil
	}
	return rval, nil
}

func orInvalid(source string) string {
	if source == "" {
		return invalidReference
	}
	return source
}

func (d *BaseDialect) renderFunctionArgs(fn *semantic.Function, cte *semantic.CTE) ([]string, error) {
	var args []string
	for _, a := range fn.Args {
		if c, ok := a.(*semantic.Concept); ok {
			s, err := d.RenderConceptSQL(c, cte, false)
			if err != nil {
				return nil, err
			}
			args = append(args, s)
			continue
		}
		args = append(args, d.RenderLiteral(a))
	}
	return args, nil
}

// RenderExpr renders a WHERE-clause expression tree (spec §4.8 render_expr).
func (d *BaseDialect) RenderExpr(e semantic.Expr, cte *semantic.CTE) (string, error) {
	switch v := e.(type) {
	case *semantic.Comparison:
		left, err := d.RenderExpr(v.Left, cte)
		if err != nil {
			return "", err
		}
		right, err := d.RenderExpr(v.Right, cte)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", left, v.Operator, right), nil
	case *semantic.Conditional:
		left, err := d.RenderExpr(v.Left, cte)
		if err != nil {
			return "", err
		}
		right, err := d.RenderExpr(v.Right, cte)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", left, v.Operator, right), nil
	case semantic.ConceptExpr:
		if cte != nil {
			return d.RenderConceptSQL(v.Concept, cte, false)
		}
		return fmt.Sprintf("%s%s%s", d.QuoteCharacter, v.Concept.SafeAddress(), d.QuoteCharacter), nil
	case semantic.Literal:
		return d.RenderLiteral(v.Value), nil
	case *semantic.Concept:
		if cte != nil {
			return d.RenderConceptSQL(v, cte, false)
		}
		return fmt.Sprintf("%s%s%s", d.QuoteCharacter, v.SafeAddress(), d.QuoteCharacter), nil
	default:
		return "", semantic.ErrUnsupportedFilter.New("unrenderable expression node")
	}
}

func (d *BaseDialect) renderOrderItem(item semantic.OrderItem, ctes []*semantic.CTE) (string, error) {
	for _, cte := range ctes {
		for _, c := range cte.OutputColumns {
			if c.Address() == item.Expr.Address() {
				return fmt.Sprintf("%s.%s %s", cte.Name, item.Expr.SafeAddress(), item.Order), nil
			}
		}
	}
	return "", semantic.ErrUnresolvableGrain.New("no source found for concept " + item.Expr.Address())
}

// compiledCTE is the rendered form of one semantic.CTE: a name plus its own
// standalone SELECT statement text.
type compiledCTE struct {
	name      string
	statement string
}

// GenerateCTEs renders every CTE in query (spec §4.8 generate_ctes).
func (d *BaseDialect) GenerateCTEs(query *semantic.ProcessedQuery, whereAssignment map[string]*semantic.WhereClause) ([]compiledCTE, error) {
	var out []compiledCTE
	for _, cte := range query.CTEs {
		stmt, err := d.renderCTEBody(cte, whereAssignment[cte.Name])
		if err != nil {
			return nil, err
		}
		out = append(out, compiledCTE{name: cte.Name, statement: stmt})
	}
	return out, nil
}

func (d *BaseDialect) renderCTEBody(cte *semantic.CTE, where *semantic.WhereClause) (string, error) {
	var selectColumns []string
	for _, c := range cte.OutputColumns {
		s, err := d.RenderConceptSQL(c, cte, true)
		if err != nil {
			return "", err
		}
		selectColumns = append(selectColumns, s)
	}

	var groupBy []string
	if cte.GroupToGrain {
		seen := map[string]bool{}
		add := func(c *semantic.Concept) error {
			if seen[c.Address()] {
				return nil
			}
			seen[c.Address()] = true
			s, err := d.RenderConceptSQL(c, cte, false)
			if err != nil {
				return err
			}
			groupBy = append(groupBy, s)
			return nil
		}
		for _, c := range cte.Grain.Components {
			if err := add(c); err != nil {
				return "", err
			}
		}
		for _, c := range cte.OutputColumns {
			if c.Purpose == semantic.PurposeProperty {
				if err := add(c); err != nil {
					return "", err
				}
			}
		}
	}

	var whereText string
	if where != nil {
		s, err := d.RenderExpr(where.Conditional, cte)
		if err != nil {
			return "", err
		}
		whereText = s
	}

	var joins []string
	for _, j := range cte.Joins {
		joins = append(joins, d.renderJoin(j))
	}

	base := fmt.Sprintf("%s as %s", cte.BaseName(), cte.BaseAlias())

	return d.renderSelect(nil, selectColumns, base, joins, whereText, groupBy, nil, nil), nil
}

func (d *BaseDialect) renderJoin(j *semantic.Join) string {
	var conds []string
	for _, k := range j.JoinKeys {
		conds = append(conds, fmt.Sprintf("%s.%s = %s.%s",
			j.LeftCTE.Name, k.Concept.SafeAddress(), j.RightCTE.Name, k.Concept.SafeAddress()))
	}
	return fmt.Sprintf("%s JOIN %s on %s", strings.ToUpper(j.JoinType.String()), j.RightCTE.Name, strings.Join(conds, " and "))
}

// renderSelect assembles the generic SQL_TEMPLATE body (spec §4.8
// "SQL_TEMPLATE (a text template with slots...)").
func (d *BaseDialect) renderSelect(ctes []compiledCTE, selectColumns []string, base string, joins []string, where string, groupBy []string, orderBy []string, limit *int) string {
	var b strings.Builder
	if len(ctes) > 0 {
		b.WriteString("WITH ")
		for i, c := range ctes {
			if i > 0 {
				b.WriteString(",\n")
			}
			b.WriteString(c.name)
			b.WriteString(" as (")
			b.WriteString(c.statement)
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	b.WriteString("SELECT\n")
	if limit != nil && d.UseTopForLimit {
		b.WriteString("TOP " + strconv.Itoa(*limit) + "\n")
	}
	for i, col := range selectColumns {
		b.WriteString("    " + col)
		if i != len(selectColumns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("FROM\n    " + base + "\n")
	for _, j := range joins {
		b.WriteString(j + "\n")
	}
	if where != "" {
		b.WriteString("WHERE\n    " + where + "\n")
	}
	if len(groupBy) > 0 {
		b.WriteString("GROUP BY ")
		for i, g := range groupBy {
			b.WriteString("\n    " + g)
			if i != len(groupBy)-1 {
				b.WriteString(",")
			}
		}
		b.WriteString("\n")
	}
	if len(orderBy) > 0 {
		b.WriteString("ORDER BY ")
		for i, o := range orderBy {
			b.WriteString("\n    " + o)
			if i != len(orderBy)-1 {
				b.WriteString(",")
			}
		}
		b.WriteString("\n")
	}
	if limit != nil && !d.UseTopForLimit {
		b.WriteString("LIMIT " + strconv.Itoa(*limit) + "\n")
	}
	return b.String()
}

// CompileStatement implements Dialect (spec §4.8, ported from
// BaseDialect.compile_statement). It decides where-clause placement, joins
// the query's output columns from whichever CTE is a subset of the final
// grain, and upgrades join types per spec §4.6 step 5 / §4.8 step 2.
func (d *BaseDialect) CompileStatement(query *semantic.ProcessedQuery) (string, error) {
	outputCTEs := filterSubsetOfGrain(query.CTEs, query.Grain)

	var selectColumns []string
	selected := map[string]bool{}
	wantOutputs := map[string]bool{}
	for _, c := range query.OutputColumns {
		wantOutputs[c.Address()] = true
	}
	for _, cte := range outputCTEs {
		for _, c := range cte.OutputColumns {
			if selected[c.Address()] || !wantOutputs[c.Address()] {
				continue
			}
			selectColumns = append(selectColumns, fmt.Sprintf("%s.%s", cte.Name, d.SafeQuote(c.SafeAddress())))
			selected[c.Address()] = true
		}
	}
	var missing []string
	for addr := range wantOutputs {
		if !selected[addr] {
			missing = append(missing, addr)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", semantic.ErrMissingOutput.New(strings.Join(missing, ","))
	}

	whereAssignment, outputWhere, err := d.assignWhere(query, outputCTEs)
	if err != nil {
		return "", err
	}
	d.upgradeJoinTypes(query, whereAssignment)

	compiled, err := d.GenerateCTEs(query, whereAssignment)
	if err != nil {
		return "", err
	}

	var whereText string
	if outputWhere {
		whereText, err = d.RenderExpr(query.WhereClause.Conditional, nil)
		if err != nil {
			return "", err
		}
	}

	var joins []string
	for _, j := range query.Joins {
		joins = append(joins, d.renderJoin(j))
	}

	var orderBy []string
	if query.OrderBy != nil {
		for _, item := range query.OrderBy.Items {
			s, err := d.renderOrderItem(item, outputCTEs)
			if err != nil {
				return "", err
			}
			orderBy = append(orderBy, s)
		}
	}

	return d.renderSelect(compiled, selectColumns, query.Base.Name, joins, whereText, nil, orderBy, query.Limit), nil
}

func filterSubsetOfGrain(ctes []*semantic.CTE, grain *semantic.Grain) []*semantic.CTE {
	var out []*semantic.CTE
	for _, c := range ctes {
		if c.Grain.IsSubset(grain) {
			out = append(out, c)
		}
	}
	return out
}

// assignWhere implements spec §4.8 step 2: attach the where clause to the
// outer query when every input is AGGREGATE/WINDOW derived and the filter
// is expressible at output grain; else to the first CTE whose output
// covers the where inputs; else fail.
func (d *BaseDialect) assignWhere(query *semantic.ProcessedQuery, outputCTEs []*semantic.CTE) (map[string]*semantic.WhereClause, bool, error) {
	assignment := map[string]*semantic.WhereClause{}
	if query.WhereClause == nil {
		return assignment, false, nil
	}

	allDerived := true
	for _, c := range query.WhereClause.Input() {
		if c.Derivation() != semantic.DerivationAggregate && c.Derivation() != semantic.DerivationWindow {
			allDerived = false
			break
		}
	}
	if allDerived {
		outputSet := map[string]bool{}
		for _, c := range query.OutputColumns {
			outputSet[c.Address()] = true
		}
		coversOutput := true
		for _, c := range query.WhereClause.Input() {
			if !outputSet[c.Address()] {
				coversOutput = false
				break
			}
		}
		if coversOutput {
			return assignment, true, nil
		}
	}

	need := map[string]bool{}
	for _, c := range query.WhereClause.Input() {
		need[c.Address()] = true
	}
	for _, cte := range outputCTEs {
		have := map[string]bool{}
		for _, c := range cte.OutputColumns {
			have[c.Address()] = true
		}
		covers := true
		for addr := range need {
			if !have[addr] {
				covers = false
				break
			}
		}
		if covers {
			assignment[cte.Name] = query.WhereClause
			return assignment, false, nil
		}
	}
	return nil, false, semantic.ErrUnsupportedFilter.New("cannot place filter on a grain not covered by any source")
}

// upgradeJoinTypes implements the join-type upgrade of spec §4.8 step 2 /
// §4.6 step 5: force INNER when the right side carries the filter, else
// FULL when the left's grain is a strict subset of the query grain.
func (d *BaseDialect) upgradeJoinTypes(query *semantic.ProcessedQuery, whereAssignment map[string]*semantic.WhereClause) {
	for _, j := range query.Joins {
		if _, ok := whereAssignment[j.RightCTE.Name]; ok {
			j.JoinType = semantic.JoinInner
			continue
		}
		if j.LeftCTE.Grain.IsSubset(query.Grain) && !j.LeftCTE.Grain.Equal(query.Grain) {
			j.JoinType = semantic.JoinFull
		}
	}
}
