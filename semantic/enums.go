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

// Package semantic holds the concept/datasource/grain model that the
// resolver and planner packages operate on: the data model is the subject
// of this package, not the algorithms that consume it.
package semantic

// DataType is the datatype of a Concept's value.
type DataType int

const (
	DataTypeString DataType = iota
	DataTypeInteger
	DataTypeFloat
	DataTypeBool
	DataTypeDate
	DataTypeDatetime
	DataTypeTimestamp
)

func (d DataType) String() string {
	switch d {
	case DataTypeString:
		return "string"
	case DataTypeInteger:
		return "int"
	case DataTypeFloat:
		return "float"
	case DataTypeBool:
		return "bool"
	case DataTypeDate:
		return "date"
	case DataTypeDatetime:
		return "datetime"
	case DataTypeTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Purpose is the role a Concept plays: an identifier, an attribute of an
// identifier, or an aggregated measure.
type Purpose int

const (
	// PurposeKey identifies a Concept that uniquely determines its own row.
	PurposeKey Purpose = iota
	// PurposeProperty identifies a Concept that is an attribute of one or
	// more keys.
	PurposeProperty
	// PurposeMetric identifies a Concept that is an aggregated measure,
	// requested at whatever grain its enclosing select asks for.
	PurposeMetric
)

func (p Purpose) String() string {
	switch p {
	case PurposeKey:
		return "key"
	case PurposeProperty:
		return "property"
	case PurposeMetric:
		return "metric"
	default:
		return "unknown"
	}
}

// Derivation classifies a Concept's lineage and drives aggregation and
// filter-placement decisions (spec §3 "Derivation").
type Derivation int

const (
	// DerivationBasic means the concept has no lineage, or lineage whose
	// operator is not in the aggregate function class.
	DerivationBasic Derivation = iota
	// DerivationAggregate means the concept's lineage is a Function whose
	// operator belongs to the aggregate class.
	DerivationAggregate
	// DerivationWindow means the concept's lineage is a WindowItem.
	DerivationWindow
)

func (d Derivation) String() string {
	switch d {
	case DerivationBasic:
		return "basic"
	case DerivationAggregate:
		return "aggregate"
	case DerivationWindow:
		return "window"
	default:
		return "unknown"
	}
}

// FunctionKind distinguishes how a Function's operator behaves, which in
// turn decides whether a Concept built from it is DerivationAggregate,
// DerivationBasic, or rendered only through WindowItem.
type FunctionKind int

const (
	FunctionKindScalar FunctionKind = iota
	FunctionKindAggregate
	FunctionKindWindow
)

// FunctionType enumerates the concrete operators a Function's lineage can
// carry. The dialect's FUNCTION_MAP / FUNCTION_GRAIN_MATCH_MAP key off of
// these.
type FunctionType int

const (
	FunctionCast FunctionType = iota
	FunctionCountDistinct
	FunctionCount
	FunctionSum
	FunctionAvg
	FunctionMax
	FunctionMin
	FunctionLength
	FunctionLike
	FunctionNotLike
	FunctionDate
	FunctionDatetime
	FunctionTimestamp
	FunctionSecond
	FunctionMinute
	FunctionHour
	FunctionDay
	FunctionMonth
	FunctionYear
	FunctionConcat
)

// Kind reports whether operator op is an aggregate or a plain scalar
// function. It never returns FunctionKindWindow: window operators are
// WindowFunctionType values, not FunctionType values. Only the aggregate
// set matters to Derivation.
func (op FunctionType) Kind() FunctionKind {
	switch op {
	case FunctionCountDistinct, FunctionCount, FunctionSum, FunctionAvg, FunctionMax, FunctionMin:
		return FunctionKindAggregate
	default:
		return FunctionKindScalar
	}
}

// IsAggregate reports whether op belongs to FunctionClass.AGGREGATE_FUNCTIONS
// in the original model.
func (op FunctionType) IsAggregate() bool {
	return op.Kind() == FunctionKindAggregate
}

// WindowFunctionType enumerates the operators a WindowItem can be rendered
// through. Kept distinct from FunctionType because window functions have
// their own textual rendering table (WINDOW_FUNCTION_MAP) per spec §4.8.
type WindowFunctionType int

const (
	WindowRowNumber WindowFunctionType = iota
)

// JoinType is the kind of join a BaseJoin or Join renders as.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeftOuter
	JoinFull
)

func (j JoinType) String() string {
	switch j {
	case JoinInner:
		return "inner"
	case JoinLeftOuter:
		return "left outer"
	case JoinFull:
		return "full"
	default:
		return "unknown"
	}
}

// Ordering is the direction of an OrderItem.
type Ordering int

const (
	OrderAscending Ordering = iota
	OrderDescending
)

func (o Ordering) String() string {
	if o == OrderDescending {
		return "desc"
	}
	return "asc"
}

// ComparisonOperator is the operator of a Comparison leaf in a WhereClause.
type ComparisonOperator int

const (
	ComparisonEqual ComparisonOperator = iota
	ComparisonNotEqual
	ComparisonLess
	ComparisonLessOrEqual
	ComparisonGreater
	ComparisonGreaterOrEqual
	ComparisonIn
	ComparisonLike
)

func (c ComparisonOperator) String() string {
	switch c {
	case ComparisonEqual:
		return "="
	case ComparisonNotEqual:
		return "!="
	case ComparisonLess:
		return "<"
	case ComparisonLessOrEqual:
		return "<="
	case ComparisonGreater:
		return ">"
	case ComparisonGreaterOrEqual:
		return ">="
	case ComparisonIn:
		return "IN"
	case ComparisonLike:
		return "LIKE"
	default:
		return "?"
	}
}

// BooleanOperator joins two Conditional branches.
type BooleanOperator int

const (
	BooleanAnd BooleanOperator = iota
	BooleanOr
)

func (b BooleanOperator) String() string {
	if b == BooleanOr {
		return "OR"
	}
	return "AND"
}

// Modifier annotates a ColumnAssignment.
type Modifier int

const (
	// ModifierPartial marks a column assignment whose datasource does not
	// fully cover the concept (e.g. a filtered view).
	ModifierPartial Modifier = iota
)
