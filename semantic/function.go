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

// FunctionArg is one element of a Function's argument list: a Concept, a
// literal (string/int/float64), or a DataType token (for FunctionCast).
type FunctionArg interface{}

// Function is a lineage node expressing a call over other concepts,
// literals, or cast targets (spec §3 "Function (lineage node)").
type Function struct {
	Operator       FunctionType
	Args           []FunctionArg
	OutputDataType DataType
	OutputPurpose  Purpose
	ValidInputs    []map[DataType]bool // per-argument allowed datatype sets; nil means unchecked
	ArgCount       int
}

// NewFunction validates arity, nesting, and input datatypes at
// construction, matching Function.__post_init__ in the original model
// (spec §3 invariants, spec §7 ErrParseShape).
func NewFunction(op FunctionType, outDT DataType, outPurpose Purpose, argCount int, validInputs []map[DataType]bool, args ...FunctionArg) (*Function, error) {
	if len(args) > argCount {
		return nil, ErrParseShape.New(fmt.Sprintf(
			"incorrect argument count to %v, expects at most %d, got %d", op, argCount, len(args)))
	}
	for _, arg := range args {
		if _, nested := arg.(*Function); nested {
			return nil, ErrParseShape.New(fmt.Sprintf(
				"anonymous function calls not allowed; map function to a concept, then pass in (operator %v)", op))
		}
	}
	if validInputs != nil {
		for i, arg := range args {
			var allowed map[DataType]bool
			if i < len(validInputs) {
				allowed = validInputs[i]
			} else if len(validInputs) == 1 {
				allowed = validInputs[0]
			}
			if allowed == nil {
				continue
			}
			if c, ok := arg.(*Concept); ok {
				if !allowed[c.DataType] {
					return nil, ErrParseShape.New(fmt.Sprintf(
						"invalid input datatype %v passed into %v from concept %s", c.DataType, op, c.Name))
				}
			}
		}
	}
	return &Function{
		Operator:       op,
		Args:           args,
		OutputDataType: outDT,
		OutputPurpose:  outPurpose,
		ValidInputs:    validInputs,
		ArgCount:       argCount,
	}, nil
}

// Arguments implements Lineage: the concept-typed arguments only.
func (f *Function) Arguments() []*Concept {
	var out []*Concept
	for _, a := range f.Args {
		if c, ok := a.(*Concept); ok {
			out = append(out, c)
		}
	}
	return out
}

// Derivation implements Lineage per spec §3: AGGREGATE iff the operator
// belongs to the aggregate class, else BASIC.
func (f *Function) Derivation() Derivation {
	if f.Operator.IsAggregate() {
		return DerivationAggregate
	}
	return DerivationBasic
}

func (f *Function) withNamespace(namespace string) Lineage {
	out := &Function{Operator: f.Operator, OutputDataType: f.OutputDataType, OutputPurpose: f.OutputPurpose, ValidInputs: f.ValidInputs, ArgCount: f.ArgCount}
	out.Args = make([]FunctionArg, len(f.Args))
	for i, a := range f.Args {
		if c, ok := a.(*Concept); ok {
			out.Args[i] = c.WithNamespace(namespace)
		} else {
			out.Args[i] = a
		}
	}
	return out
}

// ConceptTransform declares an inline derived output concept for a select
// item (spec §6 "A ConceptTransform(function, output) declares an inline
// derived output concept").
type ConceptTransform struct {
	Function *Function
	Output   *Concept
}

// Input returns the concept-typed arguments of the underlying function.
func (ct *ConceptTransform) Input() []*Concept {
	return ct.Function.Arguments()
}
