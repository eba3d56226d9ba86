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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectGrainIsKeyAndPropertiesCoveredByIt(t *testing.T) {
	customerID := NewKey("customer_id", DataTypeInteger)
	customerName := NewProperty("customer_name", DataTypeString, customerID)

	sel := NewSelectOfConcepts(customerID, customerName)
	got := sel.Grain()

	require.Len(t, got.Components, 1)
	assert.Equal(t, customerID.Address(), got.Components[0].Address())
}

func TestSelectGrainIsAbstractForBareAggregate(t *testing.T) {
	customerID := NewKey("customer_id", DataTypeInteger)
	fn, err := NewFunction(FunctionCount, DataTypeInteger, PurposeMetric, 1, nil, customerID)
	require.NoError(t, err)
	orderCount := NewMetric("order_count", DataTypeInteger, fn)

	sel := NewSelectOfConcepts(orderCount)
	assert.True(t, sel.Grain().Abstract())
}

func TestSelectGrainAddsBackPropertyWhoseKeyIsNotSelected(t *testing.T) {
	customerID := NewKey("customer_id", DataTypeInteger)
	customerName := NewProperty("customer_name", DataTypeString, customerID)

	sel := NewSelectOfConcepts(customerName)
	got := sel.Grain()

	require.Len(t, got.Components, 1)
	assert.Equal(t, customerName.Address(), got.Components[0].Address())
}

func TestSelectGrainPicksUpKeyFromWhereClause(t *testing.T) {
	customerID := NewKey("customer_id", DataTypeInteger)
	fn, err := NewFunction(FunctionCount, DataTypeInteger, PurposeMetric, 1, nil, customerID)
	require.NoError(t, err)
	orderCount := NewMetric("order_count", DataTypeInteger, fn)

	sel := NewSelectOfConcepts(orderCount)
	sel.WhereClause = &WhereClause{Conditional: &Conditional{
		Left:     ConceptExpr{customerID},
		Right:    Literal{Value: 1},
		Operator: BooleanAnd,
	}}

	got := sel.Grain()
	require.Len(t, got.Components, 1)
	assert.Equal(t, customerID.Address(), got.Components[0].Address())
}

func TestSelectInputComponentsDeduplicatesByName(t *testing.T) {
	customerID := NewKey("customer_id", DataTypeInteger)
	customerName := NewProperty("customer_name", DataTypeString, customerID)

	sel := NewSelectOfConcepts(customerID, customerName)
	sel.WhereClause = &WhereClause{Conditional: &Conditional{
		Left:     ConceptExpr{customerID},
		Right:    Literal{Value: 1},
		Operator: BooleanAnd,
	}}

	got := sel.InputComponents()
	assert.Len(t, got, 2)
}
