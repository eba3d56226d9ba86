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

func TestHumanIDStripsBracketsAndCommas(t *testing.T) {
	got := HumanID("customers_at_<default.customer_id,default.order_id>")
	assert.Equal(t, "customers_at_default.customer_id_default.order_id", got)
}

func TestNameForQueryDatasourceIsDeterministic(t *testing.T) {
	customerID := NewKey("customer_id", DataTypeInteger)
	customers := NewDatasource("customers", "public.customers", []ColumnAssignment{
		{Alias: "id", Concept: customerID},
	}, nil)
	qds := NewQueryDatasource([]*Concept{customerID}, []*Concept{customerID}, nil, []DatasourceNode{customers}, NewGrain(customerID), nil, nil)

	first := NameForQueryDatasource(qds)
	second := NameForQueryDatasource(qds)
	assert.Equal(t, first, second)
	assert.Contains(t, first, "cte_customers_at_default_customer_id_")
}

func baseCTEFixture(t *testing.T, name string, grain *Grain, outputs ...*Concept) *CTE {
	t.Helper()
	qds := NewQueryDatasource(nil, outputs, nil, nil, grain, nil, nil)
	return &CTE{Name: name, Source: qds, Grain: grain, OutputColumns: outputs}
}

func TestCTEMergeRequiresMatchingGrain(t *testing.T) {
	customerID := NewKey("customer_id", DataTypeInteger)
	orderID := NewKey("order_id", DataTypeInteger)

	a := baseCTEFixture(t, "cte_a", NewGrain(customerID), customerID)
	b := baseCTEFixture(t, "cte_b", NewGrain(orderID), orderID)

	_, err := a.Merge(b)
	require.Error(t, err)
	assert.True(t, ErrUnresolvableGrain.Is(err))
}

func TestCTEMergeUnionsOutputColumns(t *testing.T) {
	customerID := NewKey("customer_id", DataTypeInteger)
	customerName := NewProperty("customer_name", DataTypeString, customerID)
	customerEmail := NewProperty("customer_email", DataTypeString, customerID)
	grain := NewGrain(customerID)

	a := baseCTEFixture(t, "cte_customers", grain, customerID, customerName)
	b := baseCTEFixture(t, "cte_customers", grain, customerID, customerEmail)

	merged, err := a.Merge(b)
	require.NoError(t, err)
	assert.Len(t, merged.OutputColumns, 3)
}

func TestMergeCTEsIsIdempotentAndCommutative(t *testing.T) {
	customerID := NewKey("customer_id", DataTypeInteger)
	customerName := NewProperty("customer_name", DataTypeString, customerID)
	customerEmail := NewProperty("customer_email", DataTypeString, customerID)
	grain := NewGrain(customerID)

	a := baseCTEFixture(t, "cte_customers", grain, customerID, customerName)
	b := baseCTEFixture(t, "cte_customers", grain, customerID, customerEmail)

	forward := MergeCTEs([]*CTE{a, b})
	backward := MergeCTEs([]*CTE{b, a})

	require.Len(t, forward, 1)
	require.Len(t, backward, 1)
	assert.ElementsMatch(t, conceptAddresses(forward[0].OutputColumns), conceptAddresses(backward[0].OutputColumns))

	idempotent := MergeCTEs(forward)
	assert.Len(t, idempotent, 1)
	assert.ElementsMatch(t, conceptAddresses(forward[0].OutputColumns), conceptAddresses(idempotent[0].OutputColumns))
}

func conceptAddresses(cs []*Concept) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Address()
	}
	return out
}

func TestCTEBaseNameUsesSoleDatasourceLocation(t *testing.T) {
	customerID := NewKey("customer_id", DataTypeInteger)
	customers := NewDatasource("customers", "public.customers", []ColumnAssignment{
		{Alias: "id", Concept: customerID},
	}, nil)
	qds := NewQueryDatasource(nil, []*Concept{customerID}, nil, []DatasourceNode{customers}, NewGrain(customerID), nil, nil)
	cte := &CTE{Name: "cte_customers", Source: qds, Grain: qds.Grain}

	assert.Equal(t, "public.customers", cte.BaseName())
}
