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

func oneDatasourceQDS(t *testing.T) (*QueryDatasource, *Concept, *Datasource) {
	t.Helper()
	customerID := NewKey("customer_id", DataTypeInteger)
	customerName := NewProperty("customer_name", DataTypeString, customerID)
	customers := NewDatasource("customers", "public.customers", []ColumnAssignment{
		{Alias: "id", Concept: customerID},
		{Alias: "name", Concept: customerName},
	}, nil)

	grain := NewGrain(customerID)
	qds := NewQueryDatasource(
		[]*Concept{customerID},
		[]*Concept{customerID, customerName},
		map[string][]DatasourceNode{
			customerID.Address():   {customers},
			customerName.Address(): {customers},
		},
		[]DatasourceNode{customers},
		grain,
		nil,
		nil,
	)
	return qds, customerName, customers
}

func TestQueryDatasourceIdentifierFormat(t *testing.T) {
	qds, _, _ := oneDatasourceQDS(t)
	assert.Equal(t, "customers_at_default_customer_id", qds.Identifier())
}

func TestQueryDatasourceIdentifierAbstractGrainSuffix(t *testing.T) {
	customerID := NewKey("customer_id", DataTypeInteger)
	customers := NewDatasource("customers", "public.customers", []ColumnAssignment{
		{Alias: "id", Concept: customerID},
	}, nil)
	qds := NewQueryDatasource(nil, []*Concept{customerID}, nil, []DatasourceNode{customers}, EmptyGrain(), nil, nil)
	assert.Equal(t, "customers_at_abstract", qds.Identifier())
}

func TestQueryDatasourceGetAliasUsesRawNameForSingleSource(t *testing.T) {
	qds, customerName, _ := oneDatasourceQDS(t)
	alias, err := qds.GetAlias(customerName)
	require.NoError(t, err)
	assert.Equal(t, "name", alias)
}

func TestQueryDatasourceValidateSucceedsWhenEveryOutputResolves(t *testing.T) {
	qds, _, _ := oneDatasourceQDS(t)
	assert.NoError(t, qds.Validate())
}

func TestQueryDatasourceAddRequiresMatchingGrain(t *testing.T) {
	qds, _, _ := oneDatasourceQDS(t)

	orderID := NewKey("order_id", DataTypeInteger)
	orders := NewDatasource("orders", "public.orders", []ColumnAssignment{
		{Alias: "id", Concept: orderID},
	}, nil)
	other := NewQueryDatasource([]*Concept{orderID}, []*Concept{orderID}, map[string][]DatasourceNode{
		orderID.Address(): {orders},
	}, []DatasourceNode{orders}, NewGrain(orderID), nil, nil)

	_, err := qds.Add(other)
	require.Error(t, err)
	assert.True(t, ErrUnresolvableGrain.Is(err))
}

func TestQueryDatasourceAddMergesOutputsAtSameGrain(t *testing.T) {
	customerID := NewKey("customer_id", DataTypeInteger)
	customerName := NewProperty("customer_name", DataTypeString, customerID)
	customerEmail := NewProperty("customer_email", DataTypeString, customerID)

	grain := NewGrain(customerID)
	a := NewQueryDatasource([]*Concept{customerID}, []*Concept{customerID, customerName}, nil, nil, grain, nil, nil)
	b := NewQueryDatasource([]*Concept{customerID}, []*Concept{customerID, customerEmail}, nil, nil, grain, nil, nil)

	merged, err := a.Add(b)
	require.NoError(t, err)
	assert.Len(t, merged.OutputConcepts(), 3)
}
