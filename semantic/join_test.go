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

func customersAndOrders(t *testing.T) (*Datasource, *Datasource, *Concept) {
	t.Helper()
	customerID := NewKey("customer_id", DataTypeInteger)
	customerName := NewProperty("customer_name", DataTypeString, customerID)
	orderID := NewKey("order_id", DataTypeInteger)

	customers := NewDatasource("customers", "public.customers", []ColumnAssignment{
		{Alias: "id", Concept: customerID},
		{Alias: "name", Concept: customerName},
	}, nil)

	orders := NewDatasource("orders", "public.orders", []ColumnAssignment{
		{Alias: "id", Concept: orderID},
		{Alias: "customer_id", Concept: customerID},
	}, nil)

	return customers, orders, customerID
}

func TestNewBaseJoinRequiresBothSidesOutput(t *testing.T) {
	customers, orders, customerID := customersAndOrders(t)

	join, err := NewBaseJoin(customers, orders, []*Concept{customerID}, JoinInner)
	require.NoError(t, err)
	assert.Equal(t, customers, join.Left)
	assert.Equal(t, orders, join.Right)
}

func TestNewBaseJoinRejectsConceptMissingFromEitherSide(t *testing.T) {
	customers, orders, _ := customersAndOrders(t)

	// customer_name is a column of customers only, never of orders.
	customerName := customers.Concepts()[1]
	_, err := NewBaseJoin(customers, orders, []*Concept{customerName}, JoinInner)
	require.Error(t, err)
	assert.True(t, ErrInvalidJoin.Is(err))
}
