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

package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngharrington/trilogy-go/resolver"
	"github.com/ngharrington/trilogy-go/semantic"
	"github.com/ngharrington/trilogy-go/semantic/planctx"
)

func testPCtx() *planctx.Context {
	return planctx.New(context.Background())
}

// threeWaySalesEnv mirrors spec §8's fact/dimension scenario: an order fact
// table at (customer_id, order_id) grain, a customer dimension at
// customer_id grain, and a sales-territory bridge/dimension pair reached by
// joining through customer_id.
func threeWaySalesEnv(t *testing.T) (*semantic.Environment, map[string]*semantic.Concept) {
	t.Helper()
	env := semantic.NewEnvironment()

	customerID := semantic.NewKey("customer_id", semantic.DataTypeInteger)
	orderID := semantic.NewKey("order_id", semantic.DataTypeInteger)
	territoryKey := semantic.NewKey("territory_key", semantic.DataTypeInteger)
	customerName := semantic.NewProperty("customer_name", semantic.DataTypeString, customerID)
	territoryName := semantic.NewProperty("territory_name", semantic.DataTypeString, territoryKey)

	orders := semantic.NewDatasource("fact_internet_sales", "warehouse.fact_internet_sales", []semantic.ColumnAssignment{
		{Alias: "order_id", Concept: orderID},
		{Alias: "customer_id", Concept: customerID},
	}, nil)
	customers := semantic.NewDatasource("customers", "warehouse.customers", []semantic.ColumnAssignment{
		{Alias: "customer_id", Concept: customerID},
		{Alias: "customer_name", Concept: customerName},
	}, nil)
	customerTerritory := semantic.NewDatasource("customer_territory", "warehouse.customer_territory", []semantic.ColumnAssignment{
		{Alias: "customer_id", Concept: customerID},
		{Alias: "territory_key", Concept: territoryKey},
	}, nil)
	territories := semantic.NewDatasource("sales_territories", "warehouse.sales_territories", []semantic.ColumnAssignment{
		{Alias: "territory_key", Concept: territoryKey},
		{Alias: "territory_name", Concept: territoryName},
	}, nil)

	for _, c := range []*semantic.Concept{customerID, orderID, territoryKey, customerName, territoryName} {
		env.AddConcept(c)
	}
	for _, ds := range []*semantic.Datasource{orders, customers, customerTerritory, territories} {
		env.AddDatasource(ds)
	}

	return env, map[string]*semantic.Concept{
		"customer_id":    customerID,
		"order_id":       orderID,
		"territory_key":  territoryKey,
		"customer_name":  customerName,
		"territory_name": territoryName,
	}
}

func TestGetQueryDatasourcesResolvesSingleSourceSelection(t *testing.T) {
	env, c := threeWaySalesEnv(t)
	r := resolver.New(env)
	sel := semantic.NewSelectOfConcepts(c["customer_id"], c["customer_name"])

	conceptMap, datasourceMap, err := GetQueryDatasources(testPCtx(), env, sel, r)
	require.NoError(t, err)
	assert.Len(t, datasourceMap, 1)
	assert.Contains(t, conceptMap, "customers")
}

func TestGetQueryDatasourcesResolvesKeysLinkedOnlyByBridgeTable(t *testing.T) {
	env, c := threeWaySalesEnv(t)
	r := resolver.New(env)
	sel := semantic.NewSelectOfConcepts(c["customer_id"], c["territory_key"])

	_, datasourceMap, err := GetQueryDatasources(testPCtx(), env, sel, r)
	require.NoError(t, err)
	assert.NotEmpty(t, datasourceMap)
}
