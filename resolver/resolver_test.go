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

package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngharrington/trilogy-go/semantic"
	"github.com/ngharrington/trilogy-go/semantic/planctx"
)

func testPCtx() *planctx.Context {
	return planctx.New(context.Background())
}

func salesEnv(t *testing.T) (*semantic.Environment, *semantic.Concept, *semantic.Concept, *semantic.Concept) {
	t.Helper()
	env := semantic.NewEnvironment()

	customerID := semantic.NewKey("customer_id", semantic.DataTypeInteger)
	orderID := semantic.NewKey("order_id", semantic.DataTypeInteger)
	customerName := semantic.NewProperty("customer_name", semantic.DataTypeString, customerID)

	customers := semantic.NewDatasource("customers", "public.customers", []semantic.ColumnAssignment{
		{Alias: "id", Concept: customerID},
		{Alias: "name", Concept: customerName},
	}, nil)
	orders := semantic.NewDatasource("orders", "public.orders", []semantic.ColumnAssignment{
		{Alias: "id", Concept: orderID},
		{Alias: "customer_id", Concept: customerID},
	}, nil)

	env.AddConcept(customerID)
	env.AddConcept(orderID)
	env.AddConcept(customerName)
	env.AddDatasource(customers)
	env.AddDatasource(orders)

	return env, customerID, orderID, customerName
}

func TestResolveDirectPrefersNonPartialSmallestGrain(t *testing.T) {
	env, customerID, _, customerName := salesEnv(t)
	r := New(env)

	node, err := r.Resolve(testPCtx(), customerName, semantic.NewGrain(customerID), false)
	require.NoError(t, err)
	ds, ok := node.(*semantic.Datasource)
	require.True(t, ok)
	assert.Equal(t, "customers", ds.Identifier)
}

func TestResolveDerivedAtTargetGrainForAggregate(t *testing.T) {
	env, customerID, _, _ := salesEnv(t)
	r := New(env)

	countFn, err := semantic.NewFunction(semantic.FunctionCount, semantic.DataTypeInteger, semantic.PurposeMetric, 1, nil, customerID)
	require.NoError(t, err)
	orderCount := semantic.NewMetric("order_count", semantic.DataTypeInteger, countFn)

	node, err := r.Resolve(testPCtx(), orderCount, semantic.NewGrain(customerID), false)
	require.NoError(t, err)
	qds, ok := node.(*semantic.QueryDatasource)
	require.True(t, ok)
	assert.True(t, qds.Grain.Equal(semantic.NewGrain(customerID)))
}

func TestResolveJoinBridgesTwoSourcesWhenNoSingleSourceHasTargetGrain(t *testing.T) {
	env, customerID, orderID, customerName := salesEnv(t)
	r := New(env)

	targetGrain := semantic.NewGrain(customerID, orderID)
	node, err := r.Resolve(testPCtx(), customerName, targetGrain, true)
	require.NoError(t, err)
	qds, ok := node.(*semantic.QueryDatasource)
	require.True(t, ok, "expected a join-produced QueryDatasource, got %T", node)
	require.Len(t, qds.Joins, 1)
	assert.True(t, qds.Grain.Equal(targetGrain))
}

func TestResolveFailsForUnknownConceptAtUnreachableGrain(t *testing.T) {
	env, _, orderID, _ := salesEnv(t)
	r := New(env)

	territoryKey := semantic.NewKey("territory_key", semantic.DataTypeInteger)
	_, err := r.Resolve(testPCtx(), territoryKey, semantic.NewGrain(orderID), false)
	require.Error(t, err)
	assert.True(t, semantic.ErrUnresolvableGrain.Is(err))
}

func TestResolveDirectWholeGrainRejectsNonExactMatch(t *testing.T) {
	env, customerID, orderID, customerName := salesEnv(t)
	r := New(env)

	_, err := r.resolveDirect(customerName, semantic.NewGrain(customerID, orderID), true)
	require.Error(t, err)
	assert.True(t, semantic.ErrUnresolvableGrain.Is(err))

	_, err = r.resolveDirect(customerName, semantic.NewGrain(customerID), true)
	require.NoError(t, err)
}

// TestPickBestIsATotalOrderOverDistinctIdentifiers pins down the claim in
// DESIGN.md that ErrAmbiguousResolution can never be raised by tier 3:
// once grain size and partial-column count tie, the identifier comparison
// always breaks the tie, because Environment.AddDatasource keys by
// Identifier and so never admits two distinct datasources sharing one.
func TestPickBestIsATotalOrderOverDistinctIdentifiers(t *testing.T) {
	customerID := semantic.NewKey("customer_id", semantic.DataTypeInteger)
	customerName := semantic.NewProperty("customer_name", semantic.DataTypeString, customerID)

	dsA := semantic.NewDatasource("customers_b", "public.customers_b", []semantic.ColumnAssignment{
		{Alias: "id", Concept: customerID},
		{Alias: "name", Concept: customerName},
	}, nil)
	dsB := semantic.NewDatasource("customers_a", "public.customers_a", []semantic.ColumnAssignment{
		{Alias: "id", Concept: customerID},
		{Alias: "name", Concept: customerName},
	}, nil)

	// Both candidates tie on partial-ness and grain size; only the
	// identifier differs, so the tie-break is deterministic either way the
	// candidates are ordered going in.
	forward := []candidate{
		{ds: dsA, grain: dsA.Grain, partial: false},
		{ds: dsB, grain: dsB.Grain, partial: false},
	}
	reversed := []candidate{
		{ds: dsB, grain: dsB.Grain, partial: false},
		{ds: dsA, grain: dsA.Grain, partial: false},
	}

	best := pickBest(forward)
	assert.Equal(t, "customers_a", best.ds.Identifier)
	best = pickBest(reversed)
	assert.Equal(t, "customers_a", best.ds.Identifier)
}
