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

func TestGrainEqualityIsSetLike(t *testing.T) {
	customerID := NewKey("customer_id", DataTypeInteger)
	orderID := NewKey("order_id", DataTypeInteger)

	a := NewGrain(customerID, orderID)
	b := NewGrain(orderID, customerID)

	assert.True(t, a.Equal(b), "grain equality must ignore component order")
}

func TestGrainIsSubset(t *testing.T) {
	customerID := NewKey("customer_id", DataTypeInteger)
	orderID := NewKey("order_id", DataTypeInteger)

	small := NewGrain(customerID)
	big := NewGrain(customerID, orderID)

	assert.True(t, small.IsSubset(big))
	assert.False(t, big.IsSubset(small))
}

func TestGrainIsDisjoint(t *testing.T) {
	customerID := NewKey("customer_id", DataTypeInteger)
	orderID := NewKey("order_id", DataTypeInteger)

	a := NewGrain(customerID)
	b := NewGrain(orderID)

	assert.True(t, a.IsDisjoint(b))
	assert.False(t, a.IsDisjoint(a))
}

func TestGrainIntersection(t *testing.T) {
	customerID := NewKey("customer_id", DataTypeInteger)
	orderID := NewKey("order_id", DataTypeInteger)
	territoryKey := NewKey("territory_key", DataTypeInteger)

	a := NewGrain(customerID, orderID)
	b := NewGrain(orderID, territoryKey)

	got := a.Intersection(b)
	require.Len(t, got.Components, 1)
	assert.Equal(t, orderID.Address(), got.Components[0].Address())
}

func TestGrainPlusDeduplicatesByStructuralEquality(t *testing.T) {
	customerID := NewKey("customer_id", DataTypeInteger)
	orderID := NewKey("order_id", DataTypeInteger)

	a := NewGrain(customerID, orderID)
	b := NewGrain(customerID)

	merged := a.Plus(b)
	assert.Len(t, merged.Components, 2)
}

func TestSumGrainsStartsAbstract(t *testing.T) {
	got := SumGrains(nil)
	assert.True(t, got.Abstract())
}

func TestWithDefaultGrainIsIdempotent(t *testing.T) {
	customerID := NewKey("customer_id", DataTypeInteger)
	once := customerID.WithDefaultGrain()
	twice := once.WithDefaultGrain()
	assert.True(t, once.Grain.Equal(twice.Grain))
}

func TestKeyDefaultGrainIsSelf(t *testing.T) {
	customerID := NewKey("customer_id", DataTypeInteger)
	require.NotNil(t, customerID.Grain)
	require.Len(t, customerID.Grain.Components, 1)
	assert.Equal(t, customerID.Address(), customerID.Grain.Components[0].Address())
}

func TestPropertyDefaultGrainIsItsKeys(t *testing.T) {
	customerID := NewKey("customer_id", DataTypeInteger)
	customerName := NewProperty("customer_name", DataTypeString, customerID)

	require.Len(t, customerName.Grain.Components, 1)
	assert.Equal(t, customerID.Address(), customerName.Grain.Components[0].Address())
}

func TestMetricGrainStartsAbstractUntilRequested(t *testing.T) {
	customerID := NewKey("customer_id", DataTypeInteger)
	fn, err := NewFunction(FunctionCount, DataTypeInteger, PurposeMetric, 1, nil, customerID)
	require.NoError(t, err)

	orderCount := NewMetric("order_count", DataTypeInteger, fn)
	assert.True(t, orderCount.Grain.Abstract())

	atGrain := orderCount.WithGrain(NewGrain(customerID))
	assert.False(t, atGrain.Grain.Abstract())
}
