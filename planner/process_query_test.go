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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngharrington/trilogy-go/semantic"
)

func TestProcessQuerySingleTableSelection(t *testing.T) {
	env, c := threeWaySalesEnv(t)
	sel := semantic.NewSelectOfConcepts(c["customer_id"], c["customer_name"])

	pq, err := ProcessQuery(testPCtx(), env, sel)
	require.NoError(t, err)
	require.NotNil(t, pq.Base)
	assert.True(t, pq.Grain.Equal(semantic.NewGrain(c["customer_id"])))
	assert.Empty(t, pq.Joins)
}

func TestProcessQueryBridgedSelectionResolvesExactGrainBase(t *testing.T) {
	env, c := threeWaySalesEnv(t)
	sel := semantic.NewSelectOfConcepts(c["customer_id"], c["territory_key"])

	pq, err := ProcessQuery(testPCtx(), env, sel)
	require.NoError(t, err)
	require.NotNil(t, pq.Base)
	assert.True(t, pq.Base.Grain.Equal(pq.Grain))
}
