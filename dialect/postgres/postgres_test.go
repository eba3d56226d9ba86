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

package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngharrington/trilogy-go/semantic"
)

func TestNewUsesDoubleQuotesAndNativeLimit(t *testing.T) {
	d := New()
	assert.Equal(t, `"`, d.QuoteCharacter)
	assert.False(t, d.UseTopForLimit)
	assert.Equal(t, `"default"."customer_id"`, d.SafeQuote("default.customer_id"))
}

func TestConcatOverrideJoinsWithCommaSpace(t *testing.T) {
	d := New()
	renderer, ok := d.FunctionMap[semantic.FunctionConcat]
	require.True(t, ok)
	assert.Equal(t, "concat(a, b)", renderer([]string{"a", "b"}))

	grainRenderer, ok := d.FunctionGrainMatchMap[semantic.FunctionConcat]
	require.True(t, ok)
	assert.Equal(t, "concat(a, b)", grainRenderer([]string{"a", "b"}))
}
