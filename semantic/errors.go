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

import "gopkg.in/src-d/go-errors.v1"

// Error kinds the planner distinguishes (spec §7). Each is surfaced, never
// retried; callers type-match with ErrXxx.Is(err).
var (
	// ErrUndefinedConcept is raised when a name was not registered in the
	// environment.
	ErrUndefinedConcept = errors.NewKind("undefined concept: %s")
	// ErrParseShape is raised when a Function is constructed with the
	// wrong arity, a nested anonymous call, or a typed argument that
	// violates valid_inputs.
	ErrParseShape = errors.NewKind("invalid function shape: %s")
	// ErrInvalidJoin is raised when a BaseJoin is constructed with a join
	// concept not output by both sides.
	ErrInvalidJoin = errors.NewKind("invalid join: %s")
	// ErrUnresolvableGrain is raised when the resolver cannot produce a
	// concept at the required grain.
	ErrUnresolvableGrain = errors.NewKind("cannot resolve %s")
	// ErrAmbiguousResolution is raised when two or more non-equivalent
	// candidates of equal preference satisfy a resolution request. Proven
	// unreachable under the current tie-break rule; see DESIGN.md.
	ErrAmbiguousResolution = errors.NewKind("ambiguous resolution: %s")
	// ErrDisconnectedQuery is raised when, even with whole_grain
	// resolution, the required datasources cannot be stitched into one
	// connected component.
	ErrDisconnectedQuery = errors.NewKind("disconnected query: %s")
	// ErrUnsupportedFilter is raised when no CTE covers the where-clause
	// inputs and the filter is not expressible post-aggregation.
	ErrUnsupportedFilter = errors.NewKind("unsupported filter: %s")
	// ErrMissingOutput is raised at compile_statement time when a
	// requested output column was not selected from any rendered CTE.
	ErrMissingOutput = errors.NewKind("missing output column: %s")
)
