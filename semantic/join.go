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

import "fmt"

// DatasourceNode is the sum type `Datasource | QueryDatasource` (spec §9
// "Sum types"): anything the resolver can hand back as a place a concept
// lives.
type DatasourceNode interface {
	Name() string
	OutputConcepts() []*Concept
	GetAlias(c *Concept) (string, error)
	NodeGrain() *Grain
}

// BaseJoin is a join between two DatasourceNodes on a set of shared
// concepts (spec §3 "BaseJoin"). Every concept in Concepts must be output
// by both sides; this is checked at construction.
type BaseJoin struct {
	Left, Right DatasourceNode
	Concepts    []*Concept
	JoinType    JoinType
}

// NewBaseJoin validates the invariant that every join concept is output by
// both sides (spec §8 testable property 2), raising ErrInvalidJoin
// otherwise.
func NewBaseJoin(left, right DatasourceNode, concepts []*Concept, joinType JoinType) (*BaseJoin, error) {
	for _, c := range concepts {
		if !outputs(left, c) {
			return nil, ErrInvalidJoin.New(fmt.Sprintf("missing %s on %s", c, left.Name()))
		}
		if !outputs(right, c) {
			return nil, ErrInvalidJoin.New(fmt.Sprintf("missing %s on %s", c, right.Name()))
		}
	}
	return &BaseJoin{Left: left, Right: right, Concepts: concepts, JoinType: joinType}, nil
}

func outputs(node DatasourceNode, concept *Concept) bool {
	for _, c := range node.OutputConcepts() {
		if c.Address() == concept.Address() {
			return true
		}
	}
	return false
}

// UniqueID identifies a BaseJoin for deduplication (spec §3 "unique_id").
func (b *BaseJoin) UniqueID() string {
	return b.Left.Name() + b.Right.Name() + b.JoinType.String()
}

func (b *BaseJoin) String() string {
	return fmt.Sprintf("%s JOIN %s and %s", b.JoinType, b.Left.Name(), b.Right.Name())
}

// JoinKey wraps the shared concept a rendered Join equates across sides.
type JoinKey struct {
	Concept *Concept
}

// Join is a join between two already-lowered CTEs (spec §3's CTE.joins,
// consumed by the dialect renderer per spec §4.8).
type Join struct {
	LeftCTE, RightCTE *CTE
	JoinType          JoinType
	JoinKeys          []JoinKey
}

// UniqueID identifies a Join for deduplication when merging CTEs.
func (j *Join) UniqueID() string {
	return j.LeftCTE.Name + j.RightCTE.Name + j.JoinType.String()
}

func (j *Join) String() string {
	return fmt.Sprintf("%s JOIN %s and %s", j.JoinType, j.LeftCTE.Name, j.RightCTE.Name)
}
