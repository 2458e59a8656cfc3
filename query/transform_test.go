// Copyright 2026 Blink Labs Software
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

package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type labelStage string

func (labelStage) Evaluate(_, self NodeID, qc *Context) (VisitResult, error) {
	return qc.VisitChildren(self)
}

func label(name string, children ...*BuilderNode) *BuilderNode {
	return &BuilderNode{Stage: labelStage(name), Children: children}
}

func TestTransformLeftChildRightSibling(t *testing.T) {
	// a(b(d), c)
	tree := label("a", label("b", label("d")), label("c"))
	store := NewArena()
	a := Transform(tree, store)
	require.NotEqual(t, Nil, a)
	assert.Equal(t, labelStage("a"), store.Stage(a))
	assert.Equal(t, Nil, store.Right(a))
	b := store.Left(a)
	assert.Equal(t, labelStage("b"), store.Stage(b))
	d := store.Left(b)
	assert.Equal(t, labelStage("d"), store.Stage(d))
	assert.Equal(t, Nil, store.Left(d))
	assert.Equal(t, Nil, store.Right(d))
	c := store.Right(b)
	assert.Equal(t, labelStage("c"), store.Stage(c))
	assert.Equal(t, Nil, store.Left(c))
	assert.Equal(t, Nil, store.Right(c))
	assert.Equal(t, 4, store.Len())
	assert.Equal(t, 4, Size(store, a))
}

func TestTransformSkipsMissingChildren(t *testing.T) {
	tree := label("a", nil, label("b"), nil)
	store := NewArena()
	a := Transform(tree, store)
	b := store.Left(a)
	assert.Equal(t, labelStage("b"), store.Stage(b))
	assert.Equal(t, Nil, store.Right(b))
	assert.Equal(t, Nil, Transform(nil, store))
}

func TestArenaPrunesEmptyNodes(t *testing.T) {
	store := NewArena()
	assert.Equal(t, Nil, store.Node(Nil, Nil, nil))
	assert.Equal(t, 0, store.Len())
	leaf := store.Node(Nil, Nil, labelStage("leaf"))
	assert.NotEqual(t, Nil, leaf)
	// A node without a stage is kept while it links other nodes
	link := store.Node(leaf, Nil, nil)
	assert.NotEqual(t, Nil, link)
	assert.Equal(t, 2, store.Len())
}

func TestInterningArena(t *testing.T) {
	store := NewInterningArena()
	a := store.Node(Nil, Nil, labelStage("x"))
	b := store.Node(Nil, Nil, labelStage("x"))
	assert.Equal(t, a, b)
	c := store.Node(a, Nil, labelStage("x"))
	assert.NotEqual(t, a, c)
	assert.Equal(t, 2, store.Len())
	// Stages that cannot be hashed are stored without interning
	path := PathStage{Steps: []Selector{{Kind: SelectIndex, Index: 1}}}
	p1 := store.Node(Nil, Nil, path)
	p2 := store.Node(Nil, Nil, path)
	assert.NotEqual(t, p1, p2)
	assert.True(t, Equal(store, p1, store, p2))
	// Function predicates are stored without interning
	pred := PredicateFunc(func(Value) (bool, error) { return true, nil })
	f1 := store.Node(Nil, Nil, FindStage{Pred: pred})
	f2 := store.Node(Nil, Nil, FindStage{Pred: pred})
	assert.NotEqual(t, f1, f2)
	t1 := store.Node(Nil, Nil, FindStage{Pred: TextEqual("a")})
	t2 := store.Node(Nil, Nil, FindStage{Pred: TextEqual("a")})
	assert.Equal(t, t1, t2)
}

func TestStageComparable(t *testing.T) {
	pred := PredicateFunc(func(Value) (bool, error) { return true, nil })
	assert.True(t, stageComparable(nil))
	assert.True(t, stageComparable(IndexStage{Index: 1}))
	assert.True(t, stageComparable(FindStage{Pred: TextEqual("a")}))
	assert.False(t, stageComparable(FindStage{Pred: pred}))
	assert.False(t, stageComparable(PathStage{Steps: []Selector{{Kind: SelectIndex, Index: 1}}}))
}

func TestEqualAndFingerprint(t *testing.T) {
	build := func(store NodeStore, names ...string) NodeID {
		children := make([]*BuilderNode, 0, len(names))
		for _, name := range names {
			children = append(children, label(name))
		}
		return Transform(label("root", children...), store)
	}
	storeA := NewArena()
	storeB := NewInterningArena()
	a := build(storeA, "x", "y")
	b := build(storeB, "x", "y")
	c := build(storeB, "y", "x")
	d := build(storeB, "x")
	assert.True(t, Equal(storeA, a, storeB, b))
	assert.False(t, Equal(storeA, a, storeB, c))
	assert.False(t, Equal(storeA, a, storeB, d))
	assert.Equal(t, Fingerprint(storeA, a), Fingerprint(storeB, b))
	assert.NotEqual(t, Fingerprint(storeA, a), Fingerprint(storeB, c))
	assert.NotEqual(t, Fingerprint(storeA, a), Fingerprint(storeB, d))
}

func TestStagesEqual(t *testing.T) {
	assert.True(t, StagesEqual(nil, nil))
	assert.False(t, StagesEqual(IndexStage{Index: 1}, nil))
	assert.True(t, StagesEqual(IndexStage{Index: 1}, IndexStage{Index: 1}))
	assert.False(t, StagesEqual(IndexStage{Index: 1}, IndexStage{Index: 2}))
	assert.False(t, StagesEqual(IndexStage{Index: 1}, KeyStage{Key: int64(1)}))
	assert.True(t, StagesEqual(
		PathStage{Steps: []Selector{{Kind: SelectKey, Key: "a"}}},
		PathStage{Steps: []Selector{{Kind: SelectKey, Key: "a"}}},
	))
	assert.True(t, StagesEqual(FindStage{Pred: TextEqual("a")}, FindStage{Pred: TextEqual("a")}))
	pred := PredicateFunc(func(Value) (bool, error) { return true, nil })
	assert.False(t, StagesEqual(FindStage{Pred: pred}, FindStage{Pred: pred}))
}

func TestCompact(t *testing.T) {
	store := NewArena()
	// Garbage left behind by a rewrite
	store.Node(Nil, Nil, labelStage("garbage"))
	root := Transform(label("a", label("b"), label("c")), store)
	dst := NewArena()
	compacted := Compact(store, root, dst)
	assert.Equal(t, 3, dst.Len())
	assert.True(t, Equal(store, root, dst, compacted))
}
