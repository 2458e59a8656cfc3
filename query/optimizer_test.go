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
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/blinklabs-io/cborquery/internal/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stages returns the stages along the leftmost path below the root
func stages(q *Query) []Stage {
	var ret []Stage
	for id := q.Store().Left(q.Root()); id != Nil; id = q.Store().Left(id) {
		ret = append(ret, q.Store().Stage(id))
	}
	return ret
}

func TestFuseSelectors(t *testing.T) {
	b := func() *Builder { return Path().Index(1).Key("a").IntKey(-1) }
	q := MustCompile(b())
	assert.Equal(
		t,
		[]Stage{
			PathStage{Steps: []Selector{
				{Kind: SelectIndex, Index: 1},
				{Kind: SelectKey, Key: "a"},
				{Kind: SelectKey, Key: int64(-1)},
			}},
			EmitStage{},
		},
		stages(q),
	)
	unoptimized := MustCompile(b(), WithoutOptimizer())
	assert.Equal(
		t,
		[]Stage{IndexStage{Index: 1}, KeyStage{Key: "a"}, KeyStage{Key: int64(-1)}, EmitStage{}},
		stages(unoptimized),
	)
	// [0, {"a": {-1: "hit"}}]
	data := test.DecodeHexString("82 00 a1 6161 a1 20 63686974")
	for _, query := range []*Query{q, unoptimized} {
		v, err := query.First(data)
		require.NoError(t, err)
		text, err := v.Text()
		require.NoError(t, err)
		assert.Equal(t, "hit", text)
	}
	missing, err := q.First(test.DecodeHexString("82 00 a1 6162 00"))
	require.NoError(t, err)
	assert.True(t, missing.IsAbsent())
}

func TestFuseSelectorsStopsAtOtherStages(t *testing.T) {
	q := MustCompile(Path().Index(0).AsSequence(Path().Index(1), Path().Index(2)))
	got := stages(q)
	require.Len(t, got, 4)
	assert.Equal(t, IndexStage{Index: 0}, got[0])
	assert.Equal(t, AsSequenceStage{}, got[1])
	// Single selectors are left alone
	q = MustCompile(Path().Key("a"))
	assert.Equal(t, []Stage{KeyStage{Key: "a"}, EmitStage{}}, stages(q))
}

func TestCollapseTypeAssertions(t *testing.T) {
	q := MustCompile(Path().RequireType(SpecAny).Key("a"))
	assert.Equal(t, []Stage{KeyStage{Key: "a"}, EmitStage{}}, stages(q))
	q = MustCompile(Path().RequireType(SpecInt).RequireType(SpecInt))
	assert.Equal(t, []Stage{RequireTypeStage{Spec: SpecInt}, EmitStage{}}, stages(q))
	q = MustCompile(Path().RequireType(SpecInt).NullOrType(SpecInt))
	assert.Len(t, stages(q), 3)
}

func TestDeadBranchElimination(t *testing.T) {
	var log []string
	tree := &BuilderNode{
		Stage: BaseStage{},
		Children: []*BuilderNode{
			{
				Stage:    EmitStage{},
				Children: []*BuilderNode{probe(&log, "unreachable")},
			},
			{
				Children: []*BuilderNode{probe(&log, "detached")},
			},
		},
	}
	q, err := CompileTree(tree)
	require.NoError(t, err)
	assert.Equal(t, 2, q.Store().Len())
	v, err := q.First([]byte{0x01})
	require.NoError(t, err)
	u, err := v.Uint()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), u)
	assert.Empty(t, log)
}

func TestOptimizeLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	_, err := Compile(Path().Index(0).Index(1), WithCompileLogger(logger))
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "applied optimizer rule")
	assert.Contains(t, out, "rule=FuseSelectors")
	assert.NotContains(t, out, "rule=DeadBranchElimination")
}

func TestOptimizeErrors(t *testing.T) {
	_, err := Compile(Path(), WithRules(Rule{Name: "incomplete"}))
	assert.ErrorIs(t, err, ErrInvalidQuery)
	errRewrite := errors.New("rewrite failed")
	_, err = Compile(Path(), WithRules(Rule{
		Name:    "failing",
		Applies: func(NodeStore, NodeID) bool { return true },
		Rewrite: func(NodeStore, NodeID) (NodeID, error) { return Nil, errRewrite },
	}))
	assert.ErrorIs(t, err, errRewrite)
}

func TestCustomRule(t *testing.T) {
	// Replace every Emit with a type assertion in front of it
	rule := Rule{
		Name: "AssertUInt",
		Applies: func(store NodeStore, root NodeID) bool {
			return anyNode(store, root, func(id NodeID) bool {
				_, ok := store.Stage(id).(EmitStage)
				return ok
			})
		},
		Rewrite: func(store NodeStore, root NodeID) (NodeID, error) {
			return rebuild(store, root, func(left, right NodeID, stage Stage) NodeID {
				if _, ok := stage.(EmitStage); ok {
					emit := store.Node(Nil, Nil, stage)
					return store.Node(emit, right, RequireTypeStage{Spec: SpecUInt})
				}
				return store.Node(left, right, stage)
			}), nil
		},
	}
	q := MustCompile(Path().Index(0), WithRules(rule))
	_, err := q.First(test.DecodeHexString("81 6161"))
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = q.First(test.DecodeHexString("81 01"))
	assert.NoError(t, err)
}
