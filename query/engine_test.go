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
	"errors"
	"testing"

	"github.com/blinklabs-io/cborquery/internal/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// probeStage records every invocation in log. It loops the given number of times
// before either exiting or visiting its children.
type probeStage struct {
	name  string
	log   *[]string
	loops int
	exit  bool
}

func (s probeStage) Evaluate(_, self NodeID, qc *Context) (VisitResult, error) {
	*s.log = append(*s.log, s.name)
	calls := 0
	for _, name := range *s.log {
		if name == s.name {
			calls++
		}
	}
	if calls <= s.loops {
		return Loop, nil
	}
	if s.exit {
		return Exit, nil
	}
	return qc.VisitChildren(self)
}

func (s probeStage) String() string {
	return s.name
}

type failingStage struct {
	err error
}

func (s failingStage) Evaluate(_, _ NodeID, _ *Context) (VisitResult, error) {
	return Exit, s.err
}

func probe(log *[]string, name string, children ...*BuilderNode) *BuilderNode {
	return &BuilderNode{
		Stage:    probeStage{name: name, log: log},
		Children: children,
	}
}

func runTree(t *testing.T, tree *BuilderNode) error {
	t.Helper()
	q, err := CompileTree(tree, WithoutOptimizer())
	require.NoError(t, err)
	return q.Evaluate([]byte{0x00}, nil)
}

func TestVisitSiblingsInOrder(t *testing.T) {
	var log []string
	tree := probe(&log, "root",
		probe(&log, "x", probe(&log, "x1")),
		probe(&log, "y"),
		probe(&log, "z"),
	)
	require.NoError(t, runTree(t, tree))
	assert.Equal(t, []string{"root", "x", "x1", "y", "z"}, log)
}

func TestVisitLoop(t *testing.T) {
	for _, loops := range []int{0, 1, 3} {
		var log []string
		tree := &BuilderNode{
			Stage:    probeStage{name: "loop", log: &log, loops: loops},
			Children: []*BuilderNode{probe(&log, "child")},
		}
		require.NoError(t, runTree(t, tree))
		// A stage returning Loop k times is invoked k+1 times
		require.Len(t, log, loops+2)
		assert.Equal(t, "child", log[len(log)-1])
	}
}

func TestVisitExit(t *testing.T) {
	var log []string
	tree := probe(&log, "root",
		probe(&log, "a"),
		&BuilderNode{Stage: probeStage{name: "stop", log: &log, exit: true}},
		probe(&log, "b"),
	)
	require.NoError(t, runTree(t, tree))
	assert.Equal(t, []string{"root", "a", "stop"}, log)
}

func TestVisitError(t *testing.T) {
	errTest := errors.New("test error")
	var log []string
	tree := probe(&log, "root",
		&BuilderNode{Stage: failingStage{err: errTest}},
		probe(&log, "after"),
	)
	err := runTree(t, tree)
	assert.ErrorIs(t, err, errTest)
	assert.Equal(t, []string{"root"}, log)
}

func TestNestedEach(t *testing.T) {
	// [[1, 2], [3]]
	data := test.DecodeHexString("82 82 01 02 81 03")
	var flat []uint64
	err := MustCompile(Path().Each().Each()).Evaluate(data, func(v Value) bool {
		u, err := v.Uint()
		require.NoError(t, err)
		flat = append(flat, u)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, flat)

	results, err := MustCompile(Path().Each().AsSequence(Path().Each())).Collect(data)
	require.NoError(t, err)
	require.Len(t, results, 2)
	first, err := results[0].Raw()
	require.NoError(t, err)
	assert.Equal(t, test.DecodeHexString("9f 01 02 ff"), first)
	second, err := results[1].Raw()
	require.NoError(t, err)
	assert.Equal(t, test.DecodeHexString("9f 03 ff"), second)
}

func TestEachOverDictionary(t *testing.T) {
	// {"a": 1, "b": 2}
	data := test.DecodeHexString("a2 6161 01 6162 02")
	results, err := MustCompile(Path().Each()).Collect(data)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for i, v := range results {
		u, err := v.Uint()
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), u)
	}
	// Scalars have no elements
	results, err = MustCompile(Path().Each()).Collect([]byte{0x01})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestContextOperands(t *testing.T) {
	qc := NewContext(MustCompile(Path()), []byte{0x18, 0x2a}, nil)
	_, err := qc.PopValue()
	assert.ErrorIs(t, err, ErrOperandStack)
	qc.Push("not a value")
	_, err = qc.PopValue()
	assert.ErrorIs(t, err, ErrOperandStack)
	qc.Push(NewUint(7))
	top, ok := qc.Peek()
	require.True(t, ok)
	assert.Equal(t, NewUint(7), top)
	v, err := qc.ValueAt(OnStack())
	require.NoError(t, err)
	u, err := v.Uint()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u)

	v, err = qc.ValueAt(FromOffset(0))
	require.NoError(t, err)
	u, err = v.Uint()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), u)
	v, err = qc.ValueAt(NullCursor())
	require.NoError(t, err)
	assert.True(t, v.IsAbsent())
	typ, err := qc.ValueType(0)
	require.NoError(t, err)
	assert.Equal(t, TypeUInt, typ)
}

func TestCursor(t *testing.T) {
	c := FromOffset(12)
	off, ok := c.Offset()
	assert.True(t, ok)
	assert.Equal(t, 12, off)
	assert.Equal(t, CursorOffset, c.Kind())
	assert.Equal(t, "@12", c.String())
	assert.True(t, NullCursor().IsNull())
	assert.Equal(t, "null", NullCursor().String())
	assert.Equal(t, CursorOnStack, OnStack().Kind())
	_, ok = OnStack().Offset()
	assert.False(t, ok)
	assert.Panics(t, func() { FromOffset(-1) })
}

func TestVisitResultString(t *testing.T) {
	assert.Equal(t, "Continue", Continue.String())
	assert.Equal(t, "Loop", Loop.String())
	assert.Equal(t, "Exit", Exit.String())
	assert.Equal(t, "VisitResult(9)", VisitResult(9).String())
}
