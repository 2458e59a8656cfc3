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

package stack_test

import (
	"testing"

	"github.com/blinklabs-io/cborquery/internal/stack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackOrder(t *testing.T) {
	s := stack.New[int]()
	assert.True(t, s.IsEmpty())
	s.Push(1, 2, 3)
	assert.Equal(t, 3, s.Size())
	top, ok := s.Peek()
	require.True(t, ok)
	assert.Equal(t, 3, top)
	for _, expected := range []int{3, 2, 1} {
		item, ok := s.Pop()
		require.True(t, ok)
		assert.Equal(t, expected, item)
	}
	_, ok = s.Pop()
	assert.False(t, ok)
	_, ok = s.Peek()
	assert.False(t, ok)
}

func TestStackPeekRef(t *testing.T) {
	s := stack.NewWithCapacity[int](4)
	assert.Nil(t, s.PeekRef())
	s.Push(10)
	*s.PeekRef() += 5
	item, _ := s.Pop()
	assert.Equal(t, 15, item)
}

func TestStackReset(t *testing.T) {
	s := stack.New[string]()
	s.Push("a", "b")
	s.Reset()
	assert.True(t, s.IsEmpty())
	s.Push("c")
	item, ok := s.Peek()
	require.True(t, ok)
	assert.Equal(t, "c", item)
}
