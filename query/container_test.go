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

	"github.com/blinklabs-io/cborquery/internal/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence(t *testing.T) {
	seq := NewSequence(NewUint(1))
	seq.Append(NewText("b"))
	assert.Equal(t, 2, seq.Len())
	assert.True(t, seq.At(2).IsAbsent())
	assert.True(t, seq.At(-1).IsAbsent())
	found, err := seq.Find(TextEqual("b"))
	require.NoError(t, err)
	text, err := found.Text()
	require.NoError(t, err)
	assert.Equal(t, "b", text)
	ok, err := seq.Contains(IntEqual(2))
	require.NoError(t, err)
	assert.False(t, ok)
	values := seq.Values()
	values[0] = Null
	assert.False(t, seq.At(0).IsAbsent())
	raw, err := seq.MarshalCBOR()
	require.NoError(t, err)
	assert.Equal(t, test.DecodeHexString("82 01 6162"), raw)
}

func TestDictionary(t *testing.T) {
	dict := NewDictionary()
	require.NoError(t, dict.Put(NewText("b"), NewUint(1)))
	require.NoError(t, dict.Put(NewInt(-1), NewUint(2)))
	require.NoError(t, dict.Put(NewText("a"), NewUint(3)))
	// Replacing keeps the original position
	require.NoError(t, dict.Put(NewText("b"), NewUint(4)))
	assert.Equal(t, 3, dict.Len())
	v, ok := dict.Get("b")
	require.True(t, ok)
	u, err := v.Uint()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), u)
	assert.True(t, dict.ContainsKey(int64(-1)))
	assert.False(t, dict.ContainsKey("c"))
	v, err = dict.GetFunc(TextEqual("a"))
	require.NoError(t, err)
	u, err = v.Uint()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), u)
	ok, err = dict.Contains(IntEqual(2))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.ErrorIs(t, dict.Put(Null, NewUint(1)), ErrInvalidQuery)
	raw, err := dict.MarshalCBOR()
	require.NoError(t, err)
	assert.Equal(t, test.DecodeHexString("a3 6162 04 20 02 6161 03"), raw)
}

func TestDictionaryStructuredKeys(t *testing.T) {
	dict := NewDictionary()
	key := NewSequenceValue(NewSequence(NewUint(1)))
	require.NoError(t, dict.Put(key, NewText("x")))
	require.NoError(t, dict.Put(NewSequenceValue(NewSequence(NewUint(1))), NewText("y")))
	assert.Equal(t, 1, dict.Len())
	v, err := dict.GetFunc(OfType{Spec: SpecSequence})
	require.NoError(t, err)
	text, err := v.Text()
	require.NoError(t, err)
	assert.Equal(t, "y", text)
}

func TestPredicates(t *testing.T) {
	testDefs := []struct {
		pred     Predicate
		hex      string
		expected bool
	}{
		{pred: TextEqual("a"), hex: "6161", expected: true},
		{pred: TextEqual("a"), hex: "6162", expected: false},
		{pred: TextEqual("a"), hex: "4161", expected: false},
		{pred: IntEqual(-1), hex: "20", expected: true},
		{pred: IntEqual(1), hex: "01", expected: true},
		{pred: IntEqual(1), hex: "f93c00", expected: false},
		{pred: OfType{Spec: SpecNumber}, hex: "f93c00", expected: true},
	}
	for _, testDef := range testDefs {
		match, err := testDef.pred.Match(mustParse(t, testDef.hex))
		require.NoError(t, err)
		assert.Equal(t, testDef.expected, match, "%v on %s", testDef.pred, testDef.hex)
	}
	match, err := TextEqual("a").Match(NewText("a"))
	require.NoError(t, err)
	assert.True(t, match)
	match, err = IntEqual(-5).Match(NewInt(-5))
	require.NoError(t, err)
	assert.True(t, match)
	assert.Equal(t, `"a"`, TextEqual("a").String())
	assert.Equal(t, "?Int", OfType{Spec: SpecInt}.String())
}
