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
	"math/big"
	"strings"
	"testing"

	"github.com/blinklabs-io/cborquery/cbor"
	"github.com/blinklabs-io/cborquery/internal/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, hexData string) Value {
	t.Helper()
	v, err := Parse(test.DecodeHexString(hexData), nil)
	require.NoError(t, err)
	return v
}

func TestValueClassification(t *testing.T) {
	testDefs := []struct {
		hex      string
		expected ValueType
	}{
		{hex: "00", expected: TypeUInt},
		{hex: "1bffffffffffffffff", expected: TypeUInt},
		{hex: "38ff", expected: TypeNInt},
		{hex: "f93e00", expected: TypeFloat},
		{hex: "fa47c35000", expected: TypeFloat},
		{hex: "f4", expected: TypeBool},
		{hex: "f6", expected: TypeNull},
		{hex: "f7", expected: TypeUndefined},
		{hex: "f0", expected: TypeSimple},
		{hex: "f8ff", expected: TypeSimple},
		{hex: "4401020304", expected: TypeByteString},
		{hex: "6449455446", expected: TypeTextString},
		{hex: "80", expected: TypeSequence},
		{hex: "bf ff", expected: TypeDictionary},
		{hex: "c11a514b67b0", expected: TypeTimestamp},
		{hex: "d9044c01", expected: TypeTag},
	}
	for _, testDef := range testDefs {
		v := mustParse(t, testDef.hex)
		assert.Equal(t, testDef.expected, v.Type(), testDef.hex)
		assert.True(t, v.IsLazy())
	}
	_, err := Parse([]byte{0xff}, nil)
	assert.ErrorIs(t, err, cbor.ErrIllegalFormat)
	_, err = Parse(nil, nil)
	assert.True(t, cbor.IsMalformed(err))
}

func TestValueScalarAccessors(t *testing.T) {
	u, err := mustParse(t, "1bffffffffffffffff").Uint()
	require.NoError(t, err)
	assert.Equal(t, uint64(18446744073709551615), u)
	_, err = mustParse(t, "1bffffffffffffffff").Int()
	assert.ErrorIs(t, err, cbor.ErrOverflow)

	i, err := mustParse(t, "38ff").Int()
	require.NoError(t, err)
	assert.Equal(t, int64(-256), i)
	bi, err := mustParse(t, "3bffffffffffffffff").BigInt()
	require.NoError(t, err)
	expected, _ := new(big.Int).SetString("-18446744073709551616", 10)
	assert.Equal(t, 0, expected.Cmp(bi))

	f, err := mustParse(t, "f93e00").Float()
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)
	f, err = mustParse(t, "fb3ff199999999999a").Float()
	require.NoError(t, err)
	assert.Equal(t, 1.1, f)

	b, err := mustParse(t, "f5").Bool()
	require.NoError(t, err)
	assert.True(t, b)
	s, err := mustParse(t, "f8ff").Simple()
	require.NoError(t, err)
	assert.Equal(t, uint8(255), s)

	text, err := mustParse(t, "7f 6161 6162 ff").Text()
	require.NoError(t, err)
	assert.Equal(t, "ab", text)
	payload, err := mustParse(t, "4401020304").Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, payload)
	length, err := mustParse(t, "6449455446").Len()
	require.NoError(t, err)
	assert.Equal(t, 4, length)

	r, err := mustParse(t, "03").Rat()
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewRat(3, 1).Cmp(r))
}

func TestValueAccessorMismatch(t *testing.T) {
	text := mustParse(t, "6161")
	_, err := text.Uint()
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = text.Index(0)
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = text.Get("a")
	assert.ErrorIs(t, err, ErrTypeMismatch)
	err = text.Each(func(Value) bool { return true })
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = Null.Int()
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = Null.Len()
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, _, err = mustParse(t, "01").Tag()
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = mustParse(t, "d9044c01").Time()
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestValueContainers(t *testing.T) {
	// {"a": 1, 2: [3, 4], -1: "neg", h'01': true}
	dict := mustParse(t, "a4 6161 01 02 82 03 04 20 636e6567 4101 f5")
	length, err := dict.Len()
	require.NoError(t, err)
	assert.Equal(t, 4, length)

	v, err := dict.Get("a")
	require.NoError(t, err)
	u, err := v.Uint()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), u)
	v, err = dict.Get(uint16(2))
	require.NoError(t, err)
	item, err := v.Index(1)
	require.NoError(t, err)
	u, err = item.Uint()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), u)
	item, err = v.Index(5)
	require.NoError(t, err)
	assert.True(t, item.IsAbsent())
	v, err = dict.Get(-1)
	require.NoError(t, err)
	text, err := v.Text()
	require.NoError(t, err)
	assert.Equal(t, "neg", text)
	v, err = dict.Get([]byte{0x01})
	require.NoError(t, err)
	b, err := v.Bool()
	require.NoError(t, err)
	assert.True(t, b)
	v, err = dict.Get("missing")
	require.NoError(t, err)
	assert.True(t, v.IsAbsent())
	_, err = dict.Get(struct{}{})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	ok, err := dict.ContainsKey(int64(2))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = dict.ContainsKey("b")
	require.NoError(t, err)
	assert.False(t, ok)

	var keys []string
	err = dict.Entries(func(key, _ Value) bool {
		keys = append(keys, key.String())
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{`"a"`, "2", "-1", "h'01'"}, keys)

	found, err := dict.Find(OfType{Spec: SpecTextString})
	require.NoError(t, err)
	text, err = found.Text()
	require.NoError(t, err)
	assert.Equal(t, "neg", text)
	ok, err = dict.Contains(OfType{Spec: SpecFloat})
	require.NoError(t, err)
	assert.False(t, ok)

	visited := 0
	err = dict.Each(func(Value) bool {
		visited++
		return visited < 2
	})
	require.NoError(t, err)
	assert.Equal(t, 2, visited)
}

func TestMaterialize(t *testing.T) {
	data := "a3 6161 01 6162 82 02 03 6163 a1 20 f6"
	lazy := mustParse(t, data)
	m, err := Materialize(lazy)
	require.NoError(t, err)
	assert.True(t, m.IsMaterialized())
	assert.Equal(t, TypeDictionary, m.Type())

	// Materialized values answer the same queries as lazy ones
	for _, v := range []Value{lazy, m} {
		item, err := v.Get("b")
		require.NoError(t, err)
		second, err := item.Index(1)
		require.NoError(t, err)
		u, err := second.Uint()
		require.NoError(t, err)
		assert.Equal(t, uint64(3), u)
		nested, err := v.Get("c")
		require.NoError(t, err)
		null, err := nested.Get(-1)
		require.NoError(t, err)
		assert.True(t, null.IsNull())
		assert.False(t, null.IsAbsent())
	}
	raw, err := m.Raw()
	require.NoError(t, err)
	assert.Equal(t, test.DecodeHexString(data), raw)
	again, err := Materialize(m)
	require.NoError(t, err)
	assert.Equal(t, m, again)
}

func TestMaterializeEndOffset(t *testing.T) {
	testDefs := []string{
		"01",
		"1bffffffffffffffff",
		"7f 6261 62 6163 ff",
		"83 01 9f 02 03 ff 5f 41 01 ff",
		"bf 6161 9f 01 ff 6162 a1 01 c1 1a514b67b0 ff",
		"c2 49 010000000000000000",
		"a2 01 80 02 bf ff",
	}
	for _, testDef := range testDefs {
		data := test.DecodeHexString(testDef)
		// Trailing items must not be consumed
		src := NewSource(append(data, 0xf6), nil)
		v, err := NewLazyValue(src, 0)
		require.NoError(t, err, testDef)
		m, end, err := materialize(v, 0)
		require.NoError(t, err, testDef)
		assert.Equal(t, len(data), end, testDef)
		assert.True(t, m.IsMaterialized(), testDef)
		assert.Equal(t, v.Type(), m.Type(), testDef)
	}
}

func TestMaterializeErrors(t *testing.T) {
	nested := func(header string, depth int) string {
		return strings.Repeat(header, depth) + "01"
	}
	testDefs := []struct {
		name     string
		hex      string
		expected error
	}{
		{
			name:     "sequences past the limit",
			hex:      nested("81", cbor.MaxNestedLevels+1),
			expected: cbor.ErrOverflow,
		},
		{
			name:     "indefinite sequences past the limit",
			hex:      nested("9f", cbor.MaxNestedLevels+1),
			expected: cbor.ErrOverflow,
		},
		{
			name:     "dictionaries past the limit",
			hex:      nested("a100", cbor.MaxNestedLevels+1),
			expected: cbor.ErrOverflow,
		},
		{
			name:     "tags past the limit",
			hex:      nested("d8ff", cbor.MaxNestedLevels+1),
			expected: cbor.ErrOverflow,
		},
		{
			name:     "key without a value",
			hex:      "bf 01 ff",
			expected: cbor.ErrIllegalFormat,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			v := mustParse(t, testDef.hex)
			_, err := Materialize(v)
			require.ErrorIs(t, err, testDef.expected)
			_, err = v.Interface()
			require.ErrorIs(t, err, testDef.expected)
		})
	}
	// The deepest accepted nesting still materializes
	deepest := mustParse(t, nested("81", cbor.MaxNestedLevels))
	m, err := Materialize(deepest)
	require.NoError(t, err)
	assert.True(t, m.IsMaterialized())
}

func TestValueInterface(t *testing.T) {
	native, err := mustParse(t, "a3 6161 82 01 20 4101 4102 03 f7").Interface()
	require.NoError(t, err)
	assert.Equal(
		t,
		map[any]any{
			"a":                           []any{uint64(1), int64(-1)},
			cbor.NewByteString([]byte{1}): []byte{2},
			uint64(3):                     nil,
		},
		native,
	)
	// Tags without a strategy keep their number
	native, err = mustParse(t, "d9044c 01").Interface()
	require.NoError(t, err)
	assert.Equal(t, cbor.Tag{Number: 1100, Content: uint64(1)}, native)
	native, err = Null.Interface()
	require.NoError(t, err)
	assert.Nil(t, native)
}

func TestValueString(t *testing.T) {
	assert.Equal(t, `[1, "a"]`, mustParse(t, "82 01 6161").String())
	assert.Equal(t, "absent", Null.String())
	assert.Equal(t, "null", NewNullValue().String())
	assert.Equal(t, `"x"`, NewText("x").String())
}

func TestValueBind(t *testing.T) {
	type output struct {
		Address string `cbor:"address"`
		Amount  uint64 `cbor:"amount"`
		Data    []byte `cbor:"data"`
	}
	// {"address": "addr1", "amount": 5, "data": h'0102'}
	v := mustParse(t, "a3 6761646472657373 656164647231 66616d6f756e74 05 6464617461 420102")
	var out output
	require.NoError(t, v.Bind(&out))
	assert.Equal(t, output{Address: "addr1", Amount: 5, Data: []byte{1, 2}}, out)
}

type genericTarget struct {
	Name  string
	Count int
}

func (g *genericTarget) UnmarshalCBOR([]byte) error {
	g.Name = "custom"
	return nil
}

func TestValueDecode(t *testing.T) {
	// {"Name": "x", "Count": 3}
	v := mustParse(t, "a2 644e616d65 6178 65436f756e74 03")
	var plain map[string]any
	require.NoError(t, v.Unmarshal(&plain))
	assert.Equal(t, map[string]any{"Name": "x", "Count": uint64(3)}, plain)
	var custom genericTarget
	require.NoError(t, v.Unmarshal(&custom))
	assert.Equal(t, "custom", custom.Name)
	var generic genericTarget
	require.NoError(t, v.DecodeGeneric(&generic))
	assert.Equal(t, genericTarget{Name: "x", Count: 3}, generic)
}

func TestNewValues(t *testing.T) {
	testDefs := []struct {
		value    Value
		expected string
	}{
		{value: NewUint(24), expected: "1818"},
		{value: NewInt(-1), expected: "20"},
		{value: NewInt(5), expected: "05"},
		{value: NewBool(false), expected: "f4"},
		{value: NewText("a"), expected: "6161"},
		{value: NewBytes([]byte{1}), expected: "4101"},
		{value: NewNullValue(), expected: "f6"},
		{value: NewSequenceValue(NewSequence(NewUint(1), NewText("a"))), expected: "82016161"},
	}
	for _, testDef := range testDefs {
		raw, err := testDef.value.Raw()
		require.NoError(t, err)
		assert.Equal(t, testDef.expected, test.EncodeHexString(raw))
	}
}
