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

package cbor_test

import (
	"math"
	"math/big"
	"testing"

	"github.com/blinklabs-io/cborquery/cbor"
	"github.com/blinklabs-io/cborquery/internal/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadInt(t *testing.T) {
	testDefs := []struct {
		cborHex string
		value   int64
	}{
		{"00", 0},
		{"20", -1},
		{"3863", -100},
		{"1864", 100},
		{"3b7fffffffffffffff", math.MinInt64},
		{"1b7fffffffffffffff", math.MaxInt64},
	}
	for _, testDef := range testDefs {
		value, err := cbor.ReadInt(test.DecodeHexString(testDef.cborHex), 0)
		require.NoError(t, err, testDef.cborHex)
		assert.Equal(t, testDef.value, value, testDef.cborHex)
	}
}

func TestReadIntErrors(t *testing.T) {
	_, err := cbor.ReadInt(test.DecodeHexString("1b8000000000000000"), 0)
	require.ErrorIs(t, err, cbor.ErrOverflow)
	_, err = cbor.ReadInt(test.DecodeHexString("6161"), 0)
	require.ErrorIs(t, err, cbor.ErrUnexpectedType)
}

func TestReadBigInt(t *testing.T) {
	value, err := cbor.ReadBigInt(test.DecodeHexString("3bffffffffffffffff"), 0)
	require.NoError(t, err)
	expected, _ := new(big.Int).SetString("-18446744073709551616", 10)
	assert.Equal(t, 0, expected.Cmp(value))
}

func TestReadFloat(t *testing.T) {
	testDefs := []struct {
		cborHex string
		value   float64
	}{
		{"f93c00", 1.0},
		{"f93e00", 1.5},
		{"f9c400", -4.0},
		{"fa47c35000", 100000.0},
		{"fb3ff199999999999a", 1.1},
	}
	for _, testDef := range testDefs {
		value, err := cbor.ReadFloat(test.DecodeHexString(testDef.cborHex), 0)
		require.NoError(t, err, testDef.cborHex)
		assert.Equal(t, testDef.value, value, testDef.cborHex)
	}
	_, err := cbor.ReadFloat(test.DecodeHexString("f5"), 0)
	require.ErrorIs(t, err, cbor.ErrUnexpectedType)
}

func TestReadSimpleAndBool(t *testing.T) {
	b, err := cbor.ReadBool([]byte{0xf5}, 0)
	require.NoError(t, err)
	assert.True(t, b)
	b, err = cbor.ReadBool([]byte{0xf4}, 0)
	require.NoError(t, err)
	assert.False(t, b)
	_, err = cbor.ReadBool([]byte{0xf6}, 0)
	require.ErrorIs(t, err, cbor.ErrUnexpectedType)
	simple, err := cbor.ReadSimple([]byte{0xf8, 0xff}, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), simple)
}

func TestReadTagNumber(t *testing.T) {
	tag, err := cbor.ReadTagNumber(test.DecodeHexString("d9d9f780"), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(cbor.CborTagSelfDescribe), tag)
	_, err = cbor.ReadTagNumber([]byte{0x01}, 0)
	require.ErrorIs(t, err, cbor.ErrUnexpectedType)
}

func TestReadStrings(t *testing.T) {
	text, err := cbor.ReadText(test.DecodeHexString("6568656c6c6f"), 0)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	text, err = cbor.ReadText(test.DecodeHexString("7f6261626163ff"), 0)
	require.NoError(t, err)
	assert.Equal(t, "abc", text)
	data, err := cbor.ReadBytes(test.DecodeHexString("5f42010241ffff"), 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0xff}, data)
	_, err = cbor.ReadBytes(test.DecodeHexString("6161"), 0)
	require.ErrorIs(t, err, cbor.ErrUnexpectedType)
}

func TestTextEquals(t *testing.T) {
	data := test.DecodeHexString("a1616b182a")
	ok, err := cbor.TextEquals(data, 1, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = cbor.TextEquals(data, 1, "x")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = cbor.TextEquals(data, 3, "k")
	require.ErrorIs(t, err, cbor.ErrUnexpectedType)
}
