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
	"bytes"
	"math"
	"testing"

	"github.com/blinklabs-io/cborquery/cbor"
	"github.com/blinklabs-io/cborquery/internal/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMajorTypeOf(t *testing.T) {
	testDefs := []struct {
		header byte
		major  cbor.MajorType
	}{
		{0x00, cbor.MajorTypeUnsignedInteger},
		{0x20, cbor.MajorTypeNegativeInteger},
		{0x5f, cbor.MajorTypeByteString},
		{0x61, cbor.MajorTypeTextString},
		{0x9f, cbor.MajorTypeSequence},
		{0xa1, cbor.MajorTypeDictionary},
		{0xd9, cbor.MajorTypeSemanticTag},
		{0xf6, cbor.MajorTypeFloatingPointOrSimple},
	}
	for _, testDef := range testDefs {
		assert.Equal(t, testDef.major, cbor.MajorTypeOf(testDef.header))
	}
	assert.Equal(t, "Dictionary", cbor.MajorTypeDictionary.String())
}

func TestHeaderSize(t *testing.T) {
	testDefs := []struct {
		cborHex string
		size    int
		illegal bool
	}{
		{cborHex: "00", size: 1},
		{cborHex: "1818", size: 2},
		{cborHex: "190100", size: 3},
		{cborHex: "1a00010000", size: 5},
		{cborHex: "1b0000000100000000", size: 9},
		{cborHex: "9f", size: 1},
		{cborHex: "1c", illegal: true},
		{cborHex: "5d", illegal: true},
		{cborHex: "fe", illegal: true},
	}
	for _, testDef := range testDefs {
		size, err := cbor.HeaderSize(test.DecodeHexString(testDef.cborHex), 0)
		if testDef.illegal {
			require.ErrorIs(t, err, cbor.ErrIllegalFormat, testDef.cborHex)
			continue
		}
		require.NoError(t, err, testDef.cborHex)
		assert.Equal(t, testDef.size, size, testDef.cborHex)
	}
}

func TestReadUint(t *testing.T) {
	testDefs := []struct {
		cborHex string
		value   uint64
	}{
		{"17", 23},
		{"1818", 24},
		{"19ffff", 65535},
		{"1a00010000", 65536},
		{"1bffffffffffffffff", math.MaxUint64},
	}
	for _, testDef := range testDefs {
		value, err := cbor.ReadUint(test.DecodeHexString(testDef.cborHex), 0)
		require.NoError(t, err)
		assert.Equal(t, testDef.value, value)
	}
}

func TestReadUintTruncated(t *testing.T) {
	_, err := cbor.ReadUint(test.DecodeHexString("19ff"), 0)
	var nsb *cbor.NoSuchByteError
	require.ErrorAs(t, err, &nsb)
	assert.Equal(t, 2, nsb.Offset)
	assert.True(t, cbor.IsMalformed(err))
}

func TestReadUintOutOfRange(t *testing.T) {
	_, err := cbor.ReadUint([]byte{0x01}, 5)
	var nsb *cbor.NoSuchByteError
	require.ErrorAs(t, err, &nsb)
	assert.Equal(t, 5, nsb.Offset)
}

func TestElementCount(t *testing.T) {
	testDefs := []struct {
		name    string
		cborHex string
		offset  int
		count   int
	}{
		{name: "definite sequence", cborHex: "83010203", count: 3},
		{name: "definite dictionary", cborHex: "a1616b182a", count: 1},
		{name: "indefinite sequence", cborHex: "9f010203ff", count: 3},
		{name: "indefinite sequence with trailing data", cborHex: "9f010203ff05", count: 3},
		{name: "indefinite sequence with nested items", cborHex: "9f820102039f04ffff", count: 3},
		{name: "indefinite dictionary", cborHex: "bf616101616202ff", count: 2},
		{name: "nested at offset", cborHex: "8201820203", offset: 2, count: 2},
		{name: "empty", cborHex: "80", count: 0},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			count, err := cbor.ElementCount(test.DecodeHexString(testDef.cborHex), testDef.offset)
			require.NoError(t, err)
			assert.Equal(t, testDef.count, count)
		})
	}
}

func TestElementCountErrors(t *testing.T) {
	// Missing break byte
	_, err := cbor.ElementCount(test.DecodeHexString("9f0102"), 0)
	var nsb *cbor.NoSuchByteError
	require.ErrorAs(t, err, &nsb)
	// Not a container
	_, err = cbor.ElementCount(test.DecodeHexString("01"), 0)
	require.ErrorIs(t, err, cbor.ErrUnexpectedType)
	// Count beyond representable range
	_, err = cbor.ElementCount(test.DecodeHexString("9bffffffffffffffff"), 0)
	require.ErrorIs(t, err, cbor.ErrOverflow)
	// Key without value
	_, err = cbor.ElementCount(test.DecodeHexString("bf6161ff"), 0)
	require.ErrorIs(t, err, cbor.ErrIllegalFormat)
}

func TestStringByteSize(t *testing.T) {
	size, err := cbor.StringByteSize(test.DecodeHexString("6161"), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, size)
	// "ab" + "c" in chunks
	size, err = cbor.StringByteSize(test.DecodeHexString("7f6261626163ff"), 0)
	require.NoError(t, err)
	assert.Equal(t, 7, size)
	// Chunk of the wrong type
	_, err = cbor.StringByteSize(test.DecodeHexString("7f01ff"), 0)
	require.ErrorIs(t, err, cbor.ErrIllegalFormat)
	_, err = cbor.StringByteSize(test.DecodeHexString("01"), 0)
	require.ErrorIs(t, err, cbor.ErrUnexpectedType)
}

func TestByteSize(t *testing.T) {
	testDefs := []struct {
		cborHex string
		size    int
	}{
		{"a1616b182a", 5},
		{"c11a514b67b0", 6},
		{"f93c00", 3},
		{"fb3ff0000000000000", 9},
		{"d9d9f783010203", 7},
		{"bf6161820102ff", 7},
		{"5f42010241ffff", 7},
		{"830102039f", 4},
	}
	for _, testDef := range testDefs {
		size, err := cbor.ByteSize(test.DecodeHexString(testDef.cborHex), 0)
		require.NoError(t, err, testDef.cborHex)
		assert.Equal(t, testDef.size, size, testDef.cborHex)
	}
}

func TestByteSizeErrors(t *testing.T) {
	_, err := cbor.ByteSize(test.DecodeHexString("ff"), 0)
	require.ErrorIs(t, err, cbor.ErrIllegalFormat)
	_, err = cbor.ByteSize(test.DecodeHexString("8301"), 0)
	var nsb *cbor.NoSuchByteError
	require.ErrorAs(t, err, &nsb)
	_, err = cbor.ByteSize(test.DecodeHexString("6461"), 0)
	require.ErrorAs(t, err, &nsb)
}

func TestRawSpan(t *testing.T) {
	// [1, "a"]
	data := test.DecodeHexString("82016161")
	span, err := cbor.RawSpan(data, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x61, 0x61}, span)
	// The span is a copy
	span[1] = 0x62
	assert.Equal(t, byte(0x61), data[3])
}

func TestRawSpanRoundTrip(t *testing.T) {
	scalars := []string{
		"00",
		"17",
		"1818",
		"1bffffffffffffffff",
		"3863",
		"43010203",
		"5f42010241ffff",
		"6161",
		"7f6261626163ff",
		"c11a514b67b0",
		"c249010000000000000000",
		"f4",
		"f5",
		"f6",
		"f7",
		"f93c00",
		"fa47c35000",
		"fb3ff199999999999a",
	}
	for _, scalar := range scalars {
		data := test.DecodeHexString(scalar)
		span, err := cbor.RawSpan(data, 0)
		require.NoError(t, err, scalar)
		assert.Equal(t, data, span, scalar)
	}
}

func TestByteSizeNesting(t *testing.T) {
	nested := func(header []byte, depth int, inner byte) []byte {
		return append(bytes.Repeat(header, depth), inner)
	}
	testDefs := []struct {
		name    string
		data    []byte
		size    int
		tooDeep bool
	}{
		{
			name: "sequences at the limit",
			data: nested([]byte{0x81}, cbor.MaxNestedLevels, 0x01),
			size: cbor.MaxNestedLevels + 1,
		},
		{
			name:    "sequences past the limit",
			data:    nested([]byte{0x81}, cbor.MaxNestedLevels+1, 0x01),
			tooDeep: true,
		},
		{
			name:    "dictionaries past the limit",
			data:    nested([]byte{0xa1, 0x00}, cbor.MaxNestedLevels+1, 0x01),
			tooDeep: true,
		},
		{
			name:    "tags past the limit",
			data:    nested([]byte{0xc1}, cbor.MaxNestedLevels+1, 0x01),
			tooDeep: true,
		},
		{
			name:    "very deep input",
			data:    nested([]byte{0x81}, 4_000_000, 0x01),
			tooDeep: true,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			size, err := cbor.ByteSize(testDef.data, 0)
			if !testDef.tooDeep {
				require.NoError(t, err)
				assert.Equal(t, testDef.size, size)
				return
			}
			require.ErrorIs(t, err, cbor.ErrOverflow)
			assert.True(t, cbor.IsMalformed(err))
			_, err = cbor.RawSpan(testDef.data, 0)
			require.ErrorIs(t, err, cbor.ErrOverflow)
		})
	}
}
