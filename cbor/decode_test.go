// Copyright 2023 Blink Labs Software
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
	"encoding/hex"
	"errors"
	"reflect"
	"testing"

	"github.com/blinklabs-io/cborquery/cbor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decodeTestDefinition struct {
	CborHex   string
	Object    any
	BytesRead int
}

var decodeTests = []decodeTestDefinition{
	// Simple list of numbers
	{
		CborHex: "83010203",
		Object:  []any{uint64(1), uint64(2), uint64(3)},
	},
	// Multiple CBOR objects
	{
		CborHex:   "81018102",
		Object:    []any{uint64(1)},
		BytesRead: 2,
	},
	// Map with integer keys
	{
		CborHex: "a1010f",
		Object:  map[any]any{uint64(1): uint64(15)},
	},
}

func TestDecode(t *testing.T) {
	for _, test := range decodeTests {
		cborData, err := hex.DecodeString(test.CborHex)
		if err != nil {
			t.Fatalf("failed to decode CBOR hex: %s", err)
		}
		var dest any
		bytesRead, err := cbor.Decode(cborData, &dest)
		if err != nil {
			t.Fatalf("failed to decode CBOR: %s", err)
		}
		if test.BytesRead > 0 {
			if bytesRead != test.BytesRead {
				t.Fatalf("expected to read %d bytes, read %d instead", test.BytesRead, bytesRead)
			}
		}
		if !reflect.DeepEqual(dest, test.Object) {
			t.Fatalf("CBOR did not decode to expected object\n  got: %#v\n  wanted: %#v", dest, test.Object)
		}
	}
}

func TestValid(t *testing.T) {
	require.NoError(t, cbor.Valid([]byte{0x83, 0x01, 0x02, 0x03}))
	assert.Error(t, cbor.Valid([]byte{0x83, 0x01, 0x02}))
	// Trailing data is not a single item
	assert.Error(t, cbor.Valid([]byte{0x01, 0x02}))
}

type decodeGenericTarget struct {
	Name  string `cbor:"name"`
	Count uint64 `cbor:"count"`
}

var errCustomUnmarshal = errors.New("custom unmarshal called")

func (d *decodeGenericTarget) UnmarshalCBOR(data []byte) error {
	return errCustomUnmarshal
}

func TestDecodeGeneric(t *testing.T) {
	// {"name": "abc", "count": 7}
	cborData, err := cbor.Encode(map[string]any{"name": "abc", "count": 7})
	require.NoError(t, err)
	var dest decodeGenericTarget
	// The custom UnmarshalCBOR() must be bypassed
	_, err = cbor.Decode(cborData, &dest)
	require.Error(t, err)
	require.NoError(t, cbor.DecodeGeneric(cborData, &dest))
	assert.Equal(t, "abc", dest.Name)
	assert.Equal(t, uint64(7), dest.Count)
}

func TestDecodeGenericRequiresStructPointer(t *testing.T) {
	var dest map[string]any
	assert.Error(t, cbor.DecodeGeneric([]byte{0xa0}, &dest))
}

func TestDiagnose(t *testing.T) {
	diag, err := cbor.Diagnose([]byte{0x82, 0x01, 0x61, 0x61})
	require.NoError(t, err)
	assert.Equal(t, `[1, "a"]`, diag)
}
