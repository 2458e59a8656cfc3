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

package cbor

import (
	_cbor "github.com/fxamacker/cbor/v2"
)

const (
	CborTypeUnsignedInt uint8 = 0x00
	CborTypeNegativeInt uint8 = 0x20
	CborTypeByteString  uint8 = 0x40
	CborTypeTextString  uint8 = 0x60
	CborTypeArray       uint8 = 0x80
	CborTypeMap         uint8 = 0xa0
	CborTypeTag         uint8 = 0xc0
	CborTypeSimple      uint8 = 0xe0

	// Only the top 3 bits are used to specify the type
	CborTypeMask uint8 = 0xe0
	// The low 5 bits carry the additional info
	CborAdditionalInfoMask uint8 = 0x1f

	// Max value able to be stored in a single byte without type prefix
	CborMaxUintSimple uint8 = 0x17

	// Additional info values with special meaning
	CborAdditionalInfoUint8      uint8 = 24
	CborAdditionalInfoUint16     uint8 = 25
	CborAdditionalInfoUint32     uint8 = 26
	CborAdditionalInfoUint64     uint8 = 27
	CborAdditionalInfoIndefinite uint8 = 31

	// Simple values (major type 7)
	CborSimpleFalse     uint8 = 20
	CborSimpleTrue      uint8 = 21
	CborSimpleNull      uint8 = 22
	CborSimpleUndefined uint8 = 23

	// Terminates indefinite-length items
	CborBreak byte = 0xff
	// Encoded null value
	CborNull byte = 0xf6
	// Encoded undefined value
	CborUndefined byte = 0xf7
)

// MajorType is one of the 8 CBOR wire categories, taken from the top 3 bits of a
// header byte
type MajorType uint8

const (
	MajorTypeUnsignedInteger MajorType = iota
	MajorTypeNegativeInteger
	MajorTypeByteString
	MajorTypeTextString
	MajorTypeSequence
	MajorTypeDictionary
	MajorTypeSemanticTag
	MajorTypeFloatingPointOrSimple
)

var majorTypeNames = [...]string{
	"UnsignedInteger",
	"NegativeInteger",
	"ByteString",
	"TextString",
	"Sequence",
	"Dictionary",
	"SemanticTag",
	"FloatingPointOrSimple",
}

func (m MajorType) String() string {
	if int(m) < len(majorTypeNames) {
		return majorTypeNames[m]
	}
	return "Invalid"
}

// MajorTypeOf returns the major type encoded in a header byte
func MajorTypeOf(header byte) MajorType {
	return MajorType((header & CborTypeMask) >> 5)
}

// Create an alias for RawMessage for convenience
type RawMessage = _cbor.RawMessage

// Alias for Tag for convenience
type Tag = _cbor.Tag

// Alias for RawTag for convenience
type RawTag = _cbor.RawTag
