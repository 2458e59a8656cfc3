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

// ValueType is the classification of a value, layered over its major type. Semantic
// tags are classified through the tag registry.
type ValueType uint8

const (
	TypeUnknown ValueType = iota
	TypeUInt
	TypeNInt
	TypeFloat
	TypeBool
	TypeNull
	TypeUndefined
	TypeSimple
	TypeByteString
	TypeTextString
	TypeSequence
	TypeDictionary
	// TypeTag is a semantic tag without a registered strategy
	TypeTag
	TypeDateTime
	TypeTimestamp
	TypeUBigNum
	TypeNBigNum
	TypeFraction
	TypeRational
	TypeEncCBOR
	TypeURI
	TypeUUID
	TypeConstructor
)

var valueTypeNames = map[ValueType]string{
	TypeUnknown:     "Unknown",
	TypeUInt:        "UInt",
	TypeNInt:        "NInt",
	TypeFloat:       "Float",
	TypeBool:        "Bool",
	TypeNull:        "Null",
	TypeUndefined:   "Undefined",
	TypeSimple:      "Simple",
	TypeByteString:  "ByteString",
	TypeTextString:  "TextString",
	TypeSequence:    "Sequence",
	TypeDictionary:  "Dictionary",
	TypeTag:         "Tag",
	TypeDateTime:    "DateTime",
	TypeTimestamp:   "Timestamp",
	TypeUBigNum:     "UBigNum",
	TypeNBigNum:     "NBigNum",
	TypeFraction:    "Fraction",
	TypeRational:    "Rational",
	TypeEncCBOR:     "EncCBOR",
	TypeURI:         "URI",
	TypeUUID:        "UUID",
	TypeConstructor: "Constructor",
}

func (t ValueType) String() string {
	if name, ok := valueTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// IsContainer reports whether values of this type hold nested values
func (t ValueType) IsContainer() bool {
	return t == TypeSequence || t == TypeDictionary
}
