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
	"strconv"
	"strings"
	"sync"
)

// TypeSpec is a named node in the type lattice used by type assertions. A spec
// may have several supertypes. Tag specs are bound to a single semantic tag id.
type TypeSpec struct {
	name    string
	parents []*TypeSpec
	tagged  bool
	tag     uint64
}

var (
	tagSpecs      = map[uint64]*TypeSpec{}
	tagSpecsMutex sync.Mutex
	namedSpecs    = map[string]*TypeSpec{}
)

func newSpec(name string, parents ...*TypeSpec) *TypeSpec {
	s := &TypeSpec{
		name:    name,
		parents: parents,
	}
	namedSpecs[strings.ToLower(name)] = s
	return s
}

func newTagSpec(name string, tag uint64, parents ...*TypeSpec) *TypeSpec {
	s := newSpec(name, parents...)
	s.tagged = true
	s.tag = tag
	tagSpecs[tag] = s
	return s
}

// Built-in specs
var (
	SpecAny        = newSpec("Any")
	SpecNumber     = newSpec("Number", SpecAny)
	SpecInt        = newSpec("Int", SpecNumber)
	SpecUInt       = newSpec("UInt", SpecInt)
	SpecNInt       = newSpec("NInt", SpecInt)
	SpecFloat      = newSpec("Float", SpecNumber)
	SpecBool       = newSpec("Bool", SpecAny)
	SpecNull       = newSpec("Null", SpecAny)
	SpecUndefined  = newSpec("Undefined", SpecAny)
	SpecSimple     = newSpec("Simple", SpecAny)
	SpecString     = newSpec("String", SpecAny)
	SpecByteString = newSpec("ByteString", SpecString)
	SpecTextString = newSpec("TextString", SpecString)
	SpecSequence   = newSpec("Sequence", SpecAny)
	SpecDictionary = newSpec("Dictionary", SpecAny)
	SpecTag        = newSpec("Tag", SpecAny)
	SpecBigNum     = newSpec("BigNum", SpecInt)

	SpecDateTime    = newTagSpec("DateTime", 0, SpecTag)
	SpecTimestamp   = newTagSpec("Timestamp", 1, SpecTag)
	SpecUBigNum     = newTagSpec("UBigNum", 2, SpecBigNum, SpecTag)
	SpecNBigNum     = newTagSpec("NBigNum", 3, SpecBigNum, SpecTag)
	SpecFraction    = newTagSpec("Fraction", 4, SpecNumber, SpecTag)
	SpecEncCBOR     = newTagSpec("EncCBOR", 24, SpecTag)
	SpecRational    = newTagSpec("Rational", 30, SpecNumber, SpecTag)
	SpecURI         = newTagSpec("URI", 32, SpecTag)
	SpecUUID        = newTagSpec("UUID", 37, SpecTag)
	SpecConstructor = newSpec("Constructor", SpecTag)
)

var valueTypeSpecs = map[ValueType]*TypeSpec{
	TypeUInt:        SpecUInt,
	TypeNInt:        SpecNInt,
	TypeFloat:       SpecFloat,
	TypeBool:        SpecBool,
	TypeNull:        SpecNull,
	TypeUndefined:   SpecUndefined,
	TypeSimple:      SpecSimple,
	TypeByteString:  SpecByteString,
	TypeTextString:  SpecTextString,
	TypeSequence:    SpecSequence,
	TypeDictionary:  SpecDictionary,
	TypeTag:         SpecTag,
	TypeDateTime:    SpecDateTime,
	TypeTimestamp:   SpecTimestamp,
	TypeUBigNum:     SpecUBigNum,
	TypeNBigNum:     SpecNBigNum,
	TypeFraction:    SpecFraction,
	TypeRational:    SpecRational,
	TypeEncCBOR:     SpecEncCBOR,
	TypeURI:         SpecURI,
	TypeUUID:        SpecUUID,
	TypeConstructor: SpecConstructor,
}

// SpecOf returns the built-in spec for a value type
func SpecOf(t ValueType) *TypeSpec {
	if s, ok := valueTypeSpecs[t]; ok {
		return s
	}
	return SpecAny
}

// TagSpec returns the spec bound to the given semantic tag id. Specs are interned,
// so repeated calls return the same pointer.
func TagSpec(tag uint64) *TypeSpec {
	tagSpecsMutex.Lock()
	defer tagSpecsMutex.Unlock()
	if s, ok := tagSpecs[tag]; ok {
		return s
	}
	s := &TypeSpec{
		name:    "tag$" + strconv.FormatUint(tag, 10),
		parents: []*TypeSpec{SpecTag},
		tagged:  true,
		tag:     tag,
	}
	tagSpecs[tag] = s
	return s
}

// LookupSpec finds a spec by its case-insensitive name. Names of the form tag$<id>
// resolve to the tag spec for that id.
func LookupSpec(name string) (*TypeSpec, bool) {
	name = strings.ToLower(name)
	if rest, ok := strings.CutPrefix(name, "tag$"); ok {
		tag, err := strconv.ParseUint(rest, 10, 64)
		if err != nil {
			return nil, false
		}
		return TagSpec(tag), true
	}
	s, ok := namedSpecs[name]
	return s, ok
}

func (s *TypeSpec) String() string {
	return s.name
}

// Tag returns the semantic tag id the spec is bound to
func (s *TypeSpec) Tag() (uint64, bool) {
	return s.tag, s.tagged
}

// Matches reports whether a value classified as other satisfies s. Matching is
// reflexive and directed toward supertypes: Int matches UInt but UInt does not
// match Int.
func (s *TypeSpec) Matches(other *TypeSpec) bool {
	if other == nil {
		return false
	}
	if other == s {
		return true
	}
	if s.tagged {
		return other.tagged && other.tag == s.tag
	}
	for _, parent := range other.parents {
		if s.Matches(parent) {
			return true
		}
	}
	return false
}

// Accepts reports whether v satisfies s. Tag specs require the value to carry the
// exact tag id regardless of how the registry classifies it.
func (s *TypeSpec) Accepts(v Value) bool {
	if s == SpecAny {
		return true
	}
	if s.tagged {
		tag, ok := v.TagNumber()
		return ok && tag == s.tag
	}
	return s.Matches(v.Spec())
}

// Valid classifies the value at offset in the evaluation input and checks it
// against s
func (s *TypeSpec) Valid(qc *Context, offset int) (bool, error) {
	v, err := qc.ValueAt(FromOffset(offset))
	if err != nil {
		return false, err
	}
	return s.Accepts(v), nil
}
