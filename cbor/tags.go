// Copyright 2024 Blink Labs Software
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
	"errors"
	"math/big"
	"reflect"

	_cbor "github.com/fxamacker/cbor/v2"
)

const (
	// Useful tag numbers
	CborTagDateTime        = 0
	CborTagTimestamp       = 1
	CborTagUnsignedBignum  = 2
	CborTagNegativeBignum  = 3
	CborTagDecimalFraction = 4
	CborTagCbor            = 24
	CborTagRational        = 30
	CborTagUri             = 32
	CborTagUuid            = 37
	CborTagSelfDescribe    = 55799

	// Tag ranges for "alternatives"
	// https://www.ietf.org/archive/id/draft-bormann-cbor-notable-tags-07.html#name-enumerated-alternative-data
	CborTagAlternative1Min = 121
	CborTagAlternative1Max = 127
	CborTagAlternative2Min = 1280
	CborTagAlternative2Max = 1400
	CborTagAlternative3    = 101
)

var customTagSet _cbor.TagSet

func init() {
	// Build custom tagset
	customTagSet = _cbor.NewTagSet()
	tagOpts := _cbor.TagOptions{EncTag: _cbor.EncTagRequired, DecTag: _cbor.DecTagRequired}
	// Wrapped CBOR
	if err := customTagSet.Add(
		tagOpts,
		reflect.TypeOf(WrappedCbor{}),
		CborTagCbor,
	); err != nil {
		panic(err)
	}
	// Rational numbers
	if err := customTagSet.Add(
		tagOpts,
		reflect.TypeOf(Rat{}),
		CborTagRational,
	); err != nil {
		panic(err)
	}
}

// WrappedCbor corresponds to CBOR tag 24 and is used to encode nested CBOR data
type WrappedCbor []byte

func (w WrappedCbor) Bytes() []byte {
	return w[:]
}

// Rat corresponds to CBOR tag 30 and is used to represent a rational number
type Rat struct {
	*big.Rat
}

func (r *Rat) UnmarshalCBOR(cborData []byte) error {
	tmpRat := []*big.Int{}
	if _, err := Decode(cborData, &tmpRat); err != nil {
		return err
	}
	if len(tmpRat) != 2 {
		return errors.New("rational number must have exactly 2 elements")
	}
	if tmpRat[1].Sign() == 0 {
		return errors.New("rational number has zero denominator")
	}
	r.Rat = new(big.Rat).SetFrac(tmpRat[0], tmpRat[1])
	return nil
}

func (r *Rat) MarshalCBOR() ([]byte, error) {
	tmpData := _cbor.Tag{
		Number: CborTagRational,
		Content: []*big.Int{
			r.Num(),
			r.Denom(),
		},
	}
	return Encode(&tmpData)
}

func (r *Rat) ToBigRat() *big.Rat {
	return r.Rat
}

// IsAlternativeTag returns true if the given CBOR tag number represents
// a constructor/alternative (tags 121-127, 1280-1400, or 101).
func IsAlternativeTag(tagNum uint64) bool {
	return (tagNum >= CborTagAlternative1Min && tagNum <= CborTagAlternative1Max) ||
		(tagNum >= CborTagAlternative2Min && tagNum <= CborTagAlternative2Max) ||
		tagNum == CborTagAlternative3
}

// AlternativeFromTag converts a constructor tag number to its alternative number.
// Tag 101 carries the alternative inside its content and reports ok=false.
func AlternativeFromTag(tagNum uint64) (uint, bool) {
	switch {
	case tagNum >= CborTagAlternative1Min && tagNum <= CborTagAlternative1Max:
		// Alternatives 0-6 (tags 121-127)
		return uint(tagNum - CborTagAlternative1Min), true
	case tagNum >= CborTagAlternative2Min && tagNum <= CborTagAlternative2Max:
		// Alternatives 7-127 (tags 1280-1400)
		return uint(tagNum - CborTagAlternative2Min + 7), true
	default:
		return 0, false
	}
}

// AlternativeToTag converts a constructor/alternative number to its CBOR tag number.
// Returns the tag number and whether the fields must be wrapped as [alt_number, fields]
// (true for alternatives 128+).
func AlternativeToTag(alt uint) (uint64, bool) {
	switch {
	case alt <= 6:
		return uint64(alt) + CborTagAlternative1Min, false
	case alt <= 127:
		return uint64(alt) - 7 + CborTagAlternative2Min, false
	default:
		return CborTagAlternative3, true
	}
}
