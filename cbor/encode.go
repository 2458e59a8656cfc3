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
	"bytes"
	"errors"
	"sync"

	_cbor "github.com/fxamacker/cbor/v2"
)

var (
	cachedEncMode     _cbor.EncMode
	cachedEncModeErr  error
	cachedEncModeOnce sync.Once
)

func getEncMode() (_cbor.EncMode, error) {
	cachedEncModeOnce.Do(func() {
		opts := _cbor.EncOptions{
			// Make sure that maps have ordered keys
			Sort: _cbor.SortCoreDeterministic,
		}
		cachedEncMode, cachedEncModeErr = opts.EncModeWithTags(customTagSet)
	})
	return cachedEncMode, cachedEncModeErr
}

// Encode encodes data as CBOR
func Encode(data any) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	em, err := getEncMode()
	if err != nil {
		return nil, err
	}
	if em == nil {
		return nil, errors.New("CBOR encoder mode not initialized")
	}
	enc := em.NewEncoder(buf)
	err = enc.Encode(data)
	return buf.Bytes(), err
}

// AppendHeader appends a definite-length header with the given major type and
// argument, using the shortest form
func AppendHeader(buf []byte, major MajorType, arg uint64) []byte {
	prefix := byte(major) << 5
	switch {
	case arg <= uint64(CborMaxUintSimple):
		return append(buf, prefix|byte(arg))
	case arg <= 0xff:
		return append(buf, prefix|CborAdditionalInfoUint8, byte(arg))
	case arg <= 0xffff:
		return append(buf, prefix|CborAdditionalInfoUint16, byte(arg>>8), byte(arg))
	case arg <= 0xffffffff:
		return append(
			buf,
			prefix|CborAdditionalInfoUint32,
			byte(arg>>24), byte(arg>>16), byte(arg>>8), byte(arg),
		)
	default:
		return append(
			buf,
			prefix|CborAdditionalInfoUint64,
			byte(arg>>56), byte(arg>>48), byte(arg>>40), byte(arg>>32),
			byte(arg>>24), byte(arg>>16), byte(arg>>8), byte(arg),
		)
	}
}

// IndefiniteHeader returns the header byte opening an indefinite-length item of
// the given major type
func IndefiniteHeader(major MajorType) byte {
	return byte(major)<<5 | CborAdditionalInfoIndefinite
}

type IndefLengthList []any

func (i IndefLengthList) MarshalCBOR() ([]byte, error) {
	ret := []byte{
		// Start indefinite-length list
		IndefiniteHeader(MajorTypeSequence),
	}
	for _, item := range []any(i) {
		data, err := Encode(&item)
		if err != nil {
			return nil, err
		}
		ret = append(ret, data...)
	}
	ret = append(
		ret,
		// End indefinite length array
		CborBreak,
	)
	return ret, nil
}

type IndefLengthMap map[any]any

func (i IndefLengthMap) MarshalCBOR() ([]byte, error) {
	ret := []byte{
		// Start indefinite-length map
		IndefiniteHeader(MajorTypeDictionary),
	}
	// Encode the map first so that key ordering matches Encode
	tmpData, err := Encode(map[any]any(i))
	if err != nil {
		return nil, err
	}
	headerSize, err := HeaderSize(tmpData, 0)
	if err != nil {
		return nil, err
	}
	ret = append(ret, tmpData[headerSize:]...)
	ret = append(
		ret,
		// End indefinite length map
		CborBreak,
	)
	return ret, nil
}
