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
	"fmt"
	"math"

	"github.com/blinklabs-io/cborquery/cbor"
)

// The helpers in this file navigate containers directly in the encoded input.
// An item is only measured once the callback asks to move past it.

// eachItem calls fn with the offset of every item in the container at offset.
// Dictionaries yield keys and values alternately.
func eachItem(data []byte, offset int, fn func(pos int) (bool, error)) error {
	major, ai, err := cbor.Header(data, offset)
	if err != nil {
		return err
	}
	if major != cbor.MajorTypeSequence && major != cbor.MajorTypeDictionary {
		return fmt.Errorf("%w: expected sequence or dictionary, got %s", cbor.ErrUnexpectedType, major)
	}
	headerSize, err := cbor.HeaderSize(data, offset)
	if err != nil {
		return err
	}
	pos := offset + headerSize
	if ai == cbor.CborAdditionalInfoIndefinite {
		for {
			isBreak, err := cbor.IsBreak(data, pos)
			if err != nil {
				return err
			}
			if isBreak {
				return nil
			}
			next, err := fn(pos)
			if err != nil || !next {
				return err
			}
			size, err := cbor.ByteSize(data, pos)
			if err != nil {
				return err
			}
			pos += size
		}
	}
	count, err := cbor.ElementCount(data, offset)
	if err != nil {
		return err
	}
	items := count
	if major == cbor.MajorTypeDictionary {
		items = count * 2
	}
	for range items {
		next, err := fn(pos)
		if err != nil || !next {
			return err
		}
		size, err := cbor.ByteSize(data, pos)
		if err != nil {
			return err
		}
		pos += size
	}
	return nil
}

// walkItems calls fn with the offset of every item in the container at offset.
// fn returns the offset just past the item it consumed, so no item is measured
// twice. The returned offset is the one just past the container.
func walkItems(data []byte, offset int, fn func(pos int) (int, error)) (int, error) {
	major, ai, err := cbor.Header(data, offset)
	if err != nil {
		return 0, err
	}
	if major != cbor.MajorTypeSequence && major != cbor.MajorTypeDictionary {
		return 0, fmt.Errorf("%w: expected sequence or dictionary, got %s", cbor.ErrUnexpectedType, major)
	}
	headerSize, err := cbor.HeaderSize(data, offset)
	if err != nil {
		return 0, err
	}
	pos := offset + headerSize
	if ai == cbor.CborAdditionalInfoIndefinite {
		for {
			isBreak, err := cbor.IsBreak(data, pos)
			if err != nil {
				return 0, err
			}
			if isBreak {
				return pos + 1, nil
			}
			if pos, err = fn(pos); err != nil {
				return 0, err
			}
		}
	}
	count, err := cbor.ElementCount(data, offset)
	if err != nil {
		return 0, err
	}
	items := count
	if major == cbor.MajorTypeDictionary {
		items = count * 2
	}
	for range items {
		if pos, err = fn(pos); err != nil {
			return 0, err
		}
	}
	return pos, nil
}

// eachEntry calls fn with the key and value offsets of every dictionary entry
func eachEntry(data []byte, offset int, fn func(keyPos, valuePos int) (bool, error)) error {
	keyPos := -1
	return eachItem(data, offset, func(pos int) (bool, error) {
		if keyPos < 0 {
			keyPos = pos
			return true, nil
		}
		next, err := fn(keyPos, pos)
		keyPos = -1
		return next, err
	})
}

func isMajor(data []byte, offset int, major cbor.MajorType) (bool, error) {
	actual, _, err := cbor.Header(data, offset)
	if err != nil {
		return false, err
	}
	return actual == major, nil
}

// indexOffset finds element i of the sequence at offset. Anything other than a
// sequence has no elements.
func indexOffset(data []byte, offset int, i int) (int, bool, error) {
	if i < 0 {
		return 0, false, nil
	}
	if ok, err := isMajor(data, offset, cbor.MajorTypeSequence); err != nil || !ok {
		return 0, false, err
	}
	ret := -1
	current := 0
	err := eachItem(data, offset, func(pos int) (bool, error) {
		if current == i {
			ret = pos
			return false, nil
		}
		current++
		return true, nil
	})
	if err != nil {
		return 0, false, err
	}
	return ret, ret >= 0, nil
}

// keyOffset finds the value stored under key in the dictionary at offset
func keyOffset(data []byte, offset int, key any) (int, bool, error) {
	if ok, err := isMajor(data, offset, cbor.MajorTypeDictionary); err != nil || !ok {
		return 0, false, err
	}
	ret := -1
	err := eachEntry(data, offset, func(keyPos, valuePos int) (bool, error) {
		match, err := keyEquals(data, keyPos, key)
		if err != nil {
			return false, err
		}
		if match {
			ret = valuePos
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return 0, false, err
	}
	return ret, ret >= 0, nil
}

// keyEquals compares the encoded key at offset with a normalized key. Keys of a
// different shape never match.
func keyEquals(data []byte, offset int, key any) (bool, error) {
	major, ai, err := cbor.Header(data, offset)
	if err != nil {
		return false, err
	}
	switch k := key.(type) {
	case string:
		if major != cbor.MajorTypeTextString {
			return false, nil
		}
		return cbor.TextEquals(data, offset, k)
	case int64:
		if major != cbor.MajorTypeUnsignedInteger && major != cbor.MajorTypeNegativeInteger {
			return false, nil
		}
		arg, err := cbor.ReadUint(data, offset)
		if err != nil {
			return false, err
		}
		if arg > math.MaxInt64 {
			return false, nil
		}
		if major == cbor.MajorTypeNegativeInteger {
			return k == -1-int64(arg), nil
		}
		return k == int64(arg), nil
	case uint64:
		if major != cbor.MajorTypeUnsignedInteger {
			return false, nil
		}
		arg, err := cbor.ReadUint(data, offset)
		return arg == k, err
	case float64:
		if major != cbor.MajorTypeFloatingPointOrSimple ||
			(ai != cbor.CborAdditionalInfoUint16 && ai != cbor.CborAdditionalInfoUint32 && ai != cbor.CborAdditionalInfoUint64) {
			return false, nil
		}
		f, err := cbor.ReadFloat(data, offset)
		return f == k, err
	case bool:
		if major != cbor.MajorTypeFloatingPointOrSimple ||
			(ai != cbor.CborSimpleFalse && ai != cbor.CborSimpleTrue) {
			return false, nil
		}
		b, err := cbor.ReadBool(data, offset)
		return b == k, err
	case cbor.ByteString:
		if major != cbor.MajorTypeByteString {
			return false, nil
		}
		payload, err := cbor.ReadBytes(data, offset)
		return string(payload) == string(k.Bytes()), err
	default:
		return false, nil
	}
}

// normalizeKey converts a Go key into the form used by keyEquals and by
// materialized dictionaries
func normalizeKey(key any) (any, error) {
	switch k := key.(type) {
	case string, int64, float64, bool, cbor.ByteString:
		return k, nil
	case int:
		return int64(k), nil
	case int8:
		return int64(k), nil
	case int16:
		return int64(k), nil
	case int32:
		return int64(k), nil
	case uint:
		return normalizeUint(uint64(k)), nil
	case uint8:
		return int64(k), nil
	case uint16:
		return int64(k), nil
	case uint32:
		return int64(k), nil
	case uint64:
		return normalizeUint(k), nil
	case float32:
		return float64(k), nil
	case []byte:
		return cbor.NewByteString(k), nil
	default:
		return nil, fmt.Errorf("%w: unsupported dictionary key type %T", ErrInvalidQuery, key)
	}
}

func normalizeUint(u uint64) any {
	if u <= math.MaxInt64 {
		return int64(u)
	}
	return u
}
