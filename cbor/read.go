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
	"fmt"
	"math"
	"math/big"

	"github.com/x448/float16"
)

func expectMajor(data []byte, offset int, expected ...MajorType) (MajorType, uint8, error) {
	major, ai, err := Header(data, offset)
	if err != nil {
		return 0, 0, err
	}
	for _, tmpMajor := range expected {
		if major == tmpMajor {
			return major, ai, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: %s at offset %d", ErrUnexpectedType, major, offset)
}

// ReadInt reads the unsigned or negative integer at offset
func ReadInt(data []byte, offset int) (int64, error) {
	major, _, err := expectMajor(data, offset, MajorTypeUnsignedInteger, MajorTypeNegativeInteger)
	if err != nil {
		return 0, err
	}
	arg, err := ReadUint(data, offset)
	if err != nil {
		return 0, err
	}
	if arg > math.MaxInt64 {
		return 0, fmt.Errorf("%w: integer at offset %d does not fit int64", ErrOverflow, offset)
	}
	if major == MajorTypeNegativeInteger {
		return -1 - int64(arg), nil
	}
	return int64(arg), nil
}

// ReadBigInt reads the unsigned or negative integer at offset without range limits
func ReadBigInt(data []byte, offset int) (*big.Int, error) {
	major, _, err := expectMajor(data, offset, MajorTypeUnsignedInteger, MajorTypeNegativeInteger)
	if err != nil {
		return nil, err
	}
	arg, err := ReadUint(data, offset)
	if err != nil {
		return nil, err
	}
	ret := new(big.Int).SetUint64(arg)
	if major == MajorTypeNegativeInteger {
		// -1 - n
		ret.Add(ret, big.NewInt(1))
		ret.Neg(ret)
	}
	return ret, nil
}

// ReadFloat reads the half, single or double precision float at offset
func ReadFloat(data []byte, offset int) (float64, error) {
	_, ai, err := expectMajor(data, offset, MajorTypeFloatingPointOrSimple)
	if err != nil {
		return 0, err
	}
	switch ai {
	case CborAdditionalInfoUint16, CborAdditionalInfoUint32, CborAdditionalInfoUint64:
	default:
		return 0, fmt.Errorf("%w: simple value %d at offset %d is not a float", ErrUnexpectedType, ai, offset)
	}
	bits, err := ReadUint(data, offset)
	if err != nil {
		return 0, err
	}
	switch ai {
	case CborAdditionalInfoUint16:
		return float64(float16.Frombits(uint16(bits)).Float32()), nil
	case CborAdditionalInfoUint32:
		return float64(math.Float32frombits(uint32(bits))), nil
	default:
		return math.Float64frombits(bits), nil
	}
}

// ReadSimple reads the simple value at offset. Floats are rejected.
func ReadSimple(data []byte, offset int) (uint8, error) {
	_, ai, err := expectMajor(data, offset, MajorTypeFloatingPointOrSimple)
	if err != nil {
		return 0, err
	}
	switch {
	case ai < CborAdditionalInfoUint8:
		return ai, nil
	case ai == CborAdditionalInfoUint8:
		b, err := byteAt(data, offset+1)
		if err != nil {
			return 0, err
		}
		return b, nil
	default:
		return 0, fmt.Errorf("%w: float at offset %d is not a simple value", ErrUnexpectedType, offset)
	}
}

// ReadBool reads the boolean at offset
func ReadBool(data []byte, offset int) (bool, error) {
	simple, err := ReadSimple(data, offset)
	if err != nil {
		return false, err
	}
	switch simple {
	case CborSimpleFalse:
		return false, nil
	case CborSimpleTrue:
		return true, nil
	default:
		return false, fmt.Errorf("%w: simple value %d at offset %d is not a boolean", ErrUnexpectedType, simple, offset)
	}
}

// ReadTagNumber reads the tag number of the semantic tag at offset
func ReadTagNumber(data []byte, offset int) (uint64, error) {
	if _, _, err := expectMajor(data, offset, MajorTypeSemanticTag); err != nil {
		return 0, err
	}
	return ReadUint(data, offset)
}

// ReadBytes reads the byte string at offset. Indefinite-length strings are joined.
func ReadBytes(data []byte, offset int) ([]byte, error) {
	if _, _, err := expectMajor(data, offset, MajorTypeByteString); err != nil {
		return nil, err
	}
	return readStringPayload(data, offset)
}

// ReadText reads the text string at offset. Indefinite-length strings are joined.
func ReadText(data []byte, offset int) (string, error) {
	if _, _, err := expectMajor(data, offset, MajorTypeTextString); err != nil {
		return "", err
	}
	payload, err := readStringPayload(data, offset)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// TextEquals compares the text string at offset with s without allocating
func TextEquals(data []byte, offset int, s string) (bool, error) {
	_, ai, err := expectMajor(data, offset, MajorTypeTextString)
	if err != nil {
		return false, err
	}
	if ai == CborAdditionalInfoIndefinite {
		text, err := ReadText(data, offset)
		if err != nil {
			return false, err
		}
		return text == s, nil
	}
	payload, err := definitePayload(data, offset)
	if err != nil {
		return false, err
	}
	return string(payload) == s, nil
}

func definitePayload(data []byte, offset int) ([]byte, error) {
	size, err := StringByteSize(data, offset)
	if err != nil {
		return nil, err
	}
	headerSize, err := HeaderSize(data, offset)
	if err != nil {
		return nil, err
	}
	if offset+size > len(data) {
		return nil, &NoSuchByteError{Offset: len(data)}
	}
	return data[offset+headerSize : offset+size], nil
}

func readStringPayload(data []byte, offset int) ([]byte, error) {
	indefinite, err := IsIndefinite(data, offset)
	if err != nil {
		return nil, err
	}
	if !indefinite {
		payload, err := definitePayload(data, offset)
		if err != nil {
			return nil, err
		}
		ret := make([]byte, len(payload))
		copy(ret, payload)
		return ret, nil
	}
	size, err := StringByteSize(data, offset)
	if err != nil {
		return nil, err
	}
	ret := []byte{}
	// Chunks were already validated by StringByteSize
	for pos := offset + 1; pos < offset+size-1; {
		chunk, err := definitePayload(data, pos)
		if err != nil {
			return nil, err
		}
		ret = append(ret, chunk...)
		chunkSize, _ := StringByteSize(data, pos)
		pos += chunkSize
	}
	return ret, nil
}
