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
)

// The functions in this file work directly against raw bytes at a given offset.
// None of them allocate except RawSpan, which returns a copy.

func byteAt(data []byte, offset int) (byte, error) {
	if offset < 0 || offset >= len(data) {
		return 0, &NoSuchByteError{Offset: offset}
	}
	return data[offset], nil
}

// Header returns the major type and additional info of the header at offset
func Header(data []byte, offset int) (MajorType, uint8, error) {
	b, err := byteAt(data, offset)
	if err != nil {
		return 0, 0, err
	}
	return MajorTypeOf(b), b & CborAdditionalInfoMask, nil
}

// HeaderSize returns the size in bytes of the header at offset. Indefinite-length
// headers are a single byte; their content length is found by scanning for the
// break byte.
func HeaderSize(data []byte, offset int) (int, error) {
	_, ai, err := Header(data, offset)
	if err != nil {
		return 0, err
	}
	return headerSizeFromInfo(ai)
}

func headerSizeFromInfo(ai uint8) (int, error) {
	switch {
	case ai < CborAdditionalInfoUint8:
		return 1, nil
	case ai == CborAdditionalInfoUint8:
		return 2, nil
	case ai == CborAdditionalInfoUint16:
		return 3, nil
	case ai == CborAdditionalInfoUint32:
		return 5, nil
	case ai == CborAdditionalInfoUint64:
		return 9, nil
	case ai == CborAdditionalInfoIndefinite:
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: additional info %d", ErrIllegalFormat, ai)
	}
}

// IsIndefinite reports whether the header at offset declares an indefinite length
func IsIndefinite(data []byte, offset int) (bool, error) {
	_, ai, err := Header(data, offset)
	if err != nil {
		return false, err
	}
	return ai == CborAdditionalInfoIndefinite, nil
}

// IsBreak reports whether the byte at offset is the break marker
func IsBreak(data []byte, offset int) (bool, error) {
	b, err := byteAt(data, offset)
	if err != nil {
		return false, err
	}
	return b == CborBreak, nil
}

// ReadUint returns the unsigned argument of the header at offset. This is the value
// itself for major types 0 and 1, the length for strings and containers, and the
// tag number for semantic tags.
func ReadUint(data []byte, offset int) (uint64, error) {
	_, ai, err := Header(data, offset)
	if err != nil {
		return 0, err
	}
	switch {
	case ai < CborAdditionalInfoUint8:
		return uint64(ai), nil
	case ai == CborAdditionalInfoIndefinite:
		return 0, fmt.Errorf("%w: indefinite length has no argument at offset %d", ErrIllegalFormat, offset)
	}
	size, err := headerSizeFromInfo(ai)
	if err != nil {
		return 0, err
	}
	var ret uint64
	for i := 1; i < size; i++ {
		b, err := byteAt(data, offset+i)
		if err != nil {
			return 0, err
		}
		ret = ret<<8 | uint64(b)
	}
	return ret, nil
}

// ElementCount returns the number of elements of the sequence or the number of
// entries of the dictionary at offset. Indefinite-length containers are counted by
// scanning to the break byte.
func ElementCount(data []byte, offset int) (int, error) {
	major, ai, err := Header(data, offset)
	if err != nil {
		return 0, err
	}
	if major != MajorTypeSequence && major != MajorTypeDictionary {
		return 0, fmt.Errorf("%w: expected sequence or dictionary, got %s", ErrUnexpectedType, major)
	}
	if ai == CborAdditionalInfoIndefinite {
		items := 0
		pos := offset + 1
		for {
			isBreak, err := IsBreak(data, pos)
			if err != nil {
				return 0, err
			}
			if isBreak {
				break
			}
			size, err := ByteSize(data, pos)
			if err != nil {
				return 0, err
			}
			pos += size
			items++
		}
		if major == MajorTypeDictionary {
			if items%2 != 0 {
				return 0, fmt.Errorf("%w: dictionary at offset %d has a key without a value", ErrIllegalFormat, offset)
			}
			return items / 2, nil
		}
		return items, nil
	}
	count, err := ReadUint(data, offset)
	if err != nil {
		return 0, err
	}
	if count > math.MaxInt32 {
		return 0, fmt.Errorf("%w: element count %d at offset %d", ErrOverflow, count, offset)
	}
	return int(count), nil
}

// StringByteSize returns the total encoded size of the byte or text string at
// offset, header included
func StringByteSize(data []byte, offset int) (int, error) {
	major, ai, err := Header(data, offset)
	if err != nil {
		return 0, err
	}
	if major != MajorTypeByteString && major != MajorTypeTextString {
		return 0, fmt.Errorf("%w: expected string, got %s", ErrUnexpectedType, major)
	}
	if ai == CborAdditionalInfoIndefinite {
		pos := offset + 1
		for {
			b, err := byteAt(data, pos)
			if err != nil {
				return 0, err
			}
			if b == CborBreak {
				return pos + 1 - offset, nil
			}
			// Chunks must be definite-length strings of the same major type
			chunkMajor, chunkInfo, _ := Header(data, pos)
			if chunkMajor != major || chunkInfo == CborAdditionalInfoIndefinite {
				return 0, fmt.Errorf("%w: invalid chunk in indefinite string at offset %d", ErrIllegalFormat, pos)
			}
			size, err := StringByteSize(data, pos)
			if err != nil {
				return 0, err
			}
			pos += size
		}
	}
	headerSize, err := headerSizeFromInfo(ai)
	if err != nil {
		return 0, err
	}
	length, err := ReadUint(data, offset)
	if err != nil {
		return 0, err
	}
	if length > uint64(math.MaxInt32) {
		return 0, fmt.Errorf("%w: string length %d at offset %d", ErrOverflow, length, offset)
	}
	return headerSize + int(length), nil
}

// MaxNestedLevels is the deepest nesting of sequences, dictionaries and tags
// accepted by the offset walkers and by Decode
const MaxNestedLevels = 256

// NestingError returns the error reported for an item nested deeper than
// MaxNestedLevels
func NestingError(offset int) error {
	return fmt.Errorf("%w: nesting exceeds %d levels at offset %d", ErrOverflow, MaxNestedLevels, offset)
}

// ByteSize returns the total encoded size of the item at offset, including any
// nested content
func ByteSize(data []byte, offset int) (int, error) {
	return byteSize(data, offset, 0)
}

func byteSize(data []byte, offset int, depth int) (int, error) {
	major, ai, err := Header(data, offset)
	if err != nil {
		return 0, err
	}
	switch major {
	case MajorTypeSequence, MajorTypeDictionary, MajorTypeSemanticTag:
		if depth >= MaxNestedLevels {
			return 0, NestingError(offset)
		}
	}
	var size int
	switch major {
	case MajorTypeUnsignedInteger, MajorTypeNegativeInteger:
		if ai == CborAdditionalInfoIndefinite {
			return 0, fmt.Errorf("%w: indefinite integer at offset %d", ErrIllegalFormat, offset)
		}
		if size, err = headerSizeFromInfo(ai); err != nil {
			return 0, err
		}
	case MajorTypeByteString, MajorTypeTextString:
		if size, err = StringByteSize(data, offset); err != nil {
			return 0, err
		}
	case MajorTypeSequence, MajorTypeDictionary:
		if size, err = containerByteSize(data, offset, major, ai, depth); err != nil {
			return 0, err
		}
	case MajorTypeSemanticTag:
		if ai == CborAdditionalInfoIndefinite {
			return 0, fmt.Errorf("%w: indefinite tag at offset %d", ErrIllegalFormat, offset)
		}
		headerSize, err := headerSizeFromInfo(ai)
		if err != nil {
			return 0, err
		}
		contentSize, err := byteSize(data, offset+headerSize, depth+1)
		if err != nil {
			return 0, err
		}
		size = headerSize + contentSize
	case MajorTypeFloatingPointOrSimple:
		if ai == CborAdditionalInfoIndefinite {
			return 0, fmt.Errorf("%w: unexpected break at offset %d", ErrIllegalFormat, offset)
		}
		if size, err = headerSizeFromInfo(ai); err != nil {
			return 0, err
		}
	}
	if offset+size > len(data) {
		return 0, &NoSuchByteError{Offset: len(data)}
	}
	return size, nil
}

func containerByteSize(data []byte, offset int, major MajorType, ai uint8, depth int) (int, error) {
	pos := offset + 1
	if ai == CborAdditionalInfoIndefinite {
		for {
			isBreak, err := IsBreak(data, pos)
			if err != nil {
				return 0, err
			}
			if isBreak {
				return pos + 1 - offset, nil
			}
			size, err := byteSize(data, pos, depth+1)
			if err != nil {
				return 0, err
			}
			pos += size
		}
	}
	headerSize, err := headerSizeFromInfo(ai)
	if err != nil {
		return 0, err
	}
	count, err := ReadUint(data, offset)
	if err != nil {
		return 0, err
	}
	items := count
	if major == MajorTypeDictionary {
		items = count * 2
	}
	if count > math.MaxInt32 {
		return 0, fmt.Errorf("%w: element count %d at offset %d", ErrOverflow, count, offset)
	}
	// Every item takes at least one byte
	if items > uint64(len(data)-offset) {
		return 0, &NoSuchByteError{Offset: len(data)}
	}
	pos = offset + headerSize
	for i := uint64(0); i < items; i++ {
		size, err := byteSize(data, pos, depth+1)
		if err != nil {
			return 0, err
		}
		pos += size
	}
	return pos - offset, nil
}

// Span returns a view of the bytes making up the item at offset
func Span(data []byte, offset int) ([]byte, error) {
	size, err := ByteSize(data, offset)
	if err != nil {
		return nil, err
	}
	return data[offset : offset+size], nil
}

// RawSpan returns a copy of the bytes making up the item at offset. The copy can
// be emitted verbatim to reproduce the item without re-encoding.
func RawSpan(data []byte, offset int) ([]byte, error) {
	span, err := Span(data, offset)
	if err != nil {
		return nil, err
	}
	ret := make([]byte, len(span))
	copy(ret, span)
	return ret, nil
}
