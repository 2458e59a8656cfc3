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
	"math/big"
	"net/url"
	"time"

	"github.com/blinklabs-io/cborquery/cbor"
	"github.com/google/uuid"
)

// TagStrategy decodes and encodes values carrying a family of semantic tags
type TagStrategy interface {
	// Handles reports whether the strategy applies to the tag id
	Handles(tag uint64) bool
	// ValueType is the classification given to values the strategy handles
	ValueType() ValueType
	// Spec returns the type spec bound to the tag id
	Spec(tag uint64) *TypeSpec
	// Decode decodes the tagged item whose header is at offset
	Decode(src *Source, offset int) (any, error)
	// Encode returns the complete tagged encoding of a native value
	Encode(tag uint64, native any) ([]byte, error)
}

// DecimalFraction is the payload of tag 4: Mantissa * 10^Exponent
type DecimalFraction struct {
	Exponent int64
	Mantissa *big.Int
}

// Rat returns the exact rational value of the fraction
func (d DecimalFraction) Rat() *big.Rat {
	ret := new(big.Rat).SetInt(d.Mantissa)
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(absInt64(d.Exponent)), nil)
	if d.Exponent >= 0 {
		return ret.Mul(ret, new(big.Rat).SetInt(scale))
	}
	return ret.Quo(ret, new(big.Rat).SetInt(scale))
}

func (d DecimalFraction) String() string {
	return fmt.Sprintf("%se%d", d.Mantissa, d.Exponent)
}

func absInt64(i int64) int64 {
	if i < 0 {
		return -i
	}
	return i
}

// Constructor is the payload of a constructor alternative tag
type Constructor struct {
	Alternative uint
	Fields      Value
}

type tagStrategy struct {
	tag    uint64
	typ    ValueType
	// decode receives the offsets of the tag header and of the tag content
	decode func(src *Source, offset, content int) (any, error)
	// encode returns the tag content for a native value
	encode func(native any) (any, error)
	// encodeTagged returns the complete tagged encoding, bypassing encode
	encodeTagged func(native any) ([]byte, error)
}

func (s *tagStrategy) Handles(tag uint64) bool {
	return tag == s.tag
}

func (s *tagStrategy) ValueType() ValueType {
	return s.typ
}

func (s *tagStrategy) Spec(tag uint64) *TypeSpec {
	return TagSpec(tag)
}

func (s *tagStrategy) Decode(src *Source, offset int) (any, error) {
	content, err := tagContentOffset(src.data, offset)
	if err != nil {
		return nil, err
	}
	return s.decode(src, offset, content)
}

func (s *tagStrategy) Encode(tag uint64, native any) ([]byte, error) {
	if s.encodeTagged != nil {
		return s.encodeTagged(native)
	}
	content, err := s.encode(native)
	if err != nil {
		return nil, err
	}
	return cbor.Encode(cbor.Tag{Number: tag, Content: content})
}

func tagContentOffset(data []byte, offset int) (int, error) {
	if _, err := cbor.ReadTagNumber(data, offset); err != nil {
		return 0, err
	}
	headerSize, err := cbor.HeaderSize(data, offset)
	if err != nil {
		return 0, err
	}
	return offset + headerSize, nil
}

func nativeTypeError(want string, native any) error {
	return fmt.Errorf("%w: cannot encode %T as %s", ErrTypeMismatch, native, want)
}

// DateTimeTagStrategy handles tag 0, an RFC 3339 date/time string
func DateTimeTagStrategy() TagStrategy {
	return &tagStrategy{
		tag: cbor.CborTagDateTime,
		typ: TypeDateTime,
		decode: func(src *Source, _, content int) (any, error) {
			text, err := cbor.ReadText(src.data, content)
			if err != nil {
				return nil, err
			}
			return time.Parse(time.RFC3339Nano, text)
		},
		encode: func(native any) (any, error) {
			t, ok := native.(time.Time)
			if !ok {
				return nil, nativeTypeError("DateTime", native)
			}
			return t.Format(time.RFC3339Nano), nil
		},
	}
}

// TimestampTagStrategy handles tag 1, seconds since the epoch as an integer or float
func TimestampTagStrategy() TagStrategy {
	return &tagStrategy{
		tag: cbor.CborTagTimestamp,
		typ: TypeTimestamp,
		decode: func(src *Source, _, content int) (any, error) {
			major, _, err := cbor.Header(src.data, content)
			if err != nil {
				return nil, err
			}
			if major == cbor.MajorTypeFloatingPointOrSimple {
				f, err := cbor.ReadFloat(src.data, content)
				if err != nil {
					return nil, err
				}
				sec, frac := math.Modf(f)
				return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
			}
			sec, err := cbor.ReadInt(src.data, content)
			if err != nil {
				return nil, err
			}
			return time.Unix(sec, 0).UTC(), nil
		},
		encode: func(native any) (any, error) {
			t, ok := native.(time.Time)
			if !ok {
				return nil, nativeTypeError("Timestamp", native)
			}
			if t.Nanosecond() == 0 {
				return t.Unix(), nil
			}
			return float64(t.UnixNano()) / 1e9, nil
		},
	}
}

// BigNumTagStrategy handles tags 2 and 3, unsigned and negative bignums
func BigNumTagStrategy(negative bool) TagStrategy {
	tag := uint64(cbor.CborTagUnsignedBignum)
	typ := TypeUBigNum
	if negative {
		tag = cbor.CborTagNegativeBignum
		typ = TypeNBigNum
	}
	return &tagStrategy{
		tag: tag,
		typ: typ,
		decode: func(src *Source, _, content int) (any, error) {
			payload, err := cbor.ReadBytes(src.data, content)
			if err != nil {
				return nil, err
			}
			ret := new(big.Int).SetBytes(payload)
			if negative {
				ret.Add(ret, big.NewInt(1))
				ret.Neg(ret)
			}
			return ret, nil
		},
		encode: func(native any) (any, error) {
			i, ok := native.(*big.Int)
			if !ok || i == nil {
				return nil, nativeTypeError("BigNum", native)
			}
			if negative {
				if i.Sign() >= 0 {
					return nil, fmt.Errorf("%w: negative bignum from non-negative %s", ErrTypeMismatch, i)
				}
				// -1 - n
				n := new(big.Int).Neg(i)
				n.Sub(n, big.NewInt(1))
				return n.Bytes(), nil
			}
			if i.Sign() < 0 {
				return nil, fmt.Errorf("%w: unsigned bignum from negative %s", ErrTypeMismatch, i)
			}
			return i.Bytes(), nil
		},
	}
}

// DecimalFractionTagStrategy handles tag 4, [exponent, mantissa]
func DecimalFractionTagStrategy() TagStrategy {
	return &tagStrategy{
		tag: cbor.CborTagDecimalFraction,
		typ: TypeFraction,
		decode: func(src *Source, _, content int) (any, error) {
			count, err := cbor.ElementCount(src.data, content)
			if err != nil {
				return nil, err
			}
			if count != 2 {
				return nil, fmt.Errorf("%w: decimal fraction must have exactly 2 elements", cbor.ErrIllegalFormat)
			}
			expOffset, _, err := indexOffset(src.data, content, 0)
			if err != nil {
				return nil, err
			}
			exp, err := cbor.ReadInt(src.data, expOffset)
			if err != nil {
				return nil, err
			}
			mantissaOffset, _, err := indexOffset(src.data, content, 1)
			if err != nil {
				return nil, err
			}
			mantissa, err := readInteger(src, mantissaOffset)
			if err != nil {
				return nil, err
			}
			return DecimalFraction{Exponent: exp, Mantissa: mantissa}, nil
		},
		encode: func(native any) (any, error) {
			d, ok := native.(DecimalFraction)
			if !ok || d.Mantissa == nil {
				return nil, nativeTypeError("Fraction", native)
			}
			return []any{d.Exponent, d.Mantissa}, nil
		},
	}
}

// readInteger reads a plain integer or a bignum
func readInteger(src *Source, offset int) (*big.Int, error) {
	major, _, err := cbor.Header(src.data, offset)
	if err != nil {
		return nil, err
	}
	if major != cbor.MajorTypeSemanticTag {
		return cbor.ReadBigInt(src.data, offset)
	}
	tag, err := cbor.ReadTagNumber(src.data, offset)
	if err != nil {
		return nil, err
	}
	if tag != cbor.CborTagUnsignedBignum && tag != cbor.CborTagNegativeBignum {
		return nil, fmt.Errorf("%w: tag %d is not an integer", ErrTypeMismatch, tag)
	}
	native, err := BigNumTagStrategy(tag == cbor.CborTagNegativeBignum).Decode(src, offset)
	if err != nil {
		return nil, err
	}
	return native.(*big.Int), nil
}

// EncodedCborTagStrategy handles tag 24, a byte string holding an encoded item
func EncodedCborTagStrategy() TagStrategy {
	return &tagStrategy{
		tag: cbor.CborTagCbor,
		typ: TypeEncCBOR,
		decode: func(src *Source, _, content int) (any, error) {
			payload, err := cbor.ReadBytes(src.data, content)
			if err != nil {
				return nil, err
			}
			return cbor.WrappedCbor(payload), nil
		},
		encode: func(native any) (any, error) {
			w, ok := native.(cbor.WrappedCbor)
			if !ok {
				return nil, nativeTypeError("EncCBOR", native)
			}
			return w.Bytes(), nil
		},
	}
}

// RationalTagStrategy handles tag 30, [numerator, denominator]
func RationalTagStrategy() TagStrategy {
	return &tagStrategy{
		tag: cbor.CborTagRational,
		typ: TypeRational,
		decode: func(src *Source, offset, _ int) (any, error) {
			// The rational codec expects the complete tagged item
			span, err := cbor.Span(src.data, offset)
			if err != nil {
				return nil, err
			}
			var r cbor.Rat
			if _, err := cbor.Decode(span, &r); err != nil {
				return nil, err
			}
			return r.ToBigRat(), nil
		},
		encodeTagged: func(native any) ([]byte, error) {
			r, ok := native.(*big.Rat)
			if !ok || r == nil {
				return nil, nativeTypeError("Rational", native)
			}
			return (&cbor.Rat{Rat: r}).MarshalCBOR()
		},
	}
}

// URITagStrategy handles tag 32, a URI text string
func URITagStrategy() TagStrategy {
	return &tagStrategy{
		tag: cbor.CborTagUri,
		typ: TypeURI,
		decode: func(src *Source, _, content int) (any, error) {
			text, err := cbor.ReadText(src.data, content)
			if err != nil {
				return nil, err
			}
			return url.Parse(text)
		},
		encode: func(native any) (any, error) {
			u, ok := native.(*url.URL)
			if !ok || u == nil {
				return nil, nativeTypeError("URI", native)
			}
			return u.String(), nil
		},
	}
}

// UUIDTagStrategy handles tag 37, a 16 byte binary UUID
func UUIDTagStrategy() TagStrategy {
	return &tagStrategy{
		tag: cbor.CborTagUuid,
		typ: TypeUUID,
		decode: func(src *Source, _, content int) (any, error) {
			payload, err := cbor.ReadBytes(src.data, content)
			if err != nil {
				return nil, err
			}
			return uuid.FromBytes(payload)
		},
		encode: func(native any) (any, error) {
			u, ok := native.(uuid.UUID)
			if !ok {
				return nil, nativeTypeError("UUID", native)
			}
			return u[:], nil
		},
	}
}

type constructorTagStrategy struct{}

// ConstructorTagStrategy handles the constructor alternative tags 121-127,
// 1280-1400 and 101. It is not part of the default registry.
func ConstructorTagStrategy() TagStrategy {
	return constructorTagStrategy{}
}

func (constructorTagStrategy) Handles(tag uint64) bool {
	return cbor.IsAlternativeTag(tag)
}

func (constructorTagStrategy) ValueType() ValueType {
	return TypeConstructor
}

func (constructorTagStrategy) Spec(uint64) *TypeSpec {
	return SpecConstructor
}

func (constructorTagStrategy) Decode(src *Source, offset int) (any, error) {
	tag, err := cbor.ReadTagNumber(src.data, offset)
	if err != nil {
		return nil, err
	}
	content, err := tagContentOffset(src.data, offset)
	if err != nil {
		return nil, err
	}
	if alt, ok := cbor.AlternativeFromTag(tag); ok {
		fields, err := NewLazyValue(src, content)
		if err != nil {
			return nil, err
		}
		return Constructor{Alternative: alt, Fields: fields}, nil
	}
	// Tag 101 wraps [alternative, fields]
	altOffset, found, err := indexOffset(src.data, content, 0)
	if err != nil {
		return nil, err
	}
	fieldsOffset, found2, err := indexOffset(src.data, content, 1)
	if err != nil {
		return nil, err
	}
	if !found || !found2 {
		return nil, fmt.Errorf("%w: constructor must have an alternative and fields", cbor.ErrIllegalFormat)
	}
	alt, err := cbor.ReadUint(src.data, altOffset)
	if err != nil {
		return nil, err
	}
	fields, err := NewLazyValue(src, fieldsOffset)
	if err != nil {
		return nil, err
	}
	return Constructor{Alternative: uint(alt), Fields: fields}, nil
}

func (constructorTagStrategy) Encode(_ uint64, native any) ([]byte, error) {
	c, ok := native.(Constructor)
	if !ok {
		return nil, nativeTypeError("Constructor", native)
	}
	fields, err := c.Fields.Raw()
	if err != nil {
		return nil, err
	}
	tag, wrap := cbor.AlternativeToTag(c.Alternative)
	if wrap {
		return cbor.Encode(cbor.Tag{
			Number:  tag,
			Content: []any{uint64(c.Alternative), cbor.RawMessage(fields)},
		})
	}
	return cbor.Encode(cbor.Tag{Number: tag, Content: cbor.RawMessage(fields)})
}

// DefaultTagStrategies returns the strategies of the default registry
func DefaultTagStrategies() []TagStrategy {
	return []TagStrategy{
		DateTimeTagStrategy(),
		TimestampTagStrategy(),
		BigNumTagStrategy(false),
		BigNumTagStrategy(true),
		DecimalFractionTagStrategy(),
		EncodedCborTagStrategy(),
		RationalTagStrategy(),
		URITagStrategy(),
		UUIDTagStrategy(),
	}
}

// TagRegistry is an ordered list of tag strategies. The first strategy that
// handles a tag id wins. A registry is immutable once built.
type TagRegistry struct {
	strategies []TagStrategy
}

var defaultTagRegistry = NewTagRegistry(DefaultTagStrategies()...)

func NewTagRegistry(strategies ...TagStrategy) *TagRegistry {
	return &TagRegistry{
		strategies: append([]TagStrategy(nil), strategies...),
	}
}

// DefaultTagRegistry returns the shared registry of the default strategies
func DefaultTagRegistry() *TagRegistry {
	return defaultTagRegistry
}

// With returns a new registry with the given strategies placed ahead of the
// existing ones
func (r *TagRegistry) With(strategies ...TagStrategy) *TagRegistry {
	ret := make([]TagStrategy, 0, len(strategies)+r.Len())
	ret = append(ret, strategies...)
	if r != nil {
		ret = append(ret, r.strategies...)
	}
	return &TagRegistry{strategies: ret}
}

func (r *TagRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.strategies)
}

// Lookup returns the strategy for a tag id, or nil
func (r *TagRegistry) Lookup(tag uint64) TagStrategy {
	if r == nil {
		return nil
	}
	for _, strategy := range r.strategies {
		if strategy.Handles(tag) {
			return strategy
		}
	}
	return nil
}

// Encode encodes a native value under the given tag id
func (r *TagRegistry) Encode(tag uint64, native any) ([]byte, error) {
	strategy := r.Lookup(tag)
	if strategy == nil {
		return nil, fmt.Errorf("query: no tag strategy for tag %d", tag)
	}
	return strategy.Encode(tag, native)
}
