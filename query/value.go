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
	"reflect"
	"time"

	"github.com/blinklabs-io/cborquery/cbor"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

// Source is the encoded input that lazy values read from. Values borrow it; the
// bytes must not be modified while any value refers to them.
type Source struct {
	data []byte
	tags *TagRegistry
}

// NewSource wraps data. A nil registry selects the default one.
func NewSource(data []byte, tags *TagRegistry) *Source {
	if tags == nil {
		tags = DefaultTagRegistry()
	}
	return &Source{
		data: data,
		tags: tags,
	}
}

func (s *Source) Bytes() []byte {
	return s.data
}

func (s *Source) Tags() *TagRegistry {
	return s.tags
}

type valueKind uint8

const (
	kindNull valueKind = iota
	kindLazy
	kindMaterialized
)

// Value is a query result. A lazy value holds an offset into a Source and decodes
// on every access. A materialized value holds a decoded payload. Null, the absent
// value, is neither.
type Value struct {
	kind    valueKind
	major   cbor.MajorType
	typ     ValueType
	src     *Source
	offset  int
	payload any
}

// Null is the absent value
var Null = Value{}

// taggedPayload is the payload of a materialized semantic tag
type taggedPayload struct {
	number  uint64
	spec    *TypeSpec
	native  any
	content Value
}

func classify(src *Source, offset int) (cbor.MajorType, ValueType, error) {
	major, ai, err := cbor.Header(src.data, offset)
	if err != nil {
		return 0, TypeUnknown, err
	}
	switch major {
	case cbor.MajorTypeUnsignedInteger:
		return major, TypeUInt, nil
	case cbor.MajorTypeNegativeInteger:
		return major, TypeNInt, nil
	case cbor.MajorTypeByteString:
		return major, TypeByteString, nil
	case cbor.MajorTypeTextString:
		return major, TypeTextString, nil
	case cbor.MajorTypeSequence:
		return major, TypeSequence, nil
	case cbor.MajorTypeDictionary:
		return major, TypeDictionary, nil
	case cbor.MajorTypeSemanticTag:
		tag, err := cbor.ReadTagNumber(src.data, offset)
		if err != nil {
			return 0, TypeUnknown, err
		}
		if strategy := src.tags.Lookup(tag); strategy != nil {
			return major, strategy.ValueType(), nil
		}
		return major, TypeTag, nil
	default:
		switch ai {
		case cbor.CborSimpleFalse, cbor.CborSimpleTrue:
			return major, TypeBool, nil
		case cbor.CborSimpleNull:
			return major, TypeNull, nil
		case cbor.CborSimpleUndefined:
			return major, TypeUndefined, nil
		case cbor.CborAdditionalInfoUint16, cbor.CborAdditionalInfoUint32, cbor.CborAdditionalInfoUint64:
			return major, TypeFloat, nil
		case cbor.CborAdditionalInfoIndefinite:
			return 0, TypeUnknown, fmt.Errorf("%w: unexpected break at offset %d", cbor.ErrIllegalFormat, offset)
		}
		if _, err := cbor.HeaderSize(src.data, offset); err != nil {
			return 0, TypeUnknown, err
		}
		return major, TypeSimple, nil
	}
}

// NewLazyValue classifies the item at offset and returns a value reading from src
func NewLazyValue(src *Source, offset int) (Value, error) {
	major, typ, err := classify(src, offset)
	if err != nil {
		return Null, err
	}
	return Value{
		kind:   kindLazy,
		major:  major,
		typ:    typ,
		src:    src,
		offset: offset,
	}, nil
}

// Parse returns a lazy value for the first item in data
func Parse(data []byte, tags *TagRegistry) (Value, error) {
	return NewLazyValue(NewSource(data, tags), 0)
}

func materialized(major cbor.MajorType, typ ValueType, payload any) Value {
	return Value{
		kind:    kindMaterialized,
		major:   major,
		typ:     typ,
		payload: payload,
	}
}

func NewUint(u uint64) Value {
	return materialized(cbor.MajorTypeUnsignedInteger, TypeUInt, u)
}

func NewInt(i int64) Value {
	if i >= 0 {
		return NewUint(uint64(i))
	}
	return materialized(cbor.MajorTypeNegativeInteger, TypeNInt, i)
}

func NewFloat(f float64) Value {
	return materialized(cbor.MajorTypeFloatingPointOrSimple, TypeFloat, f)
}

func NewBool(b bool) Value {
	return materialized(cbor.MajorTypeFloatingPointOrSimple, TypeBool, b)
}

func NewText(s string) Value {
	return materialized(cbor.MajorTypeTextString, TypeTextString, s)
}

func NewBytes(b []byte) Value {
	return materialized(cbor.MajorTypeByteString, TypeByteString, append([]byte(nil), b...))
}

// NewNullValue returns an encoded null, as opposed to the absent Null
func NewNullValue() Value {
	return materialized(cbor.MajorTypeFloatingPointOrSimple, TypeNull, nil)
}

func NewSequenceValue(seq *Sequence) Value {
	return materialized(cbor.MajorTypeSequence, TypeSequence, seq)
}

func NewDictionaryValue(dict *Dictionary) Value {
	return materialized(cbor.MajorTypeDictionary, TypeDictionary, dict)
}

// keyValue converts a normalized dictionary key into a materialized value
func keyValue(key any) (Value, error) {
	switch k := key.(type) {
	case string:
		return NewText(k), nil
	case int64:
		return NewInt(k), nil
	case uint64:
		return NewUint(k), nil
	case float64:
		return NewFloat(k), nil
	case bool:
		return NewBool(k), nil
	case cbor.ByteString:
		return NewBytes(k.Bytes()), nil
	default:
		return Null, fmt.Errorf("%w: unsupported dictionary key type %T", ErrInvalidQuery, key)
	}
}

func (v Value) IsNull() bool {
	return v.kind == kindNull || v.typ == TypeNull
}

// IsAbsent reports whether v is the Null value rather than an encoded null
func (v Value) IsAbsent() bool {
	return v.kind == kindNull
}

func (v Value) IsLazy() bool {
	return v.kind == kindLazy
}

func (v Value) IsMaterialized() bool {
	return v.kind == kindMaterialized
}

func (v Value) Major() cbor.MajorType {
	if v.kind == kindNull {
		return cbor.MajorTypeFloatingPointOrSimple
	}
	return v.major
}

func (v Value) Type() ValueType {
	if v.kind == kindNull {
		return TypeNull
	}
	return v.typ
}

// Offset returns the position of a lazy value in its source
func (v Value) Offset() (int, bool) {
	return v.offset, v.kind == kindLazy
}

// Source returns the source of a lazy value
func (v Value) Source() *Source {
	return v.src
}

// Spec returns the most specific type spec describing v
func (v Value) Spec() *TypeSpec {
	if v.major == cbor.MajorTypeSemanticTag && v.kind != kindNull {
		if p, ok := v.payload.(*taggedPayload); ok {
			return p.spec
		}
		tag, _ := v.TagNumber()
		if strategy := v.src.tags.Lookup(tag); strategy != nil {
			return strategy.Spec(tag)
		}
		return TagSpec(tag)
	}
	return SpecOf(v.Type())
}

func (v Value) Uint() (uint64, error) {
	if v.typ != TypeUInt || v.kind == kindNull {
		return 0, accessorError("an unsigned integer", v)
	}
	if v.kind == kindMaterialized {
		return v.payload.(uint64), nil
	}
	return cbor.ReadUint(v.src.data, v.offset)
}

func (v Value) Int() (int64, error) {
	if v.kind == kindNull || (v.typ != TypeUInt && v.typ != TypeNInt) {
		return 0, accessorError("an integer", v)
	}
	if v.kind == kindLazy {
		return cbor.ReadInt(v.src.data, v.offset)
	}
	switch p := v.payload.(type) {
	case uint64:
		if p > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d does not fit int64", cbor.ErrOverflow, p)
		}
		return int64(p), nil
	case int64:
		return p, nil
	case *big.Int:
		if !p.IsInt64() {
			return 0, fmt.Errorf("%w: %s does not fit int64", cbor.ErrOverflow, p)
		}
		return p.Int64(), nil
	}
	return 0, accessorError("an integer", v)
}

// BigInt returns integers and bignums without range limits
func (v Value) BigInt() (*big.Int, error) {
	switch {
	case v.kind == kindNull:
	case v.typ == TypeUBigNum || v.typ == TypeNBigNum:
		native, err := v.tagNative()
		if err != nil {
			return nil, err
		}
		return new(big.Int).Set(native.(*big.Int)), nil
	case v.typ == TypeUInt || v.typ == TypeNInt:
		if v.kind == kindLazy {
			return cbor.ReadBigInt(v.src.data, v.offset)
		}
		switch p := v.payload.(type) {
		case uint64:
			return new(big.Int).SetUint64(p), nil
		case int64:
			return big.NewInt(p), nil
		case *big.Int:
			return new(big.Int).Set(p), nil
		}
	}
	return nil, accessorError("an integer", v)
}

func (v Value) Float() (float64, error) {
	if v.typ != TypeFloat || v.kind == kindNull {
		return 0, accessorError("a float", v)
	}
	if v.kind == kindMaterialized {
		return v.payload.(float64), nil
	}
	return cbor.ReadFloat(v.src.data, v.offset)
}

func (v Value) Bool() (bool, error) {
	if v.typ != TypeBool || v.kind == kindNull {
		return false, accessorError("a boolean", v)
	}
	if v.kind == kindMaterialized {
		return v.payload.(bool), nil
	}
	return cbor.ReadBool(v.src.data, v.offset)
}

func (v Value) Text() (string, error) {
	if v.typ != TypeTextString || v.kind == kindNull {
		return "", accessorError("a text string", v)
	}
	if v.kind == kindMaterialized {
		return v.payload.(string), nil
	}
	return cbor.ReadText(v.src.data, v.offset)
}

func (v Value) Bytes() ([]byte, error) {
	if v.typ != TypeByteString || v.kind == kindNull {
		return nil, accessorError("a byte string", v)
	}
	if v.kind == kindMaterialized {
		return append([]byte(nil), v.payload.([]byte)...), nil
	}
	return cbor.ReadBytes(v.src.data, v.offset)
}

// Simple returns the number of a simple value other than a boolean or null
func (v Value) Simple() (uint8, error) {
	if v.typ != TypeSimple || v.kind == kindNull {
		return 0, accessorError("a simple value", v)
	}
	if v.kind == kindMaterialized {
		return v.payload.(uint8), nil
	}
	return cbor.ReadSimple(v.src.data, v.offset)
}

// TagNumber returns the semantic tag id of a tagged value
func (v Value) TagNumber() (uint64, bool) {
	if v.kind == kindNull || v.major != cbor.MajorTypeSemanticTag {
		return 0, false
	}
	if v.kind == kindMaterialized {
		return v.payload.(*taggedPayload).number, true
	}
	tag, err := cbor.ReadTagNumber(v.src.data, v.offset)
	return tag, err == nil
}

// Tag returns the tag id and the tagged content of any semantic tag
func (v Value) Tag() (uint64, Value, error) {
	if v.kind == kindNull || v.major != cbor.MajorTypeSemanticTag {
		return 0, Null, accessorError("a semantic tag", v)
	}
	if v.kind == kindMaterialized {
		p := v.payload.(*taggedPayload)
		return p.number, p.content, nil
	}
	tag, err := cbor.ReadTagNumber(v.src.data, v.offset)
	if err != nil {
		return 0, Null, err
	}
	content, err := tagContentOffset(v.src.data, v.offset)
	if err != nil {
		return 0, Null, err
	}
	contentValue, err := NewLazyValue(v.src, content)
	if err != nil {
		return 0, Null, err
	}
	return tag, contentValue, nil
}

// tagNative returns the payload decoded by the tag strategy
func (v Value) tagNative() (any, error) {
	if v.kind == kindMaterialized {
		p := v.payload.(*taggedPayload)
		if p.native == nil {
			return nil, accessorError("a registered tag", v)
		}
		return p.native, nil
	}
	tag, err := cbor.ReadTagNumber(v.src.data, v.offset)
	if err != nil {
		return nil, err
	}
	strategy := v.src.tags.Lookup(tag)
	if strategy == nil {
		return nil, accessorError("a registered tag", v)
	}
	return strategy.Decode(v.src, v.offset)
}

// Time returns DateTime and Timestamp values
func (v Value) Time() (time.Time, error) {
	if v.kind == kindNull || (v.typ != TypeDateTime && v.typ != TypeTimestamp) {
		return time.Time{}, accessorError("a date/time", v)
	}
	native, err := v.tagNative()
	if err != nil {
		return time.Time{}, err
	}
	return native.(time.Time), nil
}

func (v Value) URI() (*url.URL, error) {
	if v.typ != TypeURI || v.kind == kindNull {
		return nil, accessorError("a URI", v)
	}
	native, err := v.tagNative()
	if err != nil {
		return nil, err
	}
	return native.(*url.URL), nil
}

func (v Value) UUID() (uuid.UUID, error) {
	if v.typ != TypeUUID || v.kind == kindNull {
		return uuid.Nil, accessorError("a UUID", v)
	}
	native, err := v.tagNative()
	if err != nil {
		return uuid.Nil, err
	}
	return native.(uuid.UUID), nil
}

// Rat returns rationals, decimal fractions and integers as exact rationals
func (v Value) Rat() (*big.Rat, error) {
	switch {
	case v.kind == kindNull:
	case v.typ == TypeRational:
		native, err := v.tagNative()
		if err != nil {
			return nil, err
		}
		return new(big.Rat).Set(native.(*big.Rat)), nil
	case v.typ == TypeFraction:
		native, err := v.tagNative()
		if err != nil {
			return nil, err
		}
		return native.(DecimalFraction).Rat(), nil
	case v.typ == TypeUInt || v.typ == TypeNInt || v.typ == TypeUBigNum || v.typ == TypeNBigNum:
		i, err := v.BigInt()
		if err != nil {
			return nil, err
		}
		return new(big.Rat).SetInt(i), nil
	}
	return nil, accessorError("a rational", v)
}

func (v Value) Fraction() (DecimalFraction, error) {
	if v.typ != TypeFraction || v.kind == kindNull {
		return DecimalFraction{}, accessorError("a decimal fraction", v)
	}
	native, err := v.tagNative()
	if err != nil {
		return DecimalFraction{}, err
	}
	return native.(DecimalFraction), nil
}

// Embedded returns the item encoded inside a tag 24 byte string
func (v Value) Embedded() (Value, error) {
	if v.typ != TypeEncCBOR || v.kind == kindNull {
		return Null, accessorError("embedded CBOR", v)
	}
	native, err := v.tagNative()
	if err != nil {
		return Null, err
	}
	tags := DefaultTagRegistry()
	if v.src != nil {
		tags = v.src.tags
	}
	return NewLazyValue(NewSource(native.(cbor.WrappedCbor).Bytes(), tags), 0)
}

func (v Value) Constructor() (Constructor, error) {
	if v.typ != TypeConstructor || v.kind == kindNull {
		return Constructor{}, accessorError("a constructor", v)
	}
	native, err := v.tagNative()
	if err != nil {
		return Constructor{}, err
	}
	return native.(Constructor), nil
}

// Len returns the number of elements or entries of a container, or the payload
// length of a string
func (v Value) Len() (int, error) {
	switch {
	case v.kind == kindNull:
	case v.typ == TypeSequence:
		if v.kind == kindMaterialized {
			return v.payload.(*Sequence).Len(), nil
		}
		return cbor.ElementCount(v.src.data, v.offset)
	case v.typ == TypeDictionary:
		if v.kind == kindMaterialized {
			return v.payload.(*Dictionary).Len(), nil
		}
		return cbor.ElementCount(v.src.data, v.offset)
	case v.typ == TypeTextString:
		text, err := v.Text()
		return len(text), err
	case v.typ == TypeByteString:
		payload, err := v.Bytes()
		return len(payload), err
	}
	return 0, accessorError("a container or string", v)
}

// Index returns element i of a sequence, or Null when out of range
func (v Value) Index(i int) (Value, error) {
	if v.typ != TypeSequence || v.kind == kindNull {
		return Null, accessorError("a sequence", v)
	}
	if v.kind == kindMaterialized {
		return v.payload.(*Sequence).At(i), nil
	}
	pos, found, err := indexOffset(v.src.data, v.offset, i)
	if err != nil || !found {
		return Null, err
	}
	return NewLazyValue(v.src, pos)
}

// Get returns the value stored under key in a dictionary, or Null. Keys may be
// strings, integers, floats, booleans or byte strings.
func (v Value) Get(key any) (Value, error) {
	if v.typ != TypeDictionary || v.kind == kindNull {
		return Null, accessorError("a dictionary", v)
	}
	normalized, err := normalizeKey(key)
	if err != nil {
		return Null, err
	}
	if v.kind == kindMaterialized {
		ret, _ := v.payload.(*Dictionary).Get(normalized)
		return ret, nil
	}
	pos, found, err := keyOffset(v.src.data, v.offset, normalized)
	if err != nil || !found {
		return Null, err
	}
	return NewLazyValue(v.src, pos)
}

// Each calls fn with every element of a sequence or every value of a dictionary
// until fn returns false
func (v Value) Each(fn func(Value) bool) error {
	if v.kind == kindNull || !v.typ.IsContainer() {
		return accessorError("a container", v)
	}
	if v.kind == kindMaterialized {
		if v.typ == TypeSequence {
			v.payload.(*Sequence).Each(fn)
			return nil
		}
		v.payload.(*Dictionary).Each(func(_, value Value) bool {
			return fn(value)
		})
		return nil
	}
	if v.typ == TypeDictionary {
		return eachEntry(v.src.data, v.offset, func(_, valuePos int) (bool, error) {
			item, err := NewLazyValue(v.src, valuePos)
			if err != nil {
				return false, err
			}
			return fn(item), nil
		})
	}
	return eachItem(v.src.data, v.offset, func(pos int) (bool, error) {
		item, err := NewLazyValue(v.src, pos)
		if err != nil {
			return false, err
		}
		return fn(item), nil
	})
}

// Entries calls fn with every entry of a dictionary in encoded order until fn
// returns false
func (v Value) Entries(fn func(key, value Value) bool) error {
	if v.typ != TypeDictionary || v.kind == kindNull {
		return accessorError("a dictionary", v)
	}
	if v.kind == kindMaterialized {
		v.payload.(*Dictionary).Each(fn)
		return nil
	}
	return eachEntry(v.src.data, v.offset, func(keyPos, valuePos int) (bool, error) {
		key, err := NewLazyValue(v.src, keyPos)
		if err != nil {
			return false, err
		}
		value, err := NewLazyValue(v.src, valuePos)
		if err != nil {
			return false, err
		}
		return fn(key, value), nil
	})
}

// Find returns the first element of a sequence, or value of a dictionary,
// matching pred, or Null
func (v Value) Find(pred Predicate) (Value, error) {
	ret := Null
	var matchErr error
	err := v.Each(func(item Value) bool {
		match, err := pred.Match(item)
		if err != nil {
			matchErr = err
			return false
		}
		if match {
			ret = item
			return false
		}
		return true
	})
	if err != nil {
		return Null, err
	}
	return ret, matchErr
}

// Contains reports whether any element or dictionary value matches pred
func (v Value) Contains(pred Predicate) (bool, error) {
	ret, err := v.Find(pred)
	if err != nil {
		return false, err
	}
	return !ret.IsAbsent(), nil
}

// ContainsKey reports whether a dictionary holds key
func (v Value) ContainsKey(key any) (bool, error) {
	if v.typ != TypeDictionary || v.kind == kindNull {
		return false, accessorError("a dictionary", v)
	}
	normalized, err := normalizeKey(key)
	if err != nil {
		return false, err
	}
	if v.kind == kindMaterialized {
		return v.payload.(*Dictionary).ContainsKey(normalized), nil
	}
	_, found, err := keyOffset(v.src.data, v.offset, normalized)
	return found, err
}

// Materialize decodes a lazy value, recursively, into a materialized value.
// Nesting deeper than cbor.MaxNestedLevels fails with cbor.ErrOverflow.
func Materialize(v Value) (Value, error) {
	if v.kind != kindLazy {
		return v, nil
	}
	ret, _, err := materialize(v, 0)
	return ret, err
}

// materialize decodes the lazy value v and returns the offset just past it
func materialize(v Value, depth int) (Value, int, error) {
	switch {
	case v.typ == TypeSequence || v.typ == TypeDictionary:
		if depth >= cbor.MaxNestedLevels {
			return Null, 0, cbor.NestingError(v.offset)
		}
		return materializeContainer(v, depth)
	case v.major == cbor.MajorTypeSemanticTag:
		if depth >= cbor.MaxNestedLevels {
			return Null, 0, cbor.NestingError(v.offset)
		}
		return materializeTag(v, depth)
	}
	m, err := materializeScalar(v)
	if err != nil {
		return Null, 0, err
	}
	size, err := cbor.ByteSize(v.src.data, v.offset)
	if err != nil {
		return Null, 0, err
	}
	return m, v.offset + size, nil
}

func materializeScalar(v Value) (Value, error) {
	switch v.typ {
	case TypeUInt:
		u, err := v.Uint()
		return NewUint(u), err
	case TypeNInt:
		i, err := v.BigInt()
		if err != nil {
			return Null, err
		}
		if i.IsInt64() {
			return NewInt(i.Int64()), nil
		}
		return materialized(cbor.MajorTypeNegativeInteger, TypeNInt, i), nil
	case TypeFloat:
		f, err := v.Float()
		return NewFloat(f), err
	case TypeBool:
		b, err := v.Bool()
		return NewBool(b), err
	case TypeNull:
		return NewNullValue(), nil
	case TypeUndefined:
		return materialized(cbor.MajorTypeFloatingPointOrSimple, TypeUndefined, nil), nil
	case TypeSimple:
		s, err := v.Simple()
		return materialized(cbor.MajorTypeFloatingPointOrSimple, TypeSimple, s), err
	case TypeByteString:
		b, err := v.Bytes()
		return materialized(cbor.MajorTypeByteString, TypeByteString, b), err
	case TypeTextString:
		s, err := v.Text()
		return NewText(s), err
	default:
		return Null, accessorError("a scalar", v)
	}
}

func materializeContainer(v Value, depth int) (Value, int, error) {
	child := func(pos int) (Value, int, error) {
		item, err := NewLazyValue(v.src, pos)
		if err != nil {
			return Null, 0, err
		}
		return materialize(item, depth+1)
	}
	if v.typ == TypeSequence {
		seq := NewSequence()
		end, err := walkItems(v.src.data, v.offset, func(pos int) (int, error) {
			m, next, err := child(pos)
			if err != nil {
				return 0, err
			}
			seq.Append(m)
			return next, nil
		})
		if err != nil {
			return Null, 0, err
		}
		return NewSequenceValue(seq), end, nil
	}
	dict := NewDictionary()
	var key Value
	pending := false
	end, err := walkItems(v.src.data, v.offset, func(pos int) (int, error) {
		m, next, err := child(pos)
		if err != nil {
			return 0, err
		}
		if !pending {
			key, pending = m, true
			return next, nil
		}
		pending = false
		return next, dict.Put(key, m)
	})
	if err != nil {
		return Null, 0, err
	}
	if pending {
		return Null, 0, fmt.Errorf("%w: dictionary at offset %d has a key without a value", cbor.ErrIllegalFormat, v.offset)
	}
	return NewDictionaryValue(dict), end, nil
}

func materializeTag(v Value, depth int) (Value, int, error) {
	tag, content, err := v.Tag()
	if err != nil {
		return Null, 0, err
	}
	p := &taggedPayload{
		number: tag,
		spec:   v.Spec(),
	}
	var end int
	if p.content, end, err = materialize(content, depth+1); err != nil {
		return Null, 0, err
	}
	if v.typ != TypeTag {
		if p.native, err = v.tagNative(); err != nil {
			return Null, 0, err
		}
		// Constructor fields must not keep borrowing the source
		if c, ok := p.native.(Constructor); ok {
			c.Fields = constructorFields(c.Fields, content.offset, p.content)
			p.native = c
		}
	}
	return materialized(cbor.MajorTypeSemanticTag, v.typ, p), end, nil
}

// constructorFields finds the already materialized fields of a constructor
// within its materialized tag content
func constructorFields(fields Value, contentOffset int, content Value) Value {
	if !fields.IsLazy() {
		return fields
	}
	if fields.offset == contentOffset {
		return content
	}
	// Tag 101 content is [alternative, fields]
	if seq, ok := content.payload.(*Sequence); ok {
		return seq.At(1)
	}
	return fields
}

// Interface converts v into plain Go values. Sequences become []any, dictionaries
// become map[any]any and byte strings used as keys become cbor.ByteString.
// Registered tags become their decoded form, other tags become cbor.Tag.
func (v Value) Interface() (any, error) {
	if v.kind == kindNull {
		return nil, nil
	}
	if v.kind == kindLazy {
		m, err := Materialize(v)
		if err != nil {
			return nil, err
		}
		return m.Interface()
	}
	switch p := v.payload.(type) {
	case *Sequence:
		ret := make([]any, 0, p.Len())
		for _, item := range p.items {
			native, err := item.Interface()
			if err != nil {
				return nil, err
			}
			ret = append(ret, native)
		}
		return ret, nil
	case *Dictionary:
		ret := make(map[any]any, p.Len())
		for i, key := range p.keys {
			nativeKey, err := interfaceKey(key)
			if err != nil {
				return nil, err
			}
			native, err := p.values[i].Interface()
			if err != nil {
				return nil, err
			}
			ret[nativeKey] = native
		}
		return ret, nil
	case *taggedPayload:
		if p.native != nil {
			if c, ok := p.native.(Constructor); ok {
				fields, err := c.Fields.Interface()
				if err != nil {
					return nil, err
				}
				return cbor.Tag{Number: p.number, Content: fields}, nil
			}
			return p.native, nil
		}
		content, err := p.content.Interface()
		if err != nil {
			return nil, err
		}
		return cbor.Tag{Number: p.number, Content: content}, nil
	case []byte:
		return append([]byte(nil), p...), nil
	default:
		return p, nil
	}
}

func interfaceKey(key Value) (any, error) {
	switch key.Type() {
	case TypeByteString:
		b, err := key.Bytes()
		return cbor.NewByteString(b), err
	case TypeSequence, TypeDictionary:
		raw, err := key.Raw()
		return string(raw), err
	default:
		native, err := key.Interface()
		if err != nil {
			return nil, err
		}
		if t, ok := native.(cbor.Tag); ok {
			raw, err := cbor.Encode(t)
			return string(raw), err
		}
		return native, nil
	}
}

// Raw returns the encoding of v. Lazy values return a copy of their exact input
// bytes.
func (v Value) Raw() ([]byte, error) {
	switch v.kind {
	case kindNull:
		return []byte{cbor.CborNull}, nil
	case kindLazy:
		return cbor.RawSpan(v.src.data, v.offset)
	}
	switch p := v.payload.(type) {
	case *Sequence:
		return p.MarshalCBOR()
	case *Dictionary:
		return p.MarshalCBOR()
	case *taggedPayload:
		content, err := p.content.Raw()
		if err != nil {
			return nil, err
		}
		ret := cbor.AppendHeader(nil, cbor.MajorTypeSemanticTag, p.number)
		return append(ret, content...), nil
	}
	switch v.typ {
	case TypeNull:
		return []byte{cbor.CborNull}, nil
	case TypeUndefined:
		return []byte{cbor.CborUndefined}, nil
	case TypeSimple:
		return cbor.AppendHeader(nil, cbor.MajorTypeFloatingPointOrSimple, uint64(v.payload.(uint8))), nil
	}
	return cbor.Encode(v.payload)
}

func (v Value) MarshalCBOR() ([]byte, error) {
	return v.Raw()
}

// Unmarshal decodes v into dest
func (v Value) Unmarshal(dest any) error {
	raw, err := v.Raw()
	if err != nil {
		return err
	}
	_, err = cbor.Decode(raw, dest)
	return err
}

// DecodeGeneric decodes v into dest, bypassing any UnmarshalCBOR method of dest
func (v Value) DecodeGeneric(dest any) error {
	raw, err := v.Raw()
	if err != nil {
		return err
	}
	return cbor.DecodeGeneric(raw, dest)
}

// Bind copies a dictionary value into the struct or map pointed to by dest.
// Struct fields are matched using their cbor tag.
func (v Value) Bind(dest any) error {
	native, err := v.Interface()
	if err != nil {
		return err
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dest,
		TagName:          "cbor",
		WeaklyTypedInput: false,
		DecodeHook:       byteStringHook,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(native)
}

func byteStringHook(from, to reflect.Type, data any) (any, error) {
	if bs, ok := data.(cbor.ByteString); ok && to.Kind() != reflect.Struct {
		return bs.Bytes(), nil
	}
	return data, nil
}

// String renders v in diagnostic notation
func (v Value) String() string {
	if v.kind == kindNull {
		return "absent"
	}
	raw, err := v.Raw()
	if err != nil {
		return fmt.Sprintf("<invalid: %s>", err)
	}
	diag, err := cbor.Diagnose(raw)
	if err != nil {
		return fmt.Sprintf("<invalid: %s>", err)
	}
	return diag
}
