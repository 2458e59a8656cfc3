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

// Sequence is an ordered list of materialized values
type Sequence struct {
	items []Value
}

func NewSequence(items ...Value) *Sequence {
	return &Sequence{
		items: append([]Value(nil), items...),
	}
}

func (s *Sequence) Len() int {
	return len(s.items)
}

// At returns element i, or Null when out of range
func (s *Sequence) At(i int) Value {
	if i < 0 || i >= len(s.items) {
		return Null
	}
	return s.items[i]
}

func (s *Sequence) Append(v Value) {
	s.items = append(s.items, v)
}

// Values returns a copy of the elements
func (s *Sequence) Values() []Value {
	return append([]Value(nil), s.items...)
}

func (s *Sequence) Each(fn func(Value) bool) {
	for _, item := range s.items {
		if !fn(item) {
			return
		}
	}
}

// Find returns the first element matching pred, or Null
func (s *Sequence) Find(pred Predicate) (Value, error) {
	for _, item := range s.items {
		match, err := pred.Match(item)
		if err != nil {
			return Null, err
		}
		if match {
			return item, nil
		}
	}
	return Null, nil
}

func (s *Sequence) Contains(pred Predicate) (bool, error) {
	ret, err := s.Find(pred)
	return !ret.IsAbsent(), err
}

func (s *Sequence) MarshalCBOR() ([]byte, error) {
	ret := cbor.AppendHeader(nil, cbor.MajorTypeSequence, uint64(len(s.items)))
	for _, item := range s.items {
		raw, err := item.Raw()
		if err != nil {
			return nil, err
		}
		ret = append(ret, raw...)
	}
	return ret, nil
}

// Dictionary is a key-unique mapping of materialized values that keeps the
// insertion order of its keys
type Dictionary struct {
	keys   []Value
	values []Value
	index  map[any]int
}

func NewDictionary() *Dictionary {
	return &Dictionary{
		index: make(map[any]int),
	}
}

// rawKey identifies keys without a comparable native form by their encoding
type rawKey string

// keyOf returns the comparable form of a materialized key, matching normalizeKey
func keyOf(key Value) (any, error) {
	switch key.Type() {
	case TypeTextString:
		return key.Text()
	case TypeUInt:
		u, err := key.Uint()
		return normalizeUint(u), err
	case TypeNInt:
		i, err := key.BigInt()
		if err != nil {
			return nil, err
		}
		if i.IsInt64() {
			return i.Int64(), nil
		}
	case TypeFloat:
		f, err := key.Float()
		if err != nil {
			return nil, err
		}
		if !math.IsNaN(f) {
			return f, nil
		}
	case TypeBool:
		return key.Bool()
	case TypeByteString:
		b, err := key.Bytes()
		return cbor.NewByteString(b), err
	}
	raw, err := key.Raw()
	if err != nil {
		return nil, err
	}
	return rawKey(raw), nil
}

// Put stores value under key, replacing any value already stored under an equal
// key while keeping its position
func (d *Dictionary) Put(key, value Value) error {
	if key.IsAbsent() {
		return fmt.Errorf("%w: absent dictionary key", ErrInvalidQuery)
	}
	k, err := keyOf(key)
	if err != nil {
		return err
	}
	if i, ok := d.index[k]; ok {
		d.values[i] = value
		return nil
	}
	d.index[k] = len(d.keys)
	d.keys = append(d.keys, key)
	d.values = append(d.values, value)
	return nil
}

// Get looks up a key given in normalized Go form
func (d *Dictionary) Get(key any) (Value, bool) {
	i, ok := d.index[key]
	if !ok {
		return Null, false
	}
	return d.values[i], true
}

func (d *Dictionary) ContainsKey(key any) bool {
	_, ok := d.index[key]
	return ok
}

// GetFunc returns the value of the first entry whose key matches pred, or Null
func (d *Dictionary) GetFunc(pred Predicate) (Value, error) {
	for i, key := range d.keys {
		match, err := pred.Match(key)
		if err != nil {
			return Null, err
		}
		if match {
			return d.values[i], nil
		}
	}
	return Null, nil
}

// Contains reports whether any value matches pred
func (d *Dictionary) Contains(pred Predicate) (bool, error) {
	for _, value := range d.values {
		match, err := pred.Match(value)
		if err != nil || match {
			return match, err
		}
	}
	return false, nil
}

func (d *Dictionary) Len() int {
	return len(d.keys)
}

func (d *Dictionary) Each(fn func(key, value Value) bool) {
	for i, key := range d.keys {
		if !fn(key, d.values[i]) {
			return
		}
	}
}

func (d *Dictionary) MarshalCBOR() ([]byte, error) {
	ret := cbor.AppendHeader(nil, cbor.MajorTypeDictionary, uint64(len(d.keys)))
	for i, key := range d.keys {
		rawKey, err := key.Raw()
		if err != nil {
			return nil, err
		}
		rawValue, err := d.values[i].Raw()
		if err != nil {
			return nil, err
		}
		ret = append(ret, rawKey...)
		ret = append(ret, rawValue...)
	}
	return ret, nil
}
