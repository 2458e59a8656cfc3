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
	"strconv"
)

// Predicate selects values during a search. Predicates used in compiled queries
// should be comparable so that equal queries can share a pipeline.
type Predicate interface {
	Match(v Value) (bool, error)
}

// TextEqual matches text strings equal to the given string
type TextEqual string

func (p TextEqual) Match(v Value) (bool, error) {
	if v.Type() != TypeTextString {
		return false, nil
	}
	if off, ok := v.Offset(); ok {
		return keyEquals(v.src.data, off, string(p))
	}
	text, err := v.Text()
	return text == string(p), err
}

func (p TextEqual) String() string {
	return strconv.Quote(string(p))
}

// IntEqual matches integers equal to the given value
type IntEqual int64

func (p IntEqual) Match(v Value) (bool, error) {
	if v.Type() != TypeUInt && v.Type() != TypeNInt {
		return false, nil
	}
	if off, ok := v.Offset(); ok {
		return keyEquals(v.src.data, off, int64(p))
	}
	i, err := v.BigInt()
	if err != nil {
		return false, err
	}
	return i.IsInt64() && i.Int64() == int64(p), nil
}

func (p IntEqual) String() string {
	return strconv.FormatInt(int64(p), 10)
}

// OfType matches values accepted by a type spec
type OfType struct {
	Spec *TypeSpec
}

func (p OfType) Match(v Value) (bool, error) {
	return p.Spec.Accepts(v), nil
}

func (p OfType) String() string {
	return "?" + p.Spec.String()
}

// PredicateFunc adapts a function to a Predicate. Queries holding one never
// compare equal to another query.
type PredicateFunc func(v Value) (bool, error)

func (f PredicateFunc) Match(v Value) (bool, error) {
	return f(v)
}

func (f PredicateFunc) String() string {
	return fmt.Sprintf("func@%p", f)
}
