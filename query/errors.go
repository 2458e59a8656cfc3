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
	"errors"
	"fmt"
)

var (
	// ErrTypeMismatch is the base error for all type assertion and accessor failures
	ErrTypeMismatch = errors.New("query: type mismatch")

	// ErrInvalidQuery is returned by the builder for queries that cannot be compiled
	ErrInvalidQuery = errors.New("query: invalid query")

	// ErrDuplicateEntry is returned when a dictionary entry path produces more
	// than one value
	ErrDuplicateEntry = errors.New("query: duplicate dictionary entry value")

	// ErrOperandStack is returned when a stage finds the operand stack in an
	// unexpected state
	ErrOperandStack = errors.New("query: operand stack underflow")
)

// TypeMismatchError is returned when a type assertion fails against a value
// that is present
type TypeMismatchError struct {
	Expected *TypeSpec
	Actual   ValueType
	Offset   int
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf(
		"query: type mismatch at offset %d: expected %s, got %s",
		e.Offset,
		e.Expected,
		e.Actual,
	)
}

func (e *TypeMismatchError) Unwrap() error {
	return ErrTypeMismatch
}

func accessorError(want string, v Value) error {
	return fmt.Errorf("%w: value of type %s is not %s", ErrTypeMismatch, v.Type(), want)
}
