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
	"errors"
	"fmt"
)

var (
	// ErrIllegalFormat is returned for the reserved additional info values 28-30
	// and for indefinite lengths where the major type does not allow them
	ErrIllegalFormat = errors.New("cbor: illegal format")

	// ErrOverflow is returned when an encoded magnitude does not fit the
	// requested representation, or when items nest deeper than MaxNestedLevels
	ErrOverflow = errors.New("cbor: value exceeds representable range")

	// ErrUnexpectedType is returned when a primitive is applied to an item of
	// the wrong major type
	ErrUnexpectedType = errors.New("cbor: unexpected major type")
)

// NoSuchByteError is returned when decoding runs past the end of the input
type NoSuchByteError struct {
	Offset int
}

func (e *NoSuchByteError) Error() string {
	return fmt.Sprintf("cbor: no such byte at offset %d", e.Offset)
}

// IsMalformed reports whether err was caused by malformed input
func IsMalformed(err error) bool {
	var nsb *NoSuchByteError
	return errors.As(err, &nsb) ||
		errors.Is(err, ErrIllegalFormat) ||
		errors.Is(err, ErrOverflow)
}
