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

import "strconv"

// CursorKind discriminates the positions a stage can hand to the next one
type CursorKind uint8

const (
	// CursorNull marks a path that resolved to nothing
	CursorNull CursorKind = iota
	// CursorOffset points at an item in the evaluation input
	CursorOffset
	// CursorOnStack marks a value that was already materialized and pushed onto
	// the operand stack
	CursorOnStack
)

// Cursor is the current candidate position during evaluation
type Cursor struct {
	kind   CursorKind
	offset int
}

// FromOffset returns a cursor for an item in the input. Offsets are never
// negative.
func FromOffset(offset int) Cursor {
	if offset < 0 {
		panic("query: negative cursor offset " + strconv.Itoa(offset))
	}
	return Cursor{kind: CursorOffset, offset: offset}
}

func OnStack() Cursor {
	return Cursor{kind: CursorOnStack}
}

func NullCursor() Cursor {
	return Cursor{kind: CursorNull}
}

func (c Cursor) Kind() CursorKind {
	return c.kind
}

// Offset returns the input offset of an offset cursor
func (c Cursor) Offset() (int, bool) {
	return c.offset, c.kind == CursorOffset
}

func (c Cursor) IsNull() bool {
	return c.kind == CursorNull
}

func (c Cursor) String() string {
	switch c.kind {
	case CursorOffset:
		return "@" + strconv.Itoa(c.offset)
	case CursorOnStack:
		return "stack"
	default:
		return "null"
	}
}
