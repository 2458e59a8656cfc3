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

// Projection assembles a new value from the matches of a query. Stages call it
// while traversing matched structure. A projection serves one evaluation.
//
// Values are passed as cursors: an offset cursor refers to the input, an
// on-stack cursor to a value the projection pushed onto the operand stack when
// its nested container ended, and a null cursor to an absent value.
type Projection interface {
	BeginSelect(qc *Context) error
	FinalizeSelect(qc *Context) (Value, error)
	BeginDictionary(qc *Context) error
	EndDictionary(qc *Context) error
	BeginSequence(qc *Context) error
	EndSequence(qc *Context) error
	// PutDictionaryKey writes a computed key: string, int64 or float64
	PutDictionaryKey(qc *Context, key any) error
	PutDictionaryValue(qc *Context, c Cursor) error
	PutDictionaryNullValue(qc *Context) error
	PutSequenceValue(qc *Context, c Cursor) error
	PutSequenceNullValue(qc *Context) error
}

// ProjectionFactory creates the projection for an evaluation
type ProjectionFactory func() Projection
