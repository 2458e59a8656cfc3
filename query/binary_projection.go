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

	"github.com/blinklabs-io/cborquery/cbor"
	"github.com/blinklabs-io/cborquery/internal/stack"
)

// BinaryProjection writes projected structure as CBOR. Containers are written
// with indefinite-length headers and matched values are copied from the input
// without re-encoding. The result of a select is a lazy value over the new bytes.
type BinaryProjection struct {
	buffers *stack.Stack[[]byte]
}

func NewBinaryProjection() Projection {
	return &BinaryProjection{
		buffers: stack.New[[]byte](),
	}
}

func (p *BinaryProjection) write(data ...byte) error {
	buf := p.buffers.PeekRef()
	if buf == nil {
		return fmt.Errorf("%w: write outside of a select", ErrInvalidQuery)
	}
	*buf = append(*buf, data...)
	return nil
}

// copyValue appends the exact encoding of the value at c
func (p *BinaryProjection) copyValue(qc *Context, c Cursor) error {
	switch c.Kind() {
	case CursorOnStack:
		// Nested containers are written in place
		return nil
	case CursorNull:
		return p.write(cbor.CborNull)
	}
	off, _ := c.Offset()
	span, err := cbor.Span(qc.src.data, off)
	if err != nil {
		return err
	}
	return p.write(span...)
}

func (p *BinaryProjection) BeginSelect(*Context) error {
	p.buffers.Push(make([]byte, 0, 64))
	return nil
}

func (p *BinaryProjection) FinalizeSelect(qc *Context) (Value, error) {
	buf, ok := p.buffers.Pop()
	if !ok {
		return Null, fmt.Errorf("%w: finalize without a select", ErrInvalidQuery)
	}
	return NewLazyValue(NewSource(buf, qc.src.tags), 0)
}

func (p *BinaryProjection) BeginDictionary(*Context) error {
	return p.write(cbor.IndefiniteHeader(cbor.MajorTypeDictionary))
}

func (p *BinaryProjection) EndDictionary(*Context) error {
	return p.write(cbor.CborBreak)
}

func (p *BinaryProjection) BeginSequence(*Context) error {
	return p.write(cbor.IndefiniteHeader(cbor.MajorTypeSequence))
}

func (p *BinaryProjection) EndSequence(*Context) error {
	return p.write(cbor.CborBreak)
}

func (p *BinaryProjection) PutDictionaryKey(_ *Context, key any) error {
	switch key.(type) {
	case string, int64, float64:
	default:
		return fmt.Errorf("%w: unsupported dictionary key type %T", ErrInvalidQuery, key)
	}
	encoded, err := cbor.Encode(key)
	if err != nil {
		return err
	}
	return p.write(encoded...)
}

func (p *BinaryProjection) PutDictionaryValue(qc *Context, c Cursor) error {
	return p.copyValue(qc, c)
}

func (p *BinaryProjection) PutDictionaryNullValue(*Context) error {
	return p.write(cbor.CborNull)
}

func (p *BinaryProjection) PutSequenceValue(qc *Context, c Cursor) error {
	return p.copyValue(qc, c)
}

func (p *BinaryProjection) PutSequenceNullValue(*Context) error {
	return p.write(cbor.CborNull)
}
