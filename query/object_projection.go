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

	"github.com/blinklabs-io/cborquery/internal/stack"
)

type objectFrame struct {
	seq  *Sequence
	dict *Dictionary
	key  Value
}

// ObjectProjection builds projected structure as materialized values. Values
// read from the input are decoded as they are put.
type ObjectProjection struct {
	frames *stack.Stack[objectFrame]
}

func NewObjectProjection() Projection {
	return &ObjectProjection{
		frames: stack.New[objectFrame](),
	}
}

func (p *ObjectProjection) top() (*objectFrame, error) {
	frame := p.frames.PeekRef()
	if frame == nil {
		return nil, fmt.Errorf("%w: put outside of a container", ErrInvalidQuery)
	}
	return frame, nil
}

// resolve turns a cursor into a materialized value
func (p *ObjectProjection) resolve(qc *Context, c Cursor) (Value, error) {
	switch c.Kind() {
	case CursorOnStack:
		return qc.PopValue()
	case CursorNull:
		return NewNullValue(), nil
	}
	v, err := qc.ValueAt(c)
	if err != nil {
		return Null, err
	}
	return Materialize(v)
}

func (p *ObjectProjection) BeginSelect(*Context) error {
	return nil
}

func (p *ObjectProjection) FinalizeSelect(qc *Context) (Value, error) {
	return qc.PopValue()
}

func (p *ObjectProjection) BeginDictionary(*Context) error {
	p.frames.Push(objectFrame{dict: NewDictionary()})
	return nil
}

func (p *ObjectProjection) EndDictionary(qc *Context) error {
	frame, ok := p.frames.Pop()
	if !ok || frame.dict == nil {
		return fmt.Errorf("%w: unbalanced dictionary", ErrInvalidQuery)
	}
	qc.Push(NewDictionaryValue(frame.dict))
	return nil
}

func (p *ObjectProjection) BeginSequence(*Context) error {
	p.frames.Push(objectFrame{seq: NewSequence()})
	return nil
}

func (p *ObjectProjection) EndSequence(qc *Context) error {
	frame, ok := p.frames.Pop()
	if !ok || frame.seq == nil {
		return fmt.Errorf("%w: unbalanced sequence", ErrInvalidQuery)
	}
	qc.Push(NewSequenceValue(frame.seq))
	return nil
}

func (p *ObjectProjection) PutDictionaryKey(_ *Context, key any) error {
	frame, err := p.top()
	if err != nil {
		return err
	}
	if frame.dict == nil {
		return fmt.Errorf("%w: key outside of a dictionary", ErrInvalidQuery)
	}
	k, err := keyValue(key)
	if err != nil {
		return err
	}
	frame.key = k
	return nil
}

func (p *ObjectProjection) putDictionary(v Value) error {
	frame, err := p.top()
	if err != nil {
		return err
	}
	if frame.dict == nil || frame.key.IsAbsent() {
		return fmt.Errorf("%w: dictionary value without a key", ErrInvalidQuery)
	}
	key := frame.key
	frame.key = Null
	return frame.dict.Put(key, v)
}

func (p *ObjectProjection) PutDictionaryValue(qc *Context, c Cursor) error {
	v, err := p.resolve(qc, c)
	if err != nil {
		return err
	}
	return p.putDictionary(v)
}

func (p *ObjectProjection) PutDictionaryNullValue(*Context) error {
	return p.putDictionary(NewNullValue())
}

func (p *ObjectProjection) putSequence(v Value) error {
	frame, err := p.top()
	if err != nil {
		return err
	}
	if frame.seq == nil {
		return fmt.Errorf("%w: element outside of a sequence", ErrInvalidQuery)
	}
	frame.seq.Append(v)
	return nil
}

func (p *ObjectProjection) PutSequenceValue(qc *Context, c Cursor) error {
	v, err := p.resolve(qc, c)
	if err != nil {
		return err
	}
	return p.putSequence(v)
}

func (p *ObjectProjection) PutSequenceNullValue(*Context) error {
	return p.putSequence(NewNullValue())
}
