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

type frameKind uint8

const (
	frameSequence frameKind = iota
	frameDictionary
	frameEntry
)

// projectionFrame tracks the projected container a stage is nested in
type projectionFrame struct {
	kind   frameKind
	key    any
	filled bool
}

// claimEntry writes the key of the entry frame before its value
func (qc *Context) claimEntry(frame *projectionFrame) error {
	if frame.filled {
		return fmt.Errorf("%w: key %v", ErrDuplicateEntry, frame.key)
	}
	frame.filled = true
	return qc.projection.PutDictionaryKey(qc, frame.key)
}

// put hands the value at c to the enclosing projected container, or to the
// consumer at the top level
func (qc *Context) put(c Cursor) (VisitResult, error) {
	frame := qc.frames.PeekRef()
	if frame == nil {
		v, err := qc.ValueAt(c)
		if err != nil {
			return Exit, err
		}
		return qc.deliver(v), nil
	}
	p := qc.projection
	var err error
	switch frame.kind {
	case frameSequence:
		if c.IsNull() {
			err = p.PutSequenceNullValue(qc)
		} else {
			err = p.PutSequenceValue(qc, c)
		}
	case frameEntry:
		if err = qc.claimEntry(frame); err != nil {
			break
		}
		if c.IsNull() {
			err = p.PutDictionaryNullValue(qc)
		} else {
			err = p.PutDictionaryValue(qc, c)
		}
	default:
		err = fmt.Errorf("%w: dictionary values need an entry key", ErrInvalidQuery)
	}
	if err != nil {
		return Exit, err
	}
	return Continue, nil
}

// project builds a sequence or dictionary from the children of self. At the top
// level the finished container is delivered to the consumer.
func (qc *Context) project(self NodeID, kind frameKind) (VisitResult, error) {
	if qc.cursor.IsNull() {
		return qc.put(qc.cursor)
	}
	p := qc.projection
	topLevel := true
	var parentKind frameKind
	if parent := qc.frames.PeekRef(); parent != nil {
		topLevel = false
		parentKind = parent.kind
		switch parent.kind {
		case frameEntry:
			if err := qc.claimEntry(parent); err != nil {
				return Exit, err
			}
		case frameDictionary:
			return Exit, fmt.Errorf("%w: dictionary values need an entry key", ErrInvalidQuery)
		}
	}
	if topLevel {
		if err := p.BeginSelect(qc); err != nil {
			return Exit, err
		}
	}
	var err error
	if kind == frameSequence {
		err = p.BeginSequence(qc)
	} else {
		err = p.BeginDictionary(qc)
	}
	if err != nil {
		return Exit, err
	}
	qc.frames.Push(projectionFrame{kind: kind})
	result, err := qc.VisitChildren(self)
	qc.frames.Pop()
	if err != nil || result == Exit {
		return Exit, err
	}
	if kind == frameSequence {
		err = p.EndSequence(qc)
	} else {
		err = p.EndDictionary(qc)
	}
	if err != nil {
		return Exit, err
	}
	if topLevel {
		v, err := p.FinalizeSelect(qc)
		if err != nil {
			return Exit, err
		}
		return qc.deliver(v), nil
	}
	if parentKind == frameSequence {
		err = p.PutSequenceValue(qc, OnStack())
	} else {
		err = p.PutDictionaryValue(qc, OnStack())
	}
	if err != nil {
		return Exit, err
	}
	return Continue, nil
}

// EmitStage ends a path. It delivers the current value to the consumer, or puts
// it into the enclosing projected container.
type EmitStage struct{}

func (EmitStage) Evaluate(_, _ NodeID, qc *Context) (VisitResult, error) {
	return qc.put(qc.cursor)
}

func (EmitStage) leaf() {}

func (EmitStage) String() string {
	return "Emit"
}

// AsSequenceStage projects the values produced by its children into a sequence
type AsSequenceStage struct{}

func (AsSequenceStage) Evaluate(_, self NodeID, qc *Context) (VisitResult, error) {
	return qc.project(self, frameSequence)
}

func (AsSequenceStage) String() string {
	return "AsSequence"
}

// AsDictionaryStage projects the entries produced by its PutEntryStage children
// into a dictionary
type AsDictionaryStage struct{}

func (AsDictionaryStage) Evaluate(_, self NodeID, qc *Context) (VisitResult, error) {
	return qc.project(self, frameDictionary)
}

func (AsDictionaryStage) String() string {
	return "AsDictionary"
}

// PutEntryStage projects one dictionary entry. Its children must produce at most
// one value; when they produce none the entry holds null.
type PutEntryStage struct {
	// Key is a string, int64 or float64
	Key any
}

func (s PutEntryStage) Evaluate(_, self NodeID, qc *Context) (VisitResult, error) {
	parent := qc.frames.PeekRef()
	if parent == nil || parent.kind != frameDictionary {
		return Exit, fmt.Errorf("%w: entry outside of a dictionary", ErrInvalidQuery)
	}
	qc.frames.Push(projectionFrame{kind: frameEntry, key: s.Key})
	result, err := qc.VisitChildren(self)
	frame, _ := qc.frames.Pop()
	if err != nil || result == Exit {
		return Exit, err
	}
	if !frame.filled {
		if err := qc.projection.PutDictionaryKey(qc, s.Key); err != nil {
			return Exit, err
		}
		if err := qc.projection.PutDictionaryNullValue(qc); err != nil {
			return Exit, err
		}
	}
	return Continue, nil
}

func (s PutEntryStage) String() string {
	if k, ok := s.Key.(string); ok {
		return "PutEntry(" + strconv.Quote(k) + ")"
	}
	return fmt.Sprintf("PutEntry(%v)", s.Key)
}
