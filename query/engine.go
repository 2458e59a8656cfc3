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

// VisitResult drives the traversal of a pipeline
type VisitResult uint8

const (
	// Continue proceeds with the next sibling
	Continue VisitResult = iota
	// Loop invokes the same stage again before doing anything else
	Loop
	// Exit aborts the whole evaluation
	Exit
)

func (r VisitResult) String() string {
	switch r {
	case Continue:
		return "Continue"
	case Loop:
		return "Loop"
	case Exit:
		return "Exit"
	default:
		return fmt.Sprintf("VisitResult(%d)", uint8(r))
	}
}

// Stage is an executable pipeline unit. Stages are shared by all evaluations of a
// query and must keep per-evaluation state in the Context only. prev is the node
// executed before self: its parent or its left sibling.
type Stage interface {
	Evaluate(prev, self NodeID, qc *Context) (VisitResult, error)
}

// Context is the mutable state of a single evaluation. It is owned by the
// goroutine running the evaluation and is never shared.
type Context struct {
	src          *Source
	store        NodeStore
	cursor       Cursor
	operands     *stack.Stack[any]
	frames       *stack.Stack[projectionFrame]
	projection   Projection
	consumer     func(Value) bool
	selfDescribe bool
	emitted      int
}

// NewContext prepares an evaluation of q against data. The consumer receives each
// top-level result and returns false to stop the evaluation.
func NewContext(q *Query, data []byte, consumer func(Value) bool, opts ...EvalOption) *Context {
	cfg := DefaultEvalConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if consumer == nil {
		consumer = func(Value) bool { return true }
	}
	return &Context{
		src:          NewSource(data, cfg.Tags),
		store:        q.store,
		cursor:       FromOffset(0),
		operands:     stack.NewWithCapacity[any](8),
		frames:       stack.NewWithCapacity[projectionFrame](4),
		projection:   cfg.Projection(),
		consumer:     consumer,
		selfDescribe: cfg.SelfDescribe,
	}
}

func (qc *Context) Source() *Source {
	return qc.src
}

func (qc *Context) Store() NodeStore {
	return qc.store
}

func (qc *Context) Projection() Projection {
	return qc.projection
}

func (qc *Context) Cursor() Cursor {
	return qc.cursor
}

func (qc *Context) SetCursor(c Cursor) {
	qc.cursor = c
}

// Push adds a value to the operand stack
func (qc *Context) Push(v any) {
	qc.operands.Push(v)
}

func (qc *Context) Pop() (any, bool) {
	return qc.operands.Pop()
}

func (qc *Context) Peek() (any, bool) {
	return qc.operands.Peek()
}

// PopValue removes a materialized value from the operand stack
func (qc *Context) PopValue() (Value, error) {
	item, ok := qc.operands.Pop()
	if !ok {
		return Null, ErrOperandStack
	}
	v, ok := item.(Value)
	if !ok {
		return Null, fmt.Errorf("%w: expected a value, found %T", ErrOperandStack, item)
	}
	return v, nil
}

// ValueType classifies the item at offset, consulting the tag registry for
// semantic tags
func (qc *Context) ValueType(offset int) (ValueType, error) {
	_, typ, err := classify(qc.src, offset)
	return typ, err
}

// ValueAt resolves a cursor into a value. An on-stack cursor pops the operand
// stack.
func (qc *Context) ValueAt(c Cursor) (Value, error) {
	switch c.kind {
	case CursorOffset:
		return NewLazyValue(qc.src, c.offset)
	case CursorOnStack:
		return qc.PopValue()
	default:
		return Null, nil
	}
}

// Emitted returns the number of top-level results delivered so far
func (qc *Context) Emitted() int {
	return qc.emitted
}

// deliver hands a top-level result to the consumer
func (qc *Context) deliver(v Value) VisitResult {
	qc.emitted++
	if !qc.consumer(v) {
		return Exit
	}
	return Continue
}

// visit runs self and its right siblings
func (qc *Context) visit(self, prev NodeID) (VisitResult, error) {
	result := Continue
	for self != Nil {
		result = Continue
		if stage := qc.store.Stage(self); stage != nil {
			for {
				var err error
				result, err = stage.Evaluate(prev, self, qc)
				if err != nil {
					return Exit, err
				}
				if result != Loop {
					break
				}
			}
			if result == Exit {
				return Exit, nil
			}
		}
		prev, self = self, qc.store.Right(self)
	}
	return result, nil
}

// VisitChildren runs the first child of self and its siblings. Stages call it to
// decide whether and when to descend.
func (qc *Context) VisitChildren(self NodeID) (VisitResult, error) {
	left := qc.store.Left(self)
	if left == Nil {
		return Continue, nil
	}
	return qc.visit(left, self)
}

// Evaluate runs the pipeline of q from the current cursor of qc
func Evaluate(q *Query, qc *Context) error {
	_, err := q.run(qc)
	return err
}

func (q *Query) run(qc *Context) (VisitResult, error) {
	if len(qc.src.data) == 0 {
		return Exit, &cbor.NoSuchByteError{Offset: 0}
	}
	qc.store = q.store
	qc.operands.Reset()
	qc.frames.Reset()
	return qc.visit(q.root, Nil)
}
