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
	"slices"
	"strconv"
	"strings"

	"github.com/blinklabs-io/cborquery/cbor"
)

// leafStage is implemented by stages that never visit their children
type leafStage interface {
	leaf()
}

// descend runs the children of self with the cursor moved to next and restores
// the cursor afterwards
func descend(qc *Context, self NodeID, next Cursor) (VisitResult, error) {
	saved := qc.cursor
	qc.cursor = next
	result, err := qc.VisitChildren(self)
	qc.cursor = saved
	return result, err
}

// BaseStage is the root of every pipeline. It skips a self-describe tag at the
// start of the input and runs the query.
type BaseStage struct{}

func (BaseStage) Evaluate(_, self NodeID, qc *Context) (VisitResult, error) {
	next := qc.cursor
	if off, ok := next.Offset(); ok && qc.selfDescribe {
		major, _, err := cbor.Header(qc.src.data, off)
		if err != nil {
			return Exit, err
		}
		if major == cbor.MajorTypeSemanticTag {
			tag, err := cbor.ReadTagNumber(qc.src.data, off)
			if err != nil {
				return Exit, err
			}
			if tag == cbor.CborTagSelfDescribe {
				content, err := tagContentOffset(qc.src.data, off)
				if err != nil {
					return Exit, err
				}
				next = FromOffset(content)
			}
		}
	}
	return descend(qc, self, next)
}

func (BaseStage) String() string {
	return "Base"
}

// SelectorKind discriminates navigation steps
type SelectorKind uint8

const (
	SelectIndex SelectorKind = iota
	SelectKey
)

// Selector is a single navigation step: a sequence index or a dictionary key
type Selector struct {
	Kind  SelectorKind
	Index int
	// Key is a normalized key: string, int64, uint64, float64, bool or
	// cbor.ByteString
	Key any
}

// apply moves c to the selected child. Missing children and cursors that do not
// point into the input resolve to a null cursor.
func (s Selector) apply(qc *Context, c Cursor) (Cursor, error) {
	off, ok := c.Offset()
	if !ok {
		return NullCursor(), nil
	}
	var pos int
	var found bool
	var err error
	if s.Kind == SelectIndex {
		pos, found, err = indexOffset(qc.src.data, off, s.Index)
	} else {
		pos, found, err = keyOffset(qc.src.data, off, s.Key)
	}
	if err != nil {
		return NullCursor(), err
	}
	if !found {
		return NullCursor(), nil
	}
	return FromOffset(pos), nil
}

func (s Selector) String() string {
	if s.Kind == SelectIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	switch k := s.Key.(type) {
	case string:
		return "." + strconv.Quote(k)
	case int64:
		return "[#" + strconv.FormatInt(k, 10) + "]"
	default:
		return fmt.Sprintf("[%v]", k)
	}
}

// IndexStage selects an element of a sequence
type IndexStage struct {
	Index int
}

func (s IndexStage) Evaluate(_, self NodeID, qc *Context) (VisitResult, error) {
	next, err := s.selector().apply(qc, qc.cursor)
	if err != nil {
		return Exit, err
	}
	return descend(qc, self, next)
}

func (s IndexStage) selector() Selector {
	return Selector{Kind: SelectIndex, Index: s.Index}
}

func (s IndexStage) String() string {
	return s.selector().String()
}

// KeyStage selects the value stored under a key of a dictionary. Key holds a
// normalized key.
type KeyStage struct {
	Key any
}

func (s KeyStage) Evaluate(_, self NodeID, qc *Context) (VisitResult, error) {
	next, err := s.selector().apply(qc, qc.cursor)
	if err != nil {
		return Exit, err
	}
	return descend(qc, self, next)
}

func (s KeyStage) selector() Selector {
	return Selector{Kind: SelectKey, Key: s.Key}
}

func (s KeyStage) String() string {
	return s.selector().String()
}

// PathStage applies several selectors at once. It is produced by selector fusion.
type PathStage struct {
	Steps []Selector
}

func (s PathStage) Evaluate(_, self NodeID, qc *Context) (VisitResult, error) {
	next := qc.cursor
	for _, step := range s.Steps {
		var err error
		if next, err = step.apply(qc, next); err != nil {
			return Exit, err
		}
		if next.IsNull() {
			break
		}
	}
	return descend(qc, self, next)
}

func (s PathStage) Equal(other Stage) bool {
	o, ok := other.(PathStage)
	return ok && slices.Equal(s.Steps, o.Steps)
}

func (s PathStage) String() string {
	var sb strings.Builder
	sb.WriteString("Path")
	for _, step := range s.Steps {
		sb.WriteString(step.String())
	}
	return sb.String()
}

// FindStage selects the first element of a sequence matching a predicate
type FindStage struct {
	Pred Predicate
}

func (s FindStage) Evaluate(_, self NodeID, qc *Context) (VisitResult, error) {
	next := NullCursor()
	off, ok := qc.cursor.Offset()
	if ok {
		isSeq, err := isMajor(qc.src.data, off, cbor.MajorTypeSequence)
		if err != nil {
			return Exit, err
		}
		if isSeq {
			err = eachItem(qc.src.data, off, func(pos int) (bool, error) {
				item, err := NewLazyValue(qc.src, pos)
				if err != nil {
					return false, err
				}
				match, err := s.Pred.Match(item)
				if err != nil {
					return false, err
				}
				if match {
					next = FromOffset(pos)
				}
				return !match, nil
			})
			if err != nil {
				return Exit, err
			}
		}
	}
	return descend(qc, self, next)
}

func (s FindStage) String() string {
	return fmt.Sprintf("Find(%v)", s.Pred)
}

// FindEntryStage selects the value of the first dictionary entry whose key
// matches a predicate
type FindEntryStage struct {
	Pred Predicate
}

func (s FindEntryStage) Evaluate(_, self NodeID, qc *Context) (VisitResult, error) {
	next := NullCursor()
	off, ok := qc.cursor.Offset()
	if ok {
		isDict, err := isMajor(qc.src.data, off, cbor.MajorTypeDictionary)
		if err != nil {
			return Exit, err
		}
		if isDict {
			err = eachEntry(qc.src.data, off, func(keyPos, valuePos int) (bool, error) {
				key, err := NewLazyValue(qc.src, keyPos)
				if err != nil {
					return false, err
				}
				match, err := s.Pred.Match(key)
				if err != nil {
					return false, err
				}
				if match {
					next = FromOffset(valuePos)
				}
				return !match, nil
			})
			if err != nil {
				return Exit, err
			}
		}
	}
	return descend(qc, self, next)
}

func (s FindEntryStage) String() string {
	return fmt.Sprintf("FindEntry(%v)", s.Pred)
}

// eachState is the iteration state of an EachStage, kept on the operand stack
// between Loop invocations
type eachState struct {
	node      NodeID
	saved     Cursor
	next      int
	remaining int // -1 when indefinite
	dict      bool
}

// EachStage runs its children once for every element of a sequence or every
// value of a dictionary. It returns Loop after each element.
type EachStage struct{}

func (s EachStage) Evaluate(_, self NodeID, qc *Context) (VisitResult, error) {
	if top, ok := qc.Peek(); ok {
		if state, ok := top.(*eachState); ok && state.node == self {
			return s.step(state, self, qc)
		}
	}
	off, ok := qc.cursor.Offset()
	if !ok {
		return Continue, nil
	}
	major, ai, err := cbor.Header(qc.src.data, off)
	if err != nil {
		return Exit, err
	}
	if major != cbor.MajorTypeSequence && major != cbor.MajorTypeDictionary {
		return Continue, nil
	}
	headerSize, err := cbor.HeaderSize(qc.src.data, off)
	if err != nil {
		return Exit, err
	}
	state := &eachState{
		node:      self,
		saved:     qc.cursor,
		next:      off + headerSize,
		remaining: -1,
		dict:      major == cbor.MajorTypeDictionary,
	}
	if ai != cbor.CborAdditionalInfoIndefinite {
		if state.remaining, err = cbor.ElementCount(qc.src.data, off); err != nil {
			return Exit, err
		}
	}
	qc.Push(state)
	return s.step(state, self, qc)
}

func (s EachStage) step(state *eachState, self NodeID, qc *Context) (VisitResult, error) {
	done := state.remaining == 0
	if state.remaining < 0 {
		isBreak, err := cbor.IsBreak(qc.src.data, state.next)
		if err != nil {
			return Exit, err
		}
		done = isBreak
	}
	if done {
		qc.Pop()
		qc.cursor = state.saved
		return Continue, nil
	}
	pos := state.next
	if state.dict {
		keySize, err := cbor.ByteSize(qc.src.data, pos)
		if err != nil {
			return Exit, err
		}
		pos += keySize
	}
	size, err := cbor.ByteSize(qc.src.data, pos)
	if err != nil {
		return Exit, err
	}
	state.next = pos + size
	if state.remaining > 0 {
		state.remaining--
	}
	qc.cursor = FromOffset(pos)
	result, err := qc.VisitChildren(self)
	if err != nil {
		return Exit, err
	}
	if result == Exit {
		qc.Pop()
		qc.cursor = state.saved
		return Exit, nil
	}
	return Loop, nil
}

func (EachStage) String() string {
	return "[*]"
}

// RequireTypeStage fails the evaluation when the current value does not match
// Spec. An absent value passes through.
type RequireTypeStage struct {
	Spec *TypeSpec
}

func (s RequireTypeStage) Evaluate(_, self NodeID, qc *Context) (VisitResult, error) {
	if err := checkType(qc, s.Spec, false); err != nil {
		return Exit, err
	}
	return qc.VisitChildren(self)
}

func (s RequireTypeStage) String() string {
	return "RequireType(" + s.Spec.String() + ")"
}

// NullOrTypeStage is RequireTypeStage that also accepts an encoded null
type NullOrTypeStage struct {
	Spec *TypeSpec
}

func (s NullOrTypeStage) Evaluate(_, self NodeID, qc *Context) (VisitResult, error) {
	if err := checkType(qc, s.Spec, true); err != nil {
		return Exit, err
	}
	return qc.VisitChildren(self)
}

func (s NullOrTypeStage) String() string {
	return "NullOrType(" + s.Spec.String() + ")"
}

func checkType(qc *Context, spec *TypeSpec, allowNull bool) error {
	off, ok := qc.cursor.Offset()
	if !ok {
		return nil
	}
	v, err := NewLazyValue(qc.src, off)
	if err != nil {
		return err
	}
	if spec.Accepts(v) || (allowNull && v.IsNull()) {
		return nil
	}
	return &TypeMismatchError{
		Expected: spec,
		Actual:   v.Type(),
		Offset:   off,
	}
}
