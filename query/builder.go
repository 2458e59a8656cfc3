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

// Builder assembles a query path fluently. Each step nests the following steps
// as its children. A path ends with an implicit Emit unless it ends with a
// projection. The first error is kept and reported by Build.
//
//	q, err := query.Compile(query.NewBuilder().Key("items").Each().Key("id"))
type Builder struct {
	steps    []Stage
	terminal *BuilderNode
	err      error
}

// NewBuilder starts a top-level query
func NewBuilder() *Builder {
	return &Builder{}
}

// Path starts a relative path, used for projection elements and entries
func Path() *Builder {
	return &Builder{}
}

func (b *Builder) step(stage Stage) *Builder {
	if b.err != nil {
		return b
	}
	if b.terminal != nil {
		b.err = fmt.Errorf("%w: step %v after a projection", ErrInvalidQuery, stage)
		return b
	}
	b.steps = append(b.steps, stage)
	return b
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Index selects element i of a sequence
func (b *Builder) Index(i int) *Builder {
	if i < 0 {
		return b.fail(fmt.Errorf("%w: negative index %d", ErrInvalidQuery, i))
	}
	return b.step(IndexStage{Index: i})
}

// Key selects a dictionary value by text key
func (b *Builder) Key(key string) *Builder {
	return b.step(KeyStage{Key: key})
}

// IntKey selects a dictionary value by integer key
func (b *Builder) IntKey(key int64) *Builder {
	return b.step(KeyStage{Key: key})
}

// FloatKey selects a dictionary value by float key
func (b *Builder) FloatKey(key float64) *Builder {
	return b.step(KeyStage{Key: key})
}

// AnyKey selects a dictionary value by a key of any supported Go type
func (b *Builder) AnyKey(key any) *Builder {
	normalized, err := normalizeKey(key)
	if err != nil {
		return b.fail(err)
	}
	return b.step(KeyStage{Key: normalized})
}

// Find selects the first sequence element matching pred
func (b *Builder) Find(pred Predicate) *Builder {
	if pred == nil {
		return b.fail(fmt.Errorf("%w: nil predicate", ErrInvalidQuery))
	}
	return b.step(FindStage{Pred: pred})
}

// FindEntry selects the value of the first dictionary entry whose key matches pred
func (b *Builder) FindEntry(pred Predicate) *Builder {
	if pred == nil {
		return b.fail(fmt.Errorf("%w: nil predicate", ErrInvalidQuery))
	}
	return b.step(FindEntryStage{Pred: pred})
}

// Each runs the rest of the path for every element or dictionary value
func (b *Builder) Each() *Builder {
	return b.step(EachStage{})
}

// RequireType fails the evaluation when a present value does not match spec
func (b *Builder) RequireType(spec *TypeSpec) *Builder {
	if spec == nil {
		return b.fail(fmt.Errorf("%w: nil type spec", ErrInvalidQuery))
	}
	return b.step(RequireTypeStage{Spec: spec})
}

// NullOrType is RequireType that also accepts null
func (b *Builder) NullOrType(spec *TypeSpec) *Builder {
	if spec == nil {
		return b.fail(fmt.Errorf("%w: nil type spec", ErrInvalidQuery))
	}
	return b.step(NullOrTypeStage{Spec: spec})
}

func (b *Builder) project(stage Stage, children []*BuilderNode, errs []error) *Builder {
	if b.err != nil {
		return b
	}
	if b.terminal != nil {
		return b.fail(fmt.Errorf("%w: projection after a projection", ErrInvalidQuery))
	}
	if err := errors.Join(errs...); err != nil {
		return b.fail(err)
	}
	b.terminal = &BuilderNode{Stage: stage, Children: children}
	return b
}

// AsSequence projects the values produced by each element path into a sequence
func (b *Builder) AsSequence(elements ...*Builder) *Builder {
	children := make([]*BuilderNode, 0, len(elements))
	errs := make([]error, 0)
	for _, element := range elements {
		node, err := element.tree()
		errs = append(errs, err)
		children = append(children, node)
	}
	return b.project(AsSequenceStage{}, children, errs)
}

// EntryBuilder is a dictionary entry for AsDictionary
type EntryBuilder struct {
	key  any
	path *Builder
	err  error
}

// Entry pairs a computed key with the path producing its value. Keys may be
// strings, integers or floats.
func Entry(key any, path *Builder) EntryBuilder {
	ret := EntryBuilder{path: path}
	normalized, err := normalizeKey(key)
	switch normalized.(type) {
	case string, int64, float64:
		ret.key = normalized
	default:
		if err == nil {
			err = fmt.Errorf("%w: unsupported entry key type %T", ErrInvalidQuery, key)
		}
		ret.err = err
	}
	if path == nil {
		ret.err = fmt.Errorf("%w: nil entry path", ErrInvalidQuery)
	}
	return ret
}

// AsDictionary projects the given entries into a dictionary
func (b *Builder) AsDictionary(entries ...EntryBuilder) *Builder {
	children := make([]*BuilderNode, 0, len(entries))
	errs := make([]error, 0)
	for _, entry := range entries {
		if entry.err != nil {
			errs = append(errs, entry.err)
			continue
		}
		node, err := entry.path.tree()
		errs = append(errs, err)
		children = append(children, &BuilderNode{
			Stage:    PutEntryStage{Key: entry.key},
			Children: []*BuilderNode{node},
		})
	}
	return b.project(AsDictionaryStage{}, children, errs)
}

// tree returns the path as nested builder nodes ending with the projection or an
// Emit
func (b *Builder) tree() (*BuilderNode, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil path", ErrInvalidQuery)
	}
	if b.err != nil {
		return nil, b.err
	}
	last := b.terminal
	if last == nil {
		last = &BuilderNode{Stage: EmitStage{}}
	}
	for i := len(b.steps) - 1; i >= 0; i-- {
		last = &BuilderNode{
			Stage:    b.steps[i],
			Children: []*BuilderNode{last},
		}
	}
	return last, nil
}

// Build returns the builder tree of a top-level query, rooted at a BaseStage
func (b *Builder) Build() (*BuilderNode, error) {
	node, err := b.tree()
	if err != nil {
		return nil, err
	}
	return &BuilderNode{
		Stage:    BaseStage{},
		Children: []*BuilderNode{node},
	}, nil
}
