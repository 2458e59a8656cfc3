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
	"github.com/blinklabs-io/cborquery/cbor"
)

// Query is a compiled pipeline. It is immutable and may be evaluated by any
// number of goroutines at once.
type Query struct {
	store       NodeStore
	root        NodeID
	fingerprint [32]byte
}

// Compile builds the query described by b
func Compile(b *Builder, opts ...CompileOption) (*Query, error) {
	tree, err := b.Build()
	if err != nil {
		return nil, err
	}
	return CompileTree(tree, opts...)
}

// CompileTree transforms and optimizes a builder tree
func CompileTree(tree *BuilderNode, opts ...CompileOption) (*Query, error) {
	cfg := DefaultCompileConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	scratch := cfg.NewStore()
	root := Transform(tree, scratch)
	if cfg.Optimize {
		var err error
		if root, err = Optimize(scratch, root, cfg.Rules, cfg.Logger); err != nil {
			return nil, err
		}
	}
	// Drop the nodes left behind by rewrites
	store := cfg.NewStore()
	root = Compact(scratch, root, store)
	return &Query{
		store:       store,
		root:        root,
		fingerprint: Fingerprint(store, root),
	}, nil
}

// MustCompile is Compile that panics on error
func MustCompile(b *Builder, opts ...CompileOption) *Query {
	q, err := Compile(b, opts...)
	if err != nil {
		panic(err)
	}
	return q
}

func (q *Query) Root() NodeID {
	return q.root
}

func (q *Query) Store() NodeStore {
	return q.store
}

// Fingerprint identifies the structure of the pipeline
func (q *Query) Fingerprint() [32]byte {
	return q.fingerprint
}

// Equal reports whether two queries have structurally equal pipelines
func (q *Query) Equal(other *Query) bool {
	return q.fingerprint == other.fingerprint && Equal(q.store, q.root, other.store, other.root)
}

func (q *Query) String() string {
	return DumpString(q.store, q.root)
}

// Evaluate runs the query against the first item in data. The consumer is called
// once per top-level result and returns false to stop.
func (q *Query) Evaluate(data []byte, consumer func(Value) bool, opts ...EvalOption) error {
	return Evaluate(q, NewContext(q, data, consumer, opts...))
}

// EvaluateAll runs the query against each consecutive top-level item in data
func (q *Query) EvaluateAll(data []byte, consumer func(Value) bool, opts ...EvalOption) error {
	qc := NewContext(q, data, consumer, opts...)
	for offset := 0; offset < len(data); {
		qc.SetCursor(FromOffset(offset))
		result, err := q.run(qc)
		if err != nil {
			return err
		}
		if result == Exit {
			return nil
		}
		size, err := cbor.ByteSize(data, offset)
		if err != nil {
			return err
		}
		offset += size
	}
	return nil
}

// First returns the first result, or Null when there is none
func (q *Query) First(data []byte, opts ...EvalOption) (Value, error) {
	ret := Null
	err := q.Evaluate(data, func(v Value) bool {
		ret = v
		return false
	}, opts...)
	return ret, err
}

// Collect returns all results
func (q *Query) Collect(data []byte, opts ...EvalOption) ([]Value, error) {
	var ret []Value
	err := q.Evaluate(data, func(v Value) bool {
		ret = append(ret, v)
		return true
	}, opts...)
	return ret, err
}
