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

// Package batch evaluates one compiled query against many independent CBOR
// documents in parallel. Documents are delivered in submission order by default.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/blinklabs-io/cborquery/query"
)

// Stage is a processing step applied to each document
type Stage interface {
	// Name returns the name of the stage for logging
	Name() string
	// Process processes a single document
	Process(ctx context.Context, doc *Document) error
}

// StageFunc is an adapter that allows using ordinary functions as a Stage
type StageFunc struct {
	name string
	fn   func(ctx context.Context, doc *Document) error
}

// NewStageFunc creates a new StageFunc with the given name and processing function
func NewStageFunc(name string, fn func(ctx context.Context, doc *Document) error) *StageFunc {
	return &StageFunc{
		name: name,
		fn:   fn,
	}
}

func (s *StageFunc) Name() string {
	return s.name
}

func (s *StageFunc) Process(ctx context.Context, doc *Document) error {
	return s.fn(ctx, doc)
}

// EvaluateStage runs a shared query against each document. Every call builds its
// own evaluation context, so a single stage serves any number of workers.
type EvaluateStage struct {
	query    *query.Query
	stream   bool
	evalOpts []query.EvalOption
}

// NewEvaluateStage creates an EvaluateStage. When stream is set, each document is
// treated as a sequence of top-level values.
func NewEvaluateStage(q *query.Query, stream bool, evalOpts ...query.EvalOption) *EvaluateStage {
	if q == nil {
		panic(ErrNilQuery)
	}
	return &EvaluateStage{
		query:    q,
		stream:   stream,
		evalOpts: evalOpts,
	}
}

func (s *EvaluateStage) Name() string {
	return "evaluate"
}

func (s *EvaluateStage) Process(ctx context.Context, doc *Document) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	start := time.Now()
	var results []query.Value
	collect := func(v query.Value) bool {
		results = append(results, v)
		return true
	}
	var err error
	if s.stream {
		err = s.query.EvaluateAll(doc.Data(), collect, s.evalOpts...)
	} else {
		err = s.query.Evaluate(doc.Data(), collect, s.evalOpts...)
	}
	if err != nil {
		doc.SetError(results, err, time.Since(start))
		return fmt.Errorf("document %d: %w", doc.SequenceNumber(), err)
	}
	doc.SetResults(results, time.Since(start))
	return nil
}
