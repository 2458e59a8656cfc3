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

package batch

import (
	"context"
	"errors"
	"sync"
)

// ErrPendingLimitExceeded is returned when too many out-of-order documents are held back
var ErrPendingLimitExceeded = errors.New("batch: pending document limit exceeded")

// OrderStage holds back documents that finish early and releases them in
// sequence order. ProcessWithStatus must be called from a single goroutine;
// OrderStageRunner provides that.
type OrderStage struct {
	maxPending   int
	mu           sync.Mutex
	pending      map[uint64]*Document
	nextSequence uint64
}

// NewOrderStage creates an OrderStage. A maxPending of 0 means unlimited.
func NewOrderStage(maxPending int) *OrderStage {
	return &OrderStage{
		maxPending: maxPending,
		pending:    make(map[uint64]*Document),
	}
}

func (s *OrderStage) Name() string {
	return "order"
}

func (s *OrderStage) Process(ctx context.Context, doc *Document) error {
	_, err := s.ProcessWithStatus(ctx, doc)
	return err
}

// ProcessWithStatus returns the documents that are now in order, which is doc
// followed by any held back documents it unblocks, or nil if doc was held back
func (s *OrderStage) ProcessWithStatus(ctx context.Context, doc *Document) ([]*Document, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.SequenceNumber() == s.nextSequence {
		s.nextSequence++
		released := []*Document{doc}
		for {
			next, ok := s.pending[s.nextSequence]
			if !ok {
				break
			}
			delete(s.pending, s.nextSequence)
			s.nextSequence++
			released = append(released, next)
		}
		return released, nil
	}

	// Always hold the document so the sequence has no gaps, even past the limit
	s.pending[doc.SequenceNumber()] = doc
	if s.maxPending > 0 && len(s.pending) > s.maxPending {
		return nil, ErrPendingLimitExceeded
	}
	return nil, nil
}

// Reset resets the stage state for reuse
func (s *OrderStage) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = make(map[uint64]*Document)
	s.nextSequence = 0
}

// PendingCount returns the number of held back documents
func (s *OrderStage) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// OrderStageRunner runs an OrderStage as a single goroutine
type OrderStageRunner struct {
	stage     *OrderStage
	input     <-chan *Document
	output    chan<- *Document
	errors    chan<- error
	delivered func(*Document)
	done      chan struct{}
	running   bool
	mu        sync.Mutex
}

// NewOrderStageRunner creates a runner. delivered, if not nil, is called for
// every document after it is sent to output.
func NewOrderStageRunner(
	stage *OrderStage,
	input <-chan *Document,
	output chan<- *Document,
	errors chan<- error,
	delivered func(*Document),
) *OrderStageRunner {
	return &OrderStageRunner{
		stage:     stage,
		input:     input,
		output:    output,
		errors:    errors,
		delivered: delivered,
		done:      make(chan struct{}),
	}
}

// Start starts the runner
func (r *OrderStageRunner) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.done = make(chan struct{})
	r.mu.Unlock()

	go r.run(ctx)
}

// Stop waits for the runner to exit. It does not signal the runner; close the
// input channel or cancel the context passed to Start first.
func (r *OrderStageRunner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	done := r.done
	r.mu.Unlock()

	<-done
}

func (r *OrderStageRunner) run(ctx context.Context) {
	defer func() {
		r.mu.Lock()
		r.running = false
		close(r.done)
		r.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case doc, ok := <-r.input:
			if !ok {
				return
			}
			released, err := r.stage.ProcessWithStatus(ctx, doc)
			if err != nil {
				select {
				case r.errors <- err:
				case <-ctx.Done():
					return
				}
				continue
			}
			for _, tmpDoc := range released {
				select {
				case r.output <- tmpDoc:
				case <-ctx.Done():
					return
				}
				if r.delivered != nil {
					r.delivered(tmpDoc)
				}
			}
		}
	}
}
