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
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blinklabs-io/cborquery/query"
)

// closedResultsChan is returned by Results before Start so that callers don't
// block forever on a nil channel
var closedResultsChan = func() <-chan *Document {
	ch := make(chan *Document)
	close(ch)
	return ch
}()

func newNotStartedErrorsChan() <-chan error {
	ch := make(chan error, 1)
	ch <- ErrEvaluatorNotStarted
	close(ch)
	return ch
}

// Evaluator evaluates a shared compiled query against submitted documents using
// a pool of workers
type Evaluator struct {
	config Config
	query  *query.Query
	logger *slog.Logger

	evaluateStage *EvaluateStage
	orderStage    *OrderStage
	pool          *WorkerPool
	orderRunner   *OrderStageRunner

	submitChan    chan *Document
	evaluatedChan chan *Document
	resultsChan   chan *Document
	errorsChan    chan error

	metrics *Metrics

	sequenceCounter atomic.Uint64
	inFlight        atomic.Int64
	ctx             context.Context
	cancel          context.CancelFunc
	started         atomic.Bool
	stopped         atomic.Bool
	wg              sync.WaitGroup
	mu              sync.Mutex   // protects Start/Stop
	submitMu        sync.RWMutex // protects Submit against concurrent Stop
}

// NewEvaluator creates an Evaluator for the given query.
//
// Example:
//
//	e, err := NewEvaluator(q, WithWorkers(4))
func NewEvaluator(q *query.Query, opts ...Option) (*Evaluator, error) {
	if q == nil {
		return nil, ErrNilQuery
	}
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		config:  config,
		query:   q,
		logger:  logger,
		metrics: NewMetrics(),
	}, nil
}

// Start starts the workers
func (e *Evaluator) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped.Load() {
		return ErrEvaluatorStopped
	}
	if e.started.Load() {
		return nil
	}

	e.ctx, e.cancel = context.WithCancel(ctx)

	bufSize := e.config.BufferSize
	e.submitChan = make(chan *Document, bufSize)
	e.resultsChan = make(chan *Document, bufSize)
	e.errorsChan = make(chan error, bufSize)

	e.evaluateStage = NewEvaluateStage(e.query, e.config.Stream, e.config.EvalOptions...)

	poolConfig := WorkerPoolConfig{
		Stage:         e.evaluateStage,
		NumWorkers:    e.config.Workers,
		Input:         e.submitChan,
		Errors:        e.errorsChan,
		RecordMetrics: EvaluateMetricsRecorder(e.metrics),
		Logger:        e.logger,
	}
	if e.config.Ordered {
		e.evaluatedChan = make(chan *Document, bufSize)
		e.orderStage = NewOrderStage(e.config.MaxPending)
		e.orderRunner = NewOrderStageRunner(
			e.orderStage,
			e.evaluatedChan,
			e.resultsChan,
			e.errorsChan,
			e.delivered,
		)
		poolConfig.Output = e.evaluatedChan
	} else {
		poolConfig.Output = e.resultsChan
		poolConfig.Forwarded = e.delivered
	}
	e.pool = NewWorkerPool(poolConfig)

	e.pool.Start(e.ctx) //nolint:contextcheck
	if e.orderRunner != nil {
		e.orderRunner.Start(e.ctx) //nolint:contextcheck
	}

	e.wg.Add(1)
	go e.metricsCollector()

	e.started.Store(true)
	e.logger.Debug(
		"evaluator started",
		"component",
		"batch",
		"workers",
		e.config.Workers,
		"ordered",
		e.config.Ordered,
	)
	return nil
}

func (e *Evaluator) delivered(*Document) {
	e.inFlight.Add(-1)
}

// Submit submits a document for evaluation. The data is copied. It is safe to
// call concurrently with Stop, and ctx bounds the wait when the evaluator applies
// backpressure.
func (e *Evaluator) Submit(ctx context.Context, data []byte) error {
	if !e.started.Load() {
		return ErrEvaluatorNotStarted
	}

	e.submitMu.RLock()
	defer e.submitMu.RUnlock()

	if e.stopped.Load() {
		return ErrEvaluatorStopped
	}

	// The sequence number is allocated once so that a successful send never leaves a gap
	doc := NewDocument(data, e.sequenceCounter.Add(1)-1)
	e.inFlight.Add(1)

	select {
	case e.submitChan <- doc:
		e.metrics.RecordSubmit()
		return nil
	case <-ctx.Done():
		e.inFlight.Add(-1)
		return ctx.Err()
	case <-e.ctx.Done():
		e.inFlight.Add(-1)
		return ErrEvaluatorStopped
	}
}

// Results returns the channel of evaluated documents, including failed ones.
// Before Start it returns a closed channel.
func (e *Evaluator) Results() <-chan *Document {
	if !e.started.Load() {
		return closedResultsChan
	}
	return e.resultsChan
}

// Errors returns the channel of evaluation errors. Before Start it returns a
// channel yielding ErrEvaluatorNotStarted once.
func (e *Evaluator) Errors() <-chan error {
	if !e.started.Load() {
		return newNotStartedErrorsChan()
	}
	return e.errorsChan
}

// Stop stops the evaluator. Documents still in flight are abandoned; use
// WaitForDrain first to let them finish.
func (e *Evaluator) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started.Load() || e.stopped.Load() {
		return nil
	}

	// Cancel first to unblock any Submit waiting on a full channel while holding the read lock
	e.cancel()

	e.submitMu.Lock()
	e.stopped.Store(true)
	close(e.submitChan)
	e.submitMu.Unlock()

	e.pool.Stop()
	if e.orderRunner != nil {
		close(e.evaluatedChan)
		e.orderRunner.Stop()
	}

	close(e.resultsChan)
	close(e.errorsChan)

	e.wg.Wait()

	e.logger.Debug(
		"evaluator stopped",
		"component",
		"batch",
		"submitted",
		e.metrics.Stats().DocumentsSubmitted,
	)
	return nil
}

// Stats returns the current evaluator statistics
func (e *Evaluator) Stats() Stats {
	return e.metrics.Stats()
}

// PendingCount returns the number of submitted documents not yet delivered to
// the results channel
func (e *Evaluator) PendingCount() int {
	if !e.started.Load() {
		return 0
	}
	return int(e.inFlight.Load())
}

// WaitForDrain blocks until every submitted document has been delivered to the
// results channel or ctx is done. The results channel must be read concurrently
// once it is full.
func (e *Evaluator) WaitForDrain(ctx context.Context) error {
	if !e.started.Load() {
		return ErrEvaluatorNotStarted
	}

	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		if e.PendingCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (e *Evaluator) metricsCollector() {
	defer e.wg.Done()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.metrics.UpdateQueueDepth(e.PendingCount())
		}
	}
}

// DrainResults reads all available results without blocking
func (e *Evaluator) DrainResults() []*Document {
	var results []*Document
	for {
		select {
		case doc, ok := <-e.resultsChan:
			if !ok {
				return results
			}
			results = append(results, doc)
		default:
			return results
		}
	}
}

// DrainErrors reads all available errors without blocking
func (e *Evaluator) DrainErrors() []error {
	var errs []error
	for {
		select {
		case err, ok := <-e.errorsChan:
			if !ok {
				return errs
			}
			errs = append(errs, err)
		default:
			return errs
		}
	}
}

// Run evaluates every document in docs and returns them in submission order.
// Failed evaluations are reported through each document's Err.
func Run(ctx context.Context, q *query.Query, docs [][]byte, opts ...Option) ([]*Document, error) {
	e, err := NewEvaluator(q, append(opts, WithOrdered(true))...)
	if err != nil {
		return nil, err
	}
	if err := e.Start(ctx); err != nil {
		return nil, err
	}
	var submitWg sync.WaitGroup
	defer func() {
		_ = e.Stop()
		submitWg.Wait()
	}()

	submitErr := make(chan error, 1)
	submitWg.Add(1)
	go func() {
		defer submitWg.Done()
		for _, data := range docs {
			if err := e.Submit(ctx, data); err != nil {
				submitErr <- err
				return
			}
		}
	}()

	ret := make([]*Document, 0, len(docs))
	for len(ret) < len(docs) {
		select {
		case doc := <-e.Results():
			ret = append(ret, doc)
		case <-e.Errors():
			// Failures are carried on the document itself
		case err := <-submitErr:
			return nil, err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return ret, nil
}
