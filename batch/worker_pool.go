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
	"log/slog"
	"sync"
	"sync/atomic"
)

// MetricsRecorder records the outcome of processing a document
type MetricsRecorder func(doc *Document, err error)

// WorkerPool runs multiple workers in parallel for a given stage
type WorkerPool struct {
	stage         Stage
	numWorkers    int
	input         <-chan *Document
	output        chan<- *Document
	errors        chan<- error
	recordMetrics MetricsRecorder
	forwarded     func(*Document)
	logger        *slog.Logger
	wg            sync.WaitGroup
	started       atomic.Bool
}

// WorkerPoolConfig holds configuration for creating a WorkerPool
type WorkerPoolConfig struct {
	// Stage is the processing stage to use (required, panics if nil)
	Stage Stage
	// NumWorkers is the number of parallel workers; defaults to 1 if <= 0
	NumWorkers int
	// Input is the channel to receive documents from
	Input <-chan *Document
	// Output is the channel to send processed documents to
	Output chan<- *Document
	// Errors is the channel to send errors to; may be nil
	Errors chan<- error
	// RecordMetrics is called after processing; may be nil
	RecordMetrics MetricsRecorder
	// Forwarded is called after a document is sent to Output; may be nil
	Forwarded func(*Document)
	// Logger defaults to slog.Default()
	Logger *slog.Logger
}

// NewWorkerPool creates a new worker pool for the given stage.
//
// If the input or output channels are nil, workers block indefinitely when
// receiving or sending.
func NewWorkerPool(config WorkerPoolConfig) *WorkerPool {
	if config.Stage == nil {
		panic(ErrNilStage)
	}
	numWorkers := config.NumWorkers
	if numWorkers <= 0 {
		numWorkers = 1
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkerPool{
		stage:         config.Stage,
		numWorkers:    numWorkers,
		input:         config.Input,
		output:        config.Output,
		errors:        config.Errors,
		recordMetrics: config.RecordMetrics,
		forwarded:     config.Forwarded,
		logger:        logger,
	}
}

// Start starts the workers. Calling it more than once has no effect.
func (p *WorkerPool) Start(ctx context.Context) {
	if p.started.Swap(true) {
		return
	}
	for i := range p.numWorkers {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop waits for all workers to complete. Workers exit when the input channel is
// closed or the context passed to Start is cancelled.
func (p *WorkerPool) Stop() {
	p.wg.Wait()
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	p.logger.Debug(
		"worker started",
		"component",
		"batch",
		"stage",
		p.stage.Name(),
		"worker",
		id,
	)
	defer p.logger.Debug(
		"worker stopped",
		"component",
		"batch",
		"stage",
		p.stage.Name(),
		"worker",
		id,
	)

	for {
		select {
		case <-ctx.Done():
			return
		case doc, ok := <-p.input:
			if !ok {
				return
			}

			err := p.stage.Process(ctx, doc)

			// Cancellation is not a processing outcome
			canceled := errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
			if p.recordMetrics != nil && !canceled {
				p.recordMetrics(doc, err)
			}

			if err != nil && !canceled {
				p.logger.Warn(
					"document processing failed",
					"component",
					"batch",
					"stage",
					p.stage.Name(),
					"seq",
					doc.SequenceNumber(),
					"error",
					err,
				)
				if p.errors != nil {
					select {
					case p.errors <- err:
					case <-ctx.Done():
						return
					}
				}
			}

			// Forward even on error so that ordering and accounting see every document
			select {
			case p.output <- doc:
			case <-ctx.Done():
				return
			}
			if p.forwarded != nil {
				p.forwarded(doc)
			}
		}
	}
}

// EvaluateMetricsRecorder returns a MetricsRecorder for the evaluate stage
func EvaluateMetricsRecorder(metrics *Metrics) MetricsRecorder {
	if metrics == nil {
		return nil
	}
	return func(doc *Document, err error) {
		metrics.RecordEvaluate(doc.Duration(), doc.Matched(), err)
		metrics.RecordValues(len(doc.Results()))
	}
}
