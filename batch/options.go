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
	"log/slog"
	"runtime"

	"github.com/blinklabs-io/cborquery/query"
)

// DefaultMaxPending is the default limit for out-of-order documents held back
// while waiting for an earlier document to finish
const DefaultMaxPending = 4096

// Config holds configuration for an Evaluator
type Config struct {
	// Workers is the number of parallel evaluation workers
	Workers int
	// BufferSize is the buffer size of the submit, results and errors channels
	BufferSize int
	// Ordered delivers results in submission order
	Ordered bool
	// MaxPending limits out-of-order documents held back when Ordered is set
	MaxPending int
	// Stream evaluates every top-level value of a document instead of only the first
	Stream bool
	// EvalOptions are passed to every evaluation
	EvalOptions []query.EvalOption
	// Logger defaults to slog.Default()
	Logger *slog.Logger
}

// DefaultConfig returns a Config with one worker per CPU and ordered results
func DefaultConfig() Config {
	return Config{
		Workers:    max(runtime.NumCPU(), 1),
		BufferSize: 1000,
		Ordered:    true,
		MaxPending: DefaultMaxPending,
	}
}

// Option is a functional option for configuring an Evaluator
type Option func(*Config)

// WithConfig replaces the whole configuration. Options applied afterwards still
// override it.
func WithConfig(config Config) Option {
	return func(c *Config) {
		*c = config
	}
}

// WithWorkers sets the number of evaluation workers
func WithWorkers(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.Workers = n
		}
	}
}

// WithBufferSize sets the channel buffer size
func WithBufferSize(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.BufferSize = size
		}
	}
}

// WithOrdered controls whether results are delivered in submission order
func WithOrdered(ordered bool) Option {
	return func(c *Config) {
		c.Ordered = ordered
	}
}

// WithMaxPending sets the limit of held back out-of-order documents
func WithMaxPending(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxPending = n
		}
	}
}

// WithStream evaluates each document as a stream of top-level values
func WithStream(stream bool) Option {
	return func(c *Config) {
		c.Stream = stream
	}
}

// WithEvalOptions sets the evaluation options used for every document
func WithEvalOptions(opts ...query.EvalOption) Option {
	return func(c *Config) {
		c.EvalOptions = opts
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}
