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

import "log/slog"

// CompileConfig holds configuration for Compile.
type CompileConfig struct {
	// Rules are the optimizer rules, applied in order.
	Rules []Rule
	// Optimize enables the optimizer.
	Optimize bool
	// NewStore creates the node stores used while compiling and for the final
	// pipeline.
	NewStore func() NodeStore
	// Logger receives optimizer debug output. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultCompileConfig returns a CompileConfig that applies the default rules and
// stores the pipeline in an Arena.
func DefaultCompileConfig() CompileConfig {
	return CompileConfig{
		Rules:    DefaultRules(),
		Optimize: true,
		NewStore: func() NodeStore { return NewArena() },
	}
}

// CompileOption is a functional option for Compile.
type CompileOption func(*CompileConfig)

// WithRules replaces the optimizer rules.
func WithRules(rules ...Rule) CompileOption {
	return func(c *CompileConfig) {
		c.Rules = rules
	}
}

// WithoutOptimizer compiles the transformed tree as is.
func WithoutOptimizer() CompileOption {
	return func(c *CompileConfig) {
		c.Optimize = false
	}
}

// WithNodeStore sets the node store factory. A nil function is ignored.
func WithNodeStore(fn func() NodeStore) CompileOption {
	return func(c *CompileConfig) {
		if fn != nil {
			c.NewStore = fn
		}
	}
}

// WithCompileLogger sets the logger used by the optimizer.
func WithCompileLogger(logger *slog.Logger) CompileOption {
	return func(c *CompileConfig) {
		c.Logger = logger
	}
}

// EvalConfig holds configuration for a single evaluation.
type EvalConfig struct {
	// Projection creates the projection strategy for projected results.
	Projection ProjectionFactory
	// Tags is the tag strategy registry used to classify and decode tags.
	Tags *TagRegistry
	// SelfDescribe skips a leading self-describe tag (55799).
	SelfDescribe bool
}

// DefaultEvalConfig returns an EvalConfig using the binary projection and the
// default tag registry.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		Projection:   NewBinaryProjection,
		Tags:         DefaultTagRegistry(),
		SelfDescribe: true,
	}
}

// EvalOption is a functional option for evaluations.
type EvalOption func(*EvalConfig)

// WithProjection selects the projection strategy, e.g. NewObjectProjection.
func WithProjection(factory ProjectionFactory) EvalOption {
	return func(c *EvalConfig) {
		if factory != nil {
			c.Projection = factory
		}
	}
}

// WithTags sets the tag strategy registry.
func WithTags(tags *TagRegistry) EvalOption {
	return func(c *EvalConfig) {
		if tags != nil {
			c.Tags = tags
		}
	}
}

// WithoutSelfDescribe treats a leading self-describe tag as an ordinary tag.
func WithoutSelfDescribe() EvalOption {
	return func(c *EvalConfig) {
		c.SelfDescribe = false
	}
}
