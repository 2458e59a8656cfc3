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
	"sync"
	"time"

	"github.com/blinklabs-io/cborquery/query"
)

// Document is a single CBOR input as it moves through the evaluator.
// It is safe for concurrent use.
type Document struct {
	// Immutable fields, set at construction
	data           []byte
	sequenceNumber uint64
	receivedAt     time.Time

	mu        sync.RWMutex
	evaluated bool
	results   []query.Value
	err       error
	duration  time.Duration
}

// NewDocument creates a Document from a copy of data
func NewDocument(data []byte, seq uint64) *Document {
	tmpData := make([]byte, len(data))
	copy(tmpData, data)
	return &Document{
		data:           tmpData,
		sequenceNumber: seq,
		receivedAt:     time.Now(),
	}
}

// Data returns the raw CBOR of the document. The returned slice should not be modified.
func (d *Document) Data() []byte {
	return d.data
}

// SequenceNumber returns the submission order of the document, starting at 0
func (d *Document) SequenceNumber() uint64 {
	return d.sequenceNumber
}

// ReceivedAt returns the time the document was submitted
func (d *Document) ReceivedAt() time.Time {
	return d.receivedAt
}

// Results returns the values produced by the query, in production order
func (d *Document) Results() []query.Value {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.results
}

// Matched reports whether the query produced at least one present value
func (d *Document) Matched() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, v := range d.results {
		if !v.IsAbsent() {
			return true
		}
	}
	return false
}

// Err returns the evaluation error, if any
func (d *Document) Err() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.err
}

// IsEvaluated reports whether evaluation finished without error
func (d *Document) IsEvaluated() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.evaluated
}

// Duration returns how long evaluation took
func (d *Document) Duration() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.duration
}

// SetResults stores the evaluation results and clears any previous error
func (d *Document) SetResults(results []query.Value, duration time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.evaluated = true
	d.results = results
	d.err = nil
	d.duration = duration
}

// SetError stores an evaluation failure. Results gathered before the failure are kept.
func (d *Document) SetError(results []query.Value, err error, duration time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.evaluated = false
	d.results = results
	d.err = err
	d.duration = duration
}
