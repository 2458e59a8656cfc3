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
	"sync/atomic"
	"time"
)

// Metrics tracks evaluator counters. Counters are atomic; queue and timing
// tracking is guarded by a mutex.
type Metrics struct {
	documentsSubmitted atomic.Uint64
	documentsEvaluated atomic.Uint64
	documentsMatched   atomic.Uint64
	valuesProduced     atomic.Uint64
	errors             atomic.Uint64

	mu                sync.RWMutex
	currentQueueDepth int
	peakQueueDepth    int
	totalDuration     time.Duration
	lastDocumentTime  time.Time
	startTime         time.Time
}

// Stats is a snapshot of evaluator metrics
type Stats struct {
	// DocumentsSubmitted is the number of documents accepted by Submit
	DocumentsSubmitted uint64
	// DocumentsEvaluated is the number of documents evaluated without error
	DocumentsEvaluated uint64
	// DocumentsMatched is the number of evaluated documents that produced at least one value
	DocumentsMatched uint64
	// ValuesProduced is the total number of values produced
	ValuesProduced uint64
	// Errors is the number of failed evaluations
	Errors uint64

	CurrentQueueDepth int
	PeakQueueDepth    int

	// TotalDuration is the summed evaluation time across workers
	TotalDuration    time.Duration
	LastDocumentTime time.Time
	StartTime        time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// RecordSubmit increments the submitted counter
func (m *Metrics) RecordSubmit() {
	m.documentsSubmitted.Add(1)
}

// RecordEvaluate records an evaluation result
func (m *Metrics) RecordEvaluate(duration time.Duration, matched bool, err error) {
	if err != nil {
		m.errors.Add(1)
	} else {
		m.documentsEvaluated.Add(1)
		if matched {
			m.documentsMatched.Add(1)
		}
	}
	m.mu.Lock()
	m.totalDuration += duration
	m.lastDocumentTime = time.Now()
	m.mu.Unlock()
}

// RecordValues adds to the produced value count
func (m *Metrics) RecordValues(count int) {
	if count > 0 {
		m.valuesProduced.Add(uint64(count))
	}
}

// UpdateQueueDepth updates the queue depth tracking
func (m *Metrics) UpdateQueueDepth(depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentQueueDepth = depth
	if depth > m.peakQueueDepth {
		m.peakQueueDepth = depth
	}
}

// Stats returns a snapshot of the current metrics
func (m *Metrics) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		DocumentsSubmitted: m.documentsSubmitted.Load(),
		DocumentsEvaluated: m.documentsEvaluated.Load(),
		DocumentsMatched:   m.documentsMatched.Load(),
		ValuesProduced:     m.valuesProduced.Load(),
		Errors:             m.errors.Load(),
		CurrentQueueDepth:  m.currentQueueDepth,
		PeakQueueDepth:     m.peakQueueDepth,
		TotalDuration:      m.totalDuration,
		LastDocumentTime:   m.lastDocumentTime,
		StartTime:          m.startTime,
	}
}

// Reset resets all metrics
func (m *Metrics) Reset() {
	m.documentsSubmitted.Store(0)
	m.documentsEvaluated.Store(0)
	m.documentsMatched.Store(0)
	m.valuesProduced.Store(0)
	m.errors.Store(0)

	m.mu.Lock()
	m.currentQueueDepth = 0
	m.peakQueueDepth = 0
	m.totalDuration = 0
	m.lastDocumentTime = time.Time{}
	m.startTime = time.Now()
	m.mu.Unlock()
}
