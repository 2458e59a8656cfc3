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

import "errors"

var (
	// ErrEvaluatorStopped is returned when submitting to a stopped evaluator
	ErrEvaluatorStopped = errors.New("batch: evaluator is stopped")

	// ErrEvaluatorNotStarted is returned when using an evaluator that hasn't been started
	ErrEvaluatorNotStarted = errors.New("batch: evaluator not started")

	ErrNilQuery = errors.New("batch: nil query")
	ErrNilStage = errors.New("batch: nil stage")
)
