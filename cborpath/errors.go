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

package cborpath

import "errors"

var (
	// ErrSyntax indicates a path expression syntax error
	ErrSyntax = errors.New("cborpath: syntax error")

	// ErrUnknownType indicates a type assertion naming an unknown type
	ErrUnknownType = errors.New("cborpath: unknown type")
)
