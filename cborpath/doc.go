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

// Package cborpath parses textual path expressions into queries.
//
// Supported syntax:
//
//	$                 the root item (optional)
//	.name  ["name"]   dictionary text key
//	[#-12]            dictionary integer key
//	[0]               sequence index
//	.*  [*]           every element of a sequence or value of a dictionary
//	[="abc"]  [=12]   first sequence element equal to a text or integer literal
//	[?uint]           type assertion, failing on a present value of another type
//	[?uint|null]      type assertion that also accepts null
//
// Type names are the names of the query type specs, compared case-insensitively,
// and tag$<id> for a specific semantic tag.
package cborpath
