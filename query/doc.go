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

// Package query compiles and evaluates queries over encoded CBOR data.
//
// A query is assembled with a Builder, compiled into a pipeline of stages stored
// as a left-child right-sibling binary tree, and evaluated directly against the
// input bytes. Navigation never decodes more than it needs: results are lazy
// values pointing into the input unless a projection builds new structure.
//
//	q, err := query.Compile(
//		query.Path().Key("outputs").Each().AsDictionary(
//			query.Entry("address", query.Path().Index(0)),
//			query.Entry("amount", query.Path().Index(1)),
//		),
//	)
//	if err != nil {
//		return err
//	}
//	err = q.Evaluate(data, func(v query.Value) bool {
//		fmt.Println(v)
//		return true
//	})
package query
