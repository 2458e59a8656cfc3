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

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes the pipeline tree rooted at root. The right subtree of a node is
// rendered above it and the left subtree below, indented one level deeper.
func Dump(w io.Writer, store NodeStore, root NodeID) error {
	return dumpNode(w, store, root, 0, "")
}

func dumpNode(w io.Writer, store NodeStore, id NodeID, depth int, glyph string) error {
	if id == Nil {
		return nil
	}
	if err := dumpNode(w, store, store.Right(id), depth+1, "┌── "); err != nil {
		return err
	}
	label := "·"
	if stage := store.Stage(id); stage != nil {
		label = fmt.Sprint(stage)
	}
	indent := strings.Repeat("    ", max(depth-1, 0))
	if _, err := fmt.Fprintf(w, "%s%s%s\n", indent, glyph, label); err != nil {
		return err
	}
	return dumpNode(w, store, store.Left(id), depth+1, "└── ")
}

// DumpString returns the output of Dump
func DumpString(store NodeStore, root NodeID) string {
	var sb strings.Builder
	_ = Dump(&sb, store, root)
	return sb.String()
}
