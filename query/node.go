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

// NodeID addresses a pipeline node inside a NodeStore
type NodeID uint32

// Nil is the universal terminator and the canonical empty subtree. It is never
// stored and only equals itself.
const Nil NodeID = 0

// NodeStore holds the nodes of left-child/right-sibling pipeline trees. Left is
// the first child of a node and Right its next sibling. Node never returns a node
// with no stage and no children; it returns Nil instead.
type NodeStore interface {
	Node(left, right NodeID, stage Stage) NodeID
	Left(id NodeID) NodeID
	Right(id NodeID) NodeID
	Stage(id NodeID) Stage
	Len() int
}

type node struct {
	left  NodeID
	right NodeID
	stage Stage
}

// Arena is an append-only NodeStore. It is safe for concurrent reads once no
// more nodes are added.
type Arena struct {
	nodes []node
}

func NewArena() *Arena {
	return &Arena{
		// Slot 0 is Nil
		nodes: make([]node, 1, 16),
	}
}

func (a *Arena) Node(left, right NodeID, stage Stage) NodeID {
	if left == Nil && right == Nil && stage == nil {
		return Nil
	}
	a.nodes = append(a.nodes, node{left: left, right: right, stage: stage})
	return NodeID(len(a.nodes) - 1)
}

func (a *Arena) Left(id NodeID) NodeID {
	return a.nodes[id].left
}

func (a *Arena) Right(id NodeID) NodeID {
	return a.nodes[id].right
}

func (a *Arena) Stage(id NodeID) Stage {
	return a.nodes[id].stage
}

// Len returns the number of stored nodes
func (a *Arena) Len() int {
	return len(a.nodes) - 1
}

type internKey struct {
	left  NodeID
	right NodeID
	stage Stage
}

// InterningArena is an Arena that returns the existing node for a repeated
// (left, right, stage) triple, so structurally equal subtrees share one node.
// Stages that are not comparable are never shared.
type InterningArena struct {
	Arena
	interned map[internKey]NodeID
}

func NewInterningArena() *InterningArena {
	return &InterningArena{
		Arena:    *NewArena(),
		interned: make(map[internKey]NodeID),
	}
}

func (a *InterningArena) Node(left, right NodeID, stage Stage) NodeID {
	if left == Nil && right == Nil && stage == nil {
		return Nil
	}
	// Stages holding uncomparable values cannot be map keys
	if !stageComparable(stage) {
		return a.Arena.Node(left, right, stage)
	}
	key := internKey{left: left, right: right, stage: stage}
	if id, ok := a.interned[key]; ok {
		return id
	}
	id := a.Arena.Node(left, right, stage)
	a.interned[key] = id
	return id
}

// Compact copies the tree reachable from root into dst and returns its new root
func Compact(src NodeStore, root NodeID, dst NodeStore) NodeID {
	if root == Nil {
		return Nil
	}
	right := Compact(src, src.Right(root), dst)
	left := Compact(src, src.Left(root), dst)
	return dst.Node(left, right, src.Stage(root))
}

// Size returns the number of nodes reachable from root
func Size(store NodeStore, root NodeID) int {
	if root == Nil {
		return 0
	}
	return 1 + Size(store, store.Left(root)) + Size(store, store.Right(root))
}
