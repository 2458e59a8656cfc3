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
	"encoding/binary"
	"fmt"
	"reflect"

	"golang.org/x/crypto/blake2b"
)

// BuilderNode is the n-ary tree produced by the Builder. Children are kept in
// builder order. The tree is discarded once transformed.
type BuilderNode struct {
	Stage    Stage
	Children []*BuilderNode
}

// Transform converts the builder tree into a left-child/right-sibling tree in
// store and returns its root
func Transform(root *BuilderNode, store NodeStore) NodeID {
	if root == nil {
		return Nil
	}
	left := transformSiblings(root.Children, 0, store)
	return store.Node(left, Nil, root.Stage)
}

func transformSiblings(nodes []*BuilderNode, i int, store NodeStore) NodeID {
	if i >= len(nodes) {
		return Nil
	}
	right := transformSiblings(nodes, i+1, store)
	if nodes[i] == nil {
		return right
	}
	left := transformSiblings(nodes[i].Children, 0, store)
	return store.Node(left, right, nodes[i].Stage)
}

// StageEqualer is implemented by stages that are not comparable with ==
type StageEqualer interface {
	Equal(other Stage) bool
}

// StagesEqual compares stages by value. Stages holding functions are never
// equal, not even to themselves.
func StagesEqual(a, b Stage) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if e, ok := a.(StageEqualer); ok {
		return e.Equal(b)
	}
	if !stageComparable(a) || !stageComparable(b) {
		return false
	}
	return a == b
}

// stageComparable reports whether s can be compared with == and used as a map
// key without panicking
func stageComparable(s Stage) bool {
	return s == nil || reflect.ValueOf(s).Comparable()
}

// Equal reports whether two trees, possibly in different stores, are
// structurally equal
func Equal(storeA NodeStore, a NodeID, storeB NodeStore, b NodeID) bool {
	if a == Nil || b == Nil {
		return a == Nil && b == Nil
	}
	if storeA == storeB && a == b {
		return true
	}
	return StagesEqual(storeA.Stage(a), storeB.Stage(b)) &&
		Equal(storeA, storeA.Left(a), storeB, storeB.Left(b)) &&
		Equal(storeA, storeA.Right(a), storeB, storeB.Right(b))
}

// Fingerprint hashes the structure of a tree. Equal trees have equal
// fingerprints.
func Fingerprint(store NodeStore, root NodeID) [32]byte {
	h, _ := blake2b.New256(nil)
	var walk func(id NodeID)
	walk = func(id NodeID) {
		if id == Nil {
			_, _ = h.Write([]byte{0})
			return
		}
		desc := stageLabel(store.Stage(id))
		var length [5]byte
		length[0] = 1
		binary.BigEndian.PutUint32(length[1:], uint32(len(desc)))
		_, _ = h.Write(length[:])
		_, _ = h.Write([]byte(desc))
		walk(store.Left(id))
		walk(store.Right(id))
	}
	walk(root)
	var ret [32]byte
	copy(ret[:], h.Sum(nil))
	return ret
}

func stageLabel(stage Stage) string {
	if stage == nil {
		return "·"
	}
	if s, ok := stage.(fmt.Stringer); ok {
		return fmt.Sprintf("%T %s", stage, s.String())
	}
	return fmt.Sprintf("%T %+v", stage, stage)
}
