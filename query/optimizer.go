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
	"log/slog"
)

// Rule is a tree rewrite applied by the optimizer. Applies is checked against the
// current root; Rewrite returns a new root built in the same store and must not
// modify existing nodes.
type Rule struct {
	Name    string
	Applies func(store NodeStore, root NodeID) bool
	Rewrite func(store NodeStore, root NodeID) (NodeID, error)
}

// DefaultRules returns the rules applied by Compile, in order
func DefaultRules() []Rule {
	return []Rule{
		DeadBranchElimination(),
		CollapseTypeAssertions(),
		FuseSelectors(),
	}
}

// Optimize applies each applicable rule in order and returns the final root
func Optimize(store NodeStore, root NodeID, rules []Rule, logger *slog.Logger) (NodeID, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, rule := range rules {
		if rule.Applies == nil || rule.Rewrite == nil {
			return Nil, fmt.Errorf("%w: rule %q is incomplete", ErrInvalidQuery, rule.Name)
		}
		if !rule.Applies(store, root) {
			continue
		}
		newRoot, err := rule.Rewrite(store, root)
		if err != nil {
			return Nil, fmt.Errorf("optimizer rule %s: %w", rule.Name, err)
		}
		logger.Debug(
			"applied optimizer rule",
			"rule", rule.Name,
			"nodes_before", Size(store, root),
			"nodes", Size(store, newRoot),
		)
		root = newRoot
	}
	return root, nil
}

// anyNode reports whether pred holds for any node reachable from root
func anyNode(store NodeStore, root NodeID, pred func(id NodeID) bool) bool {
	if root == Nil {
		return false
	}
	return pred(root) ||
		anyNode(store, store.Left(root), pred) ||
		anyNode(store, store.Right(root), pred)
}

// rebuild reconstructs the tree bottom-up. fn receives the rewritten children of
// each node and returns its replacement.
func rebuild(
	store NodeStore,
	root NodeID,
	fn func(left, right NodeID, stage Stage) NodeID,
) NodeID {
	if root == Nil {
		return Nil
	}
	right := rebuild(store, store.Right(root), fn)
	left := rebuild(store, store.Left(root), fn)
	return fn(left, right, store.Stage(root))
}

// appendChain attaches tail after the last sibling of the chain starting at head
func appendChain(store NodeStore, head, tail NodeID) NodeID {
	if head == Nil {
		return tail
	}
	if tail == Nil {
		return head
	}
	right := appendChain(store, store.Right(head), tail)
	return store.Node(store.Left(head), right, store.Stage(head))
}

func isLeaf(stage Stage) bool {
	_, ok := stage.(leafStage)
	return ok
}

// DeadBranchElimination removes subtrees that can never run: the children of
// structural nodes and of stages that never visit children. Structural nodes
// left without children are spliced out of their sibling chain.
func DeadBranchElimination() Rule {
	return Rule{
		Name: "DeadBranchElimination",
		Applies: func(store NodeStore, root NodeID) bool {
			return anyNode(store, root, func(id NodeID) bool {
				stage := store.Stage(id)
				return stage == nil || (isLeaf(stage) && store.Left(id) != Nil)
			})
		},
		Rewrite: func(store NodeStore, root NodeID) (NodeID, error) {
			return rebuild(store, root, func(left, right NodeID, stage Stage) NodeID {
				if stage == nil {
					return right
				}
				if isLeaf(stage) {
					left = Nil
				}
				return store.Node(left, right, stage)
			}), nil
		},
	}
}

func transparentAssertion(stage Stage) bool {
	switch s := stage.(type) {
	case RequireTypeStage:
		return s.Spec == SpecAny
	case NullOrTypeStage:
		return s.Spec == SpecAny
	}
	return false
}

func redundantAssertion(store NodeStore, id NodeID) bool {
	stage := store.Stage(id)
	switch stage.(type) {
	case RequireTypeStage, NullOrTypeStage:
	default:
		return false
	}
	child := store.Left(id)
	return child != Nil && store.Right(child) == Nil && StagesEqual(stage, store.Stage(child))
}

// CollapseTypeAssertions removes assertions that always pass: assertions of Any
// and an assertion repeated by its only child
func CollapseTypeAssertions() Rule {
	return Rule{
		Name: "CollapseTypeAssertions",
		Applies: func(store NodeStore, root NodeID) bool {
			return anyNode(store, root, func(id NodeID) bool {
				return transparentAssertion(store.Stage(id)) || redundantAssertion(store, id)
			})
		},
		Rewrite: func(store NodeStore, root NodeID) (NodeID, error) {
			return rebuild(store, root, func(left, right NodeID, stage Stage) NodeID {
				if transparentAssertion(stage) {
					// The children run in place of the assertion
					return appendChain(store, left, right)
				}
				if left != Nil && store.Right(left) == Nil && StagesEqual(stage, store.Stage(left)) {
					switch stage.(type) {
					case RequireTypeStage, NullOrTypeStage:
						left = store.Left(left)
					}
				}
				return store.Node(left, right, stage)
			}), nil
		},
	}
}

func selectorsOf(stage Stage) ([]Selector, bool) {
	switch s := stage.(type) {
	case IndexStage:
		return []Selector{s.selector()}, true
	case KeyStage:
		return []Selector{s.selector()}, true
	case PathStage:
		return s.Steps, true
	}
	return nil, false
}

func fusable(store NodeStore, id NodeID) bool {
	if _, ok := selectorsOf(store.Stage(id)); !ok {
		return false
	}
	child := store.Left(id)
	if child == Nil || store.Right(child) != Nil {
		return false
	}
	_, ok := selectorsOf(store.Stage(child))
	return ok
}

// FuseSelectors merges chains of index and key steps that each have a single
// child into one PathStage
func FuseSelectors() Rule {
	return Rule{
		Name: "FuseSelectors",
		Applies: func(store NodeStore, root NodeID) bool {
			return anyNode(store, root, func(id NodeID) bool {
				return fusable(store, id)
			})
		},
		Rewrite: func(store NodeStore, root NodeID) (NodeID, error) {
			// Children are rebuilt first, so a fusable child is already a PathStage
			return rebuild(store, root, func(left, right NodeID, stage Stage) NodeID {
				steps, ok := selectorsOf(stage)
				if !ok || left == Nil || store.Right(left) != Nil {
					return store.Node(left, right, stage)
				}
				childSteps, ok := selectorsOf(store.Stage(left))
				if !ok {
					return store.Node(left, right, stage)
				}
				fused := make([]Selector, 0, len(steps)+len(childSteps))
				fused = append(fused, steps...)
				fused = append(fused, childSteps...)
				return store.Node(store.Left(left), right, PathStage{Steps: fused})
			}), nil
		},
	}
}
