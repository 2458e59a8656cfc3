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

import "sync"

type cacheEntry struct {
	store NodeStore
	root  NodeID
	query *Query
}

// Cache shares compiled queries between structurally equal builders. Entries are
// keyed by the fingerprint of the unoptimized tree and confirmed with Equal.
// Queries holding a PredicateFunc never equal anything, so they are compiled
// without being stored.
type Cache struct {
	mutex   sync.Mutex
	entries map[[32]byte][]cacheEntry
	opts    []CompileOption
	hits    uint64
	misses  uint64
}

// NewCache returns a cache compiling with the given options
func NewCache(opts ...CompileOption) *Cache {
	return &Cache{
		entries: make(map[[32]byte][]cacheEntry),
		opts:    opts,
	}
}

// Compile returns the cached query for b, compiling it on first use
func (c *Cache) Compile(b *Builder) (*Query, error) {
	tree, err := b.Build()
	if err != nil {
		return nil, err
	}
	store := NewArena()
	root := Transform(tree, store)
	key := Fingerprint(store, root)
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for _, entry := range c.entries[key] {
		if Equal(entry.store, entry.root, store, root) {
			c.hits++
			return entry.query, nil
		}
	}
	q, err := CompileTree(tree, c.opts...)
	if err != nil {
		return nil, err
	}
	c.misses++
	if selfEqual(store, root) {
		c.entries[key] = append(c.entries[key], cacheEntry{store: store, root: root, query: q})
	}
	return q, nil
}

// selfEqual reports whether every stage of the tree compares equal to itself
func selfEqual(store NodeStore, id NodeID) bool {
	for ; id != Nil; id = store.Right(id) {
		if stage := store.Stage(id); stage != nil && !StagesEqual(stage, stage) {
			return false
		}
		if !selfEqual(store, store.Left(id)) {
			return false
		}
	}
	return true
}

// Len returns the number of cached queries
func (c *Cache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	ret := 0
	for _, entries := range c.entries {
		ret += len(entries)
	}
	return ret
}

// Stats returns the number of cache hits and misses
func (c *Cache) Stats() (hits, misses uint64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.hits, c.misses
}
