// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package layout

import (
	"sync"

	"github.com/dchest/siphash"
)

// just two fixed random values keying siphash, used here as a
// non-cryptographic hash (the same trick as splitter.go upstream).
const (
	cacheKey0 = uint64(0x5d1ec810)
	cacheKey1 = uint64(0xfebed702)
)

// Cache memoizes the flattened Rule produced by resolving a Reference by
// module path, so a layout file that refers to the same shared module
// from many places only pays the JSON-walk cost once. It is safe for
// concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[uint64]Rule
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[uint64]Rule)}
}

func cacheHash(modulePath string) uint64 {
	return siphash.Hash(cacheKey0, cacheKey1, []byte(modulePath))
}

// Get returns the cached Rule for modulePath, if any has been stored.
func (c *Cache) Get(modulePath string) (Rule, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[cacheHash(modulePath)]
	return r, ok
}

// Store records rule as the flattened Rule for modulePath. A second
// Store for the same path overwrites the first, since layout reloads
// should always win over a stale cache entry.
func (c *Cache) Store(modulePath string, rule Rule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheHash(modulePath)] = rule
}

// Resolve returns the Rule a Reference node points at, consulting and
// populating cache by the Reference's source module path. If ref is
// Unresolved, Resolve reports false.
func Resolve(cache *Cache, ref RuleRef) (Rule, bool) {
	if ref.State != RefResolved {
		return Rule{}, false
	}
	if cache != nil {
		if r, ok := cache.Get(ref.SourceModulePath); ok {
			return r, true
		}
	}
	if ref.RefRule == nil {
		return Rule{}, false
	}
	r := *ref.RefRule
	if cache != nil && ref.SourceModulePath != "" {
		cache.Store(ref.SourceModulePath, r)
	}
	return r, true
}
