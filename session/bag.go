// Package session implements the Session Bag (spec.md §3, §4.6): a
// thread-safe, namespaced memoization store keyed by (namespace, key) that
// guarantees a factory runs at most once per key across concurrent callers.
// Single-flight semantics are backed by golang.org/x/sync/singleflight, the
// same library the teacher's dependency set carries for exactly this
// purpose, promoted here from an indirect to a direct dependency.
package session

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Bag is a namespaced, thread-safe memoization store.
type Bag struct {
	group singleflight.Group
	mu    sync.RWMutex
	store map[string]any
}

// NewBag returns an empty session bag.
func NewBag() *Bag {
	return &Bag{store: make(map[string]any)}
}

// GetOrPut returns the value stored under (namespace, key), computing it
// with factory on first access. Concurrent callers for the same key invoke
// factory at most once and all receive the same instance.
func (b *Bag) GetOrPut(namespace, key string, factory func() (any, error)) (any, error) {
	composite := namespace + "\x00" + key

	b.mu.RLock()
	if v, ok := b.store[composite]; ok {
		b.mu.RUnlock()
		return v, nil
	}
	b.mu.RUnlock()

	v, err, _ := b.group.Do(composite, func() (any, error) {
		b.mu.RLock()
		if existing, ok := b.store[composite]; ok {
			b.mu.RUnlock()
			return existing, nil
		}
		b.mu.RUnlock()

		val, err := factory()
		if err != nil {
			return nil, err
		}
		b.mu.Lock()
		b.store[composite] = val
		b.mu.Unlock()
		return val, nil
	})
	if err != nil {
		return nil, fmt.Errorf("session: factory for %s/%s: %w", namespace, key, err)
	}
	return v, nil
}
