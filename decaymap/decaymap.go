// Package decaymap implements a lazily evicted map with per-entry
// expiration. It backs the in-memory challenge store.
package decaymap

import (
	"sync"
	"time"
)

// Zilch returns the zero value of any type.
func Zilch[T any]() T {
	var zero T
	return zero
}

type entry[V any] struct {
	value  V
	expiry time.Time
}

// Impl is a map from K to V where every entry decays after its expiry
// passes. Expired entries are evicted lazily on read and in bulk via
// Cleanup.
type Impl[K comparable, V any] struct {
	data map[K]entry[V]
	lock sync.RWMutex
}

// New creates an empty decaying map.
func New[K comparable, V any]() *Impl[K, V] {
	return &Impl[K, V]{
		data: map[K]entry[V]{},
	}
}

// Get fetches a value if it exists and has not expired. Reading an
// expired entry deletes it.
func (m *Impl[K, V]) Get(key K) (V, bool) {
	m.lock.RLock()
	e, ok := m.data[key]
	m.lock.RUnlock()

	if !ok {
		return Zilch[V](), false
	}

	if time.Now().After(e.expiry) {
		m.lock.Lock()
		// Re-check in case another goroutine replaced the entry while
		// we were waiting on the write lock.
		if cur, ok := m.data[key]; ok && time.Now().After(cur.expiry) {
			delete(m.data, key)
		}
		m.lock.Unlock()
		return Zilch[V](), false
	}

	return e.value, true
}

// Set stores a value that expires after the given duration.
func (m *Impl[K, V]) Set(key K, value V, expiry time.Duration) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.data[key] = entry[V]{
		value:  value,
		expiry: time.Now().Add(expiry),
	}
}

// Delete removes a key and reports whether it was present.
func (m *Impl[K, V]) Delete(key K) bool {
	m.lock.Lock()
	defer m.lock.Unlock()

	_, ok := m.data[key]
	delete(m.data, key)
	return ok
}

// Cleanup evicts every expired entry in one pass.
func (m *Impl[K, V]) Cleanup() {
	now := time.Now()

	m.lock.Lock()
	defer m.lock.Unlock()

	for key, e := range m.data {
		if now.After(e.expiry) {
			delete(m.data, key)
		}
	}
}

// Len returns the number of live and not-yet-collected entries.
func (m *Impl[K, V]) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.data)
}
