package threadsafe

import "sync"

// Map provides a simple locked map[K]V in order to make it thread safe
type Map[K comparable, V any] struct {
	mtx    sync.RWMutex
	values map[K]V
}

// NewMap creates a new thread safe map
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{
		values: make(map[K]V),
	}
}

// Lookup looks up a specific key and returns the corresponding value and a boolean indicating if it was found
func (safeMap *Map[K, V]) Lookup(key K) (V, bool) {
	safeMap.mtx.RLock()
	defer safeMap.mtx.RUnlock()
	val, ok := safeMap.values[key]
	return val, ok
}

// Set sets the value of a specific key
func (safeMap *Map[K, V]) Set(key K, val V) {
	safeMap.mtx.Lock()
	defer safeMap.mtx.Unlock()
	safeMap.values[key] = val
}

// SetIfAbsent sets the value of a specific key only if none is set and reports whether it did
func (safeMap *Map[K, V]) SetIfAbsent(key K, val V) bool {
	safeMap.mtx.Lock()
	defer safeMap.mtx.Unlock()
	if _, ok := safeMap.values[key]; ok {
		return false
	}
	safeMap.values[key] = val
	return true
}

// Remove removes the value of a specific key
func (safeMap *Map[K, V]) Remove(key K) {
	safeMap.mtx.Lock()
	defer safeMap.mtx.Unlock()
	delete(safeMap.values, key)
}

// RemoveWhere removes all entries matching the given predicate
func (safeMap *Map[K, V]) RemoveWhere(predicate func(key K, val V) bool) {
	safeMap.mtx.Lock()
	defer safeMap.mtx.Unlock()
	for key, val := range safeMap.values {
		if predicate(key, val) {
			delete(safeMap.values, key)
		}
	}
}
