// Package hashmap provides the expiring map backing the session cache
package hashmap

import (
	"sync"
	"time"

	"github.com/skybi/portal-client/internal/task"
)

type expiringEntry[V any] struct {
	value    V
	deadline time.Time
}

// ExpiringMap is a thread safe map whose values expire a fixed lifetime after they were set.
// Expired values are never returned; ScheduleCleanupTask additionally frees their memory periodically.
type ExpiringMap[K comparable, V any] struct {
	mtx      sync.RWMutex
	entries  map[K]expiringEntry[V]
	lifetime time.Duration

	cleanupTask *task.RepeatingTask
}

// NewExpiring creates a new expiring map whose values exist for a specific lifetime
func NewExpiring[K comparable, V any](lifetime time.Duration) *ExpiringMap[K, V] {
	return &ExpiringMap[K, V]{
		entries:  make(map[K]expiringEntry[V]),
		lifetime: lifetime,
	}
}

// ScheduleCleanupTask schedules the task that removes expired values in a specific interval.
// StopCleanupTask has to be called as soon as the map is no longer needed as it would not be garbage collected
// otherwise.
func (obj *ExpiringMap[K, V]) ScheduleCleanupTask(tick time.Duration) {
	obj.mtx.Lock()
	defer obj.mtx.Unlock()
	if obj.cleanupTask != nil {
		return
	}
	obj.cleanupTask = task.NewRepeating(obj.removeExpired, tick)
	obj.cleanupTask.Start()
}

// StopCleanupTask stops the cleanup task and waits for a running cleanup to finish
func (obj *ExpiringMap[K, V]) StopCleanupTask() {
	obj.mtx.Lock()
	cleanupTask := obj.cleanupTask
	obj.cleanupTask = nil
	obj.mtx.Unlock()

	if cleanupTask != nil {
		cleanupTask.Stop(true)
	}
}

func (obj *ExpiringMap[K, V]) removeExpired() {
	now := time.Now()
	obj.mtx.Lock()
	defer obj.mtx.Unlock()
	for key, entry := range obj.entries {
		if now.After(entry.deadline) {
			delete(obj.entries, key)
		}
	}
}

// Size returns the amount of stored values, including expired ones that were not cleaned up yet
func (obj *ExpiringMap[K, V]) Size() int {
	obj.mtx.RLock()
	defer obj.mtx.RUnlock()
	return len(obj.entries)
}

// Lookup returns the value assigned to the given key and a boolean indicating if an unexpired one was assigned
func (obj *ExpiringMap[K, V]) Lookup(key K) (V, bool) {
	obj.mtx.RLock()
	entry, ok := obj.entries[key]
	obj.mtx.RUnlock()
	if !ok || time.Now().After(entry.deadline) {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Set assigns value to key and resets its lifetime
func (obj *ExpiringMap[K, V]) Set(key K, value V) {
	obj.mtx.Lock()
	defer obj.mtx.Unlock()
	obj.entries[key] = expiringEntry[V]{
		value:    value,
		deadline: time.Now().Add(obj.lifetime),
	}
}

// Unset deletes the value assigned to key
func (obj *ExpiringMap[K, V]) Unset(key K) {
	obj.mtx.Lock()
	defer obj.mtx.Unlock()
	delete(obj.entries, key)
}
