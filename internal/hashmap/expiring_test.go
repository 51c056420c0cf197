package hashmap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpiringMap(t *testing.T) {
	m := NewExpiring[string, int](15 * time.Millisecond)
	m.Set("a", 1)

	val, ok := m.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, 1, val)

	time.Sleep(25 * time.Millisecond)
	_, ok = m.Lookup("a")
	assert.False(t, ok)
	assert.Equal(t, 1, m.Size(), "expired values stay until cleaned up")
}

func TestExpiringMapCleanup(t *testing.T) {
	m := NewExpiring[string, int](5 * time.Millisecond)
	m.ScheduleCleanupTask(5 * time.Millisecond)
	defer m.StopCleanupTask()

	m.Set("a", 1)
	m.Set("b", 2)
	assert.Eventually(t, func() bool { return m.Size() == 0 }, time.Second, 5*time.Millisecond)
}

func TestExpiringMapSetResetsLifetime(t *testing.T) {
	m := NewExpiring[string, int](40 * time.Millisecond)
	m.Set("a", 1)
	time.Sleep(25 * time.Millisecond)
	m.Set("a", 2)
	time.Sleep(25 * time.Millisecond)

	val, ok := m.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, 2, val)

	m.Unset("a")
	_, ok = m.Lookup("a")
	assert.False(t, ok)
	assert.Zero(t, m.Size())
}
