package task

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRepeatingTask(t *testing.T) {
	var runs atomic.Int32
	task := NewRepeating(func() { runs.Add(1) }, 5*time.Millisecond)

	task.Start()
	task.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, time.Millisecond)

	task.Stop(false)
	stopped := runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, runs.Load())

	task.Stop(true)
	assert.Equal(t, stopped, runs.Load(), "stopping a stopped task must not execute it")
}

func TestRepeatingTaskForceExec(t *testing.T) {
	var runs atomic.Int32
	task := NewRepeating(func() { runs.Add(1) }, time.Hour)
	task.Start()
	task.Stop(true)
	assert.Equal(t, int32(1), runs.Load())
}
