package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodicTask(t *testing.T) {
	var counter int32

	task := func() {
		atomic.AddInt32(&counter, 1)
	}

	pt := New(100*time.Millisecond, task)

	pt.Start()
	assert.True(t, pt.IsRunning())

	// Wait for a few executions
	time.Sleep(350 * time.Millisecond)

	pt.Stop()
	assert.False(t, pt.IsRunning())

	assert.GreaterOrEqual(t, atomic.LoadInt32(&counter), int32(3))

	// Verify counter doesn't increment after stop
	finalCount := atomic.LoadInt32(&counter)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, finalCount, atomic.LoadInt32(&counter))
}

func TestPeriodicTask_ImmediateRun(t *testing.T) {
	var counter int32

	pt := New(time.Hour, func() {
		atomic.AddInt32(&counter, 1)
	}, WithImmediateRun())

	pt.Start()
	defer pt.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&counter) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestPeriodicTask_NonPositiveInterval(t *testing.T) {
	pt := New(0, func() {})
	assert.Equal(t, time.Minute, pt.interval)
}

func TestPeriodicTask_StopBeforeStart(t *testing.T) {
	pt := New(100*time.Millisecond, func() {})
	pt.Stop() // Should not panic
	assert.False(t, pt.IsRunning())
}

func TestPeriodicTask_DoubleStart(t *testing.T) {
	var counter int32
	pt := New(100*time.Millisecond, func() {
		atomic.AddInt32(&counter, 1)
	})

	pt.Start()
	pt.Start() // Second start should be ignored

	time.Sleep(150 * time.Millisecond)
	pt.Stop()

	assert.GreaterOrEqual(t, atomic.LoadInt32(&counter), int32(1))
}
