package services

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerFiresCriticalBeforeComplete(t *testing.T) {
	s := NewScheduler()

	var criticalAt, completeAt atomic.Int64
	start := time.Now()
	s.Arm("POTATO-TEST", 10, 100*time.Millisecond,
		func() { criticalAt.Store(int64(time.Since(start))) },
		func() { completeAt.Store(int64(time.Since(start))) },
	)

	require.Eventually(t, func() bool { return completeAt.Load() > 0 }, time.Second, 5*time.Millisecond)
	assert.Greater(t, criticalAt.Load(), int64(0), "critical deadline should fire")
	assert.Less(t, criticalAt.Load(), completeAt.Load())
}

func TestSchedulerCancelStopsBothDeadlines(t *testing.T) {
	s := NewScheduler()

	var fired atomic.Int32
	s.Arm("POTATO-TEST", 42, 50*time.Millisecond,
		func() { fired.Add(1) },
		func() { fired.Add(1) },
	)

	sessionID, ok := s.Cancel("POTATO-TEST")
	require.True(t, ok)
	assert.Equal(t, uint(42), sessionID)
	assert.False(t, s.Armed("POTATO-TEST"))

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, fired.Load(), "cancelled deadlines must not fire")
}

func TestSchedulerCancelWithoutTimer(t *testing.T) {
	s := NewScheduler()
	_, ok := s.Cancel("POTATO-NONE")
	assert.False(t, ok)
}

func TestSchedulerArmReplacesPreviousEntry(t *testing.T) {
	s := NewScheduler()

	var oldFired atomic.Int32
	s.Arm("POTATO-TEST", 1, 50*time.Millisecond,
		func() { oldFired.Add(1) },
		func() { oldFired.Add(1) },
	)
	s.Arm("POTATO-TEST", 2, time.Hour, func() {}, func() {})

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, oldFired.Load(), "replaced deadlines must not fire")

	sessionID, ok := s.Cancel("POTATO-TEST")
	require.True(t, ok)
	assert.Equal(t, uint(2), sessionID)
}
