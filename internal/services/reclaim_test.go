package services

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReclaimWatchDedupesSameHolder(t *testing.T) {
	r := NewReclaimSupervisor(50 * time.Millisecond)

	var fired atomic.Int32
	require.True(t, r.Watch("POTATO-TEST", "a", func() { fired.Add(1) }))
	require.False(t, r.Watch("POTATO-TEST", "a", func() { fired.Add(1) }),
		"second disconnect for the same holder must not arm a second watch")

	require.Eventually(t, func() bool { return fired.Load() > 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestReclaimWatchNewHolderReplacesOld(t *testing.T) {
	r := NewReclaimSupervisor(50 * time.Millisecond)

	var oldFired, newFired atomic.Int32
	require.True(t, r.Watch("POTATO-TEST", "a", func() { oldFired.Add(1) }))
	require.True(t, r.Watch("POTATO-TEST", "b", func() { newFired.Add(1) }))

	require.Eventually(t, func() bool { return newFired.Load() > 0 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, oldFired.Load(), "watch for a previous holder must be replaced, not fired")
}

func TestReclaimCancel(t *testing.T) {
	r := NewReclaimSupervisor(50 * time.Millisecond)

	var fired atomic.Int32
	require.True(t, r.Watch("POTATO-TEST", "a", func() { fired.Add(1) }))
	r.Cancel("POTATO-TEST", "a")

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, fired.Load())
}

func TestReclaimCancelWrongHolderKeepsWatch(t *testing.T) {
	r := NewReclaimSupervisor(50 * time.Millisecond)

	var fired atomic.Int32
	require.True(t, r.Watch("POTATO-TEST", "a", func() { fired.Add(1) }))
	r.Cancel("POTATO-TEST", "b")

	require.Eventually(t, func() bool { return fired.Load() > 0 }, time.Second, 5*time.Millisecond)
}
