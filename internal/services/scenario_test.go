package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EthanBrewster/potatodoro/internal/store"
)

// Full hot-potato round with compressed durations: four chefs share a
// kitchen, one heats through critical to ready, then tosses blind and the
// potato lands with somebody else while the tosser cools down.
func TestHotPotatoRound(t *testing.T) {
	env := newTestEnv(t, 40*time.Millisecond, 25*time.Minute, 60*time.Millisecond)
	ctx := context.Background()
	code := env.createKitchen(t, "a", "b", "c", "d")

	_, err := env.sessions.StartHeating(ctx, "a", 80*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, store.PhaseHeating, env.room(t, code).Phase)

	require.Eventually(t, func() bool {
		return env.room(t, code).Phase == store.PhaseCritical
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return env.events.count(EventPotatoReadyToToss) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "a", env.room(t, code).Holder)

	res, err := env.sessions.Toss(ctx, "a", "")
	require.NoError(t, err)
	require.False(t, res.SentToOven)
	assert.Contains(t, []string{"b", "c", "d"}, res.TargetID)

	room := env.room(t, code)
	assert.Equal(t, res.TargetID, room.Holder)
	assert.Equal(t, store.PhaseIdle, room.Phase)
	assert.Equal(t, store.StateCooling, env.member(t, code, "a").State)

	require.Eventually(t, func() bool { return env.accounting.tossCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, env.accounting.completedCount())

	// The new holder can start their own session right away.
	_, err = env.sessions.StartHeating(ctx, res.TargetID, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), env.room(t, code).SessionVersion)

	// And the rested tosser eventually returns to idle.
	require.Eventually(t, func() bool {
		return env.member(t, code, "a").State == store.StateIdle
	}, time.Second, 5*time.Millisecond)
}
