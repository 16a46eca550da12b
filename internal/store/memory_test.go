package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemory(t *testing.T, ttl time.Duration) *Memory {
	t.Helper()
	m := NewMemory(ttl)
	t.Cleanup(m.Close)
	return m
}

func TestMemoryRoomLifecycle(t *testing.T) {
	m := newTestMemory(t, time.Hour)
	ctx := context.Background()

	_, err := m.Room(ctx, "POTATO-AAAA")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	require.NoError(t, m.CreateRoom(ctx, Room{
		Code:            "POTATO-AAAA",
		CreatedBy:       "a",
		Phase:           PhaseIdle,
		SessionDuration: 25 * time.Minute,
	}))

	room, err := m.Room(ctx, "POTATO-AAAA")
	require.NoError(t, err)
	assert.Equal(t, "a", room.CreatedBy)
	assert.Equal(t, PhaseIdle, room.Phase)

	require.NoError(t, m.DeleteRoom(ctx, "POTATO-AAAA"))
	_, err = m.Room(ctx, "POTATO-AAAA")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestMemoryUpdateRoomPartial(t *testing.T) {
	m := newTestMemory(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, m.CreateRoom(ctx, Room{Code: "POTATO-AAAA", Phase: PhaseIdle}))

	now := time.Now()
	require.NoError(t, m.UpdateRoom(ctx, "POTATO-AAAA", RoomUpdate{
		Holder:           Ptr("a"),
		Phase:            Ptr(PhaseHeating),
		SessionStartedAt: &now,
		SessionVersion:   Ptr(uint64(1)),
	}))

	room, err := m.Room(ctx, "POTATO-AAAA")
	require.NoError(t, err)
	assert.Equal(t, "a", room.Holder)
	assert.Equal(t, PhaseHeating, room.Phase)
	require.NotNil(t, room.SessionStartedAt)
	assert.Equal(t, uint64(1), room.SessionVersion)

	// Clearing the holder and session start leaves the rest untouched.
	require.NoError(t, m.UpdateRoom(ctx, "POTATO-AAAA", RoomUpdate{
		Holder:            Ptr(""),
		ClearSessionStart: true,
	}))

	room, err = m.Room(ctx, "POTATO-AAAA")
	require.NoError(t, err)
	assert.Empty(t, room.Holder)
	assert.Nil(t, room.SessionStartedAt)
	assert.Equal(t, PhaseHeating, room.Phase)

	assert.ErrorIs(t, m.UpdateRoom(ctx, "POTATO-GONE", RoomUpdate{}), ErrRoomNotFound)
}

func TestMemoryMembers(t *testing.T) {
	m := newTestMemory(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, m.CreateRoom(ctx, Room{Code: "POTATO-AAAA"}))

	base := time.Now()
	require.NoError(t, m.AddMember(ctx, "POTATO-AAAA", Member{ID: "b", JoinedAt: base.Add(time.Second)}))
	require.NoError(t, m.AddMember(ctx, "POTATO-AAAA", Member{ID: "a", JoinedAt: base}))
	require.NoError(t, m.AddMember(ctx, "POTATO-AAAA", Member{ID: "c", JoinedAt: base.Add(2 * time.Second)}))

	members, err := m.Members(ctx, "POTATO-AAAA")
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, "a", members[0].ID, "members are ordered by join time")
	assert.Equal(t, "b", members[1].ID)
	assert.Equal(t, "c", members[2].ID)

	require.NoError(t, m.UpdateMember(ctx, "POTATO-AAAA", "a", MemberUpdate{
		State:  Ptr(StateHeating),
		Tosses: Ptr(3),
	}))
	member, err := m.Member(ctx, "POTATO-AAAA", "a")
	require.NoError(t, err)
	assert.Equal(t, StateHeating, member.State)
	assert.Equal(t, 3, member.Tosses)

	require.NoError(t, m.RemoveMember(ctx, "POTATO-AAAA", "b"))
	_, err = m.Member(ctx, "POTATO-AAAA", "b")
	assert.ErrorIs(t, err, ErrMemberNotFound)

	_, err = m.Member(ctx, "POTATO-GONE", "a")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestMemoryBindings(t *testing.T) {
	m := newTestMemory(t, time.Hour)
	ctx := context.Background()

	_, ok, err := m.ParticipantRoom(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.BindParticipant(ctx, "a", "POTATO-AAAA"))
	code, ok, err := m.ParticipantRoom(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "POTATO-AAAA", code)

	require.NoError(t, m.UnbindParticipant(ctx, "a"))
	_, ok, err = m.ParticipantRoom(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryOvenIsOrderedAndDeduped(t *testing.T) {
	m := newTestMemory(t, time.Hour)
	ctx := context.Background()

	_, ok, err := m.PopOven(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.PushOven(ctx, "POTATO-AAAA"))
	require.NoError(t, m.PushOven(ctx, "POTATO-BBBB"))
	require.NoError(t, m.PushOven(ctx, "POTATO-AAAA"))

	code, ok, err := m.PopOven(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "POTATO-AAAA", code)

	code, ok, err = m.PopOven(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "POTATO-BBBB", code)

	_, ok, err = m.PopOven(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryExpiresIdleRooms(t *testing.T) {
	m := newTestMemory(t, 50*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, m.CreateRoom(ctx, Room{Code: "POTATO-AAAA"}))
	require.NoError(t, m.AddMember(ctx, "POTATO-AAAA", Member{ID: "a"}))
	require.NoError(t, m.BindParticipant(ctx, "a", "POTATO-AAAA"))

	require.Eventually(t, func() bool {
		_, err := m.Room(ctx, "POTATO-AAAA")
		return err != nil
	}, time.Second, 10*time.Millisecond)

	_, ok, err := m.ParticipantRoom(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok, "expiry drops the members' bindings too")
}

func TestMemoryZeroTTLFallsBackToDefault(t *testing.T) {
	m := newTestMemory(t, 0)
	ctx := context.Background()

	require.NoError(t, m.CreateRoom(ctx, Room{Code: "POTATO-AAAA"}))
	time.Sleep(30 * time.Millisecond)

	_, err := m.Room(ctx, "POTATO-AAAA")
	assert.NoError(t, err, "a misconfigured TTL must not expire rooms immediately")
}

func TestMemoryWriteActivityRefreshesExpiry(t *testing.T) {
	m := newTestMemory(t, 80*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, m.CreateRoom(ctx, Room{Code: "POTATO-AAAA"}))

	// Keep writing for well past the TTL; the room must survive.
	deadline := time.Now().Add(250 * time.Millisecond)
	for time.Now().Before(deadline) {
		require.NoError(t, m.UpdateRoom(ctx, "POTATO-AAAA", RoomUpdate{Phase: Ptr(PhaseIdle)}))
		time.Sleep(20 * time.Millisecond)
	}

	_, err := m.Room(ctx, "POTATO-AAAA")
	assert.NoError(t, err)
}
