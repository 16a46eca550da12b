package services

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/EthanBrewster/potatodoro/internal/models"
	"github.com/EthanBrewster/potatodoro/internal/store"
)

// fakeAccounting records every call so tests can assert exactly-once
// settlement without a database.
type fakeAccounting struct {
	mu        sync.Mutex
	nextID    uint
	users     map[string]string
	started   []startedCall
	completed []completedCall
	tosses    []tossCall
}

type startedCall struct {
	sessionID uint
	userID    string
	roomCode  string
}

type completedCall struct {
	sessionID uint
	elapsed   time.Duration
	joules    int
}

type tossCall struct {
	userID string
	joules int
}

func newFakeAccounting() *fakeAccounting {
	return &fakeAccounting{users: make(map[string]string)}
}

func (f *fakeAccounting) UpsertUser(_ context.Context, id, nickname string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id] = nickname
	return nil
}

func (f *fakeAccounting) StartSession(_ context.Context, userID, roomCode string) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.started = append(f.started, startedCall{sessionID: f.nextID, userID: userID, roomCode: roomCode})
	return f.nextID, nil
}

func (f *fakeAccounting) CompleteSession(_ context.Context, sessionID uint, elapsed time.Duration, joules int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, completedCall{sessionID: sessionID, elapsed: elapsed, joules: joules})
	return nil
}

func (f *fakeAccounting) RecordToss(_ context.Context, userID string, joules int) ([]models.Topping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tosses = append(f.tosses, tossCall{userID: userID, joules: joules})
	return nil, nil
}

func (f *fakeAccounting) UserStats(context.Context, string) (*models.User, error) {
	return nil, nil
}

func (f *fakeAccounting) UserToppings(context.Context, string) ([]models.UserTopping, error) {
	return nil, nil
}

func (f *fakeAccounting) tossCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tosses)
}

func (f *fakeAccounting) completedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.completed)
}

// recorder captures broadcasts without a websocket hub behind them.
type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	room  string
	to    string
	event string
	data  any
}

func (r *recorder) Broadcast(roomCode, event string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{room: roomCode, event: event, data: data})
}

func (r *recorder) SendTo(roomCode, participantID, event string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{room: roomCode, to: participantID, event: event, data: data})
}

func (r *recorder) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.event == event {
			n++
		}
	}
	return n
}

type testEnv struct {
	store      *store.Memory
	accounting *fakeAccounting
	events     *recorder
	scheduler  *Scheduler
	sessions   *SessionService
	rooms      *RoomService
}

func newTestEnv(t *testing.T, grace, session, rest time.Duration) *testEnv {
	t.Helper()

	st := store.NewMemory(time.Hour)
	t.Cleanup(st.Close)

	acc := newFakeAccounting()
	rec := &recorder{}
	sched := NewScheduler()
	sessions := NewSessionService(st, acc, sched, NewReclaimSupervisor(grace),
		NewTossResolver(rand.New(rand.NewSource(42))), rec)
	rooms := NewRoomService(st, acc, sessions, rec, 5, session, rest)

	return &testEnv{
		store:      st,
		accounting: acc,
		events:     rec,
		scheduler:  sched,
		sessions:   sessions,
		rooms:      rooms,
	}
}

// createKitchen builds a room with the given participant ids; the first id
// is the creator.
func (e *testEnv) createKitchen(t *testing.T, ids ...string) string {
	t.Helper()
	ctx := context.Background()

	created, err := e.rooms.CreateRoom(ctx, "chef-"+ids[0], ids[0])
	require.NoError(t, err)

	for _, id := range ids[1:] {
		_, err := e.rooms.JoinRoom(ctx, created.RoomCode, "chef-"+id, id)
		require.NoError(t, err)
	}
	return created.RoomCode
}

func (e *testEnv) room(t *testing.T, code string) store.Room {
	t.Helper()
	room, err := e.store.Room(context.Background(), code)
	require.NoError(t, err)
	return room
}

func (e *testEnv) member(t *testing.T, code, id string) store.Member {
	t.Helper()
	member, err := e.store.Member(context.Background(), code, id)
	require.NoError(t, err)
	return member
}
