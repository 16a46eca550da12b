package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Store with per-room expiry, mirroring the key/TTL
// shape of the production key-value store. Rooms that see no write activity
// for the configured TTL are reclaimed by a janitor sweep.
type Memory struct {
	mu       sync.RWMutex
	ttl      time.Duration
	rooms    map[string]*memRoom
	bindings map[string]string // participant id -> room code
	oven     []ovenEntry
	done     chan struct{}
	stopOnce sync.Once
}

type memRoom struct {
	room      Room
	members   map[string]Member
	expiresAt time.Time
}

type ovenEntry struct {
	code string
	at   time.Time
}

// defaultTTL backstops a missing or non-positive operator-supplied TTL,
// which would otherwise expire rooms instantly and panic the janitor ticker.
const defaultTTL = 24 * time.Hour

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	m := &Memory{
		ttl:      ttl,
		rooms:    make(map[string]*memRoom),
		bindings: make(map[string]string),
		done:     make(chan struct{}),
	}
	go m.janitor()
	return m
}

func (m *Memory) Close() {
	m.stopOnce.Do(func() { close(m.done) })
}

func (m *Memory) janitor() {
	interval := m.ttl / 10
	if interval > time.Minute {
		interval = time.Minute
	} else if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.sweep(now)
		}
	}
}

func (m *Memory) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for code, r := range m.rooms {
		if now.After(r.expiresAt) {
			for id := range r.members {
				delete(m.bindings, id)
			}
			delete(m.rooms, code)
		}
	}
}

func (m *Memory) touch(r *memRoom) {
	r.expiresAt = time.Now().Add(m.ttl)
}

func (m *Memory) CreateRoom(_ context.Context, room Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mr := &memRoom{
		room:    room,
		members: make(map[string]Member),
	}
	m.touch(mr)
	m.rooms[room.Code] = mr
	return nil
}

func (m *Memory) Room(_ context.Context, code string) (Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mr, ok := m.rooms[code]
	if !ok {
		return Room{}, ErrRoomNotFound
	}
	return mr.room, nil
}

func (m *Memory) UpdateRoom(_ context.Context, code string, up RoomUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mr, ok := m.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	if up.Holder != nil {
		mr.room.Holder = *up.Holder
	}
	if up.Phase != nil {
		mr.room.Phase = *up.Phase
	}
	if up.SessionStartedAt != nil {
		t := *up.SessionStartedAt
		mr.room.SessionStartedAt = &t
	} else if up.ClearSessionStart {
		mr.room.SessionStartedAt = nil
	}
	if up.SessionDuration != nil {
		mr.room.SessionDuration = *up.SessionDuration
	}
	if up.SessionVersion != nil {
		mr.room.SessionVersion = *up.SessionVersion
	}
	m.touch(mr)
	return nil
}

func (m *Memory) DeleteRoom(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mr, ok := m.rooms[code]; ok {
		for id := range mr.members {
			delete(m.bindings, id)
		}
		delete(m.rooms, code)
	}
	return nil
}

func (m *Memory) AddMember(_ context.Context, code string, member Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mr, ok := m.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	mr.members[member.ID] = member
	m.touch(mr)
	return nil
}

func (m *Memory) RemoveMember(_ context.Context, code, memberID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mr, ok := m.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	delete(mr.members, memberID)
	m.touch(mr)
	return nil
}

func (m *Memory) Member(_ context.Context, code, memberID string) (Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mr, ok := m.rooms[code]
	if !ok {
		return Member{}, ErrRoomNotFound
	}
	member, ok := mr.members[memberID]
	if !ok {
		return Member{}, ErrMemberNotFound
	}
	return member, nil
}

func (m *Memory) UpdateMember(_ context.Context, code, memberID string, up MemberUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mr, ok := m.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	member, ok := mr.members[memberID]
	if !ok {
		return ErrMemberNotFound
	}
	if up.Nickname != nil {
		member.Nickname = *up.Nickname
	}
	if up.State != nil {
		member.State = *up.State
	}
	if up.Connected != nil {
		member.Connected = *up.Connected
	}
	if up.SessionsCompleted != nil {
		member.SessionsCompleted = *up.SessionsCompleted
	}
	if up.Tosses != nil {
		member.Tosses = *up.Tosses
	}
	mr.members[memberID] = member
	m.touch(mr)
	return nil
}

func (m *Memory) Members(_ context.Context, code string) ([]Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mr, ok := m.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	members := make([]Member, 0, len(mr.members))
	for _, member := range mr.members {
		members = append(members, member)
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].ID < members[j].ID
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members, nil
}

func (m *Memory) BindParticipant(_ context.Context, participantID, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings[participantID] = code
	return nil
}

func (m *Memory) ParticipantRoom(_ context.Context, participantID string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	code, ok := m.bindings[participantID]
	return code, ok, nil
}

func (m *Memory) UnbindParticipant(_ context.Context, participantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bindings, participantID)
	return nil
}

func (m *Memory) PushOven(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.oven {
		if e.code == code {
			return nil
		}
	}
	m.oven = append(m.oven, ovenEntry{code: code, at: time.Now()})
	return nil
}

func (m *Memory) PopOven(_ context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.oven) == 0 {
		return "", false, nil
	}
	e := m.oven[0]
	m.oven = m.oven[1:]
	return e.code, true, nil
}
