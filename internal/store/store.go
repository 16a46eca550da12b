package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrMemberNotFound = errors.New("member not found")
)

// Phase is the room-level possession state.
type Phase string

const (
	PhaseIdle     Phase = "IDLE"
	PhaseHeating  Phase = "HEATING"
	PhaseCritical Phase = "CRITICAL"
)

// MemberState tracks each member independently of the room phase.
type MemberState string

const (
	StateIdle     MemberState = "IDLE"
	StateHeating  MemberState = "HEATING"
	StateCritical MemberState = "CRITICAL"
	StateCooling  MemberState = "COOLING"
	StateOffline  MemberState = "OFFLINE"
)

// Room is the durable representation of a kitchen. Holder is empty when
// nobody has the potato.
type Room struct {
	Code             string        `json:"code"`
	CreatedBy        string        `json:"created_by"`
	CreatedAt        time.Time     `json:"created_at"`
	Holder           string        `json:"holder,omitempty"`
	Phase            Phase         `json:"phase"`
	SessionStartedAt *time.Time    `json:"session_started_at,omitempty"`
	SessionDuration  time.Duration `json:"session_duration"`
	RestDuration     time.Duration `json:"rest_duration"`

	// SessionVersion increments every time a holder starts heating. Deadline
	// and reclaim callbacks compare against it before acting.
	SessionVersion uint64 `json:"session_version"`
}

type Member struct {
	ID                string      `json:"id"`
	Nickname          string      `json:"nickname"`
	State             MemberState `json:"state"`
	Connected         bool        `json:"connected"`
	JoinedAt          time.Time   `json:"joined_at"`
	SessionsCompleted int         `json:"sessions_completed"`
	Tosses            int         `json:"tosses"`
}

// RoomUpdate is a partial update of room scalar fields. Nil fields are left
// untouched. Holder set to the empty string clears the holder;
// ClearSessionStart clears SessionStartedAt.
type RoomUpdate struct {
	Holder            *string
	Phase             *Phase
	SessionStartedAt  *time.Time
	ClearSessionStart bool
	SessionDuration   *time.Duration
	SessionVersion    *uint64
}

// MemberUpdate is a partial update of member fields.
type MemberUpdate struct {
	Nickname          *string
	State             *MemberState
	Connected         *bool
	SessionsCompleted *int
	Tosses            *int
}

// Store is the access contract the coordinator requires from the shared
// room store. Implementations must apply each call atomically and refresh
// the room's expiry on write activity.
type Store interface {
	CreateRoom(ctx context.Context, room Room) error
	Room(ctx context.Context, code string) (Room, error)
	UpdateRoom(ctx context.Context, code string, up RoomUpdate) error
	DeleteRoom(ctx context.Context, code string) error

	AddMember(ctx context.Context, code string, m Member) error
	RemoveMember(ctx context.Context, code, memberID string) error
	Member(ctx context.Context, code, memberID string) (Member, error)
	UpdateMember(ctx context.Context, code, memberID string, up MemberUpdate) error
	Members(ctx context.Context, code string) ([]Member, error)

	// Participant-to-room association, the equivalent of the connection
	// mapping: which room a participant id currently belongs to.
	BindParticipant(ctx context.Context, participantID, code string) error
	ParticipantRoom(ctx context.Context, participantID string) (string, bool, error)
	UnbindParticipant(ctx context.Context, participantID string) error

	// Global oven: oldest-first queue of room codes whose potato had no
	// recipient. A code appears at most once.
	PushOven(ctx context.Context, code string) error
	PopOven(ctx context.Context) (string, bool, error)
}

// Ptr builds update fields without pointer noise at call sites.
func Ptr[T any](v T) *T { return &v }
