package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/EthanBrewster/potatodoro/internal/store"
)

// RoomService creates kitchens and tracks who is in them. Participant
// identity is a caller-supplied opaque id that survives reconnects; the
// same id joining again is a reconnect, not a new seat.
type RoomService struct {
	store      store.Store
	accounting Accounting
	sessions   *SessionService
	broadcast  Broadcaster

	capacity        int
	sessionDuration time.Duration
	restDuration    time.Duration
}

func NewRoomService(st store.Store, accounting Accounting, sessions *SessionService, broadcast Broadcaster, capacity int, sessionDuration, restDuration time.Duration) *RoomService {
	return &RoomService{
		store:           st,
		accounting:      accounting,
		sessions:        sessions,
		broadcast:       broadcast,
		capacity:        capacity,
		sessionDuration: sessionDuration,
		restDuration:    restDuration,
	}
}

type JoinResult struct {
	RoomCode      string        `json:"kitchen_code"`
	ParticipantID string        `json:"user_id"`
	IsRejoin      bool          `json:"is_rejoin"`
	Kitchen       *RoomSnapshot `json:"kitchen"`
}

func (s *RoomService) CreateRoom(ctx context.Context, nickname, participantID string) (*JoinResult, error) {
	if participantID == "" {
		participantID = uuid.NewString()
	}

	if err := withRetry(ctx, func() error {
		return s.accounting.UpsertUser(ctx, participantID, nickname)
	}); err != nil {
		return nil, err
	}

	code, err := s.uniqueCode(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := s.store.CreateRoom(ctx, store.Room{
		Code:            code,
		CreatedBy:       participantID,
		CreatedAt:       now,
		Phase:           store.PhaseIdle,
		SessionDuration: s.sessionDuration,
		RestDuration:    s.restDuration,
	}); err != nil {
		return nil, err
	}

	mu := s.sessions.lockRoom(code)
	defer mu.Unlock()

	if err := s.store.AddMember(ctx, code, store.Member{
		ID:       participantID,
		Nickname: nickname,
		State:    store.StateIdle,
		JoinedAt: now,
	}); err != nil {
		return nil, err
	}
	if err := s.store.BindParticipant(ctx, participantID, code); err != nil {
		return nil, err
	}

	log.Info().Str("kitchen", code).Str("user", participantID).Msg("kitchen created")

	return &JoinResult{
		RoomCode:      code,
		ParticipantID: participantID,
		Kitchen:       s.sessions.snapshotLocked(ctx, code),
	}, nil
}

func (s *RoomService) JoinRoom(ctx context.Context, code, nickname, participantID string) (*JoinResult, error) {
	if participantID == "" {
		participantID = uuid.NewString()
	}

	mu := s.sessions.lockRoom(code)
	defer mu.Unlock()

	if _, err := s.store.Room(ctx, code); err != nil {
		return nil, ErrRoomNotFound
	}

	if err := withRetry(ctx, func() error {
		return s.accounting.UpsertUser(ctx, participantID, nickname)
	}); err != nil {
		return nil, err
	}

	// Same id on the member list means a reconnect, not a new seat.
	if existing, err := s.store.Member(ctx, code, participantID); err == nil {
		up := store.MemberUpdate{State: store.Ptr(store.StateIdle)}
		if nickname != "" && nickname != existing.Nickname {
			up.Nickname = &nickname
		}
		if err := s.store.UpdateMember(ctx, code, participantID, up); err != nil {
			return nil, err
		}
		if err := s.store.BindParticipant(ctx, participantID, code); err != nil {
			return nil, err
		}

		return &JoinResult{
			RoomCode:      code,
			ParticipantID: participantID,
			IsRejoin:      true,
			Kitchen:       s.sessions.snapshotLocked(ctx, code),
		}, nil
	}

	members, err := s.store.Members(ctx, code)
	if err != nil {
		return nil, ErrRoomNotFound
	}
	if len(members) >= s.capacity {
		return nil, ErrRoomFull
	}

	member := store.Member{
		ID:       participantID,
		Nickname: nickname,
		State:    store.StateIdle,
		JoinedAt: time.Now(),
	}
	if err := s.store.AddMember(ctx, code, member); err != nil {
		return nil, err
	}
	if err := s.store.BindParticipant(ctx, participantID, code); err != nil {
		return nil, err
	}

	log.Info().Str("kitchen", code).Str("user", participantID).Str("nickname", nickname).Msg("joined kitchen")

	s.broadcast.Broadcast(code, EventMemberJoined, map[string]any{
		"member":  member,
		"kitchen": s.sessions.snapshotLocked(ctx, code),
	})

	return &JoinResult{
		RoomCode:      code,
		ParticipantID: participantID,
		Kitchen:       s.sessions.snapshotLocked(ctx, code),
	}, nil
}

// LeaveRoom removes the member entirely. A leaving holder's potato is
// resolved immediately: an explicit leave is decisive, unlike a silent
// disconnect. No-op when the participant is not in a room.
func (s *RoomService) LeaveRoom(ctx context.Context, participantID string) error {
	code, ok, err := s.store.ParticipantRoom(ctx, participantID)
	if err != nil || !ok {
		return nil
	}

	mu := s.sessions.lockRoom(code)
	defer mu.Unlock()

	room, err := s.store.Room(ctx, code)
	if err != nil {
		_ = s.store.UnbindParticipant(ctx, participantID)
		return nil
	}

	if err := s.store.RemoveMember(ctx, code, participantID); err != nil && !errors.Is(err, store.ErrMemberNotFound) {
		return err
	}
	if err := s.store.UnbindParticipant(ctx, participantID); err != nil {
		return err
	}

	if room.Holder == participantID {
		s.sessions.resolveDeparture(ctx, code, participantID)
	}

	log.Info().Str("kitchen", code).Str("user", participantID).Msg("left kitchen")

	s.broadcast.Broadcast(code, EventMemberLeft, map[string]any{
		"user_id": participantID,
		"kitchen": s.sessions.snapshotLocked(ctx, code),
	})
	return nil
}

// SendReaction relays an encouragement (ice) or nudge (salt) to the room.
func (s *RoomService) SendReaction(ctx context.Context, participantID, targetID, reactionType string) error {
	code, ok, err := s.store.ParticipantRoom(ctx, participantID)
	if err != nil || !ok {
		return ErrNotInRoom
	}

	if _, err := s.store.Member(ctx, code, targetID); err != nil {
		return store.ErrMemberNotFound
	}

	s.broadcast.Broadcast(code, EventReactionReceived, map[string]any{
		"from_user_id":  participantID,
		"to_user_id":    targetID,
		"reaction_type": reactionType,
	})
	return nil
}

// codeAttempts bounds the collision retry loop; with a 32^4 code space it
// only trips when the store itself is misbehaving.
const codeAttempts = 10

func (s *RoomService) uniqueCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code := GenerateRoomCode()
		_, err := s.store.Room(ctx, code)
		switch {
		case errors.Is(err, store.ErrRoomNotFound):
			return code, nil
		case err == nil:
			continue
		default:
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return "", fmt.Errorf("%w: could not allocate a kitchen code", ErrUnavailable)
}
