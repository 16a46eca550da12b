package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/EthanBrewster/potatodoro/internal/models"
	"github.com/EthanBrewster/potatodoro/internal/store"
)

// SessionService is the per-room possession state machine: who holds the
// potato, how its deadlines are scheduled, and how the potato is reclaimed
// when a holder goes silent. Every transition for a room runs under that
// room's lock; deadline and reclaim callbacks re-validate the session
// version before acting, so a callback that lost a race is a no-op.
type SessionService struct {
	store      store.Store
	accounting Accounting
	scheduler  *Scheduler
	reclaim    *ReclaimSupervisor
	resolver   *TossResolver
	broadcast  Broadcaster
	locks      *roomLocks
}

func NewSessionService(st store.Store, accounting Accounting, scheduler *Scheduler, reclaim *ReclaimSupervisor, resolver *TossResolver, broadcast Broadcaster) *SessionService {
	return &SessionService{
		store:      st,
		accounting: accounting,
		scheduler:  scheduler,
		reclaim:    reclaim,
		resolver:   resolver,
		broadcast:  broadcast,
		locks:      newRoomLocks(),
	}
}

// RoomSnapshot is the full room state sent with every notification and
// state query, so clients never need to diff.
type RoomSnapshot struct {
	store.Room
	Members []store.Member `json:"members"`
}

type StartResult struct {
	SessionID       uint      `json:"session_id"`
	StartedAt       time.Time `json:"started_at"`
	DurationSeconds int       `json:"duration_seconds"`
}

type TossResult struct {
	TargetID   string `json:"target_id,omitempty"`
	SentToOven bool   `json:"sent_to_oven"`
}

func (s *SessionService) lockRoom(code string) *sync.Mutex {
	return s.locks.lock(code)
}

func (s *SessionService) roomCodeFor(ctx context.Context, participantID string) (string, error) {
	code, ok, err := s.store.ParticipantRoom(ctx, participantID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ok {
		return "", ErrNotInRoom
	}
	return code, nil
}

// snapshotLocked builds the room snapshot. Caller holds the room lock.
func (s *SessionService) snapshotLocked(ctx context.Context, code string) *RoomSnapshot {
	room, err := s.store.Room(ctx, code)
	if err != nil {
		return nil
	}
	members, err := s.store.Members(ctx, code)
	if err != nil {
		return nil
	}
	return &RoomSnapshot{Room: room, Members: members}
}

// StartHeating begins a hold session for the caller. Fails with
// ErrAlreadyHeating while another member holds the potato; a holder
// restarting their own clock replaces it.
func (s *SessionService) StartHeating(ctx context.Context, participantID string, override time.Duration) (*StartResult, error) {
	code, err := s.roomCodeFor(ctx, participantID)
	if err != nil {
		return nil, err
	}

	mu := s.lockRoom(code)
	defer mu.Unlock()

	room, err := s.store.Room(ctx, code)
	if err != nil {
		return nil, ErrNotInRoom
	}
	if room.Holder != "" && room.Holder != participantID {
		return nil, ErrAlreadyHeating
	}

	duration := room.SessionDuration
	if override > 0 {
		duration = override
	}

	var sessionID uint
	if err := withRetry(ctx, func() error {
		var err error
		sessionID, err = s.accounting.StartSession(ctx, participantID, code)
		return err
	}); err != nil {
		return nil, err
	}

	// A restarting holder's previous clock is dropped without accounting.
	s.scheduler.Cancel(code)

	now := time.Now()
	version := room.SessionVersion + 1
	if err := s.store.UpdateRoom(ctx, code, store.RoomUpdate{
		Holder:           store.Ptr(participantID),
		Phase:            store.Ptr(store.PhaseHeating),
		SessionStartedAt: &now,
		SessionDuration:  &duration,
		SessionVersion:   &version,
	}); err != nil {
		return nil, err
	}
	if err := s.store.UpdateMember(ctx, code, participantID, store.MemberUpdate{
		State: store.Ptr(store.StateHeating),
	}); err != nil {
		return nil, err
	}

	s.scheduler.Arm(code, sessionID, duration,
		func() { s.fireCritical(code, participantID, version) },
		func() { s.fireComplete(code, participantID, version, sessionID) },
	)

	log.Info().Str("kitchen", code).Str("user", participantID).
		Dur("duration", duration).Msg("heating started")

	s.broadcast.Broadcast(code, EventHeatingStarted, map[string]any{
		"holder_id":        participantID,
		"started_at":       now,
		"duration_seconds": int(duration.Seconds()),
		"kitchen":          s.snapshotLocked(ctx, code),
	})

	return &StartResult{
		SessionID:       sessionID,
		StartedAt:       now,
		DurationSeconds: int(duration.Seconds()),
	}, nil
}

// fireCritical is the 0.9x duration deadline. It only flips phase/state and
// backs off when the session it was scheduled against is gone: the version
// catches a restarted clock, the holder check catches a toss that already
// moved the potato.
func (s *SessionService) fireCritical(code, holderID string, version uint64) {
	ctx := context.Background()
	mu := s.lockRoom(code)
	defer mu.Unlock()

	room, err := s.store.Room(ctx, code)
	if err != nil || room.SessionVersion != version || room.Holder != holderID || room.Phase != store.PhaseHeating {
		return
	}

	if err := s.store.UpdateRoom(ctx, code, store.RoomUpdate{
		Phase: store.Ptr(store.PhaseCritical),
	}); err != nil {
		log.Error().Err(err).Str("kitchen", code).Msg("critical transition failed")
		return
	}
	if err := s.store.UpdateMember(ctx, code, room.Holder, store.MemberUpdate{
		State: store.Ptr(store.StateCritical),
	}); err != nil {
		log.Error().Err(err).Str("kitchen", code).Msg("critical member update failed")
	}

	s.broadcast.Broadcast(code, EventPotatoCritical, map[string]any{
		"holder_id": room.Holder,
		"kitchen":   s.snapshotLocked(ctx, code),
	})
}

// fireComplete is the full-duration deadline: the potato is ready to toss but
// the holder keeps it until they act or disconnect.
func (s *SessionService) fireComplete(code, holderID string, version uint64, sessionID uint) {
	ctx := context.Background()
	mu := s.lockRoom(code)
	defer mu.Unlock()

	room, err := s.store.Room(ctx, code)
	if err != nil || room.SessionVersion != version || room.Holder != holderID {
		return
	}

	if room.Phase != store.PhaseCritical {
		if err := s.store.UpdateRoom(ctx, code, store.RoomUpdate{
			Phase: store.Ptr(store.PhaseCritical),
		}); err != nil {
			log.Error().Err(err).Str("kitchen", code).Msg("ready-to-toss transition failed")
			return
		}
	}

	s.broadcast.Broadcast(code, EventPotatoReadyToToss, map[string]any{
		"holder_id":  room.Holder,
		"session_id": sessionID,
		"kitchen":    s.snapshotLocked(ctx, code),
	})
}

// Toss hands the potato off: to the explicit target, to a random eligible
// member, or to the global oven when nobody can take it. Only the current
// holder may toss. Elapsed time is computed from the persisted start
// instant, converted to Joules, and settled exactly once.
func (s *SessionService) Toss(ctx context.Context, participantID, targetID string) (*TossResult, error) {
	code, err := s.roomCodeFor(ctx, participantID)
	if err != nil {
		return nil, err
	}

	mu := s.lockRoom(code)
	defer mu.Unlock()

	room, err := s.store.Room(ctx, code)
	if err != nil {
		return nil, ErrNotInRoom
	}
	if room.Holder != participantID {
		return nil, ErrNotHolder
	}

	sessionID, hadTimer := s.scheduler.Cancel(code)
	s.reclaim.Cancel(code, participantID)

	// A holder without a live clock (it was cancelled at disconnect) passes
	// the potato but completes no session: the persisted start instant is
	// stale and must not be credited.
	var elapsed time.Duration
	var joules int
	if hadTimer && room.SessionStartedAt != nil {
		elapsed = time.Since(*room.SessionStartedAt)
		joules = CalculateJoules(elapsed)
	}

	// Tosser cools down, then reverts to idle after the rest period.
	if member, err := s.store.Member(ctx, code, participantID); err == nil {
		up := store.MemberUpdate{
			State:  store.Ptr(store.StateCooling),
			Tosses: store.Ptr(member.Tosses + 1),
		}
		if hadTimer {
			up.SessionsCompleted = store.Ptr(member.SessionsCompleted + 1)
		}
		if err := s.store.UpdateMember(ctx, code, participantID, up); err != nil {
			return nil, err
		}
	}
	s.scheduleCooldown(code, participantID, room.RestDuration)

	members, err := s.store.Members(ctx, code)
	if err != nil {
		return nil, err
	}
	target, found := s.resolver.Resolve(participantID, targetID, members)

	up := store.RoomUpdate{
		Phase:             store.Ptr(store.PhaseIdle),
		ClearSessionStart: true,
	}
	if found {
		up.Holder = store.Ptr(target)
	} else {
		up.Holder = store.Ptr("")
	}
	if err := s.store.UpdateRoom(ctx, code, up); err != nil {
		return nil, err
	}

	// Accounting settles after the transition commits, off the room lock.
	if hadTimer {
		go s.settleToss(code, participantID, sessionID, elapsed, joules)
	}

	if !found {
		if err := s.store.PushOven(ctx, code); err != nil {
			log.Error().Err(err).Str("kitchen", code).Msg("oven push failed")
		}
		log.Info().Str("kitchen", code).Str("user", participantID).Msg("potato sent to global oven")

		s.broadcast.Broadcast(code, EventPotatoToOven, map[string]any{
			"from_user_id": participantID,
			"kitchen":      s.snapshotLocked(ctx, code),
		})
		return &TossResult{SentToOven: true}, nil
	}

	var targetNickname string
	if m, err := s.store.Member(ctx, code, target); err == nil {
		targetNickname = m.Nickname
	}
	log.Info().Str("kitchen", code).Str("from", participantID).Str("to", target).Msg("potato tossed")

	s.broadcast.Broadcast(code, EventPotatoTossed, map[string]any{
		"from_user_id": participantID,
		"to_user_id":   target,
		"to_nickname":  targetNickname,
		"kitchen":      s.snapshotLocked(ctx, code),
	})
	return &TossResult{TargetID: target}, nil
}

func (s *SessionService) settleToss(code, userID string, sessionID uint, elapsed time.Duration, joules int) {
	ctx := context.Background()

	if err := withRetry(ctx, func() error {
		return s.accounting.CompleteSession(ctx, sessionID, elapsed, joules)
	}); err != nil {
		log.Error().Err(err).Uint("session", sessionID).Msg("session completion failed")
	}

	var earned []models.Topping
	if err := withRetry(ctx, func() error {
		var err error
		earned, err = s.accounting.RecordToss(ctx, userID, joules)
		return err
	}); err != nil {
		log.Error().Err(err).Str("user", userID).Msg("toss accounting failed")
		return
	}

	if len(earned) > 0 {
		s.broadcast.SendTo(code, userID, EventToppingsEarned, map[string]any{
			"toppings": earned,
		})
	}
}

func (s *SessionService) scheduleCooldown(code, participantID string, rest time.Duration) {
	time.AfterFunc(rest, func() {
		ctx := context.Background()
		mu := s.lockRoom(code)
		defer mu.Unlock()

		member, err := s.store.Member(ctx, code, participantID)
		if err != nil || member.State != store.StateCooling {
			return
		}
		if err := s.store.UpdateMember(ctx, code, participantID, store.MemberUpdate{
			State: store.Ptr(store.StateIdle),
		}); err != nil {
			return
		}
		s.broadcast.Broadcast(code, EventMemberCooled, map[string]any{
			"user_id": participantID,
			"kitchen": s.snapshotLocked(ctx, code),
		})
	})
}

// CancelSession aborts the caller's hold without recording anything.
func (s *SessionService) CancelSession(ctx context.Context, participantID string) error {
	code, err := s.roomCodeFor(ctx, participantID)
	if err != nil {
		return err
	}

	mu := s.lockRoom(code)
	defer mu.Unlock()

	room, err := s.store.Room(ctx, code)
	if err != nil {
		return ErrNotInRoom
	}
	if room.Holder != participantID {
		return ErrNotHolder
	}

	s.scheduler.Cancel(code)
	s.reclaim.Cancel(code, participantID)

	if err := s.store.UpdateRoom(ctx, code, store.RoomUpdate{
		Holder:            store.Ptr(""),
		Phase:             store.Ptr(store.PhaseIdle),
		ClearSessionStart: true,
	}); err != nil {
		return err
	}
	if err := s.store.UpdateMember(ctx, code, participantID, store.MemberUpdate{
		State: store.Ptr(store.StateIdle),
	}); err != nil {
		return err
	}

	log.Info().Str("kitchen", code).Str("user", participantID).Msg("session cancelled")

	s.broadcast.Broadcast(code, EventSessionCancelled, map[string]any{
		"user_id": participantID,
		"kitchen": s.snapshotLocked(ctx, code),
	})
	return nil
}

// State returns the full room snapshot for the caller's room.
func (s *SessionService) State(ctx context.Context, participantID string) (*RoomSnapshot, error) {
	code, err := s.roomCodeFor(ctx, participantID)
	if err != nil {
		return nil, err
	}

	mu := s.lockRoom(code)
	defer mu.Unlock()

	snap := s.snapshotLocked(ctx, code)
	if snap == nil {
		return nil, ErrNotInRoom
	}
	return snap, nil
}

// HandleDisconnect marks the member offline. When the holder drops, their
// clock stops immediately but the potato stays theirs for the grace period;
// duplicate disconnect deliveries collapse into one pending reclaim.
func (s *SessionService) HandleDisconnect(ctx context.Context, participantID string) {
	code, ok, err := s.store.ParticipantRoom(ctx, participantID)
	if err != nil || !ok {
		return
	}

	mu := s.lockRoom(code)
	defer mu.Unlock()

	room, err := s.store.Room(ctx, code)
	if err != nil {
		return
	}
	if err := s.store.UpdateMember(ctx, code, participantID, store.MemberUpdate{
		State:     store.Ptr(store.StateOffline),
		Connected: store.Ptr(false),
	}); err != nil {
		return
	}

	if room.Holder == participantID {
		s.scheduler.Cancel(code)
		if s.reclaim.Watch(code, participantID, func() { s.fireReclaim(code, participantID) }) {
			log.Info().Str("kitchen", code).Str("user", participantID).Msg("holder disconnected, reclaim armed")
		}
	}

	s.broadcast.Broadcast(code, EventMemberDisconnected, map[string]any{
		"user_id": participantID,
		"kitchen": s.snapshotLocked(ctx, code),
	})
}

// HandleConnect re-associates a live connection with the member. A member
// coming back from OFFLINE resumes as IDLE; a returning former holder keeps
// the potato but no clock, and must start heating or toss again.
func (s *SessionService) HandleConnect(ctx context.Context, participantID string) {
	code, ok, err := s.store.ParticipantRoom(ctx, participantID)
	if err != nil || !ok {
		return
	}

	mu := s.lockRoom(code)
	defer mu.Unlock()

	member, err := s.store.Member(ctx, code, participantID)
	if err != nil {
		return
	}

	resumed := member.State == store.StateOffline
	up := store.MemberUpdate{Connected: store.Ptr(true)}
	if resumed {
		up.State = store.Ptr(store.StateIdle)
	}
	if err := s.store.UpdateMember(ctx, code, participantID, up); err != nil {
		return
	}

	s.reclaim.Cancel(code, participantID)

	if resumed {
		s.broadcast.Broadcast(code, EventMemberResumed, map[string]any{
			"user_id": participantID,
			"kitchen": s.snapshotLocked(ctx, code),
		})
	}
}

// fireReclaim runs when the disconnect grace period elapses. It backs off
// when the potato moved on or the holder came back in the meantime.
func (s *SessionService) fireReclaim(code, holderID string) {
	ctx := context.Background()
	mu := s.lockRoom(code)
	defer mu.Unlock()

	room, err := s.store.Room(ctx, code)
	if err != nil || room.Holder != holderID {
		return
	}
	if member, err := s.store.Member(ctx, code, holderID); err == nil && member.Connected {
		return
	}

	log.Info().Str("kitchen", code).Str("user", holderID).Msg("grace period over, reclaiming potato")
	s.reassignLocked(ctx, code, holderID, ReasonDisconnect)
}

// resolveDeparture reassigns or parks the potato after its holder left the
// room for good. Caller holds the room lock; the member record is already
// removed.
func (s *SessionService) resolveDeparture(ctx context.Context, code, departed string) {
	s.scheduler.Cancel(code)
	s.reclaim.Cancel(code, departed)
	s.reassignLocked(ctx, code, departed, ReasonLeft)
}

func (s *SessionService) reassignLocked(ctx context.Context, code, from, reason string) {
	members, err := s.store.Members(ctx, code)
	if err != nil {
		return
	}
	target, found := s.resolver.Resolve(from, "", members)

	up := store.RoomUpdate{
		Phase:             store.Ptr(store.PhaseIdle),
		ClearSessionStart: true,
	}
	if found {
		up.Holder = store.Ptr(target)
	} else {
		up.Holder = store.Ptr("")
	}
	if err := s.store.UpdateRoom(ctx, code, up); err != nil {
		log.Error().Err(err).Str("kitchen", code).Msg("reassign failed")
		return
	}

	if !found {
		if err := s.store.PushOven(ctx, code); err != nil {
			log.Error().Err(err).Str("kitchen", code).Msg("oven push failed")
		}
		s.broadcast.Broadcast(code, EventPotatoToOven, map[string]any{
			"from_user_id": from,
			"reason":       reason,
			"kitchen":      s.snapshotLocked(ctx, code),
		})
		return
	}

	s.broadcast.Broadcast(code, EventPotatoAutoTossed, map[string]any{
		"from_user_id": from,
		"to_user_id":   target,
		"reason":       reason,
		"kitchen":      s.snapshotLocked(ctx, code),
	})
}
