package services

import (
	"sync"
	"time"
)

// criticalFraction of the session duration at which the potato turns
// critical; the session completes at the full duration.
const criticalFraction = 0.9

// Scheduler owns the process-local Active Timers: two one-shot deadlines per
// holding session, cancellable as a unit. Firing never mutates state by
// itself; callbacks re-enter the state machine, which takes the room lock
// and validates the session version before acting. Elapsed time is always
// recomputed from the persisted start instant, so timers are only a wake-up
// mechanism.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*activeTimer
}

type activeTimer struct {
	sessionID uint
	critical  *time.Timer
	complete  *time.Timer
}

func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[string]*activeTimer)}
}

// Arm schedules the critical and complete deadlines for a room's new holding
// session, replacing any previous entry for the room. The session id is kept
// only to hand back on Cancel; elapsed time is always recomputed from the
// persisted start instant, never from timer state.
func (s *Scheduler) Arm(code string, sessionID uint, d time.Duration, onCritical, onComplete func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[code]; ok {
		old.critical.Stop()
		old.complete.Stop()
	}

	criticalDelay := time.Duration(float64(d) * criticalFraction)
	s.timers[code] = &activeTimer{
		sessionID: sessionID,
		critical:  time.AfterFunc(criticalDelay, onCritical),
		complete:  time.AfterFunc(d, onComplete),
	}
}

// Cancel stops both deadlines and removes the entry, returning the
// accounting session id it was armed with. ok is false when no timer was
// armed for the room.
func (s *Scheduler) Cancel(code string) (sessionID uint, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.timers[code]
	if !ok {
		return 0, false
	}
	t.critical.Stop()
	t.complete.Stop()
	delete(s.timers, code)
	return t.sessionID, true
}

// Armed reports whether a timer entry exists for the room.
func (s *Scheduler) Armed(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[code]
	return ok
}
