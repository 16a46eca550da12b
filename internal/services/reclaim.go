package services

import (
	"sync"
	"time"
)

// ReclaimSupervisor watches for a disconnected holder and forces a
// resolution after the grace period. At most one watch exists per room, so
// duplicate disconnect deliveries collapse into a single pending reclaim.
type ReclaimSupervisor struct {
	mu      sync.Mutex
	grace   time.Duration
	pending map[string]*reclaimWatch
}

type reclaimWatch struct {
	holder string
	timer  *time.Timer
}

func NewReclaimSupervisor(grace time.Duration) *ReclaimSupervisor {
	return &ReclaimSupervisor{
		grace:   grace,
		pending: make(map[string]*reclaimWatch),
	}
}

// Watch arms the grace timer for the room's holder. Returns false when a
// watch for the same room and holder is already pending.
func (r *ReclaimSupervisor) Watch(code, holder string, fire func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.pending[code]; ok {
		if w.holder == holder {
			return false
		}
		w.timer.Stop()
	}

	w := &reclaimWatch{holder: holder}
	w.timer = time.AfterFunc(r.grace, func() {
		r.mu.Lock()
		if r.pending[code] == w {
			delete(r.pending, code)
		}
		r.mu.Unlock()
		fire()
	})
	r.pending[code] = w
	return true
}

// Cancel drops a pending watch when it is armed for the given holder, e.g.
// because they reconnected or the potato went elsewhere first.
func (r *ReclaimSupervisor) Cancel(code, holder string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.pending[code]
	if !ok || w.holder != holder {
		return
	}
	w.timer.Stop()
	delete(r.pending, code)
}
