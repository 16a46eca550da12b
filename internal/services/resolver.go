package services

import (
	"math/rand"
	"sync"

	"github.com/EthanBrewster/potatodoro/internal/store"
)

// TossResolver selects the next holder when the current one releases the
// potato. The random source is injected so outcomes are reproducible.
type TossResolver struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewTossResolver(rng *rand.Rand) *TossResolver {
	return &TossResolver{rng: rng}
}

// Resolve returns the next holder's id, or ok=false when the potato has no
// recipient and belongs in the global oven.
//
// An explicit target is honored as long as it names a member other than the
// holder. Otherwise a random member is picked from those not already heating.
func (r *TossResolver) Resolve(holder, target string, members []store.Member) (string, bool) {
	if target != "" && target != holder {
		for _, m := range members {
			if m.ID == target {
				return target, true
			}
		}
	}

	eligible := make([]store.Member, 0, len(members))
	for _, m := range members {
		if m.ID == holder || m.State == store.StateHeating {
			continue
		}
		eligible = append(eligible, m)
	}
	if len(eligible) == 0 {
		return "", false
	}

	r.mu.Lock()
	pick := eligible[r.rng.Intn(len(eligible))]
	r.mu.Unlock()
	return pick.ID, true
}
