package watch

import (
	"fmt"
	"sync"
	"time"
)

// Clock abstracts time.Now for deterministic tests.
type Clock func() time.Time

// Suppression decision reasons, used for logging and metrics.
const (
	reasonEdge      = "edge"
	reasonCooldown  = "cooldown"
	reasonDuplicate = "duplicate"
)

// conditionState tracks the edge/cooldown history of one condition for
// one source key.
type conditionState struct {
	prevMatch bool
	lastSent  time.Time
}

// suppressor owns the per-(watcher, subject, condition, source key)
// state that decides whether an otherwise-matching condition may
// notify. One instance per watcher; callers are already serialized by
// the watcher mutex, the internal lock only guards against misuse.
type suppressor struct {
	mu     sync.Mutex
	states map[string]*conditionState
	clock  Clock
}

func newSuppressor(clock Clock) *suppressor {
	if clock == nil {
		clock = time.Now
	}
	return &suppressor{
		states: make(map[string]*conditionState),
		clock:  clock,
	}
}

// stateID builds the tracking key for one condition instance.
func stateID(watcherID, subject string, condIdx int, sourceKey string) string {
	return fmt.Sprintf("%s::%s::%d::%s", watcherID, subject, condIdx, sourceKey)
}

// shouldNotify is called after a condition matched. It applies the
// edge gate, then the cooldown gate, records that the condition is
// currently matching, and stamps the send time when allowed. The
// second return names the suppression reason when the first is false.
func (s *suppressor) shouldNotify(key string, rising bool, cooldown time.Duration) (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	st, ok := s.states[key]
	if !ok {
		st = &conditionState{}
		s.states[key] = st
	}

	allow := true
	reason := ""
	if rising && st.prevMatch {
		allow = false
		reason = reasonEdge
	}
	st.prevMatch = true

	if allow && cooldown > 0 && !st.lastSent.IsZero() && now.Sub(st.lastSent) < cooldown {
		allow = false
		reason = reasonCooldown
	}
	if allow {
		st.lastSent = now
	}
	return allow, reason
}

// markNotMatched records a non-matching evaluation for a rising-edge
// condition, arming the next rising edge. The last-sent timestamp is
// untouched so cooldown still spans across edges.
func (s *suppressor) markNotMatched(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[key]
	if !ok {
		return
	}
	st.prevMatch = false
}
