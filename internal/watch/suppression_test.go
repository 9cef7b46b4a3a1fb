package watch

import (
	"testing"
	"time"
)

// fakeClock is a settable clock for deterministic suppression tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestShouldNotifyRisingEdge(t *testing.T) {
	clk := newFakeClock()
	s := newSuppressor(clk.Now)
	key := stateID("disk", "fields.usage", 0, "web1:/var")

	if ok, _ := s.shouldNotify(key, true, 0); !ok {
		t.Error("first match should notify")
	}
	if ok, reason := s.shouldNotify(key, true, 0); ok || reason != reasonEdge {
		t.Errorf("repeat match = (%v, %q), want suppressed by edge", ok, reason)
	}
	if ok, reason := s.shouldNotify(key, true, 0); ok || reason != reasonEdge {
		t.Errorf("third match = (%v, %q), want suppressed by edge", ok, reason)
	}

	s.markNotMatched(key)
	if ok, _ := s.shouldNotify(key, true, 0); !ok {
		t.Error("match after reset should notify again")
	}
}

func TestShouldNotifyCooldown(t *testing.T) {
	clk := newFakeClock()
	s := newSuppressor(clk.Now)
	key := stateID("disk", "fields.usage", 0, "web1:/var")
	cooldown := 30 * time.Second

	if ok, _ := s.shouldNotify(key, false, cooldown); !ok {
		t.Error("first match should notify")
	}

	clk.Advance(10 * time.Second)
	if ok, reason := s.shouldNotify(key, false, cooldown); ok || reason != reasonCooldown {
		t.Errorf("match inside window = (%v, %q), want suppressed by cooldown", ok, reason)
	}

	clk.Advance(25 * time.Second)
	if ok, _ := s.shouldNotify(key, false, cooldown); !ok {
		t.Error("match after window should notify")
	}

	// The window restarts from the last allowed send, not the last match.
	clk.Advance(29 * time.Second)
	if ok, _ := s.shouldNotify(key, false, cooldown); ok {
		t.Error("match 29s after last send should be suppressed")
	}
}

func TestShouldNotifyEdgeAndCooldownCombined(t *testing.T) {
	clk := newFakeClock()
	s := newSuppressor(clk.Now)
	key := stateID("w", "s", 0, "k")
	cooldown := time.Minute

	if ok, _ := s.shouldNotify(key, true, cooldown); !ok {
		t.Fatal("first match should notify")
	}

	// A fresh edge inside the cooldown window is still held back.
	s.markNotMatched(key)
	clk.Advance(10 * time.Second)
	if ok, reason := s.shouldNotify(key, true, cooldown); ok || reason != reasonCooldown {
		t.Errorf("edge inside cooldown = (%v, %q), want suppressed by cooldown", ok, reason)
	}

	// Once the window passes, the next edge fires. The suppressed edge
	// above set prevMatch, so the condition must clear first.
	s.markNotMatched(key)
	clk.Advance(time.Minute)
	if ok, _ := s.shouldNotify(key, true, cooldown); !ok {
		t.Error("edge after cooldown should notify")
	}
}

func TestSuppressionStatePartitioning(t *testing.T) {
	clk := newFakeClock()
	s := newSuppressor(clk.Now)

	a := stateID("disk", "fields.usage", 0, "web1:/var")
	b := stateID("disk", "fields.usage", 0, "web2:/var")
	c := stateID("disk", "fields.usage", 1, "web1:/var")

	if ok, _ := s.shouldNotify(a, true, 0); !ok {
		t.Error("key a should notify")
	}
	// Same condition, different source key: independent edge state.
	if ok, _ := s.shouldNotify(b, true, 0); !ok {
		t.Error("key b should notify despite a's edge")
	}
	// Same source key, different condition index: also independent.
	if ok, _ := s.shouldNotify(c, true, 0); !ok {
		t.Error("key c should notify despite a's edge")
	}
	if ok, _ := s.shouldNotify(a, true, 0); ok {
		t.Error("key a repeat should stay suppressed")
	}
}

func TestMarkNotMatchedUnknownKey(t *testing.T) {
	s := newSuppressor(newFakeClock().Now)
	// Must not allocate state or panic.
	s.markNotMatched("never::seen::0::key")
	if len(s.states) != 0 {
		t.Errorf("markNotMatched allocated %d states, want 0", len(s.states))
	}
}
