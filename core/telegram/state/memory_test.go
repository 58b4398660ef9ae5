package state

import (
	"testing"
	"time"
)

func TestStateLifecycle(t *testing.T) {
	m := NewMemoryManager()

	if m.HasState(1) {
		t.Fatal("fresh user should have no state")
	}
	if got := m.GetState(1); got != StateIdle {
		t.Fatalf("state = %q, want idle", got)
	}

	m.SetState(1, State("awaiting_link"))
	if !m.InProgress(1) {
		t.Fatal("expected in-progress after SetState")
	}
	if got := m.GetState(1); got != State("awaiting_link") {
		t.Fatalf("state = %q", got)
	}

	m.ClearState(1)
	if m.HasState(1) {
		t.Fatal("state should be idle after ClearState")
	}

	m.Clear(1)
	if got := m.GetState(1); got != StateIdle {
		t.Fatalf("state after Clear = %q", got)
	}
}

func TestTempData(t *testing.T) {
	m := NewMemoryManager()

	m.SetTemp(7, "group_id", int64(-100500))
	v, ok := m.GetTempInt64(7, "group_id")
	if !ok || v != -100500 {
		t.Fatalf("GetTempInt64 = %d, %v", v, ok)
	}

	m.SetTemp(7, "link", "https://t.me/example")
	if _, ok := m.GetTempInt64(7, "link"); ok {
		t.Fatal("non-int64 temp value should not assert")
	}

	m.ClearTemp(7, "group_id")
	if _, ok := m.GetTemp(7, "group_id"); ok {
		t.Fatal("temp value should be gone after ClearTemp")
	}
}

func TestSweepIdleReclaimsAbandonedSessions(t *testing.T) {
	mm := &memoryManager{
		sessions: make(map[int64]*Session),
		now:      time.Now,
	}

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	mm.now = func() time.Time { return clock }

	mm.SetState(1, State("awaiting_link"))
	clock = base.Add(40 * time.Minute)
	mm.SetState(2, State("awaiting_link"))

	if swept := mm.SweepIdle(30 * time.Minute); swept != 1 {
		t.Fatalf("swept = %d, want 1", swept)
	}
	if mm.HasState(1) {
		t.Fatal("abandoned session should be reclaimed")
	}
	if !mm.HasState(2) {
		t.Fatal("fresh session must survive the sweep")
	}
}

func TestSweepIdleZeroTTLNoop(t *testing.T) {
	m := NewMemoryManager()
	m.SetState(3, State("verifying"))
	if swept := m.SweepIdle(0); swept != 0 {
		t.Fatalf("swept = %d, want 0", swept)
	}
	if !m.HasState(3) {
		t.Fatal("session must survive a zero-TTL sweep")
	}
}
