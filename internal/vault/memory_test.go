package vault

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/raaihank/llm-shield/internal/entity"
	"github.com/raaihank/llm-shield/internal/logger"
)

// captureSink records audit events for assertions.
type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureSink) Record(event Event) {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
}

func (c *captureSink) ofKind(kind EventKind) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, e := range c.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// testClock is a manually advanced clock for deterministic TTL tests.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestVault(t *testing.T) (*Memory, *captureSink, *testClock) {
	t.Helper()
	sink := &captureSink{}
	clock := newTestClock()
	v := NewMemory(sink, logger.NewNop())
	v.now = clock.Now
	return v, sink, clock
}

func testMapping(placeholder, value string, expiresAt *time.Time) entity.Mapping {
	return entity.Mapping{
		Kind:          entity.KindPerson,
		OriginalValue: value,
		Placeholder:   placeholder,
		Confidence:    0.95,
		ExpiresAt:     expiresAt,
	}
}

func TestCreateSession(t *testing.T) {
	v, sink, _ := newTestVault(t)

	id, err := v.CreateSession(time.Hour)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if id == "" {
		t.Fatal("Empty session ID")
	}

	created := sink.ofKind(EventCreated)
	if len(created) != 1 {
		t.Fatalf("Expected 1 Created event, got %d", len(created))
	}
	if created[0].SessionID != id || created[0].Outcome != OutcomeSuccess {
		t.Errorf("Unexpected Created event: %+v", created[0])
	}
}

func TestPutAndGetMapping(t *testing.T) {
	v, sink, _ := newTestVault(t)

	id, _ := v.CreateSession(time.Hour)
	if err := v.PutMapping(id, testMapping("[PERSON_1]", "John Doe", nil)); err != nil {
		t.Fatalf("PutMapping failed: %v", err)
	}

	mapping, err := v.GetMapping(id, "[PERSON_1]")
	if err != nil {
		t.Fatalf("GetMapping failed: %v", err)
	}
	if mapping.OriginalValue != "John Doe" {
		t.Errorf("Unexpected original value: %q", mapping.OriginalValue)
	}

	accessed := sink.ofKind(EventAccessed)
	if len(accessed) != 1 {
		t.Fatalf("Expected exactly 1 Accessed event, got %d", len(accessed))
	}
	if accessed[0].Outcome != OutcomeSuccess || accessed[0].EntityKind != entity.KindPerson {
		t.Errorf("Unexpected Accessed event: %+v", accessed[0])
	}
}

func TestGetMappingFailures(t *testing.T) {
	t.Run("UnknownSession", func(t *testing.T) {
		v, sink, _ := newTestVault(t)

		_, err := v.GetMapping("sess_missing", "[PERSON_1]")
		if !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("Expected ErrSessionNotFound, got %v", err)
		}

		accessed := sink.ofKind(EventAccessed)
		if len(accessed) != 1 {
			t.Fatalf("Failed lookup must still audit; got %d events", len(accessed))
		}
		if accessed[0].Outcome != OutcomeNotFound {
			t.Errorf("Unexpected outcome: %s", accessed[0].Outcome)
		}
	})

	t.Run("UnknownPlaceholder", func(t *testing.T) {
		v, sink, _ := newTestVault(t)
		id, _ := v.CreateSession(time.Hour)

		_, err := v.GetMapping(id, "[EMAIL_7]")
		if !errors.Is(err, ErrMappingNotFound) {
			t.Fatalf("Expected ErrMappingNotFound, got %v", err)
		}
		if got := sink.ofKind(EventAccessed); len(got) != 1 || got[0].Outcome != OutcomeNotFound {
			t.Errorf("Unexpected audit trail: %+v", got)
		}
	})

	t.Run("PutIntoUnknownSession", func(t *testing.T) {
		v, _, _ := newTestVault(t)
		err := v.PutMapping("sess_missing", testMapping("[PERSON_1]", "John", nil))
		if !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("Expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestSessionIsolation(t *testing.T) {
	v, _, _ := newTestVault(t)

	a, _ := v.CreateSession(time.Hour)
	b, _ := v.CreateSession(time.Hour)

	if err := v.PutMapping(a, testMapping("[PERSON_1]", "John Doe", nil)); err != nil {
		t.Fatalf("PutMapping failed: %v", err)
	}

	// The same placeholder text is not visible through another session.
	if _, err := v.GetMapping(b, "[PERSON_1]"); !errors.Is(err, ErrMappingNotFound) {
		t.Fatalf("Expected ErrMappingNotFound via session B, got %v", err)
	}

	if _, err := v.GetMapping(a, "[PERSON_1]"); err != nil {
		t.Fatalf("Mapping lost from owning session: %v", err)
	}
}

func TestTTLEnforcement(t *testing.T) {
	t.Run("ExpiredSession", func(t *testing.T) {
		v, _, clock := newTestVault(t)

		id, _ := v.CreateSession(time.Minute)
		if err := v.PutMapping(id, testMapping("[PERSON_1]", "John", nil)); err != nil {
			t.Fatalf("PutMapping failed: %v", err)
		}

		clock.Advance(2 * time.Minute)

		if _, err := v.GetMapping(id, "[PERSON_1]"); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("Expected ErrSessionNotFound after session TTL, got %v", err)
		}
		if err := v.PutMapping(id, testMapping("[PERSON_2]", "Jane", nil)); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("Expected ErrSessionNotFound on put after TTL, got %v", err)
		}
	})

	t.Run("ZeroTTLMappingNotRetrievable", func(t *testing.T) {
		v, _, clock := newTestVault(t)

		id, _ := v.CreateSession(time.Hour)
		expires := clock.Now() // ttl = 0
		if err := v.PutMapping(id, testMapping("[PERSON_1]", "John", &expires)); err != nil {
			t.Fatalf("PutMapping failed: %v", err)
		}

		clock.Advance(time.Nanosecond)

		if _, err := v.GetMapping(id, "[PERSON_1]"); !errors.Is(err, ErrMappingExpired) {
			t.Fatalf("Expected ErrMappingExpired, got %v", err)
		}
	})

	t.Run("MappingTTLIndependentOfSessionTTL", func(t *testing.T) {
		v, sink, clock := newTestVault(t)

		// Session lives an hour, mapping only a minute.
		id, _ := v.CreateSession(time.Hour)
		expires := clock.Now().Add(time.Minute)
		if err := v.PutMapping(id, testMapping("[PERSON_1]", "John", &expires)); err != nil {
			t.Fatalf("PutMapping failed: %v", err)
		}

		clock.Advance(5 * time.Minute)

		_, err := v.GetMapping(id, "[PERSON_1]")
		if !errors.Is(err, ErrMappingExpired) {
			t.Fatalf("Expected ErrMappingExpired while session live, got %v", err)
		}

		accessed := sink.ofKind(EventAccessed)
		if len(accessed) != 1 || accessed[0].Outcome != OutcomeDenied {
			t.Errorf("Expected one Denied access event, got %+v", accessed)
		}
	})

	t.Run("NoExpirySession", func(t *testing.T) {
		v, _, clock := newTestVault(t)

		id, _ := v.CreateSession(NoExpiry)
		if err := v.PutMapping(id, testMapping("[PERSON_1]", "John", nil)); err != nil {
			t.Fatalf("PutMapping failed: %v", err)
		}

		clock.Advance(24 * 365 * time.Hour)

		if _, err := v.GetMapping(id, "[PERSON_1]"); err != nil {
			t.Fatalf("NoExpiry session expired: %v", err)
		}
	})
}

func TestDeleteSession(t *testing.T) {
	v, sink, _ := newTestVault(t)

	id, _ := v.CreateSession(time.Hour)
	if err := v.PutMapping(id, testMapping("[PERSON_1]", "John", nil)); err != nil {
		t.Fatalf("PutMapping failed: %v", err)
	}

	if err := v.DeleteSession(id); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := v.GetMapping(id, "[PERSON_1]"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Expected ErrSessionNotFound after delete, got %v", err)
	}

	// Idempotent: deleting again does not fail.
	if err := v.DeleteSession(id); err != nil {
		t.Fatalf("Repeated DeleteSession failed: %v", err)
	}

	deleted := sink.ofKind(EventDeleted)
	if len(deleted) != 2 {
		t.Fatalf("Expected 2 Deleted events, got %d", len(deleted))
	}
	if deleted[0].Outcome != OutcomeSuccess || deleted[1].Outcome != OutcomeNotFound {
		t.Errorf("Unexpected delete outcomes: %+v", deleted)
	}
}

func TestSweepExpired(t *testing.T) {
	t.Run("EvictsExpiredSession", func(t *testing.T) {
		v, sink, clock := newTestVault(t)

		expired, _ := v.CreateSession(time.Minute)
		live, _ := v.CreateSession(time.Hour)
		if err := v.PutMapping(live, testMapping("[PERSON_1]", "Jane", nil)); err != nil {
			t.Fatalf("PutMapping failed: %v", err)
		}

		clock.Advance(2 * time.Minute)

		if removed := v.SweepExpired(); removed != 1 {
			t.Fatalf("Expected 1 eviction, got %d", removed)
		}

		events := sink.ofKind(EventExpired)
		if len(events) != 1 {
			t.Fatalf("Expected exactly 1 Expired event, got %d", len(events))
		}
		if events[0].SessionID != expired {
			t.Errorf("Wrong session evicted: %s", events[0].SessionID)
		}

		if _, err := v.GetMapping(live, "[PERSON_1]"); err != nil {
			t.Errorf("Live session affected by sweep: %v", err)
		}
	})

	t.Run("EvictsExpiredMappingInLiveSession", func(t *testing.T) {
		v, sink, clock := newTestVault(t)

		id, _ := v.CreateSession(time.Hour)
		soon := clock.Now().Add(time.Minute)
		if err := v.PutMapping(id, testMapping("[PERSON_1]", "John", &soon)); err != nil {
			t.Fatalf("PutMapping failed: %v", err)
		}
		if err := v.PutMapping(id, testMapping("[PERSON_2]", "Jane", nil)); err != nil {
			t.Fatalf("PutMapping failed: %v", err)
		}

		clock.Advance(2 * time.Minute)

		if removed := v.SweepExpired(); removed != 1 {
			t.Fatalf("Expected 1 eviction, got %d", removed)
		}

		events := sink.ofKind(EventExpired)
		if len(events) != 1 || events[0].EntityKind != entity.KindPerson {
			t.Errorf("Unexpected Expired events: %+v", events)
		}

		if _, err := v.GetMapping(id, "[PERSON_1]"); !errors.Is(err, ErrMappingNotFound) {
			t.Errorf("Swept mapping still resolvable: %v", err)
		}
		if _, err := v.GetMapping(id, "[PERSON_2]"); err != nil {
			t.Errorf("Live mapping lost: %v", err)
		}
	})

	t.Run("NothingExpired", func(t *testing.T) {
		v, sink, _ := newTestVault(t)
		id, _ := v.CreateSession(time.Hour)
		if err := v.PutMapping(id, testMapping("[PERSON_1]", "John", nil)); err != nil {
			t.Fatalf("PutMapping failed: %v", err)
		}
		if removed := v.SweepExpired(); removed != 0 {
			t.Errorf("Expected 0 evictions, got %d", removed)
		}
		if events := sink.ofKind(EventExpired); len(events) != 0 {
			t.Errorf("Unexpected Expired events: %+v", events)
		}
	})
}

func TestSessionMappingsAndIDs(t *testing.T) {
	v, _, clock := newTestVault(t)

	a, _ := v.CreateSession(time.Hour)
	b, _ := v.CreateSession(time.Minute)

	if err := v.PutMapping(a, testMapping("[PERSON_1]", "John", nil)); err != nil {
		t.Fatalf("PutMapping failed: %v", err)
	}
	if err := v.PutMapping(a, testMapping("[PERSON_2]", "Jane", nil)); err != nil {
		t.Fatalf("PutMapping failed: %v", err)
	}

	mappings, err := v.SessionMappings(a)
	if err != nil {
		t.Fatalf("SessionMappings failed: %v", err)
	}
	if len(mappings) != 2 {
		t.Errorf("Expected 2 mappings, got %d", len(mappings))
	}

	clock.Advance(2 * time.Minute)

	ids := v.SessionIDs()
	if len(ids) != 1 || ids[0] != a {
		t.Errorf("Expected only session %s live, got %v", a, ids)
	}
	if _, err := v.SessionMappings(b); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound for expired session, got %v", err)
	}
}

func TestConcurrentVaultAccess(t *testing.T) {
	v, _, _ := newTestVault(t)

	id, _ := v.CreateSession(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				ph := fmt.Sprintf("[PERSON_%d_%d]", worker, j)
				if err := v.PutMapping(id, testMapping(ph, "User", nil)); err != nil {
					t.Errorf("PutMapping failed: %v", err)
					return
				}
				if _, err := v.GetMapping(id, ph); err != nil {
					t.Errorf("GetMapping failed: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	mappings, err := v.SessionMappings(id)
	if err != nil {
		t.Fatalf("SessionMappings failed: %v", err)
	}
	if len(mappings) != 200 {
		t.Errorf("Expected 200 mappings, got %d", len(mappings))
	}
}

func TestRedactSessionID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"sess_1234567890ab", "sess_123****"},
		{"sess_12", "sess****"},
		{"ab", "ab****"},
	}
	for _, tt := range tests {
		if got := RedactSessionID(tt.in); got != tt.want {
			t.Errorf("RedactSessionID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
