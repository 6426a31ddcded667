package history

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestLedgerAppendAssignsTimestamps(t *testing.T) {
	ctx := context.Background()
	l := NewLedger("s1", NewInMemoryStore(), 50)

	if err := l.Append(ctx, Turn{Role: RoleUser, Content: "hi"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := l.Append(ctx, Turn{Role: RoleAssistant, Content: "hello"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	turns, err := l.Turns(ctx)
	if err != nil {
		t.Fatalf("Turns() error = %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("len(turns) = %d, want 2", len(turns))
	}
	if turns[0].Timestamp.IsZero() || turns[1].Timestamp.IsZero() {
		t.Fatalf("timestamps not assigned: %+v", turns)
	}
	if turns[1].Timestamp.Before(turns[0].Timestamp) {
		t.Fatalf("timestamps not monotonic: %v then %v", turns[0].Timestamp, turns[1].Timestamp)
	}
}

func TestLedgerTruncationIsFIFO(t *testing.T) {
	ctx := context.Background()
	l := NewLedger("s1", NewInMemoryStore(), 50)

	for i := 0; i < 50; i++ {
		if err := l.Append(ctx, Turn{Role: RoleUser, Content: fmt.Sprintf("turn-%d", i)}); err != nil {
			t.Fatalf("Append(%d) error = %v", i, err)
		}
	}
	if l.Len() != 50 {
		t.Fatalf("Len() = %d, want 50", l.Len())
	}

	// Two more appends on a full ledger evict the two oldest turns.
	for i := 50; i < 52; i++ {
		if err := l.Append(ctx, Turn{Role: RoleUser, Content: fmt.Sprintf("turn-%d", i)}); err != nil {
			t.Fatalf("Append(%d) error = %v", i, err)
		}
	}

	turns, err := l.Turns(ctx)
	if err != nil {
		t.Fatalf("Turns() error = %v", err)
	}
	if len(turns) != 50 {
		t.Fatalf("len(turns) = %d, want 50", len(turns))
	}
	if turns[0].Content != "turn-2" {
		t.Fatalf("turns[0].Content = %q, want %q", turns[0].Content, "turn-2")
	}
	if turns[49].Content != "turn-51" {
		t.Fatalf("turns[49].Content = %q, want %q", turns[49].Content, "turn-51")
	}
}

func TestLedgerRecentReturnsChronologicalTail(t *testing.T) {
	ctx := context.Background()
	l := NewLedger("s1", NewInMemoryStore(), 50)

	for i := 0; i < 10; i++ {
		if err := l.Append(ctx, Turn{Role: RoleUser, Content: fmt.Sprintf("turn-%d", i)}); err != nil {
			t.Fatalf("Append(%d) error = %v", i, err)
		}
	}

	recent, err := l.Recent(ctx, 6)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 6 {
		t.Fatalf("len(recent) = %d, want 6", len(recent))
	}
	if recent[0].Content != "turn-4" || recent[5].Content != "turn-9" {
		t.Fatalf("unexpected window: first=%q last=%q", recent[0].Content, recent[5].Content)
	}
}

func TestLedgerRecentShorterHistory(t *testing.T) {
	ctx := context.Background()
	l := NewLedger("s1", NewInMemoryStore(), 50)

	if err := l.Append(ctx, Turn{Role: RoleUser, Content: "only"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	recent, err := l.Recent(ctx, 6)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("len(recent) = %d, want 1", len(recent))
	}
}

func TestLedgerHydrateAbsentSnapshotYieldsEmpty(t *testing.T) {
	ctx := context.Background()
	l := NewLedger("fresh", NewInMemoryStore(), 50)

	if err := l.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}
	if l.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", l.Len())
	}
}

func TestLedgerHydrateLoadsPersistedSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	persisted := []Turn{
		{Role: RoleUser, Content: "hi", Timestamp: time.Now().UTC()},
		{Role: RoleAssistant, Content: "hello", Timestamp: time.Now().UTC()},
	}
	if err := store.Save(ctx, "s1", persisted); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	l := NewLedger("s1", store, 50)
	turns, err := l.Turns(ctx)
	if err != nil {
		t.Fatalf("Turns() error = %v", err)
	}
	if len(turns) != 2 || turns[0].Content != "hi" || turns[1].Content != "hello" {
		t.Fatalf("unexpected hydrated turns: %+v", turns)
	}
}

func TestLedgerRehydrateIsNoOpWhenPopulated(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	l := NewLedger("s1", store, 50)

	if err := l.Append(ctx, Turn{Role: RoleUser, Content: "live"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	// A stale snapshot written behind the ledger's back must not replace
	// the authoritative in-memory state on a simulated reconnect.
	if err := store.Save(ctx, "s1", []Turn{{Role: RoleUser, Content: "stale"}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := l.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}

	turns, err := l.Turns(ctx)
	if err != nil {
		t.Fatalf("Turns() error = %v", err)
	}
	if len(turns) != 1 || turns[0].Content != "live" {
		t.Fatalf("rehydrate replaced in-memory state: %+v", turns)
	}
}

type failingSaveStore struct {
	*InMemoryStore
	failSaves bool
}

func (s *failingSaveStore) Save(ctx context.Context, sessionID string, turns []Turn) error {
	if s.failSaves {
		return errors.New("storage unavailable")
	}
	return s.InMemoryStore.Save(ctx, sessionID, turns)
}

func TestLedgerAppendKeepsTurnOnSaveFailure(t *testing.T) {
	ctx := context.Background()
	store := &failingSaveStore{InMemoryStore: NewInMemoryStore(), failSaves: true}
	l := NewLedger("s1", store, 50)

	err := l.Append(ctx, Turn{Role: RoleUser, Content: "hi"})
	if err == nil {
		t.Fatalf("expected error from failed save")
	}
	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (turn must survive a failed save)", l.Len())
	}
}

func TestLedgerAppendPersistsFullSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	l := NewLedger("s1", store, 50)

	if err := l.Append(ctx, Turn{Role: RoleUser, Content: "hi"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := l.Append(ctx, Turn{Role: RoleAssistant, Content: "hello"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	persisted, ok, err := store.Load(ctx, "s1")
	if err != nil || !ok {
		t.Fatalf("Load() = ok=%v err=%v, want persisted snapshot", ok, err)
	}
	if len(persisted) != 2 || persisted[1].Content != "hello" {
		t.Fatalf("unexpected persisted snapshot: %+v", persisted)
	}
}
