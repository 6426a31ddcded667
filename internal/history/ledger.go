package history

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultRetention bounds how many turns a ledger keeps.
const DefaultRetention = 50

// Ledger is the bounded, ordered, durably-persisted turn sequence for one
// session. The in-memory copy is authoritative while the process lives;
// the persisted snapshot is hydrated lazily on first use.
type Ledger struct {
	sessionID string
	store     Store
	retention int

	mu       sync.Mutex
	hydrated bool
	turns    []Turn
}

func NewLedger(sessionID string, store Store, retention int) *Ledger {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Ledger{
		sessionID: sessionID,
		store:     store,
		retention: retention,
	}
}

// Hydrate loads the persisted snapshot unless the ledger is already
// hydrated. An absent snapshot yields an empty ledger; a ledger that
// already holds turns in memory is left untouched.
func (l *Ledger) Hydrate(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hydrateLocked(ctx)
}

func (l *Ledger) hydrateLocked(ctx context.Context) error {
	if l.hydrated {
		return nil
	}
	if len(l.turns) > 0 {
		l.hydrated = true
		return nil
	}
	turns, ok, err := l.store.Load(ctx, l.sessionID)
	if err != nil {
		return fmt.Errorf("hydrate session %s: %w", l.sessionID, err)
	}
	if ok {
		l.turns = turns
	}
	l.hydrated = true
	return nil
}

// Append adds a turn, evicts the oldest beyond the retention bound, and
// writes the full resulting sequence to the store. A failed write returns
// an error but the turn stays in the in-memory ledger.
func (l *Ledger) Append(ctx context.Context, turn Turn) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.hydrateLocked(ctx); err != nil {
		return err
	}

	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}
	l.turns = append(l.turns, turn)
	if len(l.turns) > l.retention {
		kept := make([]Turn, l.retention)
		copy(kept, l.turns[len(l.turns)-l.retention:])
		l.turns = kept
	}

	snapshot := make([]Turn, len(l.turns))
	copy(snapshot, l.turns)
	if err := l.store.Save(ctx, l.sessionID, snapshot); err != nil {
		return fmt.Errorf("persist session %s: %w", l.sessionID, err)
	}
	return nil
}

// Recent returns the last n turns in chronological order, or all of them
// if the ledger is shorter.
func (l *Ledger) Recent(ctx context.Context, n int) ([]Turn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.hydrateLocked(ctx); err != nil {
		return nil, err
	}
	if n <= 0 || n > len(l.turns) {
		n = len(l.turns)
	}
	out := make([]Turn, n)
	copy(out, l.turns[len(l.turns)-n:])
	return out, nil
}

// Turns returns a copy of the full sequence.
func (l *Ledger) Turns(ctx context.Context) ([]Turn, error) {
	return l.Recent(ctx, 0)
}

// Len reports the current in-memory length without forcing hydration.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.turns)
}
