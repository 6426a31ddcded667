package hub

import (
	"sync"
	"testing"

	"github.com/antoniostano/aria/internal/agent"
	"github.com/antoniostano/aria/internal/history"
)

func newTestFactory() Factory {
	return func(sessionID string) *agent.Agent {
		ledger := history.NewLedger(sessionID, history.NewInMemoryStore(), 50)
		return agent.New(sessionID, ledger, nil, nil, nil, "sys", 6)
	}
}

func TestAcquireReturnsSameAgentForSameSession(t *testing.T) {
	h := New(newTestFactory())

	a := h.Acquire("s1")
	b := h.Acquire("s1")
	if a != b {
		t.Fatalf("Acquire returned distinct agents for one session id")
	}
	if h.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", h.Count())
	}
}

func TestAcquireIsolatesSessions(t *testing.T) {
	h := New(newTestFactory())

	a := h.Acquire("s1")
	b := h.Acquire("s2")
	if a == b {
		t.Fatalf("distinct session ids mapped to one agent")
	}
	if a.SessionID() != "s1" || b.SessionID() != "s2" {
		t.Fatalf("session ids = %q, %q, want s1, s2", a.SessionID(), b.SessionID())
	}
}

func TestAcquireIsRaceSafe(t *testing.T) {
	h := New(newTestFactory())

	var wg sync.WaitGroup
	agents := make([]*agent.Agent, 16)
	for i := range agents {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			agents[i] = h.Acquire("shared")
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(agents); i++ {
		if agents[i] != agents[0] {
			t.Fatalf("concurrent Acquire produced multiple agents")
		}
	}
	if h.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", h.Count())
	}
}
