// Package hub routes session identifiers to their long-lived agents.
package hub

import (
	"sync"

	"github.com/antoniostano/aria/internal/agent"
)

// Factory builds the agent for a session id on first contact.
type Factory func(sessionID string) *agent.Agent

// Hub maps each session id to exactly one agent instance for the
// process lifetime. Agents are created lazily and never evicted; their
// durable state lives in the history store, not here.
type Hub struct {
	mu      sync.RWMutex
	agents  map[string]*agent.Agent
	factory Factory
}

func New(factory Factory) *Hub {
	return &Hub{
		agents:  make(map[string]*agent.Agent),
		factory: factory,
	}
}

// Acquire returns the agent owning sessionID, creating it on first use.
func (h *Hub) Acquire(sessionID string) *agent.Agent {
	h.mu.RLock()
	a, ok := h.agents[sessionID]
	h.mu.RUnlock()
	if ok {
		return a
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if a, ok := h.agents[sessionID]; ok {
		return a
	}
	a = h.factory(sessionID)
	h.agents[sessionID] = a
	return a
}

// Count reports how many sessions have been seen this process lifetime.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.agents)
}
