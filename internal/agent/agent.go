// Package agent drives one session's message loop: history, memory
// retrieval, prompt assembly, generation, and reply delivery.
package agent

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/antoniostano/aria/internal/brain"
	"github.com/antoniostano/aria/internal/history"
	"github.com/antoniostano/aria/internal/observability"
	"github.com/antoniostano/aria/internal/protocol"
)

// Generator produces a reply for an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, messages []brain.Message) (string, error)
}

// Memory is the best-effort long-term memory surface. Implementations
// must never propagate failure.
type Memory interface {
	Retrieve(ctx context.Context, query string) string
	RecordExchange(ctx context.Context, userText, assistantText string)
}

// Agent owns one session: its ledger, its prompt policy, and its turn
// loop. One agent instance exists per session id for the process
// lifetime; connections come and go.
type Agent struct {
	sessionID    string
	ledger       *history.Ledger
	generator    Generator
	memory       Memory
	metrics      *observability.Metrics
	systemPrompt string
	window       int

	// runMu serializes connections: a session's turn-processing logic
	// never interleaves across two concurrent streams.
	runMu sync.Mutex
}

func New(sessionID string, ledger *history.Ledger, generator Generator, memory Memory, metrics *observability.Metrics, systemPrompt string, window int) *Agent {
	if window <= 0 {
		window = 6
	}
	return &Agent{
		sessionID:    sessionID,
		ledger:       ledger,
		generator:    generator,
		memory:       memory,
		metrics:      metrics,
		systemPrompt: systemPrompt,
		window:       window,
	}
}

func (a *Agent) SessionID() string { return a.sessionID }

// RunConnection services one duplex stream until the inbound channel
// closes or ctx is cancelled. A non-nil return is a runtime fault: an
// error message has been queued for the client and the connection must
// be torn down.
func (a *Agent) RunConnection(ctx context.Context, inbound <-chan protocol.UserMessage, outbound chan<- any) (err error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("session %s: %v", a.sessionID, r)
			a.send(ctx, outbound, protocol.NewError(fmt.Sprintf("%v", r)))
		}
	}()

	// Lazy hydration: a no-op on every connection after the first
	// successful one.
	if err := a.ledger.Hydrate(ctx); err != nil {
		a.send(ctx, outbound, protocol.NewError("failed to load conversation history"))
		return err
	}

	a.send(ctx, outbound, protocol.NewStatus("Connected to Aria"))

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-inbound:
			if !ok {
				return nil
			}
			a.handleTurn(ctx, msg, outbound)
		}
	}
}

func (a *Agent) handleTurn(ctx context.Context, msg protocol.UserMessage, outbound chan<- any) {
	start := time.Now()
	userText := msg.Content

	if err := a.ledger.Append(ctx, history.Turn{Role: history.RoleUser, Content: userText}); err != nil {
		// The turn stays in the in-memory ledger; the snapshot catches
		// up on the next successful append.
		log.Printf("session %s: persist user turn: %v", a.sessionID, err)
	}

	var memoryContext string
	if a.memory != nil {
		memoryContext = a.memory.Retrieve(ctx, userText)
	}

	recent, err := a.ledger.Recent(ctx, a.window)
	if err != nil {
		log.Printf("session %s: read recent turns: %v", a.sessionID, err)
		recent = nil
	}

	messages := make([]brain.Message, 0, len(recent)+3)
	messages = append(messages, brain.Message{Role: brain.RoleSystem, Content: a.systemPrompt})
	if memoryContext != "" {
		messages = append(messages, brain.Message{
			Role:    brain.RoleSystem,
			Content: "Context from memory:\n" + memoryContext,
		})
	}
	for _, t := range recent {
		messages = append(messages, brain.Message{Role: string(t.Role), Content: t.Content})
	}
	messages = append(messages, brain.Message{Role: brain.RoleUser, Content: userText})

	reply, err := a.generator.Generate(ctx, messages)
	if err != nil {
		log.Printf("session %s: generation failed: %v", a.sessionID, err)
		if a.metrics != nil {
			a.metrics.GenerationFailures.Inc()
		}
		reply = "Model error: " + err.Error()
	}

	a.send(ctx, outbound, protocol.NewAssistantReply(reply))

	if err := a.ledger.Append(ctx, history.Turn{Role: history.RoleAssistant, Content: reply}); err != nil {
		log.Printf("session %s: persist assistant turn: %v", a.sessionID, err)
	}

	if a.memory != nil {
		// Fire and forget: recording must never block or fail the turn
		// already delivered, and must survive the connection closing.
		go a.recordExchange(userText, reply)
	}

	if a.metrics != nil {
		a.metrics.ObserveTurnLatency(time.Since(start))
	}
}

func (a *Agent) recordExchange(userText, reply string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("session %s: memory record panic: %v", a.sessionID, r)
		}
	}()
	a.memory.RecordExchange(context.Background(), userText, reply)
}

func (a *Agent) send(ctx context.Context, outbound chan<- any, msg any) {
	select {
	case outbound <- msg:
	case <-ctx.Done():
	}
}
