package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/antoniostano/aria/internal/config"
	"github.com/antoniostano/aria/internal/hub"
	"github.com/antoniostano/aria/internal/observability"
	"github.com/antoniostano/aria/internal/protocol"
)

// Info describes the wiring the health endpoints report.
type Info struct {
	StoreMode string
	BrainMode string
}

type Server struct {
	cfg      config.Config
	hub      *hub.Hub
	metrics  *observability.Metrics
	info     Info
	upgrader websocket.Upgrader
	static   http.Handler
}

func New(cfg config.Config, h *hub.Hub, metrics *observability.Metrics, info Info) *Server {
	return &Server{
		cfg:     cfg,
		hub:     h,
		metrics: metrics,
		info:    info,
		static:  newStaticHandler(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from
				// the same origin, so other sites cannot drive a user's
				// session if the service is exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusTemporaryRedirect)
	})
	r.Get("/ui", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusTemporaryRedirect)
	})
	r.Handle("/ui/*", http.StripPrefix("/ui/", s.static))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/agents/{session}", s.handleAgentWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"store_mode": s.info.StoreMode,
		"brain_mode": s.info.BrainMode,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ready",
		"store_mode": s.info.StoreMode,
		"brain_mode": s.info.BrainMode,
		"sessions":   s.hub.Count(),
	})
}

// handleAgentWS owns one duplex stream: it upgrades the connection,
// routes it to the session's agent, and pumps frames in both directions.
func (s *Server) handleAgentWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "session"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "session id is required in the path")
		return
	}

	if !websocket.IsWebSocketUpgrade(r) {
		s.metrics.SessionEvents.WithLabelValues("rejected_upgrade").Inc()
		respondError(w, http.StatusUpgradeRequired, "upgrade_required",
			"expected websocket upgrade at /agents/{session}")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ag := s.hub.Acquire(sessionID)
	s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()
	s.metrics.ActiveConnections.Inc()
	defer s.metrics.ActiveConnections.Dec()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	inbound := make(chan protocol.UserMessage, 64)
	outbound := make(chan any, 64)

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		if err := ag.RunConnection(ctx, inbound, outbound); err != nil {
			log.Printf("session %s: connection fault: %v", sessionID, err)
		}
		// The agent is the only sender; closing here lets the writer
		// flush whatever is still queued, including a final error.
		close(outbound)
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range outbound {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				cancel()
				for range outbound {
				}
				return
			}
			if mt, ok := messageTypeOf(msg); ok {
				s.metrics.WSMessages.WithLabelValues("outbound", string(mt)).Inc()
			}
		}
	}()

	// Unblock the read loop once the agent is done, after the writer has
	// flushed. Replies computed after a disconnect are simply discarded.
	go func() {
		<-runDone
		<-writerDone
		_ = conn.Close()
	}()

	conn.SetReadLimit(1 << 20)

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		msg, err := protocol.ParseClientMessage(data)
		if err != nil {
			// Malformed or unrecognized payloads are dropped without a
			// reply and without touching session state.
			s.metrics.WSMessages.WithLabelValues("inbound", "dropped").Inc()
			continue
		}
		s.metrics.WSMessages.WithLabelValues("inbound", string(msg.Type)).Inc()

		select {
		case <-runDone:
			break readLoop
		case inbound <- msg:
		}
	}

	close(inbound)
	<-runDone
	<-writerDone
	s.metrics.SessionEvents.WithLabelValues("ws_disconnected").Inc()
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.Status:
		return m.Type, true
	case protocol.AssistantReply:
		return m.Type, true
	case protocol.ErrorMessage:
		return m.Type, true
	default:
		return "", false
	}
}
