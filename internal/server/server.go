// Package server provides HTTP and WebSocket handlers
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"gamewatcher/internal/trace"
	"gamewatcher/internal/watcher"
)

// Message types.
type Message struct {
	Type string `json:"type"`
}

type AutoplayMessage struct {
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}

type AckMessage struct {
	Type   string `json:"type"`
	Action string `json:"action"`
}

type StatusMessage struct {
	Type   string                `json:"type"`
	Status watcher.StatusPayload `json:"status"`
}

type RateLimitedMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type HistoryResponse struct {
	Entries []watcher.HistoryEntry `json:"entries"`
	Count   int                    `json:"count"`
}

// Controller is the watcher surface the server exposes over HTTP and
// WebSocket. *watcher.Watcher implements it.
type Controller interface {
	Status() watcher.StatusPayload
	History() *watcher.History
	Events() <-chan watcher.Event
	Skip()
	Replay()
	ClearQueue()
	SetAutoplay(enabled bool)
}

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// allow checks if a message is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-RateLimitWindow)

	// Prune old timestamps
	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= RateLimitMessages {
		return false
	}

	r.timestamps = append(r.timestamps, now)
	return true
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	ctrl       Controller
	mu         sync.RWMutex
	conns      map[*websocket.Conn]struct{}
	rateLimits map[*websocket.Conn]*rateLimiter
}

// New creates a server around a running watcher.
func New(ctrl Controller) *Server {
	s := &Server{
		ctrl:       ctrl,
		conns:      make(map[*websocket.Conn]struct{}),
		rateLimits: make(map[*websocket.Conn]*rateLimiter),
	}

	// Fan watcher events out to every connected socket
	go s.broadcastEvents()

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", s.handleWebSocket)

	// REST API
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("POST /api/playback/skip", s.handleSkip)
	mux.HandleFunc("POST /api/playback/replay", s.handleReplay)
	mux.HandleFunc("POST /api/playback/clear", s.handleClear)
	mux.HandleFunc("POST /api/autoplay/on", s.handleAutoplayOn)
	mux.HandleFunc("POST /api/autoplay/off", s.handleAutoplayOff)

	// Apply middleware: trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.rateLimits[conn] = &rateLimiter{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		delete(s.rateLimits, conn)
		s.mu.Unlock()
	}()

	// Get trace context from HTTP upgrade request
	baseCtx := r.Context()
	log := trace.Logger(baseCtx)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	// New consumers start from a full snapshot
	_ = wsjson.Write(baseCtx, conn, StatusMessage{Type: "status", Status: s.ctrl.Status()})

	for {
		var raw json.RawMessage
		if err := wsjson.Read(baseCtx, conn, &raw); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		// Check rate limit
		s.mu.RLock()
		rl := s.rateLimits[conn]
		s.mu.RUnlock()

		if !rl.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			_ = wsjson.Write(baseCtx, conn, RateLimitedMessage{
				Type:    "error",
				Message: "rate limit exceeded",
			})
			continue
		}

		var base Message
		if err := json.Unmarshal(raw, &base); err != nil {
			continue
		}

		// Commands may carry their own trace_id for correlation
		cmdLog := log
		if tc, ok := trace.ExtractFromJSON(raw); ok {
			cmdLog = trace.Logger(trace.WithContext(baseCtx, tc))
		}

		switch base.Type {
		case "skip", "replay", "clear":
			s.runCommand(base.Type)
			cmdLog.Info("playback command", "action", base.Type)
			_ = wsjson.Write(baseCtx, conn, AckMessage{Type: "ack", Action: base.Type})
		case "autoplay":
			var ap AutoplayMessage
			if err := json.Unmarshal(raw, &ap); err != nil {
				continue
			}
			s.ctrl.SetAutoplay(ap.Enabled)
			cmdLog.Info("autoplay toggled", "enabled", ap.Enabled)
			_ = wsjson.Write(baseCtx, conn, AckMessage{Type: "ack", Action: "autoplay"})
		case "status":
			_ = wsjson.Write(baseCtx, conn, StatusMessage{Type: "status", Status: s.ctrl.Status()})
		}
	}
}

func (s *Server) runCommand(action string) {
	switch action {
	case "skip":
		s.ctrl.Skip()
	case "replay":
		s.ctrl.Replay()
	case "clear":
		s.ctrl.ClearQueue()
	}
}

func (s *Server) broadcastEvents() {
	for evt := range s.ctrl.Events() {
		s.mu.RLock()
		for conn := range s.conns {
			go func(c *websocket.Conn, e watcher.Event) {
				ctx, cancel := context.WithTimeout(context.Background(), WriteTimeout)
				defer cancel()
				_ = wsjson.Write(ctx, c, e)
			}(conn, evt)
		}
		s.mu.RUnlock()
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(s.ctrl.Status())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	hist := s.ctrl.History()

	var entries []watcher.HistoryEntry
	if v := r.URL.Query().Get("seconds"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			http.Error(w, "seconds must be a positive integer", http.StatusBadRequest)
			return
		}
		entries = hist.Recent(secs)
	} else {
		entries = hist.All()
	}
	if entries == nil {
		entries = []watcher.HistoryEntry{}
	}

	json.NewEncoder(w).Encode(HistoryResponse{
		Entries: entries,
		Count:   len(entries),
	})
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Skip()
	json.NewEncoder(w).Encode(map[string]string{"status": "skipped"})
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Replay()
	json.NewEncoder(w).Encode(map[string]string{"status": "replaying"})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.ctrl.ClearQueue()
	json.NewEncoder(w).Encode(map[string]string{"status": "cleared"})
}

func (s *Server) handleAutoplayOn(w http.ResponseWriter, r *http.Request) {
	s.ctrl.SetAutoplay(true)
	json.NewEncoder(w).Encode(map[string]string{"status": "autoplay_on"})
}

func (s *Server) handleAutoplayOff(w http.ResponseWriter, r *http.Request) {
	s.ctrl.SetAutoplay(false)
	json.NewEncoder(w).Encode(map[string]string{"status": "autoplay_off"})
}
