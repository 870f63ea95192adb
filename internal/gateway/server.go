// Package gateway exposes the HTTP surfaces: the status endpoint, pull
// streams over SSE, the on-demand insight endpoint and the push socket.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vitalwatch/vitalwatch/internal/fanout"
	"github.com/vitalwatch/vitalwatch/internal/insight"
	"github.com/vitalwatch/vitalwatch/internal/store"
	"github.com/vitalwatch/vitalwatch/internal/trend"
)

// Stream cadence defaults. Global streams tick slower than per-user ones.
const (
	DefaultGlobalInterval = 5 * time.Second
	DefaultUserInterval   = 3 * time.Second
)

// Config holds the HTTP server settings.
type Config struct {
	Host string `json:"host" envconfig:"HOST"`
	Port int    `json:"port" envconfig:"PORT"`
	// AuthToken, when set, gates every endpoint except /api/status.
	AuthToken string `json:"authToken" envconfig:"AUTH_TOKEN"`
}

// DefaultConfig returns the default server settings.
func DefaultConfig() Config {
	return Config{Host: "127.0.0.1", Port: 8090}
}

// Server wires the HTTP surface to the registry, store and insight requester.
type Server struct {
	cfg     Config
	store   *store.Store
	reg     *fanout.Registry
	insight *insight.Requester
	hub     *Hub
	version string
	start   time.Time

	globalInterval time.Duration
	userInterval   time.Duration
}

func New(cfg Config, st *store.Store, reg *fanout.Registry, req *insight.Requester, version string) *Server {
	return &Server{
		cfg:     cfg,
		store:   st,
		reg:     reg,
		insight: req,
		hub:     NewHub(),
		version: version,
		start:   time.Now(),

		globalInterval: DefaultGlobalInterval,
		userInterval:   DefaultUserInterval,
	}
}

// SetIntervals overrides the default stream cadences. Zero values keep the
// defaults.
func (s *Server) SetIntervals(global, user time.Duration) {
	if global > 0 {
		s.globalInterval = global
	}
	if user > 0 {
		s.userInterval = user
	}
}

// Hub returns the push-side room hub for broadcast use outside the server.
func (s *Server) Hub() *Hub { return s.hub }

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/events", s.auth(s.handleEvents))
	mux.HandleFunc("GET /api/insights/{owner}", s.auth(s.handleInsights))
	mux.HandleFunc("GET /ws", s.auth(s.handleSocket))
	return mux
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Gateway listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

// auth enforces the bearer token when one is configured. EventSource clients
// cannot set headers, so a token query parameter is accepted as well.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AuthToken != "" {
			token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token != s.cfg.AuthToken {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.Counts(r.Context())
	if err != nil {
		http.Error(w, "status query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"version":   s.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.start).Round(time.Second).String(),
		"statistics": map[string]any{
			"totalUsers":      counts.Users,
			"totalRecords":    counts.Samples,
			"activeReminders": counts.ActiveReminders,
		},
		"activeStreams": len(s.reg.Active()),
	})
}

// handleEvents is the pull stream: one SSE connection backed by one registry
// subscription. The connection lives until the client goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	owner := r.URL.Query().Get("owner")
	cadence := s.globalInterval
	if owner != "" {
		cadence = s.userInterval
	}
	if raw := r.URL.Query().Get("interval_ms"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid interval_ms", http.StatusBadRequest)
			return
		}
		cadence = time.Duration(ms) * time.Millisecond
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	id, err := s.reg.Subscribe(fanout.Scope{OwnerID: owner}, cadence, &sseTransport{w: w, flusher: flusher})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	<-r.Context().Done()
	s.reg.Unsubscribe(id)
}

// handleInsights serves the on-demand detailed analysis for one user.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("owner")
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			http.Error(w, "invalid days", http.StatusBadRequest)
			return
		}
		days = v
	}

	since := time.Now().AddDate(0, 0, -days)
	samples, err := s.store.SamplesSince(r.Context(), owner, since)
	if err != nil {
		http.Error(w, "sample query failed", http.StatusInternalServerError)
		return
	}

	trends := trend.Analyze(samples)
	writeJSON(w, http.StatusOK, map[string]any{
		"owner":       owner,
		"days":        days,
		"recordCount": len(samples),
		"trends":      trends,
		"insight":     s.insight.Detailed(r.Context(), trends, days),
		"generatedAt": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Response encoding failed", "error", err)
	}
}
