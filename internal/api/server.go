// Package api provides the HTTP API for the universe.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/cors"

	"github.com/talgya/sarakt/internal/bridge"
	"github.com/talgya/sarakt/internal/config"
	"github.com/talgya/sarakt/internal/engine"
	"github.com/talgya/sarakt/internal/persistence"
	"github.com/talgya/sarakt/internal/simerr"
)

// Server serves the universe over HTTP.
type Server struct {
	Engine *engine.Engine
	Bridge *bridge.Bridge
	DB     *persistence.DB     // nil disables POST /api/v1/save
	Outbox *persistence.Outbox // nil disables GET /api/v1/ledger/pending

	SnapshotDir string // empty disables POST /api/v1/snapshot

	cfg     config.ServerConfig
	limiter *RateLimiter
	hub     *hub
	log     *slog.Logger
}

// NewServer creates a server and subscribes it to the universe event log.
func NewServer(cfg config.ServerConfig, rl config.RateLimitConfig, e *engine.Engine, b *bridge.Bridge) *Server {
	s := &Server{
		Engine:  e,
		Bridge:  b,
		cfg:     cfg,
		limiter: NewRateLimiter(rl),
		hub:     newHub(),
		log:     slog.With("component", "api"),
	}
	e.Exec(func(u *engine.Universe) error {
		u.OnEvent(s.hub.publish)
		return nil
	})
	return s
}

// Handler returns the routed API with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/bodies", s.handleBodies)
	mux.HandleFunc("GET /api/v1/bodies/{ref}", s.handleBody)
	mux.HandleFunc("GET /api/v1/bodies/{ref}/resources", s.handleBodyResources)
	mux.HandleFunc("GET /api/v1/settlements", s.handleSettlements)
	mux.HandleFunc("GET /api/v1/settlements/{ref}/stats", s.handleSettlementStats)
	mux.HandleFunc("GET /api/v1/settlements/{ref}/plots", s.handlePlots)
	mux.HandleFunc("GET /api/v1/actors", s.handleActors)
	mux.HandleFunc("GET /api/v1/actors/{id}", s.handleActor)
	mux.HandleFunc("GET /api/v1/factions", s.handleFactions)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)

	// Admin endpoints.
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return s.limiter.Middleware(s.adminOnly(h))
	}
	mux.HandleFunc("POST /api/v1/plots/{id}/claim", admin(s.handleClaimPlot))
	mux.HandleFunc("POST /api/v1/plots/{id}/build", admin(s.handleBuildOnPlot))
	mux.HandleFunc("POST /api/v1/settlements/{ref}/plots/{id}/develop", admin(s.handleDevelopPlot))
	mux.HandleFunc("POST /api/v1/settlements/{ref}/infrastructure", admin(s.handleInfrastructure))
	mux.HandleFunc("POST /api/v1/bodies/{id}/extract", admin(s.handleExtract))
	mux.HandleFunc("POST /api/v1/actors", admin(s.handleSpawn))
	mux.HandleFunc("POST /api/v1/actors/{id}/interact", admin(s.handleInteract))
	mux.HandleFunc("POST /api/v1/factions", admin(s.handleCreateFaction))
	mux.HandleFunc("POST /api/v1/factions/{id}/members", admin(s.handleJoinFaction))
	mux.HandleFunc("POST /api/v1/cycles", admin(s.handleCycles))
	mux.HandleFunc("POST /api/v1/pause", admin(s.handlePause))
	mux.HandleFunc("POST /api/v1/save", admin(s.handleSave))
	mux.HandleFunc("POST /api/v1/snapshot", admin(s.handleSnapshot))
	mux.HandleFunc("GET /api/v1/ledger/pending", s.adminOnly(s.handlePending))

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	go func() {
		cleanup := time.NewTicker(time.Minute)
		defer cleanup.Stop()
		for {
			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
				return
			case now := <-cleanup.C:
				s.limiter.Cleanup(now)
			}
		}
	}()

	s.log.Info("HTTP API starting", "addr", srv.Addr, "admin_auth", s.cfg.AdminKey != "")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.cfg.AdminKey
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AdminKey == "" {
			writeError(w, http.StatusForbidden, "admin endpoints disabled (no SARAKT_ADMIN_KEY set)")
			return
		}
		if !s.checkBearerToken(r) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

// read runs fn under the engine lock and writes its result. The value is
// encoded before the lock is released since it may point into live state.
func (s *Server) read(w http.ResponseWriter, fn func(u *engine.Universe) (any, error)) {
	var body []byte
	err := s.Engine.Exec(func(u *engine.Universe) error {
		v, err := fn(u)
		if err != nil {
			return err
		}
		body, err = json.MarshalIndent(v, "", "  ")
		return err
	})
	if err != nil {
		writeSimError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(append(body, '\n'))
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSONStatus(w, status, errorBody{Error: msg})
}

// writeSimError maps the simulation error taxonomy onto HTTP statuses.
func writeSimError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch simerr.KindOf(err) {
	case simerr.KindNotFound:
		status = http.StatusNotFound
	case simerr.KindInvalidArgument:
		status = http.StatusBadRequest
	case simerr.KindPrecondition:
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	writeJSONStatus(w, status, errorBody{Error: err.Error(), Code: simerr.CodeOf(err)})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return false
	}
	return true
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s %q", name, r.PathValue(name)))
		return 0, false
	}
	return n, true
}

// pathRef reads a path segment that may be a numeric id or a name.
func pathRef(r *http.Request, name string) engine.Ref {
	v := r.PathValue(name)
	if id, err := strconv.Atoi(v); err == nil {
		return engine.ByID(id)
	}
	return engine.ByName(v)
}

// queryInt parses a bounded integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def, lo, hi int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		return def
	}
	return n
}
