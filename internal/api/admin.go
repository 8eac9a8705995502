package api

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/talgya/sarakt/internal/engine"
	"github.com/talgya/sarakt/internal/snapshot"
)

const maxCyclesPerRequest = 10000

func (s *Server) handleClaimPlot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Player string `json:"player"`
	}
	if !decode(w, r, &req) {
		return
	}
	res, err := s.Bridge.ClaimPlot(r.Context(), req.Player, id)
	if err != nil {
		writeSimError(w, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleBuildOnPlot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Player    string `json:"player"`
		Structure string `json:"structure"`
	}
	if !decode(w, r, &req) {
		return
	}
	res, err := s.Bridge.BuildOnPlot(r.Context(), req.Player, id, req.Structure)
	if err != nil {
		writeSimError(w, err)
		return
	}
	writeJSON(w, res)
}

// handleDevelopPlot develops a plot directly, without the ledger.
func (s *Server) handleDevelopPlot(w http.ResponseWriter, r *http.Request) {
	ref := pathRef(r, "ref")
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Structure string `json:"structure"`
		Owner     string `json:"owner"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.read(w, func(u *engine.Universe) (any, error) {
		return u.DevelopPlot(ref, id, req.Structure, req.Owner)
	})
}

func (s *Server) handleInfrastructure(w http.ResponseWriter, r *http.Request) {
	ref := pathRef(r, "ref")
	var req struct {
		Facility string `json:"facility"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.read(w, func(u *engine.Universe) (any, error) {
		return u.BuildInfrastructure(ref, req.Facility)
	})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Extractor string `json:"extractor"`
		Resource  string `json:"resource"`
		Amount    int64  `json:"amount"`
	}
	if !decode(w, r, &req) {
		return
	}
	res, err := s.Bridge.ExtractResources(r.Context(), req.Extractor, id, req.Resource, req.Amount)
	if err != nil {
		writeSimError(w, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleSpawn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Player string `json:"player"`
		BodyID int    `json:"body_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	res, err := s.Bridge.SpawnActor(r.Context(), req.Player, req.BodyID)
	if err != nil {
		writeSimError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res)
}

func (s *Server) handleInteract(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Player  string   `json:"player"`
		Type    string   `json:"type"`
		Quality *float64 `json:"quality"` // defaults to 1
	}
	if !decode(w, r, &req) {
		return
	}
	quality := 1.0
	if req.Quality != nil {
		quality = *req.Quality
	}
	res, err := s.Bridge.Interact(r.Context(), id, req.Player, req.Type, quality)
	if err != nil {
		writeSimError(w, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleCreateFaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Leader string `json:"leader"`
		Name   string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	res, err := s.Bridge.CreateFaction(r.Context(), req.Leader, req.Name)
	if err != nil {
		writeSimError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res)
}

func (s *Server) handleJoinFaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		ActorID int `json:"actor_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.read(w, func(u *engine.Universe) (any, error) {
		return u.JoinFaction(id, req.ActorID)
	})
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Count int `json:"count"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Count > maxCyclesPerRequest {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("count must be at most %d", maxCyclesPerRequest))
		return
	}
	reports, err := s.Engine.Step(req.Count)
	if err != nil {
		writeSimError(w, err)
		return
	}
	writeJSON(w, map[string]any{"advanced": len(reports), "reports": reports})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paused bool `json:"paused"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.Engine.SetPaused(req.Paused)
	s.log.Info("engine pause toggled", "paused", req.Paused)
	writeJSON(w, map[string]any{"paused": req.Paused})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		writeError(w, http.StatusServiceUnavailable, "database not available")
		return
	}
	var cycle uint64
	err := s.Engine.Exec(func(u *engine.Universe) error {
		cycle = u.Cycle
		return s.DB.SaveWorldState(u.Export())
	})
	if err != nil {
		s.log.Error("save failed", "error", err)
		writeError(w, http.StatusInternalServerError, "save failed")
		return
	}
	writeJSON(w, map[string]any{"cycle": cycle, "message": "world state saved"})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.SnapshotDir == "" {
		writeError(w, http.StatusServiceUnavailable, "snapshots disabled")
		return
	}
	var path string
	var cycle uint64
	err := s.Engine.Exec(func(u *engine.Universe) error {
		cycle = u.Cycle
		path = filepath.Join(s.SnapshotDir, snapshot.FileName(u.Cycle))
		return snapshot.Write(path, u.Export())
	})
	if err != nil {
		s.log.Error("snapshot failed", "error", err)
		writeError(w, http.StatusInternalServerError, "snapshot failed")
		return
	}
	writeJSON(w, map[string]any{"cycle": cycle, "path": path})
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	if s.Outbox == nil {
		writeError(w, http.StatusServiceUnavailable, "ledger outbox not available")
		return
	}
	entries, err := s.Outbox.Pending(r.Context(), queryInt(r, "limit", 100, 1, maxPageSize))
	if err != nil {
		s.log.Error("outbox query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "outbox query failed")
		return
	}
	writeJSON(w, entries)
}
