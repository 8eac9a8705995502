package api

import (
	"net/http"
	"sort"

	"github.com/talgya/sarakt/internal/agents"
	"github.com/talgya/sarakt/internal/engine"
	"github.com/talgya/sarakt/internal/simerr"
	"github.com/talgya/sarakt/internal/social"
	"github.com/talgya/sarakt/internal/world"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

type page[T any] struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Items  []T `json:"items"`
}

func paginate[T any](r *http.Request, all []T) page[T] {
	offset := queryInt(r, "offset", 0, 0, 1<<31-1)
	limit := queryInt(r, "limit", defaultPageSize, 1, maxPageSize)
	p := page[T]{Total: len(all), Offset: offset, Items: []T{}}
	if offset < len(all) {
		p.Items = all[offset:min(offset+limit, len(all))]
	}
	return p
}

type statusResponse struct {
	Name string `json:"name"`
	engine.Status
	Seed   int64 `json:"seed"`
	Paused bool  `json:"paused"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	paused := s.Engine.Paused()
	s.read(w, func(u *engine.Universe) (any, error) {
		return statusResponse{
			Name:   "Sarakt",
			Status: u.Status(),
			Seed:   u.Config().Seed,
			Paused: paused,
		}, nil
	})
}

type bodySummary struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	Class     world.Class `json:"class"`
	Habitable bool        `json:"habitable"`
	Seed      int64       `json:"seed"`
	Hazards   int         `json:"active_hazards"`
}

func (s *Server) handleBodies(w http.ResponseWriter, r *http.Request) {
	s.read(w, func(u *engine.Universe) (any, error) {
		out := make([]bodySummary, 0, len(u.Bodies))
		for _, b := range u.Bodies {
			out = append(out, bodySummary{
				ID:        b.ID,
				Name:      b.Name,
				Class:     b.Class,
				Habitable: b.Habitable,
				Seed:      b.Seed,
				Hazards:   len(b.ActiveHazards()),
			})
		}
		return out, nil
	})
}

func (s *Server) handleBody(w http.ResponseWriter, r *http.Request) {
	ref := pathRef(r, "ref")
	s.read(w, func(u *engine.Universe) (any, error) {
		b, ok := u.Body(ref)
		if !ok {
			return nil, simerr.Wrapf(simerr.ErrBodyNotFound, "body %s", ref)
		}
		return b, nil
	})
}

func (s *Server) handleBodyResources(w http.ResponseWriter, r *http.Request) {
	ref := pathRef(r, "ref")
	s.read(w, func(u *engine.Universe) (any, error) {
		b, ok := u.Body(ref)
		if !ok {
			return nil, simerr.Wrapf(simerr.ErrBodyNotFound, "body %s", ref)
		}
		return b.ResourceSummary(), nil
	})
}

type settlementSummary struct {
	ID         int            `json:"id"`
	Name       string         `json:"name"`
	BodyID     int            `json:"body_id"`
	TotalPlots int            `json:"total_plots"`
	Economy    social.Economy `json:"economy"`
}

func (s *Server) handleSettlements(w http.ResponseWriter, r *http.Request) {
	s.read(w, func(u *engine.Universe) (any, error) {
		out := make([]settlementSummary, 0, len(u.Settlements))
		for _, st := range u.Settlements {
			out = append(out, settlementSummary{
				ID:         st.ID,
				Name:       st.Name,
				BodyID:     st.BodyID,
				TotalPlots: st.TotalPlots,
				Economy:    st.Economy,
			})
		}
		return out, nil
	})
}

func (s *Server) handleSettlementStats(w http.ResponseWriter, r *http.Request) {
	ref := pathRef(r, "ref")
	s.read(w, func(u *engine.Universe) (any, error) {
		st, ok := u.Settlement(ref)
		if !ok {
			return nil, simerr.Wrapf(simerr.ErrSettlementNotFound, "settlement %s", ref)
		}
		return st.Stats(), nil
	})
}

// handlePlots lists plots, optionally filtered by ?owner= and ?developed=.
func (s *Server) handlePlots(w http.ResponseWriter, r *http.Request) {
	ref := pathRef(r, "ref")
	q := r.URL.Query()
	owner, developed := q.Get("owner"), q.Get("developed")
	s.read(w, func(u *engine.Universe) (any, error) {
		st, ok := u.Settlement(ref)
		if !ok {
			return nil, simerr.Wrapf(simerr.ErrSettlementNotFound, "settlement %s", ref)
		}
		plots := st.Plots
		if owner != "" || developed != "" {
			plots = nil
			for _, p := range st.Plots {
				if owner != "" && p.Owner != owner {
					continue
				}
				if developed != "" && p.Developed != (developed == "true") {
					continue
				}
				plots = append(plots, p)
			}
		}
		return paginate(r, plots), nil
	})
}

type actorSummary struct {
	ID           agents.ActorID `json:"id"`
	Name         string         `json:"name"`
	BodyID       int            `json:"body_id"`
	Age          int            `json:"age"`
	State        agents.State   `json:"state"`
	JoinedPlayer string         `json:"joined_player,omitempty"`
	TokenID      *uint64        `json:"token_id,omitempty"`
}

func summarizeActor(a *agents.Actor) actorSummary {
	return actorSummary{
		ID:           a.ID,
		Name:         a.Name,
		BodyID:       a.BodyID,
		Age:          a.Age,
		State:        a.State(),
		JoinedPlayer: a.JoinedPlayer,
		TokenID:      a.TokenID,
	}
}

// handleActors lists actors, optionally filtered by ?state= and ?body=.
func (s *Server) handleActors(w http.ResponseWriter, r *http.Request) {
	state := agents.State(r.URL.Query().Get("state"))
	body := queryInt(r, "body", 0, 1, 1<<31-1)
	s.read(w, func(u *engine.Universe) (any, error) {
		out := make([]actorSummary, 0, len(u.Actors))
		for _, a := range u.Actors {
			if state != "" && a.State() != state {
				continue
			}
			if body != 0 && a.BodyID != body {
				continue
			}
			out = append(out, summarizeActor(a))
		}
		return paginate(r, out), nil
	})
}

type actorDetail struct {
	actorSummary
	Seed        int64                `json:"seed"`
	Heritage    string               `json:"heritage"`
	Generation  int                  `json:"generation"`
	Attributes  agents.Attributes    `json:"attributes"`
	Personality *agents.Personality  `json:"personality"`
	TopSkills   []agents.SkillLevel  `json:"top_skills"`
	Loyalty     []loyaltyEntry       `json:"loyalty"`
	Recent      []agents.Interaction `json:"recent_interactions"`
}

type loyaltyEntry struct {
	Player  string  `json:"player"`
	Loyalty float64 `json:"loyalty"`
}

func (s *Server) handleActor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	s.read(w, func(u *engine.Universe) (any, error) {
		a, ok := u.Actor(id)
		if !ok {
			return nil, simerr.Wrapf(simerr.ErrActorNotFound, "actor %d", id)
		}
		loyalty := make([]loyaltyEntry, 0, len(a.Loyalty))
		for p, v := range a.Loyalty {
			loyalty = append(loyalty, loyaltyEntry{p, v})
		}
		sort.Slice(loyalty, func(i, j int) bool {
			if loyalty[i].Loyalty != loyalty[j].Loyalty {
				return loyalty[i].Loyalty > loyalty[j].Loyalty
			}
			return loyalty[i].Player < loyalty[j].Player
		})
		return actorDetail{
			actorSummary: summarizeActor(a),
			Seed:         a.Seed,
			Heritage:     a.Heritage,
			Generation:   a.Generation,
			Attributes:   a.Attributes,
			Personality:  a.Personality,
			TopSkills:    a.TopSkills(3),
			Loyalty:      loyalty,
			Recent:       a.RecentInteractions(10),
		}, nil
	})
}

func (s *Server) handleFactions(w http.ResponseWriter, r *http.Request) {
	s.read(w, func(u *engine.Universe) (any, error) {
		return u.Factions.All(), nil
	})
}

// handleEvents returns the newest events, oldest first. ?since= returns only
// events after a sequence number; ?category= filters.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50, 1, engine.MaxEvents)
	category := r.URL.Query().Get("category")
	since := uint64(queryInt(r, "since", 0, 0, 1<<31-1))
	s.read(w, func(u *engine.Universe) (any, error) {
		events := u.EventsSince(since)
		if category != "" {
			filtered := events[:0:0]
			for _, e := range events {
				if e.Category == category {
					filtered = append(filtered, e)
				}
			}
			events = filtered
		}
		if len(events) > limit {
			events = events[len(events)-limit:]
		}
		if events == nil {
			events = []engine.Event{}
		}
		return events, nil
	})
}
