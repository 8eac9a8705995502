package engine

import (
	"fmt"

	"github.com/talgya/sarakt/internal/agents"
	"github.com/talgya/sarakt/internal/config"
	"github.com/talgya/sarakt/internal/social"
	"github.com/talgya/sarakt/internal/world"
)

// State is the complete persisted form of a universe. Export shares entity
// pointers with the live universe, so serialize it before the next mutation.
type State struct {
	Config       config.Universe      `json:"config"`
	Cycle        uint64               `json:"cycle"`
	Bodies       []*world.Body        `json:"bodies"`
	Settlements  []*social.Settlement `json:"settlements"`
	Actors       []*agents.Actor      `json:"actors"`
	Factions     []*social.Faction    `json:"factions"`
	Events       []Event              `json:"events"`
	NextActorID  agents.ActorID       `json:"next_actor_id"`
	NextEventSeq uint64               `json:"next_event_seq"`
}

// Export captures the universe state.
func (u *Universe) Export() State {
	return State{
		Config:       u.cfg,
		Cycle:        u.Cycle,
		Bodies:       u.Bodies,
		Settlements:  u.Settlements,
		Actors:       u.Actors,
		Factions:     u.Factions.All(),
		Events:       u.Events(0),
		NextActorID:  u.spawner.NextID(),
		NextEventSeq: u.events.nextSeq,
	}
}

// Restore rebuilds an initialized universe from exported state.
func Restore(st State) (*Universe, error) {
	u := NewUniverse(st.Config)
	u.Cycle = st.Cycle
	u.Bodies = st.Bodies
	u.Settlements = st.Settlements

	next := st.NextActorID
	for _, a := range st.Actors {
		if _, dup := u.actorIndex[a.ID]; dup {
			return nil, fmt.Errorf("restore: duplicate actor id %d", a.ID)
		}
		if a.RNG == nil {
			return nil, fmt.Errorf("restore: actor %d has no generator state", a.ID)
		}
		if a.Loyalty == nil {
			a.Loyalty = make(map[string]float64)
		}
		u.addActor(a)
		if a.ID >= next {
			next = a.ID + 1
		}
	}
	if next < 1 {
		next = 1
	}
	u.spawner.SetNextID(next)

	u.Factions = social.RestoreRegistry(st.Factions)
	for _, e := range st.Events {
		u.events.events = append(u.events.events, e)
		if e.Seq >= u.events.nextSeq {
			u.events.nextSeq = e.Seq + 1
		}
	}
	if st.NextEventSeq > u.events.nextSeq {
		u.events.nextSeq = st.NextEventSeq
	}
	if len(u.events.events) > MaxEvents {
		u.events.events = u.events.events[len(u.events.events)-MaxEvents:]
	}

	for _, s := range u.Settlements {
		s.Recompute()
	}
	u.initialized = true
	return u, nil
}
