// Factions: player-led organizations that loyal actors can be enrolled in.
package social

import (
	"slices"
	"strings"

	"github.com/talgya/sarakt/internal/simerr"
)

// FactionID is a unique identifier for a faction.
type FactionID = int

// Faction is an organization led by a player.
type Faction struct {
	ID       FactionID `json:"id"`
	Name     string    `json:"name"`
	LeaderID string    `json:"leader_id"` // Player identifier
	Members  []int     `json:"members"`   // Actor IDs, in join order
	Founded  uint64    `json:"founded_cycle"`
	TokenID  *uint64   `json:"token_id,omitempty"`
}

// Registry holds the factions of one universe.
type Registry struct {
	factions []*Faction
	nextID   FactionID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{nextID: 1}
}

// RestoreRegistry rebuilds a registry from persisted factions.
func RestoreRegistry(factions []*Faction) *Registry {
	r := NewRegistry()
	for _, f := range factions {
		r.factions = append(r.factions, f)
		if f.ID >= r.nextID {
			r.nextID = f.ID + 1
		}
	}
	return r
}

// Create founds a new faction. Names are unique, ignoring case.
func (r *Registry) Create(name, leader string, cycle uint64) (*Faction, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, simerr.ErrInvalidName
	}
	if leader == "" {
		return nil, simerr.ErrInvalidPlayer
	}
	if _, exists := r.ByName(name); exists {
		return nil, simerr.Wrapf(simerr.ErrFactionExists, "%q", name)
	}

	f := &Faction{
		ID:       r.nextID,
		Name:     name,
		LeaderID: leader,
		Members:  []int{},
		Founded:  cycle,
	}
	r.nextID++
	r.factions = append(r.factions, f)
	return f, nil
}

// Get returns a faction by id.
func (r *Registry) Get(id FactionID) (*Faction, bool) {
	for _, f := range r.factions {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

// ByName returns a faction by case-insensitive name.
func (r *Registry) ByName(name string) (*Faction, bool) {
	for _, f := range r.factions {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return nil, false
}

// All returns the factions in founding order.
func (r *Registry) All() []*Faction {
	return r.factions
}

// Len returns the number of factions.
func (r *Registry) Len() int { return len(r.factions) }

// AddMember enrolls an actor. Adding an existing member is a no-op.
func (r *Registry) AddMember(id FactionID, actorID int) (*Faction, error) {
	f, ok := r.Get(id)
	if !ok {
		return nil, simerr.Wrapf(simerr.ErrFactionNotFound, "faction %d", id)
	}
	if !slices.Contains(f.Members, actorID) {
		f.Members = append(f.Members, actorID)
	}
	return f, nil
}

// AssignToken links a faction to an external asset token.
func (r *Registry) AssignToken(id FactionID, token uint64) error {
	f, ok := r.Get(id)
	if !ok {
		return simerr.Wrapf(simerr.ErrFactionNotFound, "faction %d", id)
	}
	f.TokenID = &token
	return nil
}
