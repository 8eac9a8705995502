// Universe ties bodies, settlements, actors and factions together and
// advances them through cycles.
package engine

import (
	"fmt"

	"github.com/talgya/sarakt/internal/agents"
	"github.com/talgya/sarakt/internal/config"
	"github.com/talgya/sarakt/internal/simerr"
	"github.com/talgya/sarakt/internal/social"
	"github.com/talgya/sarakt/internal/world"
)

// Seeds of the fixed starting content at the default universe seed. A
// different universe seed shifts all of them by the same offset.
const (
	primarySeed    int64 = 12345
	biotechSeed    int64 = 67890
	miningSeedBase int64 = 100000

	CapitalName = "Octavia Capital City"
)

// Universe owns every entity of one simulation. It is not safe for
// concurrent use; Engine serializes access.
type Universe struct {
	cfg config.Universe

	Cycle       uint64
	Bodies      []*world.Body
	Settlements []*social.Settlement
	Actors      []*agents.Actor
	Factions    *social.Registry

	actorIndex map[agents.ActorID]*agents.Actor
	spawner    *agents.Spawner
	events     *eventLog
	listeners  []func(Event)

	initialized bool
}

// NewUniverse creates an empty universe. Call Initialize to create the
// starting content.
func NewUniverse(cfg config.Universe) *Universe {
	return &Universe{
		cfg:        cfg,
		Factions:   social.NewRegistry(),
		actorIndex: make(map[agents.ActorID]*agents.Actor),
		spawner:    agents.NewSpawner(cfg.SeedBase),
		events:     newEventLog(MaxEvents),
	}
}

// Config returns the generation parameters the universe was created with.
func (u *Universe) Config() config.Universe { return u.cfg }

// Initialize creates the starting content: Sarakt with its capital, Zythera,
// the mining bodies and the starting actors. It may run only once.
func (u *Universe) Initialize() error {
	if u.initialized {
		return simerr.ErrAlreadyInitialized
	}
	shift := u.cfg.Seed - primarySeed

	u.addBody("Sarakt", primarySeed+shift, world.ClassHabitablePrimary, true)
	u.Settlements = append(u.Settlements, social.NewSettlement(1, CapitalName, 1, u.cfg.Plots))
	u.addBody("Zythera", biotechSeed+shift, world.ClassHabitableBiotech, true)
	for i := 1; i <= u.cfg.MiningBodies; i++ {
		u.addBody(fmt.Sprintf("Mining Planet %d", i), miningSeedBase+shift+int64(i), world.ClassMining, false)
	}
	for _, a := range u.spawner.SpawnPopulation(u.cfg.StartingActors, 1) {
		u.addActor(a)
	}

	u.initialized = true
	u.logEvent(CategorySystem, fmt.Sprintf("universe initialized: %d bodies, %d actors",
		len(u.Bodies), len(u.Actors)))
	return nil
}

// Initialized reports whether the starting content exists.
func (u *Universe) Initialized() bool { return u.initialized }

func (u *Universe) addBody(name string, seed int64, class world.Class, habitable bool) *world.Body {
	b := world.NewBody(len(u.Bodies)+1, name, seed, class, habitable)
	u.Bodies = append(u.Bodies, b)
	return b
}

func (u *Universe) addActor(a *agents.Actor) {
	u.Actors = append(u.Actors, a)
	u.actorIndex[a.ID] = a
}

// CycleReport summarizes what one cycle changed.
type CycleReport struct {
	Cycle      uint64 `json:"cycle"`
	Developing int    `json:"developing"` // Actors that turned developing
	Matured    int    `json:"matured"`    // Actors that turned mature
}

// AdvanceCycle runs one cycle: settlements are recomputed, every actor ages,
// then settlements are recomputed again.
func (u *Universe) AdvanceCycle() CycleReport {
	for _, s := range u.Settlements {
		s.Recompute()
	}

	u.Cycle++
	report := CycleReport{Cycle: u.Cycle}
	for _, a := range u.Actors {
		before := a.Stage
		after := a.AdvanceAge()
		if before == after {
			continue
		}
		switch after {
		case agents.StateDeveloping:
			report.Developing++
		case agents.StateMature:
			report.Matured++
			u.logEvent(CategoryLifecycle, fmt.Sprintf("%s (#%d) reached maturity", a.Name, a.ID))
		}
	}

	for _, s := range u.Settlements {
		s.Recompute()
	}
	return report
}

// AdvanceCycles runs n cycles in sequence.
func (u *Universe) AdvanceCycles(n int) ([]CycleReport, error) {
	if n < 0 {
		return nil, simerr.Wrapf(simerr.ErrInvalidCycleCount, "%d", n)
	}
	reports := make([]CycleReport, 0, n)
	for i := 0; i < n; i++ {
		reports = append(reports, u.AdvanceCycle())
	}
	return reports, nil
}

// Ref identifies a body or settlement either by id or by exact name.
type Ref struct {
	id     int
	name   string
	byName bool
}

// ByID refers to an entity by numeric id.
func ByID(id int) Ref { return Ref{id: id} }

// ByName refers to a body or settlement by name.
func ByName(name string) Ref { return Ref{name: name, byName: true} }

func (r Ref) String() string {
	if r.byName {
		return fmt.Sprintf("%q", r.name)
	}
	return fmt.Sprintf("%d", r.id)
}

// Body looks up a body.
func (u *Universe) Body(ref Ref) (*world.Body, bool) {
	for _, b := range u.Bodies {
		if (ref.byName && b.Name == ref.name) || (!ref.byName && b.ID == ref.id) {
			return b, true
		}
	}
	return nil, false
}

// Settlement looks up a settlement.
func (u *Universe) Settlement(ref Ref) (*social.Settlement, bool) {
	for _, s := range u.Settlements {
		if (ref.byName && s.Name == ref.name) || (!ref.byName && s.ID == ref.id) {
			return s, true
		}
	}
	return nil, false
}

// Actor looks up an actor by id.
func (u *Universe) Actor(id agents.ActorID) (*agents.Actor, bool) {
	a, ok := u.actorIndex[id]
	return a, ok
}

// Status is a read-only summary of the universe.
type Status struct {
	Cycle           uint64 `json:"cycle"`
	Bodies          int    `json:"total_bodies"`
	HabitableBodies int    `json:"habitable_bodies"`
	Settlements     int    `json:"total_settlements"`
	Actors          int    `json:"total_actors"`
	MatureActors    int    `json:"mature_actors"`
	LoyalActors     int    `json:"loyal_actors"`
	Factions        int    `json:"factions"`
}

// Status counts the universe's contents. Loyal actors are not counted as
// mature.
func (u *Universe) Status() Status {
	st := Status{
		Cycle:       u.Cycle,
		Bodies:      len(u.Bodies),
		Settlements: len(u.Settlements),
		Actors:      len(u.Actors),
		Factions:    u.Factions.Len(),
	}
	for _, b := range u.Bodies {
		if b.Habitable {
			st.HabitableBodies++
		}
	}
	for _, a := range u.Actors {
		switch a.State() {
		case agents.StateMature:
			st.MatureActors++
		case agents.StateLoyal:
			st.LoyalActors++
		}
	}
	return st
}
