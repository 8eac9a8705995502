// Actor lifecycle: child → developing → mature, gated on age and advanced
// once per cycle. Transitions are irreversible.
package agents

import (
	"github.com/talgya/sarakt/internal/entropy"
)

var (
	firstNames = []string{"Alexei", "Boris", "Dimitri", "Elena", "Fyodor", "Galina",
		"Ivan", "Katerina", "Leonid", "Marina", "Nikolai", "Olga"}
	lastNames = []string{"Dulov", "Petrov", "Ivanov", "Volkov", "Sokolov", "Kozlov"}
)

// NewActor creates a child actor from its seed. Generation, attributes and
// name are drawn in that order from the actor's own generator.
func NewActor(id ActorID, bodyID int, seed int64) *Actor {
	gen := entropy.New(seed)
	a := &Actor{
		ID:         id,
		BodyID:     bodyID,
		Seed:       seed,
		Heritage:   Heritage,
		Generation: gen.Integer(1, 10),
		Stage:      StateChild,
		Loyalty:    make(map[string]float64),
		History:    []Interaction{},
		RNG:        gen,
	}
	a.Attributes = Attributes{
		Strength:     gen.Integer(1, 10),
		Intelligence: gen.Integer(1, 10),
		Charisma:     gen.Integer(1, 10),
		Endurance:    gen.Integer(1, 10),
		Agility:      gen.Integer(1, 10),
	}
	a.Name = entropy.MustChoice(gen, firstNames) + " " + entropy.MustChoice(gen, lastNames)
	return a
}

// AdvanceAge ages the actor by one cycle, applies any stage transition the
// new age unlocks, and grows skills from age 5 onward. It returns the stage
// after the advance.
func (a *Actor) AdvanceAge() State {
	a.Age++

	if a.Stage == StateChild && a.Age >= DevelopingAge {
		a.Stage = StateDeveloping
		a.Personality = newPersonality(a.RNG)
	}
	if a.Stage == StateDeveloping && a.Age >= MatureAge {
		a.Stage = StateMature
		a.Personality.refine(a.RNG)
	}

	if a.Age >= DevelopingAge {
		a.growSkills()
	}
	return a.Stage
}

// TopSkills returns the actor's n best skills.
func (a *Actor) TopSkills(n int) []SkillLevel {
	return a.Skills.Top(n)
}
