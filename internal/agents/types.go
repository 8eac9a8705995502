// Package agents provides the actor (NPC) model: aging, personality
// emergence, skill growth and per-player loyalty.
package agents

import (
	"github.com/talgya/sarakt/internal/entropy"
)

// ActorID is a unique identifier for an actor.
type ActorID = int

// State is an actor's lifecycle state.
type State string

const (
	StateChild      State = "child"
	StateDeveloping State = "developing"
	StateMature     State = "mature"
	StateLoyal      State = "loyal" // Terminal
)

// Age thresholds, in cycles.
const (
	DevelopingAge = 5
	MatureAge     = 18
)

// Heritage is the lineage every generated actor descends from.
const Heritage = "Dynasty_Dulo"

// Attributes are the five physical attributes, each 1–10.
type Attributes struct {
	Strength     int `json:"strength"`
	Intelligence int `json:"intelligence"`
	Charisma     int `json:"charisma"`
	Endurance    int `json:"endurance"`
	Agility      int `json:"agility"`
}

// Actor is a non-player character.
type Actor struct {
	ID     ActorID `json:"id"`
	BodyID int     `json:"body_id"`
	Seed   int64   `json:"seed"`
	Name   string  `json:"name"`

	Heritage   string `json:"heritage"`
	Generation int    `json:"generation"`
	Age        int    `json:"age"` // Cycles

	// Stage is the age-gated part of the lifecycle. It keeps advancing after
	// the actor turns loyal so personality and skills still develop.
	Stage State `json:"stage"`

	// Loyal is set once, the first time any player's loyalty reaches 100,
	// and never cleared.
	Loyal        bool   `json:"loyal"`
	JoinedPlayer string `json:"joined_player,omitempty"`

	Attributes  Attributes   `json:"attributes"`
	Personality *Personality `json:"personality"` // nil until age 5
	Skills      SkillTable   `json:"skills"`

	Loyalty map[string]float64 `json:"loyalty"` // player → 0–100
	History []Interaction      `json:"history"`

	TokenID *uint64 `json:"token_id,omitempty"`

	RNG *entropy.Generator `json:"rng"`
}

// State returns loyal once the actor has joined a player, else its stage.
func (a *Actor) State() State {
	if a.Loyal {
		return StateLoyal
	}
	return a.Stage
}

// AssignToken links the actor to an external asset token.
func (a *Actor) AssignToken(token uint64) {
	a.TokenID = &token
}

// LoyaltyTo returns the loyalty held toward a player (0 if never met).
func (a *Actor) LoyaltyTo(player string) float64 {
	return a.Loyalty[player]
}
