// Loyalty: player interactions move per-player loyalty; the first player to
// reach 100 makes the actor loyal for good.
package agents

import (
	"math"
	"time"

	"github.com/talgya/sarakt/internal/simerr"
)

// InteractionType is a kind of player interaction.
type InteractionType string

const (
	InteractionPositiveTrade   InteractionType = "positive_trade"
	InteractionQuestCompletion InteractionType = "quest_completion"
	InteractionGift            InteractionType = "gift"
	InteractionRescue          InteractionType = "rescue"
	InteractionEmployment      InteractionType = "employment"
	InteractionBetrayal        InteractionType = "betrayal"
	InteractionHarm            InteractionType = "harm"
	InteractionNeglect         InteractionType = "neglect"
)

var interactionEffects = map[InteractionType]float64{
	InteractionPositiveTrade:   2,
	InteractionQuestCompletion: 5,
	InteractionGift:            3,
	InteractionRescue:          10,
	InteractionEmployment:      1,
	InteractionBetrayal:        -20,
	InteractionHarm:            -15,
	InteractionNeglect:         -1,
}

const (
	MaxLoyalty = 100.0

	loyalTendencyHigh = 0.7
	loyalTendencyLow  = 0.3
)

// ParseInteractionType validates an interaction name.
func ParseInteractionType(s string) (InteractionType, error) {
	it := InteractionType(s)
	if _, ok := interactionEffects[it]; !ok {
		return "", simerr.Wrapf(simerr.ErrUnknownInteractionType, "%q", s)
	}
	return it, nil
}

// Effect returns the base loyalty change for an interaction type.
func (it InteractionType) Effect() float64 { return interactionEffects[it] }

// Interact applies a player interaction and returns the new loyalty toward
// that player. Rejected calls change nothing.
func (a *Actor) Interact(player string, kind InteractionType, quality float64) (float64, error) {
	if player == "" {
		return 0, simerr.ErrInvalidPlayer
	}
	effect, ok := interactionEffects[kind]
	if !ok {
		return 0, simerr.Wrapf(simerr.ErrUnknownInteractionType, "%q", kind)
	}
	if math.IsNaN(quality) || math.IsInf(quality, 0) || quality < 0 {
		return 0, simerr.Wrapf(simerr.ErrInvalidQuality, "%v", quality)
	}

	if a.Loyalty == nil {
		a.Loyalty = make(map[string]float64)
	}
	change := effect * quality * a.loyaltyMultiplier()
	loyalty := clamp(a.Loyalty[player]+change, 0, MaxLoyalty)
	a.Loyalty[player] = loyalty

	if loyalty >= MaxLoyalty && !a.Loyal {
		a.Loyal = true
		a.JoinedPlayer = player
	}

	a.record(Interaction{
		Player:  player,
		Type:    kind,
		Change:  change,
		Loyalty: loyalty,
		Age:     a.Age,
		At:      time.Now().UTC(),
	})
	return loyalty, nil
}

// loyaltyMultiplier scales loyalty changes by the loyalty_tendency trait.
func (a *Actor) loyaltyMultiplier() float64 {
	if a.Personality == nil {
		return 1.0
	}
	switch t := a.Personality.Get(TraitLoyaltyTendency); {
	case t > loyalTendencyHigh:
		return 1.5
	case t < loyalTendencyLow:
		return 0.5
	default:
		return 1.0
	}
}
