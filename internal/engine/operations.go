package engine

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/talgya/sarakt/internal/agents"
	"github.com/talgya/sarakt/internal/simerr"
	"github.com/talgya/sarakt/internal/social"
)

func (u *Universe) settlement(ref Ref) (*social.Settlement, error) {
	s, ok := u.Settlement(ref)
	if !ok {
		return nil, simerr.Wrapf(simerr.ErrSettlementNotFound, "settlement %s", ref)
	}
	return s, nil
}

func (u *Universe) actor(id agents.ActorID) (*agents.Actor, error) {
	a, ok := u.Actor(id)
	if !ok {
		return nil, simerr.Wrapf(simerr.ErrActorNotFound, "actor %d", id)
	}
	return a, nil
}

// DevelopPlot builds a structure on an undeveloped plot.
func (u *Universe) DevelopPlot(settlement Ref, plotID int, structure, owner string) (social.Plot, error) {
	s, err := u.settlement(settlement)
	if err != nil {
		return social.Plot{}, err
	}
	st, err := social.ParseStructureType(structure)
	if err != nil {
		return social.Plot{}, err
	}
	p, err := s.DevelopPlot(plotID, st, owner)
	if err != nil {
		return social.Plot{}, err
	}
	u.logEvent(CategorySettlement, fmt.Sprintf("plot %d in %s developed as %s", p.ID, s.Name, p.Structure))
	return p, nil
}

// ClaimPlot records an owner for an unclaimed plot.
func (u *Universe) ClaimPlot(settlement Ref, plotID int, owner string) (social.Plot, error) {
	s, err := u.settlement(settlement)
	if err != nil {
		return social.Plot{}, err
	}
	p, err := s.ClaimPlot(plotID, owner)
	if err != nil {
		return social.Plot{}, err
	}
	u.logEvent(CategorySettlement, fmt.Sprintf("plot %d in %s claimed by %s", p.ID, s.Name, owner))
	return p, nil
}

// AssignPlotToken links a plot to its ledger token.
func (u *Universe) AssignPlotToken(settlement Ref, plotID int, token uint64) error {
	s, err := u.settlement(settlement)
	if err != nil {
		return err
	}
	return s.AssignPlotToken(plotID, token)
}

// BuildInfrastructure upgrades a facility in a settlement.
func (u *Universe) BuildInfrastructure(settlement Ref, name string) (social.Facility, error) {
	s, err := u.settlement(settlement)
	if err != nil {
		return social.Facility{}, err
	}
	f, err := s.BuildInfrastructure(name)
	if err != nil {
		return social.Facility{}, err
	}
	u.logEvent(CategorySettlement, fmt.Sprintf("%s built %s", s.Name, f.Name))
	return f, nil
}

// ExtractResource removes stock from a body's resource ledger.
func (u *Universe) ExtractResource(body Ref, resource string, amount int64) (int64, error) {
	b, ok := u.Body(body)
	if !ok {
		return 0, simerr.Wrapf(simerr.ErrBodyNotFound, "body %s", body)
	}
	got, err := b.ExtractResource(resource, amount)
	if err != nil {
		return 0, err
	}
	u.logEvent(CategoryResource, fmt.Sprintf("%s %s extracted from %s", humanize.Comma(got), resource, b.Name))
	return got, nil
}

// InteractionResult is the outcome of a player interaction with an actor.
type InteractionResult struct {
	ActorID     agents.ActorID `json:"actor_id"`
	Player      string         `json:"player"`
	Previous    float64        `json:"previous_loyalty"`
	Loyalty     float64        `json:"loyalty"`
	State       agents.State   `json:"state"`
	BecameLoyal bool           `json:"became_loyal"`
	TokenID     *uint64        `json:"token_id,omitempty"`
}

// Interact applies a player interaction to an actor.
func (u *Universe) Interact(actorID agents.ActorID, player, kind string, quality float64) (InteractionResult, error) {
	a, err := u.actor(actorID)
	if err != nil {
		return InteractionResult{}, err
	}
	it, err := agents.ParseInteractionType(kind)
	if err != nil {
		return InteractionResult{}, err
	}

	prev := a.LoyaltyTo(player)
	wasLoyal := a.Loyal
	loyalty, err := a.Interact(player, it, quality)
	if err != nil {
		return InteractionResult{}, err
	}

	res := InteractionResult{
		ActorID:     a.ID,
		Player:      player,
		Previous:    prev,
		Loyalty:     loyalty,
		State:       a.State(),
		BecameLoyal: !wasLoyal && a.Loyal,
		TokenID:     a.TokenID,
	}
	if res.BecameLoyal {
		u.logEvent(CategoryLoyalty, fmt.Sprintf("%s (#%d) joined %s", a.Name, a.ID, player))
	}
	return res, nil
}

// SpawnActor creates a new child actor on a body.
func (u *Universe) SpawnActor(bodyID int) (*agents.Actor, error) {
	b, ok := u.Body(ByID(bodyID))
	if !ok {
		return nil, simerr.Wrapf(simerr.ErrBodyNotFound, "body %d", bodyID)
	}
	a := u.spawner.Spawn(b.ID)
	u.addActor(a)
	u.logEvent(CategoryLifecycle, fmt.Sprintf("%s (#%d) born on %s", a.Name, a.ID, b.Name))
	return a, nil
}

// AssignActorToken links an actor to its ledger token.
func (u *Universe) AssignActorToken(id agents.ActorID, token uint64) error {
	a, err := u.actor(id)
	if err != nil {
		return err
	}
	a.AssignToken(token)
	return nil
}

// CreateFaction founds a faction led by a player.
func (u *Universe) CreateFaction(name, leader string) (*social.Faction, error) {
	f, err := u.Factions.Create(name, leader, u.Cycle)
	if err != nil {
		return nil, err
	}
	u.logEvent(CategoryFaction, fmt.Sprintf("faction %q founded by %s", f.Name, leader))
	return f, nil
}

// JoinFaction enrolls an actor in a faction.
func (u *Universe) JoinFaction(factionID social.FactionID, actorID agents.ActorID) (*social.Faction, error) {
	if _, err := u.actor(actorID); err != nil {
		return nil, err
	}
	return u.Factions.AddMember(factionID, actorID)
}

// AssignFactionToken links a faction to its ledger token.
func (u *Universe) AssignFactionToken(id social.FactionID, token uint64) error {
	return u.Factions.AssignToken(id, token)
}
