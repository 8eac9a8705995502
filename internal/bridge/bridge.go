package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/talgya/sarakt/internal/agents"
	"github.com/talgya/sarakt/internal/engine"
	"github.com/talgya/sarakt/internal/simerr"
	"github.com/talgya/sarakt/internal/social"
)

// Bridge runs the player flows that touch both the universe and the ledger.
// Core state already applied is never rolled back when a ledger call fails.
type Bridge struct {
	Engine *engine.Engine
	Ledger Ledger

	// Settlement plots are claimed in. Defaults to the capital.
	Settlement engine.Ref

	mu     sync.Mutex
	synced map[loyaltyKey]float64 // last loyalty written to the ledger

	log *slog.Logger
}

type loyaltyKey struct {
	actor  agents.ActorID
	player string
}

// New creates a bridge for the capital settlement.
func New(e *engine.Engine, l Ledger) *Bridge {
	return &Bridge{
		Engine:     e,
		Ledger:     l,
		Settlement: engine.ByName(engine.CapitalName),
		synced:     make(map[loyaltyKey]float64),
		log:        slog.With("component", "bridge"),
	}
}

// ClaimResult is returned by ClaimPlot.
type ClaimResult struct {
	Plot    social.Plot `json:"plot"`
	Receipt Receipt     `json:"receipt"`
}

// ClaimPlot mints a plot for a player and records the claim.
func (b *Bridge) ClaimPlot(ctx context.Context, player string, plotID int) (ClaimResult, error) {
	if player == "" {
		return ClaimResult{}, simerr.ErrInvalidPlayer
	}

	var settlementID int
	var zone social.Zone
	err := b.Engine.Exec(func(u *engine.Universe) error {
		s, ok := u.Settlement(b.Settlement)
		if !ok {
			return simerr.Wrapf(simerr.ErrSettlementNotFound, "settlement %s", b.Settlement)
		}
		p, ok := s.Plot(plotID)
		if !ok {
			return simerr.Wrapf(simerr.ErrPlotNotFound, "plot %d", plotID)
		}
		if p.Owner != "" {
			return simerr.Wrapf(simerr.ErrPlotAlreadyClaimed, "plot %d owned by %s", plotID, p.Owner)
		}
		settlementID, zone = s.ID, p.Zone
		return nil
	})
	if err != nil {
		return ClaimResult{}, err
	}

	rcpt, err := b.Ledger.MintPlot(ctx, player, settlementID, plotID, string(zone))
	if err != nil {
		b.log.Error("mint plot failed", "plot", plotID, "player", player, "error", err)
		return ClaimResult{}, fmt.Errorf("mint plot %d: %w", plotID, err)
	}

	var res ClaimResult
	err = b.Engine.Exec(func(u *engine.Universe) error {
		p, err := u.ClaimPlot(engine.ByID(settlementID), plotID, player)
		if err != nil {
			return err
		}
		if err := u.AssignPlotToken(engine.ByID(settlementID), plotID, rcpt.TokenID); err != nil {
			return err
		}
		p.TokenID = &rcpt.TokenID
		res = ClaimResult{Plot: p, Receipt: rcpt}
		return nil
	})
	if err != nil {
		// The plot was claimed by someone else while we waited on the ledger.
		b.log.Warn("plot minted but claim failed", "plot", plotID, "token", rcpt.TokenID, "error", err)
		return ClaimResult{}, err
	}
	b.log.Info("plot claimed", "plot", plotID, "player", player, "token", rcpt.TokenID)
	return res, nil
}

// BuildResult is returned by BuildOnPlot.
type BuildResult struct {
	Plot    social.Plot `json:"plot"`
	Receipt Receipt     `json:"receipt"`
}

// BuildOnPlot develops a player's minted plot and records the structure.
func (b *Bridge) BuildOnPlot(ctx context.Context, player string, plotID int, structure string) (BuildResult, error) {
	st, err := social.ParseStructureType(structure)
	if err != nil {
		return BuildResult{}, err
	}

	var token uint64
	err = b.Engine.Exec(func(u *engine.Universe) error {
		s, ok := u.Settlement(b.Settlement)
		if !ok {
			return simerr.Wrapf(simerr.ErrSettlementNotFound, "settlement %s", b.Settlement)
		}
		p, ok := s.Plot(plotID)
		if !ok {
			return simerr.Wrapf(simerr.ErrPlotNotFound, "plot %d", plotID)
		}
		if p.Owner != player {
			return simerr.Wrapf(simerr.ErrPlotNotOwned, "plot %d", plotID)
		}
		if p.TokenID == nil {
			return simerr.Wrapf(simerr.ErrNotMinted, "plot %d", plotID)
		}
		if p.Developed {
			return simerr.Wrapf(simerr.ErrPlotAlreadyDeveloped, "plot %d", plotID)
		}
		token = *p.TokenID
		return nil
	})
	if err != nil {
		return BuildResult{}, err
	}

	owns, err := b.Ledger.Owns(ctx, player, token)
	if err != nil {
		return BuildResult{}, fmt.Errorf("check ownership of token %d: %w", token, err)
	}
	if !owns {
		return BuildResult{}, simerr.Wrapf(simerr.ErrPlotNotOwned, "ledger disagrees on token %d", token)
	}

	var plot social.Plot
	err = b.Engine.Exec(func(u *engine.Universe) error {
		plot, err = u.DevelopPlot(b.Settlement, plotID, string(st), player)
		return err
	})
	if err != nil {
		return BuildResult{}, err
	}

	rcpt, err := b.Ledger.RecordStructure(ctx, token, string(st))
	if err != nil {
		b.log.Error("record structure failed", "plot", plotID, "token", token, "error", err)
		return BuildResult{Plot: plot}, fmt.Errorf("record structure on token %d: %w", token, err)
	}
	return BuildResult{Plot: plot, Receipt: rcpt}, nil
}

// SpawnResult is returned by SpawnActor.
type SpawnResult struct {
	ActorID agents.ActorID `json:"actor_id"`
	Name    string         `json:"name"`
	BodyID  int            `json:"body_id"`
	Seed    int64          `json:"seed"`
	Receipt Receipt        `json:"receipt"`
}

// SpawnActor creates an actor on a body and mints it to a player.
func (b *Bridge) SpawnActor(ctx context.Context, player string, bodyID int) (SpawnResult, error) {
	if player == "" {
		return SpawnResult{}, simerr.ErrInvalidPlayer
	}

	var res SpawnResult
	err := b.Engine.Exec(func(u *engine.Universe) error {
		a, err := u.SpawnActor(bodyID)
		if err != nil {
			return err
		}
		res = SpawnResult{ActorID: a.ID, Name: a.Name, BodyID: a.BodyID, Seed: a.Seed}
		return nil
	})
	if err != nil {
		return SpawnResult{}, err
	}

	rcpt, err := b.Ledger.MintActor(ctx, player, res.ActorID, bodyID, res.Name)
	if err != nil {
		b.log.Error("mint actor failed", "actor", res.ActorID, "error", err)
		return res, fmt.Errorf("mint actor %d: %w", res.ActorID, err)
	}

	err = b.Engine.Exec(func(u *engine.Universe) error {
		return u.AssignActorToken(res.ActorID, rcpt.TokenID)
	})
	res.Receipt = rcpt
	return res, err
}

// InteractResult is returned by Interact.
type InteractResult struct {
	engine.InteractionResult
	Receipt *Receipt `json:"receipt,omitempty"`
}

// Interact applies a player interaction and syncs loyalty for minted actors.
func (b *Bridge) Interact(ctx context.Context, actorID agents.ActorID, player, kind string, quality float64) (InteractResult, error) {
	var res engine.InteractionResult
	err := b.Engine.Exec(func(u *engine.Universe) error {
		var err error
		res, err = u.Interact(actorID, player, kind, quality)
		return err
	})
	if err != nil {
		return InteractResult{}, err
	}
	out := InteractResult{InteractionResult: res}
	if res.BecameLoyal {
		b.log.Info("actor joined player", "actor", actorID, "player", player)
	}
	if res.TokenID == nil {
		return out, nil
	}

	rcpt, err := b.SyncLoyalty(ctx, actorID, *res.TokenID, player, res.Previous, res.Loyalty)
	if err != nil {
		return out, err
	}
	out.Receipt = rcpt
	return out, nil
}

// SyncLoyalty writes an actor's loyalty to the ledger if it moved since the
// last sync. previous is used when nothing was synced yet.
func (b *Bridge) SyncLoyalty(ctx context.Context, actorID agents.ActorID, token uint64, player string, previous, current float64) (*Receipt, error) {
	key := loyaltyKey{actorID, player}
	b.mu.Lock()
	if last, ok := b.synced[key]; ok {
		previous = last
	}
	b.mu.Unlock()

	if previous == current {
		return nil, nil
	}
	rcpt, err := b.Ledger.SyncLoyalty(ctx, token, player, previous, current)
	if err != nil {
		b.log.Error("loyalty sync failed", "actor", actorID, "player", player, "error", err)
		return nil, fmt.Errorf("sync loyalty of actor %d: %w", actorID, err)
	}

	b.mu.Lock()
	b.synced[key] = current
	b.mu.Unlock()
	return &rcpt, nil
}

// ExtractResult is returned by ExtractResources.
type ExtractResult struct {
	Extracted int64   `json:"extracted"`
	Receipt   Receipt `json:"receipt"`
}

// ExtractResources removes stock from a body and records the extraction.
func (b *Bridge) ExtractResources(ctx context.Context, extractor string, bodyID int, resource string, amount int64) (ExtractResult, error) {
	if extractor == "" {
		return ExtractResult{}, simerr.ErrInvalidPlayer
	}
	var got int64
	err := b.Engine.Exec(func(u *engine.Universe) error {
		var err error
		got, err = u.ExtractResource(engine.ByID(bodyID), resource, amount)
		return err
	})
	if err != nil {
		return ExtractResult{}, err
	}

	rcpt, err := b.Ledger.RecordExtraction(ctx, extractor, bodyID, resource, got)
	if err != nil {
		b.log.Error("record extraction failed", "body", bodyID, "resource", resource, "error", err)
		return ExtractResult{Extracted: got}, fmt.Errorf("record extraction: %w", err)
	}
	return ExtractResult{Extracted: got, Receipt: rcpt}, nil
}

// FactionResult is returned by CreateFaction.
type FactionResult struct {
	Faction social.Faction `json:"faction"`
	Receipt Receipt        `json:"receipt"`
}

// CreateFaction founds a faction and mints it to its leader.
func (b *Bridge) CreateFaction(ctx context.Context, leader, name string) (FactionResult, error) {
	var f social.Faction
	err := b.Engine.Exec(func(u *engine.Universe) error {
		created, err := u.CreateFaction(name, leader)
		if err != nil {
			return err
		}
		f = *created
		return nil
	})
	if err != nil {
		return FactionResult{}, err
	}

	rcpt, err := b.Ledger.MintFaction(ctx, leader, f.Name)
	if err != nil {
		b.log.Error("mint faction failed", "faction", f.ID, "error", err)
		return FactionResult{Faction: f}, fmt.Errorf("mint faction %d: %w", f.ID, err)
	}
	err = b.Engine.Exec(func(u *engine.Universe) error {
		return u.AssignFactionToken(f.ID, rcpt.TokenID)
	})
	f.TokenID = &rcpt.TokenID
	return FactionResult{Faction: f, Receipt: rcpt}, err
}
