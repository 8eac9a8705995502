package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/talgya/sarakt/internal/bridge"
	"github.com/talgya/sarakt/internal/engine"
	"github.com/talgya/sarakt/internal/social"
)

// ClaimPlot claims a capital plot for a player and mints it.
func (c *Client) ClaimPlot(ctx context.Context, player string, plotID int) (bridge.ClaimResult, error) {
	var res bridge.ClaimResult
	err := c.post(ctx, fmt.Sprintf("/api/v1/plots/%d/claim", plotID),
		map[string]any{"player": player}, &res)
	return res, err
}

// BuildOnPlot builds a structure on a player's minted plot.
func (c *Client) BuildOnPlot(ctx context.Context, player string, plotID int, structure string) (bridge.BuildResult, error) {
	var res bridge.BuildResult
	err := c.post(ctx, fmt.Sprintf("/api/v1/plots/%d/build", plotID),
		map[string]any{"player": player, "structure": structure}, &res)
	return res, err
}

// DevelopPlot develops a plot directly, bypassing the ledger.
func (c *Client) DevelopPlot(ctx context.Context, settlement string, plotID int, structure, owner string) (social.Plot, error) {
	var p social.Plot
	err := c.post(ctx, fmt.Sprintf("/api/v1/settlements/%s/plots/%d/develop", url.PathEscape(settlement), plotID),
		map[string]any{"structure": structure, "owner": owner}, &p)
	return p, err
}

// BuildInfrastructure builds or upgrades a facility in a settlement.
func (c *Client) BuildInfrastructure(ctx context.Context, settlement, facility string) (social.Facility, error) {
	var f social.Facility
	err := c.post(ctx, "/api/v1/settlements/"+url.PathEscape(settlement)+"/infrastructure",
		map[string]any{"facility": facility}, &f)
	return f, err
}

// Extract removes resource stock from a body on behalf of a player.
func (c *Client) Extract(ctx context.Context, extractor string, bodyID int, resource string, amount int64) (bridge.ExtractResult, error) {
	var res bridge.ExtractResult
	err := c.post(ctx, fmt.Sprintf("/api/v1/bodies/%d/extract", bodyID),
		map[string]any{"extractor": extractor, "resource": resource, "amount": amount}, &res)
	return res, err
}

// Spawn creates an actor on a body and mints it to a player.
func (c *Client) Spawn(ctx context.Context, player string, bodyID int) (bridge.SpawnResult, error) {
	var res bridge.SpawnResult
	err := c.post(ctx, "/api/v1/actors", map[string]any{"player": player, "body_id": bodyID}, &res)
	return res, err
}

// Interact applies a player interaction to an actor.
func (c *Client) Interact(ctx context.Context, actorID int, player, kind string, quality float64) (bridge.InteractResult, error) {
	var res bridge.InteractResult
	err := c.post(ctx, fmt.Sprintf("/api/v1/actors/%d/interact", actorID),
		map[string]any{"player": player, "type": kind, "quality": quality}, &res)
	return res, err
}

// CreateFaction founds a faction led by a player.
func (c *Client) CreateFaction(ctx context.Context, leader, name string) (bridge.FactionResult, error) {
	var res bridge.FactionResult
	err := c.post(ctx, "/api/v1/factions", map[string]any{"leader": leader, "name": name}, &res)
	return res, err
}

// JoinFaction enrolls an actor in a faction.
func (c *Client) JoinFaction(ctx context.Context, factionID, actorID int) (social.Faction, error) {
	var f social.Faction
	err := c.post(ctx, fmt.Sprintf("/api/v1/factions/%d/members", factionID),
		map[string]any{"actor_id": actorID}, &f)
	return f, err
}

// AdvanceCycles steps the universe n cycles immediately.
func (c *Client) AdvanceCycles(ctx context.Context, n int) ([]engine.CycleReport, error) {
	var res struct {
		Reports []engine.CycleReport `json:"reports"`
	}
	err := c.post(ctx, "/api/v1/cycles", map[string]any{"count": n}, &res)
	return res.Reports, err
}

// SetPaused stops or resumes the daemon's automatic cycles.
func (c *Client) SetPaused(ctx context.Context, paused bool) error {
	return c.post(ctx, "/api/v1/pause", map[string]any{"paused": paused}, nil)
}

// Save writes the world state to the daemon's database.
func (c *Client) Save(ctx context.Context) error {
	return c.post(ctx, "/api/v1/save", nil, nil)
}

// Snapshot writes a compressed snapshot and returns its path on the daemon.
func (c *Client) Snapshot(ctx context.Context) (string, error) {
	var res struct {
		Path string `json:"path"`
	}
	err := c.post(ctx, "/api/v1/snapshot", nil, &res)
	return res.Path, err
}
