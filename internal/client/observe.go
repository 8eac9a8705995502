package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/talgya/sarakt/internal/agents"
	"github.com/talgya/sarakt/internal/engine"
	"github.com/talgya/sarakt/internal/social"
	"github.com/talgya/sarakt/internal/world"
)

// Status mirrors GET /api/v1/status.
type Status struct {
	Name            string `json:"name"`
	Cycle           uint64 `json:"cycle"`
	Bodies          int    `json:"total_bodies"`
	HabitableBodies int    `json:"habitable_bodies"`
	Settlements     int    `json:"total_settlements"`
	Actors          int    `json:"total_actors"`
	MatureActors    int    `json:"mature_actors"`
	LoyalActors     int    `json:"loyal_actors"`
	Factions        int    `json:"factions"`
	Seed            int64  `json:"seed"`
	Paused          bool   `json:"paused"`
}

// BodySummary mirrors items from GET /api/v1/bodies.
type BodySummary struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	Class     world.Class `json:"class"`
	Habitable bool        `json:"habitable"`
	Seed      int64       `json:"seed"`
	Hazards   int         `json:"active_hazards"`
}

// SettlementSummary mirrors items from GET /api/v1/settlements.
type SettlementSummary struct {
	ID         int            `json:"id"`
	Name       string         `json:"name"`
	BodyID     int            `json:"body_id"`
	TotalPlots int            `json:"total_plots"`
	Economy    social.Economy `json:"economy"`
}

// Page is one page of a listing.
type Page[T any] struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Items  []T `json:"items"`
}

// ActorSummary mirrors items from GET /api/v1/actors.
type ActorSummary struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	BodyID       int          `json:"body_id"`
	Age          int          `json:"age"`
	State        agents.State `json:"state"`
	JoinedPlayer string       `json:"joined_player,omitempty"`
	TokenID      *uint64      `json:"token_id,omitempty"`
}

// ActorDetail mirrors GET /api/v1/actors/{id}.
type ActorDetail struct {
	ActorSummary
	Seed        int64                `json:"seed"`
	Heritage    string               `json:"heritage"`
	Generation  int                  `json:"generation"`
	Attributes  agents.Attributes    `json:"attributes"`
	Personality map[string]float64   `json:"personality"`
	TopSkills   []agents.SkillLevel  `json:"top_skills"`
	Loyalty     []Loyalty            `json:"loyalty"`
	Recent      []agents.Interaction `json:"recent_interactions"`
}

// Loyalty is one player's standing with an actor.
type Loyalty struct {
	Player  string  `json:"player"`
	Loyalty float64 `json:"loyalty"`
}

// ListOptions pages and filters a listing. Zero values are omitted.
type ListOptions struct {
	Offset int
	Limit  int

	// Actors.
	State  string
	BodyID int

	// Plots.
	Owner     string
	Developed *bool
}

func (o ListOptions) query() string {
	q := url.Values{}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.State != "" {
		q.Set("state", o.State)
	}
	if o.BodyID > 0 {
		q.Set("body", strconv.Itoa(o.BodyID))
	}
	if o.Owner != "" {
		q.Set("owner", o.Owner)
	}
	if o.Developed != nil {
		q.Set("developed", strconv.FormatBool(*o.Developed))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// Status fetches the universe summary.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var st Status
	err := c.get(ctx, "/api/v1/status", &st)
	return st, err
}

// Bodies lists every body.
func (c *Client) Bodies(ctx context.Context) ([]BodySummary, error) {
	var out []BodySummary
	err := c.get(ctx, "/api/v1/bodies", &out)
	return out, err
}

// Body fetches a body by id or name.
func (c *Client) Body(ctx context.Context, ref string) (*world.Body, error) {
	var b world.Body
	if err := c.get(ctx, "/api/v1/bodies/"+url.PathEscape(ref), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Resources returns a body's positive stocks, largest first.
func (c *Client) Resources(ctx context.Context, ref string) ([]world.ResourceStock, error) {
	var out []world.ResourceStock
	err := c.get(ctx, "/api/v1/bodies/"+url.PathEscape(ref)+"/resources", &out)
	return out, err
}

// Settlements lists every settlement.
func (c *Client) Settlements(ctx context.Context) ([]SettlementSummary, error) {
	var out []SettlementSummary
	err := c.get(ctx, "/api/v1/settlements", &out)
	return out, err
}

// SettlementStats fetches the report for a settlement by id or name.
func (c *Client) SettlementStats(ctx context.Context, ref string) (social.CityStats, error) {
	var st social.CityStats
	err := c.get(ctx, "/api/v1/settlements/"+url.PathEscape(ref)+"/stats", &st)
	return st, err
}

// Plots lists a settlement's plots.
func (c *Client) Plots(ctx context.Context, ref string, opts ListOptions) (Page[social.Plot], error) {
	var p Page[social.Plot]
	err := c.get(ctx, "/api/v1/settlements/"+url.PathEscape(ref)+"/plots"+opts.query(), &p)
	return p, err
}

// Actors lists actors.
func (c *Client) Actors(ctx context.Context, opts ListOptions) (Page[ActorSummary], error) {
	var p Page[ActorSummary]
	err := c.get(ctx, "/api/v1/actors"+opts.query(), &p)
	return p, err
}

// Actor fetches one actor.
func (c *Client) Actor(ctx context.Context, id int) (ActorDetail, error) {
	var a ActorDetail
	err := c.get(ctx, fmt.Sprintf("/api/v1/actors/%d", id), &a)
	return a, err
}

// Factions lists every faction.
func (c *Client) Factions(ctx context.Context) ([]social.Faction, error) {
	var out []social.Faction
	err := c.get(ctx, "/api/v1/factions", &out)
	return out, err
}

// Events returns up to limit events after since, oldest first.
func (c *Client) Events(ctx context.Context, since uint64, limit int) ([]engine.Event, error) {
	q := url.Values{}
	if since > 0 {
		q.Set("since", strconv.FormatUint(since, 10))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/v1/events"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []engine.Event
	err := c.get(ctx, path, &out)
	return out, err
}
