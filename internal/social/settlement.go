// Package social provides settlements (land plots, zoning, infrastructure,
// economic aggregates) and the faction registry.
package social

import (
	"github.com/talgya/sarakt/internal/simerr"
)

// SettlementID is a unique identifier for a settlement.
type SettlementID = int

// Zone is the land-use class of a plot. Fixed at settlement creation.
type Zone string

const (
	ZoneResidential Zone = "residential"
	ZoneCommercial  Zone = "commercial"
	ZoneIndustrial  Zone = "industrial"
)

// StructureType is what stands on a plot.
type StructureType string

const (
	StructureEmpty          StructureType = "empty"
	StructureHut            StructureType = "hut"
	StructureWoodenHouse    StructureType = "wooden_house"
	StructureStoneHouse     StructureType = "stone_house"
	StructureWorkshop       StructureType = "workshop"
	StructureCommercial     StructureType = "commercial"
	StructureInfrastructure StructureType = "infrastructure"
)

// netValues is the fixed net-value score per structure type.
var netValues = map[StructureType]int{
	StructureEmpty:          0,
	StructureHut:            15,
	StructureWoodenHouse:    35,
	StructureStoneHouse:     60,
	StructureWorkshop:       40,
	StructureCommercial:     50,
	StructureInfrastructure: 30,
}

// ParseStructureType validates a structure name.
func ParseStructureType(s string) (StructureType, error) {
	st := StructureType(s)
	if _, ok := netValues[st]; !ok {
		return "", simerr.Wrapf(simerr.ErrUnknownStructureType, "%q", s)
	}
	return st, nil
}

// NetValue returns the fixed net-value score for a structure type.
func (st StructureType) NetValue() int { return netValues[st] }

// IsHousing reports whether the structure houses residents.
func (st StructureType) IsHousing() bool {
	return st == StructureHut || st == StructureWoodenHouse || st == StructureStoneHouse
}

// IsWorkplace reports whether the structure provides jobs.
func (st StructureType) IsWorkplace() bool {
	return st == StructureWorkshop || st == StructureCommercial
}

// Plot is a parcel of land inside a settlement.
type Plot struct {
	ID        int           `json:"id"`
	Zone      Zone          `json:"zone"`
	Owner     string        `json:"owner,omitempty"`
	Structure StructureType `json:"structure"`
	NetValue  int           `json:"net_value"`
	Developed bool          `json:"developed"`
	TokenID   *uint64       `json:"token_id,omitempty"`
}

// Economy holds the derived aggregates. Never authoritative: always
// recomputed from plots and infrastructure.
type Economy struct {
	Population   int     `json:"population"`
	GDP          int64   `json:"gdp"`
	Employment   float64 `json:"employment"`
	Unemployment float64 `json:"unemployment"`
}

const (
	residentsPerHome = 4
	workforceShare   = 0.6
	jobsPerWorkplace = 10
	gdpPerNetValue   = 1000
)

// Settlement is a city of fixed land plots on a body.
type Settlement struct {
	ID         SettlementID `json:"id"`
	Name       string       `json:"name"`
	BodyID     int          `json:"body_id"`
	TotalPlots int          `json:"total_plots"`

	Plots          []Plot         `json:"plots"`
	Infrastructure Infrastructure `json:"infrastructure"`

	Economy Economy `json:"economy"`
}

// NewSettlement creates a settlement with all plots empty and zoned
// 50% residential, 30% commercial, remainder industrial by index.
func NewSettlement(id SettlementID, name string, bodyID int, totalPlots int) *Settlement {
	if totalPlots < 0 {
		totalPlots = 0
	}
	s := &Settlement{
		ID:             id,
		Name:           name,
		BodyID:         bodyID,
		TotalPlots:     totalPlots,
		Plots:          make([]Plot, 0, totalPlots),
		Infrastructure: NewInfrastructure(),
	}

	residential := int(float64(totalPlots) * 0.5)
	commercial := int(float64(totalPlots) * 0.3)
	for i := 1; i <= totalPlots; i++ {
		zone := ZoneIndustrial
		switch {
		case i <= residential:
			zone = ZoneResidential
		case i <= residential+commercial:
			zone = ZoneCommercial
		}
		s.Plots = append(s.Plots, Plot{ID: i, Zone: zone, Structure: StructureEmpty})
	}

	s.Recompute()
	return s
}

// Plot returns the plot with the given id.
func (s *Settlement) Plot(id int) (*Plot, bool) {
	// Plots are created 1..N in order, so the id doubles as an index.
	if id >= 1 && id <= len(s.Plots) && s.Plots[id-1].ID == id {
		return &s.Plots[id-1], true
	}
	for i := range s.Plots {
		if s.Plots[i].ID == id {
			return &s.Plots[i], true
		}
	}
	return nil, false
}

// DevelopPlot builds a structure on an undeveloped plot. A plot is developed
// exactly once.
func (s *Settlement) DevelopPlot(plotID int, structure StructureType, owner string) (Plot, error) {
	p, ok := s.Plot(plotID)
	if !ok {
		return Plot{}, simerr.Wrapf(simerr.ErrPlotNotFound, "plot %d in %s", plotID, s.Name)
	}
	if p.Developed {
		return Plot{}, simerr.Wrapf(simerr.ErrPlotAlreadyDeveloped, "plot %d", plotID)
	}
	if _, known := netValues[structure]; !known {
		return Plot{}, simerr.Wrapf(simerr.ErrUnknownStructureType, "%q", structure)
	}

	p.Structure = structure
	p.Owner = owner
	p.Developed = true
	p.NetValue = structure.NetValue()

	s.Recompute()
	return *p, nil
}

// ClaimPlot records an owner on an unclaimed plot without developing it.
func (s *Settlement) ClaimPlot(plotID int, owner string) (Plot, error) {
	p, ok := s.Plot(plotID)
	if !ok {
		return Plot{}, simerr.Wrapf(simerr.ErrPlotNotFound, "plot %d in %s", plotID, s.Name)
	}
	if owner == "" {
		return Plot{}, simerr.ErrInvalidPlayer
	}
	if p.Owner != "" {
		return Plot{}, simerr.Wrapf(simerr.ErrPlotAlreadyClaimed, "plot %d owned by %s", plotID, p.Owner)
	}
	p.Owner = owner
	return *p, nil
}

// AssignPlotToken links a plot to an external asset token.
func (s *Settlement) AssignPlotToken(plotID int, token uint64) error {
	p, ok := s.Plot(plotID)
	if !ok {
		return simerr.Wrapf(simerr.ErrPlotNotFound, "plot %d in %s", plotID, s.Name)
	}
	p.TokenID = &token
	return nil
}

// BuildInfrastructure upgrades or constructs a facility and recomputes.
func (s *Settlement) BuildInfrastructure(name string) (Facility, error) {
	f, err := s.Infrastructure.build(name)
	if err != nil {
		return Facility{}, err
	}
	s.Recompute()
	return f, nil
}

// Recompute derives the economic aggregates from plot state. It is a pure
// function of the plots and runs after every mutation.
func (s *Settlement) Recompute() {
	housing, workplaces := 0, 0
	var gdp int64
	for _, p := range s.Plots {
		if p.Structure.IsHousing() {
			housing++
		}
		if p.Structure.IsWorkplace() {
			workplaces++
		}
		if p.Developed {
			gdp += int64(p.NetValue) * gdpPerNetValue
		}
	}

	pop := housing * residentsPerHome
	workforce := float64(pop) * workforceShare
	employment := min(workforce, float64(workplaces*jobsPerWorkplace))

	s.Economy = Economy{
		Population:   pop,
		GDP:          gdp,
		Employment:   employment,
		Unemployment: max(0, workforce-employment),
	}
}

// DevelopedCount returns how many plots have been developed.
func (s *Settlement) DevelopedCount() int {
	n := 0
	for _, p := range s.Plots {
		if p.Developed {
			n++
		}
	}
	return n
}

// CityStats is the read-only report for a settlement.
type CityStats struct {
	Name               string            `json:"name"`
	TotalPlots         int               `json:"total_plots"`
	DevelopedPlots     int               `json:"developed_plots"`
	DevelopmentPercent float64           `json:"development_percent"`
	Population         int               `json:"population"`
	GDP                int64             `json:"gdp"`
	Employment         float64           `json:"employment"`
	Unemployment       float64           `json:"unemployment"`
	Infrastructure     []FacilitySummary `json:"infrastructure"`
}

// Stats returns the settlement report.
func (s *Settlement) Stats() CityStats {
	developed := s.DevelopedCount()
	pct := 0.0
	if s.TotalPlots > 0 {
		pct = float64(developed) / float64(s.TotalPlots) * 100
	}
	return CityStats{
		Name:               s.Name,
		TotalPlots:         s.TotalPlots,
		DevelopedPlots:     developed,
		DevelopmentPercent: pct,
		Population:         s.Economy.Population,
		GDP:                s.Economy.GDP,
		Employment:         s.Economy.Employment,
		Unemployment:       s.Economy.Unemployment,
		Infrastructure:     s.Infrastructure.Summary(),
	}
}
