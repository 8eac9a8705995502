// Package world provides celestial bodies: physical properties, biomes,
// resource stockpiles, regions and hazard zones, all generated from a seed.
package world

import (
	"sort"

	"github.com/talgya/sarakt/internal/simerr"
)

// BodyID is a unique identifier for a celestial body.
type BodyID = int

// Class tags what kind of body this is.
type Class string

const (
	ClassHabitablePrimary Class = "habitable_primary"
	ClassHabitableBiotech Class = "habitable_biotech"
	ClassMining           Class = "mining_standard"
	ClassUnexplored       Class = "unexplored"
)

// ParseClass validates a class name.
func ParseClass(s string) (Class, bool) {
	switch c := Class(s); c {
	case ClassHabitablePrimary, ClassHabitableBiotech, ClassMining, ClassUnexplored:
		return c, true
	}
	return "", false
}

// Properties are the physical characteristics of a body.
type Properties struct {
	RadiusKm       int     `json:"radius_km"`
	Gravity        float64 `json:"gravity"` // Earth = 1.0
	Atmosphere     string  `json:"atmosphere"`
	TemperatureC   int     `json:"temperature_c"`
	DayLengthHours int     `json:"day_length_hours"`
	YearLengthDays int     `json:"year_length_days"`
	Moons          int     `json:"moons"`
	WaterCoverage  float64 `json:"water_coverage"` // 0.0–1.0
	AxialTiltDeg   int     `json:"axial_tilt_deg"`
}

// Biome is a climate zone covering part of a body.
type Biome struct {
	ID             int     `json:"id"`
	Type           string  `json:"type"`
	Coverage       float64 `json:"coverage"`
	AvgTemperature int     `json:"avg_temperature"`
	Rainfall       int     `json:"rainfall"`
	Elevation      int     `json:"elevation"`
	DangerLevel    int     `json:"danger_level"` // 1–10
}

// PointOfInterest is a notable site inside a region.
type PointOfInterest struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Discovered  bool   `json:"discovered"`
	DangerLevel int    `json:"danger_level"`
}

// Region is a named area of a body tied to one of its biomes.
type Region struct {
	ID               int               `json:"id"`
	Name             string            `json:"name"`
	BiomeID          int               `json:"biome_id"`
	BiomeType        string            `json:"biome_type"`
	Lat              float64           `json:"lat"`
	Lon              float64           `json:"lon"`
	Size             int               `json:"size"`
	Population       int               `json:"population"`
	Development      float64           `json:"development"` // 0.0–1.0
	Relief           float64           `json:"relief"`      // 0.0–1.0 terrain roughness from the noise field
	PointsOfInterest []PointOfInterest `json:"points_of_interest"`
}

// Hazard is a dangerous zone on a body.
type Hazard struct {
	ID       int    `json:"id"`
	Type     string `json:"type"`
	Severity int    `json:"severity"` // 1–10
	Radius   int    `json:"radius"`
	Active   bool   `json:"active"`
}

// ResourceStock is one line of a body's resource ledger.
type ResourceStock struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

// Body is a generated celestial object. All content is produced once at
// construction; afterwards only extraction mutates it.
type Body struct {
	ID        BodyID `json:"id"`
	Name      string `json:"name"`
	Seed      int64  `json:"seed"`
	Class     Class  `json:"class"`
	Habitable bool   `json:"habitable"`

	Properties Properties `json:"properties"`
	Biomes     []Biome    `json:"biomes"`

	// Resources is ordered by first insertion; stock only ever decreases.
	Resources []ResourceStock `json:"resources"`

	Regions []Region `json:"regions"`
	Hazards []Hazard `json:"hazards"`
}

func (b *Body) resourceIndex(name string) int {
	for i, r := range b.Resources {
		if r.Name == name {
			return i
		}
	}
	return -1
}

// Stock returns the current stockpile of a resource.
func (b *Body) Stock(name string) (int64, bool) {
	i := b.resourceIndex(name)
	if i < 0 {
		return 0, false
	}
	return b.Resources[i].Amount, true
}

// ExtractResource removes amount from the named stockpile and returns it.
func (b *Body) ExtractResource(name string, amount int64) (int64, error) {
	i := b.resourceIndex(name)
	if i < 0 {
		return 0, simerr.Wrapf(simerr.ErrUnknownResource, "%q not available on %s", name, b.Name)
	}
	if amount <= 0 {
		return 0, simerr.Wrapf(simerr.ErrInvalidAmount, "%d", amount)
	}
	if available := b.Resources[i].Amount; amount > available {
		return 0, simerr.Wrapf(simerr.ErrInsufficientStock, "%s: requested %d, available %d", name, amount, available)
	}
	b.Resources[i].Amount -= amount
	return amount, nil
}

// ResourceSummary returns resources with positive stock by descending
// quantity; ties keep insertion order.
func (b *Body) ResourceSummary() []ResourceStock {
	out := make([]ResourceStock, 0, len(b.Resources))
	for _, r := range b.Resources {
		if r.Amount > 0 {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount > out[j].Amount
	})
	return out
}

// ActiveHazards returns the hazard zones currently active.
func (b *Body) ActiveHazards() []Hazard {
	var out []Hazard
	for _, h := range b.Hazards {
		if h.Active {
			out = append(out, h)
		}
	}
	return out
}
