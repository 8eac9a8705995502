package social

import (
	"fmt"

	"github.com/talgya/sarakt/internal/simerr"
)

// Facility is one piece of settlement infrastructure. Graded facilities
// (roads, utilities) level up and gain coverage; the rest simply exist.
type Facility struct {
	Name     string  `json:"name"`
	Graded   bool    `json:"graded"`
	Level    int     `json:"level,omitempty"`
	Coverage float64 `json:"coverage,omitempty"` // 0.0–1.0
	Exists   bool    `json:"exists,omitempty"`
	Capacity int     `json:"capacity,omitempty"`
	Cost     int64   `json:"cost"`
}

const (
	coverageStep     = 0.2
	facilityCapacity = 1000
)

// facilityCatalog fixes the recognized facilities and their report order.
var facilityCatalog = []Facility{
	{Name: "sewage_system", Graded: true, Cost: 50000},
	{Name: "water_system", Graded: true, Cost: 75000},
	{Name: "harbor", Cost: 200000},
	{Name: "elevator", Cost: 150000},
	{Name: "roads", Graded: true, Cost: 30000},
	{Name: "power_grid", Graded: true, Cost: 100000},
	{Name: "school", Cost: 80000},
	{Name: "university", Cost: 300000},
	{Name: "hospital", Cost: 250000},
}

// FacilityNames returns the recognized facility names in catalog order.
func FacilityNames() []string {
	names := make([]string, len(facilityCatalog))
	for i, f := range facilityCatalog {
		names[i] = f.Name
	}
	return names
}

// Infrastructure is a settlement's facilities in catalog order.
type Infrastructure []Facility

// NewInfrastructure returns every facility at level zero / not built.
func NewInfrastructure() Infrastructure {
	infra := make(Infrastructure, len(facilityCatalog))
	copy(infra, facilityCatalog)
	return infra
}

// Facility returns the named facility.
func (in Infrastructure) Facility(name string) (Facility, bool) {
	for _, f := range in {
		if f.Name == name {
			return f, true
		}
	}
	return Facility{}, false
}

func (in Infrastructure) build(name string) (Facility, error) {
	for i := range in {
		f := &in[i]
		if f.Name != name {
			continue
		}
		if f.Graded {
			f.Level++
			f.Coverage = min(1.0, f.Coverage+coverageStep)
		} else {
			f.Exists = true
			f.Capacity = facilityCapacity
		}
		return *f, nil
	}
	return Facility{}, simerr.Wrapf(simerr.ErrUnknownFacility, "%q", name)
}

// FacilitySummary is a display row for one facility.
type FacilitySummary struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Coverage string `json:"coverage"`
}

// Summary reports every facility in catalog order.
func (in Infrastructure) Summary() []FacilitySummary {
	out := make([]FacilitySummary, 0, len(in))
	for _, f := range in {
		row := FacilitySummary{Name: f.Name, Coverage: "N/A"}
		switch {
		case f.Graded:
			row.Status = fmt.Sprintf("level %d", f.Level)
			row.Coverage = fmt.Sprintf("%d%%", int(f.Coverage*100+0.5))
		case f.Exists:
			row.Status = "built"
		default:
			row.Status = "level 0"
		}
		out = append(out, row)
	}
	return out
}
