package world

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/talgya/sarakt/internal/simerr"
)

func TestNewBody_Deterministic(t *testing.T) {
	for _, seed := range []int64{1, 12345, 67890, 100007} {
		a := NewBody(1, "Sarakt", seed, ClassHabitablePrimary, true)
		b := NewBody(1, "Sarakt", seed, ClassHabitablePrimary, true)

		ja, err := json.Marshal(a)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		jb, _ := json.Marshal(b)
		if string(ja) != string(jb) {
			t.Fatalf("seed %d: generated content differs", seed)
		}
	}
}

func TestNewBody_DifferentSeedsDiffer(t *testing.T) {
	a := NewBody(3, "Mining Planet 1", 100001, ClassMining, false)
	b := NewBody(3, "Mining Planet 1", 100002, ClassMining, false)
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if string(ja) == string(jb) {
		t.Fatal("different seeds produced identical bodies")
	}
}

func TestNewBody_GeneratedRanges(t *testing.T) {
	for seed := int64(0); seed < 40; seed++ {
		habitable := seed%2 == 0
		class := ClassMining
		if habitable {
			class = ClassHabitablePrimary
		}
		b := NewBody(int(seed), "Body", seed, class, habitable)

		p := b.Properties
		if p.RadiusKm < 3000 || p.RadiusKm > 12000 {
			t.Fatalf("radius %d out of range", p.RadiusKm)
		}
		if p.Moons < 0 || p.Moons > 3 {
			t.Fatalf("moons %d out of range", p.Moons)
		}
		if habitable && (p.WaterCoverage < 0.2 || p.WaterCoverage >= 0.7) {
			t.Fatalf("habitable water coverage %v out of range", p.WaterCoverage)
		}
		if !habitable && p.WaterCoverage >= 0.1 {
			t.Fatalf("barren water coverage %v out of range", p.WaterCoverage)
		}
		if n := len(b.Biomes); n < 3 || n > 8 {
			t.Fatalf("biome count %d", n)
		}
		if n := len(b.Regions); n < 5 || n > 14 {
			t.Fatalf("region count %d", n)
		}
		if n := len(b.Hazards); n < 2 || n > 7 {
			t.Fatalf("hazard count %d", n)
		}
		for _, r := range b.Regions {
			if r.BiomeID < 0 || r.BiomeID >= len(b.Biomes) || b.Biomes[r.BiomeID].Type != r.BiomeType {
				t.Fatalf("region %d references unknown biome %d", r.ID, r.BiomeID)
			}
			if !habitable && (r.Population != 0 || r.Development != 0) {
				t.Fatalf("barren region %d has population", r.ID)
			}
			if n := len(r.PointsOfInterest); n < 1 || n > 5 {
				t.Fatalf("poi count %d", n)
			}
		}
		for _, name := range commonResources {
			if _, ok := b.Stock(name); !ok {
				t.Fatalf("seed %d missing common resource %s", seed, name)
			}
		}
		if !habitable {
			for _, name := range uncommonResources {
				amt, ok := b.Stock(name)
				if !ok || amt < 50000 {
					t.Fatalf("mining body missing deep %s (%d)", name, amt)
				}
			}
		}
	}
}

func TestNewBody_BiotechExtras(t *testing.T) {
	b := NewBody(2, "Zythera", 67890, ClassHabitableBiotech, true)
	for _, name := range []string{"nanofiber_web", "biotech_samples", "chaos_crystals"} {
		if _, ok := b.Stock(name); !ok {
			t.Fatalf("biotech body missing %s", name)
		}
	}
	if b.Properties.Atmosphere != "toxic_breathable" {
		t.Fatalf("atmosphere = %q", b.Properties.Atmosphere)
	}
}

func TestExtractResource(t *testing.T) {
	b := NewBody(1, "Sarakt", 12345, ClassHabitablePrimary, true)
	before, _ := b.Stock("iron")

	got, err := b.ExtractResource("iron", 1000)
	if err != nil {
		t.Fatalf("ExtractResource: %v", err)
	}
	if got != 1000 {
		t.Fatalf("extracted %d, want 1000", got)
	}
	after, _ := b.Stock("iron")
	if after != before-1000 {
		t.Fatalf("stock after = %d, want %d", after, before-1000)
	}

	// Drain, then one more call fails.
	if _, err := b.ExtractResource("iron", after); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if _, err := b.ExtractResource("iron", 1); !errors.Is(err, simerr.ErrInsufficientStock) {
		t.Fatalf("extract from empty: err = %v", err)
	}
	if left, _ := b.Stock("iron"); left != 0 {
		t.Fatalf("stock went to %d", left)
	}
}

func TestExtractResource_Rejections(t *testing.T) {
	b := NewBody(1, "Sarakt", 12345, ClassHabitablePrimary, true)
	stone, _ := b.Stock("stone")

	tests := []struct {
		name     string
		resource string
		amount   int64
		want     error
	}{
		{"unknown", "unobtainium", 1, simerr.ErrUnknownResource},
		{"too much", "stone", stone + 1, simerr.ErrInsufficientStock},
		{"zero", "stone", 0, simerr.ErrInvalidAmount},
		{"negative", "stone", -5, simerr.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := b.ExtractResource(tt.resource, tt.amount); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if now, _ := b.Stock("stone"); now != stone {
				t.Fatalf("stone mutated on failure: %d -> %d", stone, now)
			}
		})
	}
}

func TestResourceSummary_OrderAndTies(t *testing.T) {
	b := &Body{Resources: []ResourceStock{
		{Name: "iron", Amount: 10},
		{Name: "copper", Amount: 50},
		{Name: "stone", Amount: 10},
		{Name: "wood", Amount: 0},
		{Name: "water", Amount: 50},
	}}

	got := b.ResourceSummary()
	want := []string{"copper", "water", "iron", "stone"}
	if len(got) != len(want) {
		t.Fatalf("summary = %+v", got)
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("summary[%d] = %s, want %s (%+v)", i, got[i].Name, name, got)
		}
	}
}
