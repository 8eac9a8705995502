// Body generation: a single deterministic pipeline keyed by the body seed.
// properties → biomes → resources → regions → hazards. The draw order is part
// of the contract; reordering it changes every generated body.
package world

import (
	"fmt"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/sarakt/internal/entropy"
)

var (
	habitableBiomes = []string{"forest", "plains", "mountains", "desert", "tundra", "swamp", "jungle", "volcanic"}
	barrenBiomes    = []string{"barren", "frozen", "volcanic", "crystalline", "metallic", "radioactive"}

	commonResources    = []string{"iron", "copper", "stone", "wood", "water"}
	uncommonResources  = []string{"silver", "gold", "titanium", "uranium", "crystals"}
	rareResources      = []string{"platinum", "rare_earths", "exotic_matter", "alien_artifacts"}
	legendaryResources = []string{"zero_point_energy", "antimatter", "dynasty_dulo_relics"}

	regionPrefixes = []string{"North", "South", "East", "West", "Central", "Upper", "Lower", "New"}
	regionSuffixes = []string{"Highlands", "Valley", "Plains", "Reach", "Territory", "Expanse", "Zone"}
	poiTypes       = []string{"cave", "ruins", "crash_site", "resource_deposit", "anomaly", "outpost"}

	hazardTypes = []string{"radiation", "toxic_gas", "extreme_temperature", "hostile_creatures",
		"unstable_terrain", "magnetic_anomaly", "nanofiber_infection"}
)

const (
	rareChance      = 0.30 // per rare resource
	legendaryChance = 0.05 // one legendary resource at most
	uncommonChance  = 0.70 // per uncommon resource on habitable bodies
	hazardActive    = 0.70
)

// NewBody generates a body from its seed.
func NewBody(id BodyID, name string, seed int64, class Class, habitable bool) *Body {
	gen := entropy.New(seed)
	b := &Body{
		ID:        id,
		Name:      name,
		Seed:      seed,
		Class:     class,
		Habitable: habitable,
	}

	b.Properties = b.generateProperties(gen)
	b.Biomes = b.generateBiomes(gen)
	b.Resources = b.generateResources(gen)
	b.Regions = b.generateRegions(gen)
	b.Hazards = generateHazards(gen)
	return b
}

func (b *Body) generateProperties(gen *entropy.Generator) Properties {
	p := Properties{
		RadiusKm: gen.Integer(3000, 12000),
		Gravity:  gen.Uniform(0.3, 2.5),
	}
	p.Atmosphere = atmosphereFor(b.Class)
	p.TemperatureC = gen.Integer(-150, 50)
	p.DayLengthHours = gen.Integer(18, 36)
	p.YearLengthDays = gen.Integer(200, 800)
	p.Moons = gen.Integer(0, 3)
	if b.Habitable {
		p.WaterCoverage = gen.Uniform(0.2, 0.7)
	} else {
		p.WaterCoverage = gen.Uniform(0, 0.1)
	}
	p.AxialTiltDeg = gen.Integer(0, 45)
	return p
}

func atmosphereFor(c Class) string {
	switch c {
	case ClassHabitablePrimary:
		return "breathable"
	case ClassHabitableBiotech:
		return "toxic_breathable"
	default:
		return "none"
	}
}

func (b *Body) generateBiomes(gen *entropy.Generator) []Biome {
	pool := barrenBiomes
	if b.Habitable {
		pool = habitableBiomes
	}

	count := gen.Integer(3, 8)
	biomes := make([]Biome, 0, count)
	for i := 0; i < count; i++ {
		biomes = append(biomes, Biome{
			ID:             i,
			Type:           entropy.MustChoice(gen, pool),
			Coverage:       gen.Uniform(0.05, 0.3),
			AvgTemperature: gen.Integer(-50, 50),
			Rainfall:       gen.Integer(0, 2000),
			Elevation:      gen.Integer(-500, 8000),
			DangerLevel:    gen.Integer(1, 10),
		})
	}
	return biomes
}

func (b *Body) generateResources(gen *entropy.Generator) []ResourceStock {
	var res []ResourceStock
	add := func(name string, amount int) {
		res = append(res, ResourceStock{Name: name, Amount: int64(amount)})
	}

	// Every body carries the common resources.
	for _, name := range commonResources {
		add(name, gen.Integer(10000, 100000))
	}

	// Habitable bodies: broader but shallower. Mining bodies: deep veins.
	if b.Habitable {
		for _, name := range uncommonResources {
			if gen.Float() < uncommonChance {
				add(name, gen.Integer(1000, 50000))
			}
		}
	} else {
		for _, name := range uncommonResources {
			add(name, gen.Integer(50000, 500000))
		}
	}

	for _, name := range rareResources {
		if gen.Float() < rareChance {
			add(name, gen.Integer(100, 10000))
		}
	}

	if gen.Float() < legendaryChance {
		add(entropy.MustChoice(gen, legendaryResources), gen.Integer(1, 1000))
	}

	if b.Class == ClassHabitableBiotech {
		add("nanofiber_web", gen.Integer(100000, 500000))
		add("biotech_samples", gen.Integer(50000, 200000))
		add("chaos_crystals", gen.Integer(10000, 50000))
	}

	return res
}

func (b *Body) generateRegions(gen *entropy.Generator) []Region {
	// Relief is sampled from a noise field so neighbouring regions read as
	// related terrain; the field is seeded by the body and draws nothing
	// from gen.
	relief := opensimplex.NewNormalized(b.Seed)

	count := 5 + int(gen.Uniform(0, 10))
	regions := make([]Region, 0, count)
	for i := 0; i < count; i++ {
		biome := entropy.MustChoice(gen, b.Biomes)
		r := Region{
			ID:        i,
			Name:      regionName(gen, i),
			BiomeID:   biome.ID,
			BiomeType: biome.Type,
			Lat:       gen.Uniform(-90, 90),
			Lon:       gen.Uniform(-180, 180),
			Size:      gen.Integer(100, 10000),
		}
		if b.Habitable {
			r.Population = gen.Integer(0, 50000)
			r.Development = gen.Uniform(0, 1)
		}
		r.Relief = octaveNoise(relief, r.Lon/60, r.Lat/60, 3, 1.0, 0.5)
		r.PointsOfInterest = b.generatePOIs(gen, gen.Integer(1, 5))
		regions = append(regions, r)
	}
	return regions
}

func regionName(gen *entropy.Generator, id int) string {
	if gen.Float() > 0.5 {
		return entropy.MustChoice(gen, regionPrefixes) + " " + entropy.MustChoice(gen, regionSuffixes)
	}
	return fmt.Sprintf("Region %d", id+1)
}

func (b *Body) generatePOIs(gen *entropy.Generator, count int) []PointOfInterest {
	pois := make([]PointOfInterest, 0, count)
	for i := 0; i < count; i++ {
		pois = append(pois, PointOfInterest{
			Type:        entropy.MustChoice(gen, poiTypes),
			Name:        fmt.Sprintf("POI-%d-%d", b.ID, i),
			DangerLevel: gen.Integer(1, 10),
		})
	}
	return pois
}

func generateHazards(gen *entropy.Generator) []Hazard {
	count := gen.Integer(2, 7)
	zones := make([]Hazard, 0, count)
	for i := 0; i < count; i++ {
		zones = append(zones, Hazard{
			ID:       i,
			Type:     entropy.MustChoice(gen, hazardTypes),
			Severity: gen.Integer(1, 10),
			Radius:   gen.Integer(5, 50),
			Active:   gen.Float() < hazardActive,
		})
	}
	return zones
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
