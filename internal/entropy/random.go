// Package entropy provides the seeded generator behind all procedural content.
// Every entity owns its own Generator; there is no shared source.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	mrand "math/rand"

	"github.com/talgya/sarakt/internal/simerr"
)

// countingSource wraps a rand.Source and counts Int63 calls so a generator's
// position in its sequence can be persisted and replayed.
type countingSource struct {
	src   mrand.Source
	draws uint64
}

func (c *countingSource) Int63() int64 {
	c.draws++
	return c.src.Int63()
}

func (c *countingSource) Seed(seed int64) {
	c.src.Seed(seed)
	c.draws = 0
}

// Generator is a deterministic pseudo-random source. Identical seeds produce
// identical sequences for the life of the process.
type Generator struct {
	seed int64
	src  *countingSource
	rng  *mrand.Rand
}

// New creates a generator whose state derives solely from seed.
func New(seed int64) *Generator {
	src := &countingSource{src: mrand.NewSource(seed)}
	return &Generator{
		seed: seed,
		src:  src,
		rng:  mrand.New(src),
	}
}

// Restore recreates a generator at the position reached after draws source reads.
func Restore(seed int64, draws uint64) *Generator {
	g := New(seed)
	for i := uint64(0); i < draws; i++ {
		g.src.Int63()
	}
	return g
}

// Seed returns the seed the generator was created with.
func (g *Generator) Seed() int64 { return g.seed }

// Draws returns how many values have been read from the underlying source.
func (g *Generator) Draws() uint64 { return g.src.draws }

// Uniform returns a float in [min, max).
func (g *Generator) Uniform(min, max float64) float64 {
	return min + g.rng.Float64()*(max-min)
}

// Float returns a float in [0, 1).
func (g *Generator) Float() float64 {
	return g.rng.Float64()
}

// Integer returns an int in [min, max], inclusive. If max < min it returns min.
func (g *Generator) Integer(min, max int) int {
	if max <= min {
		return min
	}
	return min + g.rng.Intn(max-min+1)
}

// Choice returns a uniformly chosen element of items.
func Choice[T any](g *Generator, items []T) (T, error) {
	var zero T
	if len(items) == 0 {
		return zero, simerr.ErrEmptyDomain
	}
	return items[g.rng.Intn(len(items))], nil
}

// MustChoice is Choice for fixed, non-empty tables.
func MustChoice[T any](g *Generator, items []T) T {
	v, err := Choice(g, items)
	if err != nil {
		panic(err)
	}
	return v
}

// Weighted pairs an item with a positive selection weight.
type Weighted[T any] struct {
	Item   T
	Weight float64
}

// WeightedChoice draws r in [0, sum(weights)) and walks pairs in order,
// returning the first item whose weight exceeds the remaining r. If float
// drift carries r past the last pair, the first pair's item is returned.
func WeightedChoice[T any](g *Generator, pairs []Weighted[T]) (T, error) {
	var zero T
	if len(pairs) == 0 {
		return zero, simerr.ErrEmptyDomain
	}
	total := 0.0
	for _, p := range pairs {
		if !(p.Weight > 0) {
			return zero, simerr.Wrapf(simerr.ErrInvalidWeight, "weight %v", p.Weight)
		}
		total += p.Weight
	}

	r := g.Uniform(0, total)
	for _, p := range pairs {
		if r < p.Weight {
			return p.Item, nil
		}
		r -= p.Weight
	}
	return pairs[0].Item, nil
}

type generatorJSON struct {
	Seed  int64  `json:"seed"`
	Draws uint64 `json:"draws"`
}

// MarshalJSON encodes the generator as its seed and position.
func (g *Generator) MarshalJSON() ([]byte, error) {
	return json.Marshal(generatorJSON{Seed: g.seed, Draws: g.src.draws})
}

// UnmarshalJSON replays the encoded position so the sequence continues exactly.
func (g *Generator) UnmarshalJSON(data []byte) error {
	var raw generatorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode generator: %w", err)
	}
	*g = *Restore(raw.Seed, raw.Draws)
	return nil
}

// RandomSeed returns a fresh seed from crypto/rand. It is the only
// non-deterministic entry point and is used when a universe is configured
// with seed 0.
func RandomSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen; fall back to a fixed seed.
		return 42
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
}
