// Personality: eight traits that emerge at age 5 and settle at maturity.
package agents

import (
	"encoding/json"
	"fmt"

	"github.com/talgya/sarakt/internal/entropy"
	"github.com/talgya/sarakt/internal/simerr"
)

// Trait names one personality dimension. The set is closed.
type Trait uint8

const (
	TraitOpenness Trait = iota
	TraitConscientiousness
	TraitExtraversion
	TraitAgreeableness
	TraitNeuroticism
	TraitRebelliousness // Dynasty Dulo inheritance
	TraitAdaptability
	TraitLoyaltyTendency
	numTraits
)

var traitNames = [numTraits]string{
	"openness",
	"conscientiousness",
	"extraversion",
	"agreeableness",
	"neuroticism",
	"rebelliousness",
	"adaptability",
	"loyalty_tendency",
}

func (t Trait) String() string {
	if t < numTraits {
		return traitNames[t]
	}
	return fmt.Sprintf("trait(%d)", uint8(t))
}

// ParseTrait maps a trait name to its Trait.
func ParseTrait(name string) (Trait, error) {
	for i, n := range traitNames {
		if n == name {
			return Trait(i), nil
		}
	}
	return 0, simerr.Wrapf(simerr.ErrUnknownTrait, "%q", name)
}

// Traits returns every trait in canonical order.
func Traits() []Trait {
	out := make([]Trait, numTraits)
	for i := range out {
		out[i] = Trait(i)
	}
	return out
}

// Personality holds each trait in [0,1].
type Personality [numTraits]float64

// Get returns a trait value.
func (p *Personality) Get(t Trait) float64 { return p[t] }

func newPersonality(gen *entropy.Generator) *Personality {
	var p Personality
	for i := range p {
		p[i] = gen.Uniform(0, 1)
	}
	return &p
}

// refine nudges each trait by up to ±0.1 as the actor matures.
func (p *Personality) refine(gen *entropy.Generator) {
	for i := range p {
		p[i] = clamp(p[i]+gen.Uniform(-0.1, 0.1), 0, 1)
	}
}

// MarshalJSON encodes the personality as a trait-name map.
func (p Personality) MarshalJSON() ([]byte, error) {
	m := make(map[string]float64, numTraits)
	for i, v := range p {
		m[traitNames[i]] = v
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts exactly the known trait names.
func (p *Personality) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out Personality
	for name, v := range m {
		t, err := ParseTrait(name)
		if err != nil {
			return err
		}
		out[t] = v
	}
	*p = out
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
