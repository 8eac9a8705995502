package agents

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/talgya/sarakt/internal/simerr"
)

// Skill names one of the thirteen learnable skills.
type Skill uint8

const (
	SkillWoodcutting Skill = iota
	SkillHunting
	SkillFarming
	SkillWaterGathering
	SkillMining
	SkillCrafting
	SkillCombat
	SkillTrading
	SkillConstruction
	SkillEngineering
	SkillBiotech
	SkillLeadership
	SkillStealth
	numSkills
)

var skillNames = [numSkills]string{
	"woodcutting", "hunting", "farming", "water_gathering",
	"mining", "crafting", "combat", "trading", "construction",
	"engineering", "biotech", "leadership", "stealth",
}

const (
	maxProficiency  = 100.0
	baseSkillGrowth = 0.1
)

func (s Skill) String() string {
	if s < numSkills {
		return skillNames[s]
	}
	return fmt.Sprintf("skill(%d)", uint8(s))
}

// ParseSkill maps a skill name to its Skill.
func ParseSkill(name string) (Skill, error) {
	for i, n := range skillNames {
		if n == name {
			return Skill(i), nil
		}
	}
	return 0, simerr.Wrapf(simerr.ErrUnknownSkill, "%q", name)
}

// SkillTable holds proficiency in [0,100] per skill.
type SkillTable [numSkills]float64

// Get returns the proficiency for a skill.
func (t *SkillTable) Get(s Skill) float64 { return t[s] }

// SkillLevel is a skill with its proficiency.
type SkillLevel struct {
	Skill string  `json:"skill"`
	Level float64 `json:"level"`
}

// Top returns the n highest skills, ties in canonical skill order.
func (t *SkillTable) Top(n int) []SkillLevel {
	out := make([]SkillLevel, 0, numSkills)
	for i, v := range t {
		out = append(out, SkillLevel{Skill: skillNames[i], Level: v})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Level > out[j].Level })
	if n < len(out) {
		out = out[:max(n, 0)]
	}
	return out
}

// growthRate is how much a skill improves in one cycle.
func (a *Actor) growthRate(s Skill) float64 {
	if a.Personality == nil {
		return baseSkillGrowth
	}
	modifier := 1.0
	switch s {
	case SkillLeadership:
		modifier += float64(a.Attributes.Charisma) / 10
	case SkillEngineering:
		modifier += a.Personality.Get(TraitOpenness)
	case SkillMining, SkillWoodcutting:
		modifier += float64(a.Attributes.Strength) / 20
	}
	return baseSkillGrowth * modifier
}

func (a *Actor) growSkills() {
	for i := range a.Skills {
		a.Skills[i] = min(maxProficiency, a.Skills[i]+a.growthRate(Skill(i)))
	}
}

// MarshalJSON encodes the table as a skill-name map.
func (t SkillTable) MarshalJSON() ([]byte, error) {
	m := make(map[string]float64, numSkills)
	for i, v := range t {
		m[skillNames[i]] = v
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts exactly the known skill names.
func (t *SkillTable) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out SkillTable
	for name, v := range m {
		s, err := ParseSkill(name)
		if err != nil {
			return err
		}
		out[s] = v
	}
	*t = out
	return nil
}
