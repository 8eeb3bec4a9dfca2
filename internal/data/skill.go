package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Target scopes.
const (
	ScopeSelf   = "self"
	ScopeSingle = "single"
	ScopeAll    = "all"
)

// Effect target types, relative to the caster and the resolved target set.
const (
	TargetSelf       = "self"
	TargetAlly       = "ally"
	TargetEnemy      = "enemy"
	TargetAllAllies  = "all-allies"
	TargetAllEnemies = "all-enemies"
)

// Damage levels, mapped to multipliers by the skill resolver.
const (
	DamageNone     = "none"
	DamageLow      = "low"
	DamageMedium   = "medium"
	DamageHigh     = "high"
	DamageVeryHigh = "very-high"
	DamageExtreme  = "extreme"
)

// SkillEffect is one effect a skill applies, before target resolution.
type SkillEffect struct {
	Type       string // status type, or heal / ap / damage / stain / shield
	TargetType string
	Amount     int
	Turns      int    // 0 = permanent
	Element    string // stains
}

// ConditionalEffect applies its effects only when the named predicate holds.
type ConditionalEffect struct {
	Condition string
	Effects   []SkillEffect
}

// Special carries archetype mechanics a skill opts into.
type Special struct {
	APCostModifier   int      // added to APCost, result floored at 0
	RequiresStains   []string // stains that must be present to cast
	ConsumesStains   []string
	GeneratesStains  []string
	ConsumesForetell bool
	RankBonus        float64 // folded into the rank multiplier
	PerHitAPCost     int
	ChargeScaling    bool
	LowHPScaling     bool
	Escalates        bool // damage grows with consecutive uses
}

// SkillMetadata holds a single skill template.
type SkillMetadata struct {
	ID          string
	Name        string
	Owner       string // archetype
	TargetScope string
	HitCount    int
	DamageLevel string
	DamageType  string // element
	APCost      int
	Effects     []SkillEffect
	Conditional []ConditionalEffect
	Special     Special
}

// SkillTable holds all skills indexed by ID.
type SkillTable struct {
	skills map[string]*SkillMetadata
}

// Get returns a skill by ID, or nil if not found.
func (t *SkillTable) Get(id string) *SkillMetadata {
	return t.skills[id]
}

// Count returns total loaded skills.
func (t *SkillTable) Count() int {
	return len(t.skills)
}

// All returns every skill sorted by ID.
func (t *SkillTable) All() []*SkillMetadata {
	result := make([]*SkillMetadata, 0, len(t.skills))
	for _, s := range t.skills {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// NewSkillTable builds a table from already-parsed skills. Used by tests and
// by tools that assemble skills in code.
func NewSkillTable(skills ...SkillMetadata) *SkillTable {
	t := &SkillTable{skills: make(map[string]*SkillMetadata, len(skills))}
	for i := range skills {
		s := skills[i]
		t.skills[s.ID] = &s
	}
	return t
}

// --- YAML loading ---

type skillEffectEntry struct {
	Type       string `yaml:"type"`
	TargetType string `yaml:"target"`
	Amount     int    `yaml:"amount"`
	Turns      int    `yaml:"turns"`
	Element    string `yaml:"element"`
}

type conditionalEntry struct {
	Condition string             `yaml:"condition"`
	Effects   []skillEffectEntry `yaml:"effects"`
}

type specialEntry struct {
	APCostModifier   int      `yaml:"ap_cost_modifier"`
	RequiresStains   []string `yaml:"requires_stains"`
	ConsumesStains   []string `yaml:"consumes_stains"`
	GeneratesStains  []string `yaml:"generates_stains"`
	ConsumesForetell bool     `yaml:"consumes_foretell"`
	RankBonus        float64  `yaml:"rank_bonus"`
	PerHitAPCost     int      `yaml:"per_hit_ap_cost"`
	ChargeScaling    bool     `yaml:"charge_scaling"`
	LowHPScaling     bool     `yaml:"low_hp_scaling"`
	Escalates        bool     `yaml:"escalates"`
}

type skillEntry struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Owner       string             `yaml:"owner"`
	TargetScope string             `yaml:"target_scope"`
	HitCount    int                `yaml:"hit_count"`
	DamageLevel string             `yaml:"damage_level"`
	DamageType  string             `yaml:"damage_type"`
	APCost      int                `yaml:"ap_cost"`
	Effects     []skillEffectEntry `yaml:"effects"`
	Conditional []conditionalEntry `yaml:"conditional"`
	Special     specialEntry       `yaml:"special"`
}

type skillListFile struct {
	Skills []skillEntry `yaml:"skills"`
}

// LoadSkillTable loads skill definitions from YAML.
func LoadSkillTable(path string) (*SkillTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skills: %w", err)
	}
	return ParseSkillTable(raw)
}

// ParseSkillTable parses skill definitions from YAML bytes.
func ParseSkillTable(raw []byte) (*SkillTable, error) {
	var f skillListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse skills: %w", err)
	}
	t := &SkillTable{skills: make(map[string]*SkillMetadata, len(f.Skills))}
	for i := range f.Skills {
		e := &f.Skills[i]
		if e.ID == "" {
			return nil, fmt.Errorf("parse skills: entry %d has no id", i)
		}
		if _, dup := t.skills[e.ID]; dup {
			return nil, fmt.Errorf("parse skills: duplicate id %q", e.ID)
		}
		s := &SkillMetadata{
			ID:          e.ID,
			Name:        e.Name,
			Owner:       e.Owner,
			TargetScope: e.TargetScope,
			HitCount:    e.HitCount,
			DamageLevel: e.DamageLevel,
			DamageType:  e.DamageType,
			APCost:      e.APCost,
			Effects:     convertEffects(e.Effects),
			Special: Special{
				APCostModifier:   e.Special.APCostModifier,
				RequiresStains:   e.Special.RequiresStains,
				ConsumesStains:   e.Special.ConsumesStains,
				GeneratesStains:  e.Special.GeneratesStains,
				ConsumesForetell: e.Special.ConsumesForetell,
				RankBonus:        e.Special.RankBonus,
				PerHitAPCost:     e.Special.PerHitAPCost,
				ChargeScaling:    e.Special.ChargeScaling,
				LowHPScaling:     e.Special.LowHPScaling,
				Escalates:        e.Special.Escalates,
			},
		}
		if s.TargetScope == "" {
			s.TargetScope = ScopeSingle
		}
		if s.HitCount <= 0 {
			s.HitCount = 1
		}
		if s.DamageLevel == "" {
			s.DamageLevel = DamageNone
		}
		for _, c := range e.Conditional {
			s.Conditional = append(s.Conditional, ConditionalEffect{
				Condition: c.Condition,
				Effects:   convertEffects(c.Effects),
			})
		}
		if err := validateSkill(s); err != nil {
			return nil, fmt.Errorf("parse skills: %w", err)
		}
		t.skills[s.ID] = s
	}
	return t, nil
}

func convertEffects(in []skillEffectEntry) []SkillEffect {
	if len(in) == 0 {
		return nil
	}
	out := make([]SkillEffect, len(in))
	for i, e := range in {
		out[i] = SkillEffect{
			Type:       e.Type,
			TargetType: e.TargetType,
			Amount:     e.Amount,
			Turns:      e.Turns,
			Element:    e.Element,
		}
	}
	return out
}

func validateSkill(s *SkillMetadata) error {
	switch s.TargetScope {
	case ScopeSelf, ScopeSingle, ScopeAll:
	default:
		return fmt.Errorf("skill %s: unknown target scope %q", s.ID, s.TargetScope)
	}
	switch s.DamageLevel {
	case DamageNone, DamageLow, DamageMedium, DamageHigh, DamageVeryHigh, DamageExtreme:
	default:
		return fmt.Errorf("skill %s: unknown damage level %q", s.ID, s.DamageLevel)
	}
	check := func(effs []SkillEffect) error {
		for _, e := range effs {
			switch e.TargetType {
			case TargetSelf, TargetAlly, TargetEnemy, TargetAllAllies, TargetAllEnemies:
			default:
				return fmt.Errorf("skill %s: effect %s has unknown target %q", s.ID, e.Type, e.TargetType)
			}
		}
		return nil
	}
	if err := check(s.Effects); err != nil {
		return err
	}
	for _, c := range s.Conditional {
		if err := check(c.Effects); err != nil {
			return err
		}
	}
	return nil
}
