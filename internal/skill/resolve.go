// Package skill expands skill templates into concrete targets and effects and
// computes per-hit damage.
package skill

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/pictoforge/server/internal/data"
	"github.com/pictoforge/server/internal/effect"
)

var (
	ErrNotFound        = errors.New("skill not found")
	ErrNoTarget        = errors.New("skill needs a target")
	ErrInsufficientAP  = errors.New("not enough AP")
	ErrStainsRequired  = errors.New("required stains missing")
	ErrForetellMissing = errors.New("target has no foretell to consume")
)

// ResolvedEffect is one effect bound to one concrete character.
type ResolvedEffect struct {
	Type     string
	TargetID int64
	Amount   int
	Turns    int
	Element  effect.Element
	// Condition is the predicate that unlocked the effect, empty when
	// unconditional.
	Condition string
}

// Resolved is a skill use ready for per-hit damage computation.
type Resolved struct {
	SkillID     string
	Name        string
	Targets     []int64
	HitCount    int
	DamageLevel string
	DamageType  effect.Element
	Effects     []ResolvedEffect
	Special     data.Special

	apCost int
}

// APCost is the skill's cost after its special cost modifier, never negative.
func (r *Resolved) APCost() int {
	c := r.apCost + r.Special.APCostModifier
	if c < 0 {
		return 0
	}
	return c
}

// Resolver turns skill ids into Resolved skills.
type Resolver struct {
	skills *data.SkillTable
	log    *zap.Logger
}

func NewResolver(skills *data.SkillTable, log *zap.Logger) *Resolver {
	return &Resolver{skills: skills, log: log}
}

// Skill returns the raw template.
func (r *Resolver) Skill(id string) (*data.SkillMetadata, bool) {
	s := r.skills.Get(id)
	return s, s != nil
}

// Escalating lists the skills whose damage grows with consecutive uses.
func (r *Resolver) Escalating() []string {
	var ids []string
	for _, s := range r.skills.All() {
		if s.Special.Escalates {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// Resolve looks up the skill, resolves its target set, then its unconditional
// effects followed by the conditional effects whose predicate holds.
func (r *Resolver) Resolve(skillID string, source effect.Character, primary *effect.Character, roster []effect.Character) (*Resolved, error) {
	meta := r.skills.Get(skillID)
	if meta == nil {
		return nil, fmt.Errorf("resolve %q: %w", skillID, ErrNotFound)
	}

	targets, err := resolveTargets(meta.TargetScope, &source, primary, roster)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", skillID, err)
	}

	elem, _ := effect.ParseElement(meta.DamageType)
	res := &Resolved{
		SkillID:     meta.ID,
		Name:        meta.Name,
		Targets:     targets,
		HitCount:    meta.HitCount,
		DamageLevel: meta.DamageLevel,
		DamageType:  elem,
		Special:     meta.Special,
		apCost:      meta.APCost,
	}

	res.Effects = expand(meta.Effects, "", &source, targets, roster)

	env := &Env{Source: &source, Primary: primary, Roster: roster}
	for _, c := range meta.Conditional {
		if !r.evaluate(c.Condition, env, skillID) {
			continue
		}
		res.Effects = append(res.Effects, expand(c.Effects, c.Condition, &source, targets, roster)...)
	}
	return res, nil
}

func (r *Resolver) evaluate(name string, env *Env, skillID string) bool {
	p, ok := predicates[name]
	if !ok {
		r.log.Warn("unknown skill predicate",
			zap.String("skill", skillID),
			zap.String("predicate", name),
		)
		return false
	}
	return p(env)
}

func resolveTargets(scope string, source, primary *effect.Character, roster []effect.Character) ([]int64, error) {
	switch scope {
	case data.ScopeSelf:
		return []int64{source.ID}, nil
	case data.ScopeSingle:
		if primary == nil {
			return nil, ErrNoTarget
		}
		return []int64{primary.ID}, nil
	case data.ScopeAll:
		if primary == nil {
			return nil, ErrNoTarget
		}
		var ids []int64
		for _, c := range roster {
			if c.Hostile == primary.Hostile {
				ids = append(ids, c.ID)
			}
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("unknown target scope %q", scope)
	}
}

func expand(effs []data.SkillEffect, cond string, source *effect.Character, targets []int64, roster []effect.Character) []ResolvedEffect {
	var out []ResolvedEffect
	for _, e := range effs {
		elem, _ := effect.ParseElement(e.Element)
		for _, id := range effectTargets(e.TargetType, source, targets, roster) {
			out = append(out, ResolvedEffect{
				Type:      e.Type,
				TargetID:  id,
				Amount:    e.Amount,
				Turns:     e.Turns,
				Element:   elem,
				Condition: cond,
			})
		}
	}
	return out
}

func effectTargets(kind string, source *effect.Character, targets []int64, roster []effect.Character) []int64 {
	switch kind {
	case data.TargetSelf:
		return []int64{source.ID}
	case data.TargetAlly, data.TargetEnemy:
		return targets
	case data.TargetAllAllies, data.TargetAllEnemies:
		wantHostile := source.Hostile
		if kind == data.TargetAllEnemies {
			wantHostile = !wantHostile
		}
		var ids []int64
		for _, c := range roster {
			if c.Hostile == wantHostile {
				ids = append(ids, c.ID)
			}
		}
		return ids
	}
	return nil
}

// CheckCost verifies the caster can pay for the skill.
func (r *Resolved) CheckCost(source effect.Character, primary *effect.Character) error {
	if source.AP < r.APCost() {
		return fmt.Errorf("%s needs %d AP, has %d: %w", r.SkillID, r.APCost(), source.AP, ErrInsufficientAP)
	}
	need := make(map[effect.Element]int)
	for _, s := range r.Special.RequiresStains {
		if e, ok := effect.ParseElement(s); ok {
			need[e]++
		}
	}
	for e, n := range need {
		if source.StainCount(e) < n {
			return fmt.Errorf("%s needs %d %s stain(s): %w", r.SkillID, n, e, ErrStainsRequired)
		}
	}
	if r.Special.ConsumesForetell && (primary == nil || !primary.HasStatus(effect.StatusForetell)) {
		return fmt.Errorf("%s: %w", r.SkillID, ErrForetellMissing)
	}
	return nil
}

var damageLevels = map[string]float64{
	data.DamageNone:     0,
	data.DamageLow:      0.5,
	data.DamageMedium:   1.0,
	data.DamageHigh:     1.5,
	data.DamageVeryHigh: 2.0,
	data.DamageExtreme:  2.5,
}

// DamageMultiplier returns the multiplier of a damage level.
func DamageMultiplier(level string) (float64, bool) {
	m, ok := damageLevels[level]
	return m, ok
}

// CalculateHitDamage returns floor(basePower * level multiplier). A skill
// without damage always yields 0.
func CalculateHitDamage(r *Resolved, basePower int) int {
	if r.DamageLevel == data.DamageNone {
		return 0
	}
	m, ok := damageLevels[r.DamageLevel]
	if !ok || basePower <= 0 {
		return 0
	}
	return int(math.Floor(float64(basePower) * m))
}
