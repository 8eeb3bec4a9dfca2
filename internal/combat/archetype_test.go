package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pictoforge/server/internal/damage"
	"github.com/pictoforge/server/internal/effect"
)

func TestArchetypeFactors(t *testing.T) {
	assert.Equal(t, 1.0, RankFactor(effect.RankNone, 0))
	assert.Equal(t, 2.0, RankFactor(effect.RankS, 0))
	assert.Equal(t, 2.0, RankFactor(effect.RankB, 0.5))
	assert.Equal(t, 1.0, MaskFactor(effect.MaskNone))
	assert.Equal(t, 1.5, MaskFactor(effect.MaskHeavy))
	assert.Equal(t, 1.0, StanceFactor(effect.StanceDefensive))
	assert.Equal(t, 2.0, StanceFactor(effect.StanceVirtuose))

	target := &effect.Character{
		Weaknesses:  []effect.Element{effect.ElementFire},
		Resistances: []effect.Element{effect.ElementIce},
	}
	assert.Equal(t, damage.WeaknessFactor, ElementalFactor(target, effect.ElementFire))
	assert.Equal(t, damage.ResistanceFactor, ElementalFactor(target, effect.ElementIce))
	assert.Equal(t, 1.0, ElementalFactor(target, effect.ElementDark))
}

func TestSourceModifiers(t *testing.T) {
	src := &effect.Character{Charge: 3, Stance: effect.StanceOffensive}
	target := &effect.Character{
		Statuses:   []effect.StatusEffect{effect.Permanent(effect.StatusMarked, 1)},
		Weaknesses: []effect.Element{effect.ElementLightning},
	}
	mods := sourceModifiers(src, target, hitTraits{chargeScaling: true, element: effect.ElementLightning})

	sources := make([]string, 0, len(mods))
	for _, m := range mods {
		sources = append(sources, m.Source)
	}
	assert.Equal(t, []string{"charge", "stance", "element", "marked"}, sources)
	assert.Equal(t, 6, mods[0].Amount)

	plain := sourceModifiers(&effect.Character{}, &effect.Character{}, hitTraits{chargeScaling: true})
	assert.Empty(t, plain)
}

func TestSourceModifiers_TargetConditionsStack(t *testing.T) {
	target := &effect.Character{Statuses: []effect.StatusEffect{
		effect.Timed(effect.StatusPowerless, 1, 2),
		effect.Timed(effect.StatusBurn, 3, 3),
		effect.Timed(effect.StatusStunned, 1, 1),
	}}
	mods := sourceModifiers(&effect.Character{}, target, hitTraits{})

	require.Len(t, mods, 3)
	for _, m := range mods {
		assert.Equal(t, damage.StageTargetCondition, m.Stage)
	}
	assert.Equal(t, "burning", mods[0].Source)
	assert.Equal(t, damage.BurningFactor, mods[0].Factor)
	assert.Equal(t, "stunned", mods[1].Source)
	assert.Equal(t, "powerless", mods[2].Source)

	// 100 -> 120 -> 156 -> 179
	assert.Equal(t, 179, damage.Compose(100, mods).Final)
}
