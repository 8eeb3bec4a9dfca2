package skill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pictoforge/server/internal/data"
	"github.com/pictoforge/server/internal/effect"
)

func party() []effect.Character {
	return []effect.Character{
		{ID: 1, Name: "Gustave", HP: 100, MaxHP: 100, AP: 5},
		{ID: 2, Name: "Lune", HP: 80, MaxHP: 80},
		{ID: 3, Name: "Maelle", HP: 0, MaxHP: 90},
		{ID: 10, Name: "Lancelier", Hostile: true, HP: 200, MaxHP: 200},
		{ID: 11, Name: "Portier", Hostile: true, HP: 150, MaxHP: 150,
			Statuses: []effect.StatusEffect{effect.Permanent(effect.StatusBurn, 2)}},
		{ID: 12, Name: "Chromatic Nevron", Hostile: true, HP: 500, MaxHP: 500},
	}
}

func newResolver(t *testing.T, skills ...data.SkillMetadata) *Resolver {
	t.Helper()
	return NewResolver(data.NewSkillTable(skills...), zap.NewNop())
}

func TestResolve_UnknownSkill(t *testing.T) {
	r := newResolver(t)
	roster := party()
	_, err := r.Resolve("nope", roster[0], &roster[3], roster)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_AllScopeTakesWholeSide(t *testing.T) {
	r := newResolver(t, data.SkillMetadata{
		ID: "wave", TargetScope: data.ScopeAll, HitCount: 1, DamageLevel: data.DamageMedium,
		Effects: []data.SkillEffect{{Type: "Burn", TargetType: data.TargetEnemy, Amount: 1}},
	})
	roster := party()

	res, err := r.Resolve("wave", roster[0], &roster[4], roster)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11, 12}, res.Targets, "every hostile, not just the neighbours of the primary")
	require.Len(t, res.Effects, 3)
	for i, id := range []int64{10, 11, 12} {
		assert.Equal(t, id, res.Effects[i].TargetID)
	}

	// Targeting a party member selects the whole party, fallen included.
	res, err = r.Resolve("wave", roster[0], &roster[1], roster)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, res.Targets)
}

func TestResolve_Scopes(t *testing.T) {
	r := newResolver(t,
		data.SkillMetadata{ID: "self", TargetScope: data.ScopeSelf, DamageLevel: data.DamageNone},
		data.SkillMetadata{ID: "single", TargetScope: data.ScopeSingle, DamageLevel: data.DamageLow},
	)
	roster := party()

	res, err := r.Resolve("self", roster[1], nil, roster)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, res.Targets)

	res, err = r.Resolve("single", roster[1], &roster[5], roster)
	require.NoError(t, err)
	assert.Equal(t, []int64{12}, res.Targets)

	_, err = r.Resolve("single", roster[1], nil, roster)
	assert.ErrorIs(t, err, ErrNoTarget)
}

func TestResolve_EffectTargetTypes(t *testing.T) {
	r := newResolver(t, data.SkillMetadata{
		ID: "mixed", TargetScope: data.ScopeSingle, DamageLevel: data.DamageLow,
		Effects: []data.SkillEffect{
			{Type: "Shield", TargetType: data.TargetSelf, Amount: 1},
			{Type: "Marked", TargetType: data.TargetEnemy, Amount: 1},
			{Type: "Rush", TargetType: data.TargetAllAllies, Amount: 1},
			{Type: "Slow", TargetType: data.TargetAllEnemies, Amount: 1},
		},
	})
	roster := party()
	res, err := r.Resolve("mixed", roster[0], &roster[3], roster)
	require.NoError(t, err)

	byType := map[string][]int64{}
	for _, e := range res.Effects {
		byType[e.Type] = append(byType[e.Type], e.TargetID)
	}
	assert.Equal(t, []int64{1}, byType["Shield"])
	assert.Equal(t, []int64{10}, byType["Marked"])
	assert.Equal(t, []int64{1, 2, 3}, byType["Rush"])
	assert.Equal(t, []int64{10, 11, 12}, byType["Slow"])
}

func TestResolve_ConditionalEffects(t *testing.T) {
	cond := func(name string) data.ConditionalEffect {
		return data.ConditionalEffect{
			Condition: name,
			Effects:   []data.SkillEffect{{Type: name, TargetType: data.TargetSelf}},
		}
	}
	r := newResolver(t, data.SkillMetadata{
		ID: "cond", TargetScope: data.ScopeSingle, DamageLevel: data.DamageHigh,
		Effects: []data.SkillEffect{{Type: "base", TargetType: data.TargetEnemy}},
		Conditional: []data.ConditionalEffect{
			cond("target-burning"),
			cond("target-marked"),
			cond("ally-down"),
			cond("all-allies-alive"),
			cond("caster-hp-below-50"),
		},
	})
	roster := party()
	roster[0].HP = 40

	res, err := r.Resolve("cond", roster[0], &roster[4], roster)
	require.NoError(t, err)
	var types []string
	for _, e := range res.Effects {
		types = append(types, e.Type)
	}
	assert.Equal(t, []string{"base", "target-burning", "ally-down", "caster-hp-below-50"}, types)
	assert.Empty(t, res.Effects[0].Condition)
	assert.Equal(t, "ally-down", res.Effects[2].Condition)
}

func TestResolve_UnknownPredicateIsFalseAndLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := NewResolver(data.NewSkillTable(data.SkillMetadata{
		ID: "odd", TargetScope: data.ScopeSelf, DamageLevel: data.DamageNone,
		Conditional: []data.ConditionalEffect{{
			Condition: "moon-is-full",
			Effects:   []data.SkillEffect{{Type: "Rush", TargetType: data.TargetSelf}},
		}},
	}), zap.New(core))
	roster := party()

	res, err := r.Resolve("odd", roster[0], nil, roster)
	require.NoError(t, err)
	assert.Empty(t, res.Effects)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "unknown skill predicate", logs.All()[0].Message)
}

func TestPredicates(t *testing.T) {
	roster := party()
	twilight := roster[0]
	twilight.Statuses = []effect.StatusEffect{effect.Permanent(effect.StatusTwilight, 1)}
	twilight.Stance = effect.StanceVirtuose
	twilight.Charge, twilight.MaxCharge = 10, 10
	twilight.HP = 20

	env := &Env{Source: &twilight, Primary: &roster[4], Roster: roster}
	for _, name := range []string{
		"target-burning", "caster-hp-below-50", "caster-hp-below-25", "ally-down",
		"caster-twilight", "caster-stance-virtuose", "caster-full-charge",
	} {
		assert.True(t, predicates[name](env), name)
	}
	for _, name := range []string{"target-marked", "target-stunned", "target-broken", "target-foretold", "all-allies-alive"} {
		assert.False(t, predicates[name](env), name)
	}

	noTarget := &Env{Source: &roster[0], Roster: roster}
	assert.False(t, predicates["target-burning"](noTarget))

	assert.True(t, KnownPredicate("target-marked"))
	assert.False(t, KnownPredicate("target-sleepy"))
	assert.Len(t, Predicates(), 12)
}

func TestCalculateHitDamage(t *testing.T) {
	tests := []struct {
		level string
		power int
		want  int
	}{
		{data.DamageNone, 999, 0},
		{data.DamageLow, 101, 50},
		{data.DamageMedium, 100, 100},
		{data.DamageHigh, 100, 150},
		{data.DamageHigh, 33, 49},
		{data.DamageVeryHigh, 100, 200},
		{data.DamageExtreme, 7, 17},
		{data.DamageMedium, 0, 0},
		{"bogus", 100, 0},
	}
	for _, tt := range tests {
		r := &Resolved{DamageLevel: tt.level}
		assert.Equal(t, tt.want, CalculateHitDamage(r, tt.power), "%s x %d", tt.level, tt.power)
		// Pure: same input, same output.
		assert.Equal(t, CalculateHitDamage(r, tt.power), CalculateHitDamage(r, tt.power))
	}
}

func TestCheckCost(t *testing.T) {
	r := newResolver(t, data.SkillMetadata{
		ID: "storm", TargetScope: data.ScopeSingle, DamageLevel: data.DamageMedium, APCost: 4,
		Special: data.Special{APCostModifier: -1, RequiresStains: []string{"lightning", "lightning"}},
	})
	roster := party()
	caster := roster[0]
	caster.AP = 3
	caster.Stains = [4]effect.Element{effect.ElementLightning}

	res, err := r.Resolve("storm", caster, &roster[3], roster)
	require.NoError(t, err)
	assert.Equal(t, 3, res.APCost())
	assert.ErrorIs(t, res.CheckCost(caster, &roster[3]), ErrStainsRequired)

	caster.Stains[1] = effect.ElementLightning
	assert.NoError(t, res.CheckCost(caster, &roster[3]))

	caster.AP = 2
	assert.ErrorIs(t, res.CheckCost(caster, &roster[3]), ErrInsufficientAP)
}

func TestShippedSkillsUseKnownPredicates(t *testing.T) {
	tbl, err := data.LoadSkillTable("../../data/yaml/skills.yaml")
	require.NoError(t, err)
	for _, s := range tbl.All() {
		for _, c := range s.Conditional {
			assert.True(t, KnownPredicate(c.Condition), "%s: %s", s.ID, c.Condition)
		}
	}
}
