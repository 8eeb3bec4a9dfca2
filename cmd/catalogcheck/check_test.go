package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pictoforge/server/internal/data"
	"github.com/pictoforge/server/internal/effect"
)

func TestCheckSkills(t *testing.T) {
	skills := data.NewSkillTable(
		data.SkillMetadata{ID: "ok", Conditional: []data.ConditionalEffect{{Condition: "target-burning"}}},
		data.SkillMetadata{ID: "odd", Conditional: []data.ConditionalEffect{{Condition: "moon-full"}}},
	)
	assert.Equal(t, []string{`skill odd: unknown predicate "moon-full"`}, checkSkills(skills))
}

func TestCheckWeapons(t *testing.T) {
	reg := effect.NewRegistry(zap.NewNop())
	noop := effect.HandlerFunc(func(*effect.Context) effect.Result { return effect.Skip() })
	require.NoError(t, reg.RegisterWeaponPassive("Blade", 4, noop))

	weapons := data.NewWeaponTable(
		data.WeaponInfo{Name: "Blade", Passives: []int{4, 10}},
		data.WeaponInfo{Name: "Stick", Passives: []int{4}},
	)
	assert.Equal(t, []string{
		"weapon Blade: no passive at level 10",
		"weapon Stick: no passives registered",
	}, checkWeapons(weapons, reg))
}

func TestRun_ShippedData(t *testing.T) {
	problems, err := run("../../data/yaml/skills.yaml", "../../data/yaml/weapons.yaml", "../../scripts")
	require.NoError(t, err)
	assert.Empty(t, problems)
}
