package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSkillTable(t *testing.T) {
	raw := []byte(`
skills:
  - id: fire-wave
    name: Fire Wave
    owner: lune
    target_scope: all
    hit_count: 2
    damage_level: medium
    damage_type: fire
    ap_cost: 4
    effects:
      - { type: Burn, target: enemy, amount: 2, turns: 3 }
    conditional:
      - condition: target-marked
        effects:
          - { type: Defenceless, target: enemy, amount: 1 }
    special:
      consumes_stains: [fire, fire]
      ap_cost_modifier: -1
  - id: defaults
`)
	tbl, err := ParseSkillTable(raw)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Count())

	s := tbl.Get("fire-wave")
	require.NotNil(t, s)
	assert.Equal(t, ScopeAll, s.TargetScope)
	assert.Equal(t, 2, s.HitCount)
	require.Len(t, s.Effects, 1)
	assert.Equal(t, SkillEffect{Type: "Burn", TargetType: TargetEnemy, Amount: 2, Turns: 3}, s.Effects[0])
	require.Len(t, s.Conditional, 1)
	assert.Equal(t, "target-marked", s.Conditional[0].Condition)
	assert.Equal(t, []string{"fire", "fire"}, s.Special.ConsumesStains)
	assert.Equal(t, -1, s.Special.APCostModifier)

	d := tbl.Get("defaults")
	require.NotNil(t, d)
	assert.Equal(t, ScopeSingle, d.TargetScope)
	assert.Equal(t, 1, d.HitCount)
	assert.Equal(t, DamageNone, d.DamageLevel)

	assert.Nil(t, tbl.Get("missing"))
	all := tbl.All()
	require.Len(t, all, 2)
	assert.Equal(t, "defaults", all[0].ID)
}

func TestParseSkillTable_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing id", "skills:\n  - name: x\n"},
		{"duplicate id", "skills:\n  - id: a\n  - id: a\n"},
		{"bad scope", "skills:\n  - id: a\n    target_scope: row\n"},
		{"bad level", "skills:\n  - id: a\n    damage_level: huge\n"},
		{"bad effect target", "skills:\n  - id: a\n    effects:\n      - { type: Burn, target: everyone }\n"},
		{"not yaml", "skills: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSkillTable([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadShippedTables(t *testing.T) {
	skills, err := LoadSkillTable(filepath.Join("..", "..", "data", "yaml", "skills.yaml"))
	require.NoError(t, err)
	assert.Positive(t, skills.Count())

	weapons, err := LoadWeaponTable(filepath.Join("..", "..", "data", "yaml", "weapons.yaml"))
	require.NoError(t, err)
	assert.Positive(t, weapons.Count())
	for _, w := range weapons.All() {
		assert.NotEmpty(t, w.Owner, w.Name)
		assert.Equal(t, []int{4, 10, 20}, w.Passives, w.Name)
	}
}

func TestLoadWeaponTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weapons.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
weapons:
  - name: Test Blade
    owner: maelle
    element: fire
    base_power: 30
    passives: [20, 4]
`), 0o644))

	tbl, err := LoadWeaponTable(path)
	require.NoError(t, err)
	w := tbl.Get("Test Blade")
	require.NotNil(t, w)
	assert.Equal(t, 33, w.MaxLevel)
	assert.Equal(t, []int{4, 20}, w.Passives)

	_, err = LoadWeaponTable(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
