package persist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pictoforge/server/internal/combat"
	"github.com/pictoforge/server/internal/config"
	"github.com/pictoforge/server/internal/effect"
)

func batch(seq int64, intents ...effect.Intent) combat.Batch {
	return combat.Batch{BattleID: 7, Epoch: 1700000000, Seq: seq, Trigger: effect.TriggerBaseAttack, Intents: intents}
}

func TestFingerprint_RetryMatchesOtherBatchesDiffer(t *testing.T) {
	a, raw, err := Fingerprint(batch(1, effect.Damage(9, 15)))
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.Contains(t, string(raw), `"amount":15`)

	retry, _, err := Fingerprint(batch(1, effect.Damage(9, 15)))
	require.NoError(t, err)
	assert.Equal(t, a, retry)

	// Same intents in a later batch are a new write, not a retry.
	next, _, err := Fingerprint(batch(2, effect.Damage(9, 15)))
	require.NoError(t, err)
	assert.NotEqual(t, a, next)

	other, _, err := Fingerprint(batch(1, effect.Damage(9, 16)))
	require.NoError(t, err)
	assert.NotEqual(t, a, other)

	b := batch(1, effect.Damage(9, 15))
	b.Epoch++
	reused, _, err := Fingerprint(b)
	require.NoError(t, err)
	assert.NotEqual(t, a, reused, "a battle id reused after teardown starts a new epoch")
}

func TestIntentStatement(t *testing.T) {
	tests := []struct {
		name      string
		in        effect.Intent
		contains  string
		args      []any
		mustMatch bool
	}{
		{"damage", effect.Damage(9, 15), "hp = GREATEST(0, hp - $3)", []any{int64(3), int64(9), 15}, true},
		{"heal percent", effect.HealPercent(1, 20), "max_hp * $3 / 100", []any{int64(3), int64(1), 20, 0}, true},
		{"grant ap", effect.GrantAP(1, -2), "ap = GREATEST(0", []any{int64(3), int64(1), -2}, true},
		{"stance", effect.SetStance(1, effect.StanceVirtuose), "stance = $3", []any{int64(3), int64(1), "virtuose"}, true},
		{"remove status", effect.RemoveStatus(9, effect.StatusBurn), "DELETE FROM battle_statuses", []any{int64(3), int64(9), "Burn"}, false},
		{"extra turn", effect.ExtraTurn(1), "battle_turn_queue", []any{int64(3), int64(1)}, false},
		{"revive", effect.Revive(1, 100), "GREATEST(hp, 1, max_hp * $3 / 100)", []any{int64(3), int64(1), 100}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st, err := intentStatement(3, tc.in)
			require.NoError(t, err)
			assert.Contains(t, st.sql, tc.contains)
			assert.Equal(t, tc.args, st.args)
			assert.Equal(t, tc.mustMatch, st.mustMatch)
		})
	}
}

func TestIntentStatement_Statuses(t *testing.T) {
	st, err := intentStatement(3, effect.ApplyStatus(9, effect.Timed(effect.StatusBurn, 2, 3)))
	require.NoError(t, err)
	assert.Contains(t, st.sql, "ON CONFLICT")
	require.Len(t, st.args, 6)
	assert.Equal(t, "Burn", st.args[2])
	assert.Equal(t, 2, st.args[3])
	assert.Equal(t, 3, *st.args[4].(*int))

	st, err = intentStatement(3, effect.Break(9))
	require.NoError(t, err)
	assert.Equal(t, "Broken", st.args[2])

	_, err = intentStatement(3, effect.Intent{Kind: effect.IntentApplyStatus, Target: 9})
	assert.Error(t, err)
	_, err = intentStatement(3, effect.Intent{Kind: 99, Target: 9})
	assert.Error(t, err)
}

func TestIntentStatement_DamageModifier(t *testing.T) {
	in := effect.DamageModifier(9, 1.5, effect.ElementFire, 0)
	in.Source = "Exposing Break"
	st, err := intentStatement(3, in)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(3), int64(9), "Exposing Break", 1.5, "fire", (*int)(nil)}, st.args)
}

func TestPoolConfig(t *testing.T) {
	pc, err := poolConfig(config.DatabaseConfig{
		DSN:             "postgres://u:p@localhost:5432/pf?sslmode=disable",
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Minute,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 20, pc.MaxConns)
	assert.EqualValues(t, 5, pc.MinConns)
	assert.Equal(t, time.Minute, pc.MaxConnLifetime)
	assert.Equal(t, applicationName, pc.ConnConfig.RuntimeParams["application_name"])

	pc, err = poolConfig(config.DatabaseConfig{DSN: "postgres://u:p@localhost/pf?application_name=tool"})
	require.NoError(t, err)
	assert.Equal(t, "tool", pc.ConnConfig.RuntimeParams["application_name"])

	_, err = poolConfig(config.DatabaseConfig{})
	assert.Error(t, err)
}

func TestFingerprint_TurnHandOffIsPartOfBatch(t *testing.T) {
	plain := batch(3)
	plain.Trigger = effect.TriggerTurnStart
	handOff := plain
	handOff.TurnOf = 2

	a, _, err := Fingerprint(plain)
	require.NoError(t, err)
	b, _, err := Fingerprint(handOff)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	again, _, err := Fingerprint(handOff)
	require.NoError(t, err)
	assert.Equal(t, b, again)
}
