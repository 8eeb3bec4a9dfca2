package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pictoforge/server/internal/battle"
	"github.com/pictoforge/server/internal/damage"
	"github.com/pictoforge/server/internal/data"
	"github.com/pictoforge/server/internal/effect"
)

func newDispatcher(t *testing.T) *effect.Dispatcher {
	t.Helper()
	reg := effect.NewRegistry(zap.NewNop())
	require.NoError(t, Register(reg))
	return effect.NewDispatcher(reg, zap.NewNop())
}

func fighters() (effect.Character, effect.Character) {
	hero := effect.Character{ID: 1, Name: "Maelle", Archetype: effect.ArchetypeMaelle, HP: 100, MaxHP: 100, AP: 3, MaxAP: 9}
	foe := effect.Character{ID: 9, Name: "Lancelier", Archetype: effect.ArchetypeEnemy, Hostile: true, HP: 300, MaxHP: 300}
	return hero, foe
}

func request(trig effect.Trigger, st *battle.State, src effect.Character, target *effect.Character, keys ...string) effect.Request {
	roster := []effect.Character{src}
	if target != nil {
		roster = append(roster, *target)
	}
	return effect.Request{
		Trigger:  trig,
		BattleID: st.ID,
		Source:   src,
		Target:   target,
		Roster:   roster,
		Txn:      st.Begin(),
		Keys:     keys,
	}
}

// dispatch runs one request and commits its staged state, the way the
// orchestrator does after persistence succeeds.
func dispatch(d *effect.Dispatcher, req effect.Request) effect.Outcome {
	out := d.Dispatch(req)
	req.Txn.Commit()
	return out
}

func TestRegister_NoDuplicates(t *testing.T) {
	reg := effect.NewRegistry(zap.NewNop())
	require.NoError(t, Register(reg))
	_, pictos := reg.Count()
	assert.GreaterOrEqual(t, pictos, 40)

	// Registering the catalog twice must fail loudly.
	err := Register(reg)
	require.Error(t, err)
	assert.ErrorIs(t, err, effect.ErrDuplicateHandler)
}

func TestRegister_EveryShippedWeaponLevelHasPassive(t *testing.T) {
	reg := effect.NewRegistry(zap.NewNop())
	require.NoError(t, Register(reg))
	weapons, err := data.LoadWeaponTable("../../data/yaml/weapons.yaml")
	require.NoError(t, err)

	for _, w := range weapons.All() {
		for _, lv := range w.Passives {
			_, ok := reg.WeaponPassive(w.Name, lv)
			assert.True(t, ok, "%s@%d", w.Name, lv)
		}
	}
}

func TestSecondChance_OncePerBattle(t *testing.T) {
	d := newDispatcher(t)
	st := battle.NewState(1)
	hero, _ := fighters()
	hero.HP = 0

	out := dispatch(d, request(effect.TriggerDeath, st, hero, nil, "Second Chance"))
	require.Len(t, out.Results, 1)
	assert.True(t, out.PreventDeath())
	in := out.Intents()
	require.Len(t, in, 1)
	assert.Equal(t, effect.IntentRevive, in[0].Kind)
	assert.Equal(t, 100, in[0].Percent)

	// Turn rollover does not re-arm a once-per-battle effect.
	st.ClearTurn()
	out = dispatch(d, request(effect.TriggerDeath, st, hero, nil, "Second Chance"))
	assert.Empty(t, out.Results)
	assert.False(t, out.PreventDeath())
}

func TestSecondChance_DiscardedTxnDoesNotConsume(t *testing.T) {
	d := newDispatcher(t)
	st := battle.NewState(1)
	hero, _ := fighters()

	req := request(effect.TriggerDeath, st, hero, nil, "Second Chance")
	require.Len(t, d.Dispatch(req).Results, 1)
	req.Txn.Discard()

	out := dispatch(d, request(effect.TriggerDeath, st, hero, nil, "Second Chance"))
	assert.Len(t, out.Results, 1, "the first activation never committed")
}

func TestWarmingUp_StacksToFive(t *testing.T) {
	d := newDispatcher(t)
	st := battle.NewState(1)
	hero, foe := fighters()

	for i := 0; i < 8; i++ {
		dispatch(d, request(effect.TriggerTurnStart, st, hero, nil, "Warming Up"))
	}
	assert.Equal(t, 5, st.Get(hero.ID, "Warming Up"))

	out := dispatch(d, request(effect.TriggerBaseAttack, st, hero, &foe, "Warming Up"))
	mods := out.Modifiers()
	require.Len(t, mods, 1)
	assert.Equal(t, damage.StageEscalation, mods[0].Stage)
	assert.InDelta(t, 1.25, mods[0].Factor, 1e-9)
}

func TestPoweredAttack_OncePerTurn(t *testing.T) {
	d := newDispatcher(t)
	st := battle.NewState(1)
	hero, foe := fighters()

	out := dispatch(d, request(effect.TriggerBaseAttack, st, hero, &foe, "Powered Attack"))
	require.Len(t, out.Results, 1)
	assert.Equal(t, effect.IntentGrantAP, out.Intents()[0].Kind)
	assert.Equal(t, -1, out.Intents()[0].Amount)

	out = dispatch(d, request(effect.TriggerBaseAttack, st, hero, &foe, "Powered Attack"))
	assert.Empty(t, out.Results)

	st.ClearTurnFor(hero.ID)
	out = dispatch(d, request(effect.TriggerBaseAttack, st, hero, &foe, "Powered Attack"))
	assert.Len(t, out.Results, 1)
}

func TestPoweredAttack_NoAPNoRecord(t *testing.T) {
	d := newDispatcher(t)
	st := battle.NewState(1)
	hero, foe := fighters()
	hero.AP = 0

	out := dispatch(d, request(effect.TriggerBaseAttack, st, hero, &foe, "Powered Attack"))
	assert.Empty(t, out.Results)
	assert.True(t, st.CanActivate(hero.ID, "Powered Attack", battle.OncePerTurn))
}

func TestBurningShots_TargetsFreeAimTarget(t *testing.T) {
	d := newDispatcher(t)
	st := battle.NewState(1)
	hero, foe := fighters()

	out := dispatch(d, request(effect.TriggerFreeAim, st, hero, &foe, "Burning Shots", "Augmented Attack"))
	require.Len(t, out.Results, 1, "Augmented Attack ignores free aim")
	in := out.Intents()[0]
	assert.Equal(t, foe.ID, in.Target)
	assert.Equal(t, effect.StatusBurn, in.Status.Type)
	require.NotNil(t, in.Status.Turns)
	assert.Equal(t, 3, *in.Status.Turns)
}

func TestTargetConditionMultipliers(t *testing.T) {
	d := newDispatcher(t)
	st := battle.NewState(1)
	hero, foe := fighters()
	foe.Statuses = []effect.StatusEffect{
		effect.Permanent(effect.StatusBurn, 2),
		effect.Permanent(effect.StatusStunned, 1),
	}

	out := dispatch(d, request(effect.TriggerSkillUsed, st, hero, &foe, "Burn Affinity", "Stun Boost", "Breaker"))
	mods := out.Modifiers()
	require.Len(t, mods, 2)
	for _, m := range mods {
		assert.Equal(t, damage.StageTargetCondition, m.Stage)
	}
	assert.Equal(t, 120, damage.Apply(75, mods)) // floor(floor(75*1.25)*1.3) = floor(93*1.3)
}

func TestLastWord_Override(t *testing.T) {
	d := newDispatcher(t)
	st := battle.NewState(1)
	hero, foe := fighters()
	foe.HP = 12

	out := dispatch(d, request(effect.TriggerFreeAim, st, hero, &foe, "Last Word"))
	v, ok := out.Override()
	require.True(t, ok)
	assert.Equal(t, 12, v)
}

func TestWeaponPassives_LevelGated(t *testing.T) {
	d := newDispatcher(t)
	hero, foe := fighters()
	hero.Stance = effect.StanceVirtuose

	for _, tt := range []struct {
		level int
		mods  int
	}{{4, 0}, {10, 1}, {20, 1}} {
		st := battle.NewState(1)
		req := request(effect.TriggerBaseAttack, st, hero, &foe)
		req.Weapon = effect.Weapon{Item: "Maellum", Level: tt.level}
		out := dispatch(d, req)
		assert.Len(t, out.Modifiers(), tt.mods, "level %d", tt.level)
	}
}

func TestLunerim_StainsOnFireSkill(t *testing.T) {
	d := newDispatcher(t)
	st := battle.NewState(1)
	hero, foe := fighters()
	hero.Stains = [4]effect.Element{effect.ElementIce}

	req := request(effect.TriggerSkillUsed, st, hero, &foe)
	req.Weapon = effect.Weapon{Item: "Lunerim", Level: 10}
	req.Aux = effect.Aux{Element: effect.ElementFire, IsSkill: true, StainsConsumed: []effect.Element{effect.ElementIce, effect.ElementIce}}
	out := dispatch(d, req)

	require.Len(t, out.Results, 2)
	in := out.Intents()
	require.Len(t, in, 1)
	assert.Equal(t, [4]effect.Element{effect.ElementIce, effect.ElementFire}, in[0].Stains)
	mods := out.Modifiers()
	require.Len(t, mods, 1)
	assert.InDelta(t, 1.4, mods[0].Factor, 1e-9)
}

func TestVerleso_RankUpToS(t *testing.T) {
	d := newDispatcher(t)
	hero, foe := fighters()
	hero.Rank = effect.RankA

	st := battle.NewState(1)
	req := request(effect.TriggerBaseAttack, st, hero, &foe)
	req.Weapon = effect.Weapon{Item: "Verleso", Level: 4}
	out := dispatch(d, req)
	in := out.Intents()
	require.Len(t, in, 1)
	assert.Equal(t, string(effect.RankS), in[0].Value)

	hero.Rank = effect.RankS
	req = request(effect.TriggerBaseAttack, st, hero, &foe)
	req.Weapon = effect.Weapon{Item: "Verleso", Level: 20}
	out = dispatch(d, req)
	assert.Empty(t, out.Intents())
	require.Len(t, out.Modifiers(), 1)
	assert.Equal(t, damage.StageRank, out.Modifiers()[0].Stage)
}

func TestProtectingDeath_ShieldsLivingAllies(t *testing.T) {
	d := newDispatcher(t)
	st := battle.NewState(1)
	hero, foe := fighters()
	hero.HP = 0
	lune := effect.Character{ID: 2, Name: "Lune", HP: 50, MaxHP: 80}
	sciel := effect.Character{ID: 3, Name: "Sciel", HP: 0, MaxHP: 80}

	req := request(effect.TriggerDeath, st, hero, nil, "Protecting Death")
	req.Roster = []effect.Character{hero, lune, sciel, foe}
	out := dispatch(d, req)
	in := out.Intents()
	require.Len(t, in, 1)
	assert.Equal(t, lune.ID, in[0].Target)
	assert.Equal(t, effect.StatusShield, in[0].Status.Type)
}
