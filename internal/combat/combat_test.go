package combat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pictoforge/server/internal/battle"
	"github.com/pictoforge/server/internal/catalog"
	"github.com/pictoforge/server/internal/core/event"
	"github.com/pictoforge/server/internal/data"
	"github.com/pictoforge/server/internal/effect"
	"github.com/pictoforge/server/internal/skill"
)

const testBattle = 42

type fakeStore struct {
	mu        sync.Mutex
	roster    []effect.Character
	loadouts  map[int64]Loadout
	turns     []int64
	next      int
	applied   []Batch
	failApply error
	// failures fails that many ApplyIntents calls before succeeding.
	failures int
	attempts []Batch
}

func (s *fakeStore) LoadRoster(_ context.Context, _ int64) ([]effect.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]effect.Character, len(s.roster))
	for i, c := range s.roster {
		out[i] = c.Clone()
	}
	return out, nil
}

func (s *fakeStore) LoadLoadout(_ context.Context, _, charID int64) (Loadout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadouts[charID], nil
}

func (s *fakeStore) ApplyIntents(_ context.Context, b Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.Intents = append([]effect.Intent(nil), b.Intents...)
	s.attempts = append(s.attempts, b)
	if s.failApply != nil {
		return s.failApply
	}
	if s.failures > 0 {
		s.failures--
		return errors.New("timeout")
	}
	if b.TurnOf != 0 {
		if next := s.turns[s.next%len(s.turns)]; next != b.TurnOf {
			return ErrTurnMoved
		}
		s.next++
	}
	s.applied = append(s.applied, b)
	return nil
}

func (s *fakeStore) NextTurn(_ context.Context, _ int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns[s.next%len(s.turns)], nil
}

func (s *fakeStore) batches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.applied)
}

type harness struct {
	orch    *Orchestrator
	store   *fakeStore
	manager *battle.Manager
	bus     *event.Bus
}

func testSkills() []data.SkillMetadata {
	return []data.SkillMetadata{
		{ID: "sweep", Name: "Sweep", TargetScope: data.ScopeAll, HitCount: 2,
			DamageLevel: data.DamageMedium, DamageType: "physical", APCost: 2},
		{ID: "mend", Name: "Mend", TargetScope: data.ScopeSingle, HitCount: 1,
			DamageLevel: data.DamageNone, APCost: 1,
			Effects: []data.SkillEffect{{Type: "heal", TargetType: data.TargetAlly, Amount: 30}}},
		{ID: "expensive", Name: "Expensive", TargetScope: data.ScopeSingle, HitCount: 1,
			DamageLevel: data.DamageHigh, APCost: 9},
		{ID: "crescendo", Name: "Crescendo", TargetScope: data.ScopeSingle, HitCount: 1,
			DamageLevel: data.DamageMedium, DamageType: "physical", APCost: 1,
			Special: data.Special{Escalates: true}},
	}
}

func newHarness(t *testing.T, extra func(reg *effect.Registry)) *harness {
	t.Helper()
	log := zap.NewNop()

	reg := effect.NewRegistry(log)
	require.NoError(t, catalog.Register(reg))
	if extra != nil {
		extra(reg)
	}

	store := &fakeStore{
		roster: []effect.Character{
			{ID: 1, Name: "Gustave", Archetype: effect.ArchetypeGustave, HP: 100, MaxHP: 100, AP: 5, MaxAP: 9},
			{ID: 2, Name: "Lune", Archetype: effect.ArchetypeLune, HP: 50, MaxHP: 100, AP: 2, MaxAP: 9},
			{ID: 8, Name: "Portier", Archetype: effect.ArchetypeEnemy, Hostile: true, HP: 300, MaxHP: 300},
			{ID: 9, Name: "Lancelier", Archetype: effect.ArchetypeEnemy, Hostile: true, HP: 300, MaxHP: 300},
		},
		loadouts: make(map[int64]Loadout),
		turns:    []int64{1},
	}

	m := battle.NewManager(16, 0, log)
	t.Cleanup(func() { _ = m.Close() })

	bus := event.NewBus()
	orch := NewOrchestrator(Deps{
		Manager:    m,
		Dispatcher: effect.NewDispatcher(reg, log),
		Resolver:   skill.NewResolver(data.NewSkillTable(testSkills()...), log),
		Weapons:    data.NewWeaponTable(),
		Store:      store,
		Bus:        bus,
		Log:        log,
	})
	return &harness{orch: orch, store: store, manager: m, bus: bus}
}

func (h *harness) equip(charID int64, pictos ...string) {
	h.store.loadouts[charID] = Loadout{CharacterID: charID, Pictos: pictos}
}

func (h *harness) character(id int64) *effect.Character {
	for i := range h.store.roster {
		if h.store.roster[i].ID == id {
			return &h.store.roster[i]
		}
	}
	return nil
}

func activated(out *Outcome, key string) bool {
	for _, r := range out.Results {
		if r.Key == key {
			return true
		}
	}
	return false
}

func findIntent(out *Outcome, kind effect.IntentKind, target int64) (effect.Intent, bool) {
	for _, in := range out.Intents {
		if in.Kind == kind && in.Target == target {
			return in, true
		}
	}
	return effect.Intent{}, false
}

func attack(src, target int64) Action {
	return Action{BattleID: testBattle, SourceID: src, TargetID: target, Power: 10}
}

func TestBaseAttack_ComposesEquippedModifiers(t *testing.T) {
	h := newHarness(t, nil)
	h.equip(1, "Augmented Attack")

	out, err := h.orch.BaseAttack(context.Background(), attack(1, 9))
	require.NoError(t, err)

	require.Len(t, out.Hits, 1)
	assert.Equal(t, 15, out.Hits[0].Total)
	assert.Equal(t, 15, out.TotalDamage())
	in, ok := findIntent(out, effect.IntentDamage, 9)
	require.True(t, ok)
	assert.Equal(t, 15, in.Amount)
	assert.Equal(t, 1, h.store.batches())
}

func TestPersistenceFailure_CommitsNothing(t *testing.T) {
	h := newHarness(t, nil)
	h.equip(1, "Powered Attack")
	dbErr := errors.New("connection reset")
	h.store.failApply = dbErr

	var resolved int
	event.Subscribe(h.bus, func(event.TriggerResolved) { resolved++ })

	_, err := h.orch.BaseAttack(context.Background(), attack(1, 9))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, dbErr)
	assert.Equal(t, 0, resolved, "events are dropped with the trigger")

	st, ok := h.manager.State(testBattle)
	require.True(t, ok)
	assert.True(t, st.CanActivate(1, "Powered Attack", battle.OncePerTurn))

	// Once the store recovers, the same activation is still available.
	h.store.failApply = nil
	out, err := h.orch.BaseAttack(context.Background(), attack(1, 9))
	require.NoError(t, err)
	assert.True(t, activated(out, "Powered Attack"))
	assert.Equal(t, 12, out.Hits[0].Total)
	assert.Equal(t, 1, resolved)

	out, err = h.orch.BaseAttack(context.Background(), attack(1, 9))
	require.NoError(t, err)
	assert.False(t, activated(out, "Powered Attack"), "once per turn")
}

func TestUseSkill_UnknownSkillWritesNothing(t *testing.T) {
	h := newHarness(t, nil)
	a := attack(1, 9)
	a.SkillID = "nope"

	_, err := h.orch.UseSkill(context.Background(), a)
	assert.ErrorIs(t, err, skill.ErrNotFound)
	assert.Equal(t, 0, h.store.batches())
}

func TestUseSkill_InsufficientAP(t *testing.T) {
	h := newHarness(t, nil)
	a := attack(1, 9)
	a.SkillID = "expensive"

	_, err := h.orch.UseSkill(context.Background(), a)
	assert.ErrorIs(t, err, skill.ErrInsufficientAP)
	assert.Equal(t, 0, h.store.batches())
}

func TestUseSkill_AllScopeStrikesEveryEnemy(t *testing.T) {
	h := newHarness(t, nil)
	a := attack(1, 9)
	a.SkillID = "sweep"

	out, err := h.orch.UseSkill(context.Background(), a)
	require.NoError(t, err)

	require.NotNil(t, out.Skill)
	require.Len(t, out.Hits, 2)
	for _, hit := range out.Hits {
		assert.Equal(t, []int{10, 10}, hit.Hits)
		assert.Equal(t, 20, hit.Total)
	}
	cost, ok := findIntent(out, effect.IntentGrantAP, 1)
	require.True(t, ok)
	assert.Equal(t, -2, cost.Amount)
}

func TestUseSkill_ShieldAbsorbsOneHit(t *testing.T) {
	h := newHarness(t, nil)
	h.character(9).Statuses = []effect.StatusEffect{effect.Permanent(effect.StatusShield, 1)}
	a := attack(1, 9)
	a.SkillID = "sweep"

	out, err := h.orch.UseSkill(context.Background(), a)
	require.NoError(t, err)

	var shielded HitReport
	for _, hit := range out.Hits {
		if hit.TargetID == 9 {
			shielded = hit
		}
	}
	assert.Equal(t, 1, shielded.Absorbed)
	assert.Equal(t, []int{0, 10}, shielded.Hits)
	assert.Equal(t, 10, shielded.Total)
	_, ok := findIntent(out, effect.IntentRemoveStatus, 9)
	assert.True(t, ok)
}

func TestUseSkill_EffectsBecomeIntents(t *testing.T) {
	h := newHarness(t, nil)
	a := attack(1, 2)
	a.SkillID = "mend"

	out, err := h.orch.UseSkill(context.Background(), a)
	require.NoError(t, err)

	assert.Empty(t, out.Hits)
	heal, ok := findIntent(out, effect.IntentHeal, 2)
	require.True(t, ok)
	assert.Equal(t, 30, heal.Amount)
	assert.Equal(t, "mend", heal.Source)
}

func TestLethalHit_SecondChanceOncePerBattle(t *testing.T) {
	h := newHarness(t, nil)
	h.equip(1, "Second Chance")
	h.character(1).HP = 10
	hit := Action{BattleID: testBattle, SourceID: 9, TargetID: 1, Power: 50}

	out, err := h.orch.BaseAttack(context.Background(), hit)
	require.NoError(t, err)
	require.Len(t, out.Hits, 1)
	assert.True(t, out.Hits[0].Lethal)
	assert.True(t, out.Hits[0].Prevented)
	dmg, ok := findIntent(out, effect.IntentDamage, 1)
	require.True(t, ok)
	assert.Equal(t, 9, dmg.Amount)
	_, ok = findIntent(out, effect.IntentRevive, 1)
	assert.True(t, ok)

	out, err = h.orch.BaseAttack(context.Background(), hit)
	require.NoError(t, err)
	assert.True(t, out.Hits[0].Lethal)
	assert.False(t, out.Hits[0].Prevented)
	dmg, _ = findIntent(out, effect.IntentDamage, 1)
	assert.Equal(t, 50, dmg.Amount)
}

func TestEndBattle_ResetsState(t *testing.T) {
	h := newHarness(t, nil)
	h.equip(1, "Second Chance")
	h.character(1).HP = 10
	hit := Action{BattleID: testBattle, SourceID: 9, TargetID: 1, Power: 50}

	ended := make(chan int64, 1)
	event.Subscribe(h.bus, func(ev event.BattleEnded) { ended <- ev.BattleID })

	_, err := h.orch.BaseAttack(context.Background(), hit)
	require.NoError(t, err)
	require.NoError(t, h.orch.EndBattle(context.Background(), testBattle))
	assert.Equal(t, int64(testBattle), <-ended)

	out, err := h.orch.BaseAttack(context.Background(), hit)
	require.NoError(t, err)
	assert.True(t, out.Hits[0].Prevented, "a new battle starts with fresh records")
}

func TestStartTurn_ClearsOncePerTurn(t *testing.T) {
	h := newHarness(t, nil)
	h.equip(1, "Powered Attack", "Energising Turn")
	ctx := context.Background()

	out, err := h.orch.BaseAttack(ctx, attack(1, 9))
	require.NoError(t, err)
	require.True(t, activated(out, "Powered Attack"))

	out, err = h.orch.StartTurn(ctx, testBattle)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.ActorID)
	assert.True(t, activated(out, "Energising Turn"))
	ap, ok := findIntent(out, effect.IntentGrantAP, 1)
	require.True(t, ok)
	assert.Equal(t, 1, ap.Amount)

	out, err = h.orch.BaseAttack(ctx, attack(1, 9))
	require.NoError(t, err)
	assert.True(t, activated(out, "Powered Attack"))
}

func TestCascade_DebuffAppliedReachesBearer(t *testing.T) {
	h := newHarness(t, nil)
	h.equip(1, "Burning Shots")
	h.equip(9, "Anti-Burn")

	out, err := h.orch.FreeAim(context.Background(), attack(1, 9))
	require.NoError(t, err)

	burn, ok := findIntent(out, effect.IntentApplyStatus, 9)
	require.True(t, ok)
	assert.Equal(t, effect.StatusBurn, burn.Status.Type)
	removed, ok := findIntent(out, effect.IntentRemoveStatus, 9)
	require.True(t, ok)
	assert.Equal(t, "Anti-Burn", removed.Source)
}

func TestHandlerPanic_BecomesNotice(t *testing.T) {
	h := newHarness(t, func(reg *effect.Registry) {
		require.NoError(t, reg.RegisterPictoEffect("Boom", effect.On(func(*effect.Context) effect.Result {
			panic("bad table")
		}, effect.TriggerBaseAttack)))
	})
	h.equip(1, "Boom", "Augmented Attack")

	var notices []string
	event.Subscribe(h.bus, func(ev event.EffectFailed) { notices = append(notices, ev.Notice) })

	out, err := h.orch.BaseAttack(context.Background(), attack(1, 9))
	require.NoError(t, err)
	assert.Equal(t, []string{"effect failed: Boom"}, out.Notices())
	assert.Equal(t, []string{"effect failed: Boom"}, notices)
	assert.Equal(t, 15, out.Hits[0].Total, "other effects still apply")
}

func TestUnknownCharacter(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.orch.BaseAttack(context.Background(), attack(77, 9))
	assert.ErrorIs(t, err, ErrUnknownCharacter)
}

func TestApplyIntents_RetriesSameBatch(t *testing.T) {
	h := newHarness(t, nil)
	h.orch.applyRetries = 2
	h.store.failures = 1

	_, err := h.orch.BaseAttack(context.Background(), attack(1, 9))
	require.NoError(t, err)

	require.Len(t, h.store.attempts, 2)
	assert.Equal(t, h.store.attempts[0], h.store.attempts[1])
	require.Len(t, h.store.applied, 1)

	_, err = h.orch.BaseAttack(context.Background(), attack(1, 9))
	require.NoError(t, err)
	require.Len(t, h.store.applied, 2)
	assert.Equal(t, h.store.applied[0].Epoch, h.store.applied[1].Epoch)
	assert.Greater(t, h.store.applied[1].Seq, h.store.applied[0].Seq)
	assert.Equal(t, effect.TriggerBaseAttack, h.store.applied[1].Trigger)
}

func TestStartTurn_FailedWriteKeepsTurn(t *testing.T) {
	h := newHarness(t, nil)
	h.store.turns = []int64{1, 2}
	h.equip(1, "Energising Turn")
	ctx := context.Background()

	h.store.failApply = errors.New("db down")
	_, err := h.orch.StartTurn(ctx, testBattle)
	require.ErrorIs(t, err, ErrPersistence)

	h.store.failApply = nil
	out, err := h.orch.StartTurn(ctx, testBattle)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.ActorID, "the failed turn start is retried for the same character")
	assert.True(t, activated(out, "Energising Turn"))
	require.Len(t, h.store.applied, 1)
	assert.Equal(t, int64(1), h.store.applied[0].TurnOf)

	out, err = h.orch.StartTurn(ctx, testBattle)
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.ActorID)
}

func TestStartTurn_HandlersSeeTickedStatuses(t *testing.T) {
	var seen []effect.StatusEffect
	h := newHarness(t, func(reg *effect.Registry) {
		require.NoError(t, reg.RegisterPictoEffect("Watcher", effect.On(func(ctx *effect.Context) effect.Result {
			seen = ctx.Source.Statuses
			return effect.Skip()
		}, effect.TriggerTurnStart)))
	})
	h.equip(1, "Watcher")
	h.character(1).Statuses = []effect.StatusEffect{
		effect.Timed(effect.StatusRush, 1, 2),
		{Type: effect.StatusSlow, Amount: 1, Turns: intPtr(1)},
	}

	_, err := h.orch.StartTurn(context.Background(), testBattle)
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, effect.StatusRush, seen[0].Type)
	assert.False(t, seen[0].SkipDecrement)
}

func TestShieldBroken_OnlyWhenLastShieldGoes(t *testing.T) {
	h := newHarness(t, nil)
	h.equip(1, "Shield Breaker")
	h.character(9).Statuses = []effect.StatusEffect{effect.Permanent(effect.StatusShield, 2)}
	h.character(8).Statuses = []effect.StatusEffect{effect.Permanent(effect.StatusShield, 1)}
	ctx := context.Background()

	out, err := h.orch.BaseAttack(ctx, attack(1, 9))
	require.NoError(t, err)
	assert.Equal(t, 1, out.Hits[0].Absorbed)
	assert.False(t, activated(out, "Shield Breaker"), "one shield left")
	shield, ok := findIntent(out, effect.IntentApplyStatus, 9)
	require.True(t, ok)
	assert.Equal(t, 1, shield.Status.Amount)

	out, err = h.orch.BaseAttack(ctx, attack(1, 8))
	require.NoError(t, err)
	assert.True(t, activated(out, "Shield Breaker"))
}

func TestHandlerPanic_ReleasesActivation(t *testing.T) {
	h := newHarness(t, func(reg *effect.Registry) {
		require.NoError(t, reg.RegisterPictoEffect("Fragile", effect.On(func(ctx *effect.Context) effect.Result {
			if ctx.Once(battle.OncePerBattle) {
				panic("missing revive table")
			}
			return effect.Skip()
		}, effect.TriggerBaseAttack)))
	})
	h.equip(1, "Fragile")

	out, err := h.orch.BaseAttack(context.Background(), attack(1, 9))
	require.NoError(t, err)
	require.Len(t, out.Failures, 1)

	st, ok := h.manager.State(testBattle)
	require.True(t, ok)
	assert.True(t, st.CanActivate(1, "Fragile", battle.OncePerBattle))
}

func TestEscalation_BrokenByOtherActions(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	crescendo := attack(1, 9)
	crescendo.SkillID = "crescendo"

	hit := func() int {
		t.Helper()
		out, err := h.orch.UseSkill(ctx, crescendo)
		require.NoError(t, err)
		require.Len(t, out.Hits, 1)
		return out.Hits[0].Total
	}

	assert.Equal(t, 10, hit())
	assert.Equal(t, 12, hit())
	assert.Equal(t, 15, hit())

	_, err := h.orch.BaseAttack(ctx, attack(1, 9))
	require.NoError(t, err)
	assert.Equal(t, 10, hit(), "a base attack ends the streak")
	assert.Equal(t, 12, hit())

	_, err = h.orch.UseSkill(ctx, Action{BattleID: testBattle, SourceID: 1, TargetID: 9, Power: 10, SkillID: "sweep"})
	require.NoError(t, err)
	assert.Equal(t, 10, hit(), "another skill ends the streak")
}

func intPtr(v int) *int { return &v }
