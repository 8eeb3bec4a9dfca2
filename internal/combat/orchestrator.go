// Package combat binds game moments to the effect engine: it snapshots the
// battle, dispatches equipped effects, composes damage, and hands the
// resulting intents to the store.
package combat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pictoforge/server/internal/battle"
	"github.com/pictoforge/server/internal/core/event"
	"github.com/pictoforge/server/internal/data"
	"github.com/pictoforge/server/internal/effect"
	"github.com/pictoforge/server/internal/skill"
)

// defaultPower is the base hit power when neither the caller nor the
// equipped weapon provides one.
const defaultPower = 10

// Stack names the orchestrator keeps per character.
const (
	hitsReceivedKey = "hits-received"
	escalationKey   = "escalation:"
)

// Deps wires an Orchestrator.
type Deps struct {
	Manager    *battle.Manager
	Dispatcher *effect.Dispatcher
	Resolver   *skill.Resolver
	Weapons    *data.WeaponTable
	Store      Store
	Bus        *event.Bus
	Log        *zap.Logger

	// PersistTimeout bounds every store round trip of one trigger. Zero
	// means no deadline.
	PersistTimeout time.Duration
	// ApplyRetries is how many times a failed ApplyIntents is retried with
	// the same batch before the trigger fails.
	ApplyRetries int
}

// Orchestrator exposes one method per game moment.
type Orchestrator struct {
	manager        *battle.Manager
	dispatcher     *effect.Dispatcher
	resolver       *skill.Resolver
	weapons        *data.WeaponTable
	store          Store
	bus            *event.Bus
	persistTimeout time.Duration
	applyRetries   int
	log            *zap.Logger

	// escalating holds the ids of skills with a consecutive-use streak.
	escalating []string
}

func NewOrchestrator(d Deps) *Orchestrator {
	var escalating []string
	if d.Resolver != nil {
		escalating = d.Resolver.Escalating()
	}
	return &Orchestrator{
		manager:        d.Manager,
		dispatcher:     d.Dispatcher,
		resolver:       d.Resolver,
		weapons:        d.Weapons,
		store:          d.Store,
		bus:            d.Bus,
		persistTimeout: d.PersistTimeout,
		applyRetries:   d.ApplyRetries,
		log:            d.Log,
		escalating:     escalating,
	}
}

// turn is the working set of one trigger while it runs on the battle worker.
type turn struct {
	o        *Orchestrator
	ctx      context.Context
	battleID int64
	txn      *battle.Txn
	roster   []effect.Character
	loadouts map[int64]Loadout
	batch    *event.Batch
	out      *Outcome

	// turnOf is the character whose turn this trigger starts, 0 for none.
	turnOf int64
}

// run resolves one trigger on the battle's worker. Stack and activation
// changes and events are committed only after the store accepted every
// intent; any failure discards them.
func (o *Orchestrator) run(ctx context.Context, battleID int64, trigger effect.Trigger, fn func(t *turn) error) (*Outcome, error) {
	var result *Outcome
	err := o.manager.Submit(ctx, battleID, func(st *battle.State) error {
		// Once started, a trigger runs to completion even if the caller
		// gives up waiting.
		pctx := context.WithoutCancel(ctx)
		if o.persistTimeout > 0 {
			var cancel context.CancelFunc
			pctx, cancel = context.WithTimeout(pctx, o.persistTimeout)
			defer cancel()
		}

		t := &turn{
			o:        o,
			ctx:      pctx,
			battleID: battleID,
			txn:      st.Begin(),
			loadouts: make(map[int64]Loadout),
			batch:    o.bus.NewBatch(),
			out:      &Outcome{BattleID: battleID, Trigger: trigger},
		}

		err := t.resolve(fn)
		if err == nil && (len(t.out.Intents) > 0 || t.turnOf != 0) {
			err = o.apply(pctx, Batch{
				BattleID: battleID,
				Epoch:    st.Epoch,
				Seq:      st.NextBatch(),
				Trigger:  trigger,
				Intents:  t.out.Intents,
				TurnOf:   t.turnOf,
			})
		}
		if err != nil {
			t.txn.Discard()
			t.batch.Discard()
			if errors.Is(err, ErrPersistence) {
				o.log.Error("trigger not persisted",
					zap.Int64("battle", battleID),
					zap.String("trigger", string(trigger)),
					zap.Int("intents", len(t.out.Intents)),
					zap.Error(err),
				)
			}
			return err
		}
		t.txn.Commit()

		event.Emit(t.batch, event.TriggerResolved{
			BattleID: battleID,
			Trigger:  string(trigger),
			Results:  len(t.out.Results),
			Failures: len(t.out.Failures),
			Intents:  len(t.out.Intents),
		})
		t.batch.Flush()
		result = t.out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// apply sends the batch, retrying with the identical batch so the store can
// recognise a retry of a write that landed.
func (o *Orchestrator) apply(ctx context.Context, b Batch) error {
	var err error
	for attempt := 0; attempt <= o.applyRetries; attempt++ {
		if err = o.store.ApplyIntents(ctx, b); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
		o.log.Warn("apply intents failed",
			zap.Int64("battle", b.BattleID),
			zap.Int64("seq", b.Seq),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return persistErr("apply intents", err)
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

func (t *turn) resolve(fn func(t *turn) error) error {
	roster, err := t.o.store.LoadRoster(t.ctx, t.battleID)
	if err != nil {
		return persistErr("load roster", err)
	}
	t.roster = roster
	return fn(t)
}

// breakStreaks ends charID's consecutive-use streak on every escalating skill
// other than keep.
func (t *turn) breakStreaks(charID int64, keep string) {
	for _, id := range t.o.escalating {
		if id != keep && t.txn.Get(charID, escalationKey+id) > 0 {
			t.txn.Reset(charID, escalationKey+id)
		}
	}
}

func (t *turn) find(id int64) (*effect.Character, error) {
	for i := range t.roster {
		if t.roster[i].ID == id {
			return &t.roster[i], nil
		}
	}
	return nil, fmt.Errorf("battle %d: character %d: %w", t.battleID, id, ErrUnknownCharacter)
}

// findOpt is find for optional targets; id 0 means none.
func (t *turn) findOpt(id int64) (*effect.Character, error) {
	if id == 0 {
		return nil, nil
	}
	return t.find(id)
}

func (t *turn) loadout(charID int64) (Loadout, error) {
	if lo, ok := t.loadouts[charID]; ok {
		return lo, nil
	}
	lo, err := t.o.store.LoadLoadout(t.ctx, t.battleID, charID)
	if err != nil {
		return Loadout{}, persistErr(fmt.Sprintf("load loadout %d", charID), err)
	}
	t.loadouts[charID] = lo
	return lo, nil
}

// dispatch runs src's pictos, luminas and weapon passives for trigger and
// folds the outcome into the trigger's result.
func (t *turn) dispatch(trigger effect.Trigger, src, target *effect.Character, aux effect.Aux) (effect.Outcome, error) {
	lo, err := t.loadout(src.ID)
	if err != nil {
		return effect.Outcome{}, err
	}
	out := t.o.dispatcher.Dispatch(effect.Request{
		Trigger:  trigger,
		BattleID: t.battleID,
		Source:   *src,
		Target:   target,
		Roster:   t.roster,
		Aux:      aux,
		Txn:      t.txn,
		Keys:     lo.Keys(),
		Weapon:   lo.Weapon,
	})

	for _, r := range out.Results {
		event.Emit(t.batch, event.EffectActivated{
			BattleID:    t.battleID,
			CharacterID: src.ID,
			Trigger:     string(trigger),
			Key:         r.Key,
			Message:     r.Message,
		})
	}
	for _, f := range out.Failures {
		event.Emit(t.batch, event.EffectFailed{
			BattleID: t.battleID,
			Trigger:  string(trigger),
			Key:      f.Key,
			Reason:   f.Reason,
			Notice:   f.Notice(),
		})
	}

	t.out.merge(out)
	if out.ExtraTurn() {
		t.out.Intents = append(t.out.Intents, effect.ExtraTurn(src.ID))
	}
	return out, nil
}

func (t *turn) emit(in ...effect.Intent) {
	t.out.Intents = append(t.out.Intents, in...)
}

// basePower picks the hit power: the caller's value, else the equipped
// weapon's, else defaultPower.
func (t *turn) basePower(src *effect.Character, power int) (int, error) {
	if power > 0 {
		return power, nil
	}
	lo, err := t.loadout(src.ID)
	if err != nil {
		return 0, err
	}
	if t.o.weapons != nil && lo.Weapon.Item != "" {
		if w := t.o.weapons.Get(lo.Weapon.Item); w != nil && w.BasePower > 0 {
			return w.BasePower, nil
		}
	}
	return defaultPower, nil
}

// weaponElement returns the element of src's weapon, ElementPhysical when
// unknown.
func (t *turn) weaponElement(src *effect.Character) effect.Element {
	lo, err := t.loadout(src.ID)
	if err != nil || t.o.weapons == nil {
		return effect.ElementPhysical
	}
	if w := t.o.weapons.Get(lo.Weapon.Item); w != nil {
		if e, ok := effect.ParseElement(w.Element); ok && e != effect.ElementNone {
			return e
		}
	}
	return effect.ElementPhysical
}
