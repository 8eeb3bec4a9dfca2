package combat

import (
	"context"

	"github.com/pictoforge/server/internal/core/event"
	"github.com/pictoforge/server/internal/effect"
)

// Action describes an attack or skill use.
type Action struct {
	BattleID int64
	SourceID int64
	// TargetID is the primary target, 0 for none.
	TargetID int64
	// Power overrides the weapon's base power when positive.
	Power     int
	Critical  bool
	WeakPoint bool
	Element   effect.Element
	SkillID   string
	Aux       effect.Aux
}

// StartBattle fires battle-start for every living character in roster order.
func (o *Orchestrator) StartBattle(ctx context.Context, battleID int64) (*Outcome, error) {
	return o.run(ctx, battleID, effect.TriggerBattleStart, func(t *turn) error {
		for i := range t.roster {
			c := &t.roster[i]
			if !c.Alive() {
				continue
			}
			if err := t.fire(effect.TriggerBattleStart, c, nil, effect.Aux{}); err != nil {
				return err
			}
		}
		return nil
	})
}

// StartTurn hands the turn to the next character, clears their once-per-turn
// records and hit counter, then fires turn-start for them. Handlers see the
// character's statuses already ticked; the store moves the turn order in the
// same write as the trigger's intents, so a failed StartTurn leaves the turn
// where it was.
func (o *Orchestrator) StartTurn(ctx context.Context, battleID int64) (*Outcome, error) {
	return o.run(ctx, battleID, effect.TriggerTurnStart, func(t *turn) error {
		charID, err := o.store.NextTurn(t.ctx, battleID)
		if err != nil {
			return persistErr("next turn", err)
		}
		src, err := t.find(charID)
		if err != nil {
			return err
		}
		src.Statuses = effect.TickStatuses(src.Statuses)
		src.DamageTaken = effect.TickDamageTaken(src.DamageTaken)

		t.turnOf = charID
		t.out.ActorID = charID
		t.txn.ClearTurnFor(charID)
		t.txn.Reset(charID, hitsReceivedKey)
		if !src.Alive() {
			return nil
		}
		return t.fire(effect.TriggerTurnStart, src, nil, effect.Aux{})
	})
}

// EndBattle drops the battle's stacks and activation records once every
// queued trigger has run.
func (o *Orchestrator) EndBattle(ctx context.Context, battleID int64) error {
	if err := o.manager.Teardown(ctx, battleID); err != nil {
		return err
	}
	event.Publish(o.bus, event.BattleEnded{BattleID: battleID})
	return nil
}

// Fire dispatches trigger for one character. It serves the moments without
// a dedicated method, such as pass-turn, item-use and gradient-use.
func (o *Orchestrator) Fire(ctx context.Context, battleID int64, trigger effect.Trigger, sourceID, targetID int64, aux effect.Aux) (*Outcome, error) {
	return o.run(ctx, battleID, trigger, func(t *turn) error {
		src, err := t.find(sourceID)
		if err != nil {
			return err
		}
		target, err := t.findOpt(targetID)
		if err != nil {
			return err
		}
		t.out.ActorID = sourceID
		return t.fire(trigger, src, target, aux)
	})
}

// CriticalHit reports a critical hit landed outside an attack flow.
func (o *Orchestrator) CriticalHit(ctx context.Context, battleID, sourceID, targetID int64) (*Outcome, error) {
	return o.Fire(ctx, battleID, effect.TriggerCriticalHit, sourceID, targetID, effect.Aux{IsCritical: true})
}

// Dodge fires for the character that dodged attackerID's hit.
func (o *Orchestrator) Dodge(ctx context.Context, battleID, charID, attackerID int64) (*Outcome, error) {
	return o.Fire(ctx, battleID, effect.TriggerDodge, charID, attackerID, effect.Aux{})
}

// Parry fires for the character that parried attackerID's hit.
func (o *Orchestrator) Parry(ctx context.Context, battleID, charID, attackerID int64) (*Outcome, error) {
	return o.Fire(ctx, battleID, effect.TriggerParry, charID, attackerID, effect.Aux{})
}

// Kill fires for a killer whose victim died outside an attack flow.
func (o *Orchestrator) Kill(ctx context.Context, battleID, killerID, victimID int64) (*Outcome, error) {
	return o.Fire(ctx, battleID, effect.TriggerKill, killerID, victimID, effect.Aux{})
}

// Revive fires for a character that was just brought back.
func (o *Orchestrator) Revive(ctx context.Context, battleID, charID int64) (*Outcome, error) {
	return o.Fire(ctx, battleID, effect.TriggerRevive, charID, 0, effect.Aux{})
}

// ShieldBroken fires for the attacker that broke targetID's shield.
func (o *Orchestrator) ShieldBroken(ctx context.Context, battleID, attackerID, targetID int64) (*Outcome, error) {
	return o.Fire(ctx, battleID, effect.TriggerShieldBroken, attackerID, targetID, effect.Aux{})
}

func (o *Orchestrator) ShieldGained(ctx context.Context, battleID, charID int64) (*Outcome, error) {
	return o.Fire(ctx, battleID, effect.TriggerShieldGained, charID, 0, effect.Aux{Status: effect.StatusShield})
}

// MarkApplied fires for the character that marked targetID.
func (o *Orchestrator) MarkApplied(ctx context.Context, battleID, sourceID, targetID int64) (*Outcome, error) {
	return o.Fire(ctx, battleID, effect.TriggerMarkApplied, sourceID, targetID, effect.Aux{Status: effect.StatusMarked})
}

func (o *Orchestrator) StainConsumed(ctx context.Context, battleID, charID int64, stains []effect.Element) (*Outcome, error) {
	return o.Fire(ctx, battleID, effect.TriggerStainConsumed, charID, 0, effect.Aux{StainsConsumed: stains})
}

func (o *Orchestrator) StainGenerated(ctx context.Context, battleID, charID int64, stains []effect.Element) (*Outcome, error) {
	return o.Fire(ctx, battleID, effect.TriggerStainGenerated, charID, 0, effect.Aux{StainsGenerated: stains})
}

func (o *Orchestrator) TwilightStart(ctx context.Context, battleID, charID int64) (*Outcome, error) {
	return o.Fire(ctx, battleID, effect.TriggerTwilightStart, charID, 0, effect.Aux{Status: effect.StatusTwilight})
}

// Break fires for the character that broke targetID and records the break.
func (o *Orchestrator) Break(ctx context.Context, battleID, sourceID, targetID int64) (*Outcome, error) {
	return o.run(ctx, battleID, effect.TriggerBreak, func(t *turn) error {
		src, err := t.find(sourceID)
		if err != nil {
			return err
		}
		target, err := t.find(targetID)
		if err != nil {
			return err
		}
		t.out.ActorID = sourceID
		t.emit(effect.Break(targetID))
		return t.fire(effect.TriggerBreak, src, target, effect.Aux{})
	})
}

// Death fires for a character that fell outside an attack flow, for example
// to burn damage. A death-preventing effect leaves them at 1 HP.
func (o *Orchestrator) Death(ctx context.Context, battleID, charID int64) (*Outcome, error) {
	return o.run(ctx, battleID, effect.TriggerDeath, func(t *turn) error {
		victim, err := t.find(charID)
		if err != nil {
			return err
		}
		t.out.ActorID = charID
		from := len(t.out.Intents)
		out, err := t.dispatch(effect.TriggerDeath, victim, nil, effect.Aux{})
		if err != nil {
			return err
		}
		if out.PreventDeath() && victim.HP < 1 && !revives(out, charID) {
			t.emit(effect.Heal(charID, 1-victim.HP))
		}
		return t.cascade(victim, from)
	})
}

// HealAlly fires heal-ally for the healer and heal for the healed character.
func (o *Orchestrator) HealAlly(ctx context.Context, battleID, healerID, targetID int64, amount int) (*Outcome, error) {
	return o.run(ctx, battleID, effect.TriggerHealAlly, func(t *turn) error {
		healer, err := t.find(healerID)
		if err != nil {
			return err
		}
		target, err := t.find(targetID)
		if err != nil {
			return err
		}
		t.out.ActorID = healerID
		aux := effect.Aux{HealAmount: amount}
		from := len(t.out.Intents)
		if healerID != targetID {
			if _, err := t.dispatch(effect.TriggerHealAlly, healer, target, aux); err != nil {
				return err
			}
		}
		if _, err := t.dispatch(effect.TriggerHeal, target, healer, aux); err != nil {
			return err
		}
		return t.cascade(healer, from)
	})
}

// BaseAttack strikes the target once with the attacker's weapon.
func (o *Orchestrator) BaseAttack(ctx context.Context, a Action) (*Outcome, error) {
	return o.attack(ctx, effect.TriggerBaseAttack, a)
}

// FreeAim is a ranged shot; it can hit weak points.
func (o *Orchestrator) FreeAim(ctx context.Context, a Action) (*Outcome, error) {
	a.Aux.IsFreeAim = true
	return o.attack(ctx, effect.TriggerFreeAim, a)
}

// Counterattack strikes back at the attacker after a successful parry.
func (o *Orchestrator) Counterattack(ctx context.Context, a Action) (*Outcome, error) {
	a.Aux.IsCounter = true
	return o.attack(ctx, effect.TriggerCounterattack, a)
}

func (o *Orchestrator) attack(ctx context.Context, trigger effect.Trigger, a Action) (*Outcome, error) {
	return o.run(ctx, a.BattleID, trigger, func(t *turn) error {
		src, err := t.find(a.SourceID)
		if err != nil {
			return err
		}
		target, err := t.find(a.TargetID)
		if err != nil {
			return err
		}
		t.out.ActorID = a.SourceID
		if trigger != effect.TriggerCounterattack {
			t.breakStreaks(src.ID, "")
		}
		power, err := t.basePower(src, a.Power)
		if err != nil {
			return err
		}
		elem := a.Element
		if elem == effect.ElementNone {
			elem = t.weaponElement(src)
		}
		from := len(t.out.Intents)
		err = t.strike(strikeSpec{
			trigger:   trigger,
			src:       src,
			targets:   []*effect.Character{target},
			hits:      1,
			base:      power,
			traits:    hitTraits{element: elem},
			aux:       a.Aux,
			critical:  a.Critical,
			weakPoint: a.WeakPoint,
		})
		if err != nil {
			return err
		}
		return t.cascade(src, from)
	})
}

// fire dispatches one trigger and cascades the statuses it applied.
func (t *turn) fire(trigger effect.Trigger, src, target *effect.Character, aux effect.Aux) error {
	from := len(t.out.Intents)
	if _, err := t.dispatch(trigger, src, target, aux); err != nil {
		return err
	}
	return t.cascade(src, from)
}

func revives(out effect.Outcome, charID int64) bool {
	for _, in := range out.Intents() {
		if in.Kind == effect.IntentRevive && in.Target == charID {
			return true
		}
	}
	return false
}
