package combat

import (
	"github.com/pictoforge/server/internal/battle"
	"github.com/pictoforge/server/internal/damage"
	"github.com/pictoforge/server/internal/effect"
)

type strikeSpec struct {
	trigger effect.Trigger
	src     *effect.Character
	targets []*effect.Character
	hits    int
	// base is the damage of one hit before modifiers.
	base      int
	traits    hitTraits
	aux       effect.Aux
	critical  bool
	weakPoint bool
}

// strike runs the hit flow against every target: dispatch the action, build
// the modifier list, let shields soak hits, compose each remaining hit, and
// settle lethal damage before reporting damage dealt and taken.
func (t *turn) strike(s strikeSpec) error {
	if s.hits < 1 {
		s.hits = 1
	}
	for idx, target := range s.targets {
		if !target.Alive() {
			continue
		}
		aux := s.aux
		aux.HitIndex = idx
		aux.HitCount = s.hits
		aux.Element = s.traits.element
		aux.IsCritical = s.critical
		aux.IsWeakPoint = s.weakPoint
		aux.HitsReceived = t.txn.Get(s.src.ID, hitsReceivedKey)

		out, err := t.dispatch(s.trigger, s.src, target, aux)
		if err != nil {
			return err
		}
		if s.critical {
			crit, err := t.dispatch(effect.TriggerCriticalHit, s.src, target, aux)
			if err != nil {
				return err
			}
			out.Merge(crit)
		}
		if s.weakPoint {
			weak, err := t.dispatch(effect.TriggerWeakPoint, s.src, target, aux)
			if err != nil {
				return err
			}
			out.Merge(weak)
		}

		mods := append(sourceModifiers(s.src, target, s.traits), out.Modifiers()...)
		override, overridden := out.Override()
		report := HitReport{TargetID: target.ID, Hits: make([]int, s.hits), Overridden: overridden}

		shields := target.Shields()
		composed := false
		for h := 0; h < s.hits; h++ {
			t.txn.Add(target.ID, hitsReceivedKey, battle.NoMax)
			if shields > 0 {
				shields--
				report.Absorbed++
				continue
			}
			dmg := override
			if !overridden {
				b := damage.Compose(s.base, mods)
				if !composed {
					report.Breakdown = b
					composed = true
				}
				dmg = b.Final
			}
			report.Hits[h] = dmg
			report.Total += dmg
		}

		if report.Absorbed > 0 {
			t.emit(effect.RemoveStatus(target.ID, effect.StatusShield))
			if shields > 0 {
				t.emit(effect.ApplyStatus(target.ID, effect.Permanent(effect.StatusShield, shields)))
			} else if _, err := t.dispatch(effect.TriggerShieldBroken, s.src, target, aux); err != nil {
				return err
			}
		}

		if report.Total > 0 {
			if err := t.settle(s.src, target, aux, &report); err != nil {
				return err
			}
		}
		t.out.Hits = append(t.out.Hits, report)
	}
	return nil
}

// settle emits the damage intent and runs the lethal check. When a
// death-preventing effect answers, the damage is cut to leave the victim at
// 1 HP; the revive or heal intents it produced apply after it.
func (t *turn) settle(src, target *effect.Character, aux effect.Aux, report *HitReport) error {
	at := len(t.out.Intents)
	t.emit(effect.Damage(target.ID, report.Total))
	aux.Damage = report.Total

	if report.Total >= target.HP {
		report.Lethal = true
		death, err := t.dispatch(effect.TriggerDeath, target, src, aux)
		if err != nil {
			return err
		}
		if death.PreventDeath() {
			report.Prevented = true
			t.out.Intents[at].Amount = target.HP - 1
		} else if _, err := t.dispatch(effect.TriggerKill, src, target, aux); err != nil {
			return err
		}
	}

	if _, err := t.dispatch(effect.TriggerDamageDealt, src, target, aux); err != nil {
		return err
	}
	_, err := t.dispatch(effect.TriggerDamageTaken, target, src, aux)
	return err
}
