package combat

import (
	"context"

	"github.com/pictoforge/server/internal/effect"
	"github.com/pictoforge/server/internal/skill"
)

// Effect types a skill can carry besides status names.
const (
	skillEffectHeal   = "heal"
	skillEffectAP     = "ap"
	skillEffectDamage = "damage"
	skillEffectShield = "shield"
	skillEffectStain  = "stain"
)

// UseSkill resolves the skill, pays its costs, runs its archetype mechanics,
// strikes its targets when it deals damage, and applies its effects. An
// unknown skill or an unpaid cost fails before anything is written.
func (o *Orchestrator) UseSkill(ctx context.Context, a Action) (*Outcome, error) {
	return o.run(ctx, a.BattleID, effect.TriggerSkillUsed, func(t *turn) error {
		src, err := t.find(a.SourceID)
		if err != nil {
			return err
		}
		primary, err := t.findOpt(a.TargetID)
		if err != nil {
			return err
		}
		res, err := o.resolver.Resolve(a.SkillID, *src, primary, t.roster)
		if err != nil {
			return err
		}
		if err := res.CheckCost(*src, primary); err != nil {
			return err
		}
		t.out.ActorID = a.SourceID
		t.out.Skill = res
		return t.useSkill(src, primary, res, a)
	})
}

func (t *turn) useSkill(src, primary *effect.Character, res *skill.Resolved, a Action) error {
	sp := res.Special
	traits := hitTraits{
		skillRankBonus: sp.RankBonus,
		chargeScaling:  sp.ChargeScaling,
		lowHPScaling:   sp.LowHPScaling,
		element:        res.DamageType,
	}
	if a.Element != effect.ElementNone {
		traits.element = a.Element
	}

	ap := src.AP
	if cost := res.APCost(); cost > 0 {
		t.emit(effect.GrantAP(src.ID, -cost))
		ap -= cost
	}

	slots, consumed, generated := src.Stains, []effect.Element(nil), []effect.Element(nil)
	for _, name := range sp.ConsumesStains {
		if e, ok := effect.ParseElement(name); ok {
			var got []effect.Element
			slots, got = effect.ConsumeStains(slots, e, 1)
			consumed = append(consumed, got...)
		}
	}
	for _, name := range sp.GeneratesStains {
		if e, ok := effect.ParseElement(name); ok {
			var placed int
			if slots, placed = effect.AddStains(slots, e); placed > 0 {
				generated = append(generated, e)
			}
		}
	}
	if slots != src.Stains {
		t.emit(effect.SetStains(src.ID, slots))
	}
	traits.stainsConsumed = len(consumed)

	if sp.ConsumesForetell && primary != nil {
		traits.foretellStacks = primary.StatusAmount(effect.StatusForetell)
		t.emit(effect.RemoveStatus(primary.ID, effect.StatusForetell))
	}

	keep := ""
	if sp.Escalates {
		keep = res.SkillID
	}
	t.breakStreaks(src.ID, keep)
	if sp.Escalates {
		key := escalationKey + res.SkillID
		traits.escalationUses = t.txn.Get(src.ID, key)
		t.txn.Add(src.ID, key, escalationMaxUses)
	}

	if sp.PerHitAPCost > 0 {
		if extra := sp.PerHitAPCost * res.HitCount; ap >= extra {
			t.emit(effect.GrantAP(src.ID, -extra))
			traits.perHitPaid = true
		}
	}

	from := len(t.out.Intents)
	aux := a.Aux
	aux.IsSkill = true
	aux.SkillID = res.SkillID
	aux.StainsConsumed = consumed
	aux.StainsGenerated = generated

	power, err := t.basePower(src, a.Power)
	if err != nil {
		return err
	}
	if base := skill.CalculateHitDamage(res, power); base > 0 {
		var targets []*effect.Character
		for _, id := range res.Targets {
			if c, err := t.find(id); err == nil {
				targets = append(targets, c)
			}
		}
		err := t.strike(strikeSpec{
			trigger:   effect.TriggerSkillUsed,
			src:       src,
			targets:   targets,
			hits:      res.HitCount,
			base:      base,
			traits:    traits,
			aux:       aux,
			critical:  a.Critical,
			weakPoint: a.WeakPoint,
		})
		if err != nil {
			return err
		}
	} else {
		if _, err := t.dispatch(effect.TriggerSkillUsed, src, primary, aux); err != nil {
			return err
		}
	}

	for _, e := range res.Effects {
		t.emit(skillIntents(res.SkillID, e)...)
	}

	if len(consumed) > 0 {
		if _, err := t.dispatch(effect.TriggerStainConsumed, src, primary, aux); err != nil {
			return err
		}
	}
	if len(generated) > 0 {
		if _, err := t.dispatch(effect.TriggerStainGenerated, src, primary, aux); err != nil {
			return err
		}
	}
	return t.cascade(src, from)
}

// skillIntents maps one resolved skill effect to intents. The skill id is
// the intent source so applied statuses cascade like effect-made ones.
func skillIntents(skillID string, e skill.ResolvedEffect) []effect.Intent {
	var out []effect.Intent
	switch e.Type {
	case skillEffectHeal:
		out = append(out, effect.Heal(e.TargetID, e.Amount))
	case skillEffectAP:
		out = append(out, effect.GrantAP(e.TargetID, e.Amount))
	case skillEffectDamage:
		out = append(out, effect.Damage(e.TargetID, e.Amount))
	case skillEffectShield:
		out = append(out, effect.ApplyStatus(e.TargetID, effect.Permanent(effect.StatusShield, max(e.Amount, 1))))
	case skillEffectStain:
		// Stains are handled through the skill's special block.
	default:
		st, ok := effect.ParseStatusType(e.Type)
		if !ok {
			return nil
		}
		amount := max(e.Amount, 1)
		if e.Turns > 0 {
			out = append(out, effect.ApplyStatus(e.TargetID, effect.Timed(st, amount, e.Turns)))
		} else {
			out = append(out, effect.ApplyStatus(e.TargetID, effect.Permanent(st, amount)))
		}
	}
	for i := range out {
		out[i].Source = skillID
	}
	return out
}
