package catalog

import (
	"fmt"

	"github.com/pictoforge/server/internal/battle"
	"github.com/pictoforge/server/internal/damage"
	"github.com/pictoforge/server/internal/effect"
)

// Stack caps.
const (
	warmingUpMax = 5
	comboMax     = 3
)

func registerPictos(r *registrar) {
	registerOffensePictos(r)
	registerDefensePictos(r)
	registerResourcePictos(r)
	registerStatusPictos(r)
}

// ---------------------------------------------------------------------------
// Damage
// ---------------------------------------------------------------------------

func registerOffensePictos(r *registrar) {
	r.picto("Augmented Attack", effect.On(func(ctx *effect.Context) effect.Result {
		return boost(ctx, damage.StageStatusFlat, 1.5, "Augmented Attack: +50% base attack damage")
	}, effect.TriggerBaseAttack))

	r.picto("Augmented First Strike", onHit(oncePer(battle.OncePerBattle, func(ctx *effect.Context) effect.Result {
		return boost(ctx, damage.StageStatusFlat, 1.5, "Augmented First Strike: first hit of the battle +50%")
	})))

	r.picto("Augmented Counter", effect.On(func(ctx *effect.Context) effect.Result {
		return boost(ctx, damage.StageStatusFlat, 1.5, "Augmented Counter: +50% counterattack damage")
	}, effect.TriggerCounterattack))

	// One stack per turn, five at most; each stack adds 5% damage.
	r.picto("Warming Up", effect.HandlerFunc(func(ctx *effect.Context) effect.Result {
		switch {
		case ctx.Trigger == effect.TriggerTurnStart:
			n := ctx.Stack(warmingUpMax)
			return effect.Activated(stackMsg("Warming Up", n, warmingUpMax))
		case isHit(ctx.Trigger):
			n := ctx.State.Get(ctx.Source.ID, ctx.Key)
			if n == 0 {
				return effect.Skip()
			}
			return boost(ctx, damage.StageEscalation, 1+0.05*float64(n), stackMsg("Warming Up", n, warmingUpMax))
		}
		return effect.Skip()
	}))

	// Consecutive base attacks escalate; a skill breaks the combo.
	r.picto("Combo Attack", effect.HandlerFunc(func(ctx *effect.Context) effect.Result {
		switch ctx.Trigger {
		case effect.TriggerBaseAttack:
			n := ctx.State.Get(ctx.Source.ID, ctx.Key)
			if ctx.Aux.HitIndex == 0 {
				n = ctx.Stack(comboMax)
			}
			return boost(ctx, damage.StageEscalation, 1+0.1*float64(n), stackMsg("Combo Attack", n, comboMax))
		case effect.TriggerSkillUsed:
			if ctx.State.Get(ctx.Source.ID, ctx.Key) == 0 {
				return effect.Skip()
			}
			ctx.State.Reset(ctx.Source.ID, ctx.Key)
			return effect.Activated("Combo Attack: combo broken")
		}
		return effect.Skip()
	}))

	r.picto("Powered Attack", effect.On(oncePer(battle.OncePerTurn, func(ctx *effect.Context) effect.Result {
		if ctx.Source.AP < 1 {
			return effect.Skip()
		}
		return boost(ctx, damage.StageResourceConsumption, 1.2, "Powered Attack: 1 AP spent for +20% damage").
			WithIntents(effect.GrantAP(ctx.Source.ID, -1))
	}), effect.TriggerBaseAttack))

	r.picto("Burn Affinity", onHit(func(ctx *effect.Context) effect.Result {
		if ctx.Target == nil || !ctx.Target.HasStatus(effect.StatusBurn) {
			return effect.Skip()
		}
		return boost(ctx, damage.StageTargetCondition, 1.25, "Burn Affinity: +25% against burning target")
	}))

	r.picto("Critical Burn", effect.On(func(ctx *effect.Context) effect.Result {
		if ctx.Target == nil || !ctx.Target.HasStatus(effect.StatusBurn) {
			return effect.Skip()
		}
		return boost(ctx, damage.StageTargetCondition, 1.25, "Critical Burn: critical hit on a burning target")
	}, effect.TriggerCriticalHit))

	r.picto("Breaker", onHit(func(ctx *effect.Context) effect.Result {
		if ctx.Target == nil || !ctx.Target.HasStatus(effect.StatusBroken) {
			return effect.Skip()
		}
		return boost(ctx, damage.StageTargetCondition, 1.25, "Breaker: +25% against broken target")
	}))

	r.picto("Stun Boost", onHit(func(ctx *effect.Context) effect.Result {
		if ctx.Target == nil || !ctx.Target.HasStatus(effect.StatusStunned) {
			return effect.Skip()
		}
		return boost(ctx, damage.StageTargetCondition, 1.3, "Stun Boost: +30% against stunned target")
	}))

	r.picto("Glass Canon", effect.HandlerFunc(func(ctx *effect.Context) effect.Result {
		switch {
		case ctx.Trigger == effect.TriggerBattleStart:
			return effect.Activated("Glass Canon: damage taken +25%",
				effect.DamageModifier(ctx.Source.ID, 1.25, effect.ElementNone, 0))
		case isHit(ctx.Trigger):
			return boost(ctx, damage.StageStatusFlat, 1.25, "Glass Canon: +25% damage")
		}
		return effect.Skip()
	}))

	r.picto("Teamwork", onHit(func(ctx *effect.Context) effect.Result {
		for _, a := range ctx.Allies() {
			if !a.Alive() {
				return effect.Skip()
			}
		}
		return boost(ctx, damage.StageStatusFlat, 1.1, "Teamwork: +10% while every ally stands")
	}))

	r.picto("Solo Fighter", onHit(func(ctx *effect.Context) effect.Result {
		if !ctx.Alone() {
			return effect.Skip()
		}
		return boost(ctx, damage.StageStatusFlat, 1.5, "Solo Fighter: +50% when fighting alone")
	}))

	r.picto("Immaculate", onHit(func(ctx *effect.Context) effect.Result {
		if ctx.Source.HP < ctx.Source.MaxHP {
			return effect.Skip()
		}
		return boost(ctx, damage.StageLowResource, 1.3, "Immaculate: +30% at full health")
	}))

	// Fewer HP, harder hits: up to +50% at 1 HP.
	r.picto("Last Stand", onHit(func(ctx *effect.Context) effect.Result {
		p := ctx.Source.HPPercent()
		if p >= 50 {
			return effect.Skip()
		}
		return boost(ctx, damage.StageLowResource, 1+(50-p)/100, "Last Stand: low health scaling")
	}))

	r.picto("Tainted", onHit(func(ctx *effect.Context) effect.Result {
		n := 0
		for _, s := range ctx.Source.Statuses {
			if s.Type.IsDebuff() {
				n++
			}
		}
		if n == 0 {
			return effect.Skip()
		}
		return boost(ctx, damage.StageStatusFlat, 1+0.15*float64(n), "Tainted: +15% per debuff carried")
	}))

	r.picto("Inverted Affinity", effect.HandlerFunc(func(ctx *effect.Context) effect.Result {
		switch {
		case ctx.Trigger == effect.TriggerBattleStart:
			return effect.Activated("Inverted Affinity: inverted",
				effect.ApplyStatus(ctx.Source.ID, effect.Permanent(effect.StatusInverted, 1)))
		case isHit(ctx.Trigger) && ctx.Source.HasStatus(effect.StatusInverted):
			return boost(ctx, damage.StageStatusFlat, 1.3, "Inverted Affinity: +30% while inverted")
		}
		return effect.Skip()
	}))

	r.picto("Shield Affinity", onHit(func(ctx *effect.Context) effect.Result {
		n := ctx.Source.Shields()
		if n == 0 {
			return effect.Skip()
		}
		return flat(ctx, 5*n, "Shield Affinity: +5 damage per shield")
	}))

	r.picto("Retaliation", onHit(func(ctx *effect.Context) effect.Result {
		if ctx.Aux.HitsReceived == 0 {
			return effect.Skip()
		}
		return boost(ctx, damage.StageHitsReceived, 1+0.1*float64(ctx.Aux.HitsReceived), "Retaliation: +10% per hit received")
	}))

	// A free-aim shot finishes a target under a tenth of its health.
	r.picto("Last Word", effect.On(func(ctx *effect.Context) effect.Result {
		if ctx.Target == nil || !ctx.Target.Alive() || ctx.Target.HPPercent() >= 10 {
			return effect.Skip()
		}
		return effect.Activated("Last Word: finishing shot").WithOverride(ctx.Target.HP)
	}, effect.TriggerFreeAim))

	r.picto("Draining Cuts", effect.On(func(ctx *effect.Context) effect.Result {
		heal := ctx.Aux.Damage / 10
		if heal <= 0 {
			return effect.Skip()
		}
		return effect.Activated("Draining Cuts: 10% of damage dealt recovered", effect.Heal(ctx.Source.ID, heal))
	}, effect.TriggerDamageDealt))
}

// ---------------------------------------------------------------------------
// Survival
// ---------------------------------------------------------------------------

func registerDefensePictos(r *registrar) {
	r.picto("Second Chance", effect.On(oncePer(battle.OncePerBattle, func(ctx *effect.Context) effect.Result {
		res := effect.Activated("Second Chance: revived with full health", effect.Revive(ctx.Source.ID, 100))
		res.PreventDeath = true
		return res
	}), effect.TriggerDeath))

	r.picto("Survivor", effect.On(oncePer(battle.OncePerBattle, func(ctx *effect.Context) effect.Result {
		res := effect.Activated("Survivor: survived a fatal blow with 1 HP")
		res.PreventDeath = true
		return res
	}), effect.TriggerDeath))

	r.picto("Protecting Death", effect.On(func(ctx *effect.Context) effect.Result {
		var intents []effect.Intent
		for _, a := range ctx.Allies() {
			if a.ID != ctx.Source.ID && a.Alive() {
				intents = append(intents, effect.ApplyStatus(a.ID, effect.Permanent(effect.StatusShield, 1)))
			}
		}
		if len(intents) == 0 {
			return effect.Skip()
		}
		return effect.Activated("Protecting Death: allies shielded", intents...)
	}, effect.TriggerDeath))

	r.picto("Recovery", effect.On(func(ctx *effect.Context) effect.Result {
		if ctx.Source.HP >= ctx.Source.MaxHP {
			return effect.Skip()
		}
		return effect.Activated("Recovery: 10% health recovered", effect.HealPercent(ctx.Source.ID, 10))
	}, effect.TriggerTurnStart))

	r.picto("Healing Parry", effect.On(func(ctx *effect.Context) effect.Result {
		return effect.Activated("Healing Parry: 3% health recovered", effect.HealPercent(ctx.Source.ID, 3))
	}, effect.TriggerParry))

	r.picto("Healing Counter", effect.On(func(ctx *effect.Context) effect.Result {
		return effect.Activated("Healing Counter: 25% health recovered", effect.HealPercent(ctx.Source.ID, 25))
	}, effect.TriggerCounterattack))

	r.picto("Sweet Kill", effect.On(func(ctx *effect.Context) effect.Result {
		return effect.Activated("Sweet Kill: 20% health recovered", effect.HealPercent(ctx.Source.ID, 20))
	}, effect.TriggerKill))

	r.picto("SOS Power", effect.On(oncePer(battle.OncePerBattle, func(ctx *effect.Context) effect.Result {
		if ctx.Source.HPPercent() >= 50 {
			return effect.Skip()
		}
		return effect.Activated("SOS Power: powerful below half health",
			effect.ApplyStatus(ctx.Source.ID, effect.Timed(effect.StatusPowerful, 1, 3)))
	}), effect.TriggerTurnStart))

	r.picto("Lone Guard", effect.On(oncePer(battle.OncePerBattle, func(ctx *effect.Context) effect.Result {
		if !ctx.Alone() {
			return effect.Skip()
		}
		return effect.Activated("Lone Guard: last one standing",
			effect.ApplyStatus(ctx.Source.ID, effect.Timed(effect.StatusPowerful, 1, 3)),
			effect.ApplyStatus(ctx.Source.ID, effect.Permanent(effect.StatusShield, 1)),
		)
	}), effect.TriggerTurnStart))

	r.picto("Shielding Revive", effect.On(func(ctx *effect.Context) effect.Result {
		return effect.Activated("Shielding Revive: shield on revive",
			effect.ApplyStatus(ctx.Source.ID, effect.Permanent(effect.StatusShield, 1)))
	}, effect.TriggerRevive))

	r.picto("Accelerating Heal", effect.On(func(ctx *effect.Context) effect.Result {
		return effect.Activated("Accelerating Heal: rush on heal",
			effect.ApplyStatus(ctx.Source.ID, effect.Timed(effect.StatusRush, 1, 1)))
	}, effect.TriggerHeal))

	r.picto("Healing Boon", effect.On(func(ctx *effect.Context) effect.Result {
		return effect.Activated("Healing Boon: healer recovers 15%", effect.HealPercent(ctx.Source.ID, 15))
	}, effect.TriggerHealAlly))

	r.picto("Protected Shield", effect.On(func(ctx *effect.Context) effect.Result {
		return effect.Activated("Protected Shield: 5% health on shield gain", effect.HealPercent(ctx.Source.ID, 5))
	}, effect.TriggerShieldGained))

	r.picto("Great Healing Tint", effect.On(func(ctx *effect.Context) effect.Result {
		return effect.Activated("Great Healing Tint: +10% on item use", effect.HealPercent(ctx.Source.ID, 10))
	}, effect.TriggerItemUse))

	r.picto("Anti-Burn", effect.On(func(ctx *effect.Context) effect.Result {
		if ctx.Aux.Status != effect.StatusBurn {
			return effect.Skip()
		}
		return effect.Activated("Anti-Burn: burn removed", effect.RemoveStatus(ctx.Source.ID, effect.StatusBurn))
	}, effect.TriggerDebuffApplied))

	r.picto("Anti-Stun", effect.On(func(ctx *effect.Context) effect.Result {
		if ctx.Aux.Status != effect.StatusStunned {
			return effect.Skip()
		}
		return effect.Activated("Anti-Stun: stun removed", effect.RemoveStatus(ctx.Source.ID, effect.StatusStunned))
	}, effect.TriggerDebuffApplied))
}

// ---------------------------------------------------------------------------
// AP and resources
// ---------------------------------------------------------------------------

func grantAP(msg string, n int) effect.HandlerFunc {
	return func(ctx *effect.Context) effect.Result {
		return effect.Activated(msg, effect.GrantAP(ctx.Source.ID, n))
	}
}

func registerResourcePictos(r *registrar) {
	r.picto("Energising Start", effect.On(grantAP("Energising Start: +1 AP", 1), effect.TriggerBattleStart))
	r.picto("Energising Turn", effect.On(grantAP("Energising Turn: +1 AP", 1), effect.TriggerTurnStart))
	r.picto("Energising Parry", effect.On(grantAP("Energising Parry: +1 AP", 1), effect.TriggerParry))
	r.picto("Energising Break", effect.On(grantAP("Energising Break: +3 AP", 3), effect.TriggerBreak))
	r.picto("Dead Energy", effect.On(grantAP("Dead Energy: +3 AP", 3), effect.TriggerKill))
	r.picto("Pro Retreat", effect.On(grantAP("Pro Retreat: +2 AP", 2), effect.TriggerPassTurn))
	r.picto("Twilight Dancer", effect.On(grantAP("Twilight Dancer: +2 AP", 2), effect.TriggerTwilightStart))

	r.picto("Dodger", effect.On(oncePer(battle.OncePerTurn, grantAP("Dodger: +1 AP", 1)), effect.TriggerDodge))
	r.picto("Weakness Gain", effect.On(oncePer(battle.OncePerTurn, grantAP("Weakness Gain: +1 AP", 1)), effect.TriggerWeakPoint))
	r.picto("Energising Mark", effect.On(oncePer(battle.OncePerTurn, grantAP("Energising Mark: +1 AP", 1)), effect.TriggerMarkApplied))
	r.picto("Positive Energy", effect.On(oncePer(battle.OncePerTurn, grantAP("Positive Energy: +1 AP", 1)), effect.TriggerBuffApplied))
	r.picto("Shield Breaker", effect.On(oncePer(battle.OncePerTurn, grantAP("Shield Breaker: +1 AP", 1)), effect.TriggerShieldBroken))

	r.picto("Energy Master", effect.On(oncePer(battle.OncePerTurn, func(ctx *effect.Context) effect.Result {
		if ctx.Aux.APGained <= 0 {
			return effect.Skip()
		}
		return effect.Activated("Energy Master: +1 extra AP", effect.GrantAP(ctx.Source.ID, 1))
	}), effect.TriggerAPGain))

	r.picto("Stain Weaver", effect.On(oncePer(battle.OncePerTurn, func(ctx *effect.Context) effect.Result {
		if len(ctx.Aux.StainsConsumed) == 0 {
			return effect.Skip()
		}
		return effect.Activated("Stain Weaver: +1 AP on stain consumption", effect.GrantAP(ctx.Source.ID, 1))
	}), effect.TriggerStainConsumed))

	r.picto("Perfect Rank", effect.On(oncePer(battle.OncePerTurn, func(ctx *effect.Context) effect.Result {
		if ctx.Aux.NewRank != effect.RankS {
			return effect.Skip()
		}
		return effect.Activated("Perfect Rank: +2 AP at rank S", effect.GrantAP(ctx.Source.ID, 2))
	}), effect.TriggerRankChange))

	r.picto("Mask Keeper", effect.On(func(ctx *effect.Context) effect.Result {
		if ctx.Aux.NewMask == effect.MaskNone {
			return effect.Skip()
		}
		return effect.Activated("Mask Keeper: shield on mask change",
			effect.ApplyStatus(ctx.Source.ID, effect.Permanent(effect.StatusShield, 1)))
	}, effect.TriggerMaskChange))

	r.picto("Virtuose Charge", effect.On(oncePer(battle.OncePerTurn, func(ctx *effect.Context) effect.Result {
		if ctx.Aux.NewStance != effect.StanceVirtuose {
			return effect.Skip()
		}
		return effect.Activated("Virtuose Charge: +1 AP entering virtuose", effect.GrantAP(ctx.Source.ID, 1))
	}), effect.TriggerStanceChange))

	r.picto("Charging Attack", effect.On(func(ctx *effect.Context) effect.Result {
		if ctx.Source.MaxCharge == 0 || ctx.Source.FullCharge() || ctx.Aux.HitIndex != 0 {
			return effect.Skip()
		}
		return effect.Activated("Charging Attack: +2 charge",
			effect.SetCharge(ctx.Source.ID, addCharge(&ctx.Source, 2)))
	}, effect.TriggerBaseAttack))

	r.picto("Gradient Fighter", effect.On(func(ctx *effect.Context) effect.Result {
		return effect.Activated("Gradient Fighter: 10% health recovered", effect.HealPercent(ctx.Source.ID, 10))
	}, effect.TriggerGradientUse))
}

// ---------------------------------------------------------------------------
// Status application
// ---------------------------------------------------------------------------

func registerStatusPictos(r *registrar) {
	r.picto("Burning Shots", effect.On(func(ctx *effect.Context) effect.Result {
		id, ok := targetID(ctx)
		if !ok {
			return effect.Skip()
		}
		return effect.Activated("Burning Shots: target burns",
			effect.ApplyStatus(id, effect.Timed(effect.StatusBurn, 1, 3)))
	}, effect.TriggerFreeAim))

	r.picto("Marking Shots", effect.On(oncePer(battle.OncePerTurn, func(ctx *effect.Context) effect.Result {
		id, ok := targetID(ctx)
		if !ok {
			return effect.Skip()
		}
		return effect.Activated("Marking Shots: target marked",
			effect.ApplyStatus(id, effect.Timed(effect.StatusMarked, 1, 1)))
	}), effect.TriggerFreeAim))

	r.picto("Stay Marked", effect.On(oncePer(battle.OncePerTurn, func(ctx *effect.Context) effect.Result {
		if ctx.Target == nil || !ctx.Target.HasStatus(effect.StatusMarked) {
			return effect.Skip()
		}
		return effect.Activated("Stay Marked: mark refreshed",
			effect.ApplyStatus(ctx.Target.ID, effect.Timed(effect.StatusMarked, 1, 2)))
	}), effect.TriggerDamageDealt))

	r.picto("Exposing Break", effect.On(func(ctx *effect.Context) effect.Result {
		id, ok := targetID(ctx)
		if !ok {
			return effect.Skip()
		}
		return effect.Activated("Exposing Break: target defenceless",
			effect.ApplyStatus(id, effect.Timed(effect.StatusDefenceless, 1, 3)))
	}, effect.TriggerBreak))

	r.picto("Empowering Break", effect.On(func(ctx *effect.Context) effect.Result {
		return effect.Activated("Empowering Break: powerful",
			effect.ApplyStatus(ctx.Source.ID, effect.Timed(effect.StatusPowerful, 1, 3)))
	}, effect.TriggerBreak))

	r.picto("Critical Vulnerability", effect.On(func(ctx *effect.Context) effect.Result {
		id, ok := targetID(ctx)
		if !ok {
			return effect.Skip()
		}
		return effect.Activated("Critical Vulnerability: target defenceless",
			effect.ApplyStatus(id, effect.Timed(effect.StatusDefenceless, 1, 2)))
	}, effect.TriggerCriticalHit))

	// Three burn stacks mark the target.
	r.picto("Burning Mark", effect.On(func(ctx *effect.Context) effect.Result {
		if ctx.Target == nil || ctx.Target.StatusAmount(effect.StatusBurn) < 3 || ctx.Target.HasStatus(effect.StatusMarked) {
			return effect.Skip()
		}
		return effect.Activated("Burning Mark: target marked",
			effect.ApplyStatus(ctx.Target.ID, effect.Timed(effect.StatusMarked, 1, 1)))
	}, effect.TriggerBurnApplied))
}

func stackMsg(name string, n, limit int) string {
	return fmt.Sprintf("%s: %d/%d stacks", name, n, limit)
}
