package catalog

import (
	"github.com/pictoforge/server/internal/battle"
	"github.com/pictoforge/server/internal/damage"
	"github.com/pictoforge/server/internal/effect"
)

func registerWeapons(r *registrar) {
	registerGustaveWeapons(r)
	registerLuneWeapons(r)
	registerMaelleWeapons(r)
	registerScielWeapons(r)
	registerVersoWeapons(r)
	registerMonocoWeapons(r)
}

// Gustave: overcharge meter.
func registerGustaveWeapons(r *registrar) {
	r.weapon("Noahram", effect.WeaponLevel4, effect.On(func(ctx *effect.Context) effect.Result {
		if ctx.Source.FullCharge() || ctx.Aux.HitIndex != 0 {
			return effect.Skip()
		}
		return effect.Activated("Noahram: +2 charge on base attack",
			effect.SetCharge(ctx.Source.ID, addCharge(&ctx.Source, 2)))
	}, effect.TriggerBaseAttack))

	r.weapon("Noahram", effect.WeaponLevel10, onHit(func(ctx *effect.Context) effect.Result {
		if ctx.Source.Charge == 0 {
			return effect.Skip()
		}
		return flat(ctx, ctx.Source.Charge, "Noahram: charge adds flat damage")
	}))

	r.weapon("Noahram", effect.WeaponLevel20, effect.On(func(ctx *effect.Context) effect.Result {
		if !ctx.Source.FullCharge() {
			return effect.Skip()
		}
		return effect.Activated("Noahram: +1 AP at full charge", effect.GrantAP(ctx.Source.ID, 1))
	}, effect.TriggerTurnStart))

	r.weapon("Chevalam", effect.WeaponLevel4, effect.On(func(ctx *effect.Context) effect.Result {
		if ctx.Source.MaxCharge == 0 {
			return effect.Skip()
		}
		return effect.Activated("Chevalam: battle starts half charged",
			effect.SetCharge(ctx.Source.ID, ctx.Source.MaxCharge/2))
	}, effect.TriggerBattleStart))

	r.weapon("Chevalam", effect.WeaponLevel10, effect.On(func(ctx *effect.Context) effect.Result {
		return effect.Activated("Chevalam: +3 charge on parry",
			effect.SetCharge(ctx.Source.ID, addCharge(&ctx.Source, 3)))
	}, effect.TriggerParry))

	r.weapon("Chevalam", effect.WeaponLevel20, effect.On(oncePer(battle.OncePerTurn, func(ctx *effect.Context) effect.Result {
		return effect.Activated("Chevalam: fully charged on kill",
			effect.SetCharge(ctx.Source.ID, ctx.Source.MaxCharge))
	}), effect.TriggerKill))
}

// Lune: elemental stains.
func registerLuneWeapons(r *registrar) {
	r.weapon("Lunerim", effect.WeaponLevel4, effect.On(oncePer(battle.OncePerTurn, func(ctx *effect.Context) effect.Result {
		if ctx.Aux.Element != effect.ElementFire {
			return effect.Skip()
		}
		slots, n := effect.AddStains(ctx.Source.Stains, effect.ElementFire)
		if n == 0 {
			return effect.Skip()
		}
		return effect.Activated("Lunerim: fire skill leaves a fire stain", effect.SetStains(ctx.Source.ID, slots))
	}), effect.TriggerSkillUsed))

	r.weapon("Lunerim", effect.WeaponLevel10, effect.On(func(ctx *effect.Context) effect.Result {
		n := len(ctx.Aux.StainsConsumed)
		if n == 0 {
			return effect.Skip()
		}
		return boost(ctx, damage.StageConsumptionCount, 1+0.2*float64(n), "Lunerim: +20% per stain consumed")
	}, effect.TriggerSkillUsed))

	r.weapon("Lunerim", effect.WeaponLevel20, effect.On(oncePer(battle.OncePerTurn,
		grantAP("Lunerim: +1 AP on stain consumption", 1)), effect.TriggerStainConsumed))

	r.weapon("Trebuchim", effect.WeaponLevel4, effect.On(func(ctx *effect.Context) effect.Result {
		slots, n := effect.AddStains(ctx.Source.Stains, effect.ElementIce)
		if n == 0 {
			return effect.Skip()
		}
		return effect.Activated("Trebuchim: battle starts with an ice stain", effect.SetStains(ctx.Source.ID, slots))
	}, effect.TriggerBattleStart))

	r.weapon("Trebuchim", effect.WeaponLevel10, onHit(func(ctx *effect.Context) effect.Result {
		if ctx.Target == nil || !ctx.Target.HasStatus(effect.StatusFrozen) {
			return effect.Skip()
		}
		return boost(ctx, damage.StageTargetCondition, 1.25, "Trebuchim: +25% against frozen target")
	}))

	r.weapon("Trebuchim", effect.WeaponLevel20, effect.On(func(ctx *effect.Context) effect.Result {
		if ctx.Source.ActiveStains() < len(ctx.Source.Stains) {
			return effect.Skip()
		}
		return effect.Activated("Trebuchim: every stain slot filled",
			effect.ApplyStatus(ctx.Source.ID, effect.Timed(effect.StatusPowerful, 1, 1)))
	}, effect.TriggerTurnStart))
}

// Maelle: stances.
func registerMaelleWeapons(r *registrar) {
	r.weapon("Maellum", effect.WeaponLevel4, effect.On(func(ctx *effect.Context) effect.Result {
		return effect.Activated("Maellum: battle starts in offensive stance",
			effect.SetStance(ctx.Source.ID, effect.StanceOffensive))
	}, effect.TriggerBattleStart))

	r.weapon("Maellum", effect.WeaponLevel10, onHit(func(ctx *effect.Context) effect.Result {
		if ctx.Source.Stance != effect.StanceVirtuose {
			return effect.Skip()
		}
		return boost(ctx, damage.StageSpecialState, 1.2, "Maellum: +20% in virtuose stance")
	}))

	r.weapon("Maellum", effect.WeaponLevel20, effect.On(oncePer(battle.OncePerTurn, func(ctx *effect.Context) effect.Result {
		if ctx.Aux.NewStance != effect.StanceVirtuose {
			return effect.Skip()
		}
		return effect.Activated("Maellum: +1 AP entering virtuose", effect.GrantAP(ctx.Source.ID, 1))
	}), effect.TriggerStanceChange))

	r.weapon("Duenum", effect.WeaponLevel4, effect.On(func(ctx *effect.Context) effect.Result {
		if ctx.Source.Stance == effect.StanceVirtuose {
			return effect.Skip()
		}
		return effect.Activated("Duenum: counter switches to virtuose",
			effect.SetStance(ctx.Source.ID, effect.StanceVirtuose))
	}, effect.TriggerCounterattack))

	r.weapon("Duenum", effect.WeaponLevel10, onHit(func(ctx *effect.Context) effect.Result {
		id, ok := targetID(ctx)
		if !ok || ctx.Source.Stance != effect.StanceOffensive || ctx.Aux.HitIndex != 0 {
			return effect.Skip()
		}
		return effect.Activated("Duenum: offensive hits burn",
			effect.ApplyStatus(id, effect.Timed(effect.StatusBurn, 1, 3)))
	}))

	r.weapon("Duenum", effect.WeaponLevel20, effect.On(func(ctx *effect.Context) effect.Result {
		if ctx.Source.Stance == effect.StanceDefensive {
			return effect.Skip()
		}
		return effect.Activated("Duenum: dodge switches to defensive",
			effect.SetStance(ctx.Source.ID, effect.StanceDefensive))
	}, effect.TriggerDodge))
}

// Sciel: foretell and twilight.
func registerScielWeapons(r *registrar) {
	r.weapon("Scieleson", effect.WeaponLevel4, effect.On(func(ctx *effect.Context) effect.Result {
		id, ok := targetID(ctx)
		if !ok || ctx.Aux.HitIndex != 0 {
			return effect.Skip()
		}
		return effect.Activated("Scieleson: base attack foretells",
			effect.ApplyStatus(id, effect.Permanent(effect.StatusForetell, 1)))
	}, effect.TriggerBaseAttack))

	r.weapon("Scieleson", effect.WeaponLevel10, onHit(func(ctx *effect.Context) effect.Result {
		if !ctx.Source.InTwilight() || ctx.Target == nil || !ctx.Target.HasStatus(effect.StatusForetell) {
			return effect.Skip()
		}
		return boost(ctx, damage.StageTargetCondition, 1.2, "Scieleson: +20% on foretold target in twilight")
	}))

	r.weapon("Scieleson", effect.WeaponLevel20, effect.On(func(ctx *effect.Context) effect.Result {
		var intents []effect.Intent
		for _, a := range ctx.Allies() {
			if a.Alive() && a.HP < a.MaxHP {
				intents = append(intents, effect.Heal(a.ID, pct(a.MaxHP, 20)))
			}
		}
		if len(intents) == 0 {
			return effect.Skip()
		}
		return effect.Activated("Scieleson: twilight heals the party", intents...)
	}, effect.TriggerTwilightStart))

	r.weapon("Charnon", effect.WeaponLevel4, effect.On(oncePer(battle.OncePerTurn, func(ctx *effect.Context) effect.Result {
		if ctx.Target == nil || !ctx.Target.HasStatus(effect.StatusForetell) {
			return effect.Skip()
		}
		return effect.Activated("Charnon: +1 AP on skill against a foretold target", effect.GrantAP(ctx.Source.ID, 1))
	}), effect.TriggerSkillUsed))

	r.weapon("Charnon", effect.WeaponLevel10, effect.On(func(ctx *effect.Context) effect.Result {
		var intents []effect.Intent
		for _, e := range ctx.Enemies() {
			intents = append(intents, effect.ApplyStatus(e.ID, effect.Permanent(effect.StatusForetell, 2)))
		}
		if len(intents) == 0 {
			return effect.Skip()
		}
		return effect.Activated("Charnon: every enemy foretold", intents...)
	}, effect.TriggerBattleStart))

	r.weapon("Charnon", effect.WeaponLevel20, effect.On(oncePer(battle.OncePerBattle, func(ctx *effect.Context) effect.Result {
		return effect.Activated("Charnon: kill opens twilight",
			effect.ApplyStatus(ctx.Source.ID, effect.Timed(effect.StatusTwilight, 1, 1)))
	}), effect.TriggerKill))
}

// Verso: perfection rank.
func registerVersoWeapons(r *registrar) {
	r.weapon("Verleso", effect.WeaponLevel4, effect.On(func(ctx *effect.Context) effect.Result {
		if ctx.Source.Rank == effect.RankS || ctx.Aux.HitIndex != 0 {
			return effect.Skip()
		}
		return effect.Activated("Verleso: base attack raises rank",
			effect.SetRank(ctx.Source.ID, ctx.Source.Rank.Next()))
	}, effect.TriggerBaseAttack))

	r.weapon("Verleso", effect.WeaponLevel10, effect.On(func(ctx *effect.Context) effect.Result {
		if ctx.Aux.NewRank != effect.RankS {
			return effect.Skip()
		}
		return effect.Activated("Verleso: 10% health on reaching rank S", effect.HealPercent(ctx.Source.ID, 10))
	}, effect.TriggerRankChange))

	r.weapon("Verleso", effect.WeaponLevel20, onHit(func(ctx *effect.Context) effect.Result {
		if ctx.Source.Rank != effect.RankS {
			return effect.Skip()
		}
		return boost(ctx, damage.StageRank, 1.2, "Verleso: +20% at rank S")
	}))

	rankUp := func(ctx *effect.Context) effect.Result {
		if ctx.Source.Rank == effect.RankS {
			return effect.Skip()
		}
		return effect.Activated("Sireso: rank up on defence",
			effect.SetRank(ctx.Source.ID, ctx.Source.Rank.Next()))
	}
	r.weapon("Sireso", effect.WeaponLevel4, effect.On(oncePer(battle.OncePerTurn, rankUp),
		effect.TriggerDodge, effect.TriggerParry))

	r.weapon("Sireso", effect.WeaponLevel10, effect.On(func(ctx *effect.Context) effect.Result {
		return effect.Activated("Sireso: battle starts at rank C", effect.SetRank(ctx.Source.ID, effect.RankC))
	}, effect.TriggerBattleStart))

	r.weapon("Sireso", effect.WeaponLevel20, effect.On(oncePer(battle.OncePerTurn, func(ctx *effect.Context) effect.Result {
		if ctx.Source.Rank == effect.RankS {
			return effect.Skip()
		}
		return effect.Activated("Sireso: critical hit jumps to rank S", effect.SetRank(ctx.Source.ID, effect.RankS))
	}), effect.TriggerCriticalHit))
}

// Monoco: masks and the bestial wheel.
const wheelSize = 12

func registerMonocoWeapons(r *registrar) {
	r.weapon("Monocaro", effect.WeaponLevel4, effect.On(func(ctx *effect.Context) effect.Result {
		return effect.Activated("Monocaro: battle starts with the balanced mask",
			effect.SetMask(ctx.Source.ID, effect.MaskBalanced))
	}, effect.TriggerBattleStart))

	r.weapon("Monocaro", effect.WeaponLevel10, effect.On(oncePer(battle.OncePerTurn, func(ctx *effect.Context) effect.Result {
		if ctx.Aux.NewMask != effect.MaskAlmighty {
			return effect.Skip()
		}
		return effect.Activated("Monocaro: +2 AP on almighty mask", effect.GrantAP(ctx.Source.ID, 2))
	}), effect.TriggerMaskChange))

	r.weapon("Monocaro", effect.WeaponLevel20, onHit(func(ctx *effect.Context) effect.Result {
		if ctx.Source.Mask != effect.MaskHeavy {
			return effect.Skip()
		}
		return boost(ctx, damage.StageMask, 1.2, "Monocaro: +20% with the heavy mask")
	}))

	r.weapon("Joyaro", effect.WeaponLevel4, effect.On(oncePer(battle.OncePerTurn, func(ctx *effect.Context) effect.Result {
		return effect.Activated("Joyaro: skill turns the wheel",
			effect.SetWheel(ctx.Source.ID, (ctx.Source.Wheel+1)%wheelSize))
	}), effect.TriggerSkillUsed))

	r.weapon("Joyaro", effect.WeaponLevel10, effect.On(func(ctx *effect.Context) effect.Result {
		if ctx.Source.Wheel != 0 {
			return effect.Skip()
		}
		return effect.Activated("Joyaro: wheel at rest grants rush",
			effect.ApplyStatus(ctx.Source.ID, effect.Timed(effect.StatusRush, 1, 1)))
	}, effect.TriggerTurnStart))

	r.weapon("Joyaro", effect.WeaponLevel20, effect.On(func(ctx *effect.Context) effect.Result {
		return effect.Activated("Joyaro: shield on mask change",
			effect.ApplyStatus(ctx.Source.ID, effect.Permanent(effect.StatusShield, 1)))
	}, effect.TriggerMaskChange))
}
