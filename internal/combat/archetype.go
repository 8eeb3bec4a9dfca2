package combat

import (
	"github.com/pictoforge/server/internal/damage"
	"github.com/pictoforge/server/internal/effect"
)

var rankFactors = map[effect.Rank]float64{
	effect.RankD: 1.0,
	effect.RankC: 1.25,
	effect.RankB: 1.5,
	effect.RankA: 1.75,
	effect.RankS: 2.0,
}

// RankFactor returns the perfection-rank multiplier with a skill's rank bonus
// added on top.
func RankFactor(rank effect.Rank, skillBonus float64) float64 {
	f, ok := rankFactors[rank]
	if !ok {
		f = 1
	}
	return f + skillBonus
}

var maskFactors = map[effect.Mask]float64{
	effect.MaskAgile:    1.2,
	effect.MaskCaster:   1.3,
	effect.MaskHeavy:    1.5,
	effect.MaskBalanced: 1.1,
	effect.MaskAlmighty: 2.0,
}

// MaskFactor returns the mask multiplier, 1 without a mask.
func MaskFactor(m effect.Mask) float64 {
	if f, ok := maskFactors[m]; ok {
		return f
	}
	return 1
}

var stanceFactors = map[effect.Stance]float64{
	effect.StanceOffensive: 1.5,
	effect.StanceVirtuose:  2.0,
}

// StanceFactor returns the stance multiplier, 1 when the stance adds nothing.
func StanceFactor(s effect.Stance) float64 {
	if f, ok := stanceFactors[s]; ok {
		return f
	}
	return 1
}

// ElementalFactor compares the hit's element with the target's affinities.
func ElementalFactor(target *effect.Character, e effect.Element) float64 {
	switch {
	case target.WeakTo(e):
		return damage.WeaknessFactor
	case target.Resists(e):
		return damage.ResistanceFactor
	}
	return 1
}

const (
	chargeBonusPerPoint   = 2
	foretellBonusPerStack = 5
	escalationStep        = 0.25
	escalationMaxUses     = 4
	stainConsumeStep      = 0.25
	perHitResourceFactor  = 1.25
)

// targetConditions are the target statuses that scale incoming hits, each
// applied on its own.
var targetConditions = []struct {
	status effect.StatusType
	source string
	factor float64
}{
	{effect.StatusDefenceless, "defenceless", damage.DefencelessFactor},
	{effect.StatusBurn, "burning", damage.BurningFactor},
	{effect.StatusStunned, "stunned", damage.StunnedFactor},
	{effect.StatusPowerless, "powerless", damage.PowerlessFactor},
}

// hitTraits are the skill mechanics that shape a hit beyond the snapshot.
type hitTraits struct {
	skillRankBonus float64
	chargeScaling  bool
	lowHPScaling   bool
	escalationUses int
	stainsConsumed int
	foretellStacks int
	perHitPaid     bool
	element        effect.Element
}

// sourceModifiers derives the modifiers that come from the attacker's and
// target's own state rather than from equipped effects.
func sourceModifiers(src, target *effect.Character, tr hitTraits) []damage.Modifier {
	var mods []damage.Modifier

	if tr.chargeScaling && src.Charge > 0 {
		mods = append(mods, damage.Add("charge", src.Charge*chargeBonusPerPoint))
	}
	if tr.foretellStacks > 0 {
		mods = append(mods, damage.Add("foretell", tr.foretellStacks*foretellBonusPerStack))
	}

	if tr.perHitPaid {
		mods = append(mods, damage.Mul("per-hit-ap", damage.StageResourceConsumption, perHitResourceFactor))
	}
	if src.InTwilight() {
		mods = append(mods, damage.Mul("twilight", damage.StageSpecialState, damage.TwilightFactor))
	}
	if f := StanceFactor(src.Stance); f != 1 {
		mods = append(mods, damage.Mul("stance", damage.StageSpecialState, f))
	}
	if src.Rank != effect.RankNone || tr.skillRankBonus != 0 {
		if f := RankFactor(src.Rank, tr.skillRankBonus); f != 1 {
			mods = append(mods, damage.Mul("rank", damage.StageRank, f))
		}
	}
	if tr.lowHPScaling {
		if lost := 100 - src.HPPercent(); lost > 0 {
			mods = append(mods, damage.Mul("low-hp", damage.StageLowResource, 1+lost/100))
		}
	}
	if tr.escalationUses > 0 {
		mods = append(mods, damage.Mul("escalation", damage.StageEscalation, 1+escalationStep*float64(tr.escalationUses)))
	}
	if f := MaskFactor(src.Mask); f != 1 {
		mods = append(mods, damage.Mul("mask", damage.StageMask, f))
	}
	for _, c := range targetConditions {
		if target.HasStatus(c.status) {
			mods = append(mods, damage.Mul(c.source, damage.StageTargetCondition, c.factor))
		}
	}
	if tr.stainsConsumed > 0 {
		mods = append(mods, damage.Mul("stains", damage.StageConsumptionCount, 1+stainConsumeStep*float64(tr.stainsConsumed)))
	}
	if f := ElementalFactor(target, tr.element); f != 1 {
		mods = append(mods, damage.Mul("element", damage.StageElemental, f))
	}
	for _, m := range target.DamageTaken {
		if m.Applies(tr.element) {
			mods = append(mods, damage.Mul(m.Source, damage.StageElemental, m.Factor))
		}
	}
	if target.HasStatus(effect.StatusMarked) {
		mods = append(mods, damage.Mul("marked", damage.StageStatusFlat, damage.MarkedFactor))
	}
	if src.HasStatus(effect.StatusPowerful) {
		mods = append(mods, damage.Mul("powerful", damage.StageStatusFlat, damage.PowerfulFactor))
	}
	return mods
}
