package effect

import "fmt"

// Trigger names a combat moment that may activate equipped effects.
type Trigger string

const (
	TriggerBattleStart    Trigger = "battle-start"
	TriggerTurnStart      Trigger = "turn-start"
	TriggerBaseAttack     Trigger = "base-attack"
	TriggerSkillUsed      Trigger = "skill-used"
	TriggerCriticalHit    Trigger = "critical-hit"
	TriggerCounterattack  Trigger = "counterattack"
	TriggerDamageDealt    Trigger = "damage-dealt"
	TriggerDamageTaken    Trigger = "damage-taken"
	TriggerRankChange     Trigger = "rank-change"
	TriggerStanceChange   Trigger = "stance-change"
	TriggerMaskChange     Trigger = "mask-change"
	TriggerBreak          Trigger = "break"
	TriggerFreeAim        Trigger = "free-aim"
	TriggerHeal           Trigger = "heal"
	TriggerStainConsumed  Trigger = "stain-consumed"
	TriggerStainGenerated Trigger = "stain-generated"
	TriggerTwilightStart  Trigger = "twilight-start"
	TriggerMarkApplied    Trigger = "mark-applied"
	TriggerShieldGained   Trigger = "shield-gained"
	TriggerShieldBroken   Trigger = "shield-broken"
	TriggerParry          Trigger = "parry"
	TriggerRevive         Trigger = "revive"
	TriggerDeath          Trigger = "death"
	TriggerKill           Trigger = "kill"
	TriggerGradientUse    Trigger = "gradient-use"
	TriggerAPGain         Trigger = "ap-gain"
	TriggerBurnApplied    Trigger = "burn-applied"
	TriggerBuffApplied    Trigger = "buff-applied"
	TriggerDebuffApplied  Trigger = "debuff-applied"
	TriggerDodge          Trigger = "dodge"
	TriggerHealAlly       Trigger = "heal-ally"
	TriggerItemUse        Trigger = "item-use"
	TriggerPassTurn       Trigger = "pass-turn"
	TriggerWeakPoint      Trigger = "weak-point"
)

var allTriggers = []Trigger{
	TriggerBattleStart, TriggerTurnStart, TriggerBaseAttack, TriggerSkillUsed,
	TriggerCriticalHit, TriggerCounterattack, TriggerDamageDealt, TriggerDamageTaken,
	TriggerRankChange, TriggerStanceChange, TriggerMaskChange, TriggerBreak,
	TriggerFreeAim, TriggerHeal, TriggerStainConsumed, TriggerStainGenerated,
	TriggerTwilightStart, TriggerMarkApplied, TriggerShieldGained, TriggerShieldBroken,
	TriggerParry, TriggerRevive, TriggerDeath, TriggerKill,
	TriggerGradientUse, TriggerAPGain, TriggerBurnApplied, TriggerBuffApplied,
	TriggerDebuffApplied, TriggerDodge, TriggerHealAlly, TriggerItemUse,
	TriggerPassTurn, TriggerWeakPoint,
}

var triggerSet = func() map[Trigger]struct{} {
	m := make(map[Trigger]struct{}, len(allTriggers))
	for _, t := range allTriggers {
		m[t] = struct{}{}
	}
	return m
}()

// Triggers returns the stable trigger list.
func Triggers() []Trigger {
	return append([]Trigger(nil), allTriggers...)
}

// ParseTrigger validates a trigger name received from a client or script.
func ParseTrigger(s string) (Trigger, error) {
	t := Trigger(s)
	if _, ok := triggerSet[t]; !ok {
		return "", fmt.Errorf("unknown trigger %q", s)
	}
	return t, nil
}

func (t Trigger) String() string { return string(t) }
