package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/pictoforge/server/internal/combat"
	"github.com/pictoforge/server/internal/effect"
	"github.com/pictoforge/server/internal/net"
	"github.com/pictoforge/server/internal/net/packet"
)

// readAction reads [Q battle][Q source][Q target][D power][C flags][S element].
// An empty element means the weapon's element.
func readAction(sess *net.Session, r *packet.Reader) (combat.Action, byte, bool) {
	battleID, ok := readBattle(sess, r)
	if !ok {
		return combat.Action{}, 0, false
	}
	a := combat.Action{
		BattleID: battleID,
		SourceID: r.ReadQ(),
		TargetID: r.ReadQ(),
		Power:    int(r.ReadD()),
	}
	flags := r.ReadC()
	name := r.ReadS()
	if r.Err() != nil {
		sendError(sess, r.Opcode(), CodeBadPacket, "truncated action")
		return combat.Action{}, 0, false
	}
	element, ok := effect.ParseElement(name)
	if !ok {
		sendError(sess, r.Opcode(), CodeBadPacket, "unknown element "+name)
		return combat.Action{}, 0, false
	}
	a.Element = element
	a.Critical = flags&packet.FlagCritical != 0
	a.WeakPoint = flags&packet.FlagWeakPoint != 0
	return a, flags, true
}

func reply(sess *net.Session, opcode byte, out *combat.Outcome, err error, deps *Deps) {
	if err != nil {
		deps.Log.Warn("combat action failed",
			zap.Uint64("session", sess.ID),
			zap.Uint8("opcode", opcode),
			zap.Error(err),
		)
		sendFailure(sess, opcode, err)
		return
	}
	sendOutcome(sess, out)
}

// HandleAttack processes C_ATTACK. FlagCounter turns it into a counterattack.
func HandleAttack(ctx context.Context, sess *net.Session, r *packet.Reader, deps *Deps) {
	a, flags, ok := readAction(sess, r)
	if !ok {
		return
	}
	if flags&packet.FlagCounter != 0 {
		out, err := deps.Combat.Counterattack(ctx, a)
		reply(sess, packet.C_ATTACK, out, err, deps)
		return
	}
	out, err := deps.Combat.BaseAttack(ctx, a)
	reply(sess, packet.C_ATTACK, out, err, deps)
}

// HandleFreeAim processes C_FREE_AIM with the C_ATTACK layout.
func HandleFreeAim(ctx context.Context, sess *net.Session, r *packet.Reader, deps *Deps) {
	a, _, ok := readAction(sess, r)
	if !ok {
		return
	}
	out, err := deps.Combat.FreeAim(ctx, a)
	reply(sess, packet.C_FREE_AIM, out, err, deps)
}

// HandleUseSkill processes C_USE_SKILL: [Q battle][Q source][Q target][S skill][C flags].
func HandleUseSkill(ctx context.Context, sess *net.Session, r *packet.Reader, deps *Deps) {
	battleID, ok := readBattle(sess, r)
	if !ok {
		return
	}
	a := combat.Action{
		BattleID: battleID,
		SourceID: r.ReadQ(),
		TargetID: r.ReadQ(),
		SkillID:  r.ReadS(),
	}
	flags := r.ReadC()
	if r.Err() != nil || a.SkillID == "" {
		sendError(sess, packet.C_USE_SKILL, CodeBadPacket, "truncated skill use")
		return
	}
	a.Critical = flags&packet.FlagCritical != 0
	a.WeakPoint = flags&packet.FlagWeakPoint != 0

	out, err := deps.Combat.UseSkill(ctx, a)
	reply(sess, packet.C_USE_SKILL, out, err, deps)
}

// HandleTrigger processes C_TRIGGER for moments the client observes itself:
// [Q battle][S trigger][Q source][Q target][D amount][C n] n x [S element].
func HandleTrigger(ctx context.Context, sess *net.Session, r *packet.Reader, deps *Deps) {
	battleID, ok := readBattle(sess, r)
	if !ok {
		return
	}
	name := r.ReadS()
	source := r.ReadQ()
	target := r.ReadQ()
	amount := int(r.ReadD())
	n := int(r.ReadC())
	stains := make([]effect.Element, 0, n)
	for i := 0; i < n; i++ {
		e, ok := effect.ParseElement(r.ReadS())
		if !ok {
			sendError(sess, packet.C_TRIGGER, CodeBadPacket, "unknown stain element")
			return
		}
		stains = append(stains, e)
	}
	if r.Err() != nil {
		sendError(sess, packet.C_TRIGGER, CodeBadPacket, "truncated trigger")
		return
	}
	trigger, err := effect.ParseTrigger(name)
	if err != nil {
		sendError(sess, packet.C_TRIGGER, CodeUnknownTrigger, err.Error())
		return
	}

	var out *combat.Outcome
	switch trigger {
	case effect.TriggerDeath:
		out, err = deps.Combat.Death(ctx, battleID, source)
	case effect.TriggerBreak:
		out, err = deps.Combat.Break(ctx, battleID, source, target)
	case effect.TriggerHealAlly, effect.TriggerHeal:
		out, err = deps.Combat.HealAlly(ctx, battleID, source, target, amount)
	case effect.TriggerStainConsumed:
		out, err = deps.Combat.StainConsumed(ctx, battleID, source, stains)
	case effect.TriggerStainGenerated:
		out, err = deps.Combat.StainGenerated(ctx, battleID, source, stains)
	default:
		out, err = deps.Combat.Fire(ctx, battleID, trigger, source, target, effect.Aux{Damage: amount})
	}
	reply(sess, packet.C_TRIGGER, out, err, deps)
}
