package handler

import (
	"errors"

	"github.com/pictoforge/server/internal/battle"
	"github.com/pictoforge/server/internal/combat"
	"github.com/pictoforge/server/internal/net"
	"github.com/pictoforge/server/internal/net/packet"
	"github.com/pictoforge/server/internal/skill"
)

// Error codes carried by S_ERROR.
const (
	CodeInternal uint16 = iota
	CodeProtocol
	CodeBadPacket
	CodePersistence
	CodeUnknownCharacter
	CodeUnknownSkill
	CodeNoTarget
	CodeInsufficientAP
	CodeStainsRequired
	CodeForetellMissing
	CodeUnknownTrigger
	CodeBattleClosed
	CodeVersion
)

var errorCodes = []struct {
	err  error
	code uint16
}{
	{combat.ErrPersistence, CodePersistence},
	{combat.ErrUnknownCharacter, CodeUnknownCharacter},
	{skill.ErrNotFound, CodeUnknownSkill},
	{skill.ErrNoTarget, CodeNoTarget},
	{skill.ErrInsufficientAP, CodeInsufficientAP},
	{skill.ErrStainsRequired, CodeStainsRequired},
	{skill.ErrForetellMissing, CodeForetellMissing},
	{battle.ErrBattleClosed, CodeBattleClosed},
	{battle.ErrClosed, CodeBattleClosed},
}

func errorCode(err error) uint16 {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return CodeInternal
}

// sendError builds S_ERROR: [C request opcode][H code][S message].
func sendError(sess *net.Session, opcode byte, code uint16, msg string) {
	w := packet.NewWriterWithOpcode(packet.S_ERROR)
	w.WriteC(opcode)
	w.WriteH(code)
	w.WriteS(msg)
	sess.Send(w.Bytes())
}

func sendFailure(sess *net.Session, opcode byte, err error) {
	code := errorCode(err)
	msg := err.Error()
	if code == CodeInternal || code == CodePersistence {
		// Storage details stay in the server log.
		msg = "combat action failed"
	}
	sendError(sess, opcode, code, msg)
}

// sendNotice builds S_NOTICE: [Q battle][S text].
func sendNotice(sess *net.Session, battleID int64, text string) {
	w := packet.NewWriterWithOpcode(packet.S_NOTICE)
	w.WriteQ(battleID)
	w.WriteS(text)
	sess.Send(w.Bytes())
}

// sendOutcome builds S_OUTCOME:
//
//	[Q battle][S trigger][Q actor][S skill id]
//	[H n] n x ([S key][S message])
//	[H n] n x ([Q target][D total][D absorbed][C lethal][C prevented][C overridden][H hits] hits x [D damage])
//	[H n] n x ([S kind][Q target][D amount][S source])
//	[H n] n x [S notice]
func sendOutcome(sess *net.Session, out *combat.Outcome) {
	w := packet.NewWriterWithOpcode(packet.S_OUTCOME)
	w.WriteQ(out.BattleID)
	w.WriteS(string(out.Trigger))
	w.WriteQ(out.ActorID)
	if out.Skill != nil {
		w.WriteS(out.Skill.SkillID)
	} else {
		w.WriteS("")
	}

	w.WriteH(uint16(len(out.Results)))
	for _, r := range out.Results {
		w.WriteS(r.Key)
		w.WriteS(r.Message)
	}

	w.WriteH(uint16(len(out.Hits)))
	for _, h := range out.Hits {
		w.WriteQ(h.TargetID)
		w.WriteD(int32(h.Total))
		w.WriteD(int32(h.Absorbed))
		w.WriteBool(h.Lethal)
		w.WriteBool(h.Prevented)
		w.WriteBool(h.Overridden)
		w.WriteH(uint16(len(h.Hits)))
		for _, d := range h.Hits {
			w.WriteD(int32(d))
		}
	}

	w.WriteH(uint16(len(out.Intents)))
	for _, in := range out.Intents {
		w.WriteS(in.Kind.String())
		w.WriteQ(in.Target)
		w.WriteD(int32(in.Amount))
		w.WriteS(in.Source)
	}

	notices := out.Notices()
	w.WriteH(uint16(len(notices)))
	for _, n := range notices {
		w.WriteS(n)
	}
	sess.Send(w.Bytes())
}
