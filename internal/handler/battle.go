package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/pictoforge/server/internal/net"
	"github.com/pictoforge/server/internal/net/packet"
)

// readBattle reads the [Q battle] header shared by every combat packet.
func readBattle(sess *net.Session, r *packet.Reader) (int64, bool) {
	id := r.ReadQ()
	if r.Err() != nil || id <= 0 {
		sendError(sess, r.Opcode(), CodeBadPacket, "battle id required")
		return 0, false
	}
	return id, true
}

// HandleStartBattle processes C_START_BATTLE: [Q battle]. The session watches
// the battle's notices from here on.
func HandleStartBattle(ctx context.Context, sess *net.Session, r *packet.Reader, deps *Deps) {
	battleID, ok := readBattle(sess, r)
	if !ok {
		return
	}
	sess.Watch(battleID)
	out, err := deps.Combat.StartBattle(ctx, battleID)
	if err != nil {
		deps.Log.Warn("start battle failed", zap.Int64("battle", battleID), zap.Error(err))
		sendFailure(sess, packet.C_START_BATTLE, err)
		return
	}
	sendOutcome(sess, out)
}

// HandleEndBattle processes C_END_BATTLE: [Q battle].
func HandleEndBattle(ctx context.Context, sess *net.Session, r *packet.Reader, deps *Deps) {
	battleID, ok := readBattle(sess, r)
	if !ok {
		return
	}
	if err := deps.Combat.EndBattle(ctx, battleID); err != nil {
		deps.Log.Warn("end battle failed", zap.Int64("battle", battleID), zap.Error(err))
		sendFailure(sess, packet.C_END_BATTLE, err)
		return
	}
	sess.Unwatch(battleID)
}

// HandleStartTurn processes C_START_TURN: [Q battle].
func HandleStartTurn(ctx context.Context, sess *net.Session, r *packet.Reader, deps *Deps) {
	battleID, ok := readBattle(sess, r)
	if !ok {
		return
	}
	out, err := deps.Combat.StartTurn(ctx, battleID)
	if err != nil {
		deps.Log.Warn("start turn failed", zap.Int64("battle", battleID), zap.Error(err))
		sendFailure(sess, packet.C_START_TURN, err)
		return
	}
	sendOutcome(sess, out)
}
