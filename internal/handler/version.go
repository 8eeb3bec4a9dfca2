package handler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pictoforge/server/internal/net"
	"github.com/pictoforge/server/internal/net/packet"
)

// HandleVersion processes C_VERSION: [D protocol version].
// Responds with S_VERSION_OK and transitions to Ready, or S_ERROR and a
// disconnect on a mismatch.
func HandleVersion(_ context.Context, sess *net.Session, r *packet.Reader, deps *Deps) {
	version := r.ReadD()
	deps.Log.Debug("received client version", zap.Uint64("session", sess.ID), zap.Int32("version", version))

	if r.Err() != nil || version != packet.ProtocolVersion {
		sendError(sess, packet.C_VERSION, CodeVersion,
			fmt.Sprintf("protocol version %d required", packet.ProtocolVersion))
		sess.SetState(packet.StateDisconnecting)
		return
	}

	cfg := deps.Config
	uptime := time.Now().Unix() - cfg.Server.StartTime

	w := packet.NewWriterWithOpcode(packet.S_VERSION_OK)
	w.WriteD(packet.ProtocolVersion)
	w.WriteC(byte(cfg.Server.ID))
	w.WriteS(cfg.Server.Name)
	w.WriteQ(cfg.Server.StartTime)
	w.WriteD(int32(uptime))

	sess.Send(w.Bytes())
	sess.SetState(packet.StateReady)
}
