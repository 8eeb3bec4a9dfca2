package handler

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/pictoforge/server/internal/net"
	"github.com/pictoforge/server/internal/net/packet"
)

// call is what the registry passes to handlers: the session plus the
// context of the serving goroutine.
type call struct {
	ctx  context.Context
	sess *net.Session
}

// Pump returns the per-session loop for net.Server.Serve. Packets are handled
// one at a time in arrival order. Protocol violations drop the session.
func Pump(reg *packet.Registry, log *zap.Logger) func(ctx context.Context, sess *net.Session) {
	return func(ctx context.Context, sess *net.Session) {
		c := &call{ctx: ctx, sess: sess}
		for {
			select {
			case data := <-sess.InQueue:
				if len(data) == 0 {
					continue
				}
				err := reg.Dispatch(c, sess.State(), data)
				if err == nil {
					continue
				}
				log.Debug("packet dispatch error", zap.Uint64("session", sess.ID), zap.Error(err))
				if errors.Is(err, packet.ErrNotAllowed) || errors.Is(err, packet.ErrUnknownOpcode) {
					sendError(sess, data[0], CodeProtocol, err.Error())
					return
				}
				sendError(sess, data[0], CodeInternal, "internal error")
			case <-sess.Done():
				return
			case <-ctx.Done():
				return
			}
		}
	}
}
