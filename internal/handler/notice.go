package handler

import (
	"fmt"

	"github.com/pictoforge/server/internal/core/event"
	"github.com/pictoforge/server/internal/net"
)

// ForwardNotices pushes failed-effect notices and battle endings to every
// session watching the battle.
func ForwardNotices(bus *event.Bus, sessions *net.SessionStore) {
	event.Subscribe(bus, func(e event.EffectFailed) {
		sessions.Watching(e.BattleID, func(sess *net.Session) {
			sendNotice(sess, e.BattleID, e.Notice)
		})
	})
	event.Subscribe(bus, func(e event.BattleEnded) {
		sessions.Watching(e.BattleID, func(sess *net.Session) {
			sendNotice(sess, e.BattleID, fmt.Sprintf("battle %d ended", e.BattleID))
			sess.Unwatch(e.BattleID)
		})
	})
}
