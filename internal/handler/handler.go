// Package handler binds client opcodes to combat operations.
package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/pictoforge/server/internal/combat"
	"github.com/pictoforge/server/internal/config"
	"github.com/pictoforge/server/internal/effect"
	"github.com/pictoforge/server/internal/net"
	"github.com/pictoforge/server/internal/net/packet"
)

// Combat is the part of the orchestrator the handlers drive.
type Combat interface {
	StartBattle(ctx context.Context, battleID int64) (*combat.Outcome, error)
	StartTurn(ctx context.Context, battleID int64) (*combat.Outcome, error)
	EndBattle(ctx context.Context, battleID int64) error

	BaseAttack(ctx context.Context, a combat.Action) (*combat.Outcome, error)
	FreeAim(ctx context.Context, a combat.Action) (*combat.Outcome, error)
	Counterattack(ctx context.Context, a combat.Action) (*combat.Outcome, error)
	UseSkill(ctx context.Context, a combat.Action) (*combat.Outcome, error)

	Fire(ctx context.Context, battleID int64, trigger effect.Trigger, sourceID, targetID int64, aux effect.Aux) (*combat.Outcome, error)
	Death(ctx context.Context, battleID, charID int64) (*combat.Outcome, error)
	Break(ctx context.Context, battleID, sourceID, targetID int64) (*combat.Outcome, error)
	HealAlly(ctx context.Context, battleID, healerID, targetID int64, amount int) (*combat.Outcome, error)
	StainConsumed(ctx context.Context, battleID, charID int64, stains []effect.Element) (*combat.Outcome, error)
	StainGenerated(ctx context.Context, battleID, charID int64, stains []effect.Element) (*combat.Outcome, error)
}

var _ Combat = (*combat.Orchestrator)(nil)

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	Combat Combat
	Config *config.Config
	Log    *zap.Logger
}

// handle adapts a typed handler to the registry's callback signature.
func handle(deps *Deps, fn func(ctx context.Context, sess *net.Session, r *packet.Reader, deps *Deps)) packet.HandlerFunc {
	return func(sess any, r *packet.Reader) {
		s := sess.(*call)
		fn(s.ctx, s.sess, r, deps)
	}
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	reg.Register(packet.C_VERSION,
		[]packet.SessionState{packet.StateHandshake},
		handle(deps, HandleVersion),
	)

	ready := []packet.SessionState{packet.StateReady}
	reg.Register(packet.C_START_BATTLE, ready, handle(deps, HandleStartBattle))
	reg.Register(packet.C_END_BATTLE, ready, handle(deps, HandleEndBattle))
	reg.Register(packet.C_START_TURN, ready, handle(deps, HandleStartTurn))
	reg.Register(packet.C_ATTACK, ready, handle(deps, HandleAttack))
	reg.Register(packet.C_FREE_AIM, ready, handle(deps, HandleFreeAim))
	reg.Register(packet.C_USE_SKILL, ready, handle(deps, HandleUseSkill))
	reg.Register(packet.C_TRIGGER, ready, handle(deps, HandleTrigger))
}
