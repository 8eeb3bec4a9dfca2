// Package catalog holds the built-in weapon passives and picto/lumina
// effects.
package catalog

import (
	"errors"

	"github.com/pictoforge/server/internal/battle"
	"github.com/pictoforge/server/internal/damage"
	"github.com/pictoforge/server/internal/effect"
)

// Register adds every built-in handler to reg. All duplicate keys are
// reported together.
func Register(reg *effect.Registry) error {
	r := &registrar{reg: reg}
	registerPictos(r)
	registerWeapons(r)
	return errors.Join(r.errs...)
}

type registrar struct {
	reg  *effect.Registry
	errs []error
}

func (r *registrar) picto(name string, h effect.Handler) {
	if err := r.reg.RegisterPictoEffect(name, h); err != nil {
		r.errs = append(r.errs, err)
	}
}

func (r *registrar) weapon(item string, level int, h effect.Handler) {
	if err := r.reg.RegisterWeaponPassive(item, level, h); err != nil {
		r.errs = append(r.errs, err)
	}
}

// Triggers that carry a damaging hit. Handlers contributing damage
// modifiers listen on these.
var hitTriggers = []effect.Trigger{
	effect.TriggerBaseAttack,
	effect.TriggerSkillUsed,
	effect.TriggerFreeAim,
	effect.TriggerCounterattack,
}

func onHit(fn effect.HandlerFunc) effect.Handler {
	return effect.On(fn, hitTriggers...)
}

func isHit(t effect.Trigger) bool {
	for _, h := range hitTriggers {
		if h == t {
			return true
		}
	}
	return false
}

// boost is a plain damage multiplier result.
func boost(ctx *effect.Context, stage damage.Stage, factor float64, msg string) effect.Result {
	return effect.Activated(msg).WithModifiers(damage.Mul(ctx.Key, stage, factor))
}

func flat(ctx *effect.Context, amount int, msg string) effect.Result {
	return effect.Activated(msg).WithModifiers(damage.Add(ctx.Key, amount))
}

// oncePer wraps a handler so it activates at most once per lifetime. The
// record is taken only when the inner handler activates.
func oncePer(lifetime battle.Lifetime, fn effect.HandlerFunc) effect.HandlerFunc {
	return func(ctx *effect.Context) effect.Result {
		if !ctx.State.CanActivate(ctx.Source.ID, ctx.Key, lifetime) {
			return effect.Skip()
		}
		res := fn(ctx)
		if !res.Success {
			return res
		}
		if !ctx.Once(lifetime) {
			return effect.Skip()
		}
		return res
	}
}

func targetID(ctx *effect.Context) (int64, bool) {
	if ctx.Target == nil {
		return 0, false
	}
	return ctx.Target.ID, true
}

func pct(of, percent int) int {
	return of * percent / 100
}

func addCharge(c *effect.Character, n int) int {
	v := c.Charge + n
	if c.MaxCharge > 0 && v > c.MaxCharge {
		v = c.MaxCharge
	}
	if v < 0 {
		v = 0
	}
	return v
}
