package effect

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/pictoforge/server/internal/battle"
)

// Weapon is the equipped weapon and its current level.
type Weapon struct {
	Item  string
	Level int
}

// Request describes one dispatch: the trigger, who acts, what they carry.
type Request struct {
	Trigger  Trigger
	BattleID int64
	Source   Character
	Target   *Character
	Roster   []Character
	Aux      Aux
	Txn      *battle.Txn

	// Keys are the equipped picto and lumina names in equip order.
	Keys   []string
	Weapon Weapon
}

// Dispatcher runs registered handlers for a request.
type Dispatcher struct {
	reg *Registry
	log *zap.Logger
}

func NewDispatcher(reg *Registry, log *zap.Logger) *Dispatcher {
	return &Dispatcher{reg: reg, log: log}
}

// Registry returns the registry the dispatcher reads from.
func (d *Dispatcher) Registry() *Registry { return d.reg }

// Dispatch runs picto and lumina handlers in equip order, then weapon
// passives by ascending unlock level.
func (d *Dispatcher) Dispatch(req Request) Outcome {
	out := d.DispatchPictos(req, req.Keys)
	if req.Weapon.Item != "" {
		out.Merge(d.DispatchWeapon(req, req.Weapon))
	}
	return out
}

// DispatchPictos runs the handlers of the given keys in order. Keys without a
// handler are skipped; a key equipped twice runs once.
func (d *Dispatcher) DispatchPictos(req Request, keys []string) Outcome {
	d.reg.Seal()
	var out Outcome
	seen := make(map[string]struct{}, len(keys))
	for _, name := range keys {
		k := NormalizeKey(name)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		h, ok := d.reg.Picto(name)
		if !ok {
			continue
		}
		d.run(&out, req, name, h)
	}
	return out
}

// DispatchWeapon runs every passive of the weapon unlocked at its current
// level, lowest level first.
func (d *Dispatcher) DispatchWeapon(req Request, w Weapon) Outcome {
	d.reg.Seal()
	var out Outcome
	for _, lv := range d.reg.WeaponLevels(w.Item) {
		if lv > w.Level {
			break
		}
		h, ok := d.reg.WeaponPassive(w.Item, lv)
		if !ok {
			continue
		}
		d.run(&out, req, WeaponKey{Item: w.Item, Level: lv}.String(), h)
	}
	return out
}

func (d *Dispatcher) run(out *Outcome, req Request, key string, h Handler) {
	ctx := (&Context{
		Trigger:  req.Trigger,
		BattleID: req.BattleID,
		Key:      key,
		Source:   req.Source,
		Target:   req.Target,
		Roster:   req.Roster,
		Aux:      req.Aux,
		State:    req.Txn,
	}).clone()

	var sp battle.Savepoint
	if req.Txn != nil {
		sp = req.Txn.Mark()
	}
	res, err := d.safeCall(h, ctx)
	if err != nil {
		// A failed handler keeps none of the stacks or activations it staged.
		if req.Txn != nil {
			req.Txn.RollbackTo(sp)
		}
		out.Failures = append(out.Failures, Failure{Key: key, Trigger: req.Trigger, Reason: err.Error()})
		return
	}
	if !res.Success {
		return
	}
	res.Key = key
	for i := range res.Intents {
		if res.Intents[i].Source == "" {
			res.Intents[i].Source = key
		}
	}
	out.Results = append(out.Results, res)
}

// safeCall runs a handler with panic recovery so one broken effect cannot
// abort the rest of the dispatch.
func (d *Dispatcher) safeCall(h Handler, ctx *Context) (res Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			d.log.Error("effect handler panic recovered",
				zap.String("key", ctx.Key),
				zap.String("trigger", string(ctx.Trigger)),
				zap.Int64("battle", ctx.BattleID),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler %s panic: %v", ctx.Key, rec)
		}
	}()
	return h.Handle(ctx), nil
}
