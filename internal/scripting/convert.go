package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/pictoforge/server/internal/battle"
	"github.com/pictoforge/server/internal/damage"
	"github.com/pictoforge/server/internal/effect"
)

// packContext builds the table a Lua handler receives. The stack_* and
// try_activate closures act on the trigger's staged battle state.
func packContext(L *lua.LState, ctx *effect.Context) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("trigger", lua.LString(ctx.Trigger))
	t.RawSetString("battle_id", lua.LNumber(ctx.BattleID))
	t.RawSetString("key", lua.LString(ctx.Key))
	t.RawSetString("source", packCharacter(L, &ctx.Source))
	if ctx.Target != nil {
		t.RawSetString("target", packCharacter(L, ctx.Target))
	}
	t.RawSetString("aux", packAux(L, ctx.Aux))
	t.RawSetString("allies_down", lua.LNumber(ctx.AlliesDown()))
	t.RawSetString("alone", lua.LBool(ctx.Alone()))

	t.RawSetString("stack_get", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(ctx.State.Get(ctx.Source.ID, ctx.Key)))
		return 1
	}))
	t.RawSetString("stack_add", L.NewFunction(func(L *lua.LState) int {
		limit := L.OptInt(1, battle.NoMax)
		L.Push(lua.LNumber(ctx.Stack(limit)))
		return 1
	}))
	t.RawSetString("stack_reset", L.NewFunction(func(L *lua.LState) int {
		ctx.State.Reset(ctx.Source.ID, ctx.Key)
		return 0
	}))
	t.RawSetString("try_activate", L.NewFunction(func(L *lua.LState) int {
		lifetime := battle.OncePerTurn
		switch s := L.OptString(1, "turn"); s {
		case "turn":
		case "battle":
			lifetime = battle.OncePerBattle
		default:
			L.ArgError(1, fmt.Sprintf("unknown lifetime %q", s))
		}
		L.Push(lua.LBool(ctx.Once(lifetime)))
		return 1
	}))
	return t
}

func packCharacter(L *lua.LState, c *effect.Character) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LNumber(c.ID))
	t.RawSetString("name", lua.LString(c.Name))
	t.RawSetString("archetype", lua.LString(c.Archetype))
	t.RawSetString("hostile", lua.LBool(c.Hostile))
	t.RawSetString("hp", lua.LNumber(c.HP))
	t.RawSetString("max_hp", lua.LNumber(c.MaxHP))
	t.RawSetString("hp_percent", lua.LNumber(c.HPPercent()))
	t.RawSetString("ap", lua.LNumber(c.AP))
	t.RawSetString("max_ap", lua.LNumber(c.MaxAP))
	t.RawSetString("stance", lua.LString(c.Stance))
	t.RawSetString("rank", lua.LString(c.Rank))
	t.RawSetString("mask", lua.LString(c.Mask))
	t.RawSetString("wheel", lua.LNumber(c.Wheel))
	t.RawSetString("charge", lua.LNumber(c.Charge))
	t.RawSetString("max_charge", lua.LNumber(c.MaxCharge))

	statuses := L.NewTable()
	for _, s := range c.Statuses {
		statuses.RawSetString(string(s.Type), lua.LNumber(s.Amount))
	}
	t.RawSetString("statuses", statuses)

	stains := L.NewTable()
	for _, e := range c.Stains {
		if e != effect.ElementNone {
			stains.Append(lua.LString(e))
		}
	}
	t.RawSetString("stains", stains)
	return t
}

func packAux(L *lua.LState, a effect.Aux) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("damage", lua.LNumber(a.Damage))
	t.RawSetString("element", lua.LString(a.Element))
	t.RawSetString("skill_id", lua.LString(a.SkillID))
	t.RawSetString("is_skill", lua.LBool(a.IsSkill))
	t.RawSetString("is_critical", lua.LBool(a.IsCritical))
	t.RawSetString("is_free_aim", lua.LBool(a.IsFreeAim))
	t.RawSetString("is_weak_point", lua.LBool(a.IsWeakPoint))
	t.RawSetString("is_counter", lua.LBool(a.IsCounter))
	t.RawSetString("status", lua.LString(a.Status))
	t.RawSetString("hit_index", lua.LNumber(a.HitIndex))
	t.RawSetString("hit_count", lua.LNumber(a.HitCount))
	t.RawSetString("hits_received", lua.LNumber(a.HitsReceived))
	t.RawSetString("ap_gained", lua.LNumber(a.APGained))
	t.RawSetString("heal_amount", lua.LNumber(a.HealAmount))
	return t
}

// unpackResult converts a handler's return value. nil or false skips; true
// activates without effects; a table carries the full result.
func unpackResult(v lua.LValue, ctx *effect.Context) (effect.Result, error) {
	switch rv := v.(type) {
	case *lua.LNilType:
		return effect.Skip(), nil
	case lua.LBool:
		if !rv {
			return effect.Skip(), nil
		}
		return effect.Activated(""), nil
	case *lua.LTable:
		return resultFromTable(rv, ctx)
	}
	return effect.Result{}, fmt.Errorf("handler returned %s, want table", v.Type())
}

func resultFromTable(t *lua.LTable, ctx *effect.Context) (effect.Result, error) {
	if s := t.RawGetString("success"); s == lua.LFalse {
		return effect.Skip(), nil
	}
	res := effect.Activated(lua.LVAsString(t.RawGetString("message")))
	if o, ok := t.RawGetString("override").(lua.LNumber); ok {
		res = res.WithOverride(int(o))
	}
	res.PreventDeath = lua.LVAsBool(t.RawGetString("prevent_death"))
	res.ExtraTurn = lua.LVAsBool(t.RawGetString("extra_turn"))

	if list, ok := t.RawGetString("intents").(*lua.LTable); ok {
		for i := 1; i <= list.Len(); i++ {
			row, ok := list.RawGetInt(i).(*lua.LTable)
			if !ok {
				return effect.Result{}, fmt.Errorf("intent %d is not a table", i)
			}
			in, err := intentFromTable(row, ctx)
			if err != nil {
				return effect.Result{}, fmt.Errorf("intent %d: %w", i, err)
			}
			res.Intents = append(res.Intents, in)
		}
	}
	if list, ok := t.RawGetString("modifiers").(*lua.LTable); ok {
		for i := 1; i <= list.Len(); i++ {
			row, ok := list.RawGetInt(i).(*lua.LTable)
			if !ok {
				return effect.Result{}, fmt.Errorf("modifier %d is not a table", i)
			}
			m, err := modifierFromTable(row, ctx.Key)
			if err != nil {
				return effect.Result{}, fmt.Errorf("modifier %d: %w", i, err)
			}
			res.Modifiers = append(res.Modifiers, m)
		}
	}
	return res, nil
}

// intentFromTable reads {kind=, target=, amount=, percent=, status=, turns=,
// value=, factor=, element=}. The target defaults to the source.
func intentFromTable(t *lua.LTable, ctx *effect.Context) (effect.Intent, error) {
	kind, ok := effect.ParseIntentKind(lua.LVAsString(t.RawGetString("kind")))
	if !ok {
		return effect.Intent{}, fmt.Errorf("unknown kind %q", lua.LVAsString(t.RawGetString("kind")))
	}
	target := ctx.Source.ID
	if n, ok := t.RawGetString("target").(lua.LNumber); ok {
		target = int64(n)
	}
	in := effect.Intent{
		Kind:    kind,
		Target:  target,
		Amount:  int(lua.LVAsNumber(t.RawGetString("amount"))),
		Percent: int(lua.LVAsNumber(t.RawGetString("percent"))),
		Value:   lua.LVAsString(t.RawGetString("value")),
		Factor:  float64(lua.LVAsNumber(t.RawGetString("factor"))),
		Turns:   int(lua.LVAsNumber(t.RawGetString("turns"))),
	}
	if s := lua.LVAsString(t.RawGetString("element")); s != "" {
		e, ok := effect.ParseElement(s)
		if !ok {
			return effect.Intent{}, fmt.Errorf("unknown element %q", s)
		}
		in.Element = e
	}

	switch kind {
	case effect.IntentApplyStatus, effect.IntentRemoveStatus:
		name := lua.LVAsString(t.RawGetString("status"))
		st, ok := effect.ParseStatusType(name)
		if !ok {
			return effect.Intent{}, fmt.Errorf("unknown status %q", name)
		}
		in.StatusType = st
		if kind == effect.IntentApplyStatus {
			amount := max(in.Amount, 1)
			if in.Turns > 0 {
				in.Status = effect.Timed(st, amount, in.Turns)
			} else {
				in.Status = effect.Permanent(st, amount)
			}
		}
	case effect.IntentDamageModifier:
		if in.Factor <= 0 {
			return effect.Intent{}, fmt.Errorf("damage-modifier needs a positive factor")
		}
	}
	return in, nil
}

// modifierFromTable reads {kind="add", amount=} or {kind="mul", stage=,
// factor=}.
func modifierFromTable(t *lua.LTable, source string) (damage.Modifier, error) {
	switch kind := lua.LVAsString(t.RawGetString("kind")); kind {
	case "add":
		return damage.Add(source, int(lua.LVAsNumber(t.RawGetString("amount")))), nil
	case "mul", "":
		name := lua.LVAsString(t.RawGetString("stage"))
		stage, ok := damage.ParseStage(name)
		if !ok {
			return damage.Modifier{}, fmt.Errorf("unknown stage %q", name)
		}
		f := float64(lua.LVAsNumber(t.RawGetString("factor")))
		if f <= 0 {
			return damage.Modifier{}, fmt.Errorf("factor must be positive")
		}
		return damage.Mul(source, stage, f), nil
	default:
		return damage.Modifier{}, fmt.Errorf("unknown modifier kind %q", kind)
	}
}
