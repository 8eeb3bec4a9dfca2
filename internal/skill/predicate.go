package skill

import (
	"sort"

	"github.com/pictoforge/server/internal/effect"
)

// Env is what a conditional-effect predicate sees.
type Env struct {
	Source  *effect.Character
	Primary *effect.Character // nil for self-targeted skills
	Roster  []effect.Character
}

func (e *Env) allies() []effect.Character {
	var out []effect.Character
	for _, c := range e.Roster {
		if c.Hostile == e.Source.Hostile {
			out = append(out, c)
		}
	}
	return out
}

// Predicate evaluates a named condition against the live snapshot.
type Predicate func(env *Env) bool

func targetHas(t effect.StatusType) Predicate {
	return func(env *Env) bool {
		return env.Primary != nil && env.Primary.HasStatus(t)
	}
}

func casterHPBelow(pct float64) Predicate {
	return func(env *Env) bool {
		return env.Source.HPPercent() < pct
	}
}

var predicates = map[string]Predicate{
	"target-burning":  targetHas(effect.StatusBurn),
	"target-marked":   targetHas(effect.StatusMarked),
	"target-stunned":  targetHas(effect.StatusStunned),
	"target-broken":   targetHas(effect.StatusBroken),
	"target-foretold": targetHas(effect.StatusForetell),

	"caster-hp-below-50": casterHPBelow(50),
	"caster-hp-below-25": casterHPBelow(25),

	"ally-down": func(env *Env) bool {
		for _, c := range env.allies() {
			if !c.Alive() {
				return true
			}
		}
		return false
	},
	"all-allies-alive": func(env *Env) bool {
		for _, c := range env.allies() {
			if !c.Alive() {
				return false
			}
		}
		return true
	},

	"caster-twilight":        func(env *Env) bool { return env.Source.InTwilight() },
	"caster-stance-virtuose": func(env *Env) bool { return env.Source.Stance == effect.StanceVirtuose },
	"caster-full-charge":     func(env *Env) bool { return env.Source.FullCharge() },
}

// KnownPredicate reports whether a condition name can be evaluated.
func KnownPredicate(name string) bool {
	_, ok := predicates[name]
	return ok
}

// Predicates lists every known condition name, sorted.
func Predicates() []string {
	out := make([]string, 0, len(predicates))
	for k := range predicates {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
