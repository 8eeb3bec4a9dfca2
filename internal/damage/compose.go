package damage

import (
	"math"
	"sort"
)

// Step is one applied modifier and the running value after it.
type Step struct {
	Modifier Modifier
	Before   int
	After    int
}

// Breakdown records how a final value was reached, for narrative output.
type Breakdown struct {
	Base  int
	Steps []Step
	Final int
}

// epsilon absorbs binary representation error so 100*1.15 floors to 115.
const epsilon = 1e-9

func floor(v float64) int {
	return int(math.Floor(v + epsilon))
}

// Compose applies mods to base: additive modifiers first in the order given,
// then multiplicative modifiers ordered by stage (stable), flooring after
// every multiplicative step. The result never drops below zero.
func Compose(base int, mods []Modifier) Breakdown {
	b := Breakdown{Base: base}
	v := base

	var muls []Modifier
	for _, m := range mods {
		if m.Kind != Additive {
			muls = append(muls, m)
			continue
		}
		next := v + m.Amount
		b.Steps = append(b.Steps, Step{Modifier: m, Before: v, After: next})
		v = next
	}

	sort.SliceStable(muls, func(i, j int) bool { return muls[i].Stage < muls[j].Stage })
	for _, m := range muls {
		next := floor(float64(v) * m.Factor)
		b.Steps = append(b.Steps, Step{Modifier: m, Before: v, After: next})
		v = next
	}

	if v < 0 {
		v = 0
	}
	b.Final = v
	return b
}

// Apply is Compose without the breakdown.
func Apply(base int, mods []Modifier) int {
	return Compose(base, mods).Final
}

// Scale floors base*factor, the way every multiplicative step does.
func Scale(base int, factor float64) int {
	return floor(float64(base) * factor)
}
