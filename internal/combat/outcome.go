package combat

import (
	"github.com/pictoforge/server/internal/damage"
	"github.com/pictoforge/server/internal/effect"
	"github.com/pictoforge/server/internal/skill"
)

// HitReport is the damage one action did to one target.
type HitReport struct {
	TargetID int64
	// Hits holds the damage of every hit, 0 for hits a shield absorbed.
	Hits       []int
	Absorbed   int
	Total      int
	Breakdown  damage.Breakdown // composition of the first unabsorbed hit
	Overridden bool
	Lethal     bool
	// Prevented is set when a death-preventing effect kept the target up.
	Prevented bool
}

// Outcome is everything one trigger produced, after it was committed.
type Outcome struct {
	BattleID int64
	Trigger  effect.Trigger
	ActorID  int64

	Results  []effect.Result
	Failures []effect.Failure
	Hits     []HitReport
	Intents  []effect.Intent

	Skill *skill.Resolved
}

func (o *Outcome) merge(out effect.Outcome) {
	o.Results = append(o.Results, out.Results...)
	o.Failures = append(o.Failures, out.Failures...)
	o.Intents = append(o.Intents, out.Intents()...)
}

// Notices returns one "effect failed" line per failing effect.
func (o *Outcome) Notices() []string {
	out := make([]string, len(o.Failures))
	for i, f := range o.Failures {
		out[i] = f.Notice()
	}
	return out
}

// Messages returns the narrative lines of every activated effect.
func (o *Outcome) Messages() []string {
	var out []string
	for _, r := range o.Results {
		if r.Message != "" {
			out = append(out, r.Message)
		}
	}
	return out
}

// TotalDamage sums damage dealt across every target.
func (o *Outcome) TotalDamage() int {
	n := 0
	for _, h := range o.Hits {
		n += h.Total
	}
	return n
}
