package effect

import "github.com/pictoforge/server/internal/damage"

// Result is what a handler reports back. A result with Success false
// contributes nothing and is dropped by the dispatcher.
type Result struct {
	Success bool
	// Key is the equip key of the handler, filled in by the dispatcher.
	Key     string
	Message string

	// Override replaces the computed damage or heal value when set.
	Override     *int
	PreventDeath bool
	ExtraTurn    bool

	Intents   []Intent
	Modifiers []damage.Modifier
}

// Skip is the non-activating result.
func Skip() Result { return Result{} }

// Activated builds a successful result with a message.
func Activated(msg string, intents ...Intent) Result {
	return Result{Success: true, Message: msg, Intents: intents}
}

// WithModifiers attaches damage modifiers.
func (r Result) WithModifiers(mods ...damage.Modifier) Result {
	r.Modifiers = append(r.Modifiers, mods...)
	return r
}

// WithIntents appends intents.
func (r Result) WithIntents(in ...Intent) Result {
	r.Intents = append(r.Intents, in...)
	return r
}

// WithOverride sets the override value.
func (r Result) WithOverride(v int) Result {
	r.Override = &v
	return r
}

// Statuses lists the status effects the result applies.
func (r Result) Statuses() []StatusEffect {
	var out []StatusEffect
	for _, in := range r.Intents {
		if in.Kind == IntentApplyStatus {
			out = append(out, in.Status)
		}
	}
	return out
}

// Failure records a handler that blew up during dispatch.
type Failure struct {
	Key     string
	Trigger Trigger
	Reason  string
}

// Notice is the player-facing text for a failed effect.
func (f Failure) Notice() string {
	return "effect failed: " + f.Key
}

// Outcome is the collected result of one dispatch.
type Outcome struct {
	Results  []Result
	Failures []Failure
}

// Merge appends another outcome, keeping order.
func (o *Outcome) Merge(other Outcome) {
	o.Results = append(o.Results, other.Results...)
	o.Failures = append(o.Failures, other.Failures...)
}

// Intents flattens every result's intents in order.
func (o Outcome) Intents() []Intent {
	var out []Intent
	for _, r := range o.Results {
		out = append(out, r.Intents...)
	}
	return out
}

// Modifiers flattens every result's damage modifiers in order.
func (o Outcome) Modifiers() []damage.Modifier {
	var out []damage.Modifier
	for _, r := range o.Results {
		out = append(out, r.Modifiers...)
	}
	return out
}

// PreventDeath reports whether any result prevents death.
func (o Outcome) PreventDeath() bool {
	for _, r := range o.Results {
		if r.PreventDeath {
			return true
		}
	}
	return false
}

// ExtraTurn reports whether any result grants an extra turn.
func (o Outcome) ExtraTurn() bool {
	for _, r := range o.Results {
		if r.ExtraTurn {
			return true
		}
	}
	return false
}

// Override returns the last override in dispatch order.
func (o Outcome) Override() (int, bool) {
	var v int
	found := false
	for _, r := range o.Results {
		if r.Override != nil {
			v = *r.Override
			found = true
		}
	}
	return v, found
}
