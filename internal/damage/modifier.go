// Package damage composes per-hit damage from a base value and the modifiers
// contributed by skills, archetype state and equipped effects.
package damage

import "fmt"

// Kind selects how a modifier applies.
type Kind int8

const (
	Additive       Kind = iota // flat bonus added to the base
	Multiplicative             // factor applied after every additive bonus
)

func (k Kind) String() string {
	switch k {
	case Additive:
		return "add"
	case Multiplicative:
		return "mul"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Stage orders multiplicative modifiers. Lower stages apply first; modifiers
// in the same stage keep registration order.
type Stage int

const (
	StageResourceConsumption Stage = iota + 1 // per-hit resource spent
	StageSpecialState                         // twilight and similar
	StageRank                                 // perfection rank, skill rank bonus folded in
	StageLowResource                          // scales as HP or AP runs low
	StageEscalation                           // consecutive use
	StageHitsReceived
	StageMask
	StageTargetCondition // burning, stunned, powerless; one modifier each
	StageConsumptionCount
	StageElemental
	StageStatusFlat // marked and other flat status bonuses
)

var stageNames = [...]string{
	StageResourceConsumption: "resource-consumption",
	StageSpecialState:        "special-state",
	StageRank:                "rank",
	StageLowResource:         "low-resource",
	StageEscalation:          "escalation",
	StageHitsReceived:        "hits-received",
	StageMask:                "mask",
	StageTargetCondition:     "target-condition",
	StageConsumptionCount:    "consumption-count",
	StageElemental:           "elemental",
	StageStatusFlat:          "status-flat",
}

func (s Stage) String() string {
	if s > 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// ParseStage resolves a stage name as written by content scripts.
func ParseStage(name string) (Stage, bool) {
	for i, n := range stageNames {
		if n != "" && n == name {
			return Stage(i), true
		}
	}
	return 0, false
}

// Modifier is one contribution to a hit. Additive modifiers use Amount,
// multiplicative ones use Factor and Stage.
type Modifier struct {
	Source string
	Kind   Kind
	Stage  Stage
	Amount int
	Factor float64
}

// Add builds a flat bonus.
func Add(source string, amount int) Modifier {
	return Modifier{Source: source, Kind: Additive, Amount: amount}
}

// Mul builds a multiplier applied at the given stage.
func Mul(source string, stage Stage, factor float64) Modifier {
	return Modifier{Source: source, Kind: Multiplicative, Stage: stage, Factor: factor}
}

func (m Modifier) String() string {
	if m.Kind == Additive {
		return fmt.Sprintf("%s %+d", m.Source, m.Amount)
	}
	return fmt.Sprintf("%s x%.2f (%s)", m.Source, m.Factor, m.Stage)
}

// Common multipliers.
const (
	TwilightFactor    = 2.5
	MarkedFactor      = 1.25
	WeaknessFactor    = 1.5
	ResistanceFactor  = 0.5
	DefencelessFactor = 1.25
	BurningFactor     = 1.2
	StunnedFactor     = 1.3
	PowerlessFactor   = 1.15
	PowerfulFactor    = 1.25
)
