package effect

import "fmt"

// IntentKind enumerates the state changes a handler may request.
type IntentKind int

const (
	IntentApplyStatus IntentKind = iota + 1
	IntentRemoveStatus
	IntentHeal
	IntentDamage
	IntentGrantAP
	IntentSetStance
	IntentSetMask
	IntentSetRank
	IntentSetWheel
	IntentSetStains
	IntentSetCharge
	IntentRevive
	IntentBreak
	IntentExtraTurn
	IntentDamageModifier
)

var intentNames = map[IntentKind]string{
	IntentApplyStatus:    "apply-status",
	IntentRemoveStatus:   "remove-status",
	IntentHeal:           "heal",
	IntentDamage:         "damage",
	IntentGrantAP:        "grant-ap",
	IntentSetStance:      "set-stance",
	IntentSetMask:        "set-mask",
	IntentSetRank:        "set-rank",
	IntentSetWheel:       "set-wheel",
	IntentSetStains:      "set-stains",
	IntentSetCharge:      "set-charge",
	IntentRevive:         "revive",
	IntentBreak:          "break",
	IntentExtraTurn:      "extra-turn",
	IntentDamageModifier: "damage-modifier",
}

func (k IntentKind) String() string {
	if s, ok := intentNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Unknown(%d)", int(k))
}

// ParseIntentKind is the inverse of String, used by scripts and the journal.
func ParseIntentKind(s string) (IntentKind, bool) {
	for k, name := range intentNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Intent is a requested state change. Handlers return intents; the
// orchestrator sends them to persistence, so handlers never touch storage.
type Intent struct {
	Kind   IntentKind `json:"kind"`
	Target int64      `json:"target"`

	Status     StatusEffect `json:"status,omitempty"`
	StatusType StatusType   `json:"status_type,omitempty"`

	// Amount is an absolute value: HP healed or dealt, AP granted, charge or
	// wheel position set.
	Amount int `json:"amount,omitempty"`
	// Percent of max HP for heals and revives; ignored when zero.
	Percent int `json:"percent,omitempty"`

	Value  string     `json:"value,omitempty"`
	Stains [4]Element `json:"stains"`

	Factor  float64 `json:"factor,omitempty"`
	Element Element `json:"element,omitempty"`
	Turns   int     `json:"turns,omitempty"`

	// Source is the equip key that produced the intent, set by the dispatcher.
	Source string `json:"source,omitempty"`
}

func ApplyStatus(target int64, s StatusEffect) Intent {
	return Intent{Kind: IntentApplyStatus, Target: target, Status: s}
}

func RemoveStatus(target int64, t StatusType) Intent {
	return Intent{Kind: IntentRemoveStatus, Target: target, StatusType: t}
}

func Heal(target int64, amount int) Intent {
	return Intent{Kind: IntentHeal, Target: target, Amount: amount}
}

// HealPercent heals a share of the target's max HP.
func HealPercent(target int64, percent int) Intent {
	return Intent{Kind: IntentHeal, Target: target, Percent: percent}
}

func Damage(target int64, amount int) Intent {
	return Intent{Kind: IntentDamage, Target: target, Amount: amount}
}

func GrantAP(target int64, amount int) Intent {
	return Intent{Kind: IntentGrantAP, Target: target, Amount: amount}
}

func SetStance(target int64, s Stance) Intent {
	return Intent{Kind: IntentSetStance, Target: target, Value: string(s)}
}

func SetMask(target int64, m Mask) Intent {
	return Intent{Kind: IntentSetMask, Target: target, Value: string(m)}
}

func SetRank(target int64, r Rank) Intent {
	return Intent{Kind: IntentSetRank, Target: target, Value: string(r)}
}

func SetWheel(target int64, pos int) Intent {
	return Intent{Kind: IntentSetWheel, Target: target, Amount: pos}
}

func SetStains(target int64, stains [4]Element) Intent {
	return Intent{Kind: IntentSetStains, Target: target, Stains: stains}
}

func SetCharge(target int64, charge int) Intent {
	return Intent{Kind: IntentSetCharge, Target: target, Amount: charge}
}

// Revive brings a fallen character back with a share of max HP.
func Revive(target int64, percent int) Intent {
	return Intent{Kind: IntentRevive, Target: target, Percent: percent}
}

func Break(target int64) Intent {
	return Intent{Kind: IntentBreak, Target: target}
}

// ExtraTurn queues an immediate additional turn for the target.
func ExtraTurn(target int64) Intent {
	return Intent{Kind: IntentExtraTurn, Target: target}
}

// DamageModifier registers a lasting damage-taken multiplier on the target,
// restricted to one element unless element is ElementNone.
func DamageModifier(target int64, factor float64, element Element, turns int) Intent {
	return Intent{Kind: IntentDamageModifier, Target: target, Factor: factor, Element: element, Turns: turns}
}
