package effect

import "strings"

// StatusType tags a status effect. Amount semantics vary per type: Burn and
// Foretell count stacks, Shield counts shields, most others use 1.
type StatusType string

const (
	StatusBurn        StatusType = "Burn"
	StatusMarked      StatusType = "Marked"
	StatusStunned     StatusType = "Stunned"
	StatusPowerless   StatusType = "Powerless"
	StatusPowerful    StatusType = "Powerful"
	StatusShield      StatusType = "Shield"
	StatusForetell    StatusType = "Foretell"
	StatusTwilight    StatusType = "Twilight"
	StatusRush        StatusType = "Rush"
	StatusSlow        StatusType = "Slow"
	StatusProtected   StatusType = "Protected"
	StatusRegen       StatusType = "Regen"
	StatusBroken      StatusType = "Broken"
	StatusInverted    StatusType = "Inverted"
	StatusDefenceless StatusType = "Defenceless"
	StatusSilenced    StatusType = "Silenced"
	StatusFrozen      StatusType = "Frozen"
)

var statusTypes = []StatusType{
	StatusBurn, StatusMarked, StatusStunned, StatusPowerless, StatusPowerful, StatusShield,
	StatusForetell, StatusTwilight, StatusRush, StatusSlow, StatusProtected, StatusRegen,
	StatusBroken, StatusInverted, StatusDefenceless, StatusSilenced, StatusFrozen,
}

// ParseStatusType matches a status name case-insensitively.
func ParseStatusType(s string) (StatusType, bool) {
	s = strings.TrimSpace(s)
	for _, t := range statusTypes {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}

// IsDebuff reports whether the status harms its bearer.
func (s StatusType) IsDebuff() bool {
	switch s {
	case StatusBurn, StatusMarked, StatusStunned, StatusPowerless, StatusSlow,
		StatusBroken, StatusInverted, StatusDefenceless, StatusSilenced, StatusFrozen:
		return true
	}
	return false
}

// StatusEffect is one active status on a character. Turns == nil means the
// status stays until removed. SkipDecrement protects a status applied
// mid-turn from the next decrement step.
type StatusEffect struct {
	Type          StatusType `json:"type"`
	Amount        int        `json:"amount"`
	Turns         *int       `json:"turns,omitempty"`
	SkipDecrement bool       `json:"skip_decrement,omitempty"`
}

// Timed builds a status lasting the given number of turns.
func Timed(t StatusType, amount, turns int) StatusEffect {
	return StatusEffect{Type: t, Amount: amount, Turns: &turns, SkipDecrement: true}
}

// Permanent builds a status without a turn counter.
func Permanent(t StatusType, amount int) StatusEffect {
	return StatusEffect{Type: t, Amount: amount}
}

// TickStatuses runs the turn-decrement step and returns the surviving
// statuses. Permanent statuses are kept as is; a status flagged with
// SkipDecrement loses the flag instead of a turn.
func TickStatuses(in []StatusEffect) []StatusEffect {
	out := make([]StatusEffect, 0, len(in))
	for _, s := range in {
		if s.Amount < 0 {
			s.Amount = 0
		}
		if s.Turns == nil {
			out = append(out, s)
			continue
		}
		if s.SkipDecrement {
			s.SkipDecrement = false
			turns := *s.Turns
			s.Turns = &turns
			out = append(out, s)
			continue
		}
		left := *s.Turns - 1
		if left <= 0 {
			continue
		}
		s.Turns = &left
		out = append(out, s)
	}
	return out
}

// TickDamageTaken counts down timed damage-taken modifiers and drops the ones
// that run out.
func TickDamageTaken(in []TakenModifier) []TakenModifier {
	out := make([]TakenModifier, 0, len(in))
	for _, m := range in {
		if m.Turns != nil {
			left := *m.Turns - 1
			if left <= 0 {
				continue
			}
			m.Turns = &left
		}
		out = append(out, m)
	}
	return out
}

// Archetype selects which secondary state a character uses.
type Archetype string

const (
	ArchetypeGustave Archetype = "gustave" // charge
	ArchetypeLune    Archetype = "lune"    // stains
	ArchetypeMaelle  Archetype = "maelle"  // stances
	ArchetypeSciel   Archetype = "sciel"   // foretell, twilight
	ArchetypeVerso   Archetype = "verso"   // perfection rank
	ArchetypeMonoco  Archetype = "monoco"  // masks, wheel
	ArchetypeEnemy   Archetype = "enemy"
)

type Stance string

const (
	StanceNone      Stance = ""
	StanceOffensive Stance = "offensive"
	StanceDefensive Stance = "defensive"
	StanceVirtuose  Stance = "virtuose"
)

type Rank string

const (
	RankNone Rank = ""
	RankD    Rank = "D"
	RankC    Rank = "C"
	RankB    Rank = "B"
	RankA    Rank = "A"
	RankS    Rank = "S"
)

var rankOrder = []Rank{RankD, RankC, RankB, RankA, RankS}

// Next returns the rank one step up, capped at S.
func (r Rank) Next() Rank {
	for i, v := range rankOrder {
		if v == r && i+1 < len(rankOrder) {
			return rankOrder[i+1]
		}
	}
	if r == RankNone {
		return RankD
	}
	return RankS
}

type Mask string

const (
	MaskNone     Mask = ""
	MaskAgile    Mask = "agile"
	MaskCaster   Mask = "caster"
	MaskHeavy    Mask = "heavy"
	MaskBalanced Mask = "balanced"
	MaskAlmighty Mask = "almighty"
)

// Character is a read-only snapshot of a battle participant. The engine never
// mutates the battle's characters; it emits intents instead.
type Character struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Archetype Archetype `json:"archetype"`
	Hostile   bool      `json:"hostile"`

	HP    int `json:"hp"`
	MaxHP int `json:"max_hp"`
	AP    int `json:"ap"`
	MaxAP int `json:"max_ap"`

	Statuses []StatusEffect `json:"statuses,omitempty"`

	Stance    Stance     `json:"stance,omitempty"`
	Rank      Rank       `json:"rank,omitempty"`
	Mask      Mask       `json:"mask,omitempty"`
	Wheel     int        `json:"wheel,omitempty"`
	Charge    int        `json:"charge,omitempty"`
	MaxCharge int        `json:"max_charge,omitempty"`
	Stains    [4]Element `json:"stains"`

	Weaknesses  []Element `json:"weaknesses,omitempty"`
	Resistances []Element `json:"resistances,omitempty"`

	// DamageTaken lists registered damage-taken multipliers.
	DamageTaken []TakenModifier `json:"damage_taken,omitempty"`
}

// TakenModifier scales damage the bearer takes, for one element or for all
// when Element is ElementNone.
type TakenModifier struct {
	Source  string  `json:"source"`
	Factor  float64 `json:"factor"`
	Element Element `json:"element,omitempty"`
	Turns   *int    `json:"turns,omitempty"`
}

// Applies reports whether the modifier affects damage of element e.
func (m TakenModifier) Applies(e Element) bool {
	return m.Element == ElementNone || m.Element == e
}

// Clone returns a deep copy.
func (c Character) Clone() Character {
	out := c
	if c.Statuses != nil {
		out.Statuses = make([]StatusEffect, len(c.Statuses))
		for i, s := range c.Statuses {
			if s.Turns != nil {
				turns := *s.Turns
				s.Turns = &turns
			}
			out.Statuses[i] = s
		}
	}
	if c.Weaknesses != nil {
		out.Weaknesses = append([]Element(nil), c.Weaknesses...)
	}
	if c.Resistances != nil {
		out.Resistances = append([]Element(nil), c.Resistances...)
	}
	if c.DamageTaken != nil {
		out.DamageTaken = make([]TakenModifier, len(c.DamageTaken))
		for i, m := range c.DamageTaken {
			if m.Turns != nil {
				turns := *m.Turns
				m.Turns = &turns
			}
			out.DamageTaken[i] = m
		}
	}
	return out
}

func (c *Character) Alive() bool { return c.HP > 0 }

// HPPercent returns current health as a percentage of maximum.
func (c *Character) HPPercent() float64 {
	if c.MaxHP <= 0 {
		return 0
	}
	return float64(c.HP) * 100 / float64(c.MaxHP)
}

func (c *Character) HasStatus(t StatusType) bool {
	for _, s := range c.Statuses {
		if s.Type == t {
			return true
		}
	}
	return false
}

// StatusAmount returns the summed amount of a status type.
func (c *Character) StatusAmount(t StatusType) int {
	n := 0
	for _, s := range c.Statuses {
		if s.Type == t {
			n += s.Amount
		}
	}
	return n
}

// Shields returns the number of shields the character holds.
func (c *Character) Shields() int { return c.StatusAmount(StatusShield) }

// ActiveStains counts filled stain slots.
func (c *Character) ActiveStains() int {
	n := 0
	for _, e := range c.Stains {
		if e != ElementNone {
			n++
		}
	}
	return n
}

// StainCount counts slots holding the given element.
func (c *Character) StainCount(e Element) int {
	n := 0
	for _, s := range c.Stains {
		if s == e && e != ElementNone {
			n++
		}
	}
	return n
}

func (c *Character) WeakTo(e Element) bool    { return containsElement(c.Weaknesses, e) }
func (c *Character) Resists(e Element) bool   { return containsElement(c.Resistances, e) }
func (c *Character) FullCharge() bool         { return c.MaxCharge > 0 && c.Charge >= c.MaxCharge }
func (c *Character) InTwilight() bool         { return c.HasStatus(StatusTwilight) }
func (c *Character) AllyOf(o *Character) bool { return c.Hostile == o.Hostile }

func containsElement(list []Element, e Element) bool {
	if e == ElementNone {
		return false
	}
	for _, v := range list {
		if v == e {
			return true
		}
	}
	return false
}

// AddStains fills empty slots in order and returns the new slot array plus
// how many stains fit.
func AddStains(slots [4]Element, add ...Element) ([4]Element, int) {
	placed := 0
	for _, e := range add {
		for i := range slots {
			if slots[i] == ElementNone {
				slots[i] = e
				placed++
				break
			}
		}
	}
	return slots, placed
}

// ConsumeStains removes up to n stains of element e (any element when e is
// ElementNone), compacting the remaining slots to keep their order.
func ConsumeStains(slots [4]Element, e Element, n int) ([4]Element, []Element) {
	var consumed []Element
	var kept []Element
	for _, s := range slots {
		if s == ElementNone {
			continue
		}
		if len(consumed) < n && (e == ElementNone || s == e) {
			consumed = append(consumed, s)
			continue
		}
		kept = append(kept, s)
	}
	var out [4]Element
	copy(out[:], kept)
	return out, consumed
}
