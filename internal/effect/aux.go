package effect

// Aux carries the trigger-specific payload. Fields that do not apply to a
// trigger stay zero.
type Aux struct {
	// Damage dealt or taken so far in this action.
	Damage  int
	Element Element
	SkillID string

	IsSkill     bool
	IsCritical  bool
	IsFreeAim   bool
	IsWeakPoint bool
	IsCounter   bool

	StainsConsumed  []Element
	StainsGenerated []Element

	OldStance, NewStance Stance
	OldMask, NewMask     Mask
	OldRank, NewRank     Rank

	APGained   int
	HealAmount int
	Status     StatusType // burn/buff/debuff/mark applied
	HitIndex   int
	HitCount   int

	// Hits received by the source since its last turn.
	HitsReceived int
}

func (a Aux) clone() Aux {
	out := a
	if a.StainsConsumed != nil {
		out.StainsConsumed = append([]Element(nil), a.StainsConsumed...)
	}
	if a.StainsGenerated != nil {
		out.StainsGenerated = append([]Element(nil), a.StainsGenerated...)
	}
	return out
}
