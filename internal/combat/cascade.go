package combat

import "github.com/pictoforge/server/internal/effect"

// cascade fires the follow-up triggers for the state changes effects
// requested since intent index from: status applications, stance, mask and
// rank changes, AP gains. It goes one level deep; intents produced by the
// follow-ups do not cascade again. Intents the orchestrator made itself carry
// no source and are skipped.
func (t *turn) cascade(actor *effect.Character, from int) error {
	end := len(t.out.Intents)
	for i := from; i < end; i++ {
		in := t.out.Intents[i]
		if in.Source == "" {
			continue
		}
		bearer, err := t.find(in.Target)
		if err != nil || !bearer.Alive() {
			continue
		}
		for _, f := range followUps(in, actor, bearer) {
			if _, err := t.dispatch(f.trigger, f.src, f.target, f.aux); err != nil {
				return err
			}
		}
	}
	return nil
}

type followUp struct {
	trigger effect.Trigger
	src     *effect.Character
	target  *effect.Character
	aux     effect.Aux
}

func followUps(in effect.Intent, actor, bearer *effect.Character) []followUp {
	switch in.Kind {
	case effect.IntentApplyStatus:
		st := in.Status.Type
		aux := effect.Aux{Status: st}
		var out []followUp
		switch st {
		case effect.StatusBurn:
			out = append(out, followUp{effect.TriggerBurnApplied, actor, bearer, aux})
		case effect.StatusMarked:
			out = append(out, followUp{effect.TriggerMarkApplied, actor, bearer, aux})
		case effect.StatusShield:
			return []followUp{{effect.TriggerShieldGained, bearer, nil, aux}}
		case effect.StatusTwilight:
			if bearer.InTwilight() {
				return nil
			}
			return []followUp{{effect.TriggerTwilightStart, bearer, nil, aux}}
		}
		if st.IsDebuff() {
			return append(out, followUp{effect.TriggerDebuffApplied, bearer, actor, aux})
		}
		return append(out, followUp{effect.TriggerBuffApplied, bearer, actor, aux})

	case effect.IntentSetStance:
		next := effect.Stance(in.Value)
		if next == bearer.Stance {
			return nil
		}
		return []followUp{{effect.TriggerStanceChange, bearer, nil, effect.Aux{OldStance: bearer.Stance, NewStance: next}}}

	case effect.IntentSetMask:
		next := effect.Mask(in.Value)
		if next == bearer.Mask {
			return nil
		}
		return []followUp{{effect.TriggerMaskChange, bearer, nil, effect.Aux{OldMask: bearer.Mask, NewMask: next}}}

	case effect.IntentSetRank:
		next := effect.Rank(in.Value)
		if next == bearer.Rank {
			return nil
		}
		return []followUp{{effect.TriggerRankChange, bearer, nil, effect.Aux{OldRank: bearer.Rank, NewRank: next}}}

	case effect.IntentGrantAP:
		if in.Amount <= 0 {
			return nil
		}
		return []followUp{{effect.TriggerAPGain, bearer, nil, effect.Aux{APGained: in.Amount}}}
	}
	return nil
}
