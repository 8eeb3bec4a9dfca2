package persist

import (
	"fmt"

	"github.com/pictoforge/server/internal/effect"
)

type statement struct {
	sql  string
	args []any
	// mustMatch marks updates that fail the batch when they touch no row.
	mustMatch bool
}

// intentStatement maps one intent to the SQL that applies it. Every
// statement is keyed by battle and character id.
func intentStatement(battleID int64, in effect.Intent) (statement, error) {
	id := in.Target
	update := func(set string, args ...any) statement {
		return statement{
			sql:       `UPDATE battle_characters SET ` + set + ` WHERE battle_id = $1 AND char_id = $2`,
			args:      append([]any{battleID, id}, args...),
			mustMatch: true,
		}
	}

	switch in.Kind {
	case effect.IntentApplyStatus:
		s := in.Status
		if s.Type == "" {
			return statement{}, fmt.Errorf("apply-status without status type")
		}
		return upsertStatus(battleID, id, s), nil

	case effect.IntentRemoveStatus:
		return statement{
			sql:  `DELETE FROM battle_statuses WHERE battle_id = $1 AND char_id = $2 AND status_type = $3`,
			args: []any{battleID, id, string(in.StatusType)},
		}, nil

	case effect.IntentHeal:
		return update(`hp = LEAST(max_hp, hp + CASE WHEN $3 > 0 THEN max_hp * $3 / 100 ELSE $4 END)`,
			in.Percent, in.Amount), nil

	case effect.IntentDamage:
		return update(`hp = GREATEST(0, hp - $3)`, in.Amount), nil

	case effect.IntentGrantAP:
		return update(`ap = GREATEST(0, CASE WHEN max_ap > 0 THEN LEAST(max_ap, ap + $3) ELSE ap + $3 END)`,
			in.Amount), nil

	case effect.IntentSetStance:
		return update(`stance = $3`, in.Value), nil
	case effect.IntentSetMask:
		return update(`mask = $3`, in.Value), nil
	case effect.IntentSetRank:
		return update(`rank = $3`, in.Value), nil
	case effect.IntentSetWheel:
		return update(`wheel = $3`, in.Amount), nil

	case effect.IntentSetStains:
		stains := make([]string, len(in.Stains))
		for i, e := range in.Stains {
			stains[i] = string(e)
		}
		return update(`stains = $3`, stains), nil

	case effect.IntentSetCharge:
		return update(`charge = GREATEST(0, CASE WHEN max_charge > 0 THEN LEAST(max_charge, $3) ELSE $3 END)`,
			in.Amount), nil

	case effect.IntentRevive:
		// Also lifts a character that a death-preventing effect left at 1 HP.
		return update(`hp = GREATEST(hp, 1, max_hp * $3 / 100)`, in.Percent), nil

	case effect.IntentBreak:
		return upsertStatus(battleID, id, effect.Timed(effect.StatusBroken, 1, 1)), nil

	case effect.IntentExtraTurn:
		return statement{
			sql:  `INSERT INTO battle_turn_queue (battle_id, char_id) VALUES ($1, $2)`,
			args: []any{battleID, id},
		}, nil

	case effect.IntentDamageModifier:
		var turns *int
		if in.Turns > 0 {
			t := in.Turns
			turns = &t
		}
		return statement{
			sql: `INSERT INTO battle_damage_modifiers (battle_id, char_id, source, factor, element, turns)
			      VALUES ($1, $2, $3, $4, $5, $6)`,
			args: []any{battleID, id, in.Source, in.Factor, string(in.Element), turns},
		}, nil
	}
	return statement{}, fmt.Errorf("unknown intent kind %s", in.Kind)
}

// upsertStatus stacks the amount onto an existing status and keeps the longer
// duration; a permanent status stays permanent.
func upsertStatus(battleID, charID int64, s effect.StatusEffect) statement {
	return statement{
		sql: `INSERT INTO battle_statuses (battle_id, char_id, status_type, amount, turns, skip_decrement)
		      VALUES ($1, $2, $3, $4, $5, $6)
		      ON CONFLICT (battle_id, char_id, status_type) DO UPDATE SET
		          amount = battle_statuses.amount + EXCLUDED.amount,
		          turns = CASE
		              WHEN battle_statuses.turns IS NULL OR EXCLUDED.turns IS NULL THEN NULL
		              ELSE GREATEST(battle_statuses.turns, EXCLUDED.turns)
		          END,
		          skip_decrement = EXCLUDED.skip_decrement`,
		args: []any{battleID, charID, string(s.Type), s.Amount, s.Turns, s.SkipDecrement},
	}
}
