package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/pictoforge/server/internal/combat"
	"github.com/pictoforge/server/internal/effect"
)

// ErrNoActor is returned by NextTurn when nobody in the battle can act.
var ErrNoActor = errors.New("no living character to act")

// BattleRepo is the combat store backed by PostgreSQL.
type BattleRepo struct {
	db  *DB
	log *zap.Logger
}

func NewBattleRepo(db *DB, log *zap.Logger) *BattleRepo {
	return &BattleRepo{db: db, log: log}
}

var _ combat.Store = (*BattleRepo)(nil)

// LoadRoster returns the battle's characters in slot order with their
// statuses and damage-taken modifiers.
func (r *BattleRepo) LoadRoster(ctx context.Context, battleID int64) ([]effect.Character, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT char_id, name, archetype, hostile, hp, max_hp, ap, max_ap,
		        stance, rank, mask, wheel, charge, max_charge,
		        stains, weaknesses, resistances
		 FROM battle_characters
		 WHERE battle_id = $1
		 ORDER BY slot`, battleID,
	)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	defer rows.Close()

	var roster []effect.Character
	index := make(map[int64]int)
	for rows.Next() {
		var (
			c                             effect.Character
			archetype, stance, rank, mask string
			stains, weak, resist          []string
		)
		if err := rows.Scan(
			&c.ID, &c.Name, &archetype, &c.Hostile, &c.HP, &c.MaxHP, &c.AP, &c.MaxAP,
			&stance, &rank, &mask, &c.Wheel, &c.Charge, &c.MaxCharge,
			&stains, &weak, &resist,
		); err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		c.Archetype = effect.Archetype(archetype)
		c.Stance = effect.Stance(stance)
		c.Rank = effect.Rank(rank)
		c.Mask = effect.Mask(mask)
		for i := 0; i < len(stains) && i < len(c.Stains); i++ {
			c.Stains[i] = effect.Element(stains[i])
		}
		c.Weaknesses = elements(weak)
		c.Resistances = elements(resist)
		index[c.ID] = len(roster)
		roster = append(roster, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}

	if err := r.loadStatuses(ctx, battleID, roster, index); err != nil {
		return nil, err
	}
	if err := r.loadModifiers(ctx, battleID, roster, index); err != nil {
		return nil, err
	}
	return roster, nil
}

func (r *BattleRepo) loadStatuses(ctx context.Context, battleID int64, roster []effect.Character, index map[int64]int) error {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT char_id, status_type, amount, turns, skip_decrement
		 FROM battle_statuses
		 WHERE battle_id = $1
		 ORDER BY char_id, status_type`, battleID,
	)
	if err != nil {
		return fmt.Errorf("load statuses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			charID int64
			typ    string
			s      effect.StatusEffect
		)
		if err := rows.Scan(&charID, &typ, &s.Amount, &s.Turns, &s.SkipDecrement); err != nil {
			return fmt.Errorf("scan status: %w", err)
		}
		s.Type = effect.StatusType(typ)
		if i, ok := index[charID]; ok {
			roster[i].Statuses = append(roster[i].Statuses, s)
		}
	}
	return rows.Err()
}

func (r *BattleRepo) loadModifiers(ctx context.Context, battleID int64, roster []effect.Character, index map[int64]int) error {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT char_id, source, factor, element, turns
		 FROM battle_damage_modifiers
		 WHERE battle_id = $1
		 ORDER BY id`, battleID,
	)
	if err != nil {
		return fmt.Errorf("load damage modifiers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			charID int64
			elem   string
			m      effect.TakenModifier
		)
		if err := rows.Scan(&charID, &m.Source, &m.Factor, &elem, &m.Turns); err != nil {
			return fmt.Errorf("scan damage modifier: %w", err)
		}
		m.Element = effect.Element(elem)
		if i, ok := index[charID]; ok {
			roster[i].DamageTaken = append(roster[i].DamageTaken, m)
		}
	}
	return rows.Err()
}

// LoadLoadout returns what the character equips; a character without a
// loadout row equips nothing.
func (r *BattleRepo) LoadLoadout(ctx context.Context, battleID, charID int64) (combat.Loadout, error) {
	lo := combat.Loadout{CharacterID: charID}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT weapon, weapon_level, pictos, luminas
		 FROM battle_loadouts
		 WHERE battle_id = $1 AND char_id = $2`, battleID, charID,
	).Scan(&lo.Weapon.Item, &lo.Weapon.Level, &lo.Pictos, &lo.Luminas)
	if errors.Is(err, pgx.ErrNoRows) {
		return lo, nil
	}
	if err != nil {
		return combat.Loadout{}, fmt.Errorf("load loadout: %w", err)
	}
	return lo, nil
}

// ApplyIntents writes the whole batch in one transaction, in order. A batch
// that starts a turn moves the turn order first, so a failed batch leaves the
// turn where it was. A batch already in the journal is skipped.
func (r *BattleRepo) ApplyIntents(ctx context.Context, b combat.Batch) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		fresh, err := journal(ctx, tx, b)
		if err != nil {
			return err
		}
		if !fresh {
			r.log.Debug("intent batch already applied",
				zap.Int64("battle", b.BattleID),
				zap.Int64("seq", b.Seq),
			)
			return nil
		}

		if b.TurnOf != 0 {
			if err := advanceTurn(ctx, tx, b.BattleID, b.TurnOf); err != nil {
				return err
			}
		}
		for i, in := range b.Intents {
			st, err := intentStatement(b.BattleID, in)
			if err != nil {
				return fmt.Errorf("intent %d: %w", i, err)
			}
			tag, err := tx.Exec(ctx, st.sql, st.args...)
			if err != nil {
				return fmt.Errorf("intent %d (%s): %w", i, in.Kind, err)
			}
			if st.mustMatch && tag.RowsAffected() == 0 {
				return fmt.Errorf("intent %d (%s): character %d not in battle %d", i, in.Kind, in.Target, b.BattleID)
			}
		}
		return nil
	})
}

// NextTurn reports who acts next: the oldest queued extra turn, or else the
// next living character in slot order. Nothing is written.
func (r *BattleRepo) NextTurn(ctx context.Context, battleID int64) (int64, error) {
	var current int
	if err := r.db.Pool.QueryRow(ctx,
		`SELECT current_slot FROM battles WHERE id = $1`, battleID,
	).Scan(&current); err != nil {
		return 0, fmt.Errorf("read battle %d: %w", battleID, err)
	}
	next, err := nextActor(ctx, r.db.Pool, battleID, current)
	if err != nil {
		return 0, err
	}
	return next.charID, nil
}

// advanceTurn hands the turn to want inside tx, then ticks their statuses and
// damage modifiers. It fails with combat.ErrTurnMoved when want is no longer
// next.
func advanceTurn(ctx context.Context, tx pgx.Tx, battleID, want int64) error {
	var current int
	if err := tx.QueryRow(ctx,
		`SELECT current_slot FROM battles WHERE id = $1 FOR UPDATE`, battleID,
	).Scan(&current); err != nil {
		return fmt.Errorf("lock battle %d: %w", battleID, err)
	}

	next, err := nextActor(ctx, tx, battleID, current)
	if err != nil {
		return err
	}
	if next.charID != want {
		return fmt.Errorf("battle %d: next is %d, not %d: %w", battleID, next.charID, want, combat.ErrTurnMoved)
	}
	if next.queued != 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM battle_turn_queue WHERE id = $1`, next.queued); err != nil {
			return fmt.Errorf("pop turn queue: %w", err)
		}
	}
	if _, err := tx.Exec(ctx,
		`UPDATE battles SET turn = turn + 1, current_slot = $2 WHERE id = $1`,
		battleID, next.slot,
	); err != nil {
		return fmt.Errorf("advance turn: %w", err)
	}
	if err := tickStatuses(ctx, tx, battleID, want); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE battle_damage_modifiers SET turns = turns - 1
		 WHERE battle_id = $1 AND char_id = $2 AND turns IS NOT NULL`, battleID, want,
	); err != nil {
		return fmt.Errorf("tick damage modifiers: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM battle_damage_modifiers
		 WHERE battle_id = $1 AND char_id = $2 AND turns <= 0`, battleID, want,
	); err != nil {
		return fmt.Errorf("expire damage modifiers: %w", err)
	}
	return nil
}

// rowQuerier is satisfied by both the pool and a transaction.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type actor struct {
	charID int64
	slot   int
	// queued is the turn-queue row of an extra turn, 0 for initiative order.
	queued int64
}

// nextActor picks the oldest queued extra turn, or else the next living
// character after the current slot. Extra turns keep the initiative slot
// where it was.
func nextActor(ctx context.Context, q rowQuerier, battleID int64, current int) (actor, error) {
	a := actor{slot: current}
	err := q.QueryRow(ctx,
		`SELECT id, char_id FROM battle_turn_queue
		 WHERE battle_id = $1 ORDER BY id LIMIT 1`, battleID,
	).Scan(&a.queued, &a.charID)
	switch {
	case err == nil:
		return a, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return actor{}, fmt.Errorf("read turn queue: %w", err)
	}

	a.queued = 0
	err = q.QueryRow(ctx,
		`SELECT char_id, slot FROM battle_characters
		 WHERE battle_id = $1 AND hp > 0
		 ORDER BY (slot <= $2), slot
		 LIMIT 1`, battleID, current,
	).Scan(&a.charID, &a.slot)
	if errors.Is(err, pgx.ErrNoRows) {
		return actor{}, fmt.Errorf("battle %d: %w", battleID, ErrNoActor)
	}
	if err != nil {
		return actor{}, fmt.Errorf("next actor: %w", err)
	}
	return a, nil
}

func tickStatuses(ctx context.Context, tx pgx.Tx, battleID, charID int64) error {
	rows, err := tx.Query(ctx,
		`SELECT status_type, amount, turns, skip_decrement
		 FROM battle_statuses
		 WHERE battle_id = $1 AND char_id = $2
		 FOR UPDATE`, battleID, charID,
	)
	if err != nil {
		return fmt.Errorf("load statuses: %w", err)
	}
	var current []effect.StatusEffect
	for rows.Next() {
		var (
			typ string
			s   effect.StatusEffect
		)
		if err := rows.Scan(&typ, &s.Amount, &s.Turns, &s.SkipDecrement); err != nil {
			rows.Close()
			return fmt.Errorf("scan status: %w", err)
		}
		s.Type = effect.StatusType(typ)
		current = append(current, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load statuses: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM battle_statuses WHERE battle_id = $1 AND char_id = $2`, battleID, charID,
	); err != nil {
		return fmt.Errorf("clear statuses: %w", err)
	}
	for _, s := range effect.TickStatuses(current) {
		if _, err := tx.Exec(ctx,
			`INSERT INTO battle_statuses (battle_id, char_id, status_type, amount, turns, skip_decrement)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			battleID, charID, string(s.Type), s.Amount, s.Turns, s.SkipDecrement,
		); err != nil {
			return fmt.Errorf("write status: %w", err)
		}
	}
	return nil
}

func elements(in []string) []effect.Element {
	if len(in) == 0 {
		return nil
	}
	out := make([]effect.Element, len(in))
	for i, s := range in {
		out[i] = effect.Element(s)
	}
	return out
}
