package combat

import (
	"context"
	"errors"

	"github.com/pictoforge/server/internal/effect"
)

var (
	// ErrTurnMoved is returned by the store when a Batch hands the turn to a
	// character that is no longer next.
	ErrTurnMoved = errors.New("turn order changed")
	// ErrPersistence wraps any store failure. The trigger that hit it
	// committed nothing to the battle's in-memory state.
	ErrPersistence = errors.New("persistence failure")
	// ErrUnknownCharacter is returned when a moment names a character that is
	// not on the battle's roster.
	ErrUnknownCharacter = errors.New("character not in battle")
)

// Loadout is what a character has equipped. Pictos and luminas are in equip
// order.
type Loadout struct {
	CharacterID int64
	Weapon      effect.Weapon
	Pictos      []string
	Luminas     []string
}

// Keys returns the picto then lumina names, the order they are dispatched in.
func (l Loadout) Keys() []string {
	keys := make([]string, 0, len(l.Pictos)+len(l.Luminas))
	keys = append(keys, l.Pictos...)
	return append(keys, l.Luminas...)
}

// Batch is the intents of one trigger. Epoch and Seq make a retried batch
// identical to its first attempt and distinct from any other batch.
type Batch struct {
	BattleID int64
	Epoch    int64
	Seq      int64
	Trigger  effect.Trigger
	Intents  []effect.Intent

	// TurnOf, when set, hands the turn to that character in the same write:
	// the store moves the turn order and ticks the character's statuses and
	// damage modifiers before applying Intents.
	TurnOf int64
}

// Store is the persistence collaborator. Every call may fail; ApplyIntents is
// idempotent when retried with the same Batch.
type Store interface {
	LoadRoster(ctx context.Context, battleID int64) ([]effect.Character, error)
	// LoadLoadout returns an empty loadout for characters that equip nothing.
	LoadLoadout(ctx context.Context, battleID, charID int64) (Loadout, error)
	ApplyIntents(ctx context.Context, b Batch) error
	// NextTurn reports whose turn starts next without moving the turn order.
	// The turn moves only when a Batch with TurnOf set is applied.
	NextTurn(ctx context.Context, battleID int64) (int64, error)
}
