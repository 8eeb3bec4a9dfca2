package persist

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/blake2b"

	"github.com/pictoforge/server/internal/combat"
)

// Fingerprint hashes an intent batch. A retried batch hashes the same; any
// other batch of the battle differs at least in its sequence number.
// It also returns the JSON encoding of the intents for the journal row.
func Fingerprint(b combat.Batch) ([]byte, []byte, error) {
	intents, err := json.Marshal(b.Intents)
	if err != nil {
		return nil, nil, fmt.Errorf("encode intents: %w", err)
	}
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, nil, err
	}
	var hdr [32]byte
	binary.LittleEndian.PutUint64(hdr[0:], uint64(b.BattleID))
	binary.LittleEndian.PutUint64(hdr[8:], uint64(b.Epoch))
	binary.LittleEndian.PutUint64(hdr[16:], uint64(b.Seq))
	binary.LittleEndian.PutUint64(hdr[24:], uint64(b.TurnOf))
	h.Write(hdr[:])
	h.Write([]byte(b.Trigger))
	h.Write([]byte{0})
	h.Write(intents)
	return h.Sum(nil), intents, nil
}

// journal records the batch inside tx. It reports false when the batch was
// already recorded, meaning its intents were applied by an earlier attempt.
func journal(ctx context.Context, tx pgx.Tx, b combat.Batch) (bool, error) {
	sum, intents, err := Fingerprint(b)
	if err != nil {
		return false, err
	}
	tag, err := tx.Exec(ctx,
		`INSERT INTO intent_journal (battle_id, fingerprint, seq, trigger, intents)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (battle_id, fingerprint) DO NOTHING`,
		b.BattleID, sum, b.Seq, string(b.Trigger), intents,
	)
	if err != nil {
		return false, fmt.Errorf("journal insert: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
