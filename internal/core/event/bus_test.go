package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublish_TypedDelivery(t *testing.T) {
	b := NewBus()
	var failed []string
	var ended []int64
	Subscribe(b, func(e EffectFailed) { failed = append(failed, e.Key) })
	Subscribe(b, func(e BattleEnded) { ended = append(ended, e.BattleID) })

	Publish(b, EffectFailed{Key: "Second Chance"})
	Publish(b, BattleEnded{BattleID: 4})
	Publish(b, EffectActivated{Key: "nobody listens"})

	assert.Equal(t, []string{"Second Chance"}, failed)
	assert.Equal(t, []int64{4}, ended)
}

func TestBatch_FlushAndDiscard(t *testing.T) {
	b := NewBus()
	var got []string
	Subscribe(b, func(e EffectActivated) { got = append(got, e.Key) })

	batch := b.NewBatch()
	Emit(batch, EffectActivated{Key: "a"})
	Emit(batch, EffectActivated{Key: "b"})
	assert.Empty(t, got, "nothing delivered before flush")
	assert.Equal(t, 2, batch.Len())

	batch.Flush()
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 0, batch.Len())

	Emit(batch, EffectActivated{Key: "c"})
	batch.Discard()
	batch.Flush()
	assert.Equal(t, []string{"a", "b"}, got)
}
