package battle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxn_ReadsOwnWritesOverCommitted(t *testing.T) {
	st := NewState(1)
	st.Set(1, "Warming Up", 2)

	tx := st.Begin()
	assert.Equal(t, 2, tx.Get(1, "Warming Up"))
	assert.Equal(t, 3, tx.Add(1, "Warming Up", 5))
	assert.Equal(t, 3, tx.Get(1, "Warming Up"))
	assert.Equal(t, 2, st.Get(1, "Warming Up"), "committed state untouched before Commit")

	tx.Commit()
	assert.Equal(t, 3, st.Get(1, "Warming Up"))
}

func TestTxn_DiscardLeavesStateUnmodified(t *testing.T) {
	st := NewState(1)
	tx := st.Begin()
	require.True(t, tx.TryActivate(1, "Second Chance", OncePerBattle))
	tx.Add(1, "Charge", NoMax)
	tx.ClearBattle()
	require.True(t, tx.Pending())

	tx.Discard()
	assert.True(t, st.CanActivate(1, "Second Chance", OncePerBattle))
	assert.Equal(t, 0, st.Get(1, "Charge"))

	tx.Commit()
	assert.True(t, st.CanActivate(1, "Second Chance", OncePerBattle), "commit after discard is a no-op")
}

func TestTxn_TryActivateIsOnceWithinAndAcross(t *testing.T) {
	st := NewState(1)

	tx := st.Begin()
	assert.True(t, tx.TryActivate(2, "Powered Attack", OncePerTurn))
	assert.False(t, tx.TryActivate(2, "Powered Attack", OncePerTurn))
	tx.Commit()

	tx2 := st.Begin()
	assert.False(t, tx2.TryActivate(2, "Powered Attack", OncePerTurn))
	tx2.ClearTurnFor(2)
	assert.True(t, tx2.TryActivate(2, "Powered Attack", OncePerTurn))
	tx2.Commit()

	assert.False(t, st.CanActivate(2, "Powered Attack", OncePerTurn), "record tracked after the clear survives commit")
}

func TestTxn_ClearTurnHidesCommittedRecords(t *testing.T) {
	st := NewState(1)
	st.Track(1, "A", OncePerTurn)
	st.Track(2, "B", OncePerTurn)
	st.Track(1, "C", OncePerBattle)

	tx := st.Begin()
	tx.ClearTurn()
	assert.True(t, tx.CanActivate(1, "A", OncePerTurn))
	assert.True(t, tx.CanActivate(2, "B", OncePerTurn))
	assert.False(t, tx.CanActivate(1, "C", OncePerBattle))
	assert.False(t, st.CanActivate(1, "A", OncePerTurn))

	tx.Commit()
	assert.True(t, st.CanActivate(1, "A", OncePerTurn))
	assert.True(t, st.CanActivate(2, "B", OncePerTurn))
	assert.False(t, st.CanActivate(1, "C", OncePerBattle))
}

func TestTxn_ResetCommitsZero(t *testing.T) {
	st := NewState(1)
	st.Set(3, "Foretell", 6)

	tx := st.Begin()
	tx.Reset(3, "Foretell")
	assert.Equal(t, 0, tx.Get(3, "Foretell"))
	tx.Commit()
	assert.Equal(t, 0, st.Get(3, "Foretell"))
}

func TestTxn_RollbackToDropsLaterWrites(t *testing.T) {
	st := NewState(1)
	tx := st.Begin()
	tx.Add(1, "Warming Up", 5)
	sp := tx.Mark()

	require.True(t, tx.TryActivate(1, "Second Chance", OncePerBattle))
	tx.Add(1, "Warming Up", 5)
	tx.ClearTurnFor(2)
	tx.RollbackTo(sp)

	assert.Equal(t, 1, tx.Get(1, "Warming Up"))
	assert.True(t, tx.CanActivate(1, "Second Chance", OncePerBattle))

	tx.Commit()
	assert.Equal(t, 1, st.Get(1, "Warming Up"))
	assert.True(t, st.CanActivate(1, "Second Chance", OncePerBattle))
}
