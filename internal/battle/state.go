package battle

import (
	"sync"
	"time"
)

// Lifetime bounds how often a rate-limited effect may activate.
type Lifetime int

const (
	OncePerTurn   Lifetime = iota // cleared at turn boundaries
	OncePerBattle                 // cleared at battle teardown
)

func (l Lifetime) String() string {
	switch l {
	case OncePerTurn:
		return "once-per-turn"
	case OncePerBattle:
		return "once-per-battle"
	default:
		return "unknown"
	}
}

// NoMax disables the clamp in Add.
const NoMax = 0

type stackKey struct {
	char int64
	name string
}

type activationKey struct {
	char     int64
	name     string
	lifetime Lifetime
}

// State holds the in-memory effect bookkeeping of one battle: stack counters
// and activation records. It is owned by the battle's worker and dropped on
// teardown, which clears everything it holds.
type State struct {
	ID int64

	// Epoch tells apart battles that reuse an id after teardown.
	Epoch int64

	mu          sync.RWMutex
	batches     int64
	stacks      map[stackKey]int
	activations map[activationKey]struct{}
}

// NewState creates an empty state for the given battle.
func NewState(battleID int64) *State {
	return &State{
		ID:          battleID,
		Epoch:       time.Now().UnixNano(),
		stacks:      make(map[stackKey]int, 32),
		activations: make(map[activationKey]struct{}, 32),
	}
}

// Begin opens a transaction over the state.
func (s *State) Begin() *Txn {
	return newTxn(s)
}

// NextBatch numbers the battle's persisted intent batches.
func (s *State) NextBatch() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches++
	return s.batches
}
