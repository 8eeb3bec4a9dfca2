package battle

import (
	"maps"
	"sync"
)

// Txn stages stack and activation mutations made while resolving one trigger.
// Reads see the transaction's own writes layered over the committed state.
// Nothing reaches the State until Commit; Discard drops everything.
type Txn struct {
	state *State

	mu             sync.Mutex
	stacks         map[stackKey]int
	tracked        map[activationKey]struct{}
	clearAllTurns  bool
	clearTurnChars map[int64]struct{}
	clearBattle    bool
	done           bool
}

func newTxn(s *State) *Txn {
	return &Txn{
		state:          s,
		stacks:         make(map[stackKey]int),
		tracked:        make(map[activationKey]struct{}),
		clearTurnChars: make(map[int64]struct{}),
	}
}

// BattleID returns the id of the battle the transaction belongs to.
func (t *Txn) BattleID() int64 { return t.state.ID }

// Get returns the stack count as seen by this transaction.
func (t *Txn) Get(char int64, name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.getLocked(stackKey{char, name})
}

func (t *Txn) getLocked(k stackKey) int {
	if v, ok := t.stacks[k]; ok {
		return v
	}
	t.state.mu.RLock()
	defer t.state.mu.RUnlock()
	return t.state.stacks[k]
}

// Add increments the staged counter, clamped to max when max is positive.
func (t *Txn) Add(char int64, name string, max int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := stackKey{char, name}
	v := clampStack(t.getLocked(k)+1, max)
	t.stacks[k] = v
	return v
}

// Reset stages a counter reset.
func (t *Txn) Reset(char int64, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stacks[stackKey{char, name}] = 0
}

// Set stages an absolute counter value.
func (t *Txn) Set(char int64, name string, value int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stacks[stackKey{char, name}] = value
}

// CanActivate reports whether the key is free as seen by this transaction.
func (t *Txn) CanActivate(char int64, name string, lifetime Lifetime) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canActivateLocked(activationKey{char, name, lifetime})
}

func (t *Txn) canActivateLocked(k activationKey) bool {
	if _, ok := t.tracked[k]; ok {
		return false
	}
	if t.clearedLocked(k) {
		return true
	}
	t.state.mu.RLock()
	defer t.state.mu.RUnlock()
	_, seen := t.state.activations[k]
	return !seen
}

// clearedLocked reports whether a committed record for k is hidden by a
// staged clear.
func (t *Txn) clearedLocked(k activationKey) bool {
	if t.clearBattle {
		return true
	}
	if k.lifetime != OncePerTurn {
		return false
	}
	if t.clearAllTurns {
		return true
	}
	_, ok := t.clearTurnChars[k.char]
	return ok
}

// Track stages an activation record.
func (t *Txn) Track(char int64, name string, lifetime Lifetime) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracked[activationKey{char, name, lifetime}] = struct{}{}
}

// TryActivate is the check-then-set every rate-limited handler goes through.
func (t *Txn) TryActivate(char int64, name string, lifetime Lifetime) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := activationKey{char, name, lifetime}
	if !t.canActivateLocked(k) {
		return false
	}
	t.tracked[k] = struct{}{}
	return true
}

// ClearTurn stages removal of every once-per-turn record.
func (t *Txn) ClearTurn() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearAllTurns = true
	for k := range t.tracked {
		if k.lifetime == OncePerTurn {
			delete(t.tracked, k)
		}
	}
}

// ClearTurnFor stages removal of one character's once-per-turn records.
func (t *Txn) ClearTurnFor(char int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearTurnChars[char] = struct{}{}
	for k := range t.tracked {
		if k.lifetime == OncePerTurn && k.char == char {
			delete(t.tracked, k)
		}
	}
}

// ClearBattle stages removal of every activation record.
func (t *Txn) ClearBattle() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearBattle = true
	clear(t.tracked)
}

// Commit applies the staged mutations. Clears go first; records tracked after
// a clear inside the same transaction survive it.
func (t *Txn) Commit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.done = true

	s := t.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.clearBattle {
		clear(s.activations)
	}
	for k := range s.activations {
		if k.lifetime != OncePerTurn {
			continue
		}
		if _, ok := t.clearTurnChars[k.char]; t.clearAllTurns || ok {
			delete(s.activations, k)
		}
	}
	for k := range t.tracked {
		s.activations[k] = struct{}{}
	}
	for k, v := range t.stacks {
		if v == 0 {
			delete(s.stacks, k)
			continue
		}
		s.stacks[k] = v
	}
}

// Discard drops the staged mutations.
func (t *Txn) Discard() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done = true
	clear(t.stacks)
	clear(t.tracked)
}

// Savepoint is a copy of a transaction's staged writes taken by Mark.
type Savepoint struct {
	stacks         map[stackKey]int
	tracked        map[activationKey]struct{}
	clearAllTurns  bool
	clearTurnChars map[int64]struct{}
	clearBattle    bool
}

// Mark records the staged writes so far. RollbackTo drops anything staged
// after it.
func (t *Txn) Mark() Savepoint {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Savepoint{
		stacks:         maps.Clone(t.stacks),
		tracked:        maps.Clone(t.tracked),
		clearAllTurns:  t.clearAllTurns,
		clearTurnChars: maps.Clone(t.clearTurnChars),
		clearBattle:    t.clearBattle,
	}
}

// RollbackTo restores the staged writes recorded by sp.
func (t *Txn) RollbackTo(sp Savepoint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.stacks = maps.Clone(sp.stacks)
	t.tracked = maps.Clone(sp.tracked)
	t.clearAllTurns = sp.clearAllTurns
	t.clearTurnChars = maps.Clone(sp.clearTurnChars)
	t.clearBattle = sp.clearBattle
}

// Pending reports whether the transaction staged anything.
func (t *Txn) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.stacks) > 0 || len(t.tracked) > 0 || t.clearAllTurns || t.clearBattle || len(t.clearTurnChars) > 0
}
