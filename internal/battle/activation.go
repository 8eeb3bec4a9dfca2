package battle

// CanActivate reports whether no activation record exists for the key.
func (s *State) CanActivate(char int64, name string, lifetime Lifetime) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, seen := s.activations[activationKey{char, name, lifetime}]
	return !seen
}

// Track records an activation.
func (s *State) Track(char int64, name string, lifetime Lifetime) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activations[activationKey{char, name, lifetime}] = struct{}{}
}

// TryActivate checks and records in one step. Exactly one of two concurrent
// callers for the same key gets true.
func (s *State) TryActivate(char int64, name string, lifetime Lifetime) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := activationKey{char, name, lifetime}
	if _, seen := s.activations[k]; seen {
		return false
	}
	s.activations[k] = struct{}{}
	return true
}

// ClearTurn drops every once-per-turn record of the battle.
func (s *State) ClearTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.activations {
		if k.lifetime == OncePerTurn {
			delete(s.activations, k)
		}
	}
}

// ClearTurnFor drops the once-per-turn records of one character.
func (s *State) ClearTurnFor(char int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.activations {
		if k.lifetime == OncePerTurn && k.char == char {
			delete(s.activations, k)
		}
	}
}

// ClearBattle drops every activation record of the battle.
func (s *State) ClearBattle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.activations)
}
