package battle

// Get returns the stack count for (char, name), 0 when never set.
func (s *State) Get(char int64, name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stacks[stackKey{char, name}]
}

// Add increments the counter by one and returns the new value. When max is
// positive the result never exceeds it.
func (s *State) Add(char int64, name string, max int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := stackKey{char, name}
	v := clampStack(s.stacks[k]+1, max)
	s.stacks[k] = v
	return v
}

// Reset sets the counter back to 0.
func (s *State) Reset(char int64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stacks, stackKey{char, name})
}

// Set overwrites the counter.
func (s *State) Set(char int64, name string, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == 0 {
		delete(s.stacks, stackKey{char, name})
		return
	}
	s.stacks[stackKey{char, name}] = value
}

func clampStack(v, max int) int {
	if max > NoMax && v > max {
		return max
	}
	return v
}
