package effect

import "github.com/pictoforge/server/internal/battle"

// Context is the snapshot handed to one handler invocation. It is built fresh
// for every handler, so a handler may scribble on it without affecting others.
type Context struct {
	Trigger  Trigger
	BattleID int64
	// Key is the equip key being resolved: a picto or lumina name, or the
	// weapon item name for passives.
	Key string

	Source Character
	Target *Character
	Roster []Character
	Aux    Aux

	// State stages stack counters and activation records for this trigger.
	State *battle.Txn
}

// HasTarget reports whether the trigger carries a target.
func (c *Context) HasTarget() bool { return c.Target != nil }

// Find returns the roster entry with the given id.
func (c *Context) Find(id int64) (*Character, bool) {
	for i := range c.Roster {
		if c.Roster[i].ID == id {
			return &c.Roster[i], true
		}
	}
	return nil, false
}

// Allies lists roster members on the source's side, the source included.
func (c *Context) Allies() []Character {
	var out []Character
	for _, ch := range c.Roster {
		if ch.Hostile == c.Source.Hostile {
			out = append(out, ch)
		}
	}
	return out
}

// Enemies lists roster members on the other side.
func (c *Context) Enemies() []Character {
	var out []Character
	for _, ch := range c.Roster {
		if ch.Hostile != c.Source.Hostile {
			out = append(out, ch)
		}
	}
	return out
}

// AlliesDown counts fallen allies, not counting the source.
func (c *Context) AlliesDown() int {
	n := 0
	for _, ch := range c.Allies() {
		if ch.ID != c.Source.ID && !ch.Alive() {
			n++
		}
	}
	return n
}

// Alone reports whether the source is the only living member of its side.
func (c *Context) Alone() bool {
	for _, ch := range c.Allies() {
		if ch.ID != c.Source.ID && ch.Alive() {
			return false
		}
	}
	return true
}

// Once is the rate-limit guard for catalog handlers. It returns true at most
// once per lifetime for the source character and the current key.
func (c *Context) Once(lifetime battle.Lifetime) bool {
	return c.State.TryActivate(c.Source.ID, c.Key, lifetime)
}

// Stack increments the source's counter for the current key.
func (c *Context) Stack(max int) int {
	return c.State.Add(c.Source.ID, c.Key, max)
}

func (c *Context) clone() *Context {
	out := *c
	out.Source = c.Source.Clone()
	if c.Target != nil {
		t := c.Target.Clone()
		out.Target = &t
	}
	out.Roster = make([]Character, len(c.Roster))
	for i := range c.Roster {
		out.Roster[i] = c.Roster[i].Clone()
	}
	out.Aux = c.Aux.clone()
	return &out
}
