package effect

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrDuplicateHandler = errors.New("handler already registered")
	ErrRegistrySealed   = errors.New("registry sealed")
	ErrHandlerNotFound  = errors.New("handler not found")
)

// Canonical weapon unlock levels.
const (
	WeaponLevel4  = 4
	WeaponLevel10 = 10
	WeaponLevel20 = 20
)

// WeaponKey identifies a weapon passive.
type WeaponKey struct {
	Item  string
	Level int
}

func (k WeaponKey) String() string { return fmt.Sprintf("%s@%d", k.Item, k.Level) }

// NormalizeKey folds an item, picto or lumina name to its registry form.
// Names arrive from YAML, Lua and the wire in mixed case and mixed Unicode
// composition ("Anti-Brûlure" vs "anti-brûlure").
func NormalizeKey(name string) string {
	// cases.Caser keeps state, so one per call.
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(name)))
}

// Registry holds weapon passives and picto/lumina effects. Registration is
// only allowed before the registry is sealed; the dispatcher seals it on the
// first dispatch.
type Registry struct {
	mu      sync.RWMutex
	weapons map[WeaponKey]Handler
	levels  map[string][]int
	pictos  map[string]Handler
	names   map[string]string // normalized -> display name
	sealed  bool
	log     *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		weapons: make(map[WeaponKey]Handler),
		levels:  make(map[string][]int),
		pictos:  make(map[string]Handler),
		names:   make(map[string]string),
		log:     log,
	}
}

// RegisterWeaponPassive binds a handler to a weapon at an unlock level.
func (r *Registry) RegisterWeaponPassive(item string, level int, h Handler) error {
	if h == nil {
		return fmt.Errorf("register weapon passive %s@%d: nil handler", item, level)
	}
	if level <= 0 {
		return fmt.Errorf("register weapon passive %s@%d: level must be positive", item, level)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("register weapon passive %s@%d: %w", item, level, ErrRegistrySealed)
	}
	key := WeaponKey{Item: NormalizeKey(item), Level: level}
	if _, ok := r.weapons[key]; ok {
		return fmt.Errorf("register weapon passive %s@%d: %w", item, level, ErrDuplicateHandler)
	}
	r.weapons[key] = h
	lv := append(r.levels[key.Item], level)
	sort.Ints(lv)
	r.levels[key.Item] = lv
	r.names[key.Item] = item
	return nil
}

// RegisterPictoEffect binds a handler to a picto or lumina name. Pictos and
// luminas share one namespace.
func (r *Registry) RegisterPictoEffect(name string, h Handler) error {
	if h == nil {
		return fmt.Errorf("register picto %q: nil handler", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("register picto %q: %w", name, ErrRegistrySealed)
	}
	key := NormalizeKey(name)
	if _, ok := r.pictos[key]; ok {
		return fmt.Errorf("register picto %q: %w", name, ErrDuplicateHandler)
	}
	r.pictos[key] = h
	r.names[key] = name
	return nil
}

// Seal forbids further registration. Safe to call more than once.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return
	}
	r.sealed = true
	r.log.Debug("effect registry sealed",
		zap.Int("weapon_passives", len(r.weapons)),
		zap.Int("pictos", len(r.pictos)),
	)
}

func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Picto returns the handler for a picto or lumina name.
func (r *Registry) Picto(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.pictos[NormalizeKey(name)]
	return h, ok
}

// WeaponPassive returns the handler registered at exactly the given level.
func (r *Registry) WeaponPassive(item string, level int) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.weapons[WeaponKey{Item: NormalizeKey(item), Level: level}]
	return h, ok
}

// WeaponLevels lists the registered unlock levels of an item, ascending.
func (r *Registry) WeaponLevels(item string) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]int(nil), r.levels[NormalizeKey(item)]...)
}

// HasWeapon reports whether any passive is registered for the item.
func (r *Registry) HasWeapon(item string) bool {
	return len(r.WeaponLevels(item)) > 0
}

// PictoNames returns every registered picto/lumina display name, sorted.
func (r *Registry) PictoNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.pictos))
	for k := range r.pictos {
		out = append(out, r.names[k])
	}
	sort.Strings(out)
	return out
}

// WeaponKeys returns every registered weapon passive key, sorted by item then
// level. Items are in normalized form.
func (r *Registry) WeaponKeys() []WeaponKey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]WeaponKey, 0, len(r.weapons))
	for k := range r.weapons {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Item != out[j].Item {
			return out[i].Item < out[j].Item
		}
		return out[i].Level < out[j].Level
	})
	return out
}

// Count returns the number of weapon passives and picto effects.
func (r *Registry) Count() (weapons, pictos int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.weapons), len(r.pictos)
}
