package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// WeaponInfo is a weapon template. Passives are registered by name in the
// effect registry; the table only knows which levels should have one.
type WeaponInfo struct {
	Name      string
	Owner     string // archetype
	Element   string
	BasePower int
	MaxLevel  int
	Passives  []int // unlock levels expected to carry a passive
}

// WeaponTable holds all weapons indexed by name.
type WeaponTable struct {
	weapons map[string]*WeaponInfo
}

// Get returns a weapon by name, or nil if not found.
func (t *WeaponTable) Get(name string) *WeaponInfo {
	return t.weapons[name]
}

// Count returns total loaded weapons.
func (t *WeaponTable) Count() int {
	return len(t.weapons)
}

// All returns every weapon sorted by name.
func (t *WeaponTable) All() []*WeaponInfo {
	result := make([]*WeaponInfo, 0, len(t.weapons))
	for _, w := range t.weapons {
		result = append(result, w)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// NewWeaponTable builds a table from already-parsed weapons.
func NewWeaponTable(weapons ...WeaponInfo) *WeaponTable {
	t := &WeaponTable{weapons: make(map[string]*WeaponInfo, len(weapons))}
	for i := range weapons {
		w := weapons[i]
		t.weapons[w.Name] = &w
	}
	return t
}

// --- YAML loading ---

type weaponEntry struct {
	Name      string `yaml:"name"`
	Owner     string `yaml:"owner"`
	Element   string `yaml:"element"`
	BasePower int    `yaml:"base_power"`
	MaxLevel  int    `yaml:"max_level"`
	Passives  []int  `yaml:"passives"`
}

type weaponListFile struct {
	Weapons []weaponEntry `yaml:"weapons"`
}

// LoadWeaponTable loads weapon definitions from YAML.
func LoadWeaponTable(path string) (*WeaponTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weapons: %w", err)
	}
	var f weaponListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse weapons: %w", err)
	}
	t := &WeaponTable{weapons: make(map[string]*WeaponInfo, len(f.Weapons))}
	for i := range f.Weapons {
		e := &f.Weapons[i]
		if e.Name == "" {
			return nil, fmt.Errorf("parse weapons: entry %d has no name", i)
		}
		if _, dup := t.weapons[e.Name]; dup {
			return nil, fmt.Errorf("parse weapons: duplicate weapon %q", e.Name)
		}
		maxLevel := e.MaxLevel
		if maxLevel <= 0 {
			maxLevel = 33
		}
		passives := append([]int(nil), e.Passives...)
		sort.Ints(passives)
		t.weapons[e.Name] = &WeaponInfo{
			Name:      e.Name,
			Owner:     e.Owner,
			Element:   e.Element,
			BasePower: e.BasePower,
			MaxLevel:  maxLevel,
			Passives:  passives,
		}
	}
	return t, nil
}
