package main

import (
	"fmt"

	"github.com/pictoforge/server/internal/data"
	"github.com/pictoforge/server/internal/effect"
	"github.com/pictoforge/server/internal/skill"
)

// checkSkills reports conditional effects keyed on predicates the resolver
// does not know.
func checkSkills(skills *data.SkillTable) []string {
	var out []string
	for _, s := range skills.All() {
		for _, c := range s.Conditional {
			if !skill.KnownPredicate(c.Condition) {
				out = append(out, fmt.Sprintf("skill %s: unknown predicate %q", s.ID, c.Condition))
			}
		}
	}
	return out
}

// checkWeapons reports unlock levels the data expects a passive for but the
// registry has none, and weapons the registry knows nothing about.
func checkWeapons(weapons *data.WeaponTable, reg *effect.Registry) []string {
	var out []string
	for _, w := range weapons.All() {
		if !reg.HasWeapon(w.Name) {
			out = append(out, fmt.Sprintf("weapon %s: no passives registered", w.Name))
			continue
		}
		for _, lv := range w.Passives {
			if _, ok := reg.WeaponPassive(w.Name, lv); !ok {
				out = append(out, fmt.Sprintf("weapon %s: no passive at level %d", w.Name, lv))
			}
		}
	}
	return out
}
