// catalogcheck validates skill and weapon data against the registered
// effect catalog and Lua scripts without starting the server.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/pictoforge/server/internal/catalog"
	"github.com/pictoforge/server/internal/config"
	"github.com/pictoforge/server/internal/data"
	"github.com/pictoforge/server/internal/effect"
	"github.com/pictoforge/server/internal/scripting"
)

func main() {
	var skillsPath, weaponsPath, scriptsDir string
	switch len(os.Args) {
	case 1:
		cfg, err := config.Load(config.Path())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		skillsPath, weaponsPath, scriptsDir = cfg.Data.SkillsPath, cfg.Data.WeaponsPath, cfg.Data.ScriptsDir
	case 4:
		skillsPath, weaponsPath, scriptsDir = os.Args[1], os.Args[2], os.Args[3]
	default:
		fmt.Fprintln(os.Stderr, "Usage: catalogcheck [<skills.yaml> <weapons.yaml> <scripts dir>]")
		os.Exit(1)
	}

	problems, err := run(skillsPath, weaponsPath, scriptsDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, p := range problems {
		fmt.Println(p)
	}
	if len(problems) > 0 {
		fmt.Printf("%d problem(s)\n", len(problems))
		os.Exit(2)
	}
	fmt.Println("catalog OK")
}

func run(skillsPath, weaponsPath, scriptsDir string) ([]string, error) {
	skills, err := data.LoadSkillTable(skillsPath)
	if err != nil {
		return nil, err
	}
	weapons, err := data.LoadWeaponTable(weaponsPath)
	if err != nil {
		return nil, err
	}

	log := zap.NewNop()
	reg := effect.NewRegistry(log)
	var problems []string
	if err := catalog.Register(reg); err != nil {
		problems = append(problems, fmt.Sprintf("catalog: %v", err))
	}

	engine, err := scripting.NewEngine(scriptsDir, log)
	if err != nil {
		return nil, err
	}
	defer engine.Close()
	if err := engine.Register(reg); err != nil {
		problems = append(problems, fmt.Sprintf("scripts: %v", err))
	}

	problems = append(problems, checkSkills(skills)...)
	problems = append(problems, checkWeapons(weapons, reg)...)
	return problems, nil
}
