// Package scripting lets content authors add picto and weapon effects in Lua.
package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/pictoforge/server/internal/effect"
)

// APIVersion is exposed to scripts as API_VERSION.
const APIVersion = 1

type definition struct {
	name     string // picto name or weapon item
	level    int    // weapon unlock level, 0 for pictos
	fn       *lua.LFunction
	triggers []effect.Trigger
}

// Engine wraps a single gopher-lua VM. Battles run in parallel, so every call
// into the VM holds mu.
type Engine struct {
	mu      sync.Mutex
	vm      *lua.LState
	log     *zap.Logger
	pictos  []definition
	weapons []definition
}

// NewEngine creates a Lua engine and loads every script under scriptsDir.
// A missing directory loads nothing.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))

	e := &Engine{vm: vm, log: log}
	vm.SetGlobal("register_picto", vm.NewFunction(e.luaRegisterPicto))
	vm.SetGlobal("register_weapon", vm.NewFunction(e.luaRegisterWeapon))

	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files under dir, sub-directories first-level
// included, in lexical order.
func (e *Engine) loadDir(dir string) error {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".lua" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil // skip missing dirs
		}
		return err
	}
	sort.Strings(files)
	for _, path := range files {
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// register_picto(name, fn [, triggers])
func (e *Engine) luaRegisterPicto(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)
	triggers := e.checkTriggers(L, 3)
	e.pictos = append(e.pictos, definition{name: name, fn: fn, triggers: triggers})
	return 0
}

// register_weapon(item, level, fn [, triggers])
func (e *Engine) luaRegisterWeapon(L *lua.LState) int {
	item := L.CheckString(1)
	level := L.CheckInt(2)
	fn := L.CheckFunction(3)
	triggers := e.checkTriggers(L, 4)
	e.weapons = append(e.weapons, definition{name: item, level: level, fn: fn, triggers: triggers})
	return 0
}

func (e *Engine) checkTriggers(L *lua.LState, n int) []effect.Trigger {
	tbl := L.OptTable(n, nil)
	if tbl == nil {
		return nil
	}
	var out []effect.Trigger
	for i := 1; i <= tbl.Len(); i++ {
		t, err := effect.ParseTrigger(lua.LVAsString(tbl.RawGetInt(i)))
		if err != nil {
			L.ArgError(n, err.Error())
		}
		out = append(out, t)
	}
	return out
}

// Count returns how many pictos and weapon passives the scripts defined.
func (e *Engine) Count() (pictos, weapons int) {
	return len(e.pictos), len(e.weapons)
}

// Register adds every scripted handler to reg. All registration errors are
// reported together.
func (e *Engine) Register(reg *effect.Registry) error {
	var errs []error
	for _, d := range e.pictos {
		if err := reg.RegisterPictoEffect(d.name, e.handler(d)); err != nil {
			errs = append(errs, fmt.Errorf("script picto %q: %w", d.name, err))
		}
	}
	for _, d := range e.weapons {
		if err := reg.RegisterWeaponPassive(d.name, d.level, e.handler(d)); err != nil {
			errs = append(errs, fmt.Errorf("script weapon %s@%d: %w", d.name, d.level, err))
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) handler(d definition) effect.Handler {
	call := func(ctx *effect.Context) effect.Result { return e.call(d, ctx) }
	if len(d.triggers) == 0 {
		return effect.HandlerFunc(call)
	}
	return effect.On(call, d.triggers...)
}

// call runs one Lua handler. Script errors panic so the dispatcher reports
// them as a failing effect.
func (e *Engine) call(d definition, ctx *effect.Context) effect.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	L := e.vm
	if err := L.CallByParam(lua.P{
		Fn:      d.fn,
		NRet:    1,
		Protect: true,
	}, packContext(L, ctx)); err != nil {
		panic(fmt.Sprintf("lua %s: %v", d.name, err))
	}
	ret := L.Get(-1)
	L.Pop(1)

	res, err := unpackResult(ret, ctx)
	if err != nil {
		panic(fmt.Sprintf("lua %s: %v", d.name, err))
	}
	return res
}

// Close releases the VM.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.Close()
}
