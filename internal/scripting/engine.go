package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/mindland/governor/internal/quality"
	"github.com/mindland/governor/internal/thermal"
)

// Engine wraps a single gopher-lua VM holding quality policy scripts.
// Single-goroutine access only (simulation loop).
type Engine struct {
	vm     *lua.LState
	log    *zap.Logger
	failed map[string]bool // functions that already logged a failure
}

// NewEngine creates a Lua engine and loads every .lua file in dir.
func NewEngine(dir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	for s := thermal.Cool; s <= thermal.Critical; s++ {
		vm.SetGlobal("THERMAL_"+strings.ToUpper(s.String()), lua.LString(s.String()))
	}

	e := &Engine{vm: vm, log: log, failed: make(map[string]bool)}
	if err := e.loadDir(dir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory. A missing directory is not an
// error.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Has reports whether a global Lua function with the given name exists.
func (e *Engine) Has(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// ShouldRecover calls the Lua should_recover function. When the function is
// missing or fails, the built-in stable-frame rule decides.
func (e *Engine) ShouldRecover(ctx quality.RecoveryContext) bool {
	const name = "should_recover"
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		e.fail(name, "lua function not found", nil)
		return quality.BuiltinRecovery{}.ShouldRecover(ctx)
	}

	t := e.vm.NewTable()
	t.RawSetString("state", lua.LString(ctx.State.String()))
	t.RawSetString("fps", lua.LNumber(ctx.FPS))
	t.RawSetString("target_fps", lua.LNumber(ctx.TargetFPS))
	t.RawSetString("stable_frames", lua.LNumber(ctx.StableFrames))
	t.RawSetString("required_frames", lua.LNumber(ctx.RequiredFrames))
	t.RawSetString("degraded_frames", lua.LNumber(ctx.DegradedFrames))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.fail(name, "lua call error", err)
		return quality.BuiltinRecovery{}.ShouldRecover(ctx)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return lua.LVAsBool(result)
}

// fail logs the first failure of each function; the policy runs every frame.
func (e *Engine) fail(fn, msg string, err error) {
	if e.failed[fn] {
		return
	}
	e.failed[fn] = true
	if err != nil {
		e.log.Error(msg, zap.String("func", fn), zap.Error(err))
		return
	}
	e.log.Error(msg, zap.String("func", fn))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
