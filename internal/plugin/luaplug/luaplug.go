// Package luaplug adapts a sandboxed Lua script into the engine's plugin
// contract. A script defines any subset of the lifecycle hooks as global
// functions (build, update, fixed_update, on_events, shutdown) and talks
// back to the engine through the kestrel host module.
package luaplug

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/kestrel-engine/kestrel/internal/engine"
	"github.com/kestrel-engine/kestrel/internal/plugin"
)

// ScriptPlugin hosts one Lua script as a plugin. The interpreter state is
// owned by the plugin and lives until Shutdown; dispatch is
// single-threaded, so the adapter pins the current Context in a field
// for the duration of each lifecycle call.
type ScriptPlugin struct {
	name    string
	version string
	path    string

	state *lua.LState
	ctx   *plugin.Context

	hooks struct {
		build       lua.LValue
		update      lua.LValue
		fixedUpdate lua.LValue
		onEvents    lua.LValue
		shutdown    lua.LValue
	}
}

// New returns a plugin around the script at path. The plugin name is the
// script filename without extension unless the script's manifest entry
// overrides it.
func New(name, path string) *ScriptPlugin {
	if name == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return &ScriptPlugin{name: name, version: "0.1.0", path: path}
}

func (s *ScriptPlugin) Name() string        { return s.name }
func (s *ScriptPlugin) Version() string     { return s.version }
func (s *ScriptPlugin) DependsOn() []string { return nil }

// Build creates the sandboxed interpreter, installs the host module,
// runs the script body, and captures whichever hooks it defined.
func (s *ScriptPlugin) Build(ctx *plugin.Context) error {
	src, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSandboxedLibs(L)
	s.state = L
	s.installHostModule(L)

	s.ctx = ctx
	defer func() { s.ctx = nil }()
	if err := L.DoString(string(src)); err != nil {
		L.Close()
		s.state = nil
		return fmt.Errorf("script %s: %w", s.path, err)
	}

	s.hooks.build = hookFn(L, "build")
	s.hooks.update = hookFn(L, "update")
	s.hooks.fixedUpdate = hookFn(L, "fixed_update")
	s.hooks.onEvents = hookFn(L, "on_events")
	s.hooks.shutdown = hookFn(L, "shutdown")

	if s.hooks.build != lua.LNil {
		if err := s.call(ctx, s.hooks.build); err != nil {
			L.Close()
			s.state = nil
			return fmt.Errorf("script %s: build: %w", s.path, err)
		}
	}
	return nil
}

func (s *ScriptPlugin) Update(ctx *plugin.Context, dt float64) error {
	if s.hooks.update == lua.LNil || s.state == nil {
		return nil
	}
	return s.call(ctx, s.hooks.update, lua.LNumber(dt))
}

func (s *ScriptPlugin) FixedUpdate(ctx *plugin.Context, dt float64) error {
	if s.hooks.fixedUpdate == lua.LNil || s.state == nil {
		return nil
	}
	return s.call(ctx, s.hooks.fixedUpdate, lua.LNumber(dt))
}

func (s *ScriptPlugin) OnEvents(ctx *plugin.Context, events []engine.Event) error {
	if s.hooks.onEvents == lua.LNil || s.state == nil {
		return nil
	}
	batch := s.state.NewTable()
	for _, ev := range events {
		t := s.state.NewTable()
		t.RawSetString("kind", lua.LString(ev.Kind))
		t.RawSetString("entity", lua.LNumber(ev.Entity))
		t.RawSetString("message", lua.LString(ev.Message))
		batch.Append(t)
	}
	return s.call(ctx, s.hooks.onEvents, batch)
}

func (s *ScriptPlugin) Shutdown(ctx *plugin.Context) error {
	if s.state == nil {
		return nil
	}
	var err error
	if s.hooks.shutdown != lua.LNil {
		err = s.call(ctx, s.hooks.shutdown)
	}
	s.state.Close()
	s.state = nil
	return err
}

// call invokes a hook with the context pinned for host-module callbacks.
func (s *ScriptPlugin) call(ctx *plugin.Context, fn lua.LValue, args ...lua.LValue) error {
	s.ctx = ctx
	defer func() { s.ctx = nil }()
	return s.state.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...)
}

func hookFn(L *lua.LState, name string) lua.LValue {
	v := L.GetGlobal(name)
	if v.Type() != lua.LTFunction {
		return lua.LNil
	}
	return v
}

// installHostModule registers the kestrel table scripts use to reach the
// engine. Every function routes through the pinned Context, so
// capability gating applies to scripts exactly as to compiled plugins.
func (s *ScriptPlugin) installHostModule(L *lua.LState) {
	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"emit_message": func(L *lua.LState) int {
			text := L.CheckString(1)
			if err := s.ctx.EmitScriptMessage(text); err != nil {
				L.Push(lua.LString(err.Error()))
				return 1
			}
			L.Push(lua.LNil)
			return 1
		},
		"register_feature": func(L *lua.LState) int {
			s.ctx.Features().Register(L.CheckString(1))
			return 0
		},
		"has_feature": func(L *lua.LState) int {
			L.Push(lua.LBool(s.ctx.Features().Contains(L.CheckString(1))))
			return 1
		},
		"delta_seconds": func(L *lua.LState) int {
			tm, err := s.ctx.Time()
			if err != nil {
				L.Push(lua.LNumber(0))
				return 1
			}
			L.Push(lua.LNumber(tm.DeltaSeconds()))
			return 1
		},
	})
	L.SetGlobal("kestrel", mod)
}

// openSandboxedLibs loads only side-effect-free libraries and strips the
// loaders that would let a script read arbitrary files or source.
func openSandboxedLibs(L *lua.LState) {
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "print"} {
		L.SetGlobal(name, lua.LNil)
	}
}
