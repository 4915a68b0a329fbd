package config

import (
	"context"

	lua "github.com/yuin/gopher-lua"
)

// safeLibs are the only standard libraries a release file can reach.
var safeLibs = []struct {
	name string
	open lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// sandboxLuaVM strips everything from the base library that can load or
// run code from outside the release file itself. os, io, package and
// debug are never opened.
func sandboxLuaVM(L *lua.LState) {
	for _, name := range []string{"require", "dofile", "loadfile", "load", "loadstring", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// newSandboxedVM creates a Lua state for evaluating release.lua. The
// state aborts as soon as ctx is done.
func newSandboxedVM(ctx context.Context) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range safeLibs {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	sandboxLuaVM(L)
	L.SetContext(ctx)
	return L
}
