package config

import (
	lua "github.com/yuin/gopher-lua"
)

// safeLibs are the only standard libraries opened in a project config VM.
var safeLibs = []struct {
	name string
	fn   lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// sandboxLuaVM removes the base library functions that load code from
// outside the config file. os, io, debug and package are never opened.
func sandboxLuaVM(L *lua.LState) {
	L.SetGlobal("require", lua.LNil)
	L.SetGlobal("module", lua.LNil)
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)
	L.SetGlobal("load", lua.LNil)
	L.SetGlobal("loadstring", lua.LNil)
	L.SetGlobal("collectgarbage", lua.LNil)
}

// newSandboxedVM creates a Lua VM with only safe libraries loaded.
func newSandboxedVM() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range safeLibs {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	sandboxLuaVM(L)
	return L
}
