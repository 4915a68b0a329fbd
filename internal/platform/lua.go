package platform

import (
	lua "github.com/yuin/gopher-lua"
)

// InjectPlatformTable exposes the host to a release.lua file as a
// read-only global "platform" table. Call it before running user code.
func InjectPlatformTable(L *lua.LState, h *Host) error {
	platformTable := L.NewTable()

	L.SetField(platformTable, "os", lua.LString(h.OS))
	L.SetField(platformTable, "arch", lua.LString(h.Arch))
	L.SetField(platformTable, "os_raw", lua.LString(h.RawOS))
	L.SetField(platformTable, "arch_raw", lua.LString(h.RawArch))
	L.SetField(platformTable, "exe_suffix", lua.LString(h.ExecutableSuffix()))

	L.SetField(platformTable, "is_linux", lua.LBool(h.IsLinux()))
	L.SetField(platformTable, "is_macos", lua.LBool(h.IsMacOS()))
	L.SetField(platformTable, "is_windows", lua.LBool(h.IsWindows()))

	L.SetField(platformTable, "is_amd64", lua.LBool(h.IsAMD64()))
	L.SetField(platformTable, "is_arm64", lua.LBool(h.IsARM64()))
	L.SetField(platformTable, "is_arm", lua.LBool(h.IsARM()))

	// Linux distribution (nil on non-Linux or when detection failed)
	if distro := h.GetDistro(); distro != nil {
		distroTable := L.NewTable()
		L.SetField(distroTable, "id", lua.LString(distro.ID))
		L.SetField(distroTable, "family", lua.LString(distro.Family))
		L.SetField(distroTable, "version", lua.LString(distro.Version))
		L.SetField(platformTable, "distro", distroTable)
	} else {
		L.SetField(platformTable, "distro", lua.LNil)
	}

	// when(condition, value) returns value if condition is true, nil otherwise
	L.SetField(platformTable, "when", L.NewFunction(func(L *lua.LState) int {
		cond := L.CheckBool(1)
		value := L.Get(2)
		if cond {
			L.Push(value)
		} else {
			L.Push(lua.LNil)
		}
		return 1
	}))

	L.SetGlobal("platform", makeReadOnly(L, platformTable))

	return nil
}

// makeReadOnly returns a proxy table that reads through to table and
// raises on every write.
func makeReadOnly(L *lua.LState, table *lua.LTable) *lua.LTable {
	mt := L.NewTable()

	L.SetField(mt, "__index", table)
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("platform table is read-only and cannot be modified")
		return 0
	}))
	L.SetField(mt, "__metatable", lua.LString("protected"))

	proxy := L.NewTable()
	L.SetMetatable(proxy, mt)

	return proxy
}
