//go:build windows

package logging

import (
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32               = windows.NewLazySystemDLL("kernel32.dll")
	procOutputDebugStringW = kernel32.NewProc("OutputDebugStringW")
	procIsDebuggerPresent  = kernel32.NewProc("IsDebuggerPresent")
	procDebugBreak         = kernel32.NewProc("DebugBreak")
)

// platformDebugOutput sends s to OutputDebugStringW. The call returns
// immediately when no debugger is attached.
func platformDebugOutput(s string) {
	if procOutputDebugStringW.Find() != nil {
		return
	}
	p, err := windows.UTF16PtrFromString(strings.ReplaceAll(s, "\x00", ""))
	if err != nil {
		return
	}
	procOutputDebugStringW.Call(uintptr(unsafe.Pointer(p)))
}

func debuggerPresent() bool {
	if procIsDebuggerPresent.Find() != nil {
		return false
	}
	ret, _, _ := procIsDebuggerPresent.Call()
	return ret != 0
}

func debugBreak() {
	if procDebugBreak.Find() != nil {
		return
	}
	procDebugBreak.Call()
}
