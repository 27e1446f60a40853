//go:build !windows && !linux

package logging

var platformDebugOutput func(string)

func debuggerPresent() bool { return false }

func debugBreak() {}
