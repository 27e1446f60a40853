//go:build linux

package logging

import (
	"bufio"
	"bytes"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// Linux has no debugger output channel.
var platformDebugOutput func(string)

var tracerPidPrefix = []byte("TracerPid:")

// debuggerPresent reports whether a tracer (gdb, dlv) is attached, from
// /proc/self/status.
func debuggerPresent() bool {
	f, err := os.Open("/proc/self/status")
	if err != nil {
		return false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Bytes()
		if !bytes.HasPrefix(line, tracerPidPrefix) {
			continue
		}
		pid, err := strconv.Atoi(string(bytes.TrimSpace(line[len(tracerPidPrefix):])))
		return err == nil && pid != 0
	}
	return false
}

// debugBreak stops the process with SIGTRAP so the attached tracer gains
// control.
func debugBreak() {
	_ = unix.Kill(unix.Getpid(), unix.SIGTRAP)
}
