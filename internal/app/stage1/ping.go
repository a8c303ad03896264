// Package stage1 implements Host Reachability: an ICMP probe via the
// platform ping binary, falling back to a TCP connect sweep over a
// fixed port list.
package stage1

import (
	"context"
	"os/exec"
	"runtime"
	"strconv"
	"time"
)

// pingArgs returns the platform-specific argument list for a single
// ICMP echo with the given timeout, for IPv4 or IPv6.
//
// Supported operating systems:
//   - darwin (macOS) - BSD ping, timeout in milliseconds via -W (v4) / -x (v6, ms)
//   - linux - iputils ping, timeout in whole seconds via -W
//   - windows - ping.exe, timeout in milliseconds via -w
func pingArgs(host string, v6 bool, timeout time.Duration) (binary string, args []string) {
	ms := int(timeout.Milliseconds())
	if ms < 1 {
		ms = 1
	}
	switch runtime.GOOS {
	case "darwin":
		if v6 {
			return "ping6", []string{"-c", "1", "-x", strconv.Itoa(ms), host}
		}
		return "ping", []string{"-c", "1", "-W", strconv.Itoa(ms), host}
	case "windows":
		family := "-4"
		if v6 {
			family = "-6"
		}
		return "ping", []string{family, "-n", "1", "-w", strconv.Itoa(ms), host}
	default: // linux and other unix variants
		secs := ms / 1000
		if secs < 1 {
			secs = 1
		}
		if v6 {
			return "ping6", []string{"-c", "1", "-W", strconv.Itoa(secs), host}
		}
		return "ping", []string{"-c", "1", "-W", strconv.Itoa(secs), host}
	}
}

// icmpEcho runs a single ICMP echo against host, trying IPv4 then IPv6,
// and reports whether the platform ping binary exited successfully.
func icmpEcho(ctx context.Context, host string, timeout time.Duration) bool {
	for _, v6 := range []bool{false, true} {
		binary, args := pingArgs(host, v6, timeout)
		runCtx, cancel := context.WithTimeout(ctx, timeout+500*time.Millisecond)
		cmd := exec.CommandContext(runCtx, binary, args...)
		err := cmd.Run()
		cancel()
		if err == nil {
			return true
		}
	}
	return false
}
