//go:build unix

package main

import "golang.org/x/sys/unix"

// signalNumber returns the number of a signal named like "SIGKILL".
func signalNumber(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	sig := unix.SignalNum(name)
	if sig == 0 {
		return 0, false
	}
	return int(sig), true
}
