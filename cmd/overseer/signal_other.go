//go:build !unix

package main

// signalNumber reports false: results on this platform never carry a
// signal name.
func signalNumber(string) (int, bool) { return 0, false }
