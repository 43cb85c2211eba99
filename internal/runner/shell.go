package runner

// ShouldSpawnWithShell reports whether resolved must be started through a
// command interpreter on platform. It always returns false.
//
// Routing a command through sh -c or cmd /c, including the common trick
// of running .cmd and .bat files through cmd.exe, lets crafted arguments
// be reinterpreted as shell syntax. The resolved path is an opaque string
// and is handed to the OS as the program to execute, never parsed.
func ShouldSpawnWithShell(resolved, platform string) bool {
	return false
}
