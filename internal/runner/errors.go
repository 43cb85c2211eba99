package runner

import "fmt"

// SpawnError describes a command that could not be started.
type SpawnError struct {
	Executable string
	Err        error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("starting %s: %v", e.Executable, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }
