package runner

import (
	"os"
	"os/exec"
)

// Terminator delivers platform-appropriate termination to a child
// process. It is chosen once per Runner; nothing else in the package
// branches on the platform.
//
// Terminate and Kill must treat a process that has already exited as
// success.
type Terminator interface {
	// Name identifies the variant in logs.
	Name() string
	// Prepare adjusts cmd before it is started.
	Prepare(cmd *exec.Cmd)
	// Terminate asks the process to stop.
	Terminate(p *os.Process) error
	// Kill stops the process without giving it a chance to react.
	Kill(p *os.Process) error
}
