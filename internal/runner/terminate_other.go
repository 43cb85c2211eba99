//go:build !unix

package runner

import (
	"errors"
	"os"
	"os/exec"
	"strings"
)

// DefaultTerminator returns the terminator for platforms without POSIX
// signals. Both Terminate and Kill end the process forcefully.
func DefaultTerminator() Terminator {
	return forcefulTerminator{}
}

type forcefulTerminator struct{}

func (forcefulTerminator) Name() string { return "forceful" }

func (forcefulTerminator) Prepare(*exec.Cmd) {}

func (t forcefulTerminator) Terminate(p *os.Process) error { return t.Kill(p) }

func (forcefulTerminator) Kill(p *os.Process) error {
	if p == nil {
		return nil
	}
	if err := p.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// exitSignal always returns "": these platforms report only exit codes.
func exitSignal(*os.ProcessState) string { return "" }

// envKey folds variable names; Windows treats them case-insensitively.
func envKey(k string) string { return strings.ToUpper(k) }
