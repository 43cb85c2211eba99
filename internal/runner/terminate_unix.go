//go:build unix

package runner

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// DefaultTerminator returns the POSIX terminator. Children are started in
// their own process group and signals go to the whole group, so helpers
// forked by the child do not outlive it.
func DefaultTerminator() Terminator {
	return posixTerminator{}
}

type posixTerminator struct{}

func (posixTerminator) Name() string { return "posix" }

func (posixTerminator) Prepare(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

func (t posixTerminator) Terminate(p *os.Process) error {
	return t.signal(p, unix.SIGTERM)
}

func (t posixTerminator) Kill(p *os.Process) error {
	return t.signal(p, unix.SIGKILL)
}

func (posixTerminator) signal(p *os.Process, sig syscall.Signal) error {
	if p == nil {
		return nil
	}
	err := unix.Kill(-p.Pid, sig)
	if err == nil || errors.Is(err, unix.ESRCH) {
		return nil
	}
	// The group may be gone or foreign; fall back to the process itself.
	if err := p.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// exitSignal returns the name of the signal that ended the process, or ""
// if it exited normally.
func exitSignal(ps *os.ProcessState) string {
	if ps == nil {
		return ""
	}
	ws, ok := ps.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return ""
	}
	if name := unix.SignalName(ws.Signal()); name != "" {
		return name
	}
	return ws.Signal().String()
}

// envKey is the identity of an environment variable name. POSIX names are
// case-sensitive.
func envKey(k string) string { return k }
