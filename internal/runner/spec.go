package runner

import (
	"errors"
	"fmt"
	"maps"
	"runtime"
	"strings"
	"time"
)

// ErrInvalidSpec is wrapped by every error Run returns for a Spec that was
// rejected before anything was started.
var ErrInvalidSpec = errors.New("invalid command spec")

// Spec describes one command invocation.
type Spec struct {
	Argv []string          // Argv[0] is the executable, resolved via PATH when it has no separator
	Env  map[string]string // overrides applied on top of the inherited environment
	Dir  string            // working directory; relative paths resolve against Runner.Workspace

	// Timeout is the absolute deadline measured from spawn. Zero falls
	// back to Runner.Timeout.
	Timeout time.Duration
	// NoOutputTimeout ends the process after this long without a byte on
	// stdout or stderr. Zero falls back to Runner.NoOutputTimeout; zero
	// there disables the inactivity deadline.
	NoOutputTimeout time.Duration

	// Platform names the target OS. It defaults to runtime.GOOS and is
	// only consulted by ShouldSpawnWithShell.
	Platform string
}

// withDefaults returns a copy of s with zero fields filled from r and
// r.Env layered under s.Env. The copy owns its Argv and Env so callers
// may reuse s while Run executes.
func (s Spec) withDefaults(r *Runner) Spec {
	out := s
	out.Argv = append([]string(nil), s.Argv...)
	out.Env = maps.Clone(r.Env)
	if out.Env == nil && len(s.Env) > 0 {
		out.Env = make(map[string]string, len(s.Env))
	}
	maps.Copy(out.Env, s.Env)
	if out.Timeout == 0 {
		out.Timeout = r.Timeout
	}
	if out.NoOutputTimeout == 0 {
		out.NoOutputTimeout = r.NoOutputTimeout
	}
	if out.Platform == "" {
		out.Platform = runtime.GOOS
	}
	return out
}

// Validate reports the first problem that would stop s from running.
func (s Spec) Validate() error {
	if len(s.Argv) == 0 {
		return fmt.Errorf("%w: empty argv", ErrInvalidSpec)
	}
	if strings.TrimSpace(s.Argv[0]) == "" {
		return fmt.Errorf("%w: empty executable", ErrInvalidSpec)
	}
	for i, a := range s.Argv {
		if strings.ContainsRune(a, 0) {
			return fmt.Errorf("%w: argv[%d] contains a NUL byte", ErrInvalidSpec, i)
		}
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidSpec, s.Timeout)
	}
	if s.NoOutputTimeout < 0 {
		return fmt.Errorf("%w: no-output timeout must not be negative, got %s", ErrInvalidSpec, s.NoOutputTimeout)
	}
	for k, v := range s.Env {
		if !validEnvKey(k) {
			return fmt.Errorf("%w: invalid environment key %q", ErrInvalidSpec, k)
		}
		if strings.ContainsRune(v, 0) {
			return fmt.Errorf("%w: environment value for %q contains a NUL byte", ErrInvalidSpec, k)
		}
	}
	return nil
}
