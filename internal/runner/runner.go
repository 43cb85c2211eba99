// Package runner supervises external commands. It starts a process
// without a shell, captures its output, enforces an absolute deadline and
// an inactivity deadline, and classifies how the process ended.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultWaitDelay bounds how long Run keeps reading output after the
// process has exited, for descendants that still hold the pipes open.
const DefaultWaitDelay = 2 * time.Second

// Runner executes commands under a timeout and an optional inactivity
// timeout. A Runner holds only configuration; it is safe to call Run
// concurrently.
type Runner struct {
	Workspace       string        // if set, Spec.Dir must stay inside it
	Timeout         time.Duration // default absolute deadline
	NoOutputTimeout time.Duration // default inactivity deadline; zero disables
	MaxOutput       int           // bytes kept per stream; <= 0 keeps everything
	KillGrace       time.Duration // delay between SIGTERM and SIGKILL; zero kills at once
	WaitDelay       time.Duration // zero uses DefaultWaitDelay

	// Env holds overrides applied to every run before Spec.Env.
	Env map[string]string

	Terminator Terminator   // nil uses DefaultTerminator
	Logger     *slog.Logger // nil uses slog.Default
}

// cause records which race participant stopped the process.
type cause int

const (
	causeNone cause = iota
	causeAbsolute
	causeInactivity
	causeCancelled
)

func (c cause) String() string {
	switch c {
	case causeAbsolute:
		return "timeout"
	case causeInactivity:
		return "no-output-timeout"
	case causeCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// Run executes spec and blocks until the process has exited.
//
// A non-nil error means spec was rejected before anything was started;
// it wraps ErrInvalidSpec. Every other outcome, including a command that
// cannot be started, is described by the Result.
func (r *Runner) Run(ctx context.Context, spec Spec) (*Result, error) {
	spec = spec.withDefaults(r)
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	dir, err := r.resolveDir(spec.Dir)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	log := r.logger().With(slog.String("run_id", runID), slog.String("argv0", spec.Argv[0]))

	if ShouldSpawnWithShell(spec.Argv[0], spec.Platform) {
		// argv is never handed to an interpreter.
		return nil, fmt.Errorf("%w: shell spawning is not supported", ErrInvalidSpec)
	}

	term := r.terminator()
	out := NewOutput(r.MaxOutput)

	cmd := exec.Command(spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = dir
	cmd.Env = MergeEnv(os.Environ(), spec.Env)
	cmd.Stdout = out.Stdout()
	cmd.Stderr = out.Stderr()
	cmd.WaitDelay = r.waitDelay()
	term.Prepare(cmd)

	start := time.Now()
	res := &Result{RunID: runID, Argv: spec.Argv}

	if err := cmd.Start(); err != nil {
		serr := &SpawnError{Executable: spec.Argv[0], Err: err}
		log.Warn("spawn failed", slog.Any("error", err))
		res.Termination = TerminationError
		res.Error = serr.Error()
		res.Duration = time.Since(start)
		return res, nil
	}
	log.Debug("started",
		slog.Int("pid", cmd.Process.Pid),
		slog.String("terminator", term.Name()),
		slog.Duration("timeout", spec.Timeout),
		slog.Duration("no_output_timeout", spec.NoOutputTimeout))

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	// If supervision unwinds without the exit report, make sure the
	// process does not outlive the call.
	reaped := false
	defer func() {
		if !reaped {
			_ = term.Kill(cmd.Process)
		}
	}()

	sv := &supervision{
		proc:     cmd.Process,
		term:     term,
		activity: out.Activity(),
		exited:   exited,
		timeout:  spec.Timeout,
		idle:     spec.NoOutputTimeout,
		grace:    r.KillGrace,
		log:      log,
	}
	by, waitErr := sv.run(ctx)
	reaped = true

	res.Duration = time.Since(start)
	res.Stdout = out.StdoutString()
	res.Stderr = out.StderrString()
	res.Truncated = out.Truncated()
	r.settle(res, cmd.ProcessState, waitErr, by)

	attrs := []any{
		slog.String("termination", string(res.Termination)),
		slog.Duration("duration", res.Duration),
	}
	if res.ExitCode != nil {
		attrs = append(attrs, slog.Int("exit_code", *res.ExitCode))
	}
	if res.Signal != "" {
		attrs = append(attrs, slog.String("signal", res.Signal))
	}
	log.Info("finished", attrs...)
	return res, nil
}

// settle fills the classification fields of res from the OS exit report
// and the cause recorded by the supervision loop.
func (r *Runner) settle(res *Result, ps *os.ProcessState, waitErr error, by cause) {
	if ps == nil {
		// Wait failed before the process could be reaped.
		res.Termination = TerminationError
		if waitErr != nil {
			res.Error = fmt.Sprintf("waiting for %s: %v", res.Argv[0], waitErr)
		}
		return
	}

	res.Signal = exitSignal(ps)
	var code *int
	if res.Signal == "" {
		c := ps.ExitCode()
		if c >= 0 {
			code = &c
		}
	}

	if by == causeCancelled {
		res.Termination = TerminationCancelled
	} else {
		res.Termination = Classify(code, res.Signal, by == causeAbsolute, by == causeInactivity)
	}
	res.NoOutputTimedOut = res.Termination == TerminationNoOutputTimeout
	if res.Termination == TerminationExit {
		res.ExitCode = code
	}
}

// supervision races the exit report against the deadlines for one
// process. Only run's goroutine touches its fields.
type supervision struct {
	proc     *os.Process
	term     Terminator
	activity <-chan struct{}
	exited   <-chan error
	timeout  time.Duration
	idle     time.Duration
	grace    time.Duration
	log      *slog.Logger
}

// run waits for the process to exit and returns whichever participant
// stopped it first together with the Wait error. The first timer, or the
// context, latches the cause and triggers termination; later events are
// ignored. run returns only on the exit report, so the result always
// reflects the process's final state.
func (s *supervision) run(ctx context.Context) (cause, error) {
	absolute := time.NewTimer(s.timeout)
	defer absolute.Stop()
	absoluteC := absolute.C

	var idle *time.Timer
	var idleC <-chan time.Time
	if s.idle > 0 {
		idle = time.NewTimer(s.idle)
		defer idle.Stop()
		idleC = idle.C
	}

	var grace *time.Timer
	var graceC <-chan time.Time
	defer func() {
		if grace != nil {
			grace.Stop()
		}
	}()

	activity := s.activity
	done := ctx.Done()
	by := causeNone

	trip := func(c cause) {
		if by != causeNone {
			return
		}
		by = c
		absolute.Stop()
		if idle != nil {
			idle.Stop()
		}
		absoluteC, idleC, activity, done = nil, nil, nil, nil

		s.log.Info("stopping process", slog.String("cause", c.String()), slog.Int("pid", s.proc.Pid))
		if s.grace <= 0 {
			s.kill()
			return
		}
		if err := s.term.Terminate(s.proc); err != nil {
			s.log.Warn("terminate failed, killing", slog.Any("error", err))
			s.kill()
			return
		}
		grace = time.NewTimer(s.grace)
		graceC = grace.C
	}

	for {
		select {
		case err := <-s.exited:
			return by, err
		case <-activity:
			if idle != nil {
				idle.Reset(s.idle)
			}
		case <-absoluteC:
			trip(causeAbsolute)
		case <-idleC:
			trip(causeInactivity)
		case <-done:
			trip(causeCancelled)
		case <-graceC:
			graceC = nil
			s.log.Debug("grace period elapsed", slog.Duration("grace", s.grace))
			s.kill()
		}
	}
}

func (s *supervision) kill() {
	if err := s.term.Kill(s.proc); err != nil {
		s.log.Warn("kill failed", slog.Any("error", err))
	}
}

// resolveDir resolves cwd relative to the workspace and validates it
// is within the workspace boundary. Without a workspace, cwd is used as
// given.
func (r *Runner) resolveDir(cwd string) (string, error) {
	if r.Workspace == "" {
		if cwd == "" {
			return "", nil
		}
		return filepath.Clean(cwd), nil
	}
	if cwd == "" {
		return r.Workspace, nil
	}

	var dir string
	if filepath.IsAbs(cwd) {
		dir = filepath.Clean(cwd)
	} else {
		dir = filepath.Clean(filepath.Join(r.Workspace, cwd))
	}

	rel, err := filepath.Rel(r.Workspace, dir)
	if err != nil {
		return "", fmt.Errorf("%w: resolving cwd: %v", ErrInvalidSpec, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: cwd %q is outside workspace %q", ErrInvalidSpec, cwd, r.Workspace)
	}
	return dir, nil
}

func (r *Runner) terminator() Terminator {
	if r.Terminator != nil {
		return r.Terminator
	}
	return DefaultTerminator()
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Runner) waitDelay() time.Duration {
	if r.WaitDelay > 0 {
		return r.WaitDelay
	}
	return DefaultWaitDelay
}
