package runner

import "time"

// Result holds the outcome of one supervised command.
type Result struct {
	RunID            string        `json:"run_id"`
	Argv             []string      `json:"argv"`
	Stdout           string        `json:"stdout"`
	Stderr           string        `json:"stderr"`
	ExitCode         *int          `json:"exit_code,omitempty"` // set only for a normal exit under TerminationExit
	Signal           string        `json:"signal,omitempty"`    // e.g. SIGKILL; empty when the process exited normally
	Termination      Termination   `json:"termination"`
	NoOutputTimedOut bool          `json:"no_output_timed_out"`
	Truncated        bool          `json:"truncated,omitempty"` // output exceeded the per-stream cap
	Error            string        `json:"error,omitempty"`     // spawn failure, TerminationError only
	Duration         time.Duration `json:"duration_ns"`
}

// Success reports whether the process exited on its own with status 0.
func (r *Result) Success() bool {
	return r.Termination == TerminationExit && r.ExitCode != nil && *r.ExitCode == 0
}
