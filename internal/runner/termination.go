package runner

// Termination classifies why a supervised command stopped running.
type Termination string

const (
	// TerminationExit means the process ended on its own, either with an
	// exit code or through a signal the supervisor did not send.
	TerminationExit Termination = "exit"
	// TerminationTimeout means the absolute deadline elapsed.
	TerminationTimeout Termination = "timeout"
	// TerminationNoOutputTimeout means the process stayed silent for longer
	// than the inactivity window.
	TerminationNoOutputTimeout Termination = "no-output-timeout"
	// TerminationError means the process could not be started.
	TerminationError Termination = "error"
	// TerminationCancelled means the caller's context was done first.
	TerminationCancelled Termination = "cancelled"
)

// Classify maps the raw outcome of a process into a Termination.
//
// The supervisor kills on the first timer that fires, so at most one of
// byAbsolute and byInactivity is set in practice. If both are, the
// inactivity timer wins. exitCode and signal do not change the reason;
// they only describe an exit that neither timer caused.
func Classify(exitCode *int, signal string, byAbsolute, byInactivity bool) Termination {
	switch {
	case byInactivity:
		return TerminationNoOutputTimeout
	case byAbsolute:
		return TerminationTimeout
	default:
		return TerminationExit
	}
}
