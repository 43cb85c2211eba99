package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/deixis/overseer/internal/report"
	"github.com/deixis/overseer/internal/runner"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// inlineOutput is the number of bytes per stream shown in an exec_run
// response. The full capture stays readable through exec_output.
const inlineOutput = 16 << 10

// maxMillis is the largest millisecond count that fits in a time.Duration.
const maxMillis = math.MaxInt64 / int64(time.Millisecond)

type runParams struct {
	Argv              []string          `json:"argv" jsonschema:"program and arguments; argv[0] is looked up on PATH and nothing is interpreted by a shell"`
	Env               map[string]string `json:"env,omitempty" jsonschema:"environment variables to set or replace for this run; all other variables are inherited"`
	Cwd               string            `json:"cwd,omitempty" jsonschema:"working directory, relative to the workspace root; must stay inside it"`
	TimeoutMs         int64             `json:"timeout_ms,omitempty" jsonschema:"absolute deadline in milliseconds. Defaults to the configured timeout."`
	NoOutputTimeoutMs int64             `json:"no_output_timeout_ms,omitempty" jsonschema:"stop the command after this many milliseconds without output. Defaults to the configured value; 0 with no configured value disables it."`
}

func (h *handler) runHandler(ctx context.Context, req *mcp.CallToolRequest, params runParams) (*mcp.CallToolResult, any, error) {
	if params.TimeoutMs < 0 || params.NoOutputTimeoutMs < 0 {
		return errorResult("timeout_ms and no_output_timeout_ms must not be negative")
	}
	if params.TimeoutMs > maxMillis || params.NoOutputTimeoutMs > maxMillis {
		return errorResult(fmt.Sprintf("timeout_ms and no_output_timeout_ms must not exceed %d", maxMillis))
	}

	r := h.snapshot()
	res, err := r.Run(ctx, runner.Spec{
		Argv:            params.Argv,
		Env:             params.Env,
		Dir:             params.Cwd,
		Timeout:         time.Duration(params.TimeoutMs) * time.Millisecond,
		NoOutputTimeout: time.Duration(params.NoOutputTimeoutMs) * time.Millisecond,
	})
	if err != nil {
		if errors.Is(err, runner.ErrInvalidSpec) {
			return errorResult(fmt.Sprintf("Rejected: %v", err))
		}
		return errorResult(fmt.Sprintf("run failed: %v", err))
	}

	text := formatRun(res)
	if err := h.store.Save(res); err != nil {
		logger := r.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("saving run", slog.String("run_id", res.RunID), slog.Any("error", err))
		text += fmt.Sprintf("\nNote: run %s was not kept; exec_output cannot read it (%v)\n", res.RunID, err)
	}

	if res.Termination == runner.TerminationError {
		return errorResult(text)
	}
	return textResult(text)
}

func formatRun(res *runner.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Termination: %s\n", res.Termination)
	if res.ExitCode != nil {
		fmt.Fprintf(&b, "Exit code: %d\n", *res.ExitCode)
	}
	if res.Signal != "" {
		fmt.Fprintf(&b, "Signal: %s\n", res.Signal)
	}
	if res.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", res.Error)
	}
	fmt.Fprintf(&b, "Duration: %s\n", res.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "Run: %s\n", res.RunID)
	if res.Truncated {
		fmt.Fprintln(&b, "Output: truncated")
	}

	writeStream(&b, res, report.Stdout)
	writeStream(&b, res, report.Stderr)

	switch res.Termination {
	case runner.TerminationNoOutputTimeout:
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Action: the command went silent. Raise no_output_timeout_ms if it is expected to be quiet for a while.")
	case runner.TerminationTimeout:
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Action: the command hit its deadline. Raise timeout_ms or narrow the work before retrying.")
	}

	return b.String()
}

// writeStream prints the tail of one stream, noting where it was clipped.
func writeStream(b *strings.Builder, res *runner.Result, s report.Stream) {
	fmt.Fprintln(b)
	page := report.Slice(res, s, -inlineOutput, 0)
	if page.Total == 0 {
		fmt.Fprintf(b, "%s: (empty)\n", s)
		return
	}
	if page.Offset > 0 {
		fmt.Fprintf(b, "%s (last %d of %d bytes; exec_output run_id=%s stream=%s for the rest):\n",
			s, len(page.Text), page.Total, res.RunID, s)
	} else {
		fmt.Fprintf(b, "%s:\n", s)
	}
	fmt.Fprint(b, page.Text)
	if !strings.HasSuffix(page.Text, "\n") {
		fmt.Fprintln(b)
	}
}
