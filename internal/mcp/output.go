package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/deixis/overseer/internal/report"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// defaultPage is the number of bytes exec_output returns when no limit
// is given.
const defaultPage = 64 << 10

type outputParams struct {
	RunID  string `json:"run_id" jsonschema:"run ID printed by exec_run"`
	Stream string `json:"stream,omitempty" jsonschema:"stdout or stderr. Defaults to stdout."`
	Offset int    `json:"offset,omitempty" jsonschema:"byte offset to start at; negative counts back from the end"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum bytes to return. Defaults to 65536."`
}

func (h *handler) outputHandler(ctx context.Context, req *mcp.CallToolRequest, params outputParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return errorResult("run_id is required")
	}
	stream, err := report.ParseStream(params.Stream)
	if err != nil {
		return errorResult(err.Error())
	}
	if params.Limit < 0 {
		return errorResult("limit must not be negative")
	}
	limit := params.Limit
	if limit == 0 {
		limit = defaultPage
	}

	res, err := h.store.Load(params.RunID)
	if err != nil {
		if errors.Is(err, report.ErrNotFound) {
			return errorResult(fmt.Sprintf("run %s not found; only recent runs are kept", params.RunID))
		}
		return errorResult(fmt.Sprintf("loading run %s: %v", params.RunID, err))
	}

	page := report.Slice(res, stream, params.Offset, limit)
	end := page.Offset + len(page.Text)

	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s\n", res.RunID)
	fmt.Fprintf(&b, "%s bytes %d-%d of %d\n", stream, page.Offset, end, page.Total)
	if res.Truncated {
		fmt.Fprintln(&b, "Output: truncated at capture")
	}
	fmt.Fprintln(&b)
	fmt.Fprint(&b, page.Text)
	if page.Text != "" && !strings.HasSuffix(page.Text, "\n") {
		fmt.Fprintln(&b)
	}
	if page.More() {
		fmt.Fprintf(&b, "\nMore: call exec_output with offset=%d\n", end)
	}
	return textResult(b.String())
}
