package mcp

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type workspaceParams struct{}

func (h *handler) workspaceHandler(ctx context.Context, req *mcp.CallToolRequest, _ workspaceParams) (*mcp.CallToolResult, any, error) {
	h.mu.RLock()
	r := h.runner
	cfgPath := h.cfgPath
	workspace := h.workspace
	h.mu.RUnlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Workspace: %s\n", workspace)
	if cfgPath != "" {
		fmt.Fprintf(&b, "Config: %s\n", cfgPath)
	} else {
		fmt.Fprintln(&b, "Config: (defaults)")
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Defaults:")
	fmt.Fprintf(&b, "  timeout: %s\n", r.Timeout)
	if r.NoOutputTimeout > 0 {
		fmt.Fprintf(&b, "  no_output_timeout: %s\n", r.NoOutputTimeout)
	} else {
		fmt.Fprintln(&b, "  no_output_timeout: disabled")
	}
	fmt.Fprintf(&b, "  kill_grace: %s\n", r.KillGrace)
	fmt.Fprintf(&b, "  max_output: %d bytes per stream\n", r.MaxOutput)

	if len(r.Env) > 0 {
		keys := slices.Sorted(maps.Keys(r.Env))
		fmt.Fprintf(&b, "  env (%d): %s\n", len(keys), strings.Join(keys, ", "))
	}

	return textResult(b.String())
}
