// Package mcp provides the overseer MCP server, registering the command
// tools and publishing model instructions.
package mcp

import (
	"context"
	_ "embed"
	"net/url"
	"sync"
	"time"

	"github.com/deixis/overseer"
	"github.com/deixis/overseer/internal/config"
	"github.com/deixis/overseer/internal/report"
	"github.com/deixis/overseer/internal/runner"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	mu        sync.RWMutex
	runner    runner.Runner // copied per call; updated from client roots
	store     report.Store
	cfgPath   string
	workspace string
}

// NewServer creates an MCP server with all overseer tools registered.
// r supplies the defaults for every exec_run call; the server keeps its
// own copy. loaded is the configuration r was built from. Every result is
// saved to store so exec_output can page through it.
func NewServer(loaded *config.LoadResult, r *runner.Runner, store report.Store, workspace string) *mcp.Server {
	h := &handler{
		runner:    *r,
		store:     store,
		cfgPath:   loaded.Path,
		workspace: workspace,
	}

	opts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
		InitializedHandler: func(ctx context.Context, req *mcp.InitializedRequest) {
			h.updateWorkspaceFromRoots(ctx, req.Session)
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "overseer", Version: overseer.Version}, opts)

	mcp.AddTool(s, &mcp.Tool{
		Name: "exec_run",
		Description: `Run a command without a shell and report how it ended.

argv[0] is the program (looked up on PATH), the rest are its arguments, passed verbatim.
The command is stopped when timeout_ms elapses, or when it prints nothing on stdout or
stderr for no_output_timeout_ms. The result lists the termination reason
(exit, timeout, no-output-timeout, error, cancelled), exit code or signal, and captured output.
Long output is clipped to its tail; use exec_output with the run ID to read the rest.`,
	}, h.runHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "exec_output",
		Description: `Read captured output of a recent exec_run by run ID.

Returns up to limit bytes of stdout or stderr starting at offset. A negative offset
counts back from the end. Only the most recent runs are kept.`,
	}, h.outputHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "exec_workspace",
		Description: "Summarise the workspace: root directory, loaded .overseer file, and default limits for exec_run.",
	}, h.workspaceHandler)

	return s
}

// snapshot returns the current runner defaults. The copy shares the
// Env map, which Run never mutates.
func (h *handler) snapshot() runner.Runner {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.runner
}

// updateWorkspaceFromRoots queries the client for MCP roots and updates the
// handler's runner and config if a valid root is returned.
// This is called during session initialization, before any tool calls.
func (h *handler) updateWorkspaceFromRoots(ctx context.Context, session *mcp.ServerSession) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	roots, err := session.ListRoots(ctx, &mcp.ListRootsParams{})
	if err != nil {
		return
	}
	if len(roots.Roots) == 0 {
		return
	}

	u, err := url.Parse(roots.Roots[0].URI)
	if err != nil || u.Scheme != "file" {
		return
	}
	workspace := u.Path

	loaded, err := config.Load(workspace)
	if err != nil {
		return
	}
	cfg := loaded.Config

	h.mu.Lock()
	defer h.mu.Unlock()
	h.runner.Workspace = workspace
	h.runner.Timeout = cfg.Timeout()
	h.runner.NoOutputTimeout = cfg.NoOutputTimeout()
	h.runner.KillGrace = cfg.KillGrace()
	h.runner.MaxOutput = cfg.MaxOutputBytes()
	h.runner.Env = cfg.Env
	h.cfgPath = loaded.Path
	h.workspace = workspace
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
