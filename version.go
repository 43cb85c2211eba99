// Package overseer supervises external commands with wall-clock and
// inactivity deadlines.
package overseer

// Version is the release version reported by the CLI and the MCP server.
const Version = "0.1.0"
