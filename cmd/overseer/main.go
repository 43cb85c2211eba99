// Command overseer runs external commands under wall-clock and
// inactivity deadlines.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/deixis/overseer"
	"github.com/deixis/overseer/internal/config"
	ovmcp "github.com/deixis/overseer/internal/mcp"
	"github.com/deixis/overseer/internal/report"
	"github.com/deixis/overseer/internal/runner"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Exit statuses for outcomes that carry no exit code of their own. They
// follow the conventions of coreutils timeout(1).
const (
	exitTimedOut  = 124
	exitSpawnFail = 125
	exitCancelled = 130
	exitUsage     = 2
)

// recentRuns is how many results the MCP server keeps for exec_output.
const recentRuns = 20

func main() {
	log.SetFlags(0)
	log.SetPrefix("overseer: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(exitUsage)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "run":
		var code int
		code, err = runMain(args)
		if err == nil {
			os.Exit(code)
		}
	case "mcp":
		err = mcpMain(args)
	case "version":
		fmt.Println(overseer.Version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "overseer: unknown command %q\n", cmd)
		usage()
		os.Exit(exitUsage)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: overseer <command> [flags]

Commands:
  run         Run a command under the configured deadlines
  mcp         Start the MCP server
  version     Print the version
  help        Show this help

Use "overseer <command> -h" for command-specific flags.`)
}

// --- run ---

// envFlag collects repeated -env KEY=VALUE flags.
type envFlag map[string]string

func (e envFlag) String() string {
	parts := make([]string, 0, len(e))
	for k, v := range e {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (e envFlag) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("want KEY=VALUE, got %q", s)
	}
	e[k] = v
	return nil
}

var errMissingCommand = errors.New("run: missing command")

// runOptions holds the parsed flags of the run subcommand.
type runOptions struct {
	timeout         time.Duration
	noOutputTimeout time.Duration
	killGrace       time.Duration
	cwd             string
	env             envFlag
	jsonOut         bool
	verbose         bool
	argv            []string
}

func parseRunFlags(args []string) (*runOptions, error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	opts := &runOptions{env: envFlag{}, killGrace: -1}
	fs.DurationVar(&opts.timeout, "timeout", 0, "absolute deadline (e.g. 30s); overrides the configured timeout")
	fs.DurationVar(&opts.noOutputTimeout, "no-output-timeout", 0, "stop the command after this long without output")
	fs.DurationVar(&opts.killGrace, "kill-grace", -1, "delay between SIGTERM and SIGKILL; 0 kills at once")
	fs.StringVar(&opts.cwd, "cwd", "", "working directory")
	fs.Var(opts.env, "env", "set KEY=VALUE in the command's environment (repeatable)")
	fs.BoolVar(&opts.jsonOut, "json", false, "print the result as JSON instead of passing output through")
	fs.BoolVar(&opts.verbose, "v", false, "verbose logging")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: overseer run [flags] [--] command [args...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.argv = fs.Args()
	if len(opts.argv) == 0 {
		return nil, errMissingCommand
	}
	return opts, nil
}

func runMain(args []string) (int, error) {
	opts, err := parseRunFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0, nil
		}
		// flag reports its own parse errors.
		if errors.Is(err, errMissingCommand) {
			log.Print(err)
		}
		return exitUsage, nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r, err := newRunner()
	if err != nil {
		return 0, err
	}
	r.Logger = newLogger(opts.verbose)
	if opts.killGrace >= 0 {
		r.KillGrace = opts.killGrace
	}

	res, err := r.Run(ctx, runner.Spec{
		Argv:            opts.argv,
		Env:             opts.env,
		Dir:             opts.cwd,
		Timeout:         opts.timeout,
		NoOutputTimeout: opts.noOutputTimeout,
	})
	if err != nil {
		return 0, err
	}

	if opts.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return 0, err
		}
	} else {
		fmt.Fprint(os.Stdout, res.Stdout)
		fmt.Fprint(os.Stderr, res.Stderr)
		if msg := describe(res); msg != "" {
			log.Print(msg)
		}
	}
	return exitStatus(res), nil
}

// describe returns a one-line note for outcomes the child's own output
// does not explain.
func describe(res *runner.Result) string {
	switch res.Termination {
	case runner.TerminationTimeout:
		return fmt.Sprintf("%s: timed out after %s", res.Argv[0], res.Duration.Round(time.Millisecond))
	case runner.TerminationNoOutputTimeout:
		return fmt.Sprintf("%s: no output, stopped after %s", res.Argv[0], res.Duration.Round(time.Millisecond))
	case runner.TerminationCancelled:
		return fmt.Sprintf("%s: cancelled", res.Argv[0])
	case runner.TerminationError:
		return res.Error
	}
	if res.Signal != "" {
		return fmt.Sprintf("%s: killed by %s", res.Argv[0], res.Signal)
	}
	return ""
}

// exitStatus maps a Result to the status overseer itself exits with.
func exitStatus(res *runner.Result) int {
	switch res.Termination {
	case runner.TerminationTimeout, runner.TerminationNoOutputTimeout:
		return exitTimedOut
	case runner.TerminationCancelled:
		return exitCancelled
	case runner.TerminationError:
		return exitSpawnFail
	}
	if res.ExitCode != nil {
		return *res.ExitCode
	}
	if n, ok := signalNumber(res.Signal); ok {
		return 128 + n
	}
	return 1
}

// --- mcp ---

func mcpMain(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	instructions := fs.Bool("instructions", false, "print model instructions and exit")
	httpAddr := fs.String("http", "", "start HTTP server on address (e.g. :9090)")
	verbose := fs.Bool("v", false, "verbose logging")
	_ = fs.Parse(args)

	if *instructions {
		fmt.Print(ovmcp.Instructions)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return serve(ctx, *httpAddr, newLogger(*verbose))
}

func serve(ctx context.Context, httpAddr string, logger *slog.Logger) error {
	workspace, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determining workspace: %w", err)
	}

	loaded, err := config.Load(workspace)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	r := runnerFromConfig(loaded.Config, workspace)
	r.Logger = logger

	server := ovmcp.NewServer(loaded, r, report.NewLRUStore(recentRuns, nil), workspace)

	if httpAddr != "" {
		return serveHTTP(ctx, server, httpAddr)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// --- shared ---

func newRunner() (*runner.Runner, error) {
	workspace, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determining workspace: %w", err)
	}

	loaded, err := config.Load(workspace)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	r := runnerFromConfig(loaded.Config, "")
	return r, nil
}

// runnerFromConfig builds a Runner from cfg. An empty workspace leaves
// working directories unrestricted.
func runnerFromConfig(cfg *config.Config, workspace string) *runner.Runner {
	return &runner.Runner{
		Workspace:       workspace,
		Timeout:         cfg.Timeout(),
		NoOutputTimeout: cfg.NoOutputTimeout(),
		KillGrace:       cfg.KillGrace(),
		MaxOutput:       cfg.MaxOutputBytes(),
		Env:             cfg.Env,
	}
}

// newLogger returns the structured logger handed to the runner. It writes
// to stderr so stdout stays free for the child's output or the MCP stream.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
