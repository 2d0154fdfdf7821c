package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jkaninda/zana/internal/mcp"
)

var (
	invokeArgsJSON string
	invokeArgsFile string
)

var invokeCmd = &cobra.Command{
	Use:   "invoke <service> <tool>",
	Short: "Invoke a tool on a configured service",
	Long: `Invoke one tool on one configured service. Arguments are a JSON object
passed with --args or read from a file with --args-file; the two are
mutually exclusive. Malformed argument JSON is rejected before any
connection is attempted.

The primary result value prints to stdout, text verbatim and structured
values as indented JSON. Additional content items follow under an
"Attachments:" heading.

Examples:
  zana invoke search query --args '{"q": "golang slog"}'
  zana invoke files read_file --args-file ./call.json
  zana invoke events replay --timeout 120

Exit codes:
  0  success
  1  connection, protocol, invocation, or timeout failure
  2  secrets file not found
  3  secrets file malformed
  4  secrets file defines no services
  5  service not configured
  6  both --args and --args-file given
  7  argument JSON malformed
  8  args file unreadable`,
	Args: cobra.ExactArgs(2),
	RunE: runInvoke,
}

func init() {
	invokeCmd.Flags().StringVar(&invokeArgsJSON, "args", "", "tool arguments as a JSON object")
	invokeCmd.Flags().StringVar(&invokeArgsFile, "args-file", "", "file containing tool arguments as a JSON object")
}

func runInvoke(_ *cobra.Command, args []string) error {
	toolArgs, code, err := parseToolArgs(invokeArgsJSON, invokeArgsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(code)
	}

	res, err := invokeTool(args[0], args[1], toolArgs)
	if err != nil {
		fail(err)
	}

	printResult(res)
	return nil
}

// parseToolArgs resolves the invocation arguments from the inline flag or the
// args file, enforcing at most one source. The code return picks the process
// exit status when err is non-nil. A supplied source must parse as a JSON
// object, even when its content is empty.
func parseToolArgs(inline, file string) (map[string]any, int, error) {
	if inline != "" && file != "" {
		return nil, ExitArgConflict, fmt.Errorf("--args and --args-file are mutually exclusive")
	}
	if inline == "" && file == "" {
		return nil, ExitSuccess, nil
	}

	raw := []byte(inline)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, ExitArgsUnreadable, fmt.Errorf("reading args file: %v", err)
		}
		raw = data
	}

	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, ExitArgsInvalid, fmt.Errorf("parsing tool arguments: %v", err)
	}
	return args, ExitSuccess, nil
}

// invokeTool owns the client scope for one invocation. The connector is
// released before the caller decides the exit code; a close failure surfaces
// only when the invocation itself succeeded.
func invokeTool(service, tool string, toolArgs map[string]any) (res *mcp.Result, err error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := mcp.NewClient(store, newLogger(), mcp.WithTimeout(time.Duration(callTimeout)*time.Second))
	defer func() {
		if cerr := client.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return client.InvokeTool(ctx, service, tool, toolArgs)
}
