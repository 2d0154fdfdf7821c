package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jkaninda/zana/internal/mcp"
)

var toolsCmd = &cobra.Command{
	Use:   "tools <service>",
	Short: "List the tools a service advertises",
	Long: `Connect to one configured service and print its tool catalog. The session
opened for the listing is closed before the command exits, whether the
listing succeeded or not.

Examples:
  zana tools search
  zana tools files --timeout 10

Exit codes:
  0  success
  1  connection, protocol, or timeout failure
  2  secrets file not found
  3  secrets file malformed
  4  secrets file defines no services
  5  service not configured`,
	Args: cobra.ExactArgs(1),
	RunE: runTools,
}

func runTools(_ *cobra.Command, args []string) error {
	tools, err := listTools(args[0])
	if err != nil {
		fail(err)
	}

	if len(tools) == 0 {
		fmt.Fprintf(os.Stderr, "Service %q advertises no tools.\n", args[0])
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "TOOL\tDESCRIPTION\n")
	for _, t := range tools {
		fmt.Fprintf(tw, "%s\t%s\n", t.Name, t.Description)
	}
	return tw.Flush()
}

// listTools owns the client scope. The connector dialed for the listing is
// released before the caller decides the exit code; a close failure surfaces
// only when the listing itself succeeded.
func listTools(service string) (tools []mcp.Tool, err error) {
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

	return client.ListTools(ctx, service)
}
