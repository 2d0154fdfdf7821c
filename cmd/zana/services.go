package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List configured MCP services",
	Long: `List every service defined in the secrets file with its transport and
target. The target is the command line for stdio services and the URL for
http and sse services. Credentials are never printed.

Examples:
  zana services
  zana --secrets ./team-secrets.yaml services

Exit codes:
  0  success
  2  secrets file not found
  3  secrets file malformed
  4  secrets file defines no services`,
	Args: cobra.NoArgs,
	RunE: runServices,
}

func runServices(_ *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		fail(err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "SERVICE\tTRANSPORT\tTARGET\n")
	for _, name := range store.Names() {
		svc, _ := store.Get(name)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", svc.Name, svc.Transport, svc.Target())
	}
	return tw.Flush()
}
