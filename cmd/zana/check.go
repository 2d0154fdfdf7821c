package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jkaninda/zana/internal/envprobe"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that MCP service runtimes are installed",
	Long: `Probe the local environment for the launchers stdio services rely on
(node, npx, uvx, docker) and for known AI CLI toolchains. Nothing is
installed or modified.

Exit codes:
  0  all required runtimes found
  1  one or more required runtimes missing`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func runCheck(_ *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	runtimes := envprobe.RunAll(ctx, envprobe.Runtimes())
	fmt.Println("Runtimes:")
	printProbes(runtimes)

	fmt.Println("\nToolchains:")
	printProbes(envprobe.RunAll(ctx, envprobe.Toolchains()))

	if !envprobe.Healthy(runtimes) {
		fmt.Fprintln(os.Stderr, "\nError: required runtimes are missing")
		os.Exit(ExitFailure)
	}
	return nil
}

func printProbes(results []envprobe.Result) {
	for _, r := range results {
		switch {
		case r.Found && r.Version != "":
			fmt.Printf("  [OK]      %-26s %s (%s)\n", r.Label, r.Path, r.Version)
		case r.Found:
			fmt.Printf("  [OK]      %-26s %s\n", r.Label, r.Path)
		default:
			fmt.Printf("  [MISSING] %-26s %s\n", r.Label, r.Command)
		}
	}
}
