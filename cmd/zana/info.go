package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jkaninda/zana/internal/secrets"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the resolved environment",
	Long: `Show the zana version, the resolved secrets file, and the configured
services. Useful for verifying which secrets file a command would pick up.

Exit codes:
  0  success (also when no secrets file is found)`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

func runInfo(_ *cobra.Command, _ []string) error {
	fmt.Printf("zana %s (commit: %s, built: %s)\n", version, commit, date)
	fmt.Printf("go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

	if wd, err := os.Getwd(); err == nil {
		fmt.Printf("working dir: %s\n", wd)
	}

	path, err := secrets.Discover(secretsPath)
	if err != nil {
		fmt.Println("secrets file: not found")
		return nil
	}
	fmt.Printf("secrets file: %s\n", path)

	store, err := secrets.Load(path)
	if err != nil {
		fmt.Printf("services: unavailable (%v)\n", err)
		return nil
	}
	fmt.Printf("services: %d (%s)\n", store.Len(), strings.Join(store.Names(), ", "))
	return nil
}
