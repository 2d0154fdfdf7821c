package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	initOutput string
	initForce  bool
)

// starterSecrets is the scaffold written by `zana init`. Credential values
// stay in the environment; the file only references them with ${VAR}.
const starterSecrets = `# zana secrets file.
# One entry per MCP service. Values under env, headers, and bearer_token
# are credentials: keep this file out of version control.
services:
  - name: files
    transport: stdio
    command: npx
    args: ["-y", "@modelcontextprotocol/server-filesystem", "."]

  - name: search
    transport: http
    url: https://mcp.example.com/search
    bearer_token: ${SEARCH_TOKEN}

  # - name: events
  #   transport: sse
  #   url: https://mcp.example.com/events
  #   headers:
  #     X-API-Key: ${EVENTS_API_KEY}
  #   timeout_seconds: 120
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter secrets file",
	Long: `Write a commented starter secrets file for the current project. The file
is created with mode 0600 and an existing file is never overwritten unless
--force is given.

Examples:
  zana init
  zana init --output ~/.zana/secrets.yaml
  zana init --force

Exit codes:
  0  success
  1  file exists (use --force) or write failure`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initOutput, "output", filepath.Join(".zana", "secrets.yaml"), "output file path")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")
}

func runInit(_ *cobra.Command, _ []string) error {
	if _, err := os.Stat(initOutput); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", initOutput)
	}

	dir := filepath.Dir(initOutput)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	if err := os.WriteFile(initOutput, []byte(starterSecrets), 0600); err != nil {
		return fmt.Errorf("writing secrets file: %w", err)
	}

	fmt.Printf("Secrets file written to %s\n", initOutput)
	fmt.Println("Edit it to declare your services, then run: zana services")
	return nil
}
