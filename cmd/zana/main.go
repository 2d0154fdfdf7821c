// Zana — registry and command-line client for MCP tool services.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "zana",
	Short: "Zana — manage and invoke MCP tool services from the command line.",
	Long: `Zana keeps a local registry of MCP (Model Context Protocol) services and
invokes their tools from the command line. Service entries carry transport
details and credentials, so the registry file is treated as secret material:
zana never prints or logs its values.

The secrets file is discovered in order: the --secrets flag, the
ZANA_SECRETS environment variable, ./.zana/secrets.yaml, then
~/.zana/secrets.yaml (.yml accepted at the conventional locations).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Persistent flags shared by every command.
var (
	secretsPath string
	logLevel    string
	callTimeout int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&secretsPath, "secrets", "", "path to the secrets file (overrides discovery)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log verbosity: debug, info, warn, error (or ZANA_LOG_LEVEL env)")
	rootCmd.PersistentFlags().IntVar(&callTimeout, "timeout", 60, "per-call timeout in seconds (dial, list, invoke)")

	rootCmd.AddCommand(servicesCmd, toolsCmd, invokeCmd, checkCmd, infoCmd, initCmd, versionCmd)
	_ = godotenv.Load()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
