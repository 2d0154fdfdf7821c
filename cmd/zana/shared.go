package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goutils "github.com/jkaninda/go-utils"

	"github.com/jkaninda/zana/internal/mcp"
	"github.com/jkaninda/zana/internal/secrets"
)

// Exit codes shared by all commands, one per failure class so scripts can
// branch without parsing stderr.
const (
	ExitSuccess          = 0
	ExitFailure          = 1
	ExitSecretsNotFound  = 2
	ExitSecretsMalformed = 3
	ExitNoServices       = 4
	ExitUnknownService   = 5
	ExitArgConflict      = 6
	ExitArgsInvalid      = 7
	ExitArgsUnreadable   = 8
)

// newLogger builds the process logger. Diagnostics go to stderr so stdout
// stays clean for command output.
func newLogger() *slog.Logger {
	name := logLevel
	if name == "" {
		name = goutils.Env("ZANA_LOG_LEVEL", "info")
	}

	level := slog.LevelInfo
	switch strings.ToLower(name) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// openStore discovers and loads the secrets file, honoring the --secrets flag.
func openStore() (*secrets.Store, error) {
	return secrets.LoadDefault(secretsPath)
}

// exitCodeFor maps an error to the exit code of its failure class.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, secrets.ErrNotFound):
		return ExitSecretsNotFound
	case errors.Is(err, secrets.ErrMalformed):
		return ExitSecretsMalformed
	case errors.Is(err, secrets.ErrNoServices):
		return ExitNoServices
	case errors.Is(err, mcp.ErrUnknownService):
		return ExitUnknownService
	default:
		return ExitFailure
	}
}

// fail prints the error and exits with its mapped code. Callers must have
// released their resources already: fail never returns.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitCodeFor(err))
}

// printResult renders an invocation result on stdout: the primary value
// first, then any attachments in the order the service produced them.
func printResult(res *mcp.Result) {
	fmt.Println(renderValue(res.Primary))
	if len(res.Attachments) == 0 {
		return
	}
	fmt.Println("\nAttachments:")
	for i, att := range res.Attachments {
		fmt.Printf("[%d] %s\n", i+1, renderValue(att))
	}
}

// renderValue prints strings verbatim and everything else as indented JSON.
func renderValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
