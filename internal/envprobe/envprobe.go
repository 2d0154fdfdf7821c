// Package envprobe checks workstation prerequisites: the runtimes that
// launch stdio MCP services (Node.js, uv, Docker) and the registered AI CLI
// toolchains. Probes only look up executables and capture version banners;
// nothing is installed or modified.
package envprobe

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// versionTimeout bounds each `--version` invocation; a wedged toolchain must
// not hang the whole check.
const versionTimeout = 5 * time.Second

// Probe describes one executable to look for on PATH.
type Probe struct {
	Command  string // executable name
	Label    string // human-readable description
	Required bool   // missing required probes fail the check as a whole
}

// Result is the outcome of one probe.
type Result struct {
	Probe
	Found   bool
	Path    string
	Version string // first line of `<command> --version`, when it answered
}

// Runtimes returns the probes for the launchers stdio services rely on:
// npx-packaged servers need Node.js, Python-based servers need uvx, and
// containerized servers need Docker.
func Runtimes() []Probe {
	return []Probe{
		{Command: "node", Label: "Node.js runtime", Required: true},
		{Command: "npx", Label: "Node.js package runner", Required: true},
		{Command: "uvx", Label: "uv tool runner", Required: true},
		{Command: "docker", Label: "Docker engine"},
	}
}

// Toolchains returns the probes for the registered AI CLI toolchains.
func Toolchains() []Probe {
	return []Probe{
		{Command: "openai", Label: "OpenAI CLI (Codex)"},
		{Command: "gcloud", Label: "Google Cloud CLI (Gemini)"},
		{Command: "claude", Label: "Claude Code CLI"},
	}
}

// Run looks up one probe on PATH and captures its version banner.
func Run(ctx context.Context, p Probe) Result {
	res := Result{Probe: p}
	path, err := exec.LookPath(p.Command)
	if err != nil {
		return res
	}
	res.Found = true
	res.Path = path

	vctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(vctx, p.Command, "--version").CombinedOutput()
	if err == nil {
		res.Version = firstLine(string(out))
	}
	return res
}

// RunAll probes every entry, preserving order.
func RunAll(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, 0, len(probes))
	for _, p := range probes {
		results = append(results, Run(ctx, p))
	}
	return results
}

// Healthy reports whether every required probe was found.
func Healthy(results []Result) bool {
	for _, r := range results {
		if r.Required && !r.Found {
			return false
		}
	}
	return true
}

// firstLine trims a version banner down to its first non-empty line.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
