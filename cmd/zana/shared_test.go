package main

import (
	"fmt"
	"testing"

	"github.com/jkaninda/zana/internal/mcp"
	"github.com/jkaninda/zana/internal/secrets"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"generic", fmt.Errorf("boom"), ExitFailure},
		{"secrets not found", fmt.Errorf("wrap: %w", secrets.ErrNotFound), ExitSecretsNotFound},
		{"secrets malformed", fmt.Errorf("wrap: %w", secrets.ErrMalformed), ExitSecretsMalformed},
		{"no services", fmt.Errorf("wrap: %w", secrets.ErrNoServices), ExitNoServices},
		{"unknown service", fmt.Errorf("wrap: %w", mcp.ErrUnknownService), ExitUnknownService},
		{"connection failed", fmt.Errorf("wrap: %w", mcp.ErrConnectionFailed), ExitFailure},
		{"timeout", fmt.Errorf("wrap: %w", mcp.ErrTimeout), ExitFailure},
		{"tool not found", fmt.Errorf("wrap: %w", mcp.ErrToolNotFound), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestRenderValue(t *testing.T) {
	if got := renderValue("plain text"); got != "plain text" {
		t.Errorf("renderValue(string) = %q, want it verbatim", got)
	}

	got := renderValue(map[string]any{"status": "ok"})
	want := "{\n  \"status\": \"ok\"\n}"
	if got != want {
		t.Errorf("renderValue(map) = %q, want %q", got, want)
	}
}
