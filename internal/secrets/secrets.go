// Package secrets locates and loads the MCP service secrets file.
// Each entry describes how to reach one configured service: the transport
// kind, the endpoint URL or launch command, and optional credential material.
// Credentials are resolved at connector construction and injected into the
// transport session. They MUST NOT be logged, serialized, or echoed back.
package secrets

import (
	"fmt"
	"strings"
	"time"
)

// Transport selects how a configured service is reached.
type Transport string

const (
	// TransportStdio spawns the service as a child process and speaks MCP
	// over its standard streams.
	TransportStdio Transport = "stdio"
	// TransportHTTP connects to a streamable HTTP endpoint.
	TransportHTTP Transport = "http"
	// TransportSSE connects to a server-sent-events endpoint.
	TransportSSE Transport = "sse"
)

// ErrNotFound is returned when no secrets file exists at any discovery path.
var ErrNotFound = fmt.Errorf("secrets file not found")

// ErrMalformed is returned when a secrets file exists but fails to parse or
// violates validation (duplicate name, missing transport field, unknown
// transport tag).
var ErrMalformed = fmt.Errorf("malformed secrets file")

// ErrNoServices is returned when a secrets file is valid but declares zero
// services. Kept distinct from ErrMalformed so callers can point the user at
// populating the file rather than fixing it.
var ErrNoServices = fmt.Errorf("no services configured")

// ServiceSecrets defines a single external MCP service connection.
// Values under env, headers, and bearer_token support ${VAR} expansion,
// applied when the connector is built so ambient credentials never need to
// be written into the file.
type ServiceSecrets struct {
	Name           string            `json:"name" yaml:"name"`                                           // Unique service identifier, the lookup key everywhere.
	Transport      Transport         `json:"transport" yaml:"transport"`                                 // "stdio", "http", or "sse".
	Command        string            `json:"command,omitempty" yaml:"command,omitempty"`                 // Executable to launch (stdio only).
	Args           []string          `json:"args,omitempty" yaml:"args,omitempty"`                       // Command arguments (stdio only).
	Env            map[string]string `json:"env,omitempty" yaml:"env,omitempty"`                         // Subprocess env vars (stdio only).
	URL            string            `json:"url,omitempty" yaml:"url,omitempty"`                         // Service endpoint (http/sse only).
	Headers        map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`                 // Extra HTTP headers (http/sse only).
	BearerToken    string            `json:"bearer_token,omitempty" yaml:"bearer_token,omitempty"`       // Sent as "Authorization: Bearer <token>" (http/sse only).
	TimeoutSeconds int               `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"` // Per-service call timeout override. 0 = client default.
}

// Target returns the user-facing connection target: the launch command line
// for stdio services, the endpoint URL otherwise. Never includes credentials.
func (s ServiceSecrets) Target() string {
	if s.Transport == TransportStdio {
		if len(s.Args) == 0 {
			return s.Command
		}
		return s.Command + " " + strings.Join(s.Args, " ")
	}
	return s.URL
}

// Timeout returns the per-service call timeout, or fallback when the entry
// does not override it.
func (s ServiceSecrets) Timeout(fallback time.Duration) time.Duration {
	if s.TimeoutSeconds > 0 {
		return time.Duration(s.TimeoutSeconds) * time.Second
	}
	return fallback
}
