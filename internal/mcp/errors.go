package mcp

import "fmt"

// Failure classes for service resolution, connection, and invocation.
// All are sentinels so callers can map each class to a distinct exit code
// with errors.Is.
var (
	// ErrUnknownService is returned when a service name is absent from the
	// loaded secrets. The message carries the sorted configured names.
	ErrUnknownService = fmt.Errorf("unknown service")

	// ErrConnectionFailed is returned on a transport-level failure opening a
	// session: process could not be spawned, handshake rejected, network
	// unreachable. The caller may retry; the client never does.
	ErrConnectionFailed = fmt.Errorf("connection failed")

	// ErrProtocol is returned when a service response is structurally
	// invalid for this client's expectations.
	ErrProtocol = fmt.Errorf("protocol error")

	// ErrToolNotFound is returned when the service rejects the tool name.
	ErrToolNotFound = fmt.Errorf("tool not found")

	// ErrInvocationFailed is returned when the tool ran but the service
	// reported an error. The service's detail is carried opaquely.
	ErrInvocationFailed = fmt.Errorf("tool invocation failed")

	// ErrTimeout is returned when no response arrives within the configured
	// bound. The connector that timed out is closed and never reused.
	ErrTimeout = fmt.Errorf("timed out")
)
