package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jkaninda/zana/internal/secrets"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testStore loads a store with an http service "search" and a stdio service
// "files".
func testStore(t *testing.T) *secrets.Store {
	t.Helper()
	content := `
services:
  - name: search
    transport: http
    url: https://svc.example.com/mcp
  - name: files
    transport: stdio
    command: mcp-fs
    timeout_seconds: 2
`
	path := filepath.Join(t.TempDir(), "secrets.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	store, err := secrets.Load(path)
	if err != nil {
		t.Fatalf("loading test secrets: %v", err)
	}
	return store
}

// stubConnector plays back canned results and records lifecycle events.
type stubConnector struct {
	service string
	rec     *dialRecorder

	tools   []Tool
	listErr error
	callRes *mcp.CallToolResult
	callErr error

	closeErr error
	closed   int
}

func (s *stubConnector) ListTools(ctx context.Context) ([]Tool, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.tools, nil
}

func (s *stubConnector) CallTool(ctx context.Context, tool string, args map[string]any) (*mcp.CallToolResult, error) {
	s.rec.mu.Lock()
	s.rec.lastDeadline, s.rec.hasDeadline = ctx.Deadline()
	s.rec.mu.Unlock()
	if s.callErr != nil {
		return nil, s.callErr
	}
	return s.callRes, nil
}

func (s *stubConnector) Close() error {
	s.closed++
	s.rec.mu.Lock()
	s.rec.closeOrder = append(s.rec.closeOrder, s.service)
	s.rec.mu.Unlock()
	return s.closeErr
}

// dialRecorder builds stub connectors and records dial and close activity.
type dialRecorder struct {
	mu           sync.Mutex
	dials        []string
	conns        map[string]*stubConnector
	dialErr      error
	closeOrder   []string
	lastDeadline time.Time
	hasDeadline  bool

	// configure applies per-service canned behavior to new stubs.
	configure func(*stubConnector)
}

func newDialRecorder() *dialRecorder {
	return &dialRecorder{conns: make(map[string]*stubConnector)}
}

func (d *dialRecorder) dial(_ context.Context, svc secrets.ServiceSecrets, _ *slog.Logger) (Connector, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials = append(d.dials, svc.Name)
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	conn := &stubConnector{service: svc.Name, rec: d}
	if d.configure != nil {
		d.configure(conn)
	}
	d.conns[svc.Name] = conn
	return conn, nil
}

func (d *dialRecorder) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dials)
}

// newTestClient wires a client to the recorder's dialer.
func newTestClient(t *testing.T, rec *dialRecorder, opts ...Option) *Client {
	t.Helper()
	c := NewClient(testStore(t), testLogger(), opts...)
	c.dial = rec.dial
	return c
}

func TestListToolsUnknownService(t *testing.T) {
	rec := newDialRecorder()
	c := newTestClient(t, rec)
	defer c.Close()

	_, err := c.ListTools(context.Background(), "nope")
	if !errors.Is(err, ErrUnknownService) {
		t.Fatalf("ListTools(nope) error = %v, want ErrUnknownService", err)
	}
	// The configured names guide the user, sorted.
	if !strings.Contains(err.Error(), "files, search") {
		t.Errorf("error %q should list configured services", err)
	}
	if rec.dialCount() != 0 {
		t.Errorf("dials = %d, want 0 for unknown service", rec.dialCount())
	}
}

func TestInvokeToolUnknownService(t *testing.T) {
	rec := newDialRecorder()
	c := newTestClient(t, rec)
	defer c.Close()

	_, err := c.InvokeTool(context.Background(), "nope", "read", nil)
	if !errors.Is(err, ErrUnknownService) {
		t.Fatalf("InvokeTool(nope) error = %v, want ErrUnknownService", err)
	}
	if rec.dialCount() != 0 {
		t.Errorf("dials = %d, want 0 for unknown service", rec.dialCount())
	}
}

func TestListTools(t *testing.T) {
	rec := newDialRecorder()
	rec.configure = func(s *stubConnector) {
		s.tools = []Tool{{Name: "query", Description: "full-text search"}}
	}
	c := newTestClient(t, rec)
	defer c.Close()

	tools, err := c.ListTools(context.Background(), "search")
	if err != nil {
		t.Fatalf("ListTools(search): %v", err)
	}
	if len(tools) != 1 || tools[0].Name != "query" {
		t.Fatalf("tools = %+v, want one tool named query", tools)
	}
	if rec.dialCount() != 1 {
		t.Errorf("dials = %d, want 1", rec.dialCount())
	}
}

func TestConnectorReuse(t *testing.T) {
	rec := newDialRecorder()
	rec.configure = func(s *stubConnector) {
		s.callRes = &mcp.CallToolResult{
			Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "ok"}},
		}
	}
	c := newTestClient(t, rec)
	defer c.Close()

	for i := 0; i < 3; i++ {
		if _, err := c.InvokeTool(context.Background(), "search", "query", map[string]any{"q": "go"}); err != nil {
			t.Fatalf("InvokeTool #%d: %v", i, err)
		}
	}
	if rec.dialCount() != 1 {
		t.Errorf("dials = %d, want 1 (connector reused)", rec.dialCount())
	}
}

func TestInvokeToolNormalizes(t *testing.T) {
	rec := newDialRecorder()
	rec.configure = func(s *stubConnector) {
		s.callRes = &mcp.CallToolResult{
			Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "hello"}},
		}
	}
	c := newTestClient(t, rec)
	defer c.Close()

	res, err := c.InvokeTool(context.Background(), "files", "read", map[string]any{"path": "/tmp/x"})
	if err != nil {
		t.Fatalf("InvokeTool: %v", err)
	}
	if res.Primary != "hello" {
		t.Errorf("Primary = %v, want hello", res.Primary)
	}
	if len(res.Attachments) != 0 {
		t.Errorf("Attachments = %v, want none", res.Attachments)
	}
}

func TestInvokeToolFailureStillReleases(t *testing.T) {
	rec := newDialRecorder()
	rec.configure = func(s *stubConnector) {
		s.callErr = fmt.Errorf("%w: read on %q: boom", ErrInvocationFailed, "files")
	}
	c := newTestClient(t, rec)

	_, err := c.InvokeTool(context.Background(), "files", "read", map[string]any{"path": "/tmp/x"})
	if !errors.Is(err, ErrInvocationFailed) {
		t.Fatalf("InvokeTool error = %v, want ErrInvocationFailed", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if conn := rec.conns["files"]; conn == nil || conn.closed != 1 {
		t.Error("files connector not closed on scope exit")
	}
}

func TestCloseReverseOrder(t *testing.T) {
	rec := newDialRecorder()
	rec.configure = func(s *stubConnector) {
		s.tools = []Tool{}
	}
	c := newTestClient(t, rec)

	if _, err := c.ListTools(context.Background(), "files"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ListTools(context.Background(), "search"); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	want := []string{"search", "files"}
	if len(rec.closeOrder) != 2 || rec.closeOrder[0] != want[0] || rec.closeOrder[1] != want[1] {
		t.Errorf("close order = %v, want %v", rec.closeOrder, want)
	}
}

func TestCloseIdempotent(t *testing.T) {
	rec := newDialRecorder()
	c := newTestClient(t, rec)

	if _, err := c.ListTools(context.Background(), "search"); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if conn := rec.conns["search"]; conn.closed != 1 {
		t.Errorf("connector closed %d times, want 1", conn.closed)
	}
}

func TestCloseAggregatesErrors(t *testing.T) {
	rec := newDialRecorder()
	rec.configure = func(s *stubConnector) {
		s.closeErr = fmt.Errorf("session leak in %s", s.service)
	}
	c := newTestClient(t, rec)

	if _, err := c.ListTools(context.Background(), "files"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ListTools(context.Background(), "search"); err != nil {
		t.Fatal(err)
	}

	err := c.Close()
	if err == nil {
		t.Fatal("Close() = nil, want aggregated errors")
	}
	for _, svc := range []string{"files", "search"} {
		if !strings.Contains(err.Error(), svc) {
			t.Errorf("Close() error %q missing failure for %q", err, svc)
		}
	}
}

func TestClientClosedRefusesCalls(t *testing.T) {
	rec := newDialRecorder()
	c := newTestClient(t, rec)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := c.ListTools(context.Background(), "search"); err == nil {
		t.Error("ListTools on closed client should fail")
	}
}

func TestTimeoutDiscardsConnector(t *testing.T) {
	rec := newDialRecorder()
	first := true
	rec.configure = func(s *stubConnector) {
		if first {
			first = false
			s.callErr = fmt.Errorf("%w: calling read on %q", ErrTimeout, s.service)
			return
		}
		s.callRes = &mcp.CallToolResult{
			Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "ok"}},
		}
	}
	c := newTestClient(t, rec)
	defer c.Close()

	_, err := c.InvokeTool(context.Background(), "files", "read", nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("InvokeTool error = %v, want ErrTimeout", err)
	}

	// The timed-out connector is closed immediately, not held for reuse.
	rec.mu.Lock()
	timedOut := rec.conns["files"]
	rec.mu.Unlock()
	if timedOut.closed != 1 {
		t.Errorf("timed-out connector closed %d times, want 1", timedOut.closed)
	}

	// The next call dials a fresh connector.
	if _, err := c.InvokeTool(context.Background(), "files", "read", nil); err != nil {
		t.Fatalf("InvokeTool after timeout: %v", err)
	}
	if rec.dialCount() != 2 {
		t.Errorf("dials = %d, want 2 (re-dial after timeout)", rec.dialCount())
	}
}

func TestDialFailureNotCached(t *testing.T) {
	rec := newDialRecorder()
	rec.dialErr = fmt.Errorf("%w: initializing %q: connection refused", ErrConnectionFailed, "search")
	c := newTestClient(t, rec)
	defer c.Close()

	if _, err := c.ListTools(context.Background(), "search"); !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("ListTools error = %v, want ErrConnectionFailed", err)
	}

	rec.dialErr = nil
	if _, err := c.ListTools(context.Background(), "search"); err != nil {
		t.Fatalf("ListTools after dial recovery: %v", err)
	}
	if rec.dialCount() != 2 {
		t.Errorf("dials = %d, want 2", rec.dialCount())
	}
}

func TestPerServiceTimeoutOverride(t *testing.T) {
	rec := newDialRecorder()
	rec.configure = func(s *stubConnector) {
		s.callRes = &mcp.CallToolResult{
			Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "ok"}},
		}
	}
	c := newTestClient(t, rec, WithTimeout(time.Minute))
	defer c.Close()

	// "files" declares timeout_seconds: 2, overriding the client-wide bound.
	if _, err := c.InvokeTool(context.Background(), "files", "read", nil); err != nil {
		t.Fatal(err)
	}
	rec.mu.Lock()
	deadline, ok := rec.lastDeadline, rec.hasDeadline
	rec.mu.Unlock()
	if !ok {
		t.Fatal("call context carries no deadline")
	}
	if until := time.Until(deadline); until > 5*time.Second {
		t.Errorf("deadline %v away, want the 2s service override", until)
	}

	// "search" has no override and keeps the client-wide bound.
	if _, err := c.InvokeTool(context.Background(), "search", "query", nil); err != nil {
		t.Fatal(err)
	}
	rec.mu.Lock()
	deadline = rec.lastDeadline
	rec.mu.Unlock()
	if until := time.Until(deadline); until < 30*time.Second {
		t.Errorf("deadline %v away, want the client-wide minute", until)
	}
}
