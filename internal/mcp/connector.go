package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jkaninda/zana/internal/secrets"
)

// Client identity sent in the MCP initialize handshake.
const (
	clientName    = "zana"
	clientVersion = "0.1.0"
)

// Tool is one callable capability advertised by a service.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any // JSON Schema, passed through without enforcement.
}

// Connector is one live session to a single MCP service. Construction is the
// only transport-aware step; the four operations behave identically across
// stdio, http, and sse.
type Connector interface {
	// ListTools returns the service's full tool catalog, following
	// pagination cursors.
	ListTools(ctx context.Context) ([]Tool, error)

	// CallTool invokes a tool and returns the raw response. Service-reported
	// errors are already classified: the raw response is only returned on
	// success.
	CallTool(ctx context.Context, tool string, args map[string]any) (*mcp.CallToolResult, error)

	// Close releases the underlying process or socket. Idempotent: second
	// and later calls return nil.
	Close() error
}

// session is the subset of the mcp-go client surface the connector drives.
type session interface {
	Initialize(ctx context.Context, req mcp.InitializeRequest) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context, req mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

type connector struct {
	service string
	sess    session
	logger  *slog.Logger

	closeOnce sync.Once
}

// dialService opens a session to one service: transport-specific client
// construction followed by the MCP initialize handshake. The spawned process
// or socket is torn down again when the handshake fails.
func dialService(ctx context.Context, svc secrets.ServiceSecrets, logger *slog.Logger) (Connector, error) {
	sess, err := newSession(svc)
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s client for %q: %v", ErrConnectionFailed, svc.Transport, svc.Name, err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    clientName,
		Version: clientVersion,
	}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	if _, err := sess.Initialize(ctx, initReq); err != nil {
		_ = sess.Close()
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: initializing %q", ErrTimeout, svc.Name)
		}
		return nil, fmt.Errorf("%w: initializing %q: %v", ErrConnectionFailed, svc.Name, err)
	}

	logger.Debug("mcp session established",
		slog.String("service", svc.Name),
		slog.String("transport", string(svc.Transport)),
	)
	return &connector{service: svc.Name, sess: sess, logger: logger}, nil
}

// newSession builds the mcp-go client matching the declared transport.
// There is no fallback between transports.
func newSession(svc secrets.ServiceSecrets) (session, error) {
	switch svc.Transport {
	case secrets.TransportStdio:
		return mcpclient.NewStdioMCPClient(svc.Command, expandEnvList(svc.Env), svc.Args...)

	case secrets.TransportSSE:
		var opts []transport.ClientOption
		if headers := networkHeaders(svc); len(headers) > 0 {
			opts = append(opts, transport.WithHeaders(headers))
		}
		return mcpclient.NewSSEMCPClient(svc.URL, opts...)

	case secrets.TransportHTTP:
		var opts []transport.StreamableHTTPCOption
		if headers := networkHeaders(svc); len(headers) > 0 {
			opts = append(opts, transport.WithHTTPHeaders(headers))
		}
		return mcpclient.NewStreamableHttpClient(svc.URL, opts...)

	default:
		return nil, fmt.Errorf("unsupported transport: %s", svc.Transport)
	}
}

func (c *connector) ListTools(ctx context.Context) ([]Tool, error) {
	var tools []Tool
	var cursor mcp.Cursor
	for {
		req := mcp.ListToolsRequest{}
		req.Params.Cursor = cursor
		resp, err := c.sess.ListTools(ctx, req)
		if err != nil {
			if isTimeout(ctx, err) {
				return nil, fmt.Errorf("%w: listing tools on %q", ErrTimeout, c.service)
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: listing tools on %q: %v", ErrProtocol, c.service, err)
		}
		for _, t := range resp.Tools {
			tools = append(tools, Tool{
				Name:        t.Name,
				Description: t.Description,
				InputSchema: convertInputSchema(t.InputSchema),
			})
		}
		if resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}
	return tools, nil
}

func (c *connector) CallTool(ctx context.Context, tool string, args map[string]any) (*mcp.CallToolResult, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args

	result, err := c.sess.CallTool(ctx, req)
	if err != nil {
		switch {
		case isTimeout(ctx, err):
			return nil, fmt.Errorf("%w: calling %s on %q", ErrTimeout, tool, c.service)
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case isToolMissing(err):
			return nil, fmt.Errorf("%w: %q on service %q", ErrToolNotFound, tool, c.service)
		default:
			return nil, fmt.Errorf("%w: %s on %q: %v", ErrInvocationFailed, tool, c.service, err)
		}
	}
	if result.IsError {
		return nil, fmt.Errorf("%w: %s on %q: %s", ErrInvocationFailed, tool, c.service, flattenText(result.Content))
	}
	return result, nil
}

func (c *connector) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.sess.Close()
	})
	return err
}

// isTimeout reports whether a failed call hit its deadline. The transport may
// wrap or stringify the context error, so the context is consulted directly
// as well.
func isTimeout(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded
}

// isToolMissing detects the "unknown tool" rejection, which the client
// library surfaces as an opaque JSON-RPC error string.
func isToolMissing(err error) bool {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unknown tool") {
		return true
	}
	return strings.Contains(msg, "tool") && strings.Contains(msg, "not found")
}

// flattenText joins the text content of an error response into one detail
// string. Non-text items are serialized as JSON.
func flattenText(content []mcp.Content) string {
	var sb strings.Builder
	for i, c := range content {
		if i > 0 {
			sb.WriteString("\n")
		}
		if tc, ok := mcp.AsTextContent(c); ok {
			sb.WriteString(tc.Text)
		} else {
			data, _ := json.Marshal(c)
			sb.Write(data)
		}
	}
	return sb.String()
}

// convertInputSchema converts the typed MCP schema into the map form
// surfaced on Tool.
func convertInputSchema(schema mcp.ToolInputSchema) map[string]any {
	if schema.Type == "" && schema.Properties == nil && len(schema.Required) == 0 {
		return nil
	}
	result := map[string]any{
		"type": schema.Type,
	}
	if schema.Properties != nil {
		result["properties"] = schema.Properties
	}
	if len(schema.Required) > 0 {
		required := make([]any, len(schema.Required))
		for i, r := range schema.Required {
			required[i] = r
		}
		result["required"] = required
	}
	return result
}

// expandEnvList converts env map entries to "KEY=expanded_value" form for
// the spawned process.
func expandEnvList(m map[string]string) []string {
	env := make([]string, 0, len(m))
	for k, v := range m {
		env = append(env, k+"="+os.ExpandEnv(v))
	}
	return env
}

// networkHeaders merges explicit headers with the bearer token, expanding
// ${VAR} references in both.
func networkHeaders(svc secrets.ServiceSecrets) map[string]string {
	headers := make(map[string]string, len(svc.Headers)+1)
	for k, v := range svc.Headers {
		headers[k] = os.ExpandEnv(v)
	}
	if svc.BearerToken != "" {
		headers["Authorization"] = "Bearer " + os.ExpandEnv(svc.BearerToken)
	}
	return headers
}
