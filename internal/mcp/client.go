// Package mcp implements the MCP (Model Context Protocol) tool client: it
// opens sessions to the services declared in the secrets store, lists the
// tools each service advertises, and invokes tools with structured
// arguments, normalizing responses into a (primary, attachments) pair.
// Connectors are dialed lazily per addressed service and released in reverse
// dial order when the client closes.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jkaninda/zana/internal/secrets"
)

// defaultTimeout bounds dial, list, and call round trips unless the caller
// or the service entry overrides it.
const defaultTimeout = 60 * time.Second

// dialFunc opens a connector for one service. Swapped out in tests.
type dialFunc func(ctx context.Context, svc secrets.ServiceSecrets, logger *slog.Logger) (Connector, error)

// Client coordinates tool listing and invocation across the configured
// services. It holds at most one live connector per service, dialed on first
// use. Connector state lives on the instance: independent clients never
// share sessions.
type Client struct {
	store   *secrets.Store
	logger  *slog.Logger
	timeout time.Duration
	dial    dialFunc

	mu     sync.Mutex
	conns  map[string]Connector
	opened []string // dial order, for reverse-order release
	closed bool
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every dial, list, and call round trip. Entries with
// timeout_seconds set keep their own bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient builds a client over an immutable secrets store. The caller owns
// the scope: every connector dialed between NewClient and Close is released
// by Close, whether or not the calls in between failed.
func NewClient(store *secrets.Store, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		store:   store,
		logger:  logger,
		timeout: defaultTimeout,
		dial:    dialService,
		conns:   make(map[string]Connector),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListTools returns the tool catalog of one configured service.
func (c *Client) ListTools(ctx context.Context, service string) ([]Tool, error) {
	conn, timeout, err := c.connector(ctx, service)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	tools, err := conn.ListTools(callCtx)
	if err != nil {
		c.discardOnTimeout(service, conn, err)
		return nil, err
	}
	return tools, nil
}

// InvokeTool calls one tool on one configured service and normalizes the
// response.
func (c *Client) InvokeTool(ctx context.Context, service, tool string, args map[string]any) (*Result, error) {
	conn, timeout, err := c.connector(ctx, service)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	c.logger.Debug("invoking tool",
		slog.String("invocation_id", id),
		slog.String("service", service),
		slog.String("tool", tool),
	)

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	raw, err := conn.CallTool(callCtx, tool, args)
	if err != nil {
		c.discardOnTimeout(service, conn, err)
		c.logger.Debug("invocation failed",
			slog.String("invocation_id", id),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	result, err := normalizeResult(raw)
	if err != nil {
		return nil, fmt.Errorf("response from %s on %q: %w", tool, service, err)
	}
	c.logger.Debug("invocation complete",
		slog.String("invocation_id", id),
		slog.Int("attachments", len(result.Attachments)),
	)
	return result, nil
}

// Close releases every connector dialed during the scope, in reverse dial
// order. Close failures are logged per service and joined into the returned
// error; call sites report them only when no primary error is in flight.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conns := c.conns
	opened := c.opened
	c.conns = nil
	c.opened = nil
	c.mu.Unlock()

	var errs []error
	for i := len(opened) - 1; i >= 0; i-- {
		name := opened[i]
		conn, ok := conns[name]
		if !ok {
			continue
		}
		delete(conns, name)
		if err := conn.Close(); err != nil {
			c.logger.Error("closing connector",
				slog.String("service", name),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("closing %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// connector resolves the live connector for a service, dialing on first use.
// The service name is checked against the store before anything is dialed.
func (c *Client) connector(ctx context.Context, service string) (Connector, time.Duration, error) {
	svc, ok := c.store.Get(service)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %q (configured: %s)",
			ErrUnknownService, service, strings.Join(c.store.Names(), ", "))
	}
	timeout := svc.Timeout(c.timeout)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, 0, fmt.Errorf("mcp client is closed")
	}
	if conn, ok := c.conns[service]; ok {
		return conn, timeout, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn, err := c.dial(dialCtx, svc, c.logger)
	if err != nil {
		return nil, 0, err
	}
	c.conns[service] = conn
	c.opened = append(c.opened, service)
	return conn, timeout, nil
}

// discardOnTimeout closes and forgets a connector after a timed-out call. A
// timed-out session may still have a response in flight and cannot be
// reused; the next call to the service dials a fresh one.
func (c *Client) discardOnTimeout(service string, conn Connector, err error) {
	if !errors.Is(err, ErrTimeout) {
		return
	}
	c.mu.Lock()
	if c.conns[service] == conn {
		delete(c.conns, service)
	}
	c.mu.Unlock()

	if cerr := conn.Close(); cerr != nil {
		c.logger.Error("closing timed-out connector",
			slog.String("service", service),
			slog.String("error", cerr.Error()),
		)
	}
}
