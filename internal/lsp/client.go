// Package lsp talks to language servers through powernap and reports the
// diagnostics they publish for buffer contents.
package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	powernap "github.com/charmbracelet/x/powernap/pkg/lsp"
	"github.com/charmbracelet/x/powernap/pkg/lsp/protocol"
	"github.com/rs/zerolog/log"
)

// Client is one running language server.
type Client struct {
	inner    *powernap.Client
	serverID string

	mu          sync.Mutex
	diags       map[string][]protocol.Diagnostic // uri -> diagnostics
	versions    map[string]int                   // uri -> document version
	diagChanged chan struct{}
}

func newClient(serverID string, cfg powernap.ClientConfig) (*Client, error) {
	inner, err := powernap.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("lsp: start %s: %w", serverID, err)
	}

	c := &Client{
		inner:       inner,
		serverID:    serverID,
		diags:       make(map[string][]protocol.Diagnostic),
		versions:    make(map[string]int),
		diagChanged: make(chan struct{}, 1),
	}

	// Handlers must be registered before Initialize.
	inner.RegisterNotificationHandler(
		"textDocument/publishDiagnostics",
		func(_ context.Context, _ string, params json.RawMessage) {
			var p protocol.PublishDiagnosticsParams
			if err := json.Unmarshal(params, &p); err != nil {
				log.Error().Err(err).Msg("lsp: unmarshal diagnostics")
				return
			}
			c.mu.Lock()
			c.diags[string(p.URI)] = p.Diagnostics
			c.mu.Unlock()

			select {
			case c.diagChanged <- struct{}{}:
			default:
			}
		},
	)

	inner.RegisterHandler("window/workDoneProgress/create",
		func(_ context.Context, _ string, _ json.RawMessage) (any, error) {
			return nil, nil
		},
	)
	inner.RegisterNotificationHandler("$/progress",
		func(_ context.Context, _ string, _ json.RawMessage) {},
	)
	inner.RegisterNotificationHandler("window/logMessage",
		func(_ context.Context, _ string, _ json.RawMessage) {},
	)
	inner.RegisterHandler("client/registerCapability",
		func(_ context.Context, _ string, _ json.RawMessage) (any, error) {
			return nil, nil
		},
	)

	return c, nil
}

func (c *Client) initialize(ctx context.Context) error {
	return c.inner.Initialize(ctx, false)
}

// sync sends text as the full document: didOpen the first time, didChange
// afterwards.
func (c *Client) sync(ctx context.Context, absPath, langID, text string) error {
	uri := string(protocol.URIFromPath(absPath))

	c.mu.Lock()
	v, open := c.versions[uri]
	if open {
		v++
	}
	c.versions[uri] = v
	c.mu.Unlock()

	if !open {
		return c.inner.NotifyDidOpenTextDocument(ctx, uri, langID, v, text)
	}
	change := protocol.TextDocumentContentChangeEvent{
		Value: protocol.TextDocumentContentChangeWholeDocument{Text: text},
	}
	return c.inner.NotifyDidChangeTextDocument(ctx, uri, v, []protocol.TextDocumentContentChangeEvent{change})
}

// waitForDiagnostics blocks until publishes for the document settle, the
// timeout expires or ctx is done, then returns the latest set.
func (c *Client) waitForDiagnostics(ctx context.Context, absPath string, timeout time.Duration) []protocol.Diagnostic {
	uri := string(protocol.URIFromPath(absPath))
	deadline := time.After(timeout)

	const debounce = 150 * time.Millisecond
	var timer *time.Timer

	for {
		select {
		case <-c.diagChanged:
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			continue
		case <-timerChan(timer):
		case <-deadline:
		case <-ctx.Done():
		}
		c.mu.Lock()
		d := c.diags[uri]
		c.mu.Unlock()
		return d
	}
}

func (c *Client) close(ctx context.Context) error {
	if err := c.inner.Shutdown(ctx); err != nil {
		c.inner.Kill()
		return fmt.Errorf("lsp: shutdown %s: %w", c.serverID, err)
	}
	return c.inner.Exit()
}

func (c *Client) drainDiagChan() {
	for {
		select {
		case <-c.diagChanged:
		default:
			return
		}
	}
}

func (c *Client) syncAndWait(ctx context.Context, absPath, langID, text string, timeout time.Duration) ([]protocol.Diagnostic, error) {
	c.drainDiagChan()
	if err := c.sync(ctx, absPath, langID, text); err != nil {
		return nil, err
	}
	return c.waitForDiagnostics(ctx, absPath, timeout), nil
}

func timerChan(t *time.Timer) <-chan time.Time {
	if t != nil {
		return t.C
	}
	return nil
}
