// Package revalidate tells the marketing site which cached pages to rebuild
// after content changes.
package revalidate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"studioapi/internal/config"
)

// SecretHeader carries the shared revalidation secret.
const SecretHeader = "X-Revalidate-Secret"

// Notifier is told about changed content tags. Implementations never fail the
// caller's write; errors are logged.
type Notifier interface {
	Notify(ctx context.Context, tags ...string)
}

// Noop discards notifications.
type Noop struct{}

func (Noop) Notify(context.Context, ...string) {}

type payload struct {
	Tags []string `json:"tags"`
}

// HTTPNotifier POSTs tag lists to the site's revalidation endpoint.
type HTTPNotifier struct {
	url    string
	secret string
	client *http.Client
	logger *zap.Logger
}

// New returns Noop when no URL is configured.
func New(cfg config.RevalidateConfig, logger *zap.Logger) Notifier {
	if cfg.URL == "" {
		return Noop{}
	}
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return NewHTTP(cfg.URL, cfg.Secret, &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}, logger)
}

// NewHTTP builds a notifier on a caller-supplied client.
func NewHTTP(url, secret string, client *http.Client, logger *zap.Logger) *HTTPNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPNotifier{url: url, secret: secret, client: client, logger: logger}
}

func (n *HTTPNotifier) Notify(ctx context.Context, tags ...string) {
	if len(tags) == 0 {
		return
	}
	if err := n.send(ctx, tags); err != nil {
		n.logger.Warn("revalidate_failed", zap.Strings("tags", tags), zap.Error(err))
		return
	}
	n.logger.Debug("revalidate_sent", zap.Strings("tags", tags))
}

func (n *HTTPNotifier) send(ctx context.Context, tags []string) error {
	body, err := json.Marshal(payload{Tags: tags})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.secret != "" {
		req.Header.Set(SecretHeader, n.secret)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
