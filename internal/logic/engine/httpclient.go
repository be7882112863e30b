package engine

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/skillcoder/asyncrt/internal/infra/future"
)

// HTTPClientOptions configures an HTTPClient.
type HTTPClientOptions struct {
	KeepAlive bool
	Timeout   time.Duration
}

// HTTPClient is an HTTP/1.1 client whose pooled connections are released when
// it or its engine closes.
type HTTPClient struct {
	lifecycle

	logger    *slog.Logger
	transport *http.Transport
	client    *http.Client
	stopped   atomic.Bool
}

// NewHTTPClient creates a client and registers its close hook on e.
func NewHTTPClient(e *Engine, opts HTTPClientOptions) (*HTTPClient, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableKeepAlives = !opts.KeepAlive
	transport.ForceAttemptHTTP2 = false

	c := &HTTPClient{
		logger:    e.logger.With("component", "http-client"),
		transport: transport,
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
	}
	c.setup(e, c.release)

	if err := c.register(); err != nil {
		return nil, err
	}

	return c, nil
}

// Do sends req. It fails with ErrResourceClosed once the client is closed.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if c.stopped.Load() {
		return nil, ErrResourceClosed
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http %s %s: %w", req.Method, req.URL.Redacted(), err)
	}

	return resp, nil
}

func (c *HTTPClient) release(done *future.Promise[struct{}]) {
	c.stopped.Store(true)
	c.transport.CloseIdleConnections()

	c.logger.Info("http client closed")

	done.Complete(struct{}{})
}
