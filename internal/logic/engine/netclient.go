package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/skillcoder/asyncrt/internal/infra/future"
)

// NetClientOptions configures a NetClient.
type NetClientOptions struct {
	ConnectTimeout time.Duration
	KeepAlive      time.Duration
}

// NetClient dials TCP connections and closes them together with its engine.
type NetClient struct {
	lifecycle

	logger *slog.Logger
	dialer net.Dialer

	mu      sync.Mutex
	conns   map[*clientConn]struct{}
	stopped bool
}

// NewNetClient creates a client and registers its close hook on e.
func NewNetClient(e *Engine, opts NetClientOptions) (*NetClient, error) {
	c := &NetClient{
		logger: e.logger.With("component", "net-client"),
		dialer: net.Dialer{
			Timeout:   opts.ConnectTimeout,
			KeepAlive: opts.KeepAlive,
		},
		conns: make(map[*clientConn]struct{}),
	}
	c.setup(e, c.release)

	if err := c.register(); err != nil {
		return nil, err
	}

	return c, nil
}

// Connect dials addr. The returned connection is closed when the client closes.
func (c *NetClient) Connect(ctx context.Context, addr string) (net.Conn, error) {
	if c.isStopped() {
		return nil, ErrResourceClosed
	}

	raw, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	conn := &clientConn{Conn: raw, owner: c}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		_ = raw.Close()

		return nil, ErrResourceClosed
	}

	c.conns[conn] = struct{}{}

	return conn, nil
}

// OpenConns returns the number of connections not yet closed.
func (c *NetClient) OpenConns() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.conns)
}

func (c *NetClient) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stopped
}

func (c *NetClient) forget(conn *clientConn) {
	c.mu.Lock()
	delete(c.conns, conn)
	c.mu.Unlock()
}

func (c *NetClient) release(done *future.Promise[struct{}]) {
	c.mu.Lock()
	c.stopped = true
	conns := make([]*clientConn, 0, len(c.conns))

	for conn := range c.conns {
		conns = append(conns, conn)
	}
	c.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}

	c.logger.Info("net client closed", "connections", len(conns))

	done.Complete(struct{}{})
}

type clientConn struct {
	net.Conn

	owner *NetClient
	once  sync.Once
	err   error
}

func (cc *clientConn) Close() error {
	cc.once.Do(func() {
		cc.err = cc.Conn.Close()
		cc.owner.forget(cc)
	})

	return cc.err
}
