package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/skillcoder/asyncrt/internal/infra/future"
)

// ConnHandler serves one accepted connection. ctx is cancelled when the server
// closes; the connection is closed by the server afterwards.
type ConnHandler interface {
	ServeConn(ctx context.Context, conn net.Conn)
}

// ConnHandlerFunc adapts a function to ConnHandler.
type ConnHandlerFunc func(ctx context.Context, conn net.Conn)

// ServeConn implements ConnHandler.
func (f ConnHandlerFunc) ServeConn(ctx context.Context, conn net.Conn) {
	f(ctx, conn)
}

// NetServer is a TCP server closed together with its engine.
type NetServer struct {
	lifecycle

	logger  *slog.Logger
	handler ConnHandler

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	stopped  bool

	serving sync.WaitGroup
}

// NewNetServer creates a server on e. It registers its close hook on Listen.
func NewNetServer(e *Engine, handler ConnHandler) *NetServer {
	ctx, cancel := context.WithCancel(context.Background())

	s := &NetServer{
		logger:  e.logger.With("component", "net-server"),
		handler: handler,
		ctx:     ctx,
		cancel:  cancel,
		conns:   make(map[net.Conn]struct{}),
	}
	s.setup(e, s.release)

	return s
}

// Listen binds addr and starts accepting connections in the background.
func (s *NetServer) Listen(ctx context.Context, addr string) error {
	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.stopped:
		_ = ln.Close()

		return ErrResourceClosed
	case s.listener != nil:
		_ = ln.Close()

		return ErrAlreadyListening
	}

	if err := s.register(); err != nil {
		_ = ln.Close()

		return err
	}

	s.listener = ln

	s.logger.InfoContext(ctx, "net server listening", "addr", ln.Addr().String())

	s.serving.Add(1)

	go s.accept(ln)

	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *NetServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}

	return s.listener.Addr()
}

func (s *NetServer) accept(ln net.Listener) {
	defer s.serving.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.logger.Error("net server accept failed", "reason", err)
			}

			return
		}

		if !s.track(conn) {
			_ = conn.Close()

			continue
		}

		s.serving.Add(1)

		go s.serve(conn)
	}
}

func (s *NetServer) serve(conn net.Conn) {
	defer s.serving.Done()
	defer s.untrack(conn)

	s.handler.ServeConn(s.ctx, conn)
}

func (s *NetServer) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}

	s.conns[conn] = struct{}{}

	return true
}

func (s *NetServer) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()

	_ = conn.Close()
}

func (s *NetServer) release(done *future.Promise[struct{}]) {
	s.mu.Lock()
	s.stopped = true
	ln := s.listener
	conns := make([]net.Conn, 0, len(s.conns))

	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	s.cancel()

	if ln != nil {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Warn("net server listener close failed", "reason", err)
		}
	}

	for _, conn := range conns {
		_ = conn.Close()
	}

	go func() {
		s.serving.Wait()
		s.logger.Info("net server closed", "connections", len(conns))
		done.Complete(struct{}{})
	}()
}
