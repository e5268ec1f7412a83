package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

type ShutdownHook struct {
	Name string
	Fn   func(ctx context.Context) error
}

// GracefulServer serves until its context ends, then drains the HTTP
// server and runs the registered hooks in reverse registration order.
type GracefulServer struct {
	server          *http.Server
	logger          *slog.Logger
	shutdownTimeout time.Duration

	mu    sync.Mutex
	hooks []ShutdownHook
}

func NewGracefulServer(server *http.Server, logger *slog.Logger, shutdownTimeout time.Duration) *GracefulServer {
	return &GracefulServer{
		server:          server,
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
	}
}

func (gs *GracefulServer) RegisterShutdownHook(name string, fn func(ctx context.Context) error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.hooks = append(gs.hooks, ShutdownHook{Name: name, Fn: fn})
}

// Run listens on the server's address.
func (gs *GracefulServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", gs.server.Addr, err)
	}
	return gs.Serve(ctx, ln)
}

// Serve accepts on ln until ctx is done or the server fails.
func (gs *GracefulServer) Serve(ctx context.Context, ln net.Listener) error {
	serverErrors := make(chan error, 1)
	go func() {
		gs.logger.Info("starting server",
			"addr", ln.Addr().String(),
			"read_timeout", gs.server.ReadTimeout,
			"write_timeout", gs.server.WriteTimeout,
		)
		serverErrors <- gs.server.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		gs.logger.Info("shutdown requested", "cause", context.Cause(ctx))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), gs.shutdownTimeout)
	defer cancel()
	return gs.shutdown(shutdownCtx)
}

func (gs *GracefulServer) shutdown(ctx context.Context) error {
	gs.logger.Info("starting graceful shutdown", "timeout", gs.shutdownTimeout)

	var errs []error
	if err := gs.server.Shutdown(ctx); err != nil {
		gs.logger.Error("HTTP server shutdown failed", "error", err)
		errs = append(errs, fmt.Errorf("HTTP server shutdown failed: %w", err))
	} else {
		gs.logger.Info("HTTP server stopped gracefully")
	}

	gs.mu.Lock()
	hooks := make([]ShutdownHook, len(gs.hooks))
	copy(hooks, gs.hooks)
	gs.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		if err := hook.Fn(ctx); err != nil {
			gs.logger.Error("shutdown hook failed", "hook", hook.Name, "error", err)
			errs = append(errs, fmt.Errorf("shutdown hook %s failed: %w", hook.Name, err))
			continue
		}
		gs.logger.Debug("shutdown hook completed", "hook", hook.Name)
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	gs.logger.Info("graceful shutdown completed")
	return nil
}
