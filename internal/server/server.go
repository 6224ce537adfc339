// FilePath: internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	nuts "github.com/vaudience/go-nuts"

	"github.com/skyfield/archivehub/internal/config"
	"github.com/skyfield/archivehub/internal/executor"
	"github.com/skyfield/archivehub/internal/janitor"
	"github.com/skyfield/archivehub/internal/monitoring"
	"github.com/skyfield/archivehub/internal/storage"
)

// Server accepts client connections on a plain TCP port and hands each one
// to a pooled worker. One command per connection.
type Server struct {
	config   *config.Config
	pool     *Pool
	admin    *AdminServer
	janitor  *janitor.Janitor
	listener net.Listener
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

// New creates a server instance over an already-wired executor.
func New(cfg *config.Config, exec *executor.Executor, engine *storage.Engine) *Server {
	metrics := monitoring.NewService()
	return &Server{
		config: cfg,
		pool: NewPool(exec, metrics,
			cfg.Server.CorePoolSize, cfg.Server.MaxPoolSize,
			cfg.Server.KeepAlive, cfg.Server.PollInterval),
		admin:   NewAdminServer(cfg.Admin, engine, metrics),
		janitor: janitor.New(cfg.Storage.Root, cfg.Janitor),
	}
}

// Start listens, serves until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w", addr, err)
	}
	s.listener = listener

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go s.janitor.Run(ctx)
	go s.admin.Start()
	go s.acceptLoop(ctx)

	nuts.L.Infof("[Server] listening on %s", addr)
	return s.waitForShutdown()
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			nuts.L.Warnf("[Server] accept failed: %v", err)
			continue
		}
		s.wg.Add(1)
		go s.serve(ctx, conn)
	}
}

func (s *Server) serve(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()

	worker, err := s.pool.Acquire(ctx)
	if err != nil {
		// Shutting down; the client gets a closed connection.
		conn.Close()
		return
	}
	defer s.pool.Release(worker)

	worker.Handle(ctx, conn, s.config.Server.ReadTimeout, s.config.Server.WriteTimeout)
}

// waitForShutdown blocks until an interrupt signal, then drains in-flight
// connections within the shutdown timeout.
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] shutting down...")
	s.listener.Close()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	select {
	case <-done:
	case <-ctx.Done():
		nuts.L.Warnf("[Server] shutdown timeout reached with connections still open")
	}

	if err := s.admin.Shutdown(ctx); err != nil {
		nuts.L.Warnf("[Server] admin shutdown: %v", err)
	}
	nuts.L.Infof("[Server] shut down")
	return nil
}
