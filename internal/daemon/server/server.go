// Package server implements the gRPC server for the daemon.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/improbable-eng/grpc-web/go/grpcweb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	"github.com/glance-io/glance/internal/api"
)

const webShutdownTimeout = 2 * time.Second

// Options configures the listeners.
type Options struct {
	// Port for gRPC on loopback. Zero picks a free port.
	Port int
	// WebPort serves gRPC-web and /metrics when non-zero.
	WebPort int
	// Registry backs /metrics. Nil disables the endpoint.
	Registry *prometheus.Registry
	Logger   *slog.Logger
	// OnShutdown is called when a client requests shutdown. The default
	// interrupts the current process.
	OnShutdown func()
}

// Server is the daemon's gRPC server.
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
	port       int

	web         *http.Server
	webListener net.Listener
	webPort     int

	engine   Engine
	shutdown func()

	logger *slog.Logger
	done   chan struct{}
	once   sync.Once
}

// New creates a new server listening on the specified port.
// Pass port 0 for dynamic allocation.
func New(eng Engine, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	listener, err := (&net.ListenConfig{}).Listen(context.TODO(), "tcp", fmt.Sprintf("127.0.0.1:%d", opts.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	// Get actual port if dynamically allocated
	actualPort := listener.Addr().(*net.TCPAddr).Port

	srv := &Server{
		grpcServer: grpc.NewServer(grpc.ChainUnaryInterceptor(logUnary(logger))),
		listener:   listener,
		port:       actualPort,
		logger:     logger,
		done:       make(chan struct{}),
	}

	srv.engine = eng
	srv.shutdown = opts.OnShutdown
	if srv.shutdown == nil {
		srv.shutdown = interruptSelf
	}
	api.RegisterGlanceServer(srv.grpcServer, &glanceService{engine: eng, server: srv, shutdown: srv.shutdown})

	if opts.WebPort != 0 {
		webListener, err := (&net.ListenConfig{}).Listen(context.TODO(), "tcp", fmt.Sprintf("127.0.0.1:%d", opts.WebPort))
		if err != nil {
			_ = listener.Close()
			return nil, fmt.Errorf("failed to listen for web clients: %w", err)
		}
		srv.webListener = webListener
		srv.webPort = webListener.Addr().(*net.TCPAddr).Port
		srv.web = &http.Server{
			Handler:           webHandler(srv.grpcServer, opts.Registry),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return srv, nil
}

// webHandler serves gRPC-web for browser shells and /metrics.
func webHandler(gs *grpc.Server, registry *prometheus.Registry) http.Handler {
	wrapped := grpcweb.WrapServer(gs,
		grpcweb.WithOriginFunc(func(string) bool { return true }),
	)
	mux := http.NewServeMux()
	if registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
			ErrorHandling: promhttp.HTTPErrorOnError,
		}))
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if wrapped.IsGrpcWebRequest(r) || wrapped.IsAcceptableGrpcCorsRequest(r) {
			wrapped.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
	return mux
}

// Port returns the port the server is listening on.
func (s *Server) Port() int {
	return s.port
}

// WebPort returns the gRPC-web port, or zero when disabled.
func (s *Server) WebPort() int {
	return s.webPort
}

// Serve starts serving requests. This blocks until Stop is called.
func (s *Server) Serve() error {
	if s.web != nil {
		go func() {
			if err := s.web.Serve(s.webListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("web server failed", "error", err)
			}
		}()
	}
	return s.grpcServer.Serve(s.listener)
}

// Stop ends open display streams and gracefully stops the server.
func (s *Server) Stop() {
	s.once.Do(func() { close(s.done) })
	if s.web != nil {
		ctx, cancel := context.WithTimeout(context.Background(), webShutdownTimeout)
		defer cancel()
		_ = s.web.Shutdown(ctx)
	}
	s.grpcServer.GracefulStop()
	_ = s.listener.Close()
}

func logUnary(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			logger.Warn("request failed", "method", info.FullMethod, "elapsed", time.Since(start), "error", err)
		} else {
			logger.Debug("request", "method", info.FullMethod, "elapsed", time.Since(start))
		}
		return resp, err
	}
}

// interruptSelf sends SIGINT to the current process to trigger a graceful shutdown.
func interruptSelf() {
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		return
	}
	_ = p.Signal(syscall.SIGINT)
}
