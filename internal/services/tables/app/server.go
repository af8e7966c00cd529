// Package server wires the tables runtime, its JSON API and the gRPC health
// endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"

	"github.com/louisbranch/rolltables/internal/platform/timeouts"
	"github.com/louisbranch/rolltables/internal/services/tables/api/httpapi"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// healthService is the gRPC health name reported while draws are served.
const healthService = "rolltables.tables"

// Options configures a tables server.
type Options struct {
	HTTPAddr string
	GRPCAddr string
	Stores   StoreOptions
}

// Server hosts the JSON API, the draw feed and gRPC health.
type Server struct {
	httpListener net.Listener
	grpcListener net.Listener
	httpServer   *http.Server
	grpcServer   *grpc.Server
	health       *health.Server
	runtime      *Runtime
}

// New opens the stores and binds both listeners.
func New(opts Options) (*Server, error) {
	runtime, err := OpenRuntime(opts.Stores)
	if err != nil {
		return nil, err
	}

	httpListener, err := net.Listen("tcp", opts.HTTPAddr)
	if err != nil {
		runtime.Close()
		return nil, fmt.Errorf("listen on %s: %w", opts.HTTPAddr, err)
	}
	grpcListener, err := net.Listen("tcp", opts.GRPCAddr)
	if err != nil {
		_ = httpListener.Close()
		runtime.Close()
		return nil, fmt.Errorf("listen on %s: %w", opts.GRPCAddr, err)
	}

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(healthService, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		httpListener: httpListener,
		grpcListener: grpcListener,
		httpServer: &http.Server{
			Handler:           httpapi.NewHandler(runtime.Service, runtime.Hub),
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		grpcServer: grpcServer,
		health:     healthServer,
		runtime:    runtime,
	}, nil
}

// HTTPAddr returns the JSON API listener address.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// GRPCAddr returns the health listener address.
func (s *Server) GRPCAddr() string {
	if s == nil || s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// Run creates and serves a tables server until context cancellation.
func Run(ctx context.Context, opts Options) error {
	server, err := New(opts)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs both servers until ctx is done or one of them fails.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("tables HTTP listening at %v", s.httpListener.Addr())
	log.Printf("tables gRPC health listening at %v", s.grpcListener.Addr())

	httpErr := make(chan error, 1)
	grpcErr := make(chan error, 1)
	go func() {
		httpErr <- s.httpServer.Serve(s.httpListener)
	}()
	go func() {
		grpcErr <- s.grpcServer.Serve(s.grpcListener)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-httpErr:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("serve HTTP: %w", err)
		}
	case err := <-grpcErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErr = fmt.Errorf("serve gRPC: %w", err)
		}
	}

	s.health.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = fmt.Errorf("shutdown HTTP: %w", err)
	}
	s.grpcServer.GracefulStop()
	return serveErr
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.httpListener != nil {
		_ = s.httpListener.Close()
	}
	if s.grpcListener != nil {
		_ = s.grpcListener.Close()
	}
	s.runtime.Close()
}
