package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/louisbranch/rolltables/internal/platform/timeouts"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// TransportStdio serves MCP over standard input and output.
	TransportStdio = "stdio"
	// TransportHTTP serves MCP over streamable HTTP.
	TransportHTTP = "http"
)

// Config selects the MCP transport.
type Config struct {
	Transport string
	HTTPAddr  string
}

// Run serves the MCP server over the configured transport until ctx ends.
func (s *Server) Run(ctx context.Context, cfg Config) error {
	switch cfg.Transport {
	case "", TransportStdio:
		return s.serveWithTransport(ctx, &mcp.StdioTransport{})
	case TransportHTTP:
		return s.serveHTTP(ctx, cfg.HTTPAddr)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

// Handler returns the streamable HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}

func (s *Server) serveHTTP(ctx context.Context, addr string) error {
	// Default to localhost-only binding.
	if addr == "" {
		addr = "localhost:8082"
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("MCP HTTP listening at %s", addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown MCP HTTP: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve MCP HTTP: %w", err)
	}
}

func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
