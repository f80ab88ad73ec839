package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"streamdash/internal/dashboard"
	"streamdash/pkg/logging"

	"github.com/mark3labs/mcp-go/server"
)

// Config configures the MCP endpoint.
type Config struct {
	Host    string
	Port    int
	Version string
}

// Server exposes a dashboard's intents as MCP tools over SSE.
type Server struct {
	config Config
	tools  *Tools
	mcp    *server.MCPServer

	mu        sync.Mutex
	sseServer *server.SSEServer
}

// New builds the MCP server for d. Nothing listens until Start.
func New(d *dashboard.Dashboard, cfg Config) *Server {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 8092
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	s := &Server{
		config: cfg,
		tools:  NewTools(d),
		mcp: server.NewMCPServer(
			"streamdash",
			cfg.Version,
			server.WithToolCapabilities(false),
		),
	}
	s.mcp.AddTools(s.tools.ServerTools()...)
	return s
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Start begins serving SSE in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.sseServer != nil {
		s.mu.Unlock()
		return errors.New("mcp server already started")
	}
	baseURL := fmt.Sprintf("http://%s", s.Addr())
	sse := server.NewSSEServer(
		s.mcp,
		server.WithBaseURL(baseURL),
		server.WithSSEEndpoint("/sse"),
		server.WithMessageEndpoint("/message"),
		server.WithKeepAlive(true),
		server.WithKeepAliveInterval(30*time.Second),
	)
	s.sseServer = sse
	s.mu.Unlock()

	addr := s.Addr()
	logging.Info("MCP", "Serving dashboard tools on %s/sse", baseURL)
	go func() {
		if err := sse.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("MCP", err, "SSE server error")
		}
	}()
	return nil
}

// Stop shuts the SSE server down. Stopping a server that never started is
// a no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	sse := s.sseServer
	s.sseServer = nil
	s.mu.Unlock()
	if sse == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sse.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("stop mcp server: %w", err)
	}
	logging.Info("MCP", "Stopped")
	return nil
}
