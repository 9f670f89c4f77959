package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"ppdmloader/internal/service"
)

// Server is the MCP server for the loader.
// It exposes tools, resources, and prompts so AI agents can run and inspect loads.
type Server struct {
	mcp    *server.MCPServer
	loader *service.LoaderService
	logger *zap.Logger
}

// Deps holds the dependencies passed from the command layer.
type Deps struct {
	Loader *service.LoaderService
	// Notifier, when set, is attached so run outcomes reach connected clients.
	Notifier *Notifier
	Version  string
	Logger   *zap.Logger
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := &Server{
		loader: deps.Loader,
		logger: logger.Named("mcp"),
	}

	s.mcp = server.NewMCPServer(
		"ppdmloader",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerLoaderTools()
	s.registerResources()
	s.registerPrompts()

	if deps.Notifier != nil {
		deps.Notifier.attach(s.mcp)
	}
	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("starting stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Notifications ─────────────────────────────────────────

// Notifier is a service.EventEmitter that forwards run outcomes to every
// connected MCP client. Events emitted before a server is attached are dropped.
type Notifier struct {
	mu  sync.RWMutex
	srv *server.MCPServer
}

func (n *Notifier) attach(srv *server.MCPServer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.srv = srv
}

func (n *Notifier) Emit(_ context.Context, event string, data any) {
	n.mu.RLock()
	srv := n.srv
	n.mu.RUnlock()
	if srv == nil {
		return
	}
	srv.SendNotificationToAllClients("notifications/ppdmloader/"+event, map[string]any{"run": data})
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// errorResult reports a tool-level failure the agent can read.
func errorResult(format string, args ...any) *mcp.CallToolResult {
	r := textResult(fmt.Sprintf(format, args...))
	r.IsError = true
	return r
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}
