// Package mcp exposes the assistant as an MCP server so agent hosts can
// drive conversations as tool calls.
package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/packfolio/concierge"
	"github.com/packfolio/concierge/pkg/engine"
)

// ChatEngine is the capability the MCP adapter needs from the core.
type ChatEngine interface {
	Handle(ctx context.Context, sessionID string, body []byte) (engine.Envelope, error)
}

// Server wraps the session engine and exposes it as an MCP Server.
type Server struct {
	engine    ChatEngine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(eng ChatEngine) *Server {
	s := &Server{
		engine:    eng,
		mcpServer: server.NewMCPServer("concierge-mcp", strings.TrimSpace(concierge.Version)),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	chatTool := mcp.NewTool("chat",
		mcp.WithDescription("Send one conversation turn to the sales assistant and receive its reply plus the session's flow state."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Stable session identity; reuse it across turns")),
		mcp.WithString("message", mcp.Description("The customer's message")),
		mcp.WithString("flow", mcp.Description("Flow to run: direct_sales, package_order, brand_launch or consultation")),
		mcp.WithBoolean("reset", mcp.Description("Clear the session before processing")),
		mcp.WithOutputSchema[engine.Envelope](),
	)
	s.mcpServer.AddTool(chatTool, mcp.NewStructuredToolHandler(s.handleChat))
}

func (s *Server) handleChat(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (engine.Envelope, error) {
	sessionID, _ := args["session_id"].(string)
	message, _ := args["message"].(string)
	flow, _ := args["flow"].(string)
	reset, _ := args["reset"].(bool)

	raw, err := json.Marshal(engine.Request{Message: message, Flow: flow, Reset: reset})
	if err != nil {
		return engine.Envelope{}, err
	}
	return s.engine.Handle(ctx, sessionID, raw)
}
