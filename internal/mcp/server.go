// Package mcpserver exposes the layout store as MCP tools so agents can edit
// a document through the same command path as every other client.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"git.home.luguber.info/inful/layoutstate/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutstate/internal/logfields"
	"git.home.luguber.info/inful/layoutstate/internal/store"
)

// Server is the MCP server for one layout store.
type Server struct {
	mcp    *server.MCPServer
	store  *store.Store
	logger *slog.Logger
}

// New builds a server with every layout tool registered.
func New(st *store.Store, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{store: st, logger: logger}
	s.mcp = server.NewMCPServer(
		"layoutstate",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	s.registerComponentTools()
	s.registerSectionTools()
	s.registerHistoryTools()
	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// ServeStdio serves MCP over stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// dispatch runs cmd as a user command and renders its outcome. Command
// failures are tool errors carrying the reason code, not protocol errors.
func (s *Server) dispatch(ctx context.Context, cmd store.Command) (*mcp.CallToolResult, error) {
	return s.render(cmd.Name(), s.store.Dispatch(ctx, cmd))
}

func (s *Server) render(tool string, res store.Result) (*mcp.CallToolResult, error) {
	if res.IsErr() {
		err := res.UnwrapErr()
		s.logger.Info("tool command rejected",
			slog.String("tool", tool),
			slog.String("reason", errors.ReasonCode(err)),
			logfields.Error(err))
		return errorResult(err), nil
	}
	return jsonResult(res.Unwrap())
}

type failure struct {
	Reason   string `json:"reason"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

func errorResult(err *errors.ClassifiedError) *mcp.CallToolResult {
	data, _ := json.Marshal(failure{
		Reason:   errors.ReasonCode(err),
		Category: string(err.Category()),
		Message:  err.Message(),
	})
	res := textResult(string(data))
	res.IsError = true
	return res
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}
