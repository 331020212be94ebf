// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the sticky note to LLM tooling via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/berkana/internal/widget"
)

// NoteResourceURI identifies the note content resource.
const NoteResourceURI = "berkana://note"

// Server wraps the MCP server with widget tools.
type Server struct {
	mcp  *server.MCPServer
	ctrl *widget.Controller
}

// New creates a new MCP server with all widget tools registered.
func New(ctrl *widget.Controller) *Server {
	s := &Server{ctrl: ctrl}

	s.mcp = server.NewMCPServer(
		"Berkana",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the current content of the sticky note."),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Replace the sticky note content. The write is persisted "+
			"after the widget's autosave window, exactly as if typed by the user."),
		mcp.WithString("content", mcp.Required(), mcp.Description("New note content")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("get_widget_state",
		mcp.WithDescription("Return the full widget state: note text, pinned flag, "+
			"transparency level, and active theme."),
	), s.getWidgetState)

	// Resource: the note body.
	s.mcp.AddResource(
		mcp.NewResource(NoteResourceURI, "Sticky Note",
			mcp.WithResourceDescription("The live content of the sticky note."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// Listen serves MCP over the given streams until ctx is cancelled.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.ctrl.State().Text), nil
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.ctrl.SetText(content)
	return mcp.NewToolResultText("note updated"), nil
}

func (s *Server) getWidgetState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.ctrl.State(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNoteResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      NoteResourceURI,
			MIMEType: "text/markdown",
			Text:     s.ctrl.State().Text,
		},
	}, nil
}
