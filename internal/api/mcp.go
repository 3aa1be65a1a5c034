package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/haiku/internal/haiku"
)

// MCPSessionID is the session every MCP client shares.
const MCPSessionID = "mcp"

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Sessions Sessions
	// SessionID defaults to MCPSessionID.
	SessionID string
	Version   string
}

// NewMCPServer creates an MCP server exposing haiku generation and history.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	if deps.SessionID == "" {
		deps.SessionID = MCPSessionID
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}
	s := server.NewMCPServer(
		"haiku",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("haiku writes traditional 5-7-5 haikus about a theme and keeps every one it wrote."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("generate_haiku",
			mcp.WithDescription("Write a traditional 5-7-5 haiku about a theme and save it."),
			mcp.WithString("theme", mcp.Description("What the haiku is about"), mcp.Required()),
		),
		mcpGenerateHaiku(deps),
	)

	s.AddTool(
		mcp.NewTool("list_haikus",
			mcp.WithDescription("List saved haikus, newest first."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of haikus to return (default all)")),
		),
		mcpListHaikus(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"haiku://history",
			"Haiku History",
			mcp.WithResourceDescription("Every saved haiku, newest first, as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceHistory(deps),
	)

	return s
}

func mcpGenerateHaiku(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		theme, err := req.RequireString("theme")
		if err != nil || haiku.NormalizeTheme(theme) == "" {
			return mcpError("theme is required"), nil
		}

		ctrl := deps.Sessions.Get(ctx, deps.SessionID)
		if ctrl.Loading() {
			return mcpError("a haiku is already being generated"), nil
		}
		if err := ctrl.Generate(ctx, theme); err != nil {
			return mcpError(ctrl.Snapshot().Error), nil
		}

		cur := ctrl.Snapshot().Current
		return mcpText(fmt.Sprintf("%s\n\nTheme: %s", cur.Text, cur.Theme)), nil
	}
}

type haikuResult struct {
	ID        string `json:"id"`
	Theme     string `json:"theme"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

func historyJSON(records []haiku.Record) (string, error) {
	out := make([]haikuResult, len(records))
	for i, r := range records {
		out[i] = haikuResult{
			ID:        r.ID,
			Theme:     r.Theme,
			Text:      r.Text,
			CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func mcpListHaikus(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctrl := deps.Sessions.Get(ctx, deps.SessionID)
		if err := ctrl.Reload(ctx); err != nil {
			return mcpError(haiku.LoadErrorMessage), nil
		}

		history := ctrl.Snapshot().History
		if limit := req.GetInt("limit", 0); limit > 0 && limit < len(history) {
			history = history[:limit]
		}
		if len(history) == 0 {
			return mcpText("[]"), nil
		}

		text, err := historyJSON(history)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal haikus: %v", err)), nil
		}
		return mcpText(text), nil
	}
}

func mcpResourceHistory(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ctrl := deps.Sessions.Get(ctx, deps.SessionID)
		if err := ctrl.Reload(ctx); err != nil {
			return nil, fmt.Errorf("loading haikus: %w", err)
		}

		text, err := historyJSON(ctrl.Snapshot().History)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal haikus: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     text,
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
