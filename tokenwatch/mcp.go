// CLAUDE:SUMMARY Registers the tokenwatch MCP tools: page and text estimation, transcript, platforms, live status.
package tokenwatch

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/tokenwatch/kit"
)

// RegisterMCP registers tokenwatch tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerEstimatePageTool(srv)
	s.registerEstimateTextTool(srv)
	s.registerTranscriptTool(srv)
	s.registerPlatformsTool(srv)
	s.registerStatusTool(srv)
	s.registerDebugTool(srv)
}

func (s *Service) tool(srv *mcp.Server, tool *mcp.Tool, ep kit.Endpoint, dec kit.MCPDecoder) {
	kit.RegisterMCPTool(srv, tool, kit.Logging(s.logger, tool.Name)(ep), dec)
}

var pageSchema = kit.InputSchema(map[string]any{
	"url":          map[string]any{"type": "string", "description": "Page URL, used to detect the platform"},
	"html":         map[string]any{"type": "string", "description": "Page HTML snapshot"},
	"include_code": map[string]any{"type": "boolean", "description": "Count code blocks (default: stored setting)"},
}, "html")

func (s *Service) registerEstimatePageTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "tokenwatch_estimate_page",
		Description: "Extract the conversation from an AI chat page snapshot and estimate its token usage.",
		InputSchema: pageSchema,
	}
	s.tool(srv, tool, func(ctx context.Context, req any) (any, error) {
		return s.EstimatePage(ctx, *req.(*PageRequest))
	}, kit.DecodeJSON[PageRequest]())
}

func (s *Service) registerEstimateTextTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "tokenwatch_estimate_text",
		Description: "Estimate the token count of a text.",
		InputSchema: kit.InputSchema(map[string]any{
			"text":         map[string]any{"type": "string", "description": "Text to estimate"},
			"include_code": map[string]any{"type": "boolean", "description": "Count code blocks (default: stored setting)"},
		}, "text"),
	}
	s.tool(srv, tool, func(ctx context.Context, req any) (any, error) {
		return s.EstimateText(ctx, *req.(*TextRequest))
	}, kit.DecodeJSON[TextRequest]())
}

func (s *Service) registerTranscriptTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "tokenwatch_transcript",
		Description: "Render the conversation of an AI chat page snapshot as a Markdown transcript.",
		InputSchema: pageSchema,
	}
	s.tool(srv, tool, func(ctx context.Context, req any) (any, error) {
		return s.Transcript(ctx, *req.(*PageRequest))
	}, kit.DecodeJSON[PageRequest]())
}

type emptyRequest struct{}

func (s *Service) registerPlatformsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "tokenwatch_platforms",
		Description: "List the supported chat platforms in detection priority order.",
		InputSchema: kit.InputSchema(map[string]any{}),
	}
	s.tool(srv, tool, func(context.Context, any) (any, error) {
		return s.Platforms(), nil
	}, kit.DecodeJSON[emptyRequest]())
}

func (s *Service) registerStatusTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "tokenwatch_status",
		Description: "Return the latest token budget status of the monitored page.",
		InputSchema: kit.InputSchema(map[string]any{}),
	}
	s.tool(srv, tool, func(context.Context, any) (any, error) {
		return s.Status()
	}, kit.DecodeJSON[emptyRequest]())
}

func (s *Service) registerDebugTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "tokenwatch_debug",
		Description: "Explain platform detection for a page: domain and URL pattern matches per platform, and which selectors the HTML contains.",
		InputSchema: kit.InputSchema(map[string]any{
			"url":  map[string]any{"type": "string", "description": "Page URL"},
			"html": map[string]any{"type": "string", "description": "Optional page HTML snapshot"},
		}, "url"),
	}
	s.tool(srv, tool, func(ctx context.Context, req any) (any, error) {
		return s.Debug(ctx, *req.(*PageRequest))
	}, kit.DecodeJSON[PageRequest]())
}
