package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/pagemap/models"
)

const (
	formatSummary = "summary"
	formatJSON    = "json"

	// maxSectionChars caps each section body in summaries.
	maxSectionChars = 1500
)

func handleScrapePage(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		resp, err := c.scrape(ctx, models.ScrapeRequest{
			URL:      url,
			Markdown: request.GetBool("markdown", false),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scrape request failed: %v", err)), nil
		}
		if resp.Error != nil {
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)), nil
		}
		if resp.Result == nil {
			return mcp.NewToolResultError("scrape returned no result"), nil
		}

		if request.GetString("format", formatSummary) == formatJSON {
			return jsonResult(resp.Result)
		}
		return mcp.NewToolResultText(summarize(resp.Result)), nil
	}
}

func handleBatchScrape(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}

		resp, err := c.batch(ctx, models.BatchRequest{
			URLs:     urls,
			Markdown: request.GetBool("markdown", false),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("batch request failed: %v", err)), nil
		}
		if resp.Error != nil {
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)), nil
		}

		if request.GetString("format", formatSummary) == formatJSON {
			return jsonResult(resp.Results)
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Batch: %d pages in %dms\n\n", resp.Total, resp.Timing.TotalMs)
		for i, r := range resp.Results {
			fmt.Fprintf(&sb, "=== [%d] %s ===\n", i+1, r.URL)
			sb.WriteString(summarize(r))
			sb.WriteString("\n")
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// summarize renders a result as a readable outline: metadata header, one
// block per section, then interactions and errors.
func summarize(r *models.ScrapeResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\nSource: %s\nStrategy: %s\n", r.Meta.Title, r.URL, r.Meta.Strategy)
	if r.Meta.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", r.Meta.Description)
	}
	sb.WriteString("\n")

	for _, s := range r.Sections {
		fmt.Fprintf(&sb, "## [%s] %s\n", s.Type, s.Label)
		body := s.Content.Markdown
		if body == "" {
			body = s.Content.Text
		}
		if runes := []rune(body); len(runes) > maxSectionChars {
			body = string(runes[:maxSectionChars]) + "…"
		}
		sb.WriteString(body)
		if n := len(s.Content.Links); n > 0 {
			fmt.Fprintf(&sb, "\n(%d links)", n)
		}
		sb.WriteString("\n\n")
	}

	in := r.Interactions
	if len(in.Clicks) > 0 || in.Scrolls > 0 || len(in.Pages) > 1 {
		fmt.Fprintf(&sb, "---\nInteractions: %d clicks, %d scrolls, %d pages\n", len(in.Clicks), in.Scrolls, len(in.Pages))
	}
	for _, e := range r.Errors {
		fmt.Fprintf(&sb, "Error [%s]: %s\n", e.Phase, e.Message)
	}
	return sb.String()
}
