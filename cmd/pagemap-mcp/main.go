package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/pagemap/api/handler"
)

func main() {
	apiURL := os.Getenv("PAGEMAP_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	// Optional: the API runs without auth by default.
	apiKey := os.Getenv("PAGEMAP_API_KEY")

	s := server.NewMCPServer(
		"pagemap",
		handler.Version,
		server.WithToolCapabilities(false),
	)

	scrapePageTool := mcp.NewTool("scrape_page",
		mcp.WithDescription("Scrape a web page into typed sections (hero, nav, pricing, faq, ...) with links, images and tables. Falls back to a headless browser for JavaScript-heavy pages."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to scrape"),
		),
		mcp.WithBoolean("markdown",
			mcp.Description("Render each section as markdown instead of plain text (default: false)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'summary' (default, readable outline) or 'json' (the full result document)"),
			mcp.Enum(formatSummary, formatJSON),
		),
	)
	s.AddTool(scrapePageTool, handleScrapePage(newClient(apiURL, apiKey)))

	batchScrapeTool := mcp.NewTool("batch_scrape",
		mcp.WithDescription("Scrape several URLs at once and return one outline per page, in request order."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("List of URLs to scrape"),
		),
		mcp.WithBoolean("markdown",
			mcp.Description("Render each section as markdown instead of plain text (default: false)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'summary' (default) or 'json'"),
			mcp.Enum(formatSummary, formatJSON),
		),
	)
	s.AddTool(batchScrapeTool, handleBatchScrape(newClient(apiURL, apiKey)))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
