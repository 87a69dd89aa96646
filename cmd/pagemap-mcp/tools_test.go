package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/use-agent/pagemap/models"
)

func callTool(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want TextContent", res.Content[0])
	}
	return text.Text, res.IsError
}

func sampleResult(url string) *models.ScrapeResult {
	r := models.NewScrapeResult(url, time.Now(), models.StrategyJS)
	r.Meta.Title = "Pricing"
	r.Sections = []models.Section{{
		ID:    "pricing-0",
		Type:  models.SectionPricing,
		Label: "Plans",
		Content: models.Content{
			Text:  "Basic $10 Pro $20",
			Links: []models.Link{{Text: "Buy", Href: url + "/buy"}},
		},
	}}
	r.Interactions.Scrolls = 2
	r.AddError(models.PhaseScroll, "Scroll error: boom")
	return r
}

func TestScrapePage_Summary(t *testing.T) {
	var got models.ScrapeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/scrape" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "k" {
			t.Errorf("api key = %q", r.Header.Get("X-API-Key"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(models.ScrapeResponse{Result: sampleResult(got.URL)})
	}))
	defer srv.Close()

	text, isErr := callTool(t, handleScrapePage(newClient(srv.URL, "k")), map[string]any{
		"url":      "https://example.com",
		"markdown": true,
	})
	if isErr {
		t.Fatalf("unexpected tool error: %s", text)
	}
	if !got.Markdown {
		t.Error("markdown flag not forwarded")
	}
	for _, want := range []string{"Title: Pricing", "Strategy: js", "## [pricing] Plans", "(1 links)", "2 scrolls", "Error [scroll]"} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}
}

func TestScrapePage_JSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.ScrapeResponse{Result: sampleResult("https://example.com")})
	}))
	defer srv.Close()

	text, isErr := callTool(t, handleScrapePage(newClient(srv.URL, "")), map[string]any{
		"url":    "https://example.com",
		"format": "json",
	})
	if isErr {
		t.Fatalf("unexpected tool error: %s", text)
	}
	var r models.ScrapeResult
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		t.Fatalf("output is not a result document: %v", err)
	}
	if len(r.Sections) != 1 || r.Sections[0].ID != "pricing-0" {
		t.Errorf("sections = %+v", r.Sections)
	}
}

func TestScrapePage_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(models.ScrapeResponse{Error: &models.ErrorDetail{
			Code:    models.ErrCodeInvalidInput,
			Message: "scheme must be http or https",
		}})
	}))
	defer srv.Close()

	text, isErr := callTool(t, handleScrapePage(newClient(srv.URL, "")), map[string]any{"url": "ftp://x"})
	if !isErr {
		t.Fatal("expected tool error")
	}
	if !strings.Contains(text, models.ErrCodeInvalidInput) {
		t.Errorf("text = %q", text)
	}
}

func TestScrapePage_MissingURL(t *testing.T) {
	text, isErr := callTool(t, handleScrapePage(newClient("http://127.0.0.1:1", "")), map[string]any{})
	if !isErr || text != "url is required" {
		t.Errorf("got %q (error=%v)", text, isErr)
	}
}

func TestBatchScrape_Order(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.BatchRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := models.BatchResponse{Total: len(req.URLs)}
		for _, u := range req.URLs {
			resp.Results = append(resp.Results, sampleResult(u))
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	text, isErr := callTool(t, handleBatchScrape(newClient(srv.URL, "")), map[string]any{
		"urls": []any{"https://a.example", "https://b.example"},
	})
	if isErr {
		t.Fatalf("unexpected tool error: %s", text)
	}
	a := strings.Index(text, "[1] https://a.example")
	b := strings.Index(text, "[2] https://b.example")
	if a < 0 || b < 0 || a > b {
		t.Errorf("results out of order:\n%s", text)
	}
}

func TestSummarize_TruncatesLongSections(t *testing.T) {
	r := models.NewScrapeResult("https://example.com", time.Now(), models.StrategyStatic)
	r.Sections = []models.Section{{Type: models.SectionGeneric, Label: "Long", Content: models.Content{
		Text: strings.Repeat("é", maxSectionChars+10),
	}}}
	out := summarize(r)
	if !strings.Contains(out, "…") {
		t.Error("long section not truncated")
	}
	if strings.Count(out, "é") != maxSectionChars {
		t.Errorf("kept %d runes, want %d", strings.Count(out, "é"), maxSectionChars)
	}
}
