// Command benchmark measures a running pagemap API: latency, section
// yield and how often the render fallback kicks in.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/use-agent/pagemap/models"
)

var (
	apiURL   = flag.String("api-url", "http://localhost:8080", "pagemap API base URL")
	apiKey   = flag.String("api-key", "", "API key for authenticated requests")
	runs     = flag.Int("runs", 3, "Number of runs per URL")
	output   = flag.String("output", "benchmark-results.json", "JSON output file path")
	markdown = flag.Bool("markdown", false, "Request markdown for every section")
	batch    = flag.Bool("batch", false, "Send all URLs per run through /api/v1/batch/scrape")
)

// targets cover static pages, JS-heavy pages and a forced-render host.
var targets = []struct {
	Label string
	URL   string
}{
	{"Static", "https://example.com"},
	{"Blog", "https://go.dev/blog/go1.21"},
	{"Docs", "https://go.dev/doc/effective_go"},
	{"News", "https://www.bbc.com/news"},
	{"Complex", "https://github.com/go-rod/rod"},
	{"Forced", "https://en.wikipedia.org/wiki/Web_scraping"},
}

// sample is one scrape of one URL.
type sample struct {
	Run        int    `json:"run"`
	LatencyMs  int64  `json:"latency_ms"`
	Strategy   string `json:"strategy"`
	Sections   int    `json:"sections"`
	TextLength int    `json:"text_length"`
	Clicks     int    `json:"clicks"`
	Scrolls    int    `json:"scrolls"`
	Pages      int    `json:"pages"`
	Errors     int    `json:"errors"`
	Fallback   bool   `json:"fallback"`
	Failure    string `json:"failure,omitempty"`
}

func (s sample) ok() bool { return s.Failure == "" }

type target struct {
	Label   string   `json:"label"`
	URL     string   `json:"url"`
	Samples []sample `json:"samples"`
}

type report struct {
	Timestamp  string    `json:"timestamp"`
	APIURL     string    `json:"api_url"`
	Mode       string    `json:"mode"`
	RunsPerURL int       `json:"runs_per_url"`
	Targets    []*target `json:"targets"`
}

type client struct {
	base string
	key  string
	http *http.Client
}

func (c *client) post(path string, payload, out any) (time.Duration, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequest(http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.key != "" {
		req.Header.Set("Authorization", "Bearer "+c.key)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return 0, fmt.Errorf("decode (HTTP %d): %w", resp.StatusCode, err)
	}
	return time.Since(start), nil
}

func main() {
	flag.Parse()

	c := &client{base: *apiURL, key: *apiKey, http: &http.Client{Timeout: 10 * time.Minute}}
	mode := "single"
	if *batch {
		mode = "batch"
	}

	fmt.Println("=== pagemap benchmark ===")
	fmt.Printf("API URL:   %s\nMode:      %s\nRuns/URL:  %d\nOutput:    %s\n\n", *apiURL, mode, *runs, *output)

	if err := ping(c); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintln(os.Stderr, "Start it with: pagemap serve")
		os.Exit(1)
	}

	rep := report{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		Mode:       mode,
		RunsPerURL: *runs,
	}
	for _, t := range targets {
		rep.Targets = append(rep.Targets, &target{Label: t.Label, URL: t.URL})
	}

	for run := 1; run <= *runs; run++ {
		fmt.Printf("Run %d/%d\n", run, *runs)
		if *batch {
			runBatch(c, rep.Targets, run)
		} else {
			runSingle(c, rep.Targets, run)
		}
		fmt.Println()
	}

	printSummary(rep.Targets)

	data, err := json.MarshalIndent(rep, "", "  ")
	if err == nil {
		err = os.WriteFile(*output, data, 0o644)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *output, err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func ping(c *client) error {
	resp, err := c.http.Get(c.base + "/healthz")
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthz returned %d", resp.StatusCode)
	}
	return nil
}

func runSingle(c *client, ts []*target, run int) {
	for _, t := range ts {
		var resp models.ScrapeResponse
		elapsed, err := c.post("/api/v1/scrape", models.ScrapeRequest{URL: t.URL, Markdown: *markdown}, &resp)
		s := sample{Run: run, LatencyMs: elapsed.Milliseconds()}
		switch {
		case err != nil:
			s.Failure = err.Error()
		case resp.Error != nil:
			s.Failure = resp.Error.Message
		default:
			fill(&s, resp.Result)
		}
		t.Samples = append(t.Samples, s)
		logSample(t, s)
	}
}

// runBatch sends every target in one request; each sample gets the
// whole batch latency.
func runBatch(c *client, ts []*target, run int) {
	urls := make([]string, len(ts))
	for i, t := range ts {
		urls[i] = t.URL
	}
	var resp models.BatchResponse
	elapsed, err := c.post("/api/v1/batch/scrape", models.BatchRequest{URLs: urls, Markdown: *markdown}, &resp)
	for i, t := range ts {
		s := sample{Run: run, LatencyMs: elapsed.Milliseconds()}
		switch {
		case err != nil:
			s.Failure = err.Error()
		case resp.Error != nil:
			s.Failure = resp.Error.Message
		case i >= len(resp.Results):
			s.Failure = "missing from batch response"
		default:
			fill(&s, resp.Results[i])
		}
		t.Samples = append(t.Samples, s)
		logSample(t, s)
	}
}

func fill(s *sample, res *models.ScrapeResult) {
	if res == nil {
		s.Failure = "empty result"
		return
	}
	s.Strategy = res.Meta.Strategy
	s.Sections = len(res.Sections)
	s.TextLength = res.TextLength()
	s.Clicks = len(res.Interactions.Clicks)
	s.Scrolls = res.Interactions.Scrolls
	s.Pages = len(res.Interactions.Pages)
	s.Errors = len(res.Errors)
	s.Fallback = slices.ContainsFunc(res.Errors, func(e models.ScrapeError) bool {
		return e.Phase == models.PhaseFallbackDecision
	})
	if s.Sections == 0 {
		s.Failure = "no sections"
		if len(res.Errors) > 0 {
			s.Failure = res.Errors[0].Message
		}
	}
}

func logSample(t *target, s sample) {
	if !s.ok() {
		fmt.Printf("  %-8s FAILED  %s\n", t.Label, s.Failure)
		return
	}
	fmt.Printf("  %-8s %6dms  %-6s %3d sections\n", t.Label, s.LatencyMs, s.Strategy, s.Sections)
}

func printSummary(ts []*target) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TARGET\tOK\tMEDIAN\tSECTIONS\tTEXT\tJS\tFALLBACK")
	for _, t := range ts {
		var lat []int64
		var sections, text, js, fallback int
		for _, s := range t.Samples {
			if !s.ok() {
				continue
			}
			lat = append(lat, s.LatencyMs)
			sections += s.Sections
			text += s.TextLength
			if s.Strategy == models.StrategyJS {
				js++
			}
			if s.Fallback {
				fallback++
			}
		}
		n := len(lat)
		if n == 0 {
			fmt.Fprintf(w, "%s\t0/%d\t-\t-\t-\t-\t-\n", t.Label, len(t.Samples))
			continue
		}
		slices.Sort(lat)
		fmt.Fprintf(w, "%s\t%d/%d\t%dms\t%.1f\t%d\t%d/%d\t%d/%d\n",
			t.Label, n, len(t.Samples), lat[n/2],
			float64(sections)/float64(n), text/n, js, n, fallback, n)
	}
	w.Flush()
	fmt.Println(strings.Repeat("─", 72))
}
