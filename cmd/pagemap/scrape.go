package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"github.com/use-agent/pagemap/config"
	"github.com/use-agent/pagemap/engine"
	"github.com/use-agent/pagemap/models"
)

// ScrapeAction scrapes one URL and writes the ScrapeResult to stdout.
// Logs go to stderr so stdout stays valid JSON.
func ScrapeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: pagemap scrape [--no-render] [--markdown] <url>", 2)
	}
	target := c.Args().First()
	if err := models.ValidateTargetURL(target); err != nil {
		return cli.Exit(err.Error(), 2)
	}

	cfg := config.Load()
	initLogger(cfg.Log, os.Stderr)

	st, err := build(cfg, !c.Bool("no-render"))
	if err != nil {
		return fmt.Errorf("initialise scraper: %w", err)
	}
	defer st.close()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res := st.dispatcher.Scrape(ctx, &engine.Request{
		URL:      target,
		Markdown: c.Bool("markdown"),
	})

	enc := json.NewEncoder(os.Stdout)
	if c.Bool("pretty") {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(res)
}
