package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
	"github.com/use-agent/pagemap/api/handler"
	"github.com/use-agent/pagemap/config"
)

func main() {
	app := &cli.App{
		Name:    "pagemap",
		Usage:   "structured content extraction for arbitrary web pages",
		Version: handler.Version,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: ServeAction,
			},
			{
				Name:      "scrape",
				Usage:     "scrape one URL and print the result as JSON",
				ArgsUsage: "<url>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "no-render", Usage: "never launch a browser; static pass only"},
					&cli.BoolFlag{Name: "markdown", Usage: "include markdown for each section"},
					&cli.BoolFlag{Name: "pretty", Usage: "indent the JSON output"},
				},
				Action: ScrapeAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig, w io.Writer) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.Format == "text" {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}

	slog.SetDefault(slog.New(h))
}
