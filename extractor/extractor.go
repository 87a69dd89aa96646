// Package extractor turns page markup into metadata and typed,
// deduplicated sections.
package extractor

import (
	"log/slog"
	"net/url"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/use-agent/pagemap/config"
	"github.com/use-agent/pagemap/models"
)

// Options are per-call extraction switches.
type Options struct {
	// Markdown renders each section's markup into Content.Markdown.
	Markdown bool
}

// Extractor is safe for concurrent use; it holds only read-only state.
type Extractor struct {
	cfg      config.ExtractConfig
	markdown *converter.Converter
	language *languageGuesser
}

// New creates an Extractor.
func New(cfg config.ExtractConfig) *Extractor {
	e := &Extractor{
		cfg:      cfg,
		markdown: newMarkdownConverter(),
	}
	if cfg.DetectLanguage {
		e.language = newLanguageGuesser()
	}
	return e
}

// Extract parses markup fetched from sourceURL and returns its metadata and
// sections. Meta.Strategy is left empty for the caller to fill.
//
// Pipeline:
//
//  1. Metadata          – title/description/lang/canonical
//  2. Landmarks         – main, article, header, nav, footer, sections, body
//  3. Heading fallback  – only when landmarks gave fewer than 3 sections
//  4. Deduplicate       – by text fingerprint, then number the survivors
//  5. Enrichment        – site name/author, markdown, language guess
func (e *Extractor) Extract(markup, sourceURL string, opts Options) (models.Meta, []models.Section, error) {
	base, err := url.Parse(sourceURL)
	if err != nil {
		return models.Meta{}, nil, models.NewEngineError(models.ErrCodeExtraction, "invalid source URL", err)
	}

	doc, err := Parse(markup)
	if err != nil {
		return models.Meta{}, nil, models.NewEngineError(models.ErrCodeExtraction, "failed to parse markup", err)
	}
	root := doc.Root()

	// ── 1. Metadata ─────────────────────────────────────────────────
	meta := extractMeta(root, base)

	// ── 2. Landmark sections ────────────────────────────────────────
	sections := e.process(discoverLandmarks(root), base, sourceURL, opts)

	// ── 3. Heading fallback ─────────────────────────────────────────
	if len(sections) < minLandmarkSections {
		sections = append(sections, e.process(headingLandmarks(doc), base, sourceURL, opts)...)
	}

	// ── 4. Deduplicate ──────────────────────────────────────────────
	sections = Deduplicate(sections)
	assignIDs(sections)

	// ── 5. Enrichment ───────────────────────────────────────────────
	if e.cfg.EnrichMeta {
		enrichMeta(&meta, markup, base)
	}
	if e.language != nil && declaredLanguage(root) == "" {
		if lang, ok := e.language.guess(root); ok {
			meta.Language = lang
		}
	}

	slog.Debug("extraction complete", "url", sourceURL, "sections", len(sections))
	return meta, sections, nil
}

func (e *Extractor) process(landmarks []landmark, base *url.URL, sourceURL string, opts Options) []models.Section {
	var sections []models.Section
	for _, lm := range landmarks {
		s, ok := processSection(lm.node, lm.kind, base, sourceURL)
		if !ok {
			continue
		}
		if opts.Markdown {
			s.Content.Markdown = e.toMarkdown(lm.node.Markup(), base)
		}
		sections = append(sections, s)
	}
	return sections
}
