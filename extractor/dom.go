package extractor

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Node is the read-only view of parsed markup the extraction pipeline
// works against. Text nodes report an empty Tag.
type Node interface {
	Tag() string
	Attr(name string) (string, bool)
	Text() string
	Markup() string

	// Query returns the descendants matching a CSS pattern, in document order.
	Query(pattern string) []Node

	// FollowingSiblings returns the element and text nodes after this one
	// under the same parent.
	FollowingSiblings() []Node

	// Equal reports whether both values refer to the same underlying node.
	Equal(other Node) bool
}

// Document is a parsed page.
type Document interface {
	Root() Node

	// Wrap builds a detached element named tag whose children are copies
	// of nodes.
	Wrap(tag string, nodes []Node) (Node, error)
}

// Parse parses markup into a Document.
func Parse(markup string) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("extractor: parse markup: %w", err)
	}
	return &gqDocument{doc: doc}, nil
}

// selectors caches compiled patterns. Patterns come from a small fixed set,
// so the cache stays bounded.
var selectors sync.Map // string -> cascadia.Selector

func compile(pattern string) (cascadia.Selector, error) {
	if cached, ok := selectors.Load(pattern); ok {
		return cached.(cascadia.Selector), nil
	}
	sel, err := cascadia.Compile(pattern)
	if err != nil {
		return nil, err
	}
	selectors.Store(pattern, sel)
	return sel, nil
}

type gqDocument struct {
	doc *goquery.Document
}

func (d *gqDocument) Root() Node {
	return gqNode{sel: d.doc.Selection}
}

func (d *gqDocument) Wrap(tag string, nodes []Node) (Node, error) {
	var buf bytes.Buffer
	buf.WriteString("<" + tag + ">")
	for _, n := range nodes {
		buf.WriteString(n.Markup())
	}
	buf.WriteString("</" + tag + ">")

	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	parsed, err := html.ParseFragment(&buf, context)
	if err != nil {
		return nil, fmt.Errorf("extractor: wrap %s: %w", tag, err)
	}
	for _, n := range parsed {
		if n.Type == html.ElementNode && n.Data == tag {
			return newNode(n), nil
		}
	}
	return nil, fmt.Errorf("extractor: wrap %s: element lost while parsing", tag)
}

// gqNode is a single-node goquery selection.
type gqNode struct {
	sel *goquery.Selection
}

func newNode(n *html.Node) gqNode {
	return gqNode{sel: goquery.NewDocumentFromNode(n).Selection}
}

func (n gqNode) node() *html.Node {
	return n.sel.Get(0)
}

func (n gqNode) Tag() string {
	if node := n.node(); node.Type == html.ElementNode {
		return node.Data
	}
	return ""
}

func (n gqNode) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

func (n gqNode) Text() string {
	return n.sel.Text()
}

func (n gqNode) Markup() string {
	s, err := goquery.OuterHtml(n.sel)
	if err != nil {
		return ""
	}
	return s
}

func (n gqNode) Query(pattern string) []Node {
	sel, err := compile(pattern)
	if err != nil {
		return nil
	}
	matches := n.sel.FindMatcher(sel)
	out := make([]Node, 0, matches.Length())
	matches.Each(func(_ int, s *goquery.Selection) {
		out = append(out, gqNode{sel: s})
	})
	return out
}

func (n gqNode) FollowingSiblings() []Node {
	var out []Node
	for sib := n.node().NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type != html.ElementNode && sib.Type != html.TextNode {
			continue
		}
		out = append(out, newNode(sib))
	}
	return out
}

func (n gqNode) Equal(other Node) bool {
	o, ok := other.(gqNode)
	return ok && o.node() == n.node()
}

// first returns the first match of pattern under n, or nil.
func first(n Node, pattern string) Node {
	if matches := n.Query(pattern); len(matches) > 0 {
		return matches[0]
	}
	return nil
}
