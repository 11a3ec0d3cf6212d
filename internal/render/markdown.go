// Package render turns a chat session into something a visitor can see:
// bubbles aligned by sender, assistant markdown converted to safe HTML, a
// transient typing indicator and the id of the entry to scroll to.
package render

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// allowedElements is the HTML the markdown subset may produce.
var allowedElements = []string{"p", "ul", "ol", "li", "strong", "em", "br"}

// Markdown renders the constrained markdown subset used by assistant replies:
// paragraphs, lists, bold and italic. Anything else, raw HTML included, is
// kept as escaped text.
type Markdown struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewMarkdown builds a renderer that only knows the subset's block and inline
// parsers, followed by an allowlist sanitizer over the generated HTML.
func NewMarkdown() *Markdown {
	p := parser.NewParser(
		parser.WithBlockParsers(
			util.Prioritized(parser.NewListParser(), 300),
			util.Prioritized(parser.NewListItemParser(), 400),
			util.Prioritized(parser.NewCodeBlockParser(), 500),
			util.Prioritized(parser.NewParagraphParser(), 1000),
		),
		parser.WithInlineParsers(
			util.Prioritized(parser.NewEmphasisParser(), 500),
		),
	)

	policy := bluemonday.NewPolicy()
	policy.AllowElements(allowedElements...)

	return &Markdown{
		md: goldmark.New(
			goldmark.WithParser(p),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
				renderer.WithNodeRenderers(util.Prioritized(indentedText{}, 100)),
			),
		),
		policy: policy,
	}
}

// indentedText renders indented blocks as an escaped paragraph, one line per
// row, so indentation never hides part of a reply.
type indentedText struct{}

func (indentedText) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindCodeBlock, renderIndented)
}

func renderIndented(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	var lines []string
	for i := 0; i < n.Lines().Len(); i++ {
		seg := n.Lines().At(i)
		lines = append(lines, strings.TrimRight(string(seg.Value(source)), "\r\n"))
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return ast.WalkSkipChildren, nil
	}
	_, _ = w.WriteString("<p>")
	for i, line := range lines {
		if i > 0 {
			_, _ = w.WriteString("<br>\n")
		}
		_, _ = w.WriteString(template.HTMLEscapeString(strings.TrimSpace(line)))
	}
	_, _ = w.WriteString("</p>\n")
	return ast.WalkSkipChildren, nil
}

// HTML converts source to sanitized HTML.
func (m *Markdown) HTML(source string) template.HTML {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(source), &buf); err != nil {
		return PlainText(source)
	}
	return template.HTML(m.policy.Sanitize(buf.String()))
}

// PlainText escapes s for display without any markup interpretation.
func PlainText(s string) template.HTML {
	return template.HTML(template.HTMLEscapeString(s))
}
