// Package htmltext extracts readable text from stored article HTML and
// sanitizes it for public rendering.
package htmltext

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var ugcPolicy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("div", "figure", "span")
	p.AllowElements("figure", "figcaption")
	p.AllowAttrs("target").Matching(bluemonday.SpaceSeparatedTokens).OnElements("a")
	p.AllowAttrs("src", "allow", "allowfullscreen", "frameborder", "title").OnElements("iframe")
	p.AllowURLSchemes("https")
	p.RequireNoReferrerOnLinks(true)
	return p
}

// Sanitize strips scripts, event handlers and unknown markup from user HTML.
func Sanitize(raw string) string {
	return ugcPolicy.Sanitize(raw)
}

// Text returns the visible text of an HTML fragment with whitespace collapsed.
func Text(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	var sb strings.Builder
	extractText(doc, &sb)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func extractText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		sb.WriteString(" ")
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		case "br", "p", "div", "li", "h1", "h2", "h3", "h4", "blockquote", "figcaption":
			sb.WriteString(" ")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, sb)
	}
}

// WordCount counts whitespace separated words in the visible text.
func WordCount(fragment string) int {
	return len(strings.Fields(Text(fragment)))
}

// Excerpt returns at most maxRunes runes of visible text, cut at a word
// boundary and suffixed with an ellipsis when shortened.
func Excerpt(fragment string, maxRunes int) string {
	text := Text(fragment)
	runes := []rune(text)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return text
	}
	cut := string(runes[:maxRunes])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
