// Package markdown converts admin-authored Markdown into the HTML stored as
// article content.
package markdown

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

var engine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
		htmlrenderer.WithUnsafe(),
	),
)

var (
	galleryBlockRegex    = regexp.MustCompile(`(?ms)^\s*:::\s*gallery\s*\n(.*?)\n\s*:::\s*(?:\n|$)`)
	imageTagRegex        = regexp.MustCompile(`(?is)<img\s+[^>]*>`)
	imageAttrRegex       = regexp.MustCompile(`([a-zA-Z:_-]+)\s*=\s*"([^"]*)"`)
	figureParagraphRegex = regexp.MustCompile(`(?is)<p>\s*(<figure>[\s\S]*?</figure>)\s*</p>`)
)

// Render converts Markdown to HTML. Images whose alt text starts with "!" become
// captioned figures, and ::: gallery blocks are wrapped in a gallery div.
func Render(src string) string {
	text := strings.TrimSpace(src)
	if text == "" {
		return ""
	}
	text = replaceGalleryBlocks(text)

	html, err := convert(text)
	if err != nil {
		return "<p>" + template.HTMLEscapeString(text) + "</p>"
	}
	return rewriteImages(html)
}

func convert(text string) (string, error) {
	var out bytes.Buffer
	if err := engine.Convert([]byte(text), &out); err != nil {
		return "", err
	}
	return out.String(), nil
}

func replaceGalleryBlocks(text string) string {
	return galleryBlockRegex.ReplaceAllStringFunc(text, func(raw string) string {
		match := galleryBlockRegex.FindStringSubmatch(raw)
		if len(match) < 2 {
			return raw
		}
		inner, err := convert(strings.TrimSpace(match[1]))
		if err != nil {
			return raw
		}
		return "<div class=\"gallery\">" + strings.TrimSpace(inner) + "</div>\n\n"
	})
}

func rewriteImages(html string) string {
	processed := imageTagRegex.ReplaceAllStringFunc(html, func(tag string) string {
		attrs := parseImageAttrs(tag)
		src := strings.TrimSpace(attrs["src"])
		alt := strings.TrimSpace(attrs["alt"])
		if src == "" || !strings.HasPrefix(alt, "!") {
			return tag
		}
		caption := strings.TrimSpace(strings.TrimPrefix(alt, "!"))
		if caption == "" {
			caption = strings.TrimSpace(attrs["title"])
		}
		return `<figure><img src="` + template.HTMLEscapeString(src) + `" alt="` +
			template.HTMLEscapeString(caption) + `"><figcaption>` +
			template.HTMLEscapeString(caption) + `</figcaption></figure>`
	})
	return figureParagraphRegex.ReplaceAllString(processed, "$1")
}

func parseImageAttrs(tag string) map[string]string {
	attrs := make(map[string]string)
	for _, item := range imageAttrRegex.FindAllStringSubmatch(tag, -1) {
		key := strings.ToLower(strings.TrimSpace(item[1]))
		if key != "" {
			attrs[key] = item[2]
		}
	}
	return attrs
}
