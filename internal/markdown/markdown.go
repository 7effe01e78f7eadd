// Package markdown renders drafts to HTML and pulls previews and links out of them.
package markdown

import (
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// ToHTML converts markdown text to HTML. External links open in a new tab.
func ToHTML(text string) string {
	if text == "" {
		return ""
	}

	// Parsers are stateful, build one per call.
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.FencedCode)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	})
	return string(markdown.ToHTML([]byte(text), p, renderer))
}

// Link is an inline markdown link
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

var linkPattern = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^)\s]+)\)`)

// ExtractLinks returns inline links in order of appearance, without duplicates
func ExtractLinks(text string) []Link {
	var links []Link
	seen := make(map[string]bool)
	for _, m := range linkPattern.FindAllStringSubmatch(text, -1) {
		url := strings.TrimSpace(m[2])
		if seen[url] {
			continue
		}
		seen[url] = true
		links = append(links, Link{Text: m[1], URL: url})
	}
	return links
}

var (
	numberedBoldPattern = regexp.MustCompile(`^\d+\.\s+\*\*(.+?)\*\*\s*(.*)$`)
	boldPattern         = regexp.MustCompile(`^\*\*(.+?)\*\*`)
	bulletPattern       = regexp.MustCompile(`^[\-\*]\s+(.+)$`)
)

// KeyPoints collects up to max highlights from numbered bold items, bold
// lines and bullets. Headings and plain paragraphs are ignored.
func KeyPoints(text string, max int) []string {
	var points []string
	for _, line := range strings.Split(text, "\n") {
		if max > 0 && len(points) == max {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if m := numberedBoldPattern.FindStringSubmatch(line); m != nil {
			points = append(points, strings.TrimSpace(m[1]+" "+m[2]))
			continue
		}
		if m := boldPattern.FindStringSubmatch(line); m != nil {
			points = append(points, m[1])
			continue
		}
		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			points = append(points, m[1])
		}
	}
	return points
}

// Preview truncates text at a word boundary and appends "..." when cut
func Preview(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	truncated := string(runes[:maxChars])
	if i := strings.LastIndex(truncated, " "); i > 0 {
		truncated = truncated[:i]
	}
	return truncated + "..."
}
