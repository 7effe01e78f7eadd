// Package render turns analyzed items into publishable drafts: Jekyll blog
// posts, LinkedIn posts and long-form Medium articles.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"researchpub/internal/core"
)

const (
	DefaultAuthor       = "AI Research Publisher"
	DefaultHashtagCount = 4
	maxBlogTags         = 6
	maxMediumTags       = 5
	maxReferenceAuthors = 5
	maxSlugLength       = 80
)

// Blog builds a Jekyll post around a generated body
func Blog(item *core.ContentItem, body, author string, now time.Time) (string, error) {
	if author == "" {
		author = DefaultAuthor
	}
	source := item.Source
	if source == "" {
		source = "unknown"
	}
	title := item.Title
	if title == "" {
		title = "Untitled"
	}

	fm, err := FrontMatter{
		Layout:     "post",
		Title:      title,
		Date:       now.Format("2006-01-02"),
		Categories: []string{"AI", "Research"},
		Tags:       BlogTags(item),
		Author:     author,
		Source:     source,
		SourceURL:  item.URL,
	}.Encode()
	if err != nil {
		return "", err
	}

	parts := []string{fm, strings.TrimSpace(body), "", "---", "", sourceSection(item)}
	return strings.Join(parts, "\n"), nil
}

// BlogTags derives at most six sorted tags from the item's category, topics and source.
func BlogTags(item *core.ContentItem) []string {
	tags := map[string]struct{}{"Machine Learning": {}}
	if item.Category != "" {
		tags[strings.ToUpper(strings.TrimPrefix(item.Category, "cs."))] = struct{}{}
	}
	for i, topic := range item.Topics {
		if i == 3 {
			break
		}
		tags[topic] = struct{}{}
	}
	switch {
	case strings.Contains(item.Source, core.SourceArxiv):
		tags["Research"] = struct{}{}
	case strings.Contains(item.Source, core.SourceGitHub):
		tags["Open Source"] = struct{}{}
	case item.IsBlog():
		tags["Industry"] = struct{}{}
	}
	return firstSorted(tags, maxBlogTags)
}

func sourceSection(item *core.ContentItem) string {
	var b strings.Builder
	b.WriteString("## Source\n\n")
	fmt.Fprintf(&b, "**Original Publication:** [%s](%s)", item.DisplaySource(), item.URL)
	if len(item.Authors) > 0 {
		fmt.Fprintf(&b, "\n**Authors:** %s", strings.Join(item.Authors, ", "))
	}
	if item.Published != "" {
		fmt.Fprintf(&b, "\n**Published:** %s", item.Published)
	}
	b.WriteString("\n\n*This article was automatically generated using AI analysis. Please refer to the original source for complete details.*")
	return b.String()
}

// LinkedIn appends the source link and hashtag line to a generated post
func LinkedIn(item *core.ContentItem, body string, hashtagCount int) string {
	link := fmt.Sprintf("📎 Read more: %s\nvia %s", item.URL, item.DisplaySource())
	return strings.Join([]string{strings.TrimSpace(body), "", link, "", strings.Join(Hashtags(item, hashtagCount), " ")}, "\n")
}

// Hashtags returns up to n sorted hashtags for the item. n <= 0 uses the default count.
func Hashtags(item *core.ContentItem, n int) []string {
	if n <= 0 {
		n = DefaultHashtagCount
	}
	tags := map[string]struct{}{"#AI": {}, "#MachineLearning": {}}
	add := func(names ...string) {
		for _, name := range names {
			tags[name] = struct{}{}
		}
	}

	source := strings.ToLower(item.Source)
	switch {
	case strings.Contains(source, core.SourceArxiv):
		add("#Research", "#DeepLearning")
	case strings.Contains(source, core.SourceGitHub):
		add("#OpenSource", "#MLOps")
	case item.IsBlog():
		switch {
		case strings.Contains(source, "openai"):
			add("#LLM", "#GPT")
		case strings.Contains(source, "deepmind"), strings.Contains(source, "google"):
			add("#GoogleAI")
		case strings.Contains(source, "meta"):
			add("#MetaAI")
		case strings.Contains(source, "anthropic"):
			add("#Claude")
		default:
			add("#GenAI")
		}
	}

	switch strings.ToUpper(strings.TrimPrefix(item.Category, "cs.")) {
	case "CL":
		add("#NLP")
	case "CV":
		add("#ComputerVision")
	}
	return firstSorted(tags, n)
}

// MediumOptions controls the optional Medium sections
type MediumOptions struct {
	IncludeDiagrams   bool
	IncludeReferences bool
}

// Medium assembles a long-form article from an analysis that ran the Medium
// stages. Sections with no text are left out.
func Medium(item *core.ContentItem, analysis *core.AnalysisResult, opts MediumOptions, now time.Time) (string, error) {
	title := item.Title
	if title == "" {
		title = "Untitled"
	}
	fm, err := FrontMatter{
		Title:        title,
		Date:         now.Format(time.RFC3339),
		Tags:         MediumTags(item),
		Source:       item.Source,
		CanonicalURL: item.URL,
	}.Encode()
	if err != nil {
		return "", err
	}

	stage := func(name string) string { return strings.TrimSpace(analysis.Get(name)) }
	diagram := func(kind string) string {
		if !opts.IncludeDiagrams || analysis.Diagrams == nil {
			return ""
		}
		return strings.TrimSpace(analysis.Diagrams[kind])
	}

	var b strings.Builder
	b.WriteString(fm)
	b.WriteString("\n")
	fmt.Fprintf(&b, "# %s\n\n## Executive Summary\n\n%s\n\n", title, stage("engineer_summary"))

	if d := diagram("architecture"); d != "" {
		b.WriteString("## System Architecture\n\nThe following diagram illustrates the key components and their relationships:\n\n")
		writeMermaid(&b, d)
	}
	body := stage("medium_synthesis")
	if body == "" {
		body = stage("blog_synthesis")
	}
	if body != "" {
		b.WriteString(body + "\n\n")
	}
	section(&b, "Methodology Deep Dive", stage("methodology"))
	if d := diagram("flow"); d != "" {
		b.WriteString("## Process Flow\n\n")
		writeMermaid(&b, d)
	}
	section(&b, "Results & Findings", stage("results"))
	if d := diagram("comparison"); d != "" {
		b.WriteString("## Comparative Analysis\n\n")
		writeMermaid(&b, d)
	}
	section(&b, "Impact Analysis", stage("impact_analysis"))
	section(&b, "Real-World Applications", stage("application_mapping"))

	if opts.IncludeReferences {
		b.WriteString(References(item))
	}
	b.WriteString(mediumFooter)
	return b.String(), nil
}

const mediumFooter = `---

*This article was generated using AI-assisted analysis to provide comprehensive coverage of recent research. The analysis includes technical details, implications, and practical applications to help engineers and researchers understand the significance of this work.*

*Follow for more in-depth analyses of AI/ML research papers.*
`

func section(b *strings.Builder, heading, text string) {
	if text == "" {
		return
	}
	fmt.Fprintf(b, "## %s\n\n%s\n\n", heading, text)
}

func writeMermaid(b *strings.Builder, src string) {
	fmt.Fprintf(b, "```mermaid\n%s\n```\n\n", src)
}

// MediumTags returns at most five tags in a fixed order
func MediumTags(item *core.ContentItem) []string {
	var tags []string
	if item.Source == core.SourceArxiv {
		tags = append(tags, "Research Paper", "ArXiv")
	}
	switch item.Category {
	case "cs.AI":
		tags = append(tags, "Artificial Intelligence")
	case "cs.LG":
		tags = append(tags, "Machine Learning")
	case "cs.CL":
		tags = append(tags, "NLP")
	case "cs.CV":
		tags = append(tags, "Computer Vision")
	}
	tags = append(tags, "AI Research", "Deep Learning")
	if len(tags) > maxMediumTags {
		tags = tags[:maxMediumTags]
	}
	return tags
}

// References lists the original work with at most five named authors
func References(item *core.ContentItem) string {
	title := item.Title
	if title == "" {
		title = "Source"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## References & Further Reading\n\n**Original Paper:** [%s](%s)\n\n", title, item.URL)
	if n := len(item.Authors); n > 0 {
		names := item.Authors
		if n > maxReferenceAuthors {
			names = names[:maxReferenceAuthors]
		}
		list := strings.Join(names, ", ")
		if n > maxReferenceAuthors {
			list += fmt.Sprintf(" et al. (%d authors)", n)
		}
		fmt.Fprintf(&b, "**Authors:** %s\n\n", list)
	}
	if item.Published != "" {
		fmt.Fprintf(&b, "**Published:** %s\n\n", item.Published)
	}
	return b.String()
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug converts a title into a lowercase, hyphenated file name stem
func Slug(title string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-")
	}
	if s == "" {
		return "untitled"
	}
	return s
}

// Extension returns the draft file extension for a format
func Extension(format string) string {
	if format == core.FormatLinkedIn {
		return ".txt"
	}
	return ".md"
}

// WriteDraft writes content to outputDir/format/<date>-<slug><ext> and returns the path
func WriteDraft(outputDir, format, title, content string, now time.Time) (string, error) {
	if outputDir == "" {
		outputDir = "drafts"
	}
	dir := filepath.Join(outputDir, format)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	name := fmt.Sprintf("%s-%s%s", now.Format("2006-01-02"), Slug(title), Extension(format))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write draft file %s: %w", path, err)
	}
	return path, nil
}

func firstSorted(set map[string]struct{}, n int) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	if len(out) > n {
		out = out[:n]
	}
	return out
}
