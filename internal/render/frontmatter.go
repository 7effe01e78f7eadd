package render

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// FrontMatter is the YAML header shared by blog and Medium drafts.
// Blog drafts fill the Jekyll fields, Medium drafts fill CanonicalURL.
type FrontMatter struct {
	Layout       string   `yaml:"layout,omitempty"`
	Title        string   `yaml:"title"`
	Date         string   `yaml:"date"`
	Categories   []string `yaml:"categories,omitempty,flow"`
	Tags         []string `yaml:"tags,omitempty"`
	Author       string   `yaml:"author,omitempty"`
	Source       string   `yaml:"source,omitempty"`
	SourceURL    string   `yaml:"source_url,omitempty"`
	CanonicalURL string   `yaml:"canonical_url,omitempty"`
}

// Encode renders the front matter between --- delimiters
func (fm FrontMatter) Encode() (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return "", fmt.Errorf("failed to encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode front matter: %w", err)
	}
	return delimiter + "\n" + buf.String() + delimiter + "\n", nil
}

// ParseFrontMatter splits a draft into its header and body. Content without
// a header yields a zero FrontMatter whose Title is taken from the first
// "# " heading, if any.
func ParseFrontMatter(content string) (FrontMatter, string, error) {
	var fm FrontMatter

	if strings.HasPrefix(content, delimiter) {
		rest := strings.TrimPrefix(content, delimiter)
		end := strings.Index(rest, "\n"+delimiter)
		if end >= 0 {
			header := rest[:end]
			body := rest[end+len(delimiter)+1:]
			if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
				return FrontMatter{}, content, fmt.Errorf("failed to parse front matter: %w", err)
			}
			return fm, strings.TrimSpace(body), nil
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "# ") {
			fm.Title = strings.TrimSpace(line[2:])
			break
		}
	}
	return fm, content, nil
}
