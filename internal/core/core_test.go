package core

import "testing"

func TestEngagementPriority(t *testing.T) {
	tests := []struct {
		name string
		item ContentItem
		want int
	}{
		{"engagement score wins", ContentItem{EngagementScore: 7, Points: 50, Stars: 900}, 7},
		{"points when no engagement score", ContentItem{Points: 50, Stars: 900}, 50},
		{"stars last", ContentItem{Stars: 900}, 900},
		{"nothing set", ContentItem{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.Engagement(); got != tt.want {
				t.Errorf("Engagement() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsBlog(t *testing.T) {
	if !(&ContentItem{Source: "blog_openai"}).IsBlog() {
		t.Error("Expected blog_openai to be a blog source")
	}
	if (&ContentItem{Source: SourceArxiv}).IsBlog() {
		t.Error("Expected arxiv not to be a blog source")
	}
}

func TestDisplaySource(t *testing.T) {
	item := ContentItem{Source: "blog_openai", SourceName: "OpenAI"}
	if got := item.DisplaySource(); got != "OpenAI" {
		t.Errorf("Expected OpenAI, got %s", got)
	}
	item.SourceName = ""
	if got := item.DisplaySource(); got != "blog_openai" {
		t.Errorf("Expected blog_openai, got %s", got)
	}
	if got := (&ContentItem{}).DisplaySource(); got != "Unknown" {
		t.Errorf("Expected Unknown, got %s", got)
	}
}

func TestAnalysisResultGetSkipsErrors(t *testing.T) {
	r := NewAnalysisResult(&ContentItem{ID: "x", Title: "T"})
	r.Stages["fact_extraction"] = "facts"
	r.Stages["engineer_summary"] = ErrorPrefix + "boom"

	if r.ItemID != "x" || r.Title != "T" {
		t.Errorf("Expected bookkeeping fields to be copied, got %+v", r)
	}
	if got := r.Get("fact_extraction"); got != "facts" {
		t.Errorf("Expected facts, got %q", got)
	}
	if got := r.Get("engineer_summary"); got != "" {
		t.Errorf("Expected failed stage to read as empty, got %q", got)
	}
	if got := r.Get("missing"); got != "" {
		t.Errorf("Expected missing stage to read as empty, got %q", got)
	}
}
