package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/young1lin/scout/internal/config"
	"github.com/young1lin/scout/internal/models"
)

// stubProvider is a configurable in-memory provider for tests
type stubProvider struct {
	name      string
	available bool
	result    *models.SearchProviderResult
	err       error
	calls     int
}

func (s *stubProvider) Name() string      { return s.name }
func (s *stubProvider) IsAvailable() bool { return s.available }
func (s *stubProvider) Search(ctx context.Context, query string) (*models.SearchProviderResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func stubResult(query, title string) *models.SearchProviderResult {
	return &models.SearchProviderResult{
		Query:   query,
		Results: []models.SearchResult{{Title: title, URL: "https://example.com"}},
	}
}

func TestManager(t *testing.T) {
	t.Run("Disabled search returns error", func(t *testing.T) {
		m := NewManager(&config.WebSearchConfig{Enabled: false})
		if _, err := m.Search(context.Background(), "anything"); err == nil {
			t.Error("Expected error when search is disabled")
		}
	})

	t.Run("Default provider is tried first", func(t *testing.T) {
		m := NewManager(&config.WebSearchConfig{Enabled: true, Default: "primary"})
		primary := &stubProvider{name: "primary", available: true, result: stubResult("q", "from primary")}
		other := &stubProvider{name: "other", available: true, result: stubResult("q", "from other")}
		m.Register(primary)
		m.Register(other)

		result, err := m.Search(context.Background(), "q")
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if result.Results[0].Title != "from primary" {
			t.Errorf("Expected default provider result, got %q", result.Results[0].Title)
		}
		if other.calls != 0 {
			t.Error("Expected other provider not to be called")
		}
	})

	t.Run("Falls through failed default to other provider", func(t *testing.T) {
		m := NewManager(&config.WebSearchConfig{Enabled: true, Default: "primary"})
		m.Register(&stubProvider{name: "primary", available: true, err: errors.New("boom")})
		m.Register(&stubProvider{name: "backup", available: true, result: stubResult("q", "from backup")})
		m.SetFallback(&stubProvider{name: "scrape", available: true, err: errors.New("no network")})

		result, err := m.Search(context.Background(), "q")
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if result.Results[0].Title != "from backup" {
			t.Errorf("Expected backup provider result, got %q", result.Results[0].Title)
		}
	})

	t.Run("Scrape fallback is the last resort", func(t *testing.T) {
		m := NewManager(&config.WebSearchConfig{Enabled: true})
		scrape := &stubProvider{name: "scrape", available: true, result: stubResult("q", "scraped")}
		m.SetFallback(scrape)

		result, err := m.Search(context.Background(), "q")
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if result.Results[0].Title != "scraped" {
			t.Errorf("Expected scraped result, got %q", result.Results[0].Title)
		}
	})

	t.Run("HasConfiguredProvider ignores fallback", func(t *testing.T) {
		m := NewManager(&config.WebSearchConfig{Enabled: true})
		if m.HasConfiguredProvider() {
			t.Error("Expected no configured provider with empty config")
		}
		m.Register(&stubProvider{name: "p", available: true})
		if !m.HasConfiguredProvider() {
			t.Error("Expected configured provider after Register")
		}
	})

	t.Run("SearchWithProvider targets by name", func(t *testing.T) {
		m := NewManager(&config.WebSearchConfig{Enabled: true})
		m.Register(&stubProvider{name: "named", available: true, result: stubResult("q", "named result")})

		result, err := m.SearchWithProvider(context.Background(), "named", "q")
		if err != nil {
			t.Fatalf("SearchWithProvider failed: %v", err)
		}
		if result.Results[0].Title != "named result" {
			t.Errorf("Unexpected result: %q", result.Results[0].Title)
		}

		if _, err := m.SearchWithProvider(context.Background(), "missing", "q"); err == nil {
			t.Error("Expected error for unknown provider")
		}
	})
}

func TestFormatResults(t *testing.T) {
	t.Run("Empty results", func(t *testing.T) {
		got := FormatResults(&models.SearchProviderResult{Query: "q"})
		if got != "No search results found." {
			t.Errorf("Unexpected format for empty results: %q", got)
		}
	})

	t.Run("Numbered results with fields", func(t *testing.T) {
		result := &models.SearchProviderResult{
			Query: "go testing",
			Results: []models.SearchResult{
				{Title: "Testing in Go", URL: "https://go.dev/testing", Snippet: "How to test"},
			},
		}
		got := FormatResults(result)
		for _, want := range []string{"Search results for: go testing", "1. Testing in Go", "URL: https://go.dev/testing", "Summary: How to test"} {
			if !strings.Contains(got, want) {
				t.Errorf("Expected output to contain %q, got:\n%s", want, got)
			}
		}
	})
}
