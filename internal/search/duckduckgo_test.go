package search

import (
	"testing"
)

const liteFixture = `
<html><body><table>
<tr><td><a rel="nofollow" class='result-link' href="https://go.dev/doc/">Go Documentation</a></td></tr>
<tr><td class='result-snippet'>Official Go documentation and guides.</td></tr>
<tr><td><a rel="nofollow" class='result-link' href="https://go.dev/blog/">The Go Blog &amp; News</a></td></tr>
<tr><td class='result-snippet'>Articles from the Go team.</td></tr>
</table></body></html>`

func TestParseLiteResults(t *testing.T) {
	t.Run("Parses links and snippets", func(t *testing.T) {
		results := parseLiteResults(liteFixture)

		if len(results) != 2 {
			t.Fatalf("Expected 2 results, got %d", len(results))
		}
		if results[0].Title != "Go Documentation" {
			t.Errorf("Unexpected title: %q", results[0].Title)
		}
		if results[0].URL != "https://go.dev/doc/" {
			t.Errorf("Unexpected URL: %q", results[0].URL)
		}
		if results[0].Snippet != "Official Go documentation and guides." {
			t.Errorf("Unexpected snippet: %q", results[0].Snippet)
		}
	})

	t.Run("Decodes entities in titles", func(t *testing.T) {
		results := parseLiteResults(liteFixture)
		if results[1].Title != "The Go Blog & News" {
			t.Errorf("Expected decoded title, got %q", results[1].Title)
		}
	})

	t.Run("Caps result count", func(t *testing.T) {
		var many string
		for i := 0; i < 10; i++ {
			many += `<a class='result-link' href="https://example.com/page">A perfectly good result</a>`
		}
		results := parseLiteResults(many)
		if len(results) > ddgMaxResults {
			t.Errorf("Expected at most %d results, got %d", ddgMaxResults, len(results))
		}
	})

	t.Run("Falls back to bare link scan", func(t *testing.T) {
		html := `<a href="https://example.com/article">An interesting article</a>
<a href="/internal">internal</a>
<a href="https://duckduckgo.com/settings">Settings page</a>`

		results := parseLiteResults(html)
		if len(results) != 1 {
			t.Fatalf("Expected 1 fallback result, got %d", len(results))
		}
		if results[0].URL != "https://example.com/article" {
			t.Errorf("Unexpected fallback URL: %q", results[0].URL)
		}
	})

	t.Run("Empty page yields no results", func(t *testing.T) {
		if results := parseLiteResults("<html><body>no results</body></html>"); len(results) != 0 {
			t.Errorf("Expected no results, got %d", len(results))
		}
	})
}

func TestCleanHTML(t *testing.T) {
	got := cleanHTML("  <b>Bold &amp; beautiful</b>&nbsp;text ")
	want := "Bold & beautiful text"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
