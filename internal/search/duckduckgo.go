package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/young1lin/scout/internal/models"
	"github.com/young1lin/scout/pkg/logger"
)

const (
	ddgEndpoint   = "https://lite.duckduckgo.com/lite/"
	ddgMaxResults = 5
	ddgUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// DuckDuckGoProvider scrapes DuckDuckGo's lite HTML interface. It needs no
// API key, so it serves as the last-resort provider when nothing else is
// configured. Single best-effort attempt, no backoff.
type DuckDuckGoProvider struct {
	client *http.Client
}

// NewDuckDuckGoProvider creates the scrape-based provider with a modest timeout
func NewDuckDuckGoProvider() *DuckDuckGoProvider {
	return &DuckDuckGoProvider{client: &http.Client{Timeout: 15 * time.Second}}
}

// Name returns the provider name
func (p *DuckDuckGoProvider) Name() string {
	return "duckduckgo"
}

// IsAvailable always returns true; scraping needs no configuration
func (p *DuckDuckGoProvider) IsAvailable() bool {
	return true
}

// Search scrapes the DuckDuckGo lite HTML page for results
func (p *DuckDuckGoProvider) Search(ctx context.Context, query string) (*models.SearchProviderResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is empty")
	}

	formData := url.Values{}
	formData.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ddgEndpoint, strings.NewReader(formData.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", ddgUserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	results := parseLiteResults(string(body))

	logger.Info("duckduckgo search completed",
		zap.String("query", query),
		zap.Int("result_count", len(results)),
	)

	return &models.SearchProviderResult{
		Query:   query,
		Results: results,
	}, nil
}

var (
	// Result links: <a ... class='result-link' ... href="URL">TITLE</a>, in either attribute order
	ddgLinkPattern  = regexp.MustCompile(`<a[^>]*class=['"]result-link['"][^>]*href=['"]([^'"]+)['"][^>]*>([^<]+)</a>`)
	ddgLinkPattern2 = regexp.MustCompile(`<a[^>]*href=['"]([^'"]+)['"][^>]*class=['"]result-link['"][^>]*>([^<]+)</a>`)
	// Snippets live in <td class="result-snippet">
	ddgSnippetPattern = regexp.MustCompile(`<td[^>]*class=['"]result-snippet['"][^>]*>([^<]+(?:<[^>]+>[^<]*</[^>]+>)*[^<]*)</td>`)
	ddgAnyLinkPattern = regexp.MustCompile(`<a[^>]+href=['"]([^'"]+)['"][^>]*>([^<]+)</a>`)
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
)

// parseLiteResults extracts search results from the DuckDuckGo lite HTML
func parseLiteResults(html string) []models.SearchResult {
	var results []models.SearchResult

	matches := ddgLinkPattern.FindAllStringSubmatch(html, -1)
	if len(matches) == 0 {
		matches = ddgLinkPattern2.FindAllStringSubmatch(html, -1)
	}

	snippetMatches := ddgSnippetPattern.FindAllStringSubmatch(html, -1)

	for i, match := range matches {
		if len(match) < 3 {
			continue
		}

		urlStr := strings.TrimSpace(match[1])
		title := cleanHTML(match[2])

		snippet := ""
		if i < len(snippetMatches) && len(snippetMatches[i]) > 1 {
			snippet = cleanHTML(snippetMatches[i][1])
		}

		// Skip ad results or empty results
		if urlStr == "" || title == "" {
			continue
		}

		results = append(results, models.SearchResult{
			Title:   title,
			URL:     urlStr,
			Snippet: snippet,
		})

		if len(results) >= ddgMaxResults {
			break
		}
	}

	// The lite page layout shifts occasionally; fall back to bare link scan
	if len(results) == 0 {
		results = fallbackParse(html)
	}

	return results
}

// fallbackParse scans for any external links that look like search results
func fallbackParse(html string) []models.SearchResult {
	var results []models.SearchResult

	matches := ddgAnyLinkPattern.FindAllStringSubmatch(html, -1)

	seen := make(map[string]bool)
	for _, match := range matches {
		if len(match) < 3 {
			continue
		}

		urlStr := strings.TrimSpace(match[1])
		title := cleanHTML(match[2])

		// Skip DuckDuckGo internal links
		if strings.Contains(urlStr, "duckduckgo.com") ||
			strings.HasPrefix(urlStr, "/") ||
			strings.HasPrefix(urlStr, "#") ||
			strings.HasPrefix(urlStr, "javascript:") {
			continue
		}

		// Skip if title is too short or looks like navigation
		if len(title) < 5 {
			continue
		}

		if seen[urlStr] {
			continue
		}
		seen[urlStr] = true

		results = append(results, models.SearchResult{
			Title: title,
			URL:   urlStr,
		})

		if len(results) >= ddgMaxResults {
			break
		}
	}

	return results
}

// cleanHTML removes HTML tags and decodes common entities
func cleanHTML(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, "")

	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", "\"")
	s = strings.ReplaceAll(s, "&#39;", "'")
	s = strings.ReplaceAll(s, "&nbsp;", " ")

	return strings.TrimSpace(s)
}
