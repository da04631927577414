package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/young1lin/scout/internal/config"
	"github.com/young1lin/scout/internal/models"
	"github.com/young1lin/scout/pkg/logger"
)

// Manager manages search providers. Keyed providers come from config; the
// DuckDuckGo scraper is always registered last as the keyless fallback.
type Manager struct {
	providers       map[string]Provider
	defaultProvider string
	fallback        Provider
	enabled         bool
}

// NewManager creates a new search manager
func NewManager(cfg *config.WebSearchConfig) *Manager {
	m := &Manager{
		providers:       make(map[string]Provider),
		defaultProvider: cfg.Default,
		enabled:         cfg.Enabled,
	}

	if !cfg.Enabled {
		logger.Info("web search is disabled")
		return m
	}

	// Dynamically create providers based on type
	for name, providerCfg := range cfg.Providers {
		if providerCfg.APIKey == "" {
			logger.Debug("skipping provider with no API key", zap.String("provider", name))
			continue
		}

		var provider Provider
		switch providerCfg.Type {
		case "mcp":
			provider = NewMCPProvider(name, &providerCfg)
		case "firecrawl":
			provider = NewFirecrawlProvider(name, &providerCfg)
		default:
			logger.Warn("unknown provider type, skipping",
				zap.String("provider", name),
				zap.String("type", providerCfg.Type))
			continue
		}

		m.providers[name] = provider
		logger.Info("provider initialized",
			zap.String("name", name),
			zap.String("type", providerCfg.Type),
		)
	}

	m.fallback = NewDuckDuckGoProvider()

	logger.Info("search manager initialized",
		zap.Bool("enabled", cfg.Enabled),
		zap.String("default_provider", cfg.Default),
		zap.Int("provider_count", len(m.providers)),
	)

	return m
}

// Register adds or replaces a provider by name
func (m *Manager) Register(p Provider) {
	m.providers[p.Name()] = p
}

// SetFallback replaces the keyless fallback provider
func (m *Manager) SetFallback(p Provider) {
	m.fallback = p
}

// HasConfiguredProvider returns true if at least one keyed provider is available
func (m *Manager) HasConfiguredProvider() bool {
	if !m.enabled {
		return false
	}
	for _, p := range m.providers {
		if p.IsAvailable() {
			return true
		}
	}
	return false
}

// Search performs a search using the default provider, falling back to any
// available provider and finally to the keyless scraper.
func (m *Manager) Search(ctx context.Context, query string) (*models.SearchProviderResult, error) {
	if !m.enabled {
		return nil, fmt.Errorf("web search is disabled")
	}

	// Try default provider first
	if m.defaultProvider != "" {
		if p, ok := m.providers[m.defaultProvider]; ok && p.IsAvailable() {
			if result, err := p.Search(ctx, query); err == nil {
				return result, nil
			} else {
				logger.Warn("default provider failed",
					zap.String("provider", m.defaultProvider),
					zap.Error(err),
				)
			}
		}
	}

	// Fall back to any available keyed provider
	for name, p := range m.providers {
		if name == m.defaultProvider || !p.IsAvailable() {
			continue
		}
		result, err := p.Search(ctx, query)
		if err == nil {
			return result, nil
		}
		logger.Debug("fallback provider failed",
			zap.String("provider", name),
			zap.Error(err),
		)
	}

	// Last resort: scrape
	if m.fallback != nil {
		logger.Debug("using scrape fallback", zap.String("query", query))
		return m.fallback.Search(ctx, query)
	}

	return nil, fmt.Errorf("no available search provider")
}

// SearchWithProvider performs a search using a specific provider
func (m *Manager) SearchWithProvider(ctx context.Context, providerName, query string) (*models.SearchProviderResult, error) {
	if !m.enabled {
		return nil, fmt.Errorf("web search is disabled")
	}

	p, ok := m.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", providerName)
	}

	if !p.IsAvailable() {
		return nil, fmt.Errorf("provider not available: %s", providerName)
	}

	return p.Search(ctx, query)
}

// FormatResults formats search results as a string for tool message content
func FormatResults(result *models.SearchProviderResult) string {
	if result == nil || len(result.Results) == 0 {
		return "No search results found."
	}

	output := fmt.Sprintf("Search results for: %s\n\n", result.Query)
	for i, r := range result.Results {
		output += fmt.Sprintf("%d. %s\n", i+1, r.Title)
		if r.URL != "" {
			output += fmt.Sprintf("   URL: %s\n", r.URL)
		}
		if r.Snippet != "" {
			output += fmt.Sprintf("   Summary: %s\n", r.Snippet)
		}
		if r.Content != "" && r.Content != r.Snippet {
			// Truncate content if too long
			content := r.Content
			if len(content) > 500 {
				content = content[:500] + "..."
			}
			output += fmt.Sprintf("   Content: %s\n", content)
		}
		output += "\n"
	}

	return output
}
