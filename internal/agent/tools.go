package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/young1lin/scout/internal/models"
	"github.com/young1lin/scout/internal/search"
	"github.com/young1lin/scout/internal/telemetry"
	"github.com/young1lin/scout/pkg/logger"
)

// ToolFunc executes one tool call. Handlers are fail-soft: they always
// return usable text for the model, never an error that would abort the
// dispatch loop.
type ToolFunc func(ctx context.Context, deps *models.ResearchDependencies, args json.RawMessage) string

// Registry holds the tools exposed to the model
type Registry struct {
	tools map[string]ToolFunc
	defs  []models.ChatTool
}

// NewRegistry creates an empty tool registry
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]ToolFunc)}
}

// Register adds a tool definition with its handler
func (r *Registry) Register(def models.ChatTool, fn ToolFunc) {
	r.tools[def.Function.Name] = fn
	r.defs = append(r.defs, def)
}

// Definitions returns the tool definitions for the chat request
func (r *Registry) Definitions() []models.ChatTool {
	return r.defs
}

// Dispatch runs the named tool. Unknown tools produce an error string as the
// tool result so the model can recover.
func (r *Registry) Dispatch(ctx context.Context, deps *models.ResearchDependencies, name string, args string) string {
	fn, ok := r.tools[name]
	if !ok {
		logger.Warn("model requested unknown tool", zap.String("tool", name))
		return fmt.Sprintf("Error: unknown tool %q", name)
	}
	telemetry.Event("tool_call",
		zap.String("tool", name),
		zap.String("arguments", args),
	)
	return fn(ctx, deps, json.RawMessage(args))
}

// registerTools wires the three research tools against this agent
func (a *Agent) registerTools() {
	a.tools.Register(models.ChatTool{
		Type: "function",
		Function: models.FunctionDef{
			Name:        "search_web",
			Description: "Search the web for information. Returns a numbered list of results with titles, URLs and snippets.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "The search query",
					},
				},
				"required": []string{"query"},
			},
		},
	}, func(ctx context.Context, deps *models.ResearchDependencies, args json.RawMessage) string {
		var parsed struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal(args, &parsed); err != nil {
			logger.Error("failed to parse search_web arguments", zap.Error(err))
			return "Error: invalid search_web arguments"
		}
		results := a.searchWeb(ctx, deps, parsed.Query)
		return search.FormatResults(&models.SearchProviderResult{
			Query:   parsed.Query,
			Results: results,
		})
	})

	a.tools.Register(models.ChatTool{
		Type: "function",
		Function: models.FunctionDef{
			Name:        "fetch_webpage_content",
			Description: "Fetch a webpage and return its text content, stripped of markup and truncated.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"url": map[string]interface{}{
						"type":        "string",
						"description": "The URL to fetch",
					},
				},
				"required": []string{"url"},
			},
		},
	}, func(ctx context.Context, deps *models.ResearchDependencies, args json.RawMessage) string {
		var parsed struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(args, &parsed); err != nil {
			logger.Error("failed to parse fetch_webpage_content arguments", zap.Error(err))
			return "Error: invalid fetch_webpage_content arguments"
		}
		return a.fetchWebpage(ctx, parsed.URL)
	})

	a.tools.Register(models.ChatTool{
		Type: "function",
		Function: models.FunctionDef{
			Name:        "analyze_content",
			Description: "Analyze a piece of content with a specific focus and return the focused extraction.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"content": map[string]interface{}{
						"type":        "string",
						"description": "The content to analyze",
					},
					"focus": map[string]interface{}{
						"type":        "string",
						"description": "What aspect to focus on",
					},
				},
				"required": []string{"content", "focus"},
			},
		},
	}, func(ctx context.Context, deps *models.ResearchDependencies, args json.RawMessage) string {
		var parsed struct {
			Content string `json:"content"`
			Focus   string `json:"focus"`
		}
		if err := json.Unmarshal(args, &parsed); err != nil {
			logger.Error("failed to parse analyze_content arguments", zap.Error(err))
			return "Error: invalid analyze_content arguments"
		}
		return a.analyzeContent(ctx, parsed.Content, parsed.Focus)
	})
}

// searchWeb searches through the manager's provider chain. On any failure it
// returns an empty slice and logs a warning; the model just sees no results.
func (a *Agent) searchWeb(ctx context.Context, deps *models.ResearchDependencies, query string) []models.SearchResult {
	result, err := a.searcher.Search(ctx, query)
	if err != nil {
		logger.Warn("web search failed",
			zap.String("query", query),
			zap.Error(err),
		)
		telemetry.ErrorEvent("search_failed", err, zap.String("query", query))
		return []models.SearchResult{}
	}

	results := result.Results
	if deps.MaxSearchResults > 0 && len(results) > deps.MaxSearchResults {
		results = results[:deps.MaxSearchResults]
	}

	telemetry.Event("search_completed",
		zap.String("query", query),
		zap.Int("result_count", len(results)),
	)
	return results
}

// fetchWebpage fetches and strips a page. On any failure it returns an
// explanatory placeholder instead of an error.
func (a *Agent) fetchWebpage(ctx context.Context, url string) string {
	content, err := a.fetcher.Fetch(ctx, url)
	if err != nil {
		logger.Warn("webpage fetch failed",
			zap.String("url", url),
			zap.Error(err),
		)
		telemetry.ErrorEvent("fetch_failed", err, zap.String("url", url))
		return fmt.Sprintf("Error fetching %s: %s", url, err.Error())
	}

	telemetry.Event("fetch_completed",
		zap.String("url", url),
		zap.Int("content_length", len(content)),
	)
	return content
}

// analyzeContent runs a secondary completion for a focused extraction. If
// the call fails the raw content is returned untransformed.
func (a *Agent) analyzeContent(ctx context.Context, content, focus string) string {
	system := "You are a precise analyst. Extract only what is relevant to the requested focus. Be concise and specific."
	user := fmt.Sprintf("Focus: %s\n\nContent:\n%s", focus, content)

	analysis, err := a.llm.Complete(ctx, system, user)
	if err != nil {
		logger.Warn("content analysis failed", zap.Error(err))
		telemetry.ErrorEvent("analyze_failed", err, zap.String("focus", focus))
		return content
	}

	telemetry.Event("analyze_completed",
		zap.String("focus", focus),
		zap.Int("content_length", len(content)),
	)
	return analysis
}
