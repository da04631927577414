package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/young1lin/scout/internal/config"
	"github.com/young1lin/scout/internal/fetch"
	"github.com/young1lin/scout/internal/llm"
	"github.com/young1lin/scout/internal/models"
	"github.com/young1lin/scout/internal/search"
	"github.com/young1lin/scout/internal/telemetry"
	"github.com/young1lin/scout/pkg/logger"
)

// Agent drives an LLM with registered research tools and turns the final
// completion into validated findings
type Agent struct {
	cfg      *config.Config
	llm      *llm.Client
	searcher *search.Manager
	fetcher  *fetch.Fetcher
	tools    *Registry
}

// New creates a research agent from config
func New(cfg *config.Config) *Agent {
	a := &Agent{
		cfg:      cfg,
		llm:      llm.NewClient(&cfg.LLM),
		searcher: search.NewManager(&cfg.WebSearch),
		fetcher:  fetch.New(cfg.Agent.FetchTimeout, cfg.Agent.FetchMaxChars),
		tools:    NewRegistry(),
	}
	a.registerTools()
	return a
}

// Searcher exposes the search manager, mainly for provider injection in tests
func (a *Agent) Searcher() *search.Manager {
	return a.searcher
}

// Research conducts research on a query and returns structured findings.
// Tool failures degrade silently; LLM transport or auth errors propagate
// unchanged to the caller.
func (a *Agent) Research(ctx context.Context, query string, maxResults int) (*models.ResearchFindings, error) {
	if maxResults <= 0 {
		maxResults = a.cfg.Agent.MaxSearchResults
	}

	logger.Info("starting research",
		zap.String("query", query),
		zap.Int("max_results", maxResults),
	)
	telemetry.Event("research_started", zap.String("query", query))

	deps := &models.ResearchDependencies{
		MaxSearchResults: maxResults,
	}

	messages := []models.ChatMessage{
		{Role: "system", Content: systemPrompt()},
		{Role: "user", Content: researchPrompt(query)},
	}

	resp, err := a.runToolLoop(ctx, deps, messages)
	if err != nil {
		telemetry.ErrorEvent("research_failed", err, zap.String("query", query))
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm returned no choices")
	}

	findings, err := parseFindings(query, resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	logger.Info("research completed",
		zap.String("query", query),
		zap.Int("findings_count", len(findings.KeyFindings)),
	)
	telemetry.Event("research_completed",
		zap.String("query", query),
		zap.Int("findings_count", len(findings.KeyFindings)),
	)

	return findings, nil
}

// QuickSearch performs a smaller research run and renders it as plain text
func (a *Agent) QuickSearch(ctx context.Context, query string) (string, error) {
	telemetry.Event("quick_search", zap.String("query", query))

	findings, err := a.Research(ctx, query, 3)
	if err != nil {
		return "", err
	}

	return RenderSummary(findings), nil
}

// runToolLoop sends the conversation to the model and executes tool calls
// until the model answers without requesting tools, up to the iteration cap
func (a *Agent) runToolLoop(ctx context.Context, deps *models.ResearchDependencies, messages []models.ChatMessage) (*models.ChatCompletionResponse, error) {
	maxIterations := a.cfg.Agent.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 5
	}

	for i := 0; i < maxIterations; i++ {
		logger.Debug("tool loop iteration",
			zap.Int("iteration", i+1),
			zap.Int("message_count", len(messages)),
		)

		currentReq := &models.ChatCompletionRequest{
			Messages: messages,
			Tools:    a.tools.Definitions(),
		}

		resp, err := a.llm.CreateChatCompletion(ctx, currentReq)
		if err != nil {
			return nil, err
		}

		if len(resp.Choices) == 0 {
			return resp, nil
		}

		choice := resp.Choices[0]
		if len(choice.Message.ToolCalls) == 0 {
			logger.Debug("no more tool calls, returning response")
			return resp, nil
		}

		logger.Info("executing tool calls", zap.Int("count", len(choice.Message.ToolCalls)))

		// Add assistant message with tool calls to messages
		messages = append(messages, models.ChatMessage{
			Role:      "assistant",
			Content:   choice.Message.Content,
			ToolCalls: choice.Message.ToolCalls,
		})

		for _, tc := range choice.Message.ToolCalls {
			result := a.tools.Dispatch(ctx, deps, tc.Function.Name, tc.Function.Arguments)
			messages = append(messages, models.ChatMessage{
				Role:       "tool",
				ToolCallID: tc.ID,
				Content:    result,
			})
		}
	}

	// Hit the iteration cap: one final request without tools so the model
	// has to answer with what it gathered
	finalReq := &models.ChatCompletionRequest{
		Messages: messages,
	}
	return a.llm.CreateChatCompletion(ctx, finalReq)
}

func systemPrompt() string {
	currentDate := time.Now().Format("January 2, 2006")
	return fmt.Sprintf(
		"You are an expert research assistant. Today's date is %s. "+
			"Your role is to help users find accurate, relevant information by searching "+
			"the web, analyzing content, and synthesizing findings. Always cite your sources "+
			"and provide clear, concise summaries of your research.",
		currentDate,
	)
}

func researchPrompt(query string) string {
	return fmt.Sprintf(`Research the following topic and provide comprehensive, detailed findings: %s

Use your knowledge and the available tools to provide specific, detailed information.

Provide your final answer in the following JSON format with SPECIFIC, DETAILED information (not generic placeholders):
{
    "query": %q,
    "summary": "A comprehensive, detailed summary of your findings with specific facts, numbers, and recent developments",
    "key_findings": ["Specific finding 1 with details", "Specific finding 2 with data", "Specific finding 3 with examples"],
    "sources": ["URL or reference 1", "URL or reference 2"]
}

If the tools returned no usable results, answer from your own knowledge and use an empty sources list.`, query, query)
}

// parseFindings extracts a JSON object from the model output and validates
// it. Output with no extractable JSON becomes fallback findings built from
// the raw text; extractable but invalid JSON structure is a hard error.
func parseFindings(query, text string) (*models.ResearchFindings, error) {
	jsonText, ok := extractJSONObject(text)
	if !ok {
		logger.Warn("no JSON object in model output, using raw text", zap.String("query", query))
		return fallbackFindings(query, text), nil
	}

	var findings models.ResearchFindings
	if err := json.Unmarshal([]byte(jsonText), &findings); err != nil {
		logger.Warn("model output JSON does not parse, using raw text",
			zap.String("query", query),
			zap.Error(err),
		)
		return fallbackFindings(query, text), nil
	}

	if findings.Query == "" {
		findings.Query = query
	}
	if findings.Timestamp == "" {
		findings.Timestamp = time.Now().Format(time.RFC3339)
	}
	if findings.Sources == nil {
		findings.Sources = []string{}
	}

	if err := findings.Validate(); err != nil {
		return nil, fmt.Errorf("structured output failed validation: %w", err)
	}

	return &findings, nil
}

// extractJSONObject returns the first-to-last brace span of the text, which
// tolerates prose or code fences around the JSON
func extractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// fallbackFindings wraps free-form model output when it ignored the JSON
// format instruction
func fallbackFindings(query, text string) *models.ResearchFindings {
	return models.NewFindings(
		query,
		text,
		[]string{
			"Research completed using available tools",
			"Findings synthesized from web search and content analysis",
		},
		[]string{"Agent analysis"},
	)
}

// RenderSummary formats findings as a plain-text report
func RenderSummary(f *models.ResearchFindings) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Research Query: %s\n\n", f.Query)
	fmt.Fprintf(&b, "Summary:\n%s\n\n", f.Summary)
	b.WriteString("Key Findings:\n")
	for i, finding := range f.KeyFindings {
		fmt.Fprintf(&b, "%d. %s\n", i+1, finding)
	}
	fmt.Fprintf(&b, "\nSources: %s\n", strings.Join(f.Sources, ", "))

	return b.String()
}
