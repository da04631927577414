package models

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SearchResult represents a single search result
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Snippet string  `json:"snippet,omitempty"`
	Content string  `json:"content,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// SearchProviderResult represents the result from a search provider
type SearchProviderResult struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Error   string         `json:"error,omitempty"`
}

// ResearchFindings is the structured output of a research run.
// Sources are whatever the model composed; they are not cross-checked
// against the URLs the tools actually touched.
type ResearchFindings struct {
	Query       string   `json:"query" validate:"required"`
	Summary     string   `json:"summary" validate:"required"`
	KeyFindings []string `json:"key_findings" validate:"required,min=1,dive,required"`
	Sources     []string `json:"sources" validate:"required"`
	Timestamp   string   `json:"timestamp" validate:"required"`
}

// Validate checks that all required fields are populated
func (f *ResearchFindings) Validate() error {
	return validate.Struct(f)
}

// NewFindings constructs findings stamped with the current time
func NewFindings(query, summary string, keyFindings, sources []string) *ResearchFindings {
	if sources == nil {
		sources = []string{}
	}
	return &ResearchFindings{
		Query:       query,
		Summary:     summary,
		KeyFindings: keyFindings,
		Sources:     sources,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

// ResearchDependencies is the per-call context handed to each tool invocation.
// It lives for exactly one research run.
type ResearchDependencies struct {
	HTTPClient       *http.Client
	MaxSearchResults int
}
