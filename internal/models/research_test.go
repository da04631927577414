package models

import (
	"testing"
)

func TestResearchFindingsValidate(t *testing.T) {
	t.Run("Valid findings", func(t *testing.T) {
		f := &ResearchFindings{
			Query:       "benefits of static typing",
			Summary:     "Static typing catches a class of bugs before runtime.",
			KeyFindings: []string{"Fewer runtime type errors", "Better tooling"},
			Sources:     []string{"https://example.com/types"},
			Timestamp:   "2026-08-29T10:00:00Z",
		}
		if err := f.Validate(); err != nil {
			t.Errorf("Expected valid findings, got error: %v", err)
		}
	})

	t.Run("Empty sources list is valid", func(t *testing.T) {
		f := &ResearchFindings{
			Query:       "some topic",
			Summary:     "Answered from model knowledge only.",
			KeyFindings: []string{"One finding"},
			Sources:     []string{},
			Timestamp:   "2026-08-29T10:00:00Z",
		}
		if err := f.Validate(); err != nil {
			t.Errorf("Expected empty sources to be valid, got error: %v", err)
		}
	})

	t.Run("Missing query", func(t *testing.T) {
		f := &ResearchFindings{
			Summary:     "summary",
			KeyFindings: []string{"finding"},
			Sources:     []string{},
			Timestamp:   "2026-08-29T10:00:00Z",
		}
		if err := f.Validate(); err == nil {
			t.Error("Expected validation error for missing query")
		}
	})

	t.Run("No key findings", func(t *testing.T) {
		f := &ResearchFindings{
			Query:       "topic",
			Summary:     "summary",
			KeyFindings: []string{},
			Sources:     []string{},
			Timestamp:   "2026-08-29T10:00:00Z",
		}
		if err := f.Validate(); err == nil {
			t.Error("Expected validation error for empty key findings")
		}
	})

	t.Run("Missing timestamp", func(t *testing.T) {
		f := &ResearchFindings{
			Query:       "topic",
			Summary:     "summary",
			KeyFindings: []string{"finding"},
			Sources:     []string{},
		}
		if err := f.Validate(); err == nil {
			t.Error("Expected validation error for missing timestamp")
		}
	})
}

func TestNewFindings(t *testing.T) {
	f := NewFindings("topic", "summary", []string{"finding"}, nil)

	if f.Timestamp == "" {
		t.Error("Expected timestamp to be set")
	}
	if f.Sources == nil {
		t.Error("Expected nil sources to be normalized to empty list")
	}
	if err := f.Validate(); err != nil {
		t.Errorf("Expected constructed findings to validate, got: %v", err)
	}
}
