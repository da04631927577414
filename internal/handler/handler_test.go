package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/young1lin/scout/internal/agent"
	"github.com/young1lin/scout/internal/config"
	"github.com/young1lin/scout/internal/storage"
)

func testHandler(t *testing.T, llmHandler http.HandlerFunc) *ResearchHandler {
	t.Helper()

	llmServer := httptest.NewServer(llmHandler)
	t.Cleanup(llmServer.Close)

	cfg := &config.Config{
		LLM: config.LLMConfig{
			BaseURL:    llmServer.URL,
			PathSuffix: "/chat/completions",
			APIKey:     "sk-test",
			Model:      "test-model",
			Timeout:    5,
		},
		Agent:     config.AgentConfig{MaxSearchResults: 5, MaxIterations: 5, FetchTimeout: 2},
		WebSearch: config.WebSearchConfig{Enabled: true},
	}

	store, err := storage.NewHistoryStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return NewResearchHandler(cfg, agent.New(cfg), store)
}

func llmFinalAnswer(w http.ResponseWriter) {
	fmt.Fprint(w, `{"choices": [{"message": {"role": "assistant", "content": "{\"query\": \"topic\", \"summary\": \"A summary.\", \"key_findings\": [\"one\"], \"sources\": []}"}, "finish_reason": "stop"}]}`)
}

func TestServeHTTP(t *testing.T) {
	t.Run("Health check", func(t *testing.T) {
		h := testHandler(t, func(w http.ResponseWriter, r *http.Request) { llmFinalAnswer(w) })

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "healthy") {
			t.Errorf("Unexpected health body: %s", rec.Body.String())
		}
		if rec.Header().Get("X-Trace-ID") == "" {
			t.Error("Expected trace ID header")
		}
	})

	t.Run("Research round trip with retrieval", func(t *testing.T) {
		h := testHandler(t, func(w http.ResponseWriter, r *http.Request) { llmFinalAnswer(w) })

		body := strings.NewReader(`{"query": "topic"}`)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/research", body))

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp researchResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to parse response: %v", err)
		}
		if resp.ID == "" {
			t.Error("Expected research ID")
		}
		if resp.Findings.Summary != "A summary." {
			t.Errorf("Unexpected summary: %q", resp.Findings.Summary)
		}

		// Stored findings are retrievable by ID
		rec2 := httptest.NewRecorder()
		h.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/v1/research/"+resp.ID, nil))
		if rec2.Code != http.StatusOK {
			t.Fatalf("Expected 200 on retrieval, got %d", rec2.Code)
		}
	})

	t.Run("Missing query is a bad request", func(t *testing.T) {
		h := testHandler(t, func(w http.ResponseWriter, r *http.Request) { llmFinalAnswer(w) })

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/research", strings.NewReader(`{}`)))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("LLM failure maps to bad gateway", func(t *testing.T) {
		h := testHandler(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/research", strings.NewReader(`{"query": "topic"}`)))

		if rec.Code != http.StatusBadGateway {
			t.Errorf("Expected 502, got %d", rec.Code)
		}
	})

	t.Run("Unknown findings ID is not found", func(t *testing.T) {
		h := testHandler(t, func(w http.ResponseWriter, r *http.Request) { llmFinalAnswer(w) })

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/research/res_missing", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})

	t.Run("Unknown endpoint is not found", func(t *testing.T) {
		h := testHandler(t, func(w http.ResponseWriter, r *http.Request) { llmFinalAnswer(w) })

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/unknown", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})
}
