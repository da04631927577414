package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/young1lin/scout/internal/config"
	"github.com/young1lin/scout/internal/models"
)

func testClient(ts *httptest.Server) *Client {
	return NewClient(&config.LLMConfig{
		BaseURL:    ts.URL,
		PathSuffix: "/chat/completions",
		APIKey:     "sk-test",
		Model:      "test-model",
		Timeout:    5,
	})
}

func TestCreateChatCompletion(t *testing.T) {
	t.Run("Sends auth and default model", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
				t.Errorf("Unexpected Authorization header: %q", got)
			}
			if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
				t.Errorf("Unexpected path: %s", r.URL.Path)
			}

			var req models.ChatCompletionRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.Model != "test-model" {
				t.Errorf("Expected default model to be filled in, got %q", req.Model)
			}

			fmt.Fprint(w, `{"id": "chatcmpl-1", "choices": [{"index": 0, "message": {"role": "assistant", "content": "hello"}, "finish_reason": "stop"}]}`)
		}))
		defer ts.Close()

		c := testClient(ts)
		resp, err := c.CreateChatCompletion(context.Background(), &models.ChatCompletionRequest{
			Messages: []models.ChatMessage{{Role: "user", Content: "hi"}},
		})
		if err != nil {
			t.Fatalf("CreateChatCompletion failed: %v", err)
		}
		if resp.Choices[0].Message.Content != "hello" {
			t.Errorf("Unexpected content: %q", resp.Choices[0].Message.Content)
		}
	})

	t.Run("Upstream error surfaces status and body", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error": {"type": "auth", "message": "bad key"}}`)
		}))
		defer ts.Close()

		c := testClient(ts)
		_, err := c.CreateChatCompletion(context.Background(), &models.ChatCompletionRequest{})
		if err == nil {
			t.Fatal("Expected error for 401 response")
		}
		if !strings.Contains(err.Error(), "status 401") || !strings.Contains(err.Error(), "bad key") {
			t.Errorf("Expected status and body in error, got: %v", err)
		}
	})

	t.Run("Malformed response body is an error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "not json at all")
		}))
		defer ts.Close()

		c := testClient(ts)
		if _, err := c.CreateChatCompletion(context.Background(), &models.ChatCompletionRequest{}); err == nil {
			t.Error("Expected parse error")
		}
	})
}

func TestComplete(t *testing.T) {
	t.Run("Returns first choice content", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req models.ChatCompletionRequest
			json.NewDecoder(r.Body).Decode(&req)
			if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
				t.Errorf("Expected system+user messages, got %+v", req.Messages)
			}
			fmt.Fprint(w, `{"choices": [{"message": {"role": "assistant", "content": "analysis"}}]}`)
		}))
		defer ts.Close()

		c := testClient(ts)
		got, err := c.Complete(context.Background(), "be precise", "analyze this")
		if err != nil {
			t.Fatalf("Complete failed: %v", err)
		}
		if got != "analysis" {
			t.Errorf("Unexpected completion: %q", got)
		}
	})

	t.Run("No choices is an error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"choices": []}`)
		}))
		defer ts.Close()

		c := testClient(ts)
		if _, err := c.Complete(context.Background(), "s", "u"); err == nil {
			t.Error("Expected error for empty choices")
		}
	})
}
