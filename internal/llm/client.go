package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/young1lin/scout/internal/config"
	"github.com/young1lin/scout/internal/models"
	"github.com/young1lin/scout/pkg/logger"
)

// Client talks to an OpenAI-compatible Chat Completions endpoint.
// Transport and upstream errors are returned as-is; callers own any
// degradation policy.
type Client struct {
	baseURL    string
	pathSuffix string
	apiKey     string
	model      string
	client     *http.Client
}

// NewClient creates a client from LLM config
func NewClient(cfg *config.LLMConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120
	}
	pathSuffix := cfg.PathSuffix
	if pathSuffix == "" {
		pathSuffix = "/chat/completions"
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		pathSuffix: pathSuffix,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		client: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
	}
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

// CreateChatCompletion sends a non-streaming chat completion request
func (c *Client) CreateChatCompletion(ctx context.Context, chatReq *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
	if chatReq.Model == "" {
		chatReq.Model = c.model
	}

	reqBody, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	targetURL := c.baseURL + c.pathSuffix

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	logger.Debug("llm response",
		zap.Int("status", resp.StatusCode),
		zap.Int("body_length", len(body)),
	)

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("llm error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chatResp models.ChatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &chatResp, nil
}

// Complete is a single-message convenience used for secondary completions
// such as content analysis
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	req := &models.ChatCompletionRequest{
		Model: c.model,
		Messages: []models.ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
