package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const defaultWorkersAIModel = "@cf/meta/llama-3.1-8b-instruct"

// WorkersAI runs a small hosted model on Cloudflare Workers AI.
type WorkersAI struct {
	accountID  string
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

type workersAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type workersAIRequest struct {
	Messages []workersAIMessage `json:"messages"`
}

type workersAIResponse struct {
	Result struct {
		Response string `json:"response"`
	} `json:"result"`
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// NewWorkersAI creates a Workers AI backend.
func NewWorkersAI(cfg Config) *WorkersAI {
	model := cfg.Model
	if model == "" {
		model = defaultWorkersAIModel
	}
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.cloudflare.com/client/v4"
	}
	return &WorkersAI{
		accountID:  cfg.AccountID,
		apiKey:     cfg.APIKey,
		baseURL:    base,
		model:      model,
		httpClient: &http.Client{Timeout: cfg.timeout()},
	}
}

// Generate sends the prompt and returns the model's text response.
func (c *WorkersAI) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	msgs := []workersAIMessage{}
	if systemPrompt != "" {
		msgs = append(msgs, workersAIMessage{Role: "system", Content: systemPrompt})
	}
	msgs = append(msgs, workersAIMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(workersAIRequest{Messages: msgs})
	if err != nil {
		return "", fmt.Errorf("workers-ai: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/accounts/%s/ai/run/%s", c.baseURL, c.accountID, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("workers-ai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("workers-ai: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusErr("workers-ai", resp)
	}

	var out workersAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("workers-ai: decode response: %w", err)
	}
	if !out.Success {
		if len(out.Errors) > 0 {
			return "", fmt.Errorf("workers-ai: api error %d: %s", out.Errors[0].Code, out.Errors[0].Message)
		}
		return "", fmt.Errorf("workers-ai: api reported failure")
	}
	return out.Result.Response, nil
}
