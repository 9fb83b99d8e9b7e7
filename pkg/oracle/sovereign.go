package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Sovereign targets a remote OpenAI-compatible endpoint operated inside a
// specific jurisdiction. Only the base URL and model differ from the
// standard chat-completions protocol.
type Sovereign struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

type sovereignMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type sovereignRequest struct {
	Model       string             `json:"model"`
	Messages    []sovereignMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
}

type sovereignResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewSovereign creates a sovereign-endpoint backend.
func NewSovereign(cfg Config) *Sovereign {
	model := cfg.Model
	if model == "" {
		model = "allam-1-13b-instruct"
	}
	return &Sovereign{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      model,
		httpClient: &http.Client{Timeout: cfg.timeout()},
	}
}

// Generate sends the prompt and returns the first choice's content.
func (c *Sovereign) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	msgs := []sovereignMessage{}
	if systemPrompt != "" {
		msgs = append(msgs, sovereignMessage{Role: "system", Content: systemPrompt})
	}
	msgs = append(msgs, sovereignMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(sovereignRequest{Model: c.model, Messages: msgs, Temperature: 0.2})
	if err != nil {
		return "", fmt.Errorf("sovereign: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("sovereign: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sovereign: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusErr("sovereign", resp)
	}

	var out sovereignResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("sovereign: decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("sovereign: api error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("sovereign: empty choices in response")
	}
	return out.Choices[0].Message.Content, nil
}
