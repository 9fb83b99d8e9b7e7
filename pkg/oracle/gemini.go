package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-2.0-flash"
)

// Gemini is the Gemini API backend. When no model is configured it lists
// the provider's model catalog on each call and picks the best candidate;
// discovery failures fall back to the hardcoded default.
type Gemini struct {
	apiKey     string
	baseURL    string
	model      string // empty means discover per call
	httpClient *http.Client
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiModelList struct {
	Models []geminiModelInfo `json:"models"`
}

type geminiModelInfo struct {
	Name                       string   `json:"name"` // "models/gemini-2.5-flash"
	SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
}

// NewGemini creates a Gemini backend.
func NewGemini(cfg Config) *Gemini {
	base := cfg.BaseURL
	if base == "" {
		base = defaultGeminiBaseURL
	}
	return &Gemini{
		apiKey:     cfg.APIKey,
		baseURL:    base,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.timeout()},
	}
}

// Generate resolves a model and sends the prompt.
func (c *Gemini) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	model := c.model
	if model == "" {
		model = c.discoverModel(ctx)
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}
	if systemPrompt != "" {
		reqBody.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}}
	}
	reqBody.GenerationConfig.Temperature = 0.2

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusErr("gemini", resp)
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if len(out.Candidates) == 0 {
		return "", fmt.Errorf("gemini: empty candidates in response")
	}

	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// discoverModel lists the model catalog and ranks it. Any failure returns
// the hardcoded default; correctness matters more here than saving a call.
func (c *Gemini) discoverModel(ctx context.Context) string {
	url := fmt.Sprintf("%s/models?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return defaultGeminiModel
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return defaultGeminiModel
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return defaultGeminiModel
	}

	var list geminiModelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return defaultGeminiModel
	}

	if best := rankModels(list.Models); best != "" {
		return best
	}
	return defaultGeminiModel
}

// excludedModelMarkers filters out variants that are unstable or not meant
// for plain text generation (previews, experiments, live/interactive-only
// models, media and embedding models).
var excludedModelMarkers = []string{"preview", "exp", "live", "tts", "image", "vision", "embedding", "aqa"}

// rankModels picks the preferred generation model: flash family first
// (fast and cost-efficient), newest version within the family, stable
// variants only. Returns "" when nothing qualifies.
func rankModels(models []geminiModelInfo) string {
	type candidate struct {
		name    string
		flash   bool
		version float64
	}

	var candidates []candidate
	for _, m := range models {
		if !supportsGeneration(m) {
			continue
		}
		name := strings.TrimPrefix(m.Name, "models/")
		lower := strings.ToLower(name)
		if !strings.HasPrefix(lower, "gemini-") {
			continue
		}
		if hasAnyMarker(lower, excludedModelMarkers) {
			continue
		}
		candidates = append(candidates, candidate{
			name:    name,
			flash:   strings.Contains(lower, "flash"),
			version: modelVersion(lower),
		})
	}
	if len(candidates) == 0 {
		return ""
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.flash != b.flash {
			return a.flash
		}
		if a.version != b.version {
			return a.version > b.version
		}
		return a.name > b.name
	})
	return candidates[0].name
}

func supportsGeneration(m geminiModelInfo) bool {
	for _, method := range m.SupportedGenerationMethods {
		if method == "generateContent" {
			return true
		}
	}
	return false
}

func hasAnyMarker(name string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// modelVersion extracts the numeric version from names like
// "gemini-2.5-flash". Unparseable names rank lowest.
func modelVersion(name string) float64 {
	rest := strings.TrimPrefix(name, "gemini-")
	end := 0
	for end < len(rest) && (rest[end] == '.' || (rest[end] >= '0' && rest[end] <= '9')) {
		end++
	}
	v, err := strconv.ParseFloat(rest[:end], 64)
	if err != nil {
		return 0
	}
	return v
}
