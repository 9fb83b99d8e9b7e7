package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkersAI_Generate(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq workersAIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"result":  map[string]string{"response": `{"kind":"none"}`},
		})
	}))
	defer srv.Close()

	c := NewWorkersAI(Config{AccountID: "acc-1", APIKey: "key-1", BaseURL: srv.URL})

	out, err := c.Generate(context.Background(), "find me a box", "you are a matcher")

	require.NoError(t, err)
	assert.Equal(t, `{"kind":"none"}`, out)
	assert.Equal(t, "/accounts/acc-1/ai/run/"+defaultWorkersAIModel, gotPath)
	assert.Equal(t, "Bearer key-1", gotAuth)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Equal(t, "find me a box", gotReq.Messages[1].Content)
}

func TestWorkersAI_APIFailureIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"errors":  []map[string]any{{"code": 7009, "message": "model not found"}},
		})
	}))
	defer srv.Close()

	c := NewWorkersAI(Config{AccountID: "acc", APIKey: "k", BaseURL: srv.URL})

	_, err := c.Generate(context.Background(), "hi", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "7009")
	assert.Contains(t, err.Error(), "model not found")
}

func TestWorkersAI_NonOKStatusIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewWorkersAI(Config{AccountID: "acc", APIKey: "k", BaseURL: srv.URL})

	_, err := c.Generate(context.Background(), "hi", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestOpenAI_Generate(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "hello there"}},
			},
		})
	}))
	defer srv.Close()

	c := NewOpenAI(Config{APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-4o"})

	out, err := c.Generate(context.Background(), "say hi", "be brief")

	require.NoError(t, err)
	assert.Equal(t, "hello there", out)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o", gotBody["model"])
	msgs, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestOpenAI_EmptyChoicesIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := NewOpenAI(Config{APIKey: "sk", BaseURL: srv.URL})

	_, err := c.Generate(context.Background(), "hi", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty choices")
}

func TestGemini_ConfiguredModelSkipsDiscovery(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": "pinned"}}}},
			},
		})
	}))
	defer srv.Close()

	c := NewGemini(Config{APIKey: "g-key", BaseURL: srv.URL, Model: "gemini-2.0-flash"})

	out, err := c.Generate(context.Background(), "hi", "")

	require.NoError(t, err)
	assert.Equal(t, "pinned", out)
	require.Len(t, paths, 1)
	assert.Equal(t, "/models/gemini-2.0-flash:generateContent", paths[0])
}

func TestGemini_DiscoversAndRanksModels(t *testing.T) {
	var generatePath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(geminiModelList{Models: []geminiModelInfo{
				{Name: "models/gemini-2.5-pro", SupportedGenerationMethods: []string{"generateContent"}},
				{Name: "models/gemini-2.5-flash", SupportedGenerationMethods: []string{"generateContent"}},
				{Name: "models/gemini-3.0-flash-preview", SupportedGenerationMethods: []string{"generateContent"}},
				{Name: "models/gemini-1.5-flash", SupportedGenerationMethods: []string{"generateContent"}},
				{Name: "models/text-embedding-004", SupportedGenerationMethods: []string{"embedContent"}},
			}})
			return
		}
		generatePath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": "ok"}}}},
			},
		})
	}))
	defer srv.Close()

	c := NewGemini(Config{APIKey: "g-key", BaseURL: srv.URL})

	out, err := c.Generate(context.Background(), "hi", "")

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	// 2.5 flash wins: flash over pro, newest stable version, preview excluded.
	assert.Equal(t, "/models/gemini-2.5-flash:generateContent", generatePath)
}

func TestGemini_DiscoveryFailureUsesDefaultModel(t *testing.T) {
	var generatePath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			http.Error(w, "quota", http.StatusTooManyRequests)
			return
		}
		generatePath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": "ok"}}}},
			},
		})
	}))
	defer srv.Close()

	c := NewGemini(Config{APIKey: "g-key", BaseURL: srv.URL})

	_, err := c.Generate(context.Background(), "hi", "")

	require.NoError(t, err)
	assert.Equal(t, "/models/"+defaultGeminiModel+":generateContent", generatePath)
}

func TestGemini_ConcatenatesResponseParts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{
					{"text": `{"kind":`}, {"text": `"none"}`},
				}}},
			},
		})
	}))
	defer srv.Close()

	c := NewGemini(Config{APIKey: "g", BaseURL: srv.URL, Model: "gemini-2.0-flash"})

	out, err := c.Generate(context.Background(), "hi", "")

	require.NoError(t, err)
	assert.Equal(t, `{"kind":"none"}`, out)
}

func TestRankModels(t *testing.T) {
	tests := []struct {
		name   string
		models []geminiModelInfo
		want   string
	}{
		{
			name: "flash beats pro at same version",
			models: []geminiModelInfo{
				{Name: "models/gemini-2.0-pro", SupportedGenerationMethods: []string{"generateContent"}},
				{Name: "models/gemini-2.0-flash", SupportedGenerationMethods: []string{"generateContent"}},
			},
			want: "gemini-2.0-flash",
		},
		{
			name: "newer version wins within family",
			models: []geminiModelInfo{
				{Name: "models/gemini-1.5-flash", SupportedGenerationMethods: []string{"generateContent"}},
				{Name: "models/gemini-2.5-flash", SupportedGenerationMethods: []string{"generateContent"}},
			},
			want: "gemini-2.5-flash",
		},
		{
			name: "unstable and non-text variants are skipped",
			models: []geminiModelInfo{
				{Name: "models/gemini-9.9-flash-preview", SupportedGenerationMethods: []string{"generateContent"}},
				{Name: "models/gemini-2.0-flash-exp", SupportedGenerationMethods: []string{"generateContent"}},
				{Name: "models/gemini-2.0-flash-live", SupportedGenerationMethods: []string{"generateContent"}},
				{Name: "models/gemini-1.5-flash", SupportedGenerationMethods: []string{"generateContent"}},
			},
			want: "gemini-1.5-flash",
		},
		{
			name: "models without generateContent are skipped",
			models: []geminiModelInfo{
				{Name: "models/gemini-2.5-flash", SupportedGenerationMethods: []string{"embedContent"}},
			},
			want: "",
		},
		{
			name:   "empty catalog",
			models: nil,
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rankModels(tt.models))
		})
	}
}

func TestSovereign_Generate(t *testing.T) {
	var gotReq sovereignRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "أهلاً"}},
			},
		})
	}))
	defer srv.Close()

	c := NewSovereign(Config{BaseURL: srv.URL})

	out, err := c.Generate(context.Background(), "مرحبا", "")

	require.NoError(t, err)
	assert.Equal(t, "أهلاً", out)
	assert.Equal(t, "allam-1-13b-instruct", gotReq.Model)
}

func TestSovereign_APIErrorIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "invalid model"},
		})
	}))
	defer srv.Close()

	c := NewSovereign(Config{BaseURL: srv.URL})

	_, err := c.Generate(context.Background(), "hi", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model")
}

func TestOllama_Generate(t *testing.T) {
	var gotReq ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(ollamaResponse{Response: "local answer"})
	}))
	defer srv.Close()

	c := NewOllama(Config{BaseURL: srv.URL, Model: "llama3.1"})

	out, err := c.Generate(context.Background(), "hi", "system here")

	require.NoError(t, err)
	assert.Equal(t, "local answer", out)
	assert.False(t, gotReq.Stream)
	assert.Equal(t, "system here", gotReq.System)
}

func TestOllama_APIErrorIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaResponse{Error: "model not loaded"})
	}))
	defer srv.Close()

	c := NewOllama(Config{BaseURL: srv.URL})

	_, err := c.Generate(context.Background(), "hi", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestNew_ValidatesPerMode(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"workers-ai without account", Config{Mode: ModeWorkersAI, APIKey: "k"}, "account id"},
		{"workers-ai without key", Config{Mode: ModeWorkersAI, AccountID: "a"}, "api key"},
		{"openai without key", Config{Mode: ModeOpenAI}, "api key"},
		{"gemini without key", Config{Mode: ModeGemini}, "api key"},
		{"sovereign without base url", Config{Mode: ModeSovereign, APIKey: "k"}, "base url"},
		{"unknown mode", Config{Mode: "bard"}, "unknown oracle mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew_BuildsEachBackend(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"workers-ai", Config{Mode: ModeWorkersAI, AccountID: "a", APIKey: "k"}},
		{"openai", Config{Mode: ModeOpenAI, APIKey: "k"}},
		{"gemini", Config{Mode: ModeGemini, APIKey: "k"}},
		{"sovereign", Config{Mode: ModeSovereign, BaseURL: "https://api.example.sa/v1"}},
		{"ollama needs nothing", Config{Mode: ModeOllama}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, g)
		})
	}
}
