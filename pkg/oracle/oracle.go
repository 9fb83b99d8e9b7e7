// Package oracle adapts interchangeable AI backends behind the single
// ports.Generator capability and turns their raw text output into typed
// decisions. Provider selection is configuration-driven; each backend only
// builds its own request body and extracts the response text.
package oracle

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// Mode selects the active backend.
type Mode string

const (
	// ModeWorkersAI runs a small hosted model on Cloudflare Workers AI.
	ModeWorkersAI Mode = "workers-ai"
	// ModeOpenAI uses the OpenAI chat completions API.
	ModeOpenAI Mode = "openai"
	// ModeGemini uses the Gemini API with dynamic model discovery.
	ModeGemini Mode = "gemini"
	// ModeSovereign targets a remote OpenAI-compatible sovereign endpoint.
	ModeSovereign Mode = "sovereign"
	// ModeOllama targets a local/offline Ollama instance.
	ModeOllama Mode = "ollama"
)

// Config holds the settings shared by all backends. Fields irrelevant to
// the selected mode are ignored.
type Config struct {
	Mode      Mode
	APIKey    string
	Model     string // optional override; backends have their own defaults
	BaseURL   string // required for sovereign, optional elsewhere
	AccountID string // Workers AI account
	Timeout   time.Duration
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 2 * time.Minute
}

// readBody drains a response body for error reporting, truncated so a
// misbehaving upstream cannot flood the logs.
func readBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	return string(b)
}

func statusErr(provider string, resp *http.Response) error {
	return fmt.Errorf("%s: unexpected status %d: %s", provider, resp.StatusCode, readBody(resp.Body))
}
