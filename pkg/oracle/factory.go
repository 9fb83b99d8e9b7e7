package oracle

import (
	"fmt"

	"github.com/packfolio/concierge/pkg/ports"
)

// New creates the Generator for the configured mode.
func New(cfg Config) (ports.Generator, error) {
	switch cfg.Mode {
	case ModeWorkersAI:
		if cfg.AccountID == "" || cfg.APIKey == "" {
			return nil, fmt.Errorf("workers-ai: account id and api key are required")
		}
		return NewWorkersAI(cfg), nil

	case ModeOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai: api key is required")
		}
		return NewOpenAI(cfg), nil

	case ModeGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini: api key is required")
		}
		return NewGemini(cfg), nil

	case ModeSovereign:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("sovereign: base url is required")
		}
		return NewSovereign(cfg), nil

	case ModeOllama:
		return NewOllama(cfg), nil

	default:
		return nil, fmt.Errorf("unknown oracle mode: %q (valid: workers-ai, openai, gemini, sovereign, ollama)", cfg.Mode)
	}
}
