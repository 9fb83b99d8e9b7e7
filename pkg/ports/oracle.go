package ports

import "context"

// Generator is the decision-oracle capability: one text in, one text out.
// Provider specifics (request shapes, auth, model selection) live entirely
// behind this interface.
type Generator interface {
	Generate(ctx context.Context, prompt, systemPrompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt, systemPrompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	return f(ctx, prompt, systemPrompt)
}
