package engine

import (
	"encoding/json"

	"github.com/packfolio/concierge/pkg/charter"
	"github.com/packfolio/concierge/pkg/domain"
)

// Request is the inbound chat body. Every field is optional; a body that
// fails to parse is treated as an empty request, never as a hard failure.
type Request struct {
	Message string `json:"message,omitempty"`
	Reset   bool   `json:"reset,omitempty"`
	Flow    string `json:"flow,omitempty"`
}

// ParseRequest decodes a request body tolerantly.
func ParseRequest(body []byte) Request {
	var req Request
	if len(body) == 0 {
		return req
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return Request{}
	}
	return req
}

// FlowState summarizes where the session stands after this turn.
type FlowState struct {
	Step          string `json:"step"`
	PackageName   string `json:"packageName,omitempty"`
	VariantName   string `json:"variantName,omitempty"`
	HasPackage    bool   `json:"hasPackage"`
	HasVariant    bool   `json:"hasVariant"`
	QuestionIndex int    `json:"questionIndex"`
}

// CurrentQuestion describes what the engine expects the user to answer next.
type CurrentQuestion struct {
	ID           string   `json:"id"`
	Question     string   `json:"question"`
	Options      []string `json:"options,omitempty"`
	Multiple     bool     `json:"multiple"`
	DefaultValue string   `json:"defaultValue,omitempty"`
}

// Envelope is the outbound chat response.
type Envelope struct {
	Reply           string             `json:"reply"`
	DraftOrder      *domain.DraftOrder `json:"draftOrder,omitempty"`
	ProductMatches  []domain.Match     `json:"productMatches,omitempty"`
	FlowState       FlowState          `json:"flowState"`
	Variants        []domain.Variant   `json:"variants,omitempty"`
	CurrentQuestion *CurrentQuestion   `json:"currentQuestion,omitempty"`
}

// buildEnvelope shapes the response from the post-turn memory.
func buildEnvelope(c charter.Charter, mem *domain.Memory, reply string, draft *domain.DraftOrder, matches []domain.Match) Envelope {
	env := Envelope{
		Reply:          reply,
		DraftOrder:     draft,
		ProductMatches: matches,
		FlowState: FlowState{
			Step:          string(mem.Step),
			PackageName:   mem.PackageName,
			VariantName:   mem.SelectedVariantName,
			HasPackage:    mem.PackageID != "",
			HasVariant:    mem.SelectedVariantID != "",
			QuestionIndex: mem.QuestionIndex,
		},
	}

	// Variants are exposed only while the user is choosing one.
	if mem.Step == domain.StepSelectVariant && mem.SelectedVariantID == "" {
		env.Variants = mem.Variants
	}

	if mem.Step.IsConsultation() {
		if phase, ok := c.Phase(mem.Step); ok && mem.QuestionIndex < len(phase.Questions) {
			q := phase.Questions[mem.QuestionIndex]
			env.CurrentQuestion = &CurrentQuestion{
				ID:           q.ID,
				Question:     q.Prompt,
				Options:      q.Options,
				Multiple:     q.Multiple,
				DefaultValue: q.Default,
			}
		}
	}
	return env
}
