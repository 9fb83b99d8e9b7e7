// Package flows implements the per-step conversation handlers shared by
// every flow: consultation phases, catalog discovery, variant matching and
// the terminal order step. A Handler is a pure state transformer over
// domain.Memory; all I/O reaches it through Deps.
package flows

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/packfolio/concierge/pkg/charter"
	"github.com/packfolio/concierge/pkg/domain"
	"github.com/packfolio/concierge/pkg/ports"
)

// Result is what a flow handler hands back to the session engine.
type Result struct {
	Reply string

	// MemoryReset signals that the session memory must be deleted instead
	// of persisted (set by the terminal order step on success).
	MemoryReset bool

	DraftOrder     *domain.DraftOrder
	ProductMatches []domain.Match
}

// Deps carries the collaborators a handler may call. Catalog and Order are
// closures bound to the request's shop identity by the engine.
type Deps struct {
	Oracle  ports.Generator
	Catalog func(ctx context.Context) ([]domain.Package, error)
	Order   func(ctx context.Context, variantID string, quantity int, note string, custom []domain.LineItem) (*domain.DraftOrder, error)
	Logger  *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// Handler drives one flow according to its charter.
type Handler struct {
	Charter charter.Charter
	Deps    Deps
}

// New creates a handler for the given charter.
func New(c charter.Charter, deps Deps) *Handler {
	return &Handler{Charter: c, Deps: deps}
}

// Handle dispatches the user input to the logic of the current step and
// mutates memory in place. Persisting (or deleting) memory afterwards is
// the caller's job.
func (h *Handler) Handle(ctx context.Context, mem *domain.Memory, input string) (Result, error) {
	switch {
	case mem.Step == "" || mem.Step == domain.StepStart:
		return h.advance(ctx, mem, h.Charter.Welcome)
	case mem.Step == domain.StepSelectPackage:
		return h.runDiscovery(ctx, mem, input)
	case mem.Step == domain.StepSelectVariant:
		return h.runVariant(ctx, mem, input)
	case mem.Step == domain.StepDraftOrder:
		return h.placeOrder(ctx, mem, "")
	case mem.Step.IsConsultation():
		return h.runConsultation(ctx, mem, input)
	}

	// A step the chain doesn't know. Restart the flow rather than wedge
	// the session.
	h.Deps.logger().Warn("unknown step, restarting flow", "flow", mem.Flow, "step", mem.Step)
	mem.Step = domain.StepStart
	mem.QuestionIndex = 0
	return h.advance(ctx, mem, h.Charter.Welcome)
}

// advance moves memory to the step after the current one and produces the
// entry reply for it. lead is prefixed to whatever the next step says.
func (h *Handler) advance(ctx context.Context, mem *domain.Memory, lead string) (Result, error) {
	next := h.Charter.Next(mem.Step)
	if next == "" {
		return Result{Reply: join(lead, "That's everything I needed. Type reset to start over.")}, nil
	}
	mem.Step = next
	mem.QuestionIndex = 0
	return h.enter(ctx, mem, lead)
}

// enter produces the reply shown when a step becomes current. A variant
// step with exactly one variant is selected automatically and skipped;
// with none it is skipped outright.
func (h *Handler) enter(ctx context.Context, mem *domain.Memory, lead string) (Result, error) {
	switch {
	case mem.Step == domain.StepDraftOrder:
		return h.placeOrder(ctx, mem, lead)
	case mem.Step == domain.StepSelectPackage:
		return Result{Reply: join(lead, h.Charter.Discovery.Prompt)}, nil
	case mem.Step == domain.StepSelectVariant:
		if len(mem.Variants) == 0 {
			return h.advance(ctx, mem, lead)
		}
		if len(mem.Variants) == 1 {
			mem.SelectVariant(mem.Variants[0])
			return h.advance(ctx, mem, join(lead, "Only one option here: "+mem.SelectedVariantName+", so I've picked it for you."))
		}
		return Result{Reply: join(lead, variantListing(mem.Variants), h.Charter.Variant.Reprompt)}, nil
	case mem.Step.IsConsultation():
		if phase, ok := h.Charter.Phase(mem.Step); ok && len(phase.Questions) > 0 {
			return Result{Reply: join(lead, phase.Intro, renderQuestion(phase.Questions[0]))}, nil
		}
		// Phase without questions: nothing to ask, move on.
		return h.advance(ctx, mem, lead)
	}
	return Result{Reply: join(lead, h.Charter.Discovery.Prompt)}, nil
}

// renderQuestion formats a question with its options metadata.
func renderQuestion(q charter.Question) string {
	s := q.Prompt
	if len(q.Options) > 0 {
		s += "\nOptions: " + strings.Join(q.Options, ", ")
		if q.Multiple {
			s += " (you can pick several)"
		}
		if q.Default != "" {
			s += " (default: " + q.Default + ")"
		}
	}
	return s
}

// variantListing renders the numbered variant list shown to the user.
func variantListing(variants []domain.Variant) string {
	var b strings.Builder
	b.WriteString("Available options:")
	for i, v := range variants {
		b.WriteString("\n")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(v.Title)
		if v.Price != "" {
			b.WriteString(" — ")
			b.WriteString(v.Price)
		}
	}
	return b.String()
}

// join concatenates non-blank parts as paragraphs.
func join(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
