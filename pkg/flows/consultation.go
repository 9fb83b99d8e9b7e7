package flows

import (
	"context"
	"strings"

	"github.com/packfolio/concierge/pkg/domain"
)

// runConsultation executes one turn of the current step's question phase.
// Answers are stored verbatim under the question id; the question index
// only moves on a valid answer.
func (h *Handler) runConsultation(ctx context.Context, mem *domain.Memory, input string) (Result, error) {
	phase, ok := h.Charter.Phase(mem.Step)
	if !ok || len(phase.Questions) == 0 {
		return h.advance(ctx, mem, "")
	}
	if mem.QuestionIndex >= len(phase.Questions) {
		// Phase already exhausted (e.g. after a repair). Move on.
		return h.advance(ctx, mem, "")
	}

	q := phase.Questions[mem.QuestionIndex]
	if strings.TrimSpace(input) == "" {
		return Result{Reply: renderQuestion(q)}, nil
	}

	if q.Validate != nil {
		if err := q.Validate(input); err != nil {
			return Result{Reply: err.Error()}, nil
		}
	}

	mem.Clipboard[q.ID] = input
	mem.QuestionIndex++

	if mem.QuestionIndex < len(phase.Questions) {
		return Result{Reply: renderQuestion(phase.Questions[mem.QuestionIndex])}, nil
	}
	return h.advance(ctx, mem, "")
}
