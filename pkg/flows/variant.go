package flows

import (
	"context"
	"strconv"
	"strings"

	"github.com/packfolio/concierge/pkg/domain"
	"github.com/packfolio/concierge/pkg/oracle"
)

// runVariant resolves the user's free-text (or numeric) choice against the
// selected package's variants.
func (h *Handler) runVariant(ctx context.Context, mem *domain.Memory, input string) (Result, error) {
	if len(mem.Variants) == 0 {
		// Nothing to choose from; treat the selection as done.
		return h.advance(ctx, mem, "")
	}

	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Result{Reply: join(variantListing(mem.Variants), h.Charter.Variant.Reprompt)}, nil
	}

	// Numeric shortcut against the presented list.
	if n, err := strconv.Atoi(trimmed); err == nil {
		if n >= 1 && n <= len(mem.Variants) {
			mem.SelectVariant(mem.Variants[n-1])
			return h.advance(ctx, mem, "Noted: "+mem.SelectedVariantName+".")
		}
		return Result{Reply: join(variantListing(mem.Variants), h.Charter.Variant.Reprompt)}, nil
	}

	raw, err := h.Deps.Oracle.Generate(ctx, h.variantPrompt(mem, input), h.Charter.Variant.SystemPrompt)
	if err != nil {
		h.Deps.logger().Warn("oracle call failed", "err", err)
		raw = ""
	}
	decision := oracle.ParseVariant(raw)

	if decision.Match {
		if v, ok := mem.VariantByID(decision.ID); ok {
			mem.SelectVariant(v)
			return h.advance(ctx, mem, "Noted: "+v.Title+".")
		}
		h.Deps.logger().Warn("oracle matched unknown variant", "id", decision.ID)
	}
	if strings.TrimSpace(decision.Reply) != "" {
		return Result{Reply: decision.Reply}, nil
	}
	return Result{Reply: join(variantListing(mem.Variants), h.Charter.Variant.Reprompt)}, nil
}

func (h *Handler) variantPrompt(mem *domain.Memory, input string) string {
	var b strings.Builder
	b.WriteString("Package: ")
	b.WriteString(mem.PackageName)
	b.WriteString("\nVariants:\n")
	for _, v := range mem.Variants {
		b.WriteString("- [id=")
		b.WriteString(v.ID)
		b.WriteString("] ")
		b.WriteString(v.Title)
		if v.Price != "" {
			b.WriteString(" (")
			b.WriteString(v.Price)
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	b.WriteString("Customer choice: ")
	b.WriteString(input)
	return b.String()
}
