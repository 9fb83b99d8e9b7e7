package flows

import (
	"context"
	"strconv"
	"strings"

	"github.com/packfolio/concierge/pkg/domain"
	"github.com/packfolio/concierge/pkg/oracle"
)

const catalogApology = "I'm having trouble reaching our catalog right now. Please try again in a moment."

// restartSignals are replies that abandon a pending shortlist and return
// to free-text discovery.
var restartSignals = []string{"search", "change", "different"}

// runDiscovery matches free text against the active catalog via the
// decision oracle, or resolves a numeric pick from a pending shortlist.
func (h *Handler) runDiscovery(ctx context.Context, mem *domain.Memory, input string) (Result, error) {
	if len(mem.PendingMatches) > 0 {
		return h.resolvePending(ctx, mem, input)
	}

	catalog, err := h.Deps.Catalog(ctx)
	if err != nil {
		h.Deps.logger().Error("catalog fetch failed", "err", err)
		return Result{Reply: catalogApology}, nil
	}
	if len(catalog) == 0 {
		return Result{Reply: h.Charter.Discovery.FallbackReply}, nil
	}

	raw, err := h.Deps.Oracle.Generate(ctx, h.discoveryPrompt(mem, catalog, input), h.Charter.Discovery.SystemPrompt)
	if err != nil {
		h.Deps.logger().Warn("oracle call failed", "err", err)
		raw = ""
	}
	decision := oracle.ParseDiscovery(raw)

	switch decision.Kind {
	case domain.DecisionFound:
		pkg, ok := packageByID(catalog, decision.ID)
		if !ok {
			h.Deps.logger().Warn("oracle matched unknown package", "id", decision.ID)
			return Result{Reply: h.Charter.Discovery.FallbackReply}, nil
		}
		return h.selectPackage(ctx, mem, pkg, decision.Reason)

	case domain.DecisionMultiple:
		mem.PendingMatches = decision.Matches
		return Result{
			Reply:          presentMatches(mem.PendingMatches),
			ProductMatches: mem.PendingMatches,
		}, nil

	case domain.DecisionNone:
		return Result{Reply: h.Charter.Discovery.FallbackReply}, nil
	}
	// Conversational detour; state unchanged.
	return Result{Reply: decision.Reply}, nil
}

// resolvePending interprets input as a 1-based pick from the shortlist.
// Out-of-range or non-numeric replies re-present the same list, unless the
// user signals a fresh search.
func (h *Handler) resolvePending(ctx context.Context, mem *domain.Memory, input string) (Result, error) {
	trimmed := strings.TrimSpace(input)

	if n, err := strconv.Atoi(trimmed); err == nil {
		if n >= 1 && n <= len(mem.PendingMatches) {
			picked := mem.PendingMatches[n-1]
			catalog, err := h.Deps.Catalog(ctx)
			if err != nil {
				h.Deps.logger().Error("catalog fetch failed", "err", err)
				return Result{Reply: catalogApology}, nil
			}
			pkg, ok := packageByID(catalog, picked.CatalogID)
			if !ok {
				// The catalog moved under us; restart discovery.
				mem.PendingMatches = nil
				return Result{Reply: h.Charter.Discovery.FallbackReply}, nil
			}
			return h.selectPackage(ctx, mem, pkg, picked.Reason)
		}
		return Result{Reply: presentMatches(mem.PendingMatches), ProductMatches: mem.PendingMatches}, nil
	}

	lowered := strings.ToLower(trimmed)
	for _, signal := range restartSignals {
		if strings.Contains(lowered, signal) {
			mem.PendingMatches = nil
			return Result{Reply: h.Charter.Discovery.Prompt}, nil
		}
	}
	return Result{Reply: presentMatches(mem.PendingMatches), ProductMatches: mem.PendingMatches}, nil
}

// selectPackage records the choice and enters the variant step.
func (h *Handler) selectPackage(ctx context.Context, mem *domain.Memory, pkg domain.Package, reason string) (Result, error) {
	mem.SelectPackage(pkg)
	lead := "Great choice: " + h.cleanTitle(pkg.Title) + "."
	if reason != "" {
		lead += " " + reason
	}
	return h.advance(ctx, mem, lead)
}

// discoveryPrompt builds the oracle prompt: numbered catalog listing with
// internal markers stripped, plus any product context already collected.
func (h *Handler) discoveryPrompt(mem *domain.Memory, catalog []domain.Package, input string) string {
	var b strings.Builder
	b.WriteString("Catalog:\n")
	for i, pkg := range catalog {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". [id=")
		b.WriteString(pkg.ID)
		b.WriteString("] ")
		b.WriteString(h.cleanTitle(pkg.Title))
		if len(pkg.Variants) > 0 {
			names := make([]string, 0, len(pkg.Variants))
			for _, v := range pkg.Variants {
				names = append(names, v.Title)
			}
			b.WriteString(" (variants: ")
			b.WriteString(strings.Join(names, ", "))
			b.WriteString(")")
		}
		b.WriteString("\n")
	}

	if extra := h.productContext(mem); extra != "" {
		b.WriteString("\nCustomer context:\n")
		b.WriteString(extra)
	}
	b.WriteString("\nCustomer request: ")
	b.WriteString(input)
	return b.String()
}

func (h *Handler) productContext(mem *domain.Memory) string {
	var b strings.Builder
	for _, key := range h.Charter.Discovery.ContextKeys {
		if v, ok := mem.Clipboard[key]; ok && strings.TrimSpace(v) != "" {
			b.WriteString(key)
			b.WriteString(": ")
			b.WriteString(v)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// cleanTitle strips internal catalog markers from a package title.
func (h *Handler) cleanTitle(title string) string {
	for _, prefix := range h.Charter.Discovery.StripPrefixes {
		title = strings.TrimSpace(strings.TrimPrefix(title, prefix))
	}
	return title
}

func packageByID(catalog []domain.Package, id string) (domain.Package, bool) {
	for _, pkg := range catalog {
		if pkg.ID == id {
			return pkg, true
		}
	}
	return domain.Package{}, false
}

// presentMatches renders the numbered shortlist.
func presentMatches(matches []domain.Match) string {
	var b strings.Builder
	b.WriteString("I found a few candidates:")
	for i, m := range matches {
		b.WriteString("\n")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(m.Name)
		if m.Reason != "" {
			b.WriteString(" — ")
			b.WriteString(m.Reason)
		}
	}
	b.WriteString("\n\nReply with a number (1-")
	b.WriteString(strconv.Itoa(len(matches)))
	b.WriteString("), or say \"search\" to look for something else.")
	return b.String()
}
