// Package graph renders flow charters as Mermaid diagrams for
// documentation and debugging.
package graph

import (
	"fmt"
	"strings"

	"github.com/packfolio/concierge/pkg/charter"
	"github.com/packfolio/concierge/pkg/domain"
)

// Overlay contains session state to visualize on the diagram.
type Overlay struct {
	CurrentStep domain.Step
}

// GenerateMermaid produces a Mermaid flowchart for one charter.
// Semantic styling:
// - start: ((Circle))
// - consultation phases: [/Parallelogram/] (input)
// - discovery and variant selection: [[Subroutine]] (oracle call)
// - terminal order step: [Rectangle]
func GenerateMermaid(c charter.Charter, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, step := range c.Chain {
		safeID := sanitizeMermaidID(string(step))

		opener, closer := "[", "]"
		switch {
		case step == domain.StepStart:
			opener, closer = "((", "))" // Circle
		case step == domain.StepSelectPackage || step == domain.StepSelectVariant:
			opener, closer = "[[", "]]" // Subroutine (oracle-backed)
		case step.IsConsultation():
			opener, closer = "[/", "/]" // Parallelogram (input)
		}

		label := string(step)
		if phase, ok := c.Phase(step); ok {
			label = fmt.Sprintf("%s <br/> %d questions", step, len(phase.Questions))
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))

		if next := c.Next(step); next != "" {
			arrow := "-->"
			if step == domain.StepSelectVariant {
				// The variant step is skipped when only one variant exists.
				arrow = "-- \"choice made\" -->"
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeID, arrow, sanitizeMermaidID(string(next))))
		}
	}

	if overlay != nil && overlay.CurrentStep != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(string(overlay.CurrentStep))))
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return s
}
