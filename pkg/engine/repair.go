package engine

import (
	"log/slog"
	"strings"

	"github.com/packfolio/concierge/pkg/charter"
	"github.com/packfolio/concierge/pkg/domain"
)

// repairRule is one declared (detected inconsistency -> corrective step)
// transition. Rules fire before dispatch so handlers never see memory that
// violates their step's preconditions.
type repairRule struct {
	name   string
	detect func(c charter.Charter, mem *domain.Memory) bool
	target domain.Step
}

var repairRules = []repairRule{
	{
		name: "package-spec step without a selected package",
		detect: func(c charter.Charter, mem *domain.Memory) bool {
			return mem.Step.RequiresPackage() && mem.PackageID == ""
		},
		target: domain.StepSelectPackage,
	},
	{
		name: "package selection without a product description",
		detect: func(c charter.Charter, mem *domain.Memory) bool {
			return mem.Step == domain.StepSelectPackage &&
				c.Contains(domain.StepProductDetails) &&
				strings.TrimSpace(mem.Clipboard["product_description"]) == ""
		},
		target: domain.StepProductDetails,
	},
}

// repair applies the declared rules until memory is consistent, then clamps
// the question index to the active phase. A corrected step is never shown
// to the user; the next prompt simply comes from the corrected position.
func repair(c charter.Charter, mem *domain.Memory, logger *slog.Logger) {
	// Rules can chain (spec step -> package selection -> product details),
	// bounded by the rule count.
	for range repairRules {
		fired := false
		for _, rule := range repairRules {
			if rule.detect(c, mem) && c.Contains(rule.target) {
				logger.Warn("repairing inconsistent session state",
					"rule", rule.name, "from", mem.Step, "to", rule.target)
				mem.Step = rule.target
				mem.QuestionIndex = 0
				// Moving the session abandons any in-progress selection;
				// a stale shortlist must not capture later discovery input.
				mem.PendingMatches = nil
				fired = true
			}
		}
		if !fired {
			break
		}
	}

	if !c.Contains(mem.Step) {
		logger.Warn("step not in flow chain, restarting", "flow", mem.Flow, "step", mem.Step)
		mem.Step = domain.StepStart
		mem.QuestionIndex = 0
		mem.PendingMatches = nil
	}

	if phase, ok := c.Phase(mem.Step); ok {
		if mem.QuestionIndex < 0 || mem.QuestionIndex > len(phase.Questions) {
			mem.QuestionIndex = 0
		}
	} else if mem.QuestionIndex != 0 {
		mem.QuestionIndex = 0
	}
}
