// Package charter holds the static, versioned configuration governing each
// flow: its step chain, discovery and variant-matching rules, and the
// ordered consultation question sets. Charters are built once and treated
// as read-only; handlers receive them as parameters.
package charter

import "github.com/packfolio/concierge/pkg/domain"

// Question is one step of a consultation phase.
type Question struct {
	ID       string
	Prompt   string
	Options  []string
	Multiple bool
	Default  string

	// Validate rejects an answer with a corrective message. Nil means any
	// non-blank answer is accepted.
	Validate func(answer string) error
}

// Phase is an ordered question set attached to one flow step.
type Phase struct {
	Intro     string
	Questions []Question
}

// DiscoveryRules configures the catalog discovery prompt for a flow.
type DiscoveryRules struct {
	SystemPrompt  string
	Prompt        string // shown when entering the discovery step
	FallbackReply string // decision kind "none"
	// ContextKeys are clipboard entries appended to the discovery prompt as
	// already-collected product context.
	ContextKeys []string
	// StripPrefixes are internal catalog markers removed from listings
	// before they reach the oracle or the user.
	StripPrefixes []string
}

// VariantRules configures variant matching for a flow.
type VariantRules struct {
	SystemPrompt string
	Reprompt     string
}

// Meta identifies a charter revision.
type Meta struct {
	Flow    domain.Flow
	Title   string
	Version int
}

// Charter is the full static configuration of one flow.
type Charter struct {
	Meta      Meta
	Welcome   string
	Chain     []domain.Step
	Discovery DiscoveryRules
	Variant   VariantRules
	Phases    map[domain.Step]Phase
}

// Next returns the step following s in the chain, or "" at the end.
func (c Charter) Next(s domain.Step) domain.Step {
	for i, step := range c.Chain {
		if step == s && i+1 < len(c.Chain) {
			return c.Chain[i+1]
		}
	}
	return ""
}

// Contains reports whether the chain includes the given step.
func (c Charter) Contains(s domain.Step) bool {
	for _, step := range c.Chain {
		if step == s {
			return true
		}
	}
	return false
}

// Phase returns the consultation phase for a step, if any.
func (c Charter) Phase(s domain.Step) (Phase, bool) {
	p, ok := c.Phases[s]
	return p, ok
}

// Registry resolves charters by flow.
type Registry struct {
	byFlow map[domain.Flow]Charter
}

// NewRegistry builds the registry with the built-in flow charters.
func NewRegistry() *Registry {
	r := &Registry{byFlow: make(map[domain.Flow]Charter)}
	for _, c := range []Charter{
		DirectSales(),
		PackageOrder(),
		BrandLaunch(),
		Consultation(),
	} {
		r.byFlow[c.Meta.Flow] = c
	}
	return r
}

// ForFlow returns the charter for a flow.
func (r *Registry) ForFlow(f domain.Flow) (Charter, bool) {
	c, ok := r.byFlow[f]
	return c, ok
}

// Default returns the fallback charter used when a stored flow value is
// unknown or corrupt.
func (r *Registry) Default() Charter {
	return r.byFlow[domain.FlowDirectSales]
}

// Flows lists the registered flow ids.
func (r *Registry) Flows() []domain.Flow {
	flows := make([]domain.Flow, 0, len(r.byFlow))
	for f := range r.byFlow {
		flows = append(flows, f)
	}
	return flows
}
