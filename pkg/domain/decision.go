package domain

// DecisionKind discriminates the closed set of discovery decisions.
type DecisionKind string

const (
	DecisionFound    DecisionKind = "found"
	DecisionMultiple DecisionKind = "multiple"
	DecisionChat     DecisionKind = "chat"
	DecisionNone     DecisionKind = "none"
)

// DiscoveryDecision is the typed outcome of a catalog discovery call.
// It is produced exclusively by the decision parser; no unvalidated
// oracle output crosses this boundary.
type DiscoveryDecision struct {
	Kind    DecisionKind `json:"kind" mapstructure:"kind"`
	ID      string       `json:"id,omitempty" mapstructure:"id"`
	Reason  string       `json:"reason,omitempty" mapstructure:"reason"`
	Reply   string       `json:"reply,omitempty" mapstructure:"reply"`
	Matches []Match      `json:"matches,omitempty" mapstructure:"matches"`
}

// VariantDecision is the typed outcome of a variant-matching call.
type VariantDecision struct {
	Match bool   `json:"match" mapstructure:"match"`
	ID    string `json:"id,omitempty" mapstructure:"id"`
	Reply string `json:"reply,omitempty" mapstructure:"reply"`
}
