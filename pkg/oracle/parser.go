package oracle

import (
	"encoding/json"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/packfolio/concierge/pkg/domain"
)

// FallbackReply is the generic answer used whenever oracle output cannot
// be interpreted. The pipeline never surfaces a parse error to the user.
const FallbackReply = "Sorry, I didn't quite get that. Could you rephrase?"

// ParseDiscovery turns raw oracle text into a discovery decision. Malformed
// output, unknown kinds and incomplete shapes all collapse to a safe chat
// fallback.
func ParseDiscovery(raw string) domain.DiscoveryDecision {
	fallback := domain.DiscoveryDecision{Kind: domain.DecisionChat, Reply: FallbackReply}

	obj, ok := decodeObject(raw)
	if !ok {
		return fallback
	}

	var d domain.DiscoveryDecision
	if err := mapstructure.Decode(obj, &d); err != nil {
		return fallback
	}

	switch d.Kind {
	case domain.DecisionFound:
		if d.ID == "" {
			return fallback
		}
	case domain.DecisionMultiple:
		if len(d.Matches) == 0 {
			return fallback
		}
		if len(d.Matches) > domain.MaxPendingMatches {
			d.Matches = d.Matches[:domain.MaxPendingMatches]
		}
	case domain.DecisionChat:
		if strings.TrimSpace(d.Reply) == "" {
			d.Reply = FallbackReply
		}
	case domain.DecisionNone:
		// Nothing else to validate.
	default:
		return fallback
	}
	return d
}

// ParseVariant turns raw oracle text into a variant decision. Anything
// malformed becomes a no-match with the generic reply.
func ParseVariant(raw string) domain.VariantDecision {
	fallback := domain.VariantDecision{Match: false, Reply: FallbackReply}

	obj, ok := decodeObject(raw)
	if !ok {
		return fallback
	}

	var d domain.VariantDecision
	if err := mapstructure.Decode(obj, &d); err != nil {
		return fallback
	}
	if d.Match && d.ID == "" {
		return fallback
	}
	return d
}

// decodeObject strips Markdown code fences and parses the remainder as a
// JSON object.
func decodeObject(raw string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(stripFences(raw)), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	// Drop the opening fence line (possibly "```json").
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		return strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
