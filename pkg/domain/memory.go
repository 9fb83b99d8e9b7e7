package domain

import "time"

// MaxPendingMatches caps the disambiguation shortlist presented to the user.
const MaxPendingMatches = 5

// Staleness is the inactivity horizon after which a session is discarded
// and lazily recreated.
const Staleness = time.Hour

// Memory is the sole mutable entity of a session. It is loaded at the start
// of a request, mutated by the engine and the active flow handler, and
// persisted at the end of the request unless a reset was triggered.
type Memory struct {
	Flow Flow `json:"flow"`
	Step Step `json:"step"`

	// Clipboard maps a consultation question id to the raw answer text.
	Clipboard map[string]string `json:"clipboard"`

	// QuestionIndex is the position within the current consultation phase.
	QuestionIndex int `json:"question_index"`

	// Selected catalog package (the vendor's sellable unit, never the
	// end-customer's own product).
	PackageID   string    `json:"package_id,omitempty"`
	PackageName string    `json:"package_name,omitempty"`
	Variants    []Variant `json:"variants,omitempty"`

	SelectedVariantID   string `json:"selected_variant_id,omitempty"`
	SelectedVariantName string `json:"selected_variant_name,omitempty"`

	// PendingMatches holds up to MaxPendingMatches candidates awaiting
	// numeric disambiguation.
	PendingMatches []Match `json:"pending_matches,omitempty"`

	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// NewMemory creates fresh memory positioned at the start of the given flow.
func NewMemory(flow Flow, now time.Time) *Memory {
	return &Memory{
		Flow:         flow,
		Step:         StepStart,
		Clipboard:    make(map[string]string),
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Stale reports whether the session exceeded the inactivity horizon.
func (m *Memory) Stale(now time.Time) bool {
	return now.Sub(m.LastActivity) > Staleness
}

// Touch records activity.
func (m *Memory) Touch(now time.Time) {
	m.LastActivity = now
}

// SelectPackage records the chosen package and resets downstream selections.
func (m *Memory) SelectPackage(p Package) {
	m.PackageID = p.ID
	m.PackageName = p.Title
	m.Variants = append([]Variant(nil), p.Variants...)
	m.SelectedVariantID = ""
	m.SelectedVariantName = ""
	m.PendingMatches = nil
}

// SelectVariant records the chosen variant and clears pending matches.
func (m *Memory) SelectVariant(v Variant) {
	m.SelectedVariantID = v.ID
	m.SelectedVariantName = v.Title
	m.PendingMatches = nil
}

// VariantByID returns the variant with the given id from the selected package.
func (m *Memory) VariantByID(id string) (Variant, bool) {
	for _, v := range m.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// Clone returns a deep copy so stores and tests can hold isolated snapshots.
func (m *Memory) Clone() *Memory {
	cp := *m
	cp.Clipboard = make(map[string]string, len(m.Clipboard))
	for k, v := range m.Clipboard {
		cp.Clipboard[k] = v
	}
	cp.Variants = append([]Variant(nil), m.Variants...)
	cp.PendingMatches = append([]Match(nil), m.PendingMatches...)
	return &cp
}
