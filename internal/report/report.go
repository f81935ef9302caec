package report

// SwitchState carries the toggle details of a switch node. It is embedded by
// pointer so navigation nodes serialize without the switch fields.
type SwitchState struct {
	CurrentState     string `json:"current_state"`
	RecommendedState string `json:"recommended_state"`
	Analysis         string `json:"analysis"`
}

// PathNode is one flattened entry: a navigation step or, when SwitchState
// is set, the switch itself.
type PathNode struct {
	Bounds string `json:"bounds,omitempty"`
	Text   string `json:"text,omitempty"`
	*SwitchState
}

// LayoutNode is one flattened entry of a personalization layout path.
type LayoutNode struct {
	Text   string `json:"text"`
	Bounds string `json:"bounds,omitempty"`
}

type Personality struct {
	PersonalitySwitches []PathNode   `json:"personality_switches"`
	PersonalityLayouts  []LayoutNode `json:"personality_layouts"`
}

// Report is the persisted exploration result. Each recorded path is
// concatenated in full, so shared prefixes repeat across records.
type Report struct {
	PrivacySwitches []PathNode  `json:"privacy_switches"`
	Personality     Personality `json:"personality"`
}

// New returns a report with non-nil sections so empty lists serialize as [].
func New() Report {
	return Report{
		PrivacySwitches: []PathNode{},
		Personality: Personality{
			PersonalitySwitches: []PathNode{},
			PersonalityLayouts:  []LayoutNode{},
		},
	}
}

// Empty reports whether no section carries any entry.
func (r Report) Empty() bool {
	return len(r.PrivacySwitches) == 0 &&
		len(r.Personality.PersonalitySwitches) == 0 &&
		len(r.Personality.PersonalityLayouts) == 0
}
